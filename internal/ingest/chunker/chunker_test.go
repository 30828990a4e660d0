package chunker

import (
	"strings"
	"testing"

	"docuvault/internal/ingest/extraction"
)

func newTestChunker(t *testing.T, maxTokens int) *Chunker {
	t.Helper()
	c, err := New("text-embedding-3-small", maxTokens)
	if err != nil {
		t.Fatalf("failed to create chunker: %v", err)
	}
	return c
}

func TestChunkEmptyDocument(t *testing.T) {
	c := newTestChunker(t, 128)

	chunks, err := c.Chunk(&extraction.StructuredDocument{})
	if err != nil {
		t.Fatalf("Chunk failed: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected zero chunks, got %d", len(chunks))
	}
}

func TestChunkNilDocument(t *testing.T) {
	c := newTestChunker(t, 128)
	if _, err := c.Chunk(nil); err == nil {
		t.Fatal("expected error for nil document")
	}
}

func TestChunkContextualizesWithHeadingTrail(t *testing.T) {
	c := newTestChunker(t, 256)

	doc := &extraction.StructuredDocument{
		Blocks: []extraction.Block{
			{Kind: extraction.BlockHeading, Level: 1, Text: "Manual"},
			{Kind: extraction.BlockHeading, Level: 2, Text: "Setup"},
			{Kind: extraction.BlockText, Text: "Install the binary and start the daemon."},
		},
	}

	chunks, err := c.Chunk(doc)
	if err != nil {
		t.Fatalf("Chunk failed: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}

	text := chunks[0].Text
	if !strings.Contains(text, "# Manual") || !strings.Contains(text, "## Setup") {
		t.Errorf("chunk missing heading context:\n%s", text)
	}
	if !strings.Contains(text, "Install the binary") {
		t.Errorf("chunk missing content:\n%s", text)
	}
	if !strings.HasPrefix(text, "# Manual") {
		t.Errorf("heading context must precede content:\n%s", text)
	}
}

func TestChunkSiblingHeadingReplacesTrail(t *testing.T) {
	c := newTestChunker(t, 256)

	doc := &extraction.StructuredDocument{
		Blocks: []extraction.Block{
			{Kind: extraction.BlockHeading, Level: 1, Text: "Manual"},
			{Kind: extraction.BlockHeading, Level: 2, Text: "Setup"},
			{Kind: extraction.BlockText, Text: "Setup instructions."},
			{Kind: extraction.BlockHeading, Level: 2, Text: "Usage"},
			{Kind: extraction.BlockText, Text: "Usage instructions."},
		},
	}

	chunks, err := c.Chunk(doc)
	if err != nil {
		t.Fatalf("Chunk failed: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}

	if strings.Contains(chunks[1].Text, "## Setup") {
		t.Errorf("sibling heading leaked into second chunk:\n%s", chunks[1].Text)
	}
	if !strings.Contains(chunks[1].Text, "## Usage") {
		t.Errorf("second chunk missing its own heading:\n%s", chunks[1].Text)
	}
	if !strings.Contains(chunks[1].Text, "# Manual") {
		t.Errorf("second chunk lost the shared ancestor heading:\n%s", chunks[1].Text)
	}
}

func TestChunkSplitsOversizedBlock(t *testing.T) {
	c := newTestChunker(t, 32)

	// Far more than 32 tokens of text.
	long := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 50)
	doc := &extraction.StructuredDocument{
		Blocks: []extraction.Block{{Kind: extraction.BlockText, Text: long}},
	}

	chunks, err := c.Chunk(doc)
	if err != nil {
		t.Fatalf("Chunk failed: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("oversized block not split, got %d chunks", len(chunks))
	}
	for i, chunk := range chunks {
		if got := c.count(chunk.Text); got > c.maxTokens {
			t.Errorf("chunk %d has %d tokens, budget is %d", i, got, c.maxTokens)
		}
	}
}

func TestChunkMergesSmallPeers(t *testing.T) {
	c := newTestChunker(t, 512)

	doc := &extraction.StructuredDocument{
		Blocks: []extraction.Block{
			{Kind: extraction.BlockHeading, Level: 1, Text: "Notes"},
			{Kind: extraction.BlockText, Text: "First short paragraph."},
			{Kind: extraction.BlockText, Text: "Second short paragraph."},
			{Kind: extraction.BlockText, Text: "Third short paragraph."},
		},
	}

	chunks, err := c.Chunk(doc)
	if err != nil {
		t.Fatalf("Chunk failed: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected peers merged into 1 chunk, got %d", len(chunks))
	}
	for _, want := range []string{"First short", "Second short", "Third short"} {
		if !strings.Contains(chunks[0].Text, want) {
			t.Errorf("merged chunk missing %q:\n%s", want, chunks[0].Text)
		}
	}
}

func TestChunkKeepsPageOfFirstBlock(t *testing.T) {
	c := newTestChunker(t, 512)

	doc := &extraction.StructuredDocument{
		Blocks: []extraction.Block{
			{Kind: extraction.BlockText, Text: "Content on page three.", Page: 3},
			{Kind: extraction.BlockText, Text: "Content on page four.", Page: 4},
		},
		Pages: 4,
	}

	chunks, err := c.Chunk(doc)
	if err != nil {
		t.Fatalf("Chunk failed: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 merged chunk, got %d", len(chunks))
	}
	if chunks[0].PageNumber == nil || *chunks[0].PageNumber != 3 {
		t.Errorf("merged chunk page = %v, want 3", chunks[0].PageNumber)
	}
}

func TestChunkPageUnsetWhenUnknown(t *testing.T) {
	c := newTestChunker(t, 128)

	chunks, err := c.ChunkText("Plain text with no page provenance.")
	if err != nil {
		t.Fatalf("ChunkText failed: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].PageNumber != nil {
		t.Errorf("page number should be unset, got %d", *chunks[0].PageNumber)
	}
}

func TestChunkSerializesTablesAsMarkdown(t *testing.T) {
	c := newTestChunker(t, 256)

	doc := &extraction.StructuredDocument{
		Blocks: []extraction.Block{
			{Kind: extraction.BlockTable, Table: [][]string{
				{"Name", "Role"},
				{"amundsen", "explorer"},
			}},
		},
	}

	chunks, err := c.Chunk(doc)
	if err != nil {
		t.Fatalf("Chunk failed: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if !strings.Contains(chunks[0].Text, "| Name | Role |") {
		t.Errorf("table not serialized as markdown:\n%s", chunks[0].Text)
	}
	if !strings.Contains(chunks[0].Text, "| amundsen | explorer |") {
		t.Errorf("table row missing:\n%s", chunks[0].Text)
	}
}

func TestChunkSkipsImageBlocks(t *testing.T) {
	c := newTestChunker(t, 128)

	doc := &extraction.StructuredDocument{
		Blocks: []extraction.Block{
			{Kind: extraction.BlockImage, Image: []byte{0x89, 0x50}},
		},
	}

	chunks, err := c.Chunk(doc)
	if err != nil {
		t.Fatalf("Chunk failed: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("image-only document should produce no chunks, got %d", len(chunks))
	}
}

func TestNewRejectsInvalidBudget(t *testing.T) {
	if _, err := New("text-embedding-3-small", 0); err == nil {
		t.Fatal("expected error for zero max tokens")
	}
}
