package extraction

import (
	"strings"
	"testing"
)

func TestMarkdownBlocksHeadingsAndParagraphs(t *testing.T) {
	input := "# Title\n\nFirst paragraph\nstill first.\n\n## Section\n\nSecond paragraph.\n"

	blocks := markdownBlocks(input)
	if len(blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d: %+v", len(blocks), blocks)
	}

	if blocks[0].Kind != BlockHeading || blocks[0].Level != 1 || blocks[0].Text != "Title" {
		t.Errorf("block 0 = %+v, want level-1 heading 'Title'", blocks[0])
	}
	if blocks[1].Kind != BlockText || !strings.Contains(blocks[1].Text, "still first") {
		t.Errorf("block 1 = %+v, want joined paragraph", blocks[1])
	}
	if blocks[2].Kind != BlockHeading || blocks[2].Level != 2 {
		t.Errorf("block 2 = %+v, want level-2 heading", blocks[2])
	}
	if blocks[3].Kind != BlockText || blocks[3].Text != "Second paragraph." {
		t.Errorf("block 3 = %+v, want text block", blocks[3])
	}
}

func TestMarkdownBlocksTable(t *testing.T) {
	input := "| Name | Role |\n| --- | --- |\n| ada | engineer |\n\nAfter the table.\n"

	blocks := markdownBlocks(input)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d: %+v", len(blocks), blocks)
	}

	table := blocks[0]
	if table.Kind != BlockTable {
		t.Fatalf("block 0 kind = %v, want table", table.Kind)
	}
	// The separator row must not survive as data.
	if len(table.Table) != 2 {
		t.Fatalf("table rows = %d, want 2 (header + data)", len(table.Table))
	}
	if table.Table[0][0] != "Name" || table.Table[1][1] != "engineer" {
		t.Errorf("table content = %v", table.Table)
	}

	if blocks[1].Kind != BlockText || blocks[1].Text != "After the table." {
		t.Errorf("block 1 = %+v, want trailing paragraph", blocks[1])
	}
}

func TestParseTableRowSeparator(t *testing.T) {
	if cells := parseTableRow("| --- | :---: |"); cells != nil {
		t.Errorf("separator row parsed as data: %v", cells)
	}
	if cells := parseTableRow("| a | b |"); len(cells) != 2 {
		t.Errorf("data row cells = %v, want 2", cells)
	}
}

func TestBlockMarkdownRendering(t *testing.T) {
	heading := Block{Kind: BlockHeading, Level: 3, Text: "Deep"}
	if got := heading.Markdown(); got != "### Deep" {
		t.Errorf("heading markdown = %q", got)
	}

	image := Block{Kind: BlockImage, Image: []byte{1, 2}}
	if got := image.Markdown(); got != "" {
		t.Errorf("image markdown = %q, want empty", got)
	}

	table := Block{Kind: BlockTable, Table: [][]string{{"a", "b"}, {"1"}}}
	md := table.Markdown()
	if !strings.Contains(md, "| a | b |") {
		t.Errorf("table header missing: %q", md)
	}
	// Short rows are padded to the header width.
	if !strings.Contains(md, "| 1 |  |") {
		t.Errorf("short row not padded: %q", md)
	}
}

func TestDocumentMarkdownSkipsImages(t *testing.T) {
	doc := &StructuredDocument{
		Blocks: []Block{
			{Kind: BlockHeading, Level: 1, Text: "T"},
			{Kind: BlockImage, Image: []byte{1}},
			{Kind: BlockText, Text: "body"},
		},
	}
	md := doc.Markdown()
	if !strings.Contains(md, "# T") || !strings.Contains(md, "body") {
		t.Errorf("document markdown incomplete: %q", md)
	}
	if strings.Count(md, "\n\n") != 2 {
		t.Errorf("expected one separator per rendered block: %q", md)
	}
}

func TestImagesCollectsInOrder(t *testing.T) {
	doc := &StructuredDocument{
		Blocks: []Block{
			{Kind: BlockImage, Image: []byte{1}},
			{Kind: BlockText, Text: "x"},
			{Kind: BlockImage, Image: []byte{2}},
			{Kind: BlockImage},
		},
	}
	images := doc.Images()
	if len(images) != 2 {
		t.Fatalf("images = %d, want 2 (empty ones skipped)", len(images))
	}
	if images[0][0] != 1 || images[1][0] != 2 {
		t.Errorf("images out of order: %v", images)
	}
}
