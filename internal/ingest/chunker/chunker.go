package chunker

import (
	"fmt"
	"strings"

	"docuvault/internal/ingest/extraction"
	"docuvault/internal/models"

	"github.com/pkoukk/tiktoken-go"
)

// ChunkingError reports a tokenizer problem or malformed structured input.
type ChunkingError struct {
	Op  string
	Err error
}

func (e *ChunkingError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("chunking failed: %s", e.Op)
	}
	return fmt.Sprintf("chunking failed: %s: %v", e.Op, e.Err)
}

func (e *ChunkingError) Unwrap() error { return e.Err }

// Chunker splits structured documents into token-bounded, contextualized
// chunks. It uses the same tokenizer vocabulary as the embedding model so
// chunk sizes line up with the model's context window. A Chunker is built
// once and reused; Chunk is safe for concurrent use.
type Chunker struct {
	tokenizer *tiktoken.Tiktoken
	maxTokens int
}

// New creates a Chunker for the given embedding model. Models without a
// registered tiktoken encoding fall back to cl100k_base.
func New(model string, maxTokens int) (*Chunker, error) {
	if maxTokens <= 0 {
		return nil, &ChunkingError{Op: fmt.Sprintf("invalid max tokens %d", maxTokens)}
	}

	tokenizer, err := tiktoken.EncodingForModel(model)
	if err != nil {
		tokenizer, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, &ChunkingError{Op: "load tokenizer", Err: err}
		}
	}

	return &Chunker{tokenizer: tokenizer, maxTokens: maxTokens}, nil
}

// segment is an intermediate piece of content: serialized text plus the
// heading trail it sits under and the page of its first source block.
type segment struct {
	text   string
	trail  []string
	page   int
	tokens int
}

// Chunk converts a structured document into ordered chunks. Heading blocks
// never become chunks themselves; they form the context prepended to the
// chunks beneath them. Tables are serialized as markdown, not flattened.
func (c *Chunker) Chunk(doc *extraction.StructuredDocument) ([]models.Chunk, error) {
	if doc == nil {
		return nil, &ChunkingError{Op: "nil document"}
	}

	segments := c.collect(doc)
	segments = c.mergePeers(segments)

	chunks := make([]models.Chunk, 0, len(segments))
	for _, seg := range segments {
		text := contextualize(seg.trail, seg.text)

		chunk := models.Chunk{Text: text}
		if seg.page > 0 {
			page := seg.page
			chunk.PageNumber = &page
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

// ChunkText wraps plain text as a single-block document and chunks it.
func (c *Chunker) ChunkText(text string) ([]models.Chunk, error) {
	return c.Chunk(extraction.FromText(text))
}

// collect walks the blocks, tracks the heading trail, and emits segments
// already bounded by the token budget.
func (c *Chunker) collect(doc *extraction.StructuredDocument) []segment {
	var segments []segment
	var trail []headingEntry

	for _, block := range doc.Blocks {
		switch block.Kind {
		case extraction.BlockHeading:
			trail = pushHeading(trail, block)
			continue
		case extraction.BlockImage:
			continue
		}

		text := strings.TrimSpace(block.Markdown())
		if text == "" {
			continue
		}

		trailText := trailStrings(trail)
		budget := c.budgetFor(trailText)

		for _, piece := range c.split(text, budget) {
			segments = append(segments, segment{
				text:   piece,
				trail:  trailText,
				page:   block.Page,
				tokens: c.count(piece),
			})
		}
	}
	return segments
}

// budgetFor is the token budget left for content once the contextualization
// prefix is accounted for. It never drops below a quarter of the configured
// maximum, so pathological heading trails cannot starve the content.
func (c *Chunker) budgetFor(trail []string) int {
	budget := c.maxTokens - c.count(contextualize(trail, ""))
	if min := c.maxTokens / 4; budget < min {
		budget = min
	}
	return budget
}

// split cuts text into pieces no larger than budget tokens.
func (c *Chunker) split(text string, budget int) []string {
	tokens := c.tokenizer.Encode(text, nil, nil)
	if len(tokens) <= budget {
		return []string{text}
	}

	var pieces []string
	for start := 0; start < len(tokens); start += budget {
		end := start + budget
		if end > len(tokens) {
			end = len(tokens)
		}
		piece := strings.TrimSpace(c.tokenizer.Decode(tokens[start:end]))
		if piece != "" {
			pieces = append(pieces, piece)
		}
	}
	return pieces
}

// mergePeers joins adjacent small segments that share a heading trail, to
// avoid fragmenting a section into many tiny chunks. The merged segment
// keeps the page of its first constituent.
func (c *Chunker) mergePeers(segments []segment) []segment {
	if len(segments) < 2 {
		return segments
	}

	merged := make([]segment, 0, len(segments))
	current := segments[0]

	for _, next := range segments[1:] {
		budget := c.budgetFor(current.trail)
		joinable := sameTrail(current.trail, next.trail) &&
			current.tokens+next.tokens < budget

		if joinable {
			current.text = current.text + "\n\n" + next.text
			current.tokens = c.count(current.text)
			continue
		}
		merged = append(merged, current)
		current = next
	}
	return append(merged, current)
}

func (c *Chunker) count(text string) int {
	return len(c.tokenizer.Encode(text, nil, nil))
}

// contextualize prepends the heading trail so the embedded text carries its
// structural context, not just the raw content.
func contextualize(trail []string, text string) string {
	if len(trail) == 0 {
		return text
	}
	prefix := strings.Join(trail, "\n")
	if text == "" {
		return prefix + "\n\n"
	}
	return prefix + "\n\n" + text
}

type headingEntry struct {
	level int
	text  string
}

// pushHeading replaces trail entries at or below the new heading's level,
// keeping only the ancestors of the current section.
func pushHeading(trail []headingEntry, block extraction.Block) []headingEntry {
	level := block.Level
	if level < 1 {
		level = 1
	}
	for len(trail) > 0 && trail[len(trail)-1].level >= level {
		trail = trail[:len(trail)-1]
	}
	return append(trail, headingEntry{level: level, text: block.Text})
}

func trailStrings(trail []headingEntry) []string {
	if len(trail) == 0 {
		return nil
	}
	out := make([]string, len(trail))
	for i, h := range trail {
		out[i] = strings.Repeat("#", h.level) + " " + h.text
	}
	return out
}

func sameTrail(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
