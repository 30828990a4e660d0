package extraction

import (
	"fmt"
	"strings"
)

// BlockKind discriminates the content carried by a Block.
type BlockKind int

const (
	BlockText BlockKind = iota
	BlockHeading
	BlockTable
	BlockImage
)

// Block is one structured content unit extracted from a document. Page is
// 1-based; 0 means the source format has no page concept.
type Block struct {
	Kind  BlockKind
	Text  string
	Level int        // heading level, BlockHeading only
	Table [][]string // first row is the header, BlockTable only
	Image []byte     // raw image bytes, BlockImage only
	Page  int
}

// Origin records provenance of the raw input.
type Origin struct {
	Filename   string
	MimeType   string
	BinaryHash string
}

// StructuredDocument is the format-independent representation produced by
// the extraction engine: ordered blocks with page provenance plus origin
// metadata. Downstream chunking consumes it directly.
type StructuredDocument struct {
	Origin Origin
	Blocks []Block
	// Pages is the source page count; 0 when the format has no pages.
	Pages int
}

// FromText wraps plain text as a single-block document so it can flow
// through the same chunking path as extracted content.
func FromText(text string) *StructuredDocument {
	return &StructuredDocument{
		Blocks: []Block{{Kind: BlockText, Text: text}},
	}
}

// Markdown renders the block as markdown. Tables keep their structure
// instead of being flattened into plain rows.
func (b Block) Markdown() string {
	switch b.Kind {
	case BlockHeading:
		level := b.Level
		if level < 1 {
			level = 1
		}
		return strings.Repeat("#", level) + " " + b.Text
	case BlockTable:
		return tableMarkdown(b.Table)
	case BlockImage:
		return ""
	default:
		return b.Text
	}
}

// Markdown renders the whole document as markdown, one block per paragraph.
// This is the textual artifact persisted alongside the vector records.
func (d *StructuredDocument) Markdown() string {
	var sb strings.Builder
	for _, b := range d.Blocks {
		md := b.Markdown()
		if md == "" {
			continue
		}
		sb.WriteString(md)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// Images returns the raw bytes of every image block, in document order.
func (d *StructuredDocument) Images() [][]byte {
	var images [][]byte
	for _, b := range d.Blocks {
		if b.Kind == BlockImage && len(b.Image) > 0 {
			images = append(images, b.Image)
		}
	}
	return images
}

func tableMarkdown(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	if width == 0 {
		return ""
	}

	pad := func(row []string) []string {
		if len(row) == width {
			return row
		}
		padded := make([]string, width)
		copy(padded, row)
		return padded
	}

	var sb strings.Builder
	sb.WriteString("| " + strings.Join(pad(rows[0]), " | ") + " |\n")
	sb.WriteString("|" + strings.Repeat(" --- |", width) + "\n")
	for _, row := range rows[1:] {
		sb.WriteString("| " + strings.Join(pad(row), " | ") + " |\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// ExtractionError reports unreadable, corrupt or unsupported input, or an
// unrecoverable OCR failure.
type ExtractionError struct {
	Op  string
	Err error
}

func (e *ExtractionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("extraction failed: %s", e.Op)
	}
	return fmt.Sprintf("extraction failed: %s: %v", e.Op, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
