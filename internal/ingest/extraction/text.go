package extraction

import (
	"context"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// textBackend handles plain text and markdown files. Markdown headings are
// recognized so contextualization has a heading trail to work with.
type textBackend struct{}

func (b *textBackend) Name() string { return "text" }

func (b *textBackend) Matches(mtype *mimetype.MIME, ext string) bool {
	return mtype.Is("text/plain") || mtype.Is("text/markdown") ||
		ext == ".txt" || ext == ".md"
}

func (b *textBackend) Extract(ctx context.Context, path string) (*StructuredDocument, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &ExtractionError{Op: "read text", Err: err}
	}
	return &StructuredDocument{Blocks: markdownBlocks(string(content))}, nil
}

// markdownBlocks splits markdown into heading, table and text blocks.
// Paragraphs are separated by blank lines; consecutive pipe-prefixed lines
// form a table.
func markdownBlocks(content string) []Block {
	var blocks []Block
	var paragraph []string

	flush := func() {
		if len(paragraph) == 0 {
			return
		}
		text := strings.TrimSpace(strings.Join(paragraph, "\n"))
		paragraph = nil
		if text != "" {
			blocks = append(blocks, Block{Kind: BlockText, Text: text})
		}
	}

	lines := strings.Split(content, "\n")
	for i := 0; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], " \t")
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			flush()
		case strings.HasPrefix(trimmed, "#"):
			flush()
			level := 0
			for level < len(trimmed) && trimmed[level] == '#' {
				level++
			}
			text := strings.TrimSpace(trimmed[level:])
			if text != "" && level <= 6 {
				blocks = append(blocks, Block{Kind: BlockHeading, Text: text, Level: level})
			} else {
				paragraph = append(paragraph, line)
			}
		case strings.HasPrefix(trimmed, "|"):
			flush()
			var rows [][]string
			for ; i < len(lines); i++ {
				row := strings.TrimSpace(lines[i])
				if !strings.HasPrefix(row, "|") {
					i--
					break
				}
				cells := parseTableRow(row)
				if cells != nil {
					rows = append(rows, cells)
				}
			}
			if len(rows) > 0 {
				blocks = append(blocks, Block{Kind: BlockTable, Table: rows})
			}
		default:
			paragraph = append(paragraph, line)
		}
	}
	flush()

	return blocks
}

// parseTableRow splits a markdown table row into cells; separator rows
// (|---|---|) return nil.
func parseTableRow(row string) []string {
	row = strings.Trim(row, "|")
	parts := strings.Split(row, "|")
	cells := make([]string, 0, len(parts))
	separator := true
	for _, part := range parts {
		cell := strings.TrimSpace(part)
		if strings.Trim(cell, "-: ") != "" {
			separator = false
		}
		cells = append(cells, cell)
	}
	if separator {
		return nil
	}
	return cells
}
