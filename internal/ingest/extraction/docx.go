package extraction

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/unidoc/unioffice/v2/document"
)

const docxMime = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// docxBackend decodes Word documents: paragraph text with heading levels,
// tables as structured cells, and embedded images.
type docxBackend struct{}

func (b *docxBackend) Name() string { return "docx" }

func (b *docxBackend) Matches(mtype *mimetype.MIME, ext string) bool {
	return mtype.Is(docxMime) || ext == ".docx"
}

func (b *docxBackend) Extract(ctx context.Context, path string) (*StructuredDocument, error) {
	doc, err := document.Open(path)
	if err != nil {
		return nil, &ExtractionError{Op: "open docx", Err: err}
	}
	defer doc.Close()

	out := &StructuredDocument{}

	for _, p := range doc.Paragraphs() {
		var sb strings.Builder
		for _, r := range p.Runs() {
			sb.WriteString(r.Text())
		}
		text := strings.TrimSpace(sb.String())
		if text == "" {
			continue
		}

		if level := headingLevel(paragraphStyle(p)); level > 0 {
			out.Blocks = append(out.Blocks, Block{Kind: BlockHeading, Text: text, Level: level})
		} else {
			out.Blocks = append(out.Blocks, Block{Kind: BlockText, Text: text})
		}
	}

	for _, t := range doc.Tables() {
		var rows [][]string
		for _, row := range t.Rows() {
			var cells []string
			for _, cell := range row.Cells() {
				var sb strings.Builder
				for _, p := range cell.Paragraphs() {
					for _, r := range p.Runs() {
						sb.WriteString(r.Text())
					}
				}
				cells = append(cells, strings.TrimSpace(sb.String()))
			}
			rows = append(rows, cells)
		}
		if len(rows) > 0 {
			out.Blocks = append(out.Blocks, Block{Kind: BlockTable, Table: rows})
		}
	}

	for _, imgRef := range doc.Images {
		tempPath := imgRef.Path()
		if tempPath == "" {
			continue
		}
		file, err := os.Open(tempPath)
		if err != nil {
			continue
		}
		data, readErr := io.ReadAll(file)
		file.Close()
		if readErr != nil {
			continue
		}
		out.Blocks = append(out.Blocks, Block{Kind: BlockImage, Image: data})
	}

	return out, nil
}

// paragraphStyle reads the style id off the raw paragraph properties.
func paragraphStyle(p document.Paragraph) string {
	ppr := p.X().PPr
	if ppr == nil || ppr.PStyle == nil {
		return ""
	}
	return ppr.PStyle.ValAttr
}

// headingLevel maps Word heading styles ("Heading1".."Heading9") to a
// markdown level; 0 means not a heading.
func headingLevel(style string) int {
	if !strings.HasPrefix(style, "Heading") {
		return 0
	}
	rest := strings.TrimPrefix(style, "Heading")
	if len(rest) != 1 || rest[0] < '1' || rest[0] > '9' {
		return 0
	}
	return int(rest[0] - '0')
}
