package extraction

import (
	"context"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

// pdfBackend decodes PDF files page by page, keeping page provenance on
// every block. Pages without a text layer fall back to OCR.
type pdfBackend struct {
	ocr ocrClient
}

func (b *pdfBackend) Name() string { return "pdf" }

func (b *pdfBackend) Matches(mtype *mimetype.MIME, ext string) bool {
	return mtype.Is("application/pdf") || ext == ".pdf"
}

func (b *pdfBackend) Extract(ctx context.Context, path string) (*StructuredDocument, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, &ExtractionError{Op: "open pdf", Err: err}
	}
	defer f.Close()

	numPages := reader.NumPage()
	doc := &StructuredDocument{Pages: numPages}

	textFound := false
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, &ExtractionError{Op: "read pdf page", Err: err}
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, &ExtractionError{Op: "extract pdf text", Err: err}
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		textFound = true
		doc.Blocks = append(doc.Blocks, Block{Kind: BlockText, Text: text, Page: i})
	}

	// No text layer at all: a scanned document. Run the whole file through
	// OCR; a failure here fails the document, there is no partial-page model.
	if !textFound && numPages > 0 {
		text, err := b.ocr.Recognize(ctx, path)
		if err != nil {
			return nil, &ExtractionError{Op: "ocr pdf", Err: err}
		}
		if text = strings.TrimSpace(text); text != "" {
			doc.Blocks = append(doc.Blocks, Block{Kind: BlockText, Text: text, Page: 1})
		}
	}

	return doc, nil
}
