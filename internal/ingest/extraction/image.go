package extraction

import (
	"context"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// imageBackend handles standalone image uploads (scans, photographed
// pages). The OCR engine produces the text; the raw image is kept as an
// artifact block.
type imageBackend struct {
	ocr ocrClient
}

func (b *imageBackend) Name() string { return "image" }

func (b *imageBackend) Matches(mtype *mimetype.MIME, ext string) bool {
	return mtype.Is("image/png") || mtype.Is("image/jpeg") ||
		ext == ".png" || ext == ".jpg" || ext == ".jpeg"
}

func (b *imageBackend) Extract(ctx context.Context, path string) (*StructuredDocument, error) {
	text, err := b.ocr.Recognize(ctx, path)
	if err != nil {
		return nil, &ExtractionError{Op: "ocr image", Err: err}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ExtractionError{Op: "read image", Err: err}
	}

	doc := &StructuredDocument{Pages: 1}
	if text = strings.TrimSpace(text); text != "" {
		doc.Blocks = append(doc.Blocks, Block{Kind: BlockText, Text: text, Page: 1})
	}
	doc.Blocks = append(doc.Blocks, Block{Kind: BlockImage, Image: data, Page: 1})

	return doc, nil
}
