package extraction

import (
	"context"
	"os"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/gabriel-vasile/mimetype"
)

// htmlBackend converts HTML files to markdown before structuring, so tags
// and scripts never leak into chunk text.
type htmlBackend struct{}

func (b *htmlBackend) Name() string { return "html" }

func (b *htmlBackend) Matches(mtype *mimetype.MIME, ext string) bool {
	return mtype.Is("text/html") || ext == ".html" || ext == ".htm"
}

func (b *htmlBackend) Extract(ctx context.Context, path string) (*StructuredDocument, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &ExtractionError{Op: "read html", Err: err}
	}

	markdown, err := htmltomarkdown.ConvertString(string(content))
	if err != nil {
		return nil, &ExtractionError{Op: "convert html", Err: err}
	}

	return &StructuredDocument{Blocks: markdownBlocks(markdown)}, nil
}
