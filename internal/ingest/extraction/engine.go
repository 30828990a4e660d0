package extraction

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"docuvault/internal/config"
	"docuvault/pkg/logger"

	"github.com/djherbis/times"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gobwas/glob"
)

// backend decodes one document format into a StructuredDocument.
type backend interface {
	Name() string
	Matches(mtype *mimetype.MIME, ext string) bool
	Extract(ctx context.Context, path string) (*StructuredDocument, error)
}

// Engine converts raw uploaded files into structured documents. It is
// expensive to construct (format backends, OCR client, device probing) and
// is built once per process; Extract is safe for concurrent use.
type Engine struct {
	log       *logger.Logger
	backends  []backend
	allowed   []glob.Glob
	artifacts *ArtifactStore
	device    Device
	ocrEngine OCREngine
	scale     float64
}

// NewEngine builds the extraction engine from configuration. The OCR engine
// and accelerator device are resolved here, once, and reused by every call.
func NewEngine(cfg *config.ExtractionConfig, artifacts *ArtifactStore, log *logger.Logger) (*Engine, error) {
	ocrEngine, err := ParseOCREngine(cfg.OCREngine)
	if err != nil {
		return nil, err
	}
	device := DetectDevice(cfg.Device)
	ocr := newOCRClient(ocrEngine, cfg.OCREndpoint, device)

	patterns := cfg.AllowedFormats
	if len(patterns) == 0 {
		patterns = []string{"*.pdf", "*.docx", "*.xlsx", "*.md", "*.txt", "*.html", "*.png", "*.jpg", "*.jpeg"}
	}
	allowed := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(strings.ToLower(pattern))
		if err != nil {
			return nil, fmt.Errorf("invalid allowed format pattern '%s': %w", pattern, err)
		}
		allowed = append(allowed, g)
	}

	scale := cfg.ImageScale
	if scale <= 0 {
		scale = 1.0
	}

	log.Info(fmt.Sprintf("Extraction engine ready (ocr=%s, device=%s)", ocrEngine, device))

	return &Engine{
		log: log,
		backends: []backend{
			&pdfBackend{ocr: ocr},
			&docxBackend{},
			&xlsxBackend{},
			&htmlBackend{},
			&imageBackend{ocr: ocr},
			&textBackend{},
		},
		allowed:   allowed,
		artifacts: artifacts,
		device:    device,
		ocrEngine: ocrEngine,
		scale:     scale,
	}, nil
}

// Device returns the accelerator the engine resolved at construction.
func (e *Engine) Device() Device { return e.device }

// Extract converts the file at path into a structured document, writes the
// derived artifacts under the tenant/document prefix, and returns the
// metadata to record on the document.
func (e *Engine) Extract(ctx context.Context, path, tenantID, documentID string) (*StructuredDocument, map[string]interface{}, error) {
	filename := filepath.Base(path)
	if !e.formatAllowed(filename) {
		return nil, nil, &ExtractionError{Op: fmt.Sprintf("format of '%s' not allowed", filename)}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, &ExtractionError{Op: "stat input", Err: err}
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, nil, &ExtractionError{Op: "detect mime type", Err: err}
	}

	ext := strings.ToLower(filepath.Ext(filename))
	bk := e.selectBackend(mtype, ext)
	if bk == nil {
		return nil, nil, &ExtractionError{Op: fmt.Sprintf("unsupported format %s", mtype.String())}
	}

	doc, err := bk.Extract(ctx, path)
	if err != nil {
		return nil, nil, err
	}

	hash, err := hashFile(path)
	if err != nil {
		return nil, nil, &ExtractionError{Op: "hash input", Err: err}
	}
	doc.Origin = Origin{
		Filename:   filename,
		MimeType:   mtype.String(),
		BinaryHash: hash,
	}

	artifacts, err := e.artifacts.Save(ctx, tenantID, documentID, doc.Markdown(), doc.Images())
	if err != nil {
		return nil, nil, &ExtractionError{Op: "store artifacts", Err: err}
	}

	metadata := map[string]interface{}{
		"extension":    ext,
		"source":       "upload",
		"file_size":    info.Size(),
		"mimetype":     mtype.String(),
		"binary_hash":  hash,
		"markdown_key": artifacts.MarkdownKey,
		"image_keys":   artifacts.ImageKeys,
		"image_scale":  e.scale,
		"backend":      bk.Name(),
	}
	if ts, err := times.Stat(path); err == nil {
		metadata["modified_at"] = ts.ModTime().UTC().Format("2006-01-02T15:04:05Z07:00")
	}

	e.log.WithDocument(tenantID, documentID).
		Info(fmt.Sprintf("Extracted %d blocks over %d pages via %s", len(doc.Blocks), doc.Pages, bk.Name()))

	return doc, metadata, nil
}

func (e *Engine) formatAllowed(filename string) bool {
	name := strings.ToLower(filename)
	for _, g := range e.allowed {
		if g.Match(name) {
			return true
		}
	}
	return false
}

func (e *Engine) selectBackend(mtype *mimetype.MIME, ext string) backend {
	for _, bk := range e.backends {
		if bk.Matches(mtype, ext) {
			return bk
		}
	}
	return nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
