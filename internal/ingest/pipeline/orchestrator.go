package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"docuvault/internal/config"
	"docuvault/internal/ingest/extraction"
	"docuvault/internal/models"
	"docuvault/pkg/logger"
)

// Extractor turns a stored file into a structured document plus
// file-level metadata.
type Extractor interface {
	Extract(ctx context.Context, path, tenantID, documentID string) (*extraction.StructuredDocument, map[string]interface{}, error)
}

// Chunker splits a structured document into bounded, contextualized chunks.
type Chunker interface {
	Chunk(doc *extraction.StructuredDocument) ([]models.Chunk, error)
}

// Embedder converts chunk texts into vectors, one per input, in order.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorIndex persists chunk records and their vectors.
type VectorIndex interface {
	EnsureSchema(ctx context.Context) error
	Upsert(ctx context.Context, doc *models.Document, chunks []models.Chunk, vectors [][]float32) error
	DeleteByDocument(ctx context.Context, tenantID, documentID string) error
}

// DocumentStore is the slice of the document DAL the orchestrator mutates
// state through.
type DocumentStore interface {
	GetByID(ctx context.Context, tenantID, documentID string) (*models.Document, error)
	ClaimProcessing(ctx context.Context, tenantID, documentID string) error
	MarkCompleted(ctx context.Context, tenantID, documentID string, pageCount int, metadata map[string]interface{}) error
	MarkFailed(ctx context.Context, tenantID, documentID, errorMessage string) error
}

// Orchestrator drives one document through the full pipeline: claim,
// extract, chunk, embed, index, finalize. It is the only component that
// mutates processing status after upload.
type Orchestrator struct {
	store     DocumentStore
	extractor Extractor
	chunker   Chunker
	embedder  Embedder
	index     VectorIndex
	timeout   time.Duration
	log       *logger.Logger
}

// NewOrchestrator wires the pipeline stages together. An empty timeout in
// the config disables the per-document deadline.
func NewOrchestrator(cfg *config.PipelineConfig, store DocumentStore, extractor Extractor, chunker Chunker, embedder Embedder, index VectorIndex, log *logger.Logger) (*Orchestrator, error) {
	var timeout time.Duration
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid pipeline timeout %q: %w", cfg.Timeout, err)
		}
		timeout = d
	}
	return &Orchestrator{
		store:     store,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
		timeout:   timeout,
		log:       log,
	}, nil
}

// Process runs the pipeline for one document. The document must be in
// PENDING; the claim is atomic, so concurrent calls for the same document
// all but one fail fast without side effects. Any stage failure marks the
// document FAILED with the cause recorded, removes the uploaded file and
// returns the stage's error.
func (o *Orchestrator) Process(ctx context.Context, tenantID, documentID string) error {
	log := o.log.WithDocument(tenantID, documentID)

	doc, err := o.store.GetByID(ctx, tenantID, documentID)
	if err != nil {
		return err
	}

	if err := o.store.ClaimProcessing(ctx, tenantID, documentID); err != nil {
		return err
	}
	log.Info("Claimed document for processing")

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	if err := o.run(ctx, doc, log); err != nil {
		o.fail(ctx, doc, err, log)
		return err
	}
	return nil
}

// run executes the pipeline stages against a claimed document.
func (o *Orchestrator) run(ctx context.Context, doc *models.Document, log *logger.Logger) error {
	structured, metadata, err := o.extractor.Extract(ctx, doc.StoragePath, doc.TenantID, doc.ID)
	if err != nil {
		return err
	}
	log.WithField("pages", structured.Pages).Info("Extraction finished")

	chunks, err := o.chunker.Chunk(structured)
	if err != nil {
		return err
	}

	// A document with no chunkable text is a successful run that simply
	// produced zero records.
	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, chunk := range chunks {
			texts[i] = chunk.Text
		}

		vectors, err := o.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return err
		}

		if err := o.index.EnsureSchema(ctx); err != nil {
			return err
		}
		if err := o.index.Upsert(ctx, doc, chunks, vectors); err != nil {
			return err
		}
	}

	if err := o.store.MarkCompleted(ctx, doc.TenantID, doc.ID, structured.Pages, metadata); err != nil {
		return err
	}
	log.WithField("chunks", len(chunks)).Info("Document processing completed")
	return nil
}

// fail records the terminal FAILED state and cleans up everything the run
// produced: vector records written before the failure, then the uploaded
// file. Bookkeeping runs on a context detached from the run's deadline so a
// timed-out run still lands in FAILED instead of staying PROCESSING.
func (o *Orchestrator) fail(ctx context.Context, doc *models.Document, cause error, log *logger.Logger) {
	log.Error(fmt.Sprintf("Document processing failed: %v", cause))

	ctx = context.WithoutCancel(ctx)
	if err := o.store.MarkFailed(ctx, doc.TenantID, doc.ID, cause.Error()); err != nil {
		log.Error(fmt.Sprintf("Failed to record FAILED status: %v", err))
	}
	// A failure after the upsert would otherwise leave the document's
	// records queryable. Best effort; a no-op when nothing was written.
	if err := o.index.DeleteByDocument(ctx, doc.TenantID, doc.ID); err != nil {
		log.Error(fmt.Sprintf("Failed to purge vector records: %v", err))
	}
	if doc.StoragePath != "" {
		if err := os.Remove(doc.StoragePath); err != nil && !os.IsNotExist(err) {
			log.Warn(fmt.Sprintf("Failed to remove uploaded file %s: %v", doc.StoragePath, err))
		}
	}
}
