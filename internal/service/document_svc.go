package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"docuvault/internal/config"
	"docuvault/internal/ingest/dal"
	"docuvault/internal/ingest/extraction"
	"docuvault/internal/ingest/pipeline"
	"docuvault/internal/ingest/vectorindex"
	"docuvault/internal/models"
	"docuvault/pkg/logger"

	"github.com/google/uuid"
)

// ValidationError rejects a request before any state is created.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s", e.Reason)
}

// DocumentService owns the document lifecycle outside of processing:
// upload, lookup, listing and deletion. Processing itself is handed to
// the orchestrator.
type DocumentService struct {
	storage      *config.StorageConfig
	documents    *dal.DocumentDAL
	orchestrator *pipeline.Orchestrator
	artifacts    *extraction.ArtifactStore
	index        *vectorindex.Index
	log          *logger.Logger
}

func NewDocumentService(storage *config.StorageConfig, documents *dal.DocumentDAL, orchestrator *pipeline.Orchestrator, artifacts *extraction.ArtifactStore, index *vectorindex.Index, log *logger.Logger) *DocumentService {
	return &DocumentService{
		storage:      storage,
		documents:    documents,
		orchestrator: orchestrator,
		artifacts:    artifacts,
		index:        index,
		log:          log,
	}
}

// Upload stores the file on disk, creates a PENDING document record and
// starts processing in the background. Re-uploading the same filename
// creates a new document; records are never overwritten.
func (s *DocumentService) Upload(ctx context.Context, tenantID, filename string, size int64, content io.Reader) (*models.Document, error) {
	if tenantID == "" {
		return nil, &ValidationError{Reason: "missing tenant id"}
	}
	if filename == "" {
		return nil, &ValidationError{Reason: "missing filename"}
	}

	documentID := uuid.New().String()
	dir := s.uploadDir(tenantID, documentID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	// Base name only; the client must not choose where the file lands.
	path := filepath.Join(dir, filepath.Base(filename))
	written, err := writeFile(path, content)
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to store uploaded file: %w", err)
	}
	if size > 0 && written != size {
		os.RemoveAll(dir)
		return nil, &ValidationError{Reason: fmt.Sprintf("upload truncated: got %d of %d bytes", written, size)}
	}

	doc := &models.Document{
		ID:               documentID,
		TenantID:         tenantID,
		OriginalFilename: filepath.Base(filename),
		FileSize:         written,
		StoragePath:      path,
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		os.RemoveAll(dir)
		return nil, err
	}

	s.log.WithDocument(tenantID, documentID).
		WithField("filename", doc.OriginalFilename).
		Info("Document uploaded, processing scheduled")

	// Processing outlives the request; failures land on the record, not
	// on the upload response.
	go func() {
		if err := s.orchestrator.Process(context.Background(), tenantID, documentID); err != nil {
			s.log.WithDocument(tenantID, documentID).
				Error(fmt.Sprintf("Background processing failed: %v", err))
		}
	}()

	return doc, nil
}

// Get returns one document within the tenant's scope.
func (s *DocumentService) Get(ctx context.Context, tenantID, documentID string) (*models.Document, error) {
	if tenantID == "" {
		return nil, &ValidationError{Reason: "missing tenant id"}
	}
	return s.documents.GetByID(ctx, tenantID, documentID)
}

// List returns the tenant's documents, newest first.
func (s *DocumentService) List(ctx context.Context, tenantID string) ([]models.Document, error) {
	if tenantID == "" {
		return nil, &ValidationError{Reason: "missing tenant id"}
	}
	return s.documents.List(ctx, tenantID)
}

// Delete removes a document and everything derived from it: vector
// records, stored artifacts, the uploaded file and finally the record.
// Documents mid-processing cannot be deleted; wait for a terminal state.
func (s *DocumentService) Delete(ctx context.Context, tenantID, documentID string) error {
	if tenantID == "" {
		return &ValidationError{Reason: "missing tenant id"}
	}

	doc, err := s.documents.GetByID(ctx, tenantID, documentID)
	if err != nil {
		return err
	}
	if doc.Status == models.StatusProcessing {
		return &ValidationError{Reason: "document is being processed"}
	}

	if err := s.index.DeleteByDocument(ctx, tenantID, documentID); err != nil {
		return err
	}
	if err := s.artifacts.DeleteAll(ctx, tenantID, documentID); err != nil {
		return err
	}
	if err := os.RemoveAll(s.uploadDir(tenantID, documentID)); err != nil {
		s.log.WithDocument(tenantID, documentID).
			Warn(fmt.Sprintf("Failed to remove uploaded files: %v", err))
	}

	if err := s.documents.Delete(ctx, tenantID, documentID); err != nil && !errors.Is(err, dal.ErrNotFound) {
		return err
	}

	s.log.WithDocument(tenantID, documentID).Info("Document deleted")
	return nil
}

func (s *DocumentService) uploadDir(tenantID, documentID string) string {
	return filepath.Join(s.storage.UploadRoot, tenantID, "uploads", documentID)
}

func writeFile(path string, content io.Reader) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	written, err := io.Copy(f, content)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return written, err
}
