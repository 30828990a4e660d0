package dal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docuvault/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a document does not exist within the
// requesting tenant's scope. A document belonging to another tenant is
// indistinguishable from a missing one.
var ErrNotFound = errors.New("document not found")

// ErrAlreadyClaimed is returned when a processing claim loses the race:
// the document was not in PENDING at claim time.
var ErrAlreadyClaimed = errors.New("document is not pending")

// DocumentDAL persists document records and owns every status mutation.
type DocumentDAL struct {
	db *gorm.DB
}

func NewDocumentDAL(db *gorm.DB) *DocumentDAL {
	return &DocumentDAL{db: db}
}

// AutoMigrate creates or updates the documents table.
func (d *DocumentDAL) AutoMigrate() error {
	if err := d.db.AutoMigrate(&models.Document{}); err != nil {
		return fmt.Errorf("failed to migrate documents table: %w", err)
	}
	return nil
}

// Create inserts a new document record in PENDING state.
func (d *DocumentDAL) Create(ctx context.Context, doc *models.Document) error {
	doc.Status = models.StatusPending
	if err := d.db.WithContext(ctx).Create(doc).Error; err != nil {
		return fmt.Errorf("failed to create document record: %w", err)
	}
	return nil
}

// GetByID loads a document within the tenant's scope.
func (d *DocumentDAL) GetByID(ctx context.Context, tenantID, documentID string) (*models.Document, error) {
	var doc models.Document
	err := d.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, documentID).
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s: %w", documentID, err)
	}
	return &doc, nil
}

// List returns the tenant's documents, most recently uploaded first.
func (d *DocumentDAL) List(ctx context.Context, tenantID string) ([]models.Document, error) {
	var docs []models.Document
	err := d.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("uploaded_at DESC").
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list documents for tenant %s: %w", tenantID, err)
	}
	return docs, nil
}

// ClaimProcessing atomically moves a document from PENDING to PROCESSING.
// The conditional update makes the claim exclusive: a concurrent claimer
// matches zero rows and gets ErrAlreadyClaimed, so a document is never
// processed twice.
func (d *DocumentDAL) ClaimProcessing(ctx context.Context, tenantID, documentID string) error {
	res := d.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("tenant_id = ? AND id = ? AND status = ?", tenantID, documentID, models.StatusPending).
		Update("status", models.StatusProcessing)
	if res.Error != nil {
		return fmt.Errorf("failed to claim document %s: %w", documentID, res.Error)
	}
	if res.RowsAffected == 0 {
		// Distinguish a lost race from a missing document.
		if _, err := d.GetByID(ctx, tenantID, documentID); err != nil {
			return err
		}
		return ErrAlreadyClaimed
	}
	return nil
}

// MarkCompleted finalizes a successful run: status, page count, extraction
// metadata and the processing timestamp land in one update.
func (d *DocumentDAL) MarkCompleted(ctx context.Context, tenantID, documentID string, pageCount int, metadata map[string]interface{}) error {
	return d.finalize(ctx, tenantID, documentID, completedUpdates(pageCount, metadata, time.Now().UTC()))
}

// MarkFailed finalizes a failed run with the cause preserved for operators.
func (d *DocumentDAL) MarkFailed(ctx context.Context, tenantID, documentID, errorMessage string) error {
	return d.finalize(ctx, tenantID, documentID, failedUpdates(errorMessage))
}

func completedUpdates(pageCount int, metadata map[string]interface{}, now time.Time) map[string]interface{} {
	return map[string]interface{}{
		"status":       models.StatusCompleted,
		"page_count":   pageCount,
		"metadata":     datatypes.JSONMap(metadata),
		"processed_at": &now,
	}
}

// failedUpdates never touches processed_at: that timestamp marks successful
// processing and stays nil on FAILED documents.
func failedUpdates(errorMessage string) map[string]interface{} {
	return map[string]interface{}{
		"status":        models.StatusFailed,
		"error_message": errorMessage,
	}
}

// finalize applies a terminal transition. Only PROCESSING documents may be
// finalized; anything else means the state machine was violated upstream.
func (d *DocumentDAL) finalize(ctx context.Context, tenantID, documentID string, updates map[string]interface{}) error {
	res := d.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("tenant_id = ? AND id = ? AND status = ?", tenantID, documentID, models.StatusProcessing).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to finalize document %s: %w", documentID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("document %s is not in PROCESSING, refusing terminal transition", documentID)
	}
	return nil
}

// Delete removes a document record within the tenant's scope.
func (d *DocumentDAL) Delete(ctx context.Context, tenantID, documentID string) error {
	res := d.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, documentID).
		Delete(&models.Document{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete document %s: %w", documentID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
