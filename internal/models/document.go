package models

import (
	"time"

	"gorm.io/datatypes"
)

// ProcessingStatus is the lifecycle state of a document.
// PENDING is the only initial state; COMPLETED and FAILED are terminal.
type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "PENDING"
	StatusProcessing ProcessingStatus = "PROCESSING"
	StatusCompleted  ProcessingStatus = "COMPLETED"
	StatusFailed     ProcessingStatus = "FAILED"
)

// Terminal reports whether no further transition may leave this status.
func (s ProcessingStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether the lifecycle state machine permits
// moving from s to next.
func (s ProcessingStatus) CanTransition(next ProcessingStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing
	case StatusProcessing:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}

// Document is a tenant-scoped uploaded document and its processing state.
// The ingestion surface creates it in PENDING; the orchestrator owns every
// mutation after that.
type Document struct {
	ID               string            `gorm:"primaryKey;size:36" json:"id"`
	TenantID         string            `gorm:"index:idx_tenant_status;not null;size:36" json:"tenant_id"`
	OriginalFilename string            `gorm:"index;not null;size:255" json:"original_filename"`
	FileSize         int64             `gorm:"not null" json:"file_size"`
	PageCount        int               `gorm:"default:0" json:"page_count"`
	Status           ProcessingStatus  `gorm:"index:idx_tenant_status;not null;size:20;default:PENDING" json:"status"`
	Metadata         datatypes.JSONMap `json:"metadata"`
	ErrorMessage     string            `gorm:"type:text" json:"error_message,omitempty"`
	StoragePath      string            `gorm:"size:512" json:"-"`
	UploadedAt       time.Time         `gorm:"autoCreateTime" json:"uploaded_at"`
	ProcessedAt      *time.Time        `json:"processed_at,omitempty"`
}

// Chunk is a bounded span of contextualized document text produced by the
// chunker. Chunks live only for the duration of one processing run; they are
// persisted solely as vector records.
type Chunk struct {
	Text       string
	PageNumber *int
}
