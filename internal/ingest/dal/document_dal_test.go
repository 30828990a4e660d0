package dal

import (
	"testing"
	"time"

	"docuvault/internal/models"
)

func TestFailedUpdatesLeaveProcessedAtUnset(t *testing.T) {
	updates := failedUpdates("extraction failed: corrupt input")

	if _, ok := updates["processed_at"]; ok {
		t.Error("FAILED transition must not set processed_at")
	}
	if updates["status"] != models.StatusFailed {
		t.Errorf("status = %v, want FAILED", updates["status"])
	}
	if updates["error_message"] != "extraction failed: corrupt input" {
		t.Errorf("error_message = %v", updates["error_message"])
	}
}

func TestCompletedUpdatesSetProcessedAt(t *testing.T) {
	now := time.Now().UTC()
	updates := completedUpdates(7, map[string]interface{}{"extension": ".pdf"}, now)

	ts, ok := updates["processed_at"].(*time.Time)
	if !ok || ts == nil {
		t.Fatal("COMPLETED transition must set processed_at")
	}
	if !ts.Equal(now) {
		t.Errorf("processed_at = %v, want %v", ts, now)
	}
	if updates["status"] != models.StatusCompleted {
		t.Errorf("status = %v, want COMPLETED", updates["status"])
	}
	if updates["page_count"] != 7 {
		t.Errorf("page_count = %v, want 7", updates["page_count"])
	}
	if _, ok := updates["error_message"]; ok {
		t.Error("COMPLETED transition must not write an error message")
	}
}
