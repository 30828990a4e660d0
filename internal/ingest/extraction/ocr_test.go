package extraction

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestRapidOCRRecognize(t *testing.T) {
	var gotDevice string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("failed to parse multipart request: %v", err)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("request missing file part: %v", err)
		}
		gotDevice = r.FormValue("device")
		json.NewEncoder(w).Encode(rapidOCRResponse{Text: "recognized text"})
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "scan.png")
	if err := os.WriteFile(path, []byte{0x89, 0x50, 0x4e, 0x47}, 0o600); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	client := newOCRClient(EngineRapidOCR, srv.URL, DeviceCPU)
	text, err := client.Recognize(context.Background(), path)
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if text != "recognized text" {
		t.Errorf("text = %q", text)
	}
	if gotDevice != "cpu" {
		t.Errorf("device field = %q, want cpu", gotDevice)
	}
}

func TestRapidOCRServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "scan.png")
	if err := os.WriteFile(path, []byte{1}, 0o600); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	client := newOCRClient(EngineRapidOCR, srv.URL, DeviceCPU)
	if _, err := client.Recognize(context.Background(), path); err == nil {
		t.Fatal("expected error from failing OCR service")
	}
}

func TestRapidOCRMissingEndpoint(t *testing.T) {
	client := newOCRClient(EngineRapidOCR, "", DeviceCPU)
	if _, err := client.Recognize(context.Background(), "/tmp/x.png"); err == nil {
		t.Fatal("expected error for unconfigured endpoint")
	}
}
