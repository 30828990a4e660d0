package extraction

import (
	"context"
	"testing"

	"docuvault/internal/config"
	"docuvault/pkg/logger"
)

func newTestEngine(t *testing.T, cfg *config.ExtractionConfig) *Engine {
	t.Helper()
	e, err := NewEngine(cfg, nil, logger.New("test"))
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return e
}

func TestFormatAllowed(t *testing.T) {
	e := newTestEngine(t, &config.ExtractionConfig{
		OCREngine:      "tesseract",
		Device:         "cpu",
		AllowedFormats: []string{"*.pdf", "*.md"},
	})

	cases := []struct {
		filename string
		allowed  bool
	}{
		{"report.pdf", true},
		{"Report.PDF", true},
		{"notes.md", true},
		{"payload.exe", false},
		{"archive.tar.gz", false},
	}
	for _, tc := range cases {
		if got := e.formatAllowed(tc.filename); got != tc.allowed {
			t.Errorf("formatAllowed(%q) = %v, want %v", tc.filename, got, tc.allowed)
		}
	}
}

func TestFormatAllowedDefaults(t *testing.T) {
	e := newTestEngine(t, &config.ExtractionConfig{OCREngine: "tesseract", Device: "cpu"})

	for _, name := range []string{"a.pdf", "b.docx", "c.xlsx", "d.md", "e.txt", "f.html", "g.png", "h.jpg"} {
		if !e.formatAllowed(name) {
			t.Errorf("default formats should allow %q", name)
		}
	}
	if e.formatAllowed("script.sh") {
		t.Error("default formats should not allow script.sh")
	}
}

func TestNewEngineRejectsBadPattern(t *testing.T) {
	_, err := NewEngine(&config.ExtractionConfig{
		OCREngine:      "tesseract",
		Device:         "cpu",
		AllowedFormats: []string{"[unclosed"},
	}, nil, logger.New("test"))
	if err == nil {
		t.Fatal("expected error for invalid glob pattern")
	}
}

func TestNewEngineRejectsUnknownOCR(t *testing.T) {
	_, err := NewEngine(&config.ExtractionConfig{OCREngine: "magic-eye"}, nil, logger.New("test"))
	if err == nil {
		t.Fatal("expected error for unknown OCR engine")
	}
}

func TestExtractRejectsDisallowedFormat(t *testing.T) {
	e := newTestEngine(t, &config.ExtractionConfig{
		OCREngine:      "tesseract",
		Device:         "cpu",
		AllowedFormats: []string{"*.pdf"},
	})

	_, _, err := e.Extract(context.Background(), "/tmp/evil.exe", "tenant-a", "doc-1")
	if err == nil {
		t.Fatal("expected error for disallowed format")
	}
}

func TestParseOCREngine(t *testing.T) {
	cases := []struct {
		in      string
		want    OCREngine
		wantErr bool
	}{
		{"rapidocr", EngineRapidOCR, false},
		{"tesseract", EngineTesseract, false},
		{"", EngineRapidOCR, false},
		{"easyocr", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseOCREngine(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseOCREngine(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseOCREngine(%q) failed: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseOCREngine(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestDetectDevice(t *testing.T) {
	if got := DetectDevice("cpu"); got != DeviceCPU {
		t.Errorf("DetectDevice(cpu) = %v", got)
	}
	if got := DetectDevice("bogus"); got != DeviceCPU {
		t.Errorf("DetectDevice(bogus) = %v, want cpu fallback", got)
	}
	// "gpu" and "auto" depend on the host; they must still resolve.
	for _, selector := range []string{"gpu", "auto", ""} {
		got := DetectDevice(selector)
		if got != DeviceCPU && got != DeviceGPU {
			t.Errorf("DetectDevice(%q) = %v", selector, got)
		}
	}
}
