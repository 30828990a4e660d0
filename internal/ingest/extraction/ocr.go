package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// OCREngine selects the optical character recognition backend.
type OCREngine int

const (
	// EngineRapidOCR posts the input to a RapidOCR inference service.
	EngineRapidOCR OCREngine = iota
	// EngineTesseract shells out to the tesseract CLI.
	EngineTesseract
)

func (e OCREngine) String() string {
	switch e {
	case EngineTesseract:
		return "tesseract"
	default:
		return "rapidocr"
	}
}

// ParseOCREngine resolves the config selector; RapidOCR is the default.
func ParseOCREngine(selector string) (OCREngine, error) {
	switch selector {
	case "rapidocr", "":
		return EngineRapidOCR, nil
	case "tesseract":
		return EngineTesseract, nil
	default:
		return EngineRapidOCR, fmt.Errorf("unsupported OCR engine: %s", selector)
	}
}

// ocrClient recognizes text in an image or scanned document file.
type ocrClient interface {
	Recognize(ctx context.Context, path string) (string, error)
}

// newOCRClient builds the client for the selected engine.
func newOCRClient(engine OCREngine, endpoint string, device Device) ocrClient {
	switch engine {
	case EngineTesseract:
		return &tesseractOCR{}
	default:
		return &rapidOCR{
			endpoint: endpoint,
			device:   device,
			client:   &http.Client{Timeout: 120 * time.Second},
		}
	}
}

// tesseractOCR runs the tesseract CLI on the input file. Output goes to
// stdout so no scratch files are left behind.
type tesseractOCR struct{}

func (t *tesseractOCR) Recognize(ctx context.Context, path string) (string, error) {
	bin, err := exec.LookPath("tesseract")
	if err != nil {
		return "", fmt.Errorf("tesseract binary not found: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, path, "stdout", "-l", "eng")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract failed: %v: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// rapidOCR posts the file to a RapidOCR HTTP service and reads back the
// recognized text.
type rapidOCR struct {
	endpoint string
	device   Device
	client   *http.Client
}

type rapidOCRResponse struct {
	Text string `json:"text"`
}

func (r *rapidOCR) Recognize(ctx context.Context, path string) (string, error) {
	if r.endpoint == "" {
		return "", fmt.Errorf("rapidocr endpoint not configured")
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file for OCR: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("failed to build OCR request: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("failed to read file for OCR: %w", err)
	}
	if err := writer.WriteField("device", r.device.String()); err != nil {
		return "", fmt.Errorf("failed to build OCR request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to build OCR request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("failed to create OCR request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("OCR request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("OCR service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed rapidOCRResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode OCR response: %w", err)
	}
	return parsed.Text, nil
}
