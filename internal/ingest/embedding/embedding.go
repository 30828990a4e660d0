package embedding

import (
	"context"
	"fmt"

	"docuvault/internal/config"
)

// EmbeddingError reports a model construction or inference failure.
type EmbeddingError struct {
	Op  string
	Err error
}

func (e *EmbeddingError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("embedding failed: %s", e.Op)
	}
	return fmt.Sprintf("embedding failed: %s: %v", e.Op, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// Model is the interface every embedding backend implements.
type Model interface {
	// EmbedBatch generates one vector per input text, order-preserving and
	// length-preserving: len(output) == len(input).
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Engine wraps a backend with batching and output validation. It is
// constructed once per process and is safe for concurrent use; results are
// deterministic for a fixed model identifier.
type Engine struct {
	model     Model
	dimension int
	batchSize int
}

// NewEngine builds the embedding engine for the configured provider.
func NewEngine(cfg *config.EmbeddingConfig) (*Engine, error) {
	if cfg.Dimension <= 0 {
		return nil, &EmbeddingError{Op: fmt.Sprintf("invalid dimension %d", cfg.Dimension)}
	}

	model, err := newModel(cfg)
	if err != nil {
		return nil, err
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 32
	}

	return &Engine{model: model, dimension: cfg.Dimension, batchSize: batchSize}, nil
}

// newModel selects the backend by provider name.
func newModel(cfg *config.EmbeddingConfig) (Model, error) {
	switch cfg.Provider {
	case "ollama":
		return NewOllamaModel(cfg.Model, cfg.BaseURL)
	case "openai":
		return NewOpenAIModel(cfg.APIKey, cfg.Model, cfg.BaseURL), nil
	case "gemini":
		return NewGoogleModel(cfg.APIKey, cfg.Model)
	default:
		return nil, &EmbeddingError{Op: fmt.Sprintf("unsupported provider: %s", cfg.Provider)}
	}
}

// Dimension is the fixed vector width the configured model produces. The
// vector index schema must match it.
func (e *Engine) Dimension() int { return e.dimension }

// EmbedBatch embeds the texts in internal batches for throughput. The
// output is index-aligned with the input; a dimension mismatch from the
// backend is an error, never silently passed through.
func (e *Engine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		batch, err := e.model.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, &EmbeddingError{Op: "inference", Err: err}
		}
		if len(batch) != end-start {
			return nil, &EmbeddingError{Op: fmt.Sprintf("model returned %d vectors for %d texts", len(batch), end-start)}
		}
		vectors = append(vectors, batch...)
	}

	for i, v := range vectors {
		if len(v) != e.dimension {
			return nil, &EmbeddingError{Op: fmt.Sprintf("vector %d has dimension %d, expected %d", i, len(v), e.dimension)}
		}
	}
	return vectors, nil
}
