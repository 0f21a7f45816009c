package embed

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/codecontext-ai/codecontext/internal/port"
)

// DefaultBatchSize bounds how many texts go to the provider per call.
// Batch size affects throughput only, never results.
const DefaultBatchSize = 64

// Embedder wraps an embedding provider with batching and unit
// normalization. The provider holds the expensive model resources; one
// Embedder is created at startup and shared.
type Embedder struct {
	provider  port.EmbeddingProvider
	batchSize int
}

// New creates an Embedder. A non-positive batchSize falls back to
// DefaultBatchSize.
func New(provider port.EmbeddingProvider, batchSize int) *Embedder {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Embedder{provider: provider, batchSize: batchSize}
}

// ModelName returns the underlying embedding model identifier.
func (e *Embedder) ModelName() string {
	return e.provider.ModelName()
}

// EmbedBatch embeds all texts, slicing them into provider calls of at most
// the configured batch size. Output order matches input order and every
// vector is normalized to unit length.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	t0 := time.Now()
	out := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += e.batchSize {
		end := i + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := e.provider.EmbedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch %d-%d: %w", i, end, err)
		}
		if len(vectors) != end-i {
			return nil, fmt.Errorf("embed batch %d-%d: got %d vectors for %d texts", i, end, len(vectors), end-i)
		}
		for _, v := range vectors {
			out = append(out, Normalize(v))
		}
	}

	slog.Info("embedded texts",
		"count", len(texts),
		"model", e.provider.ModelName(),
		"elapsed", time.Since(t0).Round(time.Millisecond),
	)
	return out, nil
}

// EmbedOne embeds a single text, normalized to unit length.
func (e *Embedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	v, err := e.provider.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return Normalize(v), nil
}

// Normalize returns v scaled to unit length. The epsilon guards against a
// zero vector.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum) + 1e-10
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
