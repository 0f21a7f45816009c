package port

import "context"

// EmbeddingProvider abstracts the text-embedding model backend. Any model
// producing fixed-dimension, order-preserving vectors satisfies the contract.
type EmbeddingProvider interface {
	// ModelName returns the identifier of the embedding model.
	ModelName() string

	// Embed generates a vector embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one call,
	// preserving input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// GenerationProvider abstracts an LLM backend as a single synchronous
// generate call. Retries and timeouts are the caller's responsibility.
type GenerationProvider interface {
	// ModelName returns the identifier of the generation model.
	ModelName() string

	// Generate sends a prompt and returns the model's text response.
	Generate(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error)
}

// GenerationRegistry maps provider ids ("ollama", "grok", "kimi") to their
// implementations.
type GenerationRegistry map[string]GenerationProvider
