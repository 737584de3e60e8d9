package domain

import "context"

// Embedder is the shared text vectorization contract between layers.
// Ingestion and queries must go through the same Embedder so both vector
// spaces stay comparable.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
	// EmbedBatch vectorizes texts in one provider call. Results are returned
	// in input order.
	EmbedBatch(ctx context.Context, texts []string) ([]EmbeddingResult, error)
}

// HealthChecker verifies provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the
// decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}
