package index

import (
	"context"

	"github.com/campusqa/askd/internal/domain"
)

// Embedder produces vectors for texts.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
	EmbedBatch(ctx context.Context, texts []string) ([]domain.EmbeddingResult, error)
}

// Repository stores documents and answers nearest-neighbour queries.
type Repository interface {
	Upsert(ctx context.Context, doc domain.Document, vector []float32) error
	Get(ctx context.Context, id string) (domain.Document, error)
	Delete(ctx context.Context, id string) error
	QueryKNN(ctx context.Context, vector []float32, k int) ([]domain.QueryMatch, error)
}
