package retriever

import (
	"context"

	"github.com/campusqa/askd/internal/domain"
)

// Querier runs a semantic query and returns matches by ascending distance.
type Querier interface {
	Query(ctx context.Context, text string, n int) ([]domain.QueryMatch, error)
}
