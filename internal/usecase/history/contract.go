package history

import (
	"context"

	"github.com/campusqa/askd/internal/domain"
)

// Repository is the persistence layer for conversation turns.
type Repository interface {
	Append(ctx context.Context, email, question, answer string) (int64, error)
	ListByEmail(ctx context.Context, email string) ([]domain.Turn, error)
	DeleteByEmail(ctx context.Context, email string) (int64, error)
}
