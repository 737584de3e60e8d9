package history

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/campusqa/askd/internal/domain"
)

// Service manages per-user conversation history.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Append records an exchange. The caller decides when to skip persistence.
func (s *Service) Append(ctx context.Context, email, question, answer string) (int64, error) {
	return s.repo.Append(ctx, email, question, answer)
}

// List returns the user's turns in chronological order.
func (s *Service) List(ctx context.Context, email string) ([]domain.Turn, error) {
	if strings.TrimSpace(email) == "" {
		return nil, domain.ErrMissingEmail
	}
	return s.repo.ListByEmail(ctx, email)
}

// Clear removes the user's history and returns the number of turns removed.
func (s *Service) Clear(ctx context.Context, email string) (int64, error) {
	if strings.TrimSpace(email) == "" {
		return 0, domain.ErrMissingEmail
	}

	n, err := s.repo.DeleteByEmail(ctx, email)
	if err != nil {
		return 0, err
	}

	s.logger.Info("history cleared",
		zap.String("email", email),
		zap.Int64("turns", n))

	return n, nil
}
