package answer

import (
	"context"

	"github.com/campusqa/askd/internal/domain"
	"github.com/campusqa/askd/internal/usecase/retriever"
)

// Retriever finds candidate context for a question.
type Retriever interface {
	Retrieve(ctx context.Context, question string) retriever.Result
}

// Completer generates answer text from a prompt.
type Completer interface {
	Complete(ctx context.Context, messages []domain.Message, maxTokens int, temperature float32) (string, error)
	CompleteStream(ctx context.Context, messages []domain.Message, maxTokens int, temperature float32) (domain.CompletionStream, error)
}

// Historian records completed exchanges.
type Historian interface {
	Append(ctx context.Context, email, question, answer string) (int64, error)
}
