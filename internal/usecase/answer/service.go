package answer

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campusqa/askd/internal/domain"
	"github.com/campusqa/askd/internal/metrics"
)

const (
	completionMaxTokens   = 500
	completionTemperature = 0.7
)

// Response is the buffered answer payload.
type Response struct {
	Answer       string
	RelevantInfo string
	Matches      []domain.QueryMatch
}

// Service orchestrates retrieval, completion and history persistence.
// Provider failures degrade to deterministic fallback text; only an
// empty question fails the request.
type Service struct {
	retriever      Retriever
	completer      Completer
	history        Historian
	persistTimeout time.Duration
	logger         *zap.Logger
}

func NewService(
	retriever Retriever,
	completer Completer,
	history Historian,
	persistTimeout time.Duration,
	logger *zap.Logger,
) *Service {
	return &Service{
		retriever:      retriever,
		completer:      completer,
		history:        history,
		persistTimeout: persistTimeout,
		logger:         logger,
	}
}

// Answer produces a buffered response for the question.
func (s *Service) Answer(ctx context.Context, question, email string) (Response, error) {
	if strings.TrimSpace(question) == "" {
		return Response{}, domain.ErrEmptyQuestion
	}

	retrieved := s.retriever.Retrieve(ctx, question)
	messages := buildMessages(question, retrieved.Context)

	answer, err := s.completer.Complete(ctx, messages, completionMaxTokens, completionTemperature)
	if err != nil {
		s.logger.Warn("completion failed, serving fallback", zap.Error(err))
		metrics.AnswerFallbacksTotal.WithLabelValues("buffered").Inc()
		answer = fallbackAnswer(retrieved.Context)
	} else if answer == "" {
		answer = emptyCompletionAnswer
	}

	s.persist(ctx, email, question, answer)

	return Response{
		Answer:       answer,
		RelevantInfo: retrieved.Context,
		Matches:      retrieved.Matches,
	}, nil
}

// AnswerStream produces the answer as a channel of text increments. The
// channel is closed when the answer is complete. A provider failure
// before any text was produced yields a single fallback chunk; a failure
// mid-stream keeps the partial answer. The accumulated text is persisted
// either way.
func (s *Service) AnswerStream(ctx context.Context, question, email string) (<-chan string, error) {
	if strings.TrimSpace(question) == "" {
		return nil, domain.ErrEmptyQuestion
	}

	out := make(chan string)

	go func() {
		defer close(out)

		retrieved := s.retriever.Retrieve(ctx, question)
		messages := buildMessages(question, retrieved.Context)

		var full strings.Builder

		stream, err := s.completer.CompleteStream(ctx, messages, completionMaxTokens, completionTemperature)
		if err != nil {
			s.logger.Warn("completion stream failed, serving fallback", zap.Error(err))
			metrics.AnswerFallbacksTotal.WithLabelValues("streaming").Inc()
			fallback := fallbackAnswer(retrieved.Context)
			full.WriteString(fallback)
			s.emit(ctx, out, fallback)
			s.persist(ctx, email, question, full.String())
			return
		}
		defer stream.Close()

		for {
			chunk, err := stream.Recv()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					s.logger.Warn("completion stream interrupted", zap.Error(err))
					if full.Len() == 0 {
						metrics.AnswerFallbacksTotal.WithLabelValues("streaming").Inc()
						fallback := fallbackAnswer(retrieved.Context)
						full.WriteString(fallback)
						s.emit(ctx, out, fallback)
					}
				}
				break
			}
			if chunk == "" {
				continue
			}

			full.WriteString(chunk)
			if !s.emit(ctx, out, chunk) {
				break
			}
		}

		s.persist(ctx, email, question, full.String())
	}()

	return out, nil
}

// emit sends a chunk unless the request context is done. Returns false
// when the consumer is gone.
func (s *Service) emit(ctx context.Context, out chan<- string, chunk string) bool {
	select {
	case out <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}

// persist stores the exchange without blocking the response path.
// Detached from request cancellation so a client disconnect after the
// answer completed still records it. Failures are logged, never returned.
func (s *Service) persist(ctx context.Context, email, question, answer string) {
	if email == "" || answer == "" {
		return
	}

	detached := context.WithoutCancel(ctx)

	go func() {
		pctx, cancel := context.WithTimeout(detached, s.persistTimeout)
		defer cancel()

		if _, err := s.history.Append(pctx, email, question, answer); err != nil {
			s.logger.Warn("history persistence failed",
				zap.String("email", email),
				zap.Error(err))
		}
	}()
}
