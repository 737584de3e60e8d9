package retriever

import (
	"context"

	"go.uber.org/zap"

	"github.com/campusqa/askd/internal/domain"
)

const (
	// RelevanceThreshold gates which matches may reach the prompt. Only a
	// top match with cosine distance strictly below this value is used.
	RelevanceThreshold = 1.5

	// topK is fixed: the extra matches feed the search result listing,
	// never the prompt.
	topK = 3
)

// Result is the outcome of a retrieval pass.
type Result struct {
	// Context is the text handed to the completion prompt. Empty when no
	// match cleared the relevance threshold.
	Context string

	// Matches holds up to topK raw matches for the response listing,
	// regardless of relevance.
	Matches []domain.QueryMatch
}

// HasContext reports whether a relevant match was found.
func (r Result) HasContext() bool {
	return r.Context != ""
}

// Service retrieves candidate context for a question. Retrieval never
// fails the request: any error degrades to an empty result.
type Service struct {
	querier Querier
	logger  *zap.Logger
}

func NewService(querier Querier, logger *zap.Logger) *Service {
	return &Service{querier: querier, logger: logger}
}

// Retrieve queries the index and applies the relevance gate. Only the
// single best match can become prompt context, and only when its distance
// is strictly below RelevanceThreshold.
//
// Matches is nil only when retrieval failed; a successful query against an
// empty index yields an empty non-nil slice. Response shaping depends on
// the distinction.
func (s *Service) Retrieve(ctx context.Context, question string) Result {
	matches, err := s.querier.Query(ctx, question, topK)
	if err != nil {
		s.logger.Warn("retrieval failed, continuing without context", zap.Error(err))
		return Result{}
	}

	if matches == nil {
		matches = []domain.QueryMatch{}
	}

	res := Result{Matches: matches}

	if len(matches) == 0 {
		return res
	}

	top := matches[0]
	if top.Distance < RelevanceThreshold {
		res.Context = top.Document.Text
		s.logger.Debug("relevant context found",
			zap.String("doc_id", top.Document.ID),
			zap.Float64("distance", top.Distance))
	} else {
		s.logger.Debug("no match under relevance threshold",
			zap.Float64("best_distance", top.Distance))
	}

	return res
}
