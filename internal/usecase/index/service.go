package index

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/campusqa/askd/internal/domain"
)

// Service indexes documents and runs semantic queries against them.
type Service struct {
	embedder Embedder
	repo     Repository
	logger   *zap.Logger
}

func NewService(embedder Embedder, repo Repository, logger *zap.Logger) *Service {
	return &Service{embedder: embedder, repo: repo, logger: logger}
}

// Upsert embeds the text and stores the document. An existing id is overwritten.
func (s *Service) Upsert(ctx context.Context, id, text string, metadata map[string]string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("document id is empty")
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("document text is empty")
	}

	emb, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed document %q: %w", id, err)
	}

	doc := domain.Document{ID: id, Text: text, Metadata: metadata}
	if err := s.repo.Upsert(ctx, doc, emb.Embedding); err != nil {
		return err
	}

	s.logger.Debug("document indexed",
		zap.String("id", id),
		zap.Int("text_len", len(text)))

	return nil
}

// UpsertBatch embeds all document texts in one provider call and stores each
// document. The returned slice has one entry per input document; nil entries
// succeeded. A failed batch embedding fails every document in the batch.
func (s *Service) UpsertBatch(ctx context.Context, docs []domain.Document) []error {
	errs := make([]error, len(docs))

	var texts []string
	var idx []int
	for i, doc := range docs {
		if strings.TrimSpace(doc.ID) == "" {
			errs[i] = fmt.Errorf("document id is empty")
			continue
		}
		if strings.TrimSpace(doc.Text) == "" {
			errs[i] = fmt.Errorf("document text is empty")
			continue
		}
		texts = append(texts, doc.Text)
		idx = append(idx, i)
	}
	if len(texts) == 0 {
		return errs
	}

	embs, err := s.embedder.EmbedBatch(ctx, texts)
	if err == nil && len(embs) != len(texts) {
		err = fmt.Errorf("embedder returned %d results for %d texts", len(embs), len(texts))
	}
	if err != nil {
		for _, i := range idx {
			errs[i] = fmt.Errorf("embed document %q: %w", docs[i].ID, err)
		}
		return errs
	}

	stored := 0
	for j, i := range idx {
		if err := s.repo.Upsert(ctx, docs[i], embs[j].Embedding); err != nil {
			errs[i] = err
			continue
		}
		stored++
	}

	s.logger.Debug("documents indexed", zap.Int("count", stored))
	return errs
}

// Query embeds the text and returns the n nearest documents by ascending
// cosine distance.
func (s *Service) Query(ctx context.Context, text string, n int) ([]domain.QueryMatch, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyQuestion
	}
	if n <= 0 {
		n = 5
	}

	emb, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	return s.repo.QueryKNN(ctx, emb.Embedding, n)
}

// Get returns a stored document by id.
func (s *Service) Get(ctx context.Context, id string) (domain.Document, error) {
	return s.repo.Get(ctx, id)
}

// Delete removes a stored document by id.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
