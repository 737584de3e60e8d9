package index

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/campusqa/askd/internal/db"
	"github.com/campusqa/askd/internal/domain"
)

// Store is the subset of the database used by the index repository.
type Store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// HNSWConfig tunes the vector index build parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repository persists documents as hashes and queries them through a
// vector index. Keys follow the pattern <collection>:doc:<id>.
type Repository struct {
	store      Store
	collection string
	dimensions int
	hnsw       HNSWConfig
	logger     *zap.Logger
}

func New(store Store, collection string, dimensions int, logger *zap.Logger) *Repository {
	return &Repository{
		store:      store,
		collection: collection,
		dimensions: dimensions,
		logger:     logger,
	}
}

// WithHNSW overrides the HNSW build parameters.
func (r *Repository) WithHNSW(cfg HNSWConfig) *Repository {
	r.hnsw = cfg
	return r
}

// EnsureIndex creates the vector index if it does not exist yet.
// Safe to call on every startup.
func (r *Repository) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.indexName())
	if err != nil {
		return fmt.Errorf("check index: %w: %w", err, domain.ErrIndexUnavailable)
	}
	if exists {
		return nil
	}

	def := &db.IndexDefinition{
		Name:     r.indexName(),
		Prefixes: []string{r.keyPrefix()},
		Fields: []db.IndexField{
			{Name: fieldContent, Type: db.IndexFieldText},
			{
				Name:              fieldVector,
				Alias:             db.VectorAttribute,
				Type:              db.IndexFieldVector,
				VectorAlgo:        db.VectorHNSW,
				VectorDim:         r.dimensions,
				VectorDistance:    db.DistanceCosine,
				VectorM:           r.hnsw.M,
				VectorEFConstruct: r.hnsw.EFConstruct,
			},
		},
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index: %w: %w", err, domain.ErrIndexUnavailable)
	}

	r.logger.Info("vector index created",
		zap.String("index", r.indexName()),
		zap.Int("dimensions", r.dimensions))

	return nil
}

// Reset drops the vector index so EnsureIndex can rebuild it from scratch.
// A missing index is not an error. Document hashes are kept; RediSearch
// re-indexes them when the index is recreated.
func (r *Repository) Reset(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, r.indexName()); err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil
		}
		return fmt.Errorf("drop index: %w: %w", err, domain.ErrIndexUnavailable)
	}

	r.logger.Info("vector index dropped", zap.String("index", r.indexName()))
	return nil
}

// Upsert writes a document hash. Re-using an id overwrites the stored
// document and its index entry.
func (r *Repository) Upsert(ctx context.Context, doc domain.Document, vector []float32) error {
	if len(vector) != r.dimensions {
		return fmt.Errorf("vector has %d dimensions, index expects %d", len(vector), r.dimensions)
	}

	fields := buildHashFields(doc, vector)
	if err := r.store.HSet(ctx, r.docKey(doc.ID), fields); err != nil {
		return fmt.Errorf("upsert document %q: %w: %w", doc.ID, err, domain.ErrIndexUnavailable)
	}
	return nil
}

// Get fetches a single document by id.
func (r *Repository) Get(ctx context.Context, id string) (domain.Document, error) {
	fields, err := r.store.HGetAll(ctx, r.docKey(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.Document{}, fmt.Errorf("document %q: %w", id, db.ErrKeyNotFound)
		}
		return domain.Document{}, fmt.Errorf("get document %q: %w: %w", id, err, domain.ErrIndexUnavailable)
	}

	return parseDocument(id, fields), nil
}

// Delete removes a document and its index entry.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, r.docKey(id)); err != nil {
		return fmt.Errorf("delete document %q: %w: %w", id, err, domain.ErrIndexUnavailable)
	}
	return nil
}

// QueryKNN returns the k nearest documents ordered by ascending cosine
// distance. Distances are returned raw, without similarity conversion.
func (r *Repository) QueryKNN(ctx context.Context, vector []float32, k int) ([]domain.QueryMatch, error) {
	if k <= 0 {
		return nil, nil
	}

	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName: r.indexName(),
		Vector:    vector,
		K:         k,
	})
	if err != nil {
		return nil, fmt.Errorf("knn query: %w: %w", err, domain.ErrIndexUnavailable)
	}

	matches := make([]domain.QueryMatch, 0, len(res.Entries))
	for _, entry := range res.Entries {
		matches = append(matches, domain.QueryMatch{
			Document: parseDocument(r.docID(entry.Key), entry.Fields),
			Distance: entry.Distance,
		})
	}
	return matches, nil
}

func (r *Repository) indexName() string {
	return r.collection + "_idx"
}

func (r *Repository) keyPrefix() string {
	return r.collection + ":doc:"
}

func (r *Repository) docKey(id string) string {
	return r.keyPrefix() + id
}

// docID strips the key prefix back off a search result key.
func (r *Repository) docID(key string) string {
	prefix := r.keyPrefix()
	if len(key) > len(prefix) && key[:len(prefix)] == prefix {
		return key[len(prefix):]
	}
	return key
}
