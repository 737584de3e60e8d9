package index

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/campusqa/askd/internal/db"
	"github.com/campusqa/askd/internal/domain"
)

type mockStore struct {
	hashes      map[string]map[string]string
	indexExists bool
	created     []*db.IndexDefinition
	searchRes   *db.SearchResult
	searchErr   error
	existsErr   error
	createErr   error
	dropErr     error
	hsetErr     error
	dropped     []string
	lastQuery   *db.KNNQuery
}

func newMockStore() *mockStore {
	return &mockStore{
		hashes:    make(map[string]map[string]string),
		searchRes: &db.SearchResult{},
	}
}

func (m *mockStore) HSet(_ context.Context, key string, fields map[string]string) error {
	if m.hsetErr != nil {
		return m.hsetErr
	}
	m.hashes[key] = fields
	return nil
}

func (m *mockStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	fields, ok := m.hashes[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return fields, nil
}

func (m *mockStore) Del(_ context.Context, key string) error {
	delete(m.hashes, key)
	return nil
}

func (m *mockStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, def)
	m.indexExists = true
	return nil
}

func (m *mockStore) DropIndex(_ context.Context, name string) error {
	if m.dropErr != nil {
		return m.dropErr
	}
	m.dropped = append(m.dropped, name)
	m.indexExists = false
	return nil
}

func (m *mockStore) IndexExists(_ context.Context, _ string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	return m.indexExists, nil
}

func (m *mockStore) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	m.lastQuery = q
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.searchRes, nil
}

func newTestRepo(store Store) *Repository {
	return New(store, "campusqa_vectors", 4, zap.NewNop()).
		WithHNSW(HNSWConfig{M: 32, EFConstruct: 400})
}

func TestEnsureIndexCreatesWhenMissing(t *testing.T) {
	store := newMockStore()
	repo := newTestRepo(store)

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("EnsureIndex() error = %v", err)
	}

	if len(store.created) != 1 {
		t.Fatalf("expected 1 index creation, got %d", len(store.created))
	}

	def := store.created[0]
	if def.Name != "campusqa_vectors_idx" {
		t.Errorf("index name = %q, want campusqa_vectors_idx", def.Name)
	}
	if len(def.Prefixes) != 1 || def.Prefixes[0] != "campusqa_vectors:doc:" {
		t.Errorf("index prefixes = %v", def.Prefixes)
	}

	var vectorField *db.IndexField
	for i := range def.Fields {
		if def.Fields[i].Type == db.IndexFieldVector {
			vectorField = &def.Fields[i]
		}
	}
	if vectorField == nil {
		t.Fatal("index definition has no vector field")
	}
	if vectorField.Alias != db.VectorAttribute {
		t.Errorf("vector alias = %q, want %q", vectorField.Alias, db.VectorAttribute)
	}
	if vectorField.VectorDistance != db.DistanceCosine {
		t.Errorf("vector metric = %q, want COSINE", vectorField.VectorDistance)
	}
	if vectorField.VectorDim != 4 {
		t.Errorf("vector dimensions = %d, want 4", vectorField.VectorDim)
	}
	if vectorField.VectorAlgo != db.VectorHNSW {
		t.Errorf("vector algorithm = %q, want HNSW", vectorField.VectorAlgo)
	}
	if vectorField.VectorM != 32 || vectorField.VectorEFConstruct != 400 {
		t.Errorf("HNSW params = M %d EF %d", vectorField.VectorM, vectorField.VectorEFConstruct)
	}
}

func TestEnsureIndexIdempotent(t *testing.T) {
	store := newMockStore()
	store.indexExists = true
	repo := newTestRepo(store)

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("EnsureIndex() error = %v", err)
	}
	if len(store.created) != 0 {
		t.Errorf("expected no index creation, got %d", len(store.created))
	}
}

func TestEnsureIndexToleratesConcurrentCreate(t *testing.T) {
	store := newMockStore()
	store.createErr = db.ErrIndexExists
	repo := newTestRepo(store)

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("EnsureIndex() error = %v", err)
	}
}

func TestResetDropsIndex(t *testing.T) {
	store := newMockStore()
	store.indexExists = true
	repo := newTestRepo(store)

	if err := repo.Reset(context.Background()); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if len(store.dropped) != 1 || store.dropped[0] != "campusqa_vectors_idx" {
		t.Errorf("dropped = %v, want [campusqa_vectors_idx]", store.dropped)
	}

	// EnsureIndex rebuilds after a reset
	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("EnsureIndex() error = %v", err)
	}
	if len(store.created) != 1 {
		t.Errorf("expected index recreation, got %d creations", len(store.created))
	}
}

func TestResetToleratesMissingIndex(t *testing.T) {
	store := newMockStore()
	store.dropErr = db.ErrIndexNotFound
	repo := newTestRepo(store)

	if err := repo.Reset(context.Background()); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
}

func TestResetWrapsIndexError(t *testing.T) {
	store := newMockStore()
	store.dropErr = errors.New("connection refused")
	repo := newTestRepo(store)

	if err := repo.Reset(context.Background()); !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Errorf("error = %v, want ErrIndexUnavailable", err)
	}
}

func TestUpsertAndGetRoundTrip(t *testing.T) {
	store := newMockStore()
	repo := newTestRepo(store)
	ctx := context.Background()

	doc := domain.Document{
		ID:       "doc-1",
		Text:     "Stanford was founded in 1885.",
		Metadata: map[string]string{"source": "history", "topic": "founding"},
	}
	vector := []float32{0.1, 0.2, 0.3, 0.4}

	if err := repo.Upsert(ctx, doc, vector); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, err := repo.Get(ctx, "doc-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Text != doc.Text {
		t.Errorf("Text = %q, want %q", got.Text, doc.Text)
	}
	if got.Metadata["source"] != "history" || got.Metadata["topic"] != "founding" {
		t.Errorf("Metadata = %v, want %v", got.Metadata, doc.Metadata)
	}
}

func TestUpsertOverwritesSameID(t *testing.T) {
	store := newMockStore()
	repo := newTestRepo(store)
	ctx := context.Background()

	vector := []float32{0, 0, 0, 1}
	first := domain.Document{ID: "doc-1", Text: "old text"}
	second := domain.Document{ID: "doc-1", Text: "new text"}

	if err := repo.Upsert(ctx, first, vector); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := repo.Upsert(ctx, second, vector); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, err := repo.Get(ctx, "doc-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Text != "new text" {
		t.Errorf("Text = %q, want overwritten value", got.Text)
	}
	if len(store.hashes) != 1 {
		t.Errorf("stored %d hashes, want 1", len(store.hashes))
	}
}

func TestUpsertRejectsWrongDimensions(t *testing.T) {
	repo := newTestRepo(newMockStore())

	err := repo.Upsert(context.Background(), domain.Document{ID: "doc-1"}, []float32{1, 2})
	if err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

func TestQueryKNNParsesMatches(t *testing.T) {
	store := newMockStore()
	store.searchRes = &db.SearchResult{
		Total: 2,
		Entries: []db.SearchEntry{
			{
				Key:      "campusqa_vectors:doc:doc-1",
				Distance: 0.12,
				Fields:   map[string]string{"__content": "first", "meta:source": "a"},
			},
			{
				Key:      "campusqa_vectors:doc:doc-2",
				Distance: 1.7,
				Fields:   map[string]string{"__content": "second"},
			},
		},
	}
	repo := newTestRepo(store)

	matches, err := repo.QueryKNN(context.Background(), []float32{0.1, 0.2, 0.3, 0.4}, 3)
	if err != nil {
		t.Fatalf("QueryKNN() error = %v", err)
	}

	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].Document.ID != "doc-1" {
		t.Errorf("first match id = %q, want doc-1", matches[0].Document.ID)
	}
	if matches[0].Distance != 0.12 {
		t.Errorf("first match distance = %v, want raw 0.12", matches[0].Distance)
	}
	if matches[0].Document.Metadata["source"] != "a" {
		t.Errorf("metadata not parsed: %v", matches[0].Document.Metadata)
	}
	if matches[1].Distance != 1.7 {
		t.Errorf("second match distance = %v, want raw 1.7", matches[1].Distance)
	}

	if store.lastQuery.K != 3 {
		t.Errorf("query k = %d, want 3", store.lastQuery.K)
	}
	if store.lastQuery.IndexName != "campusqa_vectors_idx" {
		t.Errorf("query index = %q", store.lastQuery.IndexName)
	}
}

func TestQueryKNNWrapsIndexError(t *testing.T) {
	store := newMockStore()
	store.searchErr = errors.New("connection refused")
	repo := newTestRepo(store)

	_, err := repo.QueryKNN(context.Background(), []float32{1, 2, 3, 4}, 3)
	if !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Errorf("error = %v, want ErrIndexUnavailable", err)
	}
}

func TestQueryKNNZeroK(t *testing.T) {
	repo := newTestRepo(newMockStore())

	matches, err := repo.QueryKNN(context.Background(), []float32{1, 2, 3, 4}, 0)
	if err != nil {
		t.Fatalf("QueryKNN() error = %v", err)
	}
	if matches != nil {
		t.Errorf("expected nil matches for k=0, got %v", matches)
	}
}
