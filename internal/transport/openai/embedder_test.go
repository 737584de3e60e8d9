package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/campusqa/askd/internal/domain"
)

// fakeEmbeddingServer answers /v1/embeddings with one 2-dim vector per input,
// encoding the input position so ordering is observable.
func fakeEmbeddingServer(t *testing.T, delay time.Duration, requests *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			http.NotFound(w, r)
			return
		}
		*requests++

		if delay > 0 {
			time.Sleep(delay)
		}

		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		data := make([]map[string]any, len(req.Input))
		for i := range req.Input {
			data[i] = map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": []float32{float32(i), float32(i)},
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  "text-embedding-3-small",
			"usage":  map[string]int{"prompt_tokens": 4, "total_tokens": 4},
		})
	}))
}

func newTestEmbedder(baseURL string, timeout time.Duration) *Embedder {
	return NewEmbedder(&EmbedderConfig{
		APIKey:     "test-key",
		BaseURL:    baseURL + "/v1",
		Model:      "text-embedding-3-small",
		Dimensions: 2,
		Timeout:    timeout,
		Logger:     zap.NewNop(),
	})
}

func TestEmbedReturnsVectorAndUsage(t *testing.T) {
	requests := 0
	ts := fakeEmbeddingServer(t, 0, &requests)
	defer ts.Close()

	e := newTestEmbedder(ts.URL, 0)

	got, err := e.Embed(context.Background(), "what is Stanford")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(got.Embedding) != 2 {
		t.Errorf("embedding len = %d, want 2", len(got.Embedding))
	}
	if got.TotalTokens != 4 {
		t.Errorf("TotalTokens = %d, want 4", got.TotalTokens)
	}
}

func TestEmbedHonorsTimeout(t *testing.T) {
	requests := 0
	ts := fakeEmbeddingServer(t, 300*time.Millisecond, &requests)
	defer ts.Close()

	e := newTestEmbedder(ts.URL, 20*time.Millisecond)

	_, err := e.Embed(context.Background(), "slow provider")
	if !errors.Is(err, domain.ErrEmbeddingProvider) {
		t.Errorf("error = %v, want ErrEmbeddingProvider", err)
	}
}

func TestEmbedBatchSingleRequest(t *testing.T) {
	requests := 0
	ts := fakeEmbeddingServer(t, 0, &requests)
	defer ts.Close()

	e := newTestEmbedder(ts.URL, 0)

	results, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("EmbedBatch() error = %v", err)
	}

	if requests != 1 {
		t.Errorf("provider requests = %d, want 1", requests)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, res := range results {
		if len(res.Embedding) != 2 || res.Embedding[0] != float32(i) {
			t.Errorf("result %d out of order: %v", i, res.Embedding)
		}
	}
	if results[0].TotalTokens != 4 {
		t.Errorf("aggregate TotalTokens = %d, want 4 on first result", results[0].TotalTokens)
	}
}

func TestEmbedBatchEmptyInput(t *testing.T) {
	requests := 0
	ts := fakeEmbeddingServer(t, 0, &requests)
	defer ts.Close()

	e := newTestEmbedder(ts.URL, 0)

	results, err := e.EmbedBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("EmbedBatch() error = %v", err)
	}
	if results != nil {
		t.Errorf("results = %v, want nil", results)
	}
	if requests != 0 {
		t.Errorf("provider requests = %d, want 0", requests)
	}
}
