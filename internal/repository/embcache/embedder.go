package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campusqa/askd/internal/db"
	"github.com/campusqa/askd/internal/domain"
	"github.com/campusqa/askd/internal/metrics"
)

// KVStore is the key/value subset used for cached vectors.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedEmbedder wraps an embedding provider with a vector cache keyed
// by text hash. Cache failures degrade to the underlying provider.
type CachedEmbedder struct {
	inner  domain.Embedder
	store  KVStore
	model  string
	ttl    time.Duration
	logger *zap.Logger
}

func New(inner domain.Embedder, store KVStore, model string, ttl time.Duration, logger *zap.Logger) *CachedEmbedder {
	return &CachedEmbedder{
		inner:  inner,
		store:  store,
		model:  model,
		ttl:    ttl,
		logger: logger,
	}
}

var _ domain.Embedder = (*CachedEmbedder)(nil)

type cachedVector struct {
	Embedding []float32 `json:"embedding"`
}

// Embed returns the cached vector when present, otherwise delegates and
// stores the result. Cached hits report zero token usage.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if cached, ok := c.lookup(ctx, text); ok {
		metrics.EmbeddingCacheTotal.WithLabelValues("hit").Inc()
		return cached, nil
	}
	metrics.EmbeddingCacheTotal.WithLabelValues("miss").Inc()

	result, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}

	c.write(ctx, text, result)
	return result, nil
}

// EmbedBatch serves each text from cache when possible and forwards only the
// misses to the provider in a single batch call.
func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]domain.EmbeddingResult, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([]domain.EmbeddingResult, len(texts))
	var missTexts []string
	var missIdx []int

	for i, text := range texts {
		if cached, ok := c.lookup(ctx, text); ok {
			metrics.EmbeddingCacheTotal.WithLabelValues("hit").Inc()
			results[i] = cached
			continue
		}
		metrics.EmbeddingCacheTotal.WithLabelValues("miss").Inc()
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}

	if len(missTexts) == 0 {
		return results, nil
	}

	fetched, err := c.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(fetched) != len(missTexts) {
		return nil, fmt.Errorf("embedder returned %d results for %d texts", len(fetched), len(missTexts))
	}

	for j, res := range fetched {
		results[missIdx[j]] = res
		c.write(ctx, missTexts[j], res)
	}

	return results, nil
}

// lookup reads one cached vector; any failure reads as a miss.
func (c *CachedEmbedder) lookup(ctx context.Context, text string) (domain.EmbeddingResult, bool) {
	key := c.cacheKey(text)

	cached, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("embedding cache read failed", zap.Error(err))
		}
		return domain.EmbeddingResult{}, false
	}

	var v cachedVector
	if err := json.Unmarshal(cached, &v); err != nil || len(v.Embedding) == 0 {
		c.logger.Warn("corrupt cached embedding, refetching", zap.String("key", key))
		return domain.EmbeddingResult{}, false
	}
	return domain.EmbeddingResult{Embedding: v.Embedding}, true
}

// write stores one vector; failures are logged and ignored.
func (c *CachedEmbedder) write(ctx context.Context, text string, res domain.EmbeddingResult) {
	payload, err := json.Marshal(cachedVector{Embedding: res.Embedding})
	if err != nil {
		return
	}
	if err := c.store.SetWithTTL(ctx, c.cacheKey(text), payload, c.ttl); err != nil {
		c.logger.Warn("embedding cache write failed", zap.Error(err))
	}
}

// cacheKey namespaces by model so a model change never serves stale vectors.
func (c *CachedEmbedder) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("embcache:%s:%s", c.model, hex.EncodeToString(sum[:]))
}
