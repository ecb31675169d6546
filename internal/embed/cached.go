package embed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/noesis-ai/noesis/internal/cache"
)

// CachedEmbedder memoizes embedding vectors by text content. Ingesting the
// same page twice, or re-asking a popular query, skips the API round trip.
type CachedEmbedder struct {
	inner Embedder
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedEmbedder wraps an embedder with a cache tier.
func NewCachedEmbedder(inner Embedder, c cache.Cache, ttl time.Duration) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, cache: c, ttl: ttl}
}

func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cache.Key("emb", text)

	if raw, found := e.cache.Get(key); found {
		var vec []float32
		if json.Unmarshal(raw, &vec) == nil && len(vec) > 0 {
			return vec, nil
		}
		// Corrupt entry: drop it and re-embed
		_ = e.cache.Delete(key)
	}

	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(vec); err == nil {
		_ = e.cache.Set(key, raw, e.ttl)
	}
	return vec, nil
}

func (e *CachedEmbedder) Dimensions() int {
	return e.inner.Dimensions()
}
