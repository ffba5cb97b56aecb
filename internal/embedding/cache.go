package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ragcore/internal/pkg/logger"
)

// cacheStore is the slice of rediscache.Client this decorator needs; kept as
// an interface so the decorator can be tested against a fake without a live
// Redis connection.
type cacheStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// cachedClient decorates a Client with a Redis-backed lookaside cache keyed
// by model + sha256(text), adapted from the teacher's CacheEmbedder decorator
// but split across the Client/Provider boundary: caching wraps the whole
// batching/retry Client rather than a raw provider, so a cache hit skips
// the backend call entirely.
type cachedClient struct {
	inner  Client
	cache  cacheStore
	ttl    time.Duration
	prefix string
	model  string
	log    *logger.Logger
}

type CacheConfig struct {
	TTL    time.Duration
	Prefix string
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{TTL: 24 * time.Hour, Prefix: "kb:embedding:"}
}

// WithCache wraps inner with a lookaside cache. model identifies the
// embedding model in the cache key so switching models never serves stale
// vectors of the wrong dimension. cache == nil disables caching entirely,
// falling straight through to inner — callers do not need a separate
// no-cache code path.
func WithCache(inner Client, cache cacheStore, model string, cfg CacheConfig, log *logger.Logger) Client {
	if cache == nil {
		return inner
	}
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "kb:embedding:"
	}
	if log == nil {
		log = logger.L()
	}
	return &cachedClient{inner: inner, cache: cache, ttl: cfg.TTL, prefix: cfg.Prefix, model: model, log: log}
}

func (c *cachedClient) Dimension() int                          { return c.inner.Dimension() }
func (c *cachedClient) CheckAvailable(ctx context.Context) bool { return c.inner.CheckAvailable(ctx) }

func (c *cachedClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (c *cachedClient) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))
	missIdx := make([]int, 0, len(texts))
	missTexts := make([]string, 0, len(texts))

	for i, text := range texts {
		key := c.cacheKey(text)
		if vec, ok := c.getFromCache(ctx, key); ok {
			results[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	c.log.Debug("embedding cache lookup",
		zap.Int("total", len(texts)),
		zap.Int("hits", len(texts)-len(missTexts)),
		zap.Int("misses", len(missTexts)))

	if len(missTexts) == 0 {
		return results, nil
	}

	fresh, err := c.inner.EmbedDocuments(ctx, missTexts)
	if err != nil {
		return nil, err
	}

	for i, vec := range fresh {
		idx := missIdx[i]
		results[idx] = vec
		c.setToCache(ctx, c.cacheKey(missTexts[i]), vec)
	}

	return results, nil
}

func (c *cachedClient) cacheKey(text string) string {
	hash := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%s%s:%s", c.prefix, c.model, hex.EncodeToString(hash[:]))
}

func (c *cachedClient) getFromCache(ctx context.Context, key string) ([]float32, bool) {
	data, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.log.Warn("embedding cache read failed", zap.String("cache_key", key), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var vec []float32
	if err := json.Unmarshal([]byte(data), &vec); err != nil {
		c.log.Warn("embedding cache entry corrupt", zap.String("cache_key", key), zap.Error(err))
		return nil, false
	}
	return vec, true
}

func (c *cachedClient) setToCache(ctx context.Context, key string, vec []float32) {
	data, err := json.Marshal(vec)
	if err != nil {
		c.log.Warn("failed to marshal embedding for cache", zap.Error(err))
		return
	}
	if err := c.cache.Set(ctx, key, string(data), c.ttl); err != nil {
		c.log.Warn("failed to write embedding cache", zap.String("cache_key", key), zap.Error(err))
	}
}
