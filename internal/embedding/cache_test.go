package embedding

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCacheStore struct {
	data map[string]string
	gets int
	sets int
}

func newFakeCacheStore() *fakeCacheStore {
	return &fakeCacheStore{data: map[string]string{}}
}

func (f *fakeCacheStore) Get(ctx context.Context, key string) (string, bool, error) {
	f.gets++
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeCacheStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	f.sets++
	f.data[key] = value
	return nil
}

func TestCachedClient_MissThenHit(t *testing.T) {
	provider := &fakeProvider{dim: 3}
	inner := New(provider, DefaultConfig(), nil)
	store := newFakeCacheStore()
	client := WithCache(inner, store, "test-model", DefaultCacheConfig(), nil)

	vecs1, err := client.EmbedDocuments(context.Background(), []string{"hello"})
	require.NoError(t, err)
	assert.Len(t, vecs1, 1)
	assert.Equal(t, int32(1), provider.calls.Load())

	vecs2, err := client.EmbedDocuments(context.Background(), []string{"hello"})
	require.NoError(t, err)
	assert.Equal(t, vecs1, vecs2)
	// second call is a cache hit: no additional backend call.
	assert.Equal(t, int32(1), provider.calls.Load())
}

func TestCachedClient_PartialHit(t *testing.T) {
	provider := &fakeProvider{dim: 2}
	inner := New(provider, Config{BatchSize: 8, AllowFallback: true}, nil)
	store := newFakeCacheStore()
	client := WithCache(inner, store, "test-model", DefaultCacheConfig(), nil)

	_, err := client.EmbedDocuments(context.Background(), []string{"a"})
	require.NoError(t, err)

	vecs, err := client.EmbedDocuments(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	// "a" already cached; only "b" is a new backend call, for a total of 2 calls.
	assert.Equal(t, int32(2), provider.calls.Load())
}

func TestWithCache_NilDisables(t *testing.T) {
	provider := &fakeProvider{dim: 2}
	inner := New(provider, DefaultConfig(), nil)

	client := WithCache(inner, nil, "test-model", DefaultCacheConfig(), nil)
	assert.Same(t, inner, client)
}

func TestCachedClient_DifferentModelsDoNotCollide(t *testing.T) {
	provider := &fakeProvider{dim: 2}
	inner := New(provider, DefaultConfig(), nil)
	store := newFakeCacheStore()

	clientA := WithCache(inner, store, "model-a", DefaultCacheConfig(), nil)
	clientB := WithCache(inner, store, "model-b", DefaultCacheConfig(), nil)

	_, err := clientA.EmbedDocuments(context.Background(), []string{"shared text"})
	require.NoError(t, err)
	_, err = clientB.EmbedDocuments(context.Background(), []string{"shared text"})
	require.NoError(t, err)

	// each model gets its own cache entry, so both calls reach the backend.
	assert.Equal(t, int32(2), provider.calls.Load())
}
