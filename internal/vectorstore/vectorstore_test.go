package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_EnsureCollectionDimensionMismatch(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	require.NoError(t, store.EnsureCollection(ctx, "kb1", 4))
	err := store.EnsureCollection(ctx, "kb1", 8)
	assert.Error(t, err)
}

func TestStore_EnsureCollectionIdempotent(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	require.NoError(t, store.EnsureCollection(ctx, "kb1", 4))
	require.NoError(t, store.EnsureCollection(ctx, "kb1", 4))
}

func TestStore_UpsertAndSearch(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	require.NoError(t, store.EnsureCollection(ctx, "kb1", 3))

	points := []Point{
		{ID: "a", Vector: []float32{1, 0, 0}, Payload: map[string]interface{}{"text": "alpha"}},
		{ID: "b", Vector: []float32{0, 1, 0}, Payload: map[string]interface{}{"text": "beta"}},
	}
	require.NoError(t, store.Upsert(ctx, "kb1", points))

	hits, err := store.Search(ctx, "kb1", []float32{1, 0, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].ID)
}

func TestStore_SearchScoreThreshold(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	require.NoError(t, store.EnsureCollection(ctx, "kb1", 3))
	require.NoError(t, store.Upsert(ctx, "kb1", []Point{
		{ID: "a", Vector: []float32{1, 0, 0}},
		{ID: "b", Vector: []float32{-1, 0, 0}},
	}))

	threshold := float32(0.5)
	hits, err := store.Search(ctx, "kb1", []float32{1, 0, 0}, 10, &threshold)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].ID)
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	require.NoError(t, store.EnsureCollection(ctx, "kb1", 2))
	require.NoError(t, store.Upsert(ctx, "kb1", []Point{{ID: "a", Vector: []float32{1, 1}}}))

	require.NoError(t, store.Delete(ctx, "kb1", []string{"a"}))
	require.NoError(t, store.Delete(ctx, "kb1", []string{"a"})) // second delete is a no-op

	count, err := store.Count(ctx, "kb1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestStore_Scroll(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	require.NoError(t, store.EnsureCollection(ctx, "kb1", 2))
	require.NoError(t, store.Upsert(ctx, "kb1", []Point{
		{ID: "a", Vector: []float32{1, 1}, Payload: map[string]interface{}{"file_id": "f1"}},
		{ID: "b", Vector: []float32{2, 2}, Payload: map[string]interface{}{"file_id": "f2"}},
	}))

	points, err := store.Scroll(ctx, "kb1", map[string]string{"file_id": "f1"}, 10)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "a", points[0].ID)
}
