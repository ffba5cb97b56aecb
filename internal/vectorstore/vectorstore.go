// Package vectorstore implements C2: a collection-per-knowledge-base vector
// store client over Milvus (SPEC_FULL.md §4.2).
package vectorstore

import "context"

// Point is one vector and its payload, written by C5 (ingestion).
type Point struct {
	ID       string
	Vector   []float32
	Payload  map[string]interface{}
}

// Hit is a search result ordered by descending similarity.
type Hit struct {
	ID       string
	Score    float32
	Payload  map[string]interface{}
}

// CollectionInfo reports a collection's shape for diagnostics and the
// KB-dimension-consistency check in EnsureCollection.
type CollectionInfo struct {
	Name       string
	Dimension  int
	PointCount int64
}

// Store is the contract C5 (ingestion) and C8 (retrieval) depend on. Every
// operation is scoped to a single collection name — callers own the
// one-collection-per-KB mapping (SPEC_FULL.md invariant I1).
type Store interface {
	// EnsureCollection creates the collection with cosine distance if it does
	// not exist. If it exists, its stored dimension must equal dim or this
	// fails — it never silently operates against a mismatched collection.
	EnsureCollection(ctx context.Context, name string, dim int) error

	// DeleteCollection is idempotent: deleting an absent collection succeeds.
	DeleteCollection(ctx context.Context, name string) error

	// Upsert writes points in batches (default 100), retrying each batch
	// under VectorStorePolicy. A write is atomic only from the batch's view,
	// per SPEC_FULL.md §4.2.
	Upsert(ctx context.Context, name string, points []Point) error

	// Delete removes points by ID; idempotent for absent IDs.
	Delete(ctx context.Context, name string, ids []string) error

	// Search returns hits ordered by descending similarity. scoreThreshold,
	// when non-nil, drops hits below it. Ties keep the store's native order.
	Search(ctx context.Context, name string, vector []float32, limit int, scoreThreshold *float32) ([]Hit, error)

	// Scroll is a forward-only enumeration used for keyword-search fallback
	// over a collection's payloads, optionally constrained by filter (exact
	// match on payload keys).
	Scroll(ctx context.Context, name string, filter map[string]string, limit int) ([]Point, error)

	Count(ctx context.Context, name string) (int64, error)
	Info(ctx context.Context, name string) (*CollectionInfo, error)
}
