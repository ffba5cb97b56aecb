// Package embedding implements C1: a fixed-dimension embedding client with
// batching, retry/backoff, inter-batch delay, and per-item fallback
// (SPEC_FULL.md §4.1).
package embedding

import (
	"context"
	"fmt"

	apperrors "ragcore/internal/pkg/errors"
)

// Client is the contract C5 (ingestion) and C8 (retrieval) depend on.
type Client interface {
	// EmbedQuery embeds a single text, e.g. a user's search query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	// EmbedDocuments embeds a batch of chunk texts, preserving order.
	// Returns exactly len(texts) vectors or fails.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	// CheckAvailable probes service and model presence. Never returns an error.
	CheckAvailable(ctx context.Context) bool
	// Dimension is the fixed vector width D this client produces.
	Dimension() int
}

// Provider is the raw, unbatched call to a backing embedding service. A
// Provider has no retry or batching policy of its own — that is the
// batchClient's job, so any Provider can be dropped in under the same
// retry/backoff/fallback behavior.
type Provider interface {
	// Embed sends exactly one backend call for the given texts and returns
	// one vector per text, in order. Implementations do not retry.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Ping checks reachability and model availability without raising an error.
	Ping(ctx context.Context) bool
	Dimension() int
}

// Config controls batching, retry, and backpressure behavior (§4.1).
type Config struct {
	BatchSize       int   // default 16 (spec range 6-32)
	AllowFallback   bool  // fall back to per-item embedding on batch failure
	InterBatchDelayMillis int // fixed delay between batches; default 0
}

func DefaultConfig() Config {
	return Config{BatchSize: 16, AllowFallback: true, InterBatchDelayMillis: 0}
}

// dimensionError marks a dimension mismatch, which is fatal and never retried.
type dimensionError struct {
	expected, got int
}

func (e *dimensionError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: expected %d, got %d", e.expected, e.got)
}

func newDimensionMismatch(expected, got int) error {
	return apperrors.Wrap(&dimensionError{expected: expected, got: got}, apperrors.ErrDimensionMismatch)
}
