package embedding

import (
	"context"
	"time"

	"go.uber.org/zap"

	"ragcore/internal/pkg/logger"
	"ragcore/internal/pkg/retry"
)

// batchClient wraps a Provider with the batching, retry, per-item fallback,
// and inter-batch delay algorithm of SPEC_FULL.md §4.1.
type batchClient struct {
	provider Provider
	cfg      Config
	policy   retry.Policy
	log      *logger.Logger
}

// New builds the C1 embedding client around provider, following the default
// retry policy of §4.1 (5 attempts, 1.5s initial, factor 1.5).
func New(provider Provider, cfg Config, log *logger.Logger) Client {
	if log == nil {
		log = logger.L()
	}
	if cfg.BatchSize <= 0 {
		cfg = DefaultConfig()
	}
	return &batchClient{
		provider: provider,
		cfg:      cfg,
		policy:   retry.EmbeddingPolicy(),
		log:      log,
	}
}

func (c *batchClient) Dimension() int { return c.provider.Dimension() }

func (c *batchClient) CheckAvailable(ctx context.Context) bool {
	return c.provider.Ping(ctx)
}

func (c *batchClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (c *batchClient) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += c.cfg.BatchSize {
		end := start + c.cfg.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		vecs, err := c.embedBatchWithRetry(ctx, batch)
		if err != nil {
			return nil, err
		}
		copy(results[start:end], vecs)

		if end < len(texts) && c.cfg.InterBatchDelayMillis > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(c.cfg.InterBatchDelayMillis) * time.Millisecond):
			}
		}
	}
	return results, nil
}

// embedBatchWithRetry retries a whole-batch call up to the policy's attempt
// budget. If the batch has more than one item and every retry is exhausted,
// it falls back to embedding each item individually so a single bad text
// does not fail its siblings — the batch call's first error is preserved if
// the fallback also fails.
func (c *batchClient) embedBatchWithRetry(ctx context.Context, batch []string) ([][]float32, error) {
	policy := c.policy
	policy.Retryable = func(err error) bool { return !isDimensionMismatch(err) }

	var firstErr error
	vecs, err := retry.DoWithResult(ctx, policy, func(ctx context.Context) ([][]float32, error) {
		vecs, err := c.provider.Embed(ctx, batch)
		if err != nil {
			return nil, err
		}
		return vecs, c.validateDimensions(vecs)
	})
	if err == nil {
		return vecs, nil
	}
	firstErr = err

	if isDimensionMismatch(err) {
		return nil, err // fatal, non-retried, no fallback
	}

	if !c.cfg.AllowFallback || len(batch) <= 1 {
		return nil, firstErr
	}

	c.log.Warn("embedding batch failed after retries, falling back to per-item embedding",
		zap.Int("batch_size", len(batch)), zap.Error(firstErr))

	out := make([][]float32, len(batch))
	for i, text := range batch {
		v, err := retry.DoWithResult(ctx, policy, func(ctx context.Context) ([][]float32, error) {
			vecs, err := c.provider.Embed(ctx, []string{text})
			if err != nil {
				return nil, err
			}
			return vecs, c.validateDimensions(vecs)
		})
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return nil, firstErr
		}
		out[i] = v[0]
	}
	return out, nil
}

func (c *batchClient) validateDimensions(vecs [][]float32) error {
	d := c.provider.Dimension()
	for _, v := range vecs {
		if len(v) != d {
			return newDimensionMismatch(d, len(v))
		}
	}
	return nil
}

func isDimensionMismatch(err error) bool {
	var de *dimensionError
	for err != nil {
		if e, ok := err.(*dimensionError); ok {
			de = e
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return de != nil
}
