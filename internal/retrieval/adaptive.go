package retrieval

import "ragcore/internal/kb"

// adaptiveSearch re-executes run with similarity_threshold multiplicatively
// reduced by cfg.AdaptiveReductionFactor, down to AdaptiveMinThreshold, up
// to AdaptiveMaxAttempts, stopping at the first attempt that meets
// AdaptiveTargetResults. If none meets the target, the largest non-empty
// result is returned, per §4.8.
func adaptiveSearch(run func(threshold float32) ([]scored, error), cfg kb.RetrievalConfig) ([]scored, error) {
	target := cfg.AdaptiveTargetResults
	if target <= 0 {
		target = cfg.TopK
	}
	minThreshold := cfg.AdaptiveMinThreshold
	factor := cfg.AdaptiveReductionFactor
	if factor <= 0 || factor >= 1 {
		factor = 0.7
	}
	maxAttempts := cfg.AdaptiveMaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 4
	}

	threshold := cfg.ScoreThreshold
	var best []scored

	for attempt := 0; attempt < maxAttempts; attempt++ {
		results, err := run(threshold)
		if err != nil {
			return nil, err
		}
		if len(results) > len(best) {
			best = results
		}
		if len(results) >= target {
			return results, nil
		}
		if threshold <= minThreshold {
			break
		}
		threshold *= factor
		if threshold < minThreshold {
			threshold = minThreshold
		}
	}

	return best, nil
}
