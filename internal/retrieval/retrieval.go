// Package retrieval implements C8: vector, keyword, hybrid, and adaptive
// search over a KB's collection, with optional reranking and query
// expansion, per SPEC_FULL.md §4.8. Grounded on the teacher's
// internal/knowledge/hybrid (RRF), internal/knowledge/reranker, and
// internal/knowledge/rewrite packages, generalized from a Milvus-specific,
// Postgres-chunk-table-joined pipeline into one that works purely off the
// vector store's payload (chunks are not persisted relationally — see
// internal/kb).
package retrieval

import (
	"context"
	"sort"

	"ragcore/internal/embedding"
	"ragcore/internal/kb"
	"ragcore/internal/vectorstore"
)

// Engine is C8, constructed once and bound to a Manager via
// kb.WithRetriever. It implements kb.Retriever.
type Engine struct {
	embed    embedding.Client
	vectors  vectorstore.Store
	reranker Reranker
	synonyms map[string][]string
}

// Option configures an Engine at construction.
type Option func(*Engine)

func WithReranker(r Reranker) Option {
	return func(e *Engine) { e.reranker = r }
}

// WithSynonyms installs the static domain dictionary query expansion
// draws from (§4.8: "no built-in dictionary is shipped").
func WithSynonyms(dict map[string][]string) Option {
	return func(e *Engine) { e.synonyms = dict }
}

func New(embed embedding.Client, vectors vectorstore.Store, opts ...Option) *Engine {
	e := &Engine{embed: embed, vectors: vectors, reranker: NoOpReranker{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search is the kb.Retriever entry point: select a strategy by
// cfg.Mode, run it (wrapped in the adaptive retry if requested), rerank
// if enabled, and return kb.RetrievalHit results sorted by descending
// score with the §4.8 stable tie-break (lower chunk_index, then lower id).
func (e *Engine) Search(ctx context.Context, collectionName, query string, cfg kb.RetrievalConfig) ([]kb.RetrievalHit, error) {
	queries := e.expand(query)

	run := func(threshold float32) ([]scored, error) {
		var merged []scored
		for _, q := range queries {
			hits, err := e.searchOnce(ctx, collectionName, q, cfg, threshold)
			if err != nil {
				return nil, err
			}
			merged = append(merged, hits...)
		}
		return dedupeKeepHighest(merged), nil
	}

	var results []scored
	var err error
	if cfg.AdaptiveEnabled {
		results, err = adaptiveSearch(run, cfg)
	} else {
		results, err = run(cfg.ScoreThreshold)
	}
	if err != nil {
		return nil, err
	}

	sortScored(results)
	if cfg.TopK > 0 && len(results) > cfg.TopK {
		results = results[:cfg.TopK]
	}

	hits := toRetrievalHits(results)
	if cfg.RerankEnabled && e.reranker != nil {
		return e.reranker.Rerank(ctx, query, hits)
	}
	return hits, nil
}

func (e *Engine) searchOnce(ctx context.Context, collectionName, query string, cfg kb.RetrievalConfig, threshold float32) ([]scored, error) {
	mode := cfg.Mode
	if mode == "" {
		mode = "vector"
	}

	limit := cfg.TopK
	if limit <= 0 {
		limit = 5
	}

	switch mode {
	case "keyword":
		return keywordSearch(ctx, e.vectors, collectionName, query, limit)
	case "hybrid":
		return e.hybridSearch(ctx, collectionName, query, cfg, limit, threshold)
	default: // "vector", "adaptive" (adaptive wraps whichever inner mode is set via cfg.HybridSearch)
		if cfg.HybridSearch {
			return e.hybridSearch(ctx, collectionName, query, cfg, limit, threshold)
		}
		return e.vectorSearch(ctx, collectionName, query, limit, threshold)
	}
}

func (e *Engine) hybridSearch(ctx context.Context, collectionName, query string, cfg kb.RetrievalConfig, topK int, threshold float32) ([]scored, error) {
	innerLimit := 2 * topK
	vecHits, err := e.vectorSearch(ctx, collectionName, query, innerLimit, threshold)
	if err != nil {
		return nil, err
	}
	kwHits, err := keywordSearch(ctx, e.vectors, collectionName, query, innerLimit)
	if err != nil {
		return nil, err
	}

	if cfg.HybridFusion == "rrf" {
		k := cfg.RRFK
		if k <= 0 {
			k = 60
		}
		return reciprocalRankFusion(vecHits, kwHits, k), nil
	}

	vw, kwW := cfg.VectorWeight, cfg.KeywordWeight
	if vw == 0 && kwW == 0 {
		vw, kwW = 0.5, 0.5
	}
	return weightedFusion(vecHits, kwHits, vw, kwW), nil
}

func (e *Engine) vectorSearch(ctx context.Context, collectionName, query string, limit int, threshold float32) ([]scored, error) {
	vec, err := e.embed.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	var thresholdPtr *float32
	if threshold > 0 {
		thresholdPtr = &threshold
	}
	hits, err := e.vectors.Search(ctx, collectionName, vec, limit, thresholdPtr)
	if err != nil {
		return nil, err
	}
	out := make([]scored, len(hits))
	for i, h := range hits {
		out[i] = scored{id: h.ID, score: h.Score, payload: h.Payload}
	}
	return out, nil
}

// expand returns the original query followed by its 0..k synonym
// expansions from the caller-supplied dictionary. Each entry is searched as
// a separate query and the hits are merged; the synonyms are not joined
// into the query text.
func (e *Engine) expand(query string) []string {
	queries := []string{query}
	if e.synonyms == nil {
		return queries
	}
	if syns, ok := e.synonyms[query]; ok {
		queries = append(queries, syns...)
	}
	return queries
}

// scored is the engine's internal result shape, carrying the vector
// store's raw payload until the final kb.RetrievalHit conversion.
type scored struct {
	id      string
	score   float32
	payload map[string]interface{}
}

func toRetrievalHits(results []scored) []kb.RetrievalHit {
	hits := make([]kb.RetrievalHit, len(results))
	for i, r := range results {
		content, _ := r.payload["text"].(string)
		source, _ := r.payload["source"].(string)
		hits[i] = kb.RetrievalHit{Score: r.score, Content: content, Source: source, Metadata: r.payload}
	}
	return hits
}

func dedupeKeepHighest(results []scored) []scored {
	best := map[string]scored{}
	order := make([]string, 0, len(results))
	for _, r := range results {
		if existing, ok := best[r.id]; !ok || r.score > existing.score {
			if _, seen := best[r.id]; !seen {
				order = append(order, r.id)
			}
			best[r.id] = r
		}
	}
	out := make([]scored, len(order))
	for i, id := range order {
		out[i] = best[id]
	}
	return out
}

func chunkIndexOf(r scored) int {
	if v, ok := r.payload["chunk_index"]; ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return 0
}

// sortScored orders by descending score, breaking ties per §4.8: lower
// chunk_index, then lower id.
func sortScored(results []scored) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		ci, cj := chunkIndexOf(results[i]), chunkIndexOf(results[j])
		if ci != cj {
			return ci < cj
		}
		return results[i].id < results[j].id
	})
}
