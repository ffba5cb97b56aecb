package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"

	"ragcore/internal/kb"
	"ragcore/internal/pkg/logger"
)

// Reranker is C8's optional rerank stage, grounded on the teacher's
// internal/knowledge/reranker.Reranker interface but operating on
// kb.RetrievalHit rather than a Postgres-backed ChunkWithScore, since
// chunks here live only in the vector store's payload.
type Reranker interface {
	Rerank(ctx context.Context, query string, hits []kb.RetrievalHit) ([]kb.RetrievalHit, error)
}

// NoOpReranker returns hits unchanged, matching the teacher's
// NoOpReranker fallback for an unconfigured provider.
type NoOpReranker struct{}

func (NoOpReranker) Rerank(ctx context.Context, query string, hits []kb.RetrievalHit) ([]kb.RetrievalHit, error) {
	return hits, nil
}

// JinaReranker calls Jina AI's /rerank endpoint, grounded directly on the
// teacher's internal/knowledge/reranker/jina_reranker.go request/response
// shapes.
type JinaReranker struct {
	apiKey  string
	baseURL string
	model   string
	log     *logger.Logger
	client  *http.Client
}

type JinaRerankerConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

func NewJinaReranker(cfg JinaRerankerConfig, log *logger.Logger) (*JinaReranker, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("jina reranker: api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.jina.ai/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "jina-reranker-v2-base-multilingual"
	}
	if log == nil {
		log = logger.L()
	}
	return &JinaReranker{apiKey: cfg.APIKey, baseURL: cfg.BaseURL, model: cfg.Model, log: log, client: &http.Client{}}, nil
}

type jinaRerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

type jinaRerankResponse struct {
	Results []jinaRerankResult `json:"results"`
}

type jinaRerankResult struct {
	Index          int     `json:"index"`
	RelevanceScore float32 `json:"relevance_score"`
}

func (r *JinaReranker) Rerank(ctx context.Context, query string, hits []kb.RetrievalHit) ([]kb.RetrievalHit, error) {
	if len(hits) == 0 {
		return hits, nil
	}

	documents := make([]string, len(hits))
	for i, h := range hits {
		documents[i] = h.Content
	}

	reqBody, err := json.Marshal(jinaRerankRequest{Model: r.model, Query: query, Documents: documents, TopN: len(documents)})
	if err != nil {
		return nil, fmt.Errorf("jina reranker: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/rerank", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("jina reranker: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jina reranker: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("jina reranker: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jina reranker: status %d: %s", resp.StatusCode, string(body))
	}

	var parsed jinaRerankResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("jina reranker: unmarshal response: %w", err)
	}

	sort.Slice(parsed.Results, func(i, j int) bool {
		return parsed.Results[i].RelevanceScore > parsed.Results[j].RelevanceScore
	})

	out := make([]kb.RetrievalHit, 0, len(parsed.Results))
	for _, res := range parsed.Results {
		if res.Index < 0 || res.Index >= len(hits) {
			continue
		}
		h := hits[res.Index]
		h.Score = res.RelevanceScore
		out = append(out, h)
	}
	return out, nil
}
