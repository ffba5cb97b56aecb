package embedding

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"ragcore/internal/pkg/logger"
)

// OpenAIProvider calls an OpenAI-compatible embeddings endpoint, adapted
// from the teacher's embedding/openai_embedder.go with the retry/caching
// concerns lifted out into batchClient and cachedClient respectively.
type OpenAIProvider struct {
	client    *openai.Client
	model     string
	dimension int
	log       *logger.Logger
}

type OpenAIProviderConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	Dimension int
}

func NewOpenAIProvider(cfg OpenAIProviderConfig, log *logger.Logger) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embedding: api key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("embedding: model is required")
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("embedding: dimension must be positive")
	}
	if log == nil {
		log = logger.L()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIProvider{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		dimension: cfg.Dimension,
		log:       log,
	}, nil
}

func (p *OpenAIProvider) Dimension() int { return p.dimension }

func (p *OpenAIProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	req := openai.EmbeddingRequestStrings{
		Input:      texts,
		Model:      openai.EmbeddingModel(p.model),
		Dimensions: p.dimension,
	}

	resp, err := p.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("embedding: create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding: expected %d vectors, got %d", len(texts), len(resp.Data))
	}

	out := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		out[d.Index] = d.Embedding
	}

	p.log.Debug("embeddings created",
		zap.Int("count", len(out)),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("total_tokens", resp.Usage.TotalTokens))

	return out, nil
}

func (p *OpenAIProvider) Ping(ctx context.Context) bool {
	_, err := p.Embed(ctx, []string{"ping"})
	return err == nil
}
