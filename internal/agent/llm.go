package agent

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"ragcore/internal/pkg/logger"
	"ragcore/internal/pkg/retry"
)

// ToolCall is one function invocation the model asked for.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ChatResult is one LLM turn: either a final answer or a set of tool calls
// to satisfy before the next turn.
type ChatResult struct {
	Content   string
	ToolCalls []ToolCall
}

// LLM is the contract the orchestrator drives. Grounded on the teacher's
// assistant/llm.Provider, narrowed from a streaming multi-provider interface
// to the single blocking tool-calling call C9 needs.
type LLM interface {
	Chat(ctx context.Context, messages []openai.ChatCompletionMessage, tools []openai.Tool) (ChatResult, error)
	// CheckAvailable probes service reachability without raising an error,
	// mirroring embedding.Client's health-check shape.
	CheckAvailable(ctx context.Context) bool
}

// openAIChat calls an OpenAI-compatible chat-completions endpoint, wrapped
// with retry.LLMPolicy per SPEC_FULL.md §4.9 (3 attempts, 1s initial, factor
// 2, cap 10s, connection/timeout errors only).
type openAIChat struct {
	client *openai.Client
	model  string
	log    *logger.Logger
}

type OpenAIChatConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

func NewOpenAIChat(cfg OpenAIChatConfig, log *logger.Logger) (LLM, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("agent: api key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("agent: model is required")
	}
	if log == nil {
		log = logger.L()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &openAIChat{client: openai.NewClientWithConfig(clientCfg), model: cfg.Model, log: log}, nil
}

func (c *openAIChat) Chat(ctx context.Context, messages []openai.ChatCompletionMessage, tools []openai.Tool) (ChatResult, error) {
	policy := retry.LLMPolicy()
	policy.Retryable = isConnectionOrTimeoutError

	resp, err := retry.DoWithResult(ctx, policy, func(ctx context.Context) (openai.ChatCompletionResponse, error) {
		return c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    c.model,
			Messages: messages,
			Tools:    tools,
		})
	})
	if err != nil {
		return ChatResult{}, fmt.Errorf("agent: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return ChatResult{}, fmt.Errorf("agent: chat completion returned no choices")
	}

	choice := resp.Choices[0].Message
	result := ChatResult{Content: choice.Content}
	for _, tc := range choice.ToolCalls {
		result.ToolCalls = append(result.ToolCalls, ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: tc.Function.Arguments})
	}
	return result, nil
}

// CheckAvailable lists models as a cheap reachability probe, since a
// chat-completions call would cost a generation just to test the
// connection (embedding.OpenAIProvider's Ping instead embeds a short text).
func (c *openAIChat) CheckAvailable(ctx context.Context) bool {
	_, err := c.client.ListModels(ctx)
	return err == nil
}

// isConnectionOrTimeoutError narrows §4.9's retry scope: only connection and
// timeout failures are retried, not e.g. auth or validation errors the
// provider reports as 4xx.
func isConnectionOrTimeoutError(err error) bool {
	var apiErr *openai.APIError
	if asAPIError(err, &apiErr) {
		return apiErr.HTTPStatusCode == 0 || apiErr.HTTPStatusCode >= 500 || apiErr.HTTPStatusCode == 429
	}
	return true // network-level errors (no APIError) are always connection failures
}

func asAPIError(err error, target **openai.APIError) bool {
	for err != nil {
		if e, ok := err.(*openai.APIError); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
