package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragcore/internal/agent"
)

// fakeLLM answers with a fixed reply and never emits tool calls, grounded on
// internal/agent/agent_test.go's scriptedLLM.
type fakeLLM struct{ reply string }

func (f *fakeLLM) Chat(ctx context.Context, messages []openai.ChatCompletionMessage, tools []openai.Tool) (agent.ChatResult, error) {
	return agent.ChatResult{Content: f.reply}, nil
}
func (f *fakeLLM) CheckAvailable(ctx context.Context) bool { return true }

func newChatServer(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	orch := agent.New(&fakeLLM{reply: reply}, nil)
	log, err := newDevLogger()
	require.NoError(t, err)
	svc := NewChatService(orch, log)

	r := newTestRouter()
	svc.RegisterRoutes(r.Group("/api/v1"))
	return httptest.NewServer(r)
}

func TestChatService_Chat(t *testing.T) {
	srv := newChatServer(t, "paris is the capital of france")
	defer srv.Close()

	body, _ := json.Marshal(ChatRequest{Query: "what is the capital of france"})
	resp, err := http.Post(srv.URL+"/api/v1/chat", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		Data ChatResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "paris is the capital of france", got.Data.Answer)
}

func TestChatService_Chat_MissingQuery(t *testing.T) {
	srv := newChatServer(t, "unused")
	defer srv.Close()

	body, _ := json.Marshal(ChatRequest{History: []ChatMessage{{Role: "user", Content: "hi"}}})
	resp, err := http.Post(srv.URL+"/api/v1/chat", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatService_Chat_WithHistory(t *testing.T) {
	srv := newChatServer(t, "it's 4")
	defer srv.Close()

	body, _ := json.Marshal(ChatRequest{
		Query: "and the sum?",
		History: []ChatMessage{
			{Role: "user", Content: "what is 2+2"},
			{Role: "assistant", Content: "that's an arithmetic question"},
		},
	})
	resp, err := http.Post(srv.URL+"/api/v1/chat", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
