package agent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedLLM struct {
	turns []ChatResult
	calls int
}

func (l *scriptedLLM) Chat(ctx context.Context, messages []openai.ChatCompletionMessage, tools []openai.Tool) (ChatResult, error) {
	if l.calls >= len(l.turns) {
		return ChatResult{}, assert.AnError
	}
	r := l.turns[l.calls]
	l.calls++
	return r, nil
}

func (l *scriptedLLM) CheckAvailable(ctx context.Context) bool { return true }

type fakeRetriever struct {
	snippets []RetrievedSnippet
	err      error
	queries  []string
}

func (r *fakeRetriever) Search(ctx context.Context, collectionName, query string, topK int) ([]RetrievedSnippet, error) {
	r.queries = append(r.queries, query)
	if r.err != nil {
		return nil, r.err
	}
	return r.snippets, nil
}

func toolCallArgs(query string) string {
	b, _ := json.Marshal(map[string]string{"query": query})
	return string(b)
}

func TestChat_DirectAnswerWithoutToolCall(t *testing.T) {
	llm := &scriptedLLM{turns: []ChatResult{{Content: "the answer is 4"}}}
	orch := New(llm, nil)

	resp, err := orch.Chat(context.Background(), Request{SessionID: "s1", Query: "what is 2+2"})
	require.NoError(t, err)
	assert.Equal(t, "the answer is 4", resp.Answer)
	assert.Equal(t, 0, resp.ToolCallCount)
	assert.Equal(t, StateDone, resp.State)
}

func TestChat_SingleToolCallThenAnswer(t *testing.T) {
	retriever := &fakeRetriever{snippets: []RetrievedSnippet{{Content: "paris is the capital", Source: "geo.txt", Score: 0.9}}}
	llm := &scriptedLLM{turns: []ChatResult{
		{ToolCalls: []ToolCall{{ID: "call1", Name: searchKnowledgeBaseTool, Arguments: toolCallArgs("capital of france")}}},
		{Content: "The capital of France is Paris [geo.txt]."},
	}}
	orch := New(llm, retriever)

	resp, err := orch.Chat(context.Background(), Request{SessionID: "s2", Query: "capital of france?", KBID: "kb-1", CollectionName: "kb-1"})
	require.NoError(t, err)
	assert.Equal(t, "The capital of France is Paris [geo.txt].", resp.Answer)
	assert.Equal(t, 1, resp.ToolCallCount)
	assert.Equal(t, []string{"capital of france"}, retriever.queries)
}

func TestChat_ToolCallLimitReturnsBestEffort(t *testing.T) {
	retriever := &fakeRetriever{snippets: []RetrievedSnippet{{Content: "some fact"}}}
	turns := make([]ChatResult, 0, maxToolCallsPerTurn+1)
	for i := 0; i <= maxToolCallsPerTurn; i++ {
		turns = append(turns, ChatResult{ToolCalls: []ToolCall{{ID: "call", Name: searchKnowledgeBaseTool, Arguments: toolCallArgs("q")}}})
	}
	llm := &scriptedLLM{turns: turns}
	orch := New(llm, retriever)

	resp, err := orch.Chat(context.Background(), Request{SessionID: "s3", Query: "q", KBID: "kb-1", CollectionName: "kb-1"})
	require.NoError(t, err)
	assert.Equal(t, maxToolCallsPerTurn, resp.ToolCallCount)
	assert.NotEmpty(t, resp.Answer)
}

func TestChat_ToolFailureFeedsErrorObservationAndContinues(t *testing.T) {
	retriever := &fakeRetriever{err: assert.AnError}
	llm := &scriptedLLM{turns: []ChatResult{
		{ToolCalls: []ToolCall{{ID: "call1", Name: searchKnowledgeBaseTool, Arguments: toolCallArgs("q")}}},
		{Content: "I could not retrieve information, but here is my best guess."},
	}}
	orch := New(llm, retriever)

	resp, err := orch.Chat(context.Background(), Request{SessionID: "s4", Query: "q", KBID: "kb-1", CollectionName: "kb-1"})
	require.NoError(t, err)
	assert.Equal(t, "I could not retrieve information, but here is my best guess.", resp.Answer)
}

func TestChat_RejectsOverlappingCallsForSameSession(t *testing.T) {
	llm := &scriptedLLM{turns: []ChatResult{{Content: "ok"}}}
	orch := New(llm, nil)
	require.True(t, orch.sessions.tryLock("busy"))
	defer orch.sessions.unlock("busy")

	_, err := orch.Chat(context.Background(), Request{SessionID: "busy", Query: "q"})
	require.Error(t, err)
}

func TestChat_RequiresSessionID(t *testing.T) {
	llm := &scriptedLLM{turns: []ChatResult{{Content: "ok"}}}
	orch := New(llm, nil)

	_, err := orch.Chat(context.Background(), Request{Query: "q"})
	require.Error(t, err)
}

func TestTrimHistory_KeepsOnlyLastN(t *testing.T) {
	history := make([]Message, 30)
	for i := range history {
		history[i] = Message{Role: "user", Content: "m"}
	}
	trimmed := trimHistory(history, 20)
	assert.Len(t, trimmed, 20)
}

func TestTrimHistory_ShorterThanLimitIsUnchanged(t *testing.T) {
	history := []Message{{Role: "user", Content: "hi"}}
	assert.Equal(t, history, trimHistory(history, 20))
}
