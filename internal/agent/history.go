package agent

import (
	"github.com/pkoukk/tiktoken-go"
	"github.com/sashabaranov/go-openai"
)

// Message is one turn of conversation history, supplied by the caller and
// carried across chat() calls however they persist it (SPEC_FULL.md leaves
// persistence to the caller; C9 only trims and feeds it to the LLM).
type Message struct {
	Role    string
	Content string
}

// defaultHistoryLimit is N in §4.9's "the last N messages of history
// (default N=20)".
const defaultHistoryLimit = 20

// trimHistory keeps at most the last limit messages (0 means the default),
// counting tokens with tiktoken-go only to size a debug log line — the
// bound itself is message-count based per §4.9, not token based.
func trimHistory(history []Message, limit int) []Message {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if len(history) <= limit {
		return history
	}
	return history[len(history)-limit:]
}

// countTokens estimates the token cost of messages using cl100k_base,
// matching the chunker's own tiktoken-go usage (internal/chunker).
func countTokens(messages []Message) int {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return 0
	}
	total := 0
	for _, m := range messages {
		total += len(enc.Encode(m.Content, nil, nil))
	}
	return total
}

func toChatMessages(systemPrompt string, history []Message, userQuery string) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemPrompt})
	}
	for _, m := range history {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: userQuery})
	return messages
}
