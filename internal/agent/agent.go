// Package agent implements C9: a tool-calling loop over an LLM that decides
// when to invoke C8 retrieval, with retry/backoff, per-session
// serialization, and a maximum tool-call bound per turn. Grounded on the
// teacher's internal/assistant/llm.DefaultOrchestrator (the message-
// building and knowledge-injection shape) and knowledge_adapter.go (binding
// the retrieval tool by name rather than by import), generalized from a
// multi-provider streaming fan-out into the single blocking tool-calling
// loop SPEC_FULL.md §4.9 describes.
package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"

	apperrors "ragcore/internal/pkg/errors"
	"ragcore/internal/pkg/logger"

	"go.uber.org/zap"
)

// maxToolCallsPerTurn is §4.9's bound on tool calls within one chat() call.
const maxToolCallsPerTurn = 5

const searchKnowledgeBaseTool = "search_knowledge_base"

const defaultSystemPrompt = `You are a retrieval-augmented assistant. When the user's question may be
answered by the knowledge base, call search_knowledge_base with a focused,
reformulated query. Answer using the retrieved snippets and cite the
source document for every claim drawn from them. If retrieval returns no
relevant snippets, say so plainly rather than guessing.`

// Retriever is the slice of C8 the orchestrator needs, bound by name at
// construction rather than imported — see knowledge_adapter.go's pattern
// in the teacher; here the adapter is KBAdapter (kb_adapter.go), a struct
// wrapping *kb.Manager.
type Retriever interface {
	Search(ctx context.Context, collectionName, query string, topK int) ([]RetrievedSnippet, error)
}

// RetrievedSnippet is what the retrieval tool hands back to the model,
// narrowed from kb.RetrievalHit to the fields worth citing.
type RetrievedSnippet struct {
	Content string  `json:"content"`
	Source  string  `json:"source"`
	Score   float32 `json:"score"`
}

// State is one point in §4.9's state machine.
type State string

const (
	StateIdle         State = "IDLE"
	StatePlanning     State = "PLANNING"
	StateToolCall     State = "TOOL_CALL"
	StateObserving    State = "OBSERVING"
	StateSynthesizing State = "SYNTHESIZING"
	StateErrorRecovery State = "ERROR_RECOVERY"
	StateDone         State = "DONE"
)

// FlowRecorder is C10's write side, consumed here so every LLM call and
// tool invocation is logged without the agent package depending on how
// events are stored or queued.
type FlowRecorder interface {
	Record(ctx context.Context, sessionID string, eventType, status string, detail map[string]interface{})
}

type noopRecorder struct{}

func (noopRecorder) Record(ctx context.Context, sessionID string, eventType, status string, detail map[string]interface{}) {
}

// Request is one chat() call's input.
type Request struct {
	SessionID      string
	Query          string
	History        []Message
	KBID           string // empty means no retrieval tool is offered
	CollectionName string // resolved by the caller from KBID, passed through to Retriever
	TopK           int
}

// Response is chat()'s output.
type Response struct {
	Answer        string
	ToolCallCount int
	State         State
}

// Orchestrator is C9.
type Orchestrator struct {
	llm          LLM
	retriever    Retriever
	recorder     FlowRecorder
	systemPrompt string
	historyLimit int
	sessions     sessionLocks
	log          *logger.Logger
}

type Option func(*Orchestrator)

func WithSystemPrompt(prompt string) Option { return func(o *Orchestrator) { o.systemPrompt = prompt } }
func WithHistoryLimit(n int) Option         { return func(o *Orchestrator) { o.historyLimit = n } }
func WithFlowRecorder(r FlowRecorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}
func WithLogger(l *logger.Logger) Option { return func(o *Orchestrator) { o.log = l } }

func New(llm LLM, retriever Retriever, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		llm:          llm,
		retriever:    retriever,
		recorder:     noopRecorder{},
		systemPrompt: defaultSystemPrompt,
		historyLimit: defaultHistoryLimit,
		log:          logger.L(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Chat runs the PLANNING → (TOOL_CALL → OBSERVING)* → SYNTHESIZING state
// machine of §4.9. Two overlapping calls for the same session fail fast
// with ErrSessionConflict rather than queueing, per §5's ordering guarantee.
func (o *Orchestrator) Chat(ctx context.Context, req Request) (*Response, error) {
	if req.SessionID == "" {
		return nil, apperrors.New(apperrors.ErrKBInvalidParams, "session_id is required")
	}
	if !o.sessions.tryLock(req.SessionID) {
		return nil, apperrors.New(apperrors.ErrSessionConflict)
	}
	defer o.sessions.unlock(req.SessionID)

	o.recorder.Record(ctx, req.SessionID, "QUERY_START", "SUCCESS", map[string]interface{}{"query": req.Query, "kb_id": req.KBID})

	topK := req.TopK
	if topK <= 0 {
		topK = 5
	}

	history := trimHistory(req.History, o.historyLimit)
	o.log.Debug("history trimmed", zap.String("session_id", req.SessionID),
		zap.Int("kept_messages", len(history)), zap.Int("approx_tokens", countTokens(history)))
	messages := toChatMessages(o.systemPrompt, history, req.Query)

	var tools []openai.Tool
	if req.KBID != "" && o.retriever != nil {
		tools = []openai.Tool{searchTool()}
	}

	state := StatePlanning
	var lastObservation string
	toolCalls := 0

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		o.recorder.Record(ctx, req.SessionID, "LLM_CALL", "IN_PROGRESS", nil)
		result, err := o.llm.Chat(ctx, messages, tools)
		if err != nil {
			o.recorder.Record(ctx, req.SessionID, "LLM_CALL", "ERROR", map[string]interface{}{"error": err.Error()})
			return nil, apperrors.Wrap(err, apperrors.ErrLLMError)
		}
		o.recorder.Record(ctx, req.SessionID, "LLM_CALL", "SUCCESS", map[string]interface{}{"tool_calls": len(result.ToolCalls)})

		if len(result.ToolCalls) == 0 {
			state = StateDone
			o.recorder.Record(ctx, req.SessionID, "QUERY_COMPLETE", "SUCCESS", map[string]interface{}{"tool_call_count": toolCalls})
			return &Response{Answer: result.Content, ToolCallCount: toolCalls, State: state}, nil
		}

		if toolCalls >= maxToolCallsPerTurn {
			o.log.Warn("tool call limit reached, returning best-effort answer",
				zap.String("session_id", req.SessionID), zap.Int("limit", maxToolCallsPerTurn))
			o.recorder.Record(ctx, req.SessionID, "QUERY_COMPLETE", "SUCCESS", map[string]interface{}{"tool_call_limit_reached": true})
			return &Response{Answer: bestEffortAnswer(result.Content, lastObservation), ToolCallCount: toolCalls, State: StateDone}, nil
		}

		state = StateToolCall
		assistantMsg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: result.Content}
		for _, tc := range result.ToolCalls {
			assistantMsg.ToolCalls = append(assistantMsg.ToolCalls, openai.ToolCall{
				ID: tc.ID, Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{Name: tc.Name, Arguments: tc.Arguments},
			})
		}
		messages = append(messages, assistantMsg)

		for _, tc := range result.ToolCalls {
			toolCalls++
			observation, err := o.runTool(ctx, req, tc)
			state = StateObserving
			if err != nil {
				o.log.Warn("tool call failed", zap.String("tool", tc.Name), zap.Error(err))
				observation = fmt.Sprintf(`{"error": %q}`, err.Error())
			}
			lastObservation = observation
			messages = append(messages, openai.ChatCompletionMessage{
				Role: openai.ChatMessageRoleTool, ToolCallID: tc.ID, Content: observation,
			})
			if toolCalls >= maxToolCallsPerTurn {
				break
			}
		}
		state = StateSynthesizing
	}
}

func (o *Orchestrator) runTool(ctx context.Context, req Request, tc ToolCall) (string, error) {
	if tc.Name != searchKnowledgeBaseTool {
		return "", fmt.Errorf("agent: unknown tool %q", tc.Name)
	}

	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
		return "", fmt.Errorf("agent: parse tool arguments: %w", err)
	}

	o.recorder.Record(ctx, req.SessionID, "TOOL_SELECTION", "SUCCESS", map[string]interface{}{"tool": tc.Name, "query": args.Query})
	o.recorder.Record(ctx, req.SessionID, "TOOL_EXECUTION", "IN_PROGRESS", nil)

	snippets, err := o.retriever.Search(ctx, req.CollectionName, args.Query, req.TopK)
	if err != nil {
		o.recorder.Record(ctx, req.SessionID, "TOOL_EXECUTION", "ERROR", map[string]interface{}{"error": err.Error()})
		return "", err
	}
	o.recorder.Record(ctx, req.SessionID, "TOOL_EXECUTION", "SUCCESS", map[string]interface{}{"result_count": len(snippets)})

	payload, err := json.Marshal(snippets)
	if err != nil {
		return "", fmt.Errorf("agent: marshal tool result: %w", err)
	}
	return string(payload), nil
}

func searchTool() openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        searchKnowledgeBaseTool,
			Description: "Search the bound knowledge base for snippets relevant to a focused query.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "A focused, possibly reformulated search query.",
					},
				},
				"required": []string{"query"},
			},
		},
	}
}

// bestEffortAnswer is the ERROR_RECOVERY path's output when the tool-call
// bound is exhausted before the model settles on a direct answer: prefer
// whatever text the model last produced, falling back to the last
// observation so the caller gets something rather than an empty string.
func bestEffortAnswer(lastContent, lastObservation string) string {
	if lastContent != "" {
		return lastContent
	}
	if lastObservation != "" {
		return "Based on the available information: " + lastObservation
	}
	return "I was unable to find a conclusive answer within the allotted tool calls."
}
