package httpapi

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ragcore/internal/agent"
	"ragcore/internal/pkg/logger"
	"ragcore/internal/pkg/response"
)

// ChatService exposes C9 over HTTP.
type ChatService struct {
	orchestrator *agent.Orchestrator
	log          *logger.Logger
}

func NewChatService(orchestrator *agent.Orchestrator, log *logger.Logger) *ChatService {
	return &ChatService{orchestrator: orchestrator, log: log}
}

func (s *ChatService) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/chat", s.Chat)
}

// Chat handles POST /chat. Each HTTP call is its own session unless the
// caller threads history itself — the orchestrator has no server-side
// session store (§3: "session lifetime is caller-controlled").
func (s *ChatService) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	history := make([]agent.Message, len(req.History))
	for i, m := range req.History {
		history[i] = agent.Message{Role: m.Role, Content: m.Content}
	}

	result, err := s.orchestrator.Chat(c.Request.Context(), agent.Request{
		SessionID:      uuid.NewString(),
		Query:          req.Query,
		History:        history,
		KBID:           req.KBID,
		CollectionName: req.KBID,
	})
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, ChatResponse{Answer: result.Answer})
}
