package httpapi

import (
	"context"

	"github.com/gin-gonic/gin"

	"ragcore/internal/agent"
	"ragcore/internal/embedding"
	"ragcore/internal/pkg/response"
)

// vectorPinger is declared here rather than imported from
// internal/pkg/milvus, the same consumer-declares-the-interface pattern
// internal/kb uses for its Retriever — *milvus.Client satisfies this
// structurally via its existing Ping method, no adapter required.
type vectorPinger interface {
	Ping(ctx context.Context) error
}

// HealthService reports liveness of the three backing services the teacher's
// own health endpoint never had to think about (it had none of this
// pipeline) — LLM reachability via C9's model, vector-store reachability
// via C2's underlying Milvus connection, and embedding reachability via C1.
type HealthService struct {
	llm    agent.LLM
	embed  embedding.Client
	vector vectorPinger
}

func NewHealthService(llm agent.LLM, embed embedding.Client, vector vectorPinger) *HealthService {
	return &HealthService{llm: llm, embed: embed, vector: vector}
}

func (s *HealthService) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/health", s.Health)
}

func (s *HealthService) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	components := map[string]string{
		"llm":         statusOf(s.llm.CheckAvailable(ctx)),
		"vectorstore": statusOf(s.vector.Ping(ctx) == nil),
		"embedding":   statusOf(s.embed.CheckAvailable(ctx)),
	}

	overall := "ok"
	for _, v := range components {
		if v != "ok" {
			overall = "degraded"
			break
		}
	}

	response.Success(c, HealthResponse{Status: overall, Components: components})
}

func statusOf(ok bool) string {
	if ok {
		return "ok"
	}
	return "unavailable"
}
