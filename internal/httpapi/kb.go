package httpapi

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ragcore/internal/kb"
	apperrors "ragcore/internal/pkg/errors"
	"ragcore/internal/pkg/logger"
	"ragcore/internal/pkg/response"
)

// KnowledgeBaseService exposes C7 over HTTP, grounded on the teacher's
// KnowledgeBaseService (internal/knowledge/service/knowledge.go).
type KnowledgeBaseService struct {
	manager         *kb.Manager
	uploadDir       string
	maxQueryLength  int
	maxFileSizeBytes int64
	log             *logger.Logger
}

func NewKnowledgeBaseService(manager *kb.Manager, uploadDir string, maxQueryLength int, maxFileSizeBytes int64, log *logger.Logger) *KnowledgeBaseService {
	return &KnowledgeBaseService{
		manager:          manager,
		uploadDir:        uploadDir,
		maxQueryLength:   maxQueryLength,
		maxFileSizeBytes: maxFileSizeBytes,
		log:              log,
	}
}

func (s *KnowledgeBaseService) RegisterRoutes(r *gin.RouterGroup) {
	kbs := r.Group("/knowledge-bases")
	{
		kbs.POST("", s.Create)
		kbs.GET("", s.List)
		kbs.GET("/:id", s.Get)
		kbs.PUT("/:id", s.Update)
		kbs.DELETE("/:id", s.Delete)
		kbs.GET("/:id/files", s.ListFiles)
		kbs.POST("/:id/files", s.UploadFile)
		kbs.DELETE("/:id/files/:fid", s.DeleteFile)
		kbs.POST("/:id/query", s.Query)
	}
}

func (s *KnowledgeBaseService) Create(c *gin.Context) {
	var req CreateKnowledgeBaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	k, err := s.manager.CreateKB(c.Request.Context(), req.toSpec())
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Created(c, toKBResponse(k))
}

func (s *KnowledgeBaseService) List(c *gin.Context) {
	page, size := pagingParams(c)

	items, total, err := s.manager.ListKBs(c.Request.Context(), page, size)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	resp := make([]*KnowledgeBaseResponse, len(items))
	for i, k := range items {
		resp[i] = toKBResponse(k)
	}

	response.Success(c, gin.H{
		"items": resp,
		"total": total,
		"pages": int(math.Ceil(float64(total) / float64(size))),
	})
}

func (s *KnowledgeBaseService) Get(c *gin.Context) {
	k, err := s.manager.GetKB(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, toKBResponse(k))
}

func (s *KnowledgeBaseService) Update(c *gin.Context) {
	id := c.Param("id")
	var req UpdateKnowledgeBaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	current, err := s.manager.GetKB(c.Request.Context(), id)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	k, err := s.manager.UpdateKB(c.Request.Context(), id, req.toPatch(current))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, toKBResponse(k))
}

func (s *KnowledgeBaseService) Delete(c *gin.Context) {
	if err := s.manager.DeleteKB(c.Request.Context(), c.Param("id")); err != nil {
		response.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *KnowledgeBaseService) Query(c *gin.Context) {
	kbID := c.Param("id")

	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if s.maxQueryLength > 0 && len(req.Query) > s.maxQueryLength {
		response.HandleError(c, apperrors.New(apperrors.ErrQueryTooLong, "query exceeds max length"))
		return
	}

	var overrides *kb.RetrievalConfig
	if req.TopK > 0 || req.SimilarityThreshold != nil {
		overrides = &kb.RetrievalConfig{TopK: req.TopK}
		if req.SimilarityThreshold != nil {
			overrides.ScoreThreshold = *req.SimilarityThreshold
		}
	}

	hits, err := s.manager.Query(c.Request.Context(), kbID, req.Query, overrides)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, toQueryHitResponses(hits))
}

// pagingParams reads page/size query params, defaulting the way the
// teacher's ListKnowledgeBases handler does (page=1, size=20).
func pagingParams(c *gin.Context) (int, int) {
	page := 1
	size := 20
	if v := c.Query("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := c.Query("size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			size = n
		}
	}
	return page, size
}
