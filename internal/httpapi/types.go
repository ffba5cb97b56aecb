// Package httpapi is the REST surface over C7 (KB manager) and C9 (agent
// orchestrator), grounded on the teacher's internal/knowledge/service
// package: one *Service struct per resource, a RegisterRoutes(r
// *gin.RouterGroup) method, gin handlers that bind a request DTO, call the
// domain layer, and translate the result through internal/pkg/response.
package httpapi

import "ragcore/internal/kb"

// Pagination is the paged-list envelope every list endpoint returns.
type Pagination struct {
	Page  int   `json:"page"`
	Size  int   `json:"size"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// KnowledgeBaseResponse is the wire shape of a kb.KB.
type KnowledgeBaseResponse struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	Description        string             `json:"description"`
	EmbeddingModel     string             `json:"embedding_model"`
	EmbeddingDimension int                `json:"embedding_dimension"`
	ChunkConfig        kb.ChunkConfig     `json:"chunk_config"`
	RetrievalConfig    kb.RetrievalConfig `json:"retrieval_config"`
	CollectionName     string             `json:"collection_name"`
	DocumentCount      int                `json:"document_count"`
	ChunkCount         int                `json:"chunk_count"`
	CreatedAt          string             `json:"created_at"`
	UpdatedAt          string             `json:"updated_at"`
}

const timeFormat = "2006-01-02T15:04:05Z07:00"

func toKBResponse(k *kb.KB) *KnowledgeBaseResponse {
	return &KnowledgeBaseResponse{
		ID:                 k.ID,
		Name:               k.Name,
		Description:        k.Description,
		EmbeddingModel:     k.EmbeddingModel,
		EmbeddingDimension: k.EmbeddingDimension,
		ChunkConfig:        k.ChunkConfig,
		RetrievalConfig:    k.RetrievalConfig,
		CollectionName:     k.CollectionName,
		DocumentCount:      k.DocumentCount,
		ChunkCount:         k.ChunkCount,
		CreatedAt:          k.CreatedAt.Format(timeFormat),
		UpdatedAt:          k.UpdatedAt.Format(timeFormat),
	}
}

// CreateKnowledgeBaseRequest is POST /knowledge-bases's body.
type CreateKnowledgeBaseRequest struct {
	Name               string `json:"name" binding:"required,min=2,max=100"`
	Description        string `json:"description" binding:"max=500"`
	EmbeddingModel     string `json:"embedding_model" binding:"required"`
	EmbeddingDimension int    `json:"embedding_dimension" binding:"required,min=1"`

	ChunkSize               int  `json:"chunk_size"`
	ChunkOverlap            int  `json:"chunk_overlap"`
	RespectSentenceBoundary bool `json:"respect_sentence_boundary"`
	ChineseAware            bool `json:"chinese_aware"`

	RetrievalMode        string  `json:"retrieval_mode"`
	TopK                 int     `json:"top_k"`
	SimilarityThreshold  float32 `json:"similarity_threshold"`
	HybridSearch         bool    `json:"hybrid_search"`
	RerankEnabled        bool    `json:"rerank_enabled"`
}

func (r *CreateKnowledgeBaseRequest) toSpec() kb.CreateSpec {
	spec := kb.CreateSpec{
		Name:               r.Name,
		Description:        r.Description,
		EmbeddingModel:     r.EmbeddingModel,
		EmbeddingDimension: r.EmbeddingDimension,
	}
	if r.ChunkSize > 0 {
		spec.ChunkConfig = kb.ChunkConfig{
			Size:                    r.ChunkSize,
			Overlap:                 r.ChunkOverlap,
			RespectSentenceBoundary: r.RespectSentenceBoundary,
			ChineseAware:            r.ChineseAware,
			Encoding:                "cl100k_base",
		}
	}
	if r.TopK > 0 {
		mode := r.RetrievalMode
		if mode == "" {
			mode = "vector"
		}
		spec.RetrievalConfig = kb.RetrievalConfig{
			Mode:           mode,
			TopK:           r.TopK,
			ScoreThreshold: r.SimilarityThreshold,
			HybridSearch:   r.HybridSearch,
			RerankEnabled:  r.RerankEnabled,
		}
	}
	return spec
}

// UpdateKnowledgeBaseRequest is PUT /knowledge-bases/{id}'s body. Pointer
// fields distinguish "absent" from "zero value" so a partial patch never
// clobbers unrelated settings; embedding_model/embedding_dimension are
// absent entirely, matching kb.UpdatePatch's enforcement of I2.
type UpdateKnowledgeBaseRequest struct {
	Description         *string  `json:"description"`
	ChunkSize            *int     `json:"chunk_size"`
	ChunkOverlap         *int     `json:"chunk_overlap"`
	TopK                 *int     `json:"top_k"`
	SimilarityThreshold  *float32 `json:"similarity_threshold"`
	HybridSearch         *bool    `json:"hybrid_search"`
	RerankEnabled        *bool    `json:"rerank_enabled"`
}

func (r *UpdateKnowledgeBaseRequest) toPatch(current *kb.KB) kb.UpdatePatch {
	patch := kb.UpdatePatch{Description: r.Description}

	cc := current.ChunkConfig
	if r.ChunkSize != nil {
		cc.Size = *r.ChunkSize
	}
	if r.ChunkOverlap != nil {
		cc.Overlap = *r.ChunkOverlap
	}
	if r.ChunkSize != nil || r.ChunkOverlap != nil {
		patch.ChunkConfig = &cc
	}

	rc := current.RetrievalConfig
	changed := false
	if r.TopK != nil {
		rc.TopK = *r.TopK
		changed = true
	}
	if r.SimilarityThreshold != nil {
		rc.ScoreThreshold = *r.SimilarityThreshold
		changed = true
	}
	if r.HybridSearch != nil {
		rc.HybridSearch = *r.HybridSearch
		changed = true
	}
	if r.RerankEnabled != nil {
		rc.RerankEnabled = *r.RerankEnabled
		changed = true
	}
	if changed {
		patch.RetrievalConfig = &rc
	}
	return patch
}

// FileResponse is the wire shape of a kb.FileEntity.
type FileResponse struct {
	ID           string `json:"id"`
	KBID         string `json:"kb_id"`
	FileName     string `json:"file_name"`
	FilePath     string `json:"file_path"`
	FileSize     int64  `json:"file_size"`
	ContentType  string `json:"content_type"`
	Status       string `json:"status"`
	ChunkCount   int    `json:"chunk_count"`
	FailedReason string `json:"failed_reason,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

func toFileResponse(f *kb.FileEntity) *FileResponse {
	return &FileResponse{
		ID:           f.ID,
		KBID:         f.KBID,
		FileName:     f.Name,
		FilePath:     f.Path,
		FileSize:     f.SizeBytes,
		ContentType:  f.ContentType,
		Status:       string(f.Status),
		ChunkCount:   f.ChunkCount,
		FailedReason: f.FailedReason,
		CreatedAt:    f.CreatedAt.Format(timeFormat),
		UpdatedAt:    f.UpdatedAt.Format(timeFormat),
	}
}

// QueryRequest is POST /knowledge-bases/{id}/query's body.
type QueryRequest struct {
	Query               string   `json:"query" binding:"required"`
	TopK                int      `json:"top_k"`
	SimilarityThreshold *float32 `json:"similarity_threshold"`
}

// QueryHitResponse is one element of the query endpoint's result array.
type QueryHitResponse struct {
	Score    float32                `json:"score"`
	Content  string                 `json:"content"`
	Source   string                 `json:"source"`
	Metadata map[string]interface{} `json:"metadata"`
}

func toQueryHitResponses(hits []kb.RetrievalHit) []QueryHitResponse {
	out := make([]QueryHitResponse, len(hits))
	for i, h := range hits {
		out[i] = QueryHitResponse{Score: h.Score, Content: h.Content, Source: h.Source, Metadata: h.Metadata}
	}
	return out
}

// ChatMessage is one turn of history in a ChatRequest.
type ChatMessage struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// ChatRequest is POST /chat's body.
type ChatRequest struct {
	Query   string        `json:"query" binding:"required"`
	History []ChatMessage `json:"history"`
	KBID    string        `json:"kb_id"`
}

// ChatResponse is POST /chat's result.
type ChatResponse struct {
	Answer string `json:"answer"`
}

// HealthResponse is GET /health's result.
type HealthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}
