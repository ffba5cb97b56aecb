// Package kb implements C6 (metadata store) and C7 (knowledge base
// manager), adapted from the teacher's internal/knowledge/models and
// internal/knowledge/repository packages — flattened-column GORM models
// and a repository-interface-plus-struct pattern — but with a
// string UUID primary key instead of Postgres's gen_random_uuid(), since
// the backing store is now SQLite (see internal/pkg/database).
package kb

import (
	"time"

	"github.com/google/uuid"
)

// FileStatus mirrors the teacher's types/status.go DocumentStatus enum,
// extended with the parsing/persisting intermediate states §3 requires.
type FileStatus string

const (
	FileStatusPending    FileStatus = "pending"
	FileStatusParsing    FileStatus = "parsing"
	FileStatusPersisting FileStatus = "persisting"
	FileStatusCompleted  FileStatus = "completed"
	FileStatusFailed     FileStatus = "failed"
)

func (s FileStatus) Valid() bool {
	switch s {
	case FileStatusPending, FileStatusParsing, FileStatusPersisting, FileStatusCompleted, FileStatusFailed:
		return true
	}
	return false
}

// ChunkConfig is KB.chunk_config per §3, flattened into KB's own columns
// the way the teacher flattens KnowledgeBase.ChunkSize/ChunkOverlap/
// ChunkStrategy rather than nesting a JSON blob.
type ChunkConfig struct {
	Size                    int    `gorm:"column:chunk_size" json:"size"`
	Overlap                 int    `gorm:"column:chunk_overlap" json:"overlap"`
	ChineseAware            bool   `gorm:"column:chunk_chinese_aware" json:"chinese_aware"`
	RespectSentenceBoundary bool   `gorm:"column:chunk_respect_sentence_boundary" json:"respect_sentence_boundary"`
	Encoding                string `gorm:"column:chunk_encoding" json:"encoding"`
}

// RetrievalConfig is KB.retrieval_config per §3 and §4.8, flattened onto
// KB the same way ChunkConfig is.
type RetrievalConfig struct {
	Mode           string  `gorm:"column:retrieval_mode" json:"mode"` // vector | keyword | hybrid | adaptive
	TopK           int     `gorm:"column:retrieval_top_k" json:"top_k"`
	ScoreThreshold float32 `gorm:"column:retrieval_score_threshold" json:"score_threshold"`

	HybridSearch  bool    `gorm:"column:retrieval_hybrid_search" json:"hybrid_search"`
	HybridFusion  string  `gorm:"column:retrieval_hybrid_fusion" json:"hybrid_fusion"` // weighted | rrf
	VectorWeight  float32 `gorm:"column:retrieval_vector_weight" json:"vector_weight"`
	KeywordWeight float32 `gorm:"column:retrieval_keyword_weight" json:"keyword_weight"`
	RRFK          int     `gorm:"column:retrieval_rrf_k" json:"rrf_k"`

	RerankEnabled bool `gorm:"column:retrieval_rerank_enabled" json:"rerank_enabled"`

	AdaptiveEnabled         bool    `gorm:"column:retrieval_adaptive_enabled" json:"adaptive_enabled"`
	AdaptiveTargetResults   int     `gorm:"column:retrieval_adaptive_target_results" json:"adaptive_target_results"`
	AdaptiveMinThreshold    float32 `gorm:"column:retrieval_adaptive_min_threshold" json:"adaptive_min_threshold"`
	AdaptiveReductionFactor float32 `gorm:"column:retrieval_adaptive_reduction_factor" json:"adaptive_reduction_factor"`
	AdaptiveMaxAttempts     int     `gorm:"column:retrieval_adaptive_max_attempts" json:"adaptive_max_attempts"`
}

// KB is the knowledge base metadata record, per §3's field list.
type KB struct {
	ID         string `gorm:"type:varchar(36);primaryKey"`
	Name       string `gorm:"type:varchar(255);uniqueIndex;not null"`
	Description string `gorm:"type:text"`

	EmbeddingModel     string `gorm:"type:varchar(100);not null"`
	EmbeddingDimension int    `gorm:"not null"`

	ChunkConfig     `gorm:"embedded"`
	RetrievalConfig `gorm:"embedded"`

	CollectionName string `gorm:"type:varchar(255);uniqueIndex;not null"`

	DocumentCount int `gorm:"default:0"`
	ChunkCount    int `gorm:"default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time `gorm:"index"`
}

func (KB) TableName() string { return "knowledge_bases" }

// NewKB builds a KB with a fresh ID and the chunk/retrieval defaults
// SPEC_FULL.md §3 calls out, ready for caller overrides.
func NewKB(name, description, embeddingModel string, embeddingDimension int) *KB {
	id := uuid.NewString()
	return &KB{
		ID:                 id,
		Name:               name,
		Description:        description,
		EmbeddingModel:     embeddingModel,
		EmbeddingDimension: embeddingDimension,
		ChunkConfig: ChunkConfig{
			Size:                    1000,
			Overlap:                 200,
			ChineseAware:            false,
			RespectSentenceBoundary: true,
			Encoding:                "cl100k_base",
		},
		RetrievalConfig: RetrievalConfig{
			Mode:                    "vector",
			TopK:                    5,
			ScoreThreshold:          0,
			HybridSearch:            false,
			HybridFusion:            "weighted",
			VectorWeight:            0.5,
			KeywordWeight:           0.5,
			RRFK:                    60,
			RerankEnabled:           false,
			AdaptiveEnabled:         false,
			AdaptiveTargetResults:   5,
			AdaptiveMinThreshold:    0.1,
			AdaptiveReductionFactor: 0.7,
			AdaptiveMaxAttempts:     4,
		},
		CollectionName: "kb_" + id,
	}
}

// FileEntity is one uploaded file belonging to a KB, per §3's field list.
type FileEntity struct {
	ID     string `gorm:"type:varchar(36);primaryKey"`
	KBID   string `gorm:"type:varchar(36);index;not null"`
	Path   string `gorm:"type:text;not null"`
	Name   string `gorm:"type:varchar(255);not null"`
	SizeBytes   int64      `gorm:"column:size_bytes"`
	ContentType string     `gorm:"type:varchar(100)"`
	Status      FileStatus `gorm:"type:varchar(20);not null;default:pending"`
	ChunkCount  int        `gorm:"default:0"`
	FailedReason string    `gorm:"type:text"`
	MTime       time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time `gorm:"index"`
}

func (FileEntity) TableName() string { return "kb_files" }
