package kb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"ragcore/internal/chunker"
	"ragcore/internal/ingestion"
	apperrors "ragcore/internal/pkg/errors"
	"ragcore/internal/pkg/logger"
	"ragcore/internal/pkg/workerpool"
	"ragcore/internal/vectorstore"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateSpec is the input to Manager.CreateKB, per §3/§4.7.
type CreateSpec struct {
	Name               string
	Description        string
	EmbeddingModel     string
	EmbeddingDimension int
	ChunkConfig        ChunkConfig
	RetrievalConfig    RetrievalConfig
}

// UpdatePatch is the input to Manager.UpdateKB. embedding_model and
// embedding_dimension are intentionally absent: I2 forbids mutating them
// after creation.
type UpdatePatch struct {
	Description     *string
	ChunkConfig      *ChunkConfig
	RetrievalConfig  *RetrievalConfig
}

// RetrievalHit is C8's result shape, declared here rather than imported
// from a retrieval package so kb has no compile-time dependency on C8 —
// the manager is wired to a Retriever at construction, mirroring how C9's
// knowledge_adapter binds to C8 by name rather than by import (§4.9).
type RetrievalHit struct {
	Score      float32
	Content    string
	Source     string
	Metadata   map[string]interface{}
}

// Retriever is the slice of C8 the manager's Query operation needs.
type Retriever interface {
	Search(ctx context.Context, collectionName, query string, cfg RetrievalConfig) ([]RetrievalHit, error)
}

// Manager is C7: high-level KB lifecycle operations composing C2 (vector
// store), C5 (ingestion pipeline), and C6 (metadata store), grounded on
// the teacher's service-layer composition style (construct once with its
// dependencies, expose one method per use case).
type Manager struct {
	store     Store
	vectors   vectorstore.Store
	pipeline  *ingestion.Pipeline
	pool      *workerpool.Pool
	retriever Retriever
	log       *logger.Logger
}

// Option configures a Manager at construction.
type Option func(*Manager)

func WithRetriever(r Retriever) Option {
	return func(m *Manager) { m.retriever = r }
}

func WithLogger(l *logger.Logger) Option {
	return func(m *Manager) { m.log = l }
}

func NewManager(store Store, vectors vectorstore.Store, pipeline *ingestion.Pipeline, pool *workerpool.Pool, opts ...Option) *Manager {
	m := &Manager{store: store, vectors: vectors, pipeline: pipeline, pool: pool, log: logger.L()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateKB allocates an id, validates, writes the record (C6), then
// ensures the collection (C2); a collection-creation failure rolls the
// record back, per §4.7.
func (m *Manager) CreateKB(ctx context.Context, spec CreateSpec) (*KB, error) {
	if spec.Name == "" {
		return nil, apperrors.New(apperrors.ErrKBInvalidParams, "name is required")
	}
	if spec.EmbeddingModel == "" || spec.EmbeddingDimension <= 0 {
		return nil, apperrors.New(apperrors.ErrKBInvalidParams, "embedding_model and embedding_dimension are required")
	}
	if spec.ChunkConfig.Size > 0 {
		if spec.ChunkConfig.Overlap < 0 || spec.ChunkConfig.Overlap >= spec.ChunkConfig.Size {
			return nil, apperrors.New(apperrors.ErrKBInvalidParams, "chunk_overlap must be >= 0 and < chunk_size")
		}
	}

	k := NewKB(spec.Name, spec.Description, spec.EmbeddingModel, spec.EmbeddingDimension)
	if spec.ChunkConfig.Size > 0 {
		k.ChunkConfig = spec.ChunkConfig
	}
	if spec.RetrievalConfig.TopK > 0 {
		k.RetrievalConfig = spec.RetrievalConfig
	}

	if err := m.store.CreateKB(ctx, k); err != nil {
		return nil, err
	}

	if err := m.vectors.EnsureCollection(ctx, k.CollectionName, k.EmbeddingDimension); err != nil {
		if delErr := m.store.DeleteKB(ctx, k.ID); delErr != nil {
			m.log.Error("rollback after failed collection creation also failed",
				zap.String("kb_id", k.ID), zap.Error(delErr))
		}
		return nil, apperrors.Wrap(err, apperrors.ErrVectorStoreError, "ensure collection")
	}

	return k, nil
}

// DeleteKB deletes the collection (C2) first, then the record and its
// cascaded files (C6): a crash between the two steps leaves at most an
// orphan collection, never an orphan record, per §4.7.
func (m *Manager) DeleteKB(ctx context.Context, id string) error {
	k, err := m.store.GetKB(ctx, id)
	if err != nil {
		return err
	}

	if err := m.vectors.DeleteCollection(ctx, k.CollectionName); err != nil {
		return apperrors.Wrap(err, apperrors.ErrVectorStoreError, "delete collection")
	}
	if err := m.store.DeleteFilesByKB(ctx, id); err != nil {
		return err
	}
	return m.store.DeleteKB(ctx, id)
}

func (m *Manager) GetKB(ctx context.Context, id string) (*KB, error) {
	return m.store.GetKB(ctx, id)
}

func (m *Manager) ListKBs(ctx context.Context, page, size int) ([]*KB, int64, error) {
	return m.store.ListKBs(ctx, page, size)
}

// UpdateKB applies patch's mutable fields per §4.7 (embedding_model and
// embedding_dimension are not in UpdatePatch at all, enforcing I2 at the
// type level rather than with a runtime check).
func (m *Manager) UpdateKB(ctx context.Context, id string, patch UpdatePatch) (*KB, error) {
	k, err := m.store.GetKB(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Description != nil {
		k.Description = *patch.Description
	}
	if patch.ChunkConfig != nil {
		k.ChunkConfig = *patch.ChunkConfig
	}
	if patch.RetrievalConfig != nil {
		k.RetrievalConfig = *patch.RetrievalConfig
	}
	if err := m.store.UpdateKB(ctx, k); err != nil {
		return nil, err
	}
	return k, nil
}

// UploadFile creates a pending FileEntity then always enqueues onto the
// ingestion worker pool — upload_file never runs ingestion inline, per
// §4.5/§4.7.
func (m *Manager) UploadFile(ctx context.Context, kbID, path string) (*FileEntity, error) {
	k, err := m.store.GetKB(ctx, kbID)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrFileNotFound, path)
	}

	f := &FileEntity{
		ID:     uuid.NewString(),
		KBID:   k.ID,
		Path:   path,
		Name:   filepath.Base(path),
		SizeBytes: stat.Size(),
		Status: FileStatusPending,
	}
	if err := m.store.AddFile(ctx, f); err != nil {
		return nil, err
	}

	job := ingestion.Job{
		KBID:           k.ID,
		CollectionName: k.CollectionName,
		ChunkConfig: chunker.Config{
			Size:                    k.ChunkConfig.Size,
			Overlap:                 k.ChunkConfig.Overlap,
			ChineseAware:            k.ChunkConfig.ChineseAware,
			RespectSentenceBoundary: k.ChunkConfig.RespectSentenceBoundary,
			Encoding:                k.ChunkConfig.Encoding,
		},
		Files: []ingestion.FileRef{{ID: f.ID, Path: f.Path}},
	}

	if err := m.pool.Submit(func() {
		if _, err := m.pipeline.Ingest(context.Background(), job); err != nil {
			m.log.Error("ingestion job failed", zap.String("file_id", f.ID), zap.Error(err))
		}
	}); err != nil {
		return nil, fmt.Errorf("enqueue ingestion job: %w", err)
	}

	return f, nil
}

func (m *Manager) ListFiles(ctx context.Context, kbID string, status FileStatus, page, size int) ([]*FileEntity, int64, error) {
	return m.store.ListFiles(ctx, kbID, status, page, size)
}

func (m *Manager) DeleteFile(ctx context.Context, fileID string) error {
	return m.store.DeleteFile(ctx, fileID)
}

// Query dispatches to C8 using the KB's effective retrieval_config
// merged with overrides, per §4.7.
func (m *Manager) Query(ctx context.Context, kbID, q string, overrides *RetrievalConfig) ([]RetrievalHit, error) {
	if m.retriever == nil {
		return nil, apperrors.New(apperrors.ErrInternalServer, "no retriever configured")
	}
	k, err := m.store.GetKB(ctx, kbID)
	if err != nil {
		return nil, err
	}
	cfg := k.RetrievalConfig
	if overrides != nil {
		if overrides.TopK > 0 {
			cfg.TopK = overrides.TopK
		}
		if overrides.ScoreThreshold != 0 {
			cfg.ScoreThreshold = overrides.ScoreThreshold
		}
		// Booleans can only enable, never silently disable, a KB-configured
		// setting an override left at its zero value.
		if overrides.HybridSearch {
			cfg.HybridSearch = true
		}
		if overrides.RerankEnabled {
			cfg.RerankEnabled = true
		}
	}
	return m.retriever.Search(ctx, k.CollectionName, q, cfg)
}
