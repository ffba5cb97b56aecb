package kb

import (
	"context"
	"fmt"
	"time"

	"ragcore/internal/ingestion"
	"ragcore/internal/pkg/database"
	apperrors "ragcore/internal/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store is C6: the GORM-backed metadata store, grounded on the teacher's
// repository-interface-plus-struct pattern (chunk_repository.go) but
// covering KBs and files rather than chunks, since chunk rows themselves
// live only in the vector store's payload (§3: "chunks are not persisted
// relationally").
type Store interface {
	Migrate(ctx context.Context) error

	CreateKB(ctx context.Context, k *KB) error
	GetKB(ctx context.Context, id string) (*KB, error)
	GetKBByName(ctx context.Context, name string) (*KB, error)
	ListKBs(ctx context.Context, page, size int) ([]*KB, int64, error)
	UpdateKB(ctx context.Context, k *KB) error
	DeleteKB(ctx context.Context, id string) error

	AddFile(ctx context.Context, f *FileEntity) error
	GetFile(ctx context.Context, id string) (*FileEntity, error)
	ListFiles(ctx context.Context, kbID string, status FileStatus, page, size int) ([]*FileEntity, int64, error)
	DeleteFile(ctx context.Context, id string) error
	DeleteFilesByKB(ctx context.Context, kbID string) error

	// The remaining methods satisfy ingestion.Tracker, letting the
	// manager hand the store straight to the ingestion pipeline without
	// an adapter type.
	ingestion.Tracker
}

type store struct {
	db *database.DB
}

func NewStore(db *database.DB) Store {
	return &store{db: db}
}

func (s *store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&KB{}, &FileEntity{})
}

func (s *store) CreateKB(ctx context.Context, k *KB) error {
	if k.ID == "" {
		k.ID = uuid.NewString()
	}
	if k.Name == "" {
		return apperrors.New(apperrors.ErrKBInvalidParams, "name is required")
	}
	if err := s.db.WithContext(ctx).Create(k).Error; err != nil {
		if database.IsDuplicateKeyError(err) {
			return apperrors.Wrap(err, apperrors.ErrKBNameConflict, k.Name)
		}
		return apperrors.Wrap(err, apperrors.ErrInternalServer, "create knowledge base")
	}
	return nil
}

func (s *store) GetKB(ctx context.Context, id string) (*KB, error) {
	var k KB
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&k).Error; err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, apperrors.New(apperrors.ErrKBNotFound, id)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer, "get knowledge base")
	}
	return &k, nil
}

func (s *store) GetKBByName(ctx context.Context, name string) (*KB, error) {
	var k KB
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&k).Error; err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, apperrors.New(apperrors.ErrKBNotFound, name)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer, "get knowledge base by name")
	}
	return &k, nil
}

func (s *store) ListKBs(ctx context.Context, page, size int) ([]*KB, int64, error) {
	var kbs []*KB
	var total int64

	if err := s.db.WithContext(ctx).Model(&KB{}).Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.ErrInternalServer, "count knowledge bases")
	}

	scope := s.db.WithContext(ctx).DB.Order("created_at DESC")
	if err := database.Paginate(page, size)(scope).Find(&kbs).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.ErrInternalServer, "list knowledge bases")
	}
	return kbs, total, nil
}

func (s *store) UpdateKB(ctx context.Context, k *KB) error {
	if err := s.db.WithContext(ctx).Save(k).Error; err != nil {
		if database.IsDuplicateKeyError(err) {
			return apperrors.Wrap(err, apperrors.ErrKBNameConflict, k.Name)
		}
		return apperrors.Wrap(err, apperrors.ErrInternalServer, "update knowledge base")
	}
	return nil
}

func (s *store) DeleteKB(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&KB{}).Error; err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternalServer, "delete knowledge base")
	}
	return nil
}

func (s *store) AddFile(ctx context.Context, f *FileEntity) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.Status == "" {
		f.Status = FileStatusPending
	}
	if err := s.db.WithContext(ctx).Create(f).Error; err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternalServer, "add file")
	}
	return nil
}

func (s *store) GetFile(ctx context.Context, id string) (*FileEntity, error) {
	var f FileEntity
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&f).Error; err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, apperrors.New(apperrors.ErrFileNotFound, id)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer, "get file")
	}
	return &f, nil
}

func (s *store) ListFiles(ctx context.Context, kbID string, status FileStatus, page, size int) ([]*FileEntity, int64, error) {
	var files []*FileEntity
	var total int64

	q := s.db.WithContext(ctx).DB.Model(&FileEntity{}).Where("kb_id = ?", kbID)
	q = database.WhereIf(status != "", "status = ?", status)(q)

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.ErrInternalServer, "count files")
	}

	listQ := s.db.WithContext(ctx).DB.Where("kb_id = ?", kbID)
	listQ = database.WhereIf(status != "", "status = ?", status)(listQ)
	listQ = listQ.Order("created_at DESC")
	if err := database.Paginate(page, size)(listQ).Find(&files).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.ErrInternalServer, "list files")
	}
	return files, total, nil
}

func (s *store) DeleteFile(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&FileEntity{}).Error; err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternalServer, "delete file")
	}
	return nil
}

func (s *store) DeleteFilesByKB(ctx context.Context, kbID string) error {
	if err := s.db.WithContext(ctx).Where("kb_id = ?", kbID).Delete(&FileEntity{}).Error; err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternalServer, "delete files for knowledge base")
	}
	return nil
}

// --- ingestion.Tracker ---

func (s *store) FindByPath(ctx context.Context, kbID, path string) (*ingestion.FileRecord, bool, error) {
	var f FileEntity
	err := s.db.WithContext(ctx).
		Where("kb_id = ? AND path = ? AND status = ?", kbID, path, FileStatusCompleted).
		Order("updated_at DESC").
		First(&f).Error
	if database.IsRecordNotFoundError(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("find file by path: %w", err)
	}
	return &ingestion.FileRecord{MTime: f.MTime}, true, nil
}

func (s *store) MarkParsing(ctx context.Context, fileID string) error {
	return s.setStatus(ctx, fileID, FileStatusParsing, "")
}

func (s *store) MarkPersisting(ctx context.Context, fileID string) error {
	return s.setStatus(ctx, fileID, FileStatusPersisting, "")
}

func (s *store) MarkSucceeded(ctx context.Context, fileID string, chunkCount int) error {
	now := time.Now().UTC()
	return s.db.WithContext(ctx).Model(&FileEntity{}).Where("id = ?", fileID).Updates(map[string]interface{}{
		"status":        FileStatusCompleted,
		"chunk_count":   chunkCount,
		"failed_reason": "",
		"m_time":        now,
	}).Error
}

func (s *store) MarkFailed(ctx context.Context, fileID string, reason string) error {
	return s.setStatus(ctx, fileID, FileStatusFailed, reason)
}

func (s *store) setStatus(ctx context.Context, fileID string, status FileStatus, reason string) error {
	updates := map[string]interface{}{"status": status}
	if reason != "" {
		updates["failed_reason"] = reason
	}
	if err := s.db.WithContext(ctx).Model(&FileEntity{}).Where("id = ?", fileID).Updates(updates).Error; err != nil {
		return fmt.Errorf("set file %s status to %s: %w", fileID, status, err)
	}
	return nil
}

func (s *store) IncrementKBCounters(ctx context.Context, kbID string, documentsDelta, chunksDelta int) error {
	err := s.db.WithContext(ctx).Model(&KB{}).Where("id = ?", kbID).Updates(map[string]interface{}{
		"document_count": gorm.Expr("document_count + ?", documentsDelta),
		"chunk_count":    gorm.Expr("chunk_count + ?", chunksDelta),
	}).Error
	if err != nil {
		return fmt.Errorf("increment kb %s counters: %w", kbID, err)
	}
	return nil
}
