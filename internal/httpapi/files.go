package httpapi

import (
	"math"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ragcore/internal/kb"
	apperrors "ragcore/internal/pkg/errors"
	"ragcore/internal/pkg/response"
)

// ListFiles handles GET /knowledge-bases/{id}/files, grounded on the
// teacher's ListDocuments handler (document.go) — page/size defaults plus
// an optional status filter.
func (s *KnowledgeBaseService) ListFiles(c *gin.Context) {
	kbID := c.Param("id")
	page, size := pagingParams(c)

	var status kb.FileStatus
	if v := c.Query("status"); v != "" {
		status = kb.FileStatus(v)
		if !status.Valid() {
			response.BadRequest(c, "invalid status filter")
			return
		}
	}

	files, total, err := s.manager.ListFiles(c.Request.Context(), kbID, status, page, size)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	resp := make([]*FileResponse, len(files))
	for i, f := range files {
		resp[i] = toFileResponse(f)
	}

	response.Success(c, gin.H{
		"items": resp,
		"total": total,
		"pages": int(math.Ceil(float64(total) / float64(size))),
	})
}

// UploadFile handles POST /knowledge-bases/{id}/files. Grounded on the
// teacher's UploadDocument handler (document.go): read the multipart
// field, stage the bytes on local disk, then hand the path to C7, which
// enqueues ingestion onto the worker pool rather than processing inline.
func (s *KnowledgeBaseService) UploadFile(c *gin.Context) {
	kbID := c.Param("id")

	form, err := c.MultipartForm()
	if err != nil {
		response.BadRequest(c, "invalid multipart form")
		return
	}
	headers := form.File["file"]
	if len(headers) == 0 {
		response.BadRequest(c, "missing field 'file'")
		return
	}

	if err := os.MkdirAll(filepath.Join(s.uploadDir, kbID), 0o755); err != nil {
		response.HandleError(c, apperrors.Wrap(err, apperrors.ErrInternalServer, "create upload dir"))
		return
	}

	var results []*FileResponse
	for _, header := range headers {
		if s.maxFileSizeBytes > 0 && header.Size > s.maxFileSizeBytes {
			response.HandleError(c, apperrors.New(apperrors.ErrFileTooLarge, header.Filename))
			return
		}

		destDir := filepath.Join(s.uploadDir, kbID, uuid.NewString())
		if err := os.MkdirAll(destDir, 0o755); err != nil {
			response.HandleError(c, apperrors.Wrap(err, apperrors.ErrInternalServer, "create upload dir"))
			return
		}
		destPath := filepath.Join(destDir, filepath.Base(header.Filename))
		if err := c.SaveUploadedFile(header, destPath); err != nil {
			response.HandleError(c, apperrors.Wrap(err, apperrors.ErrInternalServer, "save upload"))
			return
		}

		f, err := s.manager.UploadFile(c.Request.Context(), kbID, destPath)
		if err != nil {
			response.HandleError(c, err)
			return
		}
		results = append(results, toFileResponse(f))
	}

	response.Created(c, results)
}

// DeleteFile handles DELETE /knowledge-bases/{id}/files/{fid}.
func (s *KnowledgeBaseService) DeleteFile(c *gin.Context) {
	if err := s.manager.DeleteFile(c.Request.Context(), c.Param("fid")); err != nil {
		response.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
