package loader

import (
	"context"
	"fmt"

	apperrors "ragcore/internal/pkg/errors"
)

// Registry dispatches by extension, adapted from the teacher's
// loader.Factory (internal/knowledge/loader/factory.go): NewRegistry builds
// a fixed list of six loaders (text, markdown, PDF, DOCX, HTML, JSON), so
// the ingestion pipeline's max-file-size limit can be threaded through at
// construction time instead of being loader-local.
type Registry struct {
	loaders     []Loader
	maxFileSize int64
}

func NewRegistry(maxFileSize int64) *Registry {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	r := &Registry{maxFileSize: maxFileSize}
	r.loaders = []Loader{
		NewTextLoader(maxFileSize),
		NewMarkdownLoader(maxFileSize),
		NewPDFLoader(maxFileSize),
		NewDOCXLoader(maxFileSize),
		NewHTMLLoader(maxFileSize),
		NewJSONLoader(maxFileSize),
	}
	return r
}

func (r *Registry) Load(ctx context.Context, path string) ([]Document, error) {
	for _, l := range r.loaders {
		if !l.Supports(path) {
			continue
		}
		docs, err := l.Load(ctx, path)
		if err != nil {
			// Wrap preserves the original code when err already carries one
			// (e.g. ErrFileTooLarge from checkFileSize).
			return nil, apperrors.Wrap(fmt.Errorf("load %s: %w", path, err), apperrors.ErrLoaderFailed)
		}
		return docs, nil
	}
	return nil, apperrors.New(apperrors.ErrUnsupportedType, path)
}
