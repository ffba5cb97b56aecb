// Package loader implements C3: extension-dispatched document loaders that
// turn a file into an ordered sequence of Documents (SPEC_FULL.md §4.3).
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apperrors "ragcore/internal/pkg/errors"
)

// Document is one unit of loaded text with source metadata, per §3.
type Document struct {
	Content  string
	Metadata map[string]interface{}
}

// Loader dispatches by lowercased file extension, adapted from the teacher's
// Loader interface (internal/knowledge/loader/loader.go) but path-based
// rather than io.Reader-based: PDF loading needs one Document per page and
// text loading needs a multi-encoding retry, both of which want the whole
// file read up front rather than streamed.
type Loader interface {
	Supports(path string) bool
	Load(ctx context.Context, path string) ([]Document, error)
}

// DefaultMaxFileSize is the §4.3 default file-size ceiling all loaders
// enforce before reading; a size of 0 passed to NewRegistry or to a loader
// constructor falls back to this.
const DefaultMaxFileSize int64 = 100 * 1024 * 1024

func checkFileSize(path string, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileSize
	}
	info, err := os.Stat(path)
	if err != nil {
		return apperrors.Wrap(fmt.Errorf("stat %s: %w", path, err), apperrors.ErrFileNotFound)
	}
	if info.Size() > maxBytes {
		return apperrors.Wrap(
			fmt.Errorf("file %s is %d bytes, exceeds limit of %d", path, info.Size(), maxBytes),
			apperrors.ErrFileTooLarge)
	}
	return nil
}

func ext(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}
