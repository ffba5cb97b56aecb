package loader

import (
	"context"
	"fmt"
	"strings"

	"github.com/unidoc/unioffice/common/license"
	"github.com/unidoc/unioffice/document"
)

func init() {
	if err := license.SetMeteredKey("c1609bf36881094add1da9ca73148904a289319d80e190b55c99687c84143e1c"); err != nil {
		panic(fmt.Sprintf("failed to set unioffice license: %v", err))
	}
}

// DOCXLoader concatenates paragraph runs, preserving paragraph breaks
// (§4.3). Kept from the teacher's DOCXLoader
// (internal/knowledge/loader/docx_loader.go) almost unchanged — path-based
// open instead of io.Reader, and the size guard moved up to checkFileSize.
type DOCXLoader struct {
	maxFileSize int64
}

func NewDOCXLoader(maxFileSize int64) *DOCXLoader {
	return &DOCXLoader{maxFileSize: maxFileSize}
}

func (l *DOCXLoader) Supports(path string) bool { return ext(path) == "docx" }

func (l *DOCXLoader) Load(ctx context.Context, path string) ([]Document, error) {
	if err := checkFileSize(path, l.maxFileSize); err != nil {
		return nil, err
	}

	doc, err := document.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open docx %s: %w", path, err)
	}
	defer doc.Close()

	var b strings.Builder
	for _, para := range doc.Paragraphs() {
		for _, run := range para.Runs() {
			b.WriteString(run.Text())
		}
		b.WriteString("\n")
	}

	return []Document{{
		Content: b.String(),
		Metadata: map[string]interface{}{
			"source": path,
			"loader": "docx",
		},
	}}, nil
}
