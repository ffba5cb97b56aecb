package loader

import (
	"context"
	"fmt"

	"github.com/gen2brain/go-fitz"
)

// PDFLoader returns one Document per page with a 1-based "page" metadata
// key (§4.3), using go-fitz/MuPDF. Adapted from the teacher's PDFLoader
// (internal/knowledge/loader/pdf_loader.go), which concatenated every page
// into a single Document; per-page granularity is required so downstream
// chunk metadata can cite a page number.
type PDFLoader struct {
	maxFileSize int64
}

func NewPDFLoader(maxFileSize int64) *PDFLoader {
	return &PDFLoader{maxFileSize: maxFileSize}
}

func (l *PDFLoader) Supports(path string) bool { return ext(path) == "pdf" }

func (l *PDFLoader) Load(ctx context.Context, path string) ([]Document, error) {
	if err := checkFileSize(path, l.maxFileSize); err != nil {
		return nil, err
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer doc.Close()

	numPages := doc.NumPage()
	docs := make([]Document, 0, numPages)
	for i := 0; i < numPages; i++ {
		text, err := doc.Text(i)
		if err != nil {
			continue // skip pages mupdf cannot extract text from
		}
		docs = append(docs, Document{
			Content: text,
			Metadata: map[string]interface{}{
				"source": path,
				"loader": "pdf",
				"page":   i + 1,
			},
		})
	}
	return docs, nil
}
