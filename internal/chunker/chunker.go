// Package chunker splits loaded documents into overlapping text chunks
// ready for embedding. It generalizes the teacher's token-window
// RecursiveChunker (internal/knowledge/chunker/recursive_chunker.go) from
// token-sized, single-separator-list splitting to character-sized
// splitting with a Chinese-aware separator list and sentence-boundary
// snapping.
package chunker

import (
	"context"
	"unicode/utf8"

	apperrors "ragcore/internal/pkg/errors"

	"github.com/pkoukk/tiktoken-go"
)

// Input is one loaded document handed to Split. Source identifies which
// document a resulting Chunk came from.
type Input struct {
	Source  string
	Content string
}

// Chunk is one piece of a split document.
type Chunk struct {
	Source     string
	ChunkIndex int // monotone within Source, starting at 0
	Content    string
	CharCount  int
	TokenCount int
	Start      int // byte offset into the source document's content
	End        int
}

// Config controls how documents are split.
type Config struct {
	Size                    int    // max chunk length in characters (runes)
	Overlap                 int    // target overlap in characters between adjacent chunks
	ChineseAware            bool   // force the Chinese-aware separator list
	RespectSentenceBoundary bool   // snap overlap back to the nearest preceding sentence terminator
	Encoding                string // tiktoken encoding used for the informational TokenCount field
}

// chineseRatioThreshold is the Chinese-character-ratio at or above which
// auto-detection switches a document to Chinese-aware separators even
// when Config.ChineseAware is false.
const chineseRatioThreshold = 0.3

var generalSeparators = []string{"\n\n\n", "\n\n", "\n", ". ", " ", ""}

var chineseSeparators = []string{"\n\n\n", "\n\n", "\n", "。", "？", "！", "；", "，", " ", ""}

func (c Config) validate() error {
	if c.Size <= 0 {
		return apperrors.New(apperrors.ErrKBInvalidParams, "chunk_size must be positive")
	}
	if c.Overlap < 0 {
		return apperrors.New(apperrors.ErrKBInvalidParams, "chunk_overlap cannot be negative")
	}
	if c.Overlap >= c.Size {
		return apperrors.New(apperrors.ErrKBInvalidParams, "chunk_overlap must be less than chunk_size")
	}
	return nil
}

func (c Config) encodingName() string {
	if c.Encoding == "" {
		return "cl100k_base"
	}
	return c.Encoding
}

// Split breaks every input document into chunks, preserving document
// order and assigning a fresh, source-local monotone ChunkIndex to each
// resulting chunk. An empty document contributes zero chunks.
func Split(ctx context.Context, documents []Input, cfg Config) ([]Chunk, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	enc, err := tiktoken.GetEncoding(cfg.encodingName())
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer, "load tiktoken encoding")
	}

	var out []Chunk
	for _, doc := range documents {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if doc.Content == "" {
			continue
		}

		seps := generalSeparators
		if cfg.ChineseAware || chineseRatio(doc.Content) >= chineseRatioThreshold {
			seps = chineseSeparators
		}

		sp := &splitter{
			size:            cfg.Size,
			overlap:         cfg.Overlap,
			respectBoundary: cfg.RespectSentenceBoundary,
			separators:      seps,
		}
		for i, rc := range sp.split(doc.Content) {
			out = append(out, Chunk{
				Source:     doc.Source,
				ChunkIndex: i,
				Content:    rc.content,
				CharCount:  utf8.RuneCountInString(rc.content),
				TokenCount: len(enc.Encode(rc.content, nil, nil)),
				Start:      rc.start,
				End:        rc.end,
			})
		}
	}
	return out, nil
}
