package loader

import (
	"context"
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"

	apperrors "ragcore/internal/pkg/errors"
)

// TextLoader decodes a plain-text file, trying UTF-8, GBK, GB2312, then
// Latin-1 in order (§4.3); the first encoding to decode cleanly wins.
// Adapted from the teacher's TextLoader (internal/knowledge/loader/text_loader.go),
// which only ever assumed UTF-8 — the multi-encoding retry is new.
type TextLoader struct {
	maxFileSize int64
}

func NewTextLoader(maxFileSize int64) *TextLoader {
	return &TextLoader{maxFileSize: maxFileSize}
}

func (l *TextLoader) Supports(path string) bool { return ext(path) == "txt" }

func (l *TextLoader) Load(ctx context.Context, path string) ([]Document, error) {
	if err := checkFileSize(path, l.maxFileSize); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	text, encoding, err := decodeText(raw)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrLoaderFailed, "no supported encoding for %s", path)
	}

	return []Document{{
		Content: text,
		Metadata: map[string]interface{}{
			"source":   path,
			"loader":   "text",
			"encoding": encoding,
		},
	}}, nil
}

// decodeText tries UTF-8 first (the common case needs no conversion), then
// GBK, then GB2312 (via golang.org/x/text's HZ-GB-2312 decoder; plain
// GB2312 byte sequences are valid GBK and so are already taken by the GBK
// step), then Latin-1. The first to produce valid output wins.
func decodeText(raw []byte) (string, string, error) {
	if utf8.Valid(raw) {
		return string(raw), "utf-8", nil
	}

	if text, err := simplifiedchinese.GBK.NewDecoder().String(string(raw)); err == nil && utf8.ValidString(text) {
		return text, "gbk", nil
	}

	if text, err := simplifiedchinese.HZGB2312.NewDecoder().String(string(raw)); err == nil && utf8.ValidString(text) {
		return text, "gb2312", nil
	}

	if text, err := charmap.ISO8859_1.NewDecoder().String(string(raw)); err == nil && utf8.ValidString(text) {
		return text, "latin-1", nil
	}

	return "", "", fmt.Errorf("could not decode as utf-8, gbk, gb2312, or latin-1")
}
