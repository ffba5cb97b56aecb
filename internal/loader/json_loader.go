package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// JSONLoader flattens JSON into indented "key: value" text so it chunks and
// embeds the same way any other prose document does. Kept from the
// teacher's JSONLoader (internal/knowledge/loader/json_loader.go) with the
// same recursive-format algorithm, switched from io.Reader to path-based
// reads.
type JSONLoader struct {
	maxFileSize int64
}

func NewJSONLoader(maxFileSize int64) *JSONLoader {
	return &JSONLoader{maxFileSize: maxFileSize}
}

func (l *JSONLoader) Supports(path string) bool { return ext(path) == "json" }

func (l *JSONLoader) Load(ctx context.Context, path string) ([]Document, error) {
	if err := checkFileSize(path, l.maxFileSize); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var data interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse json %s: %w", path, err)
	}

	return []Document{{
		Content: formatJSON(data, 0),
		Metadata: map[string]interface{}{
			"source":        path,
			"loader":        "json",
			"original_size": len(raw),
		},
	}}, nil
}

func formatJSON(data interface{}, indent int) string {
	var sb strings.Builder
	prefix := strings.Repeat("  ", indent)

	switch v := data.(type) {
	case map[string]interface{}:
		for key, value := range v {
			sb.WriteString(fmt.Sprintf("%s%s: ", prefix, key))
			switch value.(type) {
			case map[string]interface{}, []interface{}:
				sb.WriteString("\n")
				sb.WriteString(formatJSON(value, indent+1))
			default:
				sb.WriteString(fmt.Sprintf("%v\n", value))
			}
		}
	case []interface{}:
		for i, item := range v {
			sb.WriteString(fmt.Sprintf("%s[%d]: ", prefix, i))
			switch item.(type) {
			case map[string]interface{}, []interface{}:
				sb.WriteString("\n")
				sb.WriteString(formatJSON(item, indent+1))
			default:
				sb.WriteString(fmt.Sprintf("%v\n", item))
			}
		}
	default:
		sb.WriteString(fmt.Sprintf("%s%v\n", prefix, v))
	}
	return sb.String()
}
