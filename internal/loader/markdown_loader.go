package loader

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/russross/blackfriday/v2"
)

// MarkdownLoader converts Markdown to HTML via blackfriday and flattens it
// to plain text, keeping heading levels as a prefix so section structure
// survives the flatten (§4.3: "preserving section structure where
// possible"). Adapted from the teacher's MarkdownLoader
// (internal/knowledge/loader/markdown_loader.go), which discarded heading
// level entirely; if blackfriday's render ever comes back empty, falls back
// to returning the raw Markdown as plain text.
type MarkdownLoader struct {
	maxFileSize int64
}

func NewMarkdownLoader(maxFileSize int64) *MarkdownLoader {
	return &MarkdownLoader{maxFileSize: maxFileSize}
}

func (l *MarkdownLoader) Supports(path string) bool { return ext(path) == "md" }

func (l *MarkdownLoader) Load(ctx context.Context, path string) ([]Document, error) {
	if err := checkFileSize(path, l.maxFileSize); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	html := blackfriday.Run(raw)
	text := htmlToStructuredText(string(html))
	if strings.TrimSpace(text) == "" {
		text = string(raw)
	}

	return []Document{{
		Content: text,
		Metadata: map[string]interface{}{
			"source":          path,
			"loader":          "markdown",
			"original_format": "markdown",
		},
	}}, nil
}

var headingTag = regexp.MustCompile(`(?is)<h([1-6])[^>]*>(.*?)</h[1-6]>`)

func htmlToStructuredText(html string) string {
	html = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`).ReplaceAllString(html, "")
	html = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`).ReplaceAllString(html, "")

	// Re-render headings as "## text" so the section hierarchy is visible
	// in plain text instead of being stripped with every other tag.
	html = headingTag.ReplaceAllStringFunc(html, func(m string) string {
		sub := headingTag.FindStringSubmatch(m)
		level := sub[1]
		inner := stripTags(sub[2])
		hashes := strings.Repeat("#", int(level[0]-'0'))
		return "\n\n" + hashes + " " + inner + "\n\n"
	})

	html = regexp.MustCompile(`(?i)<br\s*/?>|</p>`).ReplaceAllString(html, "\n")
	html = regexp.MustCompile(`(?i)</li>`).ReplaceAllString(html, "\n")

	text := stripTags(html)
	text = decodeHTMLEntities(text)
	return cleanWhitespace(text)
}

func stripTags(html string) string {
	return regexp.MustCompile(`<[^>]+>`).ReplaceAllString(html, "")
}

func decodeHTMLEntities(text string) string {
	entities := map[string]string{
		"&nbsp;": " ", "&lt;": "<", "&gt;": ">", "&amp;": "&",
		"&quot;": "\"", "&apos;": "'", "&ndash;": "–", "&mdash;": "—",
	}
	for e, r := range entities {
		text = strings.ReplaceAll(text, e, r)
	}
	return text
}

func cleanWhitespace(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	text = strings.Join(lines, "\n")
	text = regexp.MustCompile(`\n{3,}`).ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
