package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name string, content []byte) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestTextLoader_UTF8(t *testing.T) {
	path := writeTemp(t, "a.txt", []byte("hello world"))
	l := NewTextLoader(0)
	require.True(t, l.Supports(path))

	docs, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "hello world", docs[0].Content)
	assert.Equal(t, "utf-8", docs[0].Metadata["encoding"])
}

func TestTextLoader_GBK(t *testing.T) {
	encoded, err := gbkEncode("你好世界")
	require.NoError(t, err)
	path := writeTemp(t, "gbk.txt", encoded)

	l := NewTextLoader(0)
	docs, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "你好世界", docs[0].Content)
	assert.Equal(t, "gbk", docs[0].Metadata["encoding"])
}

func TestMarkdownLoader_PreservesHeadings(t *testing.T) {
	path := writeTemp(t, "a.md", []byte("# Title\n\nSome body text.\n\n## Section\n\nMore text."))
	l := NewMarkdownLoader(0)

	docs, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Contains(t, docs[0].Content, "# Title")
	assert.Contains(t, docs[0].Content, "## Section")
}

func TestJSONLoader(t *testing.T) {
	path := writeTemp(t, "a.json", []byte(`{"name": "alice", "age": 30}`))
	l := NewJSONLoader(0)

	docs, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Contains(t, docs[0].Content, "name: alice")
}

func TestLoader_RejectsOversizedFile(t *testing.T) {
	path := writeTemp(t, "big.txt", []byte("0123456789"))
	l := NewTextLoader(5)

	_, err := l.Load(context.Background(), path)
	require.Error(t, err)
}

func TestRegistry_DispatchesByExtension(t *testing.T) {
	r := NewRegistry(0)
	path := writeTemp(t, "a.txt", []byte("hi"))

	docs, err := r.Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
}

func TestRegistry_UnsupportedExtension(t *testing.T) {
	r := NewRegistry(0)
	path := writeTemp(t, "a.exe", []byte("binary"))

	_, err := r.Load(context.Background(), path)
	assert.Error(t, err)
}

// gbkEncode is a tiny GBK-ish encoder built only for test fixtures, mirroring
// the decode-path library the loader itself uses.
func gbkEncode(s string) ([]byte, error) {
	return encodeWith(s)
}
