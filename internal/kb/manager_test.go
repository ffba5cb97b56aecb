package kb

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ragcore/internal/embedding"
	"ragcore/internal/ingestion"
	"ragcore/internal/loader"
	"ragcore/internal/pkg/logger"
	"ragcore/internal/pkg/workerpool"
	"ragcore/internal/vectorstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVS struct {
	ensureErr  error
	ensured    map[string]int
	deleted    []string
}

func newFakeVS() *fakeVS { return &fakeVS{ensured: map[string]int{}} }

func (v *fakeVS) EnsureCollection(ctx context.Context, name string, dim int) error {
	if v.ensureErr != nil {
		return v.ensureErr
	}
	v.ensured[name] = dim
	return nil
}
func (v *fakeVS) DeleteCollection(ctx context.Context, name string) error {
	v.deleted = append(v.deleted, name)
	return nil
}
func (v *fakeVS) Upsert(ctx context.Context, name string, points []vectorstore.Point) error { return nil }
func (v *fakeVS) Delete(ctx context.Context, name string, ids []string) error                { return nil }
func (v *fakeVS) Search(ctx context.Context, name string, vec []float32, limit int, th *float32) ([]vectorstore.Hit, error) {
	return nil, nil
}
func (v *fakeVS) Scroll(ctx context.Context, name string, filter map[string]string, limit int) ([]vectorstore.Point, error) {
	return nil, nil
}
func (v *fakeVS) Count(ctx context.Context, name string) (int64, error) { return 0, nil }
func (v *fakeVS) Info(ctx context.Context, name string) (*vectorstore.CollectionInfo, error) {
	return &vectorstore.CollectionInfo{Name: name}, nil
}

type fakeEmbed struct{ dim int }

func (f *fakeEmbed) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return make([]float32, f.dim), nil
}
func (f *fakeEmbed) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, f.dim)
	}
	return out, nil
}
func (f *fakeEmbed) CheckAvailable(ctx context.Context) bool { return true }
func (f *fakeEmbed) Dimension() int                           { return f.dim }

func newTestManager(t *testing.T) (*Manager, *store, *fakeVS) {
	t.Helper()
	s := newTestStore(t)

	vs := newFakeVS()
	embed := &fakeEmbed{dim: 8}
	pipeline := ingestion.New(loader.NewRegistry(0), embedding.Client(embed), vs, s)

	pool, err := workerpool.New(workerpool.IngestionPoolConfig(2), logger.L().Logger)
	require.NoError(t, err)
	t.Cleanup(pool.Shutdown)

	mgr := NewManager(s, vs, pipeline, pool)
	return mgr, s, vs
}

func TestManager_CreateKB(t *testing.T) {
	mgr, _, vs := newTestManager(t)

	k, err := mgr.CreateKB(context.Background(), CreateSpec{
		Name:               "kb-a",
		EmbeddingModel:     "m",
		EmbeddingDimension: 8,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, k.ID)
	assert.Equal(t, 8, vs.ensured[k.CollectionName])
}

func TestManager_CreateKB_RollsBackOnCollectionFailure(t *testing.T) {
	mgr, s, vs := newTestManager(t)
	vs.ensureErr = assert.AnError

	_, err := mgr.CreateKB(context.Background(), CreateSpec{
		Name:               "kb-b",
		EmbeddingModel:     "m",
		EmbeddingDimension: 8,
	})
	assert.Error(t, err)

	_, _, err = s.ListKBs(context.Background(), 1, 10)
	require.NoError(t, err)
	got, err := s.GetKBByName(context.Background(), "kb-b")
	assert.Error(t, err)
	assert.Nil(t, got)
}

func TestManager_UpdateKB_CannotChangeEmbeddingModel(t *testing.T) {
	mgr, _, _ := newTestManager(t)

	k, err := mgr.CreateKB(context.Background(), CreateSpec{Name: "kb-c", EmbeddingModel: "m", EmbeddingDimension: 8})
	require.NoError(t, err)

	newDesc := "updated description"
	updated, err := mgr.UpdateKB(context.Background(), k.ID, UpdatePatch{Description: &newDesc})
	require.NoError(t, err)
	assert.Equal(t, "updated description", updated.Description)
	assert.Equal(t, "m", updated.EmbeddingModel)
	assert.Equal(t, 8, updated.EmbeddingDimension)
}

func TestManager_UploadFile_EnqueuesAndCompletesAsynchronously(t *testing.T) {
	mgr, s, _ := newTestManager(t)

	k, err := mgr.CreateKB(context.Background(), CreateSpec{Name: "kb-d", EmbeddingModel: "m", EmbeddingDimension: 8})
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("some note content to ingest"), 0o644))

	f, err := mgr.UploadFile(context.Background(), k.ID, path)
	require.NoError(t, err)
	assert.Equal(t, FileStatusPending, f.Status)

	require.Eventually(t, func() bool {
		got, err := s.GetFile(context.Background(), f.ID)
		return err == nil && got.Status == FileStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)
}

func TestManager_DeleteKB_DeletesCollectionThenRecord(t *testing.T) {
	mgr, s, vs := newTestManager(t)

	k, err := mgr.CreateKB(context.Background(), CreateSpec{Name: "kb-e", EmbeddingModel: "m", EmbeddingDimension: 8})
	require.NoError(t, err)

	require.NoError(t, mgr.DeleteKB(context.Background(), k.ID))
	assert.Contains(t, vs.deleted, k.CollectionName)

	_, err = s.GetKB(context.Background(), k.ID)
	assert.Error(t, err)
}

func TestManager_Query_WithoutRetrieverFails(t *testing.T) {
	mgr, _, _ := newTestManager(t)

	k, err := mgr.CreateKB(context.Background(), CreateSpec{Name: "kb-f", EmbeddingModel: "m", EmbeddingDimension: 8})
	require.NoError(t, err)

	_, err = mgr.Query(context.Background(), k.ID, "what is this", nil)
	assert.Error(t, err)
}

type stubRetriever struct {
	hits []RetrievalHit
}

func (r *stubRetriever) Search(ctx context.Context, collection, query string, cfg RetrievalConfig) ([]RetrievalHit, error) {
	return r.hits, nil
}

func TestManager_Query_MergesOverridesIntoRetrievalConfig(t *testing.T) {
	s := newTestStore(t)
	vs := newFakeVS()
	embed := &fakeEmbed{dim: 8}
	pipeline := ingestion.New(loader.NewRegistry(0), embedding.Client(embed), vs, s)
	pool, err := workerpool.New(workerpool.IngestionPoolConfig(1), logger.L().Logger)
	require.NoError(t, err)
	t.Cleanup(pool.Shutdown)

	stub := &stubRetriever{hits: []RetrievalHit{{Score: 0.9, Content: "hi"}}}
	mgr := NewManager(s, vs, pipeline, pool, WithRetriever(stub), WithLogger(logger.L()))

	k, err := mgr.CreateKB(context.Background(), CreateSpec{Name: "kb-g", EmbeddingModel: "m", EmbeddingDimension: 8})
	require.NoError(t, err)

	hits, err := mgr.Query(context.Background(), k.ID, "q", &RetrievalConfig{TopK: 3})
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}
