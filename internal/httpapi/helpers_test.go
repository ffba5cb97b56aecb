package httpapi

import (
	"context"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"ragcore/internal/embedding"
	"ragcore/internal/ingestion"
	"ragcore/internal/kb"
	"ragcore/internal/loader"
	"ragcore/internal/pkg/database"
	"ragcore/internal/pkg/logger"
	"ragcore/internal/pkg/workerpool"
	"ragcore/internal/vectorstore"
)

// fakeVS is a minimal in-memory vectorstore.Store, grounded on
// internal/kb/manager_test.go's own fakeVS used for the same purpose.
type fakeVS struct {
	ensured map[string]int
}

func newFakeVS() *fakeVS { return &fakeVS{ensured: map[string]int{}} }

func (v *fakeVS) EnsureCollection(ctx context.Context, name string, dim int) error {
	v.ensured[name] = dim
	return nil
}
func (v *fakeVS) DeleteCollection(ctx context.Context, name string) error { return nil }
func (v *fakeVS) Upsert(ctx context.Context, name string, points []vectorstore.Point) error {
	return nil
}
func (v *fakeVS) Delete(ctx context.Context, name string, ids []string) error { return nil }
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
func (f *fakeEmbed) Dimension() int                          { return f.dim }

// newTestManager wires a real *kb.Manager over an in-memory sqlite store and
// a fake vector store, mirroring internal/kb/manager_test.go's own harness so
// KnowledgeBaseService is exercised against real C6/C7 behavior rather than a
// hand-rolled manager double.
func newTestManager(t *testing.T) (*kb.Manager, *fakeVS) {
	t.Helper()

	log, err := logger.Development()
	require.NoError(t, err)

	dbCfg := database.DefaultConfig()
	dbCfg.Path = ":memory:"
	db, err := database.New(dbCfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := kb.NewStore(db)
	require.NoError(t, store.Migrate(context.Background()))

	vs := newFakeVS()
	embed := &fakeEmbed{dim: 8}
	pipeline := ingestion.New(loader.NewRegistry(0), embedding.Client(embed), vs, store)

	pool, err := workerpool.New(workerpool.IngestionPoolConfig(2), log.Logger)
	require.NoError(t, err)
	t.Cleanup(pool.Shutdown)

	return kb.NewManager(store, vs, pipeline, pool, kb.WithLogger(log)), vs
}

func newDevLogger() (*logger.Logger, error) {
	return logger.Development()
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	return r
}
