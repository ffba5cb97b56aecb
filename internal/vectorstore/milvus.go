package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/milvus-io/milvus/client/v2/column"
	"go.uber.org/zap"

	"ragcore/internal/pkg/logger"
	"ragcore/internal/pkg/milvus"
	"ragcore/internal/pkg/retry"
)

const (
	fieldID        = "id"
	fieldEmbedding = "embedding"
	fieldSource    = "source"
	fieldFileID    = "file_id"
	fieldChunkIdx  = "chunk_index"
	fieldText      = "text"
	fieldExtra     = "extra" // JSON-encoded remainder of Point.Payload

	maxVarCharLen = 4096
	maxTextLen    = 65535
)

// MilvusStore implements Store over the shared internal/pkg/milvus wrapper,
// adapted from the teacher's internal/knowledge/storage/milvus_store.go:
// cosine metric (spec calls for "cosine distance") rather than the teacher's
// inner-product metric, a fixed typed payload schema (source/file_id/
// chunk_index/text plus a JSON "extra" column for anything else) instead of
// embedding only "id", batch-size-bounded retried upserts, and Scroll added
// for the keyword-search fallback C8 needs, which the teacher never built.
var _ Store = (*MilvusStore)(nil)

type MilvusStore struct {
	client        *milvus.Client
	upsertBatch   int
	searchPolicy  retry.Policy
	log           *logger.Logger
}

func NewMilvusStore(client *milvus.Client, upsertBatchSize int, log *logger.Logger) *MilvusStore {
	if log == nil {
		log = logger.L()
	}
	if upsertBatchSize <= 0 {
		upsertBatchSize = 100
	}
	return &MilvusStore{
		client:       client,
		upsertBatch:  upsertBatchSize,
		searchPolicy: retry.VectorStorePolicy(),
		log:          log,
	}
}

func (s *MilvusStore) EnsureCollection(ctx context.Context, name string, dim int) error {
	exists, err := s.client.HasCollection(ctx, name)
	if err != nil {
		return fmt.Errorf("vectorstore: check collection: %w", err)
	}
	if exists {
		info, err := s.client.DescribeCollection(ctx, name)
		if err != nil {
			return fmt.Errorf("vectorstore: describe collection: %w", err)
		}
		existingDim := 0
		if info.Schema != nil {
			if f := info.Schema.GetField(fieldEmbedding); f != nil {
				existingDim = f.Dimension
			}
		}
		if existingDim != dim {
			return fmt.Errorf("vectorstore: collection %q has dimension %d, want %d", name, existingDim, dim)
		}
		return nil
	}

	schema := milvus.NewCollectionSchema(name, "knowledge base vector collection").
		AddField(milvus.NewFieldSchema(fieldID, milvus.DataTypeVarChar).WithPrimaryKey(true).WithMaxLength(128)).
		AddField(milvus.NewFieldSchema(fieldEmbedding, milvus.DataTypeFloatVector).WithDimension(dim)).
		AddField(milvus.NewFieldSchema(fieldSource, milvus.DataTypeVarChar).WithMaxLength(maxVarCharLen)).
		AddField(milvus.NewFieldSchema(fieldFileID, milvus.DataTypeVarChar).WithMaxLength(128)).
		AddField(milvus.NewFieldSchema(fieldChunkIdx, milvus.DataTypeInt64)).
		AddField(milvus.NewFieldSchema(fieldText, milvus.DataTypeVarChar).WithMaxLength(maxTextLen)).
		AddField(milvus.NewFieldSchema(fieldExtra, milvus.DataTypeVarChar).WithMaxLength(maxTextLen))

	if err := s.client.CreateCollection(ctx, schema, nil); err != nil {
		return fmt.Errorf("vectorstore: create collection: %w", err)
	}

	indexOpts := &milvus.IndexOptions{
		IndexType:  milvus.IndexTypeAUTOINDEX,
		MetricType: milvus.MetricTypeCosine,
	}
	if err := s.client.CreateIndex(ctx, name, fieldEmbedding, indexOpts); err != nil {
		return fmt.Errorf("vectorstore: create index: %w", err)
	}

	if err := s.client.LoadCollection(ctx, name, false); err != nil {
		return fmt.Errorf("vectorstore: load collection: %w", err)
	}

	s.log.Info("vector collection created", zap.String("collection", name), zap.Int("dimension", dim))
	return nil
}

func (s *MilvusStore) DeleteCollection(ctx context.Context, name string) error {
	if err := s.client.DropCollection(ctx, name); err != nil {
		if milvus.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("vectorstore: drop collection: %w", err)
	}
	s.log.Info("vector collection dropped", zap.String("collection", name))
	return nil
}

func (s *MilvusStore) Upsert(ctx context.Context, name string, points []Point) error {
	for start := 0; start < len(points); start += s.upsertBatch {
		end := start + s.upsertBatch
		if end > len(points) {
			end = len(points)
		}
		batch := points[start:end]
		if err := retry.Do(ctx, s.searchPolicy, func(ctx context.Context) error {
			return s.upsertBatch_(ctx, name, batch)
		}); err != nil {
			return fmt.Errorf("vectorstore: upsert batch [%d:%d]: %w", start, end, err)
		}
	}
	s.log.Info("vectors upserted", zap.String("collection", name), zap.Int("count", len(points)))
	return nil
}

func (s *MilvusStore) upsertBatch_(ctx context.Context, name string, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	ids := make([]string, len(points))
	vectors := make([][]float32, len(points))
	sources := make([]string, len(points))
	fileIDs := make([]string, len(points))
	chunkIdx := make([]int64, len(points))
	texts := make([]string, len(points))
	extras := make([]string, len(points))

	for i, p := range points {
		ids[i] = p.ID
		vectors[i] = p.Vector
		sources[i], fileIDs[i], chunkIdx[i], texts[i], extras[i] = splitPayload(p.Payload)
	}

	cols := []column.Column{
		column.NewColumnVarChar(fieldID, ids),
		column.NewColumnFloatVector(fieldEmbedding, len(vectors[0]), vectors),
		column.NewColumnVarChar(fieldSource, sources),
		column.NewColumnVarChar(fieldFileID, fileIDs),
		column.NewColumnInt64(fieldChunkIdx, chunkIdx),
		column.NewColumnVarChar(fieldText, texts),
		column.NewColumnVarChar(fieldExtra, extras),
	}

	if _, err := s.client.Upsert(ctx, name, cols, nil); err != nil {
		return err
	}
	return s.client.Flush(ctx, name, false)
}

func (s *MilvusStore) Delete(ctx context.Context, name string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	expr := idInExpr(ids)
	if err := s.client.Delete(ctx, name, expr, nil); err != nil {
		return fmt.Errorf("vectorstore: delete: %w", err)
	}
	s.log.Info("vectors deleted", zap.String("collection", name), zap.Int("count", len(ids)))
	return nil
}

func (s *MilvusStore) Search(ctx context.Context, name string, vector []float32, limit int, scoreThreshold *float32) ([]Hit, error) {
	opts := &milvus.SearchOptions{
		OutputFields: []string{fieldID, fieldSource, fieldFileID, fieldChunkIdx, fieldText, fieldExtra},
		Limit:        limit,
	}

	var raw [][]milvus.SearchResult
	err := retry.Do(ctx, s.searchPolicy, func(ctx context.Context) error {
		r, err := s.client.Search(ctx, name, [][]float32{vector}, fieldEmbedding, milvus.MetricTypeCosine, limit, opts)
		if err != nil {
			return err
		}
		raw = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: search: %w", err)
	}
	if len(raw) == 0 {
		return []Hit{}, nil
	}

	hits := make([]Hit, 0, len(raw[0]))
	for _, r := range raw[0] {
		if len(r.Scores) == 0 {
			continue
		}
		score := r.Scores[0]
		if scoreThreshold != nil && score < *scoreThreshold {
			continue
		}
		id, _ := r.Fields[fieldID].(string)
		hits = append(hits, Hit{ID: id, Score: score, Payload: joinPayload(r.Fields)})
	}
	return hits, nil
}

func (s *MilvusStore) Scroll(ctx context.Context, name string, filter map[string]string, limit int) ([]Point, error) {
	expr := filterExpr(filter)
	if expr == "" {
		// Query rejects an empty expression, so an absent filter matches every row.
		expr = fieldID + ` != ""`
	}
	opts := &milvus.QueryOptions{
		OutputFields: []string{fieldID, fieldEmbedding, fieldSource, fieldFileID, fieldChunkIdx, fieldText, fieldExtra},
		Limit:        limit,
	}
	results, err := s.client.Query(ctx, name, expr, opts)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: scroll: %w", err)
	}

	points := make([]Point, 0, len(results))
	for _, r := range results {
		id, _ := r.Fields[fieldID].(string)
		var vec []float32
		if v, ok := r.Fields[fieldEmbedding].([]float32); ok {
			vec = v
		}
		points = append(points, Point{ID: id, Vector: vec, Payload: joinPayload(r.Fields)})
	}
	return points, nil
}

func (s *MilvusStore) Count(ctx context.Context, name string) (int64, error) {
	info, err := s.client.DescribeCollection(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("vectorstore: count: %w", err)
	}
	return info.NumEntities, nil
}

func (s *MilvusStore) Info(ctx context.Context, name string) (*CollectionInfo, error) {
	info, err := s.client.DescribeCollection(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: info: %w", err)
	}
	dim := 0
	if info.Schema != nil {
		if f := info.Schema.GetField(fieldEmbedding); f != nil {
			dim = f.Dimension
		}
	}
	return &CollectionInfo{Name: info.Name, Dimension: dim, PointCount: info.NumEntities}, nil
}

// splitPayload pulls the typed fields out of a Point's payload map and
// JSON-encodes whatever remains into the "extra" column.
func splitPayload(payload map[string]interface{}) (source, fileID string, chunkIdx int64, text, extra string) {
	rest := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		switch k {
		case fieldSource:
			source, _ = v.(string)
		case fieldFileID:
			fileID, _ = v.(string)
		case fieldChunkIdx:
			chunkIdx = toInt64(v)
		case fieldText:
			text, _ = v.(string)
		default:
			rest[k] = v
		}
	}
	if len(rest) > 0 {
		if b, err := json.Marshal(rest); err == nil {
			extra = string(b)
		}
	}
	return
}

func joinPayload(fields map[string]interface{}) map[string]interface{} {
	payload := map[string]interface{}{}
	if v, ok := fields[fieldSource]; ok {
		payload[fieldSource] = v
	}
	if v, ok := fields[fieldFileID]; ok {
		payload[fieldFileID] = v
	}
	if v, ok := fields[fieldChunkIdx]; ok {
		payload[fieldChunkIdx] = v
	}
	if v, ok := fields[fieldText]; ok {
		payload[fieldText] = v
	}
	if raw, ok := fields[fieldExtra].(string); ok && raw != "" {
		var rest map[string]interface{}
		if err := json.Unmarshal([]byte(raw), &rest); err == nil {
			for k, v := range rest {
				payload[k] = v
			}
		}
	}
	return payload
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func idInExpr(ids []string) string {
	expr := fieldID + " in ["
	for i, id := range ids {
		if i > 0 {
			expr += ", "
		}
		expr += fmt.Sprintf("%q", id)
	}
	return expr + "]"
}

func filterExpr(filter map[string]string) string {
	if len(filter) == 0 {
		return ""
	}
	expr := ""
	first := true
	for k, v := range filter {
		if !first {
			expr += " && "
		}
		first = false
		expr += fmt.Sprintf("%s == %q", k, v)
	}
	return expr
}
