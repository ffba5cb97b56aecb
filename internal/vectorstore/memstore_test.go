package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// memStore is a hand-written in-memory Store used only by this package's
// tests, so C2's contract can be exercised without a live Milvus instance.
type memStore struct {
	mu          sync.Mutex
	collections map[string]int // name -> dimension
	points      map[string]map[string]Point
}

var _ Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		collections: map[string]int{},
		points:      map[string]map[string]Point{},
	}
}

func (m *memStore) EnsureCollection(ctx context.Context, name string, dim int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.collections[name]; ok {
		if existing != dim {
			return fmt.Errorf("collection %q has dimension %d, want %d", name, existing, dim)
		}
		return nil
	}
	m.collections[name] = dim
	m.points[name] = map[string]Point{}
	return nil
}

func (m *memStore) DeleteCollection(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections, name)
	delete(m.points, name)
	return nil
}

func (m *memStore) Upsert(ctx context.Context, name string, points []Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range points {
		m.points[name][p.ID] = p
	}
	return nil
}

func (m *memStore) Delete(ctx context.Context, name string, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.points[name], id)
	}
	return nil
}

func (m *memStore) Search(ctx context.Context, name string, vector []float32, limit int, scoreThreshold *float32) ([]Hit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hits := make([]Hit, 0, len(m.points[name]))
	for _, p := range m.points[name] {
		score := cosineSim(vector, p.Vector)
		if scoreThreshold != nil && score < *scoreThreshold {
			continue
		}
		hits = append(hits, Hit{ID: p.ID, Score: score, Payload: p.Payload})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (m *memStore) Scroll(ctx context.Context, name string, filter map[string]string, limit int) ([]Point, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Point, 0)
	for _, p := range m.points[name] {
		if matchesFilter(p, filter) {
			out = append(out, p)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) Count(ctx context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.points[name])), nil
}

func (m *memStore) Info(ctx context.Context, name string) (*CollectionInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &CollectionInfo{Name: name, Dimension: m.collections[name], PointCount: int64(len(m.points[name]))}, nil
}

func matchesFilter(p Point, filter map[string]string) bool {
	for k, v := range filter {
		if fmt.Sprintf("%v", p.Payload[k]) != v {
			return false
		}
	}
	return true
}

func cosineSim(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (sqrt(na) * sqrt(nb)))
}

func sqrt(x float64) float64 {
	if x == 0 {
		return 0
	}
	z := x
	for i := 0; i < 20; i++ {
		z -= (z*z - x) / (2 * z)
	}
	return z
}
