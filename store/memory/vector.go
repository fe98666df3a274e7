package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/R3E-Network/agentsvc/store"
)

// VectorStore is a brute-force in-memory implementation of store.VectorStore.
// Cosine similarity over a linear scan is adequate at the scale a single
// process's memory subsystem operates at; an ANN index is not wired here
// since nothing in the corpus exercises one for this workload.
type VectorStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]store.VectorRecord
}

func NewVectorStore() *VectorStore {
	return &VectorStore{collections: make(map[string]map[string]store.VectorRecord)}
}

func (v *VectorStore) Upsert(ctx context.Context, collection string, record store.VectorRecord) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	c, ok := v.collections[collection]
	if !ok {
		c = make(map[string]store.VectorRecord)
		v.collections[collection] = c
	}
	c[record.ID] = record
	return nil
}

func (v *VectorStore) Delete(ctx context.Context, collection string, id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if c, ok := v.collections[collection]; ok {
		delete(c, id)
	}
	return nil
}

func (v *VectorStore) Search(ctx context.Context, collection string, query []float32, topK int) ([]store.VectorMatch, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	c := v.collections[collection]
	matches := make([]store.VectorMatch, 0, len(c))
	for _, rec := range c {
		matches = append(matches, store.VectorMatch{
			VectorRecord: rec,
			Score:        cosineSimilarity(query, rec.Embedding),
		})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (v *VectorStore) Close(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.collections = make(map[string]map[string]store.VectorRecord)
	return nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
