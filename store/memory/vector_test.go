package memory

import (
	"context"
	"testing"

	"github.com/R3E-Network/agentsvc/store"
)

func TestVectorStore_SearchRanksByCosineSimilarity(t *testing.T) {
	ctx := context.Background()
	v := NewVectorStore()

	_ = v.Upsert(ctx, "episodic", store.VectorRecord{ID: "exact", Embedding: []float32{1, 0, 0}})
	_ = v.Upsert(ctx, "episodic", store.VectorRecord{ID: "orthogonal", Embedding: []float32{0, 1, 0}})
	_ = v.Upsert(ctx, "episodic", store.VectorRecord{ID: "opposite", Embedding: []float32{-1, 0, 0}})

	matches, err := v.Search(ctx, "episodic", []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected topK=2 results, got %d", len(matches))
	}
	if matches[0].ID != "exact" {
		t.Fatalf("expected exact match to rank first, got %s", matches[0].ID)
	}
	if matches[0].Score < matches[1].Score {
		t.Fatalf("expected results sorted descending by score")
	}
}

func TestVectorStore_CollectionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	v := NewVectorStore()
	_ = v.Upsert(ctx, "episodic", store.VectorRecord{ID: "a", Embedding: []float32{1, 0}})

	matches, _ := v.Search(ctx, "semantic", []float32{1, 0}, 10)
	if len(matches) != 0 {
		t.Fatalf("expected no cross-collection matches, got %d", len(matches))
	}
}

func TestVectorStore_Delete(t *testing.T) {
	ctx := context.Background()
	v := NewVectorStore()
	_ = v.Upsert(ctx, "episodic", store.VectorRecord{ID: "a", Embedding: []float32{1, 0}})
	_ = v.Delete(ctx, "episodic", "a")

	matches, _ := v.Search(ctx, "episodic", []float32{1, 0}, 10)
	if len(matches) != 0 {
		t.Fatalf("expected record to be gone after delete, got %d", len(matches))
	}
}
