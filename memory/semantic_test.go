package memory

import (
	"context"
	"testing"

	domain "github.com/R3E-Network/agentsvc/domain/memory"
	memstore "github.com/R3E-Network/agentsvc/store/memory"
)

func newTestSemantic() *SemanticStore {
	return NewSemanticStore(memstore.NewKvStore(), memstore.NewVectorStore(), nil, "test")
}

func TestSemanticStore_UpsertAndByQualifiedName(t *testing.T) {
	s := newTestSemantic()
	ctx := context.Background()

	u := domain.SemanticUnit{ID: "u1", QualifiedName: "pkg.Foo", FilePath: "pkg/foo.go"}
	if err := s.Upsert(ctx, u); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, ok := s.ByQualifiedName("pkg.Foo")
	if !ok {
		t.Fatal("expected unit to be found")
	}
	if got.FilePath != "pkg/foo.go" {
		t.Fatalf("unexpected unit: %+v", got)
	}
}

func TestSemanticStore_ByFilePath(t *testing.T) {
	s := newTestSemantic()
	ctx := context.Background()
	s.Upsert(ctx, domain.SemanticUnit{ID: "u1", QualifiedName: "pkg.A", FilePath: "pkg/f.go"})
	s.Upsert(ctx, domain.SemanticUnit{ID: "u2", QualifiedName: "pkg.B", FilePath: "pkg/f.go"})

	units := s.ByFilePath("pkg/f.go")
	if len(units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(units))
	}
}

func TestSemanticStore_RemoveClearsIndices(t *testing.T) {
	s := newTestSemantic()
	ctx := context.Background()
	s.Upsert(ctx, domain.SemanticUnit{ID: "u1", QualifiedName: "pkg.A", FilePath: "pkg/f.go"})

	if err := s.Remove(ctx, "u1"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, ok := s.ByQualifiedName("pkg.A"); ok {
		t.Fatal("expected qualified name index to be cleared")
	}
	if units := s.ByFilePath("pkg/f.go"); len(units) != 0 {
		t.Fatalf("expected file index to be cleared, got %v", units)
	}
}

func TestSemanticStore_UpsertMovesFileIndexOnPathChange(t *testing.T) {
	s := newTestSemantic()
	ctx := context.Background()
	s.Upsert(ctx, domain.SemanticUnit{ID: "u1", QualifiedName: "pkg.A", FilePath: "old.go"})
	s.Upsert(ctx, domain.SemanticUnit{ID: "u1", QualifiedName: "pkg.A", FilePath: "new.go"})

	if units := s.ByFilePath("old.go"); len(units) != 0 {
		t.Fatalf("expected old path index to be cleared, got %v", units)
	}
	if units := s.ByFilePath("new.go"); len(units) != 1 {
		t.Fatalf("expected new path index to have 1 unit, got %d", len(units))
	}
}

func TestSemanticStore_RecallRanksBySimilarity(t *testing.T) {
	s := newTestSemantic()
	ctx := context.Background()
	s.Upsert(ctx, domain.SemanticUnit{ID: "u1", QualifiedName: "pkg.A", Embedding: []float32{1, 0}})
	s.Upsert(ctx, domain.SemanticUnit{ID: "u2", QualifiedName: "pkg.B", Embedding: []float32{0, 1}})

	results, err := s.Recall(ctx, []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("Recall failed: %v", err)
	}
	if len(results) == 0 || results[0].Item.ID != "u1" {
		t.Fatalf("expected u1 to rank first, got %+v", results)
	}
}
