package memory

import (
	"context"
	"testing"

	domain "github.com/R3E-Network/agentsvc/domain/memory"
	memstore "github.com/R3E-Network/agentsvc/store/memory"
)

func newTestSubsystem() *Subsystem {
	return NewSubsystem(memstore.NewKvStore(), memstore.NewVectorStore(), nil, "test")
}

func TestSubsystem_SearchAllCombinesAndSorts(t *testing.T) {
	s := newTestSubsystem()
	ctx := context.Background()

	s.Episodic.Append(ctx, domain.Episode{ID: "e1", Outcome: domain.OutcomeSuccess, Embedding: []float32{1, 0}})
	s.Semantic.Upsert(ctx, domain.SemanticUnit{ID: "u1", QualifiedName: "pkg.A", Embedding: []float32{1, 0}})
	s.Procedural.Promote(ctx, domain.LearnedPattern{ID: "p1", Embedding: []float32{1, 0}})

	results, err := s.SearchAll(ctx, []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("SearchAll failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 unified results, got %d", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i-1].CombinedScore() < results[i].CombinedScore() {
			t.Fatalf("results not sorted by combined score: %+v", results)
		}
	}
}

func TestSubsystem_SearchAllTruncatesToLimit(t *testing.T) {
	s := newTestSubsystem()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		s.Episodic.Append(ctx, domain.Episode{ID: string(rune('a' + i)), Outcome: domain.OutcomeSuccess, Embedding: []float32{1, 0}})
	}

	results, err := s.SearchAll(ctx, []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("SearchAll failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected results truncated to 2, got %d", len(results))
	}
}

func TestSubsystem_FindRelatedEpisodesExcludesSource(t *testing.T) {
	s := newTestSubsystem()
	ctx := context.Background()
	s.Episodic.Append(ctx, domain.Episode{ID: "src", Outcome: domain.OutcomeSuccess, Embedding: []float32{1, 0}})
	s.Episodic.Append(ctx, domain.Episode{ID: "rel", Outcome: domain.OutcomeSuccess, Embedding: []float32{1, 0}})

	related, err := s.FindRelatedEpisodes(ctx, "src", 10)
	if err != nil {
		t.Fatalf("FindRelatedEpisodes failed: %v", err)
	}
	for _, r := range related {
		if r.Item.ID == "src" {
			t.Fatal("expected source episode to be excluded")
		}
	}
}

func TestSubsystem_GetUnitContext(t *testing.T) {
	s := newTestSubsystem()
	ctx := context.Background()
	s.Semantic.Upsert(ctx, domain.SemanticUnit{ID: "u1", QualifiedName: "pkg.A", Embedding: []float32{1, 0}})
	s.Episodic.Append(ctx, domain.Episode{ID: "e1", Outcome: domain.OutcomeSuccess, Embedding: []float32{1, 0}})

	uc, err := s.GetUnitContext(ctx, "pkg.A", 10)
	if err != nil {
		t.Fatalf("GetUnitContext failed: %v", err)
	}
	if uc == nil {
		t.Fatal("expected a unit context")
	}
	if uc.Unit.ID != "u1" {
		t.Fatalf("unexpected unit: %+v", uc.Unit)
	}
	if len(uc.Episodes) != 1 {
		t.Fatalf("expected 1 related episode, got %d", len(uc.Episodes))
	}
}

func TestSubsystem_GetUnitContextMissingUnit(t *testing.T) {
	s := newTestSubsystem()
	uc, err := s.GetUnitContext(context.Background(), "nonexistent", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if uc != nil {
		t.Fatal("expected nil context for missing unit")
	}
}
