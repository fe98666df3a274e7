package agents

import (
	"testing"

	domain "github.com/R3E-Network/agentsvc/domain/agent"
)

func TestMatcher_FindCapable(t *testing.T) {
	m := NewMatcher()
	m.Register("a1", []domain.Capability{domain.CapCodeGeneration, domain.CapTesting})
	m.Register("a2", []domain.Capability{domain.CapDocumentation})

	capable := m.FindCapable([]domain.Capability{domain.CapCodeGeneration})
	if len(capable) != 1 || capable[0] != "a1" {
		t.Fatalf("expected only a1, got %v", capable)
	}
}

func TestMatcher_FindBestPrefersFewerExtras(t *testing.T) {
	m := NewMatcher()
	m.Register("specialist", []domain.Capability{domain.CapCodeGeneration})
	m.Register("generalist", []domain.Capability{domain.CapCodeGeneration, domain.CapTesting, domain.CapDocumentation})

	best, ok := m.FindBest([]domain.Capability{domain.CapCodeGeneration})
	if !ok {
		t.Fatal("expected a best match")
	}
	if best != "specialist" {
		t.Fatalf("expected the closest specialist to win, got %s", best)
	}
}

func TestMatcher_FindBestNoneQualify(t *testing.T) {
	m := NewMatcher()
	m.Register("a1", []domain.Capability{domain.CapDocumentation})

	if _, ok := m.FindBest([]domain.Capability{domain.CapCodeGeneration}); ok {
		t.Fatal("expected no agent to qualify")
	}
}

func TestMatcher_Score(t *testing.T) {
	m := NewMatcher()
	m.Register("a1", []domain.Capability{domain.CapCodeGeneration, domain.CapTesting})

	score := m.Score("a1", []domain.Capability{domain.CapCodeGeneration, domain.CapDocumentation})
	if score != 0.5 {
		t.Fatalf("expected score 0.5, got %f", score)
	}
}

func TestMatcher_ScoreUnknownAgent(t *testing.T) {
	m := NewMatcher()
	if score := m.Score("ghost", []domain.Capability{domain.CapTesting}); score != 0 {
		t.Fatalf("expected 0 score for unknown agent, got %f", score)
	}
}

func TestMatcher_AgentsByCategory(t *testing.T) {
	m := NewMatcher()
	m.Register("a1", []domain.Capability{domain.CapCodeGeneration})
	m.Register("a2", []domain.Capability{domain.CapTesting})

	coders := m.AgentsByCategory(domain.CategoryCode)
	if len(coders) != 1 || coders[0] != "a1" {
		t.Fatalf("expected only a1 in category code, got %v", coders)
	}
}
