package memory

import (
	"context"
	"sort"

	domain "github.com/R3E-Network/agentsvc/domain/memory"
	"github.com/R3E-Network/agentsvc/internal/metrics"
	"github.com/R3E-Network/agentsvc/store"
)

// ResultKind identifies which store a UnifiedResult came from.
type ResultKind string

const (
	ResultEpisode ResultKind = "episode"
	ResultUnit    ResultKind = "unit"
	ResultPattern ResultKind = "pattern"
)

// UnifiedResult is one hit from a cross-memory search_all call.
type UnifiedResult struct {
	Kind            ResultKind
	Episode         *domain.Episode
	Unit            *domain.SemanticUnit
	Pattern         *domain.LearnedPattern
	SimilarityScore float64
	RelevanceScore  float64
}

// CombinedScore implements the same 0.6*relevance + 0.4*similarity
// ranking formula as domain.CombinedScore.
func (r UnifiedResult) CombinedScore() float64 {
	return domain.CombinedScore(r.RelevanceScore, r.SimilarityScore)
}

// Subsystem is the unified facade over the three memory stores.
type Subsystem struct {
	Episodic   *EpisodicStore
	Semantic   *SemanticStore
	Procedural *ProceduralStore
	metrics    *metrics.Metrics
	service    string
}

// NewSubsystem wires the three stores to a shared kv/vector backing and
// metrics sink.
func NewSubsystem(kv store.KvStore, vectors store.VectorStore, m *metrics.Metrics, service string) *Subsystem {
	return &Subsystem{
		Episodic:   NewEpisodicStore(kv, vectors, m, service),
		Semantic:   NewSemanticStore(kv, vectors, m, service),
		Procedural: NewProceduralStore(kv, vectors, m, service),
		metrics:    m,
		service:    service,
	}
}

// SearchAll runs all three stores and returns their combined results
// sorted by 0.6*relevance + 0.4*similarity, truncated to limit.
func (s *Subsystem) SearchAll(ctx context.Context, embedding []float32, limit int) ([]UnifiedResult, error) {
	var results []UnifiedResult

	if episodes, err := s.Episodic.Recall(ctx, embedding, limit); err == nil {
		for _, r := range episodes {
			ep := r.Item
			results = append(results, UnifiedResult{Kind: ResultEpisode, Episode: &ep, SimilarityScore: r.SimilarityScore, RelevanceScore: r.RelevanceScore})
		}
	}
	if units, err := s.Semantic.Recall(ctx, embedding, limit); err == nil {
		for _, r := range units {
			u := r.Item
			results = append(results, UnifiedResult{Kind: ResultUnit, Unit: &u, SimilarityScore: r.SimilarityScore, RelevanceScore: r.RelevanceScore})
		}
	}
	if patterns, err := s.Procedural.Recall(ctx, embedding, limit); err == nil {
		for _, r := range patterns {
			p := r.Item
			results = append(results, UnifiedResult{Kind: ResultPattern, Pattern: &p, SimilarityScore: r.SimilarityScore, RelevanceScore: r.RelevanceScore})
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].CombinedScore() > results[j].CombinedScore() })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// FindRelatedEpisodes returns episodes similar to the given source
// episode's embedding, excluding the source itself.
func (s *Subsystem) FindRelatedEpisodes(ctx context.Context, sourceID string, limit int) ([]domain.SearchResult[domain.Episode], error) {
	src, ok := s.Episodic.Get(sourceID)
	if !ok {
		return nil, nil
	}
	results, err := s.Episodic.Recall(ctx, src.Embedding, limit+1)
	if err != nil {
		return nil, err
	}
	filtered := results[:0]
	for _, r := range results {
		if r.Item.ID == sourceID {
			continue
		}
		filtered = append(filtered, r)
	}
	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

// FindRelatedCode returns semantic units similar to a query embedding.
func (s *Subsystem) FindRelatedCode(ctx context.Context, embedding []float32, limit int) ([]domain.SearchResult[domain.SemanticUnit], error) {
	return s.Semantic.Recall(ctx, embedding, limit)
}

// FindApplicablePatterns returns learned patterns similar to a query
// embedding, typically the embedding of a task about to be executed.
func (s *Subsystem) FindApplicablePatterns(ctx context.Context, embedding []float32, limit int) ([]domain.SearchResult[domain.LearnedPattern], error) {
	return s.Procedural.Recall(ctx, embedding, limit)
}

// UnitContext bundles a semantic unit with the episodes and patterns
// most relevant to it, for presenting "everything known" about a unit.
type UnitContext struct {
	Unit     domain.SemanticUnit
	Episodes []domain.SearchResult[domain.Episode]
	Patterns []domain.SearchResult[domain.LearnedPattern]
}

// GetUnitContext assembles a UnitContext for the unit with the given
// qualified name.
func (s *Subsystem) GetUnitContext(ctx context.Context, qualifiedName string, limit int) (*UnitContext, error) {
	unit, ok := s.Semantic.ByQualifiedName(qualifiedName)
	if !ok {
		return nil, nil
	}
	episodes, err := s.Episodic.Recall(ctx, unit.Embedding, limit)
	if err != nil {
		return nil, err
	}
	patterns, err := s.Procedural.Recall(ctx, unit.Embedding, limit)
	if err != nil {
		return nil, err
	}
	return &UnitContext{Unit: unit, Episodes: episodes, Patterns: patterns}, nil
}
