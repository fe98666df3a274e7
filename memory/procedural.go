package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	domain "github.com/R3E-Network/agentsvc/domain/memory"
	svcerrors "github.com/R3E-Network/agentsvc/internal/errors"
	"github.com/R3E-Network/agentsvc/internal/metrics"
	"github.com/R3E-Network/agentsvc/store"
)

const proceduralCollection = "procedural"

// ProceduralStore holds LearnedPatterns consolidated from episodes.
// Patterns are never evicted by the forgetting sweep.
type ProceduralStore struct {
	mu       sync.RWMutex
	kv       store.KvStore
	vectors  store.VectorStore
	metrics  *metrics.Metrics
	service  string
	patterns map[string]*domain.LearnedPattern
}

func NewProceduralStore(kv store.KvStore, vectors store.VectorStore, m *metrics.Metrics, service string) *ProceduralStore {
	return &ProceduralStore{
		kv:       kv,
		vectors:  vectors,
		metrics:  m,
		service:  service,
		patterns: make(map[string]*domain.LearnedPattern),
	}
}

// Promote stores a newly consolidated pattern.
func (s *ProceduralStore) Promote(ctx context.Context, p domain.LearnedPattern) error {
	if p.ID == "" {
		return svcerrors.InvalidInput("id", "must not be empty")
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return svcerrors.Internal("marshal pattern", err)
	}
	if s.kv != nil {
		if err := s.kv.Put(ctx, "pattern:"+p.ID, raw); err != nil {
			return svcerrors.Wrap(svcerrors.KindBackend, "persist pattern", err)
		}
	}
	if s.vectors != nil && len(p.Embedding) > 0 {
		if err := s.vectors.Upsert(ctx, proceduralCollection, store.VectorRecord{ID: p.ID, Embedding: p.Embedding}); err != nil {
			return svcerrors.Wrap(svcerrors.KindBackend, "index pattern embedding", err)
		}
	}

	s.mu.Lock()
	cp := p
	s.patterns[p.ID] = &cp
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordMemoryWrite(s.service, "procedural")
	}
	return nil
}

// All returns every retained pattern.
func (s *ProceduralStore) All() []domain.LearnedPattern {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.LearnedPattern, 0, len(s.patterns))
	for _, p := range s.patterns {
		result = append(result, *p)
	}
	return result
}

// MaxSimilarity returns the highest cosine similarity between embedding
// and any existing pattern, or 0 if there are none.
func (s *ProceduralStore) MaxSimilarity(embedding []float32) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best float64
	for _, p := range s.patterns {
		if sim := cosineSimilarity(embedding, p.Embedding); sim > best {
			best = sim
		}
	}
	return best
}

// Recall ranks patterns by similarity to embedding.
func (s *ProceduralStore) Recall(ctx context.Context, embedding []float32, limit int) ([]domain.SearchResult[domain.LearnedPattern], error) {
	if s.vectors != nil && len(embedding) > 0 {
		matches, err := s.vectors.Search(ctx, proceduralCollection, embedding, limit)
		if err != nil {
			return nil, svcerrors.Wrap(svcerrors.KindBackend, "search pattern vectors", err)
		}
		results := make([]domain.SearchResult[domain.LearnedPattern], 0, len(matches))
		for _, m := range matches {
			s.mu.RLock()
			p, ok := s.patterns[m.ID]
			s.mu.RUnlock()
			if !ok {
				continue
			}
			results = append(results, domain.SearchResult[domain.LearnedPattern]{Item: *p, SimilarityScore: m.Score, RelevanceScore: 1.0})
		}
		return results, nil
	}

	patterns := s.All()
	results := make([]domain.SearchResult[domain.LearnedPattern], 0, len(patterns))
	for _, p := range patterns {
		sim := cosineSimilarity(embedding, p.Embedding)
		results = append(results, domain.SearchResult[domain.LearnedPattern]{Item: p, SimilarityScore: sim, RelevanceScore: 1.0})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].SimilarityScore > results[j].SimilarityScore })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
