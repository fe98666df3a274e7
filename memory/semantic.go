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

const semanticCollection = "semantic"

// SemanticStore holds CodeUnit-shaped records queryable by qualified
// name, file path, or embedding similarity.
type SemanticStore struct {
	mu          sync.RWMutex
	kv          store.KvStore
	vectors     store.VectorStore
	metrics     *metrics.Metrics
	service     string
	units       map[string]*domain.SemanticUnit
	byQualified map[string]string
	byFile      map[string][]string
}

func NewSemanticStore(kv store.KvStore, vectors store.VectorStore, m *metrics.Metrics, service string) *SemanticStore {
	return &SemanticStore{
		kv:          kv,
		vectors:     vectors,
		metrics:     m,
		service:     service,
		units:       make(map[string]*domain.SemanticUnit),
		byQualified: make(map[string]string),
		byFile:      make(map[string][]string),
	}
}

// Upsert inserts or replaces a semantic unit.
func (s *SemanticStore) Upsert(ctx context.Context, u domain.SemanticUnit) error {
	if u.ID == "" {
		return svcerrors.InvalidInput("id", "must not be empty")
	}
	u.UpdatedAt = time.Now()

	raw, err := json.Marshal(u)
	if err != nil {
		return svcerrors.Internal("marshal semantic unit", err)
	}
	if s.kv != nil {
		if err := s.kv.Put(ctx, "semantic:"+u.ID, raw); err != nil {
			return svcerrors.Wrap(svcerrors.KindBackend, "persist semantic unit", err)
		}
	}
	if s.vectors != nil && len(u.Embedding) > 0 {
		if err := s.vectors.Upsert(ctx, semanticCollection, store.VectorRecord{ID: u.ID, Embedding: u.Embedding}); err != nil {
			return svcerrors.Wrap(svcerrors.KindBackend, "index semantic embedding", err)
		}
	}

	s.mu.Lock()
	if old, ok := s.units[u.ID]; ok {
		s.byFile[old.FilePath] = removeID(s.byFile[old.FilePath], u.ID)
	}
	cp := u
	s.units[u.ID] = &cp
	s.byQualified[u.QualifiedName] = u.ID
	s.byFile[u.FilePath] = append(s.byFile[u.FilePath], u.ID)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordMemoryWrite(s.service, "semantic")
	}
	return nil
}

// Remove deletes a unit by id.
func (s *SemanticStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	u, ok := s.units[id]
	if ok {
		delete(s.units, id)
		if s.byQualified[u.QualifiedName] == id {
			delete(s.byQualified, u.QualifiedName)
		}
		s.byFile[u.FilePath] = removeID(s.byFile[u.FilePath], id)
	}
	s.mu.Unlock()
	if !ok {
		return nil
	}
	if s.kv != nil {
		if err := s.kv.Delete(ctx, "semantic:"+id); err != nil {
			return svcerrors.Wrap(svcerrors.KindBackend, "remove semantic unit", err)
		}
	}
	if s.vectors != nil {
		_ = s.vectors.Delete(ctx, semanticCollection, id)
	}
	return nil
}

// ByQualifiedName looks up a unit by its fully-qualified name.
func (s *SemanticStore) ByQualifiedName(name string) (domain.SemanticUnit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byQualified[name]
	if !ok {
		return domain.SemanticUnit{}, false
	}
	u, ok := s.units[id]
	if !ok {
		return domain.SemanticUnit{}, false
	}
	return *u, true
}

// ByFilePath returns every unit known for a file.
func (s *SemanticStore) ByFilePath(path string) []domain.SemanticUnit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byFile[path]
	result := make([]domain.SemanticUnit, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.units[id]; ok {
			result = append(result, *u)
		}
	}
	return result
}

// Recall ranks semantic units by similarity to embedding, combined with
// a recency-based relevance score.
func (s *SemanticStore) Recall(ctx context.Context, embedding []float32, limit int) ([]domain.SearchResult[domain.SemanticUnit], error) {
	if s.vectors != nil && len(embedding) > 0 {
		matches, err := s.vectors.Search(ctx, semanticCollection, embedding, limit)
		if err != nil {
			return nil, svcerrors.Wrap(svcerrors.KindBackend, "search semantic vectors", err)
		}
		results := make([]domain.SearchResult[domain.SemanticUnit], 0, len(matches))
		for _, m := range matches {
			s.mu.RLock()
			u, ok := s.units[m.ID]
			s.mu.RUnlock()
			if !ok {
				continue
			}
			results = append(results, domain.SearchResult[domain.SemanticUnit]{Item: *u, SimilarityScore: m.Score, RelevanceScore: s.relevance(*u)})
		}
		sort.Slice(results, func(i, j int) bool {
			return domain.CombinedScore(results[i].RelevanceScore, results[i].SimilarityScore) >
				domain.CombinedScore(results[j].RelevanceScore, results[j].SimilarityScore)
		})
		return results, nil
	}

	s.mu.RLock()
	candidates := make([]*domain.SemanticUnit, 0, len(s.units))
	for _, u := range s.units {
		candidates = append(candidates, u)
	}
	s.mu.RUnlock()

	results := make([]domain.SearchResult[domain.SemanticUnit], 0, len(candidates))
	for _, u := range candidates {
		sim := cosineSimilarity(embedding, u.Embedding)
		results = append(results, domain.SearchResult[domain.SemanticUnit]{Item: *u, SimilarityScore: sim, RelevanceScore: s.relevance(*u)})
	}
	sort.Slice(results, func(i, j int) bool {
		return domain.CombinedScore(results[i].RelevanceScore, results[i].SimilarityScore) >
			domain.CombinedScore(results[j].RelevanceScore, results[j].SimilarityScore)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *SemanticStore) relevance(u domain.SemanticUnit) float64 {
	age := time.Since(u.UpdatedAt)
	return 1.0 / (1.0 + age.Hours()/24.0)
}
