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

const episodicCollection = "episodic"

// EpisodicStore is the append-only log of completed tasks, with
// secondary indices on agent, outcome, and time.
type EpisodicStore struct {
	mu       sync.RWMutex
	kv       store.KvStore
	vectors  store.VectorStore
	metrics  *metrics.Metrics
	service  string
	episodes map[string]*domain.Episode
	byAgent  map[string][]string
	byOut    map[domain.Outcome][]string
}

// NewEpisodicStore creates an EpisodicStore. vectors may be nil, in
// which case embedding-similarity recall degrades to text-only scoring.
func NewEpisodicStore(kv store.KvStore, vectors store.VectorStore, m *metrics.Metrics, service string) *EpisodicStore {
	return &EpisodicStore{
		kv:       kv,
		vectors:  vectors,
		metrics:  m,
		service:  service,
		episodes: make(map[string]*domain.Episode),
		byAgent:  make(map[string][]string),
		byOut:    make(map[domain.Outcome][]string),
	}
}

// Append records a new episode.
func (s *EpisodicStore) Append(ctx context.Context, ep domain.Episode) error {
	if ep.ID == "" {
		return svcerrors.InvalidInput("id", "must not be empty")
	}
	if ep.CreatedAt.IsZero() {
		ep.CreatedAt = time.Now()
	}

	raw, err := json.Marshal(ep)
	if err != nil {
		return svcerrors.Internal("marshal episode", err)
	}
	if s.kv != nil {
		if err := s.kv.Put(ctx, "episode:"+ep.ID, raw); err != nil {
			return svcerrors.Wrap(svcerrors.KindBackend, "persist episode", err)
		}
	}
	if s.vectors != nil && len(ep.Embedding) > 0 {
		if err := s.vectors.Upsert(ctx, episodicCollection, store.VectorRecord{ID: ep.ID, Embedding: ep.Embedding}); err != nil {
			return svcerrors.Wrap(svcerrors.KindBackend, "index episode embedding", err)
		}
	}

	s.mu.Lock()
	cp := ep
	s.episodes[ep.ID] = &cp
	s.byAgent[ep.AgentID] = append(s.byAgent[ep.AgentID], ep.ID)
	s.byOut[ep.Outcome] = append(s.byOut[ep.Outcome], ep.ID)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordMemoryWrite(s.service, "episodic")
	}
	return nil
}

// ByOutcome returns up to limit episodes with the given outcome,
// newest first.
func (s *EpisodicStore) ByOutcome(outcome domain.Outcome, limit int) []domain.Episode {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byOut[outcome]
	result := make([]domain.Episode, 0, len(ids))
	for _, id := range ids {
		if ep, ok := s.episodes[id]; ok {
			result = append(result, *ep)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// Get returns a single episode by id.
func (s *EpisodicStore) Get(id string) (domain.Episode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ep, ok := s.episodes[id]
	if !ok {
		return domain.Episode{}, false
	}
	return *ep, true
}

// All returns every retained episode, in no particular order.
func (s *EpisodicStore) All() []domain.Episode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Episode, 0, len(s.episodes))
	for _, ep := range s.episodes {
		result = append(result, *ep)
	}
	return result
}

// Recall ranks episodes against a query embedding by combined
// similarity (cosine) and relevance (recency + outcome success).
func (s *EpisodicStore) Recall(ctx context.Context, embedding []float32, limit int) ([]domain.SearchResult[domain.Episode], error) {
	if s.vectors != nil && len(embedding) > 0 {
		matches, err := s.vectors.Search(ctx, episodicCollection, embedding, limit)
		if err != nil {
			return nil, svcerrors.Wrap(svcerrors.KindBackend, "search episodic vectors", err)
		}
		results := make([]domain.SearchResult[domain.Episode], 0, len(matches))
		for _, m := range matches {
			ep, ok := s.Get(m.ID)
			if !ok {
				continue
			}
			rel := s.relevance(ep)
			results = append(results, domain.SearchResult[domain.Episode]{Item: ep, SimilarityScore: m.Score, RelevanceScore: rel})
		}
		sort.Slice(results, func(i, j int) bool {
			return domain.CombinedScore(results[i].RelevanceScore, results[i].SimilarityScore) >
				domain.CombinedScore(results[j].RelevanceScore, results[j].SimilarityScore)
		})
		return results, nil
	}

	// No vector index: fall back to scanning with in-process cosine
	// similarity against whatever episodes carry an embedding.
	s.mu.RLock()
	candidates := make([]*domain.Episode, 0, len(s.episodes))
	for _, ep := range s.episodes {
		candidates = append(candidates, ep)
	}
	s.mu.RUnlock()

	results := make([]domain.SearchResult[domain.Episode], 0, len(candidates))
	for _, ep := range candidates {
		sim := cosineSimilarity(embedding, ep.Embedding)
		results = append(results, domain.SearchResult[domain.Episode]{Item: *ep, SimilarityScore: sim, RelevanceScore: s.relevance(*ep)})
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

// relevance combines recency and outcome success into a [0,1] score.
func (s *EpisodicStore) relevance(ep domain.Episode) float64 {
	age := time.Since(ep.CreatedAt)
	recency := 1.0 / (1.0 + age.Hours()/24.0)
	outcomeScore := 0.5
	switch ep.Outcome {
	case domain.OutcomeSuccess:
		outcomeScore = 1.0
	case domain.OutcomePartial:
		outcomeScore = 0.5
	case domain.OutcomeFailure:
		outcomeScore = 0.1
	}
	return 0.5*recency + 0.5*outcomeScore
}

// Forget removes episodes below minImportance whose age exceeds ttl.
// Returns the number of episodes removed.
func (s *EpisodicStore) Forget(ctx context.Context, ttl time.Duration, minImportance float64) (int, error) {
	s.mu.Lock()
	var toRemove []string
	for id, ep := range s.episodes {
		if time.Since(ep.CreatedAt) <= ttl {
			continue
		}
		if s.relevance(*ep) >= minImportance {
			continue
		}
		toRemove = append(toRemove, id)
	}
	for _, id := range toRemove {
		ep := s.episodes[id]
		delete(s.episodes, id)
		s.byAgent[ep.AgentID] = removeID(s.byAgent[ep.AgentID], id)
		s.byOut[ep.Outcome] = removeID(s.byOut[ep.Outcome], id)
	}
	s.mu.Unlock()

	for _, id := range toRemove {
		if s.kv != nil {
			if err := s.kv.Delete(ctx, "episode:"+id); err != nil {
				return len(toRemove), svcerrors.Wrap(svcerrors.KindBackend, "forget episode", err)
			}
		}
		if s.vectors != nil {
			_ = s.vectors.Delete(ctx, episodicCollection, id)
		}
	}
	return len(toRemove), nil
}

func removeID(ids []string, target string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}
