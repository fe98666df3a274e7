package memory

import (
	"context"

	"github.com/google/uuid"

	domain "github.com/R3E-Network/agentsvc/domain/memory"
)

// DefaultConsolidationThreshold is the similarity below which a
// successful episode is considered a candidate for a new pattern
// rather than already covered by an existing one.
const DefaultConsolidationThreshold = 0.85

// Consolidate scans Success episodes whose similarity to every existing
// pattern is below threshold, clusters them by mutual similarity, and
// promotes each cluster's centroid to a new pattern. It is a pure
// function over the current snapshot and is idempotent: running it
// twice in a row without new episodes produces no new patterns, since
// the first run's promoted patterns raise MaxSimilarity above
// threshold for the episodes that formed them.
func (s *Subsystem) Consolidate(ctx context.Context, threshold float64) ([]domain.LearnedPattern, error) {
	if threshold <= 0 {
		threshold = DefaultConsolidationThreshold
	}

	successes := s.Episodic.ByOutcome(domain.OutcomeSuccess, 0)
	var candidates []domain.Episode
	for _, ep := range successes {
		if len(ep.Embedding) == 0 {
			continue
		}
		if s.Procedural.MaxSimilarity(ep.Embedding) >= threshold {
			continue
		}
		candidates = append(candidates, ep)
	}

	clusters := clusterBySimilarity(candidates, threshold)

	var promoted []domain.LearnedPattern
	for _, cluster := range clusters {
		centroid := centroidOf(cluster)
		ids := make([]string, len(cluster))
		for i, ep := range cluster {
			ids[i] = ep.ID
		}
		p := domain.LearnedPattern{
			ID:                    uuid.NewString(),
			Description:           cluster[0].TaskDescription,
			ApplicabilityCriteria: cluster[0].TaskDescription,
			Embedding:             centroid,
			SourceEpisodeIDs:      ids,
		}
		if err := s.Procedural.Promote(ctx, p); err != nil {
			return promoted, err
		}
		promoted = append(promoted, p)
	}

	if s.metrics != nil {
		s.metrics.MemoryConsolidationTotal.Inc()
	}
	return promoted, nil
}

// clusterBySimilarity greedily groups episodes: each episode joins the
// first existing cluster whose centroid is within threshold, otherwise
// starts a new cluster.
func clusterBySimilarity(episodes []domain.Episode, threshold float64) [][]domain.Episode {
	var clusters [][]domain.Episode
	for _, ep := range episodes {
		placed := false
		for i, cluster := range clusters {
			if cosineSimilarity(ep.Embedding, centroidOf(cluster)) >= threshold {
				clusters[i] = append(clusters[i], ep)
				placed = true
				break
			}
		}
		if !placed {
			clusters = append(clusters, []domain.Episode{ep})
		}
	}
	return clusters
}

func centroidOf(episodes []domain.Episode) []float32 {
	if len(episodes) == 0 {
		return nil
	}
	dims := len(episodes[0].Embedding)
	sum := make([]float64, dims)
	for _, ep := range episodes {
		for i, v := range ep.Embedding {
			if i < dims {
				sum[i] += float64(v)
			}
		}
	}
	centroid := make([]float32, dims)
	for i, v := range sum {
		centroid[i] = float32(v / float64(len(episodes)))
	}
	return centroid
}
