package blobstore

import (
	"context"

	"github.com/R3E-Network/agentsvc/internal/metrics"
)

// Instrumented wraps a *MemoryBlobStore and records Prometheus counters
// for hits, misses, puts and evictions under the given service label.
type Instrumented struct {
	store   *MemoryBlobStore
	metrics *metrics.Metrics
	service string
}

// NewInstrumented wraps store to record m's blob cache counters.
func NewInstrumented(store *MemoryBlobStore, m *metrics.Metrics, service string) *Instrumented {
	return &Instrumented{store: store, metrics: m, service: service}
}

func (i *Instrumented) Get(ctx context.Context, hash string) ([]byte, bool) {
	content, ok := i.store.Get(ctx, hash)
	if ok {
		i.metrics.RecordBlobCacheHit(i.service)
	} else {
		i.metrics.RecordBlobCacheMiss(i.service)
	}
	return content, ok
}

func (i *Instrumented) Put(ctx context.Context, content []byte) (string, []byte) {
	hash, stored := i.store.Put(ctx, content)
	i.metrics.RecordBlobPut(i.service)
	i.metrics.BlobCacheBytes.Set(float64(i.store.Stats().SizeBytes))
	return hash, stored
}

func (i *Instrumented) Acquire(ctx context.Context, hash string) ([]byte, func(), bool) {
	content, release, ok := i.store.Acquire(ctx, hash)
	if ok {
		i.metrics.RecordBlobCacheHit(i.service)
	} else {
		i.metrics.RecordBlobCacheMiss(i.service)
	}
	return content, release, ok
}

func (i *Instrumented) Remove(ctx context.Context, hash string) {
	before := i.store.Stats().Entries
	i.store.Remove(ctx, hash)
	if i.store.Stats().Entries < before {
		i.metrics.RecordBlobEviction(i.service, "manual")
	}
	i.metrics.BlobCacheBytes.Set(float64(i.store.Stats().SizeBytes))
}

func (i *Instrumented) Stats() Stats {
	return i.store.Stats()
}
