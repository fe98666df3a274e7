// Package blobstore implements content-addressed blob storage: the
// content store and cache component backing workspace file bodies.
package blobstore

import (
	"container/list"
	"context"
	"encoding/hex"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"
)

// Hash returns the content-addressed key for content: a hex-encoded
// blake2b-256 digest.
func Hash(content []byte) string {
	sum := blake2b.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Puts      uint64
	Evictions uint64
	SizeBytes int64
	Entries   int
}

type entry struct {
	hash     string
	content  []byte
	size     int64
	refs     int
	putAt    time.Time
	lruEl    *list.Element
}

// MemoryBlobStore is an in-memory, byte-budgeted LRU cache of
// content-addressed blobs with TTL-based lazy expiry and reference
// counting: a blob pinned by an in-flight Acquire survives eviction
// pressure until released.
type MemoryBlobStore struct {
	mu       sync.Mutex
	entries  map[string]*entry
	lru      *list.List
	maxBytes int64
	curBytes int64
	ttl      time.Duration

	hits, misses, puts, evictions uint64
}

// Option configures a MemoryBlobStore.
type Option func(*MemoryBlobStore)

// WithTTL sets a time-to-live for entries. Expiry is checked lazily on
// Get, matching the teacher cache's cleanup_expired idiom but without a
// background sweep.
func WithTTL(ttl time.Duration) Option {
	return func(s *MemoryBlobStore) { s.ttl = ttl }
}

// NewMemoryBlobStore creates a cache capped at maxBytes.
func NewMemoryBlobStore(maxBytes int64, opts ...Option) *MemoryBlobStore {
	s := &MemoryBlobStore{
		entries:  make(map[string]*entry),
		lru:      list.New(),
		maxBytes: maxBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the blob for hash, or (nil, false) on miss or expiry.
func (s *MemoryBlobStore) Get(ctx context.Context, hash string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[hash]
	if !ok {
		s.misses++
		return nil, false
	}
	if s.ttl > 0 && time.Since(e.putAt) > s.ttl {
		s.removeLocked(e)
		s.misses++
		return nil, false
	}

	s.lru.MoveToBack(e.lruEl)
	s.hits++
	return e.content, true
}

// Put stores content under its content hash and returns the hash and
// the stored (possibly already-present) bytes.
func (s *MemoryBlobStore) Put(ctx context.Context, content []byte) (string, []byte) {
	hash := Hash(content)

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[hash]; ok {
		s.lru.MoveToBack(e.lruEl)
		s.puts++
		return hash, e.content
	}

	s.evictIfNeededLocked(int64(len(content)))

	e := &entry{hash: hash, content: content, size: int64(len(content)), putAt: time.Now()}
	e.lruEl = s.lru.PushBack(e)
	s.entries[hash] = e
	s.curBytes += e.size
	s.puts++

	return hash, content
}

// Acquire pins a blob against eviction until the returned release
// function is called. Use for content handed to a caller that will
// read it over a longer operation (e.g. materialization).
func (s *MemoryBlobStore) Acquire(ctx context.Context, hash string) ([]byte, func(), bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[hash]
	if !ok {
		s.misses++
		return nil, nil, false
	}
	if s.ttl > 0 && time.Since(e.putAt) > s.ttl {
		s.removeLocked(e)
		s.misses++
		return nil, nil, false
	}

	e.refs++
	s.lru.MoveToBack(e.lruEl)
	s.hits++

	released := false
	release := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if released {
			return
		}
		released = true
		if e.refs > 0 {
			e.refs--
		}
	}
	return e.content, release, true
}

// Remove evicts a blob unconditionally, regardless of pin state.
func (s *MemoryBlobStore) Remove(ctx context.Context, hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[hash]; ok {
		s.removeLocked(e)
	}
}

// Stats returns a snapshot of cache counters.
func (s *MemoryBlobStore) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Hits:      s.hits,
		Misses:    s.misses,
		Puts:      s.puts,
		Evictions: s.evictions,
		SizeBytes: s.curBytes,
		Entries:   len(s.entries),
	}
}

func (s *MemoryBlobStore) removeLocked(e *entry) {
	s.lru.Remove(e.lruEl)
	delete(s.entries, e.hash)
	s.curBytes -= e.size
	s.evictions++
}

// evictIfNeededLocked frees space for an incoming blob of the given
// size, walking the LRU front-to-back and skipping pinned entries.
func (s *MemoryBlobStore) evictIfNeededLocked(needed int64) {
	if s.maxBytes <= 0 {
		return
	}
	el := s.lru.Front()
	for s.curBytes+needed > s.maxBytes && el != nil {
		next := el.Next()
		e := el.Value.(*entry)
		if e.refs == 0 {
			s.removeLocked(e)
		}
		el = next
	}
}
