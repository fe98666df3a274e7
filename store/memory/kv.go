// Package memory provides the default in-memory KvStore/GraphStore/VectorStore
// implementations used when no external persistence is configured — the
// single-process, pluggable-storage default the platform is specified
// around.
package memory

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/R3E-Network/agentsvc/store"
)

// KvStore is a goroutine-safe in-memory implementation of store.KvStore.
type KvStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewKvStore returns an empty in-memory KvStore.
func NewKvStore() *KvStore {
	return &KvStore{data: make(map[string][]byte)}
}

func (s *KvStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *KvStore) Put(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	s.data[key] = cp
	return nil
}

func (s *KvStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *KvStore) List(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *KvStore) CompareAndSwap(ctx context.Context, key string, oldValue, newValue []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.data[key]
	if oldValue == nil {
		if exists {
			return false, nil
		}
	} else if !exists || !bytes.Equal(current, oldValue) {
		return false, nil
	}

	cp := make([]byte, len(newValue))
	copy(cp, newValue)
	s.data[key] = cp
	return true, nil
}

func (s *KvStore) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string][]byte)
	return nil
}
