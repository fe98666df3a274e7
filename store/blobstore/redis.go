package blobstore

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/R3E-Network/agentsvc/internal/logging"
)

// RedisMirror decorates a MemoryBlobStore with a Redis-backed second
// tier: puts are mirrored to Redis so a fresh process can warm its
// in-memory cache from Redis on first read instead of refetching from
// the backend. Redis errors never surface to callers; they are
// logged, and the call falls back to memory-only
// behavior.
type RedisMirror struct {
	mem    *MemoryBlobStore
	client *redis.Client
	prefix string
	ttl    time.Duration
	log    *logging.Logger
}

// NewRedisMirror wraps mem with a Redis client. namespace prefixes every
// key Redis sees, so multiple services can share a cluster.
func NewRedisMirror(mem *MemoryBlobStore, client *redis.Client, namespace string, ttl time.Duration, log *logging.Logger) *RedisMirror {
	if log == nil {
		log = logging.Default()
	}
	return &RedisMirror{mem: mem, client: client, prefix: namespace + ":", ttl: ttl, log: log}
}

func (r *RedisMirror) key(hash string) string { return r.prefix + hash }

// Get checks memory first, then Redis on miss, warming memory from
// whatever Redis returns.
func (r *RedisMirror) Get(ctx context.Context, hash string) ([]byte, bool) {
	if content, ok := r.mem.Get(ctx, hash); ok {
		return content, true
	}

	content, err := r.client.Get(ctx, r.key(hash)).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.log.Warn(ctx, "blob redis mirror get failed, falling back to miss", map[string]interface{}{
				"hash": hash, "error": err.Error(),
			})
		}
		return nil, false
	}

	_, stored := r.mem.Put(ctx, content)
	return stored, true
}

// Put writes through to memory, then mirrors to Redis best-effort.
func (r *RedisMirror) Put(ctx context.Context, content []byte) (string, []byte) {
	hash, stored := r.mem.Put(ctx, content)

	if err := r.client.Set(ctx, r.key(hash), stored, r.ttl).Err(); err != nil {
		r.log.Warn(ctx, "blob redis mirror put failed, continuing with memory-only cache", map[string]interface{}{
			"hash": hash, "error": err.Error(),
		})
	}

	return hash, stored
}

// Remove deletes from memory and best-effort from Redis.
func (r *RedisMirror) Remove(ctx context.Context, hash string) {
	r.mem.Remove(ctx, hash)
	if err := r.client.Del(ctx, r.key(hash)).Err(); err != nil {
		r.log.Warn(ctx, "blob redis mirror delete failed", map[string]interface{}{
			"hash": hash, "error": err.Error(),
		})
	}
}

func (r *RedisMirror) Stats() Stats {
	return r.mem.Stats()
}
