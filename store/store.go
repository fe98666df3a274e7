// Package store declares the pluggable persistence interfaces the core
// depends on. Exactly one concrete implementation of each is wired at
// startup (store/memory for a single process, store/postgres for durable
// multi-restart deployments); the rest of the codebase never imports a
// concrete backend directly.
package store

import (
	"context"
	"errors"
)

// KvStore persists opaque blobs and metadata records under string keys:
// VNode records, workflow/task state, session/lock records, agent
// registrations. Keys are caller-namespaced (e.g. "vnode:<workspace>:<path>").
type KvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
	// CompareAndSwap replaces key's value with newValue only if the current
	// value equals oldValue (oldValue == nil means "key must not exist").
	// It reports whether the swap happened.
	CompareAndSwap(ctx context.Context, key string, oldValue, newValue []byte) (bool, error)
	Close(ctx context.Context) error
}

// ErrNotFound is returned by KvStore.Get for a missing key.
var ErrNotFound = errors.New("not found")

// GraphNode is a dependency-graph vertex (mirrors a CodeUnit by id).
type GraphNode struct {
	ID          string
	WorkspaceID string
	Kind        string
	Metadata    map[string]string
}

// GraphEdge is a directed dependency edge between two nodes.
type GraphEdge struct {
	From string
	To   string
	Kind string
}

// GraphStore persists the dependency graph's nodes and edges so the
// in-memory Graph Cache can rehydrate up to max_nodes at startup.
type GraphStore interface {
	UpsertNode(ctx context.Context, node GraphNode) error
	UpsertEdge(ctx context.Context, edge GraphEdge) error
	DeleteNode(ctx context.Context, id string) error
	Nodes(ctx context.Context, workspaceID string, limit int) ([]GraphNode, error)
	Edges(ctx context.Context, workspaceID string) ([]GraphEdge, error)
	Close(ctx context.Context) error
}

// VectorRecord is a single embedding with its owning memory record id.
type VectorRecord struct {
	ID        string
	Embedding []float32
	Metadata  map[string]string
}

// VectorMatch is a VectorRecord annotated with its similarity to the query.
type VectorMatch struct {
	VectorRecord
	Score float64
}

// VectorStore persists embeddings for the Memory subsystem's
// similarity-ranked retrieval.
type VectorStore interface {
	Upsert(ctx context.Context, collection string, record VectorRecord) error
	Delete(ctx context.Context, collection string, id string) error
	Search(ctx context.Context, collection string, query []float32, topK int) ([]VectorMatch, error)
	Close(ctx context.Context) error
}
