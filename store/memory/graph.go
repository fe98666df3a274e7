package memory

import (
	"context"
	"sync"

	"github.com/R3E-Network/agentsvc/store"
)

// GraphStore is an in-memory implementation of store.GraphStore.
type GraphStore struct {
	mu    sync.RWMutex
	nodes map[string]store.GraphNode
	edges []store.GraphEdge
}

func NewGraphStore() *GraphStore {
	return &GraphStore{nodes: make(map[string]store.GraphNode)}
}

func (g *GraphStore) UpsertNode(ctx context.Context, node store.GraphNode) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes[node.ID] = node
	return nil
}

func (g *GraphStore) UpsertEdge(ctx context.Context, edge store.GraphEdge) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, e := range g.edges {
		if e.From == edge.From && e.To == edge.To && e.Kind == edge.Kind {
			g.edges[i] = edge
			return nil
		}
	}
	g.edges = append(g.edges, edge)
	return nil
}

func (g *GraphStore) DeleteNode(ctx context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.nodes, id)

	kept := g.edges[:0]
	for _, e := range g.edges {
		if e.From != id && e.To != id {
			kept = append(kept, e)
		}
	}
	g.edges = kept
	return nil
}

func (g *GraphStore) Nodes(ctx context.Context, workspaceID string, limit int) ([]store.GraphNode, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]store.GraphNode, 0, len(g.nodes))
	for _, n := range g.nodes {
		if workspaceID != "" && n.WorkspaceID != workspaceID {
			continue
		}
		out = append(out, n)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (g *GraphStore) Edges(ctx context.Context, workspaceID string) ([]store.GraphEdge, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if workspaceID == "" {
		out := make([]store.GraphEdge, len(g.edges))
		copy(out, g.edges)
		return out, nil
	}

	inWorkspace := make(map[string]bool)
	for _, n := range g.nodes {
		if n.WorkspaceID == workspaceID {
			inWorkspace[n.ID] = true
		}
	}

	out := make([]store.GraphEdge, 0, len(g.edges))
	for _, e := range g.edges {
		if inWorkspace[e.From] || inWorkspace[e.To] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (g *GraphStore) Close(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes = make(map[string]store.GraphNode)
	g.edges = nil
	return nil
}
