// Package graph implements the in-memory dependency graph accelerator:
// an adjacency-list cache loaded from a store.GraphStore at startup,
// with BFS traversal and unit-weight shortest-path queries.
package graph

import (
	"container/heap"
	"context"
	"sync"

	"github.com/R3E-Network/agentsvc/store"
)

// EdgeKind mirrors the Dependency edge kinds in the data model.
type EdgeKind string

const (
	EdgeTypeRef    EdgeKind = "type_ref"
	EdgeImport     EdgeKind = "import"
	EdgeCall       EdgeKind = "call"
	EdgeImplements EdgeKind = "implements"
	EdgeOther      EdgeKind = "other"
)

// Stats is a point-in-time node/edge count.
type Stats struct {
	Nodes int
	Edges int
}

type edge struct {
	to   string
	kind EdgeKind
}

// Cache is the in-memory directed graph. Mutations write through to
// the backing store.GraphStore; reads never touch storage.
type Cache struct {
	mu        sync.RWMutex
	backing   store.GraphStore
	maxNodes  int
	nodes     map[string]bool
	out       map[string][]edge // from -> outgoing edges
	in        map[string][]edge // to -> incoming edges; edge.to holds the source node id here
	workspace map[string]string // node id -> workspace id
}

// NewCache creates an empty cache capped at maxNodes.
func NewCache(backing store.GraphStore, maxNodes int) *Cache {
	return &Cache{
		backing:   backing,
		maxNodes:  maxNodes,
		nodes:     make(map[string]bool),
		out:       make(map[string][]edge),
		in:        make(map[string][]edge),
		workspace: make(map[string]string),
	}
}

// LoadFromStorage populates the cache from the backing store, up to
// maxNodes, for the given workspace (empty workspaceID loads all).
func (c *Cache) LoadFromStorage(ctx context.Context, workspaceID string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	nodes, err := c.backing.Nodes(ctx, workspaceID, c.maxNodes)
	if err != nil {
		return 0, err
	}
	for _, n := range nodes {
		if len(c.nodes) >= c.maxNodes {
			break
		}
		c.nodes[n.ID] = true
		c.workspace[n.ID] = n.WorkspaceID
	}

	edges, err := c.backing.Edges(ctx, workspaceID)
	if err != nil {
		return len(c.nodes), err
	}
	for _, e := range edges {
		if !c.nodes[e.From] || !c.nodes[e.To] {
			continue
		}
		c.addEdgeLocked(e.From, e.To, EdgeKind(e.Kind))
	}

	return len(c.nodes), nil
}

// AddNode inserts id into the cache and persists it via the backing
// store. A cache at capacity silently refuses new nodes, matching the
// teacher's "full cache, not adding node" behavior.
func (c *Cache) AddNode(ctx context.Context, workspaceID, id, kind string) error {
	c.mu.Lock()
	if c.nodes[id] {
		c.mu.Unlock()
		return nil
	}
	if len(c.nodes) >= c.maxNodes {
		c.mu.Unlock()
		return nil
	}
	c.nodes[id] = true
	c.workspace[id] = workspaceID
	c.mu.Unlock()

	return c.backing.UpsertNode(ctx, store.GraphNode{ID: id, WorkspaceID: workspaceID, Kind: kind})
}

// AddEdge inserts an edge, skipping silently if either endpoint is not
// cached (matching the teacher's warn-and-skip behavior), and persists
// it via the backing store.
func (c *Cache) AddEdge(ctx context.Context, from, to string, kind EdgeKind) error {
	c.mu.Lock()
	if !c.nodes[from] || !c.nodes[to] {
		c.mu.Unlock()
		return nil
	}
	c.addEdgeLocked(from, to, kind)
	c.mu.Unlock()

	return c.backing.UpsertEdge(ctx, store.GraphEdge{From: from, To: to, Kind: string(kind)})
}

func (c *Cache) addEdgeLocked(from, to string, kind EdgeKind) {
	for _, e := range c.out[from] {
		if e.to == to && e.kind == kind {
			return // de-duplicate (from,to,kind)
		}
	}
	c.out[from] = append(c.out[from], edge{to: to, kind: kind})
	c.in[to] = append(c.in[to], edge{to: from, kind: kind})
}

// Dependencies returns all nodes reachable from id by outgoing edges,
// BFS-bounded by depth. Missing id returns an empty result, not an
// error.
func (c *Cache) Dependencies(id string, depth int) []string {
	return c.bfs(id, depth, c.out)
}

// Dependents returns all nodes that (transitively, within depth) depend
// on id via incoming edges.
func (c *Cache) Dependents(id string, depth int) []string {
	return c.bfs(id, depth, c.in)
}

func (c *Cache) bfs(start string, maxDepth int, adj map[string][]edge) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.nodes[start] {
		return nil
	}

	type item struct {
		id    string
		depth int
	}
	visited := map[string]bool{start: true}
	queue := []item{{id: start, depth: 0}}
	var result []string

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxDepth {
			continue
		}
		for _, e := range adj[cur.id] {
			if visited[e.to] {
				continue
			}
			visited[e.to] = true
			result = append(result, e.to)
			queue = append(queue, item{id: e.to, depth: cur.depth + 1})
		}
	}
	return result
}

// HasPath reports whether to is reachable from `from` via outgoing
// edges.
func (c *Cache) HasPath(from, to string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.nodes[from] || !c.nodes[to] {
		return false
	}
	if from == to {
		return true
	}

	visited := map[string]bool{from: true}
	queue := []string{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, e := range c.out[cur] {
			if e.to == to {
				return true
			}
			if !visited[e.to] {
				visited[e.to] = true
				queue = append(queue, e.to)
			}
		}
	}
	return false
}

// ShortestPath returns the sequence of node ids from `from` to `to`
// using unit-weight Dijkstra, or nil if unreachable.
func (c *Cache) ShortestPath(from, to string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.nodes[from] || !c.nodes[to] {
		return nil
	}

	dist := map[string]int{from: 0}
	prev := map[string]string{}
	pq := &priorityQueue{{id: from, dist: 0}}
	heap.Init(pq)
	visited := map[string]bool{}

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(pqItem)
		if visited[cur.id] {
			continue
		}
		visited[cur.id] = true
		if cur.id == to {
			break
		}
		for _, e := range c.out[cur.id] {
			nd := dist[cur.id] + 1
			if d, ok := dist[e.to]; !ok || nd < d {
				dist[e.to] = nd
				prev[e.to] = cur.id
				heap.Push(pq, pqItem{id: e.to, dist: nd})
			}
		}
	}

	if _, ok := dist[to]; !ok {
		return nil
	}

	var path []string
	for n := to; n != ""; {
		path = append([]string{n}, path...)
		if n == from {
			break
		}
		n = prev[n]
	}
	return path
}

// Stats returns the node/edge counts.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	edges := 0
	for _, es := range c.out {
		edges += len(es)
	}
	return Stats{Nodes: len(c.nodes), Edges: edges}
}

// Clear empties the in-memory cache without touching the backing
// store.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nodes = make(map[string]bool)
	c.out = make(map[string][]edge)
	c.in = make(map[string][]edge)
	c.workspace = make(map[string]string)
}

type pqItem struct {
	id   string
	dist int
}

type priorityQueue []pqItem

func (pq priorityQueue) Len() int            { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool  { return pq[i].dist < pq[j].dist }
func (pq priorityQueue) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x interface{}) { *pq = append(*pq, x.(pqItem)) }
func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}
