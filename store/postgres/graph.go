package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/R3E-Network/agentsvc/store"
)

// GraphStore is the Postgres-backed store.GraphStore implementation.
type GraphStore struct {
	db *DB
}

func NewGraphStore(db *DB) *GraphStore {
	return &GraphStore{db: db}
}

func (g *GraphStore) UpsertNode(ctx context.Context, node store.GraphNode) error {
	metadata, err := json.Marshal(node.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata for node %s: %w", node.ID, err)
	}

	_, err = g.db.conn.ExecContext(ctx, `
		INSERT INTO graph_nodes (id, workspace_id, kind, metadata, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (id) DO UPDATE SET
			workspace_id = EXCLUDED.workspace_id,
			kind = EXCLUDED.kind,
			metadata = EXCLUDED.metadata,
			updated_at = now()
	`, node.ID, node.WorkspaceID, node.Kind, metadata)
	if err != nil {
		return fmt.Errorf("upsert node %s: %w", node.ID, err)
	}
	return nil
}

func (g *GraphStore) UpsertEdge(ctx context.Context, edge store.GraphEdge) error {
	_, err := g.db.conn.ExecContext(ctx, `
		INSERT INTO graph_edges (from_id, to_id, kind) VALUES ($1, $2, $3)
		ON CONFLICT (from_id, to_id, kind) DO NOTHING
	`, edge.From, edge.To, edge.Kind)
	if err != nil {
		return fmt.Errorf("upsert edge %s->%s: %w", edge.From, edge.To, err)
	}
	return nil
}

func (g *GraphStore) DeleteNode(ctx context.Context, id string) error {
	if _, err := g.db.conn.ExecContext(ctx, `DELETE FROM graph_nodes WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete node %s: %w", id, err)
	}
	return nil
}

type nodeRow struct {
	ID          string `db:"id"`
	WorkspaceID string `db:"workspace_id"`
	Kind        string `db:"kind"`
	Metadata    []byte `db:"metadata"`
}

func (g *GraphStore) Nodes(ctx context.Context, workspaceID string, limit int) ([]store.GraphNode, error) {
	query := `SELECT id, workspace_id, kind, metadata FROM graph_nodes`
	args := []interface{}{}
	if workspaceID != "" {
		query += ` WHERE workspace_id = $1`
		args = append(args, workspaceID)
	}
	query += ` ORDER BY id`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}

	var rows []nodeRow
	if err := g.db.conn.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}

	out := make([]store.GraphNode, 0, len(rows))
	for _, r := range rows {
		var metadata map[string]string
		if len(r.Metadata) > 0 {
			if err := json.Unmarshal(r.Metadata, &metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata for node %s: %w", r.ID, err)
			}
		}
		out = append(out, store.GraphNode{ID: r.ID, WorkspaceID: r.WorkspaceID, Kind: r.Kind, Metadata: metadata})
	}
	return out, nil
}

type edgeRow struct {
	From string `db:"from_id"`
	To   string `db:"to_id"`
	Kind string `db:"kind"`
}

func (g *GraphStore) Edges(ctx context.Context, workspaceID string) ([]store.GraphEdge, error) {
	query := `SELECT from_id, to_id, kind FROM graph_edges`
	args := []interface{}{}
	if workspaceID != "" {
		query += ` WHERE from_id IN (SELECT id FROM graph_nodes WHERE workspace_id = $1)
			OR to_id IN (SELECT id FROM graph_nodes WHERE workspace_id = $1)`
		args = append(args, workspaceID)
	}

	var rows []edgeRow
	if err := g.db.conn.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list edges: %w", err)
	}

	out := make([]store.GraphEdge, 0, len(rows))
	for _, r := range rows {
		out = append(out, store.GraphEdge{From: r.From, To: r.To, Kind: r.Kind})
	}
	return out, nil
}

func (g *GraphStore) Close(ctx context.Context) error {
	return g.db.Close(ctx)
}
