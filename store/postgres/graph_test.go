package postgres

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/R3E-Network/agentsvc/store"
)

func newTestGraphStore(t *testing.T) (*GraphStore, sqlmock.Sqlmock) {
	t.Helper()
	rawDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = rawDB.Close() })

	conn := sqlx.NewDb(rawDB, "postgres")
	return NewGraphStore(&DB{conn: conn}), mock
}

func TestGraphStore_UpsertNode(t *testing.T) {
	g, mock := newTestGraphStore(t)
	mock.ExpectExec(`INSERT INTO graph_nodes`).
		WithArgs("unit-1", "ws1", "Fn", []byte(`{"lang":"go"}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := g.UpsertNode(context.Background(), store.GraphNode{
		ID: "unit-1", WorkspaceID: "ws1", Kind: "Fn", Metadata: map[string]string{"lang": "go"},
	})
	if err != nil {
		t.Fatalf("UpsertNode failed: %v", err)
	}
}

func TestGraphStore_UpsertEdge(t *testing.T) {
	g, mock := newTestGraphStore(t)
	mock.ExpectExec(`INSERT INTO graph_edges`).
		WithArgs("a", "b", "Call").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := g.UpsertEdge(context.Background(), store.GraphEdge{From: "a", To: "b", Kind: "Call"})
	if err != nil {
		t.Fatalf("UpsertEdge failed: %v", err)
	}
}

func TestGraphStore_Nodes(t *testing.T) {
	g, mock := newTestGraphStore(t)
	mock.ExpectQuery(`SELECT id, workspace_id, kind, metadata FROM graph_nodes WHERE workspace_id = \$1`).
		WithArgs("ws1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "workspace_id", "kind", "metadata"}).
			AddRow("unit-1", "ws1", "Fn", []byte(`{"lang":"go"}`)))

	nodes, err := g.Nodes(context.Background(), "ws1", 0)
	if err != nil {
		t.Fatalf("Nodes failed: %v", err)
	}
	if len(nodes) != 1 || nodes[0].Metadata["lang"] != "go" {
		t.Fatalf("unexpected nodes: %+v", nodes)
	}
}

func TestGraphStore_DeleteNode(t *testing.T) {
	g, mock := newTestGraphStore(t)
	mock.ExpectExec(`DELETE FROM graph_nodes WHERE id = \$1`).
		WithArgs("unit-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := g.DeleteNode(context.Background(), "unit-1"); err != nil {
		t.Fatalf("DeleteNode failed: %v", err)
	}
}
