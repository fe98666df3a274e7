package vfs

import (
	"context"
	"testing"

	"github.com/R3E-Network/agentsvc/domain/workspace"
	"github.com/R3E-Network/agentsvc/store/blobstore"
)

func newTestEngine() *Engine {
	return NewEngine(blobstore.NewMemoryBlobStore(1 << 20))
}

func TestEngine_WriteRead(t *testing.T) {
	e := newTestEngine()
	ws := e.CreateWorkspace(workspace.TypeCode, workspace.SourceLocal, false)
	ctx := context.Background()

	node, err := e.Write(ctx, ws.ID, "/src/main.go", []byte("package main"))
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if node.Version != 1 || node.Path != "src/main.go" {
		t.Fatalf("unexpected node: %+v", node)
	}

	content, readNode, err := e.Read(ctx, ws.ID, "src/main.go")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(content) != "package main" {
		t.Fatalf("unexpected content: %s", content)
	}
	if readNode.Version != 1 {
		t.Fatalf("unexpected version: %d", readNode.Version)
	}
}

func TestEngine_WriteCreatesAncestorDirs(t *testing.T) {
	e := newTestEngine()
	ws := e.CreateWorkspace(workspace.TypeCode, workspace.SourceLocal, false)
	ctx := context.Background()

	if _, err := e.Write(ctx, ws.ID, "a/b/c.txt", []byte("hi")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if !e.Exists(ws.ID, "a") || !e.Exists(ws.ID, "a/b") {
		t.Fatal("expected ancestor directories to be implicitly created")
	}
}

func TestEngine_WriteReadOnlyWorkspaceFails(t *testing.T) {
	e := newTestEngine()
	ws := e.CreateWorkspace(workspace.TypeCode, workspace.SourceReadOnly, true)

	if _, err := e.Write(context.Background(), ws.ID, "a.txt", []byte("x")); err == nil {
		t.Fatal("expected write to read-only workspace to fail")
	}
}

func TestEngine_ReadMissingPathNotFound(t *testing.T) {
	e := newTestEngine()
	ws := e.CreateWorkspace(workspace.TypeCode, workspace.SourceLocal, false)

	if _, _, err := e.Read(context.Background(), ws.ID, "nope.txt"); err == nil {
		t.Fatal("expected NotFound error")
	}
}

func TestEngine_VersionBumpsOnRewrite(t *testing.T) {
	e := newTestEngine()
	ws := e.CreateWorkspace(workspace.TypeCode, workspace.SourceLocal, false)
	ctx := context.Background()

	e.Write(ctx, ws.ID, "f.txt", []byte("v1"))
	node, _ := e.Write(ctx, ws.ID, "f.txt", []byte("v2"))

	if node.Version != 2 || node.SyncStatus != workspace.SyncModified {
		t.Fatalf("unexpected node after rewrite: %+v", node)
	}
}

func TestEngine_ListRecursiveAndShallow(t *testing.T) {
	e := newTestEngine()
	ws := e.CreateWorkspace(workspace.TypeCode, workspace.SourceLocal, false)
	ctx := context.Background()

	e.Write(ctx, ws.ID, "a/one.txt", []byte("1"))
	e.Write(ctx, ws.ID, "a/b/two.txt", []byte("2"))

	shallow, err := e.List(ws.ID, "a", false)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(shallow) != 2 { // one.txt and dir b
		t.Fatalf("expected 2 shallow entries, got %d: %+v", len(shallow), shallow)
	}

	deep, err := e.List(ws.ID, "a", true)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(deep) != 3 { // one.txt, b, b/two.txt
		t.Fatalf("expected 3 recursive entries, got %d: %+v", len(deep), deep)
	}
}

func TestEngine_RemoveRecursive(t *testing.T) {
	e := newTestEngine()
	ws := e.CreateWorkspace(workspace.TypeCode, workspace.SourceLocal, false)
	ctx := context.Background()

	e.Write(ctx, ws.ID, "a/one.txt", []byte("1"))
	if err := e.Remove(ws.ID, "a", true); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if e.Exists(ws.ID, "a/one.txt") {
		t.Fatal("expected recursive remove to delete descendants")
	}
}

func TestEngine_MoveAndCopy(t *testing.T) {
	e := newTestEngine()
	ws := e.CreateWorkspace(workspace.TypeCode, workspace.SourceLocal, false)
	ctx := context.Background()

	e.Write(ctx, ws.ID, "src.txt", []byte("content"))

	if err := e.Copy(ws.ID, "src.txt", "copy.txt"); err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	if !e.Exists(ws.ID, "src.txt") || !e.Exists(ws.ID, "copy.txt") {
		t.Fatal("expected both src and copy to exist after Copy")
	}

	if err := e.Move(ws.ID, "src.txt", "moved.txt"); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if e.Exists(ws.ID, "src.txt") || !e.Exists(ws.ID, "moved.txt") {
		t.Fatal("expected Move to relocate the node")
	}
}

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/a/b/c":    "a/b/c",
		"a/./b":     "a/b",
		"a/b/../c":  "a/c",
		"../../a":   "a",
		"":          "",
	}
	for in, want := range cases {
		got, err := NormalizePath(in)
		if err != nil {
			t.Fatalf("NormalizePath(%q) error: %v", in, err)
		}
		if got != want {
			t.Errorf("NormalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizePath_RejectsNullByte(t *testing.T) {
	if _, err := NormalizePath("a/b\x00c"); err == nil {
		t.Fatal("expected error for null byte in path")
	}
}
