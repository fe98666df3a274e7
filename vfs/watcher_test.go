package vfs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/R3E-Network/agentsvc/domain/workspace"
)

func TestWatcher_DebouncesRepeatedEvents(t *testing.T) {
	e := newTestEngine()
	ws := e.CreateWorkspace(workspace.TypeCode, workspace.SourceLocal, false)

	var mu sync.Mutex
	var calls int
	done := make(chan struct{}, 1)

	w := NewWatcher(e, 30*time.Millisecond, func(ctx context.Context, workspaceID, path string) {
		mu.Lock()
		calls++
		mu.Unlock()
		done <- struct{}{}
	})

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := w.Notify(ctx, ChangeEvent{WorkspaceID: ws.ID, Path: "a.txt", NewBytes: []byte("v")}); err != nil {
			t.Fatalf("Notify failed: %v", err)
		}
	}

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timed out waiting for debounced reparse")
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected exactly 1 coalesced reparse call, got %d", calls)
	}
}

func TestWatcher_ApplyExternalChangeRemove(t *testing.T) {
	e := newTestEngine()
	ws := e.CreateWorkspace(workspace.TypeCode, workspace.SourceLocal, false)
	ctx := context.Background()
	e.Write(ctx, ws.ID, "a.txt", []byte("x"))

	w := NewWatcher(e, time.Millisecond, nil)
	if err := w.Notify(ctx, ChangeEvent{WorkspaceID: ws.ID, Path: "a.txt", NewBytes: nil}); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	if e.Exists(ws.ID, "a.txt") {
		t.Fatal("expected file to be removed")
	}
}

func TestWatcher_StopCancelsPendingTimers(t *testing.T) {
	e := newTestEngine()
	ws := e.CreateWorkspace(workspace.TypeCode, workspace.SourceLocal, false)

	called := false
	w := NewWatcher(e, 20*time.Millisecond, func(ctx context.Context, workspaceID, path string) {
		called = true
	})

	w.Notify(context.Background(), ChangeEvent{WorkspaceID: ws.ID, Path: "a.txt", NewBytes: []byte("x")})
	w.Stop()

	time.Sleep(50 * time.Millisecond)
	if called {
		t.Fatal("expected stopped watcher not to fire reparse")
	}
}
