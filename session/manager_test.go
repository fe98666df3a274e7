package session

import (
	"context"
	"testing"
	"time"

	domain "github.com/R3E-Network/agentsvc/domain/session"
	"github.com/R3E-Network/agentsvc/domain/workspace"
	"github.com/R3E-Network/agentsvc/store/blobstore"
	"github.com/R3E-Network/agentsvc/vfs"
)

func newTestManager(t *testing.T) (*Manager, *vfs.Engine, *workspace.Workspace) {
	t.Helper()
	engine := vfs.NewEngine(blobstore.NewMemoryBlobStore(1 << 20))
	ws := engine.CreateWorkspace(workspace.TypeCode, workspace.SourceLocal, false)
	return NewManager(engine), engine, ws
}

func TestManager_CreateForksWorkspace(t *testing.T) {
	mgr, _, ws := newTestManager(t)

	sess, err := mgr.Create(ws.ID)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if sess.Status != domain.StatusActive {
		t.Fatalf("expected active status, got %v", sess.Status)
	}
	if sess.ForkID == "" || sess.ForkID == ws.ID {
		t.Fatalf("expected a distinct fork ID, got %q", sess.ForkID)
	}
}

func TestManager_MergeAppliesChangesAndMarksTerminal(t *testing.T) {
	mgr, engine, ws := newTestManager(t)
	sess, _ := mgr.Create(ws.ID)

	ctx := context.Background()
	if _, err := engine.Write(ctx, sess.ForkID, "a.txt", []byte("hello")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	report, err := mgr.Merge(ctx, sess.ID, vfs.MergePreferFork)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if report.Outcomes["a.txt"] != vfs.OutcomeAccepted {
		t.Fatalf("expected a.txt accepted, got %+v", report.Outcomes)
	}

	content, _, err := engine.Read(ctx, ws.ID, "a.txt")
	if err != nil {
		t.Fatalf("expected merged content to be readable: %v", err)
	}
	if string(content) != "hello" {
		t.Fatalf("unexpected content: %s", content)
	}

	got, _ := mgr.Get(sess.ID)
	if got.Status != domain.StatusMerged {
		t.Fatalf("expected merged status, got %v", got.Status)
	}
}

func TestManager_MergeTwiceFails(t *testing.T) {
	mgr, _, ws := newTestManager(t)
	sess, _ := mgr.Create(ws.ID)

	if _, err := mgr.Merge(context.Background(), sess.ID, vfs.MergePreferFork); err != nil {
		t.Fatalf("first merge failed: %v", err)
	}
	if _, err := mgr.Merge(context.Background(), sess.ID, vfs.MergePreferFork); err == nil {
		t.Fatal("expected second merge to fail")
	}
}

func TestManager_AbandonMarksTerminal(t *testing.T) {
	mgr, _, ws := newTestManager(t)
	sess, _ := mgr.Create(ws.ID)

	if err := mgr.Abandon(sess.ID); err != nil {
		t.Fatalf("Abandon() error = %v", err)
	}
	got, _ := mgr.Get(sess.ID)
	if got.Status != domain.StatusAbandoned {
		t.Fatalf("expected abandoned status, got %v", got.Status)
	}
}

func TestManager_AbandonReleasesHeldLocks(t *testing.T) {
	mgr, _, ws := newTestManager(t)
	sess, _ := mgr.Create(ws.ID)

	ctx := context.Background()
	lock, err := mgr.AcquireLock(ctx, sess.ID, "src", domain.LockExclusive, time.Second)
	if err != nil {
		t.Fatalf("AcquireLock() error = %v", err)
	}
	_ = lock

	if err := mgr.Abandon(sess.ID); err != nil {
		t.Fatalf("Abandon() error = %v", err)
	}

	otherSess, _ := mgr.Create(ws.ID)
	if _, err := mgr.AcquireLock(ctx, otherSess.ID, "src", domain.LockExclusive, 50*time.Millisecond); err != nil {
		t.Fatalf("expected lock to be free after abandon, got %v", err)
	}
}

func TestManager_AcquireLockUnknownSessionFails(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	if _, err := mgr.AcquireLock(context.Background(), "missing", "a", domain.LockShared, time.Second); err == nil {
		t.Fatal("expected an error for an unknown session")
	}
}
