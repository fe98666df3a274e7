package vfs

import (
	"context"
	"testing"

	"github.com/R3E-Network/agentsvc/domain/workspace"
)

func TestEngine_ForkReadsFallThrough(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	parent := e.CreateWorkspace(workspace.TypeCode, workspace.SourceLocal, false)
	e.Write(ctx, parent.ID, "a.txt", []byte("parent content"))

	fork, err := e.Fork(parent.ID)
	if err != nil {
		t.Fatalf("Fork failed: %v", err)
	}

	content, _, err := e.Read(ctx, fork.ID, "a.txt")
	if err != nil {
		t.Fatalf("expected fork read to fall through to parent: %v", err)
	}
	if string(content) != "parent content" {
		t.Fatalf("unexpected content: %s", content)
	}
}

func TestEngine_ForkFirstWriteMaterializesLocally(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	parent := e.CreateWorkspace(workspace.TypeCode, workspace.SourceLocal, false)
	e.Write(ctx, parent.ID, "a.txt", []byte("parent content"))

	fork, _ := e.Fork(parent.ID)
	e.Write(ctx, fork.ID, "a.txt", []byte("fork content"))

	forkContent, _, _ := e.Read(ctx, fork.ID, "a.txt")
	parentContent, _, _ := e.Read(ctx, parent.ID, "a.txt")

	if string(forkContent) != "fork content" {
		t.Fatalf("expected fork-local override, got %s", forkContent)
	}
	if string(parentContent) != "parent content" {
		t.Fatalf("expected parent unaffected, got %s", parentContent)
	}
}

func TestEngine_MergeNoConflictApplies(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	target := e.CreateWorkspace(workspace.TypeCode, workspace.SourceLocal, false)
	fork, _ := e.Fork(target.ID)

	e.Write(ctx, fork.ID, "new.txt", []byte("fork addition"))

	report, err := e.Merge(ctx, fork.ID, target.ID, MergeManual)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if report.Outcomes["new.txt"] != OutcomeAccepted {
		t.Fatalf("expected accepted outcome, got %v", report.Outcomes)
	}

	content, _, err := e.Read(ctx, target.ID, "new.txt")
	if err != nil || string(content) != "fork addition" {
		t.Fatalf("expected merge to apply new.txt to target: %v %s", err, content)
	}
}

func TestEngine_MergeConflictManual(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	target := e.CreateWorkspace(workspace.TypeCode, workspace.SourceLocal, false)
	e.Write(ctx, target.ID, "f.txt", []byte("base"))

	fork, _ := e.Fork(target.ID)
	e.Write(ctx, fork.ID, "f.txt", []byte("fork change"))
	e.Write(ctx, target.ID, "f.txt", []byte("target change"))

	report, err := e.Merge(ctx, fork.ID, target.ID, MergeManual)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if report.Outcomes["f.txt"] != OutcomeConflicted {
		t.Fatalf("expected conflicted outcome, got %v", report.Outcomes)
	}

	content, _, _ := e.Read(ctx, target.ID, "f.txt")
	if string(content) != "target change" {
		t.Fatalf("expected target content unchanged under manual conflict, got %s", content)
	}
}

func TestEngine_MergePreferFork(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	target := e.CreateWorkspace(workspace.TypeCode, workspace.SourceLocal, false)
	e.Write(ctx, target.ID, "f.txt", []byte("base"))

	fork, _ := e.Fork(target.ID)
	e.Write(ctx, fork.ID, "f.txt", []byte("fork change"))
	e.Write(ctx, target.ID, "f.txt", []byte("target change"))

	if _, err := e.Merge(ctx, fork.ID, target.ID, MergePreferFork); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	content, _, _ := e.Read(ctx, target.ID, "f.txt")
	if string(content) != "fork change" {
		t.Fatalf("expected fork content to win, got %s", content)
	}
}

// A target write to an unrelated path must not be mistaken for a
// conflict on a path only the fork touched: the merge base is recorded
// per path, not as a single workspace-wide version.
func TestEngine_MergeTargetChangeElsewhereIsNotAConflict(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	target := e.CreateWorkspace(workspace.TypeCode, workspace.SourceLocal, false)
	e.Write(ctx, target.ID, "f.txt", []byte("base"))

	fork, _ := e.Fork(target.ID)
	e.Write(ctx, fork.ID, "f.txt", []byte("fork change"))
	e.Write(ctx, target.ID, "other.txt", []byte("unrelated"))

	report, err := e.Merge(ctx, fork.ID, target.ID, MergeManual)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if report.Outcomes["f.txt"] != OutcomeAccepted {
		t.Fatalf("expected f.txt to merge without conflict, got %v", report.Outcomes)
	}

	content, _, _ := e.Read(ctx, target.ID, "f.txt")
	if string(content) != "fork change" {
		t.Fatalf("expected fork content applied, got %s", content)
	}
}

// AutoMerge resolves a real 3-way divergence by content, not by
// re-reading the target's live value as if it were the base.
func TestEngine_MergeAutoMergeDivergentContent(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	target := e.CreateWorkspace(workspace.TypeCode, workspace.SourceLocal, false)
	e.Write(ctx, target.ID, "f.txt", []byte("base"))

	fork, _ := e.Fork(target.ID)
	e.Write(ctx, fork.ID, "f.txt", []byte("fork change"))
	e.Write(ctx, target.ID, "f.txt", []byte("target change"))

	report, err := e.Merge(ctx, fork.ID, target.ID, MergeAutoMerge)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if report.Outcomes["f.txt"] != OutcomeConflicted {
		t.Fatalf("expected auto-merge to report a conflict when both sides diverge differently, got %v", report.Outcomes)
	}

	content, _, _ := e.Read(ctx, target.ID, "f.txt")
	if string(content) != "target change" {
		t.Fatalf("expected target content unchanged on unresolved auto-merge, got %s", content)
	}
}
