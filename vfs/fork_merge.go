package vfs

import (
	"context"

	svcerrors "github.com/R3E-Network/agentsvc/internal/errors"
	"github.com/R3E-Network/agentsvc/domain/workspace"
)

// MergeStrategy selects how conflicting paths are reconciled on merge.
type MergeStrategy string

const (
	MergeManual       MergeStrategy = "manual"
	MergeAutoMerge    MergeStrategy = "auto_merge"
	MergePreferFork   MergeStrategy = "prefer_fork"
	MergePreferTarget MergeStrategy = "prefer_target"
)

// PathOutcome is the per-path result of a merge.
type PathOutcome string

const (
	OutcomeAccepted   PathOutcome = "accepted"
	OutcomeApplied    PathOutcome = "applied"
	OutcomeConflicted PathOutcome = "conflicted"
)

// MergeReport enumerates what happened to every path touched by the
// fork, keyed by normalized path.
type MergeReport struct {
	Outcomes map[string]PathOutcome
}

// Fork creates a child workspace of parentID. The fork copies no
// VNodes; reads fall through to the parent until a local write occurs.
func (e *Engine) Fork(parentID string) (*workspace.Workspace, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	parent, err := e.state(parentID)
	if err != nil {
		return nil, err
	}

	ws := workspace.Workspace{
		ID:        e.newID(),
		Type:      parent.ws.Type,
		Source:    workspace.SourceFork,
		ParentID:  parentID,
		ReadOnly:  false,
		CreatedAt: e.now(),
	}
	e.workspaces[ws.ID] = &wsState{ws: ws, nodes: make(map[string]*workspace.VNode), base: make(map[string]baseEntry)}
	return &ws, nil
}

// Merge applies every path the fork workspace modified onto targetID
// using strategy to resolve conflicts. The 3-way merge base for each
// path is the value the parent resolved to just before the fork first
// wrote that path (see captureBaseLocked), so a parent change made after
// fork creation but before that first write is part of the base.
func (e *Engine) Merge(ctx context.Context, forkID, targetID string, strategy MergeStrategy) (MergeReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fork, err := e.state(forkID)
	if err != nil {
		return MergeReport{}, err
	}
	target, err := e.state(targetID)
	if err != nil {
		return MergeReport{}, err
	}
	if target.ws.ReadOnly {
		return MergeReport{}, svcerrors.New(svcerrors.KindInvalidInput, "target workspace is read-only")
	}

	report := MergeReport{Outcomes: make(map[string]PathOutcome)}

	for path, forkNode := range fork.nodes {
		base, hadBase := fork.base[path]
		targetNode, hasTargetOverride := target.nodes[path]

		// No conflict: target has not diverged from the base the fork
		// started from (no local override, or override still matches
		// the snapshot taken when the fork first diverged at path).
		noConflict := !hasTargetOverride ||
			(hadBase && base.existed && targetNode.ContentHash == base.hash && targetNode.Kind == forkNode.Kind)
		if noConflict {
			e.applyForkNodeLocked(target, path, forkNode)
			report.Outcomes[path] = OutcomeAccepted
			continue
		}

		var baseHash string
		if hadBase {
			baseHash = base.hash
		}

		switch strategy {
		case MergePreferFork:
			e.applyForkNodeLocked(target, path, forkNode)
			report.Outcomes[path] = OutcomeApplied
		case MergePreferTarget:
			report.Outcomes[path] = OutcomeApplied
		case MergeAutoMerge:
			if winner, ok := threeWayHashMerge(baseHash, hashOf(targetNode), hashOf(forkNode)); ok {
				if winner == forkNode.ContentHash {
					e.applyForkNodeLocked(target, path, forkNode)
				}
				report.Outcomes[path] = OutcomeApplied
			} else {
				report.Outcomes[path] = OutcomeConflicted
				e.markConflictLocked(target, path)
			}
		default: // MergeManual
			report.Outcomes[path] = OutcomeConflicted
			e.markConflictLocked(target, path)
		}
	}

	return report, nil
}

func hashOf(n *workspace.VNode) string {
	if n == nil {
		return ""
	}
	return n.ContentHash
}

// threeWayHashMerge decides a 3-way merge by comparing content hashes:
// content-addressing means hash equality already implies byte equality,
// so no actual content needs to be fetched to tell "only one side
// changed" from "both sides changed differently".
func threeWayHashMerge(base, target, fork string) (string, bool) {
	switch {
	case target == base:
		return fork, true
	case fork == base:
		return target, true
	case fork == target:
		return fork, true
	default:
		return "", false
	}
}

func (e *Engine) applyForkNodeLocked(target *wsState, path string, forkNode *workspace.VNode) {
	existing, had := target.nodes[path]
	cp := *forkNode
	cp.WorkspaceID = target.ws.ID
	if had {
		cp.Version = existing.Version + 1
	} else {
		cp.Version = 1
	}
	cp.UpdatedAt = e.now()
	target.nodes[path] = &cp
}

func (e *Engine) markConflictLocked(target *wsState, path string) {
	if n, ok := target.nodes[path]; ok {
		n.SyncStatus = workspace.SyncConflict
		n.UpdatedAt = e.now()
	}
}

