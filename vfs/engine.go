// Package vfs implements the content-addressed, workspace-scoped
// virtual filesystem: path-indexed VNodes with versioning, fork/merge,
// materialization to and import from a physical filesystem.
package vfs

import (
	"context"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	svcerrors "github.com/R3E-Network/agentsvc/internal/errors"
	"github.com/R3E-Network/agentsvc/domain/workspace"
)

// BlobStore is the subset of blobstore functionality the VFS engine
// needs to store and retrieve file content by hash.
type BlobStore interface {
	Put(ctx context.Context, content []byte) (string, []byte)
	Get(ctx context.Context, hash string) ([]byte, bool)
}

type wsState struct {
	ws    workspace.Workspace
	nodes map[string]*workspace.VNode // normalized path -> node
	base  map[string]baseEntry        // normalized path -> parent's resolved state at first local divergence (merge base)
}

// baseEntry is the 3-way merge base for a path: the value the parent
// resolved to immediately before a fork first diverged from it locally.
type baseEntry struct {
	hash    string
	existed bool
}

// captureBaseLocked records st's merge base for path the first time st
// locally diverges from its parent at that path. Only forks (ParentID
// set) have a meaningful base; root workspaces are never merged. Later
// calls for the same path are no-ops, so the recorded base always
// reflects the parent's state right before the fork's first write,
// not whatever the parent holds by the time Merge runs.
func (e *Engine) captureBaseLocked(st *wsState, path string) {
	if st.ws.ParentID == "" {
		return
	}
	if _, ok := st.nodes[path]; ok {
		return
	}
	if _, ok := st.base[path]; ok {
		return
	}
	if n, ok := e.lookupLocked(st, path); ok {
		st.base[path] = baseEntry{hash: n.ContentHash, existed: true}
	} else {
		st.base[path] = baseEntry{existed: false}
	}
}

// Engine is the in-memory virtual filesystem. A single Engine owns
// every workspace it creates or forks; persistence of node metadata to
// a store.GraphStore/store.KvStore is the caller's responsibility (see
// the graph and session packages for how node identity is shared).
type Engine struct {
	mu         sync.RWMutex
	workspaces map[string]*wsState
	blobs      BlobStore
	now        func() time.Time
	newID      func() string
}

// NewEngine creates an Engine backed by blobs for content storage.
func NewEngine(blobs BlobStore) *Engine {
	return &Engine{
		workspaces: make(map[string]*wsState),
		blobs:      blobs,
		now:        time.Now,
		newID:      func() string { return uuid.NewString() },
	}
}

// CreateWorkspace registers a new root workspace.
func (e *Engine) CreateWorkspace(wsType workspace.Type, source workspace.Source, readOnly bool) *workspace.Workspace {
	e.mu.Lock()
	defer e.mu.Unlock()

	ws := workspace.Workspace{
		ID:        e.newID(),
		Type:      wsType,
		Source:    source,
		ReadOnly:  readOnly,
		CreatedAt: e.now(),
	}
	e.workspaces[ws.ID] = &wsState{ws: ws, nodes: make(map[string]*workspace.VNode), base: make(map[string]baseEntry)}
	return &ws
}

func (e *Engine) state(id string) (*wsState, error) {
	st, ok := e.workspaces[id]
	if !ok {
		return nil, svcerrors.NotFound("workspace", id)
	}
	return st, nil
}

// Workspace returns a copy of the workspace record.
func (e *Engine) Workspace(id string) (workspace.Workspace, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	st, err := e.state(id)
	if err != nil {
		return workspace.Workspace{}, err
	}
	return st.ws, nil
}

// lookup resolves path in workspace id, falling through to the parent
// chain for fork workspaces that have no local override.
func (e *Engine) lookup(id, path string) (*workspace.VNode, bool) {
	for {
		st, ok := e.workspaces[id]
		if !ok {
			return nil, false
		}
		if n, ok := st.nodes[path]; ok {
			return n, true
		}
		if st.ws.ParentID == "" {
			return nil, false
		}
		id = st.ws.ParentID
	}
}

// Read returns the content of path in workspace id.
func (e *Engine) Read(ctx context.Context, wsID, path string) ([]byte, workspace.VNode, error) {
	norm, err := NormalizePath(path)
	if err != nil {
		return nil, workspace.VNode{}, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if _, err := e.state(wsID); err != nil {
		return nil, workspace.VNode{}, err
	}

	node, ok := e.lookup(wsID, norm)
	if !ok || node.SyncStatus == workspace.SyncDeleted {
		return nil, workspace.VNode{}, svcerrors.NotFound("path", norm)
	}
	if node.Kind == workspace.KindDir {
		return nil, workspace.VNode{}, svcerrors.InvalidInput("path", "is a directory")
	}

	content, ok := e.blobs.Get(ctx, node.ContentHash)
	if !ok {
		return nil, workspace.VNode{}, svcerrors.Internal("content blob missing for live node", nil)
	}
	return content, *node, nil
}

// Write creates or updates a file at path, creating ancestor
// directories implicitly.
func (e *Engine) Write(ctx context.Context, wsID, path string, content []byte) (workspace.VNode, error) {
	norm, err := NormalizePath(path)
	if err != nil {
		return workspace.VNode{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.state(wsID)
	if err != nil {
		return workspace.VNode{}, err
	}
	if st.ws.ReadOnly {
		return workspace.VNode{}, svcerrors.New(svcerrors.KindInvalidInput, "workspace is read-only")
	}

	e.ensureAncestorsLocked(st, norm)
	e.captureBaseLocked(st, norm)

	hash, _ := e.blobs.Put(ctx, content)
	existing, hadExisting := st.nodes[norm]

	node := workspace.VNode{
		ID:          e.newID(),
		WorkspaceID: wsID,
		Path:        norm,
		Kind:        workspace.KindFile,
		ContentHash: hash,
		Size:        int64(len(content)),
		SyncStatus:  workspace.SyncCreated,
		UpdatedAt:   e.now(),
	}
	if hadExisting {
		node.ID = existing.ID
		node.Version = existing.Version + 1
		node.SyncStatus = workspace.SyncModified
	} else {
		node.Version = 1
	}
	st.nodes[norm] = &node
	return node, nil
}

func (e *Engine) ensureAncestorsLocked(st *wsState, path string) {
	parent := ParentPath(path)
	for parent != "" {
		if existing, ok := st.nodes[parent]; ok && existing.Kind == workspace.KindDir {
			return
		}
		e.captureBaseLocked(st, parent)
		st.nodes[parent] = &workspace.VNode{
			ID: e.newID(), WorkspaceID: st.ws.ID, Path: parent, Kind: workspace.KindDir,
			Version: 1, SyncStatus: workspace.SyncCreated, UpdatedAt: e.now(),
		}
		parent = ParentPath(parent)
	}
}

// CreateDir creates a directory node. recursive=true creates missing
// ancestors; otherwise a missing parent fails with an InvalidInput
// error on path ("parent missing").
func (e *Engine) CreateDir(wsID, path string, recursive bool) (workspace.VNode, error) {
	norm, err := NormalizePath(path)
	if err != nil {
		return workspace.VNode{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.state(wsID)
	if err != nil {
		return workspace.VNode{}, err
	}
	if st.ws.ReadOnly {
		return workspace.VNode{}, svcerrors.New(svcerrors.KindInvalidInput, "workspace is read-only")
	}

	parent := ParentPath(norm)
	if parent != "" {
		if _, ok := e.lookupLocked(st, parent); !ok {
			if !recursive {
				return workspace.VNode{}, svcerrors.InvalidInput("path", "parent missing")
			}
			e.ensureAncestorsLocked(st, norm)
		}
	}

	e.captureBaseLocked(st, norm)

	node := workspace.VNode{
		ID: e.newID(), WorkspaceID: wsID, Path: norm, Kind: workspace.KindDir,
		Version: 1, SyncStatus: workspace.SyncCreated, UpdatedAt: e.now(),
	}
	if existing, ok := st.nodes[norm]; ok {
		node.Version = existing.Version + 1
		node.ID = existing.ID
		node.SyncStatus = workspace.SyncModified
	}
	st.nodes[norm] = &node
	return node, nil
}

func (e *Engine) lookupLocked(st *wsState, path string) (*workspace.VNode, bool) {
	id := st.ws.ID
	for {
		cur, ok := e.workspaces[id]
		if !ok {
			return nil, false
		}
		if n, ok := cur.nodes[path]; ok {
			return n, true
		}
		if cur.ws.ParentID == "" {
			return nil, false
		}
		id = cur.ws.ParentID
	}
}

// setSourceMetadataLocked records the physical-filesystem mode and
// modification time a node was imported with, for Flush to restore
// later when asked to preserve permissions/timestamps. Import is the
// only caller; it holds no lock of its own, so this takes one.
func (e *Engine) setSourceMetadataLocked(wsID, path string, mode os.FileMode, modTime time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.workspaces[wsID]
	if !ok {
		return
	}
	if n, ok := st.nodes[path]; ok {
		n.Mode = mode
		n.SourceModTime = modTime
	}
}

// Exists reports whether path resolves to a live node.
func (e *Engine) Exists(wsID, path string) bool {
	norm, err := NormalizePath(path)
	if err != nil {
		return false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	node, ok := e.lookup(wsID, norm)
	return ok && node.SyncStatus != workspace.SyncDeleted
}

// Stat returns metadata for path without reading content.
func (e *Engine) Stat(wsID, path string) (workspace.VNode, error) {
	norm, err := NormalizePath(path)
	if err != nil {
		return workspace.VNode{}, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if _, err := e.state(wsID); err != nil {
		return workspace.VNode{}, err
	}
	node, ok := e.lookup(wsID, norm)
	if !ok || node.SyncStatus == workspace.SyncDeleted {
		return workspace.VNode{}, svcerrors.NotFound("path", norm)
	}
	return *node, nil
}

// List returns entries directly under path (recursive=false) or the
// full subtree (recursive=true).
func (e *Engine) List(wsID, path string, recursive bool) ([]workspace.VNode, error) {
	norm, err := NormalizePath(path)
	if err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if _, err := e.state(wsID); err != nil {
		return nil, err
	}

	seen := make(map[string]*workspace.VNode)
	id := wsID
	for id != "" {
		st, ok := e.workspaces[id]
		if !ok {
			break
		}
		for p, n := range st.nodes {
			if _, already := seen[p]; already {
				continue
			}
			if p == norm || !IsAncestor(norm, p) {
				continue
			}
			if !recursive {
				rest := strings.TrimPrefix(p, norm)
				rest = strings.TrimPrefix(rest, "/")
				if strings.Contains(rest, "/") {
					continue
				}
			}
			seen[p] = n
		}
		id = st.ws.ParentID
	}

	out := make([]workspace.VNode, 0, len(seen))
	for _, n := range seen {
		if n.SyncStatus != workspace.SyncDeleted {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Remove deletes path; recursive=true also removes its subtree.
func (e *Engine) Remove(wsID, path string, recursive bool) error {
	norm, err := NormalizePath(path)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.state(wsID)
	if err != nil {
		return err
	}
	if st.ws.ReadOnly {
		return svcerrors.New(svcerrors.KindInvalidInput, "workspace is read-only")
	}

	node, ok := st.nodes[norm]
	if !ok {
		if _, ok := e.lookupLocked(st, norm); !ok {
			return svcerrors.NotFound("path", norm)
		}
		e.captureBaseLocked(st, norm)
		// Inherited from parent: materialize a local tombstone.
		node = &workspace.VNode{ID: e.newID(), WorkspaceID: wsID, Path: norm, Version: 1}
	}

	if node.IsDir() && recursive {
		for p := range st.nodes {
			if IsAncestor(norm, p) && p != norm {
				delete(st.nodes, p)
			}
		}
	}

	node.SyncStatus = workspace.SyncDeleted
	node.Version++
	node.UpdatedAt = e.now()
	st.nodes[norm] = node
	return nil
}

// Move renames a node from src to dst within the same workspace.
func (e *Engine) Move(wsID, src, dst string) error {
	content, _, err := e.readRaw(wsID, src)
	if err != nil {
		return err
	}
	if _, err := e.Write(context.Background(), wsID, dst, content); err != nil {
		return err
	}
	return e.Remove(wsID, src, false)
}

// Copy duplicates a node from src to dst within the same workspace.
func (e *Engine) Copy(wsID, src, dst string) error {
	content, _, err := e.readRaw(wsID, src)
	if err != nil {
		return err
	}
	_, err = e.Write(context.Background(), wsID, dst, content)
	return err
}

func (e *Engine) readRaw(wsID, path string) ([]byte, workspace.VNode, error) {
	return e.Read(context.Background(), wsID, path)
}
