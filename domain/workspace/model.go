// Package workspace holds the data model for workspaces and the
// virtual filesystem nodes they own.
package workspace

import (
	"os"
	"time"
)

// Type classifies the primary content of a workspace, inferred by the
// importer's file-type heuristic.
type Type string

const (
	TypeCode     Type = "code"
	TypeDocs     Type = "docs"
	TypeMixed    Type = "mixed"
	TypeExternal Type = "external"
)

// Source describes where a workspace's authoritative content lives.
type Source string

const (
	SourceLocal    Source = "local"
	SourceReadOnly Source = "readonly"
	SourceFork     Source = "fork"
)

// Workspace is a named root over a tree of VNodes. A fork workspace
// references its parent and holds no VNodes until first write.
type Workspace struct {
	ID        string
	Type      Type
	Source    Source
	ParentID  string
	ReadOnly  bool
	CreatedAt time.Time
}

// IsFork reports whether w was created by Fork.
func (w Workspace) IsFork() bool { return w.ParentID != "" }

// Kind enumerates VNode content kinds.
type Kind string

const (
	KindFile    Kind = "file"
	KindDir     Kind = "dir"
	KindSymlink Kind = "symlink"
	KindDoc     Kind = "doc"
)

// SyncStatus tracks a VNode's state relative to its last materialized
// or imported form.
type SyncStatus string

const (
	SyncSynchronized SyncStatus = "synchronized"
	SyncModified     SyncStatus = "modified"
	SyncCreated      SyncStatus = "created"
	SyncDeleted      SyncStatus = "deleted"
	SyncConflict     SyncStatus = "conflict"
)

// VNode is one path entry in a workspace's virtual filesystem.
type VNode struct {
	ID          string
	WorkspaceID string
	Path        string
	Kind        Kind
	ContentHash string
	Size        int64
	Version     int64
	SyncStatus  SyncStatus
	UpdatedAt   time.Time

	// Mode and SourceModTime carry the physical-filesystem permission
	// bits and modification time a node was imported with, zero-valued
	// for nodes only ever written through the VFS API. Flush consults
	// them when asked to preserve permissions/timestamps on write-out.
	Mode          os.FileMode
	SourceModTime time.Time
}

// IsDir reports whether the node is a directory.
func (n VNode) IsDir() bool { return n.Kind == KindDir }
