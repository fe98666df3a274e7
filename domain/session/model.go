// Package session defines the editing-session and path-lock types the
// Session/Lock Service operates on.
package session

import "time"

// Status is a session's lifecycle state.
type Status string

const (
	StatusActive    Status = "active"
	StatusMerged    Status = "merged"
	StatusAbandoned Status = "abandoned"
)

// Terminal reports whether status is a session's final state. Locks
// held by a session in a terminal state are eligible for auto-release.
func (s Status) Terminal() bool {
	return s == StatusMerged || s == StatusAbandoned
}

// Session is a fork of a workspace accumulating VNode revisions until
// it is merged back or abandoned.
type Session struct {
	ID          string
	WorkspaceID string
	ForkID      string
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// LockKind is the granularity of a path lock.
type LockKind string

const (
	LockShared    LockKind = "shared"
	LockExclusive LockKind = "exclusive"
)

// Lock is an acquired hold on a normalized path prefix, scoped to the
// session that acquired it.
type Lock struct {
	ID         string
	Path       string
	Kind       LockKind
	SessionID  string
	AcquiredAt time.Time
}
