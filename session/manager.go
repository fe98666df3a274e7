// Package session implements the Session/Lock Service: workspace
// editing sessions backed by the VFS fork-merge algorithm, and
// path-prefix locks coordinating concurrent writers across sessions.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/R3E-Network/agentsvc/domain/session"
	svcerrors "github.com/R3E-Network/agentsvc/internal/errors"
	"github.com/R3E-Network/agentsvc/vfs"
)

// Manager creates, merges, and abandons sessions, and owns the lock
// table sessions acquire path locks against.
type Manager struct {
	engine *vfs.Engine
	locks  *LockTable

	mu       sync.Mutex
	sessions map[string]*domain.Session
	now      func() time.Time
}

// NewManager builds a Manager over engine, the VFS instance sessions
// fork from and merge back into.
func NewManager(engine *vfs.Engine) *Manager {
	return &Manager{
		engine:   engine,
		locks:    NewLockTable(),
		sessions: make(map[string]*domain.Session),
		now:      time.Now,
	}
}

// Create forks workspaceID and returns a new active session over the
// fork.
func (m *Manager) Create(workspaceID string) (domain.Session, error) {
	fork, err := m.engine.Fork(workspaceID)
	if err != nil {
		return domain.Session{}, err
	}

	now := m.now()
	sess := domain.Session{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		ForkID:      fork.ID,
		Status:      domain.StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	m.mu.Lock()
	m.sessions[sess.ID] = &sess
	m.mu.Unlock()

	return sess, nil
}

// Merge applies sessionID's fork onto its parent workspace via the VFS
// fork-merge algorithm and marks the session merged, releasing every
// lock it held.
func (m *Manager) Merge(ctx context.Context, sessionID string, strategy vfs.MergeStrategy) (vfs.MergeReport, error) {
	sess, err := m.get(sessionID)
	if err != nil {
		return vfs.MergeReport{}, err
	}
	if sess.Status.Terminal() {
		return vfs.MergeReport{}, svcerrors.Conflict("session is already " + string(sess.Status))
	}

	report, err := m.engine.Merge(ctx, sess.ForkID, sess.WorkspaceID, strategy)
	if err != nil {
		return vfs.MergeReport{}, err
	}

	m.markTerminal(sessionID, domain.StatusMerged)
	return report, nil
}

// Abandon discards sessionID's fork, marking it abandoned and
// releasing every lock it held.
func (m *Manager) Abandon(sessionID string) error {
	sess, err := m.get(sessionID)
	if err != nil {
		return err
	}
	if sess.Status.Terminal() {
		return svcerrors.Conflict("session is already " + string(sess.Status))
	}

	m.markTerminal(sessionID, domain.StatusAbandoned)
	return nil
}

// Get returns the current state of a session.
func (m *Manager) Get(sessionID string) (domain.Session, error) {
	sess, err := m.get(sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	return *sess, nil
}

// AcquireLock acquires a path lock on behalf of sessionID, failing
// with a conflict error if it cannot be obtained within timeout.
func (m *Manager) AcquireLock(ctx context.Context, sessionID, path string, kind domain.LockKind, timeout time.Duration) (domain.Lock, error) {
	if _, err := m.get(sessionID); err != nil {
		return domain.Lock{}, err
	}
	return m.locks.Acquire(ctx, path, kind, sessionID, timeout)
}

// ReleaseLock releases a single lock by ID.
func (m *Manager) ReleaseLock(lockID string) {
	m.locks.Release(lockID)
}

// SweepIdle abandons every non-terminal session whose UpdatedAt is older
// than idleTimeout, releasing the locks it held. UpdatedAt is set when a
// session is created and when its status changes; lock acquisitions and
// writes inside the fork do not update it. cmd/agentsvcd/sweep.go runs
// this on its own cron entry; Merge/Abandon already release locks inline.
func (m *Manager) SweepIdle(idleTimeout time.Duration) int {
	cutoff := m.now().Add(-idleTimeout)

	m.mu.Lock()
	var stale []string
	for id, sess := range m.sessions {
		if !sess.Status.Terminal() && sess.UpdatedAt.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	m.mu.Unlock()

	for _, id := range stale {
		m.markTerminal(id, domain.StatusAbandoned)
	}
	return len(stale)
}

func (m *Manager) get(sessionID string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[sessionID]
	if !ok {
		return nil, svcerrors.NotFound("session", sessionID)
	}
	return sess, nil
}

func (m *Manager) markTerminal(sessionID string, status domain.Status) {
	m.mu.Lock()
	sess := m.sessions[sessionID]
	sess.Status = status
	sess.UpdatedAt = m.now()
	m.mu.Unlock()

	m.locks.ReleaseAll(sessionID)
}
