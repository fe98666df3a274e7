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

// LockTable tracks path locks across sessions. Exclusive locks
// conflict with any overlapping path; shared locks conflict only with
// an overlapping exclusive. A blocked acquisition waits up to a
// timeout before failing with a conflict error.
type LockTable struct {
	mu        sync.Mutex
	active    map[string]*domain.Lock
	bySession map[string][]string
	waitCh    chan struct{}
}

// NewLockTable builds an empty lock table.
func NewLockTable() *LockTable {
	return &LockTable{
		active:    make(map[string]*domain.Lock),
		bySession: make(map[string][]string),
		waitCh:    make(chan struct{}),
	}
}

// Acquire blocks until path is free of conflicting locks, the timeout
// elapses, or ctx is cancelled. A non-positive timeout waits
// indefinitely (bounded only by ctx).
func (t *LockTable) Acquire(ctx context.Context, path string, kind domain.LockKind, sessionID string, timeout time.Duration) (domain.Lock, error) {
	norm, err := vfs.NormalizePath(path)
	if err != nil {
		return domain.Lock{}, err
	}

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		t.mu.Lock()
		if !t.conflictsLocked(norm, kind) {
			lock := domain.Lock{
				ID:         uuid.NewString(),
				Path:       norm,
				Kind:       kind,
				SessionID:  sessionID,
				AcquiredAt: time.Now(),
			}
			t.active[lock.ID] = &lock
			t.bySession[sessionID] = append(t.bySession[sessionID], lock.ID)
			t.mu.Unlock()
			return lock, nil
		}
		wait := t.waitCh
		t.mu.Unlock()

		var timer *time.Timer
		var timerCh <-chan time.Time
		if timeout > 0 {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return domain.Lock{}, lockContentionErr(norm)
			}
			timer = time.NewTimer(remaining)
			timerCh = timer.C
		}

		select {
		case <-ctx.Done():
			stopTimer(timer)
			return domain.Lock{}, ctx.Err()
		case <-wait:
			stopTimer(timer)
		case <-timerCh:
			return domain.Lock{}, lockContentionErr(norm)
		}
	}
}

// Release removes a single lock by ID. Releasing an unknown lock ID is
// a no-op.
func (t *LockTable) Release(lockID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	lock, ok := t.active[lockID]
	if !ok {
		return
	}
	delete(t.active, lockID)
	ids := t.bySession[lock.SessionID]
	for i, id := range ids {
		if id == lockID {
			t.bySession[lock.SessionID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	t.notifyLocked()
}

// ReleaseAll releases every lock held by sessionID, used when a
// session transitions to a terminal state.
func (t *LockTable) ReleaseAll(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range t.bySession[sessionID] {
		delete(t.active, id)
	}
	delete(t.bySession, sessionID)
	t.notifyLocked()
}

func (t *LockTable) conflictsLocked(path string, kind domain.LockKind) bool {
	for _, lock := range t.active {
		if !overlaps(path, lock.Path) {
			continue
		}
		if kind == domain.LockExclusive || lock.Kind == domain.LockExclusive {
			return true
		}
	}
	return false
}

func (t *LockTable) notifyLocked() {
	close(t.waitCh)
	t.waitCh = make(chan struct{})
}

func overlaps(a, b string) bool {
	return vfs.IsAncestor(a, b) || vfs.IsAncestor(b, a)
}

func stopTimer(timer *time.Timer) {
	if timer != nil {
		timer.Stop()
	}
}

func lockContentionErr(path string) error {
	return svcerrors.Conflict("lock contention on path " + path)
}
