package vfs

import (
	"context"
	"sync"
	"time"
)

// ChangeEvent is a single filesystem notification delivered by an
// external watcher (fsnotify or similar).
type ChangeEvent struct {
	WorkspaceID string
	Path        string
	NewBytes    []byte // nil for a delete event
}

// ApplyExternalChange updates the VNode for a change observed outside
// the engine (e.g. an on-disk edit in a materialized workspace). If
// newBytes is nil the path is removed.
func (e *Engine) ApplyExternalChange(ctx context.Context, ev ChangeEvent) error {
	if ev.NewBytes == nil {
		return e.Remove(ev.WorkspaceID, ev.Path, false)
	}
	_, err := e.Write(ctx, ev.WorkspaceID, ev.Path, ev.NewBytes)
	return err
}

// Watcher debounces a stream of ChangeEvents and dispatches the
// coalesced set to a reparse callback after a quiet period, per path.
type Watcher struct {
	engine     *Engine
	debounce   time.Duration
	onReparse  func(ctx context.Context, workspaceID, path string)

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

// NewWatcher builds a Watcher over engine. onReparse is invoked once
// per path after debounce has elapsed with no further events for it.
func NewWatcher(engine *Engine, debounce time.Duration, onReparse func(ctx context.Context, workspaceID, path string)) *Watcher {
	return &Watcher{
		engine:    engine,
		debounce:  debounce,
		onReparse: onReparse,
		timers:    make(map[string]*time.Timer),
	}
}

func (w *Watcher) key(workspaceID, path string) string { return workspaceID + "\x00" + path }

// Notify applies ev to the engine and (if auto-reparse is configured
// via onReparse) schedules a debounced reparse for its path, coalescing
// repeated events within the debounce window.
func (w *Watcher) Notify(ctx context.Context, ev ChangeEvent) error {
	if err := w.engine.ApplyExternalChange(ctx, ev); err != nil {
		return err
	}
	if w.onReparse == nil {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}

	key := w.key(ev.WorkspaceID, ev.Path)
	if t, ok := w.timers[key]; ok {
		t.Stop()
	}
	w.timers[key] = time.AfterFunc(w.debounce, func() {
		w.onReparse(context.Background(), ev.WorkspaceID, ev.Path)
		w.mu.Lock()
		delete(w.timers, key)
		w.mu.Unlock()
	})
	return nil
}

// Stop cancels every pending debounce timer. Further Notify calls
// still apply changes to the engine but skip reparse scheduling.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	for _, t := range w.timers {
		t.Stop()
	}
	w.timers = make(map[string]*time.Timer)
}
