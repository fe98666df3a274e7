// Package eventbus defines the typed event variants the Event Bus
// carries and the channels each one is delivered to.
package eventbus

import "time"

// Kind identifies which event variant a message carries.
type Kind string

const (
	KindCodeChange          Kind = "code_change"
	KindSessionUpdate        Kind = "session_update"
	KindBuildProgress        Kind = "build_progress"
	KindSystemAlert          Kind = "system_alert"
	KindTestResults          Kind = "test_results"
	KindMemoryConsolidation  Kind = "memory_consolidation"
	KindTaskUpdate           Kind = "task_update"
	KindActivityFeed         Kind = "activity_feed"
)

// Event is implemented by every typed event variant. Channels reports
// every named channel the event should be delivered to.
type Event interface {
	EventKind() Kind
	Channels() []string
}

// CodeChange announces a file's code-intelligence units changed.
type CodeChange struct {
	File      string
	Workspace string
	Kind      string // inserted | removed | changed
	Path      string
	Agent     string
	Timestamp time.Time
}

func (e CodeChange) EventKind() Kind { return KindCodeChange }
func (e CodeChange) Channels() []string {
	return []string{"workspace:" + e.Workspace, "activity"}
}

// SessionUpdate announces a session's pending-change count or status
// changed.
type SessionUpdate struct {
	Session   string
	Workspace string
	Status    string
	Pending   int
	Timestamp time.Time
}

func (e SessionUpdate) EventKind() Kind { return KindSessionUpdate }
func (e SessionUpdate) Channels() []string {
	return []string{"session:" + e.Session, "workspace:" + e.Workspace}
}

// BuildProgress announces a build's progress.
type BuildProgress struct {
	Build     string
	Workspace string
	Status    string
	Progress  float64
	Step      string
	Msg       string
	Timestamp time.Time
}

func (e BuildProgress) EventKind() Kind { return KindBuildProgress }
func (e BuildProgress) Channels() []string {
	return []string{"build:" + e.Build, "workspace:" + e.Workspace}
}

// SystemAlert is an operational alert not scoped to any one workspace.
type SystemAlert struct {
	Level     string
	Msg       string
	Component string
	Timestamp time.Time
}

func (e SystemAlert) EventKind() Kind       { return KindSystemAlert }
func (e SystemAlert) Channels() []string    { return []string{"system:alerts"} }

// TestResults announces a test run's outcome.
type TestResults struct {
	ID        string
	Workspace string
	Total     int
	Passed    int
	Failed    int
	Timestamp time.Time
}

func (e TestResults) EventKind() Kind { return KindTestResults }
func (e TestResults) Channels() []string {
	return []string{"workspace:" + e.Workspace, "activity"}
}

// MemoryConsolidation announces a consolidation sweep's outcome for a
// session's memory.
type MemoryConsolidation struct {
	Session   string
	Status    string
	Timestamp time.Time
}

func (e MemoryConsolidation) EventKind() Kind { return KindMemoryConsolidation }
func (e MemoryConsolidation) Channels() []string {
	return []string{"session:" + e.Session}
}

// TaskUpdate announces a workflow task's status or progress changed.
type TaskUpdate struct {
	Task      string
	Status    string
	Title     string
	Progress  float64
	Assigned  string
	Timestamp time.Time
}

func (e TaskUpdate) EventKind() Kind { return KindTaskUpdate }
func (e TaskUpdate) Channels() []string {
	return []string{"task:" + e.Task, "tasks"}
}

// ActivityFeed is a human-readable log entry for the global activity
// feed, optionally scoped to a workspace.
type ActivityFeed struct {
	ID        string
	Kind      string
	Desc      string
	Agent     string
	Workspace string
	Timestamp time.Time
}

func (e ActivityFeed) EventKind() Kind { return KindActivityFeed }
func (e ActivityFeed) Channels() []string {
	channels := []string{"activity"}
	if e.Workspace != "" {
		channels = append(channels, "workspace:"+e.Workspace)
	}
	return channels
}
