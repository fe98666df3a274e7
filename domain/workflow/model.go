// Package workflow defines the shapes the Workflow Executor operates
// on: tasks, their dependency graph, and the results of running them.
package workflow

import "time"

// TaskType selects which capability set a task requires and which
// schema validator (if any) applies to it. Custom types fall through
// to a default capability set at execution time.
type TaskType string

const (
	TaskDevelopment  TaskType = "development"
	TaskReview       TaskType = "review"
	TaskTesting      TaskType = "testing"
	TaskDocumentation TaskType = "documentation"
)

// Task is one unit of work in a Workflow.
type Task struct {
	ID    string
	Type  TaskType
	Input map[string]interface{}
}

// Workflow is a set of tasks plus the dependency edges between them,
// keyed by task ID: Dependencies[taskID] lists the task IDs that must
// succeed before taskID may run.
type Workflow struct {
	ID           string
	Tasks        []Task
	Dependencies map[string][]string
}

// TaskByID returns the task with the given ID, if present.
func (w Workflow) TaskByID(id string) (Task, bool) {
	for _, t := range w.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// ExecutionSchedule is a topological ordering of a Workflow's tasks.
type ExecutionSchedule struct {
	SortedTasks []string
}

// FailureReason enumerates the synthetic failure kinds the executor
// may assign to a task result, distinct from an agent-reported error.
type FailureReason string

const (
	ReasonDependenciesNotMet FailureReason = "dependencies_not_met"
	ReasonNoSuitableAgent    FailureReason = "no_suitable_agent"
	ReasonTimeout            FailureReason = "timeout"
	ReasonCancelled          FailureReason = "cancelled"
)

// TaskResult is the outcome of running one task.
type TaskResult struct {
	TaskID string
	Success bool
	Output  interface{}
	Error   string
	Reason  FailureReason
}

// WorkflowResult aggregates every task's result.
type WorkflowResult struct {
	WorkflowID  string
	Success     bool
	Duration    time.Duration
	TaskResults map[string]TaskResult
}
