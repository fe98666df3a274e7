// Package orchestrator implements the Workflow Executor: dependency
// ordered, bounded-concurrency execution of a workflow's tasks against
// the agent pool.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/R3E-Network/agentsvc/agents"
	domain "github.com/R3E-Network/agentsvc/domain/workflow"
	"github.com/R3E-Network/agentsvc/internal/logging"
)

const defaultTaskTimeout = 300 * time.Second

// AlertSink receives out-of-band alerts the executor raises, such as
// an externally triggered cancellation. The Event Bus satisfies this
// by duck typing.
type AlertSink interface {
	EmitSystemAlert(ctx context.Context, level, message, component string)
}

// Executor runs workflows against an agent pool, respecting task
// dependencies and a bound on concurrently running tasks.
type Executor struct {
	pool          *agents.Pool
	matcher       *agents.Matcher
	maxConcurrent int
	taskTimeout   time.Duration
	alerts        AlertSink
	log           *logging.Logger

	mu        sync.Mutex
	cancelled map[string]bool
}

// Option configures an Executor.
type Option func(*Executor)

// WithMaxConcurrent bounds how many tasks may execute at once.
func WithMaxConcurrent(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.maxConcurrent = n
		}
	}
}

// WithTaskTimeout overrides the default 300s per-task timeout.
func WithTaskTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.taskTimeout = d
		}
	}
}

// WithAlertSink wires an Event Bus (or stub) to receive SystemAlert
// notifications for externally triggered cancellations.
func WithAlertSink(sink AlertSink) Option {
	return func(e *Executor) { e.alerts = sink }
}

// NewExecutor builds an Executor over the given pool and matcher.
func NewExecutor(pool *agents.Pool, matcher *agents.Matcher, opts ...Option) *Executor {
	e := &Executor{
		pool:          pool,
		matcher:       matcher,
		maxConcurrent: 4,
		taskTimeout:   defaultTaskTimeout,
		log:           logging.Default(),
		cancelled:     make(map[string]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Cancel marks a workflow terminal. In-flight tasks are not forcibly
// stopped; they run to completion or their timeout, whichever is
// first, per spec. A SystemAlert is raised if an AlertSink is wired.
func (e *Executor) Cancel(ctx context.Context, workflowID string) {
	e.mu.Lock()
	e.cancelled[workflowID] = true
	e.mu.Unlock()

	if e.alerts != nil {
		e.alerts.EmitSystemAlert(ctx, "warning", "workflow "+workflowID+" cancelled", "orchestrator")
	}
}

func (e *Executor) isCancelled(workflowID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancelled[workflowID]
}

// readyState tracks the dependency bookkeeping the scheduler needs
// while a workflow is running.
type readyState struct {
	mu         sync.Mutex
	indegree   map[string]int
	dependents map[string][]string
	deps       map[string][]string
	results    map[string]domain.TaskResult
}

// Execute runs workflow's tasks according to schedule, respecting
// dependencies and the configured concurrency bound. Tasks whose
// dependencies are satisfied run as soon as a worker slot is free;
// ordering among simultaneously-ready tasks follows schedule's order
// (FIFO).
func (e *Executor) Execute(ctx context.Context, workflow domain.Workflow, schedule domain.ExecutionSchedule) (domain.WorkflowResult, error) {
	start := time.Now()

	state := &readyState{
		indegree:   make(map[string]int, len(workflow.Tasks)),
		dependents: make(map[string][]string),
		deps:       make(map[string][]string),
		results:    make(map[string]domain.TaskResult, len(workflow.Tasks)),
	}
	for _, t := range workflow.Tasks {
		state.indegree[t.ID] = 0
	}
	for taskID, deps := range workflow.Dependencies {
		if _, ok := state.indegree[taskID]; !ok {
			continue
		}
		for _, dep := range deps {
			if _, ok := state.indegree[dep]; !ok {
				continue
			}
			state.indegree[taskID]++
			state.dependents[dep] = append(state.dependents[dep], taskID)
			state.deps[taskID] = append(state.deps[taskID], dep)
		}
	}

	ready := make(chan string, len(workflow.Tasks))
	for _, id := range schedule.SortedTasks {
		if state.indegree[id] == 0 {
			ready <- id
		}
	}

	sem := make(chan struct{}, e.maxConcurrent)
	var wg sync.WaitGroup
	remaining := len(workflow.Tasks)
	var remainingMu sync.Mutex

	enqueueDependents := func(finished string) {
		state.mu.Lock()
		dependents := state.dependents[finished]
		var newlyReady []string
		for _, dep := range dependents {
			state.indegree[dep]--
			if state.indegree[dep] == 0 {
				newlyReady = append(newlyReady, dep)
			}
		}
		state.mu.Unlock()
		for _, id := range newlyReady {
			ready <- id
		}
	}

	for {
		remainingMu.Lock()
		done := remaining == 0
		remainingMu.Unlock()
		if done {
			break
		}

		taskID, ok := <-ready
		if !ok {
			break
		}

		task, found := workflow.TaskByID(taskID)
		if !found {
			remainingMu.Lock()
			remaining--
			remainingMu.Unlock()
			continue
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(task domain.Task) {
			defer wg.Done()
			defer func() { <-sem }()

			result := e.runTask(ctx, workflow.ID, task, state)

			state.mu.Lock()
			state.results[task.ID] = result
			state.mu.Unlock()

			enqueueDependents(task.ID)

			remainingMu.Lock()
			remaining--
			done := remaining == 0
			remainingMu.Unlock()
			if done {
				close(ready)
			}
		}(task)
	}

	wg.Wait()

	success := true
	for _, r := range state.results {
		if !r.Success {
			success = false
			break
		}
	}

	return domain.WorkflowResult{
		WorkflowID:  workflow.ID,
		Success:     success,
		Duration:    time.Since(start),
		TaskResults: state.results,
	}, nil
}

func (e *Executor) runTask(ctx context.Context, workflowID string, task domain.Task, state *readyState) domain.TaskResult {
	if e.isCancelled(workflowID) {
		return domain.TaskResult{TaskID: task.ID, Success: false, Error: "workflow cancelled", Reason: domain.ReasonCancelled}
	}

	if !e.dependenciesMet(task.ID, state) {
		return domain.TaskResult{TaskID: task.ID, Success: false, Error: "dependencies not met", Reason: domain.ReasonDependenciesNotMet}
	}

	required := requiredCapabilities(string(task.Type))
	agentID, ok := e.matcher.FindBest(required)
	if !ok {
		return domain.TaskResult{TaskID: task.ID, Success: false, Error: "no suitable agent found", Reason: domain.ReasonNoSuitableAgent}
	}

	taskCtx, cancel := context.WithTimeout(ctx, e.taskTimeout)
	defer cancel()

	type execOutcome struct {
		result agents.TaskResult
		err    error
	}
	outcome := make(chan execOutcome, 1)
	go func() {
		res, err := e.pool.ExecuteWithAgent(taskCtx, agentID, agents.Task{ID: task.ID, Type: string(task.Type), Payload: task.Input})
		outcome <- execOutcome{res, err}
	}()

	select {
	case <-taskCtx.Done():
		e.log.Warn(ctx, "task execution timed out", map[string]interface{}{"task_id": task.ID, "agent_id": agentID})
		return domain.TaskResult{TaskID: task.ID, Success: false, Error: "task execution timeout", Reason: domain.ReasonTimeout}
	case out := <-outcome:
		if out.err != nil {
			return domain.TaskResult{TaskID: task.ID, Success: false, Error: out.err.Error()}
		}
		if !out.result.Success {
			errMsg := "task failed"
			if out.result.Err != nil {
				errMsg = out.result.Err.Error()
			}
			return domain.TaskResult{TaskID: task.ID, Success: false, Error: errMsg}
		}
		return domain.TaskResult{TaskID: task.ID, Success: true}
	}
}

func (e *Executor) dependenciesMet(taskID string, state *readyState) bool {
	state.mu.Lock()
	defer state.mu.Unlock()
	for _, dep := range state.deps[taskID] {
		r, ok := state.results[dep]
		if !ok || !r.Success {
			return false
		}
	}
	return true
}
