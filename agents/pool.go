package agents

import (
	"context"
	"sync"
	"time"

	domain "github.com/R3E-Network/agentsvc/domain/agent"
	svcerrors "github.com/R3E-Network/agentsvc/internal/errors"
)

// Task is the minimal shape the pool needs to dispatch work: its type
// selects the handler, its payload is opaque to the pool.
type Task struct {
	ID      string
	Type    string
	Payload interface{}
}

// TaskResult is what a Handler reports back for bookkeeping.
type TaskResult struct {
	Success    bool
	TokensUsed int64
	CostCents  int64
	Err        error
}

// Handler executes one task type. Registered per task type on the Pool.
type Handler func(ctx context.Context, task Task) TaskResult

// Pool tracks per-agent Idle/Busy state and dispatches at most one task
// per agent at a time, per spec.md §4.6's Agent Pool.
type Pool struct {
	mu       sync.Mutex
	agents   map[string]*domain.Agent
	handlers map[string]Handler
}

// NewPool creates an empty Pool.
func NewPool() *Pool {
	return &Pool{
		agents:   make(map[string]*domain.Agent),
		handlers: make(map[string]Handler),
	}
}

// AddAgent registers an agent as Idle.
func (p *Pool) AddAgent(a domain.Agent) {
	if a.State == "" {
		a.State = domain.StateIdle
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.agents[a.ID] = &a
}

// RegisterHandler wires a task-type-specific handler.
func (p *Pool) RegisterHandler(taskType string, h Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[taskType] = h
}

// Get returns a copy of an agent's current state.
func (p *Pool) Get(agentID string) (domain.Agent, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.agents[agentID]
	if !ok {
		return domain.Agent{}, false
	}
	return *a, true
}

// ExecuteWithAgent refuses if the agent is Busy or unknown, otherwise
// marks it Busy, invokes the task-type handler, records the outcome,
// and returns it to Idle. A single agent executes at most one task at a
// time.
func (p *Pool) ExecuteWithAgent(ctx context.Context, agentID string, task Task) (TaskResult, error) {
	p.mu.Lock()
	a, ok := p.agents[agentID]
	if !ok {
		p.mu.Unlock()
		return TaskResult{}, svcerrors.NotFound("agent", agentID)
	}
	if a.State == domain.StateBusy {
		p.mu.Unlock()
		return TaskResult{}, svcerrors.Conflict("agent " + agentID + " is busy")
	}
	handler, ok := p.handlers[task.Type]
	if !ok {
		p.mu.Unlock()
		return TaskResult{}, svcerrors.InvalidInput("task.type", "no handler registered for "+task.Type)
	}
	a.State = domain.StateBusy
	p.mu.Unlock()

	result := handler(ctx, task)

	p.mu.Lock()
	a.State = domain.StateIdle
	a.LastActiveAt = time.Now()
	a.TokensUsed += result.TokensUsed
	a.CostCents += result.CostCents
	if result.Success {
		a.TasksHandled++
	} else {
		a.TasksFailed++
	}
	p.mu.Unlock()

	return result, nil
}
