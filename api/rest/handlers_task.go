package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domain "github.com/R3E-Network/agentsvc/domain/workflow"
	svcerrors "github.com/R3E-Network/agentsvc/internal/errors"
	"github.com/R3E-Network/agentsvc/orchestrator"
)

type submitTaskRequest struct {
	ID           string               `json:"id"`
	Tasks        []submitTaskSpec     `json:"tasks" binding:"required"`
	Dependencies map[string][]string `json:"dependencies"`
}

type submitTaskSpec struct {
	ID       string                 `json:"id" binding:"required"`
	TaskType string                 `json:"task_type" binding:"required"`
	Input    map[string]interface{} `json:"input"`
}

// submitTask accepts a workflow definition, schedules it, and runs it
// to completion in the background: the call returns immediately with a
// workflow ID that taskStatus polls against.
func (s *Server) submitTask(c *gin.Context) {
	var req submitTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, svcerrors.InvalidInput("body", err.Error()))
		return
	}

	workflowID := req.ID
	if workflowID == "" {
		workflowID = uuid.NewString()
	}

	tasks := make([]domain.Task, 0, len(req.Tasks))
	for _, t := range req.Tasks {
		tasks = append(tasks, domain.Task{ID: t.ID, Type: domain.TaskType(t.TaskType), Input: t.Input})
	}
	workflow := domain.Workflow{ID: workflowID, Tasks: tasks, Dependencies: req.Dependencies}

	if !s.dispatchWorkflow(c, workflow, nil) {
		return
	}
	respondOK(c, http.StatusAccepted, gin.H{"workflow_id": workflowID, "status": "running"})
}

// dispatchWorkflow schedules workflow and runs it to completion in the
// background, recording its result under workflow.ID for taskStatus to
// poll. onDone, if non-nil, runs after the result is recorded,
// regardless of success, so callers like triggerBuild/runTests can
// translate the outcome into their own domain events. Returns false
// (and has already written the error response) if scheduling failed.
func (s *Server) dispatchWorkflow(c *gin.Context, workflow domain.Workflow, onDone func(domain.WorkflowResult)) bool {
	if s.deps.Executor == nil {
		respondErr(c, svcerrors.Internal("workflow executor not configured", nil))
		return false
	}

	schedule, err := orchestrator.TopologicalSort(workflow)
	if err != nil {
		respondErr(c, err)
		return false
	}

	s.setResult(workflow.ID, domain.WorkflowResult{WorkflowID: workflow.ID})
	s.publishActivity("workflow_submitted", "workflow "+workflow.ID+" submitted", "")

	// Runs past the handler's own request lifetime, so it gets its own
	// background context rather than c.Request.Context().
	go func() {
		ctx := context.Background()
		result, err := s.deps.Executor.Execute(ctx, workflow, schedule)
		if err != nil {
			s.deps.Log.Error(ctx, "workflow execution failed", err, map[string]interface{}{"workflow_id": workflow.ID})
			result = domain.WorkflowResult{WorkflowID: workflow.ID, Success: false}
		}
		s.setResult(workflow.ID, result)
		s.publishActivity("workflow_completed", "workflow "+workflow.ID+" completed", "")
		if onDone != nil {
			onDone(result)
		}
	}()

	return true
}

func (s *Server) taskStatus(c *gin.Context) {
	result, ok := s.getResult(c.Param("id"))
	if !ok {
		respondErr(c, svcerrors.NotFound("workflow", c.Param("id")))
		return
	}
	respondOK(c, http.StatusOK, result)
}

func (s *Server) cancelTask(c *gin.Context) {
	if s.deps.Executor == nil {
		respondErr(c, svcerrors.Internal("workflow executor not configured", nil))
		return
	}
	id := c.Param("id")
	if _, ok := s.getResult(id); !ok {
		respondErr(c, svcerrors.NotFound("workflow", id))
		return
	}
	s.deps.Executor.Cancel(c.Request.Context(), id)
	respondOK(c, http.StatusOK, gin.H{"workflow_id": id, "status": "cancelling"})
}

func (s *Server) setResult(workflowID string, result domain.WorkflowResult) {
	s.resultsMu.Lock()
	defer s.resultsMu.Unlock()
	if s.results == nil {
		s.results = make(map[string]domain.WorkflowResult)
	}
	s.results[workflowID] = result
}

func (s *Server) getResult(workflowID string) (domain.WorkflowResult, bool) {
	s.resultsMu.RLock()
	defer s.resultsMu.RUnlock()
	result, ok := s.results[workflowID]
	return result, ok
}
