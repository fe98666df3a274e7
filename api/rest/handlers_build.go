package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	event "github.com/R3E-Network/agentsvc/domain/eventbus"
	domain "github.com/R3E-Network/agentsvc/domain/workflow"
	svcerrors "github.com/R3E-Network/agentsvc/internal/errors"
)

type buildTriggerRequest struct {
	WorkspaceID string                 `json:"workspace_id" binding:"required"`
	Input       map[string]interface{} `json:"input"`
}

// triggerBuild is a convenience wrapper over workflow submission: it
// runs a single development-type task and translates the outcome into
// BuildProgress events on the "build:<id>" channel, for callers that
// want a build-shaped API rather than the general workflow one.
func (s *Server) triggerBuild(c *gin.Context) {
	var req buildTriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, svcerrors.InvalidInput("body", err.Error()))
		return
	}

	buildID := uuid.NewString()
	workflow := domain.Workflow{
		ID:    buildID,
		Tasks: []domain.Task{{ID: buildID, Type: domain.TaskDevelopment, Input: req.Input}},
	}

	s.publishBuildProgress(buildID, req.WorkspaceID, "started", 0, "build started")
	if !s.dispatchWorkflow(c, workflow, func(result domain.WorkflowResult) {
		status, progress, msg := "failed", 1.0, "build failed"
		if result.Success {
			status, msg = "completed", "build completed"
		}
		s.publishBuildProgress(buildID, req.WorkspaceID, status, progress, msg)
	}) {
		return
	}

	respondOK(c, http.StatusAccepted, gin.H{"build_id": buildID, "status": "running"})
}

func (s *Server) publishBuildProgress(buildID, workspaceID, status string, progress float64, msg string) {
	if s.deps.Bus == nil {
		return
	}
	s.deps.Bus.Publish(event.BuildProgress{
		Build:     buildID,
		Workspace: workspaceID,
		Status:    status,
		Progress:  progress,
		Msg:       msg,
	})
}

type testRunRequest struct {
	WorkspaceID string                 `json:"workspace_id" binding:"required"`
	Input       map[string]interface{} `json:"input"`
}

// runTests is the test-running counterpart to triggerBuild: a single
// testing-type task whose outcome is translated into a TestResults
// event. Pass/fail counts come from the task's reported output when
// the agent supplies them (keys "total"/"passed"/"failed"); otherwise
// the run is reported as a single pass/fail.
func (s *Server) runTests(c *gin.Context) {
	var req testRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, svcerrors.InvalidInput("body", err.Error()))
		return
	}

	runID := uuid.NewString()
	workflow := domain.Workflow{
		ID:    runID,
		Tasks: []domain.Task{{ID: runID, Type: domain.TaskTesting, Input: req.Input}},
	}

	if !s.dispatchWorkflow(c, workflow, func(result domain.WorkflowResult) {
		total, passed, failed := 1, 0, 1
		if result.Success {
			passed, failed = 1, 0
		}
		if taskResult, ok := result.TaskResults[runID]; ok {
			if counts, ok := taskResult.Output.(map[string]interface{}); ok {
				total = intField(counts, "total", total)
				passed = intField(counts, "passed", passed)
				failed = intField(counts, "failed", failed)
			}
		}
		if s.deps.Bus != nil {
			s.deps.Bus.Publish(event.TestResults{
				ID:        runID,
				Workspace: req.WorkspaceID,
				Total:     total,
				Passed:    passed,
				Failed:    failed,
			})
		}
	}) {
		return
	}

	respondOK(c, http.StatusAccepted, gin.H{"run_id": runID, "status": "running"})
}

func intField(m map[string]interface{}, key string, fallback int) int {
	v, ok := m[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return fallback
	}
}
