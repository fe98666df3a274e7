package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/R3E-Network/agentsvc/domain/workspace"
	svcerrors "github.com/R3E-Network/agentsvc/internal/errors"
)

type createWorkspaceRequest struct {
	Type     string `json:"type"`
	ReadOnly bool   `json:"read_only"`
}

func (s *Server) createWorkspace(c *gin.Context) {
	if s.deps.Engine == nil {
		respondErr(c, svcerrors.Internal("vfs engine not configured", nil))
		return
	}
	var req createWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, svcerrors.InvalidInput("body", err.Error()))
		return
	}
	wsType := workspace.TypeCode
	if req.Type != "" {
		wsType = workspace.Type(req.Type)
	}

	ws := s.deps.Engine.CreateWorkspace(wsType, workspace.SourceLocal, req.ReadOnly)
	s.publishActivity("workspace_created", "workspace created", ws.ID)
	respondOK(c, http.StatusCreated, ws)
}

func (s *Server) getWorkspace(c *gin.Context) {
	if s.deps.Engine == nil {
		respondErr(c, svcerrors.Internal("vfs engine not configured", nil))
		return
	}
	ws, err := s.deps.Engine.Workspace(c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, ws)
}

func (s *Server) getTree(c *gin.Context) {
	if s.deps.Engine == nil {
		respondErr(c, svcerrors.Internal("vfs engine not configured", nil))
		return
	}
	nodes, err := s.deps.Engine.List(c.Param("id"), "", true)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, nodes)
}

func (s *Server) readFile(c *gin.Context) {
	if s.deps.Engine == nil {
		respondErr(c, svcerrors.Internal("vfs engine not configured", nil))
		return
	}
	wsID := c.Param("id")
	if wsID == "" {
		wsID = c.Query("workspace_id")
	}
	path := c.Query("path")
	content, node, err := s.deps.Engine.Read(c.Request.Context(), wsID, path)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"content": string(content), "node": node})
}

type writeFileRequest struct {
	Path    string `json:"path" binding:"required"`
	Content string `json:"content"`
}

func (s *Server) writeFile(c *gin.Context) {
	if s.deps.Engine == nil {
		respondErr(c, svcerrors.Internal("vfs engine not configured", nil))
		return
	}
	var req writeFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, svcerrors.InvalidInput("body", err.Error()))
		return
	}

	node, err := s.deps.Engine.Write(c.Request.Context(), c.Param("id"), req.Path, []byte(req.Content))
	if err != nil {
		respondErr(c, err)
		return
	}

	if s.deps.Pipeline != nil {
		if pipeErr := s.deps.Pipeline.ProcessFile(c.Request.Context(), c.Param("id"), req.Path, []byte(req.Content)); pipeErr != nil {
			s.deps.Log.Warn(c.Request.Context(), "codeintel pipeline failed on write", map[string]interface{}{"error": pipeErr.Error()})
		}
	}
	s.publishActivity("file_written", "file "+req.Path+" written", c.Param("id"))

	respondOK(c, http.StatusOK, node)
}
