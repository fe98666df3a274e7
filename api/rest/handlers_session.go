package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	domain "github.com/R3E-Network/agentsvc/domain/session"
	svcerrors "github.com/R3E-Network/agentsvc/internal/errors"
	"github.com/R3E-Network/agentsvc/vfs"
)

type createSessionRequest struct {
	WorkspaceID string `json:"workspace_id" binding:"required"`
}

func (s *Server) createSession(c *gin.Context) {
	if s.deps.Sessions == nil {
		respondErr(c, svcerrors.Internal("session manager not configured", nil))
		return
	}
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, svcerrors.InvalidInput("body", err.Error()))
		return
	}

	sess, err := s.deps.Sessions.Create(req.WorkspaceID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusCreated, sess)
}

func (s *Server) getSession(c *gin.Context) {
	if s.deps.Sessions == nil {
		respondErr(c, svcerrors.Internal("session manager not configured", nil))
		return
	}
	sess, err := s.deps.Sessions.Get(c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, sess)
}

type mergeSessionRequest struct {
	Strategy string `json:"strategy"`
}

func (s *Server) mergeSession(c *gin.Context) {
	if s.deps.Sessions == nil {
		respondErr(c, svcerrors.Internal("session manager not configured", nil))
		return
	}
	var req mergeSessionRequest
	_ = c.ShouldBindJSON(&req)
	strategy := vfs.MergeStrategy(req.Strategy)
	if strategy == "" {
		strategy = vfs.MergeAutoMerge
	}

	report, err := s.deps.Sessions.Merge(c.Request.Context(), c.Param("id"), strategy)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, report)
}

func (s *Server) abandonSession(c *gin.Context) {
	if s.deps.Sessions == nil {
		respondErr(c, svcerrors.Internal("session manager not configured", nil))
		return
	}
	if err := s.deps.Sessions.Abandon(c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"status": "abandoned"})
}

type acquireLockRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Path      string `json:"path" binding:"required"`
	Kind      string `json:"kind"`
	TimeoutMs int64  `json:"timeout_ms"`
}

func (s *Server) acquireLock(c *gin.Context) {
	if s.deps.Sessions == nil {
		respondErr(c, svcerrors.Internal("session manager not configured", nil))
		return
	}
	var req acquireLockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, svcerrors.InvalidInput("body", err.Error()))
		return
	}
	kind := domain.LockKind(req.Kind)
	if kind == "" {
		kind = domain.LockShared
	}
	timeout := time.Duration(req.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	lock, err := s.deps.Sessions.AcquireLock(c.Request.Context(), req.SessionID, req.Path, kind, timeout)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusCreated, lock)
}

func (s *Server) releaseLock(c *gin.Context) {
	if s.deps.Sessions == nil {
		respondErr(c, svcerrors.Internal("session manager not configured", nil))
		return
	}
	s.deps.Sessions.ReleaseLock(c.Param("id"))
	respondOK(c, http.StatusOK, gin.H{"status": "released"})
}
