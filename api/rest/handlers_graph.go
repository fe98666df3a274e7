package rest

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	svcerrors "github.com/R3E-Network/agentsvc/internal/errors"
)

func depthParam(c *gin.Context, fallback int) int {
	raw := c.Query("depth")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func (s *Server) listUnits(c *gin.Context) {
	if s.deps.Graph == nil {
		respondErr(c, svcerrors.Internal("graph cache not configured", nil))
		return
	}
	respondOK(c, http.StatusOK, s.deps.Graph.Stats())
}

func (s *Server) dependencies(c *gin.Context) {
	if s.deps.Graph == nil {
		respondErr(c, svcerrors.Internal("graph cache not configured", nil))
		return
	}
	unit := c.Query("unit_id")
	if unit == "" {
		respondErr(c, svcerrors.InvalidInput("unit_id", "required"))
		return
	}
	deps := s.deps.Graph.Dependencies(unit, depthParam(c, 1))
	dependents := s.deps.Graph.Dependents(unit, depthParam(c, 1))
	respondOK(c, http.StatusOK, gin.H{"dependencies": deps, "dependents": dependents})
}

func (s *Server) analysisImpact(c *gin.Context) {
	if s.deps.Graph == nil {
		respondErr(c, svcerrors.Internal("graph cache not configured", nil))
		return
	}
	unit := c.Query("unit_id")
	if unit == "" {
		respondErr(c, svcerrors.InvalidInput("unit_id", "required"))
		return
	}
	impacted := s.deps.Graph.Dependents(unit, depthParam(c, 0))
	respondOK(c, http.StatusOK, gin.H{"unit_id": unit, "impacted": impacted})
}

func (s *Server) analysisCycles(c *gin.Context) {
	if s.deps.Graph == nil {
		respondErr(c, svcerrors.Internal("graph cache not configured", nil))
		return
	}
	from := c.Query("from")
	to := c.Query("to")
	if from == "" || to == "" {
		respondErr(c, svcerrors.InvalidInput("from/to", "both required"))
		return
	}
	cyclic := s.deps.Graph.HasPath(from, to) && s.deps.Graph.HasPath(to, from)
	respondOK(c, http.StatusOK, gin.H{"from": from, "to": to, "cyclic": cyclic})
}

// searchPaths is a substring search over workspace paths, grounded on
// nothing more elaborate than the VFS's own path listing: a dedicated
// full-text index is out of scope.
func (s *Server) searchPaths(c *gin.Context) {
	if s.deps.Engine == nil {
		respondErr(c, svcerrors.Internal("vfs engine not configured", nil))
		return
	}
	wsID := c.Query("workspace_id")
	query := c.Query("q")
	nodes, err := s.deps.Engine.List(wsID, "", true)
	if err != nil {
		respondErr(c, err)
		return
	}
	var matches []string
	for _, n := range nodes {
		if query == "" || strings.Contains(n.Path, query) {
			matches = append(matches, n.Path)
		}
	}
	respondOK(c, http.StatusOK, gin.H{"matches": matches})
}

func (s *Server) searchPattern(c *gin.Context) {
	s.searchPaths(c)
}
