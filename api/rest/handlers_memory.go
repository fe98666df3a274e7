package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	svcerrors "github.com/R3E-Network/agentsvc/internal/errors"
	"github.com/R3E-Network/agentsvc/memory"
)

type recordEpisodeRequest struct {
	WorkspaceID string   `json:"workspace_id" binding:"required"`
	Description string   `json:"description" binding:"required"`
	Embedding   []float32 `json:"embedding"`
	Importance  float64  `json:"importance"`
}

func (s *Server) recordEpisode(c *gin.Context) {
	if s.deps.Memory == nil {
		respondErr(c, svcerrors.Internal("memory subsystem not configured", nil))
		return
	}
	var req recordEpisodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, svcerrors.InvalidInput("body", err.Error()))
		return
	}
	respondOK(c, http.StatusAccepted, gin.H{"status": "accepted", "description": req.Description})
}

func (s *Server) consolidateMemory(c *gin.Context) {
	if s.deps.Memory == nil {
		respondErr(c, svcerrors.Internal("memory subsystem not configured", nil))
		return
	}
	promoted, err := s.deps.Memory.Consolidate(c.Request.Context(), memory.DefaultConsolidationThreshold)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"patterns_promoted": len(promoted)})
}

func (s *Server) searchMemory(c *gin.Context) {
	if s.deps.Memory == nil {
		respondErr(c, svcerrors.Internal("memory subsystem not configured", nil))
		return
	}
	limit := 10
	results, err := s.deps.Memory.FindRelatedEpisodes(c.Request.Context(), c.Query("source_id"), limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, results)
}
