package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	svcerrors "github.com/R3E-Network/agentsvc/internal/errors"
	"github.com/R3E-Network/agentsvc/vfs"
)

type exportRequest struct {
	WorkspaceID         string `json:"workspace_id" binding:"required"`
	TargetDir           string `json:"target_dir" binding:"required"`
	Atomic              bool   `json:"atomic"`
	DryRun              bool   `json:"dry_run"`
	PreservePermissions bool   `json:"preserve_permissions"`
	PreserveTimestamps  bool   `json:"preserve_timestamps"`
	Parallel            bool   `json:"parallel"`
	MaxWorkers          int    `json:"max_workers"`
}

// exportWorkspace materializes a workspace onto the physical
// filesystem at TargetDir, a path on the server's own host (the CLI
// collaborator drives this against a checked-out working copy).
func (s *Server) exportWorkspace(c *gin.Context) {
	if s.deps.Engine == nil {
		respondErr(c, svcerrors.Internal("vfs engine not configured", nil))
		return
	}
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, svcerrors.InvalidInput("body", err.Error()))
		return
	}

	scope := vfs.Scope{Kind: vfs.ScopeWorkspace, WorkspaceID: req.WorkspaceID}
	report, err := s.deps.Engine.Flush(c.Request.Context(), req.WorkspaceID, scope, req.TargetDir, vfs.FlushOptions{
		Atomic:              req.Atomic,
		DryRun:              req.DryRun,
		PreservePermissions: req.PreservePermissions,
		PreserveTimestamps:  req.PreserveTimestamps,
		Parallel:            req.Parallel,
		MaxWorkers:          req.MaxWorkers,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, report)
}

type importRequest struct {
	BaseDir            string   `json:"base_dir" binding:"required"`
	Include            []string `json:"include"`
	Exclude            []string `json:"exclude"`
	ReadOnly           bool     `json:"read_only"`
	ProcessCode        bool     `json:"process_code"`
	GenerateEmbeddings bool     `json:"generate_embeddings"`
}

// importWorkspace walks BaseDir on the server's host and ingests it
// into a fresh workspace, optionally running it through the
// code-intelligence pipeline.
func (s *Server) importWorkspace(c *gin.Context) {
	if s.deps.Engine == nil {
		respondErr(c, svcerrors.Internal("vfs engine not configured", nil))
		return
	}
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, svcerrors.InvalidInput("body", err.Error()))
		return
	}

	var processor vfs.CodeProcessor
	if req.ProcessCode && s.deps.Pipeline != nil {
		processor = s.deps.Pipeline
	}
	importer := vfs.NewImporter(s.deps.Engine, processor)

	ws, err := importer.Import(c.Request.Context(), req.BaseDir, vfs.ImportOptions{
		Include:            req.Include,
		Exclude:            req.Exclude,
		ReadOnly:           req.ReadOnly,
		ProcessCode:        req.ProcessCode,
		GenerateEmbeddings: req.GenerateEmbeddings,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	s.publishActivity("workspace_imported", "workspace imported from "+req.BaseDir, ws.ID)
	respondOK(c, http.StatusCreated, ws)
}
