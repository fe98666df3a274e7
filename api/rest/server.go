package rest

import (
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/R3E-Network/agentsvc/auth"
	"github.com/R3E-Network/agentsvc/codeintel"
	busdomain "github.com/R3E-Network/agentsvc/domain/eventbus"
	domainworkflow "github.com/R3E-Network/agentsvc/domain/workflow"
	"github.com/R3E-Network/agentsvc/eventbus"
	"github.com/R3E-Network/agentsvc/graph"
	"github.com/R3E-Network/agentsvc/internal/logging"
	"github.com/R3E-Network/agentsvc/internal/metrics"
	"github.com/R3E-Network/agentsvc/memory"
	"github.com/R3E-Network/agentsvc/orchestrator"
	"github.com/R3E-Network/agentsvc/session"
	"github.com/R3E-Network/agentsvc/vfs"
)

// Deps bundles every service the REST layer delegates to. Fields may
// be left nil when a subsystem is not wired for a given deployment;
// handlers that depend on a nil field return a 500 rather than panic.
type Deps struct {
	Engine   *vfs.Engine
	Sessions *session.Manager
	Graph    *graph.Cache
	Memory   *memory.Subsystem
	Pipeline *codeintel.Pipeline
	Executor *orchestrator.Executor
	Bus      *eventbus.Bus
	Issuer   *auth.JWTIssuer
	Metrics  *metrics.Metrics
	Log      *logging.Logger
	Service  string
}

// activityLogSize bounds the in-process recent-activity ring buffer
// dashboardActivity serves; older entries are still reachable through
// the Event Bus's "activity" channel for anyone subscribed before they
// scrolled off.
const activityLogSize = 100

// Server is the REST API's gin router plus its wired dependencies.
type Server struct {
	router *gin.Engine
	deps   Deps

	resultsMu sync.RWMutex
	results   map[string]domainworkflow.WorkflowResult

	activityMu  sync.RWMutex
	activityLog []busdomain.ActivityFeed
}

// NewServer builds a Server with every middleware and route
// registered. gin.SetMode should be called by the caller before this
// if a non-default gin mode is desired.
func NewServer(deps Deps, corsOrigins []string) *Server {
	if deps.Log == nil {
		deps.Log = logging.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New(deps.Service)
	}
	if deps.Service == "" {
		deps.Service = "agentsvc"
	}

	router := gin.New()
	router.Use(
		requestContext(),
		recovery(deps.Log),
		requestLogging(deps.Log),
		requestMetrics(deps.Metrics, deps.Service),
		cors(corsOrigins),
		bodyLimit(0),
	)

	s := &Server{router: router, deps: deps}
	s.registerRoutes()
	return s
}

// Handler returns the http.Handler to serve, suitable for
// http.Server.Handler.
func (s *Server) Handler() *gin.Engine { return s.router }

func (s *Server) registerRoutes() {
	v1 := s.router.Group("/api/v1")

	v1.POST("/workspaces", s.createWorkspace)
	v1.GET("/workspaces/:id", s.getWorkspace)
	v1.GET("/workspaces/:id/tree", s.getTree)
	v1.GET("/workspaces/:id/files", s.readFile)
	v1.PUT("/workspaces/:id/files", s.writeFile)
	v1.GET("/files/:id", s.readFile)

	v1.POST("/sessions", s.createSession)
	v1.POST("/sessions/:id/merge", s.mergeSession)
	v1.POST("/sessions/:id/abandon", s.abandonSession)
	v1.GET("/sessions/:id", s.getSession)

	v1.GET("/search", s.searchPaths)
	v1.GET("/search/pattern", s.searchPattern)

	v1.POST("/memory/episodes", s.recordEpisode)
	v1.POST("/memory/consolidate", s.consolidateMemory)
	v1.GET("/memory/search", s.searchMemory)

	v1.GET("/units", s.listUnits)
	v1.GET("/workspaces/:id/units", s.listUnits)
	v1.GET("/workspaces/:id/dependencies", s.dependencies)
	v1.GET("/analysis/impact", s.analysisImpact)
	v1.GET("/analysis/cycles", s.analysisCycles)

	v1.POST("/tasks", s.submitTask)
	v1.GET("/tasks/:id", s.taskStatus)
	v1.POST("/tasks/:id/cancel", s.cancelTask)

	v1.POST("/export", s.exportWorkspace)
	v1.POST("/import", s.importWorkspace)

	v1.POST("/locks", s.acquireLock)
	v1.DELETE("/locks/:id", s.releaseLock)

	v1.POST("/build/trigger", s.triggerBuild)
	v1.POST("/test/run", s.runTests)

	v1.GET("/dashboard/overview", s.dashboardOverview)
	v1.GET("/dashboard/activity", s.dashboardActivity)
	v1.GET("/dashboard/metrics", s.dashboardMetrics)
	v1.GET("/dashboard/health", s.dashboardHealth)

	v1.POST("/credentials", s.issueCredential)

	v1.GET("/ws", s.handleWebSocket)
}

// publishActivity records an entry in the recent-activity ring buffer
// and, if an Event Bus is wired, publishes it for live subscribers. A
// nil Bus only skips the publish; the ring buffer is always updated so
// dashboardActivity works even with no bus configured.
func (s *Server) publishActivity(kind, desc, workspaceID string) {
	entry := busdomain.ActivityFeed{Kind: kind, Desc: desc, Workspace: workspaceID}

	s.activityMu.Lock()
	s.activityLog = append(s.activityLog, entry)
	if len(s.activityLog) > activityLogSize {
		s.activityLog = s.activityLog[len(s.activityLog)-activityLogSize:]
	}
	s.activityMu.Unlock()

	if s.deps.Bus == nil {
		return
	}
	s.deps.Bus.Publish(entry)
}

// recentActivity returns a copy of the activity ring buffer, newest last.
func (s *Server) recentActivity() []busdomain.ActivityFeed {
	s.activityMu.RLock()
	defer s.activityMu.RUnlock()
	out := make([]busdomain.ActivityFeed, len(s.activityLog))
	copy(out, s.activityLog)
	return out
}
