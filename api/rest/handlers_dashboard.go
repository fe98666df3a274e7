package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// dashboardOverview reports a coarse snapshot of every wired
// subsystem, enough for a status board without exposing internals.
func (s *Server) dashboardOverview(c *gin.Context) {
	overview := gin.H{"service": s.deps.Service}
	if s.deps.Graph != nil {
		overview["graph"] = s.deps.Graph.Stats()
	}
	s.resultsMu.RLock()
	overview["workflows_tracked"] = len(s.results)
	s.resultsMu.RUnlock()
	respondOK(c, http.StatusOK, overview)
}

// dashboardActivity reports the most recent activity feed entries,
// newest last. It reads the in-process ring buffer rather than the
// Event Bus directly, so a caller that connects after the fact still
// sees history; live updates belong on the /ws "activity" channel.
func (s *Server) dashboardActivity(c *gin.Context) {
	respondOK(c, http.StatusOK, gin.H{"activity": s.recentActivity()})
}

// dashboardMetrics reports a JSON snapshot of the counters most useful
// to a status board. Full Prometheus exposition (histograms, per-label
// series) is served separately at /metrics; this endpoint is for
// dashboards that want plain numbers without a Prometheus client.
func (s *Server) dashboardMetrics(c *gin.Context) {
	metrics := gin.H{}
	if s.deps.Graph != nil {
		metrics["graph"] = s.deps.Graph.Stats()
	}
	s.resultsMu.RLock()
	metrics["workflows_tracked"] = len(s.results)
	s.resultsMu.RUnlock()
	metrics["activity_entries"] = len(s.recentActivity())
	respondOK(c, http.StatusOK, metrics)
}

// dashboardHealth reports which optional subsystems are wired, the
// lightweight companion to the top-level /health liveness endpoint.
func (s *Server) dashboardHealth(c *gin.Context) {
	respondOK(c, http.StatusOK, gin.H{
		"engine":   s.deps.Engine != nil,
		"sessions": s.deps.Sessions != nil,
		"graph":    s.deps.Graph != nil,
		"memory":   s.deps.Memory != nil,
		"pipeline": s.deps.Pipeline != nil,
		"executor": s.deps.Executor != nil,
		"bus":      s.deps.Bus != nil,
		"issuer":   s.deps.Issuer != nil,
	})
}
