// Package rest implements the versioned REST API: a gin router
// wrapping the workspace, session, memory, codeintel, graph, and
// orchestrator packages behind the uniform
// {success, data, error, request_id, duration_ms} envelope.
package rest

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	svcerrors "github.com/R3E-Network/agentsvc/internal/errors"
)

const requestIDKey = "request_id"
const startTimeKey = "start_time"

// Envelope is the uniform response shape every endpoint returns.
type Envelope struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	RequestID  string      `json:"request_id"`
	DurationMs int64       `json:"duration_ms"`
}

func requestID(c *gin.Context) string {
	if v, ok := c.Get(requestIDKey); ok {
		return v.(string)
	}
	return ""
}

func elapsedMs(c *gin.Context) int64 {
	v, ok := c.Get(startTimeKey)
	if !ok {
		return 0
	}
	return time.Since(v.(time.Time)).Milliseconds()
}

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Envelope{
		Success:    true,
		Data:       data,
		RequestID:  requestID(c),
		DurationMs: elapsedMs(c),
	})
}

func respondErr(c *gin.Context, err error) {
	c.JSON(svcerrors.GetHTTPStatus(err), Envelope{
		Success:    false,
		Error:      err.Error(),
		RequestID:  requestID(c),
		DurationMs: elapsedMs(c),
	})
}

func newRequestID() string {
	return uuid.NewString()
}
