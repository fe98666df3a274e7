package rest

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	svcerrors "github.com/R3E-Network/agentsvc/internal/errors"
	"github.com/R3E-Network/agentsvc/internal/logging"
	"github.com/R3E-Network/agentsvc/internal/metrics"
)

// requestContext stamps every request with a request ID and start
// time, propagating an inbound X-Request-ID header rather
// than minting a fresh one, matching the teacher's trace-id handling.
func requestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = newRequestID()
		}
		c.Set(requestIDKey, id)
		c.Set(startTimeKey, time.Now())
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// recovery converts a panic into an internal-error envelope instead of
// crashing the connection, logging the stack the way the teacher's
// RecoveryMiddleware does.
func recovery(log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error(c.Request.Context(), "panic recovered", fmt.Errorf("%v", r), map[string]interface{}{
					"stack": string(debug.Stack()),
					"path":  c.Request.URL.Path,
				})
				respondErr(c, svcerrors.Internal("internal server error", fmt.Errorf("%v", r)))
				c.Abort()
			}
		}()
		c.Next()
	}
}

// requestLogging logs each request's method, path, and status the way
// the teacher's LoggingMiddleware does, minus the mux-specific route
// template lookup (gin exposes this via c.FullPath instead).
func requestLogging(log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info(c.Request.Context(), "http request", map[string]interface{}{
			"method":      c.Request.Method,
			"path":        c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
	}
}

// requestMetrics records per-request duration and status the way the
// teacher's MetricsMiddleware does.
func requestMetrics(m *metrics.Metrics, service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.IncrementInFlight()
		defer m.DecrementInFlight()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		m.RecordHTTPRequest(service, c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// bodyLimit caps request bodies, matching the teacher's
// BodyLimitMiddleware default of 8MiB.
func bodyLimit(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = 8 << 20
	}
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			respondErr(c, svcerrors.New(svcerrors.KindInvalidInput, "request body too large"))
			c.Abort()
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// cors mirrors the teacher's CORSConfig shape, translated to a gin
// middleware.
func cors(allowedOrigins []string) gin.HandlerFunc {
	allowAll := false
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowed := origin != "" && (allowAll || containsOrigin(allowedOrigins, origin))
		if allowed {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func containsOrigin(origins []string, origin string) bool {
	for _, o := range origins {
		if o == origin {
			return true
		}
	}
	return false
}
