package observability

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/danmuck/tsctl/internal/protocol"
)

// operationFromPath maps a request path to the control-protocol operation
// name used as the metrics label. GET / is the capability probe.
func operationFromPath(c *gin.Context) string {
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	op := strings.TrimPrefix(path, "/")
	if op == "" {
		return "root"
	}
	return op
}

// RequestLogger logs each control-protocol request the mock server handles,
// tagging it with the calling client's identity when the header is present.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := logger.Info()
		if status >= 500 {
			event = logger.Error()
		} else if status >= 400 {
			event = logger.Warn()
		}
		if clientID := c.Request.Header.Get(protocol.HeaderClientID); clientID != "" {
			event = event.Str("client_id", clientID)
		}

		event.
			Str("method", c.Request.Method).
			Str("operation", operationFromPath(c)).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("test server request")
	}
}

// RequestMetricsMiddleware feeds the mock-server request counters.
func RequestMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		RecordMockRequest(c.Request.Method, operationFromPath(c), c.Writer.Status(), time.Since(start))
	}
}
