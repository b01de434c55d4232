package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goliatone/go-interactions/core"
	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-Id"
	requestIDKey    = "request_id"
)

// RequestIDMiddleware reuses an incoming X-Request-Id or mints a UUID.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header(HeaderRequestID, requestID)
		c.Next()
	}
}

func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// RecoveryMiddleware turns a panic into a 500 internal_error body.
func RecoveryMiddleware(logger core.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		core.LogWithLevel(c.Request.Context(), logger, core.LevelError, "panic recovered", map[string]any{
			"request_id": RequestID(c),
			"path":       c.Request.URL.Path,
			"error":      fmt.Sprint(recovered),
		})
		status, body := errorResponse(RequestID(c), internalError("server: handler panicked"))
		c.AbortWithStatusJSON(status, body)
	})
}

func LoggingMiddleware(logger core.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		level := core.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = core.LevelError
		case status >= http.StatusBadRequest:
			level = core.LevelWarn
		}
		core.LogWithLevel(c.Request.Context(), logger, level, "request completed", map[string]any{
			"request_id": RequestID(c),
			"method":     c.Request.Method,
			"path":       path,
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
		})
	}
}
