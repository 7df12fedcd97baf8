package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
)

// requestLogger writes one structured line per request. Swagger assets and
// health checks are logged at debug level.
func (h *Handler) requestLogger(c *gin.Context) {
	start := time.Now()
	c.Next()
	if h.log == nil {
		return
	}

	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	kv := []interface{}{
		"method", c.Request.Method,
		"path", path,
		"status", c.Writer.Status(),
		"latency_ms", time.Since(start).Milliseconds(),
		"client_ip", c.ClientIP(),
	}
	if len(c.Errors) > 0 {
		kv = append(kv, "errors", c.Errors.String())
	}

	switch {
	case c.Writer.Status() >= 500:
		h.log.Errorw("http_request", kv...)
	case path == "/health" || path == "/swagger/*any" || path == "/metrics":
		h.log.Debugw("http_request", kv...)
	default:
		h.log.Infow("http_request", kv...)
	}
}
