package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wardline/ward-api/pkg/logger"
)

// RequestLogger emits one structured line per request.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetString(ContextRequestID),
			"tenant_id", c.GetString(ContextTenantID),
			"client_ip", c.ClientIP())
	}
}
