package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// AccessLog logs one line per request once the handler chain is done.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		reqID, _ := c.Get(ContextRequestIDKey)
		id, _ := reqID.(string)
		fields := []zap.Field{
			zap.String("request_id", id),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		logger := logutil.GetLogger(c.Request.Context())
		if c.Writer.Status() >= 500 {
			logger.Warn("request finished", fields...)
			return
		}
		logger.Debug("request finished", fields...)
	}
}
