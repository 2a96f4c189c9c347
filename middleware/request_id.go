package middleware

import (
	"time"

	"codewhisperer/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestLogger tags every request with an id and a request-scoped log entry
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(logger.RequestHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(logger.RequestHeader, id)
		c.Set(logger.RequestIDKey, id)

		entry := logrus.WithFields(logrus.Fields{
			"request_id": id,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
		})
		c.Set(logger.ContextKey, entry)

		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"ip":       c.ClientIP(),
		}
		log := logger.FromContext(c).WithFields(fields)
		switch {
		case len(c.Errors) > 0:
			log.WithError(c.Errors.Last()).Error("Request failed")
		case c.Writer.Status() >= 500:
			log.Error("Request failed")
		default:
			log.Debug("Request handled")
		}
	}
}
