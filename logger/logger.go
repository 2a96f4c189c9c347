package logger

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	// ContextKey is the gin context key holding the request-scoped entry
	ContextKey    = "logger"
	RequestIDKey  = "request_id"
	RequestHeader = "X-Request-ID"
)

// Setup configures the standard logrus logger for the process
func Setup(level string, release bool) {
	if release {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logrus.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}

// FromContext returns the request-scoped entry, or the standard logger
func FromContext(c *gin.Context) *logrus.Entry {
	if c != nil {
		if v, ok := c.Get(ContextKey); ok {
			if entry, ok := v.(*logrus.Entry); ok {
				return entry
			}
		}
	}
	return logrus.NewEntry(logrus.StandardLogger())
}
