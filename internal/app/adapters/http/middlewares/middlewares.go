package middlewares

import (
	"github.com/gin-gonic/gin"
	"log/slog"
	"time"
	"tirc/pkg/logger"
)

type Middlewares struct {
	log logger.Logger
}

func New(log logger.Logger) *Middlewares {
	return &Middlewares{log: log}
}

// RequestLog writes one debug line per request through the app logger.
func (m *Middlewares) RequestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		m.log.Debug("HTTP request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.String("duration", time.Since(start).String()),
		)
	}
}
