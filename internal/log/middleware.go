package log

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
)

// NewContext returns ctx carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext extracts a logger from the request context
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: ComponentApp,
	}
}

// Middleware stores a request-scoped logger in the request context. It runs after
// the trace middleware so extractRequestID can read the id that middleware assigned.
func Middleware(logger *Logger, extractRequestID func(context.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := logger.WithComponent(ComponentHTTP)
		if extractRequestID != nil {
			if id := extractRequestID(c.Request.Context()); id != "" {
				l = l.With(FieldRequestID, id)
			}
		}
		c.Request = c.Request.WithContext(NewContext(c.Request.Context(), l))
		c.Next()
	}
}
