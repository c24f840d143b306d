package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	applog "budgetdash/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(c *gin.Context) {
	OK(c, healthResponse{Status: "ok"})
}

// handleReady checks that the database answers within a short deadline.
func (s *Server) handleReady(c *gin.Context) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			applog.FromContext(ctx).WarnContext(ctx, "Readiness check failed", applog.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, CodeUnknown, "Service not ready").Write(c)
			return
		}
	}
	OK(c, healthResponse{Status: "ready", Metrics: s.metrics()})
}

func (s *Server) metrics() *serverMetrics {
	requests := s.tracer.GetMetrics()
	limits := s.rateLimiter.GetMetrics()
	return &serverMetrics{
		Requests:           requests.TotalRequests,
		AvgResponseMicros:  requests.AverageResponseTime,
		RateLimited:        limits.TotalHits,
		RateLimitedClients: limits.ClientCount,
		SuspiciousRequests: s.detector.GetMetrics().SuspiciousRequests,
		SummaryCache:       s.svc.Projections.Cache().Stats(),
	}
}
