package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "budgetdash/docs"
	"budgetdash/internal/assistant"
	"budgetdash/internal/cache"
	applog "budgetdash/internal/log"
	"budgetdash/internal/middleware/ratelimit"
	"budgetdash/internal/middleware/security"
	"budgetdash/internal/middleware/trace"
	"budgetdash/internal/services"
)

const cacheCleanupInterval = 10 * time.Minute

// Options configures NewServer. Zero values fall back to sensible defaults.
type Options struct {
	Addr               string
	CORSAllowedOrigins []string
	RateLimitPerMinute int
	Logger             *applog.Logger
	// Assistant enables POST /assistant/intent when set.
	Assistant *assistant.Assistant
	// Ready reports whether dependencies are reachable for /readyz.
	Ready func(ctx context.Context) error
}

// Server is the JSON API. It embeds http.Server so callers can ListenAndServe directly.
type Server struct {
	http.Server
	svc       *services.Services
	assistant *assistant.Assistant
	logger    *applog.Logger
	ready     func(ctx context.Context) error
	now       func() time.Time

	rateLimiter  *ratelimit.Limiter
	detector     *security.Detector
	tracer       *trace.Middleware
	cacheManager *cache.Manager
	shutdownOnce sync.Once
}

// NewServer configures middleware and routes, returning a ready-to-run server.
// Every API route is served both at the root and under /api.
func NewServer(svc *services.Services, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.Config{Handler: slog.Default().Handler()})
	}

	detector, err := security.NewDetector(security.DefaultTrustedProxies...)
	if err != nil {
		return nil, err
	}

	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		svc:          svc,
		assistant:    opts.Assistant,
		logger:       logger.WithComponent(applog.ComponentHTTP),
		ready:        opts.Ready,
		now:          func() time.Time { return time.Now().UTC() },
		rateLimiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector:     detector,
		tracer:       trace.NewMiddleware(logger),
		cacheManager: cache.NewManager(),
	}

	s.cacheManager.Register(svc.Projections.Cache())
	s.cacheManager.StartCleanup(cacheCleanupInterval)

	s.Handler = s.routes(logger, opts.CORSAllowedOrigins)
	return s, nil
}

func (s *Server) routes(logger *applog.Logger, origins []string) *gin.Engine {
	useJSONFieldNames()

	r := gin.New()
	if err := r.SetTrustedProxies(s.detector.TrustedProxies()); err != nil {
		s.logger.WarnContext(context.Background(), "Failed to set trusted proxies", applog.FieldError, err)
	}
	r.Use(gin.CustomRecovery(s.recovered))
	r.Use(s.tracer.Handler())
	r.Use(applog.Middleware(logger, trace.GetRequestID))
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Handler())
	r.Use(s.detector.Handler())
	r.Use(cors.New(corsConfig(origins)))
	r.Use(s.rateLimiter.Handler(func(c *gin.Context) {
		applog.FromContext(c.Request.Context()).WarnContext(c.Request.Context(), "Rate limit exceeded",
			applog.NewFields().
				WithComponent(applog.ComponentRateLimit).
				WithErrorType(applog.ErrorTypeRateLimit).
				WithClientIP(c.ClientIP()).
				WithHTTPRequest(c.Request.Method, c.Request.URL.Path, "", "", "").
				ToSlice()...)
		TooManyRequests().Write(c)
	}, http.MethodPost, http.MethodPut, http.MethodDelete))

	r.GET("/healthz", s.handleHealth)
	r.GET("/readyz", s.handleReady)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	s.registerAPI(&r.RouterGroup)
	s.registerAPI(r.Group("/api"))

	r.NoRoute(func(c *gin.Context) {
		NotFound("Route not found").Write(c)
	})
	return r
}

func (s *Server) registerAPI(g *gin.RouterGroup) {
	tx := g.Group("/transactions")
	tx.GET("", s.handleListTransactions)
	tx.POST("", s.handleCreateTransaction)
	tx.POST("/recurring", s.handleCreateRecurring)
	tx.PUT("/group/:groupId", s.handleUpdateGroup)
	tx.DELETE("/group/:groupId", s.handleDeleteGroup)
	tx.GET("/:id", s.handleGetTransaction)
	tx.PUT("/:id", s.handleUpdateTransaction)
	tx.DELETE("/:id", s.handleDeleteTransaction)

	cat := g.Group("/categories")
	cat.GET("", s.handleListCategories)
	cat.POST("", s.handleCreateCategory)
	cat.GET("/:id", s.handleGetCategory)
	cat.PUT("/:id", s.handleUpdateCategory)
	cat.DELETE("/:id", s.handleDeleteCategory)

	g.GET("/settings", s.handleGetSettings)
	g.PUT("/settings", s.handleUpdateSettings)

	g.GET("/projections/summary", s.handleSummary)

	g.GET("/migrate/export", s.handleExport)
	g.POST("/migrate/import", s.handleImport)

	if s.assistant != nil {
		g.POST("/assistant/intent", s.handleIntent)
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", trace.RequestIDHeader},
		ExposeHeaders: []string{trace.RequestIDHeader, "Retry-After", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if strings.TrimSpace(o) == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowAllOrigins = true
	}
	return cfg
}

func (s *Server) recovered(c *gin.Context, rec any) {
	applog.FromContext(c.Request.Context()).ErrorContext(c.Request.Context(), "Panic recovered",
		"panic", rec,
		applog.FieldMethod, c.Request.Method,
		applog.FieldPath, c.Request.URL.Path)
	InternalError().Write(c)
}

// Shutdown stops background cleanup and gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
