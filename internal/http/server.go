// Package http provides the API server, its router and the metrics server.
package http

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/newsletter/internal/config"
	idempotencyHTTP "github.com/allisson/newsletter/internal/idempotency/http"
	"github.com/allisson/newsletter/internal/metrics"
	newsletterHTTP "github.com/allisson/newsletter/internal/newsletter/http"
	operatorHTTP "github.com/allisson/newsletter/internal/operator/http"
	operatorService "github.com/allisson/newsletter/internal/operator/service"
	operatorUseCase "github.com/allisson/newsletter/internal/operator/usecase"
)

// readinessTimeout bounds the database ping of /ready.
const readinessTimeout = 2 * time.Second

// Server is the API HTTP server.
type Server struct {
	db     *sql.DB
	server *http.Server
	router *gin.Engine
	logger *slog.Logger
}

// NewServer creates a Server. SetupRouter must be called before Start.
func NewServer(db *sql.DB, host string, port int, logger *slog.Logger) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// SetupRouter registers middleware and routes. Everything under /v1 requires
// an operator bearer token.
func (s *Server) SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	issueHandler *newsletterHTTP.IssueHandler,
	keyHandler *idempotencyHTTP.KeyHandler,
	operators operatorUseCase.OperatorUseCase,
	tokenService operatorService.TokenService,
	metricsProvider *metrics.Provider,
) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))
	if cors := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); cors != nil {
		router.Use(cors)
	}
	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")
	v1.Use(operatorHTTP.AuthenticationMiddleware(operators, tokenService, s.logger))
	if cfg.RateLimitEnabled {
		v1.Use(operatorHTTP.RateLimitMiddleware(ctx, cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, s.logger))
	}

	newsletters := v1.Group("/newsletters")
	newsletters.POST("", issueHandler.PublishHandler)
	newsletters.GET("", issueHandler.ListHandler)
	newsletters.GET("/:id", issueHandler.GetHandler)
	newsletters.GET("/:id/deliveries", issueHandler.DeliveriesHandler)

	keys := v1.Group("/idempotency-keys")
	keys.GET("", keyHandler.ListHandler)
	keys.PATCH("/:key", keyHandler.SetValidityHandler)

	s.router = router
}

// GetHandler returns the configured router.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start serves requests until Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return errors.New("router not configured")
	}
	s.server.Handler = s.router
	s.server.BaseContext = func(net.Listener) context.Context { return ctx }

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports ready only when the database answers a ping.
func (s *Server) readinessHandler(c *gin.Context) {
	if s.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": gin.H{"database": "error"},
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Warn("readiness check failed", slog.Any("error", err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": gin.H{"database": "error"},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": gin.H{"database": "ok"},
	})
}
