package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/convreg/convreg/internal/application/registry"
	"github.com/convreg/convreg/internal/ports"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server represents the HTTP API server.
type Server struct {
	router   *gin.Engine
	server   *http.Server
	registry *registry.Manager
	eventBus ports.EventBus
	logger   *zap.Logger

	// Registration handles owned by API clients, keyed by handle ID.
	handles sync.Map
}

// Config holds HTTP server configuration.
type Config struct {
	Port     int
	Registry *registry.Manager
	EventBus ports.EventBus
	Logger   *zap.Logger
}

// NewServer creates a new HTTP server.
func NewServer(cfg *Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(cfg.Logger))
	router.Use(corsMiddleware())

	s := &Server{
		router:   router,
		registry: cfg.Registry,
		eventBus: cfg.EventBus,
		logger:   cfg.Logger,
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	return s
}

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", s.handleHealth)

	// Metrics
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1
	v1 := s.router.Group("/api/v1")
	{
		// URL registration and queries
		v1.POST("/urls", s.handleRegisterURL)
		v1.DELETE("/urls/:handle_id", s.handleReleaseURL)
		v1.GET("/urls/convertible", s.handleHasConversions)
		v1.GET("/urls/mimetypes", s.handlePossibleMimeTypes)
		v1.GET("/urls/viewers", s.handleViewers)

		// Conversions and views
		v1.POST("/conversions", s.handleConvert)
		v1.POST("/views", s.handleView)
	}
}

// SetupWebSocket adds the WebSocket event stream to the server.
func (s *Server) SetupWebSocket(handler interface {
	HandleEventStream(*gin.Context)
}) {
	s.router.GET("/api/v1/events/ws", handler.HandleEventStream)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info("HTTP server shut down complete")
	return nil
}

// requestLogger is a middleware for request logging.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		duration := time.Since(start)

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", duration),
			zap.String("client_ip", c.ClientIP()))
	}
}
