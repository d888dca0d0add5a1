// Package http provides the HTTP adapter for the invoice editor.
// Handlers translate requests into editor session calls and back.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/clinic-invoice/internal/application/port"
	"github.com/garyjia/clinic-invoice/internal/application/service"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// HealthChecker reports per-component health; a nil error means healthy
type HealthChecker interface {
	CheckHealth(ctx context.Context) map[string]error
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	Mode            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// MaxLogoBytes caps logo uploads
	MaxLogoBytes int64
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		Mode:            gin.ReleaseMode,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		MaxLogoBytes:    2 << 20,
	}
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	sessions   service.SessionService
	verifier   port.SessionVerifier
	health     HealthChecker
	logger     Logger
}

// NewServer creates a new HTTP server. health may be nil.
func NewServer(
	config ServerConfig,
	sessions service.SessionService,
	verifier port.SessionVerifier,
	health HealthChecker,
	logger Logger,
) *Server {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}
	if config.MaxLogoBytes <= 0 {
		config.MaxLogoBytes = DefaultServerConfig().MaxLogoBytes
	}

	server := &Server{
		config:   config,
		router:   gin.New(),
		sessions: sessions,
		verifier: verifier,
		health:   health,
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(requestIDMiddleware())
	s.router.Use(corsMiddleware())
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware logs one line per request
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		fields := []interface{}{
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
			"request_id", c.GetString(requestIDKey),
		}
		if owner := c.GetString(ownerIDKey); owner != "" {
			fields = append(fields, "owner_id", owner)
		}

		if status >= http.StatusInternalServerError {
			s.logger.Error("HTTP request", fields...)
			return
		}
		s.logger.Info("HTTP request", fields...)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	h := NewHandlers(s.sessions, s.health, s.config.MaxLogoBytes, s.logger)

	s.router.GET("/health", h.HealthCheck)

	api := s.router.Group("/api/v1", authMiddleware(s.verifier, s.logger))
	{
		api.POST("/session", h.BeginSession)
		api.DELETE("/session", h.EndSession)
		api.GET("/busy", h.Busy)

		draft := api.Group("/draft")
		{
			draft.GET("", h.GetDraft)
			draft.PUT("/fields/:field", h.SetField)
			draft.PUT("/tax-rate", h.SetTaxRate)
			draft.POST("/items", h.AddItem)
			draft.PATCH("/items/:index", h.UpdateItem)
			draft.DELETE("/items/:index", h.RemoveItem)
			draft.POST("/new", h.NewInvoice)
			draft.GET("/totals", h.GetTotals)
			draft.POST("/save", h.SaveDraft)
			draft.POST("/notes", h.GenerateNotes)
			draft.GET("/export.pdf", h.ExportPDF)
			draft.GET("/preview.png", h.PreviewPNG)
		}

		api.GET("/invoices", h.ListInvoices)
		api.POST("/invoices/:number/load", h.LoadInvoice)
		api.DELETE("/invoices/:number", h.DeleteInvoice)

		api.GET("/profile/logo", h.GetLogo)
		api.PUT("/profile/logo", h.UploadLogo)
		api.DELETE("/profile/logo", h.RemoveLogo)
	}
}

// Start starts the HTTP server and blocks until ctx is done or the listener fails
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}
	s.httpServer = nil

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
