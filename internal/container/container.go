package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/clinic-invoice/internal/application/service"
	"github.com/garyjia/clinic-invoice/internal/config"
	"github.com/garyjia/clinic-invoice/internal/infrastructure/auth"
	apihttp "github.com/garyjia/clinic-invoice/internal/interfaces/http"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in dependency order and torn down in reverse.
type Container struct {
	config *config.Config
	logger *zap.Logger

	// Infrastructure
	store    *StoreBundle
	export   *ExportBundle
	verifier *auth.Verifier

	// Application
	sessions service.SessionService

	// Interfaces
	server *apihttp.Server

	// Lifecycle
	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components:
// 1. Database and gateways
// 2. Token verifier, text generator and export
// 3. Session service
// 4. HTTP server
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	store, err := ProvideStore(ctx, &c.config.Database, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.store = store
	c.logger.Info("Database initialized", zap.String("driver", store.Driver))

	if err := c.initServices(); err != nil {
		c.store.Close()
		c.store = nil
		return err
	}

	c.server = apihttp.NewServer(
		serverConfig(&c.config.Server),
		c.sessions,
		c.verifier,
		c,
		&zapLoggerAdapter{logger: c.logger},
	)

	c.ready.Store(true)
	c.logger.Info("Container started successfully")
	return nil
}

func (c *Container) initServices() error {
	verifier, err := ProvideVerifier(&c.config.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token verifier: %w", err)
	}
	c.verifier = verifier

	notes, err := ProvideNotesWriter(&c.config.AI, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize notes writer: %w", err)
	}

	export, err := ProvideExport(&c.config.Export, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize export: %w", err)
	}
	c.export = export

	ids, err := ProvideIDs(c.config.Server.NodeID)
	if err != nil {
		return fmt.Errorf("failed to initialize id generator: %w", err)
	}

	c.sessions = service.NewSessionService(service.Gateways{
		Invoices: c.store.Invoices,
		Profiles: c.store.Profiles,
		Notes:    notes,
		Renderer: export.Renderer,
		Preview:  export.Preview,
		Archive:  export.Archive,
		IDs:      ids,
	}, time.Now, &zapLoggerAdapter{logger: c.logger})
	c.logger.Info("Application services initialized", zap.Bool("notes_enabled", notes != nil))
	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	if c.server != nil {
		if err := c.server.Stop(); err != nil {
			c.logger.Error("Failed to stop HTTP server", zap.Error(err))
			errs = append(errs, fmt.Errorf("stop server: %w", err))
		}
	}

	if c.store != nil {
		if err := c.store.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// CheckHealth reports per-component errors for the health endpoint.
func (c *Container) CheckHealth(ctx context.Context) map[string]error {
	results := make(map[string]error)

	if c.store == nil {
		results["database"] = fmt.Errorf("not initialized")
	} else if err := c.store.Ping(ctx); err != nil {
		results["database"] = fmt.Errorf("ping failed: %w", err)
	} else {
		results["database"] = nil
	}

	if c.sessions == nil {
		results["sessions"] = fmt.Errorf("not initialized")
	} else {
		results["sessions"] = nil
	}

	return results
}

// Health returns health status of all components.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	for name, err := range c.CheckHealth(ctx) {
		if err != nil {
			status.Components[name] = ComponentHealth{Healthy: false, Message: err.Error()}
			status.Overall = false
			continue
		}
		status.Components[name] = ComponentHealth{Healthy: true}
	}

	if c.sessions != nil {
		sessions := status.Components["sessions"]
		sessions.Message = fmt.Sprintf("active: %d", c.sessions.ActiveCount())
		status.Components["sessions"] = sessions
	}

	return status
}

// Server returns the HTTP server.
func (c *Container) Server() *apihttp.Server {
	return c.server
}

// zapLoggerAdapter adapts zap.Logger to the service and transport Logger interfaces.
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	fields := convertToZapFields(keysAndValues...)
	a.logger.Info(msg, fields...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	fields := convertToZapFields(keysAndValues...)
	a.logger.Error(msg, fields...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if err, ok := keysAndValues[i+1].(error); ok {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
