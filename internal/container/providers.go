package container

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"github.com/garyjia/clinic-invoice/internal/application/port"
	"github.com/garyjia/clinic-invoice/internal/config"
	"github.com/garyjia/clinic-invoice/internal/infrastructure/auth"
	"github.com/garyjia/clinic-invoice/internal/infrastructure/external/openai"
	"github.com/garyjia/clinic-invoice/internal/infrastructure/idgen"
	"github.com/garyjia/clinic-invoice/internal/infrastructure/persistence/postgres"
	"github.com/garyjia/clinic-invoice/internal/infrastructure/persistence/repository"
	"github.com/garyjia/clinic-invoice/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/clinic-invoice/internal/infrastructure/render"
	"github.com/garyjia/clinic-invoice/internal/infrastructure/storage"
	"github.com/garyjia/clinic-invoice/migrations"
	"github.com/garyjia/clinic-invoice/pkg/database"
)

// StoreBundle holds the persistence gateways and their connection lifecycle.
type StoreBundle struct {
	Driver   string
	Invoices port.InvoiceGateway
	Profiles port.ProfileGateway

	ping  func(ctx context.Context) error
	close func() error
}

// Ping checks the underlying connection.
func (b *StoreBundle) Ping(ctx context.Context) error {
	return b.ping(ctx)
}

// Close releases the underlying connection.
func (b *StoreBundle) Close() error {
	return b.close()
}

// ExportBundle holds the document rendering components. Preview and Archive may be nil.
type ExportBundle struct {
	Renderer port.DocumentRenderer
	Preview  port.PreviewRasterizer
	Archive  port.DocumentArchive
}

// ProvideStore opens the configured database and builds its gateways.
// Pending migrations are applied when cfg.AutoMigrate is set.
func ProvideStore(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*StoreBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	switch cfg.Driver {
	case config.DriverSQLite:
		return provideSQLite(ctx, cfg, logger)
	case config.DriverPostgres:
		return providePostgres(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func provideSQLite(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*StoreBundle, error) {
	db, err := database.New(sqliteConfig(cfg), logger)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		fsys, dir := migrationSource(cfg.MigrationsDir, migrations.SQLiteDir)
		if _, err := database.NewMigrator(db, logger).Apply(ctx, fsys, dir); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	tx := sqlite.NewDB(db.DB, logger)
	return &StoreBundle{
		Driver:   config.DriverSQLite,
		Invoices: repository.NewInvoiceRepository(tx, logger),
		Profiles: repository.NewProfileRepository(tx, logger),
		ping:     db.PingContext,
		close:    db.Close,
	}, nil
}

func providePostgres(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*StoreBundle, error) {
	pool, err := postgres.NewPool(ctx, cfg.DSN, int32(cfg.MaxOpenConns), logger)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		fsys, dir := migrationSource(cfg.MigrationsDir, migrations.PostgresDir)
		if err := postgres.Migrate(ctx, pool, fsys, dir, logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return &StoreBundle{
		Driver:   config.DriverPostgres,
		Invoices: postgres.NewInvoiceGateway(pool, logger),
		Profiles: postgres.NewProfileGateway(pool, logger),
		ping:     pool.Ping,
		close: func() error {
			pool.Close()
			return nil
		},
	}, nil
}

// migrationSource returns the embedded schema for driverDir, or dir on disk when set
func migrationSource(dir, driverDir string) (fs.FS, string) {
	if dir != "" {
		return os.DirFS(dir), "."
	}
	return migrations.FS, driverDir
}

// ProvideNotesWriter creates the text generator. It returns nil when no API key
// is configured, which disables notes generation.
func ProvideNotesWriter(cfg *config.AIConfig, logger *zap.Logger) (port.TextGenerator, error) {
	if cfg.APIKey == "" {
		logger.Info("OpenAI API key not set, notes generation disabled")
		return nil, nil
	}

	prompts, err := openai.LoadPrompts(cfg.PromptsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompts: %w", err)
	}

	logger.Info("Notes writer configured", zap.String("model", cfg.Model))
	return openai.NewNotesWriter(notesConfig(cfg), prompts, logger), nil
}

// ProvideExport creates the renderer, the preview rasterizer and the configured archive.
func ProvideExport(cfg *config.ExportConfig, logger *zap.Logger) (*ExportBundle, error) {
	bundle := &ExportBundle{
		Renderer: render.NewPDFRenderer(logger),
		Preview:  render.NewRasterizer(cfg.PreviewDPI, logger),
	}

	switch cfg.Archive {
	case config.ArchiveNone, "":
	case config.ArchiveLocal:
		if err := os.MkdirAll(cfg.LocalDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create archive directory: %w", err)
		}
		bundle.Archive = storage.NewLocalArchive(cfg.LocalDir, logger)
	case config.ArchiveS3:
		archive, err := storage.NewS3Archive(s3Config(&cfg.S3), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 archive: %w", err)
		}
		bundle.Archive = archive
	default:
		return nil, fmt.Errorf("unsupported archive %q", cfg.Archive)
	}

	logger.Info("Export configured", zap.String("archive", cfg.Archive))
	return bundle, nil
}

// ProvideVerifier creates the access token verifier.
func ProvideVerifier(cfg *config.AuthConfig) (*auth.Verifier, error) {
	return auth.NewVerifier(authConfig(cfg))
}

// ProvideIDs creates the line item id generator.
func ProvideIDs(node int64) (port.IDGenerator, error) {
	ids, err := idgen.NewGenerator(node)
	if err != nil {
		return nil, err
	}
	return ids, nil
}
