package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Store drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Archive kinds
const (
	ArchiveNone  = "none"
	ArchiveLocal = "local"
	ArchiveS3    = "s3"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	AI       AIConfig       `mapstructure:"ai"`
	Export   ExportConfig   `mapstructure:"export"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // gin mode: debug, release, test
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxLogoBytes    int64         `mapstructure:"max_logo_bytes"`
	// NodeID distinguishes line item id generators of concurrent instances
	NodeID int64 `mapstructure:"node_id"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	// MigrationsDir overrides the embedded schema when set
	MigrationsDir string `mapstructure:"migrations_dir"`
	// AutoMigrate applies pending migrations at startup
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// AuthConfig holds access token verification settings
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
	Audience  string `mapstructure:"audience"`
}

// AIConfig holds text generation settings. An empty API key disables notes generation.
type AIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
	PromptsPath string        `mapstructure:"prompts_path"`
}

// ExportConfig holds PDF export and archive settings
type ExportConfig struct {
	Archive    string   `mapstructure:"archive"`
	LocalDir   string   `mapstructure:"local_dir"`
	PreviewDPI float64  `mapstructure:"preview_dpi"`
	S3         S3Config `mapstructure:"s3"`
}

// S3Config holds S3-compatible bucket settings
type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	PublicBaseURL   string `mapstructure:"public_base_url"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load reads .env (when present), then configPath (when present), then the environment.
func Load(configPath string) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.max_logo_bytes", 2<<20)
	v.SetDefault("server.node_id", 0)

	// Database defaults
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "data/invoices.db")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.migrations_dir", "")
	v.SetDefault("database.auto_migrate", true)

	// Auth defaults
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.audience", "authenticated")

	// AI defaults
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.base_url", "")
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.max_tokens", 200)
	v.SetDefault("ai.timeout", 30*time.Second)
	v.SetDefault("ai.prompts_path", "")

	// Export defaults
	v.SetDefault("export.archive", ArchiveNone)
	v.SetDefault("export.local_dir", "data/exports")
	v.SetDefault("export.preview_dpi", 96)
	v.SetDefault("export.s3.endpoint", "")
	v.SetDefault("export.s3.region", "us-east-1")
	v.SetDefault("export.s3.bucket", "")
	v.SetDefault("export.s3.access_key_id", "")
	v.SetDefault("export.s3.access_key_secret", "")
	v.SetDefault("export.s3.public_base_url", "")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds the conventional names of secrets
func bindEnvVars(v *viper.Viper) {
	v.BindEnv("database.dsn", "DATABASE_URL", "POSTGRES_DB_URL")
	v.BindEnv("auth.jwt_secret", "SUPABASE_JWT_SECRET", "JWT_SECRET")
	v.BindEnv("ai.api_key", "OPENAI_API_KEY")
	v.BindEnv("ai.base_url", "OPENAI_BASE_URL")
	v.BindEnv("export.s3.access_key_id", "S3_ACCESS_KEY_ID")
	v.BindEnv("export.s3.access_key_secret", "S3_ACCESS_KEY_SECRET")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	if c.Server.NodeID < 0 || c.Server.NodeID > 15 {
		return fmt.Errorf("server.node_id must be between 0 and 15")
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Database.Driver)
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}

	switch c.Export.Archive {
	case ArchiveNone:
	case ArchiveLocal:
		if c.Export.LocalDir == "" {
			return fmt.Errorf("export.local_dir is required for the local archive")
		}
	case ArchiveS3:
		s3 := c.Export.S3
		if s3.Endpoint == "" || s3.Bucket == "" || s3.AccessKeyID == "" || s3.AccessKeySecret == "" {
			return fmt.Errorf("export.s3 endpoint, bucket and keys are required for the s3 archive")
		}
	default:
		return fmt.Errorf("export.archive must be none, local or s3, got %q", c.Export.Archive)
	}

	if c.AI.APIKey != "" && c.AI.Model == "" {
		return fmt.Errorf("ai.model is required when ai.api_key is set")
	}

	return nil
}

// Address returns host:port for the HTTP listener
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
