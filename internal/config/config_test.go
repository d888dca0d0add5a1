package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into a fresh directory so no stray .env is picked up
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
	return dir
}

func TestLoad_DefaultsWithEnvSecret(t *testing.T) {
	chdir(t)
	t.Setenv("SUPABASE_JWT_SECRET", "s3cret")

	cfg, err := Load("missing.yaml")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "data/invoices.db", cfg.Database.Path)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, "authenticated", cfg.Auth.Audience)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.Model)
	assert.Equal(t, 30*time.Second, cfg.AI.Timeout)
	assert.Equal(t, ArchiveNone, cfg.Export.Archive)
	assert.Equal(t, float64(96), cfg.Export.PreviewDPI)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
database:
  driver: postgres
  dsn: postgres://file/db
export:
  archive: local
  local_dir: /tmp/exports
ai:
  model: llama3
`), 0644))

	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("SERVER_PORT", "9191")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://env/db", cfg.Database.DSN)
	assert.Equal(t, ArchiveLocal, cfg.Export.Archive)
	assert.Equal(t, "/tmp/exports", cfg.Export.LocalDir)
	assert.Equal(t, "llama3", cfg.AI.Model)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("JWT_SECRET=dotenv-secret\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("JWT_SECRET") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "dotenv-secret", cfg.Auth.JWTSecret)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Driver: DriverSQLite, Path: "x.db"},
			Auth:     AuthConfig{JWTSecret: "s"},
			Export:   ExportConfig{Archive: ArchiveNone},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "database.driver"},
		{"sqlite without path", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = DriverPostgres }, "database.dsn"},
		{"missing secret", func(c *Config) { c.Auth.JWTSecret = "" }, "auth.jwt_secret"},
		{"local archive without dir", func(c *Config) { c.Export.Archive = ArchiveLocal }, "export.local_dir"},
		{"s3 archive incomplete", func(c *Config) { c.Export.Archive = ArchiveS3 }, "export.s3"},
		{"unknown archive", func(c *Config) { c.Export.Archive = "ftp" }, "export.archive"},
		{"ai key without model", func(c *Config) { c.AI.APIKey = "k" }, "ai.model"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
