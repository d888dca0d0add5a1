package container

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/clinic-invoice/internal/config"
	"github.com/garyjia/clinic-invoice/internal/domain/entity"
	"github.com/garyjia/clinic-invoice/internal/domain/invoice"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 18080, Mode: "test"},
		Database: config.DatabaseConfig{
			Driver:       config.DriverSQLite,
			Path:         filepath.Join(dir, "invoices.db"),
			MaxOpenConns: 1,
			MaxIdleConns: 1,
			AutoMigrate:  true,
		},
		Auth: config.AuthConfig{JWTSecret: "test-secret"},
		Export: config.ExportConfig{
			Archive:  config.ArchiveLocal,
			LocalDir: filepath.Join(dir, "exports"),
		},
		Logger: config.LoggerConfig{Level: "error"},
	}
}

func TestNewContainer_Validation(t *testing.T) {
	_, err := NewContainer(nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewContainer(testConfig(t), nil)
	assert.Error(t, err)

	cfg := testConfig(t)
	cfg.Auth.JWTSecret = ""
	_, err = NewContainer(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestContainer_Lifecycle(t *testing.T) {
	c, err := NewContainer(testConfig(t), zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, c.Start(context.Background()))
	assert.True(t, c.Ready())
	assert.Error(t, c.Start(context.Background()), "second start is rejected")

	require.NotNil(t, c.Server())
	require.NotNil(t, c.sessions)
	require.NotNil(t, c.verifier)

	health := c.Health(context.Background())
	assert.True(t, health.Overall)
	assert.True(t, health.Components["database"].Healthy)
	assert.Equal(t, "active: 0", health.Components["sessions"].Message)

	require.NoError(t, c.Close())
	assert.False(t, c.Ready())
	assert.Error(t, c.Close(), "second close is rejected")
}

func TestContainer_EndToEndSave(t *testing.T) {
	c, err := NewContainer(testConfig(t), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))
	defer c.Close()

	ctx := context.Background()
	editor, err := c.sessions.Begin(ctx, entity.Session{OwnerID: "4f1c2a5e-8f3e-4a44-9d3b-1f5b7a1f0c11"})
	require.NoError(t, err)

	_, err = editor.Apply(setPatient("Jane"))
	require.NoError(t, err)
	saved, err := editor.Save(ctx)
	require.NoError(t, err)
	require.NotNil(t, saved.ID)

	result, err := editor.Export(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, result.PDF)
	assert.Empty(t, result.ArchiveError)
	assert.FileExists(t, result.ArchivedAt)

	// notes are disabled without an API key
	_, err = editor.GenerateNotes(ctx)
	assert.Error(t, err)
}

func TestProvideStore_UnknownDriver(t *testing.T) {
	_, err := ProvideStore(context.Background(), &config.DatabaseConfig{Driver: "mysql"}, zap.NewNop())
	assert.Error(t, err)
}

func TestProvideExport_UnknownArchive(t *testing.T) {
	_, err := ProvideExport(&config.ExportConfig{Archive: "ftp"}, zap.NewNop())
	assert.Error(t, err)
}

func TestConvertToZapFields(t *testing.T) {
	fields := convertToZapFields("owner_id", "abc", 42, "skipped", "error", errors.New("boom"), "dangling")
	require.Len(t, fields, 2)
	assert.Equal(t, "owner_id", fields[0].Key)
	assert.Equal(t, "error", fields[1].Key)
}

func TestServerConfigDefaults(t *testing.T) {
	server := serverConfig(&config.ServerConfig{Host: "0.0.0.0", Port: 9000})
	assert.Equal(t, 2<<20, int(server.MaxLogoBytes))
	assert.Equal(t, 30*time.Second, server.ReadTimeout)
	assert.Equal(t, 9000, server.Port)
}

func setPatient(name string) invoice.Command {
	return invoice.SetText{Field: invoice.FieldPatientName, Value: name}
}
