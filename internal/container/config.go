// Package container provides dependency injection and lifecycle management
// for the clinic invoice editor.
package container

import (
	"github.com/garyjia/clinic-invoice/internal/config"
	"github.com/garyjia/clinic-invoice/internal/infrastructure/auth"
	"github.com/garyjia/clinic-invoice/internal/infrastructure/external/openai"
	"github.com/garyjia/clinic-invoice/internal/infrastructure/storage"
	apihttp "github.com/garyjia/clinic-invoice/internal/interfaces/http"
	"github.com/garyjia/clinic-invoice/pkg/database"
)

// The mappings below translate the loaded application config into the
// settings each component takes.

func sqliteConfig(cfg *config.DatabaseConfig) database.Config {
	return database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}
}

func serverConfig(cfg *config.ServerConfig) apihttp.ServerConfig {
	server := apihttp.DefaultServerConfig()
	server.Host = cfg.Host
	server.Port = cfg.Port
	server.Mode = cfg.Mode
	if cfg.ReadTimeout > 0 {
		server.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		server.WriteTimeout = cfg.WriteTimeout
	}
	if cfg.ShutdownTimeout > 0 {
		server.ShutdownTimeout = cfg.ShutdownTimeout
	}
	if cfg.MaxLogoBytes > 0 {
		server.MaxLogoBytes = cfg.MaxLogoBytes
	}
	return server
}

func authConfig(cfg *config.AuthConfig) auth.Config {
	return auth.Config{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.Issuer,
		Audience: cfg.Audience,
	}
}

func notesConfig(cfg *config.AIConfig) openai.Config {
	return openai.Config{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
	}
}

func s3Config(cfg *config.S3Config) storage.S3Config {
	return storage.S3Config{
		Endpoint:        cfg.Endpoint,
		Region:          cfg.Region,
		Bucket:          cfg.Bucket,
		AccessKeyID:     cfg.AccessKeyID,
		AccessKeySecret: cfg.AccessKeySecret,
		PublicBaseURL:   cfg.PublicBaseURL,
	}
}
