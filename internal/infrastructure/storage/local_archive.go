package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/clinic-invoice/internal/application/port"
)

// LocalArchive implements port.DocumentArchive on the local filesystem
type LocalArchive struct {
	baseDir string
	logger  *zap.Logger
}

// NewLocalArchive creates a new LocalArchive rooted at baseDir
func NewLocalArchive(baseDir string, logger *zap.Logger) *LocalArchive {
	return &LocalArchive{
		baseDir: baseDir,
		logger:  logger,
	}
}

// Save writes content to key below the base directory and returns the file path
func (s *LocalArchive) Save(ctx context.Context, key string, content []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fullPath := s.GetFullPath(key)
	if err := s.validatePath(fullPath); err != nil {
		return "", err
	}

	parentDir := filepath.Dir(fullPath)
	if err := os.MkdirAll(parentDir, 0755); err != nil {
		s.logger.Error("Failed to create parent directories",
			zap.String("path", parentDir),
			zap.Error(err))
		return "", fmt.Errorf("failed to create directories: %w", err)
	}

	// write then rename so a reader never sees half a document
	tmp, err := os.CreateTemp(parentDir, ".archive-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		s.logger.Error("Failed to move archived file into place",
			zap.String("path", fullPath),
			zap.Error(err))
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	s.logger.Debug("Document archived",
		zap.String("path", fullPath),
		zap.String("content_type", contentType),
		zap.Int("size", len(content)))

	return fullPath, nil
}

// GetFullPath converts a relative key to a full path
func (s *LocalArchive) GetFullPath(key string) string {
	return filepath.Join(s.baseDir, filepath.FromSlash(key))
}

// validatePath checks that the path is within baseDir
func (s *LocalArchive) validatePath(fullPath string) error {
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return fmt.Errorf("path escapes base directory: %s", fullPath)
	}

	return nil
}

// Verify interface compliance
var _ port.DocumentArchive = (*LocalArchive)(nil)
