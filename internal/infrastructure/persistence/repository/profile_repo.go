package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garyjia/clinic-invoice/internal/application/port"
	"github.com/garyjia/clinic-invoice/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// ProfileRepository implements port.ProfileGateway on SQLite
type ProfileRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *sqlite.DB, logger *zap.Logger) port.ProfileGateway {
	return &ProfileRepository{
		db:     db,
		logger: logger,
	}
}

// GetLogo returns the owner's logo; a missing profile row yields ""
func (r *ProfileRepository) GetLogo(ctx context.Context, ownerID string) (string, error) {
	var logo sql.NullString
	err := r.db.Conn(ctx).QueryRowContext(ctx,
		`SELECT logo FROM profiles WHERE id = ?`, ownerID).Scan(&logo)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		r.logger.Error("Failed to get profile", zap.String("owner_id", ownerID), zap.Error(err))
		return "", fmt.Errorf("failed to get profile: %w", err)
	}

	return logo.String, nil
}

// UpsertLogo creates or overwrites the owner's profile row
func (r *ProfileRepository) UpsertLogo(ctx context.Context, ownerID, logo string) error {
	query := `
		INSERT INTO profiles (id, logo) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET logo = excluded.logo, updated_at = CURRENT_TIMESTAMP
	`

	if _, err := r.db.Conn(ctx).ExecContext(ctx, query, ownerID, logo); err != nil {
		r.logger.Error("Failed to upsert profile", zap.String("owner_id", ownerID), zap.Error(err))
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	return nil
}

// Verify interface compliance
var _ port.ProfileGateway = (*ProfileRepository)(nil)
