package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/garyjia/clinic-invoice/internal/application/port"
)

// ProfileGateway implements port.ProfileGateway against the hosted profiles table
type ProfileGateway struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewProfileGateway creates a new postgres profile gateway
func NewProfileGateway(pool *pgxpool.Pool, logger *zap.Logger) port.ProfileGateway {
	return &ProfileGateway{pool: pool, logger: logger}
}

// GetLogo returns the owner's logo; no row means no logo
func (g *ProfileGateway) GetLogo(ctx context.Context, ownerID string) (string, error) {
	var logo *string
	err := g.pool.QueryRow(ctx,
		`SELECT logo FROM profiles WHERE id = $1::text::uuid`, ownerID).Scan(&logo)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		g.logger.Error("Failed to get profile", zap.String("owner_id", ownerID), zap.Error(err))
		return "", fmt.Errorf("failed to get profile: %w", err)
	}
	if logo == nil {
		return "", nil
	}
	return *logo, nil
}

// UpsertLogo creates or overwrites the owner's profile row
func (g *ProfileGateway) UpsertLogo(ctx context.Context, ownerID, logo string) error {
	_, err := g.pool.Exec(ctx, `
		INSERT INTO profiles (id, logo) VALUES ($1::text::uuid, $2)
		ON CONFLICT (id) DO UPDATE SET logo = EXCLUDED.logo, updated_at = now()
	`, ownerID, logo)
	if err != nil {
		g.logger.Error("Failed to upsert profile", zap.String("owner_id", ownerID), zap.Error(err))
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ port.ProfileGateway = (*ProfileGateway)(nil)
