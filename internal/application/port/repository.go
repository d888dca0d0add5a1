package port

import (
	"context"

	"github.com/garyjia/clinic-invoice/internal/domain/entity"
)

// InvoiceGateway defines owner-scoped persistence of saved invoices
type InvoiceGateway interface {
	// ListByOwner returns every invoice of ownerID
	ListByOwner(ctx context.Context, ownerID string) ([]entity.Invoice, error)
	// Upsert writes inv on conflict (owner, invoice number) and returns the stored row
	Upsert(ctx context.Context, inv entity.Invoice) (*entity.Invoice, error)
	// Delete removes the invoice matching (ownerID, invoiceNumber); a missing row is not an error
	Delete(ctx context.Context, ownerID, invoiceNumber string) error
}

// ProfileGateway defines persistence of per-owner branding
type ProfileGateway interface {
	// GetLogo returns the stored logo, or "" when the owner has no profile row
	GetLogo(ctx context.Context, ownerID string) (string, error)
	UpsertLogo(ctx context.Context, ownerID, logo string) error
}
