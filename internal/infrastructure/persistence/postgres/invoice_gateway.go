package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/garyjia/clinic-invoice/internal/application/port"
	"github.com/garyjia/clinic-invoice/internal/domain/entity"
)

// InvoiceGateway implements port.InvoiceGateway against the hosted invoices table
type InvoiceGateway struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewInvoiceGateway creates a new postgres invoice gateway
func NewInvoiceGateway(pool *pgxpool.Pool, logger *zap.Logger) port.InvoiceGateway {
	return &InvoiceGateway{pool: pool, logger: logger}
}

// Columns are cast to text so scanning never depends on pgx's date or json codecs.
const selectInvoice = `
	SELECT id, user_id::text, "invoiceNumber", date::text, "clinicName", "clinicAddress",
		"patientName", "patientAddress", "patientContact", items::text, notes, "taxRate"
	FROM invoices
`

// ListByOwner returns every invoice of ownerID
func (g *InvoiceGateway) ListByOwner(ctx context.Context, ownerID string) ([]entity.Invoice, error) {
	rows, err := g.pool.Query(ctx, selectInvoice+`WHERE user_id = $1::text::uuid ORDER BY id`, ownerID)
	if err != nil {
		g.logger.Error("Failed to list invoices", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	invoices, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Invoice, error) {
		inv, err := scanInvoice(row)
		if err != nil {
			return entity.Invoice{}, err
		}
		return *inv, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read invoices: %w", err)
	}
	return invoices, nil
}

// Upsert writes inv on conflict (user_id, "invoiceNumber") and returns the stored row
func (g *InvoiceGateway) Upsert(ctx context.Context, inv entity.Invoice) (*entity.Invoice, error) {
	items := inv.Items
	if items == nil {
		items = []entity.LineItem{}
	}
	encoded, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode items: %w", err)
	}

	query := `
		INSERT INTO invoices (
			user_id, "invoiceNumber", date, "clinicName", "clinicAddress",
			"patientName", "patientAddress", "patientContact", items, notes, "taxRate"
		) VALUES (
			$1::text::uuid, $2, CAST($3::text AS date), $4, $5, $6, $7, $8, $9::text::jsonb, $10, $11
		)
		ON CONFLICT (user_id, "invoiceNumber") DO UPDATE SET
			date = EXCLUDED.date,
			"clinicName" = EXCLUDED."clinicName",
			"clinicAddress" = EXCLUDED."clinicAddress",
			"patientName" = EXCLUDED."patientName",
			"patientAddress" = EXCLUDED."patientAddress",
			"patientContact" = EXCLUDED."patientContact",
			items = EXCLUDED.items,
			notes = EXCLUDED.notes,
			"taxRate" = EXCLUDED."taxRate"
		RETURNING id, user_id::text, "invoiceNumber", date::text, "clinicName", "clinicAddress",
			"patientName", "patientAddress", "patientContact", items::text, notes, "taxRate"
	`

	stored, err := scanInvoice(g.pool.QueryRow(ctx, query,
		inv.OwnerID,
		inv.InvoiceNumber,
		inv.Date,
		inv.ClinicName,
		inv.ClinicAddress,
		inv.PatientName,
		inv.PatientAddress,
		inv.PatientContact,
		string(encoded),
		inv.Notes,
		inv.TaxRate,
	))
	if err != nil {
		g.logger.Error("Failed to save invoice",
			zap.String("owner_id", inv.OwnerID),
			zap.String("invoice_number", inv.InvoiceNumber),
			zap.Error(err))
		return nil, fmt.Errorf("failed to upsert invoice: %w", err)
	}
	return stored, nil
}

// Delete removes the invoice matching (ownerID, invoiceNumber)
func (g *InvoiceGateway) Delete(ctx context.Context, ownerID, invoiceNumber string) error {
	tag, err := g.pool.Exec(ctx,
		`DELETE FROM invoices WHERE user_id = $1::text::uuid AND "invoiceNumber" = $2`,
		ownerID, invoiceNumber)
	if err != nil {
		g.logger.Error("Failed to delete invoice",
			zap.String("owner_id", ownerID),
			zap.String("invoice_number", invoiceNumber),
			zap.Error(err))
		return fmt.Errorf("failed to delete invoice: %w", err)
	}

	g.logger.Debug("Invoice delete executed",
		zap.String("invoice_number", invoiceNumber),
		zap.Int64("rows", tag.RowsAffected()))
	return nil
}

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var inv entity.Invoice
	var id int64
	var items string

	if err := row.Scan(
		&id,
		&inv.OwnerID,
		&inv.InvoiceNumber,
		&inv.Date,
		&inv.ClinicName,
		&inv.ClinicAddress,
		&inv.PatientName,
		&inv.PatientAddress,
		&inv.PatientContact,
		&items,
		&inv.Notes,
		&inv.TaxRate,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(items), &inv.Items); err != nil {
		return nil, fmt.Errorf("failed to decode items of %s: %w", inv.InvoiceNumber, err)
	}
	if inv.Items == nil {
		inv.Items = []entity.LineItem{}
	}
	inv.ID = &id
	return &inv, nil
}

// Verify interface compliance
var _ port.InvoiceGateway = (*InvoiceGateway)(nil)
