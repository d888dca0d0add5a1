package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/garyjia/clinic-invoice/internal/application/port"
	"github.com/garyjia/clinic-invoice/internal/domain/entity"
	"github.com/garyjia/clinic-invoice/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// InvoiceRepository implements port.InvoiceGateway on SQLite
type InvoiceRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *sqlite.DB, logger *zap.Logger) port.InvoiceGateway {
	return &InvoiceRepository{
		db:     db,
		logger: logger,
	}
}

const invoiceColumns = `
	id, user_id, invoice_number, date, clinic_name, clinic_address,
	patient_name, patient_address, patient_contact, items, notes, tax_rate
`

// ListByOwner returns every invoice of ownerID in insertion order
func (r *InvoiceRepository) ListByOwner(ctx context.Context, ownerID string) ([]entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE user_id = ? ORDER BY id`

	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, ownerID)
	if err != nil {
		r.logger.Error("Failed to list invoices", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	invoices := make([]entity.Invoice, 0)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate invoices: %w", err)
	}

	return invoices, nil
}

// Upsert inserts inv or overwrites the row with the same (user_id, invoice_number),
// then reads the stored row back inside the same transaction
func (r *InvoiceRepository) Upsert(ctx context.Context, inv entity.Invoice) (*entity.Invoice, error) {
	items, err := json.Marshal(nonNilItems(inv.Items))
	if err != nil {
		return nil, fmt.Errorf("failed to encode items: %w", err)
	}

	query := `
		INSERT INTO invoices (
			user_id, invoice_number, date, clinic_name, clinic_address,
			patient_name, patient_address, patient_contact, items, notes, tax_rate
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, invoice_number) DO UPDATE SET
			date = excluded.date,
			clinic_name = excluded.clinic_name,
			clinic_address = excluded.clinic_address,
			patient_name = excluded.patient_name,
			patient_address = excluded.patient_address,
			patient_contact = excluded.patient_contact,
			items = excluded.items,
			notes = excluded.notes,
			tax_rate = excluded.tax_rate,
			updated_at = CURRENT_TIMESTAMP
	`

	var stored *entity.Invoice
	err = r.db.InTx(ctx, func(txCtx context.Context) error {
		conn := r.db.Conn(txCtx)
		if _, err := conn.ExecContext(txCtx, query,
			inv.OwnerID,
			inv.InvoiceNumber,
			inv.Date,
			inv.ClinicName,
			inv.ClinicAddress,
			inv.PatientName,
			inv.PatientAddress,
			inv.PatientContact,
			string(items),
			inv.Notes,
			inv.TaxRate,
		); err != nil {
			return fmt.Errorf("failed to upsert invoice: %w", err)
		}

		row := conn.QueryRowContext(txCtx,
			`SELECT `+invoiceColumns+` FROM invoices WHERE user_id = ? AND invoice_number = ?`,
			inv.OwnerID, inv.InvoiceNumber)
		var err error
		stored, err = scanInvoice(row)
		return err
	})
	if err != nil {
		r.logger.Error("Failed to save invoice",
			zap.String("owner_id", inv.OwnerID),
			zap.String("invoice_number", inv.InvoiceNumber),
			zap.Error(err))
		return nil, err
	}

	return stored, nil
}

// Delete removes the invoice matching (ownerID, invoiceNumber)
func (r *InvoiceRepository) Delete(ctx context.Context, ownerID, invoiceNumber string) error {
	result, err := r.db.Conn(ctx).ExecContext(ctx,
		`DELETE FROM invoices WHERE user_id = ? AND invoice_number = ?`,
		ownerID, invoiceNumber)
	if err != nil {
		r.logger.Error("Failed to delete invoice",
			zap.String("owner_id", ownerID),
			zap.String("invoice_number", invoiceNumber),
			zap.Error(err))
		return fmt.Errorf("failed to delete invoice: %w", err)
	}

	affected, _ := result.RowsAffected()
	r.logger.Debug("Invoice delete executed",
		zap.String("invoice_number", invoiceNumber),
		zap.Int64("rows", affected))
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInvoice(row rowScanner) (*entity.Invoice, error) {
	var inv entity.Invoice
	var id int64
	var items string

	err := row.Scan(
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
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("invoice row not found after write: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan invoice: %w", err)
	}

	if err := json.Unmarshal([]byte(items), &inv.Items); err != nil {
		return nil, fmt.Errorf("failed to decode items of %s: %w", inv.InvoiceNumber, err)
	}
	inv.ID = &id
	return &inv, nil
}

func nonNilItems(items []entity.LineItem) []entity.LineItem {
	if items == nil {
		return []entity.LineItem{}
	}
	return items
}

// Verify interface compliance
var _ port.InvoiceGateway = (*InvoiceRepository)(nil)
