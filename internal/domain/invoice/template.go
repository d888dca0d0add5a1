package invoice

import (
	"fmt"
	"time"

	"github.com/garyjia/clinic-invoice/internal/domain/entity"
)

// IDGenerator hands out line item ids derived from a monotonic clock
type IDGenerator interface {
	NextID() int64
}

// NewInvoiceNumber returns "INV-" followed by the last six digits of now in Unix milliseconds
func NewInvoiceNumber(now time.Time) string {
	return fmt.Sprintf("%s%06d", entity.InvoiceNumberPrefix, now.UnixMilli()%1000000)
}

// Today formats the calendar date of now in the invoice date layout
func Today(now time.Time) string {
	return now.Format(entity.DateLayout)
}

// NewDefault builds the default draft for now, with fresh item ids from ids
func NewDefault(now time.Time, ids IDGenerator) entity.Invoice {
	items := make([]entity.LineItem, len(entity.DefaultItems))
	for i, item := range entity.DefaultItems {
		item.ID = ids.NextID()
		items[i] = item
	}

	return entity.Invoice{
		InvoiceNumber: NewInvoiceNumber(now),
		Date:          Today(now),
		ClinicName:    entity.DefaultClinicName,
		ClinicAddress: entity.DefaultClinicAddress,
		Items:         items,
		Notes:         entity.DefaultNotes,
		TaxRate:       0,
	}
}
