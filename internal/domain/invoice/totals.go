package invoice

import (
	"math"

	"github.com/garyjia/clinic-invoice/internal/domain/entity"
)

// ComputeTotals derives subtotal, tax and total from items and a percent tax rate.
// NaN operands count as zero for their term. No rounding is applied.
func ComputeTotals(items []entity.LineItem, taxRate float64) entity.Totals {
	var subtotal float64
	for _, item := range items {
		subtotal += LineAmount(item)
	}

	if math.IsNaN(taxRate) {
		taxRate = 0
	}
	taxAmount := subtotal * (taxRate / 100)

	return entity.Totals{
		Subtotal:  subtotal,
		TaxAmount: taxAmount,
		Total:     subtotal + taxAmount,
	}
}

// Totals is ComputeTotals applied to an invoice
func Totals(inv entity.Invoice) entity.Totals {
	return ComputeTotals(inv.Items, inv.TaxRate)
}

// LineAmount is quantity times price with NaN terms counted as zero
func LineAmount(item entity.LineItem) float64 {
	q, p := item.Quantity, item.Price
	if math.IsNaN(q) {
		q = 0
	}
	if math.IsNaN(p) {
		p = 0
	}
	amount := q * p
	// Inf * 0
	if math.IsNaN(amount) {
		return 0
	}
	return amount
}
