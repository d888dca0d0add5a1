package invoice

import (
	"math"
	"strconv"
	"strings"

	"github.com/garyjia/clinic-invoice/internal/domain/entity"
)

// ValidateForSave rejects invoices without a patient name or without items
func ValidateForSave(inv entity.Invoice) error {
	var missing []string
	if strings.TrimSpace(inv.PatientName) == "" {
		missing = append(missing, "patientName")
	}
	if len(inv.Items) == 0 {
		missing = append(missing, "items")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// ParseQuantity parses user input, falling back to the new-item quantity
func ParseQuantity(raw string) float64 {
	return parseNumber(raw, entity.NewItemQuantity)
}

// ParsePrice parses user input, falling back to zero
func ParsePrice(raw string) float64 {
	return parseNumber(raw, entity.NewItemPrice)
}

// ParseTaxRate parses a percentage, falling back to zero
func ParseTaxRate(raw string) float64 {
	return parseNumber(raw, 0)
}

func parseNumber(raw string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
