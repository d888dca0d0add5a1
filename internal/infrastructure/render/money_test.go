package render

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatINR(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{0, "₹0.00"},
		{5, "₹5.00"},
		{999.995, "₹1,000.00"},
		{1500, "₹1,500.00"},
		{100000, "₹1,00,000.00"},
		{1234567.5, "₹12,34,567.50"},
		{123456789.123, "₹12,34,56,789.12"},
		{0.005, "₹0.01"},
		{-1234.567, "-₹1,234.57"},
		{-0.001, "₹0.00"},
		{math.NaN(), "₹0.00"},
		{math.Inf(1), "₹0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatINR(tt.amount))
		})
	}
}

func TestFormatMoney_PDFSymbol(t *testing.T) {
	assert.Equal(t, "Rs. 1,500.00", FormatMoney(1500, pdfCurrency))
}

func TestFormatQuantity(t *testing.T) {
	assert.Equal(t, "2", FormatQuantity(2))
	assert.Equal(t, "1.5", FormatQuantity(1.5))
	assert.Equal(t, "0", FormatQuantity(math.NaN()))
}
