package render

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// RupeeSymbol prefixes amounts shown outside the PDF
const RupeeSymbol = "₹"

// pdfCurrency is used inside the PDF; the core fonts have no rupee glyph
const pdfCurrency = "Rs. "

// FormatMoney rounds amount half away from zero to two places and groups the
// integer digits the Indian way, e.g. 1234567.5 -> 12,34,567.50.
// Non-finite amounts print as zero.
func FormatMoney(amount float64, symbol string) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		amount = 0
	}

	d := decimal.NewFromFloat(amount).Round(2)
	negative := d.IsNegative()

	whole, frac, _ := strings.Cut(d.Abs().StringFixed(2), ".")
	out := symbol + groupIndian(whole) + "." + frac
	if negative {
		return "-" + out
	}
	return out
}

// FormatINR is FormatMoney with the rupee sign
func FormatINR(amount float64) string {
	return FormatMoney(amount, RupeeSymbol)
}

// FormatQuantity drops trailing zeros: 2 -> "2", 1.5 -> "1.5"
func FormatQuantity(q float64) string {
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return "0"
	}
	return strconv.FormatFloat(q, 'f', -1, 64)
}

// groupIndian puts a comma before the last three digits, then every two
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(append(parts, tail), ",")
}
