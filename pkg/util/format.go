package util

import (
	"github.com/shopspring/decimal"
)

var (
	thousand = decimal.NewFromInt(1_000)
	million  = decimal.NewFromInt(1_000_000)
	billion  = decimal.NewFromInt(1_000_000_000)
)

// FormatUSD abbreviates a dollar amount: $1.2B, $3.4M, $56K, $7.89. Nil renders as $0.00.
func FormatUSD(v *float64) string {
	if v == nil {
		return "$0.00"
	}
	d := decimal.NewFromFloat(*v)
	switch {
	case d.GreaterThanOrEqual(billion):
		return "$" + d.Div(billion).StringFixed(1) + "B"
	case d.GreaterThanOrEqual(million):
		return "$" + d.Div(million).StringFixed(1) + "M"
	case d.GreaterThanOrEqual(thousand):
		return "$" + d.Div(thousand).StringFixed(0) + "K"
	default:
		return "$" + d.StringFixed(2)
	}
}

// FormatSOL renders an amount with two decimals and the SOL suffix.
func FormatSOL(v *float64) string {
	if v == nil {
		return "0.00 SOL"
	}
	return decimal.NewFromFloat(*v).StringFixed(2) + " SOL"
}

// FormatROI renders a signed percentage with one decimal. Nil counts as zero.
func FormatROI(v *float64) string {
	d := decimal.Zero
	if v != nil {
		d = decimal.NewFromFloat(*v)
	}
	s := d.StringFixed(1) + "%"
	if !d.IsNegative() {
		s = "+" + s
	}
	return s
}

// FormatPrice renders a USD price with six decimals, or N/A.
func FormatPrice(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return "$" + decimal.NewFromFloat(*v).StringFixed(6)
}
