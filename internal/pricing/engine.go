package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Line is a priced order line: a quantity sold at a unit price with the unit
// cost captured when the line was created.
type Line struct {
	Quantity  int64
	UnitPrice decimal.Decimal
	UnitCost  decimal.Decimal
}

// Subtotal returns UnitPrice * Quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

// Cost returns UnitCost * Quantity.
func (l Line) Cost() decimal.Decimal {
	return l.UnitCost.Mul(decimal.NewFromInt(l.Quantity))
}

// Profit returns (UnitPrice - UnitCost) * Quantity. Negative values are loss lines.
func (l Line) Profit() decimal.Decimal {
	return l.UnitPrice.Sub(l.UnitCost).Mul(decimal.NewFromInt(l.Quantity))
}

// Summary aggregates computed order totals.
type Summary struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountPct    decimal.Decimal `json:"discount_pct"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Total          decimal.Decimal `json:"total"`
	Cost           decimal.Decimal `json:"cost"`
	Profit         decimal.Decimal `json:"profit"`
}

// Compute derives order totals from its lines and a percentage discount.
// The discount amount is rounded to cents so Total is exact; Total never
// drops below zero.
func Compute(lines []Line, discountPct decimal.Decimal) Summary {
	subtotal := decimal.Zero
	cost := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Subtotal())
		cost = cost.Add(l.Cost())
	}
	discount := DiscountAmount(subtotal, discountPct)
	total := subtotal.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return Summary{
		Subtotal:       subtotal,
		DiscountPct:    discountPct,
		DiscountAmount: discount,
		Total:          total,
		Cost:           cost,
		Profit:         total.Sub(cost),
	}
}

// DiscountAmount returns subtotal * pct / 100 rounded to cents.
func DiscountAmount(subtotal, pct decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(pct).Div(hundred).Round(2)
}

// AllocateDiscount spreads an order level discount over line subtotals in
// proportion to each line's share of the order subtotal. When the order
// subtotal is not positive every share is zero.
func AllocateDiscount(discount decimal.Decimal, subtotals []decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, len(subtotals))
	total := decimal.Zero
	for _, s := range subtotals {
		total = total.Add(s)
	}
	for i, s := range subtotals {
		if !total.IsPositive() {
			out[i] = decimal.Zero
			continue
		}
		out[i] = discount.Mul(s).Div(total)
	}
	return out
}

// ParseDiscount reads a free-form percentage. Both "." and "," are accepted as
// decimal separator; empty, malformed or negative input yields zero.
func ParseDiscount(raw string) decimal.Decimal {
	d, ok := ParseDecimal(raw)
	if !ok || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// ParseDecimal parses a decimal that may use "," as separator.
func ParseDecimal(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
