// Package pricing computes order totals. The engine is pure: it never
// touches the cart, persists nothing, and the same lines always produce the
// same totals, so callers may run it concurrently over snapshots.
package pricing

import (
	"math"

	"counterpos/internal/pos/domain"
)

// Totals is the result of one pricing pass, all amounts in minor units.
// Tax is applied to the post-discount base; that is the canonical rule for
// every call site (live summary, payment preview, committed receipt).
type Totals struct {
	Subtotal       int64
	DiscountAmount int64
	Tax            int64
	Total          int64
	TotalQty       int
}

// Engine holds the tax rate, e.g. 0.15 for 15%.
type Engine struct {
	taxRate float64
}

func NewEngine(taxRate float64) *Engine {
	return &Engine{taxRate: taxRate}
}

// TaxRate returns the configured rate.
func (e *Engine) TaxRate() float64 {
	return e.taxRate
}

// ComputeTotals prices the given lines with the given discount. The lines may
// be the whole cart or any subset (split-payment previews); subsetting is the
// caller's job and never mutates the cart. Discount and tax are each rounded
// half away from zero, in minor units.
func (e *Engine) ComputeTotals(lines []domain.OrderLine, discountPercent int) Totals {
	discountPercent = domain.ClampDiscount(discountPercent)

	var t Totals
	for _, l := range lines {
		t.Subtotal += l.UnitPrice * int64(l.Quantity)
		t.TotalQty += l.Quantity
	}

	t.DiscountAmount = roundMinor(float64(t.Subtotal) * float64(discountPercent) / 100)
	taxable := t.Subtotal - t.DiscountAmount
	t.Tax = roundMinor(float64(taxable) * e.taxRate)
	t.Total = taxable + t.Tax
	return t
}

func roundMinor(v float64) int64 {
	return int64(math.Round(v))
}
