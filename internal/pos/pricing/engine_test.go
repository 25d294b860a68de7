package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"counterpos/internal/pos/domain"
)

func lines() []domain.OrderLine {
	return []domain.OrderLine{
		{LineID: "a", ItemID: "blt", UnitPrice: 990, Quantity: 2},
		{LineID: "b", ItemID: "drip", UnitPrice: 500, Quantity: 1},
	}
}

func TestComputeTotalsWithDiscount(t *testing.T) {
	eng := NewEngine(0.15)

	got := eng.ComputeTotals(lines(), 10)

	// subtotal 2480, 10% off = 248, 15% tax on 2232 = 334.8 -> 335
	assert.Equal(t, int64(2480), got.Subtotal)
	assert.Equal(t, int64(248), got.DiscountAmount)
	assert.Equal(t, int64(335), got.Tax)
	assert.Equal(t, int64(2567), got.Total)
	assert.Equal(t, 3, got.TotalQty)
}

func TestComputeTotalsNoDiscount(t *testing.T) {
	eng := NewEngine(0.15)

	got := eng.ComputeTotals(lines(), 0)

	assert.Equal(t, int64(2480), got.Subtotal)
	assert.Equal(t, int64(0), got.DiscountAmount)
	assert.Equal(t, int64(372), got.Tax)
	assert.Equal(t, int64(2852), got.Total)
}

func TestComputeTotalsSubset(t *testing.T) {
	eng := NewEngine(0.15)

	got := eng.ComputeTotals(lines()[:1], 0)

	assert.Equal(t, int64(1980), got.Subtotal)
	assert.Equal(t, int64(297), got.Tax)
	assert.Equal(t, int64(2277), got.Total)
	assert.Equal(t, 2, got.TotalQty)
}

func TestComputeTotalsClampsDiscount(t *testing.T) {
	eng := NewEngine(0.15)

	full := eng.ComputeTotals(lines(), 120)
	assert.Equal(t, full.Subtotal, full.DiscountAmount)
	assert.Equal(t, int64(0), full.Total)

	none := eng.ComputeTotals(lines(), -10)
	assert.Equal(t, int64(0), none.DiscountAmount)
}

func TestComputeTotalsEmpty(t *testing.T) {
	eng := NewEngine(0.15)
	assert.Equal(t, Totals{}, eng.ComputeTotals(nil, 10))
}

func TestComputeTotalsIsPure(t *testing.T) {
	eng := NewEngine(0.08)
	in := lines()

	first := eng.ComputeTotals(in, 5)
	second := eng.ComputeTotals(in, 5)

	assert.Equal(t, first, second)
	assert.Equal(t, lines(), in)
}
