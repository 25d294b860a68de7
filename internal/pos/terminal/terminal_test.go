package terminal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"counterpos/internal/pos/catalog"
	"counterpos/internal/pos/domain"
	"counterpos/internal/pos/held"
	"counterpos/internal/pos/ledger"
	"counterpos/internal/pos/pricing"
	"counterpos/internal/pos/sequence"
	"counterpos/internal/pos/storage/memory"
)

var menuItems = []domain.MenuItemRef{
	{ID: "blt", Name: "BLT Sandwich", Category: "food", Price: 990, HasModifiers: true},
	{ID: "drip", Name: "Drip Coffee", Category: "coffee", Price: 500},
	{
		ID: "latte", Name: "Latte", Category: "coffee",
		Prices:       []domain.SizePrice{{Label: "small", Amount: 450}, {Label: "large", Amount: 590}},
		HasModifiers: true,
	},
}

func newTerminal(t *testing.T) *Terminal {
	t.Helper()
	store := memory.NewStore()
	clock := tickingClock()
	seq, err := sequence.New(context.Background(), store, clock)
	require.NoError(t, err)
	eng := pricing.NewEngine(0.15)
	led := ledger.New(store, seq, eng, clock)
	holds := held.NewStore(store, 100, clock)
	return New(catalog.NewMemory(menuItems), eng, led, holds, seq)
}

// tickingClock advances one second per call so hold ids never collide.
func tickingClock() func() time.Time {
	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func TestAddLineMergesAndPrices(t *testing.T) {
	term := newTerminal(t)
	ctx := context.Background()

	_, err := term.AddLine(ctx, "blt", "", nil)
	require.NoError(t, err)
	view, err := term.AddLine(ctx, "blt", "", nil)
	require.NoError(t, err)

	require.Len(t, view.Lines, 1)
	assert.Equal(t, 2, view.Lines[0].Quantity)
	assert.Equal(t, int64(1980), view.Totals.Subtotal)
	assert.Equal(t, int64(297), view.Totals.Tax)
	assert.Equal(t, int64(2277), view.Totals.Total)
	assert.Equal(t, 1, view.OrderNumber)
}

func TestAddLineUnknownItem(t *testing.T) {
	term := newTerminal(t)

	_, err := term.AddLine(context.Background(), "nachos", "", nil)
	assert.ErrorIs(t, err, domain.ErrUnknownItem)
}

func TestAddLineUnknownSize(t *testing.T) {
	term := newTerminal(t)

	_, err := term.AddLine(context.Background(), "latte", "venti", nil)
	assert.ErrorIs(t, err, domain.ErrUnknownSize)
}

func TestTotalsSubsetIgnoresDiscount(t *testing.T) {
	term := newTerminal(t)
	ctx := context.Background()

	view, err := term.AddLine(ctx, "blt", "", nil)
	require.NoError(t, err)
	bltID := view.Lines[0].LineID
	_, err = term.AddLine(ctx, "drip", "", nil)
	require.NoError(t, err)
	term.SetDiscount(ctx, 10)

	whole := term.Totals(ctx, nil)
	assert.Equal(t, int64(1490), whole.Subtotal)
	assert.Equal(t, int64(149), whole.DiscountAmount)

	subset := term.Totals(ctx, []string{bltID})
	assert.Equal(t, int64(990), subset.Subtotal)
	assert.Equal(t, int64(0), subset.DiscountAmount, "split previews are priced at discount 0")

	// Preview never mutates the cart.
	after, err := term.Cart(ctx)
	require.NoError(t, err)
	assert.Len(t, after.Lines, 2)
	assert.Equal(t, 10, after.DiscountPercent)
}

func TestFullCheckoutFlow(t *testing.T) {
	term := newTerminal(t)
	ctx := context.Background()

	_, err := term.AddLine(ctx, "blt", "", nil)
	require.NoError(t, err)
	term.SetPaymentHint(ctx, "cash")

	res, err := term.CompleteFull(ctx, ledger.Payment{Method: ledger.MethodCash, Tendered: 1200})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Transaction.OrderNumber)
	assert.Equal(t, int64(1200-1139), res.ChangeDue) // 990 + 15% tax = 1139

	view, err := term.Cart(ctx)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.Equal(t, 2, view.OrderNumber, "next order gets the next number")
	assert.Equal(t, "cash", view.PaymentMethodHint, "hint survives completion")

	txns, err := term.Transactions(ctx)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	got, err := term.Transaction(ctx, txns[0].ID)
	require.NoError(t, err)
	assert.Equal(t, txns[0].ID, got.ID)
}

func TestSplitCheckoutFlow(t *testing.T) {
	term := newTerminal(t)
	ctx := context.Background()

	view, err := term.AddLine(ctx, "blt", "", nil)
	require.NoError(t, err)
	bltID := view.Lines[0].LineID
	_, err = term.AddLine(ctx, "drip", "", nil)
	require.NoError(t, err)

	res, err := term.CompleteSplit(ctx, []string{bltID}, ledger.Payment{Method: "card"})
	require.NoError(t, err)
	assert.False(t, res.EmptiedCart)

	view, err = term.Cart(ctx)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, "drip", view.Lines[0].ItemID)
	assert.Equal(t, 1, view.OrderNumber, "open order keeps its number")

	res, err = term.CompleteSplit(ctx, []string{view.Lines[0].LineID}, ledger.Payment{Method: "card"})
	require.NoError(t, err)
	assert.True(t, res.EmptiedCart)

	view, err = term.Cart(ctx)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.Equal(t, 2, view.OrderNumber)
}

func TestHoldRetrieveFlow(t *testing.T) {
	term := newTerminal(t)
	ctx := context.Background()

	_, err := term.AddLine(ctx, "latte", "large", nil)
	require.NoError(t, err)
	term.SetDiscount(ctx, 20)

	ho, err := term.Hold(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, ho.OrderNumber)

	view, err := term.Cart(ctx)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)

	// Work an unrelated order while the first is parked.
	_, err = term.AddLine(ctx, "drip", "", nil)
	require.NoError(t, err)
	_, err = term.CompleteFull(ctx, ledger.Payment{Method: "card"})
	require.NoError(t, err)

	view, err = term.Retrieve(ctx, ho.HoldID)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, "latte", view.Lines[0].ItemID)
	assert.Equal(t, int64(590), view.Lines[0].UnitPrice)
	assert.Equal(t, 20, view.DiscountPercent)

	listed, err := term.ListHeld(ctx)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestRetrieveUnknownHold(t *testing.T) {
	term := newTerminal(t)

	_, err := term.Retrieve(context.Background(), "HOLD-404")
	assert.ErrorIs(t, err, domain.ErrHoldNotFound)
}

func TestDeleteHeldDiscards(t *testing.T) {
	term := newTerminal(t)
	ctx := context.Background()

	_, err := term.AddLine(ctx, "drip", "", nil)
	require.NoError(t, err)
	ho, err := term.Hold(ctx)
	require.NoError(t, err)

	require.NoError(t, term.DeleteHeld(ctx, ho.HoldID))
	_, err = term.Retrieve(ctx, ho.HoldID)
	assert.ErrorIs(t, err, domain.ErrHoldNotFound)
	// Deleting again stays a no-op.
	require.NoError(t, term.DeleteHeld(ctx, ho.HoldID))
}

func TestClearAndQuantityEdits(t *testing.T) {
	term := newTerminal(t)
	ctx := context.Background()

	view, err := term.AddLine(ctx, "drip", "", nil)
	require.NoError(t, err)
	lineID := view.Lines[0].LineID

	view, err = term.UpdateQuantity(ctx, lineID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, view.Lines[0].Quantity)
	assert.Equal(t, int64(2000), view.Totals.Subtotal)

	_, err = term.UpdateQuantity(ctx, "ghost", 2)
	assert.ErrorIs(t, err, domain.ErrLineNotFound)

	view = term.RemoveLine(ctx, lineID)
	assert.Empty(t, view.Lines)

	_, err = term.AddLine(ctx, "drip", "", nil)
	require.NoError(t, err)
	view = term.Clear(ctx)
	assert.Empty(t, view.Lines)
	assert.Equal(t, 0, view.DiscountPercent)
}
