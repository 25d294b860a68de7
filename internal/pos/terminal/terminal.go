// Package terminal is the session façade the presentation layer talks to.
//
// One Terminal owns one active cart. Every mutating operation — add, update,
// remove, clear, discount, hold, retrieve, complete — runs under a single
// mutex, which reproduces the one-writer-per-session guarantee the cart
// logic depends on: signature matching and line-id allocation never race.
// Reads return deep snapshots taken under the same lock, so a concurrent
// totals call never observes a torn cart.
package terminal

import (
	"context"
	"sync"

	"counterpos/internal/pos/catalog"
	"counterpos/internal/pos/domain"
	"counterpos/internal/pos/held"
	"counterpos/internal/pos/ledger"
	"counterpos/internal/pos/pricing"
	"counterpos/internal/pos/sequence"
)

// CartView is the read model handed back after every cart operation: a
// consistent snapshot of the lines plus freshly computed totals.
type CartView struct {
	Lines             []domain.OrderLine
	DiscountPercent   int
	PaymentMethodHint string
	OrderNumber       int
	Totals            pricing.Totals
}

// Terminal wires the cart to the catalog, pricing engine, ledger, held-order
// store and sequencer.
type Terminal struct {
	mu      sync.Mutex
	cart    domain.Cart
	catalog catalog.Catalog
	pricing *pricing.Engine
	ledger  *ledger.Ledger
	holds   *held.Store
	seq     *sequence.Sequencer
}

func New(cat catalog.Catalog, eng *pricing.Engine, led *ledger.Ledger, holds *held.Store, seq *sequence.Sequencer) *Terminal {
	return &Terminal{
		catalog: cat,
		pricing: eng,
		ledger:  led,
		holds:   holds,
		seq:     seq,
	}
}

// AddLine resolves the item in the catalog and adds it to the cart, merging
// into an existing line when the signature matches.
func (t *Terminal) AddLine(ctx context.Context, itemID, size string, chosen []domain.ModifierGroup) (CartView, error) {
	item, err := t.catalog.Item(ctx, itemID)
	if err != nil {
		return CartView{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.cart.AddLine(item, size, chosen); err != nil {
		return CartView{}, err
	}
	return t.viewLocked(), nil
}

// UpdateQuantity sets a line's quantity; zero or less removes the line.
func (t *Terminal) UpdateQuantity(_ context.Context, lineID string, qty int) (CartView, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.cart.UpdateQuantity(lineID, qty); err != nil {
		return CartView{}, err
	}
	return t.viewLocked(), nil
}

// RemoveLine removes a line; unknown ids are a no-op.
func (t *Terminal) RemoveLine(_ context.Context, lineID string) CartView {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cart.RemoveLine(lineID)
	return t.viewLocked()
}

// Clear empties the cart and resets the discount.
func (t *Terminal) Clear(_ context.Context) CartView {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cart.Clear()
	return t.viewLocked()
}

// SetDiscount clamps the percentage into [0,100] and applies it cart-wide.
func (t *Terminal) SetDiscount(_ context.Context, percent int) CartView {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cart.SetDiscount(percent)
	return t.viewLocked()
}

// SetPaymentHint records the method the cashier expects to charge.
func (t *Terminal) SetPaymentHint(_ context.Context, method string) CartView {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cart.PaymentMethodHint = method
	return t.viewLocked()
}

// Cart returns the current read model. It also runs the lazy week-rollover
// check so an idle terminal that crosses a week boundary shows the reset
// order number before the next sale.
func (t *Terminal) Cart(ctx context.Context) (CartView, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.seq.Roll(ctx); err != nil {
		return CartView{}, err
	}
	return t.viewLocked(), nil
}

// Totals prices the cart, or only the lines in subsetIDs when non-empty —
// the split-payment preview. The cart itself is never touched.
func (t *Terminal) Totals(_ context.Context, subsetIDs []string) pricing.Totals {
	t.mu.Lock()
	lines := domain.CloneLines(t.cart.Lines)
	discount := t.cart.DiscountPercent
	if len(subsetIDs) > 0 {
		lines = t.cart.SelectLines(subsetIDs)
		// Split receipts never inherit the cart discount; preview the same way.
		discount = 0
	}
	t.mu.Unlock()

	return t.pricing.ComputeTotals(lines, discount)
}

// CompleteFull commits the whole cart as one transaction.
func (t *Terminal) CompleteFull(ctx context.Context, pay ledger.Payment) (*ledger.CompleteResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ledger.CompleteFull(ctx, &t.cart, pay)
}

// CompleteSplit commits payment for the selected lines only.
func (t *Terminal) CompleteSplit(ctx context.Context, lineIDs []string, pay ledger.Payment) (*ledger.CompleteResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ledger.CompleteSplit(ctx, &t.cart, lineIDs, pay)
}

// Hold parks the active cart and clears it.
func (t *Terminal) Hold(ctx context.Context) (*domain.HeldOrder, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cur, err := t.seq.Roll(ctx)
	if err != nil {
		return nil, err
	}
	return t.holds.Hold(ctx, &t.cart, cur.OrderNumber)
}

// Retrieve restores a held order into the active cart.
func (t *Terminal) Retrieve(ctx context.Context, holdID string) (CartView, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.holds.Retrieve(ctx, holdID, &t.cart); err != nil {
		return CartView{}, err
	}
	return t.viewLocked(), nil
}

// DeleteHeld discards a held order without restoring it.
func (t *Terminal) DeleteHeld(ctx context.Context, holdID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.holds.Delete(ctx, holdID)
}

// ListHeld returns the parked orders, oldest first.
func (t *Terminal) ListHeld(ctx context.Context) ([]domain.HeldOrder, error) {
	return t.holds.List(ctx)
}

// Transactions returns the committed log in append order.
func (t *Terminal) Transactions(ctx context.Context) ([]domain.Transaction, error) {
	return t.ledger.Transactions(ctx)
}

// Transaction looks up one committed transaction.
func (t *Terminal) Transaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return t.ledger.Transaction(ctx, id)
}

// viewLocked builds the read model; the caller holds the mutex.
func (t *Terminal) viewLocked() CartView {
	snap := t.cart.Snapshot()
	return CartView{
		Lines:             snap.Lines,
		DiscountPercent:   snap.DiscountPercent,
		PaymentMethodHint: snap.PaymentMethodHint,
		OrderNumber:       t.seq.Current().OrderNumber,
		Totals:            t.pricing.ComputeTotals(snap.Lines, snap.DiscountPercent),
	}
}
