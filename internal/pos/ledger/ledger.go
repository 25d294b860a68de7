// Package ledger commits completed sales to the persisted append-only
// transaction log.
//
// Ordering matters everywhere here: totals are computed and the tender
// checked before anything is assigned, the append and the counter advance go
// to the store as one atomic unit, and the in-memory cart is only reduced
// after that unit has durably committed. A persistence failure must never
// cost a sale that is still sitting in the cart.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"counterpos/internal/pos/domain"
	"counterpos/internal/pos/pricing"
	"counterpos/internal/pos/sequence"
)

// Store is the port for the persisted transaction log.
type Store interface {
	// AppendTransaction persists the transaction and the advanced counters
	// as a single atomic unit: either both land or neither does.
	AppendTransaction(ctx context.Context, txn *domain.Transaction, next sequence.Counters) error
	// ListTransactions returns the log in append order.
	ListTransactions(ctx context.Context) ([]domain.Transaction, error)
	// GetTransaction looks a transaction up by its id.
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
}

// Payment describes how the customer pays. Tendered is the cash handed over
// in minor units and is only checked for the cash method; card-style methods
// are labels and always tender the exact amount due.
type Payment struct {
	Method   string
	Tendered int64
}

// MethodCash is the only payment method with tender semantics.
const MethodCash = "cash"

// CompleteResult is the outcome of a successful completion.
type CompleteResult struct {
	Transaction *domain.Transaction
	// ChangeDue is the cash to hand back, minor units. Zero for non-cash.
	ChangeDue int64
	// EmptiedCart is true when nothing is left open on the order: always for
	// a full completion, and for a split that paid the last remaining lines.
	EmptiedCart bool
}

// Ledger builds and persists transactions. Not safe for concurrent use; the
// terminal session serializes all callers (see the cart contract).
type Ledger struct {
	store   Store
	seq     *sequence.Sequencer
	pricing *pricing.Engine
	now     func() time.Time
}

func New(store Store, seq *sequence.Sequencer, eng *pricing.Engine, now func() time.Time) *Ledger {
	return &Ledger{store: store, seq: seq, pricing: eng, now: now}
}

// CompleteFull commits the whole cart as one transaction with the cart's
// discount, then clears the cart and advances both counters.
func (l *Ledger) CompleteFull(ctx context.Context, cart *domain.Cart, pay Payment) (*CompleteResult, error) {
	if cart.IsEmpty() {
		return nil, domain.ErrCartEmpty
	}

	lines := domain.CloneLines(cart.Lines)
	totals := l.pricing.ComputeTotals(lines, cart.DiscountPercent)
	change, err := tenderCheck(pay, totals.Total)
	if err != nil {
		return nil, err
	}

	assigned, next, err := l.seq.Next(ctx, true)
	if err != nil {
		return nil, err
	}

	now := l.now()
	txn := l.buildTransaction(assigned, now, lines, cart.DiscountPercent, pay.Method, totals, domain.TypeFull, nil)
	txn.ID = fmt.Sprintf("ORD-%s-%d", now.Format("20060102"), assigned.TxSeq)

	if err := l.store.AppendTransaction(ctx, txn, next); err != nil {
		return nil, fmt.Errorf("append transaction %s: %w", txn.ID, err)
	}
	l.seq.Apply(next)
	cart.Clear()

	slog.InfoContext(ctx, "sale completed",
		"transaction_id", txn.ID, "order_number", txn.OrderNumber,
		"type", txn.Type, "total", txn.Total, "payment_method", pay.Method)

	return &CompleteResult{Transaction: txn, ChangeDue: change, EmptiedCart: true}, nil
}

// CompleteSplit commits payment for a subset of the cart's lines. A split
// receipt deliberately never inherits the whole-cart discount: it is priced
// at discount 0 regardless of the cart setting. Only the paid lines leave the
// cart; the order number advances only when that empties the cart, because
// otherwise the order is still open.
func (l *Ledger) CompleteSplit(ctx context.Context, cart *domain.Cart, lineIDs []string, pay Payment) (*CompleteResult, error) {
	if len(lineIDs) == 0 {
		return nil, domain.ErrEmptySplitSelection
	}
	lines := cart.SelectLines(lineIDs)
	if len(lines) == 0 {
		return nil, domain.ErrEmptySplitSelection
	}
	empties := len(lines) == len(cart.Lines)

	totals := l.pricing.ComputeTotals(lines, 0)
	change, err := tenderCheck(pay, totals.Total)
	if err != nil {
		return nil, err
	}

	assigned, next, err := l.seq.Next(ctx, empties)
	if err != nil {
		return nil, err
	}

	paid := make([]string, len(lines))
	for i, ln := range lines {
		paid[i] = ln.LineID
	}

	now := l.now()
	txn := l.buildTransaction(assigned, now, lines, 0, pay.Method, totals, domain.TypeSplit, &domain.SplitDetails{PaidLineIDs: paid})
	txn.ID = fmt.Sprintf("ORD-%s-%d-SPLIT", now.Format("20060102"), assigned.TxSeq)

	if err := l.store.AppendTransaction(ctx, txn, next); err != nil {
		return nil, fmt.Errorf("append transaction %s: %w", txn.ID, err)
	}
	l.seq.Apply(next)

	for _, id := range paid {
		cart.RemoveLine(id)
	}
	if cart.IsEmpty() {
		cart.Clear()
	}

	slog.InfoContext(ctx, "sale completed",
		"transaction_id", txn.ID, "order_number", txn.OrderNumber,
		"type", txn.Type, "total", txn.Total, "payment_method", pay.Method,
		"paid_lines", len(paid), "emptied_cart", empties)

	return &CompleteResult{Transaction: txn, ChangeDue: change, EmptiedCart: empties}, nil
}

// Transactions returns the persisted log in append order.
func (l *Ledger) Transactions(ctx context.Context) ([]domain.Transaction, error) {
	return l.store.ListTransactions(ctx)
}

// Transaction looks up one committed transaction by id.
func (l *Ledger) Transaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return l.store.GetTransaction(ctx, id)
}

func (l *Ledger) buildTransaction(
	assigned sequence.Counters,
	now time.Time,
	lines []domain.OrderLine,
	discountPercent int,
	method string,
	totals pricing.Totals,
	typ domain.TransactionType,
	split *domain.SplitDetails,
) *domain.Transaction {
	return &domain.Transaction{
		TxSeq:           assigned.TxSeq,
		OrderNumber:     assigned.OrderNumber,
		Items:           domain.SnapshotItems(lines),
		PaymentMethod:   method,
		DiscountPercent: discountPercent,
		Subtotal:        domain.MajorUnits(totals.Subtotal),
		Tax:             domain.MajorUnits(totals.Tax),
		DiscountAmount:  domain.MajorUnits(totals.DiscountAmount),
		Total:           domain.MajorUnits(totals.Total),
		TotalQty:        totals.TotalQty,
		Timestamp:       now,
		Type:            typ,
		Split:           split,
	}
}

// tenderCheck validates cash tender against the amount due and returns the
// change. Failing the check leaves every piece of state untouched.
func tenderCheck(pay Payment, due int64) (change int64, err error) {
	if pay.Method != MethodCash {
		return 0, nil
	}
	if pay.Tendered < due {
		return 0, fmt.Errorf("%w: tendered %d, due %d", domain.ErrInsufficientPayment, pay.Tendered, due)
	}
	return pay.Tendered - due, nil
}
