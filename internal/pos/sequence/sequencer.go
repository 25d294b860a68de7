// Package sequence owns the durable transaction and order-number counters
// and the weekly reset rule for the order number.
package sequence

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Counters is the durable scalar state: a globally monotonic transaction
// sequence, a per-week order number, and the week key the order number
// belongs to.
type Counters struct {
	TxSeq       int64
	OrderNumber int
	WeekKey     string
}

// CounterStore is the port for persisting counters. The sqlite store also
// writes them atomically together with a transaction append, so a committed
// sale and its counter advance are one unit.
type CounterStore interface {
	// LoadCounters returns the persisted counters; found is false on the
	// very first start, before anything has been saved.
	LoadCounters(ctx context.Context) (c Counters, found bool, err error)
	// SaveCounters persists the counters on their own (startup reset,
	// mid-week rollover).
	SaveCounters(ctx context.Context, c Counters) error
}

// Sequencer hands out transaction and order identifiers. It is not safe for
// concurrent use on its own; the terminal session serializes all callers.
type Sequencer struct {
	store CounterStore
	now   func() time.Time
	cur   Counters
}

// New loads the persisted counters and applies the startup rollover rule: if
// the persisted week key is stale, the order number resets to 1 and the new
// key is persisted before any sale is taken. A fresh database starts at
// txSeq 1, orderNumber 1.
func New(ctx context.Context, store CounterStore, now func() time.Time) (*Sequencer, error) {
	s := &Sequencer{store: store, now: now}

	cur, found, err := store.LoadCounters(ctx)
	if err != nil {
		return nil, fmt.Errorf("load counters: %w", err)
	}
	wk := WeekKey(now())
	dirty := !found
	if !found {
		cur = Counters{TxSeq: 1, OrderNumber: 1, WeekKey: wk}
	} else if cur.WeekKey != wk {
		slog.InfoContext(ctx, "week rollover on startup",
			"stale_week", cur.WeekKey, "week", wk, "last_order_number", cur.OrderNumber)
		cur.OrderNumber = 1
		cur.WeekKey = wk
		dirty = true
	}
	if dirty {
		// Persist the initial or reset state so a crash before the first
		// sale still lands in the right week.
		if err := store.SaveCounters(ctx, cur); err != nil {
			return nil, fmt.Errorf("save counters: %w", err)
		}
	}

	s.cur = cur
	return s, nil
}

// Current returns the in-memory counters without a rollover check.
func (s *Sequencer) Current() Counters {
	return s.cur
}

// Roll recomputes the week key and, on a detected rollover, immediately
// forces the order number back to 1 and persists the new key — a
// long-running session must not carry a stale week's numbering forward.
// The check is cheap, so callers run it lazily before every completion
// instead of on a timer.
func (s *Sequencer) Roll(ctx context.Context) (Counters, error) {
	wk := WeekKey(s.now())
	if wk == s.cur.WeekKey {
		return s.cur, nil
	}

	slog.InfoContext(ctx, "week rollover detected",
		"stale_week", s.cur.WeekKey, "week", wk, "last_order_number", s.cur.OrderNumber)
	next := s.cur
	next.WeekKey = wk
	next.OrderNumber = 1
	if err := s.store.SaveCounters(ctx, next); err != nil {
		return Counters{}, fmt.Errorf("save counters after rollover: %w", err)
	}
	s.cur = next
	return s.cur, nil
}

// Next runs the lazy rollover check and returns the counters to stamp on the
// next transaction together with the advanced state the ledger must persist
// alongside it. advanceOrder is false for a split payment that leaves part of
// the cart open — the order is still in progress and keeps its number.
//
// Next does not change any state; the caller persists `next` atomically with
// the transaction and then confirms with Apply.
func (s *Sequencer) Next(ctx context.Context, advanceOrder bool) (assigned, next Counters, err error) {
	assigned, err = s.Roll(ctx)
	if err != nil {
		return Counters{}, Counters{}, err
	}
	next = assigned
	next.TxSeq++
	if advanceOrder {
		next.OrderNumber++
	}
	return assigned, next, nil
}

// Apply commits counter state that has already been durably persisted by the
// ledger's atomic append.
func (s *Sequencer) Apply(next Counters) {
	s.cur = next
}
