// Package held parks in-progress carts and restores them later. Held orders
// live outside the transaction ledger; parking and retrieving never touches
// the counters.
package held

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"counterpos/internal/pos/domain"
)

// Repository is the port for the persisted held-order list.
type Repository interface {
	PutHeld(ctx context.Context, ho *domain.HeldOrder) error
	// GetHeld returns domain.ErrHoldNotFound (possibly wrapped) for an
	// unknown id.
	GetHeld(ctx context.Context, holdID string) (*domain.HeldOrder, error)
	// DeleteHeld is idempotent; deleting an unknown id is a no-op.
	DeleteHeld(ctx context.Context, holdID string) error
	ListHeld(ctx context.Context) ([]domain.HeldOrder, error)
	CountHeld(ctx context.Context) (int, error)
}

// Store applies the hold/retrieve rules on top of a Repository. Not safe for
// concurrent use; the terminal session serializes all callers.
type Store struct {
	repo  Repository
	limit int
	now   func() time.Time
}

// NewStore builds a Store. limit caps the held list; 0 means unbounded.
func NewStore(repo Repository, limit int, now func() time.Time) *Store {
	return &Store{repo: repo, limit: limit, now: now}
}

// Hold snapshots the cart into a new held order and clears the active cart.
// An empty cart cannot be held. When the list is at capacity the hold is
// rejected rather than evicting an older entry — evicting would silently
// discard somebody's parked sale.
func (s *Store) Hold(ctx context.Context, cart *domain.Cart, orderNumber int) (*domain.HeldOrder, error) {
	if cart.IsEmpty() {
		return nil, domain.ErrCartEmpty
	}
	if s.limit > 0 {
		n, err := s.repo.CountHeld(ctx)
		if err != nil {
			return nil, fmt.Errorf("count held orders: %w", err)
		}
		if n >= s.limit {
			return nil, fmt.Errorf("%w: %d held", domain.ErrTooManyHeld, n)
		}
	}

	now := s.now()
	ho := &domain.HeldOrder{
		HoldID:            fmt.Sprintf("HOLD-%d", now.UnixMilli()),
		Items:             domain.CloneLines(cart.Lines),
		DiscountPercent:   cart.DiscountPercent,
		PaymentMethodHint: cart.PaymentMethodHint,
		Timestamp:         now,
		OrderNumber:       orderNumber,
	}
	if err := s.repo.PutHeld(ctx, ho); err != nil {
		return nil, fmt.Errorf("persist held order %s: %w", ho.HoldID, err)
	}

	cart.Clear()
	cart.PaymentMethodHint = ""

	slog.InfoContext(ctx, "order held", "hold_id", ho.HoldID, "lines", len(ho.Items))
	return ho, nil
}

// Retrieve restores the snapshot into the cart (replacing its contents) and
// removes the held entry. An unknown id surfaces domain.ErrHoldNotFound
// instead of silently doing nothing: failing to restore a cart should never
// look like success.
func (s *Store) Retrieve(ctx context.Context, holdID string, cart *domain.Cart) (*domain.HeldOrder, error) {
	ho, err := s.repo.GetHeld(ctx, holdID)
	if err != nil {
		return nil, err
	}

	prev := cart.Snapshot()
	cart.Lines = domain.CloneLines(ho.Items)
	cart.DiscountPercent = ho.DiscountPercent
	cart.PaymentMethodHint = ho.PaymentMethodHint

	if err := s.repo.DeleteHeld(ctx, holdID); err != nil {
		// Roll the cart back so a retryable storage fault does not leave a
		// restorable duplicate in both places.
		cart.Lines = prev.Lines
		cart.DiscountPercent = prev.DiscountPercent
		cart.PaymentMethodHint = prev.PaymentMethodHint
		return nil, fmt.Errorf("remove held order %s: %w", holdID, err)
	}

	slog.InfoContext(ctx, "order retrieved", "hold_id", holdID, "lines", len(ho.Items))
	return ho, nil
}

// Delete removes a held entry unconditionally; unknown ids are a no-op.
func (s *Store) Delete(ctx context.Context, holdID string) error {
	return s.repo.DeleteHeld(ctx, holdID)
}

// List returns all held orders, oldest first.
func (s *Store) List(ctx context.Context) ([]domain.HeldOrder, error) {
	return s.repo.ListHeld(ctx)
}
