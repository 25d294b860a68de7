// Package memory is an in-memory implementation of the persistence ports
// (transaction log, counters, held orders). It backs tests and lets the
// server run without a database file for throwaway demos.
package memory

import (
	"context"
	"fmt"
	"sync"

	"counterpos/internal/pos/domain"
	"counterpos/internal/pos/sequence"
)

// Store keeps everything in process memory. Safe for concurrent use.
type Store struct {
	mu           sync.Mutex
	transactions []domain.Transaction
	held         map[string]domain.HeldOrder
	heldOrder    []string
	counters     sequence.Counters
	hasCounters  bool
}

func NewStore() *Store {
	return &Store{held: make(map[string]domain.HeldOrder)}
}

// AppendTransaction stores the transaction and the counters together; in
// memory the atomicity is trivially given by the mutex.
func (s *Store) AppendTransaction(_ context.Context, txn *domain.Transaction, next sequence.Counters) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append(s.transactions, *txn)
	s.counters = next
	s.hasCounters = true
	return nil
}

func (s *Store) ListTransactions(_ context.Context) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.transactions {
		if t.ID == id {
			txn := t
			return &txn, nil
		}
	}
	return nil, fmt.Errorf("transaction %q not found", id)
}

func (s *Store) LoadCounters(_ context.Context) (sequence.Counters, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters, s.hasCounters, nil
}

func (s *Store) SaveCounters(_ context.Context, c sequence.Counters) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters = c
	s.hasCounters = true
	return nil
}

func (s *Store) PutHeld(_ context.Context, ho *domain.HeldOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.held[ho.HoldID]; exists {
		return fmt.Errorf("held order %q already exists", ho.HoldID)
	}
	s.held[ho.HoldID] = *ho
	s.heldOrder = append(s.heldOrder, ho.HoldID)
	return nil
}

func (s *Store) GetHeld(_ context.Context, holdID string) (*domain.HeldOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ho, ok := s.held[holdID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrHoldNotFound, holdID)
	}
	return &ho, nil
}

func (s *Store) DeleteHeld(_ context.Context, holdID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.held[holdID]; !ok {
		return nil
	}
	delete(s.held, holdID)
	for i, id := range s.heldOrder {
		if id == holdID {
			s.heldOrder = append(s.heldOrder[:i], s.heldOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) ListHeld(_ context.Context) ([]domain.HeldOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.HeldOrder, 0, len(s.heldOrder))
	for _, id := range s.heldOrder {
		out = append(out, s.held[id])
	}
	return out, nil
}

func (s *Store) CountHeld(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.held), nil
}
