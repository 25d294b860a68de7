package sequence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is a tiny in-process CounterStore; the real sqlite-backed store
// lives in storage and would create an import cycle from here.
type memStore struct {
	c     Counters
	found bool
	saves int
}

func (m *memStore) LoadCounters(context.Context) (Counters, bool, error) {
	return m.c, m.found, nil
}

func (m *memStore) SaveCounters(_ context.Context, c Counters) error {
	m.c = c
	m.found = true
	m.saves++
	return nil
}

func clockAt(t *time.Time) func() time.Time {
	return func() time.Time { return *t }
}

func TestNewFreshStore(t *testing.T) {
	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	store := &memStore{}

	s, err := New(context.Background(), store, clockAt(&now))
	require.NoError(t, err)

	want := Counters{TxSeq: 1, OrderNumber: 1, WeekKey: "2026-WS34"}
	assert.Equal(t, want, s.Current())
	// The initial state is persisted immediately.
	assert.Equal(t, want, store.c)
}

func TestNewResumesSameWeek(t *testing.T) {
	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	store := &memStore{c: Counters{TxSeq: 41, OrderNumber: 17, WeekKey: "2026-WS34"}, found: true}

	s, err := New(context.Background(), store, clockAt(&now))
	require.NoError(t, err)

	assert.Equal(t, Counters{TxSeq: 41, OrderNumber: 17, WeekKey: "2026-WS34"}, s.Current())
	assert.Zero(t, store.saves, "same week needs no re-save")
}

func TestNewResetsStaleWeek(t *testing.T) {
	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	store := &memStore{c: Counters{TxSeq: 41, OrderNumber: 17, WeekKey: "2026-WS33"}, found: true}

	s, err := New(context.Background(), store, clockAt(&now))
	require.NoError(t, err)

	// Order number resets, transaction sequence never does.
	assert.Equal(t, Counters{TxSeq: 41, OrderNumber: 1, WeekKey: "2026-WS34"}, s.Current())
	assert.Equal(t, 1, store.saves)
}

func TestNextAndApply(t *testing.T) {
	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	store := &memStore{c: Counters{TxSeq: 10, OrderNumber: 5, WeekKey: "2026-WS34"}, found: true}
	s, err := New(context.Background(), store, clockAt(&now))
	require.NoError(t, err)

	assigned, next, err := s.Next(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, Counters{TxSeq: 10, OrderNumber: 5, WeekKey: "2026-WS34"}, assigned)
	assert.Equal(t, Counters{TxSeq: 11, OrderNumber: 6, WeekKey: "2026-WS34"}, next)
	// Next alone commits nothing.
	assert.Equal(t, assigned, s.Current())

	s.Apply(next)
	assert.Equal(t, next, s.Current())
}

func TestNextWithoutOrderAdvance(t *testing.T) {
	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	s, err := New(context.Background(), &memStore{}, clockAt(&now))
	require.NoError(t, err)

	assigned, next, err := s.Next(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, assigned.OrderNumber, next.OrderNumber)
	assert.Equal(t, assigned.TxSeq+1, next.TxSeq)
}

func TestRollMidSession(t *testing.T) {
	now := time.Date(2026, 8, 22, 23, 0, 0, 0, time.UTC) // Saturday night
	store := &memStore{}
	s, err := New(context.Background(), store, clockAt(&now))
	require.NoError(t, err)

	assigned, next, err := s.Next(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, "2026-WS33", assigned.WeekKey)
	s.Apply(next)

	// Cross midnight into Sunday: the next completion starts a new run at 1.
	now = time.Date(2026, 8, 23, 0, 30, 0, 0, time.UTC)
	assigned, next, err = s.Next(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, "2026-WS34", assigned.WeekKey)
	assert.Equal(t, 1, assigned.OrderNumber)
	assert.Equal(t, int64(2), assigned.TxSeq)
	assert.Equal(t, 2, next.OrderNumber)

	// The rollover itself was persisted before the transaction.
	assert.Equal(t, "2026-WS34", store.c.WeekKey)
}

func TestRollNoChangeIsFree(t *testing.T) {
	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	store := &memStore{}
	s, err := New(context.Background(), store, clockAt(&now))
	require.NoError(t, err)
	saves := store.saves

	cur, err := s.Roll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, s.Current(), cur)
	assert.Equal(t, saves, store.saves)
}
