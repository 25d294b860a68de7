// Package sqlite provides the durable SQLite-backed implementation of the
// persistence ports: the append-only transaction log, the counter scalars,
// and the held-order list.
//
// WAL mode is enabled on Open so read-model queries (transaction history,
// held list) never block the single writer.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"counterpos/internal/pos/domain"
	"counterpos/internal/pos/sequence"

	// Register the pure-Go SQLite driver. modernc.org/sqlite avoids CGO,
	// which keeps the terminal build trivially cross-compilable.
	_ "modernc.org/sqlite"
)

// schema is the DDL executed once on startup, idempotent via IF NOT EXISTS.
const schema = `
CREATE TABLE IF NOT EXISTS transactions (
    -- Global transaction sequence; strictly increasing, never reset.
    seq             INTEGER PRIMARY KEY,

    -- Business identifier, e.g. "ORD-20260828-42" or "...-SPLIT".
    id              TEXT    NOT NULL UNIQUE,

    -- Per-week order number at commit time.
    order_number    INTEGER NOT NULL,

    type            TEXT    NOT NULL,
    payment_method  TEXT    NOT NULL,
    discount_percent INTEGER NOT NULL,

    -- Amounts in major currency units; minor-unit arithmetic happens before
    -- anything reaches this boundary.
    subtotal        REAL    NOT NULL,
    tax             REAL    NOT NULL,
    discount_amount REAL    NOT NULL,
    total           REAL    NOT NULL,
    total_qty       INTEGER NOT NULL,

    -- JSON snapshot of the paid lines.
    items           TEXT    NOT NULL,

    -- JSON array of paid line ids; NULL for full completions.
    paid_line_ids   TEXT,

    -- RFC3339 TEXT (SQLite idiom; no native datetime type).
    created_at      TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS held_orders (
    hold_id             TEXT    PRIMARY KEY,
    order_number        INTEGER NOT NULL,
    discount_percent    INTEGER NOT NULL,
    payment_method_hint TEXT    NOT NULL DEFAULT '',
    items               TEXT    NOT NULL,
    created_at          TEXT    NOT NULL
);

-- Independent durable scalars: tx_seq, order_number, week_key.
CREATE TABLE IF NOT EXISTS counters (
    name  TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

const (
	counterTxSeq       = "tx_seq"
	counterOrderNumber = "order_number"
	counterWeekKey     = "week_key"
)

// Store implements ledger.Store, sequence.CounterStore and held.Repository
// over one SQLite database file.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	// _pragma query params configure connection state for the modernc
	// driver. busy_timeout waits for locks instead of failing immediately.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// SQLite performs best with a single writer connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database. Call it with defer in main().
func (s *Store) Close() error {
	return s.db.Close()
}

// AppendTransaction writes the transaction row and the advanced counters in
// one database transaction. A crash can therefore never leave a committed
// sale without its counter advance, or the reverse.
func (s *Store) AppendTransaction(ctx context.Context, txn *domain.Transaction, next sequence.Counters) error {
	items, err := json.Marshal(txn.Items)
	if err != nil {
		return fmt.Errorf("sqlite: marshal items for %q: %w", txn.ID, err)
	}
	var paidIDs any
	if txn.Split != nil {
		b, err := json.Marshal(txn.Split.PaidLineIDs)
		if err != nil {
			return fmt.Errorf("sqlite: marshal paid line ids for %q: %w", txn.ID, err)
		}
		paidIDs = string(b)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin append for %q: %w", txn.ID, err)
	}
	defer tx.Rollback()

	const q = `
		INSERT INTO transactions
			(seq, id, order_number, type, payment_method, discount_percent,
			 subtotal, tax, discount_amount, total, total_qty, items,
			 paid_line_ids, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	if _, err := tx.ExecContext(ctx, q,
		txn.TxSeq,
		txn.ID,
		txn.OrderNumber,
		string(txn.Type),
		txn.PaymentMethod,
		txn.DiscountPercent,
		txn.Subtotal,
		txn.Tax,
		txn.DiscountAmount,
		txn.Total,
		txn.TotalQty,
		string(items),
		paidIDs,
		formatTime(txn.Timestamp),
	); err != nil {
		return fmt.Errorf("sqlite: insert transaction %q: %w", txn.ID, err)
	}

	if err := saveCountersTx(ctx, tx, next); err != nil {
		return fmt.Errorf("sqlite: advance counters for %q: %w", txn.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit append for %q: %w", txn.ID, err)
	}
	return nil
}

// ListTransactions returns the log in append (seq) order.
func (s *Store) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	const q = `
		SELECT seq, id, order_number, type, payment_method, discount_percent,
		       subtotal, tax, discount_amount, total, total_qty, items,
		       COALESCE(paid_line_ids, ''), created_at
		FROM   transactions
		ORDER  BY seq`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list transactions: %w", err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list transactions: %w", err)
	}
	return out, nil
}

// GetTransaction looks a transaction up by its business id.
func (s *Store) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	const q = `
		SELECT seq, id, order_number, type, payment_method, discount_percent,
		       subtotal, tax, discount_amount, total, total_qty, items,
		       COALESCE(paid_line_ids, ''), created_at
		FROM   transactions
		WHERE  id = ?`

	row := s.db.QueryRowContext(ctx, q, id)
	txn, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sqlite: transaction %q not found", id)
	}
	if err != nil {
		return nil, err
	}
	return txn, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(sc scanner) (*domain.Transaction, error) {
	var (
		txn       domain.Transaction
		typ       string
		items     string
		paidIDs   string
		createdAt string
	)
	if err := sc.Scan(
		&txn.TxSeq,
		&txn.ID,
		&txn.OrderNumber,
		&typ,
		&txn.PaymentMethod,
		&txn.DiscountPercent,
		&txn.Subtotal,
		&txn.Tax,
		&txn.DiscountAmount,
		&txn.Total,
		&txn.TotalQty,
		&items,
		&paidIDs,
		&createdAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("sqlite: scan transaction: %w", err)
	}

	txn.Type = domain.TransactionType(typ)
	if err := json.Unmarshal([]byte(items), &txn.Items); err != nil {
		return nil, fmt.Errorf("sqlite: unmarshal items for %q: %w", txn.ID, err)
	}
	if paidIDs != "" {
		var ids []string
		if err := json.Unmarshal([]byte(paidIDs), &ids); err != nil {
			return nil, fmt.Errorf("sqlite: unmarshal paid line ids for %q: %w", txn.ID, err)
		}
		txn.Split = &domain.SplitDetails{PaidLineIDs: ids}
	}

	ts, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	txn.Timestamp = ts
	return &txn, nil
}

// LoadCounters reads the three counter scalars; found is false until the
// first SaveCounters.
func (s *Store) LoadCounters(ctx context.Context) (sequence.Counters, bool, error) {
	const q = `SELECT name, value FROM counters`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return sequence.Counters{}, false, fmt.Errorf("sqlite: load counters: %w", err)
	}
	defer rows.Close()

	var c sequence.Counters
	found := false
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return sequence.Counters{}, false, fmt.Errorf("sqlite: scan counter: %w", err)
		}
		switch name {
		case counterTxSeq:
			c.TxSeq, err = strconv.ParseInt(value, 10, 64)
		case counterOrderNumber:
			c.OrderNumber, err = strconv.Atoi(value)
		case counterWeekKey:
			c.WeekKey = value
		}
		if err != nil {
			return sequence.Counters{}, false, fmt.Errorf("sqlite: parse counter %q=%q: %w", name, value, err)
		}
		found = true
	}
	if err := rows.Err(); err != nil {
		return sequence.Counters{}, false, fmt.Errorf("sqlite: load counters: %w", err)
	}
	return c, found, nil
}

// SaveCounters persists the counters outside an append (startup, rollover).
func (s *Store) SaveCounters(ctx context.Context, c sequence.Counters) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin save counters: %w", err)
	}
	defer tx.Rollback()

	if err := saveCountersTx(ctx, tx, c); err != nil {
		return fmt.Errorf("sqlite: save counters: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit counters: %w", err)
	}
	return nil
}

func saveCountersTx(ctx context.Context, tx *sql.Tx, c sequence.Counters) error {
	const q = `
		INSERT INTO counters (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value`

	for _, kv := range []struct{ name, value string }{
		{counterTxSeq, strconv.FormatInt(c.TxSeq, 10)},
		{counterOrderNumber, strconv.Itoa(c.OrderNumber)},
		{counterWeekKey, c.WeekKey},
	} {
		if _, err := tx.ExecContext(ctx, q, kv.name, kv.value); err != nil {
			return err
		}
	}
	return nil
}

// PutHeld inserts a held order; the primary key rejects a duplicate hold id.
func (s *Store) PutHeld(ctx context.Context, ho *domain.HeldOrder) error {
	items, err := json.Marshal(ho.Items)
	if err != nil {
		return fmt.Errorf("sqlite: marshal held items for %q: %w", ho.HoldID, err)
	}

	const q = `
		INSERT INTO held_orders
			(hold_id, order_number, discount_percent, payment_method_hint, items, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	if _, err := s.db.ExecContext(ctx, q,
		ho.HoldID,
		ho.OrderNumber,
		ho.DiscountPercent,
		ho.PaymentMethodHint,
		string(items),
		formatTime(ho.Timestamp),
	); err != nil {
		return fmt.Errorf("sqlite: insert held order %q: %w", ho.HoldID, err)
	}
	return nil
}

// GetHeld returns domain.ErrHoldNotFound for an unknown id.
func (s *Store) GetHeld(ctx context.Context, holdID string) (*domain.HeldOrder, error) {
	const q = `
		SELECT hold_id, order_number, discount_percent, payment_method_hint, items, created_at
		FROM   held_orders
		WHERE  hold_id = ?`

	var (
		ho        domain.HeldOrder
		items     string
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, q, holdID).Scan(
		&ho.HoldID,
		&ho.OrderNumber,
		&ho.DiscountPercent,
		&ho.PaymentMethodHint,
		&items,
		&createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %q", domain.ErrHoldNotFound, holdID)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get held order %q: %w", holdID, err)
	}

	if err := json.Unmarshal([]byte(items), &ho.Items); err != nil {
		return nil, fmt.Errorf("sqlite: unmarshal held items for %q: %w", holdID, err)
	}
	ho.Timestamp, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	return &ho, nil
}

// DeleteHeld is idempotent.
func (s *Store) DeleteHeld(ctx context.Context, holdID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM held_orders WHERE hold_id = ?`, holdID); err != nil {
		return fmt.Errorf("sqlite: delete held order %q: %w", holdID, err)
	}
	return nil
}

// ListHeld returns held orders oldest first.
func (s *Store) ListHeld(ctx context.Context) ([]domain.HeldOrder, error) {
	const q = `
		SELECT hold_id, order_number, discount_percent, payment_method_hint, items, created_at
		FROM   held_orders
		ORDER  BY created_at, hold_id`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list held orders: %w", err)
	}
	defer rows.Close()

	var out []domain.HeldOrder
	for rows.Next() {
		var (
			ho        domain.HeldOrder
			items     string
			createdAt string
		)
		if err := rows.Scan(&ho.HoldID, &ho.OrderNumber, &ho.DiscountPercent, &ho.PaymentMethodHint, &items, &createdAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan held order: %w", err)
		}
		if err := json.Unmarshal([]byte(items), &ho.Items); err != nil {
			return nil, fmt.Errorf("sqlite: unmarshal held items for %q: %w", ho.HoldID, err)
		}
		if ho.Timestamp, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, ho)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list held orders: %w", err)
	}
	return out, nil
}

// CountHeld returns the number of parked orders.
func (s *Store) CountHeld(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM held_orders`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: count held orders: %w", err)
	}
	return n, nil
}
