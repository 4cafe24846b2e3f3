/*
Package sqlite provides a SQLite-backed transaction store.

PURPOSE:
  Implements forecast.TransactionStore plus the CRUD surface the API layer
  needs. In production, the same patterns apply to PostgreSQL - only minor
  SQL dialect differences.

KEY TABLE:
  transactions: One row per recurring/one-time definition, keyed by UUID,
  indexed by user_id (the projection hot path lists a whole user at once).

DATA REPRESENTATION:
  Amounts are stored as decimal strings, never floats, so values round-trip
  exactly. Dates are stored as MM-DD-YYYY strings matching the wire format;
  NULL means unset. A stored date that no longer parses surfaces as a
  forecast.MalformedDateError rather than a guessed value.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  multiple readers don't block, single writer at a time.

USAGE:
  store, err := sqlite.New("./data/cashflow.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  projector := forecast.NewProjector(store)

SEE ALSO:
  - forecast/store.go: Interface definition
  - forecast/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/cashflow-engine/forecast"
)

// Store implements transaction persistence using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ forecast.TransactionStore = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		tx_type TEXT NOT NULL,
		name TEXT NOT NULL,
		amount TEXT NOT NULL,
		frequency TEXT NOT NULL,
		date_of_transaction TEXT,
		date_of_second_transaction TEXT,
		day INTEGER,
		start_date TEXT,
		end_date TEXT,
		skip_end_date BOOLEAN NOT NULL DEFAULT FALSE,
		last_day_of_month BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Projection hot path: list everything a user owns in one query
	CREATE INDEX IF NOT EXISTS idx_transactions_user
		ON transactions(user_id);

	-- For type-filtered listings
	CREATE INDEX IF NOT EXISTS idx_transactions_user_type
		ON transactions(user_id, tx_type);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTION CRUD
// =============================================================================

const transactionColumns = `id, user_id, tx_type, name, amount, frequency,
	date_of_transaction, date_of_second_transaction, day,
	start_date, end_date, skip_end_date, last_day_of_month`

const insertTransaction = `
	INSERT INTO transactions
	(` + transactionColumns + `, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// Create persists a new transaction, assigning a UUID when none is set.
func (s *Store) Create(ctx context.Context, t forecast.Transaction) (forecast.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}

	if err := s.insertTx(ctx, s.db, t); err != nil {
		return forecast.Transaction{}, fmt.Errorf("failed to create transaction: %w", err)
	}
	return t, nil
}

func (s *Store) insertTx(ctx context.Context, db interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, t forecast.Transaction) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := db.ExecContext(ctx, insertTransaction,
		t.ID,
		t.UserID,
		t.Type,
		t.Name,
		t.Amount.String(),
		t.Frequency,
		nullDate(t.DateOfTransaction),
		nullDate(t.DateOfSecondTransaction),
		nullInt(t.Day),
		nullDate(t.StartDate),
		nullDate(t.EndDate),
		t.SkipEndDate,
		t.LastDayOfMonth,
		now,
		now,
	)
	return err
}

// Get returns a transaction by id, or nil when it does not exist.
func (s *Store) Get(ctx context.Context, id string) (*forecast.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`
	row := s.db.QueryRowContext(ctx, query, id)

	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Update overwrites the mutable fields of an existing transaction. Returns
// the stored row as persisted (id and user_id are immutable and keep their
// original values), or nil when the id does not exist.
func (s *Store) Update(ctx context.Context, id string, t forecast.Transaction) (*forecast.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		UPDATE transactions SET
			tx_type = ?, name = ?, amount = ?, frequency = ?,
			date_of_transaction = ?, date_of_second_transaction = ?, day = ?,
			start_date = ?, end_date = ?, skip_end_date = ?, last_day_of_month = ?,
			updated_at = ?
		WHERE id = ?
	`

	res, err := s.db.ExecContext(ctx, query,
		t.Type,
		t.Name,
		t.Amount.String(),
		t.Frequency,
		nullDate(t.DateOfTransaction),
		nullDate(t.DateOfSecondTransaction),
		nullInt(t.Day),
		nullDate(t.StartDate),
		nullDate(t.EndDate),
		t.SkipEndDate,
		t.LastDayOfMonth,
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, nil
	}

	// Return the row as stored, not the request: immutable columns keep
	// their persisted values.
	row := s.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	stored, err := scanTransaction(row)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// Delete removes a transaction by id. Deleting a missing id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}

// ListByUser returns all transactions for a user in creation order.
// Implements forecast.TransactionStore.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]forecast.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []forecast.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// =============================================================================
// BORROW MONEY - Matched income/expense pair
// =============================================================================

// Borrow records a loan as two one-time transactions written atomically:
// the borrowed amount as income on borrowDate, and the amount to be
// returned as an expense on returnDate.
func (s *Store) Borrow(ctx context.Context, userID string, borrowed, toReturn decimal.Decimal, borrowDate, returnDate forecast.Date) ([]forecast.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	income := forecast.Transaction{
		ID:                uuid.NewString(),
		UserID:            userID,
		Type:              forecast.TypeIncome,
		Name:              "Borrowed Money",
		Amount:            borrowed,
		Frequency:         forecast.FreqOneTime,
		DateOfTransaction: borrowDate,
	}
	expense := forecast.Transaction{
		ID:                uuid.NewString(),
		UserID:            userID,
		Type:              forecast.TypeExpense,
		Name:              "Return Borrowed Money",
		Amount:            toReturn,
		Frequency:         forecast.FreqOneTime,
		DateOfTransaction: returnDate,
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	for _, t := range []forecast.Transaction{income, expense} {
		if err := s.insertTx(ctx, sqlTx, t); err != nil {
			return nil, fmt.Errorf("failed to record loan: %w", err)
		}
	}

	if err := sqlTx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit loan: %w", err)
	}
	return []forecast.Transaction{income, expense}, nil
}

// =============================================================================
// ROW SCANNING
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (forecast.Transaction, error) {
	var (
		t         forecast.Transaction
		amount    string
		dot       sql.NullString
		secondDot sql.NullString
		day       sql.NullInt64
		startDate sql.NullString
		endDate   sql.NullString
	)

	err := row.Scan(
		&t.ID, &t.UserID, &t.Type, &t.Name, &amount, &t.Frequency,
		&dot, &secondDot, &day,
		&startDate, &endDate, &t.SkipEndDate, &t.LastDayOfMonth,
	)
	if err != nil {
		return forecast.Transaction{}, err
	}

	t.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return forecast.Transaction{}, fmt.Errorf("failed to parse amount %q: %w", amount, err)
	}

	if t.DateOfTransaction, err = parseNullDate(dot, "date_of_transaction"); err != nil {
		return forecast.Transaction{}, err
	}
	if t.DateOfSecondTransaction, err = parseNullDate(secondDot, "date_of_second_transaction"); err != nil {
		return forecast.Transaction{}, err
	}
	if t.StartDate, err = parseNullDate(startDate, "start_date"); err != nil {
		return forecast.Transaction{}, err
	}
	if t.EndDate, err = parseNullDate(endDate, "end_date"); err != nil {
		return forecast.Transaction{}, err
	}

	if day.Valid {
		t.Day = int(day.Int64)
	}
	return t, nil
}

func parseNullDate(v sql.NullString, field string) (forecast.Date, error) {
	if !v.Valid || v.String == "" {
		return forecast.Date{}, nil
	}
	d, err := forecast.ParseDate(v.String)
	if err != nil {
		var malformed *forecast.MalformedDateError
		if errors.As(err, &malformed) {
			malformed.Field = field
			return forecast.Date{}, malformed
		}
		return forecast.Date{}, err
	}
	return d, nil
}

func nullDate(d forecast.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.String()
}

func nullInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}
