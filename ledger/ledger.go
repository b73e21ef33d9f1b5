// Package ledger stores deposit records in SQLite. Each append is a single
// INSERT, so concurrent appends never lose records.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"git.sr.ht/~relay/buni-backend/savings"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount = errors.New("deposit amount must be positive")
	ErrMissingGoal   = errors.New("deposit goal id is required")
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SQLite is the deposit ledger of a single user.
type SQLite struct {
	db     DBTX
	userID int64
}

var _ savings.Ledger = (*SQLite)(nil)

// New returns the ledger of userID backed by db.
func New(db DBTX, userID int64) *SQLite {
	return &SQLite{db: db, userID: userID}
}

// Append inserts rec. Non-positive amounts and records without a goal are
// rejected.
func (l *SQLite) Append(ctx context.Context, rec savings.DepositRecord) error {
	if !rec.Amount.IsPositive() {
		return fmt.Errorf("%w: got %s", ErrInvalidAmount, rec.Amount)
	}
	if rec.GoalID == "" {
		return ErrMissingGoal
	}
	date := rec.Date
	if date.IsZero() {
		date = time.Now()
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO goal_deposits (user_id, goal_id, amount, deposit_date) VALUES (?, ?, ?, ?)`,
		l.userID, rec.GoalID, rec.Amount, date.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("inserting deposit: %w", err)
	}
	return nil
}

// ReadAll returns every deposit of the user in append order. Rows that
// cannot be parsed are logged and skipped.
func (l *SQLite) ReadAll(ctx context.Context) ([]savings.DepositRecord, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, goal_id, amount, deposit_date FROM goal_deposits WHERE user_id = ? ORDER BY id ASC`,
		l.userID)
	if err != nil {
		return nil, fmt.Errorf("querying deposits: %w", err)
	}
	defer rows.Close()

	records := []savings.DepositRecord{}
	for rows.Next() {
		var (
			id                   int64
			goalID, amount, date sql.NullString
		)
		if err := rows.Scan(&id, &goalID, &amount, &date); err != nil {
			return nil, fmt.Errorf("scanning deposit row: %w", err)
		}

		// Amounts are read as text rather than through decimal's Scanner so
		// one bad row is skipped instead of failing the whole read.
		rec, err := parseRecord(goalID, amount, date)
		if err != nil {
			slog.Warn("skipping malformed deposit row", "user_id", l.userID, "deposit_id", id, "err", err)
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating deposit rows: %w", err)
	}
	return records, nil
}

func parseRecord(goalID, amount, date sql.NullString) (savings.DepositRecord, error) {
	if !goalID.Valid || goalID.String == "" {
		return savings.DepositRecord{}, ErrMissingGoal
	}
	if !amount.Valid {
		return savings.DepositRecord{}, errors.New("missing amount")
	}
	amt, err := decimal.NewFromString(amount.String)
	if err != nil {
		return savings.DepositRecord{}, fmt.Errorf("parsing amount %q: %w", amount.String, err)
	}
	if !date.Valid {
		return savings.DepositRecord{}, errors.New("missing date")
	}
	at, err := time.Parse(time.RFC3339Nano, date.String)
	if err != nil {
		return savings.DepositRecord{}, fmt.Errorf("parsing date %q: %w", date.String, err)
	}
	return savings.DepositRecord{Amount: amt, Date: at, GoalID: goalID.String}, nil
}
