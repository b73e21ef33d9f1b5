package goal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrGoalNotFound  = errors.New("goal not found")
	ErrInvalidAmount = errors.New("goal amounts must not be negative")
	ErrMissingName   = errors.New("goal name is required")
)

// Goal is a savings target owned by a user.
type Goal struct {
	ID            string          `json:"id"`
	UserID        int64           `json:"user_id"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store reads and writes goals in SQLite.
type Store struct {
	q Querier
}

func NewStore(q Querier) *Store {
	return &Store{q: q}
}

// Create inserts a new goal for userID with a fresh id.
func (s *Store) Create(ctx context.Context, userID int64, name string, target, current decimal.Decimal) (Goal, error) {
	if name == "" {
		return Goal{}, ErrMissingName
	}
	if target.IsNegative() || current.IsNegative() {
		return Goal{}, ErrInvalidAmount
	}

	g := Goal{
		ID:            uuid.NewString(),
		UserID:        userID,
		Name:          name,
		TargetAmount:  target,
		CurrentAmount: current,
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO goals (id, user_id, name, target_amount, current_amount, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.Name, g.TargetAmount, g.CurrentAmount, g.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return Goal{}, fmt.Errorf("inserting goal: %w", err)
	}
	return g, nil
}

// Get returns the goal id owned by userID.
func (s *Store) Get(ctx context.Context, userID int64, id string) (Goal, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT id, user_id, name, target_amount, current_amount, created_at FROM goals WHERE id = ? AND user_id = ?`,
		id, userID)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Goal{}, ErrGoalNotFound
	}
	return g, err
}

// List returns all goals of userID, newest first.
func (s *Store) List(ctx context.Context, userID int64) ([]Goal, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, user_id, name, target_amount, current_amount, created_at FROM goals WHERE user_id = ? ORDER BY created_at DESC, rowid DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying goals: %w", err)
	}
	defer rows.Close()

	goals := []Goal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating goal rows: %w", err)
	}
	return goals, nil
}

// AddToCurrent increases the current amount of a goal by amount and returns
// the updated goal.
func (s *Store) AddToCurrent(ctx context.Context, userID int64, id string, amount decimal.Decimal) (Goal, error) {
	g, err := s.Get(ctx, userID, id)
	if err != nil {
		return Goal{}, err
	}
	g.CurrentAmount = g.CurrentAmount.Add(amount)

	_, err = s.q.ExecContext(ctx,
		`UPDATE goals SET current_amount = ? WHERE id = ? AND user_id = ?`,
		g.CurrentAmount, id, userID)
	if err != nil {
		return Goal{}, fmt.Errorf("updating goal current amount: %w", err)
	}
	return g, nil
}

// Delete removes a goal. Its deposits stay in the ledger.
func (s *Store) Delete(ctx context.Context, userID int64, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting goal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking deleted goal rows: %w", err)
	}
	if n == 0 {
		return ErrGoalNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGoal(row scanner) (Goal, error) {
	var (
		g      Goal
		create string
	)
	// Amounts are TEXT columns read through decimal's sql.Scanner.
	if err := row.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.CurrentAmount, &create); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Goal{}, err
		}
		return Goal{}, fmt.Errorf("scanning goal row: %w", err)
	}

	var err error
	if g.CreatedAt, err = time.Parse(time.RFC3339, create); err != nil {
		return Goal{}, fmt.Errorf("parsing created_at of goal %s: %w", g.ID, err)
	}
	return g, nil
}
