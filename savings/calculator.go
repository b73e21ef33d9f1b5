package savings

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Ledger is the append-only store of deposit records the calculator reads
// from and writes to. Append must be atomic per call: concurrent appends
// for the same goal must not lose records.
type Ledger interface {
	ReadAll(ctx context.Context) ([]DepositRecord, error)
	Append(ctx context.Context, rec DepositRecord) error
}

// Calculator projects savings timelines over the deposits held in a Ledger.
type Calculator struct {
	ledger Ledger
	now    func() time.Time
}

// NewCalculator returns a Calculator over l. A nil now uses time.Now.
func NewCalculator(l Ledger, now func() time.Time) *Calculator {
	if now == nil {
		now = time.Now
	}
	return &Calculator{ledger: l, now: now}
}

// ComputeTimeline is ComputeTimeline evaluated at the calculator's clock.
func (c *Calculator) ComputeTimeline(target, current decimal.Decimal, history []DepositRecord, goalID string) (Timeline, error) {
	return ComputeTimeline(c.now(), target, current, history, goalID)
}

// ProjectGoal reads the full deposit history from the ledger and computes
// the timeline for goalID.
func (c *Calculator) ProjectGoal(ctx context.Context, target, current decimal.Decimal, goalID string) (Timeline, error) {
	history, err := c.DepositHistory(ctx)
	if err != nil {
		return Timeline{}, err
	}
	return c.ComputeTimeline(target, current, history, goalID)
}

// RecordDeposit appends a deposit dated now. The amount is not validated
// here; the ledger decides what it accepts.
func (c *Calculator) RecordDeposit(ctx context.Context, amount decimal.Decimal, goalID string) (DepositRecord, error) {
	rec := DepositRecord{
		Amount: amount,
		Date:   c.now().UTC(),
		GoalID: goalID,
	}
	if err := c.ledger.Append(ctx, rec); err != nil {
		return DepositRecord{}, fmt.Errorf("recording deposit for goal %s: %w", goalID, err)
	}
	return rec, nil
}

// DepositHistory returns every record in the ledger, unfiltered.
func (c *Calculator) DepositHistory(ctx context.Context) ([]DepositRecord, error) {
	history, err := c.ledger.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading deposit history: %w", err)
	}
	if history == nil {
		history = []DepositRecord{}
	}
	return history, nil
}
