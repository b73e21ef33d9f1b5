package savings

import (
	"time"

	"github.com/shopspring/decimal"
)

// Summary aggregates the deposits of one goal over a date range.
type Summary struct {
	GoalID string
	Count  int
	Total  decimal.Decimal
	First  time.Time
	Last   time.Time
}

// Summarize totals the well-formed deposits for goalID dated within
// [from, to]. A zero from or to leaves that side of the range open.
func Summarize(history []DepositRecord, goalID string, from, to time.Time) Summary {
	s := Summary{GoalID: goalID, Total: decimal.Zero}
	for _, d := range history {
		if d.GoalID != goalID || !d.Valid() {
			continue
		}
		if !from.IsZero() && d.Date.Before(from) {
			continue
		}
		if !to.IsZero() && d.Date.After(to) {
			continue
		}
		s.Count++
		s.Total = s.Total.Add(d.Amount)
		if s.First.IsZero() || d.Date.Before(s.First) {
			s.First = d.Date
		}
		if d.Date.After(s.Last) {
			s.Last = d.Date
		}
	}
	return s
}
