package savings

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidInput is returned when a goal amount is negative.
var ErrInvalidInput = errors.New("invalid input")

// DepositRecord is a single contribution toward a savings goal.
type DepositRecord struct {
	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"date"`
	GoalID string          `json:"goal_id"`
}

// Valid reports whether the record can take part in aggregation.
// Ledger rows come from application storage and are not trusted.
func (d DepositRecord) Valid() bool {
	return d.Amount.IsPositive() && !d.Date.IsZero() && d.GoalID != ""
}

// AgeDays returns the whole days elapsed since the deposit, never less than 1.
func (d DepositRecord) AgeDays(now time.Time) int64 {
	age := int64(math.Ceil(now.Sub(d.Date).Hours() / 24))
	if age < 1 {
		return 1
	}
	return age
}

// Span is a count of days, weeks or months. It is Unbounded when no
// projection can be made.
type Span float64

// Unbounded is the span of a goal without usable deposit history.
var Unbounded = Span(math.Inf(1))

// IsUnbounded reports whether s is +Inf.
func (s Span) IsUnbounded() bool {
	return math.IsInf(float64(s), 1)
}

func (s Span) MarshalJSON() ([]byte, error) {
	if s.IsUnbounded() {
		return []byte("null"), nil
	}
	return []byte(s.count()), nil
}

// count renders s as a whole number without converting through int64,
// which would wrap above math.MaxInt64.
func (s Span) count() string {
	return strconv.FormatFloat(float64(s), 'f', 0, 64)
}

func (s *Span) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = Unbounded
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("invalid span %q: %w", b, err)
	}
	*s = Span(v)
	return nil
}

// ceilDiv divides s by n rounding up. Unbounded stays Unbounded.
func ceilDiv(s Span, n float64) Span {
	return Span(math.Ceil(float64(s) / n))
}

// Timeline is the projected time to complete a goal at the current deposit
// velocity. It is computed on demand and never stored.
type Timeline struct {
	Days                  Span            `json:"days"`
	Weeks                 Span            `json:"weeks"`
	Months                Span            `json:"months"`
	AverageDailyDeposit   decimal.Decimal `json:"average_daily_deposit"`
	AverageWeeklyDeposit  decimal.Decimal `json:"average_weekly_deposit"`
	AverageMonthlyDeposit decimal.Decimal `json:"average_monthly_deposit"`
	IsAchievable          bool            `json:"is_achievable"`
	Message               string          `json:"message"`
}
