package savings

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// Goals projected past this many days are not achievable.
	achievableDays = 1825

	almostThereDays = 30
	weeksTierDays   = 90
	monthsTierDays  = 365
	yearsTierDays   = 1095
)

const (
	msgAchieved  = "Goal already achieved! Time to set a new one."
	msgNoHistory = "No deposit history yet. Make a deposit to see your timeline."
	msgSlowPace  = "At this pace the goal is a long way off. Consider increasing your savings rate."
)

var (
	daysPerWeek  = decimal.NewFromInt(7)
	daysPerMonth = decimal.NewFromInt(30)
)

// ComputeTimeline projects when the goal identified by goalID will be reached,
// using the deposits in history that belong to it. Deposits for other goals
// and malformed records are ignored. The result depends only on the arguments.
func ComputeTimeline(now time.Time, target, current decimal.Decimal, history []DepositRecord, goalID string) (Timeline, error) {
	if target.IsNegative() || current.IsNegative() {
		return Timeline{}, fmt.Errorf("%w: target %s, current %s must not be negative", ErrInvalidInput, target, current)
	}

	remaining := target.Sub(current)
	if !remaining.IsPositive() {
		return Timeline{
			AverageDailyDeposit:   decimal.Zero,
			AverageWeeklyDeposit:  decimal.Zero,
			AverageMonthlyDeposit: decimal.Zero,
			IsAchievable:          true,
			Message:               msgAchieved,
		}, nil
	}

	total := decimal.Zero
	var totalDays int64
	matched := 0
	for _, d := range history {
		if d.GoalID != goalID || !d.Valid() {
			continue
		}
		matched++
		total = total.Add(d.Amount)
		// The span runs from the oldest deposit to now.
		if age := d.AgeDays(now); age > totalDays {
			totalDays = age
		}
	}

	if matched == 0 {
		return Timeline{
			Days:                  Unbounded,
			Weeks:                 Unbounded,
			Months:                Unbounded,
			AverageDailyDeposit:   decimal.Zero,
			AverageWeeklyDeposit:  decimal.Zero,
			AverageMonthlyDeposit: decimal.Zero,
			Message:               msgNoHistory,
		}, nil
	}

	elapsed := decimal.NewFromInt(totalDays)
	daily := total.Div(elapsed)

	days := Unbounded
	if daily.IsPositive() {
		// remaining / (total / elapsed), kept as one division to avoid
		// rounding the daily rate twice.
		// Large quotients exceed int64; go through float64 instead.
		days = Span(remaining.Mul(elapsed).Div(total).Ceil().InexactFloat64())
	}

	return Timeline{
		Days:                  days,
		Weeks:                 ceilDiv(days, 7),
		Months:                ceilDiv(days, 30),
		AverageDailyDeposit:   daily,
		AverageWeeklyDeposit:  daily.Mul(daysPerWeek),
		AverageMonthlyDeposit: daily.Mul(daysPerMonth),
		IsAchievable:          days <= achievableDays,
		Message:               timelineMessage(days),
	}, nil
}

func timelineMessage(days Span) string {
	switch {
	case days <= almostThereDays:
		return fmt.Sprintf("Almost there! Only %s to go.", countUnit(days, "day"))
	case days <= weeksTierDays:
		return fmt.Sprintf("About %s left until you reach your goal.", countUnit(ceilDiv(days, 7), "week"))
	case days <= monthsTierDays:
		return fmt.Sprintf("About %s left until you reach your goal.", countUnit(ceilDiv(days, 30), "month"))
	case days <= yearsTierDays:
		return fmt.Sprintf("About %s left until you reach your goal.", countUnit(ceilDiv(days, 365), "year"))
	default:
		return msgSlowPace
	}
}

// FormatTimeline renders the remaining time of t in its largest sensible
// unit. Weeks and months are taken from t as given; years are derived from
// Days.
func FormatTimeline(t Timeline) string {
	switch {
	case t.Days == 0:
		return "Goal achieved!"
	case t.Days.IsUnbounded():
		return "No timeline available"
	case t.Days <= 7:
		return countUnit(t.Days, "day")
	case t.Days <= 30:
		return countUnit(t.Weeks, "week")
	case t.Days <= 365:
		return countUnit(t.Months, "month")
	default:
		return countUnit(ceilDiv(t.Days, 365), "year")
	}
}

func countUnit(n Span, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%s %ss", n.count(), unit)
}
