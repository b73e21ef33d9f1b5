package stats

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"git.sr.ht/~relay/buni-backend/auth"
	"git.sr.ht/~relay/buni-backend/ledger"
	"git.sr.ht/~relay/buni-backend/savings"
	"git.sr.ht/~relay/buni-backend/types"
)

// parseDateParam parses a date string ("YYYY-MM-DD") from query parameters.
// Returns zero time and error if parsing fails.
func parseDateParam(r *http.Request, paramName string) (time.Time, error) {
	dateStr := r.URL.Query().Get(paramName)
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("missing query parameter: %s", paramName)
	}
	parsedDate, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format for %s (use YYYY-MM-DD): %w", paramName, err)
	}
	return time.Date(parsedDate.Year(), parsedDate.Month(), parsedDate.Day(), 0, 0, 0, 0, time.UTC), nil
}

// HandleGetDepositStats totals the deposits of a goal for a date range.
// Expects "startDate" and "endDate" query parameters in "YYYY-MM-DD" format.
// Deposits of deleted goals are still reported.
func HandleGetDepositStats(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.GetUserIDFromContext(r.Context())
		if !ok {
			slog.Error("failed to get user ID from context for stats", "url", r.URL)
			http.Error(w, "Authentication error", http.StatusInternalServerError)
			return
		}
		goalID := r.PathValue("goal_id")

		startDate, err := parseDateParam(r, "startDate")
		if err != nil {
			slog.Warn("Failed to parse startDate", "url", r.URL, "user_id", userID, "err", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		endDate, err := parseDateParam(r, "endDate")
		if err != nil {
			slog.Warn("Failed to parse endDate", "url", r.URL, "user_id", userID, "err", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if endDate.Before(startDate) {
			slog.Warn("Invalid date range: endDate is before startDate", "url", r.URL, "user_id", userID, "startDate", startDate, "endDate", endDate)
			http.Error(w, "Bad Request: endDate cannot be before startDate", http.StatusBadRequest)
			return
		}
		// Include every deposit made on endDate.
		endOfDay := endDate.Add(24*time.Hour - time.Nanosecond)

		history, err := savings.NewCalculator(ledger.New(db, userID), nil).DepositHistory(r.Context())
		if err != nil {
			slog.Error("failed to read deposit history for stats", "url", r.URL, "user_id", userID, "err", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		summary := savings.Summarize(history, goalID, startDate, endOfDay)
		resp := types.DepositStatsResponse{
			GoalID:      goalID,
			TotalAmount: summary.Total,
			Count:       summary.Count,
		}
		if summary.Count > 0 {
			resp.FirstDeposit = &summary.First
			resp.LastDeposit = &summary.Last
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.Error("failed to encode deposit stats to JSON", "url", r.URL, "user_id", userID, "goal_id", goalID, "err", err)
		}
	}
}
