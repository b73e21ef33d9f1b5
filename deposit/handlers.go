package deposit

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"git.sr.ht/~relay/buni-backend/auth"
	"git.sr.ht/~relay/buni-backend/goal"
	"git.sr.ht/~relay/buni-backend/ledger"
	"git.sr.ht/~relay/buni-backend/savings"
)

// HandleAddDeposit records a deposit into a goal (protected). The goal's
// current amount and the deposit ledger are updated in one transaction.
func HandleAddDeposit(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.GetUserIDFromContext(r.Context())
		if !ok {
			slog.Error("failed to get user ID from context for adding deposit", "url", r.URL)
			http.Error(w, "Authentication error", http.StatusInternalServerError)
			return
		}
		goalID := r.PathValue("goal_id")

		// 1. Decode the JSON payload
		var payload AddDepositPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			slog.Error("failed to decode add deposit request body", "url", r.URL, "user_id", userID, "err", err)
			http.Error(w, "Bad Request: Invalid JSON", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		// 2. Validate payload
		if !payload.Amount.IsPositive() {
			slog.Warn("invalid add deposit payload: non-positive amount", "url", r.URL, "user_id", userID, "amount", payload.Amount)
			http.Error(w, "Bad Request: Amount must be positive", http.StatusBadRequest)
			return
		}

		// 3. Update goal and append to the ledger
		tx, err := db.BeginTx(r.Context(), nil)
		if err != nil {
			slog.Error("failed to begin transaction for adding deposit", "url", r.URL, "user_id", userID, "err", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		defer tx.Rollback()

		updated, err := goal.NewStore(tx).AddToCurrent(r.Context(), userID, goalID, payload.Amount)
		if err != nil {
			if errors.Is(err, goal.ErrGoalNotFound) {
				http.Error(w, "Goal not found", http.StatusNotFound)
				return
			}
			slog.Error("failed to update goal for deposit", "url", r.URL, "user_id", userID, "goal_id", goalID, "err", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		calc := savings.NewCalculator(ledger.New(tx, userID), nil)
		record, err := calc.RecordDeposit(r.Context(), payload.Amount, goalID)
		if err != nil {
			slog.Error("failed to record deposit", "url", r.URL, "user_id", userID, "goal_id", goalID, "err", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		// 4. Commit transaction
		if err = tx.Commit(); err != nil {
			slog.Error("failed to commit transaction for adding deposit", "url", r.URL, "user_id", userID, "err", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		slog.Info("Deposit added successfully", "url", r.URL, "user_id", userID, "goal_id", goalID, "amount", record.Amount)

		// 5. Respond with success
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(AddDepositResponse{
			Message: "Deposit added successfully",
			Deposit: record,
			Goal:    updated,
		})
	}
}

// HandleGetDeposits returns the full, unfiltered deposit history of the
// logged-in user.
func HandleGetDeposits(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.GetUserIDFromContext(r.Context())
		if !ok {
			slog.Error("failed to get user ID from context for getting deposits", "url", r.URL)
			http.Error(w, "Authentication error", http.StatusInternalServerError)
			return
		}

		history, err := savings.NewCalculator(ledger.New(db, userID), nil).DepositHistory(r.Context())
		if err != nil {
			slog.Error("failed to read deposit history", "url", r.URL, "user_id", userID, "err", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(history); err != nil {
			slog.Error("failed to encode deposits to JSON", "url", r.URL, "user_id", userID, "err", err)
		}
	}
}
