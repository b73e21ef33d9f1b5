package goal

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"git.sr.ht/~relay/buni-backend/auth"
	"git.sr.ht/~relay/buni-backend/ledger"
	"git.sr.ht/~relay/buni-backend/savings"
)

// HandleCreateGoal handles requests to create a savings goal (protected).
func HandleCreateGoal(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.GetUserIDFromContext(r.Context())
		if !ok {
			slog.Error("failed to get user ID from context for creating goal", "url", r.URL)
			http.Error(w, "Authentication error", http.StatusInternalServerError)
			return
		}

		var payload CreateGoalPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			slog.Warn("failed to decode create goal request body", "url", r.URL, "user_id", userID, "err", err)
			http.Error(w, "Bad Request: Invalid JSON", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		g, err := NewStore(db).Create(r.Context(), userID, payload.Name, payload.TargetAmount, payload.CurrentAmount)
		switch {
		case errors.Is(err, ErrMissingName):
			http.Error(w, "Bad Request: Name is required", http.StatusBadRequest)
			return
		case errors.Is(err, ErrInvalidAmount):
			http.Error(w, "Bad Request: Amounts must not be negative", http.StatusBadRequest)
			return
		case err != nil:
			slog.Error("failed to create goal", "url", r.URL, "user_id", userID, "err", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		slog.Info("Goal created", "user_id", userID, "goal_id", g.ID)
		writeJSON(w, http.StatusCreated, g)
	}
}

// HandleListGoals returns the goals of the logged-in user.
func HandleListGoals(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.GetUserIDFromContext(r.Context())
		if !ok {
			slog.Error("failed to get user ID from context for listing goals", "url", r.URL)
			http.Error(w, "Authentication error", http.StatusInternalServerError)
			return
		}

		goals, err := NewStore(db).List(r.Context(), userID)
		if err != nil {
			slog.Error("failed to list goals", "url", r.URL, "user_id", userID, "err", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, goals)
	}
}

// HandleGetGoal returns a single goal.
func HandleGetGoal(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.GetUserIDFromContext(r.Context())
		if !ok {
			slog.Error("failed to get user ID from context for getting goal", "url", r.URL)
			http.Error(w, "Authentication error", http.StatusInternalServerError)
			return
		}

		g, err := NewStore(db).Get(r.Context(), userID, r.PathValue("goal_id"))
		if err != nil {
			writeStoreError(w, r, userID, err)
			return
		}
		writeJSON(w, http.StatusOK, g)
	}
}

// HandleDeleteGoal deletes a goal. Its deposit history is kept.
func HandleDeleteGoal(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.GetUserIDFromContext(r.Context())
		if !ok {
			slog.Error("failed to get user ID from context for deleting goal", "url", r.URL)
			http.Error(w, "Authentication error", http.StatusInternalServerError)
			return
		}

		goalID := r.PathValue("goal_id")
		if err := NewStore(db).Delete(r.Context(), userID, goalID); err != nil {
			writeStoreError(w, r, userID, err)
			return
		}

		slog.Info("Goal deleted", "user_id", userID, "goal_id", goalID)
		writeJSON(w, http.StatusOK, DeleteGoalResponse{Message: "Goal deleted successfully"})
	}
}

// HandleGetTimeline projects the completion timeline of a goal from the
// user's deposit history.
func HandleGetTimeline(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.GetUserIDFromContext(r.Context())
		if !ok {
			slog.Error("failed to get user ID from context for goal timeline", "url", r.URL)
			http.Error(w, "Authentication error", http.StatusInternalServerError)
			return
		}

		g, err := NewStore(db).Get(r.Context(), userID, r.PathValue("goal_id"))
		if err != nil {
			writeStoreError(w, r, userID, err)
			return
		}

		calc := savings.NewCalculator(ledger.New(db, userID), nil)
		timeline, err := calc.ProjectGoal(r.Context(), g.TargetAmount, g.CurrentAmount, g.ID)
		if err != nil {
			if errors.Is(err, savings.ErrInvalidInput) {
				slog.Warn("goal has invalid amounts", "url", r.URL, "user_id", userID, "goal_id", g.ID, "err", err)
				http.Error(w, "Bad Request: Goal amounts are invalid", http.StatusBadRequest)
				return
			}
			slog.Error("failed to compute goal timeline", "url", r.URL, "user_id", userID, "goal_id", g.ID, "err", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, TimelineResponse{
			Goal:      g,
			Timeline:  timeline,
			Formatted: savings.FormatTimeline(timeline),
		})
	}
}

func writeStoreError(w http.ResponseWriter, r *http.Request, userID int64, err error) {
	if errors.Is(err, ErrGoalNotFound) {
		http.Error(w, "Goal not found", http.StatusNotFound)
		return
	}
	slog.Error("goal store failure", "url", r.URL, "user_id", userID, "err", err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "err", err)
	}
}
