package export

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"git.sr.ht/~relay/buni-backend/auth"
	"git.sr.ht/~relay/buni-backend/goal"
	"git.sr.ht/~relay/buni-backend/ledger"
)

// HandleExportAllData generates a JSON export of the user's goals and
// deposit history.
func HandleExportAllData(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.GetUserIDFromContext(r.Context())
		if !ok {
			slog.Error("failed to get user ID from context for export", "url", r.URL)
			http.Error(w, "Authentication error", http.StatusInternalServerError)
			return
		}

		slog.Info("Starting data export process", "user_id", userID)

		// One transaction so goals and deposits are read from the same snapshot.
		tx, err := db.BeginTx(r.Context(), &sql.TxOptions{ReadOnly: true})
		if err != nil {
			slog.Warn("read-only transaction unavailable for export, falling back", "user_id", userID, "err", err)
			tx, err = db.BeginTx(r.Context(), nil)
			if err != nil {
				slog.Error("failed to begin transaction for export", "user_id", userID, "err", err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
		}
		defer tx.Rollback()

		user, err := fetchUserExport(tx, userID)
		if err != nil {
			handleExportError(w, "fetching user details", userID, err)
			return
		}

		goals, err := goal.NewStore(tx).List(r.Context(), userID)
		if err != nil {
			handleExportError(w, "fetching goals", userID, err)
			return
		}

		deposits, err := ledger.New(tx, userID).ReadAll(r.Context())
		if err != nil {
			handleExportError(w, "fetching deposits", userID, err)
			return
		}

		exportData := FullExport{
			ExportedAt: time.Now().UTC(),
			User:       user,
			Goals:      goals,
			Deposits:   deposits,
		}

		jsonData, err := json.MarshalIndent(exportData, "", "  ")
		if err != nil {
			handleExportError(w, "marshalling data to JSON", userID, err)
			return
		}

		filename := fmt.Sprintf("buni_export_%s.json", time.Now().UTC().Format("20060102_150405"))
		w.Header().Set("Content-Disposition", "attachment; filename="+filename)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(jsonData); err != nil {
			// Headers are already sent.
			slog.Error("failed to write JSON export data to response", "user_id", userID, "err", err)
		}

		slog.Info("Data export completed successfully", "user_id", userID, "filename", filename)
	}
}

func handleExportError(w http.ResponseWriter, step string, userID int64, err error) {
	slog.Error(fmt.Sprintf("Export failed during %s", step), "user_id", userID, "err", err)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, fmt.Sprintf("Data not found during %s", step), http.StatusNotFound)
	} else {
		http.Error(w, "Internal server error during export", http.StatusInternalServerError)
	}
}

func fetchUserExport(tx *sql.Tx, userID int64) (UserExport, error) {
	var user UserExport
	err := tx.QueryRow("SELECT username, first_name FROM users WHERE id = ?", userID).Scan(&user.Username, &user.FirstName)
	if err != nil {
		return UserExport{}, fmt.Errorf("querying user %d: %w", userID, err)
	}
	return user, nil
}
