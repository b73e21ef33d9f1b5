// Package server wires the HTTP routes, auth and CORS middleware.
package server

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"git.sr.ht/~relay/buni-backend/auth"
	"git.sr.ht/~relay/buni-backend/deposit"
	"git.sr.ht/~relay/buni-backend/export"
	"git.sr.ht/~relay/buni-backend/goal"
	"git.sr.ht/~relay/buni-backend/stats"
	"github.com/rs/cors"
)

// NewHandler returns the full handler chain: CORS, request logging, then
// the route mux.
func NewHandler(db *sql.DB, allowedOrigins []string) http.Handler {
	mux := http.NewServeMux()

	// --- Public Routes ---
	mux.HandleFunc("GET /healthz", handleHealth(db))
	mux.HandleFunc("POST /v1/register", auth.HandleRegister(db))
	mux.HandleFunc("POST /v1/login", auth.HandleLogin(db))

	// --- Protected Routes ---
	protect := func(h http.HandlerFunc) http.Handler {
		return applyMiddleware(h, auth.AuthMiddleware)
	}
	mux.Handle("POST /v1/goals", protect(goal.HandleCreateGoal(db)))
	mux.Handle("GET /v1/goals", protect(goal.HandleListGoals(db)))
	mux.Handle("GET /v1/goals/{goal_id}", protect(goal.HandleGetGoal(db)))
	mux.Handle("DELETE /v1/goals/{goal_id}", protect(goal.HandleDeleteGoal(db)))
	mux.Handle("GET /v1/goals/{goal_id}/timeline", protect(goal.HandleGetTimeline(db)))
	mux.Handle("POST /v1/goals/{goal_id}/deposits", protect(deposit.HandleAddDeposit(db)))
	mux.Handle("GET /v1/goals/{goal_id}/stats", protect(stats.HandleGetDepositStats(db)))
	mux.Handle("GET /v1/deposits", protect(deposit.HandleGetDeposits(db)))
	mux.Handle("GET /v1/export/all", protect(export.HandleExportAllData(db)))

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
	return corsHandler.Handler(loggingMiddleware(mux))
}

func applyMiddleware(h http.Handler, middleware ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}
	return h
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("request handled", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func handleHealth(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			slog.Error("health check failed", "err", err)
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}
}
