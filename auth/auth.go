package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"git.sr.ht/~relay/buni-backend/types"
	"golang.org/x/crypto/bcrypt"
)

// ErrUserExists is returned when registering a taken username.
var ErrUserExists = errors.New("username already exists")

const minPasswordLength = 6

type contextKey string

const userContextKey = contextKey("userID")

// CreateUser hashes password and inserts a new user, returning its id.
func CreateUser(ctx context.Context, db *sql.DB, username, password, firstName string) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hashing password: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE username = ?", username).Scan(&count); err != nil {
		return 0, fmt.Errorf("checking username uniqueness: %w", err)
	}
	if count > 0 {
		return 0, ErrUserExists
	}

	res, err := tx.ExecContext(ctx, "INSERT INTO users (username, password_hash, first_name) VALUES (?, ?, ?)",
		username, string(hash), firstName)
	if err != nil {
		return 0, fmt.Errorf("inserting user: %w", err)
	}
	userID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting user id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing user: %w", err)
	}
	return userID, nil
}

// HandleRegister creates a handler for registering a single user.
func HandleRegister(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		if req.Username == "" || req.Password == "" || req.FirstName == "" {
			http.Error(w, "Username, password and first name are required", http.StatusBadRequest)
			return
		}
		if len(req.Password) < minPasswordLength {
			http.Error(w, "Password must be at least 6 characters long", http.StatusBadRequest)
			return
		}

		userID, err := CreateUser(r.Context(), db, req.Username, req.Password, req.FirstName)
		if err != nil {
			if errors.Is(err, ErrUserExists) {
				http.Error(w, "Username already exists", http.StatusConflict)
				return
			}
			slog.Error("failed to register user", "username", req.Username, "err", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		slog.Info("User registered", "username", req.Username, "user_id", userID)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(types.RegisterResponse{
			Message: "User registered successfully",
			UserID:  userID,
		})
	}
}

// HandleLogin creates a handler for user login.
func HandleLogin(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		if req.Username == "" || req.Password == "" {
			http.Error(w, "Username and password are required", http.StatusBadRequest)
			return
		}

		var storedHash, firstName string
		var userID int64
		err := db.QueryRowContext(r.Context(), "SELECT id, password_hash, first_name FROM users WHERE username = ?", req.Username).
			Scan(&userID, &storedHash, &firstName)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				slog.Warn("Login attempt failed: user not found", "username", req.Username)
				http.Error(w, "Invalid credentials", http.StatusUnauthorized)
			} else {
				slog.Error("Database error during login", "err", err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(req.Password)); err != nil {
			slog.Warn("Login attempt failed: invalid password", "username", req.Username)
			http.Error(w, "Invalid credentials", http.StatusUnauthorized)
			return
		}

		token, err := GenerateAccessToken(userID)
		if err != nil {
			slog.Error("failed to generate access token", "user_id", userID, "err", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		slog.Info("User logged in successfully", "username", req.Username, "user_id", userID)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(types.LoginResponse{
			AccessToken: token,
			UserID:      userID,
			FirstName:   firstName,
		})
	}
}

// AuthMiddleware rejects requests without a valid bearer token and stores
// the token's user id in the request context.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			http.Error(w, "Authorization header format must be Bearer {token}", http.StatusUnauthorized)
			return
		}

		claims, err := ParseAccessToken(parts[1])
		if err != nil {
			slog.Debug("rejecting request with invalid token", "url", r.URL, "err", err)
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.UserID)))
	})
}

// GetUserIDFromContext retrieves the user ID stored in the request context.
// Returns 0 and false if the user ID is not found or not an int64.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userContextKey).(int64)
	return userID, ok
}

// WithUserID returns a copy of ctx carrying userID, as AuthMiddleware does.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userContextKey, userID)
}
