package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"git.sr.ht/~relay/buni-backend/auth"
	"git.sr.ht/~relay/buni-backend/goal"
	"git.sr.ht/~relay/buni-backend/server"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

const (
	User1Name     = "Alice"
	User1Username = "alice"
	User2Name     = "Bob"
	User2Username = "bob"
	TestPassword  = "password"
)

// runMigrations executes the schema SQL against the database.
func runMigrations(db *sql.DB, schemaPath string) error {
	query, err := os.ReadFile(schemaPath)
	if err != nil {
		// Package tests run one level below the module root.
		altPath := filepath.Join("..", schemaPath)
		query, err = os.ReadFile(altPath)
		if err != nil {
			return fmt.Errorf("error reading schema file at %s or %s: %w", schemaPath, altPath, err)
		}
		schemaPath = altPath
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("error beginning migration transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err = tx.Exec(string(query)); err != nil {
		return fmt.Errorf("error executing schema SQL from %s: %w", schemaPath, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("error committing migration transaction: %w", err)
	}
	return nil
}

// TestEnv holds the components needed for running tests.
type TestEnv struct {
	DB         *sql.DB
	Handler    http.Handler
	AuthToken  string // valid token for UserID
	UserID     int64
	OtherToken string // valid token for OtherUserID
	OtherID    int64
	User1Name  string
}

// OpenTestDB opens a private in-memory database with the schema applied.
// It is closed when the test ends.
func OpenTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// A unique name keeps tests isolated while sharing one in-memory DB
	// across the pool's connections.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	t.Cleanup(func() { db.Close() })

	if err := db.Ping(); err != nil {
		t.Fatalf("failed to ping in-memory database: %v", err)
	}
	if err := runMigrations(db, "cmd/migrate/schema.sql"); err != nil {
		t.Fatalf("failed to run database migrations: %v", err)
	}
	return db
}

// OpenFileDB opens a database file in a temporary directory with the same
// options as the server, so several connections can write concurrently.
func OpenFileDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := server.OpenDB(filepath.Join(t.TempDir(), "buni.db"))
	if err != nil {
		t.Fatalf("failed to open database file: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := runMigrations(db, "cmd/migrate/schema.sql"); err != nil {
		t.Fatalf("failed to run database migrations: %v", err)
	}
	return db
}

// SetupTestEnvironment initializes an in-memory DB with two registered
// users and returns the full HTTP handler.
func SetupTestEnvironment(t *testing.T) *TestEnv {
	t.Helper()

	logLevel := slog.LevelWarn
	if os.Getenv("BUNI_LOG_LEVEL") == "DEBUG" {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	db := OpenTestDB(t)

	userID := CreateUser(t, db, User1Username, User1Name)
	otherID := CreateUser(t, db, User2Username, User2Name)

	return &TestEnv{
		DB:         db,
		Handler:    server.NewHandler(db, []string{"*"}),
		AuthToken:  Token(t, userID),
		UserID:     userID,
		OtherToken: Token(t, otherID),
		OtherID:    otherID,
		User1Name:  User1Name,
	}
}

// CreateUser registers a user with TestPassword.
func CreateUser(t *testing.T, db *sql.DB, username, firstName string) int64 {
	t.Helper()
	id, err := auth.CreateUser(context.Background(), db, username, TestPassword, firstName)
	if err != nil {
		t.Fatalf("Failed to create user %s: %v", username, err)
	}
	return id
}

// Token returns a signed access token for userID.
func Token(t *testing.T, userID int64) string {
	t.Helper()
	token, err := auth.GenerateAccessToken(userID)
	if err != nil {
		t.Fatalf("Failed to generate access token: %v", err)
	}
	return token
}

// InsertGoal creates a goal directly in the store.
func InsertGoal(t *testing.T, db *sql.DB, userID int64, name string, target, current int64) goal.Goal {
	t.Helper()
	g, err := goal.NewStore(db).Create(context.Background(), userID, name, decimal.NewFromInt(target), decimal.NewFromInt(current))
	if err != nil {
		t.Fatalf("Failed to insert goal: %v", err)
	}
	return g
}

// InsertDeposit writes a raw ledger row with an explicit date.
func InsertDeposit(t *testing.T, db *sql.DB, userID int64, goalID string, amount string, date time.Time) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO goal_deposits (user_id, goal_id, amount, deposit_date) VALUES (?, ?, ?, ?)`,
		userID, goalID, amount, date.UTC().Format(time.RFC3339Nano))
	if err != nil {
		t.Fatalf("Failed to insert deposit: %v", err)
	}
}

// NewAuthenticatedRequest creates a new request with JSON body and auth token.
func NewAuthenticatedRequest(t *testing.T, method, path, token string, body interface{}) *http.Request {
	t.Helper()
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

// ExecuteRequest executes a request and returns the recorder.
func ExecuteRequest(t *testing.T, handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// AssertStatusCode asserts the response status code.
func AssertStatusCode(t *testing.T, rr *httptest.ResponseRecorder, expectedStatus int) {
	t.Helper()
	if status := rr.Code; status != expectedStatus {
		t.Errorf("handler returned wrong status code: got %v want %v", status, expectedStatus)
		t.Logf("Response body: %s", rr.Body.String())
	}
}

// AssertBodyContains asserts the response body contains every substring.
func AssertBodyContains(t *testing.T, rr *httptest.ResponseRecorder, expectedSubstrings ...string) {
	t.Helper()
	for _, sub := range expectedSubstrings {
		if !bytes.Contains(rr.Body.Bytes(), []byte(sub)) {
			t.Errorf("handler response body does not contain expected string '%s'", sub)
			t.Logf("Response body: %s", rr.Body.String())
		}
	}
}

// DecodeJSONResponse decodes the JSON response body into target.
func DecodeJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(target); err != nil {
		t.Fatalf("Failed to decode JSON response body: %v\nBody: %s", err, rr.Body.String())
	}
}
