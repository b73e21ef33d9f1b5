package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// --- Auth ---

// RegisterRequest defines the structure for the registration request body.
type RegisterRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
}

// RegisterResponse defines the structure for the registration response body.
type RegisterResponse struct {
	Message string `json:"message"`
	UserID  int64  `json:"user_id"`
}

// LoginRequest defines the structure for the login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse defines the structure for the login response body
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	UserID      int64  `json:"user_id"`
	FirstName   string `json:"first_name"`
}

// --- Stats ---

// DepositStatsResponse defines the structure for the deposit statistics response.
type DepositStatsResponse struct {
	GoalID       string          `json:"goal_id"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Count        int             `json:"count"`
	FirstDeposit *time.Time      `json:"first_deposit"`
	LastDeposit  *time.Time      `json:"last_deposit"`
}
