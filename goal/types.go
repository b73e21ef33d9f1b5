package goal

import (
	"git.sr.ht/~relay/buni-backend/savings"
	"github.com/shopspring/decimal"
)

// CreateGoalPayload defines the structure for the create goal request body.
type CreateGoalPayload struct {
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
}

// TimelineResponse pairs a goal with its projected timeline.
type TimelineResponse struct {
	Goal      Goal             `json:"goal"`
	Timeline  savings.Timeline `json:"timeline"`
	Formatted string           `json:"formatted"`
}

// DeleteGoalResponse defines the structure for the delete goal response body.
type DeleteGoalResponse struct {
	Message string `json:"message"`
}
