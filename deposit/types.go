package deposit

import (
	"git.sr.ht/~relay/buni-backend/goal"
	"git.sr.ht/~relay/buni-backend/savings"
	"github.com/shopspring/decimal"
)

// AddDepositPayload defines the structure for the add deposit request body.
// Amount accepts a JSON number or a decimal string.
type AddDepositPayload struct {
	Amount decimal.Decimal `json:"amount"`
}

// AddDepositResponse defines the structure for the add deposit response body.
type AddDepositResponse struct {
	Message string                `json:"message"`
	Deposit savings.DepositRecord `json:"deposit"`
	Goal    goal.Goal             `json:"goal"`
}
