package export

import (
	"time"

	"git.sr.ht/~relay/buni-backend/goal"
	"git.sr.ht/~relay/buni-backend/savings"
)

// UserExport defines the structure for exporting user details.
type UserExport struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

// FullExport defines the overall structure for the exported data file.
type FullExport struct {
	ExportedAt time.Time               `json:"exported_at"`
	User       UserExport              `json:"user"`
	Goals      []goal.Goal             `json:"goals"`
	Deposits   []savings.DepositRecord `json:"deposits"`
}
