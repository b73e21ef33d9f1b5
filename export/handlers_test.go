package export_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"git.sr.ht/~relay/buni-backend/export"
	"git.sr.ht/~relay/buni-backend/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportAllData(t *testing.T) {
	env := testutil.SetupTestEnvironment(t)
	g := testutil.InsertGoal(t, env.DB, env.UserID, "Wedding", 10000, 2500)
	testutil.InsertDeposit(t, env.DB, env.UserID, g.ID, "250", time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC))
	testutil.InsertDeposit(t, env.DB, env.UserID, "deleted-goal", "40", time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC))
	testutil.InsertGoal(t, env.DB, env.OtherID, "Not mine", 10, 0)

	req := testutil.NewAuthenticatedRequest(t, http.MethodGet, "/v1/export/all", env.AuthToken, nil)
	rr := testutil.ExecuteRequest(t, env.Handler, req)
	testutil.AssertStatusCode(t, rr, http.StatusOK)

	disposition := rr.Header().Get("Content-Disposition")
	assert.True(t, strings.HasPrefix(disposition, "attachment; filename=buni_export_"), disposition)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var data export.FullExport
	testutil.DecodeJSONResponse(t, rr, &data)
	assert.Equal(t, testutil.User1Username, data.User.Username)
	assert.Equal(t, testutil.User1Name, data.User.FirstName)
	require.Len(t, data.Goals, 1)
	assert.Equal(t, g.ID, data.Goals[0].ID)
	require.Len(t, data.Deposits, 2)
	assert.Equal(t, "deleted-goal", data.Deposits[1].GoalID)
	assert.False(t, data.ExportedAt.IsZero())
}

func TestExportAllDataRequiresAuth(t *testing.T) {
	env := testutil.SetupTestEnvironment(t)

	req := testutil.NewAuthenticatedRequest(t, http.MethodGet, "/v1/export/all", "", nil)
	rr := testutil.ExecuteRequest(t, env.Handler, req)
	testutil.AssertStatusCode(t, rr, http.StatusUnauthorized)
}
