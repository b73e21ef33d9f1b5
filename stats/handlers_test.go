package stats_test

import (
	"net/http"
	"testing"
	"time"

	"git.sr.ht/~relay/buni-backend/testutil"
	"git.sr.ht/~relay/buni-backend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDepositStats(t *testing.T) {
	env := testutil.SetupTestEnvironment(t)
	g := testutil.InsertGoal(t, env.DB, env.UserID, "Laptop", 2000, 0)
	other := testutil.InsertGoal(t, env.DB, env.UserID, "Other", 2000, 0)

	testutil.InsertDeposit(t, env.DB, env.UserID, g.ID, "100", time.Date(2024, 2, 28, 12, 0, 0, 0, time.UTC))
	testutil.InsertDeposit(t, env.DB, env.UserID, g.ID, "25.50", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	testutil.InsertDeposit(t, env.DB, env.UserID, g.ID, "74.50", time.Date(2024, 3, 15, 23, 30, 0, 0, time.UTC))
	testutil.InsertDeposit(t, env.DB, env.UserID, g.ID, "10", time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC))
	testutil.InsertDeposit(t, env.DB, env.UserID, other.ID, "500", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))

	statsURL := "/v1/goals/" + g.ID + "/stats"

	t.Run("Range", func(t *testing.T) {
		req := testutil.NewAuthenticatedRequest(t, http.MethodGet, statsURL+"?startDate=2024-03-01&endDate=2024-03-15", env.AuthToken, nil)
		rr := testutil.ExecuteRequest(t, env.Handler, req)
		testutil.AssertStatusCode(t, rr, http.StatusOK)

		var resp types.DepositStatsResponse
		testutil.DecodeJSONResponse(t, rr, &resp)
		assert.Equal(t, g.ID, resp.GoalID)
		assert.Equal(t, 2, resp.Count)
		assert.Equal(t, "100", resp.TotalAmount.String())
		require.NotNil(t, resp.FirstDeposit)
		require.NotNil(t, resp.LastDeposit)
		assert.True(t, resp.FirstDeposit.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
		assert.True(t, resp.LastDeposit.Equal(time.Date(2024, 3, 15, 23, 30, 0, 0, time.UTC)))
	})

	t.Run("EmptyRange", func(t *testing.T) {
		req := testutil.NewAuthenticatedRequest(t, http.MethodGet, statsURL+"?startDate=2023-01-01&endDate=2023-01-31", env.AuthToken, nil)
		rr := testutil.ExecuteRequest(t, env.Handler, req)
		testutil.AssertStatusCode(t, rr, http.StatusOK)

		var resp types.DepositStatsResponse
		testutil.DecodeJSONResponse(t, rr, &resp)
		assert.Zero(t, resp.Count)
		assert.True(t, resp.TotalAmount.IsZero())
		assert.Nil(t, resp.FirstDeposit)
		assert.Nil(t, resp.LastDeposit)
	})

	testCases := []struct {
		name         string
		query        string
		expectedBody string
	}{
		{"MissingStart", "?endDate=2024-03-15", "missing query parameter: startDate"},
		{"MissingEnd", "?startDate=2024-03-01", "missing query parameter: endDate"},
		{"BadFormat", "?startDate=03/01/2024&endDate=2024-03-15", "invalid date format for startDate"},
		{"EndBeforeStart", "?startDate=2024-03-15&endDate=2024-03-01", "endDate cannot be before startDate"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := testutil.NewAuthenticatedRequest(t, http.MethodGet, statsURL+tc.query, env.AuthToken, nil)
			rr := testutil.ExecuteRequest(t, env.Handler, req)
			testutil.AssertStatusCode(t, rr, http.StatusBadRequest)
			testutil.AssertBodyContains(t, rr, tc.expectedBody)
		})
	}

	t.Run("Unauthorized", func(t *testing.T) {
		req := testutil.NewAuthenticatedRequest(t, http.MethodGet, statsURL+"?startDate=2024-03-01&endDate=2024-03-15", "", nil)
		rr := testutil.ExecuteRequest(t, env.Handler, req)
		testutil.AssertStatusCode(t, rr, http.StatusUnauthorized)
	})
}
