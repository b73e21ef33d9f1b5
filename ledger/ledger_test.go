package ledger_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"git.sr.ht/~relay/buni-backend/ledger"
	"git.sr.ht/~relay/buni-backend/savings"
	"git.sr.ht/~relay/buni-backend/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndReadAll(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenTestDB(t)
	userID := testutil.CreateUser(t, db, "saver", "Saver")
	l := ledger.New(db, userID)

	date := time.Date(2024, 3, 10, 8, 30, 0, 0, time.UTC)
	require.NoError(t, l.Append(ctx, savings.DepositRecord{Amount: decimal.RequireFromString("12.34"), Date: date, GoalID: "g1"}))
	require.NoError(t, l.Append(ctx, savings.DepositRecord{Amount: decimal.NewFromInt(50), Date: date.Add(time.Hour), GoalID: "g2"}))

	records, err := l.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "12.34", records[0].Amount.String())
	assert.True(t, records[0].Date.Equal(date))
	assert.Equal(t, "g1", records[0].GoalID)
	assert.Equal(t, "g2", records[1].GoalID)
}

func TestAppendRejectsInvalidRecords(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenTestDB(t)
	l := ledger.New(db, testutil.CreateUser(t, db, "saver", "Saver"))

	err := l.Append(ctx, savings.DepositRecord{Amount: decimal.Zero, Date: time.Now(), GoalID: "g1"})
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	err = l.Append(ctx, savings.DepositRecord{Amount: decimal.NewFromInt(-5), Date: time.Now(), GoalID: "g1"})
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	err = l.Append(ctx, savings.DepositRecord{Amount: decimal.NewFromInt(5), Date: time.Now()})
	assert.ErrorIs(t, err, ledger.ErrMissingGoal)

	records, err := l.ReadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReadAllIsScopedToUser(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenTestDB(t)
	alice := ledger.New(db, testutil.CreateUser(t, db, "alice", "Alice"))
	bob := ledger.New(db, testutil.CreateUser(t, db, "bob", "Bob"))

	require.NoError(t, alice.Append(ctx, savings.DepositRecord{Amount: decimal.NewFromInt(10), Date: time.Now(), GoalID: "g1"}))

	records, err := bob.ReadAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestReadAllSkipsMalformedRows(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenTestDB(t)
	userID := testutil.CreateUser(t, db, "saver", "Saver")

	good := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	testutil.InsertDeposit(t, db, userID, "g1", "100", good)
	testutil.InsertDeposit(t, db, userID, "g1", "not-a-number", good)
	_, err := db.Exec(`INSERT INTO goal_deposits (user_id, goal_id, amount, deposit_date) VALUES (?, ?, ?, ?)`, userID, "g1", "5", "yesterday")
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO goal_deposits (user_id, goal_id, amount, deposit_date) VALUES (?, NULL, ?, ?)`, userID, "5", good.Format(time.RFC3339))
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO goal_deposits (user_id, goal_id, amount, deposit_date) VALUES (?, ?, NULL, ?)`, userID, "g1", good.Format(time.RFC3339))
	require.NoError(t, err)

	records, err := ledger.New(db, userID).ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "100", records[0].Amount.String())
}

func TestConcurrentAppendsAreNotLost(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenTestDB(t)
	l := ledger.New(db, testutil.CreateUser(t, db, "saver", "Saver"))
	calc := savings.NewCalculator(l, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := calc.RecordDeposit(ctx, decimal.NewFromInt(5), "g1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	history, err := calc.DepositHistory(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 20)

	s := savings.Summarize(history, "g1", time.Time{}, time.Time{})
	assert.True(t, s.Total.Equal(decimal.NewFromInt(100)))
}
