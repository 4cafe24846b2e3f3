package forecast_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/cashflow-engine/forecast"
	"github.com/warp/cashflow-engine/forecast/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var projectionNow = time.Date(2025, time.March, 15, 10, 30, 0, 0, time.UTC)

func newTestProjector(txs ...forecast.Transaction) *forecast.Projector {
	mem := store.NewMemory()
	for _, t := range txs {
		mem.Put(t)
	}
	return &forecast.Projector{
		Store: mem,
		Clock: forecast.FixedClock{Instant: projectionNow},
	}
}

// brokenStore fails every call, simulating storage being down.
type brokenStore struct{}

func (brokenStore) ListByUser(context.Context, string) ([]forecast.Transaction, error) {
	return nil, errors.New("connection refused")
}

// =============================================================================
// PROJECTION CONTRACT
// =============================================================================

func TestProject_OneEntryPerWindowDay(t *testing.T) {
	p := newTestProjector()

	fc, err := p.Project(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Len(t, fc.Days, 241, "30 back + today + 210 ahead, inclusive")
	assert.Equal(t, forecast.NewDate(2025, time.February, 13), fc.Window.Start)
	assert.Equal(t, forecast.NewDate(2025, time.October, 11), fc.Window.End)

	byDate := fc.ByDate()
	assert.Len(t, byDate, 241)
	_, ok := byDate["03-15-2025"]
	assert.True(t, ok, "keys use the MM-DD-YYYY pattern")
}

func TestProject_PartitionsByType(t *testing.T) {
	salary := forecast.Transaction{
		ID: "salary", UserID: "user-1",
		Type:              forecast.TypeIncome,
		Amount:            amount(1000),
		Frequency:         forecast.FreqOneTime,
		DateOfTransaction: forecast.NewDate(2025, time.March, 20),
	}
	rent := forecast.Transaction{
		ID: "rent", UserID: "user-1",
		Type:              forecast.TypeExpense,
		Amount:            amount(400),
		Frequency:         forecast.FreqOneTime,
		DateOfTransaction: forecast.NewDate(2025, time.March, 20),
	}
	p := newTestProjector(salary, rent)

	fc, err := p.Project(context.Background(), "user-1")
	require.NoError(t, err)

	entry, ok := fc.Entry(forecast.NewDate(2025, time.March, 20))
	require.True(t, ok)
	require.Len(t, entry.IncomeTransactions, 1)
	assert.Equal(t, "salary", entry.IncomeTransactions[0].ID)
	require.Len(t, entry.PaidTransactions, 1)
	assert.Equal(t, "rent", entry.PaidTransactions[0].ID)
	assert.True(t, entry.CanPay)
}

func TestProject_RemovedTransactionStopsContributing(t *testing.T) {
	mem := store.NewMemory()
	mem.Put(forecast.Transaction{
		ID: "salary", UserID: "user-1",
		Type:              forecast.TypeIncome,
		Amount:            amount(1000),
		Frequency:         forecast.FreqOneTime,
		DateOfTransaction: forecast.NewDate(2025, time.March, 20),
	})
	mem.Put(forecast.Transaction{
		ID: "bonus", UserID: "user-1",
		Type:              forecast.TypeIncome,
		Amount:            amount(250),
		Frequency:         forecast.FreqOneTime,
		DateOfTransaction: forecast.NewDate(2025, time.March, 20),
	})
	p := &forecast.Projector{
		Store: mem,
		Clock: forecast.FixedClock{Instant: projectionNow},
	}

	mem.Remove("bonus")

	fc, err := p.Project(context.Background(), "user-1")
	require.NoError(t, err)

	entry, ok := fc.Entry(forecast.NewDate(2025, time.March, 20))
	require.True(t, ok)
	decEqual(t, 1000, entry.Income)
	require.Len(t, entry.IncomeTransactions, 1)
	assert.Equal(t, "salary", entry.IncomeTransactions[0].ID)
}

func TestProject_Idempotent_SameInstantSameBytes(t *testing.T) {
	tx := forecast.Transaction{
		ID: "salary", UserID: "user-1",
		Type:              forecast.TypeIncome,
		Amount:            amount(2500),
		Frequency:         forecast.FreqMonthly,
		DateOfTransaction: forecast.NewDate(2025, time.January, 31),
		SkipEndDate:       true,
	}
	p := newTestProjector(tx)

	first, err := p.Project(context.Background(), "user-1")
	require.NoError(t, err)
	second, err := p.Project(context.Background(), "user-1")
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)

	assert.Equal(t, firstJSON, secondJSON, "same instant, same transactions, identical bytes")
}

func TestForecast_JSONKeysChronological(t *testing.T) {
	p := newTestProjector()

	fc, err := p.Project(context.Background(), "user-1")
	require.NoError(t, err)

	raw, err := json.Marshal(fc)
	require.NoError(t, err)

	// Decode into an ordered key scan: every key must parse and advance
	// one day at a time.
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token() // opening brace
	require.NoError(t, err)
	require.Equal(t, json.Delim('{'), tok)

	expected := fc.Window.Start
	for dec.More() {
		tok, err := dec.Token()
		require.NoError(t, err)
		key, ok := tok.(string)
		require.True(t, ok)

		d, err := forecast.ParseDate(key)
		require.NoError(t, err)
		assert.True(t, d.Equal(expected), "key %s out of order", key)
		expected = expected.AddDays(1)

		// Skip the entry value.
		var entry json.RawMessage
		require.NoError(t, dec.Decode(&entry))
	}
}

// =============================================================================
// ERROR FLOW
// =============================================================================

func TestProject_StoreFailure_IsRetryableInfrastructureError(t *testing.T) {
	p := &forecast.Projector{
		Store: brokenStore{},
		Clock: forecast.FixedClock{Instant: projectionNow},
	}

	_, err := p.Project(context.Background(), "user-1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, forecast.ErrInfrastructure))
	assert.True(t, forecast.IsRetryable(err))
	assert.False(t, forecast.IsClientError(err))

	var infra *forecast.InfrastructureError
	require.ErrorAs(t, err, &infra)
	assert.Contains(t, infra.Error(), "connection refused", "the cause is preserved")
}

func TestProject_ConfigurationError_PassesThrough(t *testing.T) {
	tx := forecast.Transaction{
		ID: "bad-weekly", UserID: "user-1",
		Type:      forecast.TypeExpense,
		Amount:    amount(10),
		Frequency: forecast.FreqWeekly,
		StartDate: forecast.NewDate(2025, time.March, 3),
		// Day intentionally missing
	}
	p := newTestProjector(tx)

	_, err := p.Project(context.Background(), "user-1")

	require.Error(t, err)
	assert.True(t, forecast.IsClientError(err))
	assert.False(t, forecast.IsRetryable(err))

	var cfgErr *forecast.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "bad-weekly", cfgErr.TransactionID)
	assert.Equal(t, "day", cfgErr.Field)
}

func TestProject_UnknownTransactionType_Rejected(t *testing.T) {
	tx := forecast.Transaction{
		ID: "odd", UserID: "user-1",
		Type:              forecast.TransactionType("transfer"),
		Amount:            amount(10),
		Frequency:         forecast.FreqOneTime,
		DateOfTransaction: forecast.NewDate(2025, time.March, 20),
	}
	p := newTestProjector(tx)

	_, err := p.Project(context.Background(), "user-1")

	var cfgErr *forecast.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "type", cfgErr.Field)
}

// =============================================================================
// RECURRING END-TO-END SCENARIO
// =============================================================================

func TestProject_MonthlyIncomeVersusLargerExpense(t *testing.T) {
	// Monthly income 1000 and monthly expense 1500 due the same day: every
	// occurrence day is an overdraft of 500 and the balance never rises.
	firstOfMonth := forecast.NewDate(2025, time.March, 1)
	salary := forecast.Transaction{
		ID: "salary", UserID: "user-1",
		Type:              forecast.TypeIncome,
		Amount:            amount(1000),
		Frequency:         forecast.FreqMonthly,
		DateOfTransaction: firstOfMonth,
		SkipEndDate:       true,
	}
	rent := forecast.Transaction{
		ID: "rent", UserID: "user-1",
		Type:              forecast.TypeExpense,
		Amount:            amount(1500),
		Frequency:         forecast.FreqMonthly,
		DateOfTransaction: firstOfMonth,
		SkipEndDate:       true,
	}
	p := newTestProjector(salary, rent)

	fc, err := p.Project(context.Background(), "user-1")
	require.NoError(t, err)

	entry, ok := fc.Entry(firstOfMonth)
	require.True(t, ok)
	assert.False(t, entry.CanPay)
	decEqual(t, 0, entry.OpeningBalance)
	decEqual(t, 1000, entry.Income)
	require.NotNil(t, entry.Overdraft)
	decEqual(t, 500, *entry.Overdraft)
	decEqual(t, 0, entry.ClosingBalance)

	// Same outcome a month later.
	entry, ok = fc.Entry(forecast.NewDate(2025, time.April, 1))
	require.True(t, ok)
	assert.False(t, entry.CanPay)
	require.NotNil(t, entry.Overdraft)
	decEqual(t, 500, *entry.Overdraft)
}
