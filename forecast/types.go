/*
Package forecast provides the cash-flow projection engine.

PURPOSE:
  This package contains the types and algorithms for projecting a personal
  account balance day by day over a rolling window. Given a user's recurring
  and one-time income/expense records, it expands each recurrence into
  concrete calendar occurrences and simulates the ledger forward, tracking
  running balance and overdraft.

KEY CONCEPTS IN THIS FILE (types.go):
  - Transaction: A recurring or one-time income/expense definition
  - TransactionType: income vs expense
  - Frequency: The five recurrence classes (one-time through monthly)

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Statelessness: Every projection is recomputed from scratch; nothing
     is cached across calls
  3. Fail-fast: Malformed recurrence configuration is reported, never
     silently defaulted

SEE ALSO:
  - calendar.go: Date arithmetic and the projection window
  - recurrence.go: Expansion of definitions into dated occurrences
  - ledger.go: Day-by-day balance simulation
  - projection.go: The orchestrating Projector
*/
package forecast

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// TRANSACTION - Recurring or one-time income/expense definition
// =============================================================================

type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Frequency is the closed set of recurrence classes. Each class has its own
// expansion rule and its own required fields (see recurrence.go).
type Frequency string

const (
	FreqOneTime     Frequency = "one-time"
	FreqWeekly      Frequency = "weekly"
	FreqBiWeekly    Frequency = "bi-weekly"
	FreqSemiMonthly Frequency = "semi-monthly"
	FreqMonthly     Frequency = "monthly"
)

// Weekday numbering for the Day field: 1=Monday ... 7=Sunday.
const (
	MinWeekday = 1
	MaxWeekday = 7
)

// Transaction is an already-validated income or expense record. The engine
// treats it as read-only input: it is created and persisted elsewhere.
//
// Which optional fields are required depends on Frequency:
//   - one-time, monthly:  DateOfTransaction
//   - weekly, bi-weekly:  Day, and StartDate or DateOfTransaction
//   - semi-monthly:       DateOfTransaction and DateOfSecondTransaction
type Transaction struct {
	ID     string          `json:"id"`
	UserID string          `json:"user_id"`
	Type   TransactionType `json:"type"`
	Name   string          `json:"name"`

	// Amount is always non-negative; Type decides the sign of its effect.
	Amount    decimal.Decimal `json:"amount"`
	Frequency Frequency       `json:"frequency"`

	DateOfTransaction       Date `json:"date_of_transaction,omitempty"`
	DateOfSecondTransaction Date `json:"date_of_second_transaction,omitempty"`

	// Day is the target weekday for weekly/bi-weekly occurrences
	// (1=Monday ... 7=Sunday). Zero means unset.
	Day int `json:"day,omitempty"`

	StartDate Date `json:"start_date,omitempty"`
	EndDate   Date `json:"end_date,omitempty"`

	// SkipEndDate extends the effective end to the far edge of the
	// projection window regardless of EndDate.
	SkipEndDate bool `json:"skip_end_date"`

	// LastDayOfMonth is reserved for an "always land on month end" policy.
	// Carried through the model and persistence; not consumed by any
	// expansion rule today.
	LastDayOfMonth bool `json:"last_day_of_month"`
}

// IsIncome reports whether the transaction adds to the balance.
func (t Transaction) IsIncome() bool { return t.Type == TypeIncome }

// IsExpense reports whether the transaction draws from the balance.
func (t Transaction) IsExpense() bool { return t.Type == TypeExpense }
