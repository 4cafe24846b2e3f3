/*
ledger.go - Day-by-day balance simulation

PURPOSE:
  Walks a window chronologically, applying each day's income before its
  expenses and allocating available funds to expenses in insertion order.
  Produces one ledger entry per day with opening/closing balance, payment
  outcome, and overdraft.

SHORTFALL POLICY:
  Expenses are paid in the order they were inserted, never re-sorted. On
  the first expense the available balance cannot cover, that expense is
  recorded as unpaid, the shortfall becomes the day's overdraft, the
  balance zeroes out, and NO further expenses are processed that day.
  Expenses after the first shortfall appear in neither the paid nor the
  unpaid list.

SEQUENCING:
  Day n's opening balance is day n-1's closing balance, so the simulation
  is a single ordered pass. Expansion is parallelizable; this is not.

SEE ALSO:
  - recurrence.go: Builds the occurrence maps consumed here
  - projection.go: Drives the simulation and returns the result
*/
package forecast

import "github.com/shopspring/decimal"

// =============================================================================
// DAILY LEDGER ENTRY - The per-day computed record
// =============================================================================

// DailyLedgerEntry is the computed outcome for a single day. Entries are
// created, returned, and discarded within one projection call; there is no
// cross-call cache or mutation.
type DailyLedgerEntry struct {
	Date           Date            `json:"-"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`

	// CanPay is true iff every expense scheduled that day was fully paid.
	CanPay bool `json:"can_pay"`

	PaidTransactions   []Transaction `json:"paid_transactions"`
	UnpaidTransactions []Transaction `json:"unpaid_transactions"`

	Income             decimal.Decimal `json:"income"`
	IncomeTransactions []Transaction   `json:"income_transactions"`

	// Overdraft is present only when CanPay is false: the unmet amount on
	// the first expense the balance could not cover.
	Overdraft *decimal.Decimal `json:"overdraft,omitempty"`
}

// =============================================================================
// SIMULATOR - Single forward pass over the window
// =============================================================================

// Simulate walks every day in the window, carrying the closing balance
// forward, and returns one entry per day in chronological order. The first
// day opens at zero.
func Simulate(income, expenses OccurrenceMap, w Window) []DailyLedgerEntry {
	entries := make([]DailyLedgerEntry, 0, w.Len())
	prev := decimal.Zero

	w.EachDay(func(day Date) bool {
		dailyIncome := decimal.Zero
		incomeTxs := income.On(day)
		for _, t := range incomeTxs {
			dailyIncome = dailyIncome.Add(t.Amount)
		}
		available := prev.Add(dailyIncome)

		// Lists are never nil: empty days marshal as [] on the wire.
		entry := DailyLedgerEntry{
			Date:               day,
			OpeningBalance:     prev,
			CanPay:             true,
			Income:             dailyIncome,
			IncomeTransactions: incomeTxs,
			PaidTransactions:   []Transaction{},
			UnpaidTransactions: []Transaction{},
		}
		if entry.IncomeTransactions == nil {
			entry.IncomeTransactions = []Transaction{}
		}

		for _, expense := range expenses.On(day) {
			if available.GreaterThanOrEqual(expense.Amount) {
				available = available.Sub(expense.Amount)
				entry.PaidTransactions = append(entry.PaidTransactions, expense)
				continue
			}

			// First shortfall: record it, zero out, stop for the day.
			entry.CanPay = false
			entry.UnpaidTransactions = append(entry.UnpaidTransactions, expense)
			shortfall := expense.Amount.Sub(available)
			entry.Overdraft = &shortfall
			available = decimal.Zero
			break
		}

		entry.ClosingBalance = available
		entries = append(entries, entry)
		prev = available
		return true
	})

	return entries
}
