/*
projection.go - The projection orchestrator

PURPOSE:
  The only component with an externally observable contract. Project fixes
  "now" from the clock, derives the window, fetches and partitions the
  user's transactions, expands every definition into the two occurrence
  maps, and drives the simulator over the window.

STATELESSNESS:
  A Projector holds only its collaborators. Everything else - window,
  occurrence maps, ledger entries - is derived per call and discarded with
  it. Calling Project twice at the same instant with unchanged transactions
  yields byte-identical output.

ERROR FLOW:
  Configuration and malformed-date errors from the data pass through
  unchanged (fix the data). Every other store failure is wrapped as an
  InfrastructureError (retryable by the caller).

SEE ALSO:
  - recurrence.go: Expansion driven per transaction
  - ledger.go: The single sequential pass
*/
package forecast

import (
	"bytes"
	"context"
	"encoding/json"
)

// =============================================================================
// PROJECTOR - Drives one full projection per call
// =============================================================================

// Projector computes day-by-day balance forecasts. It is a pure function of
// (transactions, now); safe for concurrent use since it shares no mutable
// state between calls.
type Projector struct {
	Store TransactionStore
	Clock Clock
}

// NewProjector creates a projector over the given store, reading the system
// clock.
func NewProjector(store TransactionStore) *Projector {
	return &Projector{Store: store, Clock: SystemClock{}}
}

// Project computes the forecast for one user over [now-30d, now+210d].
// The clock is read exactly once, before any other work.
func (p *Projector) Project(ctx context.Context, userID string) (*Forecast, error) {
	now := p.Clock.Now()
	window := NewWindow(now)

	transactions, err := p.Store.ListByUser(ctx, userID)
	if err != nil {
		if IsClientError(err) {
			return nil, err
		}
		return nil, &InfrastructureError{Op: "list transactions for " + userID, Err: err}
	}

	income := NewOccurrenceMap(window)
	expenses := NewOccurrenceMap(window)

	for _, t := range transactions {
		var buckets OccurrenceMap
		switch {
		case t.IsIncome():
			buckets = income
		case t.IsExpense():
			buckets = expenses
		default:
			return nil, &ConfigurationError{
				TransactionID: t.ID,
				Frequency:     t.Frequency,
				Field:         "type",
				Reason:        "must be income or expense",
			}
		}
		if err := Expand(t, window, buckets); err != nil {
			return nil, err
		}
	}

	return &Forecast{
		Window: window,
		Days:   Simulate(income, expenses, window),
	}, nil
}

// =============================================================================
// FORECAST - One full projection result
// =============================================================================

// Forecast holds one entry per day in the window, in chronological order.
type Forecast struct {
	Window Window
	Days   []DailyLedgerEntry
}

// Entry returns the ledger entry for the given date, if it is in the window.
func (f *Forecast) Entry(d Date) (DailyLedgerEntry, bool) {
	if !f.Window.Contains(d) {
		return DailyLedgerEntry{}, false
	}
	return f.Days[DaysBetween(f.Window.Start, d)], true
}

// ByDate returns the entries keyed by their MM-DD-YYYY date string.
func (f *Forecast) ByDate() map[string]DailyLedgerEntry {
	m := make(map[string]DailyLedgerEntry, len(f.Days))
	for _, e := range f.Days {
		m[e.Date.String()] = e
	}
	return m
}

// MarshalJSON encodes the forecast as a JSON object keyed by MM-DD-YYYY,
// with keys in chronological order (Go's map marshalling would sort them
// lexically, which misorders month-first dates across year boundaries).
func (f *Forecast) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range f.Days {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Date.String())
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
