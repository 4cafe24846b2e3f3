/*
recurrence.go - Expansion of transaction definitions into dated occurrences

PURPOSE:
  Turns an abstract recurring definition ("rent, monthly, anchored on the
  31st") into the concrete calendar dates it lands on inside a bounded
  window. This is where the drift-avoidance rules live.

EXPANSION RULES:
  one-time:      Single candidate, the transaction date itself.
  weekly:        Anchor aligned to the target weekday (never shifted more
                 than 3 days in either direction), then every 7 days.
  bi-weekly:     Same alignment, every 14 days.
  semi-monthly:  Two independent anchors, each advanced with the clamping
                 AddMonths. Deliberately NOT anchor-preserving; a 31st
                 anchor degrades to the 28th/29th/30th and stays there.
  monthly:       One anchor advanced with AddAnchoredMonth, so the
                 day-of-month re-derives from the original anchor every
                 step and never drifts permanently.

FAIL-FAST:
  A frequency whose required fields are missing is a configuration error,
  reported before any window math. Out-of-window transactions are valid
  input and simply contribute nothing.

SEE ALSO:
  - calendar.go: AddMonths, AddAnchoredMonth, RangesOverlap
  - ledger.go: Consumes the occurrence maps built here
*/
package forecast

import "time"

// =============================================================================
// OCCURRENCE MAP - Date-indexed buckets of transactions
// =============================================================================

// OccurrenceMap maps each calendar day in a window to the transactions that
// occur on it. The map is dense over its window: every day has an entry,
// possibly empty. Built by Expand, consumed by Simulate, discarded with the
// projection call that owns it.
type OccurrenceMap map[Date][]Transaction

// NewOccurrenceMap pre-populates an empty bucket for every day in the window.
func NewOccurrenceMap(w Window) OccurrenceMap {
	m := make(OccurrenceMap, w.Len())
	w.EachDay(func(d Date) bool {
		m[d] = nil
		return true
	})
	return m
}

// On returns the occurrences bucketed on the given day, in insertion order.
func (m OccurrenceMap) On(d Date) []Transaction { return m[d] }

func (m OccurrenceMap) add(d Date, t Transaction) {
	m[d] = append(m[d], t)
}

// =============================================================================
// EXPANDER - One transaction in, its dated occurrences out
// =============================================================================

// Expand appends the transaction to the occurrence bucket of every date it
// lands on inside the window. Buckets keep source order across transactions
// and chronological order within one recurring transaction.
//
// Required fields are validated before any date math, so a malformed
// definition fails fast even when it would fall outside the window.
func Expand(t Transaction, w Window, out OccurrenceMap) error {
	if err := validateFrequencyFields(t); err != nil {
		return err
	}

	start, end := effectiveRange(t, w)
	if !RangesOverlap(start, end, w.Start, w.End) {
		return nil
	}

	switch t.Frequency {
	case FreqOneTime:
		expandOneTime(t, w, out)
	case FreqWeekly:
		expandEveryNDays(t, w, end, 7, out)
	case FreqBiWeekly:
		expandEveryNDays(t, w, end, 14, out)
	case FreqSemiMonthly:
		expandSemiMonthly(t, w, end, out)
	case FreqMonthly:
		expandMonthly(t, w, end, out)
	}
	return nil
}

// effectiveRange computes the transaction's own active interval. The start
// falls back from StartDate to DateOfTransaction; the end is the window edge
// when SkipEndDate is set, otherwise EndDate falling back to
// DateOfTransaction.
func effectiveRange(t Transaction, w Window) (Date, Date) {
	start := t.StartDate
	if start.IsZero() {
		start = t.DateOfTransaction
	}

	if t.SkipEndDate {
		return start, w.End
	}
	end := t.EndDate
	if end.IsZero() {
		end = t.DateOfTransaction
	}
	return start, end
}

func validateFrequencyFields(t Transaction) error {
	switch t.Frequency {
	case FreqOneTime, FreqMonthly:
		if t.DateOfTransaction.IsZero() {
			return missingField(t, "date_of_transaction")
		}
	case FreqWeekly, FreqBiWeekly:
		if t.Day == 0 {
			return missingField(t, "day")
		}
		if t.Day < MinWeekday || t.Day > MaxWeekday {
			return &ConfigurationError{
				TransactionID: t.ID,
				Frequency:     t.Frequency,
				Field:         "day",
				Reason:        "must be 1 (Monday) through 7 (Sunday)",
			}
		}
		if t.StartDate.IsZero() && t.DateOfTransaction.IsZero() {
			return missingField(t, "start_date")
		}
	case FreqSemiMonthly:
		if t.DateOfTransaction.IsZero() {
			return missingField(t, "date_of_transaction")
		}
		if t.DateOfSecondTransaction.IsZero() {
			return missingField(t, "date_of_second_transaction")
		}
	default:
		return &ConfigurationError{
			TransactionID: t.ID,
			Frequency:     t.Frequency,
			Field:         "frequency",
			Reason:        "is not a recognized frequency",
		}
	}
	return nil
}

// =============================================================================
// PER-FREQUENCY EXPANSION
// =============================================================================

func expandOneTime(t Transaction, w Window, out OccurrenceMap) {
	if w.Contains(t.DateOfTransaction) {
		out.add(t.DateOfTransaction, t)
	}
}

// expandEveryNDays covers weekly (step 7) and bi-weekly (step 14). The
// anchor is first aligned to the target weekday: shift forward by
// (target - anchor) mod 7 days, or backward when the forward shift exceeds
// 3 days, so the first occurrence is never more than 3 days from the anchor
// in either direction.
func expandEveryNDays(t Transaction, w Window, effEnd Date, step int, out OccurrenceMap) {
	anchor, _ := effectiveRange(t, w)

	// Day is 1=Monday..7=Sunday; time.Weekday is 0=Sunday..6=Saturday.
	target := time.Weekday(t.Day % 7)
	if anchor.Weekday() != target {
		shift := (int(target) - int(anchor.Weekday()) + 7) % 7
		if shift > 3 {
			shift -= 7
		}
		anchor = anchor.AddDays(shift)
	}

	for d := anchor; d.BeforeOrEqual(w.End); d = d.AddDays(step) {
		if include(d, w, effEnd) {
			out.add(d, t)
		}
	}
}

// expandSemiMonthly advances both anchors with the clamping AddMonths, not
// the anchor-preserving variant. A 31st anchor therefore drifts down in
// short months and stays down.
func expandSemiMonthly(t Transaction, w Window, effEnd Date, out OccurrenceMap) {
	first := t.DateOfTransaction
	second := t.DateOfSecondTransaction

	for first.BeforeOrEqual(w.End) || second.BeforeOrEqual(w.End) {
		if include(first, w, effEnd) {
			out.add(first, t)
		}
		if include(second, w, effEnd) {
			out.add(second, t)
		}
		first = AddMonths(first, 1)
		second = AddMonths(second, 1)
	}
}

func expandMonthly(t Transaction, w Window, effEnd Date, out OccurrenceMap) {
	anchor := t.DateOfTransaction
	for d := anchor; d.BeforeOrEqual(w.End); d = AddAnchoredMonth(anchor, d) {
		if include(d, w, effEnd) {
			out.add(d, t)
		}
	}
}

// include is the shared occurrence filter: inside the window and not past
// the transaction's effective end. The window upper bound also keeps the
// map dense-only-over-window when an effective end extends beyond it.
func include(d Date, w Window, effEnd Date) bool {
	return w.Contains(d) && d.BeforeOrEqual(effEnd)
}
