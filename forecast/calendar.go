package forecast

import (
	"encoding/json"
	"time"
)

// =============================================================================
// DATE - Day-granular calendar date (all recurrence math happens here)
// =============================================================================

// DateLayout is the wire format for dates: two-digit month, two-digit day,
// four-digit year.
const DateLayout = "01-02-2006"

// Date is a calendar day, normalized to UTC midnight. The zero value means
// "unset" and is reported by IsZero. Dates are comparable and safe to use as
// map keys because every constructor normalizes through time.Date.
type Date struct {
	t time.Time
}

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a MM-DD-YYYY string. An empty string yields the zero Date.
// A string that cannot be parsed is reported as a MalformedDateError.
func ParseDate(s string) (Date, error) {
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, &MalformedDateError{Value: s, Err: err}
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Properties
func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) IsZero() bool          { return d.t.IsZero() }

// AddDays returns the date n calendar days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	return NewDate(d.t.Year(), d.t.Month(), d.t.Day()+n)
}

func (d Date) String() string { return d.t.Format(DateLayout) }

// MarshalJSON encodes the date as "MM-DD-YYYY", or null when unset.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "MM-DD-YYYY", "", or null.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(*s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// MONTH ARITHMETIC - Clamped and anchor-preserving advances
// =============================================================================

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonths returns a date n months later, with the day-of-month clamped to
// the last valid day of the target month (Jan 31 + 1 month -> Feb 28/29).
// Once clamped, the day does NOT recover in later months; use
// AddAnchoredMonth when drift matters.
func AddMonths(d Date, n int) Date {
	year := d.Year()
	month := int(d.Month()) - 1 + n
	year += month / 12
	month = month % 12
	if month < 0 {
		month += 12
		year--
	}
	target := time.Month(month + 1)

	day := d.Day()
	if last := DaysInMonth(year, target); day > last {
		day = last
	}
	return NewDate(year, target, day)
}

// AddAnchoredMonth advances current by exactly one month while re-deriving
// the day-of-month from anchor's ORIGINAL day, clamped to the target month's
// length. This prevents permanent drift: a Jan 31 anchor lands on Feb 28 but
// returns to the 31st in March.
func AddAnchoredMonth(anchor, current Date) Date {
	year := current.Year()
	month := current.Month() + 1
	if month > time.December {
		month = time.January
		year++
	}

	day := anchor.Day()
	if last := DaysInMonth(year, month); day > last {
		day = last
	}
	return NewDate(year, month, day)
}

// RangesOverlap reports whether [aStart, aEnd] and [bStart, bEnd] share at
// least one day.
func RangesOverlap(aStart, aEnd, bStart, bEnd Date) bool {
	return aStart.BeforeOrEqual(bEnd) && bStart.BeforeOrEqual(aEnd)
}

// DaysBetween returns the number of whole days from one date to another.
func DaysBetween(from, to Date) int {
	return int(to.t.Sub(from.t).Hours() / 24)
}

// =============================================================================
// WINDOW - The bounded range a projection covers
// =============================================================================

// Window bounds, in days relative to "today".
const (
	WindowDaysBack  = 30
	WindowDaysAhead = 210
)

// Window is the closed date interval a projection covers. It is derived
// fresh from the clock at the start of every projection call and never
// persisted.
type Window struct {
	Start Date
	End   Date
}

// NewWindow fixes the projection window around the given instant:
// [today-30d, today+210d], 241 days inclusive.
func NewWindow(now time.Time) Window {
	today := DateOf(now)
	return Window{
		Start: today.AddDays(-WindowDaysBack),
		End:   today.AddDays(WindowDaysAhead),
	}
}

// Contains reports whether the date falls inside the window.
func (w Window) Contains(d Date) bool {
	return d.AfterOrEqual(w.Start) && d.BeforeOrEqual(w.End)
}

// Len returns the number of days in the window, both ends inclusive.
func (w Window) Len() int {
	return DaysBetween(w.Start, w.End) + 1
}

// Days returns every calendar day in the window, in order.
func (w Window) Days() []Date {
	days := make([]Date, 0, w.Len())
	for d := w.Start; d.BeforeOrEqual(w.End); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// EachDay walks the window chronologically, calling fn for every day until
// it returns false. The walk is restartable; EachDay can be called any
// number of times.
func (w Window) EachDay(fn func(Date) bool) {
	for d := w.Start; d.BeforeOrEqual(w.End); d = d.AddDays(1) {
		if !fn(d) {
			return
		}
	}
}

func (w Window) String() string {
	return "[" + w.Start.String() + ", " + w.End.String() + "]"
}
