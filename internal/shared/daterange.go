package shared

import (
	"fmt"
	"time"
)

// DateRange is an inclusive local-date interval. Start and End carry only the
// calendar date; time-of-day components are ignored.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange normalises both bounds to midnight and validates ordering.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: Midnight(start), End: Midnight(end)}
	if r.Start.After(r.End) {
		return DateRange{}, fmt.Errorf("%w: start %s after end %s", ErrInvalidRange, r.Start.Format(DateLayout), r.End.Format(DateLayout))
	}
	return r, nil
}

// ParseDateRange builds a DateRange from two YYYY-MM-DD strings.
func ParseDateRange(from, to string) (DateRange, error) {
	start, err := time.ParseInLocation(DateLayout, from, time.UTC)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: from %q", ErrInvalidRange, from)
	}
	end, err := time.ParseInLocation(DateLayout, to, time.UTC)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: to %q", ErrInvalidRange, to)
	}
	return NewDateRange(start, end)
}

// MonthRange returns the full calendar month containing t.
func MonthRange(t time.Time) DateRange {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return DateRange{Start: first, End: last}
}

// TrailingMonths returns the range spanning the count calendar months ending
// with the month containing now.
func TrailingMonths(now time.Time, count int) DateRange {
	current := MonthRange(now)
	start := current.Start.AddDate(0, -(count - 1), 0)
	return DateRange{Start: start, End: current.End}
}

// ExclusiveEnd is the first instant after the range, suitable for
// `occurred_at < $2` predicates.
func (r DateRange) ExclusiveEnd() time.Time {
	return r.End.AddDate(0, 0, 1)
}

// Days returns the number of calendar days covered, inclusive.
func (r DateRange) Days() int {
	return int(r.ExclusiveEnd().Sub(r.Start).Hours()/24 + 0.5)
}

// Contains reports whether the instant falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	d := Midnight(t)
	return !d.Before(r.Start) && !d.After(r.End)
}

// Month formats the start month as YYYY-MM.
func (r DateRange) Month() string {
	return r.Start.Format(MonthLayout)
}

// String renders the range for cache keys and logs.
func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}

// Midnight truncates an instant to its calendar date in UTC.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)
