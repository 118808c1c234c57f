package domain

import "time"

// DateRange is a closed range of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange truncates both ends to UTC calendar days.
func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: DateOnly(start), End: DateOnly(end)}
}

// DateOnly drops the clock part of t and normalizes to UTC.
func DateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Valid reports whether the range has both ends and does not end before it starts.
func (r DateRange) Valid() bool {
	return !r.Start.IsZero() && !r.End.IsZero() && !r.End.Before(r.Start)
}

// Overlaps uses closed-interval semantics: a.start <= b.end AND a.end >= b.start.
func (r DateRange) Overlaps(o DateRange) bool {
	return !r.Start.After(o.End) && !r.End.Before(o.Start)
}

// OverlapDays counts the calendar days shared by both ranges, inclusive.
func (r DateRange) OverlapDays(o DateRange) int {
	if !r.Overlaps(o) {
		return 0
	}
	start := r.Start
	if o.Start.After(start) {
		start = o.Start
	}
	end := r.End
	if o.End.Before(end) {
		end = o.End
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// String renders the range as "YYYY-MM-DD..YYYY-MM-DD".
func (r DateRange) String() string {
	return r.Start.Format(time.DateOnly) + ".." + r.End.Format(time.DateOnly)
}
