package core

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Period is an inclusive range of calendar dates.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewPeriod truncates both bounds to calendar days and rejects start > end.
func NewPeriod(start, end time.Time) (Period, error) {
	p := Period{Start: dateOnly(start), End: dateOnly(end)}
	if p.Start.After(p.End) {
		return Period{}, newInputError("period", "period start %s is after period end %s",
			p.Start.Format(DateLayout), p.End.Format(DateLayout))
	}
	return p, nil
}

// ParsePeriod parses two YYYY-MM-DD strings into a Period.
func ParsePeriod(from, to string) (Period, error) {
	start, err := ParseDate("from", from)
	if err != nil {
		return Period{}, err
	}
	end, err := ParseDate("to", to)
	if err != nil {
		return Period{}, err
	}
	return NewPeriod(start, end)
}

// ParseDate parses a YYYY-MM-DD string, reporting failures as an InputError on field.
func ParseDate(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, newInputError(field, "date is required")
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, newInputError(field, "expected YYYY-MM-DD, got %q", s)
	}
	return t, nil
}

// Contains reports whether the calendar day of t lies within p.
func (p Period) Contains(t time.Time) bool {
	d := dateOnly(t)
	return !d.Before(dateOnly(p.Start)) && !d.After(dateOnly(p.End))
}

// Overlaps reports whether p and o share at least one day.
func (p Period) Overlaps(o Period) bool {
	return !dateOnly(p.Start).After(dateOnly(o.End)) && !dateOnly(o.Start).After(dateOnly(p.End))
}

// Intersect returns the days common to p and o.
func (p Period) Intersect(o Period) (Period, bool) {
	if !p.Overlaps(o) {
		return Period{}, false
	}
	start, end := dateOnly(p.Start), dateOnly(p.End)
	if oStart := dateOnly(o.Start); oStart.After(start) {
		start = oStart
	}
	if oEnd := dateOnly(o.End); oEnd.Before(end) {
		end = oEnd
	}
	return Period{Start: start, End: end}, true
}

func (p Period) String() string {
	return fmt.Sprintf("%s..%s", p.Start.Format(DateLayout), p.End.Format(DateLayout))
}

// dateOnly drops the clock part of t, keeping its calendar date in UTC.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
