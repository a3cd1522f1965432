package values

import (
	"fmt"
	"time"
)

// Period is an inclusive date range at day granularity. Start is snapped to
// 00:00:00 and End to 23:59:59 of their respective days.
type Period struct {
	start time.Time
	end   time.Time
}

// NewPeriod creates a Period from two dates, snapping them to day boundaries.
// The start date must not fall after the end date.
func NewPeriod(start, end time.Time) (Period, error) {
	s := startOfDay(start)
	e := endOfDay(end)
	if s.After(e) {
		return Period{}, fmt.Errorf("period start %s is after end %s",
			s.Format("2006-01-02"), e.Format("2006-01-02"))
	}
	return Period{start: s, end: e}, nil
}

// MustNewPeriod creates a Period and panics on error (for tests)
func MustNewPeriod(start, end time.Time) Period {
	p, err := NewPeriod(start, end)
	if err != nil {
		panic(err)
	}
	return p
}

// Start returns the inclusive lower boundary (00:00:00 of the start day)
func (p Period) Start() time.Time {
	return p.start
}

// End returns the inclusive upper boundary (23:59:59 of the end day)
func (p Period) End() time.Time {
	return p.end
}

// Contains reports whether t falls inside the period
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.start) && !t.After(p.end)
}

// String formats the period as "2006-01-02 – 2006-01-02"
func (p Period) String() string {
	return p.start.Format("2006-01-02") + " to " + p.end.Format("2006-01-02")
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}
