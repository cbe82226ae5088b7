package proposals

import (
	"fmt"
	"time"
)

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

// Window is an inclusive calendar date range.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow builds a window from two dates, dropping their clock part.
func NewWindow(start, end time.Time) Window {
	return Window{Start: DateOf(start), End: DateOf(end)}
}

// Day is the single-day window for d.
func Day(d time.Time) Window {
	return NewWindow(d, d)
}

// ParseWindow parses two YYYY-MM-DD dates.
func ParseWindow(start, end string) (Window, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return Window{}, fmt.Errorf("invalid start date %q", start)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return Window{}, fmt.Errorf("invalid end date %q", end)
	}
	if e.Before(s) {
		return Window{}, fmt.Errorf("end %s before start %s", end, start)
	}
	return NewWindow(s, e), nil
}

// StartDate renders the first day as YYYY-MM-DD.
func (w Window) StartDate() string { return w.Start.Format(DateLayout) }

// EndDate renders the last day as YYYY-MM-DD.
func (w Window) EndDate() string { return w.End.Format(DateLayout) }

func (w Window) String() string { return w.StartDate() + "->" + w.EndDate() }

// DateOf truncates t to midnight UTC of its own calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
