package scheduler

import (
	"time"

	"proposal_sync/internal/proposals"
)

// HalfMonth returns the quinzena holding d: the 1st to the 15th or the 16th
// to the last day of the month, with the end clipped to today.
func HalfMonth(d, today time.Time) proposals.Window {
	d = proposals.DateOf(d)
	y, m, day := d.Date()

	var start, end time.Time
	if day <= 15 {
		start = time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
		end = time.Date(y, m, 15, 0, 0, 0, 0, time.UTC)
	} else {
		start = time.Date(y, m, 16, 0, 0, 0, 0, time.UTC)
		end = time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC)
	}
	if t := proposals.DateOf(today); end.After(t) {
		end = t
	}
	return proposals.Window{Start: start, End: end}
}

// Partition splits [from, today] into quinzena windows. The first window
// starts at from even when from falls mid-quinzena.
func Partition(from, today time.Time) []proposals.Window {
	from, today = proposals.DateOf(from), proposals.DateOf(today)
	var out []proposals.Window
	for d := from; !d.After(today); {
		w := HalfMonth(d, today)
		w.Start = d
		out = append(out, w)
		d = w.End.AddDate(0, 0, 1)
	}
	return out
}

// HotWindows are the single-day windows revisited every cycle.
func HotWindows(today time.Time) []proposals.Window {
	today = proposals.DateOf(today)
	return []proposals.Window{
		proposals.Day(today),
		proposals.Day(today.AddDate(0, 0, -1)),
	}
}

// LookbackBase is the first date of the deep sweep.
func LookbackBase(today time.Time, days int) time.Time {
	return proposals.DateOf(today).AddDate(0, 0, -days)
}
