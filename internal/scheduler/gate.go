package scheduler

import (
	"time"

	"proposal_sync/platform/config"
)

// Gate is the operational window: a time-of-day range, inclusive at both
// minutes, on a set of weekdays, in one time zone.
type Gate struct {
	loc      *time.Location
	start    config.TimeOfDay
	end      config.TimeOfDay
	weekdays map[time.Weekday]bool
}

// NewGate builds a gate. An empty weekday list opens every day.
func NewGate(loc *time.Location, start, end config.TimeOfDay, weekdays []time.Weekday) Gate {
	if loc == nil {
		loc = time.UTC
	}
	g := Gate{loc: loc, start: start, end: end}
	if len(weekdays) > 0 {
		g.weekdays = make(map[time.Weekday]bool, len(weekdays))
		for _, d := range weekdays {
			g.weekdays[d] = true
		}
	}
	return g
}

// GateFromConfig builds the configured gate.
func GateFromConfig(cfg config.SchedulerConfig) Gate {
	return NewGate(cfg.GetLocation(), cfg.GetWindowStart(), cfg.GetWindowEnd(), cfg.GetWeekdays())
}

// Location is the zone the gate is evaluated in.
func (g Gate) Location() *time.Location { return g.loc }

// Open reports whether synchronization may run at t.
func (g Gate) Open(t time.Time) bool {
	local := t.In(g.loc)
	if g.weekdays != nil && !g.weekdays[local.Weekday()] {
		return false
	}
	m := local.Hour()*60 + local.Minute()
	return m >= g.start.Minutes() && m <= g.end.Minutes()
}

// Today is the calendar date of t in the gate's zone.
func (g Gate) Today(t time.Time) time.Time {
	local := t.In(g.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}
