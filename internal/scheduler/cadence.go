package scheduler

import "time"

// NextAlignedTick returns the first minute 20 or 50 at or after t, in t's
// location.
func NextAlignedTick(t time.Time) time.Time {
	if (t.Minute() == 20 || t.Minute() == 50) && t.Second() == 0 && t.Nanosecond() == 0 {
		return t
	}
	hour := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
	switch {
	case t.Minute() < 20:
		return hour.Add(20 * time.Minute)
	case t.Minute() < 50:
		return hour.Add(50 * time.Minute)
	default:
		return hour.Add(80 * time.Minute)
	}
}

// NextWake is when the next cycle starts after one finished at now: the
// loop sleep, rounded up to the next :20/:50 tick when aligned and the gate
// is open at that time.
func NextWake(now time.Time, sleep time.Duration, gate Gate, align bool) time.Time {
	wake := now.Add(sleep)
	if align && gate.Open(wake) {
		return NextAlignedTick(wake.In(gate.Location()))
	}
	return wake
}
