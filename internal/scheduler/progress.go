package scheduler

import (
	"fmt"
	"strings"
	"time"
)

const (
	progressWidth = 30
	etaAlpha      = 0.3
)

// FormatProgress renders "[####------] cur/total (pct%)".
func FormatProgress(cur, total int) string {
	if total <= 0 {
		return fmt.Sprintf("[%s] 0/0 (0%%)", strings.Repeat("-", progressWidth))
	}
	cur = max(0, min(cur, total))
	filled := progressWidth * cur / total
	bar := strings.Repeat("#", filled) + strings.Repeat("-", progressWidth-filled)
	return fmt.Sprintf("[%s] %d/%d (%d%%)", bar, cur, total, 100*cur/total)
}

// FormatETA renders d as HH:MM:SS, hours unbounded.
func FormatETA(d time.Duration) string {
	s := int64(max(d, 0) / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}

// Estimator smooths per-window durations with an exponential moving
// average.
type Estimator struct {
	avg    float64
	primed bool
}

// Observe records one window duration.
func (e *Estimator) Observe(d time.Duration) {
	if !e.primed {
		e.avg = float64(d)
		e.primed = true
		return
	}
	e.avg = etaAlpha*float64(d) + (1-etaAlpha)*e.avg
}

// Remaining estimates the time left for n more windows.
func (e *Estimator) Remaining(n int) time.Duration {
	if n <= 0 || !e.primed {
		return 0
	}
	return time.Duration(e.avg * float64(n))
}
