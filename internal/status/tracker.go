// Package status keeps a snapshot of the sync loop fed by scheduler events
// and serves it over HTTP.
package status

import (
	"context"
	"sync"
	"time"

	"proposal_sync/internal/scheduler"
	"proposal_sync/platform/events"
)

// Loop states.
const (
	StateStarting     = "starting"
	StateGated        = "gated"
	StateSweeping     = "sweeping"
	StateReconnecting = "reconnecting"
	StateCooldown     = "cooldown"
)

// Snapshot is the loop state at one instant.
type Snapshot struct {
	State      string                     `json:"state"`
	RunID      string                     `json:"runId,omitempty"`
	Cycles     int                        `json:"cycles"`
	Cursor     string                     `json:"cursor,omitempty"`
	NextWake   *time.Time                 `json:"nextWake,omitempty"`
	LastWindow *scheduler.WindowProcessed `json:"lastWindow,omitempty"`
	Progress   string                     `json:"progress,omitempty"`
	ETA        string                     `json:"eta,omitempty"`
	LastError  string                     `json:"lastError,omitempty"`
	UpdatedAt  time.Time                  `json:"updatedAt"`
}

// Tracker folds scheduler events into a Snapshot.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a tracker in the starting state.
func NewTracker() *Tracker {
	return &Tracker{snap: Snapshot{State: StateStarting}}
}

// RegisterHandlers subscribes the tracker to every scheduler event.
func (t *Tracker) RegisterHandlers(bus events.Bus) {
	for _, name := range []string{
		scheduler.EventCycleStarted,
		scheduler.EventWindowProcessed,
		scheduler.EventCycleCompleted,
		scheduler.EventGateClosed,
		scheduler.EventReconnecting,
	} {
		bus.Subscribe(name, events.HandlerFunc(t.Handle))
	}
}

// Handle applies one event.
func (t *Tracker) Handle(_ context.Context, event events.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch e := event.(type) {
	case scheduler.CycleStarted:
		t.snap.State = StateSweeping
		t.snap.RunID = e.RunID
		t.snap.NextWake = nil
	case scheduler.WindowProcessed:
		t.snap.State = StateSweeping
		w := e
		t.snap.LastWindow = &w
		if e.Kind == scheduler.KindDeep {
			t.snap.Progress = e.Progress
			t.snap.ETA = e.ETA
		}
		if e.Error != "" {
			t.snap.LastError = e.Error
		}
	case scheduler.Reconnecting:
		t.snap.State = StateReconnecting
		t.snap.LastError = e.Reason
	case scheduler.CycleCompleted:
		t.snap.State = StateCooldown
		t.snap.Cycles++
		if e.Cursor != "" {
			t.snap.Cursor = e.Cursor
		}
		wake := e.NextWake
		t.snap.NextWake = &wake
		if e.Error != "" {
			t.snap.LastError = e.Error
		}
	case scheduler.GateClosed:
		t.snap.State = StateGated
		next := e.NextCheck
		t.snap.NextWake = &next
	default:
		return nil
	}
	t.snap.UpdatedAt = event.At()
	return nil
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s := t.snap
	if s.LastWindow != nil {
		w := *s.LastWindow
		w.Partners = append([]scheduler.PartnerLine(nil), w.Partners...)
		s.LastWindow = &w
	}
	if s.NextWake != nil {
		n := *s.NextWake
		s.NextWake = &n
	}
	return s
}
