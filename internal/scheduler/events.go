package scheduler

import (
	"time"

	"proposal_sync/platform/events"
)

// Event names published on the bus.
const (
	EventCycleStarted    = "scheduler.cycle_started"
	EventWindowProcessed = "scheduler.window_processed"
	EventCycleCompleted  = "scheduler.cycle_completed"
	EventGateClosed      = "scheduler.gate_closed"
	EventReconnecting    = "scheduler.reconnecting"
)

// Window kinds.
const (
	KindHot  = "hot"
	KindDeep = "deep"
)

// CycleStarted is published when a cycle begins inside the gate.
type CycleStarted struct {
	events.Stamp
	RunID string `json:"runId"`
	Today string `json:"today"`
}

func (CycleStarted) Topic() string { return EventCycleStarted }

// WindowProcessed is published after every window attempt.
type WindowProcessed struct {
	events.Stamp
	RunID      string        `json:"runId"`
	Window     string        `json:"window"`
	Kind       string        `json:"kind"`
	Records    int           `json:"records"`
	Inserted   int64         `json:"inserted"`
	Updated    int64         `json:"updated"`
	Duplicates int64         `json:"duplicates"`
	Skipped    bool          `json:"skipped"`
	Partners   []PartnerLine `json:"partners"`
	Progress   string        `json:"progress,omitempty"`
	ETA        string        `json:"eta,omitempty"`
	Elapsed    time.Duration `json:"elapsedNs"`
	Error      string        `json:"error,omitempty"`
}

func (WindowProcessed) Topic() string { return EventWindowProcessed }

// PartnerLine is one partner's status within a window.
type PartnerLine struct {
	Partner string `json:"partner"`
	Status  int    `json:"status"`
	Records int    `json:"records"`
	Error   string `json:"error,omitempty"`
}

// CycleCompleted is published when a cycle ends, successfully or not.
type CycleCompleted struct {
	events.Stamp
	RunID    string    `json:"runId"`
	Windows  int       `json:"windows"`
	Cursor   string    `json:"cursor,omitempty"`
	NextWake time.Time `json:"nextWake"`
	Error    string    `json:"error,omitempty"`
}

func (CycleCompleted) Topic() string { return EventCycleCompleted }

// GateClosed is published when the loop finds itself outside the gate.
type GateClosed struct {
	events.Stamp
	NextCheck time.Time `json:"nextCheck"`
}

func (GateClosed) Topic() string { return EventGateClosed }

// Reconnecting is published before the database session is replaced.
type Reconnecting struct {
	events.Stamp
	RunID  string `json:"runId"`
	Reason string `json:"reason"`
}

func (Reconnecting) Topic() string { return EventReconnecting }
