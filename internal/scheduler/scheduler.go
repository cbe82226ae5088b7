// Package scheduler decides which windows run when: the hot days every
// cycle, a resumable deep sweep over the lookback, inside an operational
// gate and on a wall-clock aligned cadence.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"proposal_sync/internal/pipeline"
	"proposal_sync/internal/proposals"
	"proposal_sync/internal/syncstate"
	"proposal_sync/platform/apperr"
	"proposal_sync/platform/config"
	"proposal_sync/platform/events"
	"proposal_sync/platform/logger"
)

// Runner processes one window.
type Runner interface {
	Run(ctx context.Context, w proposals.Window) (pipeline.Report, error)
}

// Session is the database link the runner writes through.
type Session interface {
	IsAlive(ctx context.Context) bool
	Reconnect(ctx context.Context) error
}

// Settings are the cadence and sweep knobs.
type Settings struct {
	Gate         Gate
	LoopSleep    time.Duration
	Align        bool
	DeepScan     bool
	LookbackDays int
	BatchWindows int
}

// SettingsFromConfig reads the scheduler configuration.
func SettingsFromConfig(cfg config.SchedulerConfig) Settings {
	return Settings{
		Gate:         GateFromConfig(cfg),
		LoopSleep:    cfg.GetLoopSleep(),
		Align:        cfg.GetAlignWakeups(),
		DeepScan:     cfg.GetDeepScan(),
		LookbackDays: cfg.GetLookbackDays(),
		BatchWindows: cfg.GetBatchWindows(),
	}
}

// Scheduler owns the sync loop. It is not safe for concurrent use.
type Scheduler struct {
	runner   Runner
	session  Session
	store    syncstate.Store
	bus      events.Bus
	clock    clockwork.Clock
	settings Settings
	log      *logger.Logger
}

// New creates a scheduler. A nil clock uses the real one.
func New(runner Runner, session Session, store syncstate.Store, bus events.Bus, clock clockwork.Clock, settings Settings, log *logger.Logger) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if settings.LoopSleep <= 0 {
		settings.LoopSleep = 300 * time.Second
	}
	return &Scheduler{
		runner:   runner,
		session:  session,
		store:    store,
		bus:      bus,
		clock:    clock,
		settings: settings,
		log:      log,
	}
}

// CycleReport summarizes one cycle.
type CycleReport struct {
	RunID   string
	Windows int
	Cursor  time.Time
}

// errCycleAborted marks a cycle ended early by a non-transient failure.
var errCycleAborted = errors.New("cycle aborted")

// Run loops until ctx is cancelled. Errors never end the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		now := s.clock.Now()
		if !s.settings.Gate.Open(now) {
			next := now.Add(s.settings.LoopSleep)
			s.log.Info("outside operational window, sleeping",
				"local_time", now.In(s.settings.Gate.Location()).Format("Mon 15:04"),
				"sleep", s.settings.LoopSleep.String(),
			)
			s.publish(ctx, GateClosed{Stamp: events.StampAt(now), NextCheck: next})
			if !s.sleep(ctx, s.settings.LoopSleep) {
				return nil
			}
			continue
		}

		report, err := s.RunCycle(ctx)
		if ctx.Err() != nil {
			return nil
		}

		done := s.clock.Now()
		wake := NextWake(done, s.settings.LoopSleep, s.settings.Gate, s.settings.Align)
		completed := CycleCompleted{
			Stamp:    events.StampAt(done),
			RunID:    report.RunID,
			Windows:  report.Windows,
			NextWake: wake,
		}
		if !report.Cursor.IsZero() {
			completed.Cursor = report.Cursor.Format(proposals.DateLayout)
		}
		if err != nil {
			completed.Error = err.Error()
			s.log.Error("cycle ended early", "run_id", report.RunID, "error", err)
		} else {
			s.log.Info("cycle complete", "run_id", report.RunID, "windows", report.Windows, "next_wake", wake.Format(time.RFC3339))
		}
		s.publish(ctx, completed)

		if !s.sleep(ctx, wake.Sub(done)) {
			return nil
		}
	}
}

// RunCycle processes the hot windows and then continues the deep sweep.
func (s *Scheduler) RunCycle(ctx context.Context) (CycleReport, error) {
	now := s.clock.Now()
	today := s.settings.Gate.Today(now)
	report := CycleReport{RunID: uuid.NewString()}
	log := s.log.WithRunID(report.RunID)
	ctx = context.WithValue(ctx, logger.RunIDKey, report.RunID)

	s.publish(ctx, CycleStarted{Stamp: events.StampAt(now), RunID: report.RunID, Today: today.Format(proposals.DateLayout)})

	if !s.session.IsAlive(ctx) {
		if err := s.reconnect(ctx, log, report.RunID, "session not alive"); err != nil {
			return report, err
		}
	}

	for _, w := range HotWindows(today) {
		if err := s.process(ctx, log, report.RunID, w, KindHot, nil); err != nil {
			if errors.Is(err, errCycleAborted) {
				return report, err
			}
			continue
		}
		report.Windows++
	}

	if !s.settings.DeepScan {
		return report, nil
	}
	return s.sweep(ctx, log, report, today)
}

func (s *Scheduler) sweep(ctx context.Context, log *logger.Logger, report CycleReport, today time.Time) (CycleReport, error) {
	base := LookbackBase(today, s.settings.LookbackDays)
	cursor := syncstate.Resume(ctx, s.store, base, today, log)
	report.Cursor = cursor

	total := len(Partition(base, today))
	pending := Partition(cursor, today)
	offset := total - len(pending)
	if s.settings.BatchWindows > 0 && len(pending) > s.settings.BatchWindows {
		pending = pending[:s.settings.BatchWindows]
	}

	var eta Estimator
	for i, w := range pending {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		position := offset + i + 1

		err := s.process(ctx, log, report.RunID, w, KindDeep, func(ev *WindowProcessed) {
			eta.Observe(ev.Elapsed)
			ev.Progress = FormatProgress(position, total)
			ev.ETA = FormatETA(eta.Remaining(total - position))
			log.Progress(ev.Progress, ev.Window, ev.ETA)
		})
		if err != nil {
			if errors.Is(err, errCycleAborted) {
				return report, err
			}
			continue
		}
		report.Windows++

		next := w.End.AddDate(0, 0, 1)
		if next.After(today) {
			next = base
		}
		if err := s.store.Save(ctx, next); err != nil {
			log.Warn("failed to persist sweep cursor", "cursor", next.Format(proposals.DateLayout), "error", err)
		}
		report.Cursor = next
	}
	return report, nil
}

// process runs one window. Transient link failures reconnect and return a
// plain error so the caller moves on; anything else aborts the cycle.
func (s *Scheduler) process(ctx context.Context, log *logger.Logger, runID string, w proposals.Window, kind string, annotate func(*WindowProcessed)) error {
	start := s.clock.Now()
	res, err := s.runner.Run(ctx, w)

	ev := WindowProcessed{
		Stamp:      events.StampAt(s.clock.Now()),
		RunID:      runID,
		Window:     w.String(),
		Kind:       kind,
		Records:    res.Records,
		Inserted:   res.Merge.Inserted,
		Updated:    res.Merge.Updated,
		Duplicates: res.Merge.Duplicates,
		Skipped:    res.Merge.Skipped,
		Elapsed:    s.clock.Since(start),
	}
	for _, p := range res.Partners {
		ev.Partners = append(ev.Partners, PartnerLine{Partner: p.Partner, Status: p.Status, Records: p.Records, Error: p.Error})
	}
	if err != nil {
		ev.Error = err.Error()
	}
	if annotate != nil {
		annotate(&ev)
	}
	s.publish(ctx, ev)

	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if apperr.Is(err, apperr.KindTransient) {
		log.Warn("transient database failure, reconnecting", "window", w.String(), "kind", kind, "error", err)
		if rerr := s.reconnect(ctx, log, runID, err.Error()); rerr != nil {
			return rerr
		}
		return err
	}
	log.DatabaseError("merge "+w.String(), err)
	return errors.Join(errCycleAborted, err)
}

func (s *Scheduler) reconnect(ctx context.Context, log *logger.Logger, runID, reason string) error {
	s.publish(ctx, Reconnecting{Stamp: events.StampAt(s.clock.Now()), RunID: runID, Reason: reason})
	if err := s.session.Reconnect(ctx); err != nil {
		log.Error("reconnect failed", "error", err)
		return errors.Join(errCycleAborted, err)
	}
	log.Info("database session replaced")
	return nil
}

func (s *Scheduler) publish(ctx context.Context, ev events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.PublishSync(ctx, ev); err != nil {
		s.log.Warn("event handler failed", "event", ev.Topic(), "error", err)
	}
}

// sleep waits d on the scheduler clock. It reports false when ctx ended.
func (s *Scheduler) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-s.clock.After(d):
		return true
	}
}
