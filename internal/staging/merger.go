// Package staging makes the target table reflect one window of normalized
// rows: stage, deduplicate by merge key, then upsert.
package staging

import (
	"context"
	"fmt"
	"time"

	"proposal_sync/internal/proposals"
	"proposal_sync/platform/logger"
)

// DefaultBatchSize is the number of rows loaded per committed round-trip.
const DefaultBatchSize = 500

// Target is a storage able to run the staging protocol. Each method is
// its own unit of work: it either commits or leaves no trace.
type Target interface {
	// Prepare creates or clears the staging area.
	Prepare(ctx context.Context) error
	// Load appends one batch to staging and commits it.
	Load(ctx context.Context, batch []proposals.Row) error
	// Dedupe leaves at most one staged row per merge key and returns how
	// many were removed.
	Dedupe(ctx context.Context) (int64, error)
	// Upsert overwrites matched target rows and inserts unmatched ones.
	Upsert(ctx context.Context) (UpsertStats, error)
}

// UpsertStats counts the effect of an upsert.
type UpsertStats struct {
	Inserted int64
	Updated  int64
}

// Timings records how long each phase took.
type Timings struct {
	Create time.Duration
	Load   time.Duration
	Dedupe time.Duration
	Upsert time.Duration
}

// Map returns the timings keyed by phase name for logging.
func (t Timings) Map() map[string]time.Duration {
	return map[string]time.Duration{
		"stage_create": t.Create,
		"stage_ins":    t.Load,
		"stage_dedup":  t.Dedupe,
		"merge":        t.Upsert,
	}
}

// Result is the outcome of one window merge.
type Result struct {
	Window     proposals.Window
	Staged     int
	Duplicates int64
	UpsertStats
	Skipped bool
	Timings Timings
}

// Merger drives a Target through the staging protocol.
type Merger struct {
	target    Target
	batchSize int
	log       *logger.Logger
}

// NewMerger creates a merger. batchSize <= 0 uses DefaultBatchSize.
func NewMerger(target Target, batchSize int, log *logger.Logger) *Merger {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Merger{target: target, batchSize: batchSize, log: log}
}

// MergeWindow stages rows and upserts them. An empty batch is a no-op.
// A failing phase stops the window; earlier phases stay committed, which
// is harmless because staging is rebuilt on the next attempt.
func (m *Merger) MergeWindow(ctx context.Context, w proposals.Window, rows []proposals.Row) (Result, error) {
	res := Result{Window: w, Staged: len(rows)}
	if len(rows) == 0 {
		res.Skipped = true
		m.log.WindowMerged(w.String(), 0, true, nil)
		return res, nil
	}

	start := time.Now()
	if err := m.target.Prepare(ctx); err != nil {
		return res, fmt.Errorf("prepare staging %s: %w", w, err)
	}
	res.Timings.Create = time.Since(start)

	start = time.Now()
	for off := 0; off < len(rows); off += m.batchSize {
		end := off + m.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := m.target.Load(ctx, rows[off:end]); err != nil {
			return res, fmt.Errorf("load staging %s rows %d-%d: %w", w, off, end, err)
		}
	}
	res.Timings.Load = time.Since(start)

	start = time.Now()
	removed, err := m.target.Dedupe(ctx)
	if err != nil {
		return res, fmt.Errorf("dedupe staging %s: %w", w, err)
	}
	res.Duplicates = removed
	res.Timings.Dedupe = time.Since(start)

	start = time.Now()
	stats, err := m.target.Upsert(ctx)
	if err != nil {
		return res, fmt.Errorf("upsert %s: %w", w, err)
	}
	res.UpsertStats = stats
	res.Timings.Upsert = time.Since(start)

	if removed > 0 {
		m.log.Warn("duplicate merge keys collapsed in staging", "window", w.String(), "removed", removed)
	}
	m.log.WindowMerged(w.String(), res.Staged, false, res.Timings.Map())
	return res, nil
}
