package staging

import (
	"context"
	"sync"

	"proposal_sync/internal/proposals"
)

// MemoryTarget runs the staging protocol against in-process tables. It is
// used for dry runs and as the reference behaviour in tests.
type MemoryTarget struct {
	mu     sync.Mutex
	stage  []proposals.Row
	target []proposals.Row
}

// NewMemoryTarget creates a target holding seed rows.
func NewMemoryTarget(seed ...proposals.Row) *MemoryTarget {
	t := &MemoryTarget{}
	for _, r := range seed {
		t.target = append(t.target, r.Clone())
	}
	return t
}

// Prepare clears staging.
func (t *MemoryTarget) Prepare(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stage = nil
	return nil
}

// Load appends a batch to staging.
func (t *MemoryTarget) Load(_ context.Context, batch []proposals.Row) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, r := range batch {
		t.stage = append(t.stage, r.Clone())
	}
	return nil
}

// Dedupe keeps the first staged row of every merge key.
func (t *MemoryTarget) Dedupe(context.Context) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	seen := make(map[proposals.MergeKey]bool, len(t.stage))
	kept := t.stage[:0]
	var removed int64
	for _, r := range t.stage {
		k := r.Key()
		if seen[k] {
			removed++
			continue
		}
		seen[k] = true
		kept = append(kept, r)
	}
	t.stage = kept
	return removed, nil
}

// Upsert overwrites every target row sharing a staged key and appends the
// rest.
func (t *MemoryTarget) Upsert(context.Context) (UpsertStats, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	byKey := make(map[proposals.MergeKey][]int, len(t.target))
	for i, r := range t.target {
		k := r.Key()
		byKey[k] = append(byKey[k], i)
	}

	var stats UpsertStats
	for _, r := range t.stage {
		idx, ok := byKey[r.Key()]
		if !ok {
			t.target = append(t.target, r.Clone())
			stats.Inserted++
			continue
		}
		for _, i := range idx {
			t.target[i] = r.Clone()
		}
		stats.Updated++
	}
	return stats, nil
}

// Rows returns a copy of the target table.
func (t *MemoryTarget) Rows() []proposals.Row {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]proposals.Row, len(t.target))
	for i, r := range t.target {
		out[i] = r.Clone()
	}
	return out
}

// Staged returns a copy of the staging table.
func (t *MemoryTarget) Staged() []proposals.Row {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]proposals.Row, len(t.stage))
	for i, r := range t.stage {
		out[i] = r.Clone()
	}
	return out
}
