package staging

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proposal_sync/internal/proposals"
	"proposal_sync/platform/logger"
)

func ptr(s string) *string { return &s }

func proposal(id, cadastro string, extra map[string]string) proposals.Row {
	r := proposals.NewRow()
	_ = r.Set(proposals.ColPartner, ptr("acme"))
	_ = r.Set("proposta_id", ptr(id))
	_ = r.Set("data_cadastro", ptr(cadastro))
	for k, v := range extra {
		_ = r.Set(k, ptr(v))
	}
	return r
}

func window(t *testing.T) proposals.Window {
	t.Helper()
	w, err := proposals.ParseWindow("2024-05-01", "2024-05-15")
	require.NoError(t, err)
	return w
}

type recordingTarget struct {
	*MemoryTarget
	batches  []int
	failAt   string
	prepared int
}

func (r *recordingTarget) Prepare(ctx context.Context) error {
	r.prepared++
	if r.failAt == "prepare" {
		return errors.New("prepare failed")
	}
	return r.MemoryTarget.Prepare(ctx)
}

func (r *recordingTarget) Load(ctx context.Context, batch []proposals.Row) error {
	r.batches = append(r.batches, len(batch))
	if r.failAt == "load" {
		return errors.New("load failed")
	}
	return r.MemoryTarget.Load(ctx, batch)
}

func (r *recordingTarget) Dedupe(ctx context.Context) (int64, error) {
	if r.failAt == "dedupe" {
		return 0, errors.New("dedupe failed")
	}
	return r.MemoryTarget.Dedupe(ctx)
}

func TestMergeWindowEmptyIsSkipped(t *testing.T) {
	target := &recordingTarget{MemoryTarget: NewMemoryTarget()}
	m := NewMerger(target, 0, logger.Discard())

	res, err := m.MergeWindow(context.Background(), window(t), nil)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Zero(t, target.prepared, "staging must not be touched for an empty window")
	assert.Empty(t, target.batches)
}

func TestMergeWindowLoadsInBatches(t *testing.T) {
	target := &recordingTarget{MemoryTarget: NewMemoryTarget()}
	m := NewMerger(target, 0, logger.Discard())

	rows := make([]proposals.Row, 1200)
	for i := range rows {
		rows[i] = proposal(fmt.Sprintf("P%04d", i), "2024-05-02", nil)
	}
	res, err := m.MergeWindow(context.Background(), window(t), rows)
	require.NoError(t, err)
	assert.Equal(t, []int{500, 500, 200}, target.batches)
	assert.Equal(t, 1200, res.Staged)
	assert.EqualValues(t, 1200, res.Inserted)
	assert.Len(t, target.Rows(), 1200)
}

func TestMergeWindowStopsAtFailingPhase(t *testing.T) {
	seed := proposal("P1", "2024-05-02", map[string]string{"status_nome": "OLD"})
	for _, phase := range []string{"prepare", "load", "dedupe"} {
		t.Run(phase, func(t *testing.T) {
			target := &recordingTarget{MemoryTarget: NewMemoryTarget(seed), failAt: phase}
			m := NewMerger(target, 10, logger.Discard())

			_, err := m.MergeWindow(context.Background(), window(t),
				[]proposals.Row{proposal("P1", "2024-05-02", map[string]string{"status_nome": "NEW"})})
			require.Error(t, err)

			rows := target.Rows()
			require.Len(t, rows, 1)
			assert.Equal(t, "OLD", *rows[0].Get("status_nome"), "target must be untouched")
		})
	}
}

func TestMergeWindowIsIdempotent(t *testing.T) {
	target := NewMemoryTarget()
	m := NewMerger(target, 2, logger.Discard())
	rows := []proposals.Row{
		proposal("P1", "2024-05-02", nil),
		proposal("P2", "2024-05-03", nil),
		proposal("P3", "2024-05-04", nil),
	}

	first, err := m.MergeWindow(context.Background(), window(t), rows)
	require.NoError(t, err)
	assert.EqualValues(t, 3, first.Inserted)

	second, err := m.MergeWindow(context.Background(), window(t), rows)
	require.NoError(t, err)
	assert.EqualValues(t, 0, second.Inserted)
	assert.EqualValues(t, 3, second.Updated)
	assert.Len(t, target.Rows(), 3)
}

func TestMergeWindowCollapsesDuplicateKeys(t *testing.T) {
	target := NewMemoryTarget()
	m := NewMerger(target, 0, logger.Discard())
	rows := []proposals.Row{
		proposal("P1", "2024-05-02", map[string]string{"status_nome": "FIRST"}),
		proposal(" p1 ", "2024-05-02", map[string]string{"status_nome": "SECOND"}),
		proposal("P2", "2024-05-02", nil),
	}

	res, err := m.MergeWindow(context.Background(), window(t), rows)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Duplicates)
	assert.EqualValues(t, 2, res.Inserted)

	got := target.Rows()
	require.Len(t, got, 2)
	assert.Equal(t, "FIRST", *got[0].Get("status_nome"))
}

func TestUpsertOverwritesMatchedAndKeepsOthers(t *testing.T) {
	untouched := proposal("P9", "2024-04-01", map[string]string{"status_nome": "KEEP"})
	matched := proposal("P1", "2024-05-02", map[string]string{"status_nome": "OLD", "cidade": "Recife"})
	target := NewMemoryTarget(untouched, matched)
	m := NewMerger(target, 0, logger.Discard())

	incoming := proposal("P1", "2024-05-02", map[string]string{"status_nome": "NEW"})
	res, err := m.MergeWindow(context.Background(), window(t), []proposals.Row{incoming, proposal("P2", "2024-05-03", nil)})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Inserted)
	assert.EqualValues(t, 1, res.Updated)

	got := target.Rows()
	require.Len(t, got, 3)
	assert.Equal(t, "KEEP", *got[0].Get("status_nome"))
	assert.Equal(t, "NEW", *got[1].Get("status_nome"))
	assert.Nil(t, got[1].Get("cidade"), "matched rows are fully overwritten, nulls included")
}

func TestTimingsMapNamesEveryPhase(t *testing.T) {
	m := Timings{Create: time.Millisecond, Load: 2 * time.Millisecond, Dedupe: 3 * time.Millisecond, Upsert: 4 * time.Millisecond}.Map()
	assert.Equal(t, 4*time.Millisecond, m["merge"])
	assert.Len(t, m, 4)
}
