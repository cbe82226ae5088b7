package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proposal_sync/internal/proposals"
)

func d(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse(proposals.DateLayout, s)
	require.NoError(t, err)
	return v
}

func TestHalfMonthEndsPerMonthLength(t *testing.T) {
	far := time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		day, start, end string
	}{
		{"2023-02-16", "2023-02-16", "2023-02-28"},
		{"2024-02-20", "2024-02-16", "2024-02-29"},
		{"2024-04-30", "2024-04-16", "2024-04-30"},
		{"2024-05-31", "2024-05-16", "2024-05-31"},
		{"2024-05-15", "2024-05-01", "2024-05-15"},
		{"2024-12-01", "2024-12-01", "2024-12-15"},
	}
	for _, tt := range tests {
		w := HalfMonth(d(t, tt.day), far)
		assert.Equal(t, tt.start+"->"+tt.end, w.String(), tt.day)
	}
}

func TestPartitionCoversLookbackClippedToToday(t *testing.T) {
	windows := Partition(d(t, "2024-02-20"), d(t, "2024-05-20"))

	var got []string
	for _, w := range windows {
		got = append(got, w.String())
	}
	assert.Equal(t, []string{
		"2024-02-20->2024-02-29",
		"2024-03-01->2024-03-15",
		"2024-03-16->2024-03-31",
		"2024-04-01->2024-04-15",
		"2024-04-16->2024-04-30",
		"2024-05-01->2024-05-15",
		"2024-05-16->2024-05-20",
	}, got)

	for i := 1; i < len(windows); i++ {
		assert.Equal(t, windows[i-1].End.AddDate(0, 0, 1), windows[i].Start, "windows must be contiguous")
	}
}

func TestPartitionSingleDay(t *testing.T) {
	windows := Partition(d(t, "2024-05-20"), d(t, "2024-05-20"))
	require.Len(t, windows, 1)
	assert.Equal(t, "2024-05-20->2024-05-20", windows[0].String())
	assert.Empty(t, Partition(d(t, "2024-05-21"), d(t, "2024-05-20")))
}

func TestHotWindows(t *testing.T) {
	hot := HotWindows(d(t, "2024-03-01"))
	require.Len(t, hot, 2)
	assert.Equal(t, "2024-03-01->2024-03-01", hot[0].String())
	assert.Equal(t, "2024-02-29->2024-02-29", hot[1].String())
}

func TestLookbackBase(t *testing.T) {
	assert.Equal(t, d(t, "2024-02-20"), LookbackBase(d(t, "2024-05-20"), 90))
}
