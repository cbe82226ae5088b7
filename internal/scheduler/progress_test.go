package scheduler

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatProgress(t *testing.T) {
	assert.Equal(t, "["+strings.Repeat("#", 12)+strings.Repeat("-", 18)+"] 3/7 (42%)", FormatProgress(3, 7))
	assert.Equal(t, "["+strings.Repeat("#", 30)+"] 7/7 (100%)", FormatProgress(7, 7))
	assert.Equal(t, "["+strings.Repeat("-", 30)+"] 0/0 (0%)", FormatProgress(0, 0))
	assert.Equal(t, "["+strings.Repeat("#", 30)+"] 7/7 (100%)", FormatProgress(9, 7))
}

func TestFormatETA(t *testing.T) {
	assert.Equal(t, "00:00:00", FormatETA(-time.Second))
	assert.Equal(t, "01:02:03", FormatETA(time.Hour+2*time.Minute+3*time.Second))
	assert.Equal(t, "27:00:00", FormatETA(27*time.Hour))
}

func TestEstimatorMovingAverage(t *testing.T) {
	var e Estimator
	assert.Zero(t, e.Remaining(3))

	e.Observe(10 * time.Second)
	assert.Equal(t, 30*time.Second, e.Remaining(3))

	e.Observe(20 * time.Second)
	// 0.3*20 + 0.7*10 = 13s
	assert.InDelta(t, float64(26*time.Second), float64(e.Remaining(2)), float64(time.Millisecond))
	assert.Zero(t, e.Remaining(0))
}
