package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOccupancyFrequency_Table(t *testing.T) {
	// GIVEN levels 1..4 seen 4, 3, 2 and 1 times, out of order
	levels := []int{3, 1, 2, 1, 4, 2, 1, 3, 2, 1}

	// WHEN tabulated
	rows := OccupancyFrequency(levels)

	// THEN each level has its count, fraction and cumulative fraction
	require.Len(t, rows, 4)
	wantFreq := []int{4, 3, 2, 1}
	wantPct := []float64{0.4, 0.3, 0.2, 0.1}
	wantCum := []float64{0.4, 0.7, 0.9, 1.0}
	wantFull := []float64{1, 0.3 / 0.7, 0.2 / 0.9, 0.1}
	for i, r := range rows {
		assert.Equal(t, i+1, r.Beds)
		assert.Equal(t, wantFreq[i], r.Freq)
		assert.InDelta(t, wantPct[i], r.Pct, 1e-12)
		assert.InDelta(t, wantCum[i], r.CumPct, 1e-12)
		assert.InDelta(t, 1-wantCum[i], r.ProbDelay, 1e-12)
		assert.InDelta(t, wantFull[i], r.ProbFull, 1e-12)
	}
}

func TestOccupancyFrequency_Empty(t *testing.T) {
	assert.Nil(t, OccupancyFrequency(nil))
	assert.Equal(t, 1.0, DelayProbability(nil, 3))
}

func TestDelayProbability_AtCapacity(t *testing.T) {
	// GIVEN levels with a gap at 2
	rows := OccupancyFrequency([]int{0, 1, 1, 3, 3, 3, 5, 5})

	tests := []struct {
		capacity int
		want     float64
	}{
		{0, 7.0 / 8},
		{1, 5.0 / 8},
		{2, 5.0 / 8}, // unobserved level adds nothing
		{3, 2.0 / 8},
		{5, 0},
		{10, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, DelayProbability(rows, tt.capacity), 1e-12, "capacity %d", tt.capacity)
	}
}

func TestRunResult_StationsAndDelay(t *testing.T) {
	r := &RunResult{
		Occupancy: map[string][]OccupancyRow{
			"rehab": OccupancyFrequency([]int{1, 2}),
			"asu":   OccupancyFrequency([]int{0, 4}),
		},
		Capacity: map[string]int{"asu": 2, "rehab": 2},
	}
	assert.Equal(t, []string{"asu", "rehab"}, r.Stations())
	assert.InDelta(t, 0.5, r.DelayProbability("asu"), 1e-12)
	assert.InDelta(t, 0.0, r.DelayProbability("rehab"), 1e-12)
	assert.False(t, math.IsNaN(r.DelayProbability("asu")))
}
