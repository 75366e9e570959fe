package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestTimeWeighted_MeanAndVariance_MatchWeightedOracle(t *testing.T) {
	// GIVEN a level of 2 for 1 time unit, 4 for 3 units, 0 for 2 units
	tw := NewTimeWeighted(0, 2)
	tw.Update(1, 4)
	tw.Update(4, 0)

	// WHEN read at t=6 (the last interval is still open)
	mean, ok := tw.Mean(6)
	require.True(t, ok)
	v, ok := tw.Variance(6)
	require.True(t, ok)

	// THEN results equal the weighted mean/variance of the levels
	levels := []float64{2, 4, 0}
	weights := []float64{1, 3, 2}
	wantMean := stat.Mean(levels, weights)
	var wantVar float64
	for i, l := range levels {
		wantVar += weights[i] * (l - wantMean) * (l - wantMean)
	}
	wantVar /= 6
	assert.InDelta(t, wantMean, mean, 1e-12)
	assert.InDelta(t, wantVar, v, 1e-12)
	assert.InDelta(t, 14.0, tw.Integral(6), 1e-12)
	assert.Equal(t, 6.0, tw.Weight(6))
}

func TestTimeWeighted_ReadDoesNotCommitOpenInterval(t *testing.T) {
	// GIVEN a level of 3 since t=0
	tw := NewTimeWeighted(0, 3)

	// WHEN read twice at different times
	_ = tw.Integral(10)
	got := tw.Integral(5)

	// THEN the earlier read did not advance the accumulator
	assert.InDelta(t, 15.0, got, 1e-12)
}

func TestTimeWeighted_Reset_KeepsLevelDropsHistory(t *testing.T) {
	// GIVEN a level of 5 held since t=0
	tw := NewTimeWeighted(0, 5)
	tw.Update(3, 1)

	// WHEN the window restarts at t=4
	tw.Reset(4)

	// THEN only the post-reset portion of the current level counts
	assert.Equal(t, 4.0, tw.Start())
	assert.Equal(t, 1.0, tw.Level())
	assert.InDelta(t, 2.0, tw.Integral(6), 1e-12)
	_, ok := tw.Mean(4)
	assert.False(t, ok, "empty window")
}

func TestTimeWeighted_BackwardsTime_Panics(t *testing.T) {
	tw := NewTimeWeighted(5, 0)
	assert.Panics(t, func() { tw.Update(4, 1) })
}
