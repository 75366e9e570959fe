package replication

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pythonhealthdatascience/pydesrap-stroke/sim"
	"github.com/pythonhealthdatascience/pydesrap-stroke/sim/stats"
)

func TestSummaryTable_SortedAndSkipsUndefined(t *testing.T) {
	// GIVEN three replications, one with an undefined wait
	results := []*sim.RunResult{
		{Metrics: map[string]float64{"b": 1, "a": 10}},
		{Metrics: map[string]float64{"b": 2, "a": math.NaN()}},
		{Metrics: map[string]float64{"b": 3, "a": 20}},
	}

	// WHEN summarized
	table := SummaryTable(results, 0.05)

	// THEN rows are sorted by name and NaN values are left out
	require.Len(t, table, 2)
	assert.Equal(t, "a", table[0].Metric)
	assert.Equal(t, 2, table[0].N)
	require.NotNil(t, table[0].Mean)
	assert.Equal(t, 15.0, *table[0].Mean)
	assert.Nil(t, table[0].CILower)

	assert.Equal(t, "b", table[1].Metric)
	assert.Equal(t, stats.Summarize([]float64{1, 2, 3}, 0.05), table[1].Summary)
}

func TestPooledOccupancy(t *testing.T) {
	// GIVEN two replications with audit samples for the ASU
	sample := func(inUse, queued int) sim.AuditSample {
		return sim.AuditSample{InUse: map[string]int{"asu": inUse}, Queued: map[string]int{"asu": queued}}
	}
	results := []*sim.RunResult{
		{Capacity: map[string]int{"asu": 2}, Audit: []sim.AuditSample{sample(1, 0), sample(2, 0)}},
		{Capacity: map[string]int{"asu": 2}, Audit: []sim.AuditSample{sample(2, 1), sample(1, 0)}},
	}

	// WHEN pooled
	rows := PooledOccupancy(results, "asu")

	// THEN all four samples count, and one in four exceeds capacity
	require.Len(t, rows, 3)
	assert.Equal(t, 2, rows[0].Freq)
	assert.Equal(t, 1, rows[1].Freq)
	assert.Equal(t, 1, rows[2].Freq)
	assert.InDelta(t, 0.25, PooledDelayProbability(results, "asu"), 1e-12)
	assert.Zero(t, PooledDelayProbability(nil, "asu"))
}

func TestTabulizer_Rows(t *testing.T) {
	s := stats.NewOnlineStatistics(0.05)
	var tab Tabulizer
	for _, v := range []float64{10, 20, 30} {
		s.Update(v)
		tab.Record(s)
	}
	rows := tab.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, 3, tab.Len())
	assert.Equal(t, Row{Replications: 1, Data: 10, CumulativeMean: 10}, rows[0])
	assert.Nil(t, rows[1].LowerCI)
	require.NotNil(t, rows[2].StdDev)
	assert.InDelta(t, 10.0, *rows[2].StdDev, 1e-12)
	require.NotNil(t, rows[2].Deviation)
	assert.InDelta(t, (*rows[2].UpperCI-20)/20, *rows[2].Deviation, 1e-9)
}
