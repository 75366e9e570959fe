package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pythonhealthdatascience/pydesrap-stroke/sim"
	"github.com/pythonhealthdatascience/pydesrap-stroke/sim/replication"
)

func ptr(v float64) *float64 { return &v }

func TestOptional(t *testing.T) {
	assert.Equal(t, "-", optional(nil))
	assert.Equal(t, "0.1235", optional(ptr(0.12345)))
}

func sampleSelection() selectionReport {
	return selectionReport{
		Experiment: "exp",
		Precision:  0.05,
		Selection: replication.Selection{
			Replications: 8,
			Outcomes: []replication.Outcome{
				{Metric: "asu.mean_demand", Solution: 3, Converged: true, Replications: 8, History: []replication.Row{
					{Replications: 1, Data: 8, CumulativeMean: 8},
					{Replications: 3, Data: 8, CumulativeMean: 8, StdDev: ptr(0), LowerCI: ptr(8), UpperCI: ptr(8), Deviation: ptr(0)},
				}},
				{Metric: "rehab.mean_demand", Replications: 8},
			},
		},
	}
}

func TestWriteSelectionReport_Text(t *testing.T) {
	// GIVEN one converged and one unconverged metric
	report := sampleSelection()

	// WHEN written with history
	var buf bytes.Buffer
	require.NoError(t, writeSelectionReport(&buf, formatText, report, true))

	// THEN the unconverged solution shows as "-" and history rows follow
	lines := strings.Split(buf.String(), "\n")
	assert.Contains(t, buf.String(), "8 replications run, precision 0.050")
	assert.Regexp(t, `^asu\.mean_demand\s+3\s+true\s+8$`, lines[3])
	assert.Regexp(t, `^rehab\.mean_demand\s+-\s+false\s+8$`, lines[4])
	assert.Contains(t, buf.String(), "cumulative_mean")
	assert.Len(t, report.Selection.Outcomes[0].History, 2)
}

func TestWriteSelectionReport_WithoutHistoryLeavesInputIntact(t *testing.T) {
	report := sampleSelection()
	var buf bytes.Buffer
	require.NoError(t, writeSelectionReport(&buf, formatYAML, report, false))
	assert.NotContains(t, buf.String(), "history")
	assert.Len(t, report.Selection.Outcomes[0].History, 2)
}

func TestWriteRunReport_UndefinedValues(t *testing.T) {
	// GIVEN a summary whose interval is undefined
	report := runReport{
		Experiment:   "exp",
		Replications: 2,
		Summary:      []replication.MetricSummary{{Metric: "asu.mean_wait"}},
		Occupancy:    []stationOccupancy{{Station: "asu", Capacity: 10, Rows: sim.OccupancyFrequency([]int{3, 4})}},
	}
	report.Summary[0].N = 2
	report.Summary[0].Mean = ptr(1.5)

	// WHEN written as text
	var buf bytes.Buffer
	require.NoError(t, writeRunReport(&buf, formatText, report))

	// THEN undefined columns are dashes
	assert.Regexp(t, `asu\.mean_wait\s+2\s+1\.5000\s+-\s+-\s+-`, buf.String())
	assert.Contains(t, buf.String(), "asu (capacity 10, delay probability 0.0000)")
}

func TestCheckFormat(t *testing.T) {
	assert.NoError(t, checkFormat("text"))
	assert.NoError(t, checkFormat("yaml"))
	assert.ErrorIs(t, checkFormat("json"), sim.ErrInvalidConfig)
}
