package sim

import (
	"math"
	"sort"

	"github.com/pythonhealthdatascience/pydesrap-stroke/sim/trace"
)

// OccupancyRow is one bucket of an occupancy frequency table.
type OccupancyRow struct {
	Beds   int     `yaml:"beds"`  // occupancy level: patients present
	Freq   int     `yaml:"freq"`  // audit samples at this level
	Pct    float64 `yaml:"pct"`   // fraction of samples at this level
	CumPct float64 `yaml:"c_pct"` // fraction of samples at or below this level

	// ProbDelay is the chance that demand exceeds Beds slots: 1 - CumPct.
	ProbDelay float64 `yaml:"prob_delay"`
	// ProbFull is Pct/CumPct, the chance that a station with Beds slots is
	// full given that it can hold its demand.
	ProbFull float64 `yaml:"prob_full"`
}

// OccupancyFrequency tabulates occupancy levels. Only observed levels get a
// row; rows are sorted by level.
func OccupancyFrequency(levels []int) []OccupancyRow {
	if len(levels) == 0 {
		return nil
	}
	counts := map[int]int{}
	for _, l := range levels {
		counts[l]++
	}
	keys := make([]int, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	rows := make([]OccupancyRow, len(keys))
	total := float64(len(levels))
	cum := 0
	for i, k := range keys {
		cum += counts[k]
		pct := float64(counts[k]) / total
		cumPct := float64(cum) / total
		rows[i] = OccupancyRow{
			Beds:      k,
			Freq:      counts[k],
			Pct:       pct,
			CumPct:    cumPct,
			ProbDelay: math.Max(0, 1-cumPct),
			ProbFull:  pct / cumPct,
		}
	}
	return rows
}

// DelayProbability returns 1 minus the fraction of samples with occupancy at
// or below capacity. Levels missing from rows contribute nothing.
func DelayProbability(rows []OccupancyRow, capacity int) float64 {
	cum := 0.0
	for _, r := range rows {
		if r.Beds > capacity {
			break
		}
		cum += r.Pct
	}
	return math.Max(0, 1-cum)
}

// Measures recorded per station in RunResult.Metrics.
const (
	MeasureUtilization      = "utilization"
	MeasureMeanInUse        = "mean_in_use"
	MeasureStdDevInUse      = "std_dev_in_use"
	MeasureMeanQueue        = "mean_queue"
	MeasureMeanWait         = "mean_wait"
	MeasureMeanDemand       = "mean_demand"
	MeasureDelayProbability = "delay_probability"
)

// MetricArrivals counts arrivals during data collection.
const MetricArrivals = "arrivals"

// Metric names the measure of a station, e.g. "asu.delay_probability".
func Metric(station, measure string) string {
	return station + "." + measure
}

// RunResult is the output of one replication. It is not modified once Run
// returns.
type RunResult struct {
	Replication int     `yaml:"replication"`
	Seed        int64   `yaml:"seed"`
	WarmUp      float64 `yaml:"warm_up"`
	RunLength   float64 `yaml:"run_length"`
	Arrivals    int     `yaml:"arrivals"`
	Departures  int     `yaml:"departures"`
	InSystem    int     `yaml:"in_system"`

	Resources map[string]ResourceSummary `yaml:"resources"`
	Occupancy map[string][]OccupancyRow  `yaml:"occupancy"`
	Capacity  map[string]int             `yaml:"capacity"` // slots usable per station
	Metrics   map[string]float64         `yaml:"metrics"`
	Audit     []AuditSample              `yaml:"-"`

	// Set only when patient tracing is on.
	Trace        *trace.PatientTrace `yaml:"-"`
	TraceSummary *trace.Summary      `yaml:"trace,omitempty"`
}

// Stations returns the stations with an occupancy table, sorted.
func (r *RunResult) Stations() []string {
	names := make([]string, 0, len(r.Occupancy))
	for n := range r.Occupancy {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DelayProbability returns the delay probability of station at its capacity.
func (r *RunResult) DelayProbability(station string) float64 {
	return DelayProbability(r.Occupancy[station], r.Capacity[station])
}
