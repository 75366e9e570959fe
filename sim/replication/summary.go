package replication

import (
	"sort"

	"github.com/pythonhealthdatascience/pydesrap-stroke/sim"
	"github.com/pythonhealthdatascience/pydesrap-stroke/sim/stats"
)

// MetricSummary summarizes one metric across replications.
type MetricSummary struct {
	Metric        string `yaml:"metric"`
	stats.Summary `yaml:",inline"`
}

// SummaryTable summarizes every metric reported by any replication, sorted
// by metric name. Undefined values are skipped.
func SummaryTable(results []*sim.RunResult, alpha float64) []MetricSummary {
	names := map[string]bool{}
	for _, r := range results {
		for m := range r.Metrics {
			names[m] = true
		}
	}
	metrics := make([]string, 0, len(names))
	for m := range names {
		metrics = append(metrics, m)
	}
	sort.Strings(metrics)

	out := make([]MetricSummary, 0, len(metrics))
	for _, m := range metrics {
		out = append(out, MetricSummary{Metric: m, Summary: stats.Summarize(MetricValues(results, m), alpha)})
	}
	return out
}

// PooledOccupancy builds one occupancy frequency table for station from
// the audit samples of all replications.
func PooledOccupancy(results []*sim.RunResult, station string) []sim.OccupancyRow {
	var levels []int
	for _, r := range results {
		levels = append(levels, sim.DemandSeries(r.Audit, station)...)
	}
	return sim.OccupancyFrequency(levels)
}

// PooledDelayProbability is the probability of delay at the station's
// capacity over all replications.
func PooledDelayProbability(results []*sim.RunResult, station string) float64 {
	if len(results) == 0 {
		return 0
	}
	return sim.DelayProbability(PooledOccupancy(results, station), results[0].Capacity[station])
}
