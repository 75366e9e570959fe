package replication

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/pythonhealthdatascience/pydesrap-stroke/sim/stats"
)

// ConfidenceIntervalMethod walks a fixed set of replication values and
// returns the first replication count, at or beyond minimum, whose
// confidence interval is within precision. Unlike the replications
// algorithm it does not check that precision is maintained afterwards.
func ConfidenceIntervalMethod(values []float64, alpha, precision float64, minimum int) (int, bool, []Row) {
	s := stats.NewOnlineStatistics(alpha)
	var table Tabulizer
	solution := 0
	for _, v := range values {
		s.Update(v)
		table.Record(s)
		if solution == 0 && s.N() >= minimum && precisionMet(s, precision) {
			solution = s.N()
		}
	}
	if solution == 0 {
		logrus.Warnf("Precision %.3f not reached within %d replications", precision, len(values))
		return 0, false, table.Rows()
	}
	return solution, true, table.Rows()
}

// SelectByInterval runs the whole budget of replications from src in one
// batch and applies ConfidenceIntervalMethod to each metric. InitialReplications,
// LookAhead and BatchSize are not used.
func (a *Algorithm) SelectByInterval(ctx context.Context, src Source, metrics []string) (*Selection, error) {
	if err := checkMetrics(metrics); err != nil {
		return nil, err
	}
	rows, err := src.RunMetrics(ctx, 0, a.cfg.Budget)
	if err != nil {
		return nil, err
	}
	if len(rows) != a.cfg.Budget {
		return nil, fmt.Errorf("replication source returned %d results for %d replications", len(rows), a.cfg.Budget)
	}

	sel := &Selection{Replications: len(rows)}
	for _, m := range metrics {
		values := make([]float64, len(rows))
		for i, row := range rows {
			v, ok := row[m]
			if !ok || math.IsNaN(v) {
				return nil, fmt.Errorf("metric %q undefined in replication %d", m, i)
			}
			values[i] = v
		}
		sol, ok, history := ConfidenceIntervalMethod(values, a.cfg.Alpha, a.cfg.Precision, a.cfg.Minimum)
		state := Exhausted
		if ok {
			state = Converged
		}
		sel.Outcomes = append(sel.Outcomes, Outcome{
			Metric:       m,
			State:        state,
			Solution:     sol,
			Converged:    ok,
			Replications: len(values),
			History:      history,
		})
	}
	return sel, nil
}
