// Package replication runs independent replications of the simulation and
// decides how many are needed for a target precision.
package replication

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/pythonhealthdatascience/pydesrap-stroke/sim"
)

// AllCPUs requests one worker per available CPU.
const AllCPUs = -1

// Runner executes replications of one parameter set. Each replication owns
// its simulator and random streams, so results depend only on the
// replication index, never on the worker count.
type Runner struct {
	param   sim.Param
	workers int
}

// NewRunner validates p and the worker count. workers may be AllCPUs or a
// number between 1 and runtime.NumCPU().
func NewRunner(p sim.Param, workers int) (*Runner, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	cpus := runtime.NumCPU()
	switch {
	case workers == AllCPUs:
		workers = cpus
	case workers < 1 || workers > cpus:
		return nil, fmt.Errorf("%w: workers must be -1 or between 1 and %d, got %d", sim.ErrInvalidConfig, cpus, workers)
	}
	return &Runner{param: p.Clone(), workers: workers}, nil
}

// Workers returns the number of concurrent replications.
func (r *Runner) Workers() int { return r.workers }

// Param returns a copy of the runner's parameters.
func (r *Runner) Param() sim.Param { return r.param.Clone() }

// RunSingle runs replication rep.
func (r *Runner) RunSingle(rep int) (*sim.RunResult, error) {
	s, err := sim.NewSimulator(r.param, rep)
	if err != nil {
		return nil, err
	}
	return s.Run(), nil
}

// RunRange runs replications start..start+count-1 and returns their results
// in replication order. Replications already started always finish; ctx is
// checked before each one starts.
func (r *Runner) RunRange(ctx context.Context, start, count int) ([]*sim.RunResult, error) {
	results := make([]*sim.RunResult, count)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i := 0; i < count; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := r.RunSingle(start + i)
			if err != nil {
				return fmt.Errorf("replication %d: %w", start+i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// RunReplications runs the configured number of replications.
func (r *Runner) RunReplications(ctx context.Context) ([]*sim.RunResult, error) {
	n := r.param.Run.Replications
	logrus.Infof("Running %d replications on %d workers", n, r.workers)
	return r.RunRange(ctx, 0, n)
}

// RunMetrics implements Source: it runs a range of replications and returns
// their scalar metrics.
func (r *Runner) RunMetrics(ctx context.Context, start, count int) ([]map[string]float64, error) {
	results, err := r.RunRange(ctx, start, count)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]float64, len(results))
	for i, res := range results {
		out[i] = res.Metrics
	}
	return out, nil
}

// MetricValues collects one metric across results, in order. Replications
// where the metric is undefined contribute NaN.
func MetricValues(results []*sim.RunResult, metric string) []float64 {
	out := make([]float64, len(results))
	for i, res := range results {
		v, ok := res.Metrics[metric]
		if !ok {
			v = math.NaN()
		}
		out[i] = v
	}
	return out
}
