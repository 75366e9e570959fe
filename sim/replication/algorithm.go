package replication

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/pythonhealthdatascience/pydesrap-stroke/sim"
)

// AlgorithmConfig controls the replications algorithm.
type AlgorithmConfig struct {
	Alpha               float64 `yaml:"alpha" validate:"gt=0,lt=1"`
	Precision           float64 `yaml:"precision" validate:"gt=0"`
	InitialReplications int     `yaml:"initial_replications" validate:"gte=0"`
	Minimum             int     `yaml:"minimum" validate:"gte=0"`
	LookAhead           int     `yaml:"look_ahead" validate:"gte=0"`
	Budget              int     `yaml:"budget" validate:"gte=1,gtefield=InitialReplications"`
	BatchSize           int     `yaml:"batch_size" validate:"gte=1"`
}

// DefaultAlgorithmConfig returns the standard settings: 95% intervals within
// 5% of the mean, held for 5 further replications.
func DefaultAlgorithmConfig() AlgorithmConfig {
	return AlgorithmConfig{
		Alpha:               0.05,
		Precision:           0.05,
		InitialReplications: 3,
		Minimum:             3,
		LookAhead:           5,
		Budget:              1000,
		BatchSize:           1,
	}
}

// Validate reports an invalid configuration wrapped in sim.ErrInvalidConfig.
func (c AlgorithmConfig) Validate() error {
	return sim.ValidateStruct(c)
}

// Source produces scalar metrics for a contiguous range of replications,
// returned in replication order.
type Source interface {
	RunMetrics(ctx context.Context, start, count int) ([]map[string]float64, error)
}

// Outcome is the decision for one metric.
type Outcome struct {
	Metric string `yaml:"metric"`
	State  State  `yaml:"-"`
	// Solution is the number of replications needed, zero unless converged.
	Solution     int   `yaml:"solution"`
	Converged    bool  `yaml:"converged"`
	Replications int   `yaml:"replications"`
	History      []Row `yaml:"history,omitempty"`
}

// Estimate returns the final row of the history.
func (o Outcome) Estimate() (Row, bool) {
	if len(o.History) == 0 {
		return Row{}, false
	}
	return o.History[len(o.History)-1], true
}

// Selection is the result of a replications algorithm run.
type Selection struct {
	Outcomes     []Outcome `yaml:"outcomes"`
	Replications int       `yaml:"replications"`
}

// Converged reports whether every metric reached the precision target.
func (s *Selection) Converged() bool {
	for _, o := range s.Outcomes {
		if !o.Converged {
			return false
		}
	}
	return true
}

// Solutions maps each converged metric to its solution.
func (s *Selection) Solutions() map[string]int {
	out := make(map[string]int, len(s.Outcomes))
	for _, o := range s.Outcomes {
		if o.Converged {
			out[o.Metric] = o.Solution
		}
	}
	return out
}

// Algorithm chooses the number of replications for a target precision.
// Replications run in batches but are always evaluated in replication order.
type Algorithm struct {
	cfg AlgorithmConfig
}

// NewAlgorithm validates cfg.
func NewAlgorithm(cfg AlgorithmConfig) (*Algorithm, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Algorithm{cfg: cfg}, nil
}

// Config returns the algorithm settings.
func (a *Algorithm) Config() AlgorithmConfig { return a.cfg }

// Select runs replications from src until every metric has converged or the
// budget is spent. Running out of budget is not an error: the affected
// outcomes are reported with Converged false.
func (a *Algorithm) Select(ctx context.Context, src Source, metrics []string) (*Selection, error) {
	if err := checkMetrics(metrics); err != nil {
		return nil, err
	}
	trackers := make([]*Tracker, len(metrics))
	for i, m := range metrics {
		trackers[i] = NewTracker(m, a.cfg)
	}

	n := 0
	if err := a.feed(ctx, src, trackers, n, a.cfg.InitialReplications, false); err != nil {
		return nil, err
	}
	n = a.cfg.InitialReplications
	for _, t := range trackers {
		if t.Check() {
			logConverged(t, n)
		}
	}

	for anyActive(trackers) && n < a.cfg.Budget {
		count := min(a.cfg.BatchSize, a.cfg.Budget-n)
		if err := a.feed(ctx, src, trackers, n, count, true); err != nil {
			return nil, err
		}
		n += count
	}

	sel := &Selection{Replications: n}
	for _, t := range trackers {
		if t.Active() {
			t.Exhaust()
			logrus.WithField("metric", t.Metric()).Warnf("Precision %.3f not reached within %d replications", a.cfg.Precision, a.cfg.Budget)
		}
		sol, ok := t.Solution()
		sel.Outcomes = append(sel.Outcomes, Outcome{
			Metric:       t.Metric(),
			State:        t.State(),
			Solution:     sol,
			Converged:    ok,
			Replications: t.N(),
			History:      t.History(),
		})
	}
	return sel, nil
}

// feed runs count replications starting at start and passes each value to
// the trackers still collecting. When check is set, convergence is tested
// after every replication so that a metric stops at the first qualifying one.
func (a *Algorithm) feed(ctx context.Context, src Source, trackers []*Tracker, start, count int, check bool) error {
	if count == 0 {
		return nil
	}
	logrus.Debugf("Running replications %d to %d", start, start+count-1)
	rows, err := src.RunMetrics(ctx, start, count)
	if err != nil {
		return err
	}
	if len(rows) != count {
		return fmt.Errorf("replication source returned %d results for %d replications", len(rows), count)
	}
	for i, row := range rows {
		for _, t := range trackers {
			if !t.Active() {
				continue
			}
			v, ok := row[t.Metric()]
			if !ok || math.IsNaN(v) {
				return fmt.Errorf("metric %q undefined in replication %d", t.Metric(), start+i)
			}
			t.Observe(v)
			if check && t.Check() {
				logConverged(t, start+i+1)
			}
		}
	}
	return nil
}

func checkMetrics(metrics []string) error {
	if len(metrics) == 0 {
		return fmt.Errorf("%w: no metrics to select replications for", sim.ErrInvalidConfig)
	}
	seen := make(map[string]bool, len(metrics))
	for _, m := range metrics {
		if seen[m] {
			return fmt.Errorf("%w: metric %q listed twice", sim.ErrInvalidConfig, m)
		}
		seen[m] = true
	}
	return nil
}

func anyActive(trackers []*Tracker) bool {
	for _, t := range trackers {
		if t.Active() {
			return true
		}
	}
	return false
}

func logConverged(t *Tracker, n int) {
	sol, _ := t.Solution()
	logrus.WithField("metric", t.Metric()).Infof("Precision held from replication %d (confirmed at %d)", sol, n)
}
