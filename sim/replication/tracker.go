package replication

import (
	"github.com/pythonhealthdatascience/pydesrap-stroke/sim/stats"
)

// State is the lifecycle of a metric inside the replications algorithm.
type State int

const (
	Collecting State = iota
	Checking
	Converged
	Exhausted
)

func (s State) String() string {
	switch s {
	case Collecting:
		return "collecting"
	case Checking:
		return "checking"
	case Converged:
		return "converged"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// precisionMet reports whether the confidence interval of s is narrow
// enough. With a zero mean the half-width itself is compared to precision.
func precisionMet(s *stats.OnlineStatistics, precision float64) bool {
	if dev, ok := s.Deviation(); ok {
		return dev <= precision
	}
	mean, ok := s.Mean()
	if !ok || mean != 0 {
		return false
	}
	hw, ok := s.HalfWidth()
	return ok && hw <= precision
}

// Tracker follows one metric through the replications algorithm. It records
// whether precision held after every replication so that, once the streak
// is long enough, the earliest stable replication count can be recovered.
type Tracker struct {
	metric    string
	precision float64
	minimum   int
	lookAhead int

	stats *stats.OnlineStatistics
	table Tabulizer

	met      []bool // met[i] covers the first i+1 replications
	streak   int
	state    State
	solution int
}

// NewTracker returns a tracker for metric in the Collecting state.
func NewTracker(metric string, cfg AlgorithmConfig) *Tracker {
	return &Tracker{
		metric:    metric,
		precision: cfg.Precision,
		minimum:   cfg.Minimum,
		lookAhead: cfg.LookAhead,
		stats:     stats.NewOnlineStatistics(cfg.Alpha),
	}
}

// Metric returns the tracked metric name.
func (t *Tracker) Metric() string { return t.metric }

// State returns the current state.
func (t *Tracker) State() State { return t.state }

// Active reports whether the tracker still accepts observations.
func (t *Tracker) Active() bool { return t.state == Collecting }

// N returns the number of replications observed.
func (t *Tracker) N() int { return len(t.met) }

// Streak returns the number of consecutive replications, counted from the
// minimum, that met the precision target.
func (t *Tracker) Streak() int { return t.streak }

// Solution returns the earliest replication count from which precision held
// continuously. It is only meaningful once Converged.
func (t *Tracker) Solution() (int, bool) {
	return t.solution, t.state == Converged
}

// Observe adds the next replication's value.
func (t *Tracker) Observe(x float64) {
	if !t.Active() {
		panic("replication: observe on a finished tracker " + t.metric)
	}
	t.stats.Update(x)
	t.table.Record(t.stats)
	t.record(precisionMet(t.stats, t.precision))
}

// record appends the outcome of the latest replication. The streak only
// counts replications at or beyond the minimum and restarts on any miss.
func (t *Tracker) record(met bool) {
	t.met = append(t.met, met)
	if len(t.met) < t.minimum {
		return
	}
	if met {
		t.streak++
	} else {
		t.streak = 0
	}
}

// KLimit returns the streak length needed to converge. It grows with the
// number of replications once more than 100 have run.
func (t *Tracker) KLimit() int {
	return klimit(t.lookAhead, len(t.met))
}

func klimit(lookAhead, n int) int {
	return lookAhead * max(n, 100) / 100
}

// Check moves the tracker to Converged when the streak has reached the
// lookahead limit, recording the earliest stable replication count.
func (t *Tracker) Check() bool {
	if !t.Active() {
		return t.state == Converged
	}
	if t.streak < max(t.KLimit(), 1) {
		return false
	}
	t.state = Checking
	t.solution = t.earliest()
	t.state = Converged
	return true
}

// earliest searches backwards from the latest replication for the first
// count, at or beyond the minimum, from which precision was met without a
// break.
func (t *Tracker) earliest() int {
	lo := max(t.minimum, 1)
	k := len(t.met)
	for k-1 >= lo && t.met[k-2] {
		k--
	}
	return k
}

// Exhaust marks the tracker as out of budget.
func (t *Tracker) Exhaust() {
	if t.Active() {
		t.state = Exhausted
	}
}

// Stats exposes the cumulative statistics.
func (t *Tracker) Stats() *stats.OnlineStatistics { return t.stats }

// History returns the cumulative statistics after each replication.
func (t *Tracker) History() []Row { return t.table.Rows() }
