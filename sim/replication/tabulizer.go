package replication

import "github.com/pythonhealthdatascience/pydesrap-stroke/sim/stats"

// Row is one replication of a cumulative statistics table. Undefined values
// are nil.
type Row struct {
	Replications   int      `yaml:"replications"`
	Data           float64  `yaml:"data"`
	CumulativeMean float64  `yaml:"cumulative_mean"`
	StdDev         *float64 `yaml:"stdev"`
	LowerCI        *float64 `yaml:"lower_ci"`
	UpperCI        *float64 `yaml:"upper_ci"`
	Deviation      *float64 `yaml:"deviation"`
}

// Tabulizer records the state of an OnlineStatistics after every update.
type Tabulizer struct {
	rows []Row
}

// Record appends the current state of s.
func (t *Tabulizer) Record(s *stats.OnlineStatistics) {
	mean, _ := s.Mean()
	row := Row{Replications: s.N(), Data: s.Last(), CumulativeMean: mean}
	if sd, ok := s.StdDev(); ok {
		row.StdDev = &sd
	}
	if lo, hi, ok := s.CI(); ok {
		row.LowerCI, row.UpperCI = &lo, &hi
	}
	if dev, ok := s.Deviation(); ok {
		row.Deviation = &dev
	}
	t.rows = append(t.rows, row)
}

// Len returns the number of rows.
func (t *Tabulizer) Len() int { return len(t.rows) }

// Rows returns a copy of the table.
func (t *Tabulizer) Rows() []Row {
	return append([]Row(nil), t.rows...)
}
