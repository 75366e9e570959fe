package stats

import "math"

// Summary describes a sample across replications. Undefined entries are nil.
type Summary struct {
	N       int      `yaml:"n"`
	Mean    *float64 `yaml:"mean"`
	StdDev  *float64 `yaml:"std_dev"`
	CILower *float64 `yaml:"ci_lower"`
	CIUpper *float64 `yaml:"ci_upper"`
}

// Summarize computes mean, standard deviation and confidence interval of
// values at significance level alpha. NaN entries are skipped.
func Summarize(values []float64, alpha float64) Summary {
	s := NewOnlineStatistics(alpha)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		s.Update(v)
	}
	out := Summary{N: s.N()}
	if m, ok := s.Mean(); ok {
		out.Mean = &m
	}
	if sd, ok := s.StdDev(); ok {
		out.StdDev = &sd
	}
	if lo, hi, ok := s.CI(); ok {
		out.CILower, out.CIUpper = &lo, &hi
	}
	return out
}
