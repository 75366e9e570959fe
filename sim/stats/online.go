// Package stats provides O(1)-memory running estimators used by the
// simulation core and the replication tooling.
//
// Every estimator is updated one observation (or one weighted interval) at a
// time and never recomputed from stored history. Quantities that are not
// estimable from the data seen so far are reported as (0, false) rather than
// NaN so callers handle them explicitly.
package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultAlpha is the significance level used when none is configured.
const DefaultAlpha = 0.05

// MinObservations is the smallest sample for which the standard deviation and
// confidence interval are reported.
const MinObservations = 3

// OnlineStatistics tracks a running mean and sum of squared deviations using
// Welford's algorithm.
type OnlineStatistics struct {
	n     int
	last  float64
	mean  float64
	sq    float64
	alpha float64
}

// NewOnlineStatistics returns an estimator at significance level alpha,
// pre-loaded with data in order. alpha outside (0, 1) falls back to DefaultAlpha.
func NewOnlineStatistics(alpha float64, data ...float64) *OnlineStatistics {
	if alpha <= 0 || alpha >= 1 {
		alpha = DefaultAlpha
	}
	s := &OnlineStatistics{alpha: alpha}
	for _, x := range data {
		s.Update(x)
	}
	return s
}

// Update folds one observation into the running estimates.
func (s *OnlineStatistics) Update(x float64) {
	s.n++
	s.last = x
	delta := x - s.mean
	s.mean += delta / float64(s.n)
	s.sq += delta * (x - s.mean)
}

// N returns the number of observations.
func (s *OnlineStatistics) N() int { return s.n }

// Alpha returns the significance level.
func (s *OnlineStatistics) Alpha() float64 { return s.alpha }

// Last returns the most recent observation (0 before any update).
func (s *OnlineStatistics) Last() float64 { return s.last }

// Mean returns the running mean; undefined before the first observation.
func (s *OnlineStatistics) Mean() (float64, bool) {
	if s.n == 0 {
		return 0, false
	}
	return s.mean, true
}

// Variance returns the unbiased sample variance; undefined for n < 2.
func (s *OnlineStatistics) Variance() (float64, bool) {
	if s.n < 2 {
		return 0, false
	}
	return s.sq / float64(s.n-1), true
}

// StdDev returns the sample standard deviation; undefined for n < 3.
func (s *OnlineStatistics) StdDev() (float64, bool) {
	if s.n < MinObservations {
		return 0, false
	}
	v, _ := s.Variance()
	return math.Sqrt(v), true
}

// StdError returns the standard error of the mean; undefined for n < 3.
func (s *OnlineStatistics) StdError() (float64, bool) {
	sd, ok := s.StdDev()
	if !ok {
		return 0, false
	}
	return sd / math.Sqrt(float64(s.n)), true
}

// HalfWidth returns the Student-t confidence interval half-width with n-1
// degrees of freedom; undefined for n < 3.
func (s *OnlineStatistics) HalfWidth() (float64, bool) {
	se, ok := s.StdError()
	if !ok {
		return 0, false
	}
	return TCritical(s.alpha, s.n-1) * se, true
}

// CI returns the lower and upper confidence limits; undefined for n < 3.
func (s *OnlineStatistics) CI() (lower, upper float64, ok bool) {
	hw, ok := s.HalfWidth()
	if !ok {
		return 0, 0, false
	}
	return s.mean - hw, s.mean + hw, true
}

// Deviation returns the relative half-width, half-width / |mean|. It is
// undefined for n < 3 and when the mean is exactly zero.
func (s *OnlineStatistics) Deviation() (float64, bool) {
	hw, ok := s.HalfWidth()
	if !ok || s.mean == 0 {
		return 0, false
	}
	return hw / math.Abs(s.mean), true
}

// TCritical returns the two-sided Student-t critical value t(1-alpha/2, dof).
func TCritical(alpha float64, dof int) float64 {
	if dof < 1 {
		panic("stats: TCritical requires at least one degree of freedom")
	}
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(dof)}
	return t.Quantile(1 - alpha/2)
}
