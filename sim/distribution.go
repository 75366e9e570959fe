package sim

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Sampler draws durations in days from a distribution bound to one stream.
type Sampler interface {
	Sample() float64
}

// ExponentialSampler draws inter-arrival times.
type ExponentialSampler struct {
	dist distuv.Exponential
}

// NewExponentialSampler returns an exponential sampler with the given mean.
func NewExponentialSampler(mean float64, src rand.Source) (*ExponentialSampler, error) {
	if mean <= 0 || math.IsNaN(mean) {
		return nil, fmt.Errorf("%w: exponential mean must be > 0, got %g", ErrInvalidConfig, mean)
	}
	return &ExponentialSampler{dist: distuv.Exponential{Rate: 1 / mean, Src: src}}, nil
}

func (s *ExponentialSampler) Sample() float64 { return s.dist.Rand() }

// Mean returns the distribution mean.
func (s *ExponentialSampler) Mean() float64 { return s.dist.Mean() }

// LogNormalSampler draws lengths of stay parameterised by the mean and
// standard deviation of the stay itself rather than of its logarithm.
type LogNormalSampler struct {
	dist distuv.LogNormal
}

// NewLogNormalSampler returns a lognormal sampler with the given mean and sd.
func NewLogNormalSampler(mean, sd float64, src rand.Source) (*LogNormalSampler, error) {
	if mean <= 0 || sd < 0 {
		return nil, fmt.Errorf("%w: lognormal needs mean > 0 and sd >= 0, got %g/%g", ErrInvalidConfig, mean, sd)
	}
	mu, sigma := lognormalMoments(mean, sd*sd)
	return &LogNormalSampler{dist: distuv.LogNormal{Mu: mu, Sigma: sigma, Src: src}}, nil
}

func (s *LogNormalSampler) Sample() float64 { return s.dist.Rand() }

// Mean returns the distribution mean.
func (s *LogNormalSampler) Mean() float64 { return s.dist.Mean() }

// lognormalMoments converts the mean m and variance v of a lognormal variable
// into the mean and standard deviation of the underlying normal.
func lognormalMoments(m, v float64) (mu, sigma float64) {
	phi := math.Sqrt(v + m*m)
	mu = math.Log(m * m / phi)
	sigma = math.Sqrt(math.Log(phi * phi / (m * m)))
	return mu, sigma
}

// DestinationSampler draws a destination from fixed probabilities. The
// probabilities are used as weights, so a table summing to 1.01 is
// renormalised rather than rejected here.
type DestinationSampler struct {
	outcomes []Destination
	dist     distuv.Categorical
}

// NewDestinationSampler builds a sampler over probs. Outcomes are ordered by
// name so that draws do not depend on map iteration order.
func NewDestinationSampler(probs map[Destination]float64, src rand.Source) (*DestinationSampler, error) {
	outcomes := sortedDestinations(probs)
	weights := make([]float64, len(outcomes))
	total := 0.0
	for i, d := range outcomes {
		if probs[d] < 0 {
			return nil, fmt.Errorf("%w: negative probability %g for %s", ErrInvalidConfig, probs[d], d)
		}
		weights[i] = probs[d]
		total += probs[d]
	}
	if total <= 0 {
		return nil, fmt.Errorf("%w: destination probabilities sum to %g", ErrInvalidConfig, total)
	}
	return &DestinationSampler{outcomes: outcomes, dist: distuv.NewCategorical(weights, src)}, nil
}

// Sample returns one destination.
func (s *DestinationSampler) Sample() Destination {
	return s.outcomes[int(s.dist.Rand())]
}
