package sim

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func sampleN(s Sampler, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = s.Sample()
	}
	return out
}

func TestLognormalMoments_RecoverMeanAndSD(t *testing.T) {
	// GIVEN the stroke ASU length of stay (mean 7.4, sd 8.61)
	mu, sigma := lognormalMoments(7.4, 8.61*8.61)

	// THEN the implied lognormal has that mean and variance
	mean := math.Exp(mu + sigma*sigma/2)
	variance := (math.Exp(sigma*sigma) - 1) * math.Exp(2*mu+sigma*sigma)
	assert.InDelta(t, 7.4, mean, 1e-9)
	assert.InDelta(t, 8.61*8.61, variance, 1e-9)
}

func TestSamplers_SampleMeansMatchParameters(t *testing.T) {
	exp, err := NewExponentialSampler(3.2, rand.NewPCG(1, 2))
	require.NoError(t, err)
	ln, err := NewLogNormalSampler(4.0, 5.0, rand.NewPCG(3, 4))
	require.NoError(t, err)

	assert.InDelta(t, 3.2, exp.Mean(), 1e-12)
	assert.InDelta(t, 4.0, ln.Mean(), 1e-9)
	assert.InEpsilon(t, 3.2, stat.Mean(sampleN(exp, 100000), nil), 0.03)
	assert.InEpsilon(t, 4.0, stat.Mean(sampleN(ln, 100000), nil), 0.05)
}

func TestSamplers_SameSourceSameDraws(t *testing.T) {
	a, err := NewExponentialSampler(1.2, rand.NewPCG(42, 7))
	require.NoError(t, err)
	b, err := NewExponentialSampler(1.2, rand.NewPCG(42, 7))
	require.NoError(t, err)
	assert.Equal(t, sampleN(a, 10), sampleN(b, 10))
}

func TestSamplers_RejectInvalidParameters(t *testing.T) {
	src := rand.NewPCG(0, 0)
	_, err := NewExponentialSampler(0, src)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = NewLogNormalSampler(-1, 1, src)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = NewLogNormalSampler(1, -1, src)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = NewDestinationSampler(map[Destination]float64{ToESD: 0}, src)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = NewDestinationSampler(map[Destination]float64{ToESD: -0.1, ToOther: 1.1}, src)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestDestinationSampler_Frequencies(t *testing.T) {
	// GIVEN the ASU stroke routing
	probs := map[Destination]float64{ToRehab: 0.24, ToESD: 0.13, ToOther: 0.63}
	s, err := NewDestinationSampler(probs, rand.NewPCG(5, 6))
	require.NoError(t, err)

	// WHEN many destinations are drawn
	counts := map[Destination]int{}
	const n = 100000
	for i := 0; i < n; i++ {
		counts[s.Sample()]++
	}

	// THEN frequencies match the probabilities and zero-weight outcomes never occur
	for d, p := range probs {
		assert.InDelta(t, p, float64(counts[d])/n, 0.01, "destination %s", d)
	}

	never, err := NewDestinationSampler(map[Destination]float64{ToESD: 0, ToOther: 1}, rand.NewPCG(1, 1))
	require.NoError(t, err)
	for i := 0; i < 1000; i++ {
		require.Equal(t, ToOther, never.Sample())
	}
}
