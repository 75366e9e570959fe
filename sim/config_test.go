package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultParam_IsValid(t *testing.T) {
	require.NoError(t, DefaultParam().Validate())
	assert.Equal(t, []Unit{ASU, Rehab}, DefaultParam().Units())
	assert.Equal(t, 365.0*8, DefaultParam().RunLength())
}

func TestValidate_RoutingToleranceBand(t *testing.T) {
	tests := []struct {
		name    string
		probs   map[Destination]float64
		wantErr bool
	}{
		{"exact", map[Destination]float64{ToESD: 0.5, ToOther: 0.5}, false},
		{"rounded low", map[Destination]float64{ToESD: 0.5, ToOther: 0.48}, false},
		{"rounded high", map[Destination]float64{ToESD: 0.5, ToOther: 0.52}, false},
		{"far too low", map[Destination]float64{ToESD: 0.4, ToOther: 0.4}, true},
		{"far too high", map[Destination]float64{ToESD: 0.6, ToOther: 0.6}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN the default parameters with one routing row replaced
			p := DefaultParam()
			p.Routing[Rehab][Neuro] = tt.probs

			// WHEN validated
			err := p.Validate()

			// THEN only sums outside 1±0.02 are rejected
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_RoutingToleranceIsConfigurable(t *testing.T) {
	// GIVEN a routing row summing to 0.95
	p := DefaultParam()
	p.Routing[Rehab][Neuro] = map[Destination]float64{ToESD: 0.05, ToOther: 0.90}
	require.ErrorIs(t, p.Validate(), ErrInvalidConfig)

	// WHEN the tolerance widens THEN it is accepted
	p.Run.RoutingTolerance = 0.05
	assert.NoError(t, p.Validate())
}

func TestValidate_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Param)
	}{
		{"negative warm-up", func(p *Param) { p.Run.WarmUp = -1 }},
		{"negative data collection", func(p *Param) { p.Run.DataCollection = -1 }},
		{"zero audit interval", func(p *Param) { p.Run.AuditInterval = 0 }},
		{"zero replications", func(p *Param) { p.Run.Replications = 0 }},
		{"alpha of one", func(p *Param) { p.Run.Alpha = 1 }},
		{"zero arrival mean", func(p *Param) { p.Arrivals[ASU][Stroke] = 0 }},
		{"negative los mean", func(p *Param) { p.LOS[ASU][RoutingKey{TIA, AnyDestination}] = LOSParams{Mean: -1, SD: 1} }},
		{"negative los sd", func(p *Param) { p.LOS[Rehab][RoutingKey{Neuro, AnyDestination}] = LOSParams{Mean: 1, SD: -1} }},
		{"probability above one", func(p *Param) {
			p.Routing[ASU][TIA] = map[Destination]float64{ToRehab: 1.5, ToOther: -0.5}
		}},
		{"negative capacity", func(p *Param) { p.Capacity.Beds[ASU] = -1 }},
		{"zero capacity with demand", func(p *Param) { p.Capacity.Beds[Rehab] = 0 }},
		{"missing bed count", func(p *Param) { delete(p.Capacity.Beds, Rehab) }},
		{"missing routing", func(p *Param) { delete(p.Routing[Rehab], TIA) }},
		{"missing los", func(p *Param) { delete(p.LOS[ASU], RoutingKey{Neuro, AnyDestination}) }},
		{"pool reservation above beds", func(p *Param) { p.Capacity.Pool = &PoolParam{Beds: 2, ReservedFor: ASU, Reserved: 3} }},
		{"pool without shared beds", func(p *Param) { p.Capacity.Pool = &PoolParam{Beds: 2, ReservedFor: ASU, Reserved: 2} }},
		{"pool reserved for unknown unit", func(p *Param) { p.Capacity.Pool = &PoolParam{Beds: 2, ReservedFor: "icu", Reserved: 1} }},
		{"nil arrivals", func(p *Param) { p.Arrivals = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParam()
			tt.mutate(&p)
			err := p.Validate()
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestValidate_ZeroCapacityWithoutDemandIsAccepted(t *testing.T) {
	// GIVEN no arrivals at rehab and no transfers into it
	p := DefaultParam()
	delete(p.Arrivals, Rehab)
	p.Transfers = nil
	for _, probs := range p.Routing[ASU] {
		probs[ToOther] += probs[ToRehab]
		probs[ToRehab] = 0
	}

	// WHEN rehab has no beds
	p.Capacity.Beds[Rehab] = 0

	// THEN nothing can deadlock and the configuration is valid
	assert.NoError(t, p.Validate())
}

func TestParam_ScenarioHelpers_DoNotMutateOriginal(t *testing.T) {
	// GIVEN the default parameters
	base := DefaultParam()

	// WHEN scenarios are derived
	halved := base.ScaleArrivals(2)
	excluded := base.ExcludePatientType(Stroke)
	pooled := base.WithPool(22, ASU, 2)
	bigger := base.WithBeds(ASU, 15)

	// THEN only the copies change
	assert.Equal(t, 1.2, base.Arrivals[ASU][Stroke])
	assert.Equal(t, 2.4, halved.Arrivals[ASU][Stroke])
	assert.Equal(t, 63.4, halved.Arrivals[Rehab][Neuro])
	assert.InEpsilon(t, 1.2*ExclusionFactor, excluded.Arrivals[ASU][Stroke], 1e-12)
	assert.InEpsilon(t, 21.8*ExclusionFactor, excluded.Arrivals[Rehab][Stroke], 1e-12)
	assert.Equal(t, 9.3, excluded.Arrivals[ASU][TIA])
	assert.Nil(t, base.Capacity.Pool)
	require.NotNil(t, pooled.Capacity.Pool)
	assert.Equal(t, 22, pooled.Capacity.Pool.Beds)
	assert.Equal(t, 10, base.Capacity.Beds[ASU])
	assert.Equal(t, 15, bigger.Capacity.Beds[ASU])
	for _, p := range []Param{halved, excluded, pooled, bigger} {
		assert.NoError(t, p.Validate())
	}
}

func TestParam_Clone_IsDeep(t *testing.T) {
	// GIVEN a clone
	p := DefaultParam().WithPool(20, ASU, 1)
	c := p.Clone()

	// WHEN every nested map of the clone is edited
	c.Arrivals[ASU][Stroke] = 99
	c.LOS[ASU][RoutingKey{Stroke, ToESD}] = LOSParams{Mean: 99}
	c.Routing[ASU][Stroke][ToESD] = 0.99
	c.Transfers[ToESD] = ASU
	c.Capacity.Beds[ASU] = 99
	c.Capacity.Pool.Beds = 99

	// THEN the original is untouched
	assert.Equal(t, 1.2, p.Arrivals[ASU][Stroke])
	assert.Equal(t, 4.6, p.LOS[ASU][RoutingKey{Stroke, ToESD}].Mean)
	assert.Equal(t, 0.13, p.Routing[ASU][Stroke][ToESD])
	_, ok := p.Transfers[ToESD]
	assert.False(t, ok)
	assert.Equal(t, 10, p.Capacity.Beds[ASU])
	assert.Equal(t, 20, p.Capacity.Pool.Beds)
}
