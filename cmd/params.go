package cmd

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/pythonhealthdatascience/pydesrap-stroke/sim"
	"github.com/pythonhealthdatascience/pydesrap-stroke/sim/trace"
)

// paramFlags holds the model flags shared by run and replications.
type paramFlags struct {
	seed           int64
	replications   int
	workers        int
	warmUp         float64
	dataCollection float64
	auditInterval  float64
	asuBeds        int
	rehabBeds      int
	pooledBeds     int
	reserveASU     int
	arrivalScale   float64
	exclude        []string
	trace          string
}

func (f *paramFlags) register(fs *pflag.FlagSet) {
	d := sim.DefaultParam()
	fs.Int64Var(&f.seed, "seed", d.Run.Seed, "Seed for the random number streams")
	fs.IntVar(&f.replications, "replications", d.Run.Replications, "Number of replications")
	fs.IntVar(&f.workers, "workers", d.Run.Workers, "Concurrent replications (-1 for every CPU)")
	fs.Float64Var(&f.warmUp, "warm-up", d.Run.WarmUp, "Warm-up period in days")
	fs.Float64Var(&f.dataCollection, "data-collection", d.Run.DataCollection, "Data collection period in days")
	fs.Float64Var(&f.auditInterval, "audit-interval", d.Run.AuditInterval, "Days between occupancy audits")
	fs.IntVar(&f.asuBeds, "asu-beds", d.Capacity.Beds[sim.ASU], "Beds on the acute stroke unit")
	fs.IntVar(&f.rehabBeds, "rehab-beds", d.Capacity.Beds[sim.Rehab], "Beds on the rehabilitation unit")
	fs.IntVar(&f.pooledBeds, "pooled-beds", 0, "Serve both units from one pool of this many beds")
	fs.IntVar(&f.reserveASU, "reserve-asu", 0, "Pooled beds kept for acute stroke unit patients")
	fs.Float64Var(&f.arrivalScale, "arrival-scale", 1, "Multiplier on every mean inter-arrival time")
	fs.StringSliceVar(&f.exclude, "exclude", nil, "Patient types to leave out (stroke, tia, neuro, other)")
	fs.StringVar(&f.trace, "trace", "", "Patient trace level (none, patients)")
}

// build assembles a validated Param: defaults, then any flag given
// explicitly.
func (f *paramFlags) build(fs *pflag.FlagSet) (sim.Param, error) {
	p := sim.DefaultParam()

	if fs.Changed("seed") {
		p.Run.Seed = f.seed
	}
	if fs.Changed("replications") {
		p.Run.Replications = f.replications
	}
	if fs.Changed("workers") {
		p.Run.Workers = f.workers
	}
	if fs.Changed("warm-up") {
		p.Run.WarmUp = f.warmUp
	}
	if fs.Changed("data-collection") {
		p.Run.DataCollection = f.dataCollection
	}
	if fs.Changed("audit-interval") {
		p.Run.AuditInterval = f.auditInterval
	}
	if fs.Changed("asu-beds") {
		p = p.WithBeds(sim.ASU, f.asuBeds)
	}
	if fs.Changed("rehab-beds") {
		p = p.WithBeds(sim.Rehab, f.rehabBeds)
	}
	if f.pooledBeds < 0 {
		return sim.Param{}, fmt.Errorf("%w: --pooled-beds must be >= 0, got %d", sim.ErrInvalidConfig, f.pooledBeds)
	}
	switch {
	case f.pooledBeds > 0:
		var reservedFor sim.Unit
		if f.reserveASU > 0 {
			reservedFor = sim.ASU
		}
		p = p.WithPool(f.pooledBeds, reservedFor, f.reserveASU)
	case f.reserveASU > 0:
		return sim.Param{}, fmt.Errorf("%w: --reserve-asu needs --pooled-beds", sim.ErrInvalidConfig)
	}
	if fs.Changed("arrival-scale") {
		if f.arrivalScale <= 0 {
			return sim.Param{}, fmt.Errorf("%w: --arrival-scale must be positive, got %v", sim.ErrInvalidConfig, f.arrivalScale)
		}
		p = p.ScaleArrivals(f.arrivalScale)
	}
	if fs.Changed("trace") {
		p.Run.Trace = trace.Level(f.trace)
	}
	for _, name := range f.exclude {
		t, err := parsePatientType(name)
		if err != nil {
			return sim.Param{}, err
		}
		p = p.ExcludePatientType(t)
	}

	if err := p.Validate(); err != nil {
		return sim.Param{}, err
	}
	return p, nil
}

func parsePatientType(name string) (sim.PatientType, error) {
	for _, t := range []sim.PatientType{sim.Stroke, sim.TIA, sim.Neuro, sim.OtherPatient} {
		if string(t) == name {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown patient type %q", sim.ErrInvalidConfig, name)
}
