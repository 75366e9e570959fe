package sim

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pythonhealthdatascience/pydesrap-stroke/sim/trace"
)

// PatientType classifies patients for arrivals, routing and lengths of stay.
type PatientType string

const (
	Stroke       PatientType = "stroke"
	TIA          PatientType = "tia" // transient ischaemic attack
	Neuro        PatientType = "neuro"
	OtherPatient PatientType = "other"
)

// Unit names a care unit. Each unit is served by one resource lane.
type Unit string

const (
	ASU   Unit = "asu" // acute stroke unit
	Rehab Unit = "rehab"
)

// Destination is where a patient goes after a stay.
type Destination string

const (
	ToRehab Destination = "rehab"
	ToESD   Destination = "esd" // early supported discharge
	ToOther Destination = "other"

	// AnyDestination matches every destination in a length-of-stay table.
	AnyDestination Destination = "*"
)

// RoutingKey selects a length-of-stay distribution.
type RoutingKey struct {
	Type        PatientType
	Destination Destination
}

func (k RoutingKey) String() string {
	return string(k.Type) + "/" + string(k.Destination)
}

// MarshalText writes the key as "type/destination".
func (k RoutingKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses "type/destination" or a bare type, which matches any
// destination.
func (k *RoutingKey) UnmarshalText(text []byte) error {
	typ, dest, found := strings.Cut(string(text), "/")
	if typ == "" || (found && dest == "") {
		return fmt.Errorf("%w: routing key %q is not type/destination", ErrInvalidConfig, text)
	}
	if !found {
		dest = string(AnyDestination)
	}
	*k = RoutingKey{Type: PatientType(typ), Destination: Destination(dest)}
	return nil
}

// LOSParams holds the mean and standard deviation of a length of stay in days.
type LOSParams struct {
	Mean float64 `yaml:"mean" validate:"gt=0"`
	SD   float64 `yaml:"sd" validate:"gte=0"`
}

// Arrivals maps unit and patient type to the mean inter-arrival time in days.
type Arrivals map[Unit]map[PatientType]float64

// LengthsOfStay maps unit and routing key to LOS parameters. A key with
// AnyDestination is the fallback for its patient type.
type LengthsOfStay map[Unit]map[RoutingKey]LOSParams

// Routing maps unit and patient type to destination probabilities.
type Routing map[Unit]map[PatientType]map[Destination]float64

// Transfers maps a destination to the unit the patient attends next.
// Destinations not listed leave the system.
type Transfers map[Destination]Unit

// PoolParam describes a single bed pool serving every unit.
type PoolParam struct {
	Beds        int  `yaml:"beds" validate:"gte=0"`
	ReservedFor Unit `yaml:"reserved_for"` // lane allowed to use the reserved beds
	Reserved    int  `yaml:"reserved" validate:"gte=0"`
}

// CapacityParam holds bed numbers. When Pool is set it replaces Beds.
type CapacityParam struct {
	Beds map[Unit]int `yaml:"beds" validate:"dive,gte=0"`
	Pool *PoolParam   `yaml:"pool"`
}

// RunParam groups run length, replication and statistical settings.
type RunParam struct {
	WarmUp           float64 `yaml:"warm_up" validate:"gte=0"`         // days discarded before data collection
	DataCollection   float64 `yaml:"data_collection" validate:"gte=0"` // days of data collection
	AuditInterval    float64 `yaml:"audit_interval" validate:"gt=0"`   // days between audit samples
	Replications     int     `yaml:"replications" validate:"gte=1"`
	Workers          int     `yaml:"workers"` // -1 uses every CPU; checked by the runner
	Seed             int64   `yaml:"seed"`
	Alpha            float64 `yaml:"alpha" validate:"gt=0,lt=1"`
	RoutingTolerance float64 `yaml:"routing_tolerance" validate:"gte=0,lt=1"` // accepted |sum-1| of routing probabilities

	// Trace records every admission and routing decision when "patients".
	Trace trace.Level `yaml:"trace" validate:"trace_level"`
}

// Param is the full parameter set of the model. It is a value: NewSimulator
// and the scenario helpers deep-copy the maps, so a running model never
// observes later edits by the caller.
type Param struct {
	Arrivals  Arrivals      `yaml:"arrivals" validate:"required,dive,dive,gt=0"`
	LOS       LengthsOfStay `yaml:"los" validate:"required,dive,dive"`
	Routing   Routing       `yaml:"routing" validate:"required,dive,dive,dive,gte=0,lte=1"`
	Transfers Transfers     `yaml:"transfers"`
	Capacity  CapacityParam `yaml:"capacity"`
	Run       RunParam      `yaml:"run"`
}

// DefaultParam returns the parameters of the base case.
func DefaultParam() Param {
	return Param{
		Arrivals: Arrivals{
			ASU:   {Stroke: 1.2, TIA: 9.3, Neuro: 3.6, OtherPatient: 3.2},
			Rehab: {Stroke: 21.8, Neuro: 31.7, OtherPatient: 28.6},
		},
		LOS: LengthsOfStay{
			ASU: {
				{Stroke, ToESD}:                {Mean: 4.6, SD: 4.8},
				{Stroke, AnyDestination}:       {Mean: 7.4, SD: 8.61},
				{TIA, AnyDestination}:          {Mean: 1.8, SD: 2.3},
				{Neuro, AnyDestination}:        {Mean: 4.0, SD: 5.0},
				{OtherPatient, AnyDestination}: {Mean: 3.8, SD: 5.2},
			},
			Rehab: {
				{Stroke, ToESD}:                {Mean: 30.3, SD: 23.1},
				{Stroke, AnyDestination}:       {Mean: 28.4, SD: 27.2},
				{TIA, AnyDestination}:          {Mean: 18.7, SD: 23.5},
				{Neuro, AnyDestination}:        {Mean: 27.6, SD: 28.4},
				{OtherPatient, AnyDestination}: {Mean: 16.1, SD: 14.1},
			},
		},
		Routing: Routing{
			ASU: {
				Stroke:       {ToRehab: 0.24, ToESD: 0.13, ToOther: 0.63},
				TIA:          {ToRehab: 0.01, ToESD: 0.01, ToOther: 0.98},
				Neuro:        {ToRehab: 0.11, ToESD: 0.05, ToOther: 0.84},
				OtherPatient: {ToRehab: 0.05, ToESD: 0.10, ToOther: 0.85},
			},
			Rehab: {
				Stroke:       {ToESD: 0.40, ToOther: 0.60},
				TIA:          {ToESD: 0, ToOther: 1},
				Neuro:        {ToESD: 0.09, ToOther: 0.91},
				OtherPatient: {ToESD: 0.13, ToOther: 0.88},
			},
		},
		Transfers: Transfers{ToRehab: Rehab},
		Capacity: CapacityParam{
			Beds: map[Unit]int{ASU: 10, Rehab: 12},
		},
		Run: RunParam{
			WarmUp:           365 * 3,
			DataCollection:   365 * 5,
			AuditInterval:    1,
			Replications:     150,
			Workers:          1,
			Seed:             42,
			Alpha:            0.05,
			RoutingTolerance: 0.02,
		},
	}
}

// RunLength is warm-up plus data collection.
func (p Param) RunLength() float64 {
	return p.Run.WarmUp + p.Run.DataCollection
}

// Units returns every unit mentioned by the parameters, sorted.
func (p Param) Units() []Unit {
	seen := map[Unit]bool{}
	for u := range p.Arrivals {
		seen[u] = true
	}
	for u := range p.Routing {
		seen[u] = true
	}
	for u := range p.LOS {
		seen[u] = true
	}
	for u := range p.Capacity.Beds {
		seen[u] = true
	}
	for _, u := range p.Transfers {
		seen[u] = true
	}
	units := make([]Unit, 0, len(seen))
	for u := range seen {
		units = append(units, u)
	}
	sort.Slice(units, func(i, j int) bool { return units[i] < units[j] })
	return units
}

// Clone returns a deep copy.
func (p Param) Clone() Param {
	out := p
	out.Arrivals = make(Arrivals, len(p.Arrivals))
	for u, m := range p.Arrivals {
		out.Arrivals[u] = cloneMap(m)
	}
	out.LOS = make(LengthsOfStay, len(p.LOS))
	for u, m := range p.LOS {
		out.LOS[u] = cloneMap(m)
	}
	out.Routing = make(Routing, len(p.Routing))
	for u, byType := range p.Routing {
		out.Routing[u] = make(map[PatientType]map[Destination]float64, len(byType))
		for t, probs := range byType {
			out.Routing[u][t] = cloneMap(probs)
		}
	}
	out.Transfers = cloneMap(p.Transfers)
	out.Capacity.Beds = cloneMap(p.Capacity.Beds)
	if p.Capacity.Pool != nil {
		pool := *p.Capacity.Pool
		out.Capacity.Pool = &pool
	}
	return out
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return nil
	}
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// === Scenario helpers ===
// Scenarios are expressed purely as parameter substitutions.

// ExclusionFactor multiplies inter-arrival means to make a patient type
// effectively absent from a run.
const ExclusionFactor = 1e7

// ScaleArrivals returns a copy with every mean inter-arrival time multiplied
// by factor. A factor of 2 halves the arrival rate.
func (p Param) ScaleArrivals(factor float64) Param {
	out := p.Clone()
	for _, byType := range out.Arrivals {
		for t := range byType {
			byType[t] *= factor
		}
	}
	return out
}

// ExcludePatientType returns a copy in which arrivals of t are so rare that
// none occur in any practical run.
func (p Param) ExcludePatientType(t PatientType) Param {
	out := p.Clone()
	for _, byType := range out.Arrivals {
		if _, ok := byType[t]; ok {
			byType[t] *= ExclusionFactor
		}
	}
	return out
}

// WithBeds returns a copy with the bed count of u replaced.
func (p Param) WithBeds(u Unit, beds int) Param {
	out := p.Clone()
	if out.Capacity.Beds == nil {
		out.Capacity.Beds = map[Unit]int{}
	}
	out.Capacity.Beds[u] = beds
	return out
}

// WithPool returns a copy in which every unit draws from one pool of beds,
// with reserved of them kept for reservedFor.
func (p Param) WithPool(beds int, reservedFor Unit, reserved int) Param {
	out := p.Clone()
	out.Capacity.Pool = &PoolParam{Beds: beds, ReservedFor: reservedFor, Reserved: reserved}
	return out
}
