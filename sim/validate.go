package sim

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/pythonhealthdatascience/pydesrap-stroke/sim/trace"
)

// ErrInvalidConfig is wrapped by every parameter validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// sumSlack absorbs floating-point error when comparing routing sums against
// the tolerance band.
const sumSlack = 1e-9

var (
	validateOnce sync.Once
	structCheck  *validator.Validate
)

// ValidateStruct checks the validate tags of v and reports the first failing
// field wrapped in ErrInvalidConfig.
func ValidateStruct(v any) error {
	err := paramValidator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		return fmt.Errorf("%w: %s must satisfy %s (got %v)", ErrInvalidConfig, fe.Namespace(), rule, fe.Value())
	}
	return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
}

func paramValidator() *validator.Validate {
	validateOnce.Do(func() {
		structCheck = validator.New(validator.WithRequiredStructEnabled())
		_ = structCheck.RegisterValidation("trace_level", func(fl validator.FieldLevel) bool {
			return trace.IsValidLevel(fl.Field().String())
		})
	})
	return structCheck
}

// Validate reports the first problem found with p, wrapped in
// ErrInvalidConfig. It is called before any simulation starts.
func (p Param) Validate() error {
	if err := ValidateStruct(p); err != nil {
		return err
	}
	if err := p.validateRouting(); err != nil {
		return err
	}
	if err := p.validateLOS(); err != nil {
		return err
	}
	return p.validateCapacity()
}

// validateRouting checks that every arrival stream and every inbound transfer
// has routing probabilities summing to 1 within the tolerance band.
func (p Param) validateRouting() error {
	tol := p.Run.RoutingTolerance
	for _, u := range p.Units() {
		for _, t := range sortedTypes(p.Routing[u]) {
			sum := 0.0
			for _, prob := range p.Routing[u][t] {
				sum += prob
			}
			if math.Abs(sum-1) > tol+sumSlack {
				return fmt.Errorf("%w: routing probabilities for %s patients leaving %s sum to %.4f, outside 1±%g",
					ErrInvalidConfig, t, u, sum, tol)
			}
		}
		for _, t := range p.typesAt(u) {
			if _, ok := p.Routing[u][t]; !ok {
				return fmt.Errorf("%w: no routing for %s patients leaving %s", ErrInvalidConfig, t, u)
			}
		}
	}
	for d, u := range p.Transfers {
		if u == "" {
			return fmt.Errorf("%w: transfer for destination %q names no unit", ErrInvalidConfig, d)
		}
	}
	return nil
}

// validateLOS checks that every destination a patient can be routed to has a
// length-of-stay entry, either exact or through AnyDestination.
func (p Param) validateLOS() error {
	for _, u := range p.Units() {
		for _, t := range p.typesAt(u) {
			for _, d := range sortedDestinations(p.Routing[u][t]) {
				if p.Routing[u][t][d] == 0 {
					continue
				}
				if _, ok := p.LOS[u][RoutingKey{t, d}]; ok {
					continue
				}
				if _, ok := p.LOS[u][RoutingKey{t, AnyDestination}]; ok {
					continue
				}
				return fmt.Errorf("%w: no length of stay for %s at %s", ErrInvalidConfig, RoutingKey{t, d}, u)
			}
		}
	}
	return nil
}

// validateCapacity rejects configurations in which a unit with demand could
// never be admitted.
func (p Param) validateCapacity() error {
	demand := p.unitsWithDemand()
	if pool := p.Capacity.Pool; pool != nil {
		if pool.Reserved > pool.Beds {
			return fmt.Errorf("%w: pool reserves %d of only %d beds", ErrInvalidConfig, pool.Reserved, pool.Beds)
		}
		if pool.Reserved > 0 && !p.hasUnit(pool.ReservedFor) {
			return fmt.Errorf("%w: pool reserves beds for unknown unit %q", ErrInvalidConfig, pool.ReservedFor)
		}
		for _, u := range sortedUnits(demand) {
			limit := pool.Beds
			if u != pool.ReservedFor {
				limit -= pool.Reserved
			}
			if limit <= 0 {
				return fmt.Errorf("%w: %s has demand but no usable pooled beds", ErrInvalidConfig, u)
			}
		}
		return nil
	}
	for _, u := range sortedUnits(demand) {
		beds, ok := p.Capacity.Beds[u]
		if !ok {
			return fmt.Errorf("%w: no bed count for %s", ErrInvalidConfig, u)
		}
		if beds == 0 {
			return fmt.Errorf("%w: %s has demand but zero beds", ErrInvalidConfig, u)
		}
	}
	return nil
}

// unitsWithDemand returns units reachable by arrivals or transfers.
func (p Param) unitsWithDemand() map[Unit]bool {
	demand := map[Unit]bool{}
	var visit func(u Unit)
	visit = func(u Unit) {
		if demand[u] {
			return
		}
		demand[u] = true
		for _, byDest := range p.Routing[u] {
			for d, prob := range byDest {
				if next, ok := p.Transfers[d]; ok && prob > 0 {
					visit(next)
				}
			}
		}
	}
	for u, byType := range p.Arrivals {
		if len(byType) > 0 {
			visit(u)
		}
	}
	return demand
}

// typesAt returns patient types that can be present at u, sorted.
func (p Param) typesAt(u Unit) []PatientType {
	seen := map[PatientType]bool{}
	for t := range p.Arrivals[u] {
		seen[t] = true
	}
	for _, byType := range p.Routing {
		for t, byDest := range byType {
			for d, prob := range byDest {
				if p.Transfers[d] == u && prob > 0 {
					seen[t] = true
				}
			}
		}
	}
	return sortedTypes(seen)
}

func (p Param) hasUnit(u Unit) bool {
	for _, known := range p.Units() {
		if known == u {
			return true
		}
	}
	return false
}

func sortedTypes[V any](m map[PatientType]V) []PatientType {
	out := make([]PatientType, 0, len(m))
	for t := range m {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedDestinations[V any](m map[Destination]V) []Destination {
	out := make([]Destination, 0, len(m))
	for d := range m {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedUnits[V any](m map[Unit]V) []Unit {
	out := make([]Unit, 0, len(m))
	for u := range m {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
