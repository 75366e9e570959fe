// Defines the Patient entity that moves through the care units.
// A patient is created by an arrival process, holds one Stay per unit it
// attends, and is dropped from tracking when it leaves the system.

package sim

import "fmt"

// Stay records one visit to a unit. Destination and LOS are drawn once, at
// admission, and never change afterwards.
type Stay struct {
	Unit          Unit
	ArrivalTime   float64 // time the patient requested a bed
	AdmissionTime float64 // time a bed was granted; -1 while waiting
	Destination   Destination
	LOS           float64
}

// Wait returns the time spent waiting for a bed, or -1 while still waiting.
func (s *Stay) Wait() float64 {
	if s.AdmissionTime < 0 {
		return -1
	}
	return s.AdmissionTime - s.ArrivalTime
}

// Patient models one patient's path through the system.
type Patient struct {
	ID          int
	Type        PatientType
	ArrivalTime float64 // arrival at the first unit
	Stays       []*Stay
}

// NewPatient returns a patient arriving at time now.
func NewPatient(id int, t PatientType, now float64) *Patient {
	return &Patient{ID: id, Type: t, ArrivalTime: now}
}

// startStay opens a stay at u.
func (p *Patient) startStay(u Unit, now float64) *Stay {
	s := &Stay{Unit: u, ArrivalTime: now, AdmissionTime: -1}
	p.Stays = append(p.Stays, s)
	return s
}

// CurrentStay returns the most recent stay, or nil before the first one.
func (p *Patient) CurrentStay() *Stay {
	if len(p.Stays) == 0 {
		return nil
	}
	return p.Stays[len(p.Stays)-1]
}

// RoutingKey returns the key used to pick the current stay's LOS distribution.
func (p *Patient) RoutingKey() RoutingKey {
	s := p.CurrentStay()
	if s == nil {
		return RoutingKey{Type: p.Type}
	}
	return RoutingKey{Type: p.Type, Destination: s.Destination}
}

func (p *Patient) String() string {
	return fmt.Sprintf("patient %d (%s)", p.ID, p.Type)
}
