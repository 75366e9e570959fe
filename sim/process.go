package sim

import (
	"github.com/sirupsen/logrus"

	"github.com/pythonhealthdatascience/pydesrap-stroke/sim/trace"
)

// Patient processes, written as the transitions between events:
//
//	ArrivalEvent → attend → (bed free) admit → DepartureEvent → depart
//	                      ↘ (no bed) wait ... AdmissionEvent → admit
//
// depart either calls attend for the next unit or removes the patient.

// scheduleArrival draws the next inter-arrival time of the (u, t) stream and
// schedules the arrival.
func (sim *Simulator) scheduleArrival(u Unit, t PatientType) {
	iat := sim.arrivalSamplers[u][t].Sample()
	sim.Schedule(&ArrivalEvent{time: sim.Clock + iat, Unit: u, Type: t})
}

// newPatient creates and tracks a patient arriving now.
func (sim *Simulator) newPatient(t PatientType) *Patient {
	p := NewPatient(sim.nextPatientID, t, sim.Clock)
	sim.nextPatientID++
	sim.patients[p.ID] = p
	sim.arrivals++
	return p
}

// attend opens a stay at u and asks for a bed. Without a free bed the
// patient waits until a departure grants one.
func (sim *Simulator) attend(p *Patient, u Unit) {
	p.startStay(u, sim.Clock)
	if sim.resources[u].Request(sim.Clock, p.ID, string(u)) {
		sim.admit(p, u)
		return
	}
	logrus.Debugf("   %s waits for a bed at %s, t=%.3f", p, u, sim.Clock)
}

// admit draws the destination and length of stay, then schedules the end of
// the stay.
func (sim *Simulator) admit(p *Patient, u Unit) {
	stay := p.CurrentStay()
	stay.AdmissionTime = sim.Clock
	router, ok := sim.routing[u][p.Type]
	if !ok {
		panic("no routing for " + string(p.Type) + " at " + string(u))
	}
	stay.Destination = router.Sample()
	stay.LOS = sim.losSampler(u, p.RoutingKey()).Sample()
	logrus.Debugf("   %s admitted to %s, t=%.3f, los=%.3f, then %s", p, u, sim.Clock, stay.LOS, stay.Destination)
	if sim.trace.Enabled() {
		sim.trace.RecordAdmission(trace.AdmissionRecord{
			PatientID:   p.ID,
			PatientType: string(p.Type),
			Unit:        string(u),
			Requested:   stay.ArrivalTime,
			Admitted:    sim.Clock,
		})
		sim.trace.RecordRouting(trace.RoutingRecord{
			PatientID:   p.ID,
			Unit:        string(u),
			Destination: string(stay.Destination),
			Clock:       sim.Clock,
			LOS:         stay.LOS,
			NextUnit:    string(sim.param.Transfers[stay.Destination]),
		})
	}
	sim.Schedule(&DepartureEvent{time: sim.Clock + stay.LOS, Patient: p, Unit: u})
}

// losSampler returns the sampler for key at u, falling back to the
// AnyDestination entry for the patient type.
func (sim *Simulator) losSampler(u Unit, key RoutingKey) Sampler {
	if s, ok := sim.los[u][key]; ok {
		return s
	}
	if s, ok := sim.los[u][RoutingKey{Type: key.Type, Destination: AnyDestination}]; ok {
		return s
	}
	panic("no length of stay for " + key.String() + " at " + string(u))
}

// depart releases p's bed at u, admits whoever was granted it, and sends p to
// its destination.
func (sim *Simulator) depart(p *Patient, u Unit) {
	for _, g := range sim.resources[u].Release(sim.Clock, p.ID) {
		sim.Schedule(&AdmissionEvent{time: sim.Clock, Patient: sim.patients[g.Holder], Unit: Unit(g.Lane)})
	}
	dest := p.CurrentStay().Destination
	if next, ok := sim.param.Transfers[dest]; ok {
		logrus.Debugf(">> %s leaves %s for %s, t=%.3f", p, u, next, sim.Clock)
		sim.attend(p, next)
		return
	}
	logrus.Debugf(">> %s leaves the system (%s), t=%.3f", p, dest, sim.Clock)
	delete(sim.patients, p.ID)
	sim.departures++
}
