package sim

import "github.com/sirupsen/logrus"

// Event defines the interface for all simulation events.
// Each event has a Timestamp (in days), a Priority that orders events
// scheduled for the same instant, and an Execute method that advances
// simulation state when invoked.
type Event interface {
	Timestamp() float64
	Priority() int
	Execute(*Simulator)
}

// Same-instant ordering: the warm-up reset sees the state left by every
// earlier instant, beds freed at an instant are visible to arrivals at that
// instant, and audits observe the instant after all changes.
const (
	PriorityWarmUp = iota
	PriorityDeparture
	PriorityAdmission
	PriorityArrival
	PriorityAudit
)

// ArrivalEvent represents the arrival of a new patient at a unit. Each
// (unit, type) pair has its own chain of arrival events.
type ArrivalEvent struct {
	time float64
	Unit Unit
	Type PatientType
}

// Timestamp returns the scheduled time of the ArrivalEvent.
func (e *ArrivalEvent) Timestamp() float64 { return e.time }

// Priority returns PriorityArrival.
func (e *ArrivalEvent) Priority() int { return PriorityArrival }

// Execute creates the patient, schedules the next arrival of the same stream
// and starts the patient's attendance at the unit.
func (e *ArrivalEvent) Execute(sim *Simulator) {
	p := sim.newPatient(e.Type)
	logrus.Debugf("<< Arrival: %s at %s, t=%.3f", p, e.Unit, e.time)
	sim.scheduleArrival(e.Unit, e.Type)
	sim.attend(p, e.Unit)
}

// AdmissionEvent resumes a patient that waited for a bed and was granted one
// when another patient left.
type AdmissionEvent struct {
	time    float64
	Patient *Patient
	Unit    Unit
}

// Timestamp returns the scheduled time of the AdmissionEvent.
func (e *AdmissionEvent) Timestamp() float64 { return e.time }

// Priority returns PriorityAdmission.
func (e *AdmissionEvent) Priority() int { return PriorityAdmission }

// Execute draws the stay and schedules its end.
func (e *AdmissionEvent) Execute(sim *Simulator) {
	sim.admit(e.Patient, e.Unit)
}

// DepartureEvent ends a stay: the bed is released and the patient moves to
// its destination.
type DepartureEvent struct {
	time    float64
	Patient *Patient
	Unit    Unit
}

// Timestamp returns the scheduled time of the DepartureEvent.
func (e *DepartureEvent) Timestamp() float64 { return e.time }

// Priority returns PriorityDeparture.
func (e *DepartureEvent) Priority() int { return PriorityDeparture }

// Execute releases the bed and routes the patient onward or out.
func (e *DepartureEvent) Execute(sim *Simulator) {
	sim.depart(e.Patient, e.Unit)
}

// AuditEvent samples occupancy and queues, then schedules the next audit.
// The k-th audit runs at k*interval so sample times do not drift.
type AuditEvent struct {
	time float64
	k    int
}

// Timestamp returns the scheduled time of the AuditEvent.
func (e *AuditEvent) Timestamp() float64 { return e.time }

// Priority returns PriorityAudit.
func (e *AuditEvent) Priority() int { return PriorityAudit }

// Execute records one sample.
func (e *AuditEvent) Execute(sim *Simulator) {
	sim.auditor.Sample(e.time)
	next := e.k + 1
	sim.Schedule(&AuditEvent{time: float64(next) * sim.auditor.Interval(), k: next})
}

// WarmUpEvent marks the end of the warm-up period.
type WarmUpEvent struct {
	time float64
}

// Timestamp returns the scheduled time of the WarmUpEvent.
func (e *WarmUpEvent) Timestamp() float64 { return e.time }

// Priority returns PriorityWarmUp.
func (e *WarmUpEvent) Priority() int { return PriorityWarmUp }

// Execute clears every accumulator; patients in flight are not touched.
func (e *WarmUpEvent) Execute(sim *Simulator) {
	logrus.Debugf("<< Warm-up complete at t=%.3f", e.time)
	sim.resetStatistics(e.time)
}
