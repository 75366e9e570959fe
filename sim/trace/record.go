package trace

// AdmissionRecord captures a patient being given a bed.
type AdmissionRecord struct {
	PatientID   int
	PatientType string
	Unit        string
	Requested   float64 // time the bed was requested
	Admitted    float64
}

// Wait returns the time spent waiting for the bed.
func (r AdmissionRecord) Wait() float64 {
	return r.Admitted - r.Requested
}

// RoutingRecord captures the destination and length of stay drawn at
// admission.
type RoutingRecord struct {
	PatientID   int
	Unit        string
	Destination string
	Clock       float64
	LOS         float64
	NextUnit    string // unit attended after this stay; empty when leaving
}
