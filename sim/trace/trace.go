// Package trace records patient-level decisions made during a replication:
// who was admitted where, after what wait, and where they went next.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// Level controls the verbosity of patient tracing.
type Level string

const (
	// LevelNone disables tracing.
	LevelNone Level = "none"
	// LevelPatients records every admission and routing decision.
	LevelPatients Level = "patients"
)

// validLevels maps accepted trace level strings.
var validLevels = map[Level]bool{
	LevelNone:     true,
	LevelPatients: true,
	"":            true, // empty defaults to none
}

// IsValidLevel returns true if the given level string is a recognized trace level.
func IsValidLevel(level string) bool {
	return validLevels[Level(level)]
}

// Config controls trace collection behavior.
type Config struct {
	Level Level
}

// PatientTrace collects decision records during one replication.
type PatientTrace struct {
	Config     Config
	Admissions []AdmissionRecord
	Routings   []RoutingRecord
}

// New creates a PatientTrace ready for recording.
func New(config Config) *PatientTrace {
	return &PatientTrace{
		Config:     config,
		Admissions: make([]AdmissionRecord, 0),
		Routings:   make([]RoutingRecord, 0),
	}
}

// Enabled reports whether records should be collected. Safe on nil.
func (pt *PatientTrace) Enabled() bool {
	return pt != nil && pt.Config.Level == LevelPatients
}

// RecordAdmission appends an admission record.
func (pt *PatientTrace) RecordAdmission(record AdmissionRecord) {
	pt.Admissions = append(pt.Admissions, record)
}

// RecordRouting appends a routing decision record.
func (pt *PatientTrace) RecordRouting(record RoutingRecord) {
	pt.Routings = append(pt.Routings, record)
}

// Reset drops every record, keeping the configuration. Used at the end of
// the warm-up period.
func (pt *PatientTrace) Reset() {
	pt.Admissions = pt.Admissions[:0]
	pt.Routings = pt.Routings[:0]
}
