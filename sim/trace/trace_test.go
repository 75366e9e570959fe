package trace

import "testing"

func TestIsValidLevel(t *testing.T) {
	tests := []struct {
		level string
		want  bool
	}{
		{"none", true},
		{"patients", true},
		{"", true},
		{"decisions", false},
	}
	for _, tc := range tests {
		if got := IsValidLevel(tc.level); got != tc.want {
			t.Errorf("IsValidLevel(%q) = %v, want %v", tc.level, got, tc.want)
		}
	}
}

func TestPatientTrace_Enabled(t *testing.T) {
	var nilTrace *PatientTrace
	if nilTrace.Enabled() {
		t.Error("nil trace must be disabled")
	}
	if New(Config{Level: LevelNone}).Enabled() {
		t.Error("level none must be disabled")
	}
	if !New(Config{Level: LevelPatients}).Enabled() {
		t.Error("level patients must be enabled")
	}
}

func TestPatientTrace_ResetKeepsConfig(t *testing.T) {
	// GIVEN a trace with records
	pt := New(Config{Level: LevelPatients})
	pt.RecordAdmission(AdmissionRecord{PatientID: 1})
	pt.RecordRouting(RoutingRecord{PatientID: 1})

	// WHEN reset
	pt.Reset()

	// THEN records are gone and recording continues
	if len(pt.Admissions) != 0 || len(pt.Routings) != 0 {
		t.Fatalf("expected empty trace, got %d admissions, %d routings", len(pt.Admissions), len(pt.Routings))
	}
	if !pt.Enabled() {
		t.Error("reset must keep the level")
	}
	pt.RecordAdmission(AdmissionRecord{PatientID: 2})
	if len(pt.Admissions) != 1 {
		t.Errorf("expected 1 admission after reset, got %d", len(pt.Admissions))
	}
}
