package trace

// Summary aggregates statistics from one or more patient traces.
type Summary struct {
	Admissions int            `yaml:"admissions"`
	Delayed    int            `yaml:"delayed"` // admissions with a positive wait
	MeanWait   float64        `yaml:"mean_wait"`
	MaxWait    float64        `yaml:"max_wait"`
	Transfers  int            `yaml:"transfers"`
	Routes     map[string]int `yaml:"routes"` // "unit/destination" → count
}

// Summarize computes aggregate statistics over traces.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(traces ...*PatientTrace) *Summary {
	summary := &Summary{
		Routes: make(map[string]int),
	}
	totalWait := 0.0
	for _, pt := range traces {
		if pt == nil {
			continue
		}
		for _, a := range pt.Admissions {
			summary.Admissions++
			w := a.Wait()
			totalWait += w
			if w > 0 {
				summary.Delayed++
			}
			if w > summary.MaxWait {
				summary.MaxWait = w
			}
		}
		for _, r := range pt.Routings {
			summary.Routes[r.Unit+"/"+r.Destination]++
			if r.NextUnit != "" {
				summary.Transfers++
			}
		}
	}
	if summary.Admissions > 0 {
		summary.MeanWait = totalWait / float64(summary.Admissions)
	}
	return summary
}
