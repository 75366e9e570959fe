package sim

import "sort"

// AuditSample is one periodic observation. Keys are station names: each
// resource name and, for resources with several lanes, "resource/lane".
type AuditSample struct {
	Time   float64        `yaml:"time"`
	InUse  map[string]int `yaml:"in_use"`
	Queued map[string]int `yaml:"queued"`
}

// station is one audited view of a resource, whole or a single lane.
type station struct {
	name string
	res  *Resource
	lane string // empty for the whole resource
}

func (s station) read() (inUse, queued int) {
	if s.lane == "" {
		return s.res.InUse(), s.res.Queued()
	}
	return s.res.LaneInUse(s.lane), s.res.LaneQueued(s.lane)
}

// Auditor periodically samples tracked resources. Samples are cleared at the
// warm-up boundary.
type Auditor struct {
	interval float64
	stations []station
	samples  []AuditSample
}

// NewAuditor returns an auditor sampling resources every interval days.
func NewAuditor(interval float64, resources ...*Resource) *Auditor {
	a := &Auditor{interval: interval}
	for _, r := range resources {
		a.Track(r)
	}
	return a
}

// Track adds r, and each of its lanes when it has several, to the audit.
func (a *Auditor) Track(r *Resource) {
	a.stations = append(a.stations, station{name: r.Name(), res: r})
	lanes := r.Lanes()
	if len(lanes) > 1 {
		for _, l := range lanes {
			a.stations = append(a.stations, station{name: r.Name() + "/" + l, res: r, lane: l})
		}
	}
}

// Interval returns the sampling interval.
func (a *Auditor) Interval() float64 { return a.interval }

// Stations returns the audited station names, sorted.
func (a *Auditor) Stations() []string {
	names := make([]string, len(a.stations))
	for i, s := range a.stations {
		names[i] = s.name
	}
	sort.Strings(names)
	return names
}

// Sample appends the current state of every station.
func (a *Auditor) Sample(now float64) {
	s := AuditSample{
		Time:   now,
		InUse:  make(map[string]int, len(a.stations)),
		Queued: make(map[string]int, len(a.stations)),
	}
	for _, st := range a.stations {
		s.InUse[st.name], s.Queued[st.name] = st.read()
	}
	a.samples = append(a.samples, s)
}

// Reset discards all samples.
func (a *Auditor) Reset() {
	a.samples = nil
}

// Samples returns the recorded samples in time order.
func (a *Auditor) Samples() []AuditSample {
	return a.samples
}

// Demand returns, per sample, the patients present at the station: those in
// a bed plus those waiting for one.
func (a *Auditor) Demand(name string) []int {
	return DemandSeries(a.samples, name)
}

// DemandSeries extracts the demand of station name from samples.
func DemandSeries(samples []AuditSample, name string) []int {
	out := make([]int, 0, len(samples))
	for _, s := range samples {
		out = append(out, s.InUse[name]+s.Queued[name])
	}
	return out
}
