// sim/simulator.go
package sim

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/pythonhealthdatascience/pydesrap-stroke/sim/stats"
	"github.com/pythonhealthdatascience/pydesrap-stroke/sim/trace"
)

// PooledResourceName names the shared resource when beds are pooled.
const PooledResourceName = "pooled"

// scheduledEvent pairs an event with its scheduling sequence number.
type scheduledEvent struct {
	Event
	seq uint64
}

// EventQueue implements heap.Interface with deterministic ordering:
// timestamp → priority → scheduling order.
type EventQueue []scheduledEvent

func (eq EventQueue) Len() int { return len(eq) }

func (eq EventQueue) Less(i, j int) bool {
	ei, ej := eq[i], eq[j]
	if ei.Timestamp() != ej.Timestamp() {
		return ei.Timestamp() < ej.Timestamp()
	}
	if ei.Priority() != ej.Priority() {
		return ei.Priority() < ej.Priority()
	}
	return ei.seq < ej.seq
}

func (eq EventQueue) Swap(i, j int) { eq[i], eq[j] = eq[j], eq[i] }

func (eq *EventQueue) Push(x any) {
	*eq = append(*eq, x.(scheduledEvent))
}

func (eq *EventQueue) Pop() any {
	old := *eq
	n := len(old)
	item := old[n-1]
	*eq = old[:n-1]
	return item
}

// Simulator runs one replication of the patient-flow model. All state is
// owned by a single goroutine; events run one at a time in simulated-time
// order.
type Simulator struct {
	Clock      float64
	param      Param
	key        SimulationKey
	rng        *PartitionedRNG
	eventQueue EventQueue
	nextSeq    uint64

	resources    map[Unit]*Resource
	resourceList []*Resource
	stationCaps  map[string]int
	auditor      *Auditor
	trace        *trace.PatientTrace // nil unless tracing is on

	arrivalSamplers map[Unit]map[PatientType]*ExponentialSampler
	routing         map[Unit]map[PatientType]*DestinationSampler
	los             map[Unit]map[RoutingKey]*LogNormalSampler

	patients      map[int]*Patient // patients currently in the system
	nextPatientID int
	arrivals      int
	departures    int
	warmedUp      bool
	finished      bool
}

// NewSimulator validates param and builds replication rep. Parameters are
// copied, so later changes by the caller do not reach the simulator.
func NewSimulator(param Param, rep int) (*Simulator, error) {
	if err := param.Validate(); err != nil {
		return nil, err
	}
	p := param.Clone()
	key := NewSimulationKey(p.Run.Seed, rep)
	sim := &Simulator{
		param:           p,
		key:             key,
		rng:             NewPartitionedRNG(key),
		resources:       make(map[Unit]*Resource),
		stationCaps:     make(map[string]int),
		arrivalSamplers: make(map[Unit]map[PatientType]*ExponentialSampler),
		routing:         make(map[Unit]map[PatientType]*DestinationSampler),
		los:             make(map[Unit]map[RoutingKey]*LogNormalSampler),
		patients:        make(map[int]*Patient),
	}
	if err := sim.buildResources(); err != nil {
		return nil, err
	}
	if err := sim.buildSamplers(); err != nil {
		return nil, err
	}
	sim.auditor = NewAuditor(p.Run.AuditInterval, sim.resourceList...)
	if p.Run.Trace == trace.LevelPatients {
		sim.trace = trace.New(trace.Config{Level: p.Run.Trace})
	}
	for _, r := range sim.resourceList {
		sim.stationCaps[r.Name()] = r.Capacity()
		if lanes := r.Lanes(); len(lanes) > 1 {
			for _, l := range lanes {
				sim.stationCaps[r.Name()+"/"+l] = r.LaneCapacity(l)
			}
		}
	}
	return sim, nil
}

func (sim *Simulator) buildResources() error {
	units := sim.param.Units()
	if pool := sim.param.Capacity.Pool; pool != nil {
		lanes := make([]string, len(units))
		for i, u := range units {
			lanes[i] = string(u)
		}
		r, err := NewPooledResource(PooledResourceName, pool.Beds, lanes, string(pool.ReservedFor), pool.Reserved)
		if err != nil {
			return err
		}
		for _, u := range units {
			sim.resources[u] = r
		}
		sim.resourceList = []*Resource{r}
		return nil
	}
	for _, u := range units {
		r := NewResource(string(u), sim.param.Capacity.Beds[u])
		sim.resources[u] = r
		sim.resourceList = append(sim.resourceList, r)
	}
	return nil
}

func (sim *Simulator) buildSamplers() error {
	for u, byType := range sim.param.Arrivals {
		sim.arrivalSamplers[u] = make(map[PatientType]*ExponentialSampler, len(byType))
		for t, mean := range byType {
			s, err := NewExponentialSampler(mean, sim.rng.ForSubsystem(SubsystemArrivals(u, t)))
			if err != nil {
				return fmt.Errorf("arrivals %s/%s: %w", u, t, err)
			}
			sim.arrivalSamplers[u][t] = s
		}
	}
	for u, byType := range sim.param.Routing {
		sim.routing[u] = make(map[PatientType]*DestinationSampler, len(byType))
		for t, probs := range byType {
			s, err := NewDestinationSampler(probs, sim.rng.ForSubsystem(SubsystemRouting(u, t)))
			if err != nil {
				return fmt.Errorf("routing %s/%s: %w", u, t, err)
			}
			sim.routing[u][t] = s
		}
	}
	for u, byKey := range sim.param.LOS {
		sim.los[u] = make(map[RoutingKey]*LogNormalSampler, len(byKey))
		for k, lp := range byKey {
			s, err := NewLogNormalSampler(lp.Mean, lp.SD, sim.rng.ForSubsystem(SubsystemLOS(u, k)))
			if err != nil {
				return fmt.Errorf("length of stay %s/%s: %w", u, k, err)
			}
			sim.los[u][k] = s
		}
	}
	return nil
}

// Schedule adds ev to the event queue. Events scheduled for the same time
// and priority run in the order they were scheduled.
func (sim *Simulator) Schedule(ev Event) {
	heap.Push(&sim.eventQueue, scheduledEvent{Event: ev, seq: sim.nextSeq})
	sim.nextSeq++
}

// RunLength returns warm-up plus data collection.
func (sim *Simulator) RunLength() float64 { return sim.param.RunLength() }

// Resource returns the resource serving unit u.
func (sim *Simulator) Resource(u Unit) *Resource { return sim.resources[u] }

// Auditor returns the run's auditor.
func (sim *Simulator) Auditor() *Auditor { return sim.auditor }

// Key returns the replication's random stream key.
func (sim *Simulator) Key() SimulationKey { return sim.key }

// Run executes the replication and returns its result. Events at or after
// the run length are not executed. Run may be called once.
func (sim *Simulator) Run() *RunResult {
	if sim.finished {
		panic("Simulator.Run called twice")
	}
	end := sim.RunLength()
	if sim.param.Run.WarmUp > 0 {
		sim.Schedule(&WarmUpEvent{time: sim.param.Run.WarmUp})
	} else {
		sim.warmedUp = true
	}
	for _, u := range sortedUnits(sim.arrivalSamplers) {
		for _, t := range sortedTypes(sim.arrivalSamplers[u]) {
			sim.scheduleArrival(u, t)
		}
	}
	sim.Schedule(&AuditEvent{time: 0})

	for sim.eventQueue.Len() > 0 {
		if sim.eventQueue[0].Timestamp() >= end {
			break
		}
		ev := heap.Pop(&sim.eventQueue).(scheduledEvent)
		if ev.Timestamp() < sim.Clock {
			panic(fmt.Sprintf("clock moved backwards: event %T at %v, clock %v", ev.Event, ev.Timestamp(), sim.Clock))
		}
		sim.Clock = ev.Timestamp()
		logrus.Tracef("[t=%10.3f] Executing %T", sim.Clock, ev.Event)
		ev.Execute(sim)
	}
	sim.Clock = end
	if !sim.warmedUp {
		// the warm-up period covered the whole run
		sim.resetStatistics(end)
	}
	sim.finished = true
	logrus.Debugf("[replication %d] ended at t=%.1f: %d arrivals, %d departures, %d in system",
		sim.key.Replication, sim.Clock, sim.arrivals, sim.departures, len(sim.patients))
	return sim.results()
}

// resetStatistics clears every accumulator at the warm-up boundary.
func (sim *Simulator) resetStatistics(now float64) {
	for _, r := range sim.resourceList {
		r.ResetStats(now)
	}
	sim.auditor.Reset()
	if sim.trace != nil {
		sim.trace.Reset()
	}
	sim.arrivals = 0
	sim.departures = 0
	sim.warmedUp = true
}

// results reads every statistic at the end of the run.
func (sim *Simulator) results() *RunResult {
	end := sim.Clock
	res := &RunResult{
		Replication: sim.key.Replication,
		Seed:        sim.key.Seed,
		WarmUp:      sim.param.Run.WarmUp,
		RunLength:   end,
		Arrivals:    sim.arrivals,
		Departures:  sim.departures,
		InSystem:    len(sim.patients),
		Resources:   make(map[string]ResourceSummary, len(sim.resourceList)),
		Occupancy:   make(map[string][]OccupancyRow),
		Capacity:    make(map[string]int, len(sim.stationCaps)),
		Metrics:     map[string]float64{MetricArrivals: float64(sim.arrivals)},
		Audit:       sim.auditor.Samples(),
	}
	if sim.trace != nil {
		res.Trace = sim.trace
		res.TraceSummary = trace.Summarize(sim.trace)
	}
	for _, r := range sim.resourceList {
		s := r.Summary(end)
		res.Resources[r.Name()] = s
		res.Metrics[Metric(r.Name(), MeasureUtilization)] = valueOrNaN(s.Utilization)
		res.Metrics[Metric(r.Name(), MeasureMeanInUse)] = valueOrNaN(s.MeanInUse)
		res.Metrics[Metric(r.Name(), MeasureStdDevInUse)] = valueOrNaN(s.StdDevInUse)
		res.Metrics[Metric(r.Name(), MeasureMeanQueue)] = valueOrNaN(s.MeanQueue)
		res.Metrics[Metric(r.Name(), MeasureMeanWait)] = valueOrNaN(s.MeanWait)
	}
	for _, name := range sim.auditor.Stations() {
		demand := sim.auditor.Demand(name)
		rows := OccupancyFrequency(demand)
		capacity := sim.stationCaps[name]
		res.Occupancy[name] = rows
		res.Capacity[name] = capacity

		delay, meanDemand := math.NaN(), math.NaN()
		if len(rows) > 0 {
			delay = DelayProbability(rows, capacity)
			s := stats.NewOnlineStatistics(sim.param.Run.Alpha)
			for _, d := range demand {
				s.Update(float64(d))
			}
			meanDemand, _ = s.Mean()
		}
		res.Metrics[Metric(name, MeasureDelayProbability)] = delay
		res.Metrics[Metric(name, MeasureMeanDemand)] = meanDemand
	}
	return res
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
