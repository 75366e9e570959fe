package sim

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/pythonhealthdatascience/pydesrap-stroke/sim/stats"
)

// hold is an open claim on one slot.
type hold struct {
	lane       string
	acquiredAt float64
}

// lane is one logical FIFO queue of a resource.
type lane struct {
	name  string
	queue WaitQueue
	inUse int
}

// Resource is a capacity-bounded station (a set of beds) with FIFO queues.
//
// A plain resource has a single lane. A pooled resource shares its capacity
// between several lanes; up to `reserved` slots may be used only by the
// reservedFor lane, so the other lanes together never hold more than
// capacity-reserved slots. When a slot frees, the eligible lane head that
// requested earliest is served first.
//
// Statistics cover the window starting at the last ResetStats. Holds still
// open when statistics are read ("unseen" holders) are credited for the part
// of the hold inside the window.
//
// Invariants: InUse() <= Capacity() at all times; each lane is released in
// request order.
type Resource struct {
	name        string
	capacity    int
	reservedFor string
	reserved    int
	lanes       map[string]*lane
	laneOrder   []string
	holds       map[int]hold
	inUse       int
	queued      int
	nextSeq     uint64

	windowStart float64
	busy        float64 // closed hold time inside the window
	occupancy   *stats.TimeWeighted
	queueLen    *stats.TimeWeighted
	waits       *stats.OnlineStatistics
	admissions  int
}

// NewResource returns a single-lane resource. The lane is named after the
// resource. Panics on negative capacity; parameters are validated upstream.
func NewResource(name string, capacity int) *Resource {
	r, err := NewPooledResource(name, capacity, []string{name}, "", 0)
	if err != nil {
		panic(err)
	}
	return r
}

// NewPooledResource returns a resource whose capacity is shared by lanes,
// with reserved slots kept for reservedFor.
func NewPooledResource(name string, capacity int, lanes []string, reservedFor string, reserved int) (*Resource, error) {
	if capacity < 0 {
		return nil, fmt.Errorf("%w: resource %s capacity must be >= 0, got %d", ErrInvalidConfig, name, capacity)
	}
	if len(lanes) == 0 {
		return nil, fmt.Errorf("%w: resource %s needs at least one lane", ErrInvalidConfig, name)
	}
	if reserved < 0 || reserved > capacity {
		return nil, fmt.Errorf("%w: resource %s reserves %d of %d slots", ErrInvalidConfig, name, reserved, capacity)
	}
	r := &Resource{
		name:        name,
		capacity:    capacity,
		reservedFor: reservedFor,
		reserved:    reserved,
		lanes:       make(map[string]*lane, len(lanes)),
		holds:       make(map[int]hold),
		occupancy:   stats.NewTimeWeighted(0, 0),
		queueLen:    stats.NewTimeWeighted(0, 0),
		waits:       stats.NewOnlineStatistics(stats.DefaultAlpha),
	}
	for _, l := range lanes {
		if _, dup := r.lanes[l]; dup {
			return nil, fmt.Errorf("%w: resource %s lists lane %q twice", ErrInvalidConfig, name, l)
		}
		r.lanes[l] = &lane{name: l}
		r.laneOrder = append(r.laneOrder, l)
	}
	if reserved > 0 {
		if _, ok := r.lanes[reservedFor]; !ok {
			return nil, fmt.Errorf("%w: resource %s reserves slots for unknown lane %q", ErrInvalidConfig, name, reservedFor)
		}
	}
	return r, nil
}

// Name returns the resource name.
func (r *Resource) Name() string { return r.name }

// Capacity returns the total number of slots.
func (r *Resource) Capacity() int { return r.capacity }

// Lanes returns the lane names in construction order.
func (r *Resource) Lanes() []string { return append([]string(nil), r.laneOrder...) }

// LaneCapacity returns the most slots lane can hold at once.
func (r *Resource) LaneCapacity(laneName string) int {
	r.lane(laneName)
	if r.reserved == 0 || laneName == r.reservedFor {
		return r.capacity
	}
	return r.capacity - r.reserved
}

// InUse returns the number of slots held.
func (r *Resource) InUse() int { return r.inUse }

// Queued returns the number of waiting requests across lanes.
func (r *Resource) Queued() int { return r.queued }

// LaneInUse returns the slots held by lane.
func (r *Resource) LaneInUse(laneName string) int { return r.lane(laneName).inUse }

// LaneQueued returns the requests waiting in lane.
func (r *Resource) LaneQueued(laneName string) int { return r.lane(laneName).queue.Len() }

// Unseen returns the holders whose hold is still open.
func (r *Resource) Unseen() int { return len(r.holds) }

func (r *Resource) lane(name string) *lane {
	l, ok := r.lanes[name]
	if !ok {
		panic(fmt.Sprintf("resource %s has no lane %q", r.name, name))
	}
	return l
}

// Request asks for a slot in lane at time now. It returns true when the slot
// is granted immediately; otherwise the request waits and is returned by a
// later Release.
func (r *Resource) Request(now float64, holder int, laneName string) bool {
	l := r.lane(laneName)
	if _, dup := r.holds[holder]; dup {
		panic(fmt.Sprintf("resource %s: holder %d already holds a slot", r.name, holder))
	}
	req := &Request{Holder: holder, Lane: laneName, RequestedAt: now, seq: r.nextSeq}
	r.nextSeq++
	l.queue.Enqueue(req)
	r.queued++
	r.queueLen.Update(now, float64(r.queued))

	granted := r.dispatch(now)
	switch {
	case len(granted) == 0:
		return false
	case len(granted) == 1 && granted[0] == req:
		return true
	default:
		panic(fmt.Sprintf("resource %s: request by %d granted waiting requests %v", r.name, holder, granted))
	}
}

// Release frees holder's slot at time now and returns the waiting requests
// granted as a result, in grant order.
func (r *Resource) Release(now float64, holder int) []*Request {
	h, ok := r.holds[holder]
	if !ok {
		panic(fmt.Sprintf("resource %s: release by %d which holds no slot", r.name, holder))
	}
	delete(r.holds, holder)
	r.inUse--
	r.lanes[h.lane].inUse--
	r.busy += now - math.Max(h.acquiredAt, r.windowStart)
	r.occupancy.Update(now, float64(r.inUse))
	return r.dispatch(now)
}

// eligible reports whether lane may take one more slot.
func (r *Resource) eligible(laneName string) bool {
	if r.inUse >= r.capacity {
		return false
	}
	if r.reserved == 0 || laneName == r.reservedFor {
		return true
	}
	shared := r.inUse - r.lanes[r.reservedFor].inUse
	return shared < r.capacity-r.reserved
}

// dispatch grants slots to eligible lane heads, earliest request first,
// until no head is eligible.
func (r *Resource) dispatch(now float64) []*Request {
	var granted []*Request
	for {
		var best *lane
		for _, name := range r.laneOrder {
			l := r.lanes[name]
			head := l.queue.Peek()
			if head == nil || !r.eligible(name) {
				continue
			}
			if best == nil || head.before(best.queue.Peek()) {
				best = l
			}
		}
		if best == nil {
			break
		}
		req := best.queue.Dequeue()
		r.queued--
		r.holds[req.Holder] = hold{lane: best.name, acquiredAt: now}
		r.inUse++
		best.inUse++
		r.admissions++
		r.waits.Update(now - req.RequestedAt)
		granted = append(granted, req)
	}
	if len(granted) > 0 {
		r.occupancy.Update(now, float64(r.inUse))
		r.queueLen.Update(now, float64(r.queued))
	}
	return granted
}

// ResetStats starts a new statistics window at now. Holders and queues are
// untouched; open holds are credited only from now on.
func (r *Resource) ResetStats(now float64) {
	r.windowStart = now
	r.busy = 0
	r.occupancy.Reset(now)
	r.queueLen.Reset(now)
	r.waits = stats.NewOnlineStatistics(r.waits.Alpha())
	r.admissions = 0
}

// WindowStart returns the start of the statistics window.
func (r *Resource) WindowStart() float64 { return r.windowStart }

// BusyTime returns the slot-time used inside [WindowStart, at], crediting the
// in-window part of every open hold. Open holds are summed in holder order so
// the result does not depend on map iteration.
func (r *Resource) BusyTime(at float64) float64 {
	busy := r.busy
	for _, id := range slices.Sorted(maps.Keys(r.holds)) {
		busy += math.Max(0, at-math.Max(r.holds[id].acquiredAt, r.windowStart))
	}
	return busy
}

// Utilization returns BusyTime(at) / (capacity * window length). It is
// undefined for zero capacity or an empty window.
func (r *Resource) Utilization(at float64) (float64, bool) {
	window := at - r.windowStart
	if r.capacity == 0 || window <= 0 {
		return 0, false
	}
	return r.BusyTime(at) / (float64(r.capacity) * window), true
}

// ResourceSummary is the utilization summary of one resource.
type ResourceSummary struct {
	Name          string   `yaml:"name"`
	Capacity      int      `yaml:"capacity"`
	WindowStart   float64  `yaml:"window_start"`
	BusyTime      float64  `yaml:"busy_time"`
	Utilization   *float64 `yaml:"utilization"`
	MeanInUse     *float64 `yaml:"mean_in_use"`
	StdDevInUse   *float64 `yaml:"std_dev_in_use"`
	MeanQueue     *float64 `yaml:"mean_queue"`
	MeanWait      *float64 `yaml:"mean_wait"`
	Admissions    int      `yaml:"admissions"`
	UnseenHolders int      `yaml:"unseen_holders"`
}

// Summary reads the resource statistics at time at.
func (r *Resource) Summary(at float64) ResourceSummary {
	s := ResourceSummary{
		Name:          r.name,
		Capacity:      r.capacity,
		WindowStart:   r.WindowStart(),
		BusyTime:      r.BusyTime(at),
		Admissions:    r.admissions,
		UnseenHolders: r.Unseen(),
	}
	if u, ok := r.Utilization(at); ok {
		s.Utilization = &u
	}
	if m, ok := r.occupancy.Mean(at); ok {
		s.MeanInUse = &m
	}
	if sd, ok := r.occupancy.StdDev(at); ok {
		s.StdDevInUse = &sd
	}
	if m, ok := r.queueLen.Mean(at); ok {
		s.MeanQueue = &m
	}
	if m, ok := r.waits.Mean(); ok {
		s.MeanWait = &m
	}
	return s
}
