package stats

import "math"

// TimeWeighted tracks the time-average of a piecewise-constant level such as
// the number of occupied beds. Each level is weighted by how long it
// persisted. The interval that is still open when a statistic is read is
// credited up to the read time without being committed.
type TimeWeighted struct {
	start     float64
	lastTime  float64
	lastValue float64

	weight float64
	mean   float64
	sq     float64
}

// NewTimeWeighted starts tracking at time start with the given level.
func NewTimeWeighted(start, level float64) *TimeWeighted {
	return &TimeWeighted{start: start, lastTime: start, lastValue: level}
}

// Update records that the level changed to value at time now. The previous
// level is credited for [lastTime, now].
func (tw *TimeWeighted) Update(now, value float64) {
	if now < tw.lastTime {
		panic("stats: TimeWeighted.Update called with time going backwards")
	}
	tw.fold(now - tw.lastTime)
	tw.lastTime = now
	tw.lastValue = value
}

// fold adds the current level with weight w (West's weighted update).
func (tw *TimeWeighted) fold(w float64) {
	if w <= 0 {
		return
	}
	total := tw.weight + w
	delta := tw.lastValue - tw.mean
	r := delta * w / total
	tw.mean += r
	tw.sq += tw.weight * delta * r
	tw.weight = total
}

// Reset discards everything accumulated so far and starts a new window at
// now. The current level carries over.
func (tw *TimeWeighted) Reset(now float64) {
	tw.start = now
	tw.lastTime = now
	tw.weight = 0
	tw.mean = 0
	tw.sq = 0
}

// Level returns the current level.
func (tw *TimeWeighted) Level() float64 { return tw.lastValue }

// Start returns the beginning of the current window.
func (tw *TimeWeighted) Start() float64 { return tw.start }

// at returns a copy with the open interval credited up to t.
func (tw *TimeWeighted) at(t float64) TimeWeighted {
	c := *tw
	if t > c.lastTime {
		c.fold(t - c.lastTime)
		c.lastTime = t
	}
	return c
}

// Weight returns the total elapsed time observed up to t.
func (tw *TimeWeighted) Weight(t float64) float64 {
	c := tw.at(t)
	return c.weight
}

// Mean returns the time-average level over [start, t]; undefined for an
// empty window.
func (tw *TimeWeighted) Mean(t float64) (float64, bool) {
	c := tw.at(t)
	if c.weight == 0 {
		return 0, false
	}
	return c.mean, true
}

// Integral returns the area under the level over [start, t].
func (tw *TimeWeighted) Integral(t float64) float64 {
	c := tw.at(t)
	return c.mean * c.weight
}

// Variance returns the time-weighted population variance over [start, t];
// undefined for an empty window.
func (tw *TimeWeighted) Variance(t float64) (float64, bool) {
	c := tw.at(t)
	if c.weight == 0 {
		return 0, false
	}
	return c.sq / c.weight, true
}

// StdDev returns the square root of Variance.
func (tw *TimeWeighted) StdDev(t float64) (float64, bool) {
	v, ok := tw.Variance(t)
	if !ok {
		return 0, false
	}
	return math.Sqrt(v), true
}
