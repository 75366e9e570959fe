// Implements the WaitQueue, which holds bed requests waiting for a slot.
// Requests are enqueued on arrival at a unit and released strictly in
// arrival order.

package sim

import "fmt"

// Request is one holder's claim on a resource lane.
type Request struct {
	Holder      int     // holder identity, the patient ID
	Lane        string  // lane (unit) the request belongs to
	RequestedAt float64 // simulated time of the request
	seq         uint64  // tie-breaker for requests made at the same instant
}

func (r *Request) String() string {
	return fmt.Sprintf("%d@%s(%.3f)", r.Holder, r.Lane, r.RequestedAt)
}

// before orders requests first-come-first-served across lanes.
func (r *Request) before(o *Request) bool {
	if r.RequestedAt != o.RequestedAt {
		return r.RequestedAt < o.RequestedAt
	}
	return r.seq < o.seq
}

// WaitQueue represents a FIFO queue of requests waiting for a slot.
type WaitQueue struct {
	queue []*Request
}

// Enqueue adds a request to the back of the wait queue.
func (wq *WaitQueue) Enqueue(r *Request) {
	if r == nil {
		panic("Enqueue: request must not be nil")
	}
	wq.queue = append(wq.queue, r)
}

// Len returns the number of requests in the queue.
func (wq *WaitQueue) Len() int {
	return len(wq.queue)
}

// Peek returns the request at the front of the queue without removing it.
// Returns nil if the queue is empty.
func (wq *WaitQueue) Peek() *Request {
	if len(wq.queue) == 0 {
		return nil
	}
	return wq.queue[0]
}

// Dequeue removes and returns the request at the front of the queue.
// Returns nil if the queue is empty.
func (wq *WaitQueue) Dequeue() *Request {
	if len(wq.queue) == 0 {
		return nil
	}
	r := wq.queue[0]
	wq.queue[0] = nil
	wq.queue = wq.queue[1:]
	return r
}
