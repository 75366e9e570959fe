package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWaitQueue_Peek_NonEmpty_ReturnsFront(t *testing.T) {
	// GIVEN a queue with requests [A, B]
	wq := &WaitQueue{}
	reqA := &Request{Holder: 1}
	reqB := &Request{Holder: 2}
	wq.Enqueue(reqA)
	wq.Enqueue(reqB)

	// WHEN Peek() is called
	got := wq.Peek()

	// THEN it returns the front element without removing it
	assert.Same(t, reqA, got)
	assert.Equal(t, 2, wq.Len())
}

func TestWaitQueue_Peek_Empty_ReturnsNil(t *testing.T) {
	wq := &WaitQueue{}
	assert.Nil(t, wq.Peek())
	assert.Nil(t, wq.Dequeue())
}

func TestWaitQueue_Dequeue_IsFIFO(t *testing.T) {
	// GIVEN requests enqueued as 1, 2, 3
	wq := &WaitQueue{}
	for i := 1; i <= 3; i++ {
		wq.Enqueue(&Request{Holder: i, Lane: "asu", RequestedAt: float64(i)})
	}
	assert.Equal(t, "1@asu(1.000)", wq.Peek().String())

	// WHEN dequeued
	var order []int
	for wq.Len() > 0 {
		order = append(order, wq.Dequeue().Holder)
	}

	// THEN they leave in arrival order
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestWaitQueue_Enqueue_Nil_Panics(t *testing.T) {
	wq := &WaitQueue{}
	assert.Panics(t, func() { wq.Enqueue(nil) })
}

func TestRequest_Before_TimeThenSequence(t *testing.T) {
	early := &Request{RequestedAt: 1, seq: 9}
	late := &Request{RequestedAt: 2, seq: 0}
	sameTimeFirst := &Request{RequestedAt: 1, seq: 3}

	assert.True(t, early.before(late))
	assert.False(t, late.before(early))
	assert.True(t, sameTimeFirst.before(early))
}
