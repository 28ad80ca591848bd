package event

import (
	"sync/atomic"

	"github.com/lixenwraith/transit/parameter"
)

// Queue carries simulation events from partition tick goroutines to a
// single drain point (the router, or a viewer loop) without blocking the
// ticks. Any goroutine may Push; exactly one goroutine Consumes. A full
// ring drops the oldest events, never the newest
type Queue struct {
	events    [parameter.EventQueueSize]Event
	published [parameter.EventQueueSize]atomic.Bool // slot holds a complete event
	head      atomic.Uint64                         // next unread slot
	tail      atomic.Uint64                         // next free slot
}

func NewQueue() *Queue {
	q := &Queue{}
	q.head.Store(0)
	q.tail.Store(0)
	return q
}

// Push claims a slot by CAS on the tail and never blocks; lost races
// retry on the next slot. Concurrent partition ticks may call this
func (q *Queue) Push(ev Event) {
	for {
		currentTail := q.tail.Load()
		nextTail := currentTail + 1

		if q.tail.CompareAndSwap(currentTail, nextTail) {
			idx := currentTail & parameter.EventBufferMask

			q.events[idx] = ev
			// The flag flips only once the slot is whole
			q.published[idx].Store(true)

			// Lapped the reader: move head past the overwritten slots
			currentHead := q.head.Load()
			if nextTail-currentHead > parameter.EventQueueSize {
				q.head.CompareAndSwap(currentHead, nextTail-parameter.EventQueueSize)
			}
			return
		}
	}
}

// Consume drains every pending event in push order. Only one goroutine
// may consume; a slot whose flag is still down ends the batch early
// rather than exposing a half-written event
func (q *Queue) Consume() []Event {
	for {
		currentHead := q.head.Load()
		currentTail := q.tail.Load()

		if currentTail == currentHead {
			return nil
		}

		maxAvailable := currentTail - currentHead
		if maxAvailable > parameter.EventQueueSize {
			maxAvailable = parameter.EventQueueSize
			currentHead = currentTail - parameter.EventQueueSize
		}

		result := make([]Event, 0, maxAvailable)
		for i := uint64(0); i < maxAvailable; i++ {
			idx := (currentHead + i) & parameter.EventBufferMask

			if !q.published[idx].Load() {
				break
			}

			result = append(result, q.events[idx])
			q.published[idx].Store(false)
		}

		newHead := currentHead + uint64(len(result))
		if q.head.CompareAndSwap(currentHead, newHead) {
			if len(result) == 0 {
				return nil
			}
			return result
		}
	}
}

// Len estimates the pending event count; producers may race it
func (q *Queue) Len() int {
	head := q.head.Load()
	tail := q.tail.Load()
	if tail <= head {
		return 0
	}
	diff := int(tail - head)
	if diff > parameter.EventQueueSize {
		return parameter.EventQueueSize
	}
	return diff
}
