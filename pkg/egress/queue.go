// Package egress implements the outbound CommandResponse queue: a
// bounded, multi-producer buffer between the actuator command manager
// (and the state-template translator) and whatever publishes responses
// to the cloud transport layer. Grounded on the teacher's
// pkg/exchange.Manager inbound-message channel: a buffered Go channel
// guarded only by its own send/receive semantics, with a notification
// hook fired after every successful push so a consumer blocked in
// select can wake without polling.
package egress

import (
	"sync"

	"github.com/edgevehicle/agentcore/pkg/signal"
)

// Capacity bounds the egress queue. A push against a full queue is
// dropped; the response is lost rather than the producer blocking.
const Capacity = 512

// Queue is a bounded FIFO of CommandResponse values.
type Queue struct {
	ch chan signal.CommandResponse

	notifyMu sync.Mutex
	notify   func()
}

// NewQueue constructs an empty Queue.
func NewQueue() *Queue {
	return &Queue{ch: make(chan signal.CommandResponse, Capacity)}
}

// OnPush registers a callback invoked after every successful Push. Only
// one callback may be registered at a time; a later call replaces the
// prior one.
func (q *Queue) OnPush(cb func()) {
	q.notifyMu.Lock()
	q.notify = cb
	q.notifyMu.Unlock()
}

// Push enqueues resp, returning false if the queue is full.
func (q *Queue) Push(resp signal.CommandResponse) bool {
	select {
	case q.ch <- resp:
		q.notifyMu.Lock()
		cb := q.notify
		q.notifyMu.Unlock()
		if cb != nil {
			cb()
		}
		return true
	default:
		return false
	}
}

// Pop removes and returns the oldest queued response. ok is false if
// the queue was empty.
func (q *Queue) Pop() (resp signal.CommandResponse, ok bool) {
	select {
	case resp = <-q.ch:
		return resp, true
	default:
		return signal.CommandResponse{}, false
	}
}

// Chan exposes the underlying channel for a consumer that wants to
// select on it directly alongside other event sources.
func (q *Queue) Chan() <-chan signal.CommandResponse {
	return q.ch
}

// Len reports the number of responses currently queued.
func (q *Queue) Len() int {
	return len(q.ch)
}
