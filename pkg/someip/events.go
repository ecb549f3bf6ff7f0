package someip

import (
	"sync"

	"github.com/edgevehicle/agentcore/pkg/signal"
)

// eventRouter tracks the callback for every in-flight long-running
// command, keyed by command ID, and delivers the terminal update when
// the corresponding SOME/IP event arrives. Grounded on the same
// correlation-table shape as pkg/can's outstandingTable, minus the
// timeout timer: a long-running SOME/IP command has no dispatcher-side
// deadline of its own, it relies on the caller's own timeout plumbing.
type eventRouter struct {
	mu        sync.Mutex
	listeners map[signal.CommandID]func(signal.CommandResponse)
}

func newEventRouter() *eventRouter {
	return &eventRouter{listeners: make(map[signal.CommandID]func(signal.CommandResponse))}
}

func (r *eventRouter) register(id signal.CommandID, cb func(signal.CommandResponse)) {
	r.mu.Lock()
	r.listeners[id] = cb
	r.mu.Unlock()
}

func (r *eventRouter) forget(id signal.CommandID) {
	r.mu.Lock()
	delete(r.listeners, id)
	r.mu.Unlock()
}

// Deliver routes a long-running command event to its registered
// callback, per the middleware's event payload. It is exported so the
// component wiring the real SOME/IP event subscription can feed events
// in as they arrive. Terminal statuses deregister the listener; a
// status for an unknown or already-terminated command is dropped.
func (r *eventRouter) Deliver(resp signal.CommandResponse) {
	r.mu.Lock()
	cb, ok := r.listeners[resp.CommandID]
	if ok && resp.Status.IsTerminal() {
		delete(r.listeners, resp.CommandID)
	}
	r.mu.Unlock()

	if ok {
		cb(resp)
	}
}
