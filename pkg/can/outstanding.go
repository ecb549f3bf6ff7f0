package can

import (
	"sync"
	"time"

	"github.com/edgevehicle/agentcore/pkg/clock"
	"github.com/edgevehicle/agentcore/pkg/signal"
)

func msDuration(ms uint32) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// pendingCommand is one entry of the outstanding-command table: a
// command awaiting its terminal response frame, or having already
// received an IN_PROGRESS update.
type pendingCommand struct {
	canID    uint32
	callback func(signal.CommandResponse)
	timer    clock.Timer
}

// outstandingTable correlates response frames back to the caller that
// issued the originating request, by command ID. It follows the
// teacher's exchange table discipline: the lock guards only map
// bookkeeping, and callbacks always run after the lock is released so a
// callback can safely call back into the dispatcher without deadlock.
type outstandingTable struct {
	mu      sync.Mutex
	pending map[signal.CommandID]*pendingCommand
}

func newOutstandingTable() *outstandingTable {
	return &outstandingTable{pending: make(map[signal.CommandID]*pendingCommand)}
}

// register adds a new entry and, for a non-zero timeout (in
// milliseconds), arms onTimeout on the given clock to fire if no response
// arrives first. A zero timeout arms no timer. It returns false without
// registering if commandID is already outstanding (duplicate commands
// are dropped silently by the caller).
func (t *outstandingTable) register(id signal.CommandID, canID uint32, cb func(signal.CommandResponse), c clock.Clock, timeout uint32, onTimeout func()) bool {
	t.mu.Lock()
	if _, exists := t.pending[id]; exists {
		t.mu.Unlock()
		return false
	}
	entry := &pendingCommand{canID: canID, callback: cb}
	t.pending[id] = entry
	t.mu.Unlock()

	if timeout == 0 {
		return true
	}
	entry.timer = c.AfterFunc(msDuration(timeout), func() {
		t.mu.Lock()
		cur, ok := t.pending[id]
		if !ok || cur != entry {
			t.mu.Unlock()
			return
		}
		delete(t.pending, id)
		t.mu.Unlock()
		onTimeout()
	})
	return true
}

// deliver looks up the entry for resp.CommandID and returns its callback
// and canID. Terminal statuses remove the entry and stop its timer;
// IN_PROGRESS leaves the entry (and its timeout timer) armed. Returns ok
// == false if no such command is outstanding (a late or unsolicited
// frame), which the caller treats as silently ignorable.
func (t *outstandingTable) deliver(resp signal.CommandResponse) (cb func(signal.CommandResponse), canID uint32, ok bool) {
	t.mu.Lock()
	entry, exists := t.pending[resp.CommandID]
	if !exists {
		t.mu.Unlock()
		return nil, 0, false
	}
	if resp.Status.IsTerminal() {
		delete(t.pending, resp.CommandID)
	}
	t.mu.Unlock()

	if resp.Status.IsTerminal() && entry.timer != nil {
		entry.timer.Stop()
	}
	return entry.callback, entry.canID, true
}

// cancelAll stops every outstanding timer and clears the table, used on
// dispatcher shutdown.
func (t *outstandingTable) cancelAll() {
	t.mu.Lock()
	entries := make([]*pendingCommand, 0, len(t.pending))
	for _, e := range t.pending {
		entries = append(entries, e)
	}
	t.pending = make(map[signal.CommandID]*pendingCommand)
	t.mu.Unlock()

	for _, e := range entries {
		if e.timer != nil {
			e.timer.Stop()
		}
	}
}
