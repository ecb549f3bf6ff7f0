package clock

import (
	"sync"
	"time"
)

// Fake is a manually advanced Clock for deterministic tests. Zero value is
// ready to use and starts at the zero time.Time (January 1, year 1 UTC);
// call Set to pick a start time.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	waiters []*fakeTimer
}

// NewFake returns a Fake clock set to the given start time.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now implements Clock.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// NowMs implements Clock.
func (f *Fake) NowMs() uint64 {
	return uint64(f.Now().UnixMilli())
}

// Set pins the clock to t, firing any timers whose deadline has passed.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	f.now = t
	due := f.dueLocked()
	f.mu.Unlock()
	fireAll(due)
}

// Advance moves the clock forward by d, firing any timers whose deadline
// has passed.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	due := f.dueLocked()
	f.mu.Unlock()
	fireAll(due)
}

// dueLocked must be called with f.mu held. It removes and returns fired
// timers without invoking their callbacks (invocation happens outside the
// lock to match this repo's no-callback-under-lock discipline).
func (f *Fake) dueLocked() []*fakeTimer {
	var due []*fakeTimer
	remaining := f.waiters[:0]
	for _, w := range f.waiters {
		if !w.stopped && !w.deadline.After(f.now) {
			due = append(due, w)
		} else {
			remaining = append(remaining, w)
		}
	}
	f.waiters = remaining
	return due
}

func fireAll(due []*fakeTimer) {
	for _, w := range due {
		w.fire()
	}
}

// AfterFunc implements Clock.
func (f *Fake) AfterFunc(d time.Duration, cb func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()

	t := &fakeTimer{deadline: f.now.Add(d), callback: cb}
	if d <= 0 {
		// Fire immediately, but outside any lock the caller might hold
		// by deferring to the same policy as time.AfterFunc(0, f): it
		// still runs on its own goroutine-equivalent call path.
		go t.fire()
		return t
	}
	f.waiters = append(f.waiters, t)
	return t
}

type fakeTimer struct {
	mu       sync.Mutex
	deadline time.Time
	callback func()
	stopped  bool
	fired    bool
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

func (t *fakeTimer) fire() {
	t.mu.Lock()
	if t.stopped || t.fired {
		t.mu.Unlock()
		return
	}
	t.fired = true
	cb := t.callback
	t.mu.Unlock()
	if cb != nil {
		cb()
	}
}
