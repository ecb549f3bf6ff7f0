package can

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/pion/logging"
)

// openFunc constructs a fresh conn, swapped out in tests for a fake.
type openFunc func() (conn, error)

// ioLoop owns the socket and its read goroutine. Grounded on
// pkg/transport/udp.go's Start/Stop/readLoop: a single goroutine reads
// until the socket errs or Stop is called, dispatching each frame to a
// handler. Unlike the teacher, a transient open/bind failure does not
// abort startup outright: the loop retries opening the socket with
// cenkalti/backoff's exponential backoff, capped at a fixed number of
// attempts, before giving up.
type ioLoop struct {
	open    openFunc
	onFrame func(canID uint32, data []byte)
	log     logging.LeveledLogger

	mu      sync.Mutex
	c       conn
	stopped bool
	wg      sync.WaitGroup
}

func newIOLoop(open openFunc, onFrame func(canID uint32, data []byte), log logging.LeveledLogger) *ioLoop {
	if log == nil {
		log = logging.NewDefaultLoggerFactory().NewLogger("can")
	}
	return &ioLoop{open: open, onFrame: onFrame, log: log}
}

// maxOpenAttempts bounds the reconnect backoff so a permanently missing
// interface fails init() rather than retrying forever.
const maxOpenAttempts = 5

func (l *ioLoop) start() error {
	l.mu.Lock()
	started := l.c != nil
	l.mu.Unlock()
	if started {
		return nil
	}

	c, err := l.openWithBackoff()
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.c = c
	l.mu.Unlock()

	l.wg.Add(1)
	go l.readLoop()
	return nil
}

func (l *ioLoop) openWithBackoff() (conn, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = 2 * time.Second

	var lastErr error
	for attempt := 0; attempt < maxOpenAttempts; attempt++ {
		c, err := l.open()
		if err == nil {
			return c, nil
		}
		lastErr = err
		l.log.Warnf("can: open attempt %d failed: %v", attempt+1, err)
		time.Sleep(b.NextBackOff())
	}
	return nil, lastErr
}

func (l *ioLoop) readLoop() {
	defer l.wg.Done()
	for {
		l.mu.Lock()
		c := l.c
		stopped := l.stopped
		l.mu.Unlock()
		if stopped || c == nil {
			return
		}

		canID, data, err := c.recv()
		if err != nil {
			l.mu.Lock()
			stopped = l.stopped
			l.mu.Unlock()
			if stopped {
				return
			}
			l.log.Errorf("can: read error: %v", err)
			return
		}
		l.onFrame(canID, data)
	}
}

func (l *ioLoop) send(canID uint32, data []byte) error {
	l.mu.Lock()
	c := l.c
	l.mu.Unlock()
	if c == nil {
		return ErrNotInitialized
	}
	return c.send(canID, data)
}

func (l *ioLoop) stop() {
	l.mu.Lock()
	l.stopped = true
	c := l.c
	l.mu.Unlock()
	if c != nil {
		c.close()
	}
	l.wg.Wait()
}
