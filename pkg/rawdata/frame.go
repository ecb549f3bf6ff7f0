package rawdata

import "github.com/edgevehicle/agentcore/pkg/signal"

// frame is one admitted payload. Its bytes slice is never reallocated or
// moved once pushed; stability for the lifetime of outstanding borrows is
// the core invariant LoanedFrame depends on.
type frame struct {
	handle        signal.RawDataHandle
	timestampMs   uint64
	bytes         []byte
	inUseRefCount int32
	usageHints    [int(stageCount)]int32
}

// isGarbage reports whether the frame holds no pins (ref count)
// and no usage hints at all, i.e. it is true garbage.
func (f *frame) isGarbage() bool {
	return f.inUseRefCount == 0 && f.hintSum() == 0
}

// hintPinnedEvictable reports whether the frame is only weakly pinned by
// usage hints (not borrowed) and is not mid-upload, making it eligible for
// the second eviction tier.
func (f *frame) hintPinnedEvictable() bool {
	return f.inUseRefCount == 0 && f.hintSum() > 0 && f.usageHints[StageUploading] == 0
}

func (f *frame) hintSum() int32 {
	var sum int32
	for _, h := range f.usageHints {
		sum += h
	}
	return sum
}

// LoanedFrame is a scoped, reference-counted read handle on a frame's
// bytes. While it is live the buffer manager guarantees the bytes are not
// moved, overwritten, or deallocated. Callers must call Release exactly
// once; a zero-value LoanedFrame (Valid() == false) represents a failed
// borrow and Release on it is a no-op.
type LoanedFrame struct {
	mgr       *Manager
	typeID    TypeID
	handle    signal.RawDataHandle
	data      []byte
	timestamp uint64
	released  bool
}

// Valid reports whether the loan actually references a live frame.
func (l *LoanedFrame) Valid() bool {
	return l != nil && l.mgr != nil
}

// Data returns the borrowed bytes. The slice must not be retained or
// mutated past Release.
func (l *LoanedFrame) Data() []byte {
	if l == nil {
		return nil
	}
	return l.data
}

// Size returns the length of the borrowed bytes.
func (l *LoanedFrame) Size() int {
	return len(l.Data())
}

// Timestamp returns the ingest timestamp of the borrowed frame, in epoch
// milliseconds.
func (l *LoanedFrame) Timestamp() uint64 {
	if l == nil {
		return 0
	}
	return l.timestamp
}

// Handle returns the handle this loan was taken against.
func (l *LoanedFrame) Handle() signal.RawDataHandle {
	if l == nil {
		return signal.InvalidHandle
	}
	return l.handle
}

// Release returns the loan, decrementing the frame's reference count. Safe
// to call on an invalid or already-released loan.
func (l *LoanedFrame) Release() {
	if l == nil || l.mgr == nil || l.released {
		return
	}
	l.released = true
	l.mgr.releaseLoan(l.typeID, l.handle)
}
