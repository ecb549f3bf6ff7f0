package rawdata

import (
	"testing"
	"time"

	"github.com/edgevehicle/agentcore/pkg/clock"
	"github.com/edgevehicle/agentcore/pkg/signal"
)

func newTestManager(t *testing.T, maxOverall uint64, defaults SignalUpdateConfig) (*Manager, *clock.Fake) {
	t.Helper()
	fc := clock.NewFake(time.Unix(1_700_000_000, 0))
	cfg := NewBufferManagerConfig(maxOverall, defaults)
	m := NewManager(ManagerConfig{Config: cfg, Clock: fc})
	return m, fc
}

func mustActivate(t *testing.T, m *Manager, id TypeID) {
	t.Helper()
	if err := m.UpdateConfig(map[TypeID]SignalSpec{id: {TypeID: id}}); err != nil {
		t.Fatalf("UpdateConfig: %v", err)
	}
}

// TestEvictionOldestUnpinnedFirst is scenario S6 from spec.md §8: push to
// maxSamples, pin the oldest, push more, and confirm only unpinned frames
// are evicted while the pinned one survives.
func TestEvictionOldestUnpinnedFirst(t *testing.T) {
	m, fc := newTestManager(t, 1<<20, SignalUpdateConfig{
		ReservedBytes:     200,
		MaxSamples:        20,
		MaxBytesPerSample: 1000,
		MaxOverallBytes:   1 << 20,
	})
	mustActivate(t, m, 1)

	handles := make([]signal.RawDataHandle, 20)
	for i := 0; i < 20; i++ {
		h := m.Push(1, make([]byte, 100), fc.NowMs())
		if h == signal.InvalidHandle {
			t.Fatalf("push %d: rejected", i)
		}
		handles[i] = h
		fc.Advance(time.Millisecond)
	}

	loan := m.BorrowFrame(1, handles[0])
	if !loan.Valid() {
		t.Fatal("expected valid loan on handles[0]")
	}

	for i := 0; i < 5; i++ {
		h := m.Push(1, make([]byte, 100), fc.NowMs())
		if h == signal.InvalidHandle {
			t.Fatalf("push extra %d: rejected", i)
		}
		fc.Advance(time.Millisecond)
	}

	if l := m.BorrowFrame(1, handles[0]); !l.Valid() {
		t.Error("pinned frame should still be borrowable")
	} else {
		l.Release()
	}

	for i := 1; i <= 5; i++ {
		if l := m.BorrowFrame(1, handles[i]); l.Valid() {
			t.Errorf("handle[%d] should have been evicted", i)
		}
	}

	loan.Release()
}

func TestPushRejectsOversizedSample(t *testing.T) {
	m, fc := newTestManager(t, 1<<20, SignalUpdateConfig{
		MaxSamples:        10,
		MaxBytesPerSample: 100,
		MaxOverallBytes:   1 << 20,
	})
	mustActivate(t, m, 1)

	if h := m.Push(1, make([]byte, 101), fc.NowMs()); h != signal.InvalidHandle {
		t.Error("expected rejection for sample exceeding MaxBytesPerSample")
	}
	if h := m.Push(1, make([]byte, 100), fc.NowMs()); h == signal.InvalidHandle {
		t.Error("expected sample at exactly MaxBytesPerSample to be accepted")
	}
}

func TestPushRejectsUnknownOrDeletingType(t *testing.T) {
	m, fc := newTestManager(t, 1<<20, SignalUpdateConfig{
		MaxSamples: 10, MaxBytesPerSample: 100, MaxOverallBytes: 1 << 20,
	})

	if h := m.Push(1, []byte("x"), fc.NowMs()); h != signal.InvalidHandle {
		t.Error("expected rejection for unknown type")
	}

	mustActivate(t, m, 1)
	h := m.Push(1, []byte("x"), fc.NowMs())
	if h == signal.InvalidHandle {
		t.Fatal("expected push to succeed before deletion")
	}

	loan := m.BorrowFrame(1, h)
	if !loan.Valid() {
		t.Fatal("expected valid loan")
	}

	// Deactivate the type: it has live (pinned) data so it should be
	// marked deleting, not removed outright.
	if err := m.UpdateConfig(map[TypeID]SignalSpec{}); err != nil {
		t.Fatalf("UpdateConfig: %v", err)
	}

	if h2 := m.Push(1, []byte("y"), fc.NowMs()); h2 != signal.InvalidHandle {
		t.Error("expected push rejection on deleting buffer")
	}

	// The pinned frame must still be addressable by its original handle.
	if l := m.BorrowFrame(1, h); !l.Valid() {
		t.Error("pinned frame on deleting buffer should remain borrowable")
	} else {
		l.Release()
	}
	loan.Release()
}

func TestPushAtExactlyMaxSamplesAllPinnedReturnsInvalid(t *testing.T) {
	m, fc := newTestManager(t, 1<<20, SignalUpdateConfig{
		ReservedBytes: 0, MaxSamples: 3, MaxBytesPerSample: 100, MaxOverallBytes: 1 << 20,
	})
	mustActivate(t, m, 1)

	var loans []*LoanedFrame
	for i := 0; i < 3; i++ {
		h := m.Push(1, []byte{byte(i)}, fc.NowMs())
		if h == signal.InvalidHandle {
			t.Fatalf("push %d rejected", i)
		}
		loans = append(loans, m.BorrowFrame(1, h))
	}

	if h := m.Push(1, []byte{9}, fc.NowMs()); h != signal.InvalidHandle {
		t.Error("expected INVALID when all frames are pinned at maxSamples")
	}

	for _, l := range loans {
		l.Release()
	}
}

func TestUpdateConfigOutOfMemory(t *testing.T) {
	m, _ := newTestManager(t, 100, SignalUpdateConfig{
		ReservedBytes: 60, MaxSamples: 10, MaxBytesPerSample: 100, MaxOverallBytes: 100,
	})

	err := m.UpdateConfig(map[TypeID]SignalSpec{1: {TypeID: 1}, 2: {TypeID: 2}})
	if err != ErrOutOfMemory {
		t.Fatalf("expected ErrOutOfMemory (reserved 120 > cap 100), got %v", err)
	}

	// Rolled back: neither type should be active.
	stats := m.GetStatistics(nil)
	if stats.CurrentlyInMemory != 0 {
		t.Errorf("expected no frames after rollback, got %d", stats.CurrentlyInMemory)
	}
}

func TestUsageHintRoundTripIsNoop(t *testing.T) {
	m, fc := newTestManager(t, 1<<20, SignalUpdateConfig{
		ReservedBytes: 1000, MaxSamples: 10, MaxBytesPerSample: 100, MaxOverallBytes: 1 << 20,
	})
	mustActivate(t, m, 1)

	h := m.Push(1, []byte("payload"), fc.NowMs())
	if h == signal.InvalidHandle {
		t.Fatal("push rejected")
	}

	if !m.IncreaseHandleUsageHint(1, h, StageSelectedForUpload) {
		t.Fatal("increase should succeed")
	}
	if !m.DecreaseHandleUsageHint(1, h, StageSelectedForUpload) {
		t.Fatal("decrease should succeed")
	}

	// Eligibility unchanged: still borrowable, not pinned or dropped.
	if l := m.BorrowFrame(1, h); !l.Valid() {
		t.Error("handle should remain valid after a balanced hint round trip")
	} else {
		l.Release()
	}
}

func TestHintStageUploadingBlocksEviction(t *testing.T) {
	m, fc := newTestManager(t, 1<<20, SignalUpdateConfig{
		ReservedBytes: 0, MaxSamples: 2, MaxBytesPerSample: 100, MaxOverallBytes: 1 << 20,
	})
	mustActivate(t, m, 1)

	h0 := m.Push(1, []byte{1}, fc.NowMs())
	if !m.IncreaseHandleUsageHint(1, h0, StageUploading) {
		t.Fatal("increase uploading hint should succeed")
	}
	m.Push(1, []byte{2}, fc.NowMs())

	// Pushing a third sample must evict, but h0 is mid-upload: it must
	// survive even though its ref count is zero.
	m.Push(1, []byte{3}, fc.NowMs())

	if l := m.BorrowFrame(1, h0); !l.Valid() {
		t.Error("frame with nonzero UPLOADING hint must never be evicted")
	} else {
		l.Release()
	}
}

func TestUnknownHandleHintReturnsFalse(t *testing.T) {
	m, _ := newTestManager(t, 1<<20, SignalUpdateConfig{
		MaxSamples: 10, MaxBytesPerSample: 100, MaxOverallBytes: 1 << 20,
	})
	mustActivate(t, m, 1)

	if m.IncreaseHandleUsageHint(1, 0xDEADBEEF, StageHistoryBuffer) {
		t.Error("expected false for unknown handle")
	}
	if m.IncreaseHandleUsageHint(1, 0xDEADBEEF, UsageStage(999)) {
		t.Error("expected false for invalid stage")
	}
}
