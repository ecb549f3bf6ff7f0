package rawdata

import "github.com/edgevehicle/agentcore/pkg/signal"

// typeBuffer is the per-type pool: an age-ordered sequence of frames plus
// the quota the manager enforces against it. It holds no lock of its own;
// callers hold Manager.mu for every access.
type typeBuffer struct {
	typeID TypeID
	cfg    SignalUpdateConfig

	// frames is ordered by ingest time; index 0 is oldest. Evictions and
	// lookups are O(n) in the frame count, which the spec's per-type
	// maxSamples quota keeps small (hundreds, not millions).
	frames []*frame
	byHandle map[signal.RawDataHandle]*frame

	bytesInUse   uint64
	markedDeleting bool

	stats typeStats
}

type typeStats struct {
	cumulativeReceived uint64
	residencySamples   int
	sumResidencyMs     int64
	minResidencyMs     int64
	maxResidencyMs     int64
	lastEvictedSum     uint64
}

func newTypeBuffer(id TypeID, cfg SignalUpdateConfig) *typeBuffer {
	return &typeBuffer{
		typeID:   id,
		cfg:      cfg,
		byHandle: make(map[signal.RawDataHandle]*frame),
	}
}

// hasLiveData reports whether any frame (pinned or not) is still resident.
func (b *typeBuffer) hasLiveData() bool {
	return len(b.frames) > 0
}

// findEvictionCandidate runs the two-tier priority scan of spec.md §4.A:
// oldest true-garbage frame first, else oldest hint-pinned-but-not-
// uploading frame. Returns -1 if nothing in this buffer is evictable.
func (b *typeBuffer) findEvictionCandidate() int {
	garbageIdx := -1
	hintIdx := -1
	for i, f := range b.frames {
		if f.inUseRefCount > 0 {
			continue
		}
		if f.isGarbage() {
			garbageIdx = i
			break
		}
		if hintIdx == -1 && f.hintPinnedEvictable() {
			hintIdx = i
		}
	}
	if garbageIdx != -1 {
		return garbageIdx
	}
	return hintIdx
}

// removeAt drops the frame at index i from the ordered sequence and the
// handle index, adjusting bytesInUse. It does not check eligibility; the
// caller must already have confirmed the frame should be freed.
func (b *typeBuffer) removeAt(i int) *frame {
	f := b.frames[i]
	b.frames = append(b.frames[:i], b.frames[i+1:]...)
	delete(b.byHandle, f.handle)
	b.bytesInUse -= uint64(len(f.bytes))
	return f
}

// removeIfEligible removes a specific frame if it is currently
// eligible for deletion (ref count zero and hint sum zero). Used when a
// release or hint decrement makes a frame on a deleting buffer collectible.
func (b *typeBuffer) removeIfEligible(h signal.RawDataHandle) bool {
	f, ok := b.byHandle[h]
	if !ok || !f.isGarbage() {
		return false
	}
	for i, candidate := range b.frames {
		if candidate == f {
			b.removeAt(i)
			return true
		}
	}
	return false
}
