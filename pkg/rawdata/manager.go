package rawdata

import (
	"strconv"
	"sync"

	"github.com/edgevehicle/agentcore/pkg/clock"
	"github.com/edgevehicle/agentcore/pkg/signal"
	"github.com/edgevehicle/agentcore/pkg/telemetry"
	"github.com/pion/logging"
)

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	// Config is the static buffer-manager configuration: the global byte
	// cap plus per-signal defaults and overrides. Required.
	Config *BufferManagerConfig

	// Clock supplies ingest timestamps and residency-time math. Defaults
	// to the real wall clock.
	Clock clock.Clock

	// LoggerFactory creates the manager's logger. Nil disables logging,
	// matching the teacher's nil-safe logger fields.
	LoggerFactory logging.LoggerFactory

	// Metrics receives buffer-level counters. Nil disables metrics.
	Metrics *telemetry.Registry
}

// Manager is the bounded, quota-enforced raw-data pool of spec.md §4.A. A
// single mutex guards every PerTypeBuffer and the handle generator;
// borrowed frames hold only a reference count and a pointer, so read
// access to loaned bytes never contends with the lock (spec.md §4.A
// "Concurrency").
type Manager struct {
	mu      sync.Mutex
	config  *BufferManagerConfig
	buffers map[TypeID]*typeBuffer
	gen     handleGenerator

	clock   clock.Clock
	log     logging.LeveledLogger
	metrics *telemetry.Registry
}

// NewManager constructs a Manager. No PerTypeBuffers exist until the first
// UpdateConfig call admits them.
func NewManager(cfg ManagerConfig) *Manager {
	m := &Manager{
		config:  cfg.Config,
		buffers: make(map[TypeID]*typeBuffer),
		clock:   cfg.Clock,
		metrics: cfg.Metrics,
	}
	if m.clock == nil {
		m.clock = clock.NewReal()
	}
	if cfg.LoggerFactory != nil {
		m.log = cfg.LoggerFactory.NewLogger("rawdata")
	}
	return m
}

// UpdateConfig admits PerTypeBuffers for every signal in specs that isn't
// already active, marks previously active types absent from specs as
// deleting (or removes them immediately if they hold no live data), and
// clears the deleting flag on any reappearing type. It returns
// ErrOutOfMemory, rolling back any addition made during this call, if the
// reservations implied by the new active set would exceed
// Config.MaxOverallBytes.
func (m *Manager) UpdateConfig(specs map[TypeID]SignalSpec) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	wanted := make(map[TypeID]SignalUpdateConfig, len(specs))
	for id, spec := range specs {
		wanted[id] = m.config.resolve(spec.InterfaceID, spec.MessageID)
	}

	// Mark removed types deleting (or drop them outright if empty).
	for id, b := range m.buffers {
		if _, stillWanted := wanted[id]; stillWanted {
			continue
		}
		if b.hasLiveData() {
			b.markedDeleting = true
		} else {
			delete(m.buffers, id)
		}
	}

	// Determine which types are new, so we can roll them back on failure.
	var added []TypeID
	for id, cfg := range wanted {
		if existing, ok := m.buffers[id]; ok {
			existing.markedDeleting = false
			existing.cfg = cfg
			continue
		}
		m.buffers[id] = newTypeBuffer(id, cfg)
		added = append(added, id)
	}

	var reserved uint64
	for id, b := range m.buffers {
		if b.markedDeleting {
			continue
		}
		_ = id
		reserved += b.cfg.ReservedBytes
	}

	if reserved > m.config.MaxOverallBytes {
		for _, id := range added {
			delete(m.buffers, id)
		}
		if m.log != nil {
			m.log.Warnf("rawdata: UpdateConfig rejected, reserved=%d exceeds cap=%d", reserved, m.config.MaxOverallBytes)
		}
		return ErrOutOfMemory
	}

	return nil
}

// Push admits a new sample into typeID's buffer, evicting as needed to
// make room, and returns its handle. It returns signal.InvalidHandle if
// the type is unknown, its buffer is deleting, the sample exceeds the
// type's per-sample cap, or space cannot be obtained.
func (m *Manager) Push(typeID TypeID, data []byte, timestampMs uint64) signal.RawDataHandle {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buffers[typeID]
	if !ok || b.markedDeleting {
		return signal.InvalidHandle
	}

	size := uint64(len(data))
	if size > b.cfg.MaxBytesPerSample {
		return signal.InvalidHandle
	}

	if !m.makeRoomLocked(b, size) {
		if m.log != nil {
			m.log.Warnf("rawdata: push rejected for type %d, no evictable space for %d bytes", typeID, size)
		}
		return signal.InvalidHandle
	}

	h := m.gen.next(timestampMs, data)
	for b.byHandle[h] != nil {
		h = m.gen.next(timestampMs, data)
	}

	f := &frame{handle: h, timestampMs: timestampMs, bytes: data}
	b.frames = append(b.frames, f)
	b.byHandle[h] = f
	b.bytesInUse += size
	b.stats.cumulativeReceived++

	if m.metrics != nil {
		tid := typeIDLabel(typeID)
		m.metrics.BufferBytesInUse.WithLabelValues(tid).Set(float64(b.bytesInUse))
		m.metrics.BufferSamples.WithLabelValues(tid).Set(float64(len(b.frames)))
		m.metrics.BufferPushesTotal.WithLabelValues(tid).Inc()
	}

	return h
}

// makeRoomLocked evicts frames from b, oldest-unpinned-first, until
// admitting size more bytes would not exceed b's own cap, its sample
// count, or the manager's global cap, or until nothing more can be
// evicted. Must be called with m.mu held.
func (m *Manager) makeRoomLocked(b *typeBuffer, size uint64) bool {
	for {
		newBytes := b.bytesInUse + size
		newCount := len(b.frames) + 1

		perTypeOK := newBytes <= b.cfg.MaxOverallBytes
		if b.cfg.MaxSamples > 0 {
			perTypeOK = perTypeOK && newCount <= b.cfg.MaxSamples
		}
		globalOK := m.committedLocked(b, newBytes) <= m.config.MaxOverallBytes

		if perTypeOK && globalOK {
			return true
		}

		idx := b.findEvictionCandidate()
		if idx == -1 {
			return false
		}
		evicted := b.removeAt(idx)
		m.recordEvictionLocked(b, evicted)
	}
}

// committedLocked computes the total committed bytes across the pool if
// b's own usage were newBytesForB: b's actual usage plus, for every other
// active type, the greater of its current usage or its reservation
// (spec.md §4.A "Total committed bytes").
func (m *Manager) committedLocked(b *typeBuffer, newBytesForB uint64) uint64 {
	total := newBytesForB
	for id, other := range m.buffers {
		if other == b || id == b.typeID {
			continue
		}
		if other.markedDeleting {
			total += other.bytesInUse
			continue
		}
		if other.bytesInUse > other.cfg.ReservedBytes {
			total += other.bytesInUse
		} else {
			total += other.cfg.ReservedBytes
		}
	}
	return total
}

func (m *Manager) recordEvictionLocked(b *typeBuffer, f *frame) {
	b.stats.lastEvictedSum = checksum64(f.bytes)
	m.recordResidencyLocked(b, f)
	if m.metrics != nil {
		tier := "garbage"
		if f.hintSum() > 0 {
			tier = "hint_pinned"
		}
		m.metrics.BufferEvictions.WithLabelValues(typeIDLabel(b.typeID), tier).Inc()
		m.metrics.BufferBytesInUse.WithLabelValues(typeIDLabel(b.typeID)).Set(float64(b.bytesInUse))
		m.metrics.BufferSamples.WithLabelValues(typeIDLabel(b.typeID)).Set(float64(len(b.frames)))
	}
}

func (m *Manager) recordResidencyLocked(b *typeBuffer, f *frame) {
	residency := int64(m.clock.NowMs()) - int64(f.timestampMs)
	if residency < 0 {
		residency = 0
	}
	if b.stats.residencySamples == 0 {
		b.stats.minResidencyMs = residency
		b.stats.maxResidencyMs = residency
	} else {
		if residency < b.stats.minResidencyMs {
			b.stats.minResidencyMs = residency
		}
		if residency > b.stats.maxResidencyMs {
			b.stats.maxResidencyMs = residency
		}
	}
	b.stats.sumResidencyMs += residency
	b.stats.residencySamples++
}

// BorrowFrame returns a reference-counted loan on the bytes stored under
// handle, or an invalid (nil) loan if the handle does not resolve to a
// live frame (never admitted, evicted, or freed after its owning buffer
// was marked deleting).
func (m *Manager) BorrowFrame(typeID TypeID, handle signal.RawDataHandle) *LoanedFrame {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buffers[typeID]
	if !ok {
		return nil
	}
	f, ok := b.byHandle[handle]
	if !ok {
		return nil
	}

	f.inUseRefCount++
	if m.metrics != nil {
		m.metrics.BufferBorrowed.WithLabelValues(typeIDLabel(typeID)).Inc()
	}

	return &LoanedFrame{
		mgr:       m,
		typeID:    typeID,
		handle:    handle,
		data:      f.bytes,
		timestamp: f.timestampMs,
	}
}

// releaseLoan is called by LoanedFrame.Release. It decrements the frame's
// reference count and, if the frame is now garbage and its buffer either
// is marked deleting or is still over its own budget, frees it eagerly
// instead of waiting for the next Push to evict it.
func (m *Manager) releaseLoan(typeID TypeID, handle signal.RawDataHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buffers[typeID]
	if !ok {
		return
	}
	f, ok := b.byHandle[handle]
	if !ok {
		return
	}

	if f.inUseRefCount > 0 {
		f.inUseRefCount--
	}
	if m.metrics != nil {
		m.metrics.BufferBorrowed.WithLabelValues(typeIDLabel(typeID)).Dec()
	}

	if !f.isGarbage() {
		return
	}

	overBudget := b.bytesInUse > b.cfg.MaxOverallBytes
	if b.markedDeleting || overBudget {
		b.removeIfEligible(handle)
		if b.markedDeleting && !b.hasLiveData() {
			delete(m.buffers, typeID)
		}
	}
}

// IncreaseHandleUsageHint increments the per-stage counter for handle.
// Returns false if the handle is unknown or stage is invalid.
func (m *Manager) IncreaseHandleUsageHint(typeID TypeID, handle signal.RawDataHandle, stage UsageStage) bool {
	return m.adjustHint(typeID, handle, stage, 1)
}

// DecreaseHandleUsageHint decrements the per-stage counter for handle.
// Returns false if the handle is unknown or stage is invalid.
func (m *Manager) DecreaseHandleUsageHint(typeID TypeID, handle signal.RawDataHandle, stage UsageStage) bool {
	return m.adjustHint(typeID, handle, stage, -1)
}

func (m *Manager) adjustHint(typeID TypeID, handle signal.RawDataHandle, stage UsageStage, delta int32) bool {
	if !validStage(stage) {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buffers[typeID]
	if !ok {
		return false
	}
	f, ok := b.byHandle[handle]
	if !ok {
		return false
	}

	f.usageHints[stage] += delta
	if f.usageHints[stage] < 0 {
		f.usageHints[stage] = 0
	}

	if f.isGarbage() && b.markedDeleting {
		b.removeIfEligible(handle)
		if !b.hasLiveData() {
			delete(m.buffers, typeID)
		}
	}

	return true
}

// ResetUsageHintsForStage clears stage's counter on every frame of every
// buffer. Any frame whose total hints drop to zero and whose reference
// count is already zero becomes eligible for deletion.
func (m *Manager) ResetUsageHintsForStage(stage UsageStage) {
	if !validStage(stage) {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for typeID, b := range m.buffers {
		var toFree []signal.RawDataHandle
		for h, f := range b.byHandle {
			f.usageHints[stage] = 0
			if f.isGarbage() {
				toFree = append(toFree, h)
			}
		}
		for _, h := range toFree {
			if b.markedDeleting {
				b.removeIfEligible(h)
			}
		}
		if b.markedDeleting && !b.hasLiveData() {
			delete(m.buffers, typeID)
		}
	}
}

// GetStatistics returns aggregated counters. If typeID is nil, it reports
// manager-wide totals (no residency figures, which are only meaningful per
// type). Otherwise it reports the named type's counters, including
// residency-time statistics.
func (m *Manager) GetStatistics(typeID *TypeID) Statistics {
	m.mu.Lock()
	defer m.mu.Unlock()

	if typeID == nil {
		var s Statistics
		for _, b := range m.buffers {
			s.CumulativeReceived += b.stats.cumulativeReceived
			s.CurrentlyInMemory += len(b.frames)
			s.CurrentlyBorrowed += borrowedCount(b)
		}
		return s
	}

	b, ok := m.buffers[*typeID]
	if !ok {
		return Statistics{}
	}
	s := Statistics{
		CumulativeReceived:  b.stats.cumulativeReceived,
		CurrentlyInMemory:   len(b.frames),
		CurrentlyBorrowed:   borrowedCount(b),
		LastEvictedChecksum: b.stats.lastEvictedSum,
	}
	if b.stats.residencySamples > 0 {
		s.HasResidencyData = true
		s.MinResidencyMs = b.stats.minResidencyMs
		s.MaxResidencyMs = b.stats.maxResidencyMs
		s.AvgResidencyMs = float64(b.stats.sumResidencyMs) / float64(b.stats.residencySamples)
	}
	return s
}

func borrowedCount(b *typeBuffer) int {
	var n int
	for _, f := range b.frames {
		if f.inUseRefCount > 0 {
			n++
		}
	}
	return n
}

func typeIDLabel(id TypeID) string {
	return strconv.FormatUint(uint64(id), 10)
}
