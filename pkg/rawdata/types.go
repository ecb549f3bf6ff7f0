// Package rawdata implements the bounded, quota-enforced shared pool for
// variable-size payloads ingested from vehicle services (camera frames,
// point clouds, strings referenced from actuator commands). It hands out
// reference-counted loaned frames that pin bytes at a stable address,
// tracks weak per-pipeline-stage usage hints, and evicts the oldest
// unpinned frame of a type when that type or the global pool is over
// budget.
//
// The locking discipline mirrors the teacher's exchange/session tables
// (pkg/exchange/retransmit.go, pkg/session/table.go in backkem/matter): a
// single mutex guards all bookkeeping, and nothing that could block or run
// caller-supplied code executes while it is held.
package rawdata

import "fmt"

// TypeID identifies a category of raw payload (e.g. a camera-frame signal
// ID). It is the "typeId" of spec.md §3/§4.A.
type TypeID uint32

// UsageStage is a weak, per-pipeline-stage reference on a handle. It biases
// eviction without pinning bytes the way a loaned frame does.
type UsageStage int

const (
	StageCollectedNotInHistoryBuffer UsageStage = iota
	StageHistoryBuffer
	StageSelectedForUpload
	StageHandedOverToSender
	StageUploading
	stageCount // sentinel, not a valid stage
)

func (s UsageStage) String() string {
	switch s {
	case StageCollectedNotInHistoryBuffer:
		return "COLLECTED_NOT_IN_HISTORY_BUFFER"
	case StageHistoryBuffer:
		return "HISTORY_BUFFER"
	case StageSelectedForUpload:
		return "SELECTED_FOR_UPLOAD"
	case StageHandedOverToSender:
		return "HANDED_OVER_TO_SENDER"
	case StageUploading:
		return "UPLOADING"
	default:
		return fmt.Sprintf("UsageStage(%d)", int(s))
	}
}

// validStage reports whether s is one of the defined UsageStage constants.
func validStage(s UsageStage) bool {
	return s >= StageCollectedNotInHistoryBuffer && s < stageCount
}

// StorageStrategy selects how a PerTypeBuffer orders and retires its
// frames. RingByAge, the only strategy this core implements, evicts the
// oldest eligible frame first; it exists as a field on the config so a
// future strategy can be added without an API break.
type StorageStrategy int

const (
	StorageRingByAge StorageStrategy = iota
)

// SignalUpdateConfig is the effective per-signal quota for one TypeID,
// either taken from BufferManagerConfig.Defaults or from an override keyed
// by (InterfaceID, MessageID).
type SignalUpdateConfig struct {
	ReservedBytes     uint64
	MaxSamples        int
	MaxBytesPerSample uint64
	MaxOverallBytes   uint64
	Strategy          StorageStrategy
}

// overrideKey identifies a signal for the purpose of config overrides.
type overrideKey struct {
	InterfaceID string
	MessageID   uint32
}

// BufferManagerConfig is the static configuration resolved once at
// construction. Signal-specific overrides take precedence over Defaults.
type BufferManagerConfig struct {
	MaxOverallBytes uint64
	Defaults        SignalUpdateConfig
	Overrides       map[overrideKey]SignalUpdateConfig
}

// NewBufferManagerConfig builds a BufferManagerConfig with an empty
// override table.
func NewBufferManagerConfig(maxOverallBytes uint64, defaults SignalUpdateConfig) *BufferManagerConfig {
	return &BufferManagerConfig{
		MaxOverallBytes: maxOverallBytes,
		Defaults:        defaults,
		Overrides:       make(map[overrideKey]SignalUpdateConfig),
	}
}

// SetOverride registers a per-signal override for (interfaceID, messageID).
func (c *BufferManagerConfig) SetOverride(interfaceID string, messageID uint32, cfg SignalUpdateConfig) {
	c.Overrides[overrideKey{interfaceID, messageID}] = cfg
}

// resolve returns the effective config for a signal, applying overrides
// over defaults.
func (c *BufferManagerConfig) resolve(interfaceID string, messageID uint32) SignalUpdateConfig {
	if cfg, ok := c.Overrides[overrideKey{interfaceID, messageID}]; ok {
		return cfg
	}
	return c.Defaults
}

// SignalSpec identifies one active signal passed to UpdateConfig: its
// TypeID plus the (interfaceID, messageID) pair used to resolve an
// override.
type SignalSpec struct {
	TypeID      TypeID
	InterfaceID string
	MessageID   uint32
}

// Statistics aggregates counters for one type, or the whole manager when
// requested without a TypeID.
type Statistics struct {
	CumulativeReceived  uint64
	CurrentlyInMemory   int
	CurrentlyBorrowed   int
	MaxResidencyMs       int64
	MinResidencyMs       int64
	AvgResidencyMs       float64
	LastEvictedChecksum uint64
	HasResidencyData     bool
}
