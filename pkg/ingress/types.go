// Package ingress implements command schema ingress: it validates and
// translates inbound command messages (already deserialized by the
// outer transport, the same boundary the teacher draws between its
// message layer and pkg/im's cluster command handlers) into the
// internal ActuatorCommandRequest / LastKnownStateCommandRequest types
// the rest of the core understands, tagging each with a correlation ID
// for tracing through logs.
package ingress

import (
	"github.com/edgevehicle/agentcore/pkg/rawdata"
	"github.com/edgevehicle/agentcore/pkg/signal"
)

// Config is the static ingress configuration.
type Config struct {
	// MaxPayloadBytes bounds the declared size of an inbound message.
	// Oversized messages are dropped before any parsing is attempted.
	MaxPayloadBytes int

	// StringTypeMap maps a signal ID carrying a STRING argument to the
	// raw data buffer manager type it should be staged under. A signal
	// ID absent from this map cannot carry a STRING argument.
	StringTypeMap map[uint32]rawdata.TypeID
}

// RawValue is the oneof-shaped argument value carried by an
// ActuatorCommandMessage: exactly one of its fields is meaningful,
// selected by Type (signal.TypeString uses Bytes; every other type
// uses whichever numeric field matches its kind). Unset reports a
// message whose oneof was never populated at all.
type RawValue struct {
	Unset   bool
	Type    signal.SignalType
	Int     int64
	Float64 float64
	Bool    bool
	Bytes   []byte
}

// ActuatorCommandMessage is the already-deserialized inbound message
// for a single actuator write.
type ActuatorCommandMessage struct {
	CommandID          string
	DecoderManifestID  string
	SignalID           uint32
	IssuedTimestampMs  uint64
	ExecutionTimeoutMs uint32
	Value              RawValue
	DeclaredSizeBytes  int
}

// LastKnownStateMessage is the already-deserialized inbound message for a
// state-template command: one CommandID carrying a list of per-template
// operations (state_template_information entries), each of which becomes
// its own LastKnownStateCommandRequest sharing the message's CommandID.
type LastKnownStateMessage struct {
	CommandID         string
	Entries           []StateTemplateEntry
	DeclaredSizeBytes int
}

// StateTemplateEntry is one state-template operation within a
// LastKnownStateMessage.
type StateTemplateEntry struct {
	StateTemplateID        string
	Operation              signal.StateTemplateOperation
	DeactivateAfterSeconds uint32
}
