// Package signal holds the data model shared by every component of the
// vehicle command core: command identifiers, status/reason codes, the
// typed signal value union, and the request/response envelopes that flow
// between ingress, the actuator command manager, and the interface
// dispatchers.
package signal

import "fmt"

// CommandID identifies a single actuator or state-template command for its
// entire lifetime, from ingress through dispatch to the terminal response.
// It is opaque and printable. The CAN dispatcher additionally requires it
// fit in 25 bytes including a null terminator (see pkg/can).
type CommandID string

// CommandStatus is the terminal or interim outcome of a dispatched command.
type CommandStatus uint8

const (
	// StatusSucceeded indicates the command completed successfully. Terminal.
	StatusSucceeded CommandStatus = 0x01
	// StatusExecutionTimeout indicates the deadline elapsed before a
	// terminal response was observed. Terminal.
	StatusExecutionTimeout CommandStatus = 0x02
	// StatusExecutionFailed indicates the command was rejected or the
	// vehicle network reported failure. Terminal.
	StatusExecutionFailed CommandStatus = 0x03
	// StatusInProgress is a non-terminal interim update. A command may
	// report IN_PROGRESS any number of times before a terminal status.
	StatusInProgress CommandStatus = 0x0A
)

// IsTerminal reports whether s ends the command's lifecycle. Every status
// other than IN_PROGRESS is terminal.
func (s CommandStatus) IsTerminal() bool {
	return s != StatusInProgress
}

func (s CommandStatus) String() string {
	switch s {
	case StatusSucceeded:
		return "SUCCEEDED"
	case StatusExecutionTimeout:
		return "EXECUTION_TIMEOUT"
	case StatusExecutionFailed:
		return "EXECUTION_FAILED"
	case StatusInProgress:
		return "IN_PROGRESS"
	default:
		return fmt.Sprintf("CommandStatus(0x%02X)", uint8(s))
	}
}

// ReasonCode qualifies a CommandStatus. Values below OEMRangeStart are
// reserved for the agent; OEM-defined codes occupy the range at and above
// OEMRangeStart.
type ReasonCode uint32

// OEMRangeStart is the first reason code value reserved for OEM-defined
// codes, e.g. a translated SOME/IP middleware call status.
const OEMRangeStart ReasonCode = 0x10000

// Agent-defined reason codes (spec.md §3, partial table).
const (
	ReasonUnspecified               ReasonCode = 0x0
	ReasonPreconditionFailed        ReasonCode = 0x1
	ReasonDecoderManifestOutOfSync  ReasonCode = 0x2
	ReasonNoDecodingRulesFound      ReasonCode = 0x3
	ReasonCommandRequestParsingFail ReasonCode = 0x4
	ReasonNoCommandDispatcherFound  ReasonCode = 0x5
	ReasonArgumentTypeMismatch      ReasonCode = 0x7
	ReasonNotSupported              ReasonCode = 0x8
	ReasonRejected                  ReasonCode = 0xA
	ReasonArgumentOutOfRange        ReasonCode = 0xC
	ReasonInternalError             ReasonCode = 0xD
	ReasonUnavailable               ReasonCode = 0xE
	ReasonTimedOutBeforeDispatch    ReasonCode = 0x12
	ReasonNoResponse                ReasonCode = 0x13
)

func (r ReasonCode) String() string {
	switch r {
	case ReasonUnspecified:
		return "UNSPECIFIED"
	case ReasonPreconditionFailed:
		return "PRECONDITION_FAILED"
	case ReasonDecoderManifestOutOfSync:
		return "DECODER_MANIFEST_OUT_OF_SYNC"
	case ReasonNoDecodingRulesFound:
		return "NO_DECODING_RULES_FOUND"
	case ReasonCommandRequestParsingFail:
		return "COMMAND_REQUEST_PARSING_FAILED"
	case ReasonNoCommandDispatcherFound:
		return "NO_COMMAND_DISPATCHER_FOUND"
	case ReasonArgumentTypeMismatch:
		return "ARGUMENT_TYPE_MISMATCH"
	case ReasonNotSupported:
		return "NOT_SUPPORTED"
	case ReasonRejected:
		return "REJECTED"
	case ReasonArgumentOutOfRange:
		return "ARGUMENT_OUT_OF_RANGE"
	case ReasonInternalError:
		return "INTERNAL_ERROR"
	case ReasonUnavailable:
		return "UNAVAILABLE"
	case ReasonTimedOutBeforeDispatch:
		return "TIMED_OUT_BEFORE_DISPATCH"
	case ReasonNoResponse:
		return "NO_RESPONSE"
	default:
		if r >= OEMRangeStart {
			return fmt.Sprintf("OEM(0x%X)", uint32(r-OEMRangeStart))
		}
		return fmt.Sprintf("ReasonCode(0x%X)", uint32(r))
	}
}
