package signal

// ActuatorCommandRequest is a single remote actuator write, decoded by
// ingress and owned by the actuator command manager's queue until a worker
// dequeues it.
type ActuatorCommandRequest struct {
	CommandID         CommandID
	DecoderManifestID string
	SignalID          uint32
	SignalValue       SignalValue
	IssuedTimestampMs uint64
	// ExecutionTimeoutMs is relative to IssuedTimestampMs. Zero means no
	// timeout.
	ExecutionTimeoutMs uint32
}

// Deadline returns the absolute deadline in epoch milliseconds, and whether
// one applies at all (ExecutionTimeoutMs == 0 means no deadline).
func (r *ActuatorCommandRequest) Deadline() (deadlineMs uint64, hasDeadline bool) {
	if r.ExecutionTimeoutMs == 0 {
		return 0, false
	}
	return r.IssuedTimestampMs + uint64(r.ExecutionTimeoutMs), true
}

// StateTemplateOperation is the action requested against a state template.
type StateTemplateOperation uint8

const (
	StateTemplateActivate StateTemplateOperation = iota
	StateTemplateDeactivate
	StateTemplateFetchSnapshot
)

func (o StateTemplateOperation) String() string {
	switch o {
	case StateTemplateActivate:
		return "ACTIVATE"
	case StateTemplateDeactivate:
		return "DEACTIVATE"
	case StateTemplateFetchSnapshot:
		return "FETCH_SNAPSHOT"
	default:
		return "UNKNOWN"
	}
}

// LastKnownStateCommandRequest activates, deactivates, or snapshots a
// state-template on the vehicle.
type LastKnownStateCommandRequest struct {
	CommandID             CommandID
	StateTemplateID       string
	Operation             StateTemplateOperation
	DeactivateAfterSeconds uint32
}

// CommandResponse is the outbound result of a command, queued onto the
// egress adapter for the cloud transport layer to publish.
type CommandResponse struct {
	CommandID         CommandID
	Status            CommandStatus
	ReasonCode        ReasonCode
	ReasonDescription string
}

// CustomSignalDecoder names the interface and decoder a signal ID maps to
// under a specific decoder manifest.
type CustomSignalDecoder struct {
	InterfaceID string
	DecoderName string
}

// CustomSignalDecoderFormatMap maps signal ID to its decoder entry for one
// decoder manifest version.
type CustomSignalDecoderFormatMap map[uint32]CustomSignalDecoder
