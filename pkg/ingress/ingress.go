package ingress

import (
	"github.com/google/uuid"
	"github.com/pion/logging"

	"github.com/edgevehicle/agentcore/pkg/clock"
	"github.com/edgevehicle/agentcore/pkg/egress"
	"github.com/edgevehicle/agentcore/pkg/rawdata"
	"github.com/edgevehicle/agentcore/pkg/signal"
)

// ActuatorSubmitter is the actuator command manager's inbound seam.
type ActuatorSubmitter interface {
	Submit(signal.ActuatorCommandRequest) bool
}

// StateTemplateHandler is the state-template translator's inbound seam.
type StateTemplateHandler interface {
	Handle(signal.LastKnownStateCommandRequest)
}

// Ingress validates and translates inbound command messages.
type Ingress struct {
	cfg            Config
	raw            *rawdata.Manager
	clock          clock.Clock
	egress         *egress.Queue
	actuators      ActuatorSubmitter
	stateTemplates StateTemplateHandler
	log            logging.LeveledLogger
}

// New constructs an Ingress. actuators and stateTemplates may be nil in
// tests that exercise only the validation path.
func New(cfg Config, c clock.Clock, raw *rawdata.Manager, eg *egress.Queue, actuators ActuatorSubmitter, stateTemplates StateTemplateHandler, loggerFactory logging.LoggerFactory) *Ingress {
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}
	return &Ingress{
		cfg:            cfg,
		raw:            raw,
		clock:          c,
		egress:         eg,
		actuators:      actuators,
		stateTemplates: stateTemplates,
		log:            loggerFactory.NewLogger("ingress"),
	}
}

// HandleActuatorCommand validates msg and, if it survives every check,
// submits the resulting ActuatorCommandRequest to the actuator command
// manager. Most rejection paths are silent (no response is queued): an
// oversized message, an out-of-range scalar, or a STRING argument
// against an unconfigured signal ID are all treated as if the message
// never arrived. Only a structurally empty oneof produces a queued
// COMMAND_REQUEST_PARSING_FAILED response, and only a deadline that has
// already elapsed produces a queued EXECUTION_TIMEOUT response.
func (ig *Ingress) HandleActuatorCommand(msg ActuatorCommandMessage) {
	corrID := uuid.New()
	ig.log.Debugf("ingress[%s]: actuator command %s received (signal %d)", corrID, msg.CommandID, msg.SignalID)

	if msg.DeclaredSizeBytes > ig.cfg.MaxPayloadBytes {
		ig.log.Warnf("ingress[%s]: dropping %s, declared size %d exceeds cap %d", corrID, msg.CommandID, msg.DeclaredSizeBytes, ig.cfg.MaxPayloadBytes)
		return
	}

	if msg.Value.Unset {
		ig.publish(signal.CommandResponse{
			CommandID:  signal.CommandID(msg.CommandID),
			Status:     signal.StatusExecutionFailed,
			ReasonCode: signal.ReasonCommandRequestParsingFail,
		})
		ig.log.Debugf("ingress[%s]: %s rejected, no command value set", corrID, msg.CommandID)
		return
	}

	if !rangeCheck(msg.Value) {
		ig.log.Warnf("ingress[%s]: dropping %s, value out of range for %v", corrID, msg.CommandID, msg.Value.Type)
		return
	}

	var handle signal.RawDataHandle = signal.InvalidHandle
	var stringTypeID uint32
	if msg.Value.Type == signal.TypeString {
		rdType, ok := ig.cfg.StringTypeMap[msg.SignalID]
		if !ok {
			ig.log.Warnf("ingress[%s]: dropping %s, signal %d has no configured STRING buffer type", corrID, msg.CommandID, msg.SignalID)
			return
		}
		h := ig.raw.Push(rdType, msg.Value.Bytes, msg.IssuedTimestampMs)
		if h == signal.InvalidHandle {
			ig.log.Warnf("ingress[%s]: dropping %s, raw data buffer rejected the staged string", corrID, msg.CommandID)
			return
		}
		ig.raw.IncreaseHandleUsageHint(rdType, h, rawdata.StageUploading)
		handle = h
		stringTypeID = uint32(rdType)
	}

	req := signal.ActuatorCommandRequest{
		CommandID:          signal.CommandID(msg.CommandID),
		DecoderManifestID:  msg.DecoderManifestID,
		SignalID:           msg.SignalID,
		SignalValue:        toSignalValue(msg.Value, handle, stringTypeID),
		IssuedTimestampMs:  msg.IssuedTimestampMs,
		ExecutionTimeoutMs: msg.ExecutionTimeoutMs,
	}

	if deadlineMs, has := req.Deadline(); has && ig.clock.NowMs() >= deadlineMs {
		if msg.Value.Type == signal.TypeString {
			ig.raw.DecreaseHandleUsageHint(rawdata.TypeID(stringTypeID), handle, rawdata.StageUploading)
		}
		ig.publish(signal.CommandResponse{
			CommandID:  req.CommandID,
			Status:     signal.StatusExecutionTimeout,
			ReasonCode: signal.ReasonTimedOutBeforeDispatch,
		})
		ig.log.Debugf("ingress[%s]: %s already past deadline before dispatch", corrID, msg.CommandID)
		return
	}

	if ig.actuators != nil && !ig.actuators.Submit(req) {
		ig.log.Warnf("ingress[%s]: dropping %s, actuator command queue full", corrID, msg.CommandID)
	}
	ig.log.Debugf("ingress[%s]: %s handed off", corrID, msg.CommandID)
}

// HandleLastKnownStateCommand validates msg and forwards one
// LastKnownStateCommandRequest per entry to the state-template
// translator, in order, all sharing msg.CommandID.
func (ig *Ingress) HandleLastKnownStateCommand(msg LastKnownStateMessage) {
	corrID := uuid.New()
	ig.log.Debugf("ingress[%s]: last-known-state command %s received (%d entries)", corrID, msg.CommandID, len(msg.Entries))

	if msg.DeclaredSizeBytes > ig.cfg.MaxPayloadBytes {
		ig.log.Warnf("ingress[%s]: dropping %s, declared size %d exceeds cap %d", corrID, msg.CommandID, msg.DeclaredSizeBytes, ig.cfg.MaxPayloadBytes)
		return
	}

	for _, entry := range msg.Entries {
		req := signal.LastKnownStateCommandRequest{
			CommandID:              signal.CommandID(msg.CommandID),
			StateTemplateID:        entry.StateTemplateID,
			Operation:              entry.Operation,
			DeactivateAfterSeconds: entry.DeactivateAfterSeconds,
		}
		if ig.stateTemplates != nil {
			ig.stateTemplates.Handle(req)
		}
	}
	ig.log.Debugf("ingress[%s]: %s handed off to state-template translator", corrID, msg.CommandID)
}

func (ig *Ingress) publish(resp signal.CommandResponse) {
	if ig.egress != nil {
		ig.egress.Push(resp)
	}
}
