package can

import (
	"sync"

	"github.com/edgevehicle/agentcore/pkg/actuator"
	"github.com/edgevehicle/agentcore/pkg/clock"
	"github.com/edgevehicle/agentcore/pkg/signal"
	"github.com/pion/logging"
)

// Dispatcher dispatches ActuatorCommandRequests onto one CAN interface
// and routes the eventual response frame back to the caller's callback.
// It satisfies the actuator package's Dispatcher contract structurally.
type Dispatcher struct {
	cfg   Config
	clock clock.Clock
	log   logging.LeveledLogger

	loop    *ioLoop
	table   *outstandingTable
	namesMu sync.Mutex
	names   []string
}

// NewDispatcher constructs a Dispatcher for cfg. The socket is not
// opened until Init is called.
func NewDispatcher(cfg Config, c clock.Clock, loggerFactory logging.LoggerFactory) *Dispatcher {
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}
	names := make([]string, 0, len(cfg.Actuators))
	for name := range cfg.Actuators {
		names = append(names, name)
	}
	d := &Dispatcher{
		cfg:   cfg,
		clock: c,
		log:   loggerFactory.NewLogger("can"),
		table: newOutstandingTable(),
		names: names,
	}
	d.loop = newIOLoop(func() (conn, error) {
		return openSocketCAN(cfg.Interface)
	}, d.handleFrame, d.log)
	return d
}

// Init opens the SocketCAN interface, reconnecting with backoff on a
// transient failure. It reports whether the interface is usable. Once the
// socket is open, a further call does nothing and reports true.
func (d *Dispatcher) Init() bool {
	if err := d.loop.start(); err != nil {
		d.log.Errorf("can: init failed for %s: %v", d.cfg.Interface, err)
		return false
	}
	return true
}

// Stop closes the socket and cancels every outstanding timer.
func (d *Dispatcher) Stop() {
	d.loop.stop()
	d.table.cancelAll()
}

// GetActuatorNames returns the actuator names this dispatcher serves.
func (d *Dispatcher) GetActuatorNames() []string {
	d.namesMu.Lock()
	defer d.namesMu.Unlock()
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// SetActuatorValue validates and dispatches req to the CAN interface,
// delivering every status update (including IN_PROGRESS) to callback.
// A duplicate commandID that is already outstanding is dropped silently,
// matching the source's documented behavior for resubmitted commands.
func (d *Dispatcher) SetActuatorValue(actuatorName string, req signal.ActuatorCommandRequest, resolve actuator.StringResolver, callback func(signal.CommandResponse)) {
	actCfg, ok := d.cfg.Actuators[actuatorName]
	if !ok {
		callback(failure(req.CommandID, signal.ReasonNotSupported, "actuator not configured on this CAN interface"))
		return
	}
	if req.SignalValue.Type != actCfg.SignalType {
		callback(failure(req.CommandID, signal.ReasonArgumentTypeMismatch, "signal type does not match actuator configuration"))
		return
	}

	var stringBytes []byte
	if req.SignalValue.Type == signal.TypeString {
		data, ok := resolve(req.SignalValue.Str)
		if !ok {
			callback(failure(req.CommandID, signal.ReasonRejected, "string argument handle could not be resolved"))
			return
		}
		stringBytes = data
	}

	var remainingMs uint32
	if deadlineMs, has := req.Deadline(); has {
		now := d.clock.NowMs()
		if now >= deadlineMs {
			callback(signal.CommandResponse{
				CommandID:  req.CommandID,
				Status:     signal.StatusExecutionTimeout,
				ReasonCode: signal.ReasonTimedOutBeforeDispatch,
			})
			return
		}
		remainingMs = uint32(deadlineMs - now)
	}

	frame, err := encodeRequest(req.CommandID, req.IssuedTimestampMs, uint64(req.ExecutionTimeoutMs), req.SignalValue, stringBytes)
	if err != nil {
		callback(failure(req.CommandID, signal.ReasonRejected, err.Error()))
		return
	}

	registered := d.table.register(req.CommandID, actCfg.ResponseCANID, callback, d.clock, remainingMs, func() {
		callback(signal.CommandResponse{
			CommandID:  req.CommandID,
			Status:     signal.StatusExecutionTimeout,
			ReasonCode: signal.ReasonNoResponse,
		})
	})
	if !registered {
		// Duplicate in-flight command: dropped silently, per source.
		return
	}

	if err := d.loop.send(actCfg.RequestCANID, frame); err != nil {
		d.log.Errorf("can: send failed for command %s: %v", req.CommandID, err)
		if cb, _, ok := d.table.deliver(signal.CommandResponse{CommandID: req.CommandID, Status: signal.StatusExecutionFailed}); ok {
			cb(failure(req.CommandID, signal.ReasonNoResponse, "frame could not be written to the bus"))
		}
	}
}

// handleFrame is the ioLoop frame callback: it decodes a response frame
// and, if it correlates to an outstanding command, delivers it.
// Malformed frames and frames for unknown or already-terminal commands
// are dropped silently.
func (d *Dispatcher) handleFrame(canID uint32, data []byte) {
	resp, err := decodeResponse(data)
	if err != nil {
		d.log.Warnf("can: malformed response frame on 0x%X: %v", canID, err)
		return
	}

	cb, wantCANID, ok := d.table.deliver(resp)
	if !ok {
		return
	}
	if wantCANID != canID {
		d.log.Warnf("can: response for %s arrived on unexpected CAN ID 0x%X (want 0x%X)", resp.CommandID, canID, wantCANID)
		return
	}
	cb(resp)
}

func failure(id signal.CommandID, reason signal.ReasonCode, desc string) signal.CommandResponse {
	return signal.CommandResponse{
		CommandID:         id,
		Status:            signal.StatusExecutionFailed,
		ReasonCode:        reason,
		ReasonDescription: desc,
	}
}
