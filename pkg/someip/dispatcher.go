package someip

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/edgevehicle/agentcore/pkg/actuator"
	"github.com/edgevehicle/agentcore/pkg/clock"
	"github.com/edgevehicle/agentcore/pkg/signal"
	"github.com/pion/logging"
	"github.com/sony/gobreaker"
)

// Dispatcher dispatches ActuatorCommandRequests to a SOME/IP proxy
// method per actuator, guarding each call with its own circuit breaker
// so a wedged middleware process degrades to fast EXECUTION_FAILED
// responses instead of hanging every caller behind it.
type Dispatcher struct {
	cfg   Config
	clock clock.Clock
	log   logging.LeveledLogger

	events *eventRouter

	breakersMu sync.Mutex
	breakers   map[string]*gobreaker.CircuitBreaker
}

// NewDispatcher constructs a Dispatcher for cfg.
func NewDispatcher(cfg Config, c clock.Clock, loggerFactory logging.LoggerFactory) *Dispatcher {
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}
	return &Dispatcher{
		cfg:      cfg,
		clock:    c,
		log:      loggerFactory.NewLogger("someip"),
		events:   newEventRouter(),
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Init reports readiness. SOME/IP proxies are expected to already be
// connected by the caller that constructed cfg, so there is no socket
// to open here; Init exists to satisfy the actuator package's
// Dispatcher contract.
func (d *Dispatcher) Init() bool { return true }

// GetActuatorNames returns the actuator names this dispatcher serves.
func (d *Dispatcher) GetActuatorNames() []string {
	names := make([]string, 0, len(d.cfg.Actuators))
	for name := range d.cfg.Actuators {
		names = append(names, name)
	}
	return names
}

// Events exposes the long-running command event router so the
// component owning the real SOME/IP event subscription can feed
// terminal updates back in as they arrive.
func (d *Dispatcher) Events() *eventRouter {
	return d.events
}

func (d *Dispatcher) breakerFor(actuatorName string) *gobreaker.CircuitBreaker {
	d.breakersMu.Lock()
	defer d.breakersMu.Unlock()
	if cb, ok := d.breakers[actuatorName]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "someip:" + actuatorName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	d.breakers[actuatorName] = cb
	return cb
}

// SetActuatorValue validates and dispatches req through the configured
// proxy call, translating its SOME/IP call status into a
// CommandResponse. A long-running command reports IN_PROGRESS
// immediately and registers for the eventual terminal event; all other
// commands deliver their terminal status directly.
func (d *Dispatcher) SetActuatorValue(actuatorName string, req signal.ActuatorCommandRequest, resolve actuator.StringResolver, callback func(signal.CommandResponse)) {
	actCfg, ok := d.cfg.Actuators[actuatorName]
	if !ok {
		callback(failure(req.CommandID, signal.ReasonNotSupported, "actuator not configured on this SOME/IP dispatcher"))
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

	ctx := context.Background()
	var cancel context.CancelFunc
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
		ctx, cancel = context.WithTimeout(ctx, time.Duration(deadlineMs-now)*time.Millisecond)
		defer cancel()
	}

	if actCfg.LongRunning {
		d.events.register(req.CommandID, callback)
	}

	cb := d.breakerFor(actuatorName)
	result, err := cb.Execute(func() (interface{}, error) {
		return actCfg.Call(ctx, req, stringBytes)
	})

	if err != nil {
		if actCfg.LongRunning {
			d.events.forget(req.CommandID)
		}
		callback(translateCallError(req.CommandID, err))
		return
	}

	status := result.(int32)
	if actCfg.LongRunning {
		callback(signal.CommandResponse{CommandID: req.CommandID, Status: signal.StatusInProgress})
		return
	}
	callback(translateStatus(req.CommandID, status))
}

func translateCallError(id signal.CommandID, err error) signal.CommandResponse {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return failure(id, signal.ReasonUnavailable, "someip middleware circuit open")
	case errors.Is(err, context.DeadlineExceeded):
		return signal.CommandResponse{CommandID: id, Status: signal.StatusExecutionTimeout, ReasonCode: signal.ReasonNoResponse}
	default:
		return failure(id, signal.ReasonInternalError, err.Error())
	}
}

func translateStatus(id signal.CommandID, status int32) signal.CommandResponse {
	if status == statusSuccess {
		return signal.CommandResponse{CommandID: id, Status: signal.StatusSucceeded}
	}
	return signal.CommandResponse{
		CommandID:  id,
		Status:     signal.StatusExecutionFailed,
		ReasonCode: signal.OEMRangeStart + signal.ReasonCode(uint32(status)),
	}
}

func failure(id signal.CommandID, reason signal.ReasonCode, desc string) signal.CommandResponse {
	return signal.CommandResponse{
		CommandID:         id,
		Status:            signal.StatusExecutionFailed,
		ReasonCode:        reason,
		ReasonDescription: desc,
	}
}
