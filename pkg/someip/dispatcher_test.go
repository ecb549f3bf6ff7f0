package someip

import (
	"context"
	"testing"
	"time"

	"github.com/edgevehicle/agentcore/pkg/clock"
	"github.com/edgevehicle/agentcore/pkg/signal"
)

func testDispatcher() (*Dispatcher, *clock.Fake, func(int32, error)) {
	fc := clock.NewFake(time.Unix(1_700_000_000, 0))
	var nextResult int32
	var nextErr error
	cfg := Config{Actuators: map[string]ActuatorConfig{
		"seat.heater": {
			MethodName: "SetHeaterLevel",
			SignalType: signal.TypeUint8,
			Call: func(ctx context.Context, req signal.ActuatorCommandRequest, stringBytes []byte) (int32, error) {
				return nextResult, nextErr
			},
		},
	}}
	d := NewDispatcher(cfg, fc, nil)
	set := func(result int32, err error) { nextResult, nextErr = result, err }
	return d, fc, set
}

func TestSetActuatorValueSuccess(t *testing.T) {
	d, fc, setResult := testDispatcher()
	setResult(0, nil)

	var got signal.CommandResponse
	req := signal.ActuatorCommandRequest{CommandID: "c1", SignalValue: signal.Uint8Value(3), IssuedTimestampMs: fc.NowMs()}
	d.SetActuatorValue("seat.heater", req, nil, func(r signal.CommandResponse) { got = r })

	if got.Status != signal.StatusSucceeded {
		t.Errorf("expected SUCCEEDED, got %v", got.Status)
	}
}

func TestSetActuatorValueOEMFailureStatus(t *testing.T) {
	d, fc, setResult := testDispatcher()
	setResult(7, nil)

	var got signal.CommandResponse
	req := signal.ActuatorCommandRequest{CommandID: "c2", SignalValue: signal.Uint8Value(3), IssuedTimestampMs: fc.NowMs()}
	d.SetActuatorValue("seat.heater", req, nil, func(r signal.CommandResponse) { got = r })

	if got.Status != signal.StatusExecutionFailed {
		t.Fatalf("expected EXECUTION_FAILED, got %v", got.Status)
	}
	if got.ReasonCode != signal.OEMRangeStart+7 {
		t.Errorf("expected OEM reason code 0x10007, got 0x%X", uint32(got.ReasonCode))
	}
}

func TestSetActuatorValueUnknownActuator(t *testing.T) {
	d, fc, _ := testDispatcher()

	var got signal.CommandResponse
	req := signal.ActuatorCommandRequest{CommandID: "c3", IssuedTimestampMs: fc.NowMs()}
	d.SetActuatorValue("does.not.exist", req, nil, func(r signal.CommandResponse) { got = r })

	if got.Status != signal.StatusExecutionFailed || got.ReasonCode != signal.ReasonNotSupported {
		t.Errorf("expected EXECUTION_FAILED/NOT_SUPPORTED, got %v/%v", got.Status, got.ReasonCode)
	}
}

// TestSetActuatorValueArgumentTypeMismatch mirrors the source's
// dispatcherInvokeCommandWithMismatchedValueType: a request whose
// SignalValue.Type does not match the actuator's configured type must be
// rejected with ARGUMENT_TYPE_MISMATCH, and the proxy must never be
// invoked.
func TestSetActuatorValueArgumentTypeMismatch(t *testing.T) {
	fc := clock.NewFake(time.Unix(1_700_000_000, 0))
	var called bool
	cfg := Config{Actuators: map[string]ActuatorConfig{
		"seat.heater": {
			MethodName: "SetHeaterLevel",
			SignalType: signal.TypeUint8,
			Call: func(ctx context.Context, req signal.ActuatorCommandRequest, stringBytes []byte) (int32, error) {
				called = true
				return statusSuccess, nil
			},
		},
	}}
	d := NewDispatcher(cfg, fc, nil)

	var got signal.CommandResponse
	req := signal.ActuatorCommandRequest{CommandID: "c-mismatch", SignalValue: signal.BooleanValue(true), IssuedTimestampMs: fc.NowMs()}
	d.SetActuatorValue("seat.heater", req, nil, func(r signal.CommandResponse) { got = r })

	if got.Status != signal.StatusExecutionFailed || got.ReasonCode != signal.ReasonArgumentTypeMismatch {
		t.Errorf("expected EXECUTION_FAILED/ARGUMENT_TYPE_MISMATCH, got %v/%v", got.Status, got.ReasonCode)
	}
	if called {
		t.Error("proxy call must not be invoked on an argument type mismatch")
	}
}

func TestSetActuatorValueAlreadyPastDeadline(t *testing.T) {
	d, fc, _ := testDispatcher()

	var got signal.CommandResponse
	req := signal.ActuatorCommandRequest{
		CommandID:          "c4",
		IssuedTimestampMs:  fc.NowMs(),
		ExecutionTimeoutMs: 100,
	}
	fc.Advance(200 * time.Millisecond)
	d.SetActuatorValue("seat.heater", req, nil, func(r signal.CommandResponse) { got = r })

	if got.Status != signal.StatusExecutionTimeout || got.ReasonCode != signal.ReasonTimedOutBeforeDispatch {
		t.Errorf("expected EXECUTION_TIMEOUT/TIMED_OUT_BEFORE_DISPATCH, got %v/%v", got.Status, got.ReasonCode)
	}
}

func TestSetActuatorValueLongRunningReportsInProgressThenEvent(t *testing.T) {
	fc := clock.NewFake(time.Unix(1_700_000_000, 0))
	cfg := Config{Actuators: map[string]ActuatorConfig{
		"trunk.open": {
			MethodName:  "OpenTrunk",
			SignalType:  signal.TypeUint8,
			LongRunning: true,
			Call: func(ctx context.Context, req signal.ActuatorCommandRequest, stringBytes []byte) (int32, error) {
				return statusSuccess, nil
			},
		},
	}}
	d := NewDispatcher(cfg, fc, nil)

	var updates []signal.CommandResponse
	req := signal.ActuatorCommandRequest{CommandID: "c5", IssuedTimestampMs: fc.NowMs()}
	d.SetActuatorValue("trunk.open", req, nil, func(r signal.CommandResponse) { updates = append(updates, r) })

	if len(updates) != 1 || updates[0].Status != signal.StatusInProgress {
		t.Fatalf("expected immediate IN_PROGRESS, got %+v", updates)
	}

	d.Events().Deliver(signal.CommandResponse{CommandID: "c5", Status: signal.StatusSucceeded})
	if len(updates) != 2 || updates[1].Status != signal.StatusSucceeded {
		t.Fatalf("expected terminal SUCCEEDED delivered via event, got %+v", updates)
	}
}
