package actuator

import (
	"testing"
	"time"

	"github.com/edgevehicle/agentcore/pkg/clock"
	"github.com/edgevehicle/agentcore/pkg/egress"
	"github.com/edgevehicle/agentcore/pkg/signal"
)

type fakeDispatcher struct {
	names     []string
	initCalls int
	initOK    bool
	calls     []signal.ActuatorCommandRequest
	respond   func(signal.ActuatorCommandRequest, func(signal.CommandResponse))
}

func (f *fakeDispatcher) Init() bool {
	f.initCalls++
	return f.initOK
}
func (f *fakeDispatcher) GetActuatorNames() []string { return f.names }
func (f *fakeDispatcher) SetActuatorValue(actuatorName string, req signal.ActuatorCommandRequest, resolve StringResolver, callback func(signal.CommandResponse)) {
	f.calls = append(f.calls, req)
	if f.respond != nil {
		f.respond(req, callback)
	}
}

func newTestManager(t *testing.T) (*Manager, *clock.Fake, *egress.Queue) {
	t.Helper()
	fc := clock.NewFake(time.Unix(1_700_000_000, 0))
	eg := egress.NewQueue()
	m := NewManager(ManagerConfig{Clock: fc, Egress: eg})
	m.Start()
	t.Cleanup(m.Stop)
	return m, fc, eg
}

func waitForResponse(t *testing.T, eg *egress.Queue) signal.CommandResponse {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if resp, ok := eg.Pop(); ok {
			return resp
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for a queued response")
	return signal.CommandResponse{}
}

func TestProcessCommandRequestManifestMismatch(t *testing.T) {
	m, fc, eg := newTestManager(t)
	m.SetDecoderManifest("v2", signal.CustomSignalDecoderFormatMap{})

	req := signal.ActuatorCommandRequest{CommandID: "c1", DecoderManifestID: "v1", IssuedTimestampMs: fc.NowMs()}
	m.Submit(req)

	resp := waitForResponse(t, eg)
	if resp.Status != signal.StatusExecutionFailed || resp.ReasonCode != signal.ReasonDecoderManifestOutOfSync {
		t.Errorf("expected DECODER_MANIFEST_OUT_OF_SYNC, got %v/%v", resp.Status, resp.ReasonCode)
	}
}

func TestProcessCommandRequestNoDecodingRule(t *testing.T) {
	m, fc, eg := newTestManager(t)
	m.SetDecoderManifest("v1", signal.CustomSignalDecoderFormatMap{})

	req := signal.ActuatorCommandRequest{CommandID: "c2", DecoderManifestID: "v1", SignalID: 99, IssuedTimestampMs: fc.NowMs()}
	m.Submit(req)

	resp := waitForResponse(t, eg)
	if resp.ReasonCode != signal.ReasonNoDecodingRulesFound {
		t.Errorf("expected NO_DECODING_RULES_FOUND, got %v", resp.ReasonCode)
	}
}

func TestProcessCommandRequestNoDispatcher(t *testing.T) {
	m, fc, eg := newTestManager(t)
	m.SetDecoderManifest("v1", signal.CustomSignalDecoderFormatMap{
		5: {InterfaceID: "can0", DecoderName: "hvac.fan"},
	})

	req := signal.ActuatorCommandRequest{CommandID: "c3", DecoderManifestID: "v1", SignalID: 5, IssuedTimestampMs: fc.NowMs()}
	m.Submit(req)

	resp := waitForResponse(t, eg)
	if resp.ReasonCode != signal.ReasonNoCommandDispatcherFound {
		t.Errorf("expected NO_COMMAND_DISPATCHER_FOUND, got %v", resp.ReasonCode)
	}
}

func TestProcessCommandRequestPreDispatchTimeout(t *testing.T) {
	m, fc, eg := newTestManager(t)
	fd := &fakeDispatcher{names: []string{"hvac.fan"}, initOK: true}
	if err := m.RegisterDispatcher("can0", fd); err != nil {
		t.Fatalf("register: %v", err)
	}
	m.SetDecoderManifest("v1", signal.CustomSignalDecoderFormatMap{5: {InterfaceID: "can0", DecoderName: "hvac.fan"}})

	req := signal.ActuatorCommandRequest{
		CommandID: "c4", DecoderManifestID: "v1", SignalID: 5,
		IssuedTimestampMs: fc.NowMs(), ExecutionTimeoutMs: 10,
	}
	fc.Advance(20 * time.Millisecond)
	m.Submit(req)

	resp := waitForResponse(t, eg)
	if resp.Status != signal.StatusExecutionTimeout || resp.ReasonCode != signal.ReasonTimedOutBeforeDispatch {
		t.Errorf("expected EXECUTION_TIMEOUT/TIMED_OUT_BEFORE_DISPATCH, got %v/%v", resp.Status, resp.ReasonCode)
	}
	if len(fd.calls) != 0 {
		t.Error("dispatcher must not be called once the deadline has already passed")
	}
}

func TestProcessCommandRequestSuccessfulDispatchLazyInit(t *testing.T) {
	m, fc, eg := newTestManager(t)
	fd := &fakeDispatcher{
		names: []string{"hvac.fan"}, initOK: true,
		respond: func(req signal.ActuatorCommandRequest, cb func(signal.CommandResponse)) {
			cb(signal.CommandResponse{CommandID: req.CommandID, Status: signal.StatusSucceeded})
		},
	}
	if err := m.RegisterDispatcher("can0", fd); err != nil {
		t.Fatalf("register: %v", err)
	}
	m.SetDecoderManifest("v1", signal.CustomSignalDecoderFormatMap{5: {InterfaceID: "can0", DecoderName: "hvac.fan"}})

	req := signal.ActuatorCommandRequest{CommandID: "c5", DecoderManifestID: "v1", SignalID: 5, IssuedTimestampMs: fc.NowMs()}
	m.Submit(req)

	resp := waitForResponse(t, eg)
	if resp.Status != signal.StatusSucceeded {
		t.Errorf("expected SUCCEEDED, got %v", resp.Status)
	}
	if fd.initCalls != 1 {
		t.Errorf("expected exactly one lazy Init call, got %d", fd.initCalls)
	}

	// A second command against the same interface must not reinitialize it.
	m.Submit(signal.ActuatorCommandRequest{CommandID: "c6", DecoderManifestID: "v1", SignalID: 5, IssuedTimestampMs: fc.NowMs()})
	waitForResponse(t, eg)
	if fd.initCalls != 1 {
		t.Errorf("expected Init to remain called exactly once, got %d", fd.initCalls)
	}
}

func TestRegisterDispatcherRejectsOverlappingActuatorNames(t *testing.T) {
	m, _, _ := newTestManager(t)
	a := &fakeDispatcher{names: []string{"hvac.fan"}}
	b := &fakeDispatcher{names: []string{"hvac.fan"}}

	if err := m.RegisterDispatcher("can0", a); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := m.RegisterDispatcher("someip0", b); err == nil {
		t.Error("expected an error registering a dispatcher with an overlapping actuator name")
	}
}

func TestSubmitDropsWhenQueueFull(t *testing.T) {
	fc := clock.NewFake(time.Unix(1_700_000_000, 0))
	m := NewManager(ManagerConfig{Clock: fc, Egress: egress.NewQueue()})
	// Worker never started: the queue fills and the next Submit must
	// report false rather than block.
	for i := 0; i < QueueCapacity; i++ {
		if !m.Submit(signal.ActuatorCommandRequest{CommandID: signal.CommandID(string(rune('a' + i%26)))}) {
			t.Fatalf("unexpected drop before queue full at %d", i)
		}
	}
	if m.Submit(signal.ActuatorCommandRequest{CommandID: "overflow"}) {
		t.Error("expected Submit to report false once the queue is full")
	}
}
