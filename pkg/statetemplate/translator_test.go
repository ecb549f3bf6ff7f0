package statetemplate

import (
	"testing"
	"time"

	"github.com/edgevehicle/agentcore/pkg/clock"
	"github.com/edgevehicle/agentcore/pkg/egress"
	"github.com/edgevehicle/agentcore/pkg/signal"
)

func TestHandleAcknowledgesValidRequest(t *testing.T) {
	fc := clock.NewFake(time.Unix(1_700_000_000, 0))
	eg := egress.NewQueue()
	tr := New(eg, fc, nil)

	tr.Handle(signal.LastKnownStateCommandRequest{
		CommandID: "c1", StateTemplateID: "cabin-comfort", Operation: signal.StateTemplateActivate,
	})

	resp, ok := eg.Pop()
	if !ok {
		t.Fatal("expected a queued response")
	}
	if resp.Status != signal.StatusSucceeded {
		t.Errorf("expected SUCCEEDED, got %v", resp.Status)
	}
}

func TestHandleRejectsEmptyTemplateID(t *testing.T) {
	fc := clock.NewFake(time.Unix(1_700_000_000, 0))
	eg := egress.NewQueue()
	tr := New(eg, fc, nil)

	tr.Handle(signal.LastKnownStateCommandRequest{CommandID: "c2"})

	resp, ok := eg.Pop()
	if !ok {
		t.Fatal("expected a queued response")
	}
	if resp.Status != signal.StatusExecutionFailed || resp.ReasonCode != signal.ReasonRejected {
		t.Errorf("expected EXECUTION_FAILED/REJECTED, got %v/%v", resp.Status, resp.ReasonCode)
	}
}
