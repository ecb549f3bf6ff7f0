// Package statetemplate implements the last-known-state command path:
// it accepts a validated LastKnownStateCommandRequest from ingress and
// acknowledges it on the egress queue. It deliberately does not
// implement the state-template activation state machine itself (which
// signals to keep publishing, for how long, and when to fall back to
// the last known value) — that machinery lives outside this repo's
// scope; this package is the seam a future implementation would hang
// off of.
package statetemplate

import (
	"github.com/pion/logging"

	"github.com/edgevehicle/agentcore/pkg/clock"
	"github.com/edgevehicle/agentcore/pkg/egress"
	"github.com/edgevehicle/agentcore/pkg/signal"
)

// Translator receives LastKnownStateCommandRequests and publishes a
// response for each.
type Translator struct {
	egress *egress.Queue
	clock  clock.Clock
	log    logging.LeveledLogger
}

// New constructs a Translator.
func New(eg *egress.Queue, c clock.Clock, loggerFactory logging.LoggerFactory) *Translator {
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}
	return &Translator{egress: eg, clock: c, log: loggerFactory.NewLogger("statetemplate")}
}

// Handle validates req and queues its acknowledgment. An empty
// StateTemplateID is rejected; every other request is acknowledged as
// SUCCEEDED, since accepting the operation (not carrying it out over
// time) is all this package is responsible for.
func (t *Translator) Handle(req signal.LastKnownStateCommandRequest) {
	if req.StateTemplateID == "" {
		t.push(signal.CommandResponse{
			CommandID:         req.CommandID,
			Status:            signal.StatusExecutionFailed,
			ReasonCode:        signal.ReasonRejected,
			ReasonDescription: "empty state template ID",
		})
		return
	}

	t.log.Debugf("statetemplate: %s %s on %s", req.CommandID, req.Operation, req.StateTemplateID)
	t.push(signal.CommandResponse{CommandID: req.CommandID, Status: signal.StatusSucceeded})
}

func (t *Translator) push(resp signal.CommandResponse) {
	if t.egress != nil {
		t.egress.Push(resp)
	}
}
