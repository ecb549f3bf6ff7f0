// Package can implements the CAN-FD command dispatcher: it turns
// ActuatorCommandRequest values into SocketCAN frames addressed to a
// configured arbitration ID, correlates the eventual response frame back
// to the waiting caller by command ID, and times a request out if no
// response frame arrives before its deadline.
//
// The correlation table and timer discipline are grounded on the
// teacher's pkg/exchange/retransmit.go outstanding-exchange table: a
// mutex-guarded map keyed by a correlation identifier, one timer per
// entry, and callbacks always invoked after the lock is released. Unlike
// MRP's multi-attempt retransmission, a CAN command has exactly one
// timeout and no retries, so the table carries a single timer per entry
// rather than an attempt counter.
package can

import (
	"github.com/edgevehicle/agentcore/pkg/signal"
)

// CANFDMaxDLen is CANFD_MAX_DLEN from linux/can.h: the largest data
// length a CAN-FD frame can carry.
const CANFDMaxDLen = 64

// CommandIDFieldWidth bounds the on-wire command-ID field, including its
// null terminator, so a request's fixed-width header never itself
// exceeds the frame budget before the argument is even considered.
const CommandIDFieldWidth = 25

// ActuatorConfig binds one actuator name to the pair of CAN arbitration
// IDs used to carry its command requests and responses, plus the
// signal type its value argument must satisfy.
type ActuatorConfig struct {
	RequestCANID  uint32
	ResponseCANID uint32
	SignalType    signal.SignalType
}

// Config is the static CAN dispatcher configuration: the SocketCAN
// interface to bind (e.g. "can0") and the actuator table.
type Config struct {
	Interface string
	Actuators map[string]ActuatorConfig
}
