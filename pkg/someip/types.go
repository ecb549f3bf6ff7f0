// Package someip implements the SOME/IP command dispatcher: a thin
// wrapper around a generated proxy method per actuator, circuit-broken
// against a wedged middleware process with sony/gobreaker, and a
// subscription path for long-running commands whose terminal status
// arrives later as a SOME/IP event rather than as the method's reply.
//
// Unlike pkg/can, there is no wire codec here: the proxy call is a
// caller-supplied functor standing in for a generated SOME/IP client
// stub, the same seam the teacher draws around pkg/im's cluster command
// handlers (a registered Go function per command, invoked with already
// decoded arguments).
package someip

import (
	"context"

	"github.com/edgevehicle/agentcore/pkg/signal"
)

// ProxyCall invokes one SOME/IP method with the command's argument and
// returns the middleware's raw call status. 0 means success; any other
// value is an OEM-defined failure code the dispatcher folds into the
// response's OEM reason-code range. stringBytes carries the resolved
// STRING argument's bytes when req.SignalValue.Type is TypeString, and
// is nil otherwise.
type ProxyCall func(ctx context.Context, req signal.ActuatorCommandRequest, stringBytes []byte) (callStatus int32, err error)

// ActuatorConfig binds one actuator name to the SOME/IP method that
// serves it.
type ActuatorConfig struct {
	MethodName string
	Call       ProxyCall
	// SignalType is the argument type this actuator's method expects.
	// A request whose SignalValue.Type differs is rejected with
	// ARGUMENT_TYPE_MISMATCH before Call is ever invoked.
	SignalType signal.SignalType
	// LongRunning marks a command whose terminal outcome arrives later
	// as a subscribed event rather than synchronously from Call.
	LongRunning bool
}

// Config is the static SOME/IP dispatcher configuration.
type Config struct {
	Actuators map[string]ActuatorConfig
}

// statusSuccess is the SOME/IP call-status value meaning the method
// invocation itself succeeded.
const statusSuccess int32 = 0
