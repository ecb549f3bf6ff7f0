package actuator

import "github.com/edgevehicle/agentcore/pkg/signal"

// StringResolver resolves a STRING-typed command argument's raw data
// buffer reference to its borrowed bytes. It returns ok == false if the
// handle is not (or no longer) resolvable.
type StringResolver func(signal.StringSignalValue) (data []byte, ok bool)

// Dispatcher is the contract every interface-specific command
// dispatcher (pkg/can, pkg/someip) satisfies. The command manager holds
// one Dispatcher per registered interface ID and routes every
// ActuatorCommandRequest for that interface's actuators through it.
type Dispatcher interface {
	// Init prepares the dispatcher's transport (opening a socket,
	// confirming a proxy connection, etc.) and reports whether it is
	// usable. The Manager calls it once, the first time any actuator
	// behind this dispatcher is activated; another caller may call it
	// earlier, and a repeated call does not reopen the transport.
	Init() bool

	// GetActuatorNames returns the actuator names this dispatcher
	// serves, for registration-conflict detection.
	GetActuatorNames() []string

	// SetActuatorValue dispatches req for actuatorName. Every status
	// update for the command, including interim IN_PROGRESS updates,
	// is delivered to callback; a dispatcher never returns a result
	// synchronously.
	SetActuatorValue(actuatorName string, req signal.ActuatorCommandRequest, resolve StringResolver, callback func(signal.CommandResponse))
}
