// Package config loads the vehicle agent's static configuration: logging,
// the metrics server, the raw data buffer manager's quotas, ingress limits,
// the CAN and SOME/IP actuator tables, and the decoder manifest bootstrap
// data. Configuration sources, highest precedence first:
//
//  1. Environment variables (AGENT_*), for keys the configuration file sets
//  2. Configuration file (YAML), named by the --config flag or found in a
//     default location
//  3. Defaults applied by ApplyDefaults
package config

import "time"

// Config is the vehicle agent's root configuration.
type Config struct {
	Logging         LoggingConfig         `mapstructure:"logging"`
	Metrics         MetricsConfig         `mapstructure:"metrics"`
	ShutdownTimeout time.Duration         `mapstructure:"shutdown_timeout"`
	RawData         RawDataConfig         `mapstructure:"raw_data"`
	Ingress         IngressConfig         `mapstructure:"ingress"`
	CAN             []CANInterfaceConfig  `mapstructure:"can_interfaces"`
	SomeIP          SomeIPConfig          `mapstructure:"someip"`
	DecoderManifest DecoderManifestConfig `mapstructure:"decoder_manifest"`
}

// LoggingConfig controls the pion/logging leveled logger factory.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: trace, debug, info, warn, error (case-insensitive).
	Level string `mapstructure:"level"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// RawDataConfig configures the raw data buffer manager's quotas.
type RawDataConfig struct {
	// MaxOverallBytes is the pool-wide committed-byte cap.
	MaxOverallBytes uint64 `mapstructure:"max_overall_bytes"`

	// DefaultMaxSamples, DefaultMaxBytesPerSample and
	// DefaultMaxOverallBytesPerSignal seed BufferManagerConfig.Defaults;
	// any signal not named in Overrides resolves to these.
	DefaultMaxSamples               int    `mapstructure:"default_max_samples"`
	DefaultMaxBytesPerSample        uint64 `mapstructure:"default_max_bytes_per_sample"`
	DefaultMaxOverallBytesPerSignal uint64 `mapstructure:"default_max_overall_bytes_per_signal"`
	DefaultReservedBytes            uint64 `mapstructure:"default_reserved_bytes"`

	// Overrides lists per-signal quota overrides keyed by (InterfaceID,
	// MessageID).
	Overrides []RawDataOverrideConfig `mapstructure:"overrides"`

	// StringTypes maps a command signal ID to the raw data buffer type it
	// stages STRING arguments into. This is the source for
	// ingress.Config.StringTypeMap.
	StringTypes []StringTypeConfig `mapstructure:"string_types"`
}

// RawDataOverrideConfig is one per-signal quota override.
type RawDataOverrideConfig struct {
	InterfaceID       string `mapstructure:"interface_id"`
	MessageID         uint32 `mapstructure:"message_id"`
	ReservedBytes     uint64 `mapstructure:"reserved_bytes"`
	MaxSamples        int    `mapstructure:"max_samples"`
	MaxBytesPerSample uint64 `mapstructure:"max_bytes_per_sample"`
	MaxOverallBytes   uint64 `mapstructure:"max_overall_bytes"`
}

// StringTypeConfig binds one command SignalID to a raw data buffer TypeID.
type StringTypeConfig struct {
	SignalID uint32 `mapstructure:"signal_id"`
	TypeID   uint32 `mapstructure:"type_id"`
}

// IngressConfig configures the ingress validation layer.
type IngressConfig struct {
	MaxPayloadBytes int `mapstructure:"max_payload_bytes"`
}

// CANInterfaceConfig configures one CAN-FD interface and the actuators
// reachable through it.
type CANInterfaceConfig struct {
	// InterfaceID is the decoder-manifest InterfaceID this interface
	// serves, and the key actuator.Manager.RegisterDispatcher uses.
	InterfaceID string              `mapstructure:"interface_id"`
	Device      string              `mapstructure:"device"`
	Actuators   []CANActuatorConfig `mapstructure:"actuators"`
}

// CANActuatorConfig configures one CAN-addressed actuator.
type CANActuatorConfig struct {
	Name          string `mapstructure:"name"`
	RequestCANID  uint32 `mapstructure:"request_can_id"`
	ResponseCANID uint32 `mapstructure:"response_can_id"`
	SignalType    string `mapstructure:"signal_type"`
}

// SomeIPConfig configures the SOME/IP actuator table. The actual proxy
// call for each actuator is wired in code at startup: configuration only
// names which actuators exist and whether they run long (callback-based)
// or complete inline.
type SomeIPConfig struct {
	InterfaceID string                 `mapstructure:"interface_id"`
	Actuators   []SomeIPActuatorConfig `mapstructure:"actuators"`
}

// SomeIPActuatorConfig configures one SOME/IP-addressed actuator.
type SomeIPActuatorConfig struct {
	Name        string `mapstructure:"name"`
	MethodName  string `mapstructure:"method_name"`
	SignalType  string `mapstructure:"signal_type"`
	LongRunning bool   `mapstructure:"long_running"`
}

// DecoderManifestConfig bootstraps the decoder manifest the actuator
// command manager validates every inbound command against.
type DecoderManifestConfig struct {
	ID       string                `mapstructure:"id"`
	Decoders []DecoderEntryConfig  `mapstructure:"decoders"`
}

// DecoderEntryConfig maps one SignalID to the interface and decoder name
// that resolve it.
type DecoderEntryConfig struct {
	SignalID    uint32 `mapstructure:"signal_id"`
	InterfaceID string `mapstructure:"interface_id"`
	DecoderName string `mapstructure:"decoder_name"`
}
