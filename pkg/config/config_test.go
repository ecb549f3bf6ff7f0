package config

import (
	"testing"

	"github.com/edgevehicle/agentcore/pkg/signal"
)

func TestApplyDefaultsFillsZeroValues(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level info, got %q", cfg.Logging.Level)
	}
	if cfg.Metrics.Port != 9090 {
		t.Errorf("expected default metrics port 9090, got %d", cfg.Metrics.Port)
	}
	if cfg.RawData.MaxOverallBytes == 0 {
		t.Error("expected a nonzero default raw data cap")
	}
	if cfg.Ingress.MaxPayloadBytes == 0 {
		t.Error("expected a nonzero default ingress payload cap")
	}
}

func TestApplyDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := &Config{Logging: LoggingConfig{Level: "debug"}}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected explicit log level to survive, got %q", cfg.Logging.Level)
	}
}

func TestValidateRejectsOverlappingActuatorNames(t *testing.T) {
	cfg := &Config{
		CAN: []CANInterfaceConfig{
			{InterfaceID: "can0", Actuators: []CANActuatorConfig{{Name: "door_lock"}}},
			{InterfaceID: "can1", Actuators: []CANActuatorConfig{{Name: "door_lock"}}},
		},
	}
	if err := Validate(cfg); err == nil {
		t.Fatal("expected an error for an actuator name configured on two interfaces")
	}
}

func TestValidateRejectsUnknownDecoderInterface(t *testing.T) {
	cfg := &Config{
		DecoderManifest: DecoderManifestConfig{
			Decoders: []DecoderEntryConfig{{SignalID: 1, InterfaceID: "can0", DecoderName: "door_lock"}},
		},
	}
	if err := Validate(cfg); err == nil {
		t.Fatal("expected an error for a decoder manifest entry naming an unconfigured interface")
	}
}

func TestValidateAcceptsConsistentConfig(t *testing.T) {
	cfg := &Config{
		CAN: []CANInterfaceConfig{
			{InterfaceID: "can0", Actuators: []CANActuatorConfig{{Name: "door_lock"}}},
		},
		DecoderManifest: DecoderManifestConfig{
			Decoders: []DecoderEntryConfig{{SignalID: 1, InterfaceID: "can0", DecoderName: "door_lock"}},
		},
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestToCANConfigParsesSignalType(t *testing.T) {
	ifc := CANInterfaceConfig{
		InterfaceID: "can0",
		Device:      "can0",
		Actuators:   []CANActuatorConfig{{Name: "door_lock", RequestCANID: 0x100, ResponseCANID: 0x101, SignalType: "BOOLEAN"}},
	}
	cfg, err := ifc.ToCANConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, ok := cfg.Actuators["door_lock"]
	if !ok {
		t.Fatal("expected the door_lock actuator to be present")
	}
	if a.RequestCANID != 0x100 || a.ResponseCANID != 0x101 {
		t.Errorf("unexpected CAN IDs: %+v", a)
	}
	if a.SignalType != signal.TypeBoolean {
		t.Errorf("expected signal type BOOLEAN, got %v", a.SignalType)
	}
}

func TestToCANConfigRejectsUnknownSignalType(t *testing.T) {
	ifc := CANInterfaceConfig{Actuators: []CANActuatorConfig{{Name: "x", SignalType: "NOPE"}}}
	if _, err := ifc.ToCANConfig(); err == nil {
		t.Fatal("expected an error for an unknown signal type")
	}
}
