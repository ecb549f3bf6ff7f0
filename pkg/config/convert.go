package config

import (
	"fmt"

	"github.com/edgevehicle/agentcore/pkg/can"
	"github.com/edgevehicle/agentcore/pkg/ingress"
	"github.com/edgevehicle/agentcore/pkg/rawdata"
	"github.com/edgevehicle/agentcore/pkg/signal"
	"github.com/edgevehicle/agentcore/pkg/someip"
)

// ToBufferManagerConfig builds the raw data buffer manager's static
// configuration from RawDataConfig.
func (c *Config) ToBufferManagerConfig() *rawdata.BufferManagerConfig {
	bmc := rawdata.NewBufferManagerConfig(c.RawData.MaxOverallBytes, rawdata.SignalUpdateConfig{
		ReservedBytes:     c.RawData.DefaultReservedBytes,
		MaxSamples:        c.RawData.DefaultMaxSamples,
		MaxBytesPerSample: c.RawData.DefaultMaxBytesPerSample,
		MaxOverallBytes:   c.RawData.DefaultMaxOverallBytesPerSignal,
	})
	for _, o := range c.RawData.Overrides {
		bmc.SetOverride(o.InterfaceID, o.MessageID, rawdata.SignalUpdateConfig{
			ReservedBytes:     o.ReservedBytes,
			MaxSamples:        o.MaxSamples,
			MaxBytesPerSample: o.MaxBytesPerSample,
			MaxOverallBytes:   o.MaxOverallBytes,
		})
	}
	return bmc
}

// RawDataSignalSpecs builds the SignalSpec set ToBufferManagerConfig's
// manager admits on UpdateConfig, one per configured STRING-carrying
// signal.
func (c *Config) RawDataSignalSpecs() map[rawdata.TypeID]rawdata.SignalSpec {
	specs := make(map[rawdata.TypeID]rawdata.SignalSpec, len(c.RawData.StringTypes))
	for _, st := range c.RawData.StringTypes {
		specs[rawdata.TypeID(st.TypeID)] = rawdata.SignalSpec{TypeID: rawdata.TypeID(st.TypeID)}
	}
	return specs
}

// ToIngressConfig builds the ingress validation layer's configuration.
func (c *Config) ToIngressConfig() ingress.Config {
	m := make(map[uint32]rawdata.TypeID, len(c.RawData.StringTypes))
	for _, st := range c.RawData.StringTypes {
		m[st.SignalID] = rawdata.TypeID(st.TypeID)
	}
	return ingress.Config{MaxPayloadBytes: c.Ingress.MaxPayloadBytes, StringTypeMap: m}
}

// ToCANConfig builds one CAN interface's dispatcher configuration.
func (ifc *CANInterfaceConfig) ToCANConfig() (can.Config, error) {
	cfg := can.Config{Interface: ifc.Device, Actuators: make(map[string]can.ActuatorConfig, len(ifc.Actuators))}
	for _, a := range ifc.Actuators {
		st, err := parseSignalType(a.SignalType)
		if err != nil {
			return can.Config{}, fmt.Errorf("config: can interface %q actuator %q: %w", ifc.InterfaceID, a.Name, err)
		}
		cfg.Actuators[a.Name] = can.ActuatorConfig{
			RequestCANID:  a.RequestCANID,
			ResponseCANID: a.ResponseCANID,
			SignalType:    st,
		}
	}
	return cfg, nil
}

// ToSomeIPActuatorConfig builds one SOME/IP actuator's dispatcher
// configuration, wiring call as its proxy invocation. The caller supplies
// call because configuration cannot name an actual generated proxy stub.
func (a *SomeIPActuatorConfig) ToSomeIPActuatorConfig(call someip.ProxyCall) (someip.ActuatorConfig, error) {
	st, err := parseSignalType(a.SignalType)
	if err != nil {
		return someip.ActuatorConfig{}, fmt.Errorf("config: someip actuator %q: %w", a.Name, err)
	}
	return someip.ActuatorConfig{
		MethodName:  a.MethodName,
		SignalType:  st,
		LongRunning: a.LongRunning,
		Call:        call,
	}, nil
}

// ToDecoderManifest builds the CustomSignalDecoderFormatMap the actuator
// command manager validates inbound commands against.
func (c *Config) ToDecoderManifest() signal.CustomSignalDecoderFormatMap {
	m := make(signal.CustomSignalDecoderFormatMap, len(c.DecoderManifest.Decoders))
	for _, d := range c.DecoderManifest.Decoders {
		m[d.SignalID] = signal.CustomSignalDecoder{InterfaceID: d.InterfaceID, DecoderName: d.DecoderName}
	}
	return m
}

func parseSignalType(s string) (signal.SignalType, error) {
	switch s {
	case "UINT8":
		return signal.TypeUint8, nil
	case "INT8":
		return signal.TypeInt8, nil
	case "UINT16":
		return signal.TypeUint16, nil
	case "INT16":
		return signal.TypeInt16, nil
	case "UINT32":
		return signal.TypeUint32, nil
	case "INT32":
		return signal.TypeInt32, nil
	case "UINT64":
		return signal.TypeUint64, nil
	case "INT64":
		return signal.TypeInt64, nil
	case "FLOAT":
		return signal.TypeFloat, nil
	case "DOUBLE":
		return signal.TypeDouble, nil
	case "BOOLEAN":
		return signal.TypeBoolean, nil
	case "STRING":
		return signal.TypeString, nil
	default:
		return 0, fmt.Errorf("unknown signal type %q", s)
	}
}
