package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load reads configuration from a file (if configPath names one or the
// default location holds one), layers environment variable overrides and
// defaults on top, and validates the result.
//
// Precedence, highest first: environment variables (AGENT_*), the
// configuration file, then ApplyDefaults. An environment variable only
// overrides a key the configuration file sets; when no file is found,
// the environment is not read and only ApplyDefaults applies.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if found {
		if err := v.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("config: unmarshal failed: %w", err)
		}
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("AGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(defaultConfigDir())
	v.AddConfigPath(".")
	v.SetConfigName("agent")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("config: reading config file: %w", err)
	}
	return true, nil
}

func defaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "vehicle-agent")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "vehicle-agent")
}

// ApplyDefaults fills in zero-valued fields with the agent's defaults. It
// is applied after unmarshaling so a partially-specified config file only
// overrides what it names.
func ApplyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}
	if cfg.RawData.MaxOverallBytes == 0 {
		cfg.RawData.MaxOverallBytes = 8 << 20 // 8 MiB
	}
	if cfg.RawData.DefaultMaxSamples == 0 {
		cfg.RawData.DefaultMaxSamples = 16
	}
	if cfg.RawData.DefaultMaxBytesPerSample == 0 {
		cfg.RawData.DefaultMaxBytesPerSample = 4096
	}
	if cfg.RawData.DefaultMaxOverallBytesPerSignal == 0 {
		cfg.RawData.DefaultMaxOverallBytesPerSignal = 64 << 10 // 64 KiB
	}
	if cfg.Ingress.MaxPayloadBytes == 0 {
		cfg.Ingress.MaxPayloadBytes = 4096
	}
}

// Validate reports structural problems ApplyDefaults cannot paper over:
// duplicate actuator names across interfaces, and a decoder manifest entry
// that names an interface no CAN or SOME/IP block configures.
func Validate(cfg *Config) error {
	interfaces := make(map[string]bool)
	names := make(map[string]string)

	for _, ifc := range cfg.CAN {
		interfaces[ifc.InterfaceID] = true
		for _, a := range ifc.Actuators {
			if owner, dup := names[a.Name]; dup {
				return fmt.Errorf("config: actuator %q configured on both %q and %q", a.Name, owner, ifc.InterfaceID)
			}
			names[a.Name] = ifc.InterfaceID
		}
	}
	if cfg.SomeIP.InterfaceID != "" {
		interfaces[cfg.SomeIP.InterfaceID] = true
		for _, a := range cfg.SomeIP.Actuators {
			if owner, dup := names[a.Name]; dup {
				return fmt.Errorf("config: actuator %q configured on both %q and %q", a.Name, owner, cfg.SomeIP.InterfaceID)
			}
			names[a.Name] = cfg.SomeIP.InterfaceID
		}
	}

	for _, d := range cfg.DecoderManifest.Decoders {
		if !interfaces[d.InterfaceID] {
			return fmt.Errorf("config: decoder manifest entry for signal %d names unknown interface %q", d.SignalID, d.InterfaceID)
		}
	}

	return nil
}
