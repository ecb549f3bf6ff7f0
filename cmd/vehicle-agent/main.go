// Command vehicle-agent runs the edge vehicle command-and-telemetry agent:
// it ingests actuator and last-known-state commands, dispatches actuator
// commands over CAN-FD and SOME/IP, and publishes terminal responses on an
// egress queue a transport adapter drains.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"

	"github.com/pion/logging"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/edgevehicle/agentcore/pkg/actuator"
	"github.com/edgevehicle/agentcore/pkg/can"
	"github.com/edgevehicle/agentcore/pkg/clock"
	"github.com/edgevehicle/agentcore/pkg/config"
	"github.com/edgevehicle/agentcore/pkg/egress"
	"github.com/edgevehicle/agentcore/pkg/ingress"
	"github.com/edgevehicle/agentcore/pkg/rawdata"
	"github.com/edgevehicle/agentcore/pkg/signal"
	"github.com/edgevehicle/agentcore/pkg/someip"
	"github.com/edgevehicle/agentcore/pkg/statetemplate"
	"github.com/edgevehicle/agentcore/pkg/telemetry"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "vehicle-agent",
		Short: "Edge vehicle command-and-telemetry agent",
		RunE:  run,
	}
	root.Flags().StringVar(&configPath, "config", "", "path to the agent's YAML configuration file (default: $XDG_CONFIG_HOME/vehicle-agent/agent.yaml)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("vehicle-agent: loading configuration: %w", err)
	}

	loggerFactory := logging.NewDefaultLoggerFactory()
	loggerFactory.DefaultLogLevel = parseLogLevel(cfg.Logging.Level)
	log := loggerFactory.NewLogger("vehicle-agent")

	a, err := build(cfg, loggerFactory, log)
	if err != nil {
		return err
	}

	ctx, stop := ossignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.start()
	log.Info("vehicle-agent: started")

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsServer = a.serveMetrics(cfg.Metrics.Port, log)
	}

	<-ctx.Done()
	log.Info("vehicle-agent: shutting down")

	if metricsServer != nil {
		_ = metricsServer.Close()
	}
	a.stop()

	return nil
}

// agent bundles every wired component for orderly start/stop.
type agent struct {
	metrics    *telemetry.Registry
	rawData    *rawdata.Manager
	actuators  *actuator.Manager
	canDisps   []*can.Dispatcher
	egressQ    *egress.Queue
	ingress    *ingress.Ingress
	stTemplate *statetemplate.Translator
}

// build wires every SPEC_FULL.md component together from configuration.
func build(cfg *config.Config, loggerFactory logging.LoggerFactory, log logging.LeveledLogger) (*agent, error) {
	c := clock.NewReal()
	metrics := telemetry.New()

	raw := rawdata.NewManager(rawdata.ManagerConfig{
		Config:        cfg.ToBufferManagerConfig(),
		Clock:         c,
		LoggerFactory: loggerFactory,
		Metrics:       metrics,
	})
	if specs := cfg.RawDataSignalSpecs(); len(specs) > 0 {
		if err := raw.UpdateConfig(specs); err != nil {
			return nil, fmt.Errorf("vehicle-agent: activating raw data signal specs: %w", err)
		}
	}

	eg := egress.NewQueue()

	am := actuator.NewManager(actuator.ManagerConfig{
		Clock:         c,
		RawData:       raw,
		Egress:        eg,
		Metrics:       metrics,
		LoggerFactory: loggerFactory,
	})
	am.SetDecoderManifest(cfg.DecoderManifest.ID, cfg.ToDecoderManifest())

	var canDisps []*can.Dispatcher
	for _, ifc := range cfg.CAN {
		canCfg, err := ifc.ToCANConfig()
		if err != nil {
			return nil, err
		}
		d := can.NewDispatcher(canCfg, c, loggerFactory)
		if err := am.RegisterDispatcher(ifc.InterfaceID, d); err != nil {
			return nil, fmt.Errorf("vehicle-agent: registering CAN interface %q: %w", ifc.InterfaceID, err)
		}
		canDisps = append(canDisps, d)
	}

	if cfg.SomeIP.InterfaceID != "" {
		someipCfg := someip.Config{Actuators: make(map[string]someip.ActuatorConfig, len(cfg.SomeIP.Actuators))}
		for _, a := range cfg.SomeIP.Actuators {
			actCfg, err := a.ToSomeIPActuatorConfig(unavailableProxyCall(a.MethodName))
			if err != nil {
				return nil, err
			}
			someipCfg.Actuators[a.Name] = actCfg
		}
		sd := someip.NewDispatcher(someipCfg, c, loggerFactory)
		if err := am.RegisterDispatcher(cfg.SomeIP.InterfaceID, sd); err != nil {
			return nil, fmt.Errorf("vehicle-agent: registering SOME/IP interface %q: %w", cfg.SomeIP.InterfaceID, err)
		}
	}

	st := statetemplate.New(eg, c, loggerFactory)
	ig := ingress.New(cfg.ToIngressConfig(), c, raw, eg, am, st, loggerFactory)

	log.Infof("vehicle-agent: wired %d CAN interface(s), someip=%v, %d actuator(s)", len(cfg.CAN), cfg.SomeIP.InterfaceID != "", len(am.GetActuatorNames()))

	return &agent{
		metrics:    metrics,
		rawData:    raw,
		actuators:  am,
		canDisps:   canDisps,
		egressQ:    eg,
		ingress:    ig,
		stTemplate: st,
	}, nil
}

func (a *agent) start() {
	for _, d := range a.canDisps {
		d.Init()
	}
	a.actuators.Start()
}

func (a *agent) stop() {
	a.actuators.Stop()
	for _, d := range a.canDisps {
		d.Stop()
	}
}

func (a *agent) serveMetrics(port int, log logging.LeveledLogger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.metrics.Registerer(), promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("vehicle-agent: metrics server: %v", err)
		}
	}()
	return srv
}

// unavailableProxyCall is the placeholder wired for any SOME/IP actuator
// whose real proxy stub hasn't been generated yet. It always reports the
// actuator unavailable rather than panicking or blocking.
func unavailableProxyCall(methodName string) someip.ProxyCall {
	return func(ctx context.Context, req signal.ActuatorCommandRequest, stringBytes []byte) (int32, error) {
		return 0, fmt.Errorf("someip: no proxy wired for method %q", methodName)
	}
}

func parseLogLevel(level string) logging.LogLevel {
	switch strings.ToLower(level) {
	case "trace":
		return logging.LogLevelTrace
	case "debug":
		return logging.LogLevelDebug
	case "warn":
		return logging.LogLevelWarn
	case "error":
		return logging.LogLevelError
	default:
		return logging.LogLevelInfo
	}
}
