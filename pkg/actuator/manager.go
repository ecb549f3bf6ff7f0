// Package actuator implements the actuator command manager: it owns the
// registered interface dispatchers (pkg/can, pkg/someip, …), the active
// decoder manifest, and a bounded FIFO of incoming ActuatorCommandRequests
// served by a single worker goroutine, mirroring the teacher's
// pkg/exchange.Manager shape (one mutex-guarded table of collaborators, a
// background goroutine draining a work channel, callbacks always invoked
// outside any lock this package holds).
package actuator

import (
	"fmt"
	"sync"

	"github.com/edgevehicle/agentcore/pkg/clock"
	"github.com/edgevehicle/agentcore/pkg/egress"
	"github.com/edgevehicle/agentcore/pkg/rawdata"
	"github.com/edgevehicle/agentcore/pkg/signal"
	"github.com/edgevehicle/agentcore/pkg/telemetry"
	"github.com/pion/logging"
)

// QueueCapacity bounds the pending-command FIFO. A command submitted
// while the queue is full is dropped silently (Open Question (a):
// overload sheds load rather than synthesizing a response nobody asked
// for).
const QueueCapacity = 256

// ManagerConfig collects the Manager's collaborators.
type ManagerConfig struct {
	Clock         clock.Clock
	RawData       *rawdata.Manager
	Egress        *egress.Queue
	Metrics       *telemetry.Registry
	LoggerFactory logging.LoggerFactory
}

// Manager is the actuator command manager.
type Manager struct {
	clock   clock.Clock
	raw     *rawdata.Manager
	egress  *egress.Queue
	metrics *telemetry.Registry
	log     logging.LeveledLogger

	dispatchMu  sync.Mutex
	dispatchers map[string]Dispatcher
	initialized map[string]bool
	ownerOf     map[string]string // actuator name -> interface ID, for duplicate-registration detection

	manifestMu        sync.Mutex
	decoderManifestID string
	decoderMap        signal.CustomSignalDecoderFormatMap

	queue  chan signal.ActuatorCommandRequest
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewManager constructs a Manager. Call Start to begin draining its
// command queue.
func NewManager(cfg ManagerConfig) *Manager {
	loggerFactory := cfg.LoggerFactory
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}
	return &Manager{
		clock:       cfg.Clock,
		raw:         cfg.RawData,
		egress:      cfg.Egress,
		metrics:     cfg.Metrics,
		log:         loggerFactory.NewLogger("actuator"),
		dispatchers: make(map[string]Dispatcher),
		initialized: make(map[string]bool),
		ownerOf:     make(map[string]string),
		queue:       make(chan signal.ActuatorCommandRequest, QueueCapacity),
		stopCh:      make(chan struct{}),
	}
}

// RegisterDispatcher adds d under interfaceID. It is an error to
// register two dispatchers whose actuator names overlap, or to reuse an
// interfaceID already registered.
func (m *Manager) RegisterDispatcher(interfaceID string, d Dispatcher) error {
	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()

	if _, exists := m.dispatchers[interfaceID]; exists {
		return fmt.Errorf("actuator: interface %q already registered", interfaceID)
	}
	for _, name := range d.GetActuatorNames() {
		if owner, exists := m.ownerOf[name]; exists {
			return fmt.Errorf("actuator: actuator %q already served by interface %q", name, owner)
		}
	}
	for _, name := range d.GetActuatorNames() {
		m.ownerOf[name] = interfaceID
	}
	m.dispatchers[interfaceID] = d
	return nil
}

// GetActuatorNames returns every actuator name served across all
// registered dispatchers.
func (m *Manager) GetActuatorNames() []string {
	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()
	names := make([]string, 0, len(m.ownerOf))
	for name := range m.ownerOf {
		names = append(names, name)
	}
	return names
}

// SetDecoderManifest installs the active decoder manifest. Commands
// carrying a different DecoderManifestID are rejected as out of sync
// until ingress catches up.
func (m *Manager) SetDecoderManifest(id string, decoders signal.CustomSignalDecoderFormatMap) {
	m.manifestMu.Lock()
	defer m.manifestMu.Unlock()
	m.decoderManifestID = id
	m.decoderMap = decoders
}

// Start launches the worker goroutine that drains the pending queue.
func (m *Manager) Start() {
	m.wg.Add(1)
	go m.workerLoop()
}

// Stop drains no further commands and waits for the worker to exit.
func (m *Manager) Stop() {
	close(m.stopCh)
	m.wg.Wait()
}

// Submit enqueues req for processing. It returns false if the queue is
// full, in which case the command is dropped with no response
// synthesized.
func (m *Manager) Submit(req signal.ActuatorCommandRequest) bool {
	select {
	case m.queue <- req:
		m.metrics.IncQueueDepth()
		return true
	default:
		m.log.Warnf("actuator: command queue full, dropping command %s", req.CommandID)
		return false
	}
}

func (m *Manager) workerLoop() {
	defer m.wg.Done()
	for {
		select {
		case req := <-m.queue:
			m.metrics.DecQueueDepth()
			m.processCommandRequest(req)
		case <-m.stopCh:
			return
		}
	}
}

// processCommandRequest implements the six-branch dispatch decision:
// manifest mismatch, absent manifest, unknown signal ID, unregistered
// interface, pre-dispatch timeout, or a live dispatch whose every
// status update (including IN_PROGRESS) is queued onto egress.
func (m *Manager) processCommandRequest(req signal.ActuatorCommandRequest) {
	m.manifestMu.Lock()
	activeID, decoders := m.decoderManifestID, m.decoderMap
	m.manifestMu.Unlock()

	if decoders == nil {
		m.queueCommandResponse(req, failure(req.CommandID, signal.ReasonDecoderManifestOutOfSync, "no decoder manifest installed"))
		return
	}
	if req.DecoderManifestID != activeID {
		m.queueCommandResponse(req, failure(req.CommandID, signal.ReasonDecoderManifestOutOfSync, "command's decoder manifest ID does not match the active one"))
		return
	}

	decoder, ok := decoders[req.SignalID]
	if !ok {
		m.queueCommandResponse(req, failure(req.CommandID, signal.ReasonNoDecodingRulesFound, "no decoding rule for this signal ID"))
		return
	}

	m.dispatchMu.Lock()
	d, ok := m.dispatchers[decoder.InterfaceID]
	m.dispatchMu.Unlock()
	if !ok {
		m.queueCommandResponse(req, failure(req.CommandID, signal.ReasonNoCommandDispatcherFound, "no dispatcher registered for interface "+decoder.InterfaceID))
		return
	}

	if deadlineMs, has := req.Deadline(); has && m.clock.NowMs() >= deadlineMs {
		m.queueCommandResponse(req, signal.CommandResponse{
			CommandID:  req.CommandID,
			Status:     signal.StatusExecutionTimeout,
			ReasonCode: signal.ReasonTimedOutBeforeDispatch,
		})
		return
	}

	m.ensureInitialized(decoder.InterfaceID, d)

	dispatchStartMs := m.clock.NowMs()
	d.SetActuatorValue(decoder.DecoderName, req, m.resolveString, func(resp signal.CommandResponse) {
		if resp.Status.IsTerminal() {
			latency := float64(m.clock.NowMs()-dispatchStartMs) / 1000.0
			m.metrics.ObserveCommandTerminal(decoder.InterfaceID, resp.Status.String(), latency)
		}
		m.queueCommandResponse(req, resp)
	})
}

// ensureInitialized calls Init on d the first time any of its actuators
// is activated, per spec.md's lazy-initialization requirement.
func (m *Manager) ensureInitialized(interfaceID string, d Dispatcher) {
	m.dispatchMu.Lock()
	already := m.initialized[interfaceID]
	m.dispatchMu.Unlock()
	if already {
		return
	}
	ok := d.Init()
	m.dispatchMu.Lock()
	m.initialized[interfaceID] = true
	m.dispatchMu.Unlock()
	if !ok {
		m.log.Errorf("actuator: dispatcher for interface %q failed to initialize", interfaceID)
	}
}

// resolveString satisfies the Dispatcher contract's StringResolver by
// borrowing the staged bytes from the raw data buffer manager. The
// loan is released immediately: the dispatcher only needs the bytes
// for the duration of the encode/call, not for the command's lifetime.
func (m *Manager) resolveString(ref signal.StringSignalValue) ([]byte, bool) {
	if m.raw == nil {
		return nil, false
	}
	loan := m.raw.BorrowFrame(rawdata.TypeID(ref.TypeID), ref.Handle)
	if !loan.Valid() {
		return nil, false
	}
	defer loan.Release()
	data := make([]byte, loan.Size())
	copy(data, loan.Data())
	return data, true
}

// queueCommandResponse publishes resp on the egress queue and, for a
// terminal response to a STRING-argument command, releases the
// UPLOADING usage hint the request holder put on the staged bytes.
// Both are best-effort: a full egress queue or an already-released
// handle do not surface an error to the dispatcher.
func (m *Manager) queueCommandResponse(req signal.ActuatorCommandRequest, resp signal.CommandResponse) {
	if resp.Status.IsTerminal() && req.SignalValue.Type == signal.TypeString && m.raw != nil {
		m.raw.DecreaseHandleUsageHint(rawdata.TypeID(req.SignalValue.Str.TypeID), req.SignalValue.Str.Handle, rawdata.StageUploading)
	}
	if m.egress != nil {
		m.egress.Push(resp)
	}
}

func failure(id signal.CommandID, reason signal.ReasonCode, desc string) signal.CommandResponse {
	return signal.CommandResponse{
		CommandID:         id,
		Status:            signal.StatusExecutionFailed,
		ReasonCode:        reason,
		ReasonDescription: desc,
	}
}
