package producer

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"kafkameter/internal/logger"
	"kafkameter/internal/metrics"
)

// Slot keys under which the client and its value serializer are published to
// hosts that look shared state up by name.
const (
	ClientSlotKey          = "kafkaClient"
	ValueSerializerSlotKey = "di-kafkameter" + ValueSerializer
)

// DefaultFlushTimeout bounds the run-end flush when no timeout is configured.
const DefaultFlushTimeout = 10 * time.Second

// State is the lifecycle state of the shared producer for a run.
type State int32

const (
	StateUninitialized State = iota
	StateReady
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "UNINITIALIZED"
	case StateReady:
		return "READY"
	case StateTerminated:
		return "TERMINATED"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Manager owns the single producer client of a run. It creates the client on
// run-start, publishes it to worker units and flushes and closes it on run-end.
type Manager struct {
	settings     Settings
	extras       []ExtraSetting
	factory      ClientFactory
	log          *logrus.Entry
	flushTimeout time.Duration

	// mu serializes construction and teardown; reads go through slot only.
	mu    sync.Mutex
	slot  atomic.Pointer[Handle]
	state atomic.Int32
}

// Option configures a Manager.
type Option func(*Manager)

// WithClientFactory overrides how producer clients are constructed.
func WithClientFactory(f ClientFactory) Option {
	return func(m *Manager) { m.factory = f }
}

// WithLogger overrides the manager's logger.
func WithLogger(l *logrus.Entry) Option {
	return func(m *Manager) { m.log = l }
}

// WithFlushTimeout bounds how long run-end waits for in-flight messages.
func WithFlushTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.flushTimeout = d
		}
	}
}

// NewManager creates a lifecycle manager for the given settings.
func NewManager(settings Settings, extras []ExtraSetting, opts ...Option) *Manager {
	m := &Manager{
		settings:     settings,
		extras:       append([]ExtraSetting(nil), extras...),
		factory:      ConfluentFactory{},
		log:          logger.WithComponent("kafka-producer"),
		flushTimeout: DefaultFlushTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Properties returns the property set the client is built from.
func (m *Manager) Properties() Properties {
	return BuildProperties(m.settings, m.extras)
}

// Start returns the published client, constructing and publishing one if
// the slot is empty. created is false when a client was already published.
// At most one client is constructed however many callers race here. A client
// that is being torn down does not count: Start waits for teardown to finish
// and builds a fresh one.
func (m *Manager) Start() (h *Handle, created bool, err error) {
	if h := m.slot.Load(); h != nil && !h.Closed() {
		return h, false, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if h := m.slot.Load(); h != nil && !h.Closed() {
		return h, false, nil
	}

	h, err = m.construct()
	if err != nil {
		return nil, false, err
	}

	m.slot.Store(h)
	m.state.Store(int32(StateReady))
	return h, true, nil
}

func (m *Manager) construct() (*Handle, error) {
	props := m.Properties()

	m.log.Debugf("Additional config size: %d", len(m.extras))
	for _, e := range m.extras {
		m.log.Debugf("Adding property: %s", e.Key)
	}
	m.log.WithField("ssl", m.settings.TLS).Info("Kafka SSL properties status")

	keySerializer, err := ResolveSerializer(m.settings.KeySerializer)
	if err != nil {
		return nil, fmt.Errorf("key serializer: %w", err)
	}
	valueSerializer, err := ResolveSerializer(m.settings.ValueSerializer)
	if err != nil {
		return nil, fmt.Errorf("value serializer: %w", err)
	}

	conf, err := ToConfigMap(props)
	if err != nil {
		return nil, err
	}

	client, err := m.factory.NewClient(conf)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	return newHandle(client, keySerializer, valueSerializer, m.settings.KeySerializer, m.settings.ValueSerializer, m.settings.ClientID), nil
}

// TestStarted handles the run-start signal. Failures are reported, never
// returned: a run proceeds without a client and workers see ErrNoClient.
func (m *Manager) TestStarted() {
	_, created, err := m.Start()
	switch {
	case err != nil:
		metrics.ProducerInitFailures.Inc()
		m.log.WithError(err).Error("Error establishing Kafka producer client")
	case !created:
		metrics.ProducerStartConflicts.Inc()
		m.log.Warn("Kafka producer client is already running")
	default:
		metrics.ProducerClientsCreated.Inc()
		metrics.ProducerReady.Set(1)
		m.log.WithFields(logrus.Fields{
			"clientId": m.settings.ClientID,
			"brokers":  m.settings.Brokers,
		}).Info("Kafka producer client successfully initialized")
	}
}

// TestStartedHost handles a host-qualified run-start signal.
func (m *Manager) TestStartedHost(host string) {
	m.TestStarted()
}

// Stop flushes and closes the published client, then clears the slot so a
// later Start builds a fresh client. Close is attempted even if flush fails.
// Stop returns ErrNotRunning when no client is published.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := m.slot.Load()
	if h == nil {
		return ErrNotRunning
	}

	flushErr, closeErr := h.shutdown(m.flushTimeout)
	if flushErr != nil {
		metrics.ProducerTeardownFailures.WithLabelValues("flush").Inc()
		m.log.WithError(flushErr).Error("Failed to flush Kafka producer client")
	}
	if closeErr != nil {
		metrics.ProducerTeardownFailures.WithLabelValues("close").Inc()
		m.log.WithError(closeErr).Error("Failed to close Kafka producer client")
	}

	m.slot.Store(nil)
	m.state.Store(int32(StateTerminated))
	metrics.ProducerReady.Set(0)

	m.log.Info("Kafka producer client connection terminated")
	return errors.Join(flushErr, closeErr)
}

// TestEnded handles the run-end signal. A run that never got a client is
// reported as a warning; teardown failures are returned joined.
func (m *Manager) TestEnded() error {
	err := m.Stop()
	if errors.Is(err, ErrNotRunning) {
		m.log.Warn("No Kafka producer client to terminate")
		return nil
	}
	return err
}

// TestEndedHost handles a host-qualified run-end signal.
func (m *Manager) TestEndedHost(host string) error {
	return m.TestEnded()
}

// Client returns the published client. It reports false outside READY,
// including once teardown has begun.
func (m *Manager) Client() (*Handle, bool) {
	h := m.slot.Load()
	if h == nil || h.Closed() {
		return nil, false
	}
	return h, true
}

// ValueSerializer returns the value-serialization scheme published with the client.
func (m *Manager) ValueSerializer() (string, bool) {
	h, ok := m.Client()
	if !ok {
		return "", false
	}
	return h.ValueSerializer(), true
}

// Lookup resolves a slot key to its published value.
func (m *Manager) Lookup(key string) (any, bool) {
	switch key {
	case ClientSlotKey:
		if h, ok := m.Client(); ok {
			return h, true
		}
	case ValueSerializerSlotKey:
		if v, ok := m.ValueSerializer(); ok {
			return v, true
		}
	}
	return nil, false
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// ClientID returns the configured client.id.
func (m *Manager) ClientID() string {
	return m.settings.ClientID
}
