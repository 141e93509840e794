package connection

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/assert-lib"

	internal "github.com/ZanzyTHEbar/ftp4you/f4y"
)

// Manager is the single ownership point for connections. It keeps one shared
// process-wide Connection keyed by endpoint equality and hands out detached
// temporary connections for background work.
type Manager struct {
	mu            sync.Mutex
	AssertHandler *assert.AssertHandler

	dial        Dialer
	dialTimeout time.Duration
	logger      *slog.Logger

	shared *Connection
}

// ManagerOption configures a Manager at construction time.
type ManagerOption func(*Manager)

// WithManagerDialer substitutes the transport factory for every connection
// the manager creates.
func WithManagerDialer(d Dialer) ManagerOption {
	return func(m *Manager) { m.dial = d }
}

// WithManagerDialTimeout overrides the default dial timeout.
func WithManagerDialTimeout(t time.Duration) ManagerOption {
	return func(m *Manager) { m.dialTimeout = t }
}

// WithManagerLogger overrides the default slog logger.
func WithManagerLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a connection manager.
func NewManager(assertHandler *assert.AssertHandler, opts ...ManagerOption) *Manager {
	m := &Manager{
		AssertHandler: assertHandler,
		dial:          DialFTP,
		dialTimeout:   internal.DefaultDialTimeout,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Shared returns the process-wide connection for the given endpoint.
// Re-requesting with equal details returns the same instance; different
// details disconnect and replace it.
func (m *Manager) Shared(details EndpointDetails) *Connection {
	m.mu.Lock()
	defer m.mu.Unlock()
	if details.Port == 0 {
		details.Port = internal.DefaultFTPPort
	}
	if m.shared != nil {
		if m.shared.Details() == details {
			return m.shared
		}
		if _, err := m.shared.Disconnect(); err != nil {
			m.logger.Warn("disconnecting replaced shared connection", "host", m.shared.Details().Host, "error", err)
		}
	}
	m.shared = m.newConnection(details)
	m.logger.Debug("shared connection replaced", "host", details.Host, "port", details.Port)
	return m.shared
}

// Temporary returns a detached connection for isolated or background use. It
// is caller-owned and never substituted into the shared slot.
func (m *Manager) Temporary(details EndpointDetails) *Connection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.newConnection(details)
}

// Close disconnects the shared connection, if any.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shared == nil {
		return nil
	}
	_, err := m.shared.Disconnect()
	m.shared = nil
	return err
}

func (m *Manager) newConnection(details EndpointDetails) *Connection {
	return NewConnection(details,
		WithDialer(m.dial),
		WithDialTimeout(m.dialTimeout),
		WithLogger(m.logger),
	)
}
