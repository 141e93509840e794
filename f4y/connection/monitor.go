package connection

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	internal "github.com/ZanzyTHEbar/ftp4you/f4y"
)

// MonitorState is the lifecycle state of a Monitor.
type MonitorState int

const (
	MonitorReady MonitorState = iota
	MonitorRunning
	MonitorSucceeded // loop exited because the session flags went down
	MonitorCancelled // deliberate stop, no notification fired
	MonitorFailed    // liveness probe failed
)

func (s MonitorState) String() string {
	switch s {
	case MonitorReady:
		return "READY"
	case MonitorRunning:
		return "RUNNING"
	case MonitorSucceeded:
		return "SUCCEEDED"
	case MonitorCancelled:
		return "CANCELLED"
	case MonitorFailed:
		return "FAILED"
	}
	return "UNKNOWN"
}

// LossNotification is the single terminal event fired when a monitored
// connection is lost.
type LossNotification struct {
	RunID    uuid.UUID
	Endpoint EndpointDetails
	At       time.Time
}

// Monitor polls a connection in the background and fires one loss
// notification when connectivity goes away. A deliberate Cancel fires
// nothing.
type Monitor struct {
	conn     *Connection
	interval time.Duration
	notify   func(LossNotification)
	logger   *slog.Logger

	mu        sync.Mutex
	state     MonitorState
	cancelled bool
	runID     uuid.UUID
	done      chan struct{}
}

// NewMonitor creates a monitor in the READY state. The notify callback may be
// nil; it is invoked from the monitor's own goroutine.
func NewMonitor(conn *Connection, interval time.Duration, notify func(LossNotification)) *Monitor {
	if interval <= 0 {
		interval = internal.DefaultPollInterval
	}
	return &Monitor{
		conn:     conn,
		interval: interval,
		notify:   notify,
		logger:   slog.Default(),
		state:    MonitorReady,
	}
}

// State returns the current lifecycle state.
func (m *Monitor) State() MonitorState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Start launches the polling loop. From a terminal state this is a full
// restart with a fresh run ID. Returns false when the loop is already
// running.
func (m *Monitor) Start() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == MonitorRunning {
		return false
	}
	m.state = MonitorRunning
	m.cancelled = false
	m.runID = uuid.New()
	m.done = make(chan struct{})
	go m.run(m.runID, m.done)
	m.logger.Debug("health monitor started", "run", m.runID, "host", m.conn.Details().Host, "interval", m.interval)
	return true
}

// Cancel requests a deliberate stop. The flag is observed at the top of the
// next loop iteration; no loss notification fires for a cancelled run.
func (m *Monitor) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelled = true
}

// Wait blocks until the current run's goroutine has exited. No-op when the
// monitor never started.
func (m *Monitor) Wait() {
	m.mu.Lock()
	done := m.done
	m.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (m *Monitor) run(runID uuid.UUID, done chan struct{}) {
	defer close(done)
	for {
		if m.isCancelled() {
			m.finish(runID, MonitorCancelled, false)
			return
		}
		if !m.conn.IsConnected() || !m.conn.IsLoggedIn() {
			m.finish(runID, MonitorSucceeded, true)
			return
		}
		// The sleep is interruptible only at iteration boundaries.
		time.Sleep(m.interval)
		ok, err := m.conn.SendNoop()
		if err != nil {
			m.logger.Warn("liveness probe failed", "run", runID, "error", err)
			m.finish(runID, MonitorFailed, true)
			return
		}
		if !ok {
			m.finish(runID, MonitorSucceeded, true)
			return
		}
	}
}

// finish records the terminal state and fires the single loss notification
// unless the run was cancelled.
func (m *Monitor) finish(runID uuid.UUID, state MonitorState, lost bool) {
	m.mu.Lock()
	if m.cancelled {
		state = MonitorCancelled
		lost = false
	}
	if m.runID != runID {
		// A restart already superseded this run.
		m.mu.Unlock()
		return
	}
	m.state = state
	notify := m.notify
	m.mu.Unlock()

	m.logger.Debug("health monitor stopped", "run", runID, "state", state.String())
	if lost && notify != nil {
		notify(LossNotification{
			RunID:    runID,
			Endpoint: m.conn.Details(),
			At:       time.Now(),
		})
	}
}

func (m *Monitor) isCancelled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancelled
}
