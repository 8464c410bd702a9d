package db

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"flood-geoservice/internal/logging"
	"flood-geoservice/internal/observability"
)

// ConnState is the connectivity state of the supervised database connection.
type ConnState int

const (
	StateConnected ConnState = iota
	StateReconnecting
	StateFatal
)

func (s ConnState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateFatal:
		return "fatal"
	}
	return "unknown"
}

// Pinger is the probe surface the monitor supervises.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Monitor supervises the database connection: a failed ping moves it to
// reconnecting, retries run on a fixed delay with bounded attempts, and
// exhausting them is fatal to the process. Retries are unconditional on
// error classification; transient and permanent failures are not told apart.
type Monitor struct {
	pinger       Pinger
	logger       *logging.Logger
	metrics      *observability.Metrics
	clock        clockwork.Clock
	pingInterval time.Duration
	retryDelay   time.Duration
	maxAttempts  int
	exit         func(code int)

	mu       sync.Mutex
	state    ConnState
	attempts int
}

func NewMonitor(pinger Pinger, logger *logging.Logger, metrics *observability.Metrics, clock clockwork.Clock, pingInterval, retryDelay time.Duration, maxAttempts int) *Monitor {
	m := &Monitor{
		pinger:       pinger,
		logger:       logger,
		metrics:      metrics,
		clock:        clock,
		pingInterval: pingInterval,
		retryDelay:   retryDelay,
		maxAttempts:  maxAttempts,
		state:        StateConnected,
	}
	m.exit = func(code int) {
		logger.Close()
		os.Exit(code)
	}
	return m
}

// SetExit replaces the fatal-exit hook. Tests use this to observe the fatal
// transition without terminating the process.
func (m *Monitor) SetExit(exit func(code int)) {
	m.exit = exit
}

func (m *Monitor) State() ConnState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Monitor) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// Run supervises the connection until the context is cancelled. It is the
// only component with externally imposed timing; nothing here is cancellable
// mid-transition other than by process exit.
func (m *Monitor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.clock.After(m.pingInterval):
		}

		if err := m.pinger.Ping(ctx); err != nil {
			if !m.reconnect(ctx, err) {
				return
			}
		}
	}
}

// reconnect walks the retry chain. It returns false when the monitor should
// stop (context cancelled or fatal).
func (m *Monitor) reconnect(ctx context.Context, cause error) bool {
	m.setState(StateReconnecting, 1)

	for {
		m.logger.Errorf("Database connection lost: %v (attempt %d/%d)", cause, m.Attempts(), m.maxAttempts)
		if m.metrics != nil {
			m.metrics.ReconnectAttempts.Inc()
		}

		select {
		case <-ctx.Done():
			return false
		case <-m.clock.After(m.retryDelay):
		}

		err := m.pinger.Ping(ctx)
		if err == nil {
			m.setState(StateConnected, 0)
			m.logger.Infof("Database connection restored")
			return true
		}

		if m.Attempts() >= m.maxAttempts {
			m.setState(StateFatal, m.maxAttempts)
			m.logger.Errorf("Database reconnect failed after %d attempts: %v", m.maxAttempts, err)
			m.exit(1)
			return false
		}

		m.bumpAttempts()
		cause = err
	}
}

func (m *Monitor) setState(s ConnState, attempts int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
	m.attempts = attempts
}

func (m *Monitor) bumpAttempts() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts++
}
