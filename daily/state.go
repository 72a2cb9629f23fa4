package daily

import (
	"context"
	"log/slog"
	"sync"

	"github.com/babelforce/rtvi-go"
	"github.com/babelforce/rtvi-go/metrics"
)

// stateMachine owns the transport state. set is the only writer.
type stateMachine struct {
	mu      sync.Mutex
	state   rtvi.TransportState
	changed chan struct{}
	logger  *slog.Logger
}

func newStateMachine(logger *slog.Logger) *stateMachine {
	return &stateMachine{
		state:   rtvi.TransportStateDisconnected,
		changed: make(chan struct{}),
		logger:  logger,
	}
}

func (m *stateMachine) get() rtvi.TransportState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// set moves to next and reports whether the caller has to notify. A
// connected state arriving after ready is stale and is dropped. Every other
// call is applied, including self loops.
func (m *stateMachine) set(next rtvi.TransportState) bool {
	m.mu.Lock()
	prev := m.state

	if next == rtvi.TransportStateConnected && prev == rtvi.TransportStateReady {
		m.mu.Unlock()
		m.logger.Debug("ignoring connected after ready")
		metrics.TransportStateSuppressed.WithLabelValues("connected_after_ready").Inc()
		return false
	}

	m.state = next
	close(m.changed)
	m.changed = make(chan struct{})
	m.mu.Unlock()

	if !prev.CanTransition(next) {
		m.logger.Warn(
			"undocumented transport state transition",
			slog.String("from", prev.String()),
			slog.String("to", next.String()),
		)
		metrics.UndocumentedTransitions.Inc()
	}

	m.logger.Debug("transport state", slog.String("from", prev.String()), slog.String("to", next.String()))
	metrics.TransportStateTransitions.WithLabelValues(next.String()).Inc()
	return true
}

// wait blocks until done reports true for the current state or ctx ends.
func (m *stateMachine) wait(ctx context.Context, done func(rtvi.TransportState) bool) (rtvi.TransportState, error) {
	for {
		m.mu.Lock()
		state, changed := m.state, m.changed
		m.mu.Unlock()

		if done(state) {
			return state, nil
		}

		select {
		case <-ctx.Done():
			return state, ctx.Err()
		case <-changed:
		}
	}
}
