package app

import (
	"context"
	"sync"
	"time"

	"github.com/bft-labs/dronelink/internal/domain"
	"github.com/bft-labs/dronelink/pkg/log"
)

// DefaultShutdownTimeout bounds how long Stop waits for the session loops.
const DefaultShutdownTimeout = 5 * time.Second

// State is the lifecycle state of a session.
type State int

const (
	// StateStopped covers both a freshly created and a closed session.
	StateStopped State = iota
	// StateConnecting means sockets are open, loops started and the
	// connection request is being sent.
	StateConnecting
	// StateActive means receive loops and dispatcher are running.
	StateActive
	// StateStopping means Stop is tearing the loops down.
	StateStopping
	// StateFaulted means a transport failure ended the loops.
	StateFaulted
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateConnecting:
		return "Connecting"
	case StateActive:
		return "Active"
	case StateStopping:
		return "Stopping"
	case StateFaulted:
		return "Faulted"
	default:
		return "Unknown"
	}
}

// Lifecycle manages the session state machine and its background workers.
//
// Valid transitions:
//   - Stopped -> Connecting
//   - Connecting -> Active, Stopping, Faulted
//   - Active -> Stopping, Faulted
//   - Stopping -> Stopped, Faulted
//   - Faulted -> Stopping
//
// Transitions are emitted in the order they happen. The emitter runs while
// emitMu is held, so it must not call TransitionTo or Fault.
type Lifecycle struct {
	emitMu       sync.Mutex
	mu           sync.RWMutex
	state        State
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	logger       log.Logger
	eventEmitter EventEmitter
}

// EventEmitter is called when lifecycle state changes.
type EventEmitter interface {
	OnStateChange(previous, current State, reason string)
}

// NewLifecycle creates a new lifecycle manager in StateStopped.
func NewLifecycle(logger log.Logger, emitter EventEmitter) *Lifecycle {
	return &Lifecycle{
		state:        StateStopped,
		logger:       logger,
		eventEmitter: emitter,
	}
}

// State returns the current lifecycle state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

func validTransition(from, to State) error {
	switch from {
	case StateStopped:
		if to == StateConnecting {
			return nil
		}
		return domain.ErrNotRunning
	case StateConnecting:
		if to == StateActive || to == StateStopping || to == StateFaulted {
			return nil
		}
		return domain.ErrAlreadyRunning
	case StateActive:
		if to == StateStopping || to == StateFaulted {
			return nil
		}
		return domain.ErrAlreadyRunning
	case StateStopping:
		if to == StateStopped || to == StateFaulted {
			return nil
		}
		return domain.ErrAlreadyRunning
	case StateFaulted:
		if to == StateStopping {
			return nil
		}
		return domain.ErrNotRunning
	}
	return domain.ErrNotRunning
}

// TransitionTo attempts to transition to a new state.
// Returns an error if the transition is not valid.
func (l *Lifecycle) TransitionTo(newState State, reason string) error {
	l.emitMu.Lock()
	defer l.emitMu.Unlock()

	l.mu.Lock()
	oldState := l.state
	if err := validTransition(oldState, newState); err != nil {
		l.mu.Unlock()
		return err
	}
	l.state = newState
	l.mu.Unlock()

	// Emit outside mu so handlers can read State.
	if l.eventEmitter != nil {
		l.eventEmitter.OnStateChange(oldState, newState, reason)
	}

	l.logger.Info("state transition",
		log.String("from", oldState.String()),
		log.String("to", newState.String()),
		log.String("reason", reason),
	)

	return nil
}

// Fault moves a connecting or active session to StateFaulted. It reports
// false, without emitting anything, when the session is in any other state,
// so a loop failing during Stop does not race the shutdown path.
func (l *Lifecycle) Fault(reason string) bool {
	l.emitMu.Lock()
	defer l.emitMu.Unlock()

	l.mu.Lock()
	oldState := l.state
	if oldState != StateConnecting && oldState != StateActive {
		l.mu.Unlock()
		return false
	}
	l.state = StateFaulted
	l.mu.Unlock()

	if l.eventEmitter != nil {
		l.eventEmitter.OnStateChange(oldState, StateFaulted, reason)
	}
	l.logger.Error("session faulted",
		log.String("from", oldState.String()),
		log.String("reason", reason),
	)
	return true
}

// CanStart returns true if Start() can be called.
func (l *Lifecycle) CanStart() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state == StateStopped
}

// CanStop returns true if Stop() can be called.
func (l *Lifecycle) CanStop() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state == StateConnecting || l.state == StateActive || l.state == StateFaulted
}

// SetCancel stores the cancel function for shutdown.
func (l *Lifecycle) SetCancel(cancel context.CancelFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancel = cancel
}

// Cancel triggers shutdown of the workers.
func (l *Lifecycle) Cancel() {
	l.mu.Lock()
	cancel := l.cancel
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// AddWorker increments the worker count.
func (l *Lifecycle) AddWorker() {
	l.wg.Add(1)
}

// WorkerDone decrements the worker count.
func (l *Lifecycle) WorkerDone() {
	l.wg.Done()
}

// WaitWithTimeout waits for all workers to finish with a timeout.
// Returns ErrShutdownTimeout if the timeout expires.
func (l *Lifecycle) WaitWithTimeout(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		l.logger.Warn("shutdown timeout, abandoning workers",
			log.Duration("timeout", timeout),
		)
		return domain.ErrShutdownTimeout
	}
}
