package dronelink

import "github.com/bft-labs/dronelink/internal/app"

// State is the lifecycle state of a Session.
type State int

const (
	// StateStopped means the session is not running: freshly created or
	// stopped.
	StateStopped State = iota
	// StateConnecting means sockets are open and the connection request is
	// being sent.
	StateConnecting
	// StateActive means the session is receiving telemetry and accepts
	// commands.
	StateActive
	// StateStopping means Stop is in progress.
	StateStopping
	// StateFaulted means a socket failed. Err reports why; call Stop to
	// release the session.
	StateFaulted
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	return app.State(s).String()
}

// StateChangeEvent describes a lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// StateHandler receives lifecycle transitions. It is called synchronously
// from whichever goroutine caused the transition and must return quickly.
// Transitions arrive in the order they happened. A handler must not call
// Start or Stop.
type StateHandler interface {
	OnStateChange(event StateChangeEvent)
}

// StateHandlerFunc adapts a function to StateHandler.
type StateHandlerFunc func(event StateChangeEvent)

// OnStateChange implements StateHandler.
func (f StateHandlerFunc) OnStateChange(event StateChangeEvent) { f(event) }

// stateEmitter adapts a StateHandler to the lifecycle emitter.
type stateEmitter struct {
	handler StateHandler
}

func (e *stateEmitter) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}

func convertState(s app.State) State {
	switch s {
	case app.StateStopped:
		return StateStopped
	case app.StateConnecting:
		return StateConnecting
	case app.StateActive:
		return StateActive
	case app.StateStopping:
		return StateStopping
	case app.StateFaulted:
		return StateFaulted
	default:
		return StateStopped
	}
}
