package tunnel

import "errors"

// State is the connection state of a Client.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateReady
	StateFailed
	StateCancelled
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateConnecting:
		return "Connecting"
	case StateReady:
		return "Ready"
	case StateFailed:
		return "Failed"
	case StateCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Active reports whether the state owns a live or pending connection.
func (s State) Active() bool {
	return s == StateConnecting || s == StateReady
}

var (
	// ErrAlreadyConnected is returned by Connect while a connection is
	// Connecting or Ready.
	ErrAlreadyConnected = errors.New("tunnel: already connected")

	// ErrTransport wraps dial, read and reset failures of the connection.
	ErrTransport = errors.New("tunnel: transport failure")

	// ErrInvalidTransition is returned when a state change is not allowed.
	ErrInvalidTransition = errors.New("tunnel: invalid state transition")
)

// canTransition reports whether from -> to is a legal state change.
func canTransition(from, to State) bool {
	switch from {
	case StateIdle, StateFailed, StateCancelled:
		return to == StateConnecting
	case StateConnecting:
		return to == StateReady || to == StateFailed || to == StateCancelled
	case StateReady:
		return to == StateFailed || to == StateCancelled
	}
	return false
}

// StateChange describes one transition. Err is set for StateFailed.
type StateChange struct {
	Previous State
	Current  State
	Err      error
}

// Handler receives connection events. Calls for one connection are made
// sequentially from the connection goroutine; a Handler shared by several
// clients must synchronise itself.
type Handler interface {
	// OnStateChange is called after every state transition.
	OnStateChange(change StateChange)

	// OnFrame is called once per decoded frame in wire order. The slice is
	// owned by the handler.
	OnFrame(payload []byte)
}

// HandlerFuncs adapts plain functions to Handler. Nil fields are skipped.
type HandlerFuncs struct {
	StateChange func(StateChange)
	Frame       func([]byte)
}

func (h HandlerFuncs) OnStateChange(change StateChange) {
	if h.StateChange != nil {
		h.StateChange(change)
	}
}

func (h HandlerFuncs) OnFrame(payload []byte) {
	if h.Frame != nil {
		h.Frame(payload)
	}
}
