package canvasship

import (
	"time"

	"github.com/bft-labs/canvasship/pkg/capture"
	"github.com/bft-labs/canvasship/pkg/tunnel"
)

// State is the lifecycle state of a Session.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateCrashed:
		return "Crashed"
	default:
		return "Unknown"
	}
}

// StateChangeEvent describes a Session lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// CaptureEvent describes one finished render and upload cycle.
type CaptureEvent struct {
	Success    bool
	StatusCode int
	Body       []byte
	Err        error
	BodyErr    error
	ImageBytes int
	At         time.Time
	Duration   time.Duration
}

// TunnelEvent describes a tunnel connection state transition.
type TunnelEvent struct {
	Previous tunnel.State
	Current  tunnel.State
	Err      error
}

// EventHandler receives Session events. Calls come from worker goroutines
// and should return quickly.
type EventHandler interface {
	OnStateChange(StateChangeEvent)
	OnCapture(CaptureEvent)
	OnTunnelStateChange(TunnelEvent)
}

// BaseEventHandler implements EventHandler with no-ops. Embed it to
// handle only some events.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent)  {}
func (BaseEventHandler) OnCapture(CaptureEvent)          {}
func (BaseEventHandler) OnTunnelStateChange(TunnelEvent) {}

func captureEvent(res capture.Result) CaptureEvent {
	return CaptureEvent{
		Success:    res.Success,
		StatusCode: res.StatusCode,
		Body:       res.Body,
		Err:        res.Err,
		BodyErr:    res.BodyErr,
		ImageBytes: res.ImageBytes,
		At:         res.At,
		Duration:   res.Duration,
	}
}
