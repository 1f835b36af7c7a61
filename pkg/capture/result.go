package capture

import (
	"image"
	"time"
)

// Result is the outcome of one capture cycle.
type Result struct {
	// Success is true only for an HTTP 200 response
	Success bool

	// StatusCode is the HTTP status, 0 when no response arrived
	StatusCode int

	// Body is the response body, possibly truncated
	Body []byte

	// Err is set when Success is false
	Err error

	// BodyErr is set when reading the response body failed part way; Body
	// then holds only what arrived
	BodyErr error

	// Region is the surface region that was rendered
	Region image.Rectangle

	// ImageBytes is the size of the uploaded image
	ImageBytes int

	// At is when the cycle finished
	At time.Time

	// Duration is how long the cycle took
	Duration time.Duration
}

// ResultHandler receives the outcome of every capture cycle. Calls are made
// sequentially from the pipeline's worker goroutine.
type ResultHandler interface {
	OnResult(Result)
}

// ResultHandlerFunc adapts a function to ResultHandler.
type ResultHandlerFunc func(Result)

// OnResult implements ResultHandler.
func (f ResultHandlerFunc) OnResult(r Result) { f(r) }
