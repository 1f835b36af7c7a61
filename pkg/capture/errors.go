package capture

import "errors"

var (
	// ErrRenderFailure is reported when rendering fails or yields no data.
	ErrRenderFailure = errors.New("capture: render failure")

	// ErrUploadFailure is reported for a non-200 status, a transport error
	// or a missing response.
	ErrUploadFailure = errors.New("capture: upload failure")

	// ErrBusy is returned by Capture while another cycle is in flight.
	ErrBusy = errors.New("capture: cycle already in flight")

	// ErrClosed is returned by Capture after Close.
	ErrClosed = errors.New("capture: pipeline closed")
)
