package domain

import "time"

// State is the agent state persisted between runs.
type State struct {
	// SurfaceWidth and SurfaceHeight are the logical surface size
	SurfaceWidth  float64 `json:"surface_width"`
	SurfaceHeight float64 `json:"surface_height"`

	// LastCaptureAt is when the last capture cycle finished
	LastCaptureAt time.Time `json:"last_capture_at,omitempty"`

	// LastStatusCode is the HTTP status of the last upload, 0 if none arrived
	LastStatusCode int `json:"last_status_code,omitempty"`

	// LastError is the failure reason of the last capture, empty on success
	LastError string `json:"last_error,omitempty"`

	// Captures counts successful uploads
	Captures uint64 `json:"captures"`

	// Failures counts failed capture cycles
	Failures uint64 `json:"failures"`

	// UpdatedAt is when the state was last saved
	UpdatedAt time.Time `json:"updated_at"`
}
