package surface

import (
	"fmt"
	"math"
	"sync"
)

const (
	// DefaultMargin is the space kept between drawn content and the surface edge.
	DefaultMargin = 1000.0

	// DefaultMaxExtent is the largest allowed surface size on either axis.
	DefaultMaxExtent = 100000.0

	// DefaultInitialExtent is the starting size on both axes.
	DefaultInitialExtent = 50000.0
)

// Size is a logical surface size.
type Size struct {
	W float64 `json:"width"`
	H float64 `json:"height"`
}

func (s Size) String() string {
	return fmt.Sprintf("%gx%g", s.W, s.H)
}

// Rect is an axis-aligned box in surface coordinates.
type Rect struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// Empty reports whether r encloses no area.
func (r Rect) Empty() bool {
	return !(r.MaxX > r.MinX && r.MaxY > r.MinY)
}

// Union returns the smallest Rect containing r and o. Empty rects are ignored.
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	return Rect{
		MinX: math.Min(r.MinX, o.MinX),
		MinY: math.Min(r.MinY, o.MinY),
		MaxX: math.Max(r.MaxX, o.MaxX),
		MaxY: math.Max(r.MaxY, o.MaxY),
	}
}

// Kind is the outcome of Tracker.Apply.
type Kind int

const (
	NoChange Kind = iota
	Grow
	AtLimit
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case NoChange:
		return "no_change"
	case Grow:
		return "grow"
	case AtLimit:
		return "at_limit"
	default:
		return "unknown"
	}
}

// Decision is the result of applying a content box. Size is the surface size
// after the decision; for AtLimit, Requested holds the rejected size.
type Decision struct {
	Kind      Kind
	Size      Size
	Requested Size
}

// Tracker owns the logical surface size. It is safe for concurrent use.
type Tracker struct {
	margin float64
	max    float64

	mu   sync.Mutex
	size Size
}

// NewTracker creates a Tracker. Non-positive margin or max select the defaults.
func NewTracker(initial Size, margin, max float64) *Tracker {
	if margin <= 0 {
		margin = DefaultMargin
	}
	if max <= 0 {
		max = DefaultMaxExtent
	}
	return &Tracker{
		margin: margin,
		max:    max,
		size:   initial,
	}
}

// Margin returns the configured growth margin.
func (t *Tracker) Margin() float64 { return t.margin }

// Max returns the configured per-axis maximum.
func (t *Tracker) Max() float64 { return t.max }

// Size returns the current surface size.
func (t *Tracker) Size() Size {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.size
}

// Apply grows the surface so box plus the margin fits inside it. Growth is
// all or nothing: if either axis would pass the maximum the size is left
// unchanged and AtLimit is returned.
func (t *Tracker) Apply(box Rect) Decision {
	t.mu.Lock()
	defer t.mu.Unlock()

	if box.Empty() {
		return Decision{Kind: NoChange, Size: t.size}
	}

	next := Size{
		W: math.Max(t.size.W, box.MaxX+t.margin),
		H: math.Max(t.size.H, box.MaxY+t.margin),
	}

	if next == t.size {
		return Decision{Kind: NoChange, Size: t.size}
	}
	if next.W > t.max || next.H > t.max {
		return Decision{Kind: AtLimit, Size: t.size, Requested: next}
	}

	t.size = next
	return Decision{Kind: Grow, Size: next}
}

// Restore replaces the current size, for example with a persisted value. It
// never shrinks the surface and clamps each axis to the maximum.
func (t *Tracker) Restore(s Size) Size {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.size = Size{
		W: math.Min(math.Max(t.size.W, s.W), t.max),
		H: math.Min(math.Max(t.size.H, s.H), t.max),
	}
	return t.size
}
