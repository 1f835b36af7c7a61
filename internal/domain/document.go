package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/bft-labs/canvasship/pkg/surface"
)

// DefaultPenWidth is the stroke width used when a stroke gives none.
const DefaultPenWidth = 15.0

// Point is a position in surface coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Color is an RGBA colour. In JSON it is written as "#rrggbb" or "#rrggbbaa".
type Color struct {
	R, G, B, A uint8
}

var (
	Black = Color{0, 0, 0, 0xff}
	White = Color{0xff, 0xff, 0xff, 0xff}
)

// ParseColor parses "#rrggbb" or "#rrggbbaa".
func ParseColor(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	var c Color
	switch len(s) {
	case 6:
		if _, err := fmt.Sscanf(s, "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
			return Color{}, fmt.Errorf("%w: colour %q", ErrInvalidDocument, s)
		}
		c.A = 0xff
	case 8:
		if _, err := fmt.Sscanf(s, "%02x%02x%02x%02x", &c.R, &c.G, &c.B, &c.A); err != nil {
			return Color{}, fmt.Errorf("%w: colour %q", ErrInvalidDocument, s)
		}
	default:
		return Color{}, fmt.Errorf("%w: colour %q", ErrInvalidDocument, s)
	}
	return c, nil
}

func (c Color) String() string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// MarshalJSON implements json.Marshaler.
func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Color) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: colour: %w", ErrInvalidDocument, err)
	}
	parsed, err := ParseColor(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Stroke is one pen stroke.
type Stroke struct {
	Points []Point `json:"points"`
	Width  float64 `json:"width,omitempty"`
	Color  *Color  `json:"color,omitempty"`
}

// PenWidth returns the stroke width, falling back to DefaultPenWidth.
func (s Stroke) PenWidth() float64 {
	if s.Width > 0 {
		return s.Width
	}
	return DefaultPenWidth
}

// PenColor returns the stroke colour, falling back to black.
func (s Stroke) PenColor() Color {
	if s.Color != nil {
		return *s.Color
	}
	return Black
}

// Bounds returns the area the stroke covers, including half the pen width
// on every side. A stroke without points has empty bounds.
func (s Stroke) Bounds() surface.Rect {
	if len(s.Points) == 0 {
		return surface.Rect{}
	}
	r := surface.Rect{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
	for _, p := range s.Points {
		r.MinX = math.Min(r.MinX, p.X)
		r.MinY = math.Min(r.MinY, p.Y)
		r.MaxX = math.Max(r.MaxX, p.X)
		r.MaxY = math.Max(r.MaxY, p.Y)
	}
	half := s.PenWidth() / 2
	r.MinX -= half
	r.MinY -= half
	r.MaxX += half
	r.MaxY += half
	return r
}

// Viewport is the visible part of the surface, in surface coordinates.
type Viewport struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Empty reports whether the viewport has no area.
func (v Viewport) Empty() bool {
	return v.Width <= 0 || v.Height <= 0
}

// Rect returns the viewport as a surface rectangle.
func (v Viewport) Rect() surface.Rect {
	return surface.Rect{MinX: v.X, MinY: v.Y, MaxX: v.X + v.Width, MaxY: v.Y + v.Height}
}

// CenteredViewport returns a viewport of the given size centred on a surface.
func CenteredViewport(s surface.Size, width, height float64) Viewport {
	return Viewport{
		X:      math.Max(0, (s.W-width)/2),
		Y:      math.Max(0, (s.H-height)/2),
		Width:  width,
		Height: height,
	}
}

// Document is the drawing on the surface.
type Document struct {
	Strokes    []Stroke  `json:"strokes"`
	Viewport   *Viewport `json:"viewport,omitempty"`
	Background *Color    `json:"background,omitempty"`
}

// ContentBounds returns the union of all stroke bounds.
func (d Document) ContentBounds() surface.Rect {
	var r surface.Rect
	for _, s := range d.Strokes {
		r = r.Union(s.Bounds())
	}
	return r
}

// BackgroundColor returns the background colour, falling back to white.
func (d Document) BackgroundColor() Color {
	if d.Background != nil {
		return *d.Background
	}
	return White
}

// Validate checks the document for values the renderer cannot use.
func (d Document) Validate() error {
	for i, s := range d.Strokes {
		if s.Width < 0 {
			return fmt.Errorf("%w: stroke %d has negative width", ErrInvalidDocument, i)
		}
		for _, p := range s.Points {
			if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
				return fmt.Errorf("%w: stroke %d has a non-finite point", ErrInvalidDocument, i)
			}
		}
	}
	if d.Viewport != nil && d.Viewport.Empty() {
		return fmt.Errorf("%w: viewport has no area", ErrInvalidDocument)
	}
	return nil
}

// ParseDocument decodes and validates a JSON document.
func ParseDocument(data []byte) (Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if err := d.Validate(); err != nil {
		return Document{}, err
	}
	return d, nil
}
