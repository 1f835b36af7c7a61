package render

import "image/color"

// Point is a position in surface coordinates.
type Point struct {
	X, Y float64
}

// Stroke is a polyline drawn with a round pen.
type Stroke struct {
	Points []Point
	Width  float64
	Color  color.Color
}

// Scene is an immutable snapshot of what is drawn on the surface.
type Scene struct {
	Background color.Color
	Strokes    []Stroke
}

// Source provides the scene to render. Implementations must return a
// snapshot that is not mutated afterwards.
type Source interface {
	Scene() Scene
}

// SourceFunc adapts a function to Source.
type SourceFunc func() Scene

// Scene implements Source.
func (f SourceFunc) Scene() Scene { return f() }
