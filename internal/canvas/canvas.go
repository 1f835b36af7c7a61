// Package canvas holds the in-memory drawing surface: the current document,
// the logical surface size and the visible viewport.
//
// A Canvas is the Surface of the capture pipeline and the Source of the PNG
// renderer. Document updates and resizes may come from different goroutines
// than rendering, so every accessor takes a snapshot under the lock.
package canvas

import (
	"image"
	"image/color"
	"math"
	"sync"
	"time"

	"github.com/bft-labs/canvasship/internal/domain"
	"github.com/bft-labs/canvasship/pkg/capture"
	"github.com/bft-labs/canvasship/pkg/render"
	"github.com/bft-labs/canvasship/pkg/surface"
)

// Default viewport size when neither the document nor the config sets one.
const (
	DefaultViewportWidth  = 1024
	DefaultViewportHeight = 768
)

// Config configures a Canvas.
type Config struct {
	// Size is the initial logical surface size
	Size surface.Size

	// Viewport overrides the document viewport when non-empty
	Viewport domain.Viewport

	// ViewportWidth and ViewportHeight size the default centred viewport
	ViewportWidth  float64
	ViewportHeight float64
}

// Canvas is safe for concurrent use.
type Canvas struct {
	override domain.Viewport

	mu       sync.RWMutex
	doc      domain.Document
	size     surface.Size
	viewport domain.Viewport
	version  uint64
	updated  time.Time
}

// New creates an empty canvas with the viewport centred on the surface.
func New(cfg Config) *Canvas {
	if cfg.Size.W <= 0 || cfg.Size.H <= 0 {
		cfg.Size = surface.Size{W: surface.DefaultInitialExtent, H: surface.DefaultInitialExtent}
	}
	if cfg.ViewportWidth <= 0 {
		cfg.ViewportWidth = DefaultViewportWidth
	}
	if cfg.ViewportHeight <= 0 {
		cfg.ViewportHeight = DefaultViewportHeight
	}

	vp := cfg.Viewport
	if vp.Empty() {
		vp = domain.CenteredViewport(cfg.Size, cfg.ViewportWidth, cfg.ViewportHeight)
	}

	return &Canvas{
		override: cfg.Viewport,
		size:     cfg.Size,
		viewport: vp,
	}
}

// SetDocument replaces the document and returns the change event for it.
// A viewport in the document moves the visible region unless the config
// overrides it.
func (c *Canvas) SetDocument(doc domain.Document, at time.Time) capture.ChangeEvent {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.doc = doc
	c.version++
	c.updated = at
	if c.override.Empty() && doc.Viewport != nil && !doc.Viewport.Empty() {
		c.viewport = *doc.Viewport
	}

	return capture.ChangeEvent{Bounds: doc.ContentBounds(), At: at}
}

// Document returns the current document.
func (c *Canvas) Document() domain.Document {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.doc
}

// Version counts document replacements.
func (c *Canvas) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Size returns the logical surface size.
func (c *Canvas) Size() surface.Size {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.size
}

// Viewport returns the visible viewport in surface coordinates.
func (c *Canvas) Viewport() domain.Viewport {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.viewport
}

// SetContentSize resizes the logical surface. The viewport keeps its
// position. Implements capture.Surface.
func (c *Canvas) SetContentSize(s surface.Size) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.size = s
}

// VisibleRegion returns the viewport clipped to the surface and snapped
// outwards to whole pixels. Implements capture.Surface.
func (c *Canvas) VisibleRegion() image.Rectangle {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r := c.viewport.Rect()
	r.MinX = math.Max(r.MinX, 0)
	r.MinY = math.Max(r.MinY, 0)
	r.MaxX = math.Min(r.MaxX, c.size.W)
	r.MaxY = math.Min(r.MaxY, c.size.H)
	if r.Empty() {
		return image.Rectangle{}
	}

	return image.Rect(
		int(math.Floor(r.MinX)),
		int(math.Floor(r.MinY)),
		int(math.Ceil(r.MaxX)),
		int(math.Ceil(r.MaxY)),
	)
}

// Scene returns a render snapshot of the document. Implements render.Source.
func (c *Canvas) Scene() render.Scene {
	c.mu.RLock()
	defer c.mu.RUnlock()

	scene := render.Scene{
		Background: rgba(c.doc.BackgroundColor()),
		Strokes:    make([]render.Stroke, 0, len(c.doc.Strokes)),
	}
	for _, s := range c.doc.Strokes {
		pts := make([]render.Point, len(s.Points))
		for i, p := range s.Points {
			pts[i] = render.Point{X: p.X, Y: p.Y}
		}
		scene.Strokes = append(scene.Strokes, render.Stroke{
			Points: pts,
			Width:  s.PenWidth(),
			Color:  rgba(s.PenColor()),
		})
	}
	return scene
}

func rgba(c domain.Color) color.Color {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}
