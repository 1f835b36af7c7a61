package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"golang.org/x/image/vector"
)

// DefaultMaxPixels bounds the size of a single rendered image.
const DefaultMaxPixels = 64 << 20

// capSegments is the polygon resolution of round caps and joins.
const capSegments = 16

var (
	// ErrEmptyRegion is returned when the region has no area.
	ErrEmptyRegion = errors.New("render: empty region")

	// ErrRegionTooLarge is returned when the region exceeds the pixel limit.
	ErrRegionTooLarge = errors.New("render: region too large")
)

// Option configures a PNGRenderer.
type Option func(*PNGRenderer)

// WithMaxPixels sets the pixel limit. Zero keeps the default.
func WithMaxPixels(n int) Option {
	return func(r *PNGRenderer) {
		if n > 0 {
			r.maxPixels = n
		}
	}
}

// WithCompression sets the PNG compression level.
func WithCompression(level png.CompressionLevel) Option {
	return func(r *PNGRenderer) { r.encoder.CompressionLevel = level }
}

// PNGRenderer renders a Source to PNG.
type PNGRenderer struct {
	src       Source
	maxPixels int
	encoder   png.Encoder
}

// NewPNGRenderer creates a renderer for src.
func NewPNGRenderer(src Source, opts ...Option) *PNGRenderer {
	r := &PNGRenderer{
		src:       src,
		maxPixels: DefaultMaxPixels,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render draws the region of the scene into a region.Dx() x region.Dy()
// image and returns it PNG-encoded.
func (r *PNGRenderer) Render(ctx context.Context, region image.Rectangle) ([]byte, error) {
	img, err := r.Rasterize(ctx, region)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := r.encoder.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("render: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Rasterize draws the region of the scene into a new RGBA image whose
// bounds start at the origin.
func (r *PNGRenderer) Rasterize(ctx context.Context, region image.Rectangle) (*image.RGBA, error) {
	w, h := region.Dx(), region.Dy()
	if w <= 0 || h <= 0 {
		return nil, ErrEmptyRegion
	}
	if w*h > r.maxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrRegionTooLarge, w, h)
	}

	scene := r.src.Scene()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))

	bg := scene.Background
	if bg == nil {
		bg = color.White
	}
	draw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	ox, oy := float64(region.Min.X), float64(region.Min.Y)
	view := rect{0, 0, float64(w), float64(h)}

	var z *vector.Rasterizer
	var pending color.Color
	flush := func() {
		if z != nil && pending != nil {
			z.Draw(dst, dst.Bounds(), image.NewUniform(pending), image.Point{})
		}
		pending = nil
	}

	for _, s := range scene.Strokes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(s.Points) == 0 {
			continue
		}
		hw := s.Width / 2
		if hw <= 0 {
			continue
		}
		if !strokeRect(s, ox, oy).grow(hw).overlaps(view) {
			continue
		}

		c := s.Color
		if c == nil {
			c = color.Black
		}
		if pending == nil || !sameColor(pending, c) {
			flush()
			if z == nil {
				z = vector.NewRasterizer(w, h)
			} else {
				z.Reset(w, h)
			}
			z.DrawOp = draw.Over
			pending = c
		}
		addStroke(z, s, ox, oy, hw)
	}
	flush()

	return dst, nil
}

// addStroke adds the outline of s to z. Every sub-path is wound the same
// way so overlapping pieces accumulate instead of cancelling.
func addStroke(z *vector.Rasterizer, s Stroke, ox, oy, hw float64) {
	prev := s.Points[0]
	addDisc(z, prev.X-ox, prev.Y-oy, hw)

	for _, p := range s.Points[1:] {
		dx, dy := p.X-prev.X, p.Y-prev.Y
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		nx, ny := -dy/l*hw, dx/l*hw

		x0, y0 := prev.X-ox, prev.Y-oy
		x1, y1 := p.X-ox, p.Y-oy
		z.MoveTo(float32(x0+nx), float32(y0+ny))
		z.LineTo(float32(x1+nx), float32(y1+ny))
		z.LineTo(float32(x1-nx), float32(y1-ny))
		z.LineTo(float32(x0-nx), float32(y0-ny))
		z.ClosePath()

		addDisc(z, x1, y1, hw)
		prev = p
	}
}

// addDisc adds a polygonal disc wound in the same direction as the
// segment quads of addStroke.
func addDisc(z *vector.Rasterizer, cx, cy, r float64) {
	for i := 0; i <= capSegments; i++ {
		a := -2 * math.Pi * float64(i) / capSegments
		x := float32(cx + r*math.Cos(a))
		y := float32(cy + r*math.Sin(a))
		if i == 0 {
			z.MoveTo(x, y)
			continue
		}
		z.LineTo(x, y)
	}
	z.ClosePath()
}

func sameColor(a, b color.Color) bool {
	ar, ag, ab, aa := a.RGBA()
	br, bg, bb, ba := b.RGBA()
	return ar == br && ag == bg && ab == bb && aa == ba
}

type rect struct {
	minX, minY, maxX, maxY float64
}

func strokeRect(s Stroke, ox, oy float64) rect {
	r := rect{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
	for _, p := range s.Points {
		r.minX = math.Min(r.minX, p.X-ox)
		r.minY = math.Min(r.minY, p.Y-oy)
		r.maxX = math.Max(r.maxX, p.X-ox)
		r.maxY = math.Max(r.maxY, p.Y-oy)
	}
	return r
}

func (r rect) grow(d float64) rect {
	return rect{r.minX - d, r.minY - d, r.maxX + d, r.maxY + d}
}

func (r rect) overlaps(o rect) bool {
	return r.minX < o.maxX && o.minX < r.maxX && r.minY < o.maxY && o.minY < r.maxY
}
