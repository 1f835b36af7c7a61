package capture

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/bft-labs/canvasship/internal/clock"
	"github.com/bft-labs/canvasship/pkg/debounce"
	"github.com/bft-labs/canvasship/pkg/log"
	"github.com/bft-labs/canvasship/pkg/surface"
)

// ChangeEvent reports that drawn content changed.
type ChangeEvent struct {
	// Bounds is the bounding box of all drawn content
	Bounds surface.Rect

	// At is when the change happened
	At time.Time
}

// Surface is the drawable surface the pipeline captures.
type Surface interface {
	// VisibleRegion returns the region to render, in surface coordinates.
	VisibleRegion() image.Rectangle

	// SetContentSize resizes the logical surface after the tracker grew it.
	SetContentSize(size surface.Size)
}

// Renderer produces an encoded image of a region of the surface.
type Renderer interface {
	Render(ctx context.Context, region image.Rectangle) ([]byte, error)
}

// BoundsTracker decides surface growth. *surface.Tracker satisfies it.
type BoundsTracker interface {
	Apply(box surface.Rect) surface.Decision
}

// Stats counts pipeline activity.
type Stats struct {
	Changes    uint64 `json:"changes"`
	Cycles     uint64 `json:"cycles"`
	Successes  uint64 `json:"successes"`
	Failures   uint64 `json:"failures"`
	Coalesced  uint64 `json:"coalesced"`
	Grows      uint64 `json:"grows"`
	LimitHits  uint64 `json:"limit_hits"`
	InFlight   bool   `json:"in_flight"`
	LastResult string `json:"last_result,omitempty"`
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithQuiet sets the debounce quiet period. Default: 1s
func WithQuiet(d time.Duration) PipelineOption {
	return func(p *Pipeline) { p.quiet = d }
}

// WithClock replaces the real clock, mainly for tests.
func WithClock(c clock.Clock) PipelineOption {
	return func(p *Pipeline) { p.clock = c }
}

// WithLogger sets the logger. Default: no-op.
func WithLogger(l log.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = log.OrNoop(l) }
}

// WithResultHandler registers the handler for cycle outcomes.
func WithResultHandler(h ResultHandler) PipelineOption {
	return func(p *Pipeline) { p.handler = h }
}

// Pipeline wires change events through the bounds tracker and debouncer
// into render and upload cycles.
type Pipeline struct {
	surface  Surface
	tracker  BoundsTracker
	renderer Renderer
	uploader ImageUploader

	quiet   time.Duration
	clock   clock.Clock
	logger  log.Logger
	handler ResultHandler

	debouncer *debounce.Debouncer
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	// growMu keeps each tracker decision and its surface resize together.
	growMu sync.Mutex

	mu      sync.Mutex
	busy    bool
	pending bool
	closed  bool
	stats   Stats
}

// NewPipeline creates a Pipeline. It does nothing until OnChange is called.
func NewPipeline(s Surface, tracker BoundsTracker, renderer Renderer, uploader ImageUploader, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		surface:  s,
		tracker:  tracker,
		renderer: renderer,
		uploader: uploader,
		quiet:    debounce.DefaultQuiet,
		clock:    clock.Real(),
		logger:   log.NoopLogger{},
		handler:  ResultHandlerFunc(func(Result) {}),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.debouncer = debounce.New(p.quiet, p.fire, debounce.WithClock(p.clock))
	return p
}

// OnChange applies the content bounds to the tracker, resizes the surface if
// it grew, and (re)starts the debounce timer. It never blocks on I/O and is
// safe for concurrent use; resizes reach the surface in growth order.
func (p *Pipeline) OnChange(ev ChangeEvent) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.stats.Changes++
	p.mu.Unlock()

	p.growMu.Lock()
	d := p.tracker.Apply(ev.Bounds)
	if d.Kind == surface.Grow {
		p.surface.SetContentSize(d.Size)
	}
	p.growMu.Unlock()

	switch d.Kind {
	case surface.Grow:
		p.countGrow(false)
		p.logger.Info("surface grown",
			log.Float64("width", d.Size.W),
			log.Float64("height", d.Size.H),
		)
	case surface.AtLimit:
		p.countGrow(true)
		p.logger.Warn("surface at size limit",
			log.Float64("requested_width", d.Requested.W),
			log.Float64("requested_height", d.Requested.H),
		)
	}

	p.debouncer.Signal()
}

// Pending reports whether a debounce fire is scheduled.
func (p *Pipeline) Pending() bool {
	return p.debouncer.Pending()
}

// Stats returns a snapshot of the pipeline counters.
func (p *Pipeline) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.stats
	s.InFlight = p.busy
	return s
}

// Capture runs one cycle synchronously, bypassing the debouncer. It returns
// ErrBusy if a cycle is already in flight.
func (p *Pipeline) Capture(ctx context.Context) (Result, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return Result{}, ErrClosed
	}
	if p.busy {
		p.mu.Unlock()
		return Result{}, ErrBusy
	}
	p.busy = true
	p.wg.Add(1)
	p.mu.Unlock()

	defer p.wg.Done()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(p.ctx, cancel)
	defer stop()

	res := p.cycle(ctx)
	p.handler.OnResult(res)

	p.mu.Lock()
	p.busy = false
	rerun := p.pending && !p.closed
	if rerun {
		p.pending = false
		p.busy = true
		p.wg.Add(1)
	}
	p.mu.Unlock()

	if rerun {
		go p.worker()
	}
	return res, nil
}

// Close stops the debouncer, cancels an in-flight cycle and waits for it to
// finish or for ctx to expire.
func (p *Pipeline) Close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.pending = false
	p.mu.Unlock()

	p.debouncer.Stop()
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// fire is the debounce callback.
func (p *Pipeline) fire() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	if p.busy {
		if p.pending {
			p.stats.Coalesced++
		}
		p.pending = true
		p.mu.Unlock()
		p.logger.Debug("capture in flight, follow-up queued")
		return
	}
	p.busy = true
	p.wg.Add(1)
	p.mu.Unlock()

	go p.worker()
}

// worker runs cycles until no follow-up is pending.
func (p *Pipeline) worker() {
	defer p.wg.Done()

	for {
		res := p.cycle(p.ctx)
		p.handler.OnResult(res)

		p.mu.Lock()
		if p.pending && !p.closed {
			p.pending = false
			p.mu.Unlock()
			continue
		}
		p.busy = false
		p.mu.Unlock()
		return
	}
}

func (p *Pipeline) cycle(ctx context.Context) Result {
	start := p.clock.Now()
	region := p.surface.VisibleRegion()

	res := p.renderAndUpload(ctx, region)
	res.Region = region
	res.At = p.clock.Now()
	res.Duration = res.At.Sub(start)

	p.mu.Lock()
	p.stats.Cycles++
	if res.Success {
		p.stats.Successes++
		p.stats.LastResult = "ok"
	} else {
		p.stats.Failures++
		if res.Err != nil {
			p.stats.LastResult = res.Err.Error()
		}
	}
	p.mu.Unlock()

	if !res.Success {
		p.logger.Warn("capture cycle failed",
			log.String("region", region.String()),
			log.Int("status", res.StatusCode),
			log.Err(res.Err),
		)
	}
	return res
}

func (p *Pipeline) renderAndUpload(ctx context.Context, region image.Rectangle) Result {
	img, err := p.renderer.Render(ctx, region)
	switch {
	case err != nil:
		return Result{Err: fmt.Errorf("%w: %w", ErrRenderFailure, err)}
	case len(img) == 0:
		return Result{Err: fmt.Errorf("%w: encoder produced no data", ErrRenderFailure)}
	}

	p.logger.Debug("snapshot rendered",
		log.String("region", region.String()),
		log.Int("bytes", len(img)),
	)
	return p.uploader.Upload(ctx, img)
}

func (p *Pipeline) countGrow(limit bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if limit {
		p.stats.LimitHits++
	} else {
		p.stats.Grows++
	}
}
