package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bft-labs/canvasship/internal/canvas"
	"github.com/bft-labs/canvasship/internal/clock"
	"github.com/bft-labs/canvasship/internal/domain"
	"github.com/bft-labs/canvasship/internal/ports"
	"github.com/bft-labs/canvasship/pkg/capture"
	"github.com/bft-labs/canvasship/pkg/log"
	"github.com/bft-labs/canvasship/pkg/render"
	"github.com/bft-labs/canvasship/pkg/surface"
)

// AgentConfig contains configuration for the capture agent.
type AgentConfig struct {
	Quiet       time.Duration
	GrowMargin  float64
	MaxExtent   float64
	InitialSize surface.Size

	// Viewport overrides the document viewport when non-empty
	Viewport       domain.Viewport
	ViewportWidth  float64
	ViewportHeight float64

	Upload capture.UploaderConfig
	Once   bool
}

// CaptureEventEmitter is called after every capture cycle.
type CaptureEventEmitter interface {
	OnCapture(res capture.Result)
}

// AgentStatus is a snapshot of the capture side.
type AgentStatus struct {
	Surface         surface.Size    `json:"surface"`
	Viewport        domain.Viewport `json:"viewport"`
	DocumentVersion uint64          `json:"document_version"`
	Pipeline        capture.Stats   `json:"pipeline"`
	State           domain.State    `json:"state"`
}

// AgentOption configures an Agent.
type AgentOption func(*Agent)

// WithAgentClock replaces the clock used by the debouncer.
func WithAgentClock(c clock.Clock) AgentOption {
	return func(a *Agent) { a.clock = c }
}

// WithRenderer replaces the PNG renderer.
func WithRenderer(r capture.Renderer) AgentOption {
	return func(a *Agent) { a.renderer = r }
}

// Agent watches the surface document and drives capture cycles.
type Agent struct {
	config    AgentConfig
	docs      ports.DocumentSource
	stateRepo ports.StateRepository
	logger    log.Logger
	emitter   CaptureEventEmitter
	clock     clock.Clock
	renderer  capture.Renderer

	canvas   *canvas.Canvas
	tracker  *surface.Tracker
	pipeline *capture.Pipeline

	mu    sync.Mutex
	state domain.State
}

// NewAgent creates a new agent with the given dependencies.
func NewAgent(
	config AgentConfig,
	docs ports.DocumentSource,
	stateRepo ports.StateRepository,
	httpClient capture.HTTPClient,
	logger log.Logger,
	emitter CaptureEventEmitter,
	opts ...AgentOption,
) *Agent {
	if config.InitialSize.W <= 0 || config.InitialSize.H <= 0 {
		config.InitialSize = surface.Size{W: surface.DefaultInitialExtent, H: surface.DefaultInitialExtent}
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	a := &Agent{
		config:    config,
		docs:      docs,
		stateRepo: stateRepo,
		logger:    log.OrNoop(logger),
		emitter:   emitter,
		clock:     clock.Real(),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.canvas = canvas.New(canvas.Config{
		Size:           config.InitialSize,
		Viewport:       config.Viewport,
		ViewportWidth:  config.ViewportWidth,
		ViewportHeight: config.ViewportHeight,
	})
	a.tracker = surface.NewTracker(config.InitialSize, config.GrowMargin, config.MaxExtent)
	if a.renderer == nil {
		a.renderer = render.NewPNGRenderer(a.canvas)
	}

	uploader := capture.NewUploader(httpClient, config.Upload, a.logger)
	a.pipeline = capture.NewPipeline(a.canvas, a.tracker, a.renderer, uploader,
		capture.WithQuiet(config.Quiet),
		capture.WithClock(a.clock),
		capture.WithLogger(a.logger),
		capture.WithResultHandler(capture.ResultHandlerFunc(a.onResult)),
	)
	return a
}

// Run restores state and then either captures once or watches the document
// until ctx is cancelled.
func (a *Agent) Run(ctx context.Context) error {
	a.restore(ctx)

	if a.config.Once {
		return a.runOnce(ctx)
	}

	err := a.docs.Watch(ctx, a.onDocument)

	closeCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if cerr := a.pipeline.Close(closeCtx); cerr != nil {
		a.logger.Warn("capture pipeline did not stop in time", log.Err(cerr))
	}
	a.persist(context.Background())

	if err != nil {
		return fmt.Errorf("watch document: %w", err)
	}
	return nil
}

// Status returns a snapshot of the capture side.
func (a *Agent) Status() AgentStatus {
	a.mu.Lock()
	st := a.state
	a.mu.Unlock()

	return AgentStatus{
		Surface:         a.canvas.Size(),
		Viewport:        a.canvas.Viewport(),
		DocumentVersion: a.canvas.Version(),
		Pipeline:        a.pipeline.Stats(),
		State:           st,
	}
}

func (a *Agent) runOnce(ctx context.Context) error {
	defer a.pipeline.Close(context.Background())

	doc, err := a.docs.Load(ctx)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	ev := a.canvas.SetDocument(doc, a.clock.Now())
	if d := a.tracker.Apply(ev.Bounds); d.Kind == surface.Grow {
		a.canvas.SetContentSize(d.Size)
	}

	res, err := a.pipeline.Capture(ctx)
	if err != nil {
		return err
	}
	if !res.Success {
		return res.Err
	}
	return nil
}

func (a *Agent) onDocument(doc domain.Document, at time.Time) {
	ev := a.canvas.SetDocument(doc, at)
	a.pipeline.OnChange(ev)
}

func (a *Agent) restore(ctx context.Context) {
	st, err := a.stateRepo.Load(ctx)
	if err != nil {
		a.logger.Error("failed to load state", log.Err(err))
		return
	}

	a.mu.Lock()
	a.state = st
	a.mu.Unlock()

	if st.SurfaceWidth > 0 && st.SurfaceHeight > 0 {
		size := a.tracker.Restore(surface.Size{W: st.SurfaceWidth, H: st.SurfaceHeight})
		a.canvas.SetContentSize(size)
		a.logger.Info("restored surface size",
			log.Float64("width", size.W),
			log.Float64("height", size.H),
		)
	}
}

func (a *Agent) onResult(res capture.Result) {
	a.mu.Lock()
	a.state.LastCaptureAt = res.At
	a.state.LastStatusCode = res.StatusCode
	if res.Success {
		a.state.Captures++
		a.state.LastError = ""
	} else {
		a.state.Failures++
		if res.Err != nil {
			a.state.LastError = res.Err.Error()
		}
	}
	a.mu.Unlock()

	a.persist(context.Background())

	if a.emitter != nil {
		a.emitter.OnCapture(res)
	}
}

func (a *Agent) persist(ctx context.Context) {
	size := a.tracker.Size()

	a.mu.Lock()
	a.state.SurfaceWidth = size.W
	a.state.SurfaceHeight = size.H
	st := a.state
	a.mu.Unlock()

	if err := a.stateRepo.Save(ctx, st); err != nil {
		a.logger.Error("failed to save state", log.Err(err))
	}
}
