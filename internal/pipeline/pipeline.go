// Package pipeline wires capture, classification, aggregation and the
// overlay compositor together on a single dispatch loop.
//
// The capture handler only classifies and posts. Every aggregator and
// compositor mutation, including the aging tick, runs on the loop
// goroutine.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"pressviz/internal/aggregator"
	"pressviz/internal/capture"
	"pressviz/internal/classifier"
	"pressviz/internal/config"
	"pressviz/internal/dispatch"
	"pressviz/internal/logging"
	"pressviz/internal/metrics"
	"pressviz/internal/overlay"
	"pressviz/internal/screen"
)

// SessionFactory creates the capture session for a handler.
type SessionFactory func(h capture.Handler, opts capture.Options) capture.Session

// Options configure a Pipeline.
type Options struct {
	// NewSession defaults to capture.New.
	NewSession SessionFactory
	// Surfaces creates the overlay surfaces. Defaults to in-memory
	// recorders.
	Surfaces overlay.Factory
	// Displays reports the topology at Start. Defaults to a single
	// display.
	Displays screen.Provider
	// Cursor is consulted before the pointer position tracked from the
	// input stream.
	Cursor screen.CursorSource
	// Metrics defaults to a private registry.
	Metrics *metrics.PipelineMetrics

	KeyDwell     time.Duration
	ClickExpiry  time.Duration
	TickInterval time.Duration
	Clock        func() time.Time
	Logger       *logging.Logger
}

func (o *Options) defaults() {
	if o.NewSession == nil {
		o.NewSession = capture.New
	}
	if o.Surfaces == nil {
		o.Surfaces, _ = overlay.RecorderFactory(1)
	}
	if o.Displays == nil {
		o.Displays = screen.Static{}
	}
	if o.KeyDwell <= 0 {
		o.KeyDwell = aggregator.DefaultKeyDwell
	}
	if o.ClickExpiry <= 0 {
		o.ClickExpiry = aggregator.DefaultClickExpiry
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.Logger == nil {
		o.Logger = logging.Discard()
	}
	if o.Metrics == nil {
		o.Metrics = metrics.NewPipelineMetrics(nil)
	}
}

// Pipeline is the running visualizer core.
type Pipeline struct {
	opts    Options
	logger  *logging.Logger
	metrics *metrics.PipelineMetrics

	resolver   *screen.Resolver
	agg        *aggregator.Aggregator
	compositor *overlay.Compositor
	loop       *dispatch.Loop
	session    capture.Session
	tracked    *screen.TrackedCursor
	cursor     screen.CursorSource

	enabled atomic.Bool
	dirty   atomic.Bool

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New builds a stopped pipeline. Visualization is enabled by default.
func New(opts Options) *Pipeline {
	opts.defaults()
	p := &Pipeline{
		opts:     opts,
		logger:   opts.Logger.WithComponent("pipeline"),
		metrics:  opts.Metrics,
		resolver: screen.NewResolver(nil),
		tracked:  &screen.TrackedCursor{},
	}
	p.cursor = screen.Cursors{opts.Cursor, p.tracked}
	p.enabled.Store(true)

	p.agg = aggregator.New(aggregator.Options{
		KeyDwell:    opts.KeyDwell,
		ClickExpiry: opts.ClickExpiry,
		Clock:       opts.Clock,
		Locate:      p.resolver.Locate,
	})
	p.agg.OnChange(func() { p.dirty.Store(true) })

	p.compositor = overlay.New(p.resolver, opts.Surfaces, opts.Logger)
	p.loop = dispatch.NewLoop(dispatch.Options{
		TickInterval: opts.TickInterval,
		OnTick:       p.tick,
		Clock:        opts.Clock,
		Logger:       opts.Logger,
	})
	p.session = opts.NewSession(p.handle, capture.Options{
		Logger: opts.Logger,
		Bounds: p.captureBounds,
		Clock:  opts.Clock,
	})
	return p
}

func (p *Pipeline) captureBounds() capture.Bounds {
	r := p.resolver.CaptureBounds()
	return capture.Bounds{MinX: r.X, MinY: r.Y, MaxX: r.X + r.W, MaxY: r.Y + r.H}
}

// Start queries the topology, opens the surfaces, starts the loop and, if
// enabled, installs the capture session. Starting a running pipeline does
// nothing. When capture cannot start the pipeline is torn down and the
// error, which wraps capture.ErrPermissionDenied or
// capture.ErrNotAvailable, is returned.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}

	topo, err := p.opts.Displays.Displays(ctx)
	if err != nil {
		p.logger.Warn("display query failed, using primary fallback", "error", err)
	}
	p.compositor.SetTopology(topo)

	if err := p.compositor.Open(ctx); err != nil {
		return fmt.Errorf("open overlay: %w", err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := p.loop.Run(loopCtx); err != nil {
			p.logger.Error("dispatch loop", "error", err)
		}
	}()

	if p.enabled.Load() {
		if err := p.session.Start(ctx); err != nil {
			cancel()
			<-done
			_ = p.compositor.Close()
			return fmt.Errorf("start capture: %w", err)
		}
	}

	p.cancel, p.done = cancel, done
	p.running = true
	p.logger.Info("pipeline started",
		"enabled", p.enabled.Load(),
		"displays", len(p.resolver.Topology()),
		"tick", p.loop.TickInterval())
	return nil
}

// Stop removes the capture session first, then stops the loop, clears all
// state and closes the surfaces. Stopping a stopped pipeline does nothing.
func (p *Pipeline) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return nil
	}
	p.running = false

	var errs []error
	if err := p.session.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop capture: %w", err))
	}

	p.cancel()
	<-p.done
	p.cancel, p.done = nil, nil

	p.agg.ClearAll()
	p.dirty.Store(false)
	if err := p.compositor.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close overlay: %w", err))
	}

	stats := p.session.Stats()
	p.logger.Info("pipeline stopped",
		"delivered", stats.Delivered,
		"dropped", stats.Dropped,
		"processed", p.loop.Processed())
	return errors.Join(errs...)
}

// Running reports whether the pipeline is started.
func (p *Pipeline) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// SetEnabled turns visualization on or off. Disabling removes the capture
// session and clears everything on screen; enabling reinstalls it when the
// pipeline is running.
func (p *Pipeline) SetEnabled(on bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.enabled.Swap(on) == on {
		return nil
	}
	p.logger.Info("visualization toggled", "enabled", on)

	if !on {
		p.post(p.agg.ClearAll)
		if p.running {
			return p.session.Stop()
		}
		return nil
	}
	if p.running {
		if err := p.session.Start(context.Background()); err != nil {
			p.enabled.Store(false)
			return fmt.Errorf("start capture: %w", err)
		}
	}
	return nil
}

// Enabled reports whether visualization is on.
func (p *Pipeline) Enabled() bool {
	return p.enabled.Load()
}

// ApplyPreferences applies display mode, position, click effects and the
// enabled flag.
func (p *Pipeline) ApplyPreferences(prefs config.Preferences) error {
	p.post(func() {
		p.agg.SetMode(prefs.Mode)
		p.agg.SetPosition(prefs.Position)
		p.agg.SetClickEffects(prefs.ClickEffects)
	})
	return p.SetEnabled(prefs.Enabled)
}

// Apply applies a whole configuration. Key dwell and click expiry are
// fixed at construction; a change is logged and takes effect on restart.
func (p *Pipeline) Apply(cfg *config.Config) error {
	p.loop.SetTickInterval(cfg.TickInterval())
	if len(cfg.Displays) > 0 {
		p.SetTopology(cfg.Topology())
	}
	if cfg.KeyDwell() != p.opts.KeyDwell || cfg.ClickExpiry() != p.opts.ClickExpiry {
		p.logger.Info("timing change needs restart",
			"key_dwell", cfg.KeyDwell(),
			"click_expiry", cfg.ClickExpiry())
	}
	return p.ApplyPreferences(cfg.Preferences)
}

// SetTopology replaces the display topology on the loop.
func (p *Pipeline) SetTopology(t screen.Topology) {
	p.post(func() { p.compositor.SetTopology(t) })
}

// RefreshTopology re-queries the display provider.
func (p *Pipeline) RefreshTopology(ctx context.Context) error {
	t, err := p.opts.Displays.Displays(ctx)
	if err != nil {
		return fmt.Errorf("query displays: %w", err)
	}
	p.SetTopology(t)
	return nil
}

// IsPressing reports whether a key or modifier is held.
func (p *Pipeline) IsPressing() bool {
	return p.agg.IsPressing()
}

// Topology returns the display topology currently in use.
func (p *Pipeline) Topology() screen.Topology {
	return p.resolver.Topology()
}

// Snapshot returns the current overlay state.
func (p *Pipeline) Snapshot() aggregator.Snapshot {
	return p.agg.Snapshot()
}

// Compositor returns the overlay compositor.
func (p *Pipeline) Compositor() *overlay.Compositor {
	return p.compositor
}

// Metrics returns the pipeline metrics.
func (p *Pipeline) Metrics() *metrics.PipelineMetrics {
	return p.metrics
}

// Session returns the capture session.
func (p *Pipeline) Session() capture.Session {
	return p.session
}

// Sync waits until everything posted so far has run.
func (p *Pipeline) Sync(ctx context.Context) error {
	return p.loop.Call(ctx, func() {})
}

// handle runs on the capture delivery thread.
func (p *Pipeline) handle(raw capture.RawEvent) {
	if !p.enabled.Load() {
		return
	}
	switch raw.Type {
	case capture.MouseDown, capture.MouseUp, capture.MouseDragged, capture.MouseMoved:
		p.tracked.Update(screen.Point{X: raw.X, Y: raw.Y})
	}
	ev, ok := classifier.Classify(raw)
	if !ok {
		p.metrics.Ignored.Inc()
		return
	}
	p.post(func() { p.apply(ev) })
}

// post runs fn on the loop and renders if it changed anything.
func (p *Pipeline) post(fn func()) {
	p.loop.Post(func() {
		fn()
		p.flush()
	})
	p.metrics.QueueDepth.Set(int64(p.loop.Queue().Len()))
}

func (p *Pipeline) apply(ev classifier.Event) {
	if !p.enabled.Load() {
		return
	}
	p.metrics.Event(ev.Kind.String(), ev.Timestamp, p.opts.Clock())
	if ev.Kind == classifier.PointerDown || ev.Kind == classifier.PointerDrag {
		d, _ := p.resolver.Locate(screen.Point{X: ev.X, Y: ev.Y})
		p.compositor.PointerAt(d.ID)
	}
	if !p.agg.HandleEvent(ev) {
		return
	}
	if ev.Kind == classifier.KeyPress || ev.Kind == classifier.ModifierChange {
		if cur, ok := p.cursor.CursorLocation(); ok {
			p.compositor.KeyShown(cur)
		}
	}
}

func (p *Pipeline) tick(now time.Time) {
	p.agg.Tick(now)
	p.metrics.Ticks.Inc()
	p.flush()
}

func (p *Pipeline) flush() {
	if p.dirty.Swap(false) {
		snap := p.agg.Snapshot()
		p.compositor.Render(snap)
		p.metrics.Rendered(snap.Key.Visible, len(snap.Markers))
	}
}
