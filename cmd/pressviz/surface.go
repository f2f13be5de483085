package main

import (
	"slices"
	"sync"
	"time"

	"gioui.org/app"
	"gioui.org/io/system"
	"gioui.org/op"
	"gioui.org/unit"

	"pressviz/cmd/pressviz/internal/theme"
	"pressviz/cmd/pressviz/internal/ui"
	"pressviz/internal/aggregator"
	"pressviz/internal/logging"
	"pressviz/internal/overlay"
	"pressviz/internal/screen"
)

// gioSurface is an undecorated gio window covering one display. The
// platform window behind it is made click-through, kept above other
// windows on every desktop, and clipped to what is drawn.
type gioSurface struct {
	kind     overlay.Kind
	opts     overlay.SurfaceOptions
	win      *app.Window
	draw     *ui.Overlay
	native   *nativeWindow
	topology func() screen.Topology
	logger   *logging.Logger

	mu      sync.Mutex
	snap    aggregator.Snapshot
	display screen.Display
	placed  bool
	closed  bool
	done    chan struct{}
}

// newGioFactory returns a factory creating gio windows. topology reports
// the display layout the surfaces are positioned in.
func newGioFactory(t *theme.Theme, topology func() screen.Topology, logger *logging.Logger) overlay.Factory {
	return func(kind overlay.Kind, opts overlay.SurfaceOptions) (overlay.Surface, error) {
		s := &gioSurface{
			kind:     kind,
			opts:     opts,
			win:      new(app.Window),
			draw:     ui.NewOverlay(t, kind),
			native:   newNativeWindow(logger),
			topology: topology,
			logger:   logger.WithComponent("surface-" + kind.String()),
			done:     make(chan struct{}),
		}
		s.win.Option(
			app.Title("pressviz "+kind.String()),
			app.Decorated(!opts.Borderless),
		)
		go s.loop()
		return s, nil
	}
}

func (s *gioSurface) Kind() overlay.Kind { return s.kind }

// MoveTo covers d. Until the platform window exists the display is only
// remembered and applied when the view arrives.
func (s *gioSurface) MoveTo(d screen.Display) error {
	s.mu.Lock()
	s.display, s.placed = d, true
	s.mu.Unlock()

	s.place(d)
	s.logger.Debug("surface moved", "display", d.String())
	return nil
}

func (s *gioSurface) place(d screen.Display) {
	if s.native.attached() {
		s.native.place(s.topology(), d)
		return
	}
	s.win.Option(app.Size(unit.Dp(d.Frame.W), unit.Dp(d.Frame.H)))
}

func (s *gioSurface) Render(snap aggregator.Snapshot) {
	s.mu.Lock()
	s.snap = snap
	closed := s.closed
	s.mu.Unlock()
	if !closed {
		s.win.Invalidate()
	}
}

func (s *gioSurface) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.win.Perform(system.ActionClose)
	select {
	case <-s.done:
	case <-time.After(time.Second):
		s.logger.Warn("surface did not close in time")
	}
	return nil
}

func (s *gioSurface) loop() {
	defer close(s.done)
	var (
		ops    op.Ops
		shapes []ui.Shape
	)
	for {
		switch e := s.win.Event().(type) {
		case app.DestroyEvent:
			if e.Err != nil {
				s.logger.Error("surface destroyed", "error", e.Err)
			}
			s.mu.Lock()
			s.closed = true
			s.mu.Unlock()
			return
		case app.ViewEvent:
			if !s.native.attach(e, s.opts) {
				continue
			}
			shapes = nil
			s.mu.Lock()
			d, placed := s.display, s.placed
			s.mu.Unlock()
			if placed {
				s.place(d)
			}
		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)
			s.mu.Lock()
			snap := s.snap
			s.mu.Unlock()

			f := s.draw.Layout(gtx, snap, e.Now)
			if f.Animating {
				gtx.Execute(op.InvalidateCmd{})
			}
			e.Frame(gtx.Ops)

			if shapes == nil || !slices.Equal(shapes, f.Shapes) {
				shapes = append(make([]ui.Shape, 0, len(f.Shapes)), f.Shapes...)
				s.native.shape(shapes, gtx.Metric.PxPerDp)
			}
		}
	}
}
