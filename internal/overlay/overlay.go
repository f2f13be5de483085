// Package overlay positions the two overlay surfaces and feeds them
// aggregator snapshots.
//
// The compositor owns exactly one key-text surface and one click-marker
// surface. Each covers a whole display frame and is moved, never recreated,
// when the activity moves to another display. Drawing happens behind the
// Surface interface; this package only decides where and what.
package overlay

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"pressviz/internal/aggregator"
	"pressviz/internal/logging"
	"pressviz/internal/screen"
)

// Kind identifies a surface.
type Kind int

const (
	KindKeyText Kind = iota + 1
	KindClickMarkers
)

func (k Kind) String() string {
	switch k {
	case KindKeyText:
		return "keyText"
	case KindClickMarkers:
		return "clickMarkers"
	default:
		return "unknown"
	}
}

// SurfaceOptions are the window properties requested for every surface.
type SurfaceOptions struct {
	Borderless   bool
	Transparent  bool
	ClickThrough bool
	AlwaysOnTop  bool
	AllSpaces    bool // visible on every virtual desktop
}

// DefaultSurfaceOptions requests a borderless, transparent, click-through,
// topmost surface on every desktop.
func DefaultSurfaceOptions() SurfaceOptions {
	return SurfaceOptions{
		Borderless:   true,
		Transparent:  true,
		ClickThrough: true,
		AlwaysOnTop:  true,
		AllSpaces:    true,
	}
}

// Surface is a display-sized overlay window.
type Surface interface {
	Kind() Kind
	// MoveTo resizes the surface to cover d.
	MoveTo(d screen.Display) error
	// Render draws the snapshot. It must not block.
	Render(s aggregator.Snapshot)
	Close() error
}

// Factory creates a surface of the given kind.
type Factory func(kind Kind, opts SurfaceOptions) (Surface, error)

var (
	// ErrNotOpen is returned by operations that need open surfaces.
	ErrNotOpen = errors.New("overlay: compositor not open")
)

// Compositor routes snapshots to the two surfaces.
type Compositor struct {
	resolver *screen.Resolver
	factory  Factory
	opts     SurfaceOptions
	logger   *logging.Logger

	mu         sync.Mutex
	key        Surface
	click      Surface
	keyDisplay screen.Display
	clkDisplay screen.Display
	last       aggregator.Snapshot
}

// New creates a compositor. Surfaces are created by Open.
func New(resolver *screen.Resolver, factory Factory, logger *logging.Logger) *Compositor {
	if logger == nil {
		logger = logging.Discard()
	}
	if resolver == nil {
		resolver = screen.NewResolver(nil)
	}
	return &Compositor{
		resolver: resolver,
		factory:  factory,
		opts:     DefaultSurfaceOptions(),
		logger:   logger.WithComponent("overlay"),
	}
}

// Open creates both surfaces on the primary display. Calling Open on an
// open compositor does nothing.
func (c *Compositor) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.key != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.factory == nil {
		return fmt.Errorf("open overlay: no surface factory")
	}

	primary := c.resolver.Topology().Primary()
	key, err := c.factory(KindKeyText, c.opts)
	if err != nil {
		return fmt.Errorf("create %s surface: %w", KindKeyText, err)
	}
	click, err := c.factory(KindClickMarkers, c.opts)
	if err != nil {
		_ = key.Close()
		return fmt.Errorf("create %s surface: %w", KindClickMarkers, err)
	}
	c.key, c.click = key, click

	c.moveLocked(c.key, &c.keyDisplay, primary)
	c.moveLocked(c.click, &c.clkDisplay, primary)
	c.logger.Info("overlay opened", "display", primary.String())
	return nil
}

// Close destroys both surfaces. It is safe to call more than once.
func (c *Compositor) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.key == nil {
		return nil
	}
	errs := errors.Join(c.key.Close(), c.click.Close())
	c.key, c.click = nil, nil
	c.keyDisplay, c.clkDisplay = screen.Display{}, screen.Display{}
	c.last = aggregator.Snapshot{}
	if errs != nil {
		c.logger.Warn("closing surfaces", "error", errs)
	}
	return errs
}

// IsOpen reports whether the surfaces exist.
func (c *Compositor) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.key != nil
}

// KeyShown moves the key-text surface to the display under the cursor,
// given in capture space.
func (c *Compositor) KeyShown(cursor screen.Point) {
	d, _ := c.resolver.Locate(cursor)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.key == nil {
		return
	}
	c.moveLocked(c.key, &c.keyDisplay, d)
}

// PointerAt moves the click-marker surface to the display with ID id,
// falling back to the primary when the display is gone.
func (c *Compositor) PointerAt(id string) {
	topo := c.resolver.Topology()
	d, ok := topo.Find(id)
	if !ok {
		d = topo.Primary()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.click == nil {
		return
	}
	c.moveLocked(c.click, &c.clkDisplay, d)
}

func (c *Compositor) moveLocked(s Surface, cur *screen.Display, d screen.Display) {
	if cur.ID == d.ID && cur.Frame == d.Frame {
		return
	}
	if err := s.MoveTo(d); err != nil {
		c.logger.Warn("move surface", "surface", s.Kind().String(), "display", d.String(), "error", err)
		return
	}
	*cur = d
}

// Render projects s onto the surfaces. The click surface only receives the
// markers on the display it currently covers.
func (c *Compositor) Render(s aggregator.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.key == nil {
		return
	}
	c.last = s
	key, click := Split(s, c.clkDisplay.ID)
	c.key.Render(key)
	c.click.Render(click)
}

// Split divides s into the key-text projection and the click projection for
// displayID. An empty displayID keeps every marker.
func Split(s aggregator.Snapshot, displayID string) (key, click aggregator.Snapshot) {
	key = s
	key.Markers = nil

	click = s
	click.Key = aggregator.KeyState{}
	if displayID == "" {
		return key, click
	}
	click.Markers = make([]aggregator.Marker, 0, len(s.Markers))
	for _, m := range s.Markers {
		if m.DisplayID == "" || m.DisplayID == displayID {
			click.Markers = append(click.Markers, m)
		}
	}
	return key, click
}

// SetTopology replaces the display topology. Surfaces on a display that
// disappeared move to the primary.
func (c *Compositor) SetTopology(t screen.Topology) {
	c.resolver.SetTopology(t)
	topo := c.resolver.Topology()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.key == nil {
		return
	}
	for _, pair := range []struct {
		s   Surface
		cur *screen.Display
	}{{c.key, &c.keyDisplay}, {c.click, &c.clkDisplay}} {
		d, ok := topo.Find(pair.cur.ID)
		if !ok {
			d = topo.Primary()
		}
		c.moveLocked(pair.s, pair.cur, d)
	}
	c.logger.Debug("topology updated", "displays", len(topo))
}

// Displays returns the displays the key and click surfaces currently cover.
func (c *Compositor) Displays() (key, click screen.Display) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.keyDisplay, c.clkDisplay
}

// Last returns the most recently rendered snapshot.
func (c *Compositor) Last() aggregator.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}
