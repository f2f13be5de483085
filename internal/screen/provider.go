package screen

import (
	"context"
	"errors"
	"math"
	"sync/atomic"

	"pressviz/internal/logging"
)

// ErrNoProvider is returned when the platform has no display query.
var ErrNoProvider = errors.New("no display provider on this platform")

// Provider reports the current display topology.
type Provider interface {
	Displays(ctx context.Context) (Topology, error)
}

// CursorSource reports the pointer location in capture space.
type CursorSource interface {
	CursorLocation() (Point, bool)
}

// Static is a fixed topology, typically from configuration.
type Static struct {
	Topology Topology
}

// Displays returns the configured topology.
func (s Static) Displays(ctx context.Context) (Topology, error) {
	if len(s.Topology) == 0 {
		return Topology{DefaultDisplay}, nil
	}
	return s.Topology, nil
}

type fallbackProvider struct {
	primary  Provider
	fallback Provider
	logger   *logging.Logger
}

// WithFallback queries p and falls back to f when p fails or reports no
// displays.
func WithFallback(p, f Provider, logger *logging.Logger) Provider {
	if logger == nil {
		logger = logging.Discard()
	}
	return &fallbackProvider{primary: p, fallback: f, logger: logger}
}

func (p *fallbackProvider) Displays(ctx context.Context) (Topology, error) {
	t, err := p.primary.Displays(ctx)
	if err == nil && len(t) > 0 {
		return t, nil
	}
	if err != nil {
		p.logger.Warn("display query failed, using fallback topology", "error", err)
	}
	return p.fallback.Displays(ctx)
}

// TrackedCursor remembers the last pointer location seen in the input
// stream. Update may be called from the capture thread.
type TrackedCursor struct {
	x, y  atomic.Uint64
	known atomic.Bool
}

// Update records p as the latest pointer location.
func (c *TrackedCursor) Update(p Point) {
	c.x.Store(math.Float64bits(p.X))
	c.y.Store(math.Float64bits(p.Y))
	c.known.Store(true)
}

// CursorLocation returns the last recorded location.
func (c *TrackedCursor) CursorLocation() (Point, bool) {
	if !c.known.Load() {
		return Point{}, false
	}
	return Point{
		X: math.Float64frombits(c.x.Load()),
		Y: math.Float64frombits(c.y.Load()),
	}, true
}

// Cursors tries each source in order.
type Cursors []CursorSource

// CursorLocation returns the first location a source knows.
func (cs Cursors) CursorLocation() (Point, bool) {
	for _, c := range cs {
		if c == nil {
			continue
		}
		if p, ok := c.CursorLocation(); ok {
			return p, true
		}
	}
	return Point{}, false
}
