// Package screen converts points between the three coordinate spaces the
// overlay deals with:
//
//   - capture space: origin at the top-left of the primary display, Y down.
//     Raw input events arrive in this space.
//   - topology space: origin at the bottom-left of the primary display, Y up.
//     Display frames are expressed in this space.
//   - display-local space: origin at the top-left of one display, Y down.
//     Overlay surfaces draw in this space.
package screen

import (
	"fmt"
	"sync"
)

// Point is a location in one of the coordinate spaces.
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether p lies inside r. The rectangle is half-open: the
// left and bottom edges are inside, the right and top edges are not.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// Union returns the smallest rectangle containing r and o.
func (r Rect) Union(o Rect) Rect {
	if r.W <= 0 || r.H <= 0 {
		return o
	}
	if o.W <= 0 || o.H <= 0 {
		return r
	}
	x0, y0 := min(r.X, o.X), min(r.Y, o.Y)
	x1, y1 := max(r.X+r.W, o.X+o.W), max(r.Y+r.H, o.Y+o.H)
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Display is one physical screen. Frame is in topology space.
type Display struct {
	ID      string
	Name    string
	Frame   Rect
	Primary bool
	Scale   float64
}

func (d Display) String() string {
	return fmt.Sprintf("%s %gx%g@%g,%g", d.ID, d.Frame.W, d.Frame.H, d.Frame.X, d.Frame.Y)
}

// Topology is the ordered set of connected displays.
type Topology []Display

// DefaultDisplay is used when no topology is known.
var DefaultDisplay = Display{
	ID:      "default",
	Name:    "Default",
	Frame:   Rect{W: 1920, H: 1080},
	Primary: true,
	Scale:   1,
}

// Primary returns the display flagged primary, else the first one, else
// DefaultDisplay.
func (t Topology) Primary() Display {
	for _, d := range t {
		if d.Primary {
			return d
		}
	}
	if len(t) > 0 {
		return t[0]
	}
	return DefaultDisplay
}

// Find returns the display with the given ID.
func (t Topology) Find(id string) (Display, bool) {
	for _, d := range t {
		if d.ID == id {
			return d, true
		}
	}
	return Display{}, false
}

// Resolver converts between coordinate spaces for one topology. It is safe
// for concurrent use; SetTopology swaps the topology atomically.
type Resolver struct {
	mu   sync.RWMutex
	topo Topology
}

// NewResolver creates a resolver. An empty topology resolves against
// DefaultDisplay.
func NewResolver(t Topology) *Resolver {
	r := &Resolver{}
	r.SetTopology(t)
	return r
}

// SetTopology replaces the display topology.
func (r *Resolver) SetTopology(t Topology) {
	if len(t) == 0 {
		t = Topology{DefaultDisplay}
	}
	cp := make(Topology, len(t))
	copy(cp, t)

	r.mu.Lock()
	r.topo = cp
	r.mu.Unlock()
}

// Topology returns a copy of the current topology.
func (r *Resolver) Topology() Topology {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cp := make(Topology, len(r.topo))
	copy(cp, r.topo)
	return cp
}

func (r *Resolver) primaryHeight() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.topo.Primary().Frame.H
}

// CaptureToTopology flips a capture-space point about the primary display
// height.
func (r *Resolver) CaptureToTopology(p Point) Point {
	return Point{X: p.X, Y: r.primaryHeight() - p.Y}
}

// TopologyToCapture is the inverse of CaptureToTopology.
func (r *Resolver) TopologyToCapture(p Point) Point {
	return Point{X: p.X, Y: r.primaryHeight() - p.Y}
}

// DisplayAt returns the display whose frame contains p. When no display
// contains it, for example right after a display was disconnected, the
// primary display is returned.
func (r *Resolver) DisplayAt(p Point) Display {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.topo {
		if d.Frame.Contains(p) {
			return d
		}
	}
	return r.topo.Primary()
}

// ToLocal converts a topology-space point to d's local space.
func (r *Resolver) ToLocal(d Display, p Point) Point {
	return Point{
		X: p.X - d.Frame.X,
		Y: d.Frame.H - (p.Y - d.Frame.Y),
	}
}

// FromLocal is the inverse of ToLocal.
func (r *Resolver) FromLocal(d Display, local Point) Point {
	return Point{
		X: local.X + d.Frame.X,
		Y: d.Frame.Y + d.Frame.H - local.Y,
	}
}

// Locate resolves a capture-space point to its display and the
// display-local point. Pointer-down, pointer-drag and cursor lookups all go
// through here.
func (r *Resolver) Locate(capturePoint Point) (Display, Point) {
	tp := r.CaptureToTopology(capturePoint)
	d := r.DisplayAt(tp)
	return d, r.ToLocal(d, tp)
}

// CaptureBounds returns the capture-space rectangle covering all displays.
func (r *Resolver) CaptureBounds() Rect {
	r.mu.RLock()
	topo := r.topo
	r.mu.RUnlock()

	ph := topo.Primary().Frame.H
	var out Rect
	for _, d := range topo {
		out = out.Union(Rect{
			X: d.Frame.X,
			Y: ph - (d.Frame.Y + d.Frame.H),
			W: d.Frame.W,
			H: d.Frame.H,
		})
	}
	return out
}
