// Package capture installs a process-wide, listen-only interception point on
// the OS input stream and hands every raw event to a Handler.
//
// The handler runs synchronously on the session's delivery thread. It must
// not block: classify, enqueue, return. Events are never consumed or
// modified.
//
// Platform support:
//   - macOS: CGEventTap (requires Accessibility / Input Monitoring permission)
//   - Linux: /dev/input/event* via evdev (requires the input group or root)
//   - Other: not available
package capture

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"pressviz/internal/logging"
)

// EventType is the raw event tag delivered by a backend.
type EventType uint32

const (
	TypeUnknown EventType = iota
	KeyDown
	KeyUp
	FlagsChanged
	MouseDown
	MouseUp
	MouseDragged
	MouseMoved
	ScrollWheel
)

func (t EventType) String() string {
	switch t {
	case KeyDown:
		return "keyDown"
	case KeyUp:
		return "keyUp"
	case FlagsChanged:
		return "flagsChanged"
	case MouseDown:
		return "mouseDown"
	case MouseUp:
		return "mouseUp"
	case MouseDragged:
		return "mouseDragged"
	case MouseMoved:
		return "mouseMoved"
	case ScrollWheel:
		return "scrollWheel"
	default:
		return "unknown"
	}
}

// RawEvent is a single event as the OS reported it. X and Y are in capture
// space: origin at the top-left of the primary display, Y growing down.
type RawEvent struct {
	Type       EventType
	X, Y       float64
	Flags      uint64 // raw modifier mask, keys.Raw* layout
	KeyCode    uint16 // canonical key code
	Characters string // literal characters ignoring modifiers; may be empty
	Button     int    // 0 left, 1 right, 2+ other
	Timestamp  time.Time
}

// Handler receives raw events on the delivery thread.
type Handler func(RawEvent)

// Session is a global input interception session.
type Session interface {
	// Start installs the interception point. Calling Start on a running
	// session is a no-op that returns nil.
	Start(ctx context.Context) error

	// Stop removes the interception point. Stop on a stopped session is a
	// no-op. After Stop returns the handler is never invoked again.
	Stop() error

	// Running reports whether the interception point is installed.
	Running() bool

	// Available reports whether the backend can run with current
	// permissions, with a human readable reason.
	Available() (bool, string)

	// Stats returns delivery counters.
	Stats() Stats
}

// Stats are delivery counters for a session.
type Stats struct {
	Delivered   uint64
	Dropped     uint64 // events that raced with Stop
	TapDisabled uint64 // times the OS disabled the interception point
}

// Bounds is the capture-space rectangle covering every display. Backends
// that only see relative pointer motion clamp their integrated position to it.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// Clamp limits (x, y) to b. A zero Bounds leaves the point unchanged.
func (b Bounds) Clamp(x, y float64) (float64, float64) {
	if b.MaxX <= b.MinX || b.MaxY <= b.MinY {
		return x, y
	}
	x = min(max(x, b.MinX), b.MaxX-1)
	y = min(max(y, b.MinY), b.MaxY-1)
	return x, y
}

// Options configure a platform session.
type Options struct {
	Logger *logging.Logger

	// Bounds returns the current display bounds in capture space.
	Bounds func() Bounds

	// Clock stamps events on backends that lack a usable OS timestamp.
	Clock func() time.Time
}

func (o *Options) defaults() {
	if o.Logger == nil {
		o.Logger = logging.Discard()
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.Bounds == nil {
		o.Bounds = func() Bounds { return Bounds{} }
	}
}

var (
	// ErrPermissionDenied is returned when the OS refuses to install the
	// interception point. The session stays inactive.
	ErrPermissionDenied = errors.New("input monitoring permission denied")

	// ErrNotAvailable is returned when no backend exists on this platform.
	ErrNotAvailable = errors.New("input capture not available on this platform")
)

// New creates a Session for the current platform.
func New(handler Handler, opts Options) Session {
	opts.defaults()
	return newPlatformSession(handler, opts)
}

// BaseSession provides the delivery gate shared by platform implementations.
//
// The gate is closed before any backend resource is released, so callbacks
// racing with Stop observe it and return without touching released state.
type BaseSession struct {
	mu      sync.Mutex
	running bool
	handler Handler
	open    atomic.Bool

	delivered   atomic.Uint64
	dropped     atomic.Uint64
	tapDisabled atomic.Uint64
}

func (b *BaseSession) init(h Handler) {
	if h == nil {
		h = func(RawEvent) {}
	}
	b.handler = h
}

// Deliver passes ev to the handler if the gate is open.
func (b *BaseSession) Deliver(ev RawEvent) {
	if !b.open.Load() {
		b.dropped.Add(1)
		return
	}
	b.handler(ev)
	b.delivered.Add(1)
}

// SetRunning sets the running state and opens or closes the gate.
func (b *BaseSession) SetRunning(running bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.running = running
	b.open.Store(running)
}

// Running returns the running state.
func (b *BaseSession) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// Stats returns delivery counters.
func (b *BaseSession) Stats() Stats {
	return Stats{
		Delivered:   b.delivered.Load(),
		Dropped:     b.dropped.Load(),
		TapDisabled: b.tapDisabled.Load(),
	}
}
