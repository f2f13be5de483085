// Package aggregator decides what the overlay currently shows.
//
// It owns three pieces of state: the key text (with a repeat counter), the
// set of held keys and modifiers, and the click markers. Key text is cleared
// by the aging tick once it is older than the dwell time and nothing is
// held; settled click markers are removed once they are older than the click
// expiry. Dragging markers never expire.
//
// All mutation is expected to come from one goroutine (the main loop). Reads
// through IsPressing and Snapshot are safe from any goroutine.
package aggregator

import (
	"sync"
	"time"

	"pressviz/internal/classifier"
	"pressviz/internal/keys"
	"pressviz/internal/screen"
)

const (
	// DefaultKeyDwell is how long key text stays visible after the last
	// press once nothing is held.
	DefaultKeyDwell = time.Second
	// DefaultClickExpiry is how long a settled click marker lives.
	DefaultClickExpiry = 500 * time.Millisecond
)

// Locator resolves a capture-space point to its display and display-local
// point.
type Locator func(capture screen.Point) (screen.Display, screen.Point)

// Options configure an Aggregator. Zero values take the defaults.
type Options struct {
	KeyDwell    time.Duration
	ClickExpiry time.Duration
	Clock       func() time.Time

	// Locate converts pointer positions for HandleEvent. When nil,
	// capture coordinates are used as display-local coordinates.
	Locate Locator
}

// KeyState is the displayed key text.
type KeyState struct {
	Text       string
	Visible    bool
	Position   keys.Position
	ShownAt    time.Time
	PressCount int // increments each time the same text is shown again while visible
}

// Marker is a click or drag indicator.
type Marker struct {
	ID        uint64
	DisplayID string
	Location  screen.Point // display-local, top-left origin
	Button    int
	CreatedAt time.Time
	SettledAt time.Time // zero while dragging
	Dragging  bool
}

// Age returns how long the marker has been aging at now. Dragging markers do
// not age.
func (m Marker) Age(now time.Time) time.Duration {
	if m.Dragging {
		return 0
	}
	return now.Sub(m.SettledAt)
}

// Snapshot is a deep copy of the aggregator state for rendering.
type Snapshot struct {
	Key          KeyState
	Markers      []Marker
	Pressing     bool
	ClickEffects bool
}

// Aggregator is the display state machine.
type Aggregator struct {
	opts Options

	mu           sync.Mutex
	mode         keys.Mode
	position     keys.Position
	clickEffects bool

	key      KeyState
	heldKeys map[keys.Code]struct{}
	heldMods keys.ModifierSet

	markers  []Marker
	dragging uint64 // ID of the dragging marker, 0 if none
	nextID   uint64

	listeners []func()
}

// New creates an Aggregator in the Idle state with display mode
// modifierPlusKey, position bottomCenter and click effects on.
func New(opts Options) *Aggregator {
	if opts.KeyDwell <= 0 {
		opts.KeyDwell = DefaultKeyDwell
	}
	if opts.ClickExpiry <= 0 {
		opts.ClickExpiry = DefaultClickExpiry
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Aggregator{
		opts:         opts,
		mode:         keys.ModeModifierPlusKey,
		position:     keys.BottomCenter,
		clickEffects: true,
		key:          KeyState{Position: keys.BottomCenter},
		heldKeys:     make(map[keys.Code]struct{}),
	}
}

// OnChange registers fn to run after every state mutation. fn runs on the
// mutating goroutine, outside the aggregator's lock.
func (a *Aggregator) OnChange(fn func()) {
	a.mu.Lock()
	a.listeners = append(a.listeners, fn)
	a.mu.Unlock()
}

func (a *Aggregator) notify() {
	a.mu.Lock()
	ls := make([]func(), len(a.listeners))
	copy(ls, a.listeners)
	a.mu.Unlock()
	for _, fn := range ls {
		fn()
	}
}

// update runs fn under the lock and notifies listeners if fn reports a
// change.
func (a *Aggregator) update(fn func() bool) bool {
	a.mu.Lock()
	changed := fn()
	a.mu.Unlock()
	if changed {
		a.notify()
	}
	return changed
}

func (a *Aggregator) stamp(ts time.Time) time.Time {
	if ts.IsZero() {
		return a.opts.Clock()
	}
	return ts
}

// SetMode changes the display-mode filter for subsequent events.
func (a *Aggregator) SetMode(m keys.Mode) {
	a.mu.Lock()
	a.mode = m
	a.mu.Unlock()
}

// SetPosition changes the key-text zone. Visible text moves immediately.
func (a *Aggregator) SetPosition(p keys.Position) {
	a.update(func() bool {
		a.position = p
		if a.key.Position == p {
			return false
		}
		a.key.Position = p
		return a.key.Visible
	})
}

// SetClickEffects enables or disables click markers. Disabling removes any
// existing markers.
func (a *Aggregator) SetClickEffects(on bool) {
	a.update(func() bool {
		a.clickEffects = on
		if on || len(a.markers) == 0 {
			return false
		}
		a.markers = nil
		a.dragging = 0
		return true
	})
}

// HandleEvent applies a classified event. It reports whether the visible
// state changed.
func (a *Aggregator) HandleEvent(ev classifier.Event) bool {
	switch ev.Kind {
	case classifier.KeyPress:
		a.update(func() bool {
			a.heldKeys[ev.Code] = struct{}{}
			return false
		})
		return a.ShowKey(ev.KeyEvent())
	case classifier.KeyRelease:
		a.KeyUp(ev.Code)
		return false
	case classifier.ModifierChange:
		return a.ModifiersChanged(ev.Code, ev.Modifiers, ev.Timestamp)
	case classifier.PointerDown, classifier.PointerDrag:
		d, local := a.locate(screen.Point{X: ev.X, Y: ev.Y})
		if ev.Kind == classifier.PointerDown {
			return a.PointerDown(d.ID, local, ev.Button, ev.Timestamp)
		}
		return a.PointerDrag(d.ID, local, ev.Timestamp)
	case classifier.PointerUp:
		return a.PointerUp(ev.Timestamp)
	}
	return false
}

func (a *Aggregator) locate(p screen.Point) (screen.Display, screen.Point) {
	if a.opts.Locate == nil {
		return screen.Display{}, p
	}
	return a.opts.Locate(p)
}

// ShowKey shows ev if it qualifies under the current mode. Events with an
// empty display string are dropped before any state changes.
func (a *Aggregator) ShowKey(ev keys.KeyEvent) bool {
	text := ev.DisplayString()
	if text == "" {
		return false
	}
	return a.update(func() bool {
		if !a.mode.Qualifies(ev) {
			return false
		}
		if a.key.Visible && a.key.Text == text {
			a.key.PressCount++
		} else {
			a.key.Text = text
			a.key.PressCount = 0
		}
		a.key.Visible = true
		a.key.Position = a.position
		a.key.ShownAt = a.stamp(ev.Timestamp)
		return true
	})
}

// KeyUp removes code from the held keys.
func (a *Aggregator) KeyUp(code keys.Code) {
	a.mu.Lock()
	delete(a.heldKeys, code)
	a.mu.Unlock()
}

// ModifiersChanged replaces the held modifier set. When the modifier that
// code controls was newly pressed, the modifier combination is shown;
// releases never touch the text, which decays with time.
func (a *Aggregator) ModifiersChanged(code keys.Code, mods keys.ModifierSet, ts time.Time) bool {
	a.mu.Lock()
	prev := a.heldMods
	a.heldMods = mods
	a.mu.Unlock()

	if classifier.ModifierTransition(prev, mods, code) != classifier.Pressed {
		return false
	}
	return a.ShowKey(keys.KeyEvent{Code: code, Modifiers: mods, Timestamp: ts})
}

// PointerDown creates a dragging marker at local on the given display. A
// marker still dragging from a missed release is settled first.
func (a *Aggregator) PointerDown(displayID string, local screen.Point, button int, ts time.Time) bool {
	return a.update(func() bool {
		if !a.clickEffects {
			return false
		}
		ts = a.stamp(ts)
		a.settleDragging(ts)
		a.nextID++
		a.markers = append(a.markers, Marker{
			ID:        a.nextID,
			DisplayID: displayID,
			Location:  local,
			Button:    button,
			CreatedAt: ts,
			Dragging:  true,
		})
		a.dragging = a.nextID
		return true
	})
}

// PointerDrag moves the dragging marker. Without one it does nothing.
func (a *Aggregator) PointerDrag(displayID string, local screen.Point, ts time.Time) bool {
	return a.update(func() bool {
		if !a.clickEffects || a.dragging == 0 {
			return false
		}
		i := a.indexOf(a.dragging)
		if i < 0 {
			a.dragging = 0
			return false
		}
		a.markers[i].Location = local
		a.markers[i].DisplayID = displayID
		return true
	})
}

// PointerUp settles the dragging marker; it starts aging at ts.
func (a *Aggregator) PointerUp(ts time.Time) bool {
	return a.update(func() bool {
		if !a.clickEffects || a.dragging == 0 {
			return false
		}
		return a.settleDragging(a.stamp(ts))
	})
}

func (a *Aggregator) settleDragging(ts time.Time) bool {
	if a.dragging == 0 {
		return false
	}
	i := a.indexOf(a.dragging)
	a.dragging = 0
	if i < 0 {
		return false
	}
	a.markers[i].Dragging = false
	a.markers[i].SettledAt = ts
	return true
}

func (a *Aggregator) indexOf(id uint64) int {
	for i, m := range a.markers {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// Tick ages state at now: settled markers older than the click expiry are
// removed; key text older than the dwell time is cleared unless a key or
// modifier is held, in which case its timestamp is refreshed to now.
func (a *Aggregator) Tick(now time.Time) bool {
	return a.update(func() bool {
		changed := false

		kept := a.markers[:0]
		for _, m := range a.markers {
			if !m.Dragging && m.Age(now) > a.opts.ClickExpiry {
				changed = true
				continue
			}
			kept = append(kept, m)
		}
		for i := len(kept); i < len(a.markers); i++ {
			a.markers[i] = Marker{}
		}
		a.markers = kept

		if !a.key.Visible {
			return changed
		}
		if a.pressingLocked() {
			a.key.ShownAt = now
			return changed
		}
		if now.Sub(a.key.ShownAt) > a.opts.KeyDwell {
			a.clearKeyLocked()
			changed = true
		}
		return changed
	})
}

// ClearKey hides the key text.
func (a *Aggregator) ClearKey() bool {
	return a.update(func() bool {
		if !a.key.Visible && a.key.Text == "" {
			return false
		}
		a.clearKeyLocked()
		return true
	})
}

func (a *Aggregator) clearKeyLocked() {
	a.key.Visible = false
	a.key.Text = ""
	a.key.PressCount = 0
}

// ClearAll hides everything and forgets held keys, modifiers and markers.
func (a *Aggregator) ClearAll() {
	a.update(func() bool {
		a.clearKeyLocked()
		a.markers = nil
		a.dragging = 0
		a.heldKeys = make(map[keys.Code]struct{})
		a.heldMods = 0
		return true
	})
}

// IsPressing reports whether any key or modifier is held. A latched caps
// lock does not count.
func (a *Aggregator) IsPressing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pressingLocked()
}

func (a *Aggregator) pressingLocked() bool {
	return len(a.heldKeys) > 0 || !(a.heldMods &^ keys.CapsLock).IsEmpty()
}

// Snapshot returns a deep copy of the current state.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	markers := make([]Marker, len(a.markers))
	copy(markers, a.markers)
	return Snapshot{
		Key:          a.key,
		Markers:      markers,
		Pressing:     a.pressingLocked(),
		ClickEffects: a.clickEffects,
	}
}
