// Package classifier maps raw capture events to semantic input events.
//
// Classification is pure: no state, no I/O, safe to call on the capture
// delivery thread.
package classifier

import (
	"strings"
	"time"

	"pressviz/internal/capture"
	"pressviz/internal/keys"
)

// Kind is the semantic category of an event.
type Kind int

const (
	KeyPress Kind = iota + 1
	KeyRelease
	ModifierChange
	PointerDown
	PointerUp
	PointerDrag
)

func (k Kind) String() string {
	switch k {
	case KeyPress:
		return "keyPress"
	case KeyRelease:
		return "keyRelease"
	case ModifierChange:
		return "modifierChange"
	case PointerDown:
		return "pointerDown"
	case PointerUp:
		return "pointerUp"
	case PointerDrag:
		return "pointerDrag"
	default:
		return "unknown"
	}
}

// Event is a classified input event. X and Y stay in capture space.
type Event struct {
	Kind       Kind
	Code       keys.Code
	Modifiers  keys.ModifierSet
	Characters string
	X, Y       float64
	Button     int
	Timestamp  time.Time
}

// IsPointer reports whether the event comes from the pointing device.
func (e Event) IsPointer() bool {
	return e.Kind == PointerDown || e.Kind == PointerUp || e.Kind == PointerDrag
}

// KeyEvent builds the renderable key event for a key press or modifier
// change.
func (e Event) KeyEvent() keys.KeyEvent {
	return keys.KeyEvent{
		Code:       e.Code,
		Modifiers:  e.Modifiers,
		Characters: e.Characters,
		Timestamp:  e.Timestamp,
	}
}

// Classify maps a raw event to exactly one semantic kind. Unrecognized raw
// types report false and are dropped by the caller.
func Classify(raw capture.RawEvent) (Event, bool) {
	var kind Kind
	switch raw.Type {
	case capture.KeyDown:
		kind = KeyPress
	case capture.KeyUp:
		kind = KeyRelease
	case capture.FlagsChanged:
		kind = ModifierChange
	case capture.MouseDown:
		kind = PointerDown
	case capture.MouseUp:
		kind = PointerUp
	case capture.MouseDragged:
		kind = PointerDrag
	default:
		return Event{}, false
	}

	ev := Event{
		Kind:      kind,
		Modifiers: keys.ModifiersFromRaw(raw.Flags),
		X:         raw.X,
		Y:         raw.Y,
		Timestamp: raw.Timestamp,
	}

	if ev.IsPointer() {
		ev.Button = raw.Button
		return ev, true
	}

	ev.Code = keys.Code(raw.KeyCode)
	if kind == KeyPress {
		ev.Characters = strings.ToUpper(raw.Characters)
	}
	return ev, true
}

// Transition describes what a modifier-change event did to its own key.
type Transition int

const (
	Unchanged Transition = iota
	Pressed
	Released
)

// ModifierTransition compares the held modifier set before and after a
// modifier-change event for the key code that produced it. Only the bit the
// key controls is considered, so a release of one side while the other side
// is still down reports Unchanged.
func ModifierTransition(prev, next keys.ModifierSet, code keys.Code) Transition {
	bit := keys.ModifierForCode(code)
	if bit.IsEmpty() {
		return Unchanged
	}
	was, is := prev.Contains(bit), next.Contains(bit)
	switch {
	case !was && is:
		return Pressed
	case was && !is:
		return Released
	default:
		return Unchanged
	}
}
