package keys

import "fmt"

// Mode selects which key events qualify for display.
type Mode string

const (
	// ModeModifierPlusKey shows modifier combinations and bare modifiers (⌘C, ⌥⇥).
	ModeModifierPlusKey Mode = "modifierPlusKey"
	// ModeModifierOnly shows modifier keys only.
	ModeModifierOnly Mode = "modifierOnly"
	// ModeAllKeys shows every key.
	ModeAllKeys Mode = "allKeys"
)

// Modes lists the display modes.
var Modes = []Mode{ModeModifierPlusKey, ModeModifierOnly, ModeAllKeys}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeModifierPlusKey, ModeModifierOnly, ModeAllKeys:
		return true
	}
	return false
}

// Qualifies applies the mode filter to ev. Events with an empty display
// string never qualify.
func (m Mode) Qualifies(ev KeyEvent) bool {
	if ev.DisplayString() == "" {
		return false
	}
	switch m {
	case ModeAllKeys:
		return true
	case ModeModifierOnly:
		return ev.IsModifierOnly()
	case ModeModifierPlusKey:
		return ev.HasModifiers() || ev.IsModifierOnly()
	}
	return false
}

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown display mode %q", s)
	}
	return m, nil
}

// Position is one of the nine screen zones the key text can occupy.
type Position string

const (
	TopLeft      Position = "topLeft"
	TopCenter    Position = "topCenter"
	TopRight     Position = "topRight"
	MiddleLeft   Position = "middleLeft"
	Center       Position = "center"
	MiddleRight  Position = "middleRight"
	BottomLeft   Position = "bottomLeft"
	BottomCenter Position = "bottomCenter"
	BottomRight  Position = "bottomRight"
)

// Positions lists the zones in row-major order.
var Positions = []Position{
	TopLeft, TopCenter, TopRight,
	MiddleLeft, Center, MiddleRight,
	BottomLeft, BottomCenter, BottomRight,
}

// Grid returns the zone's row and column in a 3x3 grid.
func (p Position) Grid() (row, col int) {
	for i, q := range Positions {
		if q == p {
			return i / 3, i % 3
		}
	}
	return 2, 1
}

// Valid reports whether p is a known zone.
func (p Position) Valid() bool {
	for _, q := range Positions {
		if q == p {
			return true
		}
	}
	return false
}

// ParsePosition parses a zone name.
func ParsePosition(s string) (Position, error) {
	p := Position(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown display position %q", s)
	}
	return p, nil
}
