package keys

import (
	"strings"
	"time"
	"unicode"
)

// KeyEvent is a single renderable key press.
type KeyEvent struct {
	Code       Code
	Modifiers  ModifierSet
	Characters string // literal characters from the OS, already uppercased; may be empty
	Timestamp  time.Time
}

// DisplayString composes modifier symbols and the key glyph. The fixed glyph
// table wins over the literal characters. The result is empty when nothing
// renderable remains.
func (e KeyEvent) DisplayString() string {
	key := Glyph(e.Code)
	if key == "" {
		key = printable(e.Characters)
	}
	if e.Modifiers.IsEmpty() {
		return key
	}
	return e.Modifiers.String() + key
}

// IsModifierOnly reports whether the key itself is a modifier key.
func (e KeyEvent) IsModifierOnly() bool {
	return IsModifierCode(e.Code)
}

// HasModifiers reports whether any modifier was held.
func (e KeyEvent) HasModifiers() bool {
	return !e.Modifiers.IsEmpty()
}

func printable(s string) string {
	if s == "" {
		return ""
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
