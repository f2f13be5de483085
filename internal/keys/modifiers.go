// Package keys models key identity, held modifiers and the glyphs used to
// show them on screen.
//
// Key codes live in a single canonical space (the macOS virtual key-code
// space). Capture backends on other platforms translate their native codes
// into it, so the glyph table and the modifier-key set exist exactly once.
package keys

// ModifierSet is a small bit-set of modifier keys. The zero value is empty.
type ModifierSet uint8

const (
	Shift ModifierSet = 1 << iota
	Control
	Option
	Command
	CapsLock
	Function
)

// symbolOrder is the canonical rendering order.
var symbolOrder = []struct {
	mod    ModifierSet
	symbol string
}{
	{Control, "⌃"},
	{Option, "⌥"},
	{Shift, "⇧"},
	{Command, "⌘"},
	{CapsLock, "⇪"},
	{Function, "fn"},
}

// Union returns the set containing the modifiers of both m and other.
func (m ModifierSet) Union(other ModifierSet) ModifierSet {
	return m | other
}

// Contains reports whether every modifier in other is also in m.
func (m ModifierSet) Contains(other ModifierSet) bool {
	return other != 0 && m&other == other
}

// IsEmpty reports whether no modifier is set.
func (m ModifierSet) IsEmpty() bool {
	return m == 0
}

// Symbols renders the set in canonical order.
func (m ModifierSet) Symbols() []string {
	out := make([]string, 0, len(symbolOrder))
	for _, s := range symbolOrder {
		if m&s.mod != 0 {
			out = append(out, s.symbol)
		}
	}
	return out
}

// String joins the symbols, e.g. "⌃⇧".
func (m ModifierSet) String() string {
	var s string
	for _, sym := range m.Symbols() {
		s += sym
	}
	return s
}

// Raw modifier mask bits. The layout matches CGEventFlags; backends that do
// not produce CGEventFlags synthesize this layout.
const (
	RawAlphaShift  uint64 = 1 << 16
	RawShift       uint64 = 1 << 17
	RawControl     uint64 = 1 << 18
	RawAlternate   uint64 = 1 << 19
	RawCommand     uint64 = 1 << 20
	RawSecondaryFn uint64 = 1 << 23
)

var rawBits = []struct {
	raw uint64
	mod ModifierSet
}{
	{RawShift, Shift},
	{RawControl, Control},
	{RawAlternate, Option},
	{RawCommand, Command},
	{RawAlphaShift, CapsLock},
	{RawSecondaryFn, Function},
}

// ModifiersFromRaw extracts the modifier set from a raw mask. Unknown bits
// are ignored.
func ModifiersFromRaw(mask uint64) ModifierSet {
	var m ModifierSet
	for _, b := range rawBits {
		if mask&b.raw != 0 {
			m |= b.mod
		}
	}
	return m
}

// Raw converts m back to the raw mask layout.
func (m ModifierSet) Raw() uint64 {
	var mask uint64
	for _, b := range rawBits {
		if m&b.mod != 0 {
			mask |= b.raw
		}
	}
	return mask
}
