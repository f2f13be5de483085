package keys

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// =============================================================================
// Tests for ModifierSet
// =============================================================================

func TestModifierSetSymbolsCanonicalOrder(t *testing.T) {
	all := Shift | Control | Option | Command | CapsLock | Function
	assert.Equal(t, []string{"⌃", "⌥", "⇧", "⌘", "⇪", "fn"}, all.Symbols())

	// Insertion order must not matter.
	m := Command.Union(Shift).Union(Control)
	assert.Equal(t, "⌃⇧⌘", m.String())
}

func TestModifierSetEmpty(t *testing.T) {
	var m ModifierSet
	if !m.IsEmpty() {
		t.Error("zero value should be empty")
	}
	if len(m.Symbols()) != 0 {
		t.Errorf("expected no symbols, got %v", m.Symbols())
	}
	if m.Contains(Shift) {
		t.Error("empty set should not contain Shift")
	}
}

func TestModifierSetContains(t *testing.T) {
	m := Shift | Command
	assert.True(t, m.Contains(Shift))
	assert.True(t, m.Contains(Shift|Command))
	assert.False(t, m.Contains(Shift|Option))
	assert.False(t, m.Contains(0))
}

func TestModifiersFromRaw(t *testing.T) {
	tests := []struct {
		name string
		mask uint64
		want ModifierSet
	}{
		{"none", 0, 0},
		{"shift", RawShift, Shift},
		{"cmd+alt", RawCommand | RawAlternate, Command | Option},
		{"caps+fn", RawAlphaShift | RawSecondaryFn, CapsLock | Function},
		{"unknown bits ignored", 1<<8 | RawControl | 1<<29, Control},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ModifiersFromRaw(tt.mask)
			if got != tt.want {
				t.Errorf("ModifiersFromRaw(%#x) = %v, want %v", tt.mask, got, tt.want)
			}
		})
	}
}

func TestModifierSetRawInverse(t *testing.T) {
	for m := ModifierSet(0); m < 1<<6; m++ {
		if got := ModifiersFromRaw(m.Raw()); got != m {
			t.Errorf("round trip of %08b produced %08b", m, got)
		}
	}
}

// =============================================================================
// Tests for key codes
// =============================================================================

func TestGlyphTable(t *testing.T) {
	tests := []struct {
		code Code
		want string
	}{
		{CodeReturn, "↩"},
		{CodeTab, "⇥"},
		{CodeSpace, "␣"},
		{CodeDelete, "⌫"},
		{CodeEscape, "⎋"},
		{CodeForwardDelete, "⌦"},
		{CodeHome, "↖"},
		{CodeEnd, "↘"},
		{CodePageUp, "⇞"},
		{CodePageDown, "⇟"},
		{CodeUpArrow, "↑"},
		{CodeLeftArrow, "←"},
		{CodeF1, "F1"},
		{CodeF20, "F20"},
		{CodeC, "C"},
		{Code7, "7"},
		{CodeGrave, "`"},
		{CodeKeypadEnter, "↩"},
		{CodeKeypadClear, "⌧"},
		{CodeShift, ""},
		{Code(0xFF), ""},
	}

	for _, tt := range tests {
		if got := Glyph(tt.code); got != tt.want {
			t.Errorf("Glyph(%#x) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestModifierCodes(t *testing.T) {
	pairs := map[Code]ModifierSet{
		CodeShift:        Shift,
		CodeRightShift:   Shift,
		CodeControl:      Control,
		CodeRightControl: Control,
		CodeOption:       Option,
		CodeRightOption:  Option,
		CodeCommand:      Command,
		CodeRightCommand: Command,
		CodeCapsLock:     CapsLock,
		CodeFunction:     Function,
	}
	for code, mod := range pairs {
		assert.True(t, IsModifierCode(code), "code %#x", code)
		assert.Equal(t, mod, ModifierForCode(code))
	}

	assert.False(t, IsModifierCode(CodeA))
	assert.True(t, ModifierForCode(CodeA).IsEmpty())
}

// =============================================================================
// Tests for KeyEvent
// =============================================================================

func TestKeyEventDisplayString(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		ev   KeyEvent
		want string
	}{
		{"command c", KeyEvent{Code: CodeC, Modifiers: Command, Timestamp: now}, "⌘C"},
		{"bare letter", KeyEvent{Code: CodeA}, "A"},
		{"option tab", KeyEvent{Code: CodeTab, Modifiers: Option}, "⌥⇥"},
		{"bare modifier", KeyEvent{Code: CodeCommand, Modifiers: Command}, "⌘"},
		{"glyph wins over literal", KeyEvent{Code: CodeReturn, Characters: "\r"}, "↩"},
		{"unmapped uses literal", KeyEvent{Code: Code(0x0A), Characters: "§"}, "§"},
		{"unmapped control literal", KeyEvent{Code: Code(0x0A), Characters: "\x1b"}, ""},
		{"nothing renderable", KeyEvent{Code: Code(0xFF)}, ""},
		{"modifiers with unmapped key", KeyEvent{Code: Code(0xFF), Modifiers: Control}, "⌃"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ev.DisplayString())
		})
	}
}

func TestKeyEventPredicates(t *testing.T) {
	ev := KeyEvent{Code: CodeRightOption, Modifiers: Option}
	assert.True(t, ev.IsModifierOnly())
	assert.True(t, ev.HasModifiers())

	ev = KeyEvent{Code: CodeK}
	assert.False(t, ev.IsModifierOnly())
	assert.False(t, ev.HasModifiers())
}

// =============================================================================
// Tests for Mode and Position
// =============================================================================

func TestModeQualifiesTruthTable(t *testing.T) {
	bare := KeyEvent{Code: CodeA}
	combo := KeyEvent{Code: CodeC, Modifiers: Command}
	modOnly := KeyEvent{Code: CodeShift, Modifiers: Shift}
	empty := KeyEvent{Code: Code(0xFF)}

	tests := []struct {
		mode                       Mode
		bare, combo, modOnly, empty bool
	}{
		{ModeAllKeys, true, true, true, false},
		{ModeModifierOnly, false, false, true, false},
		{ModeModifierPlusKey, false, true, true, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			assert.Equal(t, tt.bare, tt.mode.Qualifies(bare), "bare")
			assert.Equal(t, tt.combo, tt.mode.Qualifies(combo), "combo")
			assert.Equal(t, tt.modOnly, tt.mode.Qualifies(modOnly), "modifier only")
			assert.Equal(t, tt.empty, tt.mode.Qualifies(empty), "empty")
		})
	}
}

func TestParseModeAndPosition(t *testing.T) {
	m, err := ParseMode("allKeys")
	assert.NoError(t, err)
	assert.Equal(t, ModeAllKeys, m)

	_, err = ParseMode("everything")
	assert.Error(t, err)

	p, err := ParsePosition("topRight")
	assert.NoError(t, err)
	assert.Equal(t, TopRight, p)

	_, err = ParsePosition("nowhere")
	assert.Error(t, err)
}

func TestPositionGrid(t *testing.T) {
	row, col := TopLeft.Grid()
	assert.Equal(t, 0, row)
	assert.Equal(t, 0, col)

	row, col = Center.Grid()
	assert.Equal(t, 1, row)
	assert.Equal(t, 1, col)

	row, col = BottomRight.Grid()
	assert.Equal(t, 2, row)
	assert.Equal(t, 2, col)

	// Unknown zones fall back to bottom center.
	row, col = Position("bogus").Grid()
	assert.Equal(t, 2, row)
	assert.Equal(t, 1, col)
}
