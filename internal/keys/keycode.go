package keys

// Code is an opaque hardware key identity in the canonical code space.
type Code uint16

// Canonical key codes (macOS virtual key codes).
const (
	CodeA              Code = 0x00
	CodeS              Code = 0x01
	CodeD              Code = 0x02
	CodeF              Code = 0x03
	CodeH              Code = 0x04
	CodeG              Code = 0x05
	CodeZ              Code = 0x06
	CodeX              Code = 0x07
	CodeC              Code = 0x08
	CodeV              Code = 0x09
	CodeB              Code = 0x0B
	CodeQ              Code = 0x0C
	CodeW              Code = 0x0D
	CodeE              Code = 0x0E
	CodeR              Code = 0x0F
	CodeY              Code = 0x10
	CodeT              Code = 0x11
	Code1              Code = 0x12
	Code2              Code = 0x13
	Code3              Code = 0x14
	Code4              Code = 0x15
	Code6              Code = 0x16
	Code5              Code = 0x17
	CodeEqual          Code = 0x18
	Code9              Code = 0x19
	Code7              Code = 0x1A
	CodeMinus          Code = 0x1B
	Code8              Code = 0x1C
	Code0              Code = 0x1D
	CodeRightBracket   Code = 0x1E
	CodeO              Code = 0x1F
	CodeU              Code = 0x20
	CodeLeftBracket    Code = 0x21
	CodeI              Code = 0x22
	CodeP              Code = 0x23
	CodeReturn         Code = 0x24
	CodeL              Code = 0x25
	CodeJ              Code = 0x26
	CodeQuote          Code = 0x27
	CodeK              Code = 0x28
	CodeSemicolon      Code = 0x29
	CodeBackslash      Code = 0x2A
	CodeComma          Code = 0x2B
	CodeSlash          Code = 0x2C
	CodeN              Code = 0x2D
	CodeM              Code = 0x2E
	CodePeriod         Code = 0x2F
	CodeTab            Code = 0x30
	CodeSpace          Code = 0x31
	CodeGrave          Code = 0x32
	CodeDelete         Code = 0x33
	CodeEscape         Code = 0x35
	CodeRightCommand   Code = 0x36
	CodeCommand        Code = 0x37
	CodeShift          Code = 0x38
	CodeCapsLock       Code = 0x39
	CodeOption         Code = 0x3A
	CodeControl        Code = 0x3B
	CodeRightShift     Code = 0x3C
	CodeRightOption    Code = 0x3D
	CodeRightControl   Code = 0x3E
	CodeFunction       Code = 0x3F
	CodeF17            Code = 0x40
	CodeKeypadDecimal  Code = 0x41
	CodeKeypadMultiply Code = 0x43
	CodeKeypadPlus     Code = 0x45
	CodeKeypadClear    Code = 0x47
	CodeKeypadDivide   Code = 0x4B
	CodeKeypadEnter    Code = 0x4C
	CodeKeypadMinus    Code = 0x4E
	CodeF18            Code = 0x4F
	CodeF19            Code = 0x50
	CodeKeypadEquals   Code = 0x51
	CodeKeypad0        Code = 0x52
	CodeKeypad1        Code = 0x53
	CodeKeypad2        Code = 0x54
	CodeKeypad3        Code = 0x55
	CodeKeypad4        Code = 0x56
	CodeKeypad5        Code = 0x57
	CodeKeypad6        Code = 0x58
	CodeKeypad7        Code = 0x59
	CodeF20            Code = 0x5A
	CodeKeypad8        Code = 0x5B
	CodeKeypad9        Code = 0x5C
	CodeF5             Code = 0x60
	CodeF6             Code = 0x61
	CodeF7             Code = 0x62
	CodeF3             Code = 0x63
	CodeF8             Code = 0x64
	CodeF9             Code = 0x65
	CodeF11            Code = 0x67
	CodeF13            Code = 0x69
	CodeF16            Code = 0x6A
	CodeF14            Code = 0x6B
	CodeF10            Code = 0x6D
	CodeF12            Code = 0x6F
	CodeF15            Code = 0x71
	CodeHome           Code = 0x73
	CodePageUp         Code = 0x74
	CodeForwardDelete  Code = 0x75
	CodeF4             Code = 0x76
	CodeEnd            Code = 0x77
	CodeF2             Code = 0x78
	CodePageDown       Code = 0x79
	CodeF1             Code = 0x7A
	CodeLeftArrow      Code = 0x7B
	CodeRightArrow     Code = 0x7C
	CodeDownArrow      Code = 0x7D
	CodeUpArrow        Code = 0x7E
)

var glyphs = map[Code]string{
	CodeReturn:        "↩",
	CodeTab:           "⇥",
	CodeSpace:         "␣",
	CodeDelete:        "⌫",
	CodeEscape:        "⎋",
	CodeForwardDelete: "⌦",
	CodeHome:          "↖",
	CodeEnd:           "↘",
	CodePageUp:        "⇞",
	CodePageDown:      "⇟",
	CodeUpArrow:       "↑",
	CodeDownArrow:     "↓",
	CodeLeftArrow:     "←",
	CodeRightArrow:    "→",

	CodeF1: "F1", CodeF2: "F2", CodeF3: "F3", CodeF4: "F4", CodeF5: "F5",
	CodeF6: "F6", CodeF7: "F7", CodeF8: "F8", CodeF9: "F9", CodeF10: "F10",
	CodeF11: "F11", CodeF12: "F12", CodeF13: "F13", CodeF14: "F14", CodeF15: "F15",
	CodeF16: "F16", CodeF17: "F17", CodeF18: "F18", CodeF19: "F19", CodeF20: "F20",

	Code1: "1", Code2: "2", Code3: "3", Code4: "4", Code5: "5",
	Code6: "6", Code7: "7", Code8: "8", Code9: "9", Code0: "0",

	CodeA: "A", CodeB: "B", CodeC: "C", CodeD: "D", CodeE: "E", CodeF: "F",
	CodeG: "G", CodeH: "H", CodeI: "I", CodeJ: "J", CodeK: "K", CodeL: "L",
	CodeM: "M", CodeN: "N", CodeO: "O", CodeP: "P", CodeQ: "Q", CodeR: "R",
	CodeS: "S", CodeT: "T", CodeU: "U", CodeV: "V", CodeW: "W", CodeX: "X",
	CodeY: "Y", CodeZ: "Z",

	CodeMinus:        "-",
	CodeEqual:        "=",
	CodeLeftBracket:  "[",
	CodeRightBracket: "]",
	CodeBackslash:    "\\",
	CodeSemicolon:    ";",
	CodeQuote:        "'",
	CodeComma:        ",",
	CodePeriod:       ".",
	CodeSlash:        "/",
	CodeGrave:        "`",

	CodeKeypad0: "0", CodeKeypad1: "1", CodeKeypad2: "2", CodeKeypad3: "3",
	CodeKeypad4: "4", CodeKeypad5: "5", CodeKeypad6: "6", CodeKeypad7: "7",
	CodeKeypad8: "8", CodeKeypad9: "9",
	CodeKeypadDecimal:  ".",
	CodeKeypadMultiply: "*",
	CodeKeypadPlus:     "+",
	CodeKeypadMinus:    "-",
	CodeKeypadDivide:   "/",
	CodeKeypadEnter:    "↩",
	CodeKeypadEquals:   "=",
	CodeKeypadClear:    "⌧",
}

// Glyph returns the fixed glyph for code, or "" if the code is not in the
// table.
func Glyph(code Code) string {
	return glyphs[code]
}

var modifierCodes = map[Code]ModifierSet{
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

// IsModifierCode reports whether code is one of the modifier keys.
func IsModifierCode(code Code) bool {
	_, ok := modifierCodes[code]
	return ok
}

// ModifierForCode returns the modifier bit toggled by code. Left and right
// variants map to the same bit. Non-modifier codes return the empty set.
func ModifierForCode(code Code) ModifierSet {
	return modifierCodes[code]
}
