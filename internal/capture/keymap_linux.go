//go:build linux

package capture

import (
	"github.com/holoplot/go-evdev"

	"pressviz/internal/keys"
)

// linuxKeymap translates evdev key codes into the canonical code space.
var linuxKeymap = map[evdev.EvCode]keys.Code{
	evdev.KEY_A: keys.CodeA, evdev.KEY_B: keys.CodeB, evdev.KEY_C: keys.CodeC,
	evdev.KEY_D: keys.CodeD, evdev.KEY_E: keys.CodeE, evdev.KEY_F: keys.CodeF,
	evdev.KEY_G: keys.CodeG, evdev.KEY_H: keys.CodeH, evdev.KEY_I: keys.CodeI,
	evdev.KEY_J: keys.CodeJ, evdev.KEY_K: keys.CodeK, evdev.KEY_L: keys.CodeL,
	evdev.KEY_M: keys.CodeM, evdev.KEY_N: keys.CodeN, evdev.KEY_O: keys.CodeO,
	evdev.KEY_P: keys.CodeP, evdev.KEY_Q: keys.CodeQ, evdev.KEY_R: keys.CodeR,
	evdev.KEY_S: keys.CodeS, evdev.KEY_T: keys.CodeT, evdev.KEY_U: keys.CodeU,
	evdev.KEY_V: keys.CodeV, evdev.KEY_W: keys.CodeW, evdev.KEY_X: keys.CodeX,
	evdev.KEY_Y: keys.CodeY, evdev.KEY_Z: keys.CodeZ,

	evdev.KEY_1: keys.Code1, evdev.KEY_2: keys.Code2, evdev.KEY_3: keys.Code3,
	evdev.KEY_4: keys.Code4, evdev.KEY_5: keys.Code5, evdev.KEY_6: keys.Code6,
	evdev.KEY_7: keys.Code7, evdev.KEY_8: keys.Code8, evdev.KEY_9: keys.Code9,
	evdev.KEY_0: keys.Code0,

	evdev.KEY_ENTER:     keys.CodeReturn,
	evdev.KEY_TAB:       keys.CodeTab,
	evdev.KEY_SPACE:     keys.CodeSpace,
	evdev.KEY_BACKSPACE: keys.CodeDelete,
	evdev.KEY_ESC:       keys.CodeEscape,
	evdev.KEY_DELETE:    keys.CodeForwardDelete,
	evdev.KEY_HOME:      keys.CodeHome,
	evdev.KEY_END:       keys.CodeEnd,
	evdev.KEY_PAGEUP:    keys.CodePageUp,
	evdev.KEY_PAGEDOWN:  keys.CodePageDown,
	evdev.KEY_UP:        keys.CodeUpArrow,
	evdev.KEY_DOWN:      keys.CodeDownArrow,
	evdev.KEY_LEFT:      keys.CodeLeftArrow,
	evdev.KEY_RIGHT:     keys.CodeRightArrow,

	evdev.KEY_F1: keys.CodeF1, evdev.KEY_F2: keys.CodeF2, evdev.KEY_F3: keys.CodeF3,
	evdev.KEY_F4: keys.CodeF4, evdev.KEY_F5: keys.CodeF5, evdev.KEY_F6: keys.CodeF6,
	evdev.KEY_F7: keys.CodeF7, evdev.KEY_F8: keys.CodeF8, evdev.KEY_F9: keys.CodeF9,
	evdev.KEY_F10: keys.CodeF10, evdev.KEY_F11: keys.CodeF11, evdev.KEY_F12: keys.CodeF12,
	evdev.KEY_F13: keys.CodeF13, evdev.KEY_F14: keys.CodeF14, evdev.KEY_F15: keys.CodeF15,
	evdev.KEY_F16: keys.CodeF16, evdev.KEY_F17: keys.CodeF17, evdev.KEY_F18: keys.CodeF18,
	evdev.KEY_F19: keys.CodeF19, evdev.KEY_F20: keys.CodeF20,

	evdev.KEY_MINUS:      keys.CodeMinus,
	evdev.KEY_EQUAL:      keys.CodeEqual,
	evdev.KEY_LEFTBRACE:  keys.CodeLeftBracket,
	evdev.KEY_RIGHTBRACE: keys.CodeRightBracket,
	evdev.KEY_BACKSLASH:  keys.CodeBackslash,
	evdev.KEY_SEMICOLON:  keys.CodeSemicolon,
	evdev.KEY_APOSTROPHE: keys.CodeQuote,
	evdev.KEY_COMMA:      keys.CodeComma,
	evdev.KEY_DOT:        keys.CodePeriod,
	evdev.KEY_SLASH:      keys.CodeSlash,
	evdev.KEY_GRAVE:      keys.CodeGrave,

	evdev.KEY_KP0: keys.CodeKeypad0, evdev.KEY_KP1: keys.CodeKeypad1,
	evdev.KEY_KP2: keys.CodeKeypad2, evdev.KEY_KP3: keys.CodeKeypad3,
	evdev.KEY_KP4: keys.CodeKeypad4, evdev.KEY_KP5: keys.CodeKeypad5,
	evdev.KEY_KP6: keys.CodeKeypad6, evdev.KEY_KP7: keys.CodeKeypad7,
	evdev.KEY_KP8: keys.CodeKeypad8, evdev.KEY_KP9: keys.CodeKeypad9,
	evdev.KEY_KPDOT:      keys.CodeKeypadDecimal,
	evdev.KEY_KPASTERISK: keys.CodeKeypadMultiply,
	evdev.KEY_KPPLUS:     keys.CodeKeypadPlus,
	evdev.KEY_KPMINUS:    keys.CodeKeypadMinus,
	evdev.KEY_KPSLASH:    keys.CodeKeypadDivide,
	evdev.KEY_KPENTER:    keys.CodeKeypadEnter,
	evdev.KEY_KPEQUAL:    keys.CodeKeypadEquals,
	evdev.KEY_NUMLOCK:    keys.CodeKeypadClear,

	evdev.KEY_LEFTSHIFT:  keys.CodeShift,
	evdev.KEY_RIGHTSHIFT: keys.CodeRightShift,
	evdev.KEY_LEFTCTRL:   keys.CodeControl,
	evdev.KEY_RIGHTCTRL:  keys.CodeRightControl,
	evdev.KEY_LEFTALT:    keys.CodeOption,
	evdev.KEY_RIGHTALT:   keys.CodeRightOption,
	evdev.KEY_LEFTMETA:   keys.CodeCommand,
	evdev.KEY_RIGHTMETA:  keys.CodeRightCommand,
	evdev.KEY_CAPSLOCK:   keys.CodeCapsLock,
	evdev.KEY_FN:         keys.CodeFunction,
}

// linuxButtons maps evdev pointer buttons to button numbers.
var linuxButtons = map[evdev.EvCode]int{
	evdev.BTN_LEFT:   0,
	evdev.BTN_RIGHT:  1,
	evdev.BTN_MIDDLE: 2,
	evdev.BTN_SIDE:   3,
	evdev.BTN_EXTRA:  4,
}

func translateLinuxKeycode(code evdev.EvCode) (keys.Code, bool) {
	c, ok := linuxKeymap[code]
	return c, ok
}
