//go:build linux

package hotkey

import "golang.design/x/hotkey"

// Option is Mod1 and Command is Mod4 on X11.
var modifierMap = map[Modifier]hotkey.Modifier{
	ModCtrl:    hotkey.ModCtrl,
	ModShift:   hotkey.ModShift,
	ModOption:  hotkey.Mod1,
	ModCommand: hotkey.Mod4,
}
