//go:build !darwin && !windows && !(linux && !android)

package main

import (
	"sync"

	"gioui.org/app"

	"pressviz/cmd/pressviz/internal/ui"
	"pressviz/internal/logging"
	"pressviz/internal/overlay"
	"pressviz/internal/screen"
)

var unsupportedOnce sync.Once

// nativeWindow leaves the gio window as it is: this platform has no
// overlay window support.
type nativeWindow struct {
	logger *logging.Logger
}

func newNativeWindow(logger *logging.Logger) *nativeWindow {
	return &nativeWindow{logger: logger}
}

func (n *nativeWindow) attach(e app.ViewEvent, _ overlay.SurfaceOptions) bool {
	unsupportedOnce.Do(func() {
		n.logger.Warn("overlay windows are not supported on this platform; surfaces are regular windows")
	})
	return false
}

func (n *nativeWindow) attached() bool                     { return false }
func (n *nativeWindow) place(screen.Topology, screen.Display) {}
func (n *nativeWindow) shape([]ui.Shape, float32)           {}
