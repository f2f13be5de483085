//go:build windows

package main

import (
	"sync"

	"gioui.org/app"
	"golang.org/x/sys/windows"

	"pressviz/cmd/pressviz/internal/ui"
	"pressviz/internal/logging"
	"pressviz/internal/overlay"
	"pressviz/internal/screen"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")
	gdi32  = windows.NewLazySystemDLL("gdi32.dll")

	procGetWindowLongPtr          = user32.NewProc("GetWindowLongPtrW")
	procSetWindowLongPtr          = user32.NewProc("SetWindowLongPtrW")
	procSetLayeredWindowAttribute = user32.NewProc("SetLayeredWindowAttributes")
	procSetWindowPos              = user32.NewProc("SetWindowPos")
	procSetWindowRgn              = user32.NewProc("SetWindowRgn")
	procCreateRectRgn             = gdi32.NewProc("CreateRectRgn")
	procCombineRgn                = gdi32.NewProc("CombineRgn")
	procDeleteObject              = gdi32.NewProc("DeleteObject")
)

const (
	gwlExStyle = ^uintptr(19) // GWL_EXSTYLE (-20)

	wsExTransparent = 0x00000020
	wsExToolWindow  = 0x00000080
	wsExTopmost     = 0x00000008
	wsExLayered     = 0x00080000
	wsExNoActivate  = 0x08000000

	hwndTopmost = ^uintptr(0) // HWND_TOPMOST (-1)

	swpNoActivate  = 0x0010
	swpShowWindow  = 0x0040
	swpNoMove      = 0x0002
	swpNoSize      = 0x0001
	lwaAlpha       = 0x2
	rgnOr          = 2
	redrawOnChange = 1
)

// nativeWindow configures the Win32 window behind a gio view. Windows
// places windows in the virtual-screen space, whose origin is the primary
// display's top-left corner.
type nativeWindow struct {
	logger *logging.Logger

	mu   sync.Mutex
	hwnd uintptr
	opts overlay.SurfaceOptions
}

func newNativeWindow(logger *logging.Logger) *nativeWindow {
	return &nativeWindow{logger: logger}
}

func (n *nativeWindow) attach(e app.ViewEvent, opts overlay.SurfaceOptions) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	v, ok := e.(app.Win32ViewEvent)
	if !ok || !v.Valid() {
		n.hwnd = 0
		return false
	}
	n.hwnd = v.HWND
	n.opts = opts

	style, _, _ := procGetWindowLongPtr.Call(n.hwnd, gwlExStyle)
	style |= wsExToolWindow | wsExNoActivate
	if opts.ClickThrough {
		// Click-through needs a layered window; full alpha keeps it visible.
		style |= wsExLayered | wsExTransparent
	}
	if opts.AlwaysOnTop {
		style |= wsExTopmost
	}
	procSetWindowLongPtr.Call(n.hwnd, gwlExStyle, style)
	if opts.ClickThrough {
		procSetLayeredWindowAttribute.Call(n.hwnd, 0, 255, lwaAlpha)
	}
	if opts.Transparent {
		n.setRegion(nil)
	}
	if opts.AlwaysOnTop {
		procSetWindowPos.Call(n.hwnd, hwndTopmost, 0, 0, 0, 0, swpNoMove|swpNoSize|swpNoActivate|swpShowWindow)
	}
	return true
}

func (n *nativeWindow) attached() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.hwnd != 0
}

func (n *nativeWindow) place(topo screen.Topology, d screen.Display) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.hwnd == 0 {
		return
	}
	r := captureFrame(topo, d)
	after := uintptr(0)
	if n.opts.AlwaysOnTop {
		after = hwndTopmost
	}
	procSetWindowPos.Call(n.hwnd, after,
		uintptr(int32(r.Min.X)), uintptr(int32(r.Min.Y)),
		uintptr(r.Dx()), uintptr(r.Dy()),
		swpNoActivate|swpShowWindow)
}

func (n *nativeWindow) shape(shapes []ui.Shape, _ float32) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.hwnd == 0 || !n.opts.Transparent {
		return
	}
	n.setRegion(shapes)
}

// setRegion clips the window to shapes. The system owns the region once
// SetWindowRgn succeeds.
func (n *nativeWindow) setRegion(shapes []ui.Shape) {
	rgn, _, _ := procCreateRectRgn.Call(0, 0, 0, 0)
	if rgn == 0 {
		return
	}
	for _, s := range ui.Spans(shapes) {
		part, _, _ := procCreateRectRgn.Call(
			uintptr(int32(s.Min.X)), uintptr(int32(s.Min.Y)),
			uintptr(int32(s.Max.X)), uintptr(int32(s.Max.Y)))
		if part == 0 {
			continue
		}
		procCombineRgn.Call(rgn, rgn, part, rgnOr)
		procDeleteObject.Call(part)
	}
	if ok, _, _ := procSetWindowRgn.Call(n.hwnd, rgn, redrawOnChange); ok == 0 {
		procDeleteObject.Call(rgn)
	}
}
