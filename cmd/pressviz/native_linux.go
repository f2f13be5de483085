//go:build linux && !android

package main

/*
#cgo LDFLAGS: -lX11 -lXext

#include <X11/Xlib.h>
#include <X11/Xutil.h>
#include <X11/extensions/shape.h>

static void pv_x11Configure(Display *dpy, Window win, int clickThrough, int unmanaged, int transparent) {
	if (unmanaged) {
		XSetWindowAttributes attrs;
		attrs.override_redirect = True;
		XUnmapWindow(dpy, win);
		XChangeWindowAttributes(dpy, win, CWOverrideRedirect, &attrs);
	}
	if (clickThrough) {
		XShapeCombineRectangles(dpy, win, ShapeInput, 0, 0, NULL, 0, ShapeSet, Unsorted);
	}
	if (transparent) {
		XShapeCombineRectangles(dpy, win, ShapeBounding, 0, 0, NULL, 0, ShapeSet, Unsorted);
	}
	XMapRaised(dpy, win);
	XFlush(dpy);
}

static void pv_x11Place(Display *dpy, Window win, int x, int y, unsigned int w, unsigned int h) {
	XMoveResizeWindow(dpy, win, x, y, w, h);
	XRaiseWindow(dpy, win);
	XFlush(dpy);
}

static void pv_x11Shape(Display *dpy, Window win, XRectangle *rects, int n) {
	XShapeCombineRectangles(dpy, win, ShapeBounding, 0, 0, rects, n, ShapeSet, Unsorted);
	XRaiseWindow(dpy, win);
	XFlush(dpy);
}
*/
import "C"

import (
	"sync"
	"unsafe"

	"gioui.org/app"

	"pressviz/cmd/pressviz/internal/ui"
	"pressviz/internal/logging"
	"pressviz/internal/overlay"
	"pressviz/internal/screen"
)

var waylandOnce sync.Once

// nativeWindow configures the X11 window behind a gio view. The window is
// made override-redirect so the window manager neither decorates, stacks
// nor confines it to one workspace; the input region is emptied for
// click-through and the bounding region follows what is drawn.
//
// Wayland has no protocol gio exposes for any of this, so there the
// surfaces stay ordinary windows.
type nativeWindow struct {
	logger *logging.Logger

	mu      sync.Mutex
	display *C.Display
	window  C.Window
	opts    overlay.SurfaceOptions
}

func newNativeWindow(logger *logging.Logger) *nativeWindow {
	return &nativeWindow{logger: logger}
}

func (n *nativeWindow) attach(e app.ViewEvent, opts overlay.SurfaceOptions) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch v := e.(type) {
	case app.X11ViewEvent:
		if !v.Valid() {
			break
		}
		n.display = (*C.Display)(v.Display)
		n.window = C.Window(v.Window)
		n.opts = opts
		C.pv_x11Configure(n.display, n.window,
			cbool(opts.ClickThrough),
			cbool(opts.AlwaysOnTop || opts.AllSpaces),
			cbool(opts.Transparent))
		return true
	case app.WaylandViewEvent:
		if v.Valid() {
			waylandOnce.Do(func() {
				n.logger.Warn("overlay surfaces need X11; under Wayland they are regular opaque windows (build with -tags nowayland to use XWayland)")
			})
		}
	}
	n.display, n.window = nil, 0
	return false
}

func (n *nativeWindow) attached() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.display != nil
}

// place moves the window over d. X11 root coordinates start at the
// top-left corner of the combined display area.
func (n *nativeWindow) place(topo screen.Topology, d screen.Display) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.display == nil {
		return
	}
	r := rootFrame(topo, d)
	if r.Empty() {
		return
	}
	C.pv_x11Place(n.display, n.window, C.int(r.Min.X), C.int(r.Min.Y), C.uint(r.Dx()), C.uint(r.Dy()))
}

func (n *nativeWindow) shape(shapes []ui.Shape, _ float32) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.display == nil || !n.opts.Transparent {
		return
	}
	spans := ui.Spans(shapes)
	rects := make([]C.XRectangle, len(spans))
	for i, s := range spans {
		rects[i] = C.XRectangle{
			x:      C.short(s.Min.X),
			y:      C.short(s.Min.Y),
			width:  C.ushort(s.Dx()),
			height: C.ushort(s.Dy()),
		}
	}
	var ptr *C.XRectangle
	if len(rects) > 0 {
		ptr = (*C.XRectangle)(unsafe.Pointer(&rects[0]))
	}
	C.pv_x11Shape(n.display, n.window, ptr, C.int(len(rects)))
}

func cbool(b bool) C.int {
	if b {
		return 1
	}
	return 0
}
