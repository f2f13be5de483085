//go:build darwin

package main

/*
#cgo CFLAGS: -x objective-c -fobjc-arc
#cgo LDFLAGS: -framework AppKit -framework QuartzCore

#import <AppKit/AppKit.h>
#import <QuartzCore/QuartzCore.h>

typedef struct {
	int ring;
	double x, y, w, h;
	double radius, width;
} pv_shape;

static void pv_configureOverlay(CFTypeRef viewRef, int clickThrough, int onTop, int allSpaces, int transparent) {
	NSView *view = (__bridge NSView *)viewRef;
	dispatch_async(dispatch_get_main_queue(), ^{
		NSWindow *window = [view window];
		if (window == nil) {
			return;
		}
		[window setStyleMask:NSWindowStyleMaskBorderless];
		[window setHasShadow:NO];
		if (transparent) {
			[window setOpaque:NO];
			[window setBackgroundColor:[NSColor clearColor]];
			view.wantsLayer = YES;
			view.layer.opaque = NO;
			view.layer.mask = [CALayer layer];
		}
		if (clickThrough) {
			[window setIgnoresMouseEvents:YES];
		}
		if (onTop) {
			[window setLevel:NSScreenSaverWindowLevel];
		}
		if (allSpaces) {
			[window setCollectionBehavior:NSWindowCollectionBehaviorCanJoinAllSpaces |
				NSWindowCollectionBehaviorStationary |
				NSWindowCollectionBehaviorIgnoresCycle |
				NSWindowCollectionBehaviorFullScreenAuxiliary];
		}
		[window orderFrontRegardless];
	});
}

static void pv_setFrame(CFTypeRef viewRef, double x, double y, double w, double h) {
	NSView *view = (__bridge NSView *)viewRef;
	dispatch_async(dispatch_get_main_queue(), ^{
		NSWindow *window = [view window];
		if (window == nil) {
			return;
		}
		[window setFrame:NSMakeRect(x, y, w, h) display:YES];
		[window orderFrontRegardless];
	});
}

static void pv_setMask(CFTypeRef viewRef, const pv_shape *shapes, int n) {
	NSView *view = (__bridge NSView *)viewRef;
	NSData *data = [NSData dataWithBytes:shapes length:sizeof(pv_shape) * n];
	dispatch_async(dispatch_get_main_queue(), ^{
		CALayer *mask = view.layer.mask;
		if (mask == nil) {
			return;
		}
		[CATransaction begin];
		[CATransaction setDisableActions:YES];
		mask.frame = view.layer.bounds;
		mask.sublayers = nil;

		CGFloat height = view.bounds.size.height;
		BOOL flipped = [view isFlipped];
		const pv_shape *s = data.bytes;
		for (int i = 0; i < n; i++) {
			CGFloat y = flipped ? s[i].y : height - s[i].y - s[i].h;
			CGRect r = CGRectMake(s[i].x, y, s[i].w, s[i].h);
			CAShapeLayer *l = [CAShapeLayer layer];
			l.frame = mask.bounds;
			CGPathRef path;
			if (s[i].ring) {
				path = CGPathCreateWithEllipseInRect(r, NULL);
				l.fillColor = nil;
				l.strokeColor = [NSColor blackColor].CGColor;
				l.lineWidth = s[i].width;
			} else {
				path = CGPathCreateWithRoundedRect(r, s[i].radius, s[i].radius, NULL);
				l.fillColor = [NSColor blackColor].CGColor;
			}
			l.path = path;
			CGPathRelease(path);
			[mask addSublayer:l];
		}
		[CATransaction commit];
	});
}
*/
import "C"

import (
	"math"
	"sync"
	"unsafe"

	"gioui.org/app"

	"pressviz/cmd/pressviz/internal/ui"
	"pressviz/internal/logging"
	"pressviz/internal/overlay"
	"pressviz/internal/screen"
)

// nativeWindow configures the AppKit window behind a gio view. Cocoa
// window frames use the same bottom-left space as the display topology.
type nativeWindow struct {
	logger *logging.Logger

	mu   sync.Mutex
	view uintptr // NSView, retained by gio until the next view event
	opts overlay.SurfaceOptions
}

func newNativeWindow(logger *logging.Logger) *nativeWindow {
	return &nativeWindow{logger: logger}
}

func (n *nativeWindow) attach(e app.ViewEvent, opts overlay.SurfaceOptions) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	v, ok := e.(app.AppKitViewEvent)
	if !ok || !v.Valid() {
		n.view = 0
		return false
	}
	n.view = v.View
	n.opts = opts
	C.pv_configureOverlay(n.ref(), cbool(opts.ClickThrough), cbool(opts.AlwaysOnTop), cbool(opts.AllSpaces), cbool(opts.Transparent))
	return true
}

func (n *nativeWindow) attached() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.view != 0
}

func (n *nativeWindow) place(_ screen.Topology, d screen.Display) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.view == 0 {
		return
	}
	f := d.Frame
	C.pv_setFrame(n.ref(), C.double(f.X), C.double(f.Y), C.double(f.W), C.double(f.H))
}

// shape masks the view to shapes, given in pixels. AppKit works in points.
func (n *nativeWindow) shape(shapes []ui.Shape, pxPerDp float32) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.view == 0 || !n.opts.Transparent {
		return
	}
	scale := float64(pxPerDp)
	if scale <= 0 {
		scale = 1
	}

	cs := make([]C.pv_shape, len(shapes))
	for i, s := range shapes {
		b := s.Bounds.Canon()
		w, h := float64(b.Dx())/scale, float64(b.Dy())/scale
		cs[i] = C.pv_shape{
			x:      C.double(float64(b.Min.X) / scale),
			y:      C.double(float64(b.Min.Y) / scale),
			w:      C.double(w),
			h:      C.double(h),
			radius: C.double(math.Min(float64(s.Radius)/scale, math.Min(w, h)/2)),
			width:  C.double(float64(s.Width) / scale),
		}
		if s.Kind == ui.ShapeRing {
			cs[i].ring = 1
		}
	}
	var ptr *C.pv_shape
	if len(cs) > 0 {
		ptr = &cs[0]
	}
	C.pv_setMask(n.ref(), ptr, C.int(len(cs)))
}

func (n *nativeWindow) ref() C.CFTypeRef {
	return C.CFTypeRef(unsafe.Pointer(n.view))
}

func cbool(b bool) C.int {
	if b {
		return 1
	}
	return 0
}
