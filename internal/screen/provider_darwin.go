//go:build darwin

package screen

/*
#cgo CFLAGS: -x objective-c -fobjc-arc
#cgo LDFLAGS: -framework Cocoa -framework CoreGraphics

#include <Cocoa/Cocoa.h>
#include <CoreGraphics/CoreGraphics.h>

typedef struct {
    double x, y, w, h, scale;
    unsigned int id;
} screenInfo;

// Fills out with at most max screens; the first entry is the primary.
static int copyScreens(screenInfo *out, int max) {
    @autoreleasepool {
        NSArray<NSScreen *> *screens = [NSScreen screens];
        int n = 0;
        for (NSScreen *s in screens) {
            if (n >= max) {
                break;
            }
            NSRect f = [s frame];
            NSNumber *num = [[s deviceDescription] objectForKey:@"NSScreenNumber"];
            out[n].x = f.origin.x;
            out[n].y = f.origin.y;
            out[n].w = f.size.width;
            out[n].h = f.size.height;
            out[n].scale = [s backingScaleFactor];
            out[n].id = num ? [num unsignedIntValue] : (unsigned int)n;
            n++;
        }
        return n;
    }
}

static int cursorLocation(double *x, double *y) {
    CGEventRef ev = CGEventCreate(NULL);
    if (ev == NULL) {
        return 0;
    }
    CGPoint p = CGEventGetLocation(ev);
    CFRelease(ev);
    *x = p.x;
    *y = p.y;
    return 1;
}
*/
import "C"

import (
	"context"
	"fmt"

	"pressviz/internal/logging"
)

const maxScreens = 16

// CocoaProvider reads NSScreen frames, which are already in topology space.
type CocoaProvider struct {
	logger *logging.Logger
}

// NewPlatformProvider returns the display provider for this platform.
func NewPlatformProvider(logger *logging.Logger) Provider {
	if logger == nil {
		logger = logging.Discard()
	}
	return &CocoaProvider{logger: logger}
}

// Displays returns the connected screens.
func (c *CocoaProvider) Displays(ctx context.Context) (Topology, error) {
	var buf [maxScreens]C.screenInfo
	n := int(C.copyScreens(&buf[0], C.int(maxScreens)))
	if n == 0 {
		return nil, fmt.Errorf("no screens reported")
	}

	topo := make(Topology, 0, n)
	for i := 0; i < n; i++ {
		s := buf[i]
		topo = append(topo, Display{
			ID:      fmt.Sprintf("%d", uint32(s.id)),
			Name:    fmt.Sprintf("Display %d", i+1),
			Frame:   Rect{X: float64(s.x), Y: float64(s.y), W: float64(s.w), H: float64(s.h)},
			Primary: i == 0,
			Scale:   float64(s.scale),
		})
	}
	return topo, nil
}

// CursorLocation returns the pointer location in capture space.
func (c *CocoaProvider) CursorLocation() (Point, bool) {
	var x, y C.double
	if C.cursorLocation(&x, &y) == 0 {
		return Point{}, false
	}
	return Point{X: float64(x), Y: float64(y)}, true
}

var (
	_ Provider     = (*CocoaProvider)(nil)
	_ CursorSource = (*CocoaProvider)(nil)
)
