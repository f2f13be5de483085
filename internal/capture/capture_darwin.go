//go:build darwin

package capture

/*
#cgo CFLAGS: -x objective-c -fobjc-arc
#cgo LDFLAGS: -framework ApplicationServices -framework CoreGraphics -framework Cocoa

#include <ApplicationServices/ApplicationServices.h>
#include <Cocoa/Cocoa.h>
#include <stdint.h>
#include <stdlib.h>
#include <string.h>

extern CGEventRef goCaptureEvent(CGEventTapProxy proxy, CGEventType type, CGEventRef event, void *userInfo);

static CGEventMask captureMask(void) {
    return CGEventMaskBit(kCGEventKeyDown) |
           CGEventMaskBit(kCGEventKeyUp) |
           CGEventMaskBit(kCGEventFlagsChanged) |
           CGEventMaskBit(kCGEventLeftMouseDown) |
           CGEventMaskBit(kCGEventLeftMouseUp) |
           CGEventMaskBit(kCGEventRightMouseDown) |
           CGEventMaskBit(kCGEventRightMouseUp) |
           CGEventMaskBit(kCGEventOtherMouseDown) |
           CGEventMaskBit(kCGEventOtherMouseUp) |
           CGEventMaskBit(kCGEventLeftMouseDragged) |
           CGEventMaskBit(kCGEventRightMouseDragged) |
           CGEventMaskBit(kCGEventOtherMouseDragged);
}

// Listen-only: the tap can never consume or rewrite an event.
static CFMachPortRef createTap(uintptr_t handle) {
    return CGEventTapCreate(kCGSessionEventTap,
                            kCGHeadInsertEventTap,
                            kCGEventTapOptionListenOnly,
                            captureMask(),
                            goCaptureEvent,
                            (void *)handle);
}

static CFRunLoopSourceRef attachTap(CFMachPortRef tap, CFRunLoopRef loop) {
    CFRunLoopSourceRef source = CFMachPortCreateRunLoopSource(kCFAllocatorDefault, tap, 0);
    if (source == NULL) {
        return NULL;
    }
    CFRunLoopAddSource(loop, source, kCFRunLoopCommonModes);
    CGEventTapEnable(tap, true);
    return source;
}

static void enableTap(CFMachPortRef tap, bool on) {
    if (tap != NULL) {
        CGEventTapEnable(tap, on);
    }
}

static CFRunLoopRef currentRunLoop(void) { return CFRunLoopGetCurrent(); }
static void runLoop(void) { CFRunLoopRun(); }
static void stopLoop(CFRunLoopRef loop) { CFRunLoopStop(loop); }

static double eventX(CGEventRef event) { return CGEventGetLocation(event).x; }
static double eventY(CGEventRef event) { return CGEventGetLocation(event).y; }
static uint64_t eventFlags(CGEventRef event) { return (uint64_t)CGEventGetFlags(event); }

static int64_t eventKeycode(CGEventRef event) {
    return CGEventGetIntegerValueField(event, kCGKeyboardEventKeycode);
}

static int64_t eventButton(CGEventRef event) {
    return CGEventGetIntegerValueField(event, kCGMouseEventButtonNumber);
}

// Caller frees the result.
static char *eventCharacters(CGEventRef event) {
    @autoreleasepool {
        NSEvent *ns = [NSEvent eventWithCGEvent:event];
        if (ns == nil) {
            return NULL;
        }
        NSString *chars = [ns charactersIgnoringModifiers];
        if (chars == nil || [chars length] == 0) {
            return NULL;
        }
        const char *utf8 = [chars UTF8String];
        return utf8 ? strdup(utf8) : NULL;
    }
}

static int axTrusted(void) {
    NSDictionary *options = @{(__bridge id)kAXTrustedCheckOptionPrompt: @NO};
    return AXIsProcessTrustedWithOptions((__bridge CFDictionaryRef)options) ? 1 : 0;
}
*/
import "C"

import (
	"context"
	"errors"
	"runtime"
	"runtime/cgo"
	"sync"
	"unsafe"
)

// DarwinSession uses a listen-only CGEventTap on a dedicated OS thread
// running its own CFRunLoop.
type DarwinSession struct {
	BaseSession
	opts Options

	lifeMu sync.Mutex
	tap    C.CFMachPortRef
	loop   C.CFRunLoopRef
	handle cgo.Handle
	done   chan struct{}
}

func newPlatformSession(h Handler, opts Options) Session {
	s := &DarwinSession{opts: opts}
	s.init(h)
	return s
}

// Available checks whether the process is trusted for event taps.
func (d *DarwinSession) Available() (bool, string) {
	if C.axTrusted() == 1 {
		return true, "CGEventTap available"
	}
	return false, "Input Monitoring permission required. Go to System Settings > Privacy & Security > Input Monitoring and enable this application."
}

// Start installs the tap and starts the run loop thread. It blocks until the
// tap is enabled or creation failed.
func (d *DarwinSession) Start(ctx context.Context) error {
	d.lifeMu.Lock()
	defer d.lifeMu.Unlock()

	if d.Running() {
		return nil
	}

	started := make(chan error, 1)
	d.done = make(chan struct{})
	d.handle = cgo.NewHandle(d)

	go d.runLoopThread(started)

	if err := <-started; err != nil {
		<-d.done
		d.handle.Delete()
		return err
	}

	d.SetRunning(true)
	d.opts.Logger.Info("event tap installed")

	if ctx != nil {
		done := d.done
		go func() {
			select {
			case <-ctx.Done():
				d.Stop()
			case <-done:
			}
		}()
	}
	return nil
}

func (d *DarwinSession) runLoopThread(started chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(d.done)

	tap := C.createTap(C.uintptr_t(d.handle))
	if tap == 0 {
		started <- ErrPermissionDenied
		return
	}
	loop := C.currentRunLoop()
	source := C.attachTap(tap, loop)
	if source == 0 {
		C.CFRelease(C.CFTypeRef(tap))
		started <- errors.New("failed to create run loop source")
		return
	}

	d.tap = tap
	d.loop = loop
	started <- nil

	C.runLoop()

	C.CFRunLoopRemoveSource(loop, source, C.kCFRunLoopCommonModes)
	C.CFRelease(C.CFTypeRef(source))
	C.CFRelease(C.CFTypeRef(tap))
}

// Stop closes the delivery gate, disables the tap, stops the run loop and
// waits for the thread to release its resources.
func (d *DarwinSession) Stop() error {
	d.lifeMu.Lock()
	defer d.lifeMu.Unlock()

	if !d.Running() {
		return nil
	}
	d.SetRunning(false)

	C.enableTap(d.tap, C.bool(false))
	C.stopLoop(d.loop)
	<-d.done

	d.tap = 0
	d.loop = 0
	d.handle.Delete()
	d.opts.Logger.Info("event tap removed")
	return nil
}

func (d *DarwinSession) translate(eventType C.CGEventType, event C.CGEventRef) {
	var t EventType
	switch eventType {
	case C.kCGEventKeyDown:
		t = KeyDown
	case C.kCGEventKeyUp:
		t = KeyUp
	case C.kCGEventFlagsChanged:
		t = FlagsChanged
	case C.kCGEventLeftMouseDown, C.kCGEventRightMouseDown, C.kCGEventOtherMouseDown:
		t = MouseDown
	case C.kCGEventLeftMouseUp, C.kCGEventRightMouseUp, C.kCGEventOtherMouseUp:
		t = MouseUp
	case C.kCGEventLeftMouseDragged, C.kCGEventRightMouseDragged, C.kCGEventOtherMouseDragged:
		t = MouseDragged
	default:
		return
	}

	ev := RawEvent{
		Type:      t,
		X:         float64(C.eventX(event)),
		Y:         float64(C.eventY(event)),
		Flags:     uint64(C.eventFlags(event)),
		Timestamp: d.opts.Clock(),
	}

	switch t {
	case KeyDown, KeyUp, FlagsChanged:
		ev.KeyCode = uint16(C.eventKeycode(event))
		if t == KeyDown {
			if cs := C.eventCharacters(event); cs != nil {
				ev.Characters = C.GoString(cs)
				C.free(unsafe.Pointer(cs))
			}
		}
	default:
		ev.Button = int(C.eventButton(event))
	}

	d.Deliver(ev)
}

//export goCaptureEvent
func goCaptureEvent(_ C.CGEventTapProxy, eventType C.CGEventType, event C.CGEventRef, userInfo unsafe.Pointer) C.CGEventRef {
	d, ok := cgo.Handle(uintptr(userInfo)).Value().(*DarwinSession)
	if !ok {
		return event
	}

	// The system disables slow taps; turn ours back on.
	if eventType == C.kCGEventTapDisabledByTimeout || eventType == C.kCGEventTapDisabledByUserInput {
		d.tapDisabled.Add(1)
		if d.open.Load() {
			C.enableTap(d.tap, C.bool(true))
		}
		return event
	}

	if !d.open.Load() {
		d.dropped.Add(1)
		return event
	}
	d.translate(eventType, event)
	return event
}

var _ Session = (*DarwinSession)(nil)
