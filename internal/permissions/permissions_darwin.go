//go:build darwin

package permissions

/*
#cgo CFLAGS: -x objective-c -fobjc-arc
#cgo LDFLAGS: -framework ApplicationServices -framework Foundation

#include <ApplicationServices/ApplicationServices.h>
#import <Foundation/Foundation.h>

static int pv_checkAccessibility(void) {
    NSDictionary* options = @{(__bridge id)kAXTrustedCheckOptionPrompt: @NO};
    return AXIsProcessTrustedWithOptions((__bridge CFDictionaryRef)options) ? 1 : 0;
}

static int pv_promptAccessibility(void) {
    NSDictionary* options = @{(__bridge id)kAXTrustedCheckOptionPrompt: @YES};
    return AXIsProcessTrustedWithOptions((__bridge CFDictionaryRef)options) ? 1 : 0;
}
*/
import "C"

import (
	"os/exec"
)

const accessibilitySettingsURL = "x-apple.systempreferences:com.apple.preference.security?Privacy_Accessibility"

type axChecker struct{}

func platformChecker() Checker {
	return axChecker{}
}

func (axChecker) Check() Status {
	if C.pv_checkAccessibility() == 1 {
		return StatusGranted
	}
	return StatusDenied
}

// Request shows the system prompt and opens the Accessibility pane.
func (axChecker) Request() error {
	if C.pv_promptAccessibility() == 1 {
		return nil
	}
	return exec.Command("open", accessibilitySettingsURL).Start()
}
