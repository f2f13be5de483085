//go:build linux

package permissions

import (
	"errors"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// ErrNeedsInputGroup explains how to grant access on Linux, where there is
// no prompt.
var ErrNeedsInputGroup = errors.New("read access to /dev/input/event* is required: add the user to the 'input' group and log in again")

type evdevChecker struct {
	pattern string
}

func platformChecker() Checker {
	return evdevChecker{pattern: "/dev/input/event*"}
}

// Check reports granted when at least one event device is readable.
func (c evdevChecker) Check() Status {
	paths, err := filepath.Glob(c.pattern)
	if err != nil || len(paths) == 0 {
		return StatusUnavailable
	}
	for _, p := range paths {
		if unix.Access(p, unix.R_OK) == nil {
			return StatusGranted
		}
	}
	return StatusDenied
}

func (c evdevChecker) Request() error {
	if c.Check() == StatusGranted {
		return nil
	}
	return ErrNeedsInputGroup
}
