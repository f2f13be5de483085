package capture

import (
	"context"
	"sync"
	"time"
)

// Simulated is a session for tests and headless runs that doesn't hook the
// real input stream. Emit feeds events through the same gate a platform
// backend uses.
type Simulated struct {
	BaseSession

	permMu sync.Mutex
	deny   bool
}

// NewSimulated creates a simulated session delivering to h.
func NewSimulated(h Handler) *Simulated {
	s := &Simulated{}
	s.init(h)
	return s
}

// DenyPermission makes subsequent Start calls fail with ErrPermissionDenied.
func (s *Simulated) DenyPermission(deny bool) {
	s.permMu.Lock()
	s.deny = deny
	s.permMu.Unlock()
}

// Start opens the gate.
func (s *Simulated) Start(ctx context.Context) error {
	if s.Running() {
		return nil
	}
	s.permMu.Lock()
	deny := s.deny
	s.permMu.Unlock()
	if deny {
		return ErrPermissionDenied
	}
	s.SetRunning(true)
	return nil
}

// Stop closes the gate.
func (s *Simulated) Stop() error {
	s.SetRunning(false)
	return nil
}

// Emit delivers ev as if the OS produced it. A zero timestamp is replaced
// with the current time.
func (s *Simulated) Emit(ev RawEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	s.Deliver(ev)
}

// Available always reports true.
func (s *Simulated) Available() (bool, string) {
	return true, "simulated input"
}

var _ Session = (*Simulated)(nil)
