//go:build !darwin && !linux

package capture

import "context"

// StubSession is used on unsupported platforms.
type StubSession struct {
	BaseSession
}

func newPlatformSession(h Handler, opts Options) Session {
	s := &StubSession{}
	s.init(h)
	return s
}

// Available returns false on unsupported platforms.
func (s *StubSession) Available() (bool, string) {
	return false, "input capture not implemented for this platform"
}

// Start returns ErrNotAvailable.
func (s *StubSession) Start(ctx context.Context) error {
	return ErrNotAvailable
}

// Stop is a no-op on unsupported platforms.
func (s *StubSession) Stop() error {
	return nil
}
