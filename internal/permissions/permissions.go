// Package permissions reports and requests the OS permission that global
// input capture needs, and notifies when it changes.
package permissions

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"pressviz/internal/logging"
)

// Status is the state of the input-monitoring permission.
type Status int

const (
	StatusUnknown Status = iota
	StatusGranted
	StatusDenied
	// StatusPrompt means the OS has not asked the user yet.
	StatusPrompt
	// StatusUnavailable means the platform has no global input capture.
	StatusUnavailable
)

func (s Status) String() string {
	switch s {
	case StatusGranted:
		return "granted"
	case StatusDenied:
		return "denied"
	case StatusPrompt:
		return "prompt"
	case StatusUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// ParseStatus parses a status name.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "granted":
		return StatusGranted, nil
	case "denied":
		return StatusDenied, nil
	case "prompt":
		return StatusPrompt, nil
	case "unavailable":
		return StatusUnavailable, nil
	case "unknown":
		return StatusUnknown, nil
	}
	return StatusUnknown, fmt.Errorf("unknown permission status %q", s)
}

// EnvOverride names the variable that forces the reported status.
const EnvOverride = "PRESSVIZ_INPUT_MONITORING"

// DefaultPollInterval is how often Watch re-checks the permission.
const DefaultPollInterval = time.Second

// Checker is the platform probe.
type Checker interface {
	Check() Status
	// Request asks the OS to prompt the user, or explains how to grant
	// access where no prompt exists.
	Request() error
}

// CheckerFunc adapts a function to a Checker whose Request does nothing.
type CheckerFunc func() Status

func (f CheckerFunc) Check() Status  { return f() }
func (f CheckerFunc) Request() error { return nil }

// Provider reports the permission status.
type Provider struct {
	checker  Checker
	logger   *logging.Logger
	override Status
	forced   bool
}

// New returns the provider for this platform. PRESSVIZ_INPUT_MONITORING,
// when set to a status name, replaces the platform probe.
func New(logger *logging.Logger) *Provider {
	return NewWithChecker(platformChecker(), logger)
}

// NewWithChecker returns a provider backed by c.
func NewWithChecker(c Checker, logger *logging.Logger) *Provider {
	if logger == nil {
		logger = logging.Discard()
	}
	p := &Provider{checker: c, logger: logger.WithComponent("permissions")}
	if v := os.Getenv(EnvOverride); v != "" {
		s, err := ParseStatus(v)
		if err != nil {
			p.logger.Warn("ignoring permission override", "value", v, "error", err)
		} else {
			p.override, p.forced = s, true
		}
	}
	return p
}

// Status returns the current permission status.
func (p *Provider) Status() Status {
	if p.forced {
		return p.override
	}
	return p.checker.Check()
}

// Request prompts for the permission.
func (p *Provider) Request() error {
	if p.forced {
		return nil
	}
	if err := p.checker.Request(); err != nil {
		return fmt.Errorf("request input monitoring: %w", err)
	}
	return nil
}

// Watch polls the status every interval and sends the current status first
// and then every change. The channel closes when ctx is done.
func (p *Provider) Watch(ctx context.Context, interval time.Duration) <-chan Status {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ch := make(chan Status, 1)

	go func() {
		defer close(ch)

		last := p.Status()
		select {
		case ch <- last:
		case <-ctx.Done():
			return
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s := p.Status()
				if s == last {
					continue
				}
				p.logger.Info("permission changed", "from", last.String(), "to", s.String())
				last = s
				select {
				case ch <- s:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch
}

// WaitGranted blocks until the status is granted or ctx is done.
func (p *Provider) WaitGranted(ctx context.Context, interval time.Duration) error {
	for s := range p.Watch(ctx, interval) {
		if s == StatusGranted {
			return nil
		}
	}
	return ctx.Err()
}
