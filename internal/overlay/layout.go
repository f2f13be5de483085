package overlay

import (
	"math"
	"time"

	"pressviz/internal/aggregator"
	"pressviz/internal/keys"
	"pressviz/internal/screen"
)

// Badge and ring geometry in display points.
const (
	BadgeMargin    = 40.0
	BadgeInsetX    = 100.0
	BadgeInsetY    = 30.0
	BadgeFontSize  = 32.0
	BadgePadX      = 20.0
	BadgePadY      = 12.0
	BadgeRadius    = 12.0
	BadgeOpacity   = 0.75
	RingDiameter   = 50.0
	RingStroke     = 3.0
	RingStartScale = 0.5
	RingEndScale   = 1.5
	RingFade       = 400 * time.Millisecond
	PulsePeak      = 1.15
	pulseRise      = 80 * time.Millisecond
	pulseFall      = 120 * time.Millisecond
)

// BadgeCenter returns the badge center for a zone inside a display of the
// given size, in display-local coordinates.
func BadgeCenter(w, h float64, p keys.Position) screen.Point {
	row, col := p.Grid()
	var c screen.Point
	switch col {
	case 0:
		c.X = BadgeMargin + BadgeInsetX
	case 2:
		c.X = w - BadgeMargin - BadgeInsetX
	default:
		c.X = w / 2
	}
	switch row {
	case 0:
		c.Y = BadgeMargin + BadgeInsetY
	case 2:
		c.Y = h - BadgeMargin - BadgeInsetY
	default:
		c.Y = h / 2
	}
	return c
}

// PulseScale is the badge scale at now for a repeated press. The badge only
// pulses once the same text has been shown again.
func PulseScale(k aggregator.KeyState, now time.Time) float64 {
	if k.PressCount == 0 {
		return 1
	}
	t := now.Sub(k.ShownAt)
	switch {
	case t < 0:
		return 1
	case t < pulseRise:
		return 1 + (PulsePeak-1)*easeOut(float64(t)/float64(pulseRise))
	case t < pulseRise+pulseFall:
		f := float64(t-pulseRise) / float64(pulseFall)
		return PulsePeak - (PulsePeak-1)*easeInOut(f)
	}
	return 1
}

// Ring describes how to draw one marker.
type Ring struct {
	Center   screen.Point
	Diameter float64
	Opacity  float64
}

// RingFor returns the marker's appearance at now. A marker grows from half
// size while pressed and, once released, expands and fades out.
func RingFor(m aggregator.Marker, now time.Time) Ring {
	r := Ring{Center: m.Location, Diameter: RingDiameter, Opacity: 1}
	if m.Dragging {
		e := easeOut(clamp01(float64(now.Sub(m.CreatedAt)) / float64(RingFade)))
		r.Diameter = RingDiameter * (RingStartScale + (1-RingStartScale)*e)
		return r
	}
	e := easeOut(clamp01(float64(m.Age(now)) / float64(RingFade)))
	r.Diameter = RingDiameter * (1 + (RingEndScale-1)*e)
	r.Opacity = 1 - e
	return r
}

// Rings returns the appearance of every marker in s.
func Rings(s aggregator.Snapshot, now time.Time) []Ring {
	out := make([]Ring, 0, len(s.Markers))
	for _, m := range s.Markers {
		out = append(out, RingFor(m, now))
	}
	return out
}

func clamp01(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}

func easeOut(t float64) float64 {
	return 1 - (1-t)*(1-t)
}

func easeInOut(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - 2*(1-t)*(1-t)
}
