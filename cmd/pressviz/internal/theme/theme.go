package theme

import (
	"image/color"
	"runtime"

	"gioui.org/unit"
	"gioui.org/widget/material"

	"pressviz/internal/overlay"
)

// Palette defines the overlay colors.
type Palette struct {
	Badge     color.NRGBA
	BadgeText color.NRGBA
	Ring      color.NRGBA
}

// Config defines the overlay metrics.
type Config struct {
	BadgeRadius  unit.Dp
	BadgePadX    unit.Dp
	BadgePadY    unit.Dp
	RingStroke   unit.Dp
	FontBadge    unit.Sp
	BadgeOpacity float64
}

// Theme wraps the material theme with overlay styling.
type Theme struct {
	*material.Theme
	Palette Palette
	Config  Config
}

// NewTheme creates a theme for the current OS.
func NewTheme(mtheme *material.Theme) *Theme {
	t := &Theme{
		Theme: mtheme,
		Config: Config{
			BadgeRadius:  unit.Dp(overlay.BadgeRadius),
			BadgePadX:    unit.Dp(overlay.BadgePadX),
			BadgePadY:    unit.Dp(overlay.BadgePadY),
			RingStroke:   unit.Dp(overlay.RingStroke),
			FontBadge:    unit.Sp(overlay.BadgeFontSize),
			BadgeOpacity: overlay.BadgeOpacity,
		},
	}

	switch runtime.GOOS {
	case "darwin":
		setupMacOSTheme(t)
	default:
		setupDefaultTheme(t)
	}
	return t
}

func setupMacOSTheme(t *Theme) {
	t.Palette = Palette{
		Badge:     color.NRGBA{A: 0xFF},
		BadgeText: color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
		Ring:      color.NRGBA{R: 0x0A, G: 0x84, B: 0xFF, A: 0xFF}, // Apple Blue
	}
}

func setupDefaultTheme(t *Theme) {
	t.Palette = Palette{
		Badge:     color.NRGBA{A: 0xFF},
		BadgeText: color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
		Ring:      color.NRGBA{R: 0x00, G: 0x78, B: 0xD4, A: 0xFF},
	}
}

// WithAlpha scales c's alpha by f in [0, 1].
func WithAlpha(c color.NRGBA, f float64) color.NRGBA {
	switch {
	case f <= 0:
		c.A = 0
	case f < 1:
		c.A = uint8(float64(c.A) * f)
	}
	return c
}
