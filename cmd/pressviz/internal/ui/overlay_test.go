package ui

import (
	"image"
	"testing"
	"time"

	"gioui.org/font/gofont"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget/material"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pressviz/cmd/pressviz/internal/theme"
	"pressviz/internal/aggregator"
	"pressviz/internal/keys"
	"pressviz/internal/overlay"
	"pressviz/internal/screen"
)

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testTheme() *theme.Theme {
	mt := material.NewTheme()
	mt.Shaper = text.NewShaper(text.NoSystemFonts(), text.WithCollection(gofont.Collection()))
	return theme.NewTheme(mt)
}

func testContext(size image.Point) layout.Context {
	gtx := layout.Context{
		Ops:         new(op.Ops),
		Metric:      unit.Metric{PxPerDp: 1, PxPerSp: 1},
		Constraints: layout.Exact(size),
		Now:         now,
	}
	gtx.Constraints.Min = image.Point{}
	return gtx
}

// =============================================================================
// Tests for Overlay.Layout
// =============================================================================

func TestLayoutHiddenKeyDrawsNothing(t *testing.T) {
	o := NewOverlay(testTheme(), overlay.KindKeyText)
	f := o.Layout(testContext(image.Pt(1440, 900)), aggregator.Snapshot{}, now)
	assert.Empty(t, f.Shapes)
	assert.False(t, f.Animating)
	assert.Equal(t, image.Pt(1440, 900), f.Dims.Size)
}

func TestLayoutBadgeShapeAtZone(t *testing.T) {
	o := NewOverlay(testTheme(), overlay.KindKeyText)
	snap := aggregator.Snapshot{Key: aggregator.KeyState{
		Text: "⌘C", Visible: true, Position: keys.BottomCenter, ShownAt: now,
	}}

	f := o.Layout(testContext(image.Pt(1440, 900)), snap, now)
	require.Len(t, f.Shapes, 1)
	s := f.Shapes[0]
	assert.Equal(t, ShapeRoundRect, s.Kind)
	assert.False(t, f.Animating, "a first press does not pulse")

	want := overlay.BadgeCenter(1440, 900, keys.BottomCenter)
	center := s.Bounds.Min.Add(s.Bounds.Max).Div(2)
	assert.InDelta(t, want.X, float64(center.X), 1)
	assert.InDelta(t, want.Y, float64(center.Y), 1)
	assert.GreaterOrEqual(t, s.Bounds.Dx(), int(2*overlay.BadgePadX))
	assert.GreaterOrEqual(t, s.Bounds.Dy(), int(2*overlay.BadgePadY))
}

func TestLayoutRingShapes(t *testing.T) {
	o := NewOverlay(testTheme(), overlay.KindClickMarkers)
	snap := aggregator.Snapshot{Markers: []aggregator.Marker{
		{ID: 1, Location: screen.Point{X: 100, Y: 200}, CreatedAt: now, Dragging: true},
		{ID: 2, Location: screen.Point{X: 600, Y: 300}, CreatedAt: now, SettledAt: now},
		{ID: 3, Location: screen.Point{X: 50, Y: 50}, CreatedAt: now, SettledAt: now.Add(-time.Second)},
	}}

	f := o.Layout(testContext(image.Pt(1440, 900)), snap, now)
	require.Len(t, f.Shapes, 2, "a fully faded ring is not drawn")
	assert.True(t, f.Animating)
	for _, s := range f.Shapes {
		assert.Equal(t, ShapeRing, s.Kind)
		assert.Equal(t, int(overlay.RingStroke), s.Width)
	}
	c := f.Shapes[1].Bounds.Min.Add(f.Shapes[1].Bounds.Max).Div(2)
	assert.Equal(t, image.Pt(600, 300), c)
}
