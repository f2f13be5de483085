package ui

import (
	"image"
	"time"

	"gioui.org/f32"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/widget/material"

	"pressviz/cmd/pressviz/internal/theme"
	"pressviz/internal/aggregator"
	"pressviz/internal/overlay"
)

// Overlay draws one surface's projection of the snapshot.
type Overlay struct {
	theme *theme.Theme
	kind  overlay.Kind
}

// NewOverlay creates the drawing for a surface kind.
func NewOverlay(t *theme.Theme, kind overlay.Kind) *Overlay {
	return &Overlay{theme: t, kind: kind}
}

// Frame is the result of one Layout call.
type Frame struct {
	Dims layout.Dimensions
	// Shapes outline everything drawn, in pixels. The window is visible
	// only inside them.
	Shapes []Shape
	// Animating means another frame is needed.
	Animating bool
}

// Layout draws s at now.
func (o *Overlay) Layout(gtx layout.Context, s aggregator.Snapshot, now time.Time) Frame {
	f := Frame{Dims: layout.Dimensions{Size: gtx.Constraints.Max}}
	switch o.kind {
	case overlay.KindKeyText:
		if !s.Key.Visible || s.Key.Text == "" {
			return f
		}
		shape, animating := o.layoutBadge(gtx, s.Key, now)
		f.Shapes = append(f.Shapes, shape)
		f.Animating = animating
	case overlay.KindClickMarkers:
		rings := overlay.Rings(s, now)
		for _, r := range rings {
			if shape, ok := o.drawRing(gtx, r); ok {
				f.Shapes = append(f.Shapes, shape)
			}
		}
		f.Animating = len(rings) > 0
	}
	return f
}

func (o *Overlay) layoutBadge(gtx layout.Context, k aggregator.KeyState, now time.Time) (Shape, bool) {
	pxPerDp := gtx.Metric.PxPerDp
	if pxPerDp == 0 {
		pxPerDp = 1
	}
	size := gtx.Constraints.Max
	center := overlay.BadgeCenter(float64(float32(size.X)/pxPerDp), float64(float32(size.Y)/pxPerDp), k.Position)
	scale := overlay.PulseScale(k, now)

	macro := op.Record(gtx.Ops)
	lbl := material.Label(o.theme.Theme, o.theme.Config.FontBadge, k.Text)
	lbl.Color = o.theme.Palette.BadgeText
	lgtx := gtx
	lgtx.Constraints = layout.Constraints{Max: size}
	text := lbl.Layout(lgtx)
	call := macro.Stop()

	padX, padY := gtx.Dp(o.theme.Config.BadgePadX), gtx.Dp(o.theme.Config.BadgePadY)
	box := image.Pt(text.Size.X+2*padX, text.Size.Y+2*padY)
	c := f32.Pt(float32(center.X)*pxPerDp, float32(center.Y)*pxPerDp)
	radius := gtx.Dp(o.theme.Config.BadgeRadius)

	sw, sh := float32(box.X)*float32(scale), float32(box.Y)*float32(scale)
	shape := Shape{
		Kind:   ShapeRoundRect,
		Bounds: image.Rect(int(c.X-sw/2), int(c.Y-sh/2), int(c.X+sw/2+0.5), int(c.Y+sh/2+0.5)),
		Radius: int(float32(radius) * float32(scale)),
	}

	defer op.Affine(f32.Affine2D{}.Scale(c, f32.Pt(float32(scale), float32(scale)))).Push(gtx.Ops).Pop()
	defer op.Offset(image.Pt(int(c.X)-box.X/2, int(c.Y)-box.Y/2)).Push(gtx.Ops).Pop()

	rr := clip.UniformRRect(image.Rectangle{Max: box}, radius)
	paint.FillShape(gtx.Ops, theme.WithAlpha(o.theme.Palette.Badge, o.theme.Config.BadgeOpacity), rr.Op(gtx.Ops))

	inner := op.Offset(image.Pt(padX, padY)).Push(gtx.Ops)
	call.Add(gtx.Ops)
	inner.Pop()

	return shape, scale != 1 || (k.PressCount > 0 && now.Sub(k.ShownAt) < overlay.RingFade)
}

func (o *Overlay) drawRing(gtx layout.Context, r overlay.Ring) (Shape, bool) {
	if r.Opacity <= 0 {
		return Shape{}, false
	}
	pxPerDp := gtx.Metric.PxPerDp
	if pxPerDp == 0 {
		pxPerDp = 1
	}
	cx, cy := float32(r.Center.X)*pxPerDp, float32(r.Center.Y)*pxPerDp
	radius := float32(r.Diameter) * pxPerDp / 2
	bounds := image.Rect(int(cx-radius), int(cy-radius), int(cx+radius), int(cy+radius))

	width := gtx.Dp(o.theme.Config.RingStroke)

	stroke := clip.Stroke{
		Path:  clip.Ellipse(bounds).Path(gtx.Ops),
		Width: float32(width),
	}.Op()
	paint.FillShape(gtx.Ops, theme.WithAlpha(o.theme.Palette.Ring, r.Opacity), stroke)
	return Shape{Kind: ShapeRing, Bounds: bounds, Width: width}, true
}
