package ui

import (
	"image"
	"math"
)

// ShapeKind selects how a Shape is filled.
type ShapeKind int

const (
	// ShapeRoundRect is a filled rectangle with rounded corners.
	ShapeRoundRect ShapeKind = iota
	// ShapeRing is the stroked outline of the ellipse inscribed in Bounds.
	ShapeRing
)

// Shape is a drawn region in window pixels.
type Shape struct {
	Kind   ShapeKind
	Bounds image.Rectangle
	Radius int // corner radius of a ShapeRoundRect
	Width  int // stroke width of a ShapeRing
}

// antialias widens ring outlines so smoothed edges stay visible.
const antialias = 1

// Spans rasterizes shapes into row-aligned rectangles for window systems
// that only accept rectangle lists. Consecutive rows with the same extent
// are merged.
func Spans(shapes []Shape) []image.Rectangle {
	var out []image.Rectangle
	add := func(x0, x1, y int) {
		if x1 <= x0 {
			return
		}
		if n := len(out); n > 0 {
			last := &out[n-1]
			if last.Min.X == x0 && last.Max.X == x1 && last.Max.Y == y {
				last.Max.Y = y + 1
				return
			}
		}
		out = append(out, image.Rect(x0, y, x1, y+1))
	}

	for _, s := range shapes {
		b := s.Bounds.Canon()
		if b.Empty() {
			continue
		}
		switch s.Kind {
		case ShapeRoundRect:
			roundRectSpans(b, s.Radius, add)
		case ShapeRing:
			ringSpans(b, s.Width, add)
		}
	}
	return out
}

func roundRectSpans(b image.Rectangle, radius int, add func(x0, x1, y int)) {
	r := float64(radius)
	r = math.Min(r, float64(b.Dx())/2)
	r = math.Min(r, float64(b.Dy())/2)
	if r < 0 {
		r = 0
	}
	top, bottom := float64(b.Min.Y)+r, float64(b.Max.Y)-r
	for y := b.Min.Y; y < b.Max.Y; y++ {
		cy := float64(y) + 0.5
		var d float64
		switch {
		case cy < top:
			d = top - cy
		case cy > bottom:
			d = cy - bottom
		}
		inset := 0
		if d > 0 {
			inset = int(math.Floor(r - math.Sqrt(math.Max(0, r*r-d*d))))
		}
		add(b.Min.X+inset, b.Max.X-inset, y)
	}
}

func ringSpans(b image.Rectangle, width int, add func(x0, x1, y int)) {
	cx := float64(b.Min.X+b.Max.X) / 2
	cy := float64(b.Min.Y+b.Max.Y) / 2
	mid := float64(b.Dx()) / 2
	half := float64(width)/2 + antialias
	outer := mid + half
	inner := math.Max(0, mid-half)

	y0 := int(math.Floor(cy - outer))
	y1 := int(math.Ceil(cy + outer))
	for y := y0; y < y1; y++ {
		dy := math.Abs(float64(y) + 0.5 - cy)
		if dy >= outer {
			continue
		}
		xo := math.Sqrt(outer*outer - dy*dy)
		left, right := int(math.Floor(cx-xo)), int(math.Ceil(cx+xo))
		if dy >= inner {
			add(left, right, y)
			continue
		}
		xi := math.Sqrt(inner*inner - dy*dy)
		add(left, int(math.Ceil(cx-xi)), y)
		add(int(math.Floor(cx+xi)), right, y)
	}
}
