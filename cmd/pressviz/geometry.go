package main

import (
	"image"
	"math"

	"pressviz/internal/screen"
)

// rootFrame returns d's frame with a top-left origin at the top-left corner
// of the area spanned by all displays. X11 root windows use this space.
func rootFrame(topo screen.Topology, d screen.Display) image.Rectangle {
	if len(topo) == 0 {
		topo = screen.Topology{d}
	}
	minX, top := math.Inf(1), math.Inf(-1)
	for _, o := range topo {
		minX = math.Min(minX, o.Frame.X)
		top = math.Max(top, o.Frame.Y+o.Frame.H)
	}
	return pixelRect(d.Frame.X-minX, top-(d.Frame.Y+d.Frame.H), d.Frame.W, d.Frame.H)
}

// captureFrame returns d's frame with a top-left origin at the primary
// display's top-left corner, which is how Windows lays out the virtual
// screen.
func captureFrame(topo screen.Topology, d screen.Display) image.Rectangle {
	if len(topo) == 0 {
		topo = screen.Topology{d}
	}
	ph := topo.Primary().Frame.H
	return pixelRect(d.Frame.X, ph-(d.Frame.Y+d.Frame.H), d.Frame.W, d.Frame.H)
}

func pixelRect(x, y, w, h float64) image.Rectangle {
	x0, y0 := int(math.Round(x)), int(math.Round(y))
	return image.Rect(x0, y0, x0+int(math.Round(w)), y0+int(math.Round(h)))
}
