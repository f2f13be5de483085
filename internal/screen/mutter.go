package screen

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

// Mutter DisplayConfig GetCurrentState reply, in signature order.
type mutterMonitorSpec struct {
	Connector string
	Vendor    string
	Product   string
	Serial    string
}

type mutterMode struct {
	ID              string
	Width           int32
	Height          int32
	Refresh         float64
	PreferredScale  float64
	SupportedScales []float64
	Props           map[string]dbus.Variant
}

type mutterMonitor struct {
	Spec  mutterMonitorSpec
	Modes []mutterMode
	Props map[string]dbus.Variant
}

type mutterLogicalMonitor struct {
	X         int32
	Y         int32
	Scale     float64
	Transform uint32
	Primary   bool
	Monitors  []mutterMonitorSpec
	Props     map[string]dbus.Variant
}

const mutterLayoutPhysical = 2

// layoutRect is a display rectangle in a top-left origin, Y down layout.
type layoutRect struct {
	id, name string
	x, y     float64
	w, h     float64
	scale    float64
	primary  bool
}

// mutterLayout extracts logical monitor rectangles from a GetCurrentState
// reply.
func mutterLayout(monitors []mutterMonitor, logical []mutterLogicalMonitor, props map[string]dbus.Variant) []layoutRect {
	physical := false
	if v, ok := props["layout-mode"]; ok {
		if mode, ok := v.Value().(uint32); ok && mode == mutterLayoutPhysical {
			physical = true
		}
	}

	modes := make(map[mutterMonitorSpec]mutterMode, len(monitors))
	names := make(map[mutterMonitorSpec]string, len(monitors))
	for _, m := range monitors {
		for _, mode := range m.Modes {
			if cur, ok := mode.Props["is-current"]; ok {
				if b, ok := cur.Value().(bool); ok && b {
					modes[m.Spec] = mode
				}
			}
		}
		if v, ok := m.Props["display-name"]; ok {
			if s, ok := v.Value().(string); ok {
				names[m.Spec] = s
			}
		}
	}

	var out []layoutRect
	for _, lm := range logical {
		if len(lm.Monitors) == 0 {
			continue
		}
		spec := lm.Monitors[0]
		mode, ok := modes[spec]
		if !ok {
			continue
		}

		scale := lm.Scale
		if scale <= 0 {
			scale = 1
		}
		w, h := float64(mode.Width), float64(mode.Height)
		if !physical {
			w, h = w/scale, h/scale
		}
		// 90 and 270 degree rotations, plain or flipped.
		if lm.Transform%2 == 1 {
			w, h = h, w
		}

		name := names[spec]
		if name == "" {
			name = spec.Connector
		}
		out = append(out, layoutRect{
			id:      spec.Connector,
			name:    name,
			x:       float64(lm.X),
			y:       float64(lm.Y),
			w:       w,
			h:       h,
			scale:   scale,
			primary: lm.Primary,
		})
	}
	return out
}

// topologyFromLayout converts top-left origin rectangles to topology space,
// anchored at the primary display's bottom-left corner.
func topologyFromLayout(rects []layoutRect) (Topology, error) {
	if len(rects) == 0 {
		return nil, fmt.Errorf("no logical monitors")
	}

	primary := rects[0]
	for _, r := range rects {
		if r.primary {
			primary = r
			break
		}
	}
	baseline := primary.y + primary.h

	topo := make(Topology, 0, len(rects))
	for _, r := range rects {
		topo = append(topo, Display{
			ID:      r.id,
			Name:    r.name,
			Frame:   Rect{X: r.x - primary.x, Y: baseline - (r.y + r.h), W: r.w, H: r.h},
			Primary: r.id == primary.id,
			Scale:   r.scale,
		})
	}
	return topo, nil
}
