package metrics

import (
	"time"
)

// Event kinds counted by PipelineMetrics, matching classifier kind names.
var eventKinds = []string{
	"keyPress", "keyRelease", "modifierChange",
	"pointerDown", "pointerUp", "pointerDrag",
}

// PipelineMetrics are the counters the visualizer pipeline maintains.
type PipelineMetrics struct {
	registry *Registry

	events     map[string]*Counter
	Ignored    *Counter
	Renders    *Counter
	Ticks      *Counter
	QueueDepth *Gauge
	Visible    *Gauge
	Markers    *Gauge
	Latency    *Histogram
}

// NewPipelineMetrics registers the pipeline metrics in r. A nil registry
// gets a private one.
func NewPipelineMetrics(r *Registry) *PipelineMetrics {
	if r == nil {
		r = NewRegistry("pressviz", "pipeline")
	}
	m := &PipelineMetrics{
		registry:   r,
		events:     make(map[string]*Counter, len(eventKinds)),
		Ignored:    r.Counter("ignored_events_total", "Raw events with no semantic kind", nil),
		Renders:    r.Counter("renders_total", "Snapshots pushed to the overlay", nil),
		Ticks:      r.Counter("ticks_total", "Aging ticks run", nil),
		QueueDepth: r.Gauge("queue_depth", "Work items waiting for the dispatch loop", nil),
		Visible:    r.Gauge("key_visible", "1 while key text is on screen", nil),
		Markers:    r.Gauge("markers", "Click markers on screen", nil),
		Latency: r.Histogram("event_latency_seconds",
			"Time from the OS event timestamp until the aggregator applied it", nil, LatencyBuckets),
	}
	for _, k := range eventKinds {
		m.events[k] = r.Counter("events_total", "Classified input events", Labels{"kind": k})
	}
	return m
}

// Registry returns the registry the metrics live in.
func (m *PipelineMetrics) Registry() *Registry {
	return m.registry
}

// Event counts one classified event of kind and records its latency from
// ts to now. A zero ts records no latency.
func (m *PipelineMetrics) Event(kind string, ts, now time.Time) {
	if c, ok := m.events[kind]; ok {
		c.Inc()
	}
	if !ts.IsZero() && !now.Before(ts) {
		m.Latency.ObserveDuration(now.Sub(ts))
	}
}

// Events returns the count for one event kind.
func (m *PipelineMetrics) Events(kind string) uint64 {
	if c, ok := m.events[kind]; ok {
		return c.Value()
	}
	return 0
}

// Rendered records a pushed snapshot.
func (m *PipelineMetrics) Rendered(keyVisible bool, markers int) {
	m.Renders.Inc()
	if keyVisible {
		m.Visible.Set(1)
	} else {
		m.Visible.Set(0)
	}
	m.Markers.Set(int64(markers))
}
