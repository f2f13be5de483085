package metrics

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelsString(t *testing.T) {
	assert.Equal(t, "", Labels(nil).String())
	assert.Equal(t, `{a="1",b="2"}`, Labels{"b": "2", "a": "1"}.String())
	assert.Equal(t, `{le="0.5"}`, Labels(nil).with("le", "0.5"))
	assert.Equal(t, `{a="1",le="+Inf"}`, Labels{"a": "1"}.with("le", "+Inf"))
}

func TestCounterAndGauge(t *testing.T) {
	r := NewRegistry("pv", "test")
	c := r.Counter("hits_total", "hits", nil)
	c.Inc()
	c.Add(4)
	assert.Equal(t, uint64(5), c.Value())
	assert.Equal(t, "pv_test_hits_total", c.Name())
	assert.Same(t, c, r.Counter("hits_total", "hits", nil))
	assert.NotSame(t, c, r.Counter("hits_total", "hits", Labels{"kind": "x"}))

	g := r.Gauge("depth", "depth", nil)
	g.Set(3)
	g.Inc()
	g.Dec()
	g.Dec()
	assert.Equal(t, int64(2), g.Value())
}

func TestHistogramBuckets(t *testing.T) {
	h := NewHistogram("lat", "latency", nil, []float64{1, 0.1, 0.5})
	for _, v := range []float64{0.05, 0.1, 0.3, 0.7, 2} {
		h.Observe(v)
	}
	assert.Equal(t, uint64(5), h.Count())
	assert.InDelta(t, 0.63, h.Mean(), 1e-9)
	// bounds sorted to 0.1, 0.5, 1, +Inf; 0.1 falls in its own bucket
	assert.Equal(t, []uint64{2, 3, 4, 5}, h.Cumulative())
}

func TestWritePrometheus(t *testing.T) {
	r := NewRegistry("pressviz", "")
	r.Counter("events_total", "events", Labels{"kind": "keyPress"}).Add(2)
	r.Counter("events_total", "events", Labels{"kind": "pointerUp"}).Inc()
	r.Gauge("markers", "markers", nil).Set(1)
	r.Histogram("lat", "latency", nil, []float64{0.01}).Observe(0.002)

	var b strings.Builder
	require.NoError(t, r.WritePrometheus(&b))
	out := b.String()

	assert.Equal(t, 1, strings.Count(out, "# TYPE pressviz_events_total counter"))
	assert.Contains(t, out, `pressviz_events_total{kind="keyPress"} 2`)
	assert.Contains(t, out, `pressviz_events_total{kind="pointerUp"} 1`)
	assert.Contains(t, out, "pressviz_markers 1")
	assert.Contains(t, out, `pressviz_lat_bucket{le="0.01"} 1`)
	assert.Contains(t, out, `pressviz_lat_bucket{le="+Inf"} 1`)
	assert.Contains(t, out, "pressviz_lat_count 1")
}

func TestPipelineMetrics(t *testing.T) {
	m := NewPipelineMetrics(nil)
	now := time.Now()
	m.Event("keyPress", now.Add(-3*time.Millisecond), now)
	m.Event("keyPress", time.Time{}, now)
	m.Event("bogus", now, now)

	assert.Equal(t, uint64(2), m.Events("keyPress"))
	assert.Equal(t, uint64(0), m.Events("bogus"))
	assert.Equal(t, uint64(1), m.Latency.Count())

	m.Rendered(true, 2)
	assert.Equal(t, int64(1), m.Visible.Value())
	assert.Equal(t, int64(2), m.Markers.Value())
	assert.Equal(t, uint64(1), m.Renders.Value())

	snap := m.Registry().Snapshot()
	assert.Equal(t, uint64(2), snap[`pressviz_pipeline_events_total{kind="keyPress"}`])
}

func TestConcurrentUpdates(t *testing.T) {
	m := NewPipelineMetrics(nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.Event("pointerDown", time.Time{}, time.Now())
				m.QueueDepth.Inc()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(800), m.Events("pointerDown"))
	assert.Equal(t, int64(800), m.QueueDepth.Value())
}
