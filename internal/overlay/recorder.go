package overlay

import (
	"sync"

	"pressviz/internal/aggregator"
	"pressviz/internal/screen"
)

// Recorder is an in-memory Surface. It keeps what it was asked to do so
// tests and headless runs can inspect it.
type Recorder struct {
	kind Kind
	opts SurfaceOptions

	mu      sync.Mutex
	display screen.Display
	moves   int
	frames  []aggregator.Snapshot
	closed  bool
	limit   int
}

// NewRecorder creates a recorder keeping at most limit frames; limit <= 0
// keeps all of them.
func NewRecorder(kind Kind, opts SurfaceOptions, limit int) *Recorder {
	return &Recorder{kind: kind, opts: opts, limit: limit}
}

// RecorderFactory returns a Factory producing recorders and a lookup for the
// recorder created for each kind.
func RecorderFactory(limit int) (Factory, func(Kind) *Recorder) {
	var (
		mu   sync.Mutex
		made = make(map[Kind]*Recorder)
	)
	factory := func(kind Kind, opts SurfaceOptions) (Surface, error) {
		r := NewRecorder(kind, opts, limit)
		mu.Lock()
		made[kind] = r
		mu.Unlock()
		return r, nil
	}
	lookup := func(kind Kind) *Recorder {
		mu.Lock()
		defer mu.Unlock()
		return made[kind]
	}
	return factory, lookup
}

func (r *Recorder) Kind() Kind { return r.kind }

// Options returns the options the surface was created with.
func (r *Recorder) Options() SurfaceOptions { return r.opts }

func (r *Recorder) MoveTo(d screen.Display) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.display = d
	r.moves++
	return nil
}

func (r *Recorder) Render(s aggregator.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.frames = append(r.frames, s)
	if r.limit > 0 && len(r.frames) > r.limit {
		r.frames = r.frames[len(r.frames)-r.limit:]
	}
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

// Display returns the display the surface covers.
func (r *Recorder) Display() screen.Display {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.display
}

// Moves returns how many times MoveTo was called.
func (r *Recorder) Moves() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.moves
}

// Last returns the most recent frame.
func (r *Recorder) Last() (aggregator.Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		return aggregator.Snapshot{}, false
	}
	return r.frames[len(r.frames)-1], true
}

// Frames returns how many frames are kept.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

// Closed reports whether Close was called.
func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
