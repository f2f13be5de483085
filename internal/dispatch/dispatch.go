// Package dispatch provides the single main execution context.
//
// Capture callbacks post work from any goroutine without blocking; a Loop
// runs that work in arrival order together with a fixed-rate tick, all on
// one goroutine, so the state it touches has exactly one writer.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"pressviz/internal/logging"
)

const (
	// DefaultTickInterval is the aging tick period.
	DefaultTickInterval = 100 * time.Millisecond
	// MinTickInterval and MaxTickInterval bound the configurable period.
	MinTickInterval = 16 * time.Millisecond
	MaxTickInterval = time.Second
)

var (
	// ErrAlreadyRunning is returned when Run is called on a running loop.
	ErrAlreadyRunning = errors.New("dispatch: loop already running")
)

// Queue is an unbounded FIFO of work items. Post never blocks.
type Queue struct {
	mu     sync.Mutex
	items  []func()
	signal chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{signal: make(chan struct{}, 1)}
}

// Post appends fn. Nil work is ignored.
func (q *Queue) Post(fn func()) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	q.items = append(q.items, fn)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Len returns the number of pending items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Ready is signalled after Post; one signal may cover many items.
func (q *Queue) Ready() <-chan struct{} {
	return q.signal
}

// take removes and returns everything queued so far.
func (q *Queue) take() []func() {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

// Options configure a Loop.
type Options struct {
	TickInterval time.Duration
	// OnTick runs on the loop goroutine at every tick.
	OnTick func(now time.Time)
	Clock  func() time.Time
	Logger *logging.Logger
}

// ClampTickInterval bounds d to the allowed range; zero means the default.
func ClampTickInterval(d time.Duration) time.Duration {
	switch {
	case d == 0:
		return DefaultTickInterval
	case d < MinTickInterval:
		return MinTickInterval
	case d > MaxTickInterval:
		return MaxTickInterval
	}
	return d
}

// Loop drains a Queue and drives the tick.
type Loop struct {
	queue  *Queue
	opts   Options
	logger *logging.Logger

	running  atomic.Bool
	interval atomic.Int64
	reset    chan struct{}

	processed atomic.Uint64
	panics    atomic.Uint64
}

// NewLoop creates a loop with its own queue.
func NewLoop(opts Options) *Loop {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	l := &Loop{
		queue:  NewQueue(),
		opts:   opts,
		logger: opts.Logger.WithComponent("dispatch"),
		reset:  make(chan struct{}, 1),
	}
	l.interval.Store(int64(ClampTickInterval(opts.TickInterval)))
	return l
}

// Post enqueues fn for the loop goroutine.
func (l *Loop) Post(fn func()) {
	l.queue.Post(fn)
}

// Queue returns the loop's queue.
func (l *Loop) Queue() *Queue {
	return l.queue
}

// Running reports whether Run is active.
func (l *Loop) Running() bool {
	return l.running.Load()
}

// TickInterval returns the current tick period.
func (l *Loop) TickInterval() time.Duration {
	return time.Duration(l.interval.Load())
}

// SetTickInterval changes the tick period, clamped to the allowed range.
// A running loop picks it up on its next iteration.
func (l *Loop) SetTickInterval(d time.Duration) {
	d = ClampTickInterval(d)
	if time.Duration(l.interval.Swap(int64(d))) == d {
		return
	}
	select {
	case l.reset <- struct{}{}:
	default:
	}
}

// Processed returns how many work items have run.
func (l *Loop) Processed() uint64 {
	return l.processed.Load()
}

// Run processes work until ctx is done. Work still queued at cancellation is
// run before Run returns so posted cleanup is not lost.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer l.running.Store(false)

	ticker := time.NewTicker(l.TickInterval())
	defer ticker.Stop()

	l.logger.Debug("loop started", "tick", l.TickInterval())
	for {
		select {
		case <-ctx.Done():
			l.drain()
			l.logger.Debug("loop stopped", "processed", l.processed.Load(), "panics", l.panics.Load())
			return nil
		case <-l.queue.Ready():
			l.drain()
		case <-ticker.C:
			if l.opts.OnTick != nil {
				now := l.opts.Clock()
				l.run(func() { l.opts.OnTick(now) })
			}
		case <-l.reset:
			ticker.Reset(l.TickInterval())
		}
	}
}

func (l *Loop) drain() {
	for {
		items := l.queue.take()
		if len(items) == 0 {
			return
		}
		for _, fn := range items {
			l.run(fn)
			l.processed.Add(1)
		}
	}
}

func (l *Loop) run(fn func()) {
	if l.logger.Recover("dispatch", fn) {
		l.panics.Add(1)
	}
}

// Call runs fn on the loop and waits for it. It returns ctx.Err() if ctx
// ends first.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("dispatch call: %w", ctx.Err())
	}
}
