package aggregator

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pressviz/internal/classifier"
	"pressviz/internal/keys"
	"pressviz/internal/screen"
)

var t0 = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func newTestAggregator() *Aggregator {
	return New(Options{Clock: func() time.Time { return t0 }})
}

func cmdC(ts time.Time) keys.KeyEvent {
	return keys.KeyEvent{Code: keys.CodeC, Modifiers: keys.Command, Characters: "C", Timestamp: ts}
}

// =============================================================================
// Tests for key text
// =============================================================================

func TestNewIsIdle(t *testing.T) {
	a := newTestAggregator()
	s := a.Snapshot()
	assert.False(t, s.Key.Visible)
	assert.Empty(t, s.Key.Text)
	assert.Empty(t, s.Markers)
	assert.False(t, s.Pressing)
	assert.True(t, s.ClickEffects)
	assert.Equal(t, keys.BottomCenter, s.Key.Position)
}

func TestShowKeyModePlusKey(t *testing.T) {
	a := newTestAggregator()

	assert.False(t, a.ShowKey(keys.KeyEvent{Code: keys.CodeA, Characters: "A", Timestamp: t0}))
	assert.False(t, a.Snapshot().Key.Visible, "bare letter filtered in modifierPlusKey")

	require.True(t, a.ShowKey(cmdC(t0)))
	s := a.Snapshot()
	assert.True(t, s.Key.Visible)
	assert.Equal(t, "⌘C", s.Key.Text)
	assert.Equal(t, 0, s.Key.PressCount)
	assert.Equal(t, t0, s.Key.ShownAt)
}

func TestShowKeyModes(t *testing.T) {
	bare := keys.KeyEvent{Code: keys.CodeA, Characters: "A"}
	mod := keys.KeyEvent{Code: keys.CodeShift, Modifiers: keys.Shift}
	combo := cmdC(time.Time{})

	tests := []struct {
		mode  keys.Mode
		ev    keys.KeyEvent
		shown bool
	}{
		{keys.ModeAllKeys, bare, true},
		{keys.ModeAllKeys, combo, true},
		{keys.ModeModifierOnly, bare, false},
		{keys.ModeModifierOnly, combo, false},
		{keys.ModeModifierOnly, mod, true},
		{keys.ModeModifierPlusKey, bare, false},
		{keys.ModeModifierPlusKey, combo, true},
		{keys.ModeModifierPlusKey, mod, true},
	}

	for _, tt := range tests {
		a := newTestAggregator()
		a.SetMode(tt.mode)
		assert.Equal(t, tt.shown, a.ShowKey(tt.ev), "%s %q", tt.mode, tt.ev.DisplayString())
		assert.Equal(t, tt.shown, a.Snapshot().Key.Visible)
	}
}

func TestEmptyDisplayStringDropped(t *testing.T) {
	a := newTestAggregator()
	a.SetMode(keys.ModeAllKeys)
	var calls int
	a.OnChange(func() { calls++ })

	assert.False(t, a.ShowKey(keys.KeyEvent{Code: keys.Code(0xFF)}))
	assert.Equal(t, 0, calls)
	assert.False(t, a.Snapshot().Key.Visible)
}

func TestPressCountOnRepeat(t *testing.T) {
	a := newTestAggregator()
	a.ShowKey(cmdC(t0))
	a.ShowKey(cmdC(t0.Add(100 * time.Millisecond)))
	a.ShowKey(cmdC(t0.Add(200 * time.Millisecond)))

	s := a.Snapshot()
	assert.Equal(t, 2, s.Key.PressCount)
	assert.Equal(t, t0.Add(200*time.Millisecond), s.Key.ShownAt, "shownAt resets on every show")

	a.ShowKey(keys.KeyEvent{Code: keys.CodeV, Modifiers: keys.Command, Timestamp: t0.Add(300 * time.Millisecond)})
	s = a.Snapshot()
	assert.Equal(t, "⌘V", s.Key.Text)
	assert.Equal(t, 0, s.Key.PressCount, "new text resets the counter")
}

func TestPressCountResetsAfterClear(t *testing.T) {
	a := newTestAggregator()
	a.ShowKey(cmdC(t0))
	a.ShowKey(cmdC(t0))
	a.ClearKey()
	a.ShowKey(cmdC(t0))
	assert.Equal(t, 0, a.Snapshot().Key.PressCount)
}

func TestZeroTimestampUsesClock(t *testing.T) {
	a := newTestAggregator()
	a.ShowKey(cmdC(time.Time{}))
	assert.Equal(t, t0, a.Snapshot().Key.ShownAt)
}

// =============================================================================
// Tests for aging
// =============================================================================

func TestKeyDwellBoundary(t *testing.T) {
	a := newTestAggregator()
	a.ShowKey(cmdC(t0))

	assert.False(t, a.Tick(t0.Add(DefaultKeyDwell)))
	assert.True(t, a.Snapshot().Key.Visible, "exactly the dwell time still shows")

	assert.True(t, a.Tick(t0.Add(DefaultKeyDwell+time.Millisecond)))
	s := a.Snapshot()
	assert.False(t, s.Key.Visible)
	assert.Empty(t, s.Key.Text)
}

func TestHeldKeyNeverAges(t *testing.T) {
	a := newTestAggregator()
	a.SetMode(keys.ModeAllKeys)
	a.HandleEvent(classifier.Event{Kind: classifier.KeyPress, Code: keys.CodeA, Characters: "A", Timestamp: t0})
	require.True(t, a.IsPressing())

	now := t0
	for i := 0; i < 50; i++ {
		now = now.Add(200 * time.Millisecond)
		a.Tick(now)
	}
	s := a.Snapshot()
	assert.True(t, s.Key.Visible)
	assert.Equal(t, now, s.Key.ShownAt, "held tick refreshes shownAt")

	a.HandleEvent(classifier.Event{Kind: classifier.KeyRelease, Code: keys.CodeA, Timestamp: now})
	assert.False(t, a.IsPressing())
	a.Tick(now.Add(DefaultKeyDwell / 2))
	assert.True(t, a.Snapshot().Key.Visible, "dwell restarts from the last held tick")
	a.Tick(now.Add(DefaultKeyDwell + time.Millisecond))
	assert.False(t, a.Snapshot().Key.Visible)
}

func TestHeldModifierNeverAges(t *testing.T) {
	a := newTestAggregator()
	a.ModifiersChanged(keys.CodeCommand, keys.Command, t0)
	require.True(t, a.IsPressing())

	a.Tick(t0.Add(5 * time.Second))
	assert.True(t, a.Snapshot().Key.Visible)
}

func TestCapsLockLatchDoesNotHold(t *testing.T) {
	a := newTestAggregator()
	a.ModifiersChanged(keys.CodeCapsLock, keys.CapsLock, t0)
	assert.Equal(t, "⇪", a.Snapshot().Key.Text)
	assert.False(t, a.IsPressing())

	a.Tick(t0.Add(DefaultKeyDwell + time.Millisecond))
	assert.False(t, a.Snapshot().Key.Visible)
}

func TestCustomDwell(t *testing.T) {
	a := New(Options{KeyDwell: 3 * time.Second, Clock: func() time.Time { return t0 }})
	a.ShowKey(cmdC(t0))
	a.Tick(t0.Add(2 * time.Second))
	assert.True(t, a.Snapshot().Key.Visible)
	a.Tick(t0.Add(3*time.Second + time.Millisecond))
	assert.False(t, a.Snapshot().Key.Visible)
}

// =============================================================================
// Tests for modifier changes
// =============================================================================

func TestModifierThenKey(t *testing.T) {
	a := newTestAggregator()

	assert.True(t, a.ModifiersChanged(keys.CodeCommand, keys.Command, t0))
	assert.Equal(t, "⌘", a.Snapshot().Key.Text)

	a.HandleEvent(classifier.Event{
		Kind:       classifier.KeyPress,
		Code:       keys.CodeC,
		Modifiers:  keys.Command,
		Characters: "C",
		Timestamp:  t0.Add(50 * time.Millisecond),
	})
	assert.Equal(t, "⌘C", a.Snapshot().Key.Text)
}

func TestModifierReleaseKeepsText(t *testing.T) {
	a := newTestAggregator()
	a.ModifiersChanged(keys.CodeCommand, keys.Command, t0)
	a.ShowKey(cmdC(t0))

	assert.False(t, a.ModifiersChanged(keys.CodeCommand, 0, t0.Add(10*time.Millisecond)))
	s := a.Snapshot()
	assert.Equal(t, "⌘C", s.Key.Text)
	assert.False(t, s.Pressing)
}

func TestSecondModifierShowsCombination(t *testing.T) {
	a := newTestAggregator()
	a.ModifiersChanged(keys.CodeControl, keys.Control, t0)
	a.ModifiersChanged(keys.CodeShift, keys.Control|keys.Shift, t0)
	assert.Equal(t, "⌃⇧", a.Snapshot().Key.Text)
}

func TestOtherSideReleaseUnchanged(t *testing.T) {
	a := newTestAggregator()
	a.ModifiersChanged(keys.CodeShift, keys.Shift, t0)
	// Right shift went down and up while left stays held: the set never
	// changes, so nothing is shown again.
	assert.False(t, a.ModifiersChanged(keys.CodeRightShift, keys.Shift, t0))
	assert.Equal(t, 0, a.Snapshot().Key.PressCount)
}

// =============================================================================
// Tests for click markers
// =============================================================================

func TestClickLifecycle(t *testing.T) {
	a := newTestAggregator()

	require.True(t, a.PointerDown("main", screen.Point{X: 10, Y: 20}, 0, t0))
	s := a.Snapshot()
	require.Len(t, s.Markers, 1)
	m := s.Markers[0]
	assert.True(t, m.Dragging)
	assert.Equal(t, "main", m.DisplayID)
	assert.Equal(t, screen.Point{X: 10, Y: 20}, m.Location)

	a.Tick(t0.Add(10 * time.Second))
	require.Len(t, a.Snapshot().Markers, 1, "dragging markers never expire")

	require.True(t, a.PointerDrag("main", screen.Point{X: 30, Y: 40}, t0.Add(10*time.Second)))
	up := t0.Add(11 * time.Second)
	require.True(t, a.PointerUp(up))
	m = a.Snapshot().Markers[0]
	assert.False(t, m.Dragging)
	assert.Equal(t, screen.Point{X: 30, Y: 40}, m.Location)
	assert.Equal(t, up, m.SettledAt)

	a.Tick(up.Add(DefaultClickExpiry))
	assert.Len(t, a.Snapshot().Markers, 1, "age measured from the release")
	a.Tick(up.Add(DefaultClickExpiry + time.Millisecond))
	assert.Empty(t, a.Snapshot().Markers)
}

func TestNewDownSettlesDraggingMarker(t *testing.T) {
	a := newTestAggregator()
	a.PointerDown("main", screen.Point{X: 1, Y: 1}, 0, t0)
	second := t0.Add(time.Second)
	a.PointerDown("main", screen.Point{X: 2, Y: 2}, 0, second)

	s := a.Snapshot()
	require.Len(t, s.Markers, 2)
	assert.False(t, s.Markers[0].Dragging)
	assert.Equal(t, second, s.Markers[0].SettledAt)
	assert.True(t, s.Markers[1].Dragging)

	a.Tick(second.Add(DefaultClickExpiry + time.Millisecond))
	s = a.Snapshot()
	require.Len(t, s.Markers, 1)
	assert.Equal(t, screen.Point{X: 2, Y: 2}, s.Markers[0].Location)
}

func TestDragWithoutDownIgnored(t *testing.T) {
	a := newTestAggregator()
	assert.False(t, a.PointerDrag("main", screen.Point{X: 1, Y: 1}, t0))
	assert.False(t, a.PointerUp(t0))
	assert.Empty(t, a.Snapshot().Markers)
}

func TestClickEffectsOff(t *testing.T) {
	a := newTestAggregator()
	a.PointerDown("main", screen.Point{}, 0, t0)
	a.SetClickEffects(false)
	assert.Empty(t, a.Snapshot().Markers, "disabling removes markers")

	assert.False(t, a.PointerDown("main", screen.Point{}, 0, t0))
	assert.False(t, a.PointerUp(t0))
	assert.Empty(t, a.Snapshot().Markers)
	assert.False(t, a.Snapshot().ClickEffects)
}

func TestHandleEventLocatesPointer(t *testing.T) {
	r := screen.NewResolver(screen.Topology{
		{ID: "main", Frame: screen.Rect{W: 1440, H: 900}, Primary: true},
		{ID: "right", Frame: screen.Rect{X: 1440, W: 1920, H: 1080}},
	})
	a := New(Options{Clock: func() time.Time { return t0 }, Locate: r.Locate})

	a.HandleEvent(classifier.Event{Kind: classifier.PointerDown, X: 1500, Y: 100, Timestamp: t0})
	s := a.Snapshot()
	require.Len(t, s.Markers, 1)
	assert.Equal(t, "right", s.Markers[0].DisplayID)
	assert.InDelta(t, 60, s.Markers[0].Location.X, 1e-9)
	assert.InDelta(t, 280, s.Markers[0].Location.Y, 1e-9)

	a.HandleEvent(classifier.Event{Kind: classifier.PointerDrag, X: 10, Y: 10, Timestamp: t0})
	assert.Equal(t, "main", a.Snapshot().Markers[0].DisplayID)
}

// =============================================================================
// Tests for settings and notifications
// =============================================================================

func TestSetPositionMovesVisibleText(t *testing.T) {
	a := newTestAggregator()
	var calls int
	a.OnChange(func() { calls++ })

	a.SetPosition(keys.TopLeft)
	assert.Equal(t, 0, calls, "nothing visible")

	a.ShowKey(cmdC(t0))
	assert.Equal(t, keys.TopLeft, a.Snapshot().Key.Position)
	a.SetPosition(keys.Center)
	assert.Equal(t, keys.Center, a.Snapshot().Key.Position)
	assert.Equal(t, 2, calls)
}

func TestClearAll(t *testing.T) {
	a := newTestAggregator()
	a.ModifiersChanged(keys.CodeCommand, keys.Command, t0)
	a.PointerDown("main", screen.Point{}, 0, t0)
	a.ClearAll()

	s := a.Snapshot()
	assert.False(t, s.Key.Visible)
	assert.Empty(t, s.Markers)
	assert.False(t, s.Pressing)
	assert.False(t, a.PointerUp(t0), "no marker left dragging")
}

func TestOnChangeOutsideLock(t *testing.T) {
	a := newTestAggregator()
	var seen Snapshot
	a.OnChange(func() { seen = a.Snapshot() })

	a.ShowKey(cmdC(t0))
	assert.Equal(t, "⌘C", seen.Key.Text)
}

func TestSnapshotIsCopy(t *testing.T) {
	a := newTestAggregator()
	a.PointerDown("main", screen.Point{X: 5}, 0, t0)
	s := a.Snapshot()
	s.Markers[0].Location.X = 99
	assert.Equal(t, 5.0, a.Snapshot().Markers[0].Location.X)
}

func TestConcurrentReads(t *testing.T) {
	a := newTestAggregator()
	a.SetMode(keys.ModeAllKeys)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = a.Snapshot()
			_ = a.IsPressing()
		}
	}()
	for i := 0; i < 200; i++ {
		ts := t0.Add(time.Duration(i) * time.Millisecond)
		a.ShowKey(keys.KeyEvent{Code: keys.CodeA, Timestamp: ts})
		a.PointerDown("main", screen.Point{X: float64(i)}, 0, ts)
		a.Tick(ts)
	}
	wg.Wait()
}
