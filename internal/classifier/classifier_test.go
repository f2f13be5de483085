package classifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pressviz/internal/capture"
	"pressviz/internal/keys"
)

func TestClassifyKinds(t *testing.T) {
	tests := []struct {
		raw  capture.EventType
		want Kind
	}{
		{capture.KeyDown, KeyPress},
		{capture.KeyUp, KeyRelease},
		{capture.FlagsChanged, ModifierChange},
		{capture.MouseDown, PointerDown},
		{capture.MouseUp, PointerUp},
		{capture.MouseDragged, PointerDrag},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			ev, ok := Classify(capture.RawEvent{Type: tt.raw})
			require.True(t, ok)
			assert.Equal(t, tt.want, ev.Kind)
		})
	}
}

func TestClassifyDropsUnrecognized(t *testing.T) {
	for _, typ := range []capture.EventType{capture.TypeUnknown, capture.MouseMoved, capture.ScrollWheel, capture.EventType(77)} {
		_, ok := Classify(capture.RawEvent{Type: typ})
		assert.False(t, ok, "type %v", typ)
	}
}

func TestClassifyKeyPress(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ev, ok := Classify(capture.RawEvent{
		Type:       capture.KeyDown,
		KeyCode:    uint16(keys.CodeC),
		Flags:      keys.RawCommand | 1<<8,
		Characters: "c",
		X:          10,
		Y:          20,
		Timestamp:  ts,
	})
	require.True(t, ok)

	assert.Equal(t, keys.CodeC, ev.Code)
	assert.Equal(t, keys.Command, ev.Modifiers)
	assert.Equal(t, "C", ev.Characters)
	assert.Equal(t, ts, ev.Timestamp)
	assert.Equal(t, 10.0, ev.X)

	ke := ev.KeyEvent()
	assert.Equal(t, "⌘C", ke.DisplayString())
	assert.Equal(t, ts, ke.Timestamp)
}

func TestClassifyUnmappedCodeUsesLiteral(t *testing.T) {
	ev, ok := Classify(capture.RawEvent{Type: capture.KeyDown, KeyCode: 0x0A, Characters: "§"})
	require.True(t, ok)
	assert.Equal(t, "§", ev.KeyEvent().DisplayString())

	ev, _ = Classify(capture.RawEvent{Type: capture.KeyDown, KeyCode: 0xFF})
	assert.Equal(t, "", ev.KeyEvent().DisplayString())
}

func TestClassifyPointer(t *testing.T) {
	ev, ok := Classify(capture.RawEvent{Type: capture.MouseDown, X: 100, Y: 200, Button: 1, KeyCode: 9})
	require.True(t, ok)
	assert.True(t, ev.IsPointer())
	assert.Equal(t, 1, ev.Button)
	assert.Equal(t, keys.Code(0), ev.Code, "pointer events carry no key code")
	assert.Equal(t, 100.0, ev.X)
	assert.Equal(t, 200.0, ev.Y)
}

func TestModifierTransition(t *testing.T) {
	tests := []struct {
		name       string
		prev, next keys.ModifierSet
		code       keys.Code
		want       Transition
	}{
		{"press command", 0, keys.Command, keys.CodeCommand, Pressed},
		{"release command", keys.Command, 0, keys.CodeRightCommand, Released},
		{"other side still down", keys.Shift, keys.Shift, keys.CodeRightShift, Unchanged},
		{"press with others held", keys.Control, keys.Control | keys.Option, keys.CodeOption, Pressed},
		{"caps lock latch", 0, keys.CapsLock, keys.CodeCapsLock, Pressed},
		{"non-modifier code", 0, keys.Shift, keys.CodeA, Unchanged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ModifierTransition(tt.prev, tt.next, tt.code))
		})
	}
}
