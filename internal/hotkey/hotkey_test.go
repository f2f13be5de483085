package hotkey

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Parse
// =============================================================================

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Binding
	}{
		{"ctrl+shift+k", Binding{Mods: ModCtrl | ModShift, Key: "k"}},
		{"Ctrl+Option+K", Binding{Mods: ModCtrl | ModOption, Key: "k"}},
		{"cmd+alt+enter", Binding{Mods: ModCommand | ModOption, Key: "return"}},
		{" super + f5 ", Binding{Mods: ModCommand, Key: "f5"}},
		{"control+esc", Binding{Mods: ModCtrl, Key: "escape"}},
		{"meta+1", Binding{Mods: ModCommand, Key: "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		in      string
		wantErr error
	}{
		{"", ErrEmpty},
		{"   ", ErrEmpty},
		{"k", ErrNoModifier},
		{"ctrl+hyper+k", nil},
		{"ctrl+ctrl+k", nil},
		{"ctrl+pagedown", nil},
		{"ctrl+", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := Parse(tt.in)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestBindingStringCanonical(t *testing.T) {
	b, err := Parse("shift+cmd+ctrl+alt+space")
	require.NoError(t, err)
	assert.Equal(t, "ctrl+option+shift+cmd+space", b.String())

	again, err := Parse(b.String())
	require.NoError(t, err)
	assert.Equal(t, b, again)
}

func TestKeyNamesParse(t *testing.T) {
	for _, k := range KeyNames() {
		_, err := Parse("ctrl+" + k)
		assert.NoError(t, err, k)
	}
}

// =============================================================================
// Toggle
// =============================================================================

type fakeTarget struct {
	mu  sync.Mutex
	on  bool
	n   int
	err error
}

func (f *fakeTarget) ToggleEnabled() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.on, f.err
	}
	f.on = !f.on
	f.n++
	return f.on, nil
}

func (f *fakeTarget) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.n
}

type fakeRegistrar struct {
	events       chan struct{}
	unregistered int
	err          error
}

func (r *fakeRegistrar) register(Binding) (<-chan struct{}, func() error, error) {
	if r.err != nil {
		return nil, nil, r.err
	}
	return r.events, func() error { r.unregistered++; return nil }, nil
}

func newTestToggle(target Toggler, r *fakeRegistrar) *Toggle {
	tg := NewToggle(Binding{Mods: ModCtrl | ModOption, Key: "k"}, target, nil)
	tg.register = r.register
	return tg
}

func TestToggleFiresOnKeydown(t *testing.T) {
	target := &fakeTarget{}
	r := &fakeRegistrar{events: make(chan struct{})}
	tg := newTestToggle(target, r)

	require.NoError(t, tg.Start(context.Background()))
	r.events <- struct{}{}
	r.events <- struct{}{}

	assert.Eventually(t, func() bool { return target.count() == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, tg.Stop())
	require.NoError(t, tg.Stop())
	assert.Equal(t, 1, r.unregistered)
}

func TestToggleStartIdempotent(t *testing.T) {
	r := &fakeRegistrar{events: make(chan struct{})}
	tg := newTestToggle(&fakeTarget{}, r)
	require.NoError(t, tg.Start(context.Background()))
	require.NoError(t, tg.Start(context.Background()))
	require.NoError(t, tg.Stop())
	assert.Equal(t, 1, r.unregistered)
}

func TestToggleRegisterError(t *testing.T) {
	sentinel := errors.New("grabbed by another app")
	tg := newTestToggle(&fakeTarget{}, &fakeRegistrar{err: sentinel})
	err := tg.Start(context.Background())
	assert.ErrorIs(t, err, sentinel)
	assert.NoError(t, tg.Stop())
}

func TestToggleFireReportsError(t *testing.T) {
	sentinel := errors.New("disk full")
	tg := newTestToggle(&fakeTarget{err: sentinel}, &fakeRegistrar{})
	_, err := tg.Fire()
	assert.ErrorIs(t, err, sentinel)
}

func TestToggleStopsOnContextCancel(t *testing.T) {
	target := &fakeTarget{}
	r := &fakeRegistrar{events: make(chan struct{}, 1)}
	tg := newTestToggle(target, r)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, tg.Start(ctx))
	cancel()
	require.NoError(t, tg.Stop())
	assert.Equal(t, 0, target.count())
}
