// Package hotkey parses the toggle shortcut and registers it as a global
// hotkey that flips the Enabled preference.
package hotkey

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"pressviz/internal/logging"
)

// Modifier is a shortcut modifier, independent of platform.
type Modifier uint8

const (
	ModCtrl Modifier = 1 << iota
	ModShift
	ModOption
	ModCommand
)

var modifierNames = map[string]Modifier{
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"shift":   ModShift,
	"option":  ModOption,
	"opt":     ModOption,
	"alt":     ModOption,
	"cmd":     ModCommand,
	"command": ModCommand,
	"super":   ModCommand,
	"meta":    ModCommand,
}

var modifierOrder = []struct {
	mod  Modifier
	name string
}{
	{ModCtrl, "ctrl"},
	{ModOption, "option"},
	{ModShift, "shift"},
	{ModCommand, "cmd"},
}

// keyAliases maps accepted spellings to canonical key names.
var keyAliases = map[string]string{
	"enter":     "return",
	"esc":       "escape",
	"backspace": "delete",
}

var (
	ErrEmpty       = errors.New("hotkey: empty shortcut")
	ErrNoModifier  = errors.New("hotkey: shortcut needs at least one modifier")
	ErrUnsupported = errors.New("hotkey: global shortcuts are not supported on this platform")
)

// Binding is a parsed shortcut such as ctrl+option+k.
type Binding struct {
	Mods Modifier
	Key  string
}

// Parse reads a '+'-separated shortcut. The last part is the key.
func Parse(s string) (Binding, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Binding{}, ErrEmpty
	}
	parts := strings.Split(s, "+")
	var b Binding
	for _, p := range parts[:len(parts)-1] {
		p = strings.TrimSpace(p)
		m, ok := modifierNames[p]
		if !ok {
			return Binding{}, fmt.Errorf("hotkey: unknown modifier %q", p)
		}
		if b.Mods&m != 0 {
			return Binding{}, fmt.Errorf("hotkey: modifier %q repeated", p)
		}
		b.Mods |= m
	}
	if b.Mods == 0 {
		return Binding{}, ErrNoModifier
	}

	key := strings.TrimSpace(parts[len(parts)-1])
	if alias, ok := keyAliases[key]; ok {
		key = alias
	}
	if !validKey(key) {
		return Binding{}, fmt.Errorf("hotkey: unknown key %q", key)
	}
	b.Key = key
	return b, nil
}

// String formats the binding in canonical order.
func (b Binding) String() string {
	var parts []string
	for _, m := range modifierOrder {
		if b.Mods&m.mod != 0 {
			parts = append(parts, m.name)
		}
	}
	return strings.Join(append(parts, b.Key), "+")
}

// KeyNames lists every key name Parse accepts.
func KeyNames() []string {
	names := make([]string, 0, len(namedKeys)+36)
	for c := 'a'; c <= 'z'; c++ {
		names = append(names, string(c))
	}
	for c := '0'; c <= '9'; c++ {
		names = append(names, string(c))
	}
	for n := range namedKeys {
		names = append(names, n)
	}
	sort.Strings(names[36:])
	return names
}

var namedKeys = map[string]struct{}{
	"space": {}, "return": {}, "escape": {}, "delete": {}, "tab": {},
	"left": {}, "right": {}, "up": {}, "down": {},
	"f1": {}, "f2": {}, "f3": {}, "f4": {}, "f5": {}, "f6": {},
	"f7": {}, "f8": {}, "f9": {}, "f10": {}, "f11": {}, "f12": {},
}

func validKey(k string) bool {
	if len(k) == 1 {
		c := k[0]
		return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
	}
	_, ok := namedKeys[k]
	return ok
}

// Toggler flips the Enabled preference. *config.Loader implements it.
type Toggler interface {
	ToggleEnabled() (bool, error)
}

// registerFunc registers b and returns a channel of key-down events and a
// function that unregisters it.
type registerFunc func(b Binding) (<-chan struct{}, func() error, error)

// Toggle owns a registered global shortcut.
type Toggle struct {
	binding  Binding
	target   Toggler
	logger   *logging.Logger
	register registerFunc

	mu         sync.Mutex
	unregister func() error
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// NewToggle returns a Toggle for b. Nothing is registered until Start.
func NewToggle(b Binding, target Toggler, logger *logging.Logger) *Toggle {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Toggle{
		binding:  b,
		target:   target,
		logger:   logger.WithComponent("hotkey"),
		register: platformRegister,
	}
}

// Binding returns the shortcut.
func (t *Toggle) Binding() Binding { return t.binding }

// Start registers the shortcut. Each key-down toggles the target until
// ctx is done or Stop is called.
func (t *Toggle) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return nil
	}

	events, unregister, err := t.register(t.binding)
	if err != nil {
		return fmt.Errorf("register %s: %w", t.binding, err)
	}
	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.unregister = unregister

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				t.Fire()
			}
		}
	}()

	t.logger.Info("hotkey registered", "shortcut", t.binding.String())
	return nil
}

// Fire toggles the target as if the shortcut had been pressed.
func (t *Toggle) Fire() (bool, error) {
	on, err := t.target.ToggleEnabled()
	if err != nil {
		t.logger.Error("toggle failed", "error", err)
		return on, err
	}
	t.logger.Info("visualizer toggled", "enabled", on)
	return on, nil
}

// Stop unregisters the shortcut. It is safe to call more than once.
func (t *Toggle) Stop() error {
	t.mu.Lock()
	cancel, unregister := t.cancel, t.unregister
	t.cancel, t.unregister = nil, nil
	t.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	var err error
	if unregister != nil {
		err = unregister()
	}
	t.wg.Wait()
	return err
}
