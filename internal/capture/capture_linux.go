//go:build linux

package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/holoplot/go-evdev"

	"pressviz/internal/keys"
)

const (
	evReleased = 0
	evPressed  = 1
	evRepeat   = 2
)

// LinuxSession reads /dev/input/event* through evdev. Each device gets its
// own reader goroutine; all of them share one input state so modifier masks
// and the pointer position are global, as they are on the OS side.
type LinuxSession struct {
	BaseSession
	opts Options

	lifeMu  sync.Mutex
	devices []*evdev.InputDevice
	wg      sync.WaitGroup
	cancel  context.CancelFunc

	stateMu sync.Mutex
	state   *inputState
}

func newPlatformSession(h Handler, opts Options) Session {
	s := &LinuxSession{opts: opts}
	s.init(h)
	return s
}

// Available checks whether at least one input device can be opened.
func (l *LinuxSession) Available() (bool, string) {
	paths, err := devicePaths()
	if err != nil {
		return false, fmt.Sprintf("cannot list input devices: %v", err)
	}
	if len(paths) == 0 {
		return false, "no input devices found"
	}
	for _, p := range paths {
		dev, err := evdev.OpenWithFlags(p, os.O_RDONLY)
		if err == nil {
			dev.Close()
			return true, fmt.Sprintf("found input device: %s", p)
		}
	}
	return false, "cannot read input devices (need to be in 'input' group or run as root)"
}

func devicePaths() ([]string, error) {
	return filepath.Glob("/dev/input/event*")
}

// openDevices opens every keyboard and pointer device. It returns
// ErrPermissionDenied when devices exist but none could be opened for
// permission reasons.
func openDevices() ([]*evdev.InputDevice, error) {
	paths, err := devicePaths()
	if err != nil {
		return nil, fmt.Errorf("list input devices: %w", err)
	}
	if len(paths) == 0 {
		return nil, ErrNotAvailable
	}

	var (
		out    []*evdev.InputDevice
		denied bool
	)
	for _, p := range paths {
		dev, err := evdev.OpenWithFlags(p, os.O_RDONLY)
		if err != nil {
			if os.IsPermission(err) {
				denied = true
			}
			continue
		}
		if !isInputSource(dev) {
			dev.Close()
			continue
		}
		out = append(out, dev)
	}

	if len(out) == 0 {
		if denied {
			return nil, ErrPermissionDenied
		}
		return nil, ErrNotAvailable
	}
	return out, nil
}

// isInputSource keeps devices that report keys or relative motion.
func isInputSource(dev *evdev.InputDevice) bool {
	for _, t := range dev.CapableTypes() {
		if t == evdev.EV_KEY || t == evdev.EV_REL {
			return true
		}
	}
	return false
}

// Start opens the devices and launches one reader per device.
func (l *LinuxSession) Start(ctx context.Context) error {
	l.lifeMu.Lock()
	defer l.lifeMu.Unlock()

	if l.Running() {
		return nil
	}

	devices, err := openDevices()
	if err != nil {
		return err
	}

	l.stateMu.Lock()
	l.state = newInputState(l.opts.Bounds())
	l.stateMu.Unlock()

	l.devices = devices
	l.SetRunning(true)

	for _, dev := range devices {
		l.wg.Add(1)
		go l.readLoop(dev)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	watchCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	go func() {
		<-watchCtx.Done()
		if ctx.Err() != nil {
			l.Stop()
		}
	}()

	l.opts.Logger.Info("evdev capture started", "devices", len(devices))
	return nil
}

func (l *LinuxSession) readLoop(dev *evdev.InputDevice) {
	defer l.wg.Done()

	for {
		ev, err := dev.ReadOne()
		if err != nil {
			if l.open.Load() {
				l.opts.Logger.Warn("input device read failed", "path", dev.Path(), "error", err)
			}
			return
		}
		if !l.open.Load() {
			l.dropped.Add(1)
			return
		}

		ts := time.Unix(int64(ev.Time.Sec), int64(ev.Time.Usec)*1000)
		l.stateMu.Lock()
		out, ok := l.state.apply(ev.Type, ev.Code, ev.Value, ts, l.opts.Bounds())
		l.stateMu.Unlock()
		if ok {
			l.Deliver(out)
		}
	}
}

// Stop closes the gate, then the devices, which unblocks every reader.
func (l *LinuxSession) Stop() error {
	l.lifeMu.Lock()
	defer l.lifeMu.Unlock()

	if !l.Running() {
		return nil
	}
	l.SetRunning(false)

	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	for _, dev := range l.devices {
		dev.Close()
	}
	l.wg.Wait()
	l.devices = nil

	l.opts.Logger.Info("evdev capture stopped")
	return nil
}

// inputState turns the per-device evdev stream into platform-neutral raw
// events: it owns the modifier mask, the held pointer buttons and the
// integrated pointer position.
type inputState struct {
	mods    keys.ModifierSet
	held    map[keys.Code]bool // modifier keys currently down
	buttons map[int]bool
	x, y    float64
	moved   bool
}

func newInputState(b Bounds) *inputState {
	s := &inputState{
		held:    make(map[keys.Code]bool),
		buttons: make(map[int]bool),
	}
	if b.MaxX > b.MinX && b.MaxY > b.MinY {
		s.x = (b.MinX + b.MaxX) / 2
		s.y = (b.MinY + b.MaxY) / 2
	}
	return s
}

func (s *inputState) apply(typ evdev.EvType, code evdev.EvCode, value int32, ts time.Time, b Bounds) (RawEvent, bool) {
	switch typ {
	case evdev.EV_KEY:
		if btn, ok := linuxButtons[code]; ok {
			return s.button(btn, value, ts)
		}
		return s.key(code, value, ts)
	case evdev.EV_REL:
		switch code {
		case evdev.REL_X:
			s.x += float64(value)
			s.moved = true
		case evdev.REL_Y:
			s.y += float64(value)
			s.moved = true
		}
		s.x, s.y = b.Clamp(s.x, s.y)
		return RawEvent{}, false
	case evdev.EV_SYN:
		if !s.moved {
			return RawEvent{}, false
		}
		s.moved = false
		btn, ok := s.lowestButton()
		if !ok {
			return RawEvent{Type: MouseMoved, X: s.x, Y: s.y, Flags: s.mods.Raw(), Timestamp: ts}, true
		}
		return RawEvent{Type: MouseDragged, X: s.x, Y: s.y, Flags: s.mods.Raw(), Button: btn, Timestamp: ts}, true
	}
	return RawEvent{}, false
}

func (s *inputState) key(code evdev.EvCode, value int32, ts time.Time) (RawEvent, bool) {
	kc, ok := translateLinuxKeycode(code)
	if !ok {
		return RawEvent{}, false
	}

	if keys.IsModifierCode(kc) {
		if value == evRepeat {
			return RawEvent{}, false
		}
		s.updateModifier(kc, value == evPressed)
		return RawEvent{Type: FlagsChanged, X: s.x, Y: s.y, KeyCode: uint16(kc), Flags: s.mods.Raw(), Timestamp: ts}, true
	}

	t := KeyDown
	if value == evReleased {
		t = KeyUp
	}
	return RawEvent{Type: t, X: s.x, Y: s.y, KeyCode: uint16(kc), Flags: s.mods.Raw(), Timestamp: ts}, true
}

// updateModifier keeps a modifier bit set while either side is down. Caps
// lock toggles on press.
func (s *inputState) updateModifier(kc keys.Code, down bool) {
	bit := keys.ModifierForCode(kc)
	if bit == keys.CapsLock {
		if down {
			s.mods ^= keys.CapsLock
		}
		return
	}

	if down {
		s.held[kc] = true
	} else {
		delete(s.held, kc)
	}

	s.mods &^= bit
	for k := range s.held {
		if keys.ModifierForCode(k) == bit {
			s.mods |= bit
			break
		}
	}
}

func (s *inputState) button(btn int, value int32, ts time.Time) (RawEvent, bool) {
	switch value {
	case evPressed:
		s.buttons[btn] = true
		return RawEvent{Type: MouseDown, X: s.x, Y: s.y, Flags: s.mods.Raw(), Button: btn, Timestamp: ts}, true
	case evReleased:
		delete(s.buttons, btn)
		return RawEvent{Type: MouseUp, X: s.x, Y: s.y, Flags: s.mods.Raw(), Button: btn, Timestamp: ts}, true
	}
	return RawEvent{}, false
}

func (s *inputState) lowestButton() (int, bool) {
	best, found := 0, false
	for b := range s.buttons {
		if !found || b < best {
			best, found = b, true
		}
	}
	return best, found
}

var _ Session = (*LinuxSession)(nil)
