//go:build linux

package screen

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"

	"pressviz/internal/logging"
)

const (
	mutterBus   = "org.gnome.Mutter.DisplayConfig"
	mutterPath  = "/org/gnome/Mutter/DisplayConfig"
	mutterIface = "org.gnome.Mutter.DisplayConfig"
)

// MutterProvider queries GNOME's display configuration over the session bus.
type MutterProvider struct {
	logger *logging.Logger
}

// NewPlatformProvider returns the display provider for this platform.
func NewPlatformProvider(logger *logging.Logger) Provider {
	if logger == nil {
		logger = logging.Discard()
	}
	return &MutterProvider{logger: logger}
}

// Displays calls GetCurrentState and converts its logical monitors.
func (m *MutterProvider) Displays(ctx context.Context) (Topology, error) {
	conn, err := dbus.ConnectSessionBus(dbus.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	defer conn.Close()

	var (
		serial   uint32
		monitors []mutterMonitor
		logical  []mutterLogicalMonitor
		props    map[string]dbus.Variant
	)
	obj := conn.Object(mutterBus, dbus.ObjectPath(mutterPath))
	call := obj.CallWithContext(ctx, mutterIface+".GetCurrentState", 0)
	if call.Err != nil {
		return nil, fmt.Errorf("GetCurrentState: %w", call.Err)
	}
	if err := call.Store(&serial, &monitors, &logical, &props); err != nil {
		return nil, fmt.Errorf("decode display state: %w", err)
	}

	topo, err := topologyFromLayout(mutterLayout(monitors, logical, props))
	if err != nil {
		return nil, err
	}
	m.logger.Debug("display topology", "serial", serial, "displays", len(topo))
	return topo, nil
}
