package main

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"pressviz/internal/capture"
	"pressviz/internal/config"
	"pressviz/internal/hotkey"
	"pressviz/internal/logging"
	"pressviz/internal/overlay"
	"pressviz/internal/permissions"
	"pressviz/internal/pipeline"
	"pressviz/internal/screen"
)

// topologyRefresh is how often the platform display layout is re-read.
const topologyRefresh = 5 * time.Second

// appOptions configure an App.
type appOptions struct {
	Surfaces    overlay.Factory
	NewSession  pipeline.SessionFactory
	Permissions *permissions.Provider
	Displays    screen.Provider
	PollEvery   time.Duration
}

// App ties the preference store, permission watcher, hotkey and pipeline
// together for one process.
type App struct {
	loader   *config.Loader
	logger   *logging.Logger
	pipeline *pipeline.Pipeline
	perms    *permissions.Provider
	displays screen.Provider
	poll     time.Duration
	static   bool

	mu     sync.Mutex
	toggle *hotkey.Toggle
	rebind chan struct{}
	wg     sync.WaitGroup
}

// newApp builds the pipeline from the loader's current configuration.
func newApp(loader *config.Loader, logger *logging.Logger, opts appOptions) *App {
	cfg := loader.Config()

	a := &App{
		loader: loader,
		logger: logger.WithComponent("app"),
		perms:  opts.Permissions,
		poll:   opts.PollEvery,
		rebind: make(chan struct{}, 1),
	}
	if a.perms == nil {
		a.perms = permissions.New(logger)
	}
	if a.poll <= 0 {
		a.poll = permissions.DefaultPollInterval
	}

	var cursor screen.CursorSource
	switch {
	case opts.Displays != nil:
		a.displays = opts.Displays
	case len(cfg.Displays) > 0:
		a.displays = screen.Static{Topology: cfg.Topology()}
		a.static = true
	default:
		platform := screen.NewPlatformProvider(logger)
		if cs, ok := platform.(screen.CursorSource); ok {
			cursor = cs
		}
		a.displays = screen.WithFallback(platform, screen.Static{}, logger)
	}

	a.pipeline = pipeline.New(pipeline.Options{
		NewSession:   opts.NewSession,
		Surfaces:     opts.Surfaces,
		Displays:     a.displays,
		Cursor:       cursor,
		KeyDwell:     cfg.KeyDwell(),
		ClickExpiry:  cfg.ClickExpiry(),
		TickInterval: cfg.TickInterval(),
		Logger:       logger,
	})
	return a
}

// Run applies the configuration, starts the watchers and blocks until ctx
// is done.
func (a *App) Run(ctx context.Context) error {
	cfg := a.loader.Config()
	if err := a.pipeline.Apply(cfg); err != nil {
		a.logger.Warn("applying preferences", "error", err)
	}

	a.loader.OnChange(a.configChanged)
	if err := a.loader.Watch(); err != nil {
		a.logger.Warn("config hot reload disabled", "error", err)
	}

	a.bindHotkey(ctx, cfg.Preferences.Hotkey)

	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		a.startWhenPermitted(ctx)
	}()
	go func() {
		defer a.wg.Done()
		a.watchBackground(ctx)
	}()

	<-ctx.Done()
	a.wg.Wait()
	return a.shutdown()
}

func (a *App) shutdown() error {
	a.mu.Lock()
	toggle := a.toggle
	a.toggle = nil
	a.mu.Unlock()

	var errs []error
	if toggle != nil {
		errs = append(errs, toggle.Stop())
	}
	errs = append(errs, a.pipeline.Stop(), a.loader.Close())

	var b strings.Builder
	if err := a.pipeline.Metrics().Registry().WritePrometheus(&b); err == nil {
		a.logger.Debug("pipeline metrics", "metrics", b.String())
	}
	return errors.Join(errs...)
}

// startWhenPermitted starts the pipeline once input monitoring is allowed,
// and retries on every permission change while capture is refused.
func (a *App) startWhenPermitted(ctx context.Context) {
	status := a.perms.Status()
	if status == permissions.StatusDenied || status == permissions.StatusPrompt {
		a.logger.Warn("input monitoring not granted", "status", status.String())
		if err := a.perms.Request(); err != nil {
			a.logger.Warn("requesting input monitoring", "error", err)
		}
	}

	for s := range a.perms.Watch(ctx, a.poll) {
		if s == permissions.StatusDenied || s == permissions.StatusPrompt {
			a.logger.Info("waiting for input monitoring permission", "status", s.String())
			continue
		}
		err := a.pipeline.Start(ctx)
		switch {
		case err == nil:
			return
		case errors.Is(err, capture.ErrNotAvailable):
			a.logger.Error("input capture unavailable", "error", err)
			return
		default:
			a.logger.Warn("capture refused, waiting for permission change", "error", err)
		}
	}
}

// watchBackground reports reload errors, rebinds the hotkey after it
// changed and refreshes the platform display layout.
func (a *App) watchBackground(ctx context.Context) {
	ticker := time.NewTicker(topologyRefresh)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-a.loader.Errors():
			a.logger.Warn("config reload rejected, keeping previous", "error", err)
		case <-a.rebind:
			a.bindHotkey(ctx, a.loader.Config().Preferences.Hotkey)
		case <-ticker.C:
			if a.static || !a.pipeline.Running() {
				continue
			}
			if err := a.pipeline.RefreshTopology(ctx); err != nil {
				a.logger.Debug("display refresh", "error", err)
			}
		}
	}
}

func (a *App) configChanged(old, next *config.Config) {
	if err := a.pipeline.Apply(next); err != nil {
		a.logger.Warn("applying preferences", "error", err)
	}
	// The old toggle may be inside ToggleEnabled waiting on the loader, so
	// it is replaced from watchBackground rather than from this callback.
	if old.Preferences.Hotkey != next.Preferences.Hotkey {
		select {
		case a.rebind <- struct{}{}:
		default:
		}
	}
}

// bindHotkey replaces the registered toggle shortcut. An empty shortcut
// disables it.
func (a *App) bindHotkey(ctx context.Context, shortcut string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.toggle != nil {
		if err := a.toggle.Stop(); err != nil {
			a.logger.Warn("unregistering hotkey", "error", err)
		}
		a.toggle = nil
	}
	if shortcut == "" {
		return
	}
	b, err := hotkey.Parse(shortcut)
	if err != nil {
		a.logger.Warn("invalid hotkey", "shortcut", shortcut, "error", err)
		return
	}
	t := hotkey.NewToggle(b, a.loader, a.logger)
	if err := t.Start(ctx); err != nil {
		a.logger.Warn("hotkey unavailable", "error", err)
		return
	}
	a.toggle = t
}

// Pipeline returns the running pipeline.
func (a *App) Pipeline() *pipeline.Pipeline {
	return a.pipeline
}
