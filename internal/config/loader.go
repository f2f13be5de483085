package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"pressviz/internal/logging"
)

// DebounceDelay is how long the watcher waits after the last file event
// before reloading.
const DebounceDelay = 100 * time.Millisecond

// Loader is the preference store: it loads, watches, updates and saves one
// configuration file.
type Loader struct {
	path   string
	logger *logging.Logger

	mu       sync.RWMutex
	config   *Config
	onChange []func(old, new *Config)

	// writeMu serializes read-modify-write cycles from clone through swap.
	writeMu sync.Mutex

	watcher *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc
	errChan chan error
	wg      sync.WaitGroup
}

// NewLoader creates a loader for path. An empty path uses ConfigPath.
func NewLoader(path string, logger *logging.Logger) *Loader {
	if path == "" {
		path = ConfigPath()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Loader{
		path:    path,
		logger:  logger.WithComponent("config"),
		config:  DefaultConfig(),
		errChan: make(chan error, 1),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Path returns the file the loader manages.
func (l *Loader) Path() string {
	return l.path
}

// Load reads and validates the configuration file. A missing file yields
// the defaults.
func (l *Loader) Load() (*Config, error) {
	cfg, err := Load(l.path)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.config = cfg
	l.mu.Unlock()
	return cfg.Clone(), nil
}

// Config returns a copy of the current configuration.
func (l *Loader) Config() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.config.Clone()
}

// OnChange registers a callback invoked with the previous and the new
// configuration after every effective change.
func (l *Loader) OnChange(cb func(old, new *Config)) {
	l.mu.Lock()
	l.onChange = append(l.onChange, cb)
	l.mu.Unlock()
}

// Errors returns a channel for receiving errors that occur during watching.
func (l *Loader) Errors() <-chan error {
	return l.errChan
}

// Watch starts watching the configuration file. Changes are reloaded after
// DebounceDelay and delivered through OnChange.
func (l *Loader) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	// Watch the directory so that atomic replacements are seen.
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		watcher.Close()
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}
	l.watcher = watcher

	l.wg.Add(1)
	go l.watchLoop()
	l.logger.Debug("watching config", "path", l.path)
	return nil
}

func (l *Loader) watchLoop() {
	defer l.wg.Done()

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-l.ctx.Done():
			return

		case event, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(l.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(DebounceDelay, func() {
				if err := l.Reload(); err != nil {
					l.report(err)
				}
			})

		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			l.report(err)
		}
	}
}

func (l *Loader) report(err error) {
	l.logger.Warn("config reload failed", "error", err)
	select {
	case l.errChan <- err:
	default:
	}
}

// Reload re-reads the file. An invalid file leaves the current
// configuration in place.
func (l *Loader) Reload() error {
	if l.ctx.Err() != nil {
		return nil
	}
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	cfg, err := Load(l.path)
	if err != nil {
		return fmt.Errorf("reload config: %w", err)
	}
	l.swap(cfg)
	return nil
}

// Update applies fn to a copy of the configuration, validates and saves it,
// then makes it current. Concurrent updates are applied one at a time, so
// none is lost. OnChange callbacks run before Update returns and must not
// call Update.
func (l *Loader) Update(fn func(*Config)) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	l.mu.RLock()
	next := l.config.Clone()
	l.mu.RUnlock()

	fn(next)
	if err := next.Validate(); err != nil {
		return err
	}
	if err := SaveConfig(next, l.path); err != nil {
		return err
	}
	l.swap(next)
	return nil
}

// SetEnabled flips the Enabled preference and persists it.
func (l *Loader) SetEnabled(on bool) error {
	return l.Update(func(c *Config) { c.Preferences.Enabled = on })
}

// ToggleEnabled inverts the Enabled preference and returns the new value.
func (l *Loader) ToggleEnabled() (bool, error) {
	var on bool
	err := l.Update(func(c *Config) {
		c.Preferences.Enabled = !c.Preferences.Enabled
		on = c.Preferences.Enabled
	})
	return on, err
}

func (l *Loader) swap(next *Config) {
	l.mu.Lock()
	old := l.config
	if reflect.DeepEqual(old, next) {
		l.mu.Unlock()
		return
	}
	l.config = next
	callbacks := make([]func(old, new *Config), len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.Unlock()

	l.logger.Info("config changed",
		"enabled", next.Preferences.Enabled,
		"mode", string(next.Preferences.Mode),
		"position", string(next.Preferences.Position),
	)
	for _, cb := range callbacks {
		cb(old.Clone(), next.Clone())
	}
}

// Close stops the watcher and releases resources.
func (l *Loader) Close() error {
	l.cancel()
	var err error
	if l.watcher != nil {
		err = l.watcher.Close()
	}
	l.wg.Wait()
	return err
}

// LoadOrCreate loads the configuration from path, writing the defaults
// first if the file does not exist. It reports whether the file was created.
func LoadOrCreate(path string) (*Config, bool, error) {
	if path == "" {
		path = ConfigPath()
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := SaveConfig(cfg, path); err != nil {
			return nil, false, fmt.Errorf("create default config: %w", err)
		}
		return cfg, true, nil
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, false, err
	}
	return cfg, false, nil
}

// SaveConfig writes cfg to path in the format its extension names, TOML by
// default. The file is replaced atomically.
func SaveConfig(cfg *Config, path string) error {
	data, err := Encode(cfg, filepath.Ext(path))
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close config: %w", err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		return fmt.Errorf("chmod config: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}

// Encode serializes cfg for the given file extension.
func Encode(cfg *Config, ext string) ([]byte, error) {
	switch strings.ToLower(ext) {
	case ".json":
		return json.MarshalIndent(cfg, "", "  ")
	case ".yaml", ".yml":
		return yaml.Marshal(cfg)
	default:
		var b strings.Builder
		b.WriteString("# pressviz configuration\n\n")
		if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
			return nil, err
		}
		return []byte(b.String()), nil
	}
}
