// Package config provides configuration loading and hot reload.
package config

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// reloadDelay collapses the burst of events an editor save produces.
const reloadDelay = 50 * time.Millisecond

// Holder serves the current configuration to a long-running process (serve,
// watch) and swaps it when the config file changes. Settings pinned with
// Pin, typically command line flags, survive every reload.
type Holder struct {
	mu       sync.RWMutex
	config   *Config
	path     string
	pin      func(*Config)
	logger   zerolog.Logger
	onChange []func(*Config)

	watcher  *fsnotify.Watcher
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewStaticHolder wraps an already loaded configuration. It has no file to
// reload from and never changes.
func NewStaticHolder(cfg *Config, logger zerolog.Logger) *Holder {
	return &Holder{
		config: cfg,
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

// NewHolder loads the config file at path.
func NewHolder(path string, logger zerolog.Logger) (*Holder, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}

	cfg, err := Load(absPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return &Holder{
		config: cfg,
		path:   absPath,
		logger: logger,
		stopCh: make(chan struct{}),
	}, nil
}

// Get returns the current configuration. Callers must not modify it.
func (h *Holder) Get() *Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.config
}

// Path returns the config file path, or "" for a static holder.
func (h *Holder) Path() string {
	return h.path
}

// SetLogger replaces the logger. Call it before starting any watcher.
func (h *Holder) SetLogger(logger zerolog.Logger) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.logger = logger
}

// Pin applies fn to the current configuration and to every reloaded one.
// The pinned result must validate; on error nothing changes.
func (h *Holder) Pin(fn func(*Config)) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	next := *h.config
	fn(&next)
	if err := next.Validate(); err != nil {
		return err
	}
	h.config = &next
	h.pin = fn
	return nil
}

// Reload reads the config file again. A file that fails to load or validate
// leaves the current configuration in place.
func (h *Holder) Reload() error {
	if h.path == "" {
		return fmt.Errorf("reload config: no config file")
	}
	h.logger.Info().Str("path", h.path).Msg("reloading configuration")

	next, err := Load(h.path)
	if err == nil {
		err = h.swap(next)
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("config reload failed, keeping old config")
		return fmt.Errorf("reload config: %w", err)
	}

	h.logger.Info().Msg("configuration reloaded")
	return nil
}

func (h *Holder) swap(next *Config) error {
	h.mu.Lock()
	if h.pin != nil {
		h.pin(next)
		if err := next.Validate(); err != nil {
			h.mu.Unlock()
			return err
		}
	}
	prev := h.config
	h.config = next
	listeners := append([]func(*Config){}, h.onChange...)
	h.mu.Unlock()

	h.logChanges(prev, next)
	for _, fn := range listeners {
		fn(next)
	}
	return nil
}

// OnChange registers fn to run after every successful reload.
func (h *Holder) OnChange(fn func(*Config)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = append(h.onChange, fn)
}

// WatchFile reloads the configuration whenever the config file is saved.
func (h *Holder) WatchFile() error {
	if h.path == "" {
		return fmt.Errorf("watch config: no config file")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	// Editors that save atomically replace the file, so watch its directory.
	if err := watcher.Add(filepath.Dir(h.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}
	h.watcher = watcher

	go h.watchLoop(watcher)

	h.logger.Info().Str("path", h.path).Msg("watching config file for changes")
	return nil
}

// WatchSignals reloads the configuration on SIGHUP.
func (h *Holder) WatchSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)

	go func() {
		defer signal.Stop(sigCh)
		for {
			select {
			case <-sigCh:
				h.logger.Info().Msg("received SIGHUP, reloading config")
				_ = h.Reload()
			case <-h.stopCh:
				return
			}
		}
	}()
}

// Stop ends file and signal watching. It is safe to call more than once.
func (h *Holder) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopCh)
		if h.watcher != nil {
			h.watcher.Close()
		}
	})
}

func (h *Holder) watchLoop(watcher *fsnotify.Watcher) {
	filename := filepath.Base(h.path)

	timer := time.NewTimer(reloadDelay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				h.logger.Debug().
					Str("event", event.Op.String()).
					Str("file", event.Name).
					Msg("config file changed")
				timer.Reset(reloadDelay)
			}

		case <-timer.C:
			_ = h.Reload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Msg("config watcher error")

		case <-h.stopCh:
			return
		}
	}
}

// logChanges reports the settings that affect the next run. The listen
// address is read once at startup.
func (h *Holder) logChanges(prev, next *Config) {
	if prev.Output.Format != next.Output.Format {
		h.logger.Info().
			Str("old", prev.Output.Format).
			Str("new", next.Output.Format).
			Msg("output format changed")
	}
	if prev.Output.Descriptions() != next.Output.Descriptions() {
		h.logger.Info().
			Bool("old", prev.Output.Descriptions()).
			Bool("new", next.Output.Descriptions()).
			Msg("description rendering changed")
	}
	if prev.Metrics.Textfile != next.Metrics.Textfile {
		h.logger.Info().
			Str("old", prev.Metrics.Textfile).
			Str("new", next.Metrics.Textfile).
			Msg("metrics textfile changed")
	}
	if prev.Logging != next.Logging {
		h.logger.Warn().Msg("logging settings changed, restart to apply")
	}
	if prev.Server != next.Server {
		h.logger.Warn().
			Str("old", prev.Server.Addr).
			Str("new", next.Server.Addr).
			Msg("server settings changed, restart to apply")
	}
}
