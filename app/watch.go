package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchOptions configures watch mode.
type WatchOptions struct {
	// Output is the file rewritten after every successful run.
	Output string

	// Debounce collapses bursts of file events into one rebuild.
	Debounce time.Duration

	// Signals also rebuilds on SIGHUP.
	Signals bool

	// OnBuild, if set, is called after every run, including the initial one.
	OnBuild func(*Report, error)
}

// Watch generates req into opts.Output, then regenerates whenever the input
// file is written or replaced, until ctx is done. Failed rebuilds are logged
// and leave the previous output in place.
func (s *Service) Watch(ctx context.Context, req Request, opts WatchOptions) error {
	if opts.Output == "" || opts.Output == "-" {
		return fmt.Errorf("watch: an output file is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 100 * time.Millisecond
	}

	input, err := filepath.Abs(req.Input)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory (more reliable for editors that do atomic saves)
	if err := watcher.Add(filepath.Dir(input)); err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}

	var sigCh chan os.Signal
	if opts.Signals {
		sigCh = make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGHUP)
		defer signal.Stop(sigCh)
	}

	build := func(reason string) {
		s.logger.Info().Str("reason", reason).Str("output", opts.Output).Msg("building documentation")
		report, err := s.GenerateFile(ctx, req, opts.Output)
		if err != nil {
			s.logger.Error().Err(err).Msg("build failed, keeping previous output")
		}
		if opts.OnBuild != nil {
			opts.OnBuild(report, err)
		}
	}

	build("initial")
	s.logger.Info().Str("path", input).Msg("watching input for changes")

	filename := filepath.Base(input)
	timer := time.NewTimer(opts.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			// Only react to the input file
			if filepath.Base(event.Name) != filename {
				continue
			}

			// React to write or create (atomic save = create)
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				s.logger.Debug().
					Str("event", event.Op.String()).
					Str("file", event.Name).
					Msg("input file changed")
				timer.Reset(opts.Debounce)
			}

		case <-timer.C:
			s.rebuilt()
			build("file changed")

		case <-sigCh:
			s.logger.Info().Msg("received SIGHUP, rebuilding")
			s.rebuilt()
			build("signal")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error().Err(err).Msg("file watcher error")

		case <-ctx.Done():
			s.logger.Info().Msg("watch stopped")
			return nil
		}
	}
}

func (s *Service) rebuilt() {
	if s.metrics != nil {
		s.metrics.Rebuilds.Inc()
	}
}
