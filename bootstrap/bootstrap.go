// Package bootstrap wires all dependencies and starts the application.
// Configuration comes from an optional YAML file, API2HTML_* environment
// variables and command line flags, in increasing order of precedence.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/artpar/api2html/adapters/idgen"
	"github.com/artpar/api2html/adapters/metrics"
	"github.com/artpar/api2html/adapters/openapi"
	"github.com/artpar/api2html/app"
	"github.com/artpar/api2html/config"
	"github.com/artpar/api2html/core/formatter"
	"github.com/artpar/api2html/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

// App represents the wired application.
type App struct {
	Logger  zerolog.Logger
	Config  *config.Holder
	Metrics *metrics.Collector
	Service *app.Service

	HTTPServer *http.Server

	registry *prometheus.Registry
}

// Options provides optional configuration for application initialization.
type Options struct {
	// ConfigPath names a config file. A named file must exist; without one,
	// only the environment and defaults apply.
	ConfigPath string

	// LogOutput receives log lines. Defaults to stderr, leaving stdout to the
	// generated document.
	LogOutput io.Writer

	// Override applies command line flags to the loaded configuration and
	// again after every config file reload.
	Override func(*config.Config)
}

// New creates and initializes the application.
func New(opts Options) (*App, error) {
	logOut := opts.LogOutput
	if logOut == nil {
		logOut = os.Stderr
	}

	var holder *config.Holder
	if opts.ConfigPath != "" {
		h, err := config.NewHolder(opts.ConfigPath, zerolog.Nop())
		if err != nil {
			return nil, err
		}
		holder = h
	} else {
		cfg, err := config.LoadWithFallback("")
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		holder = config.NewStaticHolder(cfg, zerolog.Nop())
	}

	if opts.Override != nil {
		if err := holder.Pin(opts.Override); err != nil {
			return nil, fmt.Errorf("validate config: %w", err)
		}
	}

	cfg := holder.Get()
	logger := NewLogger(cfg.Logging.Level, cfg.Logging.Format, logOut)
	holder.SetLogger(logger)

	registry := prometheus.NewRegistry()
	collector := metrics.NewWithRegistry(registry)

	a := &App{
		Logger:  logger,
		Config:  holder,
		Metrics: collector,
		Service: app.NewService(app.Deps{
			Parser:     openapi.NewParser(),
			Formatters: formatter.DefaultRegistry,
			IDGen:      idgen.UUID{},
			Metrics:    collector,
			Logger:     logger,
		}),
		registry: registry,
	}

	logger.Debug().
		Str("config", opts.ConfigPath).
		Str("format", cfg.Output.Format).
		Msg("application initialized")
	return a, nil
}

// NewLogger builds the application logger. Unknown levels fall back to info;
// "console" selects human-readable output, anything else JSON.
func NewLogger(level, format string, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	if format == "console" {
		output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		return zerolog.New(output).Level(lvl).With().Timestamp().Logger()
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Request builds a generation request from the current configuration.
func (a *App) Request(input string, selection []string) app.Request {
	cfg := a.Config.Get()
	return app.Request{
		Input:              input,
		Selection:          selection,
		Format:             cfg.Output.Format,
		IncludeDescription: cfg.Output.Descriptions(),
	}
}

// Generate runs one generation into the configured output and exports metrics
// to the textfile, if one is configured.
func (a *App) Generate(ctx context.Context, input string, selection []string) (*app.Report, error) {
	report, err := a.Service.GenerateFile(ctx, a.Request(input, selection), a.Config.Get().Output.Path)
	a.FlushMetrics()
	return report, err
}

// Watch regenerates the configured output whenever input changes.
func (a *App) Watch(ctx context.Context, input string) error {
	return a.Service.Watch(ctx, a.Request(input, nil), app.WatchOptions{
		Output:  a.Config.Get().Output.Path,
		Signals: true,
		OnBuild: func(*app.Report, error) { a.FlushMetrics() },
	})
}

// FlushMetrics writes the metrics textfile. Failures are logged only.
func (a *App) FlushMetrics() {
	path := a.Config.Get().Metrics.Textfile
	if path == "" {
		return
	}
	if err := a.Metrics.WriteTextfile(path); err != nil {
		a.Logger.Warn().Err(err).Str("path", path).Msg("failed to write metrics textfile")
	}
}

// InitHTTPServer builds the documentation server for input.
func (a *App) InitHTTPServer(input string) {
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	docs := web.NewDocsHandler(web.DocsDeps{
		Service: a.Service,
		Input:   input,
		Config:  a.Config,
		Metrics: a.Metrics.Handler(),
		Logger:  a.Logger,
	})

	cfg := a.Config.Get()
	a.HTTPServer = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      docs.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}

// Serve starts the documentation server and blocks until ctx is done.
func (a *App) Serve(ctx context.Context, input string) error {
	if a.HTTPServer == nil {
		a.InitHTTPServer(input)
	}

	// Hot reload output settings when running from a config file
	if a.Config.Path() != "" {
		if err := a.Config.WatchFile(); err != nil {
			a.Logger.Warn().Err(err).Msg("config file watch disabled")
		}
		a.Config.WatchSignals()
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Str("input", input).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.Shutdown()
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		a.Logger.Info().Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	a.Config.Stop()

	a.Logger.Info().Msg("shutdown complete")
	return nil
}
