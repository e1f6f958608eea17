// Package app contains the application services that drive a documentation run:
// parse the input, resolve its schemas and render the selection.
package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/artpar/api2html/adapters/metrics"
	"github.com/artpar/api2html/core/formatter"
	"github.com/artpar/api2html/core/render"
	"github.com/artpar/api2html/core/resolver"
	"github.com/artpar/api2html/ports"
	"github.com/rs/zerolog"
)

// Deps contains dependencies for the generation service.
type Deps struct {
	Parser     ports.DocumentParser
	Formatters *formatter.Registry
	IDGen      ports.IDGenerator
	Metrics    *metrics.Collector // optional
	Logger     zerolog.Logger
}

// Request describes one generation run.
type Request struct {
	// Input is the path of the API description document.
	Input string

	// Selection lists the top-level ids to render, in order. Empty renders all.
	Selection []string

	// Format names the output formatter. Empty uses the registry default.
	Format string

	IncludeDescription bool
}

// Report summarizes a finished run.
type Report struct {
	RunID      string
	Format     string
	Schemas    int      // top-level schemas resolved
	Rendered   []string // ids emitted, in order
	Duplicates int
	Missing    []string
	Duration   time.Duration
}

// Service runs documentation generation.
type Service struct {
	parser     ports.DocumentParser
	formatters *formatter.Registry
	idGen      ports.IDGenerator
	metrics    *metrics.Collector
	logger     zerolog.Logger
}

// NewService creates a new generation service.
func NewService(deps Deps) *Service {
	formatters := deps.Formatters
	if formatters == nil {
		formatters = formatter.DefaultRegistry
	}
	return &Service{
		parser:     deps.Parser,
		formatters: formatters,
		idGen:      deps.IDGen,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
}

// Generate runs parse, resolve and render for req and writes the document to w.
// Output already written when a fatal error occurs is not rolled back; use
// GenerateFile for an all-or-nothing destination.
func (s *Service) Generate(ctx context.Context, req Request, w io.Writer) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	report := &Report{RunID: s.idGen.New()}
	logger := s.logger.With().
		Str("run_id", report.RunID).
		Str("input", req.Input).
		Logger()

	err := s.run(req, w, report, logger)
	report.Duration = time.Since(start)
	s.observe(report, err)

	if err != nil {
		logger.Error().Err(err).Msg("generation failed")
		return report, err
	}

	logger.Info().
		Str("format", report.Format).
		Int("schemas", report.Schemas).
		Int("rendered", len(report.Rendered)).
		Int("duplicates", report.Duplicates).
		Int("missing", len(report.Missing)).
		Dur("duration", report.Duration).
		Msg("generation complete")
	return report, nil
}

func (s *Service) run(req Request, w io.Writer, report *Report, logger zerolog.Logger) error {
	f, err := s.formatters.Lookup(req.Format)
	if err != nil {
		return err
	}
	report.Format = f.Name()

	doc, err := s.parser.ParseFile(req.Input)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	mapping, err := resolver.New(doc, logger).ResolveAll()
	if err != nil {
		return fmt.Errorf("resolve: %w", err)
	}
	report.Schemas = mapping.Len()

	if err := f.Begin(w, doc); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	d := render.NewDispatcher(f, render.Options{IncludeDescription: req.IncludeDescription}, logger)
	pass, err := d.RenderSelection(w, mapping, req.Selection)
	if pass != nil {
		report.Rendered = pass.Rendered
		report.Duplicates = pass.Duplicates
		report.Missing = pass.Missing
		s.observePass(pass)
	}
	if err != nil {
		return err
	}

	if err := f.End(w); err != nil {
		return fmt.Errorf("write footer: %w", err)
	}
	return nil
}

// GenerateFile runs req and replaces path with the result only when the run
// succeeds. An empty path or "-" writes to stdout.
func (s *Service) GenerateFile(ctx context.Context, req Request, path string) (*Report, error) {
	var buf bytes.Buffer
	report, err := s.Generate(ctx, req, &buf)
	if err != nil {
		return report, err
	}

	if path == "" || path == "-" {
		_, err = buf.WriteTo(os.Stdout)
		return report, err
	}
	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return report, fmt.Errorf("write output: %w", err)
	}
	return report, nil
}

// writeFileAtomic writes data to a temporary file next to path and renames it
// into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *Service) observe(report *Report, err error) {
	if s.metrics == nil {
		return
	}
	status := metrics.StatusOK
	if err != nil {
		status = metrics.StatusError
	}
	s.metrics.RunsTotal.WithLabelValues(status).Inc()
	s.metrics.RunDuration.Observe(report.Duration.Seconds())
	s.metrics.SchemasResolved.Add(float64(report.Schemas))
}

func (s *Service) observePass(pass *render.Pass) {
	if s.metrics == nil {
		return
	}
	for _, t := range pass.Templates {
		s.metrics.RendersTotal.WithLabelValues(t).Inc()
	}
	s.metrics.DuplicateRenders.Add(float64(pass.Duplicates))
	s.metrics.MissingSelections.Add(float64(len(pass.Missing)))
}
