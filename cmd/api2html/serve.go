package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve INPUT",
	Short: "Serve documentation over HTTP",
	Long: `Start an HTTP server documenting INPUT.

Every request renders the document afresh, so edits to INPUT show up on reload.

Endpoints:
  GET /                all schemas (?format= overrides the configured format)
  GET /schemas/{id}    one schema and what it reaches, 404 if unknown
  GET /healthz         liveness
  GET /metrics         Prometheus metrics

With --config, the file is watched and output settings are reloaded on change
or on SIGHUP.

Examples:
  api2html serve petstore.yaml
  api2html serve petstore.yaml --addr 127.0.0.1:9000 -c api2html.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return a.Serve(ctx, args[0])
}
