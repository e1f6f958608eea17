package main

import (
	"fmt"
	"os"

	"github.com/artpar/api2html/bootstrap"
	"github.com/artpar/api2html/config"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile       string
	outputPath    string
	outputFormat  string
	noDescription bool
	logLevel      string
	logFormat     string
	metricsFile   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "api2html [flags] INPUT [ID...]",
	Short: "Generate schema documentation from an OpenAPI document",
	Long: `api2html renders the schemas of an OpenAPI 3 document as documentation.

Every schema under components.schemas is resolved, references included, and
each object or composed schema is rendered once, in a stable order. Pass ids
to document only those schemas and what they reach.

Examples:
  api2html petstore.yaml > petstore.html
  api2html -o pet.html petstore.yaml Pet Order
  api2html -f table petstore.yaml
  api2html serve petstore.yaml --addr :8080
  api2html watch petstore.yaml -o docs/index.html`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runGenerate,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file path")
	flags.StringVarP(&outputPath, "output", "o", "", "output file (default stdout)")
	flags.StringVarP(&outputFormat, "format", "f", "", "output format: html, table, json, yaml (default html)")
	flags.BoolVar(&noDescription, "no-description", false, "leave schema descriptions out")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&logFormat, "log-format", "", "log format: json or console")
	flags.StringVar(&metricsFile, "metrics-file", "", "write run metrics to this file (Prometheus text format)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	_, err = a.Generate(cmd.Context(), args[0], args[1:])
	return err
}

// newApp wires the application, with flags set on the command line taking
// precedence over the config file and the environment.
func newApp(cmd *cobra.Command) (*bootstrap.App, error) {
	return bootstrap.New(bootstrap.Options{
		ConfigPath: cfgFile,
		LogOutput:  cmd.ErrOrStderr(),
		Override: func(c *config.Config) {
			flags := cmd.Flags()
			if flags.Changed("output") {
				c.Output.Path = outputPath
			}
			if flags.Changed("format") {
				c.Output.Format = outputFormat
			}
			if flags.Changed("no-description") {
				include := !noDescription
				c.Output.IncludeDescription = &include
			}
			if flags.Changed("log-level") {
				c.Logging.Level = logLevel
			}
			if flags.Changed("log-format") {
				c.Logging.Format = logFormat
			}
			if flags.Changed("metrics-file") {
				c.Metrics.Textfile = metricsFile
			}
			if flags.Changed("addr") {
				c.Server.Addr = serveAddr
			}
		},
	})
}
