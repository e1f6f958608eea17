package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch INPUT -o FILE",
	Short: "Regenerate documentation whenever the input changes",
	Long: `Generate documentation for INPUT into FILE, then regenerate it each time
INPUT is saved or SIGHUP is received. A failed run is logged and FILE keeps
its previous content.

Examples:
  api2html watch petstore.yaml -o docs/index.html
  api2html watch petstore.yaml -o docs/schemas.txt -f table`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	if path := a.Config.Get().Output.Path; path == "" || path == "-" {
		return fmt.Errorf("watch needs an output file, set one with -o")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return a.Watch(ctx, args[0])
}
