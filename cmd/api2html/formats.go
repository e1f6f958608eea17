package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/artpar/api2html/core/formatter"
	"github.com/spf13/cobra"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List output formats",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		def := formatter.Default()
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		for _, name := range formatter.List() {
			f, _ := formatter.Get(name)
			marker := ""
			if def != nil && def.Name() == name {
				marker = " (default)"
			}
			fmt.Fprintf(tw, "%s\t%s%s\n", name, f.Description(), marker)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}
