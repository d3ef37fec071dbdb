package main

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"ilgraph/internal/ir"
	"ilgraph/internal/irpack"
)

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump SNAPSHOT",
		Short: "Print a snapshot written by lower --out",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatStr, err := cmd.Flags().GetString("format")
			if err != nil {
				return err
			}
			format, err := readOutputFormat(formatStr)
			if err != nil {
				return err
			}
			m, named, err := irpack.ReadFile(args[0])
			if err != nil {
				return err
			}
			if err := writeModule(cmd.OutOrStdout(), m, named, format); err != nil {
				return err
			}
			if stats, _ := cmd.Flags().GetBool("stats"); stats {
				printStats(cmd.ErrOrStderr(), m.Stats())
			}
			return nil
		},
	}
	cmd.Flags().String("format", "text", "output format (text|json|yaml)")
	cmd.Flags().Bool("stats", false, "print table sizes to stderr")
	return cmd
}

func printStats(w io.Writer, s ir.Stats) {
	fmt.Fprintf(w, "nodes %d, node lists %d, roots %d\n", s.Nodes, s.NodeLists, s.Roots)
	for _, table := range slices.Sorted(maps.Keys(s.Types)) {
		fmt.Fprintf(w, "  %-14s %d\n", table, s.Types[table])
	}
}
