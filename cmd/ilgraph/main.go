package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"ilgraph/internal/version"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ilgraph",
		Short:         "Lower tree IR into interned graph IR",
		Long:          `ilgraph reads tree IR written as s-expressions, lowers it into a hash-consed graph and prints or snapshots the result`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			mode, err := cmd.Flags().GetString("color")
			if err != nil {
				return err
			}
			return applyColorMode(mode)
		},
	}

	// Глобальные флаги
	root.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	root.PersistentFlags().Bool("timings", false, "show timing information")
	root.PersistentFlags().String("trace", "", "trace output file (- for stderr)")
	root.PersistentFlags().String("trace-level", "", "trace level (off|error|phase|detail|debug)")
	root.PersistentFlags().String("trace-mode", "stream", "trace storage (stream|ring|both)")
	root.PersistentFlags().Duration("trace-heartbeat", 0, "emit a heartbeat event at this interval")

	root.AddCommand(newLowerCmd())
	root.AddCommand(newDumpCmd())
	root.AddCommand(newDiscrCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(root.ErrOrStderr(), "%s %v\n", color.New(color.FgRed, color.Bold).Sprint("error:"), err)
		stop()
		os.Exit(1)
	}
}

func applyColorMode(mode string) error {
	switch mode {
	case "", "auto":
		color.NoColor = !isTerminal(os.Stdout)
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return errors.Newf("invalid --color value %q (expected auto|on|off)", mode)
	}
	return nil
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
