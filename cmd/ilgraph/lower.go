package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"ilgraph/internal/driver"
	"ilgraph/internal/irpack"
)

func newLowerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lower [flags] FILE|DIR...",
		Short: "Lower tree text files into one graph module",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runLower,
	}
	cmd.Flags().Bool("fold", false, "fold constant operations after lowering")
	cmd.Flags().Int("jobs", 0, "parallel parse jobs (0 = one per CPU)")
	cmd.Flags().String("format", "text", "output format (text|json|yaml)")
	cmd.Flags().StringP("out", "o", "", "also write a snapshot to this file")
	cmd.Flags().Bool("watch", false, "re-run whenever an input changes")
	return cmd
}

func runLower(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	cleanup, err := setupTracing(cmd, cfg)
	if err != nil {
		return err
	}
	defer func() { cleanup(err) }()

	opts := driver.Options{}
	if opts.Fold, err = boolSetting(cmd, "fold", cfg.Lower.Fold); err != nil {
		return err
	}
	if opts.Jobs, err = intSetting(cmd, "jobs", cfg.Lower.Jobs); err != nil {
		return err
	}
	formatStr, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	format, err := readOutputFormat(formatStr)
	if err != nil {
		return err
	}
	outPath, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}
	showTimings, err := cmd.Flags().GetBool("timings")
	if err != nil {
		return err
	}
	watch, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return err
	}

	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	emit := func(res *driver.Result) error {
		if err := writeModule(stdout, res.Module, res.Named, format); err != nil {
			return err
		}
		if outPath != "" {
			if err := irpack.WriteFile(outPath, res.Module, res.Named); err != nil {
				return errors.Wrapf(err, "write snapshot %s", outPath)
			}
		}
		if showTimings {
			printTimings(stderr, res.Timings)
		}
		return nil
	}

	if watch {
		return driver.Watch(cmd.Context(), args, opts, func(res *driver.Result, err error) {
			if err == nil {
				err = emit(res)
			}
			if err != nil {
				fmt.Fprintf(stderr, "error: %v\n", err)
			}
			fmt.Fprintln(stderr, "-- watching for changes --")
		})
	}

	srcs, err := driver.ReadSources(args)
	if err != nil {
		return err
	}
	res, err := driver.Run(cmd.Context(), srcs, opts)
	if err != nil {
		return err
	}
	return emit(res)
}
