package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"ilgraph/internal/project"
	"ilgraph/internal/trace"
)

// setupTracing reads the trace flags, falling back to [trace] in cfg, and
// attaches the tracer to the command context. The returned cleanup flushes
// and closes it; given a non-nil error it first dumps any ring buffer to
// stderr.
func setupTracing(cmd *cobra.Command, cfg project.Config) (func(error), error) {
	flags := cmd.Flags()

	traceOutput, err := stringSetting(cmd, "trace", "")
	if err != nil {
		return nil, err
	}
	levelStr, err := stringSetting(cmd, "trace-level", cfg.Trace.Level)
	if err != nil {
		return nil, err
	}
	// An output without a level means the caller wants to see phases.
	if traceOutput != "" && !flags.Changed("trace-level") && cfg.TraceLevel() == trace.LevelOff {
		levelStr = "phase"
	}
	if traceOutput == "" {
		traceOutput = cfg.Trace.Output
	}
	modeStr, err := flags.GetString("trace-mode")
	if err != nil {
		return nil, err
	}
	heartbeatInterval, err := flags.GetDuration("trace-heartbeat")
	if err != nil {
		return nil, err
	}
	if !flags.Changed("trace-heartbeat") {
		if heartbeatInterval, err = cfg.HeartbeatInterval(); err != nil {
			return nil, err
		}
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, err
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func(error) {}, nil
	}
	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, err
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		OutputPath: traceOutput,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create tracer")
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))

	heartbeat := trace.StartHeartbeat(tracer, heartbeatInterval)

	cleanup := func(runErr error) {
		heartbeat.Stop()
		if runErr != nil {
			for _, ring := range trace.Rings(tracer) {
				fmt.Fprintln(cmd.ErrOrStderr(), "-- last trace events --")
				if err := ring.Dump(cmd.ErrOrStderr(), trace.FormatText); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "trace: dump error: %v\n", err)
				}
			}
		}
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return cleanup, nil
}
