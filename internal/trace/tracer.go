package trace

import (
	"fmt"
	"io"
	"os"
	"strings"
)

const defaultRingSize = 4096

// Tracer records events. Implementations are safe for concurrent use.
type Tracer interface {
	Emit(ev *Event)
	Flush() error
	Close() error
	Level() Level
	// Enabled reports Level() > LevelOff.
	Enabled() bool
}

// StorageMode determines where events go.
type StorageMode uint8

const (
	ModeStream StorageMode = iota + 1 // written as they happen
	ModeRing                          // kept in memory, dumped on failure
	ModeBoth
)

var modeNames = [...]string{ModeStream: "stream", ModeRing: "ring", ModeBoth: "both"}

func (m StorageMode) String() string {
	if m != 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "unknown"
}

// ParseMode converts a mode name to a StorageMode.
func ParseMode(s string) (StorageMode, error) {
	for m, name := range modeNames {
		if m != 0 && strings.EqualFold(s, name) {
			return StorageMode(m), nil //nolint:gosec // index of a small table
		}
	}
	return ModeStream, fmt.Errorf("invalid storage mode: %q (expected: stream|ring|both)", s)
}

// Config holds tracer configuration.
type Config struct {
	Level      Level
	Mode       StorageMode
	Format     Format        // FormatAuto picks from OutputPath
	Output     io.Writer     // overrides OutputPath
	OutputPath string        // "-" or "" for stderr
	RingSize   int           // default 4096
}

// New creates the tracer cfg describes. LevelOff yields Nop.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	format := cfg.Format
	if format == FormatAuto {
		format = FormatText
		if strings.HasSuffix(cfg.OutputPath, ".ndjson") || strings.HasSuffix(cfg.OutputPath, ".json") {
			format = FormatNDJSON
		}
	}

	switch cfg.Mode {
	case ModeRing:
		return NewRingTracer(cfg.RingSize, cfg.Level), nil
	case ModeStream, ModeBoth:
		w, err := openOutput(cfg)
		if err != nil {
			return nil, err
		}
		stream := NewStreamTracer(w, cfg.Level, format)
		if cfg.Mode == ModeStream {
			return stream, nil
		}
		return NewMultiTracer(cfg.Level, stream, NewRingTracer(cfg.RingSize, cfg.Level)), nil
	default:
		return nil, fmt.Errorf("unknown storage mode: %v", cfg.Mode)
	}
}

func openOutput(cfg Config) (io.Writer, error) {
	if cfg.Output != nil {
		return cfg.Output, nil
	}
	if cfg.OutputPath == "" || cfg.OutputPath == "-" {
		// Hide Close so the tracer never closes stderr.
		return struct{ io.Writer }{os.Stderr}, nil
	}
	f, err := os.Create(cfg.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace output: %w", err)
	}
	return f, nil
}
