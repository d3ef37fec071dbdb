// Package project locates and loads ilgraph.toml, the per-directory settings
// of the ilgraph tool.
package project

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"

	"ilgraph/internal/layout"
	"ilgraph/internal/trace"
)

// ConfigFileName is the name searched for by FindConfig.
const ConfigFileName = "ilgraph.toml"

// Config mirrors ilgraph.toml.
type Config struct {
	Target TargetConfig `toml:"target"`
	Lower  LowerConfig  `toml:"lower"`
	Trace  TraceConfig  `toml:"trace"`
}

// TargetConfig selects the layout target.
type TargetConfig struct {
	Triple  string `toml:"triple"`
	PtrSize int    `toml:"ptr_size"`
}

// LowerConfig tunes the lowering pipeline.
type LowerConfig struct {
	Fold bool `toml:"fold"`
	// Jobs bounds parallel parsing; 0 means one per CPU.
	Jobs int `toml:"jobs"`
}

// TraceConfig configures the tracer.
type TraceConfig struct {
	Level     string `toml:"level"`
	Output    string `toml:"output"`
	Heartbeat string `toml:"heartbeat"`
}

// Manifest is a loaded config together with where it was found.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Default returns the settings used when no ilgraph.toml exists.
func Default() Config {
	return Config{
		Target: TargetConfig{Triple: layout.X86_64LinuxGNU().Triple},
		Trace:  TraceConfig{Level: "off", Output: "-"},
	}
}

// FindConfig walks up from startDir to locate ilgraph.toml.
func FindConfig(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, errors.Wrap(err, "failed to resolve start directory")
	}
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, errors.Wrapf(err, "failed to stat %q", candidate)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadManifest finds and loads the config governing startDir. ok is false
// when there is none; the caller then uses Default.
func LoadManifest(startDir string) (*Manifest, bool, error) {
	path, ok, err := FindConfig(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{Path: path, Root: filepath.Dir(path), Config: cfg}, true, nil
}

// LoadConfig reads one config file. Missing keys keep their defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := DecodeConfig(string(data))
	if err != nil {
		return Config{}, errors.Wrapf(err, "%s", path)
	}
	return cfg, nil
}

// DecodeConfig parses config text over Default and validates it.
func DecodeConfig(data string) (Config, error) {
	cfg := Default()
	meta, err := toml.Decode(data, &cfg)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to parse TOML")
	}
	if keys := meta.Undecoded(); len(keys) > 0 {
		return Config{}, errors.Newf("unknown key %q", keys[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every setting that has a fixed vocabulary.
func (c Config) Validate() error {
	if _, err := c.LayoutTarget(); err != nil {
		return errors.Wrap(err, "[target]")
	}
	if c.Lower.Jobs < 0 {
		return errors.Newf("[lower].jobs must not be negative, got %d", c.Lower.Jobs)
	}
	if _, err := trace.ParseLevel(c.Trace.Level); err != nil {
		return errors.Wrap(err, "[trace].level")
	}
	if _, err := c.HeartbeatInterval(); err != nil {
		return errors.Wrap(err, "[trace].heartbeat")
	}
	return nil
}

// LayoutTarget resolves [target].
func (c Config) LayoutTarget() (layout.Target, error) {
	return layout.TargetByTriple(c.Target.Triple, c.Target.PtrSize)
}

// TraceLevel resolves [trace].level; invalid levels read as off.
func (c Config) TraceLevel() trace.Level {
	lvl, err := trace.ParseLevel(c.Trace.Level)
	if err != nil {
		return trace.LevelOff
	}
	return lvl
}

// HeartbeatInterval parses [trace].heartbeat; empty means disabled.
func (c Config) HeartbeatInterval() (time.Duration, error) {
	if c.Trace.Heartbeat == "" {
		return 0, nil
	}
	return time.ParseDuration(c.Trace.Heartbeat)
}
