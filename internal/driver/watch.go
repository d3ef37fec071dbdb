package driver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"

	"ilgraph/internal/project"
	"ilgraph/internal/trace"
)

// watchDebounce coalesces the bursts of events a single save produces.
var watchDebounce = 100 * time.Millisecond

// Watch runs the pipeline over paths, then again whenever the inputs change,
// until ctx is done. report sees every run whose inputs differ from the
// previous one, and every read error.
func Watch(ctx context.Context, paths []string, opts Options, report func(*Result, error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "start watcher")
	}
	defer w.Close()

	explicit := make(map[string]bool)
	trees := false
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return err
		}
		dirs := []string{filepath.Dir(p)}
		if info.IsDir() {
			trees = true
			dirs, err = subdirs(p)
			if err != nil {
				return err
			}
		} else {
			explicit[filepath.Clean(p)] = true
		}
		for _, d := range dirs {
			if err := w.Add(d); err != nil {
				return errors.Wrapf(err, "watch %s", d)
			}
		}
	}

	tracer := trace.FromContext(ctx)
	var (
		last project.Digest
		seen bool
	)
	rerun := func() {
		srcs, err := ReadSources(paths)
		if err != nil {
			report(nil, err)
			return
		}
		d := Digest(srcs)
		if seen && d == last {
			trace.Point(tracer, trace.ScopeDriver, "watch", "unchanged", 0)
			return
		}
		seen, last = true, d
		run := opts
		run.Timer = nil
		report(Run(ctx, srcs, run))
	}
	rerun()

	relevant := func(ev fsnotify.Event) bool {
		if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) &&
			!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
			return false
		}
		return explicit[filepath.Clean(ev.Name)] || strings.HasSuffix(ev.Name, SourceExt)
	}

	pending := time.NewTimer(time.Hour)
	pending.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op.Has(fsnotify.Create) {
				// New directories under a watched tree are watched too.
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && trees {
					_ = w.Add(ev.Name)
				}
			}
			if relevant(ev) {
				pending.Reset(watchDebounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return errors.Wrap(err, "watch")
		case <-pending.C:
			rerun()
		}
	}
}

func subdirs(root string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			dirs = append(dirs, path)
		}
		return nil
	})
	return dirs, err
}
