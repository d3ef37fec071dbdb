// Package driver runs the read, lower, fold and validate pipeline over a set
// of tree text files.
package driver

import (
	"context"
	"fmt"
	"runtime"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"ilgraph/internal/ir"
	"ilgraph/internal/lower"
	"ilgraph/internal/observ"
	"ilgraph/internal/passes"
	"ilgraph/internal/project"
	"ilgraph/internal/trace"
	"ilgraph/internal/treetext"
)

// Options configures Run.
type Options struct {
	// Jobs bounds parallel parsing; <= 0 means GOMAXPROCS.
	Jobs int
	// Fold runs constant folding over every named entry.
	Fold bool
	// Timer, when set, receives one phase per pipeline step.
	Timer *observ.Timer
}

// Result is one lowered module and the names bound in it.
type Result struct {
	Module *ir.Module
	Named  []ir.Named
	Stats  lower.Stats
	Folded int
	Digest project.Digest
	// Timings snapshots the timer once validation is done.
	Timings observ.Report
}

// Run parses srcs in parallel and lowers them, in order, into one module.
// Parse errors of all files are reported together; later phases stop at the
// first error.
func Run(ctx context.Context, srcs []Source, opts Options) (*Result, error) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "run", trace.SpanFrom(ctx))
	defer span.End("")

	timer := opts.Timer
	if timer == nil {
		timer = observ.NewTimer()
	}

	var files []*treetext.File
	err := timer.Measure("parse", func() error {
		var err error
		files, err = parseAll(ctx, srcs, opts.Jobs, tracer, span.ID())
		return err
	})
	if err != nil {
		return nil, err
	}

	res := &Result{Module: ir.NewModule(nil), Digest: Digest(srcs)}
	l := lower.New(res.Module, tracer)
	err = timer.Measure("lower", func() error {
		pass := trace.Begin(tracer, trace.ScopePass, "lower", span.ID())
		defer pass.End("")
		return lowerAll(l, files, res)
	})
	if err != nil {
		return nil, err
	}
	res.Stats = l.Stats

	if opts.Fold {
		err = timer.Measure("fold", func() error {
			pass := trace.Begin(tracer, trace.ScopePass, "fold", span.ID())
			res.Folded = fold(res.Module, res.Named)
			pass.End(fmt.Sprintf("folded=%d", res.Folded))
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	err = timer.Measure("validate", func() error {
		pass := trace.Begin(tracer, trace.ScopePass, "validate", span.ID())
		defer pass.End("")
		return ir.Validate(res.Module)
	})
	if err != nil {
		return nil, err
	}
	res.Timings = timer.Report()
	return res, nil
}

func parseAll(ctx context.Context, srcs []Source, jobs int, tracer trace.Tracer, parent uint64) ([]*treetext.File, error) {
	files := make([]*treetext.File, len(srcs))
	if len(srcs) == 0 {
		return files, nil
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	// Each goroutine owns errs[i] and files[i].
	errs := make([]error, len(srcs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(srcs)))
	for i, src := range srcs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			span := trace.Begin(tracer, trace.ScopeFile, src.Path, parent)
			f, err := treetext.Parse(src.Path, src.Data)
			if err != nil {
				span.End("error")
				errs[i] = err
				return nil
			}
			span.End(fmt.Sprintf("forms=%d", len(f.Forms)))
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return files, nil
}

func lowerAll(l *lower.Lowerer, files []*treetext.File, res *Result) error {
	defined := make(map[string]string)
	bind := func(name, file string) error {
		if prev, ok := defined[name]; ok {
			return errors.Newf("%s: %q already defined in %s", file, name, prev)
		}
		defined[name] = file
		return nil
	}
	for _, f := range files {
		u, err := treetext.Build(l.Module(), f)
		if err != nil {
			return err
		}
		for _, e := range u.Exprs {
			if err := bind(e.Name, f.Name); err != nil {
				return err
			}
			id, err := l.Lower(e.Node)
			if err != nil {
				return errors.Wrapf(err, "%s:%d:%d: expr %s", f.Name, e.Pos.Line, e.Pos.Col, e.Name)
			}
			res.Named = append(res.Named, ir.Named{Name: e.Name, Node: id})
		}
		for _, s := range u.Stmts {
			if err := bind(s.Name, f.Name); err != nil {
				return err
			}
			id, err := l.LowerRoot(s.Root)
			if err != nil {
				return errors.Wrapf(err, "%s:%d:%d: stmt %s", f.Name, s.Pos.Line, s.Pos.Col, s.Name)
			}
			res.Named = append(res.Named, ir.Named{Name: s.Name, Root: id})
		}
	}
	return nil
}

// fold rewrites named in place and returns the number of folded nodes.
func fold(m *ir.Module, named []ir.Named) int {
	var f passes.Folder
	for i, nm := range named {
		if nm.Root != 0 {
			named[i].Root = ir.RewriteRoot(m, nm.Root, f.Map)
			continue
		}
		named[i].Node = ir.RewriteID(m, nm.Node, f.Map)
	}
	return f.Folded
}
