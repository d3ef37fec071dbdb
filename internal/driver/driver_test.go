package driver

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ilgraph/internal/ir"
	"ilgraph/internal/observ"
	"ilgraph/internal/testkit"
	"ilgraph/internal/trace"
)

func sources() []Source {
	return []Source{
		{Path: "a.ilt", Data: []byte("(expr sum (add (ldloc 0) (ldloc 1)))\n")},
		{Path: "b.ilt", Data: []byte("(expr k (mul (const i32 3) (const i32 4)))\n(stmt drop (pop (ldloc 0)))\n")},
	}
}

func dump(t *testing.T, res *Result) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, ir.Dump(&buf, res.Module, res.Named))
	return buf.String()
}

func TestRunFoldsAndDumps(t *testing.T) {
	timer := observ.NewTimer()
	res, err := Run(context.Background(), sources(), Options{Jobs: 2, Fold: true, Timer: timer})
	require.NoError(t, err)
	require.Equal(t, 1, res.Folded)
	require.Equal(t, 7, res.Stats.Nodes)
	testkit.Golden(t, "fold", dump(t, res))

	var names []string
	for _, p := range timer.Report().Phases {
		names = append(names, p.Name)
	}
	require.Equal(t, []string{"parse", "lower", "fold", "validate"}, names)
	require.Len(t, res.Timings.Phases, 4)
}

func TestRunIsIndependentOfJobs(t *testing.T) {
	one, err := Run(context.Background(), sources(), Options{Jobs: 1})
	require.NoError(t, err)
	many, err := Run(context.Background(), sources(), Options{Jobs: 8})
	require.NoError(t, err)
	require.Equal(t, dump(t, one), dump(t, many))
	require.Equal(t, one.Digest, many.Digest)
	require.Zero(t, one.Folded)
}

func TestRunReportsEveryParseError(t *testing.T) {
	srcs := []Source{
		{Path: "x.ilt", Data: []byte("(expr a (ldloc 0)")},
		{Path: "ok.ilt", Data: []byte("(expr b (ldloc 0))")},
		{Path: "y.ilt", Data: []byte(")")},
	}
	_, err := Run(context.Background(), srcs, Options{})
	require.ErrorContains(t, err, "x.ilt:1:1: unclosed (")
	require.ErrorContains(t, err, "y.ilt:1:1: unexpected )")
}

func TestRunRejectsDuplicateNames(t *testing.T) {
	srcs := []Source{
		{Path: "a.ilt", Data: []byte("(expr v (ldloc 0))")},
		{Path: "b.ilt", Data: []byte("(stmt v (nop))")},
	}
	_, err := Run(context.Background(), srcs, Options{})
	require.EqualError(t, err, `b.ilt: "v" already defined in a.ilt`)
}

func TestRunEmitsSpans(t *testing.T) {
	ring := trace.NewRingTracer(256, trace.LevelDebug)
	ctx := trace.WithTracer(context.Background(), ring)
	_, err := Run(ctx, sources(), Options{})
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, ev := range ring.Snapshot() {
		if ev.Kind == trace.KindSpanBegin {
			seen[ev.Scope.String()+":"+ev.Name] = true
		}
	}
	for _, want := range []string{"driver:run", "file:a.ilt", "file:b.ilt", "pass:lower", "pass:validate"} {
		require.True(t, seen[want], want)
	}
}

func TestExpandPaths(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.ilt", "a.ilt", "notes.txt", "sub/c.ilt"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("(expr x (ldloc 0))"), 0o600))
	}
	extra := filepath.Join(dir, "notes.txt")

	got, err := ExpandPaths([]string{dir, extra, filepath.Join(dir, "a.ilt")})
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "a.ilt"),
		filepath.Join(dir, "b.ilt"),
		filepath.Join(dir, "sub", "c.ilt"),
		extra,
	}, got)

	_, err = ExpandPaths([]string{filepath.Join(dir, "missing.ilt")})
	require.Error(t, err)
}

func TestDigestTracksPathAndContent(t *testing.T) {
	a := Digest(sources())
	renamed := sources()
	renamed[0].Path = "z.ilt"
	require.NotEqual(t, a, Digest(renamed))
	edited := sources()
	edited[1].Data = append(edited[1].Data, ' ')
	require.NotEqual(t, a, Digest(edited))
	require.Equal(t, a, Digest(sources()))
}

func TestWatchRerunsOnChange(t *testing.T) {
	old := watchDebounce
	watchDebounce = 10 * time.Millisecond
	t.Cleanup(func() { watchDebounce = old })

	dir := t.TempDir()
	path := filepath.Join(dir, "w.ilt")
	require.NoError(t, os.WriteFile(path, []byte("(expr a (ldloc 0))"), 0o600))

	type outcome struct {
		res *Result
		err error
	}
	results := make(chan outcome, 8)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, []string{dir}, Options{}, func(res *Result, err error) {
			results <- outcome{res, err}
		})
	}()

	next := func() outcome {
		t.Helper()
		select {
		case o := <-results:
			return o
		case <-time.After(5 * time.Second):
			t.Fatal("no run reported")
			return outcome{}
		}
	}

	first := next()
	require.NoError(t, first.err)
	require.Equal(t, "a", first.res.Named[0].Name)

	require.NoError(t, os.WriteFile(path, []byte("(expr b (ldloc 1))"), 0o600))
	// A run may observe the file mid-write; wait for the settled content.
	for {
		o := next()
		if o.err == nil && len(o.res.Named) == 1 && o.res.Named[0].Name == "b" {
			break
		}
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
