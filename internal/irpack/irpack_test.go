package irpack

import (
	"bytes"
	"iter"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"ilgraph/internal/ir"
	"ilgraph/internal/lower"
	"ilgraph/internal/tree"
	"ilgraph/internal/treetext"
	"ilgraph/internal/types"
)

const sample = `
(class Pair value)
(expr sum (add (ldloc 0) (ldloc 1)))
(expr call (callpure (method Math max (i32 i32) i32) (ldloc 0) (const i32 3)))
(expr empty (call (method Util tick () void)))
(stmt store (stfld (field Pair a i32) (ldarga 0) (convi32 (const u8 255))))
(stmt boom (throw "unreachable"))
`

func buildSample(t *testing.T) (*ir.Module, []ir.Named) {
	t.Helper()
	m := ir.NewModule(nil)
	u, err := treetext.ReadString(m, "sample.ilt", sample)
	require.NoError(t, err)
	l := lower.New(m, nil)
	var named []ir.Named
	for _, e := range u.Exprs {
		id, err := l.Lower(e.Node)
		require.NoError(t, err)
		named = append(named, ir.Named{Name: e.Name, Node: id})
	}
	for _, s := range u.Stmts {
		id, err := l.LowerRoot(s.Root)
		require.NoError(t, err)
		named = append(named, ir.Named{Name: s.Name, Root: id})
	}
	store, _ := tree.StackAddr(m, tree.ConstU64(1), types.MakeInt(types.U64))
	_, err = l.LowerRoot(store)
	require.NoError(t, err)
	return m, named
}

func collect[K, V any](seq iter.Seq2[K, V]) []V {
	var out []V
	for _, v := range seq {
		out = append(out, v)
	}
	return out
}

func TestRoundTripKeepsHandles(t *testing.T) {
	m, named := buildSample(t)
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, m, named))

	got, gotNamed, err := Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, named, gotNamed)
	require.Equal(t, m.Stats(), got.Stats())

	require.Equal(t, collect(m.Nodes()), collect(got.Nodes()))
	require.Equal(t, collect(m.Roots()), collect(got.Roots()))
	require.Equal(t, collect(m.Types.Strings()), collect(got.Types.Strings()))
	require.Equal(t, collect(m.Types.Methods()), collect(got.Types.Methods()))

	var before, after bytes.Buffer
	require.NoError(t, ir.Dump(&before, m, named))
	require.NoError(t, ir.Dump(&after, got, gotNamed))
	require.Equal(t, before.String(), after.String())

	// Fresh stack slots do not collide with the restored one.
	slot := got.AnonStatic(types.MakeInt(types.U64))
	require.Equal(t, "stack_addr_2", got.Types.MustString(got.Types.MustStaticField(slot).Name))
}

func TestDecodeRejectsForeignInput(t *testing.T) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	require.NoError(t, enc.Encode(header{Magic: "something-else", Version: FormatVersion}))
	_, _, err := Decode(&buf)
	require.ErrorContains(t, err, `not a snapshot (magic "something-else")`)

	buf.Reset()
	require.NoError(t, enc.Encode(header{Magic: Magic, Version: "2.1.0"}))
	_, _, err = Decode(&buf)
	require.ErrorContains(t, err, "unsupported format version 2.1.0")

	buf.Reset()
	require.NoError(t, enc.Encode(header{Magic: Magic, Version: "one"}))
	_, _, err = Decode(&buf)
	require.ErrorContains(t, err, `bad format version "one"`)

	_, _, err = Decode(bytes.NewReader(nil))
	require.ErrorContains(t, err, "read header")
}

func TestDecodeAcceptsMinorVersions(t *testing.T) {
	m, named := buildSample(t)
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	require.NoError(t, enc.Encode(header{Magic: Magic, Version: "1.4.2"}))
	require.NoError(t, enc.Encode(&body{
		Strings: collect(m.Types.Strings()),
		Types:   collect(m.Types.Types()),
		Named:   named[:0],
	}))
	got, _, err := Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, len(collect(m.Types.Strings())), len(collect(got.Types.Strings())))
}

func TestDecodeDetectsDrift(t *testing.T) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	require.NoError(t, enc.Encode(header{Magic: Magic, Version: FormatVersion}))
	// The second string duplicates the first and cannot get handle 2.
	require.NoError(t, enc.Encode(&body{Strings: []string{"a", "a"}}))
	_, _, err := Decode(&buf)
	require.ErrorContains(t, err, "string entry 2 re-interned as 1")
}

func TestDecodeRejectsMissingArgumentLists(t *testing.T) {
	m, named := buildSample(t)
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, m, named))

	dec := msgpack.NewDecoder(&buf)
	var (
		h header
		b body
	)
	require.NoError(t, dec.Decode(&h))
	require.NoError(t, dec.Decode(&b))
	require.NotEmpty(t, b.Lists)
	b.Lists = nil

	var broken bytes.Buffer
	enc := msgpack.NewEncoder(&broken)
	require.NoError(t, enc.Encode(h))
	require.NoError(t, enc.Encode(&b))

	var err error
	require.NotPanics(t, func() { _, _, err = Decode(&broken) })
	require.ErrorContains(t, err, "snapshot is inconsistent")
	require.ErrorContains(t, err, "unknown argument list")
}

func TestFileRoundTrip(t *testing.T) {
	m, named := buildSample(t)
	path := filepath.Join(t.TempDir(), "out", "snap.ilg")
	require.NoError(t, WriteFile(path, m, named))

	got, gotNamed, err := ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, named, gotNamed)
	require.True(t, slices.Equal(collect(m.Nodes()), collect(got.Nodes())))

	_, _, err = ReadFile(filepath.Join(t.TempDir(), "missing.ilg"))
	require.Error(t, err)
}
