// Package irpack serialises a whole ir.Module, type tables included, so an
// emitter in another process can consume it. Tables are written in handle
// order and re-interned in the same order on decode, which reproduces every
// handle exactly.
package irpack

import (
	"io"
	"iter"

	"github.com/Masterminds/semver/v3"
	"github.com/cockroachdb/errors"
	"github.com/vmihailenco/msgpack/v5"

	"ilgraph/internal/ir"
	"ilgraph/internal/types"
)

// Magic opens every snapshot.
const Magic = "ilgraph-snapshot"

// FormatVersion is written into new snapshots. Readers accept any 1.x.
const FormatVersion = "1.0.0"

var readable = mustConstraint("^1.0")

func mustConstraint(s string) *semver.Constraints {
	c, err := semver.NewConstraint(s)
	if err != nil {
		panic(errors.AssertionFailedf("irpack: bad constraint %q: %v", s, err))
	}
	return c
}

type header struct {
	Magic   string `msgpack:"magic"`
	Version string `msgpack:"version"`
}

type body struct {
	Strings   []string                `msgpack:"strings"`
	Types     []types.Type            `msgpack:"types"`
	TypeLists [][]types.TypeID        `msgpack:"type_lists"`
	Sigs      []types.FnSig           `msgpack:"sigs"`
	Classes   []types.ClassRef        `msgpack:"classes"`
	Fields    []types.FieldDesc       `msgpack:"fields"`
	Statics   []types.StaticFieldDesc `msgpack:"statics"`
	Methods   []types.MethodRef       `msgpack:"methods"`
	Nodes     []ir.Node               `msgpack:"nodes"`
	Lists     [][]ir.NodeID           `msgpack:"lists"`
	Roots     []ir.Root               `msgpack:"roots"`
	Named     []ir.Named              `msgpack:"named"`
}

func values[K, V any](seq iter.Seq2[K, V]) []V {
	var out []V
	for _, v := range seq {
		out = append(out, v)
	}
	return out
}

// Encode writes m and the named entries to w.
func Encode(w io.Writer, m *ir.Module, named []ir.Named) error {
	in := m.Types
	b := body{
		Strings:   values(in.Strings()),
		Types:     values(in.Types()),
		TypeLists: values(in.TypeLists()),
		Sigs:      values(in.Sigs()),
		Classes:   values(in.Classes()),
		Fields:    values(in.Fields()),
		Statics:   values(in.StaticFields()),
		Methods:   values(in.Methods()),
		Nodes:     values(m.Nodes()),
		Lists:     values(m.NodeLists()),
		Roots:     values(m.Roots()),
		Named:     named,
	}
	enc := msgpack.NewEncoder(w)
	if err := enc.Encode(header{Magic: Magic, Version: FormatVersion}); err != nil {
		return errors.Wrap(err, "irpack: write header")
	}
	if err := enc.Encode(&b); err != nil {
		return errors.Wrap(err, "irpack: write tables")
	}
	return nil
}

// Decode reads a snapshot written by Encode into a fresh module.
func Decode(r io.Reader) (*ir.Module, []ir.Named, error) {
	dec := msgpack.NewDecoder(r)
	var h header
	if err := dec.Decode(&h); err != nil {
		return nil, nil, errors.Wrap(err, "irpack: read header")
	}
	if h.Magic != Magic {
		return nil, nil, errors.Newf("irpack: not a snapshot (magic %q)", h.Magic)
	}
	v, err := semver.NewVersion(h.Version)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "irpack: bad format version %q", h.Version)
	}
	if !readable.Check(v) {
		return nil, nil, errors.Newf("irpack: unsupported format version %s (want %s)", v, readable)
	}

	var b body
	if err := dec.Decode(&b); err != nil {
		return nil, nil, errors.Wrap(err, "irpack: read tables")
	}
	m, err := rebuild(&b)
	if err != nil {
		return nil, nil, err
	}
	if err := ir.Validate(m); err != nil {
		return nil, nil, errors.Wrap(err, "irpack: snapshot is inconsistent")
	}
	for _, nm := range b.Named {
		if nm.Node != ir.NoNodeID && !m.HasNode(nm.Node) {
			return nil, nil, errors.Newf("irpack: name %q refers to missing node %%%d", nm.Name, nm.Node)
		}
	}
	return m, b.Named, nil
}

// replay re-interns vals and checks that each lands on its original handle.
func replay[K ~uint32, V any](table string, vals []V, intern func(V) K) error {
	for i, v := range vals {
		want := i + 1
		if got := intern(v); int(got) != want {
			return errors.Newf("irpack: %s entry %d re-interned as %d", table, want, got)
		}
	}
	return nil
}

func rebuild(b *body) (*ir.Module, error) {
	in := types.NewInterner()
	m := ir.NewModule(in)
	err := errors.Join(
		replay("string", b.Strings, in.String),
		replay("type", b.Types, in.Intern),
		replay("type list", b.TypeLists, in.TypeList),
		replay("signature", b.Sigs, in.InternSig),
		replay("class", b.Classes, in.Class),
		replay("field", b.Fields, in.Field),
		replay("static field", b.Statics, in.StaticField),
		replay("method", b.Methods, in.Method),
		replay("node", b.Nodes, m.Intern),
		replay("node list", b.Lists, m.NodeList),
		replay("root", b.Roots, m.InternRoot),
	)
	if err != nil {
		return nil, err
	}
	m.ResumeAnonStatics()
	return m, nil
}
