package ir

import (
	"fmt"
	"iter"
	"strconv"
	"strings"

	"ilgraph/internal/intern"
	"ilgraph/internal/types"
)

// Names of runtime support members hosted by the main module class.
const (
	GlobalVoidName      = "global_void"
	StackAddrPrefix     = "stack_addr_"
	defaultNodeCapacity = 1024
)

// Module is the interning store of one compilation session: the type and
// reference interner plus the node, node-list and root tables. A Module has
// exactly one writer.
type Module struct {
	Types *types.Interner

	nodes *intern.Table[NodeID, Node]
	lists *intern.Lists[NodeListID, NodeID]
	roots *intern.Table[RootID, Root]

	anonStatics int
}

// NewModule creates an empty module. A nil interner gets a fresh one.
func NewModule(typesIn *types.Interner) *Module {
	if typesIn == nil {
		typesIn = types.NewInterner()
	}
	return &Module{
		Types: typesIn,
		nodes: intern.NewTable[NodeID, Node]("node", defaultNodeCapacity),
		lists: intern.NewLists[NodeListID, NodeID]("node list", 64),
		roots: intern.NewTable[RootID, Root]("root", 64),
	}
}

// Intern stores n and returns its handle.
func (m *Module) Intern(n Node) NodeID {
	return m.nodes.Intern(n)
}

// Find reports the handle of n without interning it.
func (m *Module) Find(n Node) (NodeID, bool) {
	return m.nodes.Find(n)
}

// Node resolves id. A handle not issued by m is a caller bug and panics.
func (m *Module) Node(id NodeID) Node {
	return m.nodes.MustLookup(id)
}

// LookupNode resolves id without panicking.
func (m *Module) LookupNode(id NodeID) (Node, bool) {
	return m.nodes.Lookup(id)
}

// HasNode reports whether id was issued by m.
func (m *Module) HasNode(id NodeID) bool {
	return m.nodes.Has(id)
}

// NodeList interns an argument list.
func (m *Module) NodeList(ids []NodeID) NodeListID {
	return m.lists.Intern(ids)
}

// Args resolves an argument list. The returned slice is a copy.
func (m *Module) Args(id NodeListID) []NodeID {
	return m.lists.MustLookup(id)
}

// LookupArgs resolves an argument list without panicking.
func (m *Module) LookupArgs(id NodeListID) ([]NodeID, bool) {
	return m.lists.Lookup(id)
}

// InternRoot stores r and returns its handle.
func (m *Module) InternRoot(r Root) RootID {
	return m.roots.Intern(r)
}

// Root resolves a root handle, panicking on a foreign handle.
func (m *Module) Root(id RootID) Root {
	return m.roots.MustLookup(id)
}

// Convenience interning helpers used by builders and passes.

// Const interns a constant node for c.
func (m *Module) Const(c Const) NodeID { return m.Intern(MakeConst(c)) }

// ConstBool interns the bool constant b.
func (m *Module) ConstBool(b bool) NodeID { return m.Const(BoolConst(b)) }

func (m *Module) ConstU64(v uint64) NodeID { return m.Const(UintConst(types.U64, v)) }

func (m *Module) ConstI32(v int32) NodeID { return m.Const(IntConst(types.I32, int64(v))) }

// ConstUSize interns a native unsigned integer constant.
func (m *Module) ConstUSize(v uint64) NodeID { return m.Const(UintConst(types.USize, v)) }

// Bin interns the binary operation op over a and b.
func (m *Module) Bin(op BinOp, a, b NodeID) NodeID { return m.Intern(MakeBinOp(op, a, b)) }

// ConstString interns s and a string literal node for it.
func (m *Module) ConstString(s string) NodeID {
	return m.Const(StringConst(m.Types.String(s)))
}

// GlobalVoid returns the static field holding the module's single void value.
func (m *Module) GlobalVoid() types.StaticFieldID {
	return m.Types.StaticField(types.StaticFieldDesc{
		Owner: m.Types.MainModule(),
		Name:  m.Types.String(GlobalVoidName),
		Type:  m.Types.Builtins().Void,
	})
}

// AnonStatic allocates a fresh static field of type t on the main module.
func (m *Module) AnonStatic(t types.Type) types.StaticFieldID {
	m.anonStatics++
	return m.Types.StaticField(types.StaticFieldDesc{
		Owner: m.Types.MainModule(),
		Name:  m.Types.String(fmt.Sprintf("%s%d", StackAddrPrefix, m.anonStatics)),
		Type:  m.Types.Intern(t),
	})
}

// ResumeAnonStatics makes AnonStatic continue after the highest numbered
// stack slot already present in the interner, e.g. after a module was
// rebuilt from a snapshot.
func (m *Module) ResumeAnonStatics() {
	in := m.Types
	for _, f := range in.StaticFields() {
		owner := in.MustClass(f.Owner)
		if owner.Assembly != types.NoStringID || in.MustString(owner.Name) != types.MainModuleName {
			continue
		}
		rest, ok := strings.CutPrefix(in.MustString(f.Name), StackAddrPrefix)
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(rest); err == nil && n > m.anonStatics {
			m.anonStatics = n
		}
	}
}

// Iteration and stats ----------------------------------------------------------

// Nodes iterates over every node in handle order.
func (m *Module) Nodes() iter.Seq2[NodeID, Node] { return m.nodes.All() }

// NodeLists iterates over every argument list in handle order.
func (m *Module) NodeLists() iter.Seq2[NodeListID, []NodeID] { return m.lists.All() }

// Roots iterates over every root in handle order.
func (m *Module) Roots() iter.Seq2[RootID, Root] { return m.roots.All() }

// Stats summarises table sizes.
type Stats struct {
	Nodes     int
	NodeLists int
	Roots     int
	Types     map[string]int
}

// Stats reports the number of entries in each table.
func (m *Module) Stats() Stats {
	return Stats{
		Nodes:     m.nodes.Len(),
		NodeLists: m.lists.Len(),
		Roots:     m.roots.Len(),
		Types:     m.Types.Counts(),
	}
}
