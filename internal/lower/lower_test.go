package lower

import (
	"bytes"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"ilgraph/internal/ir"
	"ilgraph/internal/trace"
	"ilgraph/internal/tree"
	"ilgraph/internal/types"
)

func newLowerer() *Lowerer { return New(ir.NewModule(nil), nil) }

func TestLowerEqOfLocals(t *testing.T) {
	l := newLowerer()
	m := l.Module()
	id, err := l.Lower(tree.Eq(tree.LdLoc(0), tree.LdLoc(1)))
	require.NoError(t, err)

	n := m.Node(id)
	require.Equal(t, ir.KindBinOp, n.Kind)
	require.Equal(t, ir.BinEq, n.BinOp.Op)
	require.Equal(t, ir.MakeLdLoc(0), m.Node(n.BinOp.LHS))
	require.Equal(t, ir.MakeLdLoc(1), m.Node(n.BinOp.RHS))
	require.Less(t, n.BinOp.LHS, id)
	require.Less(t, n.BinOp.RHS, id)
	require.Equal(t, 3, m.Stats().Nodes)

	again, err := l.Lower(tree.Eq(tree.LdLoc(0), tree.LdLoc(1)))
	require.NoError(t, err)
	require.Equal(t, id, again)
}

func TestLowerEveryBinOp(t *testing.T) {
	l := newLowerer()
	m := l.Module()
	seen := map[ir.BinOp]bool{}
	for _, k := range tree.AllKinds() {
		op, ok := tree.BinOpOf(k)
		if !ok {
			continue
		}
		id, err := l.Lower(tree.Binary(k, tree.LdArg(0), tree.LdArg(1)))
		require.NoError(t, err)
		n := m.Node(id)
		require.Equal(t, ir.KindBinOp, n.Kind)
		require.Equal(t, op, n.BinOp.Op)
		seen[op] = true
	}
	require.Len(t, seen, len(ir.AllBinOps))
}

func TestLowerLoads(t *testing.T) {
	l := newLowerer()
	m := l.Module()
	in := m.Types

	u8 := l.MustLower(tree.LdInd(tree.LdLoc(0), types.MakeInt(types.U8)))
	n := m.Node(u8)
	require.Equal(t, ir.KindLdInd, n.Kind)
	require.Equal(t, "u8", in.TypeString(n.LdInd.Type))
	require.False(t, n.LdInd.Volatile)

	ptr := in.NPtr(types.MakeInt(types.I32))
	p := m.Node(l.MustLower(tree.LdIndPtr(tree.LdLoc(0), ptr)))
	require.Equal(t, "*i32", in.TypeString(p.LdInd.Type))

	obj := m.Node(l.MustLower(tree.LdObj(tree.LdLoc(0), types.MakeInt(types.U128))))
	require.Equal(t, "u128", in.TypeString(obj.LdInd.Type))
}

func TestLowerCasts(t *testing.T) {
	l := newLowerer()
	m := l.Module()

	n := m.Node(l.MustLower(tree.SignExtendToU64(tree.LdLoc(0))))
	require.Equal(t, ir.KindIntCast, n.Kind)
	require.Equal(t, types.U64, n.IntCast.Target)
	require.Equal(t, ir.SignExtend, n.IntCast.Extend)

	f := m.Node(l.MustLower(tree.ConvF64Un(tree.LdLoc(0))))
	require.Equal(t, ir.KindFloatCast, f.Kind)
	require.Equal(t, types.F64, f.FloatCast.Target)
	require.False(t, f.FloatCast.Signed)

	ptr := m.Types.NPtr(types.Void())
	c := m.Node(l.MustLower(tree.CastPtr(tree.LdLoc(0), ptr)))
	require.Equal(t, ir.KindPtrCast, c.Kind)
	require.Equal(t, ir.CastToPtr, c.PtrCast.Res.Kind)

	// Hand-built trees bypass the constructor check.
	bad := &tree.Node{Kind: tree.KindCastPtr, A: tree.LdLoc(0), Type: types.Bool()}
	_, err := l.Lower(bad)
	require.True(t, errors.HasAssertionFailure(err))
}

func TestLowerVolatile(t *testing.T) {
	l := newLowerer()
	m := l.Module()

	id, err := l.Lower(tree.Volatile(tree.LdInd(tree.LdArg(0), types.MakeInt(types.U32))))
	require.NoError(t, err)
	n := m.Node(id)
	require.Equal(t, ir.KindLdInd, n.Kind)
	require.True(t, n.LdInd.Volatile)

	// The plain load was never interned on its own.
	plain := n
	plain.LdInd.Volatile = false
	_, found := m.Find(plain)
	require.False(t, found)

	_, err = l.Lower(tree.Volatile(tree.Add(tree.LdLoc(0), tree.LdLoc(1))))
	require.Error(t, err)
	require.True(t, errors.HasAssertionFailure(err))
}

func TestLowerCalls(t *testing.T) {
	l := newLowerer()
	m := l.Module()
	in := m.Types
	cls := in.NewClass("Widget", "", false)
	sig := in.Sig([]types.Type{types.MakeInt(types.I32)}, types.Void())
	site := in.NewMethod(cls, "poke", sig, types.MethodVirtual)

	virt := m.Node(l.MustLower(tree.CallVirt(site, tree.LdArg(0))))
	require.Equal(t, ir.KindCall, virt.Kind)
	require.Equal(t, ir.NotPure, virt.Call.Pure)

	ctor := in.NewMethod(cls, ".ctor", sig, types.MethodConstructor)
	obj := m.Node(l.MustLower(tree.NewObj(ctor, tree.LdArg(0))))
	require.Equal(t, ir.NotPure, obj.Call.Pure)

	pure := m.Node(l.MustLower(tree.CallPure(site, tree.LdArg(0))))
	require.Equal(t, ir.Pure, pure.Call.Pure)

	empty := in.NewMethod(cls, "tick", in.Sig(nil, types.Void()), types.MethodStatic)
	noArgs := m.Node(l.MustLower(tree.Call(empty)))
	require.Empty(t, m.Args(noArgs.Call.Args))

	fnSig := in.Sig([]types.Type{types.MakeInt(types.I32)}, types.MakeInt(types.I32))
	ci := m.Node(l.MustLower(tree.CallI(tree.LdLoc(3), fnSig, tree.LdArg(0))))
	require.Equal(t, ir.KindCallI, ci.Kind)
	require.Len(t, m.Args(ci.CallI.Args), 1)

	require.NoError(t, ir.Validate(m))
}

func TestLowerMisc(t *testing.T) {
	l := newLowerer()
	m := l.Module()
	in := m.Types

	s := m.Node(l.MustLower(tree.LdStr("hello")))
	require.Equal(t, ir.ConstString, s.Const.Kind)
	require.Equal(t, "hello", in.MustString(s.Const.Str))

	require.Equal(t, ir.KindRefToPtr, m.Node(l.MustLower(tree.MRefToRawPtr(tree.LdArg(0)))).Kind)
	require.Equal(t, ir.KindUnOp, m.Node(l.MustLower(tree.Neg(tree.LdArg(0)))).Kind)

	cls := in.NewClass("Widget", "", false)
	isinst := m.Node(l.MustLower(tree.IsInst(tree.LdArg(0), cls)))
	require.Equal(t, "Widget", in.TypeString(isinst.TypeOp.Type))

	aligned := m.Node(l.MustLower(tree.LocAllocAligned(types.MakeInt(types.U64), 16)))
	require.Equal(t, uint64(16), aligned.TypeOp.Align)

	elem := m.Node(l.MustLower(tree.LdElemRef(tree.LdArg(0), tree.LdLoc(1), types.PlatformObject())))
	require.Equal(t, ir.KindLdElemRef, elem.Kind)

	_, err := l.Lower(tree.BlackBox(tree.LdLoc(0)))
	require.Error(t, err)
	require.True(t, errors.HasUnimplementedError(err))

	require.NoError(t, ir.Validate(m))
}

func TestLowerGraphPassesThrough(t *testing.T) {
	l := newLowerer()
	m := l.Module()
	h := m.Intern(ir.MakeLdLoc(7))
	before := m.Stats().Nodes

	id, err := l.Lower(tree.Graph(h))
	require.NoError(t, err)
	require.Equal(t, h, id)

	sum := l.MustLower(tree.Add(tree.Graph(h), tree.LdLoc(7)))
	n := m.Node(sum)
	require.Equal(t, h, n.BinOp.LHS)
	require.Equal(t, h, n.BinOp.RHS)
	require.Equal(t, before+1, m.Stats().Nodes)
}

func TestLowerRejectsForeignHandles(t *testing.T) {
	l := newLowerer()
	m := l.Module()
	before := m.Stats().Nodes

	_, err := l.Lower(tree.Add(tree.Graph(999), tree.LdLoc(0)))
	require.True(t, errors.HasAssertionFailure(err), "%v", err)
	_, err = l.Lower(tree.Graph(999))
	require.True(t, errors.HasAssertionFailure(err), "%v", err)
	_, err = l.LowerNode(tree.Graph(999))
	require.True(t, errors.HasAssertionFailure(err), "%v", err)

	require.Equal(t, before, m.Stats().Nodes)
	require.NoError(t, ir.Validate(m))
}

func TestLowerRoots(t *testing.T) {
	l := newLowerer()
	m := l.Module()
	in := m.Types
	cls := in.NewClass("Pair", "", true)
	f := in.NewField(cls, "a", types.MakeInt(types.U8))

	id, err := l.LowerRoot(tree.SetField(tree.LdArg(0), tree.ConstUint(types.U8, 3), f))
	require.NoError(t, err)
	r := m.Root(id)
	require.Equal(t, ir.RootSetField, r.Kind)
	require.Equal(t, f, r.Field)

	throw, err := l.LowerRoot(tree.Throw("boom"))
	require.NoError(t, err)
	require.Equal(t, "boom", in.MustString(m.Root(throw).Message))

	st, err := l.LowerRoot(tree.StInd(tree.LdArg(1), tree.LdLoc(0), types.MakeInt(types.U16), true))
	require.NoError(t, err)
	require.True(t, m.Root(st).Volatile)

	nop, err := l.LowerRoot(tree.Nop())
	require.NoError(t, err)
	require.Equal(t, ir.RootNop, m.Root(nop).Kind)

	require.Equal(t, 4, l.Stats.Roots)
	require.NoError(t, ir.Validate(m))
}

func TestLowerEmitsNodeSpans(t *testing.T) {
	var buf bytes.Buffer
	tr := trace.NewStreamTracer(&buf, trace.LevelDebug, trace.FormatText)
	l := New(ir.NewModule(nil), tr)
	l.MustLower(tree.Add(tree.LdLoc(0), tree.LdLoc(1)))
	require.NoError(t, tr.Flush())
	require.Contains(t, buf.String(), "lower_node")
	require.Equal(t, 3, l.Stats.Nodes)
	require.Equal(t, 1, l.Stats.ByKind[tree.KindAdd])
}
