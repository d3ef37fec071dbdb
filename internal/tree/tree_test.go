package tree

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"ilgraph/internal/ir"
	"ilgraph/internal/types"
)

func methodString(m *ir.Module, n *Node) string {
	return m.Types.MethodString(n.Call.Site)
}

func TestCastPtrRejectsNonPointerTargets(t *testing.T) {
	m := ir.NewModule(nil)
	ok := CastPtr(LdLoc(0), m.Types.NPtr(types.MakeInt(types.U8)))
	require.Equal(t, KindCastPtr, ok.Kind)
	require.NotPanics(t, func() { CastPtr(LdLoc(0), types.MakeInt(types.ISize)) })

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, isErr := r.(error)
		require.True(t, isErr)
		require.True(t, errors.HasAssertionFailure(err))
	}()
	CastPtr(LdLoc(0), types.MakeInt(types.U32))
}

func TestConstructorArity(t *testing.T) {
	cases := []struct {
		n    *Node
		want int
	}{
		{LdLoc(3), 0},
		{Add(LdLoc(0), LdLoc(1)), 2},
		{Neg(LdArg(0)), 1},
		{ConvU8(LdArg(0)), 1},
		{Call(1, LdLoc(0), LdLoc(1), LdLoc(2)), 3},
		{CallI(LdLoc(0), 1, LdLoc(1)), 2},
		{LdElemRef(LdArg(0), LdLoc(0), types.PlatformObject()), 2},
		{GetException(), 0},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, tc.n.Arity(), tc.n.Kind.String())
	}
	require.Equal(t, 3, Neg(Add(LdLoc(0), LdLoc(1))).Depth())
}

func TestKindNamesRoundTrip(t *testing.T) {
	for _, k := range AllKinds() {
		got, ok := ParseKind(k.String())
		require.True(t, ok, k.String())
		require.Equal(t, k, got)
	}
	_, ok := ParseKind("Bogus")
	require.False(t, ok)
	require.Len(t, binOps, 18)
}

func TestLdIndPicksFixedKinds(t *testing.T) {
	in := types.NewInterner()
	require.Equal(t, KindLdIndU8, LdInd(LdLoc(0), types.MakeInt(types.U8)).Kind)
	require.Equal(t, KindLdIndBool, LdInd(LdLoc(0), types.Bool()).Kind)
	require.Equal(t, KindLdIndPtr, LdInd(LdLoc(0), in.NPtr(types.Void())).Kind)
	require.Equal(t, KindLdObj, LdInd(LdLoc(0), types.MakeInt(types.U128)).Kind)
	require.Panics(t, func() { LdIndKind(KindAdd, LdLoc(0)) })

	require.Len(t, loadKinds, len(loadTypes))
	for k, lt := range loadTypes {
		require.Equal(t, k, LdInd(LdLoc(0), lt).Kind, lt)
	}
}

func TestRuntimeHelperSignatures(t *testing.T) {
	m := ir.NewModule(nil)
	in := m.Types
	tuple := in.NewClass("Tuple_u8_bool", "", true)
	slice := in.NewClass("FatPtr_u8", "", true)

	ovf := OvfCheckTuple(m, tuple, ConstBool(false), LdLoc(0), types.MakeInt(types.U8))
	require.Equal(t, "MainModule::ovf_check_tuple fn(u8, bool) -> Tuple_u8_bool", methodString(m, ovf))
	require.Equal(t, ir.Pure, ovf.Call.Pure)
	require.Equal(t, KindLdLoc, ovf.Call.Args[0].Kind)

	sl := CreateSlice(m, slice, LdLoc(1), LdLoc(0))
	require.Equal(t, "MainModule::create_slice fn(*void, usize) -> FatPtr_u8", methodString(m, sl))
	require.Equal(t, uint32(0), sl.Call.Args[0].Index)

	h := ManagedRefToHandle(m, LdArg(0))
	require.Equal(t, "[System.Runtime]System.Runtime.InteropServices.GCHandle::op_Explicit fn([System.Runtime]System.Runtime.InteropServices.GCHandle) -> isize", methodString(m, h))
	inner := h.Call.Args[0]
	require.Equal(t, "[System.Runtime]System.Runtime.InteropServices.GCHandle::Alloc fn(object) -> [System.Runtime]System.Runtime.InteropServices.GCHandle", methodString(m, inner))
	require.Equal(t, types.MethodInstance, in.MustMethod(h.Call.Site).Kind)

	u := UninitVal(m, types.MakeInt(types.U32))
	require.Equal(t, "MainModule::uninit_val fn() -> u32", methodString(m, u))
	require.Empty(t, u.Call.Args)

	tr := TransmuteOnStack(m, LdLoc(0), types.MakeInt(types.U32), types.MakeFloat(types.F32))
	require.Equal(t, "MainModule::transmute fn(u32) -> f32", methodString(m, tr))
	require.Equal(t, ir.NotPure, tr.Call.Pure)
}

func TestUninitVoidLoadsGlobal(t *testing.T) {
	m := ir.NewModule(nil)
	n := UninitVal(m, types.Void())
	require.Equal(t, KindLdStaticField, n.Kind)
	require.Equal(t, "static MainModule::global_void: void", m.Types.StaticFieldString(n.Static))
}

func TestTransmuteSameTypeIsIdentity(t *testing.T) {
	m := ir.NewModule(nil)
	v := LdLoc(4)
	require.Same(t, v, TransmuteOnStack(m, v, types.MakeInt(types.U8), types.MakeInt(types.U8)))
}

func TestSelect(t *testing.T) {
	m := ir.NewModule(nil)
	for _, i := range types.AllInts {
		n, err := Select(m, types.MakeInt(i), LdLoc(0), LdLoc(1), LdLoc(2))
		require.NoError(t, err)
		require.Equal(t, "select_"+i.Name(), m.Types.MustString(m.Types.MustMethod(n.Call.Site).Name))
		require.Len(t, n.Call.Args, 3)
	}

	ptr := m.Types.NPtr(types.MakeInt(types.U8))
	n, err := Select(m, ptr, LdLoc(0), LdLoc(1), LdLoc(2))
	require.NoError(t, err)
	require.Equal(t, KindCastPtr, n.Kind)
	require.Equal(t, ptr, n.Type)
	call := n.A
	require.Equal(t, "MainModule::select_usize fn(usize, usize, bool) -> usize", methodString(m, call))
	require.Equal(t, KindCastPtr, call.Call.Args[0].Kind)
	require.Equal(t, KindCastPtr, call.Call.Args[1].Kind)

	_, err = Select(m, types.MakeFloat(types.F32), LdLoc(0), LdLoc(1), LdLoc(2))
	require.Error(t, err)
	require.True(t, errors.HasUnimplementedError(err))
}

func TestStackAddr(t *testing.T) {
	m := ir.NewModule(nil)
	store, addr := StackAddr(m, ConstU64(7), types.MakeInt(types.U64))
	require.Equal(t, ir.RootSetStaticField, store.Kind)
	require.Equal(t, KindLdStaticFieldAddress, addr.Kind)
	require.Equal(t, store.Static, addr.Static)

	_, other := StackAddr(m, ConstU64(7), types.MakeInt(types.U64))
	require.NotEqual(t, addr.Static, other.Static)
}

func TestCmpXchgResult(t *testing.T) {
	m := ir.NewModule(nil)
	in := m.Types
	cls := in.NewClass("CmpXchgRes", "", true)
	val := in.NewField(cls, "val", types.MakeInt(types.U32))
	flag := in.NewField(cls, "flag", types.Bool())

	roots := CmpXchgResult(LdLoc(0), LdLoc(1), LdLocA(2), val, flag)
	require.Equal(t, ir.RootSetField, roots[0].Kind)
	require.Equal(t, val, roots[0].Field)
	require.Equal(t, flag, roots[1].Field)
	cmp := roots[1].Value
	require.Equal(t, KindEq, cmp.Kind)
	require.Equal(t, KindLdField, cmp.A.Kind)
	require.Equal(t, val, cmp.A.Field)
}

func TestIntToInt(t *testing.T) {
	m := ir.NewModule(nil)
	u64 := types.MakeInt(types.U64)
	v := LdLoc(0)

	require.Same(t, v, IntToInt(m, u64, types.Void(), v))
	require.Same(t, v, IntToInt(m, u64, u64, v))
	require.Equal(t, KindConvU8, IntToInt(m, u64, types.MakeInt(types.U8), v).Kind)
	require.Equal(t, KindSignExtendToI64, IntToInt(m, types.MakeInt(types.I32), types.MakeInt(types.I64), v).Kind)
	require.Equal(t, KindZeroExtendToUSize, IntToInt(m, types.MakeInt(types.U32), types.MakeInt(types.USize), v).Kind)

	ptr := IntToInt(m, u64, m.Types.NPtr(types.Void()), v)
	require.Equal(t, KindCastPtr, ptr.Kind)
	require.Equal(t, KindZeroExtendToUSize, ptr.A.Kind)

	wide := IntToInt(m, u64, types.MakeInt(types.U128), v)
	require.Equal(t, "[System.Runtime]System.UInt128::op_Implicit fn(u64) -> u128", methodString(m, wide))
	narrow := IntToInt(m, types.MakeInt(types.I128), u64, v)
	require.Equal(t, "[System.Runtime]System.Int128::op_Explicit fn(i128) -> u64", methodString(m, narrow))
}

func TestWideHelpers(t *testing.T) {
	m := ir.NewModule(nil)
	u128 := types.MakeInt(types.U128)
	gt := WideBinary(m, ir.BinGtUn, u128, LdLoc(0), LdLoc(1))
	require.Equal(t, "[System.Runtime]System.UInt128::op_GreaterThan fn(u128, u128) -> bool", methodString(m, gt))
	eq := WideEq(m, types.MakeInt(types.I128), LdLoc(0), LdLoc(1))
	require.Equal(t, "MainModule::eq_i128 fn(i128, i128) -> bool", methodString(m, eq))
}
