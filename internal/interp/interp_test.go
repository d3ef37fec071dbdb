package interp

import (
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"ilgraph/internal/ir"
	"ilgraph/internal/lower"
	"ilgraph/internal/tree"
	"ilgraph/internal/types"
)

func evalTree(t *testing.T, vm *Machine, n *tree.Node) ir.Const {
	t.Helper()
	id, err := lower.New(vm.Module, nil).Lower(n)
	require.NoError(t, err)
	v, err := vm.Eval(id)
	require.NoError(t, err)
	return v
}

func TestIntegerWidths(t *testing.T) {
	vm := New(ir.NewModule(nil))
	u8 := func(v uint64) *tree.Node { return tree.ConstUint(types.U8, v) }
	i8 := func(v int64) *tree.Node { return tree.ConstInt(types.I8, v) }

	require.Equal(t, uint64(4), evalTree(t, vm, tree.Add(u8(250), u8(10))).Lo)
	require.Equal(t, uint64(0xff), evalTree(t, vm, tree.Sub(u8(0), u8(1))).Lo)
	require.Equal(t, int64(-64), evalTree(t, vm, tree.Shr(i8(-128), u8(1))).Int64())
	require.Equal(t, uint64(64), evalTree(t, vm, tree.ShrUn(i8(-128), u8(1))).Lo)
	require.Equal(t, int64(-3), evalTree(t, vm, tree.Div(i8(-7), i8(2))).Int64())
	require.Equal(t, int64(-1), evalTree(t, vm, tree.Rem(i8(-7), i8(2))).Int64())
	require.Equal(t, uint64(124), evalTree(t, vm, tree.DivUn(i8(-7), i8(2))).Lo)

	require.True(t, evalTree(t, vm, tree.Lt(i8(-1), i8(0))).Bool())
	require.False(t, evalTree(t, vm, tree.LtUn(i8(-1), i8(0))).Bool())
	require.True(t, evalTree(t, vm, tree.GtUn(u8(200), u8(100))).Bool())

	require.Equal(t, int64(-5), evalTree(t, vm, tree.Neg(tree.ConstInt(types.I32, 5))).Int64())
	require.Equal(t, uint64(0xf0), evalTree(t, vm, tree.Not(u8(0x0f))).Lo)
	require.True(t, evalTree(t, vm, tree.Eq(tree.Eq(u8(1), u8(2)), tree.ConstBool(false))).Bool())

	// Narrow operands are extended by their own signedness.
	require.True(t, evalTree(t, vm, tree.Eq(i8(-1), tree.ConstInt(types.I32, -1))).Bool())
	require.False(t, evalTree(t, vm, tree.Eq(u8(0xff), tree.ConstInt(types.I32, -1))).Bool())
	wide := evalTree(t, vm, tree.Sub(u8(1), tree.ConstInt(types.I32, 2)))
	require.Equal(t, types.I32, wide.Int)
	require.Equal(t, int64(-1), wide.Int64())
}

func TestCasts(t *testing.T) {
	vm := New(ir.NewModule(nil))
	minus1 := tree.ConstInt(types.I8, -1)

	require.Equal(t, uint64(math.MaxUint64), evalTree(t, vm, tree.SignExtendToU64(minus1)).Lo)
	require.Equal(t, uint64(0xff), evalTree(t, vm, tree.ZeroExtendToU64(minus1)).Lo)
	require.Equal(t, uint64(0x34), evalTree(t, vm, tree.ConvU8(tree.ConstUint(types.U32, 0x1234))).Lo)

	f := evalTree(t, vm, tree.ConvF64Un(minus1))
	require.InDelta(t, 255.0, f.Float64(), 0)
	f = evalTree(t, vm, tree.ConvF64(minus1))
	require.InDelta(t, -1.0, f.Float64(), 0)

	trunc := evalTree(t, vm, tree.ConvI32(tree.Const(ir.F64Const(-2.75))))
	require.Equal(t, int64(-2), trunc.Int64())
}

func TestUnorderedFloatCompare(t *testing.T) {
	vm := New(ir.NewModule(nil))
	nan := tree.Const(ir.F64Const(math.NaN()))
	one := tree.Const(ir.F64Const(1))

	require.False(t, evalTree(t, vm, tree.Lt(nan, one)).Bool())
	require.True(t, evalTree(t, vm, tree.LtUn(nan, one)).Bool())
	require.False(t, evalTree(t, vm, tree.Gt(one, nan)).Bool())
	require.True(t, evalTree(t, vm, tree.GtUn(one, nan)).Bool())
	require.False(t, evalTree(t, vm, tree.Eq(nan, nan)).Bool())
}

func TestRuntimeHelpers(t *testing.T) {
	m := ir.NewModule(nil)
	vm := New(m)

	sel, err := tree.Select(m, types.MakeInt(types.U16), tree.ConstUint(types.U16, 7), tree.ConstUint(types.U16, 9), tree.ConstBool(false))
	require.NoError(t, err)
	require.Equal(t, uint64(9), evalTree(t, vm, sel).Lo)

	u128 := types.MakeInt(types.U128)
	big := tree.ConstU128(m, 5, 1)
	small := tree.ConstU128(m, 7, 0)
	require.True(t, evalTree(t, vm, tree.WideBinary(m, ir.BinGtUn, u128, big, small)).Bool())
	diff := evalTree(t, vm, tree.WideBinary(m, ir.BinSub, u128, small, big))
	require.Equal(t, uint64(2), diff.Lo)
	require.Equal(t, uint64(math.MaxUint64), diff.Hi)
	require.True(t, evalTree(t, vm, tree.WideEq(m, u128, big, tree.ConstU128(m, 5, 1))).Bool())

	i128 := types.MakeInt(types.I128)
	lt := tree.WideBinary(m, ir.BinLt, i128, tree.ConstI128(m, math.MaxUint64, math.MaxUint64), tree.ConstI128(m, 0, 0))
	require.True(t, evalTree(t, vm, lt).Bool())

	widened := evalTree(t, vm, tree.IntToInt(m, types.MakeInt(types.I64), i128, tree.ConstInt(types.I64, -2)))
	require.Equal(t, types.I128, widened.Int)
	require.Equal(t, uint64(math.MaxUint64), widened.Hi)
	narrowed := evalTree(t, vm, tree.IntToInt(m, u128, types.MakeInt(types.U8), big))
	require.Equal(t, uint64(5), narrowed.Lo)

	id := lower.New(m, nil).MustLower(tree.Call(m.Types.NewMethod(m.Types.MainModule(), "mystery", m.Types.Sig(nil, types.Void()), types.MethodStatic)))
	_, err = vm.Eval(id)
	require.True(t, errors.HasUnimplementedError(err))
}

func TestExecAndMemory(t *testing.T) {
	m := ir.NewModule(nil)
	in := m.Types
	l := lower.New(m, nil)
	vm := New(m)
	vm.Locals = []ir.Const{ir.UintConst(types.U32, 1), ir.UintConst(types.U32, 2)}
	vm.Args = []ir.Const{Ptr(0x500)}

	cls := in.NewClass("Box", "", true)
	f := in.NewField(cls, "v", types.MakeInt(types.U32))

	set, err := l.LowerRoot(tree.SetField(tree.LdArg(0), tree.Add(tree.LdLoc(0), tree.LdLoc(1)), f))
	require.NoError(t, err)
	require.NoError(t, vm.Exec(set))
	got, ok := vm.Field(0x500, f)
	require.True(t, ok)
	require.Equal(t, uint64(3), got.Lo)

	st, err := l.LowerRoot(tree.StInd(tree.LdLocA(1), tree.ConstUint(types.U32, 40), types.MakeInt(types.U32), false))
	require.NoError(t, err)
	require.NoError(t, vm.Exec(st))
	require.Equal(t, uint64(40), vm.Locals[1].Lo)
	require.Equal(t, uint64(40), evalTree(t, vm, tree.LdInd(tree.LdLocA(1), types.MakeInt(types.U32))).Lo)

	store, addr := tree.StackAddr(m, tree.ConstU64(11), types.MakeInt(types.U64))
	sid, err := l.LowerRoot(store)
	require.NoError(t, err)
	require.NoError(t, vm.Exec(sid))
	require.Equal(t, uint64(11), evalTree(t, vm, tree.LdInd(addr, types.MakeInt(types.U64))).Lo)

	throw, err := l.LowerRoot(tree.Throw("nope"))
	require.NoError(t, err)
	err = vm.Exec(throw)
	var fault *Fault
	require.True(t, errors.As(err, &fault))
	require.Equal(t, FaultThrown, fault.Code)
	require.Equal(t, "fault IG2004: nope", fault.Error())

	missing := l.MustLower(tree.LdField(tree.LdArg(0), in.NewField(cls, "w", types.Bool())))
	_, err = vm.Eval(missing)
	require.True(t, errors.As(err, &fault))
	require.Equal(t, FaultUnmapped, fault.Code)

	div := l.MustLower(tree.Div(tree.LdLoc(0), tree.ConstUint(types.U32, 0)))
	_, err = vm.Eval(div)
	require.True(t, errors.As(err, &fault))
	require.Equal(t, FaultDivByZero, fault.Code)
}
