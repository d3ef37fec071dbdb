package passes_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ilgraph/internal/ir"
	"ilgraph/internal/lower"
	"ilgraph/internal/passes"
	"ilgraph/internal/tree"
	"ilgraph/internal/types"
)

func i32(v int64) *tree.Node { return tree.ConstInt(types.I32, v) }

func TestFoldConstants(t *testing.T) {
	m := ir.NewModule(nil)
	l := lower.New(m, nil)

	id := l.MustLower(tree.Add(tree.Mul(i32(3), i32(4)), tree.LdLoc(0)))
	folded := passes.FoldConstants(m, id)
	n := m.Node(folded)
	require.Equal(t, ir.KindBinOp, n.Kind)
	require.Equal(t, m.Const(ir.IntConst(types.I32, 12)), n.BinOp.LHS)
	require.Equal(t, m.Intern(ir.MakeLdLoc(0)), n.BinOp.RHS)

	whole := l.MustLower(tree.ConvU8(tree.Sub(i32(1), i32(2))))
	require.Equal(t, m.Const(ir.UintConst(types.U8, 0xff)), passes.FoldConstants(m, whole))

	cmp := l.MustLower(tree.Not(tree.Eq(i32(5), i32(5))))
	require.Equal(t, m.ConstBool(false), passes.FoldConstants(m, cmp))

	widen := l.MustLower(tree.ConvF64(i32(-3)))
	require.Equal(t, m.Const(ir.F64Const(-3)), passes.FoldConstants(m, widen))
}

func TestFoldWidensMixedOperands(t *testing.T) {
	m := ir.NewModule(nil)
	l := lower.New(m, nil)

	signed := l.MustLower(tree.Eq(tree.ConvI8(i32(255)), i32(-1)))
	require.Equal(t, m.ConstBool(true), passes.FoldConstants(m, signed))

	unsigned := l.MustLower(tree.Eq(tree.ConvU8(i32(255)), i32(-1)))
	require.Equal(t, m.ConstBool(false), passes.FoldConstants(m, unsigned))

	sum := l.MustLower(tree.Add(i32(1), tree.ConvI8(i32(255))))
	require.Equal(t, m.Const(ir.IntConst(types.I32, 0)), passes.FoldConstants(m, sum))

	wide := l.MustLower(tree.Add(tree.ConvU8(i32(200)), tree.ConstInt(types.I64, 100)))
	require.Equal(t, m.Const(ir.IntConst(types.I64, 300)), passes.FoldConstants(m, wide))
}

func TestFoldLeavesFaultsInPlace(t *testing.T) {
	m := ir.NewModule(nil)
	l := lower.New(m, nil)

	div := l.MustLower(tree.Div(i32(1), i32(0)))
	require.Equal(t, div, passes.FoldConstants(m, div))

	mixed := l.MustLower(tree.Add(i32(1), tree.Const(ir.F64Const(1))))
	require.Equal(t, mixed, passes.FoldConstants(m, mixed))

	// The operands of a faulting node still fold.
	nested := l.MustLower(tree.Div(tree.Add(i32(1), i32(1)), i32(0)))
	out := m.Node(passes.FoldConstants(m, nested))
	require.Equal(t, ir.KindBinOp, out.Kind)
	require.Equal(t, m.Const(ir.IntConst(types.I32, 2)), out.BinOp.LHS)
}

func TestFolderCountsSharedNodesOnce(t *testing.T) {
	m := ir.NewModule(nil)
	l := lower.New(m, nil)
	sum := tree.Add(i32(2), i32(3))
	id := l.MustLower(tree.Mul(sum, tree.Add(sum, tree.LdArg(0))))

	var f passes.Folder
	out := ir.RewriteID(m, id, f.Map)
	require.Equal(t, 1, f.Folded)
	n := m.Node(out)
	require.Equal(t, m.Const(ir.IntConst(types.I32, 5)), n.BinOp.LHS)
}

func TestFoldRoot(t *testing.T) {
	m := ir.NewModule(nil)
	l := lower.New(m, nil)
	f := m.AnonStatic(types.MakeInt(types.I32))
	r, err := l.LowerRoot(tree.SetStaticField(f, tree.Shl(i32(1), i32(4))))
	require.NoError(t, err)

	folded := m.Root(passes.FoldRoot(m, r))
	require.Equal(t, ir.RootSetStaticField, folded.Kind)
	require.Equal(t, m.Const(ir.IntConst(types.I32, 16)), folded.Value)
}
