// Package passes holds graph-to-graph transformations built on ir.Rewrite.
package passes

import (
	"ilgraph/internal/interp"
	"ilgraph/internal/ir"
)

// Folder replaces operations over constants with their result.
// Folded nodes:
// 1. BinOp with two constant operands
// 2. UnOp with a constant operand
// 3. IntCast and FloatCast of a constant
//
// Operations that would fault at run time (division by zero, mismatched
// operands) are left in place so the fault still happens there.
type Folder struct {
	// Folded counts replaced nodes.
	Folded int
}

// Map is the ir.MapFunc of the pass.
func (f *Folder) Map(n ir.Node, m *ir.Module) ir.Node {
	var (
		out ir.Const
		err error
	)
	switch n.Kind {
	case ir.KindBinOp:
		a, okA := constOf(m, n.BinOp.LHS)
		b, okB := constOf(m, n.BinOp.RHS)
		if !okA || !okB {
			return n
		}
		out, err = interp.Binary(n.BinOp.Op, a, b)
	case ir.KindUnOp:
		v, ok := constOf(m, n.UnOp.Value)
		if !ok {
			return n
		}
		out, err = interp.Unary(n.UnOp.Op, v)
	case ir.KindIntCast:
		v, ok := constOf(m, n.IntCast.Value)
		if !ok {
			return n
		}
		out, err = interp.IntCast(v, n.IntCast.Target, n.IntCast.Extend)
	case ir.KindFloatCast:
		v, ok := constOf(m, n.FloatCast.Value)
		if !ok {
			return n
		}
		out, err = interp.FloatCast(v, n.FloatCast.Target, n.FloatCast.Signed)
	default:
		return n
	}
	if err != nil {
		return n
	}
	f.Folded++
	return ir.MakeConst(out)
}

func constOf(m *ir.Module, id ir.NodeID) (ir.Const, bool) {
	n := m.Node(id)
	if n.Kind != ir.KindConst {
		return ir.Const{}, false
	}
	return n.Const, true
}

// FoldConstants folds the graph under root and returns the interned result.
func FoldConstants(m *ir.Module, root ir.NodeID) ir.NodeID {
	var f Folder
	return ir.RewriteID(m, root, f.Map)
}

// FoldRoot folds every operand of the root id.
func FoldRoot(m *ir.Module, id ir.RootID) ir.RootID {
	var f Folder
	return ir.RewriteRoot(m, id, f.Map)
}
