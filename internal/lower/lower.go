// Package lower converts tree IR into interned graph IR. Every subexpression
// is interned bottom-up, so equal subtrees share one handle and a parent's
// handle is always greater than its children's.
package lower

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"ilgraph/internal/ir"
	"ilgraph/internal/trace"
	"ilgraph/internal/tree"
)

// maxTracedDepth limits node spans to the top of deep expressions.
const maxTracedDepth = 16

// Stats counts lowered tree nodes by kind.
type Stats struct {
	Nodes  int
	Roots  int
	ByKind map[tree.Kind]int
}

// Lowerer lowers trees into one module. It is not safe for concurrent use.
type Lowerer struct {
	m      *ir.Module
	tracer trace.Tracer
	depth  int

	Stats Stats
}

// New creates a Lowerer writing into m. A nil tracer disables tracing.
func New(m *ir.Module, tracer trace.Tracer) *Lowerer {
	if tracer == nil {
		tracer = trace.Nop
	}
	return &Lowerer{
		m:      m,
		tracer: tracer,
		Stats:  Stats{ByKind: make(map[tree.Kind]int)},
	}
}

// Module returns the module being written.
func (l *Lowerer) Module() *ir.Module { return l.m }

// Lower lowers n and interns the result.
func (l *Lowerer) Lower(n *tree.Node) (ir.NodeID, error) {
	if n != nil && n.Kind == tree.KindGraph {
		if !l.m.HasNode(n.Handle) {
			return ir.NoNodeID, errors.AssertionFailedf("lower: embedded handle %%%d is not in the module", n.Handle)
		}
		l.count(n)
		return n.Handle, nil
	}
	node, err := l.LowerNode(n)
	if err != nil {
		return ir.NoNodeID, err
	}
	return l.m.Intern(node), nil
}

// MustLower is Lower for trees known to be well formed. It panics on error.
func (l *Lowerer) MustLower(n *tree.Node) ir.NodeID {
	id, err := l.Lower(n)
	if err != nil {
		panic(err)
	}
	return id
}

// LowerNode lowers n without interning n itself. Its operands are interned.
func (l *Lowerer) LowerNode(n *tree.Node) (ir.Node, error) {
	if n == nil {
		return ir.Node{}, errors.AssertionFailedf("lower: nil tree node")
	}
	l.depth++
	defer func() { l.depth-- }()

	var span *trace.Span
	if l.depth <= maxTracedDepth && l.tracer.Level() >= trace.LevelDebug {
		span = trace.Begin(l.tracer, trace.ScopeNode, "lower_node", 0)
		span.WithExtra("kind", n.Kind.String())
		span.WithExtra("depth", fmt.Sprintf("%d", l.depth))
	}
	out, err := l.lowerNode(n)
	if span != nil {
		detail := ""
		if err != nil {
			detail = err.Error()
		}
		span.End(detail)
	}
	if err != nil {
		return ir.Node{}, err
	}
	l.count(n)
	return out, nil
}

func (l *Lowerer) count(n *tree.Node) {
	l.Stats.Nodes++
	l.Stats.ByKind[n.Kind]++
}

func (l *Lowerer) lowerNode(n *tree.Node) (ir.Node, error) {
	if t, ok := tree.LoadType(n.Kind); ok {
		if n.Kind == tree.KindLdIndPtr || n.Kind == tree.KindLdObj {
			t = n.Type
		}
		addr, err := l.Lower(n.A)
		if err != nil {
			return ir.Node{}, err
		}
		return ir.MakeLdInd(addr, l.m.Types.Intern(t), false), nil
	}
	if op, ok := tree.BinOpOf(n.Kind); ok {
		lhs, rhs, err := l.pair(n.A, n.B)
		if err != nil {
			return ir.Node{}, err
		}
		return ir.MakeBinOp(op, lhs, rhs), nil
	}
	if c, ok := tree.IntCastOf(n.Kind); ok {
		v, err := l.Lower(n.A)
		if err != nil {
			return ir.Node{}, err
		}
		return ir.MakeIntCast(v, c.Target, c.Extend), nil
	}
	if c, ok := tree.FloatCastOf(n.Kind); ok {
		v, err := l.Lower(n.A)
		if err != nil {
			return ir.Node{}, err
		}
		return ir.MakeFloatCast(v, c.Target, c.Signed), nil
	}

	in := l.m.Types
	switch n.Kind {
	case tree.KindLdLoc:
		return ir.MakeLdLoc(n.Index), nil
	case tree.KindLdLocA:
		return ir.MakeLdLocA(n.Index), nil
	case tree.KindLdArg:
		return ir.MakeLdArg(n.Index), nil
	case tree.KindLdArgA:
		return ir.MakeLdArgA(n.Index), nil

	case tree.KindConst:
		return ir.MakeConst(n.Const), nil
	case tree.KindLdStr:
		return ir.MakeConst(ir.StringConst(in.String(n.Str))), nil

	case tree.KindNeg, tree.KindNot:
		v, err := l.Lower(n.A)
		if err != nil {
			return ir.Node{}, err
		}
		op := ir.UnNeg
		if n.Kind == tree.KindNot {
			op = ir.UnNot
		}
		return ir.MakeUnOp(op, v), nil

	case tree.KindMRefToRawPtr:
		v, err := l.Lower(n.A)
		if err != nil {
			return ir.Node{}, err
		}
		return ir.MakeRefToPtr(v), nil

	case tree.KindCall, tree.KindCallVirt, tree.KindNewObj:
		if n.Call == nil {
			return ir.Node{}, errors.AssertionFailedf("lower: %s without call site", n.Kind)
		}
		args, err := l.list(n.Call.Args)
		if err != nil {
			return ir.Node{}, err
		}
		// Virtual dispatch is resolved by the producer; constructors and
		// virtual calls may have effects.
		pure := ir.NotPure
		if n.Kind == tree.KindCall {
			pure = n.Call.Pure
		}
		return ir.MakeCall(n.Call.Site, args, pure), nil

	case tree.KindCallI:
		fn, err := l.Lower(n.A)
		if err != nil {
			return ir.Node{}, err
		}
		args, err := l.list(n.Args)
		if err != nil {
			return ir.Node{}, err
		}
		return ir.MakeCallI(fn, n.Sig, args), nil

	case tree.KindLdField, tree.KindLdFieldAddress:
		addr, err := l.Lower(n.A)
		if err != nil {
			return ir.Node{}, err
		}
		if n.Kind == tree.KindLdField {
			return ir.MakeLdField(addr, n.Field), nil
		}
		return ir.MakeLdFieldAddress(addr, n.Field), nil

	case tree.KindLdStaticField:
		return ir.MakeLdStaticField(n.Static), nil
	case tree.KindLdStaticFieldAddress:
		return ir.MakeLdStaticFieldAddress(n.Static), nil

	case tree.KindLdLen:
		v, err := l.Lower(n.A)
		if err != nil {
			return ir.Node{}, err
		}
		return ir.MakeLdLen(v), nil

	case tree.KindLdElemRef:
		arr, idx, err := l.pair(n.A, n.B)
		if err != nil {
			return ir.Node{}, err
		}
		return ir.MakeLdElemRef(arr, idx, in.Intern(n.Type)), nil

	case tree.KindCastPtr:
		res, ok := ir.PtrCastResFor(n.Type)
		if !ok {
			return ir.Node{}, errors.AssertionFailedf("lower: CastPtr to %s, which is not pointer-shaped", in.Format(n.Type))
		}
		v, err := l.Lower(n.A)
		if err != nil {
			return ir.Node{}, err
		}
		return ir.MakePtrCast(v, res), nil

	case tree.KindLocAlloc:
		v, err := l.Lower(n.A)
		if err != nil {
			return ir.Node{}, err
		}
		return ir.MakeLocAlloc(v), nil
	case tree.KindLocAllocAligned:
		return ir.MakeLocAllocAligned(in.Intern(n.Type), n.Align), nil

	case tree.KindIsInst, tree.KindCheckedCast, tree.KindUnboxAny:
		v, err := l.Lower(n.A)
		if err != nil {
			return ir.Node{}, err
		}
		t := in.Intern(n.Type)
		switch n.Kind {
		case tree.KindIsInst:
			return ir.MakeIsInst(v, t), nil
		case tree.KindCheckedCast:
			return ir.MakeCheckedCast(v, t), nil
		default:
			return ir.MakeUnboxAny(v, t), nil
		}

	case tree.KindVolatile:
		inner, err := l.LowerNode(n.A)
		if err != nil {
			return ir.Node{}, err
		}
		if inner.Kind != ir.KindLdInd {
			return ir.Node{}, errors.AssertionFailedf("lower: Volatile over %s, expected an indirect load", n.A.Kind)
		}
		inner.LdInd.Volatile = true
		return inner, nil

	case tree.KindLdFtn:
		return ir.MakeLdFtn(n.Method), nil
	case tree.KindLdTypeToken:
		return ir.MakeLdTypeToken(in.Intern(n.Type)), nil
	case tree.KindSizeOf:
		return ir.MakeSizeOf(in.Intern(n.Type)), nil
	case tree.KindGetException:
		return ir.MakeGetException(), nil

	case tree.KindGraph:
		node, ok := l.m.LookupNode(n.Handle)
		if !ok {
			return ir.Node{}, errors.AssertionFailedf("lower: embedded handle %%%d is not in the module", n.Handle)
		}
		return node, nil

	case tree.KindBlackBox:
		return ir.Node{}, errors.UnimplementedErrorf(errors.IssueLink{}, "lower: %s is not supported", n.Kind)
	}
	return ir.Node{}, errors.UnimplementedErrorf(errors.IssueLink{}, "lower: unknown tree kind %s", n.Kind)
}

func (l *Lowerer) pair(a, b *tree.Node) (ir.NodeID, ir.NodeID, error) {
	lhs, err := l.Lower(a)
	if err != nil {
		return ir.NoNodeID, ir.NoNodeID, err
	}
	rhs, err := l.Lower(b)
	if err != nil {
		return ir.NoNodeID, ir.NoNodeID, err
	}
	return lhs, rhs, nil
}

func (l *Lowerer) list(args []*tree.Node) (ir.NodeListID, error) {
	ids := make([]ir.NodeID, 0, len(args))
	for _, a := range args {
		id, err := l.Lower(a)
		if err != nil {
			return 0, err
		}
		ids = append(ids, id)
	}
	return l.m.NodeList(ids), nil
}

// LowerRoot lowers a statement and interns it.
func (l *Lowerer) LowerRoot(r *tree.Root) (ir.RootID, error) {
	if r == nil {
		return 0, errors.AssertionFailedf("lower: nil root")
	}
	in := l.m.Types
	var out ir.Root
	switch r.Kind {
	case ir.RootNop:
		out = ir.MakeNop()
	case ir.RootSetField:
		addr, value, err := l.pair(r.Addr, r.Value)
		if err != nil {
			return 0, err
		}
		out = ir.MakeSetField(addr, value, r.Field)
	case ir.RootStInd:
		addr, value, err := l.pair(r.Addr, r.Value)
		if err != nil {
			return 0, err
		}
		out = ir.MakeStInd(addr, value, in.Intern(r.Type), r.Volatile)
	case ir.RootSetStaticField:
		value, err := l.Lower(r.Value)
		if err != nil {
			return 0, err
		}
		out = ir.MakeSetStaticField(r.Static, value)
	case ir.RootThrow:
		out = ir.MakeThrow(in.String(r.Message))
	case ir.RootPop:
		value, err := l.Lower(r.Value)
		if err != nil {
			return 0, err
		}
		out = ir.MakePop(value)
	default:
		return 0, errors.UnimplementedErrorf(errors.IssueLink{}, "lower: unknown root kind %s", r.Kind)
	}
	l.Stats.Roots++
	return l.m.InternRoot(out), nil
}
