package ir

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Named binds a user-visible name to either an expression or a statement.
type Named struct {
	Name string
	Node NodeID // set for expressions
	Root RootID // set for statements
}

// FormatNode renders one node with its operands as handles.
func (m *Module) FormatNode(n Node) string {
	in := m.Types
	switch n.Kind {
	case KindConst:
		if n.Const.Kind == ConstString {
			s, _ := in.LookupString(n.Const.Str)
			return fmt.Sprintf("const %q", s)
		}
		return "const " + n.Const.String()
	case KindBinOp:
		return fmt.Sprintf("%s %%%d, %%%d", n.BinOp.Op, n.BinOp.LHS, n.BinOp.RHS)
	case KindUnOp:
		return fmt.Sprintf("%s %%%d", n.UnOp.Op, n.UnOp.Value)
	case KindLdLoc, KindLdLocA, KindLdArg, KindLdArgA:
		return fmt.Sprintf("%s %d", n.Kind, n.Local.Index)
	case KindCall:
		return fmt.Sprintf("call %s(%s) %s", in.MethodString(n.Call.Method), m.formatArgs(n.Call.Args), n.Call.Pure)
	case KindIntCast:
		return fmt.Sprintf("intcast.%s %s %%%d", n.IntCast.Extend, n.IntCast.Target.Name(), n.IntCast.Value)
	case KindFloatCast:
		sign := "un"
		if n.FloatCast.Signed {
			sign = "s"
		}
		return fmt.Sprintf("floatcast.%s %s %%%d", sign, n.FloatCast.Target.Name(), n.FloatCast.Value)
	case KindRefToPtr, KindLocAlloc, KindLdLen:
		return fmt.Sprintf("%s %%%d", n.Kind, n.Operand.Value)
	case KindPtrCast:
		return fmt.Sprintf("ptrcast %s %%%d", in.Format(n.PtrCast.Res.Type()), n.PtrCast.Value)
	case KindLdField, KindLdFieldAddress:
		return fmt.Sprintf("%s %s %%%d", n.Kind, in.FieldString(n.Field.Field), n.Field.Addr)
	case KindLdInd:
		vol := ""
		if n.LdInd.Volatile {
			vol = "volatile "
		}
		return fmt.Sprintf("ldind %s%s %%%d", vol, in.TypeString(n.LdInd.Type), n.LdInd.Addr)
	case KindSizeOf, KindLdTypeToken:
		return fmt.Sprintf("%s %s", n.Kind, in.TypeString(n.TypeOp.Type))
	case KindIsInst, KindCheckedCast, KindUnboxAny:
		return fmt.Sprintf("%s %s %%%d", n.Kind, in.TypeString(n.TypeOp.Type), n.TypeOp.Value)
	case KindLocAllocAligned:
		return fmt.Sprintf("%s %s align %d", n.Kind, in.TypeString(n.TypeOp.Type), n.TypeOp.Align)
	case KindCallI:
		return fmt.Sprintf("calli %s %%%d(%s)", in.SigString(n.CallI.Sig), n.CallI.FnPtr, m.formatArgs(n.CallI.Args))
	case KindLdStaticField, KindLdStaticFieldAddress:
		return fmt.Sprintf("%s %s", n.Kind, in.StaticFieldString(n.Static.Field))
	case KindLdFtn:
		return "ldftn " + in.MethodString(n.Ftn.Method)
	case KindLdElemRef:
		return fmt.Sprintf("ldelem.ref %s %%%d[%%%d]", in.TypeString(n.Elem.Elem), n.Elem.Array, n.Elem.Index)
	default:
		return n.Kind.String()
	}
}

// FormatRoot renders one statement.
func (m *Module) FormatRoot(r Root) string {
	in := m.Types
	switch r.Kind {
	case RootSetField:
		return fmt.Sprintf("stfld %s %%%d, %%%d", in.FieldString(r.Field), r.Addr, r.Value)
	case RootStInd:
		vol := ""
		if r.Volatile {
			vol = "volatile "
		}
		return fmt.Sprintf("stind %s%s %%%d, %%%d", vol, in.TypeString(r.Type), r.Addr, r.Value)
	case RootSetStaticField:
		return fmt.Sprintf("stsfld %s %%%d", in.StaticFieldString(r.Static), r.Value)
	case RootThrow:
		return fmt.Sprintf("throw %q", in.MustString(r.Message))
	case RootPop:
		return fmt.Sprintf("pop %%%d", r.Value)
	default:
		return r.Kind.String()
	}
}

func (m *Module) formatArgs(id NodeListID) string {
	args := m.Args(id)
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprintf("%%%d", a)
	}
	return strings.Join(parts, ", ")
}

// Reachable returns every node reachable from the named entries, sorted by handle.
func (m *Module) Reachable(named []Named) []NodeID {
	seen := make(map[NodeID]bool)
	var walk func(NodeID)
	walk = func(id NodeID) {
		if id == NoNodeID || seen[id] {
			return
		}
		seen[id] = true
		m.eachChild(m.Node(id), walk)
	}
	for _, nm := range named {
		walk(nm.Node)
		if nm.Root != 0 {
			for _, id := range m.Root(nm.Root).Nodes() {
				walk(id)
			}
		}
	}
	out := make([]NodeID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Dump writes the nodes reachable from named in handle order, followed by
// the name table.
func Dump(w io.Writer, m *Module, named []Named) error {
	for _, id := range m.Reachable(named) {
		if _, err := fmt.Fprintf(w, "%%%d = %s\n", id, m.FormatNode(m.Node(id))); err != nil {
			return err
		}
	}
	if len(named) == 0 {
		return nil
	}
	width := 0
	for _, nm := range named {
		width = max(width, runewidth.StringWidth(nm.Name))
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	for _, nm := range named {
		var rhs string
		if nm.Root != 0 {
			rhs = m.FormatRoot(m.Root(nm.Root))
		} else {
			rhs = fmt.Sprintf("%%%d", nm.Node)
		}
		if _, err := fmt.Fprintf(w, "%s  %s\n", runewidth.FillRight(nm.Name, width), rhs); err != nil {
			return err
		}
	}
	return nil
}
