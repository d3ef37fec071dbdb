package ir

// Children lists the child handles of n in evaluation order. Call arguments
// are flattened after any other operand.
func (m *Module) Children(n Node) []NodeID {
	var out []NodeID
	m.eachChild(n, func(id NodeID) { out = append(out, id) })
	return out
}

func (m *Module) eachChild(n Node, visit func(NodeID)) {
	switch n.Kind {
	case KindBinOp:
		visit(n.BinOp.LHS)
		visit(n.BinOp.RHS)
	case KindUnOp:
		visit(n.UnOp.Value)
	case KindCall:
		for _, a := range m.Args(n.Call.Args) {
			visit(a)
		}
	case KindIntCast:
		visit(n.IntCast.Value)
	case KindFloatCast:
		visit(n.FloatCast.Value)
	case KindRefToPtr, KindLocAlloc, KindLdLen:
		visit(n.Operand.Value)
	case KindPtrCast:
		visit(n.PtrCast.Value)
	case KindLdField, KindLdFieldAddress:
		visit(n.Field.Addr)
	case KindLdInd:
		visit(n.LdInd.Addr)
	case KindIsInst, KindCheckedCast, KindUnboxAny:
		visit(n.TypeOp.Value)
	case KindCallI:
		visit(n.CallI.FnPtr)
		for _, a := range m.Args(n.CallI.Args) {
			visit(a)
		}
	case KindLdElemRef:
		visit(n.Elem.Array)
		visit(n.Elem.Index)
	}
}

// remap rebuilds n with every child handle replaced by fn(child). Argument
// lists are re-interned. Arity, payload and call purity are preserved.
func (m *Module) remap(n Node, fn func(NodeID) NodeID) Node {
	switch n.Kind {
	case KindBinOp:
		n.BinOp.LHS = fn(n.BinOp.LHS)
		n.BinOp.RHS = fn(n.BinOp.RHS)
	case KindUnOp:
		n.UnOp.Value = fn(n.UnOp.Value)
	case KindCall:
		n.Call.Args = m.remapList(n.Call.Args, fn)
	case KindIntCast:
		n.IntCast.Value = fn(n.IntCast.Value)
	case KindFloatCast:
		n.FloatCast.Value = fn(n.FloatCast.Value)
	case KindRefToPtr, KindLocAlloc, KindLdLen:
		n.Operand.Value = fn(n.Operand.Value)
	case KindPtrCast:
		n.PtrCast.Value = fn(n.PtrCast.Value)
	case KindLdField, KindLdFieldAddress:
		n.Field.Addr = fn(n.Field.Addr)
	case KindLdInd:
		n.LdInd.Addr = fn(n.LdInd.Addr)
	case KindIsInst, KindCheckedCast, KindUnboxAny:
		n.TypeOp.Value = fn(n.TypeOp.Value)
	case KindCallI:
		n.CallI.FnPtr = fn(n.CallI.FnPtr)
		n.CallI.Args = m.remapList(n.CallI.Args, fn)
	case KindLdElemRef:
		n.Elem.Array = fn(n.Elem.Array)
		n.Elem.Index = fn(n.Elem.Index)
	}
	return n
}

func (m *Module) remapList(id NodeListID, fn func(NodeID) NodeID) NodeListID {
	args := m.Args(id)
	for i, a := range args {
		args[i] = fn(a)
	}
	return m.NodeList(args)
}
