package ir

import (
	"github.com/cockroachdb/errors"

	"ilgraph/internal/types"
)

// Validate checks store-wide invariants: every child handle was issued
// before its parent, every type, field and method handle resolves, and
// payloads are well formed. All violations are reported together.
func Validate(m *Module) error {
	if m == nil {
		return nil
	}
	var errs []error
	for id, n := range m.Nodes() {
		if err := validateNode(m, id, n); err != nil {
			errs = append(errs, errors.Wrapf(err, "node %%%d (%s)", id, n.Kind))
		}
	}
	for id, r := range m.Roots() {
		if err := validateRoot(m, r); err != nil {
			errs = append(errs, errors.Wrapf(err, "root #%d (%s)", id, r.Kind))
		}
	}
	return errors.Join(errs...)
}

// argList returns the argument list of a call node.
func argList(n Node) (NodeListID, bool) {
	switch n.Kind {
	case KindCall:
		return n.Call.Args, true
	case KindCallI:
		return n.CallI.Args, true
	}
	return 0, false
}

func validateNode(m *Module, id NodeID, n Node) error {
	if list, ok := argList(n); ok {
		if _, ok := m.LookupArgs(list); !ok {
			return errors.Newf("unknown argument list #%d", list)
		}
	}
	var errs []error
	m.eachChild(n, func(child NodeID) {
		switch {
		case !m.HasNode(child):
			errs = append(errs, errors.Newf("child %%%d does not exist", child))
		case child >= id:
			errs = append(errs, errors.Newf("forward reference to child %%%d", child))
		}
	})
	in := m.Types
	checkType := func(t types.TypeID) {
		if _, ok := in.Lookup(t); !ok {
			errs = append(errs, errors.Newf("unknown type#%d", t))
		}
	}
	switch n.Kind {
	case KindInvalid:
		errs = append(errs, errors.New("invalid kind"))
	case KindConst:
		if n.Const.Kind == ConstInvalid {
			errs = append(errs, errors.New("invalid constant"))
		}
	case KindBinOp:
		if n.BinOp.Op.OperatorMethod() == "" {
			errs = append(errs, errors.Newf("unknown binary op %d", n.BinOp.Op))
		}
	case KindUnOp:
		if n.UnOp.Op != UnNot && n.UnOp.Op != UnNeg {
			errs = append(errs, errors.Newf("unknown unary op %d", n.UnOp.Op))
		}
	case KindCall:
		ref, ok := in.LookupMethod(n.Call.Method)
		if !ok {
			errs = append(errs, errors.Newf("unknown method#%d", n.Call.Method))
			break
		}
		inputs, ok := in.LookupSigInputs(ref.Sig)
		if !ok {
			errs = append(errs, errors.Newf("unknown sig#%d", ref.Sig))
			break
		}
		if want, got := len(inputs), len(m.Args(n.Call.Args)); want != got {
			errs = append(errs, errors.Newf("call passes %d arguments, signature takes %d", got, want))
		}
	case KindCallI:
		inputs, ok := in.LookupSigInputs(n.CallI.Sig)
		if !ok {
			errs = append(errs, errors.Newf("unknown sig#%d", n.CallI.Sig))
			break
		}
		if want, got := len(inputs), len(m.Args(n.CallI.Args)); want != got {
			errs = append(errs, errors.Newf("indirect call passes %d arguments, signature takes %d", got, want))
		}
	case KindPtrCast:
		if n.PtrCast.Res.Type().Kind == types.KindInvalid {
			errs = append(errs, errors.New("pointer cast without a result descriptor"))
		}
	case KindLdField, KindLdFieldAddress:
		if !fieldExists(in, n.Field.Field) {
			errs = append(errs, errors.Newf("unknown field#%d", n.Field.Field))
		}
	case KindLdInd:
		checkType(n.LdInd.Type)
	case KindSizeOf, KindIsInst, KindCheckedCast, KindLdTypeToken, KindUnboxAny, KindLocAllocAligned:
		checkType(n.TypeOp.Type)
	case KindLdElemRef:
		checkType(n.Elem.Elem)
	}
	return errors.Join(errs...)
}

func validateRoot(m *Module, r Root) error {
	var errs []error
	for _, id := range r.Nodes() {
		if !m.HasNode(id) {
			errs = append(errs, errors.Newf("operand %%%d does not exist", id))
		}
	}
	switch r.Kind {
	case RootInvalid:
		errs = append(errs, errors.New("invalid root kind"))
	case RootSetField:
		if r.Addr == NoNodeID || r.Value == NoNodeID {
			errs = append(errs, errors.New("field store needs an address and a value"))
		}
		if !fieldExists(m.Types, r.Field) {
			errs = append(errs, errors.Newf("unknown field#%d", r.Field))
		}
	case RootStInd:
		if r.Addr == NoNodeID || r.Value == NoNodeID {
			errs = append(errs, errors.New("indirect store needs an address and a value"))
		}
	case RootPop, RootSetStaticField:
		if r.Value == NoNodeID {
			errs = append(errs, errors.New("missing value"))
		}
	}
	return errors.Join(errs...)
}

func fieldExists(in *types.Interner, id types.FieldID) bool {
	_, ok := in.LookupField(id)
	return ok
}
