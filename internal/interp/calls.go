package interp

import (
	"strings"

	"github.com/cockroachdb/errors"

	"ilgraph/internal/ir"
	"ilgraph/internal/tree"
	"ilgraph/internal/types"
)

// call runs one of the runtime helpers the backend emits calls to. Other
// methods have no body here.
func (vm *Machine) call(site types.MethodID, args []ir.Const) (ir.Const, error) {
	in := vm.Module.Types
	ref := in.MustMethod(site)
	name := in.MustString(ref.Name)
	sig := in.MustSig(ref.Sig)
	out := in.MustLookup(sig.Output)

	switch ref.Class {
	case in.MainModule():
		switch {
		case strings.HasPrefix(name, tree.SelectPrefix) && len(args) == 3:
			if args[2].Bool() {
				return args[0], nil
			}
			return args[1], nil
		case (name == "eq_u128" || name == "eq_i128") && len(args) == 2:
			return ir.BoolConst(args[0].Lo == args[1].Lo && args[0].Hi == args[1].Hi), nil
		}
	case in.UInt128(), in.Int128():
		unsigned := ref.Class == in.UInt128()
		switch {
		case (name == "op_Implicit" || name == "op_Explicit") && len(args) == 1 && out.IsInt():
			src := args[0]
			if src.Kind != ir.ConstInt {
				return ir.Const{}, faultf(FaultBadOperand, "%s of %s", name, src)
			}
			return ir.ConstFromBig(out.Int, bigOf(src, src.Int.Signed())), nil
		case len(args) == 2:
			if op, ok := operatorFor(name, unsigned); ok {
				return Binary(op, args[0], args[1])
			}
		}
	}
	return ir.Const{}, errors.UnimplementedErrorf(errors.IssueLink{}, "interp: no body for %s", in.MethodString(site))
}

// operatorFor maps an operator overload name back to the binary operation
// of the class's signedness.
func operatorFor(name string, unsigned bool) (ir.BinOp, bool) {
	var found ir.BinOp
	for _, op := range ir.AllBinOps {
		if op.OperatorMethod() != name {
			continue
		}
		if found == 0 || op.Unsigned() == unsigned {
			found = op
		}
	}
	return found, found != 0
}
