package ir

import (
	"fmt"

	"ilgraph/internal/types"
)

// BinOp enumerates binary operations. Signed and unsigned flavours of the
// same operation share a node shape and differ only here.
type BinOp uint8

const (
	BinAdd BinOp = iota + 1
	BinEq
	BinSub
	BinMul
	BinLtUn
	BinLt
	BinGtUn
	BinGt
	BinOr
	BinXOr
	BinAnd
	BinRem
	BinRemUn
	BinShl
	BinShr
	BinShrUn
	BinDiv
	BinDivUn
)

// AllBinOps lists every binary operation.
var AllBinOps = [...]BinOp{
	BinAdd, BinEq, BinSub, BinMul, BinLtUn, BinLt, BinGtUn, BinGt, BinOr,
	BinXOr, BinAnd, BinRem, BinRemUn, BinShl, BinShr, BinShrUn, BinDiv, BinDivUn,
}

// Name returns the short mnemonic. Signed and unsigned variants share it,
// so both BinLt and BinLtUn are "lt".
func (op BinOp) Name() string {
	switch op {
	case BinAdd:
		return "add"
	case BinEq:
		return "eq"
	case BinSub:
		return "sub"
	case BinMul:
		return "mul"
	case BinLt, BinLtUn:
		return "lt"
	case BinGt, BinGtUn:
		return "gt"
	case BinOr:
		return "or"
	case BinXOr:
		return "xor"
	case BinAnd:
		return "and"
	case BinRem, BinRemUn:
		return "mod"
	case BinShl:
		return "shl"
	case BinShr, BinShrUn:
		return "shr"
	case BinDiv, BinDivUn:
		return "div"
	default:
		return fmt.Sprintf("BinOp(%d)", op)
	}
}

func (op BinOp) String() string {
	if op.Unsigned() {
		return op.Name() + ".un"
	}
	return op.Name()
}

// Unsigned reports whether op is the unsigned (or, on floats, unordered) flavour.
func (op BinOp) Unsigned() bool {
	switch op {
	case BinLtUn, BinGtUn, BinRemUn, BinShrUn, BinDivUn:
		return true
	default:
		return false
	}
}

// IsComparison reports whether op yields a bool.
func (op BinOp) IsComparison() bool {
	switch op {
	case BinEq, BinLt, BinLtUn, BinGt, BinGtUn:
		return true
	default:
		return false
	}
}

// OperatorMethod returns the name of the operator overload a managed class
// would define for op, e.g. "op_Addition".
func (op BinOp) OperatorMethod() string {
	switch op {
	case BinAdd:
		return "op_Addition"
	case BinEq:
		return "op_Equality"
	case BinSub:
		return "op_Subtraction"
	case BinMul:
		return "op_Multiply"
	case BinLt, BinLtUn:
		return "op_LessThan"
	case BinGt, BinGtUn:
		return "op_GreaterThan"
	case BinOr:
		return "op_BitwiseOr"
	case BinXOr:
		return "op_ExclusiveOr"
	case BinAnd:
		return "op_BitwiseAnd"
	case BinRem, BinRemUn:
		return "op_Modulus"
	case BinShl:
		return "op_LeftShift"
	case BinShr, BinShrUn:
		return "op_RightShift"
	case BinDiv, BinDivUn:
		return "op_Division"
	default:
		return ""
	}
}

// ParseBinOp resolves a mnemonic as printed by String.
func ParseBinOp(s string) (BinOp, bool) {
	for _, op := range AllBinOps {
		if op.String() == s {
			return op, true
		}
	}
	return 0, false
}

// UnOp enumerates unary operations.
type UnOp uint8

const (
	UnNot UnOp = iota + 1
	UnNeg
)

func (op UnOp) String() string {
	switch op {
	case UnNot:
		return "not"
	case UnNeg:
		return "neg"
	default:
		return fmt.Sprintf("UnOp(%d)", op)
	}
}

// ExtendKind tells an integer cast how to fill bits above the source width.
type ExtendKind uint8

const (
	ZeroExtend ExtendKind = iota
	SignExtend
)

func (k ExtendKind) String() string {
	if k == SignExtend {
		return "sext"
	}
	return "zext"
}

// IsPure records whether a call is free of side effects.
type IsPure bool

const (
	NotPure IsPure = false
	Pure    IsPure = true
)

func (p IsPure) String() string {
	if p {
		return "pure"
	}
	return "impure"
}

// PtrCastKind is the target shape of a pointer reinterpretation.
type PtrCastKind uint8

const (
	CastToPtr PtrCastKind = iota + 1
	CastToRef
	CastToFnPtr
	CastToUSize
	CastToISize
)

func (k PtrCastKind) String() string {
	switch k {
	case CastToPtr:
		return "ptr"
	case CastToRef:
		return "ref"
	case CastToFnPtr:
		return "fnptr"
	case CastToUSize:
		return "usize"
	case CastToISize:
		return "isize"
	default:
		return fmt.Sprintf("PtrCastKind(%d)", k)
	}
}

// PtrCastRes describes the result of a pointer reinterpretation. Exactly one
// of Elem (CastToPtr, CastToRef) or Sig (CastToFnPtr) is set, or neither for
// the pointer-sized integers.
type PtrCastRes struct {
	Kind PtrCastKind
	Elem types.TypeID
	Sig  types.SigID
}

// PtrCastResFor derives the cast descriptor of a pointer-shaped type.
func PtrCastResFor(t types.Type) (PtrCastRes, bool) {
	switch t.Kind {
	case types.KindPtr:
		return PtrCastRes{Kind: CastToPtr, Elem: t.Elem}, true
	case types.KindRef:
		return PtrCastRes{Kind: CastToRef, Elem: t.Elem}, true
	case types.KindFnPtr:
		return PtrCastRes{Kind: CastToFnPtr, Sig: t.Sig}, true
	case types.KindInt:
		switch t.Int {
		case types.USize:
			return PtrCastRes{Kind: CastToUSize}, true
		case types.ISize:
			return PtrCastRes{Kind: CastToISize}, true
		}
	}
	return PtrCastRes{}, false
}

// Type returns the type a cast with this descriptor produces.
func (r PtrCastRes) Type() types.Type {
	switch r.Kind {
	case CastToPtr:
		return types.MakePtr(r.Elem)
	case CastToRef:
		return types.MakeRef(r.Elem)
	case CastToFnPtr:
		return types.MakeFnPtr(r.Sig)
	case CastToUSize:
		return types.MakeInt(types.USize)
	case CastToISize:
		return types.MakeInt(types.ISize)
	default:
		return types.Type{}
	}
}
