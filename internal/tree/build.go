package tree

import (
	"github.com/cockroachdb/errors"

	"ilgraph/internal/ir"
	"ilgraph/internal/types"
)

func leaf(k Kind) *Node           { return &Node{Kind: k} }
func unary(k Kind, a *Node) *Node { return &Node{Kind: k, A: a} }

func binary(k Kind, a, b *Node) *Node { return &Node{Kind: k, A: a, B: b} }

// Locals and arguments.

func LdLoc(idx uint32) *Node  { return &Node{Kind: KindLdLoc, Index: idx} }
func LdLocA(idx uint32) *Node { return &Node{Kind: KindLdLocA, Index: idx} }
func LdArg(idx uint32) *Node  { return &Node{Kind: KindLdArg, Index: idx} }
func LdArgA(idx uint32) *Node { return &Node{Kind: KindLdArgA, Index: idx} }

// LdInd builds the indirect load kind matching a scalar type. Pointers use
// LdIndPtr and anything else LdObj, both carrying t.
func LdInd(addr *Node, t types.Type) *Node {
	if k, ok := loadKindFor(t); ok {
		return unary(k, addr)
	}
	if t.Kind == types.KindPtr || t.Kind == types.KindFnPtr {
		return &Node{Kind: KindLdIndPtr, A: addr, Type: t}
	}
	return &Node{Kind: KindLdObj, A: addr, Type: t}
}

// LdIndKind builds a fixed-type indirect load such as KindLdIndU8.
func LdIndKind(k Kind, addr *Node) *Node {
	if _, ok := LoadType(k); !ok || k == KindLdIndPtr || k == KindLdObj {
		panic(errors.AssertionFailedf("tree: %s is not a fixed-type indirect load", k))
	}
	return unary(k, addr)
}

func LdIndPtr(addr *Node, loaded types.Type) *Node {
	return &Node{Kind: KindLdIndPtr, A: addr, Type: loaded}
}

func LdObj(addr *Node, t types.Type) *Node { return &Node{Kind: KindLdObj, A: addr, Type: t} }

// Literals.

func Const(c ir.Const) *Node  { return &Node{Kind: KindConst, Const: c} }
func LdStr(s string) *Node    { return &Node{Kind: KindLdStr, Str: s} }
func ConstBool(b bool) *Node  { return Const(ir.BoolConst(b)) }
func ConstU64(v uint64) *Node { return Const(ir.UintConst(types.U64, v)) }

// ConstInt builds an integer literal of type t from its signed value.
func ConstInt(t types.Int, v int64) *Node { return Const(ir.IntConst(t, v)) }

// ConstUint builds an integer literal of type t from its unsigned value.
func ConstUint(t types.Int, v uint64) *Node { return Const(ir.UintConst(t, v)) }

// ConstU128 interns a u128 constant and embeds it.
func ConstU128(m *ir.Module, lo, hi uint64) *Node {
	return Graph(m.Const(ir.U128Const(lo, hi)))
}

// ConstI128 interns an i128 constant and embeds it.
func ConstI128(m *ir.Module, lo, hi uint64) *Node {
	return Graph(m.Const(ir.I128Const(lo, hi)))
}

// Binary and unary operations.

func Add(a, b *Node) *Node   { return binary(KindAdd, a, b) }
func Sub(a, b *Node) *Node   { return binary(KindSub, a, b) }
func Mul(a, b *Node) *Node   { return binary(KindMul, a, b) }
func Div(a, b *Node) *Node   { return binary(KindDiv, a, b) }
func DivUn(a, b *Node) *Node { return binary(KindDivUn, a, b) }
func Rem(a, b *Node) *Node   { return binary(KindRem, a, b) }
func RemUn(a, b *Node) *Node { return binary(KindRemUn, a, b) }
func And(a, b *Node) *Node   { return binary(KindAnd, a, b) }
func Or(a, b *Node) *Node    { return binary(KindOr, a, b) }
func XOr(a, b *Node) *Node   { return binary(KindXOr, a, b) }
func Shl(a, b *Node) *Node   { return binary(KindShl, a, b) }
func Shr(a, b *Node) *Node   { return binary(KindShr, a, b) }
func ShrUn(a, b *Node) *Node { return binary(KindShrUn, a, b) }
func Eq(a, b *Node) *Node    { return binary(KindEq, a, b) }
func Lt(a, b *Node) *Node    { return binary(KindLt, a, b) }
func LtUn(a, b *Node) *Node  { return binary(KindLtUn, a, b) }
func Gt(a, b *Node) *Node    { return binary(KindGt, a, b) }
func GtUn(a, b *Node) *Node  { return binary(KindGtUn, a, b) }

// Binary builds a binary operation of kind k.
func Binary(k Kind, a, b *Node) *Node {
	if _, ok := BinOpOf(k); !ok {
		panic(errors.AssertionFailedf("tree: %s is not a binary operation", k))
	}
	return binary(k, a, b)
}

func Neg(a *Node) *Node { return unary(KindNeg, a) }
func Not(a *Node) *Node { return unary(KindNot, a) }

// Casts.

// Conv builds an integer or float conversion of kind k.
func Conv(k Kind, a *Node) *Node {
	if _, ok := IntCastOf(k); ok {
		return unary(k, a)
	}
	if _, ok := FloatCastOf(k); ok {
		return unary(k, a)
	}
	panic(errors.AssertionFailedf("tree: %s is not a conversion", k))
}

func ConvU8(a *Node) *Node            { return unary(KindConvU8, a) }
func ConvU16(a *Node) *Node           { return unary(KindConvU16, a) }
func ConvU32(a *Node) *Node           { return unary(KindConvU32, a) }
func ZeroExtendToU64(a *Node) *Node   { return unary(KindZeroExtendToU64, a) }
func ZeroExtendToUSize(a *Node) *Node { return unary(KindZeroExtendToUSize, a) }
func ZeroExtendToISize(a *Node) *Node { return unary(KindZeroExtendToISize, a) }
func ConvI8(a *Node) *Node            { return unary(KindConvI8, a) }
func ConvI16(a *Node) *Node           { return unary(KindConvI16, a) }
func ConvI32(a *Node) *Node           { return unary(KindConvI32, a) }
func SignExtendToI64(a *Node) *Node   { return unary(KindSignExtendToI64, a) }
func SignExtendToU64(a *Node) *Node   { return unary(KindSignExtendToU64, a) }
func SignExtendToISize(a *Node) *Node { return unary(KindSignExtendToISize, a) }
func SignExtendToUSize(a *Node) *Node { return unary(KindSignExtendToUSize, a) }
func ConvF32(a *Node) *Node           { return unary(KindConvF32, a) }
func ConvF64(a *Node) *Node           { return unary(KindConvF64, a) }
func ConvF64Un(a *Node) *Node         { return unary(KindConvF64Un, a) }
func MRefToRawPtr(a *Node) *Node      { return unary(KindMRefToRawPtr, a) }

// CastPtr reinterprets a pointer-shaped value as target. target must be a
// raw pointer, reference, function pointer, usize or isize; anything else
// is a caller bug and panics.
func CastPtr(val *Node, target types.Type) *Node {
	if !target.IsPointerLike() {
		panic(errors.AssertionFailedf("tree: CastPtr target %s is not pointer-shaped", target.Kind))
	}
	return &Node{Kind: KindCastPtr, A: val, Type: target}
}

// Calls.

// Call calls site directly. The call is not pure.
func Call(site types.MethodID, args ...*Node) *Node {
	return &Node{Kind: KindCall, Call: &CallArgs{Site: site, Args: args, Pure: ir.NotPure}}
}

// CallPure calls a side-effect free method.
func CallPure(site types.MethodID, args ...*Node) *Node {
	return &Node{Kind: KindCall, Call: &CallArgs{Site: site, Args: args, Pure: ir.Pure}}
}

// CallVirt calls site through virtual dispatch.
func CallVirt(site types.MethodID, args ...*Node) *Node {
	return &Node{Kind: KindCallVirt, Call: &CallArgs{Site: site, Args: args}}
}

// NewObj constructs an object with the constructor site.
func NewObj(site types.MethodID, args ...*Node) *Node {
	return &Node{Kind: KindNewObj, Call: &CallArgs{Site: site, Args: args}}
}

// CallI calls through the function pointer fn with signature sig.
func CallI(fn *Node, sig types.SigID, args ...*Node) *Node {
	return &Node{Kind: KindCallI, A: fn, Sig: sig, Args: args}
}

// Fields, arrays and statics.

func LdField(addr *Node, field types.FieldID) *Node {
	return &Node{Kind: KindLdField, A: addr, Field: field}
}

func LdFieldAddress(addr *Node, field types.FieldID) *Node {
	return &Node{Kind: KindLdFieldAddress, A: addr, Field: field}
}

func LdStaticField(f types.StaticFieldID) *Node {
	return &Node{Kind: KindLdStaticField, Static: f}
}

func LdStaticFieldAddress(f types.StaticFieldID) *Node {
	return &Node{Kind: KindLdStaticFieldAddress, Static: f}
}

func LdLen(arr *Node) *Node { return unary(KindLdLen, arr) }

func LdElemRef(arr, idx *Node, elem types.Type) *Node {
	return &Node{Kind: KindLdElemRef, A: arr, B: idx, Type: elem}
}

// Miscellaneous.

func LocAlloc(size *Node) *Node { return unary(KindLocAlloc, size) }

func LocAllocAligned(t types.Type, align uint64) *Node {
	return &Node{Kind: KindLocAllocAligned, Type: t, Align: align}
}

// IsInst tests obj against the class cls.
func IsInst(obj *Node, cls types.ClassID) *Node {
	return &Node{Kind: KindIsInst, A: obj, Type: types.MakeClassRef(cls)}
}

// CheckedCast casts obj to the class cls.
func CheckedCast(obj *Node, cls types.ClassID) *Node {
	return &Node{Kind: KindCheckedCast, A: obj, Type: types.MakeClassRef(cls)}
}

// Volatile marks the indirect load a as volatile.
func Volatile(a *Node) *Node { return unary(KindVolatile, a) }

func UnboxAny(obj *Node, t types.Type) *Node {
	return &Node{Kind: KindUnboxAny, A: obj, Type: t}
}

func LdFtn(m types.MethodID) *Node { return &Node{Kind: KindLdFtn, Method: m} }

func LdTypeToken(t types.Type) *Node { return &Node{Kind: KindLdTypeToken, Type: t} }

func SizeOf(t types.Type) *Node { return &Node{Kind: KindSizeOf, Type: t} }

func GetException() *Node { return leaf(KindGetException) }

// BlackBox hides a from optimisations.
func BlackBox(a *Node) *Node { return unary(KindBlackBox, a) }

// Graph embeds an already lowered node.
func Graph(id ir.NodeID) *Node { return &Node{Kind: KindGraph, Handle: id} }
