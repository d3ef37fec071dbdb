// Package ir defines the interned graph form of the instruction set.
//
// Every node refers to its operands by NodeID. Nodes are interned in a
// Module, so two structurally equal nodes always share one handle and
// common subexpressions form a DAG. Children are interned before their
// parents, which makes every child handle numerically smaller than the
// handle of any node that uses it.
package ir

import (
	"fmt"

	"ilgraph/internal/types"
)

// NodeID identifies an interned graph node.
type NodeID uint32

// NoNodeID marks the absence of a node.
const NoNodeID NodeID = 0

// NodeListID identifies an interned, ordered list of nodes (call arguments).
type NodeListID uint32

// Kind enumerates graph node kinds.
type Kind uint8

const (
	KindInvalid Kind = iota
	// KindConst is a literal.
	KindConst
	// KindBinOp is a binary operation.
	KindBinOp
	// KindUnOp is a unary operation.
	KindUnOp
	// KindLdLoc loads a local variable.
	KindLdLoc
	// KindLdLocA takes the address of a local variable.
	KindLdLocA
	// KindLdArg loads an argument.
	KindLdArg
	// KindLdArgA takes the address of an argument.
	KindLdArgA
	// KindCall calls a method directly.
	KindCall
	// KindIntCast converts between integer widths.
	KindIntCast
	// KindFloatCast converts to a float type.
	KindFloatCast
	// KindRefToPtr turns a managed reference into a raw pointer.
	KindRefToPtr
	// KindPtrCast reinterprets a pointer-shaped value.
	KindPtrCast
	// KindLdFieldAddress takes the address of an instance field.
	KindLdFieldAddress
	// KindLdField loads an instance field.
	KindLdField
	// KindLdInd loads through a pointer.
	KindLdInd
	// KindSizeOf yields the size of a type.
	KindSizeOf
	// KindGetException yields the exception being handled.
	KindGetException
	// KindIsInst tests an object against a type.
	KindIsInst
	// KindCheckedCast casts an object, throwing on mismatch.
	KindCheckedCast
	// KindCallI calls through a function pointer.
	KindCallI
	// KindLocAlloc allocates a scratch buffer of a dynamic size.
	KindLocAlloc
	// KindLdStaticField loads a static field.
	KindLdStaticField
	// KindLdStaticFieldAddress takes the address of a static field.
	KindLdStaticFieldAddress
	// KindLdFtn loads a function pointer.
	KindLdFtn
	// KindLdTypeToken loads a runtime type handle.
	KindLdTypeToken
	// KindLdLen loads the length of a managed array.
	KindLdLen
	// KindLocAllocAligned allocates an aligned scratch buffer for a type.
	KindLocAllocAligned
	// KindLdElemRef loads an element of a managed array of references.
	KindLdElemRef
	// KindUnboxAny unboxes an object into a value type.
	KindUnboxAny
)

var kindNames = [...]string{
	KindInvalid:              "invalid",
	KindConst:                "const",
	KindBinOp:                "binop",
	KindUnOp:                 "unop",
	KindLdLoc:                "ldloc",
	KindLdLocA:               "ldloca",
	KindLdArg:                "ldarg",
	KindLdArgA:               "ldarga",
	KindCall:                 "call",
	KindIntCast:              "intcast",
	KindFloatCast:            "floatcast",
	KindRefToPtr:             "reftoptr",
	KindPtrCast:              "ptrcast",
	KindLdFieldAddress:       "ldflda",
	KindLdField:              "ldfld",
	KindLdInd:                "ldind",
	KindSizeOf:               "sizeof",
	KindGetException:         "getexception",
	KindIsInst:               "isinst",
	KindCheckedCast:          "castclass",
	KindCallI:                "calli",
	KindLocAlloc:             "localloc",
	KindLdStaticField:        "ldsfld",
	KindLdStaticFieldAddress: "ldsflda",
	KindLdFtn:                "ldftn",
	KindLdTypeToken:          "ldtoken",
	KindLdLen:                "ldlen",
	KindLocAllocAligned:      "localloc.aligned",
	KindLdElemRef:            "ldelem.ref",
	KindUnboxAny:             "unbox.any",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Node is an interned graph node. Only the payload matching Kind is
// meaningful; the rest stay zero so equal nodes compare equal.
type Node struct {
	Kind Kind

	Const     Const
	BinOp     BinOpNode
	UnOp      UnOpNode
	Local     LocalNode
	Call      CallNode
	IntCast   IntCastNode
	FloatCast FloatCastNode
	PtrCast   PtrCastNode
	Field     FieldNode
	LdInd     LdIndNode
	TypeOp    TypeOpNode
	CallI     CallINode
	Operand   OperandNode
	Static    StaticNode
	Ftn       FtnNode
	Elem      ElemNode
}

// BinOpNode is the payload of KindBinOp.
type BinOpNode struct {
	Op       BinOp
	LHS, RHS NodeID
}

// UnOpNode is the payload of KindUnOp.
type UnOpNode struct {
	Op    UnOp
	Value NodeID
}

// LocalNode is the payload of KindLdLoc, KindLdLocA, KindLdArg and KindLdArgA.
type LocalNode struct {
	Index uint32
}

// CallNode is the payload of KindCall.
type CallNode struct {
	Method types.MethodID
	Args   NodeListID
	Pure   IsPure
}

// IntCastNode is the payload of KindIntCast.
type IntCastNode struct {
	Value  NodeID
	Target types.Int
	Extend ExtendKind
}

// FloatCastNode is the payload of KindFloatCast. Signed describes how an
// integer source is interpreted.
type FloatCastNode struct {
	Value  NodeID
	Target types.Float
	Signed bool
}

// PtrCastNode is the payload of KindPtrCast.
type PtrCastNode struct {
	Value NodeID
	Res   PtrCastRes
}

// FieldNode is the payload of KindLdField and KindLdFieldAddress.
type FieldNode struct {
	Addr  NodeID
	Field types.FieldID
}

// LdIndNode is the payload of KindLdInd.
type LdIndNode struct {
	Addr     NodeID
	Type     types.TypeID
	Volatile bool
}

// TypeOpNode is the payload of the type-parameterised kinds: KindSizeOf and
// KindLdTypeToken (Type only), KindIsInst, KindCheckedCast and KindUnboxAny
// (Value and Type), KindLocAllocAligned (Type and Align).
type TypeOpNode struct {
	Value NodeID
	Type  types.TypeID
	Align uint64
}

// CallINode is the payload of KindCallI.
type CallINode struct {
	FnPtr NodeID
	Sig   types.SigID
	Args  NodeListID
}

// OperandNode is the payload of single-operand kinds: KindRefToPtr,
// KindLocAlloc and KindLdLen.
type OperandNode struct {
	Value NodeID
}

// StaticNode is the payload of KindLdStaticField and KindLdStaticFieldAddress.
type StaticNode struct {
	Field types.StaticFieldID
}

// FtnNode is the payload of KindLdFtn.
type FtnNode struct {
	Method types.MethodID
}

// ElemNode is the payload of KindLdElemRef.
type ElemNode struct {
	Array NodeID
	Index NodeID
	Elem  types.TypeID
}

// Constructors ---------------------------------------------------------------

// MakeConst wraps a constant value.
func MakeConst(c Const) Node { return Node{Kind: KindConst, Const: c} }

// MakeBinOp applies op to two interned operands.
func MakeBinOp(op BinOp, lhs, rhs NodeID) Node {
	return Node{Kind: KindBinOp, BinOp: BinOpNode{Op: op, LHS: lhs, RHS: rhs}}
}

// MakeUnOp applies op to v.
func MakeUnOp(op UnOp, v NodeID) Node {
	return Node{Kind: KindUnOp, UnOp: UnOpNode{Op: op, Value: v}}
}

// Local and argument loads, by slot index. The A forms yield the slot address.
func MakeLdLoc(idx uint32) Node  { return Node{Kind: KindLdLoc, Local: LocalNode{Index: idx}} }
func MakeLdLocA(idx uint32) Node { return Node{Kind: KindLdLocA, Local: LocalNode{Index: idx}} }
func MakeLdArg(idx uint32) Node  { return Node{Kind: KindLdArg, Local: LocalNode{Index: idx}} }
func MakeLdArgA(idx uint32) Node { return Node{Kind: KindLdArgA, Local: LocalNode{Index: idx}} }

// MakeCall calls method with the interned argument list args. pure marks
// calls that may be reordered or dropped.
func MakeCall(method types.MethodID, args NodeListID, pure IsPure) Node {
	return Node{Kind: KindCall, Call: CallNode{Method: method, Args: args, Pure: pure}}
}

// MakeIntCast converts v to target, widening by extend.
func MakeIntCast(v NodeID, target types.Int, extend ExtendKind) Node {
	return Node{Kind: KindIntCast, IntCast: IntCastNode{Value: v, Target: target, Extend: extend}}
}

// MakeFloatCast converts v to target. signed says how an integer source is
// read.
func MakeFloatCast(v NodeID, target types.Float, signed bool) Node {
	return Node{Kind: KindFloatCast, FloatCast: FloatCastNode{Value: v, Target: target, Signed: signed}}
}

// MakeRefToPtr reinterprets a managed reference as an unmanaged pointer.
func MakeRefToPtr(v NodeID) Node {
	return Node{Kind: KindRefToPtr, Operand: OperandNode{Value: v}}
}

// MakePtrCast reinterprets pointer v as described by res.
func MakePtrCast(v NodeID, res PtrCastRes) Node {
	return Node{Kind: KindPtrCast, PtrCast: PtrCastNode{Value: v, Res: res}}
}

// MakeLdField loads field of the object at addr.
func MakeLdField(addr NodeID, field types.FieldID) Node {
	return Node{Kind: KindLdField, Field: FieldNode{Addr: addr, Field: field}}
}

func MakeLdFieldAddress(addr NodeID, field types.FieldID) Node {
	return Node{Kind: KindLdFieldAddress, Field: FieldNode{Addr: addr, Field: field}}
}

// MakeLdInd loads a t from addr.
func MakeLdInd(addr NodeID, t types.TypeID, volatile bool) Node {
	return Node{Kind: KindLdInd, LdInd: LdIndNode{Addr: addr, Type: t, Volatile: volatile}}
}

func MakeSizeOf(t types.TypeID) Node {
	return Node{Kind: KindSizeOf, TypeOp: TypeOpNode{Type: t}}
}

func MakeGetException() Node { return Node{Kind: KindGetException} }

func MakeIsInst(v NodeID, t types.TypeID) Node {
	return Node{Kind: KindIsInst, TypeOp: TypeOpNode{Value: v, Type: t}}
}

func MakeCheckedCast(v NodeID, t types.TypeID) Node {
	return Node{Kind: KindCheckedCast, TypeOp: TypeOpNode{Value: v, Type: t}}
}

// MakeCallI calls through the function pointer fnPtr with signature sig.
func MakeCallI(fnPtr NodeID, sig types.SigID, args NodeListID) Node {
	return Node{Kind: KindCallI, CallI: CallINode{FnPtr: fnPtr, Sig: sig, Args: args}}
}

// MakeLocAlloc allocates size bytes on the stack frame.
func MakeLocAlloc(size NodeID) Node {
	return Node{Kind: KindLocAlloc, Operand: OperandNode{Value: size}}
}

func MakeLdStaticField(f types.StaticFieldID) Node {
	return Node{Kind: KindLdStaticField, Static: StaticNode{Field: f}}
}

func MakeLdStaticFieldAddress(f types.StaticFieldID) Node {
	return Node{Kind: KindLdStaticFieldAddress, Static: StaticNode{Field: f}}
}

func MakeLdFtn(m types.MethodID) Node { return Node{Kind: KindLdFtn, Ftn: FtnNode{Method: m}} }

func MakeLdTypeToken(t types.TypeID) Node {
	return Node{Kind: KindLdTypeToken, TypeOp: TypeOpNode{Type: t}}
}

func MakeLdLen(arr NodeID) Node {
	return Node{Kind: KindLdLen, Operand: OperandNode{Value: arr}}
}

// MakeLocAllocAligned allocates a t aligned to align bytes on the stack frame.
func MakeLocAllocAligned(t types.TypeID, align uint64) Node {
	return Node{Kind: KindLocAllocAligned, TypeOp: TypeOpNode{Type: t, Align: align}}
}

// MakeLdElemRef loads element idx of a managed array of elem.
func MakeLdElemRef(arr, idx NodeID, elem types.TypeID) Node {
	return Node{Kind: KindLdElemRef, Elem: ElemNode{Array: arr, Index: idx, Elem: elem}}
}

// MakeUnboxAny unboxes obj as a t.
func MakeUnboxAny(obj NodeID, t types.TypeID) Node {
	return Node{Kind: KindUnboxAny, TypeOp: TypeOpNode{Value: obj, Type: t}}
}

// IsLeaf reports whether the kind never has child nodes.
func (k Kind) IsLeaf() bool {
	switch k {
	case KindConst, KindLdLoc, KindLdLocA, KindLdArg, KindLdArgA, KindSizeOf,
		KindGetException, KindLdStaticField, KindLdStaticFieldAddress,
		KindLdFtn, KindLdTypeToken, KindLocAllocAligned:
		return true
	default:
		return false
	}
}
