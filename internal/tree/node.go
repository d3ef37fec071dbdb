// Package tree defines the owned, recursive form of the instruction set that
// producers build expressions in. Nodes own their operands; nothing here is
// interned until the tree is lowered into an ir.Module.
package tree

import (
	"fmt"

	"ilgraph/internal/ir"
	"ilgraph/internal/types"
)

// Kind enumerates tree node kinds.
type Kind uint8

const (
	KindInvalid Kind = iota

	// Locals and arguments.
	KindLdLoc
	KindLdLocA
	KindLdArg
	KindLdArgA

	// Indirect loads, one per scalar.
	KindLdIndI8
	KindLdIndI16
	KindLdIndI32
	KindLdIndI64
	KindLdIndISize
	KindLdIndU8
	KindLdIndU16
	KindLdIndU32
	KindLdIndU64
	KindLdIndUSize
	KindLdIndF32
	KindLdIndF64
	KindLdIndBool
	KindLdIndPtr
	KindLdObj

	// Literals.
	KindConst
	KindLdStr

	// Binary operations.
	KindAdd
	KindSub
	KindMul
	KindDiv
	KindDivUn
	KindRem
	KindRemUn
	KindAnd
	KindOr
	KindXOr
	KindShl
	KindShr
	KindShrUn
	KindEq
	KindLt
	KindLtUn
	KindGt
	KindGtUn

	// Unary operations.
	KindNeg
	KindNot

	// Integer casts.
	KindConvU8
	KindConvU16
	KindConvU32
	KindZeroExtendToU64
	KindZeroExtendToUSize
	KindZeroExtendToISize
	KindConvI8
	KindConvI16
	KindConvI32
	KindSignExtendToI64
	KindSignExtendToU64
	KindSignExtendToISize
	KindSignExtendToUSize

	// Float casts.
	KindConvF32
	KindConvF64
	KindConvF64Un

	KindMRefToRawPtr

	// Calls.
	KindCall
	KindCallVirt
	KindNewObj
	KindCallI

	// Fields, arrays and statics.
	KindLdField
	KindLdFieldAddress
	KindLdStaticField
	KindLdStaticFieldAddress
	KindLdLen
	KindLdElemRef

	KindCastPtr
	KindLocAlloc
	KindLocAllocAligned
	KindIsInst
	KindCheckedCast
	KindVolatile
	KindUnboxAny
	KindLdFtn
	KindLdTypeToken
	KindSizeOf
	KindGetException
	KindBlackBox

	// KindGraph embeds an already lowered graph node.
	KindGraph

	kindCount
)

var kindNames = [kindCount]string{
	KindInvalid:              "Invalid",
	KindLdLoc:                "LdLoc",
	KindLdLocA:               "LdLocA",
	KindLdArg:                "LdArg",
	KindLdArgA:               "LdArgA",
	KindLdIndI8:              "LdIndI8",
	KindLdIndI16:             "LdIndI16",
	KindLdIndI32:             "LdIndI32",
	KindLdIndI64:             "LdIndI64",
	KindLdIndISize:           "LdIndISize",
	KindLdIndU8:              "LdIndU8",
	KindLdIndU16:             "LdIndU16",
	KindLdIndU32:             "LdIndU32",
	KindLdIndU64:             "LdIndU64",
	KindLdIndUSize:           "LdIndUSize",
	KindLdIndF32:             "LdIndF32",
	KindLdIndF64:             "LdIndF64",
	KindLdIndBool:            "LdIndBool",
	KindLdIndPtr:             "LdIndPtr",
	KindLdObj:                "LdObj",
	KindConst:                "Const",
	KindLdStr:                "LdStr",
	KindAdd:                  "Add",
	KindSub:                  "Sub",
	KindMul:                  "Mul",
	KindDiv:                  "Div",
	KindDivUn:                "DivUn",
	KindRem:                  "Rem",
	KindRemUn:                "RemUn",
	KindAnd:                  "And",
	KindOr:                   "Or",
	KindXOr:                  "XOr",
	KindShl:                  "Shl",
	KindShr:                  "Shr",
	KindShrUn:                "ShrUn",
	KindEq:                   "Eq",
	KindLt:                   "Lt",
	KindLtUn:                 "LtUn",
	KindGt:                   "Gt",
	KindGtUn:                 "GtUn",
	KindNeg:                  "Neg",
	KindNot:                  "Not",
	KindConvU8:               "ConvU8",
	KindConvU16:              "ConvU16",
	KindConvU32:              "ConvU32",
	KindZeroExtendToU64:      "ZeroExtendToU64",
	KindZeroExtendToUSize:    "ZeroExtendToUSize",
	KindZeroExtendToISize:    "ZeroExtendToISize",
	KindConvI8:               "ConvI8",
	KindConvI16:              "ConvI16",
	KindConvI32:              "ConvI32",
	KindSignExtendToI64:      "SignExtendToI64",
	KindSignExtendToU64:      "SignExtendToU64",
	KindSignExtendToISize:    "SignExtendToISize",
	KindSignExtendToUSize:    "SignExtendToUSize",
	KindConvF32:              "ConvF32",
	KindConvF64:              "ConvF64",
	KindConvF64Un:            "ConvF64Un",
	KindMRefToRawPtr:         "MRefToRawPtr",
	KindCall:                 "Call",
	KindCallVirt:             "CallVirt",
	KindNewObj:               "NewObj",
	KindCallI:                "CallI",
	KindLdField:              "LdField",
	KindLdFieldAddress:       "LdFieldAddress",
	KindLdStaticField:        "LdStaticField",
	KindLdStaticFieldAddress: "LdStaticFieldAddress",
	KindLdLen:                "LdLen",
	KindLdElemRef:            "LdElemRef",
	KindCastPtr:              "CastPtr",
	KindLocAlloc:             "LocAlloc",
	KindLocAllocAligned:      "LocAllocAligned",
	KindIsInst:               "IsInst",
	KindCheckedCast:          "CheckedCast",
	KindVolatile:             "Volatile",
	KindUnboxAny:             "UnboxAny",
	KindLdFtn:                "LdFtn",
	KindLdTypeToken:          "LdTypeToken",
	KindSizeOf:               "SizeOf",
	KindGetException:         "GetException",
	KindBlackBox:             "BlackBox",
	KindGraph:                "Graph",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// AllKinds lists every valid kind.
func AllKinds() []Kind {
	out := make([]Kind, 0, kindCount-1)
	for k := KindInvalid + 1; k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

// ParseKind resolves a kind by its name.
func ParseKind(s string) (Kind, bool) {
	for k := KindInvalid + 1; k < kindCount; k++ {
		if kindNames[k] == s {
			return k, true
		}
	}
	return KindInvalid, false
}

// CallArgs is the call site shared by Call, CallVirt and NewObj. Args are in
// call-argument order.
type CallArgs struct {
	Site types.MethodID
	Args []*Node
	Pure ir.IsPure
}

// Node is a tree expression. Only the fields relevant to Kind are set.
type Node struct {
	Kind Kind

	// A and B are the operands of unary and binary kinds. For LdField,
	// LdFieldAddress and indirect loads A is the address. For CallI A is the
	// function pointer. For LdElemRef A is the array and B the index.
	A, B *Node

	Call *CallArgs // Call, CallVirt, NewObj
	Args []*Node   // CallI

	Index  uint32              // locals and arguments
	Type   types.Type          // LdObj, LdIndPtr, CastPtr, type tests, SizeOf, LdTypeToken, LocAllocAligned, LdElemRef
	Field  types.FieldID       // LdField, LdFieldAddress
	Static types.StaticFieldID // LdStaticField, LdStaticFieldAddress
	Method types.MethodID      // LdFtn
	Sig    types.SigID         // CallI
	Const  ir.Const            // Const
	Str    string              // LdStr
	Align  uint64              // LocAllocAligned
	Handle ir.NodeID           // Graph
}

// Arity returns the number of owned child expressions of n.
func (n *Node) Arity() int {
	switch {
	case n.Call != nil:
		return len(n.Call.Args)
	case n.Kind == KindCallI:
		return 1 + len(n.Args)
	case n.B != nil:
		return 2
	case n.A != nil:
		return 1
	default:
		return 0
	}
}

// Depth returns the height of the tree rooted at n.
func (n *Node) Depth() int {
	if n == nil {
		return 0
	}
	d := max(n.A.Depth(), n.B.Depth())
	if n.Call != nil {
		for _, a := range n.Call.Args {
			d = max(d, a.Depth())
		}
	}
	for _, a := range n.Args {
		d = max(d, a.Depth())
	}
	return d + 1
}
