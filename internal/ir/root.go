package ir

import (
	"fmt"

	"ilgraph/internal/types"
)

// RootID identifies an interned root (statement).
type RootID uint32

// RootKind enumerates statement kinds.
type RootKind uint8

const (
	RootInvalid RootKind = iota
	// RootNop does nothing.
	RootNop
	// RootSetField stores Value into Field of the object at Addr.
	RootSetField
	// RootStInd stores Value through the pointer Addr.
	RootStInd
	// RootSetStaticField stores Value into a static field.
	RootSetStaticField
	// RootThrow raises an exception carrying Message.
	RootThrow
	// RootPop evaluates Value and discards it.
	RootPop
)

func (k RootKind) String() string {
	switch k {
	case RootNop:
		return "nop"
	case RootSetField:
		return "stfld"
	case RootStInd:
		return "stind"
	case RootSetStaticField:
		return "stsfld"
	case RootThrow:
		return "throw"
	case RootPop:
		return "pop"
	default:
		return fmt.Sprintf("RootKind(%d)", k)
	}
}

// Root is an interned statement whose operands are graph nodes.
type Root struct {
	Kind     RootKind
	Addr     NodeID
	Value    NodeID
	Field    types.FieldID
	Static   types.StaticFieldID
	Type     types.TypeID // RootStInd
	Volatile bool         // RootStInd
	Message  types.StringID
}

func MakeNop() Root { return Root{Kind: RootNop} }

func MakeSetField(addr, value NodeID, field types.FieldID) Root {
	return Root{Kind: RootSetField, Addr: addr, Value: value, Field: field}
}

func MakeStInd(addr, value NodeID, t types.TypeID, volatile bool) Root {
	return Root{Kind: RootStInd, Addr: addr, Value: value, Type: t, Volatile: volatile}
}

func MakeSetStaticField(f types.StaticFieldID, value NodeID) Root {
	return Root{Kind: RootSetStaticField, Static: f, Value: value}
}

func MakeThrow(msg types.StringID) Root { return Root{Kind: RootThrow, Message: msg} }

func MakePop(value NodeID) Root { return Root{Kind: RootPop, Value: value} }

// Nodes returns the node operands of r in evaluation order.
func (r Root) Nodes() []NodeID {
	out := make([]NodeID, 0, 2)
	if r.Addr != NoNodeID {
		out = append(out, r.Addr)
	}
	if r.Value != NoNodeID {
		out = append(out, r.Value)
	}
	return out
}
