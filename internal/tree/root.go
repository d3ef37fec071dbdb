package tree

import (
	"ilgraph/internal/ir"
	"ilgraph/internal/types"
)

// Root is a tree statement. Kinds are shared with ir roots.
type Root struct {
	Kind     ir.RootKind
	Addr     *Node
	Value    *Node
	Field    types.FieldID
	Static   types.StaticFieldID
	Type     types.Type // StInd
	Volatile bool       // StInd
	Message  string     // Throw
}

func Nop() *Root { return &Root{Kind: ir.RootNop} }

// SetField stores value into field of the object at addr.
func SetField(addr, value *Node, field types.FieldID) *Root {
	return &Root{Kind: ir.RootSetField, Addr: addr, Value: value, Field: field}
}

// StInd stores value of type t through addr.
func StInd(addr, value *Node, t types.Type, volatile bool) *Root {
	return &Root{Kind: ir.RootStInd, Addr: addr, Value: value, Type: t, Volatile: volatile}
}

func SetStaticField(f types.StaticFieldID, value *Node) *Root {
	return &Root{Kind: ir.RootSetStaticField, Static: f, Value: value}
}

// Throw raises an exception with msg. Code after it is unreachable.
func Throw(msg string) *Root { return &Root{Kind: ir.RootThrow, Message: msg} }

func Pop(value *Node) *Root { return &Root{Kind: ir.RootPop, Value: value} }

// IsNop reports whether r emits no instruction.
func (r *Root) IsNop() bool { return r == nil || r.Kind == ir.RootNop }
