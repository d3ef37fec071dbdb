package tree

import (
	"ilgraph/internal/ir"
	"ilgraph/internal/types"
)

var loadTypes = map[Kind]types.Type{
	KindLdIndI8:    types.MakeInt(types.I8),
	KindLdIndI16:   types.MakeInt(types.I16),
	KindLdIndI32:   types.MakeInt(types.I32),
	KindLdIndI64:   types.MakeInt(types.I64),
	KindLdIndISize: types.MakeInt(types.ISize),
	KindLdIndU8:    types.MakeInt(types.U8),
	KindLdIndU16:   types.MakeInt(types.U16),
	KindLdIndU32:   types.MakeInt(types.U32),
	KindLdIndU64:   types.MakeInt(types.U64),
	KindLdIndUSize: types.MakeInt(types.USize),
	KindLdIndF32:   types.MakeFloat(types.F32),
	KindLdIndF64:   types.MakeFloat(types.F64),
	KindLdIndBool:  types.Bool(),
}

// LoadType reports the loaded type of a fixed-type indirect load kind.
// KindLdIndPtr and KindLdObj report ok with a zero type: the type lives on
// the node.
func LoadType(k Kind) (types.Type, bool) {
	if k == KindLdIndPtr || k == KindLdObj {
		return types.Type{}, true
	}
	t, ok := loadTypes[k]
	return t, ok
}

// loadKinds inverts loadTypes; every load type names one kind.
var loadKinds = func() map[types.Type]Kind {
	out := make(map[types.Type]Kind, len(loadTypes))
	for k, t := range loadTypes {
		if prev, dup := out[t]; dup {
			panic("tree: " + prev.String() + " and " + k.String() + " load the same type")
		}
		out[t] = k
	}
	return out
}()

func loadKindFor(t types.Type) (Kind, bool) {
	k, ok := loadKinds[t]
	return k, ok
}

var binOps = map[Kind]ir.BinOp{
	KindAdd:   ir.BinAdd,
	KindSub:   ir.BinSub,
	KindMul:   ir.BinMul,
	KindDiv:   ir.BinDiv,
	KindDivUn: ir.BinDivUn,
	KindRem:   ir.BinRem,
	KindRemUn: ir.BinRemUn,
	KindAnd:   ir.BinAnd,
	KindOr:    ir.BinOr,
	KindXOr:   ir.BinXOr,
	KindShl:   ir.BinShl,
	KindShr:   ir.BinShr,
	KindShrUn: ir.BinShrUn,
	KindEq:    ir.BinEq,
	KindLt:    ir.BinLt,
	KindLtUn:  ir.BinLtUn,
	KindGt:    ir.BinGt,
	KindGtUn:  ir.BinGtUn,
}

// BinOpOf maps a binary tree kind to its graph operation.
func BinOpOf(k Kind) (ir.BinOp, bool) {
	op, ok := binOps[k]
	return op, ok
}

// IntCast describes the graph form of an integer cast kind.
type IntCast struct {
	Target types.Int
	Extend ir.ExtendKind
}

var intCasts = map[Kind]IntCast{
	KindConvU8:            {types.U8, ir.ZeroExtend},
	KindConvU16:           {types.U16, ir.ZeroExtend},
	KindConvU32:           {types.U32, ir.ZeroExtend},
	KindZeroExtendToU64:   {types.U64, ir.ZeroExtend},
	KindZeroExtendToUSize: {types.USize, ir.ZeroExtend},
	KindZeroExtendToISize: {types.ISize, ir.ZeroExtend},
	KindConvI8:            {types.I8, ir.SignExtend},
	KindConvI16:           {types.I16, ir.SignExtend},
	KindConvI32:           {types.I32, ir.SignExtend},
	KindSignExtendToI64:   {types.I64, ir.SignExtend},
	KindSignExtendToU64:   {types.U64, ir.SignExtend},
	KindSignExtendToISize: {types.ISize, ir.SignExtend},
	KindSignExtendToUSize: {types.USize, ir.SignExtend},
}

// IntCastOf maps an integer cast kind to its target and extension.
func IntCastOf(k Kind) (IntCast, bool) {
	c, ok := intCasts[k]
	return c, ok
}

// FloatCast describes the graph form of a float cast kind.
type FloatCast struct {
	Target types.Float
	Signed bool
}

var floatCasts = map[Kind]FloatCast{
	KindConvF32:   {types.F32, true},
	KindConvF64:   {types.F64, true},
	KindConvF64Un: {types.F64, false},
}

// FloatCastOf maps a float cast kind to its target and source signedness.
func FloatCastOf(k Kind) (FloatCast, bool) {
	c, ok := floatCasts[k]
	return c, ok
}
