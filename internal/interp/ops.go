package interp

import (
	"math"
	"math/big"

	"ilgraph/internal/ir"
	"ilgraph/internal/types"
)

func width(i types.Int) int { return i.Bits(64) }

// unsignedBig reads the bit pattern of an integer constant as unsigned.
func unsignedBig(c ir.Const) *big.Int {
	v := new(big.Int).SetUint64(c.Lo)
	if c.Int.Is128() {
		hi := new(big.Int).SetUint64(c.Hi)
		v.Or(v, hi.Lsh(hi, 64))
	}
	return v
}

// signedBig reads the bit pattern of an integer constant as two's complement.
func signedBig(c ir.Const) *big.Int {
	v := unsignedBig(c)
	w := width(c.Int)
	if v.Bit(w-1) == 1 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), uint(w))) //nolint:gosec // w is 8..128
	}
	return v
}

func bigOf(c ir.Const, signed bool) *big.Int {
	if signed {
		return signedBig(c)
	}
	return unsignedBig(c)
}

// asInt lets bools take part in integer arithmetic the way the evaluation
// stack treats them.
func asInt(c ir.Const) ir.Const {
	if c.Kind == ir.ConstBool {
		return ir.UintConst(types.I32, c.Lo)
	}
	return c
}

func floatConst(f types.Float, v float64) ir.Const {
	if f == types.F32 {
		return ir.F32Const(float32(v))
	}
	return ir.F64Const(v)
}

// Binary applies op to two constants.
func Binary(op ir.BinOp, a, b ir.Const) (ir.Const, error) {
	if a.Kind == ir.ConstBool && b.Kind == ir.ConstBool {
		switch op {
		case ir.BinEq:
			return ir.BoolConst(a.Lo == b.Lo), nil
		case ir.BinAnd:
			return ir.BoolConst(a.Bool() && b.Bool()), nil
		case ir.BinOr:
			return ir.BoolConst(a.Bool() || b.Bool()), nil
		case ir.BinXOr:
			return ir.BoolConst(a.Bool() != b.Bool()), nil
		}
	}
	a, b = asInt(a), asInt(b)
	switch {
	case a.Kind == ir.ConstFloat && b.Kind == ir.ConstFloat:
		return floatBinary(op, a, b)
	case a.Kind == ir.ConstInt && b.Kind == ir.ConstInt:
		return intBinary(op, a, b)
	case op == ir.BinEq && a.Kind == b.Kind:
		return ir.BoolConst(a == b), nil
	}
	return ir.Const{}, faultf(FaultTypeMismatch, "%s %s, %s", op, a, b)
}

// widen brings mixed-width operands to the wider type the way the evaluation
// stack does: each side is extended by its own signedness. Operands of equal
// width keep their bit patterns and take the type of a.
func widen(a, b ir.Const) (ir.Const, ir.Const) {
	if a.Int == b.Int {
		return a, b
	}
	t := a.Int
	if width(b.Int) > width(a.Int) {
		t = b.Int
	}
	extend := func(c ir.Const) ir.Const {
		if width(c.Int) == width(t) {
			c.Int = t
			return c
		}
		return ir.ConstFromBig(t, bigOf(c, c.Int.Signed()))
	}
	return extend(a), extend(b)
}

func intBinary(op ir.BinOp, a, b ir.Const) (ir.Const, error) {
	if op != ir.BinShl && op != ir.BinShr && op != ir.BinShrUn {
		a, b = widen(a, b)
	}
	t := a.Int
	w := width(t)
	switch op {
	case ir.BinEq:
		return ir.BoolConst(unsignedBig(a).Cmp(unsignedBig(b)) == 0), nil
	case ir.BinLt, ir.BinLtUn:
		signed := op == ir.BinLt
		return ir.BoolConst(bigOf(a, signed).Cmp(bigOf(b, signed)) < 0), nil
	case ir.BinGt, ir.BinGtUn:
		signed := op == ir.BinGt
		return ir.BoolConst(bigOf(a, signed).Cmp(bigOf(b, signed)) > 0), nil
	case ir.BinShl, ir.BinShr, ir.BinShrUn:
		n := uint(b.Lo % uint64(w)) //nolint:gosec // below 128
		switch op {
		case ir.BinShl:
			return ir.ConstFromBig(t, new(big.Int).Lsh(unsignedBig(a), n)), nil
		case ir.BinShr:
			return ir.ConstFromBig(t, new(big.Int).Rsh(signedBig(a), n)), nil
		default:
			return ir.ConstFromBig(t, new(big.Int).Rsh(unsignedBig(a), n)), nil
		}
	}

	x, y := unsignedBig(a), unsignedBig(b)
	r := new(big.Int)
	switch op {
	case ir.BinAdd:
		r.Add(x, y)
	case ir.BinSub:
		r.Sub(x, y)
	case ir.BinMul:
		r.Mul(x, y)
	case ir.BinAnd:
		r.And(x, y)
	case ir.BinOr:
		r.Or(x, y)
	case ir.BinXOr:
		r.Xor(x, y)
	case ir.BinDiv, ir.BinDivUn, ir.BinRem, ir.BinRemUn:
		signed := op == ir.BinDiv || op == ir.BinRem
		x, y = bigOf(a, signed), bigOf(b, signed)
		if y.Sign() == 0 {
			return ir.Const{}, faultf(FaultDivByZero, "%s %s, %s", op, a, b)
		}
		// Quo and Rem truncate toward zero like the hardware does.
		if op == ir.BinDiv || op == ir.BinDivUn {
			r.Quo(x, y)
		} else {
			r.Rem(x, y)
		}
	default:
		return ir.Const{}, faultf(FaultBadOperand, "unknown operation %s", op)
	}
	return ir.ConstFromBig(t, r), nil
}

func floatBinary(op ir.BinOp, a, b ir.Const) (ir.Const, error) {
	x, y := a.Float64(), b.Float64()
	unordered := math.IsNaN(x) || math.IsNaN(y)
	switch op {
	case ir.BinEq:
		return ir.BoolConst(x == y), nil
	case ir.BinLt:
		return ir.BoolConst(x < y), nil
	case ir.BinLtUn:
		return ir.BoolConst(unordered || x < y), nil
	case ir.BinGt:
		return ir.BoolConst(x > y), nil
	case ir.BinGtUn:
		return ir.BoolConst(unordered || x > y), nil
	case ir.BinAdd:
		return floatConst(a.Float, x+y), nil
	case ir.BinSub:
		return floatConst(a.Float, x-y), nil
	case ir.BinMul:
		return floatConst(a.Float, x*y), nil
	case ir.BinDiv:
		return floatConst(a.Float, x/y), nil
	case ir.BinRem:
		return floatConst(a.Float, math.Mod(x, y)), nil
	}
	return ir.Const{}, faultf(FaultBadOperand, "%s on floats", op)
}

// Unary applies op to a constant.
func Unary(op ir.UnOp, v ir.Const) (ir.Const, error) {
	switch {
	case v.Kind == ir.ConstBool && op == ir.UnNot:
		return ir.BoolConst(!v.Bool()), nil
	case v.Kind == ir.ConstFloat && op == ir.UnNeg:
		return floatConst(v.Float, -v.Float64()), nil
	}
	v = asInt(v)
	if v.Kind != ir.ConstInt {
		return ir.Const{}, faultf(FaultBadOperand, "%s %s", op, v)
	}
	switch op {
	case ir.UnNeg:
		return ir.ConstFromBig(v.Int, new(big.Int).Neg(unsignedBig(v))), nil
	case ir.UnNot:
		return ir.ConstFromBig(v.Int, new(big.Int).Not(unsignedBig(v))), nil
	}
	return ir.Const{}, faultf(FaultBadOperand, "unknown operation %s", op)
}

// IntCast converts v to the integer type target. Integer sources are read
// as signed for SignExtend; floats truncate toward zero.
func IntCast(v ir.Const, target types.Int, extend ir.ExtendKind) (ir.Const, error) {
	v = asInt(v)
	switch v.Kind {
	case ir.ConstInt:
		return ir.ConstFromBig(target, bigOf(v, extend == ir.SignExtend)), nil
	case ir.ConstFloat:
		f := v.Float64()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return ir.Const{}, faultf(FaultBadOperand, "conversion of %s to %s", v, target)
		}
		i, _ := big.NewFloat(math.Trunc(f)).Int(nil)
		return ir.ConstFromBig(target, i), nil
	}
	return ir.Const{}, faultf(FaultBadOperand, "conversion of %s to %s", v, target)
}

// FloatCast converts v to the float type target. signed selects how an
// integer source is read.
func FloatCast(v ir.Const, target types.Float, signed bool) (ir.Const, error) {
	v = asInt(v)
	switch v.Kind {
	case ir.ConstInt:
		f, _ := new(big.Float).SetInt(bigOf(v, signed)).Float64()
		return floatConst(target, f), nil
	case ir.ConstFloat:
		return floatConst(target, v.Float64()), nil
	}
	return ir.Const{}, faultf(FaultBadOperand, "conversion of %s to %s", v, target)
}
