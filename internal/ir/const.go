package ir

import (
	"fmt"
	"math"
	"math/big"

	"ilgraph/internal/types"
)

// ConstKind enumerates constant categories.
type ConstKind uint8

const (
	ConstInvalid ConstKind = iota
	ConstInt
	ConstFloat
	ConstBool
	ConstString
	ConstNull
)

// Const is an interned literal. Integers are stored as their two's complement
// bit pattern truncated to the type's width (pointer-sized integers keep 64
// bits), with Hi holding the upper half of 128-bit values. Floats are stored
// as IEEE bits in Lo so that Const stays comparable and NaN payloads intern
// consistently.
type Const struct {
	Kind  ConstKind
	Int   types.Int
	Float types.Float
	Lo    uint64
	Hi    uint64
	Str   types.StringID
	Class types.ClassID // ConstNull
}

func widthMask(i types.Int) uint64 {
	switch bits := i.Bits(64); bits {
	case 8, 16, 32:
		return 1<<bits - 1
	default:
		return math.MaxUint64
	}
}

// IntConst builds an integer constant of kind i from a signed value.
// 128-bit kinds are sign-extended into Hi.
func IntConst(i types.Int, v int64) Const {
	c := Const{Kind: ConstInt, Int: i, Lo: uint64(v) & widthMask(i)} //nolint:gosec // bit pattern
	if i.Is128() && v < 0 {
		c.Hi = math.MaxUint64
	}
	return c
}

// UintConst builds an integer constant of kind i from an unsigned value.
func UintConst(i types.Int, v uint64) Const {
	return Const{Kind: ConstInt, Int: i, Lo: v & widthMask(i)}
}

// U128Const builds a u128 constant from its halves.
func U128Const(lo, hi uint64) Const {
	return Const{Kind: ConstInt, Int: types.U128, Lo: lo, Hi: hi}
}

// I128Const builds an i128 constant from its halves.
func I128Const(lo, hi uint64) Const {
	return Const{Kind: ConstInt, Int: types.I128, Lo: lo, Hi: hi}
}

// F32Const builds a 32-bit float constant.
func F32Const(v float32) Const {
	return Const{Kind: ConstFloat, Float: types.F32, Lo: uint64(math.Float32bits(v))}
}

// F64Const builds a 64-bit float constant.
func F64Const(v float64) Const {
	return Const{Kind: ConstFloat, Float: types.F64, Lo: math.Float64bits(v)}
}

// BoolConst builds a bool constant.
func BoolConst(b bool) Const {
	c := Const{Kind: ConstBool}
	if b {
		c.Lo = 1
	}
	return c
}

// StringConst builds a platform string literal.
func StringConst(s types.StringID) Const {
	return Const{Kind: ConstString, Str: s}
}

// NullConst builds a null reference of class cls.
func NullConst(cls types.ClassID) Const {
	return Const{Kind: ConstNull, Class: cls}
}

// Type returns the type of the constant.
func (c Const) Type() types.Type {
	switch c.Kind {
	case ConstInt:
		return types.MakeInt(c.Int)
	case ConstFloat:
		return types.MakeFloat(c.Float)
	case ConstBool:
		return types.Bool()
	case ConstString:
		return types.PlatformString()
	case ConstNull:
		return types.MakeClassRef(c.Class)
	default:
		return types.Type{}
	}
}

// Uint64 returns the low 64 bits of an integer or bool constant.
func (c Const) Uint64() uint64 { return c.Lo }

// Int64 returns the value sign-extended from the constant's width.
func (c Const) Int64() int64 {
	switch bits := c.Int.Bits(64); bits {
	case 8, 16, 32:
		shift := 64 - bits
		return int64(c.Lo<<shift) >> shift //nolint:gosec // sign extension
	default:
		return int64(c.Lo) //nolint:gosec // bit pattern
	}
}

// Bool returns the value of a bool constant.
func (c Const) Bool() bool { return c.Lo != 0 }

// Float64 returns the value of a float constant.
func (c Const) Float64() float64 {
	if c.Float == types.F32 {
		return float64(math.Float32frombits(uint32(c.Lo))) //nolint:gosec // stored from Float32bits
	}
	return math.Float64frombits(c.Lo)
}

// Big returns an integer constant as a big.Int, honouring signedness.
func (c Const) Big() *big.Int {
	if !c.Int.Is128() {
		if c.Int.Signed() {
			return big.NewInt(c.Int64())
		}
		return new(big.Int).SetUint64(c.Lo)
	}
	v := new(big.Int).SetUint64(c.Hi)
	v.Lsh(v, 64)
	v.Or(v, new(big.Int).SetUint64(c.Lo))
	if c.Int.Signed() && c.Hi>>63 == 1 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), 128))
	}
	return v
}

// ConstFromBig truncates v to the width of i.
func ConstFromBig(i types.Int, v *big.Int) Const {
	bits := i.Bits(64)
	mod := new(big.Int).Lsh(big.NewInt(1), uint(bits)) //nolint:gosec // bits is 8..128
	u := new(big.Int).Mod(v, mod)
	lo := new(big.Int).And(u, new(big.Int).SetUint64(math.MaxUint64))
	hi := new(big.Int).Rsh(u, 64)
	return Const{Kind: ConstInt, Int: i, Lo: lo.Uint64(), Hi: hi.Uint64()}
}

func (c Const) String() string {
	switch c.Kind {
	case ConstInt:
		if c.Int.Is128() {
			return c.Big().String() + c.Int.Name()
		}
		if c.Int.Signed() {
			return fmt.Sprintf("%d%s", c.Int64(), c.Int.Name())
		}
		return fmt.Sprintf("%d%s", c.Lo, c.Int.Name())
	case ConstFloat:
		return fmt.Sprintf("%g%s", c.Float64(), c.Float.Name())
	case ConstBool:
		return fmt.Sprintf("%t", c.Bool())
	case ConstString:
		return fmt.Sprintf("str#%d", c.Str)
	case ConstNull:
		return fmt.Sprintf("null(class#%d)", c.Class)
	default:
		return "<invalid const>"
	}
}
