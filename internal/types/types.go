package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// StringID identifies an interned string.
type StringID uint32

// NoStringID marks the absence of a string.
const NoStringID StringID = 0

// TypeListID identifies an interned, ordered list of types.
type TypeListID uint32

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindVoid
	KindBool
	KindChar
	KindInt
	KindFloat
	KindPtr
	KindRef
	KindFnPtr
	KindClassRef
	KindPlatformString
	KindPlatformObject
	KindPlatformArray
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindVoid:
		return "void"
	case KindBool:
		return "bool"
	case KindChar:
		return "char"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindPtr:
		return "ptr"
	case KindRef:
		return "ref"
	case KindFnPtr:
		return "fnptr"
	case KindClassRef:
		return "class"
	case KindPlatformString:
		return "string"
	case KindPlatformObject:
		return "object"
	case KindPlatformArray:
		return "array"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Int enumerates the integer types of the IR.
type Int uint8

const (
	U8 Int = iota + 1
	U16
	U32
	U64
	U128
	USize
	I8
	I16
	I32
	I64
	I128
	ISize
)

// AllInts lists every integer type.
var AllInts = [...]Int{U8, U16, U32, U64, U128, USize, I8, I16, I32, I64, I128, ISize}

// Name returns the short name used in runtime helper symbols, e.g. "u8".
func (i Int) Name() string {
	switch i {
	case U8:
		return "u8"
	case U16:
		return "u16"
	case U32:
		return "u32"
	case U64:
		return "u64"
	case U128:
		return "u128"
	case USize:
		return "usize"
	case I8:
		return "i8"
	case I16:
		return "i16"
	case I32:
		return "i32"
	case I64:
		return "i64"
	case I128:
		return "i128"
	case ISize:
		return "isize"
	default:
		return fmt.Sprintf("Int(%d)", i)
	}
}

func (i Int) String() string { return i.Name() }

// Signed reports whether the integer is signed.
func (i Int) Signed() bool {
	switch i {
	case I8, I16, I32, I64, I128, ISize:
		return true
	default:
		return false
	}
}

// Bits returns the width in bits; pointer-sized integers report ptrBits.
func (i Int) Bits(ptrBits int) int {
	switch i {
	case U8, I8:
		return 8
	case U16, I16:
		return 16
	case U32, I32:
		return 32
	case U64, I64:
		return 64
	case U128, I128:
		return 128
	case USize, ISize:
		return ptrBits
	default:
		return 0
	}
}

// Is128 reports whether the integer needs the wide helper routines.
func (i Int) Is128() bool { return i == U128 || i == I128 }

// Float enumerates the floating-point types of the IR.
type Float uint8

const (
	F16 Float = iota + 1
	F32
	F64
	F128
)

// Name returns the short name of the float type, e.g. "f32".
func (f Float) Name() string {
	switch f {
	case F16:
		return "f16"
	case F32:
		return "f32"
	case F64:
		return "f64"
	case F128:
		return "f128"
	default:
		return fmt.Sprintf("Float(%d)", f)
	}
}

func (f Float) String() string { return f.Name() }

// Type is a compact descriptor for any supported type. Nested types are
// referenced by handle, so Type is comparable and cheap to copy.
type Type struct {
	Kind  Kind
	Int   Int     // KindInt
	Float Float   // KindFloat
	Elem  TypeID  // KindPtr, KindRef, KindPlatformArray
	Sig   SigID   // KindFnPtr
	Class ClassID // KindClassRef
	Dims  uint8   // KindPlatformArray
}

// Descriptor helpers ---------------------------------------------------------

// Void describes the unit/void type.
func Void() Type { return Type{Kind: KindVoid} }

// Bool describes the boolean type.
func Bool() Type { return Type{Kind: KindBool} }

// Char describes a UTF-16 code unit.
func Char() Type { return Type{Kind: KindChar} }

// MakeInt describes an integer type.
func MakeInt(i Int) Type { return Type{Kind: KindInt, Int: i} }

// MakeFloat describes a floating-point type.
func MakeFloat(f Float) Type { return Type{Kind: KindFloat, Float: f} }

// MakePtr describes a raw pointer to elem.
func MakePtr(elem TypeID) Type { return Type{Kind: KindPtr, Elem: elem} }

// MakeRef describes a managed reference to elem.
func MakeRef(elem TypeID) Type { return Type{Kind: KindRef, Elem: elem} }

// MakeFnPtr describes a function pointer with the given signature.
func MakeFnPtr(sig SigID) Type { return Type{Kind: KindFnPtr, Sig: sig} }

// MakeClassRef describes a value or reference of a class.
func MakeClassRef(class ClassID) Type { return Type{Kind: KindClassRef, Class: class} }

// PlatformString describes the runtime's string object.
func PlatformString() Type { return Type{Kind: KindPlatformString} }

// PlatformObject describes the runtime's root object type.
func PlatformObject() Type { return Type{Kind: KindPlatformObject} }

// MakePlatformArray describes a managed array of elem with dims dimensions.
func MakePlatformArray(elem TypeID, dims uint8) Type {
	return Type{Kind: KindPlatformArray, Elem: elem, Dims: dims}
}

// IsPointerLike reports whether t can be the target of a pointer
// reinterpretation: raw pointer, reference, function pointer, usize or isize.
func (t Type) IsPointerLike() bool {
	switch t.Kind {
	case KindPtr, KindRef, KindFnPtr:
		return true
	case KindInt:
		return t.Int == USize || t.Int == ISize
	default:
		return false
	}
}

// IsInt reports whether t is an integer type.
func (t Type) IsInt() bool { return t.Kind == KindInt }
