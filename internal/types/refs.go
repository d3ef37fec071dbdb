package types

import "fmt"

// SigID identifies an interned function signature.
type SigID uint32

// ClassID identifies an interned class reference.
type ClassID uint32

// FieldID identifies an interned instance field descriptor.
type FieldID uint32

// StaticFieldID identifies an interned static field descriptor.
type StaticFieldID uint32

// MethodID identifies an interned method reference.
type MethodID uint32

// FnSig describes a function signature. Inputs are in call-argument order.
type FnSig struct {
	Inputs TypeListID
	Output TypeID
}

// ClassRef names a class, optionally qualified by the assembly defining it.
type ClassRef struct {
	Name        StringID
	Assembly    StringID // NoStringID for the module being built
	IsValueType bool
	Generics    TypeListID
}

// FieldDesc describes an instance field of Owner.
type FieldDesc struct {
	Owner ClassID
	Name  StringID
	Type  TypeID
}

// StaticFieldDesc describes a static field of Owner.
type StaticFieldDesc struct {
	Owner         ClassID
	Name          StringID
	Type          TypeID
	IsThreadLocal bool
}

// MethodKind distinguishes how a method is invoked.
type MethodKind uint8

const (
	MethodStatic MethodKind = iota
	MethodInstance
	MethodVirtual
	MethodConstructor
)

func (k MethodKind) String() string {
	switch k {
	case MethodStatic:
		return "static"
	case MethodInstance:
		return "instance"
	case MethodVirtual:
		return "virtual"
	case MethodConstructor:
		return "ctor"
	default:
		return fmt.Sprintf("MethodKind(%d)", k)
	}
}

// MethodRef names a method of Class with signature Sig.
type MethodRef struct {
	Class    ClassID
	Name     StringID
	Sig      SigID
	Kind     MethodKind
	Generics TypeListID
}
