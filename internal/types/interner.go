package types

import (
	"iter"

	"ilgraph/internal/intern"
)

// Well-known class names used by runtime helper calls.
const (
	MainModuleName = "MainModule"
	GCHandleName   = "System.Runtime.InteropServices.GCHandle"
	UInt128Name    = "System.UInt128"
	Int128Name     = "System.Int128"
	RuntimeAsmName = "System.Runtime"
)

// Builtins stores TypeIDs for common primitive types.
type Builtins struct {
	Void   TypeID
	Bool   TypeID
	USize  TypeID
	ISize  TypeID
	U64    TypeID
	Object TypeID
	String TypeID
}

// Interner provides stable handles for types and for the references that
// the IR needs (strings, signatures, classes, fields, methods).
type Interner struct {
	strings   *intern.Table[StringID, string]
	types     *intern.Table[TypeID, Type]
	typeLists *intern.Lists[TypeListID, TypeID]
	sigs      *intern.Table[SigID, FnSig]
	classes   *intern.Table[ClassID, ClassRef]
	fields    *intern.Table[FieldID, FieldDesc]
	statics   *intern.Table[StaticFieldID, StaticFieldDesc]
	methods   *intern.Table[MethodID, MethodRef]
	builtins  Builtins
}

// NewInterner constructs an interner seeded with built-in primitives.
func NewInterner() *Interner {
	in := &Interner{
		strings:   intern.NewTable[StringID, string]("string", 256),
		types:     intern.NewTable[TypeID, Type]("type", 64),
		typeLists: intern.NewLists[TypeListID, TypeID]("type list", 32),
		sigs:      intern.NewTable[SigID, FnSig]("signature", 32),
		classes:   intern.NewTable[ClassID, ClassRef]("class", 32),
		fields:    intern.NewTable[FieldID, FieldDesc]("field", 32),
		statics:   intern.NewTable[StaticFieldID, StaticFieldDesc]("static field", 8),
		methods:   intern.NewTable[MethodID, MethodRef]("method", 64),
	}
	in.builtins.Void = in.Intern(Void())
	in.builtins.Bool = in.Intern(Bool())
	in.builtins.USize = in.Intern(MakeInt(USize))
	in.builtins.ISize = in.Intern(MakeInt(ISize))
	in.builtins.U64 = in.Intern(MakeInt(U64))
	in.builtins.Object = in.Intern(PlatformObject())
	in.builtins.String = in.Intern(PlatformString())
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Strings --------------------------------------------------------------------

// String interns s.
func (in *Interner) String(s string) StringID {
	return in.strings.Intern(s)
}

// LookupString returns the string behind id.
func (in *Interner) LookupString(id StringID) (string, bool) {
	return in.strings.Lookup(id)
}

// MustString returns the string behind id. NoStringID reads as "".
func (in *Interner) MustString(id StringID) string {
	if id == NoStringID {
		return ""
	}
	return in.strings.MustLookup(id)
}

// Types ----------------------------------------------------------------------

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	return in.types.Intern(t)
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	return in.types.Lookup(id)
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	return in.types.MustLookup(id)
}

// NPtr describes a raw pointer to t, interning t.
func (in *Interner) NPtr(t Type) Type {
	return MakePtr(in.Intern(t))
}

// NRef describes a managed reference to t, interning t.
func (in *Interner) NRef(t Type) Type {
	return MakeRef(in.Intern(t))
}

// TypeList interns an ordered list of types.
func (in *Interner) TypeList(ids []TypeID) TypeListID {
	return in.typeLists.Intern(ids)
}

// MustTypeList returns a copy of the list behind id.
func (in *Interner) MustTypeList(id TypeListID) []TypeID {
	return in.typeLists.MustLookup(id)
}

// Signatures -----------------------------------------------------------------

// Sig interns the signature (inputs) -> output.
func (in *Interner) Sig(inputs []Type, output Type) SigID {
	ids := make([]TypeID, len(inputs))
	for i, t := range inputs {
		ids[i] = in.Intern(t)
	}
	return in.sigs.Intern(FnSig{Inputs: in.TypeList(ids), Output: in.Intern(output)})
}

// InternSig interns an already-built signature.
func (in *Interner) InternSig(sig FnSig) SigID {
	return in.sigs.Intern(sig)
}

// MustSig returns the signature behind id.
func (in *Interner) MustSig(id SigID) FnSig {
	return in.sigs.MustLookup(id)
}

// LookupSigInputs is SigInputs for handles that may be foreign.
func (in *Interner) LookupSigInputs(id SigID) ([]TypeID, bool) {
	sig, ok := in.sigs.Lookup(id)
	if !ok {
		return nil, false
	}
	return in.typeLists.Lookup(sig.Inputs)
}

// SigInputs returns the input types of id in order.
func (in *Interner) SigInputs(id SigID) []TypeID {
	return in.MustTypeList(in.MustSig(id).Inputs)
}

// Classes --------------------------------------------------------------------

// Class interns a class reference.
func (in *Interner) Class(c ClassRef) ClassID {
	return in.classes.Intern(c)
}

// NewClass interns a class by name. assembly may be empty for local classes.
func (in *Interner) NewClass(name, assembly string, valueType bool) ClassID {
	ref := ClassRef{Name: in.String(name), IsValueType: valueType}
	if assembly != "" {
		ref.Assembly = in.String(assembly)
	}
	return in.classes.Intern(ref)
}

// LookupClass returns the class behind id.
func (in *Interner) LookupClass(id ClassID) (ClassRef, bool) {
	return in.classes.Lookup(id)
}

// MustClass returns the class behind id.
func (in *Interner) MustClass(id ClassID) ClassRef {
	return in.classes.MustLookup(id)
}

// MainModule returns the class that hosts runtime support routines.
func (in *Interner) MainModule() ClassID {
	return in.NewClass(MainModuleName, "", false)
}

// GCHandle returns the runtime's GC handle value type.
func (in *Interner) GCHandle() ClassID {
	return in.NewClass(GCHandleName, RuntimeAsmName, true)
}

// UInt128 returns the runtime's 128-bit unsigned integer value type.
func (in *Interner) UInt128() ClassID {
	return in.NewClass(UInt128Name, RuntimeAsmName, true)
}

// Int128 returns the runtime's 128-bit signed integer value type.
func (in *Interner) Int128() ClassID {
	return in.NewClass(Int128Name, RuntimeAsmName, true)
}

// Fields ---------------------------------------------------------------------

// Field interns an instance field descriptor.
func (in *Interner) Field(f FieldDesc) FieldID {
	return in.fields.Intern(f)
}

// NewField interns the field owner.name of type t.
func (in *Interner) NewField(owner ClassID, name string, t Type) FieldID {
	return in.fields.Intern(FieldDesc{Owner: owner, Name: in.String(name), Type: in.Intern(t)})
}

// LookupField returns the field behind id.
func (in *Interner) LookupField(id FieldID) (FieldDesc, bool) {
	return in.fields.Lookup(id)
}

// MustField returns the field behind id.
func (in *Interner) MustField(id FieldID) FieldDesc {
	return in.fields.MustLookup(id)
}

// StaticField interns a static field descriptor.
func (in *Interner) StaticField(f StaticFieldDesc) StaticFieldID {
	return in.statics.Intern(f)
}

// MustStaticField returns the static field behind id.
func (in *Interner) MustStaticField(id StaticFieldID) StaticFieldDesc {
	return in.statics.MustLookup(id)
}

// Methods --------------------------------------------------------------------

// Method interns a method reference.
func (in *Interner) Method(m MethodRef) MethodID {
	return in.methods.Intern(m)
}

// NewMethod interns class::name with signature sig.
func (in *Interner) NewMethod(class ClassID, name string, sig SigID, kind MethodKind) MethodID {
	return in.methods.Intern(MethodRef{
		Class: class,
		Name:  in.String(name),
		Sig:   sig,
		Kind:  kind,
	})
}

// LookupMethod returns the method behind id.
func (in *Interner) LookupMethod(id MethodID) (MethodRef, bool) {
	return in.methods.Lookup(id)
}

// MustMethod returns the method behind id.
func (in *Interner) MustMethod(id MethodID) MethodRef {
	return in.methods.MustLookup(id)
}

// Iteration ------------------------------------------------------------------

// Strings iterates over interned strings in handle order.
func (in *Interner) Strings() iter.Seq2[StringID, string] { return in.strings.All() }

// Types iterates over interned types in handle order.
func (in *Interner) Types() iter.Seq2[TypeID, Type] { return in.types.All() }

// TypeLists iterates over interned type lists in handle order.
func (in *Interner) TypeLists() iter.Seq2[TypeListID, []TypeID] { return in.typeLists.All() }

// Sigs iterates over interned signatures in handle order.
func (in *Interner) Sigs() iter.Seq2[SigID, FnSig] { return in.sigs.All() }

// Classes iterates over interned classes in handle order.
func (in *Interner) Classes() iter.Seq2[ClassID, ClassRef] { return in.classes.All() }

// Fields iterates over interned fields in handle order.
func (in *Interner) Fields() iter.Seq2[FieldID, FieldDesc] { return in.fields.All() }

// StaticFields iterates over interned static fields in handle order.
func (in *Interner) StaticFields() iter.Seq2[StaticFieldID, StaticFieldDesc] {
	return in.statics.All()
}

// Methods iterates over interned methods in handle order.
func (in *Interner) Methods() iter.Seq2[MethodID, MethodRef] { return in.methods.All() }

// Counts reports the size of each table, keyed by table name.
func (in *Interner) Counts() map[string]int {
	return map[string]int{
		"strings":       in.strings.Len(),
		"types":         in.types.Len(),
		"type_lists":    in.typeLists.Len(),
		"signatures":    in.sigs.Len(),
		"classes":       in.classes.Len(),
		"fields":        in.fields.Len(),
		"static_fields": in.statics.Len(),
		"methods":       in.methods.Len(),
	}
}
