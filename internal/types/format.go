package types

import (
	"fmt"
	"strings"
)

// TypeString renders a type handle for dumps and diagnostics.
func (in *Interner) TypeString(id TypeID) string {
	if id == NoTypeID {
		return "<none>"
	}
	t, ok := in.Lookup(id)
	if !ok {
		return fmt.Sprintf("type#%d", id)
	}
	return in.Format(t)
}

// Format renders a type descriptor, e.g. "*u8", "&MainModule", "fn(i32) -> void".
func (in *Interner) Format(t Type) string {
	switch t.Kind {
	case KindInt:
		return t.Int.Name()
	case KindFloat:
		return t.Float.Name()
	case KindPtr:
		return "*" + in.TypeString(t.Elem)
	case KindRef:
		return "&" + in.TypeString(t.Elem)
	case KindFnPtr:
		return in.SigString(t.Sig)
	case KindClassRef:
		return in.ClassString(t.Class)
	case KindPlatformArray:
		return in.TypeString(t.Elem) + "[" + strings.Repeat(",", max(int(t.Dims)-1, 0)) + "]"
	default:
		return t.Kind.String()
	}
}

// SigString renders a signature as "fn(a, b) -> r".
func (in *Interner) SigString(id SigID) string {
	sig, ok := in.sigs.Lookup(id)
	if !ok {
		return fmt.Sprintf("sig#%d", id)
	}
	inputs := in.MustTypeList(sig.Inputs)
	parts := make([]string, len(inputs))
	for i, tid := range inputs {
		parts[i] = in.TypeString(tid)
	}
	return "fn(" + strings.Join(parts, ", ") + ") -> " + in.TypeString(sig.Output)
}

// ClassString renders a class as "[asm]Name" or "Name".
func (in *Interner) ClassString(id ClassID) string {
	c, ok := in.classes.Lookup(id)
	if !ok {
		return fmt.Sprintf("class#%d", id)
	}
	name := in.MustString(c.Name)
	if c.Assembly != NoStringID {
		name = "[" + in.MustString(c.Assembly) + "]" + name
	}
	return name
}

// FieldString renders a field as "Owner::name: T".
func (in *Interner) FieldString(id FieldID) string {
	f, ok := in.fields.Lookup(id)
	if !ok {
		return fmt.Sprintf("field#%d", id)
	}
	return in.ClassString(f.Owner) + "::" + in.MustString(f.Name) + ": " + in.TypeString(f.Type)
}

// StaticFieldString renders a static field as "static Owner::name: T".
func (in *Interner) StaticFieldString(id StaticFieldID) string {
	f, ok := in.statics.Lookup(id)
	if !ok {
		return fmt.Sprintf("static#%d", id)
	}
	return "static " + in.ClassString(f.Owner) + "::" + in.MustString(f.Name) + ": " + in.TypeString(f.Type)
}

// MethodString renders a method as "Class::name fn(...) -> r".
func (in *Interner) MethodString(id MethodID) string {
	m, ok := in.methods.Lookup(id)
	if !ok {
		return fmt.Sprintf("method#%d", id)
	}
	return in.ClassString(m.Class) + "::" + in.MustString(m.Name) + " " + in.SigString(m.Sig)
}
