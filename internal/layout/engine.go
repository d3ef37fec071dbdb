package layout

import (
	"fmt"

	"ilgraph/internal/types"
)

// Engine answers layout queries for a specific Target. It serves as the
// layout oracle of discriminant codegen.
type Engine struct {
	Target Target
	Types  *types.Interner

	cache *cache
}

// New creates a new Engine for the specified target.
func New(target Target, typesIn *types.Interner) *Engine {
	return &Engine{
		Target: target,
		Types:  typesIn,
		cache:  newCache(),
	}
}

// TagInfo returns the tag type of en and the offset of its tag field.
// Layouts without a tag report a void tag: single-variant layouts at the
// offset of their first field, empty layouts at 0.
func (e *Engine) TagInfo(en *Enum) (types.Type, uint32) {
	if cached, ok := e.cache.get(en); ok {
		return cached.Tag, cached.Offset
	}
	var info tagInfo
	switch en.Variants.Kind {
	case VariantsSingle:
		info.Tag = types.Void()
		info.Offset, _ = en.Fields.FieldOffset(0)
	case VariantsMultiple:
		info.Tag = en.Variants.Tag
		info.Offset, _ = en.Fields.FieldOffset(en.Variants.TagField)
	default:
		info.Tag = types.Void()
	}
	e.cache.put(en, &info)
	return info.Tag, info.Offset
}

// DiscriminantFor returns the declared discriminant of variant v.
func (e *Engine) DiscriminantFor(en *Enum, v uint32) (uint64, bool) {
	if int(v) >= en.VariantCount() {
		return 0, false
	}
	if en.Discriminants == nil {
		return uint64(v), true
	}
	if int(v) >= len(en.Discriminants) {
		return 0, false
	}
	return en.Discriminants[v], true
}

// FieldOffset returns the offset of field i of en, or 0 when it has none.
func (e *Engine) FieldOffset(en *Enum, i int) uint32 {
	off, _ := en.Fields.FieldOffset(i)
	return off
}

// Check reports the first inconsistency in en.
func (e *Engine) Check(en *Enum) error {
	if en.Variants.Kind != VariantsMultiple {
		return nil
	}
	v := en.Variants
	if !v.Tag.IsInt() && v.Tag.Kind != types.KindPtr {
		return &LayoutError{Kind: LayoutErrBadTag, Enum: en.Name, Type: v.Tag}
	}
	if _, ok := en.Fields.FieldOffset(v.TagField); !ok {
		return &LayoutError{Kind: LayoutErrTagField, Enum: en.Name, Detail: fmt.Sprintf("tag field %d does not exist", v.TagField)}
	}
	if en.Discriminants != nil && len(en.Discriminants) != len(v.Layouts) {
		return &LayoutError{Kind: LayoutErrTagField, Enum: en.Name, Detail: fmt.Sprintf("%d discriminants for %d variants", len(en.Discriminants), len(v.Layouts))}
	}
	if v.Encoding.Kind != EncodingNiche {
		return nil
	}
	enc := v.Encoding
	n := uint32(len(v.Layouts)) //nolint:gosec // variant counts are small
	switch {
	case enc.UntaggedVariant >= n:
		return &LayoutError{Kind: LayoutErrVariantRange, Enum: en.Name, Variant: enc.UntaggedVariant}
	case enc.NicheFirst > enc.NicheLast:
		return &LayoutError{Kind: LayoutErrNicheRange, Enum: en.Name, Detail: fmt.Sprintf("empty range %d..=%d", enc.NicheFirst, enc.NicheLast)}
	case enc.NicheLast >= n:
		return &LayoutError{Kind: LayoutErrVariantRange, Enum: en.Name, Variant: enc.NicheLast}
	case enc.UntaggedVariant >= enc.NicheFirst && enc.UntaggedVariant <= enc.NicheLast:
		return &LayoutError{Kind: LayoutErrNicheRange, Enum: en.Name, Detail: "untagged variant inside the niche range"}
	}
	if bits := e.tagBits(v.Tag); bits < 64 {
		last := enc.NicheStart + uint64(enc.RelativeMax())
		if last >= 1<<bits {
			return &LayoutError{Kind: LayoutErrNicheRange, Enum: en.Name, Detail: fmt.Sprintf("niche value %d does not fit in %d bits", last, bits)}
		}
	}
	return nil
}

func (e *Engine) tagBits(t types.Type) int {
	if t.Kind == types.KindPtr {
		return e.Target.PtrBits()
	}
	return t.Int.Bits(e.Target.PtrBits())
}

// SizeOf returns the size of a scalar or reference type in bytes.
func (e *Engine) SizeOf(t types.Type) (int, error) {
	size, _, err := e.scalar(t)
	return size, err
}

// AlignOf returns the alignment requirement of a scalar or reference type.
func (e *Engine) AlignOf(t types.Type) (int, error) {
	_, align, err := e.scalar(t)
	return align, err
}

func (e *Engine) scalar(t types.Type) (size, align int, err error) {
	ptr := e.Target.PtrSize
	switch t.Kind {
	case types.KindVoid:
		return 0, 1, nil
	case types.KindBool:
		return 1, 1, nil
	case types.KindChar:
		return 2, 2, nil
	case types.KindInt:
		size = t.Int.Bits(ptr*8) / 8
		return size, min(size, 16), nil
	case types.KindFloat:
		switch t.Float {
		case types.F16:
			return 2, 2, nil
		case types.F32:
			return 4, 4, nil
		case types.F64:
			return 8, 8, nil
		case types.F128:
			return 16, 16, nil
		}
	case types.KindPtr, types.KindRef, types.KindFnPtr,
		types.KindPlatformString, types.KindPlatformObject, types.KindPlatformArray:
		return ptr, e.Target.PtrAlign, nil
	case types.KindClassRef:
		if e.Types == nil {
			break
		}
		if cls, ok := e.Types.LookupClass(t.Class); ok && !cls.IsValueType {
			return ptr, e.Target.PtrAlign, nil
		}
	}
	return 0, 1, &LayoutError{Kind: LayoutErrUnsized, Type: t}
}
