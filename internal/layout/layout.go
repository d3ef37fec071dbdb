package layout

import (
	"iter"
	"math"

	"fortio.org/safecast"
	"github.com/cockroachdb/errors"

	"ilgraph/internal/types"
)

// ShapeKind enumerates how the fields of a layout are placed.
type ShapeKind uint8

const (
	// ShapePrimitive has no fields.
	ShapePrimitive ShapeKind = iota
	// ShapeUnion places Count fields at offset 0.
	ShapeUnion
	// ShapeArray places Count fields Stride bytes apart.
	ShapeArray
	// ShapeArbitrary places fields at explicit Offsets.
	ShapeArbitrary
)

func (k ShapeKind) String() string {
	switch k {
	case ShapePrimitive:
		return "primitive"
	case ShapeUnion:
		return "union"
	case ShapeArray:
		return "array"
	case ShapeArbitrary:
		return "arbitrary"
	default:
		return "unknown"
	}
}

// FieldsShape describes field placement.
type FieldsShape struct {
	Kind    ShapeKind
	Count   int
	Stride  uint64
	Offsets []uint64
}

// maxFieldOffset caps explicit offsets; larger values are sentinels of the
// layout source and read as 0.
const maxFieldOffset = math.MaxUint16

// FieldOffsets yields the byte offset of each field in declaration order.
func (s FieldsShape) FieldOffsets() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		switch s.Kind {
		case ShapeArbitrary:
			for _, off := range s.Offsets {
				v := uint32(0)
				if off <= maxFieldOffset {
					v = uint32(off) //nolint:gosec // bounded above
				}
				if !yield(v) {
					return
				}
			}
		case ShapeUnion:
			for range s.Count {
				if !yield(0) {
					return
				}
			}
		case ShapeArray:
			stride, err := safecast.Conv[uint32](s.Stride)
			if err != nil {
				panic(errors.Wrapf(err, "layout: array stride %d too large", s.Stride))
			}
			var cur uint32
			for range s.Count {
				if !yield(cur) {
					return
				}
				cur += stride
			}
		}
	}
}

// FieldOffset returns the offset of field i, if the shape has one.
func (s FieldsShape) FieldOffset(i int) (uint32, bool) {
	n := 0
	for off := range s.FieldOffsets() {
		if n == i {
			return off, true
		}
		n++
	}
	return 0, false
}

// VariantsKind enumerates how many variants a layout distinguishes.
type VariantsKind uint8

const (
	// VariantsEmpty has no variants at all.
	VariantsEmpty VariantsKind = iota
	// VariantsSingle has one inhabited variant and no tag.
	VariantsSingle
	// VariantsMultiple stores a tag.
	VariantsMultiple
)

func (k VariantsKind) String() string {
	switch k {
	case VariantsEmpty:
		return "empty"
	case VariantsSingle:
		return "single"
	case VariantsMultiple:
		return "multiple"
	default:
		return "unknown"
	}
}

// EncodingKind enumerates tag encodings.
type EncodingKind uint8

const (
	// EncodingDirect stores the discriminant in the tag verbatim.
	EncodingDirect EncodingKind = iota
	// EncodingNiche reuses invalid values of a field of the untagged variant.
	EncodingNiche
)

func (k EncodingKind) String() string {
	if k == EncodingNiche {
		return "niche"
	}
	return "direct"
}

// TagEncoding describes how variants map to tag values. For EncodingNiche,
// variants NicheFirst..=NicheLast are stored as NicheStart + (v - NicheFirst)
// and every other tag value means UntaggedVariant.
type TagEncoding struct {
	Kind            EncodingKind
	UntaggedVariant uint32
	NicheFirst      uint32
	NicheLast       uint32
	NicheStart      uint64
}

// RelativeMax is the largest tag offset from NicheStart that is a niche.
func (t TagEncoding) RelativeMax() uint32 { return t.NicheLast - t.NicheFirst }

// Variant is the layout of one variant.
type Variant struct {
	Uninhabited bool
	Fields      FieldsShape
}

// Variants describes the variant structure of a layout.
type Variants struct {
	Kind     VariantsKind
	Index    uint32     // VariantsSingle
	Tag      types.Type // VariantsMultiple: integer or pointer scalar
	TagField int        // VariantsMultiple
	Encoding TagEncoding
	Layouts  []Variant // VariantsMultiple
}

// Enum is the layout of a tagged union as the layout source reports it.
type Enum struct {
	Name        string
	Fields      FieldsShape
	Variants    Variants
	Uninhabited bool
	// Discriminants holds the declared discriminant of each variant. A nil
	// slice means discriminants equal variant indices.
	Discriminants []uint64
}

// VariantAt returns the layout of variant v. Single-variant layouts are
// their own variant.
func (en *Enum) VariantAt(v uint32) (Variant, bool) {
	switch en.Variants.Kind {
	case VariantsSingle:
		return Variant{Uninhabited: en.Uninhabited, Fields: en.Fields}, true
	case VariantsMultiple:
		if int(v) >= len(en.Variants.Layouts) {
			return Variant{}, false
		}
		return en.Variants.Layouts[v], true
	default:
		return Variant{}, false
	}
}

// VariantCount returns the number of variants the layout describes.
func (en *Enum) VariantCount() int {
	switch en.Variants.Kind {
	case VariantsSingle:
		return int(en.Variants.Index) + 1
	case VariantsMultiple:
		return len(en.Variants.Layouts)
	default:
		return 0
	}
}
