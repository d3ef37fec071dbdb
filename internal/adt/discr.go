// Package adt emits the code that reads and writes enum discriminants for a
// given layout. Layout facts come from an Oracle; the emitted code is tree
// IR ready for lowering.
package adt

import (
	"github.com/cockroachdb/errors"

	"ilgraph/internal/ir"
	"ilgraph/internal/layout"
	"ilgraph/internal/tree"
	"ilgraph/internal/types"
)

// TagFieldName is the name of the field holding an enum's tag.
const TagFieldName = "_tag"

// UninhabitedVariantMessage is thrown when code writes the discriminant of a
// variant that cannot exist.
const UninhabitedVariantMessage = "UB: SetDiscriminant used, but the specified enum variant is not inhabited."

// Oracle answers the layout questions discriminant codegen asks.
// *layout.Engine implements it.
type Oracle interface {
	TagInfo(en *layout.Enum) (types.Type, uint32)
	DiscriminantFor(en *layout.Enum, v uint32) (uint64, bool)
	FieldOffset(en *layout.Enum, i int) uint32
}

var _ Oracle = (*layout.Engine)(nil)

// TagField interns the tag field of enumClass.
func TagField(m *ir.Module, enumClass types.ClassID, tag types.Type) types.FieldID {
	return m.Types.NewField(enumClass, TagFieldName, tag)
}

// SetDiscr returns the statement that marks the enum at addr as holding
// variant. Layouts that need no store yield a Nop root.
func SetDiscr(m *ir.Module, oracle Oracle, en *layout.Enum, variant uint32, addr *tree.Node, enumClass types.ClassID) (*tree.Root, error) {
	if v, ok := en.VariantAt(variant); ok && v.Uninhabited {
		return tree.Throw(UninhabitedVariantMessage), nil
	}
	switch en.Variants.Kind {
	case layout.VariantsEmpty:
		return tree.Nop(), nil
	case layout.VariantsSingle:
		if en.Variants.Index != variant {
			return nil, errors.AssertionFailedf("adt: %s: set variant %d of single-variant layout %d", en.Name, variant, en.Variants.Index)
		}
		return tree.Nop(), nil
	}

	tag, _ := oracle.TagInfo(en)
	field := TagField(m, enumClass, tag)
	enc := en.Variants.Encoding
	switch enc.Kind {
	case layout.EncodingDirect:
		d, ok := oracle.DiscriminantFor(en, variant)
		if !ok {
			return nil, errors.AssertionFailedf("adt: %s: no discriminant for variant %d", en.Name, variant)
		}
		return tree.SetField(addr, tagConst(m, tag, d), field), nil
	case layout.EncodingNiche:
		if variant == enc.UntaggedVariant {
			return tree.Nop(), nil
		}
		if variant < enc.NicheFirst || variant > enc.NicheLast {
			return nil, errors.AssertionFailedf("adt: %s: variant %d outside niche %d..=%d", en.Name, variant, enc.NicheFirst, enc.NicheLast)
		}
		value := enc.NicheStart + uint64(variant-enc.NicheFirst)
		return tree.SetField(addr, tagConst(m, tag, value), field), nil
	default:
		return nil, errors.AssertionFailedf("adt: %s: unknown tag encoding %d", en.Name, enc.Kind)
	}
}

// GetDiscr returns an expression reading the discriminant of the enum at
// addr. Niche-encoded layouts decode to the variant index.
func GetDiscr(m *ir.Module, oracle Oracle, en *layout.Enum, addr *tree.Node, enumClass types.ClassID) (*tree.Node, error) {
	if en.Uninhabited {
		return nil, errors.AssertionFailedf("adt: %s: discriminant of an uninhabited layout", en.Name)
	}
	tag, _ := oracle.TagInfo(en)
	u64 := types.MakeInt(types.U64)
	switch en.Variants.Kind {
	case layout.VariantsEmpty:
		return tree.IntToInt(m, u64, tag, tree.ConstU64(0)), nil
	case layout.VariantsSingle:
		idx := en.Variants.Index
		d, ok := oracle.DiscriminantFor(en, idx)
		if !ok {
			d = uint64(idx)
		}
		return tree.IntToInt(m, u64, tag, tree.ConstU64(d)), nil
	}

	if tag.Kind == types.KindVoid {
		return nil, errors.UnimplementedErrorf(errors.IssueLink{}, "adt: %s: tagged layout with a void tag", en.Name)
	}
	load := tree.LdField(addr, TagField(m, enumClass, tag))
	enc := en.Variants.Encoding
	if enc.Kind == layout.EncodingDirect {
		return load, nil
	}

	wide := tag.IsInt() && tag.Int.Is128()
	start := tagConst(m, tag, enc.NicheStart)
	relMax := enc.RelativeMax()

	var isNiche, tagged *tree.Node
	if relMax == 0 {
		if wide {
			isNiche = tree.WideEq(m, tag, load, start)
		} else {
			isNiche = tree.Eq(load, start)
		}
		tagged = tagConst(m, tag, uint64(enc.NicheFirst))
	} else {
		first := tagConst(m, tag, uint64(enc.NicheFirst))
		var relative, gt *tree.Node
		if wide {
			relative = tree.WideBinary(m, ir.BinSub, tag, load, start)
			// Out-of-range tags wrap to large unsigned values, so the
			// range check is unsigned even for Int128 tags.
			u128 := types.MakeInt(types.U128)
			rel := tree.IntToInt(m, tag, u128, relative)
			gt = tree.WideBinary(m, ir.BinGtUn, u128, rel, tree.ConstU128(m, uint64(relMax), 0))
			tagged = tree.WideBinary(m, ir.BinAdd, tag, relative, first)
		} else {
			relative = tree.Sub(load, start)
			gt = tree.GtUn(relative, tagConst(m, tag, uint64(relMax)))
			tagged = tree.Add(relative, first)
		}
		isNiche = tree.Eq(gt, tree.ConstBool(false))
	}
	untagged := tagConst(m, tag, uint64(enc.UntaggedVariant))
	return tree.Select(m, tag, tagged, untagged, isNiche)
}

// tagConst builds the constant v in the tag's type.
func tagConst(m *ir.Module, tag types.Type, v uint64) *tree.Node {
	if tag.IsInt() {
		switch tag.Int {
		case types.U128:
			return tree.ConstU128(m, v, 0)
		case types.I128:
			return tree.ConstI128(m, v, 0)
		}
	}
	return tree.IntToInt(m, types.MakeInt(types.U64), tag, tree.ConstU64(v))
}
