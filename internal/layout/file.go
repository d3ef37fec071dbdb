package layout

import (
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"

	"ilgraph/internal/types"
)

type enumFile struct {
	Name          string       `toml:"name"`
	Uninhabited   bool         `toml:"uninhabited"`
	Discriminants []uint64     `toml:"discriminants"`
	Fields        shapeFile    `toml:"fields"`
	Variants      variantsFile `toml:"variants"`
}

type shapeFile struct {
	Kind    string   `toml:"kind"`
	Count   int      `toml:"count"`
	Stride  uint64   `toml:"stride"`
	Offsets []uint64 `toml:"offsets"`
}

type variantsFile struct {
	Kind            string        `toml:"kind"`
	Index           uint32        `toml:"index"`
	Tag             string        `toml:"tag"`
	TagField        int           `toml:"tag_field"`
	Encoding        string        `toml:"encoding"`
	UntaggedVariant uint32        `toml:"untagged_variant"`
	NicheVariants   []uint32      `toml:"niche_variants"`
	NicheStart      uint64        `toml:"niche_start"`
	Layouts         []variantFile `toml:"layouts"`
}

type variantFile struct {
	Uninhabited bool      `toml:"uninhabited"`
	Fields      shapeFile `toml:"fields"`
}

// LoadEnumFile reads an enum layout description from a TOML file.
func LoadEnumFile(path string, in *types.Interner) (*Enum, error) {
	var raw enumFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: failed to parse TOML", path)
	}
	en, err := buildEnum(meta, &raw, in)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return en, nil
}

// DecodeEnum parses an enum layout description from TOML text.
func DecodeEnum(data string, in *types.Interner) (*Enum, error) {
	var raw enumFile
	meta, err := toml.Decode(data, &raw)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse TOML")
	}
	return buildEnum(meta, &raw, in)
}

func buildEnum(meta toml.MetaData, raw *enumFile, in *types.Interner) (*Enum, error) {
	if !meta.IsDefined("variants") {
		return nil, errors.New("missing [variants]")
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, errors.Newf("unknown key %q", undecoded[0].String())
	}
	fields, err := buildShape(raw.Fields)
	if err != nil {
		return nil, errors.Wrap(err, "[fields]")
	}
	en := &Enum{
		Name:          strings.TrimSpace(raw.Name),
		Fields:        fields,
		Uninhabited:   raw.Uninhabited,
		Discriminants: raw.Discriminants,
	}
	if en.Name == "" {
		en.Name = "<anonymous>"
	}
	v := raw.Variants
	switch v.Kind {
	case "empty":
		en.Variants.Kind = VariantsEmpty
	case "single":
		en.Variants.Kind = VariantsSingle
		en.Variants.Index = v.Index
	case "multiple":
		en.Variants.Kind = VariantsMultiple
		en.Variants.TagField = v.TagField
		tag, err := parseTag(v.Tag, in)
		if err != nil {
			return nil, err
		}
		en.Variants.Tag = tag
		for i, l := range v.Layouts {
			shape, err := buildShape(l.Fields)
			if err != nil {
				return nil, errors.Wrapf(err, "[[variants.layouts]] #%d", i)
			}
			en.Variants.Layouts = append(en.Variants.Layouts, Variant{Uninhabited: l.Uninhabited, Fields: shape})
		}
		switch v.Encoding {
		case "", "direct":
			en.Variants.Encoding.Kind = EncodingDirect
		case "niche":
			if len(v.NicheVariants) != 2 {
				return nil, errors.New("niche_variants must be [first, last]")
			}
			en.Variants.Encoding = TagEncoding{
				Kind:            EncodingNiche,
				UntaggedVariant: v.UntaggedVariant,
				NicheFirst:      v.NicheVariants[0],
				NicheLast:       v.NicheVariants[1],
				NicheStart:      v.NicheStart,
			}
		default:
			return nil, errors.Newf("unknown encoding %q", v.Encoding)
		}
	default:
		return nil, errors.Newf("unknown variants kind %q", v.Kind)
	}
	return en, nil
}

func buildShape(raw shapeFile) (FieldsShape, error) {
	switch raw.Kind {
	case "", "primitive":
		return FieldsShape{Kind: ShapePrimitive}, nil
	case "union":
		return FieldsShape{Kind: ShapeUnion, Count: raw.Count}, nil
	case "array":
		return FieldsShape{Kind: ShapeArray, Count: raw.Count, Stride: raw.Stride}, nil
	case "arbitrary":
		return FieldsShape{Kind: ShapeArbitrary, Offsets: raw.Offsets}, nil
	default:
		return FieldsShape{}, errors.Newf("unknown shape kind %q", raw.Kind)
	}
}

func parseTag(name string, in *types.Interner) (types.Type, error) {
	if name == "ptr" {
		return in.NPtr(types.Void()), nil
	}
	for _, i := range types.AllInts {
		if i.Name() == name {
			return types.MakeInt(i), nil
		}
	}
	return types.Type{}, errors.Newf("unknown tag type %q", name)
}
