package layout

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"ilgraph/internal/types"
)

func TestFieldOffsets(t *testing.T) {
	arb := FieldsShape{Kind: ShapeArbitrary, Offsets: []uint64{0, 8, 70000, 65535}}
	require.Equal(t, []uint32{0, 8, 0, 65535}, slices.Collect(arb.FieldOffsets()))

	union := FieldsShape{Kind: ShapeUnion, Count: 3}
	require.Equal(t, []uint32{0, 0, 0}, slices.Collect(union.FieldOffsets()))

	arr := FieldsShape{Kind: ShapeArray, Count: 4, Stride: 12}
	require.Equal(t, []uint32{0, 12, 24, 36}, slices.Collect(arr.FieldOffsets()))

	require.Empty(t, slices.Collect(FieldsShape{}.FieldOffsets()))

	off, ok := arr.FieldOffset(2)
	require.True(t, ok)
	require.Equal(t, uint32(24), off)
	_, ok = arr.FieldOffset(4)
	require.False(t, ok)
}

func nicheEnum() *Enum {
	return &Enum{
		Name:   "Niche3",
		Fields: FieldsShape{Kind: ShapeArbitrary, Offsets: []uint64{4}},
		Variants: Variants{
			Kind:     VariantsMultiple,
			Tag:      types.MakeInt(types.U8),
			TagField: 0,
			Encoding: TagEncoding{
				Kind:            EncodingNiche,
				UntaggedVariant: 0,
				NicheFirst:      1,
				NicheLast:       2,
				NicheStart:      5,
			},
			Layouts: []Variant{{}, {}, {}},
		},
	}
}

func TestTagInfo(t *testing.T) {
	e := New(X86_64LinuxGNU(), types.NewInterner())

	tag, off := e.TagInfo(nicheEnum())
	require.Equal(t, types.MakeInt(types.U8), tag)
	require.Equal(t, uint32(4), off)

	single := &Enum{
		Fields:   FieldsShape{Kind: ShapeArbitrary, Offsets: []uint64{16}},
		Variants: Variants{Kind: VariantsSingle},
	}
	tag, off = e.TagInfo(single)
	require.Equal(t, types.Void(), tag)
	require.Equal(t, uint32(16), off)

	tag, off = e.TagInfo(&Enum{})
	require.Equal(t, types.Void(), tag)
	require.Zero(t, off)
}

func TestDiscriminantFor(t *testing.T) {
	e := New(X86_64LinuxGNU(), nil)
	en := nicheEnum()
	d, ok := e.DiscriminantFor(en, 2)
	require.True(t, ok)
	require.Equal(t, uint64(2), d)
	_, ok = e.DiscriminantFor(en, 3)
	require.False(t, ok)

	en.Discriminants = []uint64{10, 20, 30}
	d, ok = e.DiscriminantFor(en, 1)
	require.True(t, ok)
	require.Equal(t, uint64(20), d)
}

func TestCheck(t *testing.T) {
	e := New(X86_64LinuxGNU(), types.NewInterner())
	require.NoError(t, e.Check(nicheEnum()))

	cases := []struct {
		name string
		mut  func(*Enum)
		kind LayoutErrorKind
	}{
		{"float tag", func(en *Enum) { en.Variants.Tag = types.MakeFloat(types.F32) }, LayoutErrBadTag},
		{"missing tag field", func(en *Enum) { en.Variants.TagField = 3 }, LayoutErrTagField},
		{"untagged out of range", func(en *Enum) { en.Variants.Encoding.UntaggedVariant = 7 }, LayoutErrVariantRange},
		{"untagged in niche", func(en *Enum) { en.Variants.Encoding.UntaggedVariant = 1 }, LayoutErrNicheRange},
		{"reversed niche", func(en *Enum) { en.Variants.Encoding.NicheFirst = 2; en.Variants.Encoding.NicheLast = 1 }, LayoutErrNicheRange},
		{"niche overflows tag", func(en *Enum) { en.Variants.Encoding.NicheStart = 255 }, LayoutErrNicheRange},
		{"discriminant count", func(en *Enum) { en.Discriminants = []uint64{1} }, LayoutErrTagField},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			en := nicheEnum()
			tc.mut(en)
			err := e.Check(en)
			var le *LayoutError
			require.True(t, errors.As(err, &le), "got %v", err)
			require.Equal(t, tc.kind, le.Kind)
		})
	}
}

func TestSizeOf(t *testing.T) {
	in := types.NewInterner()
	e := New(X86_64LinuxGNU(), in)
	size, err := e.SizeOf(types.MakeInt(types.USize))
	require.NoError(t, err)
	require.Equal(t, 8, size)
	size, err = e.SizeOf(types.MakeInt(types.U128))
	require.NoError(t, err)
	require.Equal(t, 16, size)
	align, err := e.AlignOf(in.NPtr(types.Void()))
	require.NoError(t, err)
	require.Equal(t, 8, align)

	ref := types.MakeClassRef(in.NewClass("Boxed", "", false))
	size, err = e.SizeOf(ref)
	require.NoError(t, err)
	require.Equal(t, 8, size)

	_, err = e.SizeOf(types.MakeClassRef(in.NewClass("Pair", "", true)))
	require.Error(t, err)

	tgt, err := TargetByTriple("i686-linux-gnu", 0)
	require.NoError(t, err)
	size, err = New(tgt, in).SizeOf(types.MakeInt(types.ISize))
	require.NoError(t, err)
	require.Equal(t, 4, size)

	tgt, err = TargetByTriple("i686-unknown-linux-gnu", 0)
	require.NoError(t, err)
	require.Equal(t, "i686-linux-gnu", tgt.Triple)
	require.Equal(t, 4, tgt.PtrSize)

	_, err = TargetByTriple("x86_64-linux-gnu", 3)
	require.Error(t, err)
	_, err = TargetByTriple("sparc", 0)
	require.Error(t, err)
}

const nicheTOML = `
name = "Option<NonZero>"

[fields]
kind = "arbitrary"
offsets = [0]

[variants]
kind = "multiple"
tag = "u32"
tag_field = 0
encoding = "niche"
untagged_variant = 1
niche_variants = [0, 0]
niche_start = 0

[[variants.layouts]]
[[variants.layouts]]
`

func TestDecodeEnum(t *testing.T) {
	in := types.NewInterner()
	en, err := DecodeEnum(nicheTOML, in)
	require.NoError(t, err)
	require.Equal(t, "Option<NonZero>", en.Name)
	require.Equal(t, VariantsMultiple, en.Variants.Kind)
	require.Equal(t, types.MakeInt(types.U32), en.Variants.Tag)
	require.Equal(t, EncodingNiche, en.Variants.Encoding.Kind)
	require.Equal(t, uint32(1), en.Variants.Encoding.UntaggedVariant)
	require.Len(t, en.Variants.Layouts, 2)
	require.NoError(t, New(X86_64LinuxGNU(), in).Check(en))

	ptr, err := DecodeEnum("[variants]\nkind = \"multiple\"\ntag = \"ptr\"\n", in)
	require.NoError(t, err)
	require.Equal(t, types.KindPtr, ptr.Variants.Tag.Kind)

	_, err = DecodeEnum("name = \"x\"\n", in)
	require.ErrorContains(t, err, "missing [variants]")
	_, err = DecodeEnum("[variants]\nkind = \"multiple\"\ntag = \"f32\"\n", in)
	require.ErrorContains(t, err, "unknown tag type")
	_, err = DecodeEnum("[variants]\nkind = \"single\"\nbogus = 1\n", in)
	require.ErrorContains(t, err, "unknown key")
}

func TestLoadEnumFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enum.toml")
	require.NoError(t, os.WriteFile(path, []byte(nicheTOML), 0o600))
	en, err := LoadEnumFile(path, types.NewInterner())
	require.NoError(t, err)
	require.Equal(t, "Option<NonZero>", en.Name)

	_, err = LoadEnumFile(filepath.Join(t.TempDir(), "missing.toml"), types.NewInterner())
	require.Error(t, err)
}
