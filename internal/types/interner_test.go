package types

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestInternerBuiltinsAreStable(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()

	require.Equal(t, b.Void, in.Intern(Void()))
	require.Equal(t, b.USize, in.Intern(MakeInt(USize)))
	require.NotEqual(t, b.USize, b.ISize)
	require.Equal(t, NoTypeID, in.Intern(Type{}))
}

func TestInternerDeduplicatesNestedTypes(t *testing.T) {
	in := NewInterner()
	p1 := in.Intern(in.NPtr(MakeInt(U8)))
	p2 := in.Intern(in.NPtr(MakeInt(U8)))
	p3 := in.Intern(in.NPtr(MakeInt(I8)))

	require.Equal(t, p1, p2)
	require.NotEqual(t, p1, p3)
	require.Equal(t, "*u8", in.TypeString(p1))
}

func TestSignatureInterning(t *testing.T) {
	in := NewInterner()
	a := in.Sig([]Type{MakeInt(U8), MakeInt(U8), Bool()}, MakeInt(U8))
	b := in.Sig([]Type{MakeInt(U8), MakeInt(U8), Bool()}, MakeInt(U8))
	c := in.Sig([]Type{Bool(), MakeInt(U8), MakeInt(U8)}, MakeInt(U8))

	require.Equal(t, a, b)
	require.NotEqual(t, a, c, "input order is significant")
	require.Equal(t, "fn(u8, u8, bool) -> u8", in.SigString(a))
	require.Len(t, in.SigInputs(a), 3)
}

func TestWellKnownClasses(t *testing.T) {
	in := NewInterner()
	main := in.MainModule()
	require.Equal(t, main, in.MainModule())
	require.Equal(t, "MainModule", in.ClassString(main))

	gc := in.GCHandle()
	ref := in.MustClass(gc)
	require.True(t, ref.IsValueType)
	require.Equal(t, "[System.Runtime]System.Runtime.InteropServices.GCHandle", in.ClassString(gc))
}

func TestMethodAndFieldStrings(t *testing.T) {
	in := NewInterner()
	main := in.MainModule()
	sig := in.Sig(nil, MakeInt(U64))
	m := in.NewMethod(main, "uninit_val", sig, MethodStatic)
	require.Equal(t, "MainModule::uninit_val fn() -> u64", in.MethodString(m))

	f := in.NewField(main, "_tag", MakeInt(U8))
	require.Equal(t, "MainModule::_tag: u8", in.FieldString(f))
	require.Equal(t, f, in.NewField(main, "_tag", MakeInt(U8)))
}

func TestMustLookupForeignHandlePanics(t *testing.T) {
	in := NewInterner()
	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		require.True(t, errors.HasAssertionFailure(err))
	}()
	in.MustLookup(TypeID(9999))
}

func TestPointerLike(t *testing.T) {
	in := NewInterner()
	cases := []struct {
		t    Type
		want bool
	}{
		{in.NPtr(MakeInt(U8)), true},
		{in.NRef(Bool()), true},
		{MakeFnPtr(in.Sig(nil, Void())), true},
		{MakeInt(USize), true},
		{MakeInt(ISize), true},
		{MakeInt(U64), false},
		{Bool(), false},
		{PlatformObject(), false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, tc.t.IsPointerLike(), in.Format(tc.t))
	}
}
