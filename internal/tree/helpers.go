package tree

import (
	"github.com/cockroachdb/errors"

	"ilgraph/internal/ir"
	"ilgraph/internal/types"
)

// Runtime support routines hosted by the main module class. Their names and
// signatures are fixed: emitted calls must resolve against the support
// library.
const (
	OvfCheckTupleName = "ovf_check_tuple"
	CreateSliceName   = "create_slice"
	SelectPrefix      = "select_"
	UninitValName     = "uninit_val"
	TransmuteName     = "transmute"
)

func mainMethod(m *ir.Module, name string, inputs []types.Type, output types.Type) types.MethodID {
	in := m.Types
	return in.NewMethod(in.MainModule(), name, in.Sig(inputs, output), types.MethodStatic)
}

// OvfCheckTuple builds MainModule::ovf_check_tuple(tpe, bool) -> tuple,
// pairing val with its out-of-range flag.
func OvfCheckTuple(m *ir.Module, tuple types.ClassID, outOfRange, val *Node, tpe types.Type) *Node {
	site := mainMethod(m, OvfCheckTupleName, []types.Type{tpe, types.Bool()}, types.MakeClassRef(tuple))
	return CallPure(site, val, outOfRange)
}

// CreateSlice builds MainModule::create_slice(void*, usize) -> slice from a
// data pointer and its metadata.
func CreateSlice(m *ir.Module, slice types.ClassID, metadata, ptr *Node) *Node {
	voidPtr := m.Types.NPtr(types.Void())
	site := mainMethod(m, CreateSliceName, []types.Type{voidPtr, types.MakeInt(types.USize)}, types.MakeClassRef(slice))
	return CallPure(site, ptr, metadata)
}

// ManagedRefToHandle allocates a GC handle for ref and converts it to an
// isize handle id.
func ManagedRefToHandle(m *ir.Module, ref *Node) *Node {
	in := m.Types
	gc := in.GCHandle()
	gcType := types.MakeClassRef(gc)
	alloc := in.NewMethod(gc, "Alloc", in.Sig([]types.Type{types.PlatformObject()}, gcType), types.MethodStatic)
	explicit := in.NewMethod(gc, "op_Explicit", in.Sig([]types.Type{gcType}, types.MakeInt(types.ISize)), types.MethodInstance)
	return Call(explicit, Call(alloc, ref))
}

// Select builds a branch-free pred ? a : b for values of type tpe. Integers
// call MainModule::select_<int>; raw and function pointers go through
// select_usize.
func Select(m *ir.Module, tpe types.Type, a, b, pred *Node) (*Node, error) {
	switch tpe.Kind {
	case types.KindInt:
		return CallPure(selectMethod(m, tpe.Int), a, b, pred), nil
	case types.KindPtr, types.KindFnPtr:
		usize := types.MakeInt(types.USize)
		call := CallPure(selectMethod(m, types.USize), CastPtr(a, usize), CastPtr(b, usize), pred)
		return CastPtr(call, tpe), nil
	default:
		return nil, errors.UnimplementedErrorf(errors.IssueLink{}, "select over %s values", m.Types.Format(tpe))
	}
}

func selectMethod(m *ir.Module, i types.Int) types.MethodID {
	t := types.MakeInt(i)
	return mainMethod(m, SelectPrefix+i.Name(), []types.Type{t, t, types.Bool()}, t)
}

// UninitVal produces an unspecified value of tpe. Void loads the module's
// single void value.
func UninitVal(m *ir.Module, tpe types.Type) *Node {
	if tpe.Kind == types.KindVoid {
		return LdStaticField(m.GlobalVoid())
	}
	return CallPure(mainMethod(m, UninitValName, nil, tpe))
}

// TransmuteOnStack reinterprets val of type src as target.
func TransmuteOnStack(m *ir.Module, val *Node, src, target types.Type) *Node {
	if src == target {
		return val
	}
	return Call(mainMethod(m, TransmuteName, []types.Type{src}, target), val)
}

// StackAddr spills val of type tpe into a fresh static and returns the store
// together with the static's address. The store must run before the address
// is used.
func StackAddr(m *ir.Module, val *Node, tpe types.Type) (*Root, *Node) {
	f := m.AnonStatic(tpe)
	return SetStaticField(f, val), LdStaticFieldAddress(f)
}

// CmpXchgResult stores the outcome of a compare-exchange into the result
// struct at dest: the old value, then whether it matched expected.
func CmpXchgResult(oldVal, expected, dest *Node, valField, flagField types.FieldID) [2]*Root {
	setVal := SetField(dest, oldVal, valField)
	loaded := LdField(dest, valField)
	return [2]*Root{setVal, SetField(dest, Eq(loaded, expected), flagField)}
}

// IntToInt converts val from the integer type src to target. A void target
// leaves the value untouched. Pointer targets are reached through usize.
// 128-bit conversions call the conversion operators of System.UInt128 and
// System.Int128.
func IntToInt(m *ir.Module, src, target types.Type, val *Node) *Node {
	if src == target || target.Kind == types.KindVoid {
		return val
	}
	if target.Kind == types.KindPtr && src.IsInt() {
		return CastPtr(IntToInt(m, src, types.MakeInt(types.USize), val), target)
	}
	if !src.IsInt() || !target.IsInt() {
		panic(errors.AssertionFailedf("tree: IntToInt from %s to %s", m.Types.Format(src), m.Types.Format(target)))
	}
	if src.Int.Is128() || target.Int.Is128() {
		return wideConvert(m, src, target, val)
	}
	signed := src.Int.Signed()
	switch target.Int {
	case types.U8:
		return ConvU8(val)
	case types.U16:
		return ConvU16(val)
	case types.U32:
		return ConvU32(val)
	case types.I8:
		return ConvI8(val)
	case types.I16:
		return ConvI16(val)
	case types.I32:
		return ConvI32(val)
	case types.U64:
		if signed {
			return SignExtendToU64(val)
		}
		return ZeroExtendToU64(val)
	case types.I64:
		if signed {
			return SignExtendToI64(val)
		}
		return ZeroExtendToU64(val)
	case types.USize:
		if signed {
			return SignExtendToUSize(val)
		}
		return ZeroExtendToUSize(val)
	case types.ISize:
		if signed {
			return SignExtendToISize(val)
		}
		return ZeroExtendToISize(val)
	default:
		panic(errors.AssertionFailedf("tree: IntToInt to unknown integer %d", target.Int))
	}
}

// WideClass returns the runtime class backing a 128-bit integer.
func WideClass(m *ir.Module, i types.Int) types.ClassID {
	if i.Signed() {
		return m.Types.Int128()
	}
	return m.Types.UInt128()
}

func wideConvert(m *ir.Module, src, target types.Type, val *Node) *Node {
	in := m.Types
	sig := in.Sig([]types.Type{src}, target)
	var site types.MethodID
	switch {
	case target.Int.Is128() && !src.Int.Is128():
		// Widening into UInt128 is implicit only from unsigned sources.
		name := "op_Implicit"
		if !target.Int.Signed() && src.Int.Signed() {
			name = "op_Explicit"
		}
		site = in.NewMethod(WideClass(m, target.Int), name, sig, types.MethodStatic)
	default:
		site = in.NewMethod(WideClass(m, src.Int), "op_Explicit", sig, types.MethodStatic)
	}
	return CallPure(site, val)
}

// WideBinary calls the operator overload of the 128-bit class for op.
// Comparisons return bool; everything else returns t.
func WideBinary(m *ir.Module, op ir.BinOp, t types.Type, a, b *Node) *Node {
	in := m.Types
	out := t
	if op.IsComparison() {
		out = types.Bool()
	}
	site := in.NewMethod(WideClass(m, t.Int), op.OperatorMethod(), in.Sig([]types.Type{t, t}, out), types.MethodStatic)
	return CallPure(site, a, b)
}

// WideEq compares two 128-bit integers through MainModule::eq_u128 or eq_i128.
func WideEq(m *ir.Module, t types.Type, a, b *Node) *Node {
	return CallPure(mainMethod(m, "eq_"+t.Int.Name(), []types.Type{t, t}, types.Bool()), a, b)
}
