// Package interp is a reference evaluator for graph IR. It executes nodes
// and roots against an in-memory environment and is what tests use to check
// that emitted code computes what it should.
package interp

import (
	"github.com/cockroachdb/errors"

	"ilgraph/internal/ir"
	"ilgraph/internal/types"
)

// Address ranges handed out for locals, arguments and statics. Anything
// else is looked up in Mem.
const (
	localBase  uint64 = 0x1_0000
	argBase    uint64 = 0x2_0000
	staticBase uint64 = 0x3_0000
	slotSize   uint64 = 0x10
	rangeSize  uint64 = 0x1_0000
)

// FieldKey addresses an instance field of the object at Addr.
type FieldKey struct {
	Addr  uint64
	Field types.FieldID
}

// Machine holds the state evaluated code reads and writes. Values are
// constants: integers in their bit pattern, pointers as usize.
type Machine struct {
	Module  *ir.Module
	Locals  []ir.Const
	Args    []ir.Const
	Fields  map[FieldKey]ir.Const
	Statics map[types.StaticFieldID]ir.Const
	Mem     map[uint64]ir.Const

	// Steps counts evaluated nodes.
	Steps int
}

// New creates a Machine over m with empty memory.
func New(m *ir.Module) *Machine {
	return &Machine{
		Module:  m,
		Fields:  make(map[FieldKey]ir.Const),
		Statics: make(map[types.StaticFieldID]ir.Const),
		Mem:     make(map[uint64]ir.Const),
	}
}

// Ptr builds a pointer value.
func Ptr(addr uint64) ir.Const { return ir.UintConst(types.USize, addr) }

// SetField stores v into field of the object at addr.
func (vm *Machine) SetField(addr uint64, field types.FieldID, v ir.Const) {
	vm.Fields[FieldKey{Addr: addr, Field: field}] = v
}

// Field returns the stored value of field of the object at addr.
func (vm *Machine) Field(addr uint64, field types.FieldID) (ir.Const, bool) {
	v, ok := vm.Fields[FieldKey{Addr: addr, Field: field}]
	return v, ok
}

// Eval evaluates the node id.
func (vm *Machine) Eval(id ir.NodeID) (ir.Const, error) {
	n, ok := vm.Module.LookupNode(id)
	if !ok {
		return ir.Const{}, errors.AssertionFailedf("interp: node %%%d is not in the module", id)
	}
	return vm.EvalNode(n)
}

// EvalNode evaluates an uninterned node whose children are interned.
func (vm *Machine) EvalNode(n ir.Node) (ir.Const, error) {
	vm.Steps++
	switch n.Kind {
	case ir.KindConst:
		return n.Const, nil

	case ir.KindBinOp:
		a, err := vm.Eval(n.BinOp.LHS)
		if err != nil {
			return ir.Const{}, err
		}
		b, err := vm.Eval(n.BinOp.RHS)
		if err != nil {
			return ir.Const{}, err
		}
		return Binary(n.BinOp.Op, a, b)

	case ir.KindUnOp:
		v, err := vm.Eval(n.UnOp.Value)
		if err != nil {
			return ir.Const{}, err
		}
		return Unary(n.UnOp.Op, v)

	case ir.KindIntCast:
		v, err := vm.Eval(n.IntCast.Value)
		if err != nil {
			return ir.Const{}, err
		}
		return IntCast(v, n.IntCast.Target, n.IntCast.Extend)

	case ir.KindFloatCast:
		v, err := vm.Eval(n.FloatCast.Value)
		if err != nil {
			return ir.Const{}, err
		}
		return FloatCast(v, n.FloatCast.Target, n.FloatCast.Signed)

	case ir.KindLdLoc:
		return slot(vm.Locals, n.Local.Index, "local")
	case ir.KindLdArg:
		return slot(vm.Args, n.Local.Index, "argument")
	case ir.KindLdLocA:
		return Ptr(localBase + uint64(n.Local.Index)*slotSize), nil
	case ir.KindLdArgA:
		return Ptr(argBase + uint64(n.Local.Index)*slotSize), nil
	case ir.KindLdStaticFieldAddress:
		return Ptr(staticBase + uint64(n.Static.Field)*slotSize), nil

	case ir.KindLdStaticField:
		v, ok := vm.Statics[n.Static.Field]
		if !ok {
			return ir.Const{}, faultf(FaultUnmapped, "static field#%d was never stored", n.Static.Field)
		}
		return v, nil

	case ir.KindLdField:
		addr, err := vm.address(n.Field.Addr)
		if err != nil {
			return ir.Const{}, err
		}
		v, ok := vm.Field(addr, n.Field.Field)
		if !ok {
			return ir.Const{}, faultf(FaultUnmapped, "field %s of object %#x was never stored", vm.Module.Types.FieldString(n.Field.Field), addr)
		}
		return v, nil

	case ir.KindLdInd:
		addr, err := vm.address(n.LdInd.Addr)
		if err != nil {
			return ir.Const{}, err
		}
		return vm.load(addr)

	case ir.KindRefToPtr:
		return vm.Eval(n.Operand.Value)

	case ir.KindPtrCast:
		v, err := vm.Eval(n.PtrCast.Value)
		if err != nil {
			return ir.Const{}, err
		}
		if v.Kind != ir.ConstInt {
			return ir.Const{}, faultf(FaultBadOperand, "pointer cast of %s", v)
		}
		switch n.PtrCast.Res.Kind {
		case ir.CastToISize:
			return ir.UintConst(types.ISize, v.Lo), nil
		default:
			return Ptr(v.Lo), nil
		}

	case ir.KindCall:
		args := vm.Module.Args(n.Call.Args)
		vals := make([]ir.Const, 0, len(args))
		for _, a := range args {
			v, err := vm.Eval(a)
			if err != nil {
				return ir.Const{}, err
			}
			vals = append(vals, v)
		}
		return vm.call(n.Call.Method, vals)
	}
	return ir.Const{}, errors.UnimplementedErrorf(errors.IssueLink{}, "interp: %s nodes are not evaluated", n.Kind)
}

func slot(vals []ir.Const, idx uint32, what string) (ir.Const, error) {
	if int(idx) >= len(vals) {
		return ir.Const{}, faultf(FaultUnmapped, "%s %d is not set", what, idx)
	}
	return vals[idx], nil
}

func (vm *Machine) address(id ir.NodeID) (uint64, error) {
	v, err := vm.Eval(id)
	if err != nil {
		return 0, err
	}
	if v.Kind != ir.ConstInt {
		return 0, faultf(FaultBadOperand, "address is %s", v)
	}
	return v.Lo, nil
}

func (vm *Machine) load(addr uint64) (ir.Const, error) {
	switch {
	case addr >= localBase && addr < localBase+rangeSize:
		return slot(vm.Locals, uint32((addr-localBase)/slotSize), "local") //nolint:gosec // bounded by rangeSize
	case addr >= argBase && addr < argBase+rangeSize:
		return slot(vm.Args, uint32((addr-argBase)/slotSize), "argument") //nolint:gosec // bounded by rangeSize
	case addr >= staticBase && addr < staticBase+rangeSize:
		f := types.StaticFieldID((addr - staticBase) / slotSize) //nolint:gosec // bounded by rangeSize
		if v, ok := vm.Statics[f]; ok {
			return v, nil
		}
	default:
		if v, ok := vm.Mem[addr]; ok {
			return v, nil
		}
	}
	return ir.Const{}, faultf(FaultUnmapped, "load from unmapped address %#x", addr)
}

func (vm *Machine) store(addr uint64, v ir.Const) error {
	switch {
	case addr >= localBase && addr < localBase+rangeSize:
		idx := int((addr - localBase) / slotSize) //nolint:gosec // bounded by rangeSize
		for len(vm.Locals) <= idx {
			vm.Locals = append(vm.Locals, ir.Const{})
		}
		vm.Locals[idx] = v
	case addr >= argBase && addr < argBase+rangeSize:
		idx := int((addr - argBase) / slotSize) //nolint:gosec // bounded by rangeSize
		if idx >= len(vm.Args) {
			return faultf(FaultUnmapped, "argument %d does not exist", idx)
		}
		vm.Args[idx] = v
	case addr >= staticBase && addr < staticBase+rangeSize:
		vm.Statics[types.StaticFieldID((addr-staticBase)/slotSize)] = v //nolint:gosec // bounded by rangeSize
	default:
		vm.Mem[addr] = v
	}
	return nil
}

// Exec runs the root id.
func (vm *Machine) Exec(id ir.RootID) error {
	r := vm.Module.Root(id)
	switch r.Kind {
	case ir.RootNop:
		return nil
	case ir.RootSetField:
		addr, err := vm.address(r.Addr)
		if err != nil {
			return err
		}
		v, err := vm.Eval(r.Value)
		if err != nil {
			return err
		}
		vm.SetField(addr, r.Field, v)
		return nil
	case ir.RootStInd:
		addr, err := vm.address(r.Addr)
		if err != nil {
			return err
		}
		v, err := vm.Eval(r.Value)
		if err != nil {
			return err
		}
		return vm.store(addr, v)
	case ir.RootSetStaticField:
		v, err := vm.Eval(r.Value)
		if err != nil {
			return err
		}
		vm.Statics[r.Static] = v
		return nil
	case ir.RootThrow:
		return faultf(FaultThrown, "%s", vm.Module.Types.MustString(r.Message))
	case ir.RootPop:
		_, err := vm.Eval(r.Value)
		return err
	}
	return errors.UnimplementedErrorf(errors.IssueLink{}, "interp: %s roots are not executed", r.Kind)
}
