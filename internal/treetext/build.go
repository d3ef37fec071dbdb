package treetext

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"ilgraph/internal/ir"
	"ilgraph/internal/tree"
	"ilgraph/internal/types"
)

// Expr is a named expression of a unit.
type Expr struct {
	Name string
	Pos  Pos
	Node *tree.Node
}

// Stmt is a named statement of a unit.
type Stmt struct {
	Name string
	Pos  Pos
	Root *tree.Root
}

// Unit is a file resolved against a module, ready for lowering.
type Unit struct {
	File  string
	Exprs []Expr
	Stmts []Stmt
}

var (
	nodeKinds = make(map[string]tree.Kind)
	intNames  = make(map[string]types.Int)
)

func init() {
	for _, k := range tree.AllKinds() {
		if k == tree.KindGraph || k == tree.KindConst || k == tree.KindLdStr {
			continue
		}
		nodeKinds[strings.ToLower(k.String())] = k
	}
	for _, i := range types.AllInts {
		intNames[i.Name()] = i
	}
}

type builder struct {
	m       *ir.Module
	file    string
	classes map[string]types.ClassID
}

func (b *builder) errorf(s *SExpr, format string, args ...any) *Error {
	return &Error{File: b.file, Pos: s.Pos, Msg: fmt.Sprintf(format, args...)}
}

// Build resolves every form of f into tree IR interned against m's types.
// Class declarations apply to the forms that follow them.
func Build(m *ir.Module, f *File) (*Unit, error) {
	b := &builder{m: m, file: f.Name, classes: make(map[string]types.ClassID)}
	u := &Unit{File: f.Name}
	for _, form := range f.Forms {
		switch head := form.Head(); head {
		case "class":
			if err := b.declareClass(form); err != nil {
				return nil, err
			}
		case "expr":
			if err := b.arity(form, 3, 3); err != nil {
				return nil, err
			}
			name, err := b.name(form.List[1])
			if err != nil {
				return nil, err
			}
			n, err := b.node(form.List[2])
			if err != nil {
				return nil, err
			}
			u.Exprs = append(u.Exprs, Expr{Name: name, Pos: form.Pos, Node: n})
		case "stmt":
			if err := b.arity(form, 3, 3); err != nil {
				return nil, err
			}
			name, err := b.name(form.List[1])
			if err != nil {
				return nil, err
			}
			r, err := b.root(form.List[2])
			if err != nil {
				return nil, err
			}
			u.Stmts = append(u.Stmts, Stmt{Name: name, Pos: form.Pos, Root: r})
		default:
			return nil, b.errorf(form, "unknown top-level form %q", head)
		}
	}
	return u, nil
}

// ReadString parses and builds src in one step.
func ReadString(m *ir.Module, name, src string) (*Unit, error) {
	f, err := Parse(name, []byte(src))
	if err != nil {
		return nil, err
	}
	return Build(m, f)
}

func (b *builder) arity(s *SExpr, lo, hi int) error {
	n := len(s.List)
	if n < lo || (hi >= 0 && n > hi) {
		if lo == hi {
			return b.errorf(s, "%s takes %d operands, got %d", s.Head(), lo-1, n-1)
		}
		return b.errorf(s, "%s takes at least %d operands, got %d", s.Head(), lo-1, n-1)
	}
	return nil
}

func (b *builder) name(s *SExpr) (string, error) {
	if s.IsList || s.Quoted || s.Atom == "" {
		return "", b.errorf(s, "expected a name, got %s", s)
	}
	return s.Atom, nil
}

func (b *builder) index(s *SExpr) (uint32, error) {
	if s.IsList {
		return 0, b.errorf(s, "expected an index, got %s", s)
	}
	v, err := strconv.ParseUint(s.Atom, 10, 64)
	if err != nil {
		return 0, b.errorf(s, "bad index %q", s.Atom)
	}
	idx, err := safecast.Conv[uint32](v)
	if err != nil {
		return 0, b.errorf(s, "index %d out of range", v)
	}
	return idx, nil
}

// (class NAME [value] [asm ASSEMBLY])
func (b *builder) declareClass(s *SExpr) error {
	if err := b.arity(s, 2, 5); err != nil {
		return err
	}
	name, err := b.name(s.List[1])
	if err != nil {
		return err
	}
	value, asm := false, ""
	rest := s.List[2:]
	for i := 0; i < len(rest); i++ {
		switch rest[i].Atom {
		case "value":
			value = true
		case "asm":
			if i+1 >= len(rest) {
				return b.errorf(rest[i], "asm needs an assembly name")
			}
			i++
			asm = rest[i].Atom
		default:
			return b.errorf(rest[i], "unknown class flag %s", rest[i])
		}
	}
	if _, ok := b.classes[name]; ok {
		return b.errorf(s, "class %s declared twice", name)
	}
	b.classes[name] = b.m.Types.NewClass(name, asm, value)
	return nil
}

// class resolves a class name; undeclared names are local reference classes.
func (b *builder) class(s *SExpr) (types.ClassID, error) {
	name, err := b.name(s)
	if err != nil {
		return 0, err
	}
	if id, ok := b.classes[name]; ok {
		return id, nil
	}
	id := b.m.Types.NewClass(name, "", false)
	b.classes[name] = id
	return id, nil
}

func (b *builder) typ(s *SExpr) (types.Type, error) {
	in := b.m.Types
	if !s.IsList {
		if i, ok := intNames[s.Atom]; ok {
			return types.MakeInt(i), nil
		}
		switch s.Atom {
		case "f32":
			return types.MakeFloat(types.F32), nil
		case "f64":
			return types.MakeFloat(types.F64), nil
		case "bool":
			return types.Bool(), nil
		case "char":
			return types.Char(), nil
		case "void":
			return types.Void(), nil
		case "string":
			return types.PlatformString(), nil
		case "object":
			return types.PlatformObject(), nil
		}
		return types.Type{}, b.errorf(s, "unknown type %s", s)
	}
	switch s.Head() {
	case "ptr", "ref":
		if err := b.arity(s, 2, 2); err != nil {
			return types.Type{}, err
		}
		elem, err := b.typ(s.List[1])
		if err != nil {
			return types.Type{}, err
		}
		if s.Head() == "ptr" {
			return in.NPtr(elem), nil
		}
		return in.NRef(elem), nil
	case "class":
		if err := b.arity(s, 2, 2); err != nil {
			return types.Type{}, err
		}
		cls, err := b.class(s.List[1])
		if err != nil {
			return types.Type{}, err
		}
		return types.MakeClassRef(cls), nil
	case "array":
		if err := b.arity(s, 2, 3); err != nil {
			return types.Type{}, err
		}
		elem, err := b.typ(s.List[1])
		if err != nil {
			return types.Type{}, err
		}
		dims := uint64(1)
		if len(s.List) == 3 {
			if dims, err = strconv.ParseUint(s.List[2].Atom, 10, 8); err != nil || dims == 0 {
				return types.Type{}, b.errorf(s.List[2], "bad array rank %s", s.List[2])
			}
		}
		return types.MakePlatformArray(in.Intern(elem), uint8(dims)), nil //nolint:gosec // parsed as 8 bits
	case "fn":
		sig, err := b.sig(s)
		if err != nil {
			return types.Type{}, err
		}
		return types.MakeFnPtr(sig), nil
	}
	return types.Type{}, b.errorf(s, "unknown type %s", s)
}

// sig reads (HEAD (INPUTS...) OUTPUT).
func (b *builder) sig(s *SExpr) (types.SigID, error) {
	if err := b.arity(s, 3, 3); err != nil {
		return 0, err
	}
	params := s.List[1]
	if !params.IsList {
		return 0, b.errorf(params, "expected a parameter list, got %s", params)
	}
	inputs := make([]types.Type, 0, len(params.List))
	for _, p := range params.List {
		t, err := b.typ(p)
		if err != nil {
			return 0, err
		}
		inputs = append(inputs, t)
	}
	out, err := b.typ(s.List[2])
	if err != nil {
		return 0, err
	}
	return b.m.Types.Sig(inputs, out), nil
}

// (field CLASS NAME TYPE)
func (b *builder) field(s *SExpr) (types.FieldID, error) {
	if s.Head() != "field" {
		return 0, b.errorf(s, "expected (field CLASS NAME TYPE), got %s", s)
	}
	if err := b.arity(s, 4, 4); err != nil {
		return 0, err
	}
	cls, err := b.class(s.List[1])
	if err != nil {
		return 0, err
	}
	name, err := b.name(s.List[2])
	if err != nil {
		return 0, err
	}
	t, err := b.typ(s.List[3])
	if err != nil {
		return 0, err
	}
	return b.m.Types.NewField(cls, name, t), nil
}

// (static CLASS NAME TYPE [threadlocal])
func (b *builder) static(s *SExpr) (types.StaticFieldID, error) {
	if s.Head() != "static" {
		return 0, b.errorf(s, "expected (static CLASS NAME TYPE), got %s", s)
	}
	if err := b.arity(s, 4, 5); err != nil {
		return 0, err
	}
	cls, err := b.class(s.List[1])
	if err != nil {
		return 0, err
	}
	name, err := b.name(s.List[2])
	if err != nil {
		return 0, err
	}
	t, err := b.typ(s.List[3])
	if err != nil {
		return 0, err
	}
	in := b.m.Types
	desc := types.StaticFieldDesc{Owner: cls, Name: in.String(name), Type: in.Intern(t)}
	if len(s.List) == 5 {
		if s.List[4].Atom != "threadlocal" {
			return 0, b.errorf(s.List[4], "unknown static flag %s", s.List[4])
		}
		desc.IsThreadLocal = true
	}
	return in.StaticField(desc), nil
}

var methodKinds = map[string]types.MethodKind{
	"static":   types.MethodStatic,
	"instance": types.MethodInstance,
	"virtual":  types.MethodVirtual,
	"ctor":     types.MethodConstructor,
}

// (method CLASS NAME (INPUTS...) OUTPUT [KIND])
func (b *builder) method(s *SExpr) (types.MethodID, error) {
	if s.Head() != "method" {
		return 0, b.errorf(s, "expected (method CLASS NAME (INPUTS...) OUTPUT), got %s", s)
	}
	if err := b.arity(s, 5, 6); err != nil {
		return 0, err
	}
	cls, err := b.class(s.List[1])
	if err != nil {
		return 0, err
	}
	name, err := b.name(s.List[2])
	if err != nil {
		return 0, err
	}
	sig, err := b.sig(&SExpr{Pos: s.Pos, IsList: true, List: []*SExpr{s.List[0], s.List[3], s.List[4]}})
	if err != nil {
		return 0, err
	}
	kind := types.MethodStatic
	if len(s.List) == 6 {
		k, ok := methodKinds[s.List[5].Atom]
		if !ok {
			return 0, b.errorf(s.List[5], "unknown method kind %s", s.List[5])
		}
		kind = k
	}
	return b.m.Types.NewMethod(cls, name, sig, kind), nil
}

func (b *builder) constant(s *SExpr) (ir.Const, error) {
	if err := b.arity(s, 3, 3); err != nil {
		return ir.Const{}, err
	}
	t, err := b.typ(s.List[1])
	if err != nil {
		return ir.Const{}, err
	}
	lit := s.List[2]
	if lit.IsList || lit.Quoted {
		return ir.Const{}, b.errorf(lit, "expected a literal, got %s", lit)
	}
	switch t.Kind {
	case types.KindBool:
		v, err := strconv.ParseBool(lit.Atom)
		if err != nil {
			return ir.Const{}, b.errorf(lit, "bad bool %q", lit.Atom)
		}
		return ir.BoolConst(v), nil
	case types.KindFloat:
		v, err := strconv.ParseFloat(lit.Atom, 64)
		if err != nil {
			return ir.Const{}, b.errorf(lit, "bad float %q", lit.Atom)
		}
		if t.Float == types.F32 {
			return ir.F32Const(float32(v)), nil
		}
		return ir.F64Const(v), nil
	case types.KindInt:
		v, ok := new(big.Int).SetString(lit.Atom, 0)
		if !ok {
			return ir.Const{}, b.errorf(lit, "bad integer %q", lit.Atom)
		}
		return ir.ConstFromBig(t.Int, v), nil
	}
	return ir.Const{}, b.errorf(s.List[1], "no literals of type %s", b.m.Types.Format(t))
}

func (b *builder) nodes(list []*SExpr) ([]*tree.Node, error) {
	out := make([]*tree.Node, 0, len(list))
	for _, s := range list {
		n, err := b.node(s)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (b *builder) node(s *SExpr) (*tree.Node, error) {
	if !s.IsList {
		return nil, b.errorf(s, "expected an expression, got %s", s)
	}
	head := s.Head()
	switch head {
	case "const":
		c, err := b.constant(s)
		if err != nil {
			return nil, err
		}
		return tree.Const(c), nil
	case "ldstr":
		if err := b.arity(s, 2, 2); err != nil {
			return nil, err
		}
		if !s.List[1].Quoted {
			return nil, b.errorf(s.List[1], "expected a string literal, got %s", s.List[1])
		}
		return tree.LdStr(s.List[1].Atom), nil
	case "ldind":
		if err := b.arity(s, 3, 3); err != nil {
			return nil, err
		}
		t, err := b.typ(s.List[1])
		if err != nil {
			return nil, err
		}
		addr, err := b.node(s.List[2])
		if err != nil {
			return nil, err
		}
		return tree.LdInd(addr, t), nil
	case "callpure":
		return b.call(s, tree.CallPure)
	}

	k, ok := nodeKinds[head]
	if !ok {
		return nil, b.errorf(s, "unknown expression %q", head)
	}
	switch k {
	case tree.KindLdLoc, tree.KindLdLocA, tree.KindLdArg, tree.KindLdArgA:
		if err := b.arity(s, 2, 2); err != nil {
			return nil, err
		}
		idx, err := b.index(s.List[1])
		if err != nil {
			return nil, err
		}
		return &tree.Node{Kind: k, Index: idx}, nil
	case tree.KindCall:
		return b.call(s, tree.Call)
	case tree.KindCallVirt:
		return b.call(s, tree.CallVirt)
	case tree.KindNewObj:
		return b.call(s, tree.NewObj)
	case tree.KindCallI:
		if err := b.arity(s, 3, -1); err != nil {
			return nil, err
		}
		sig, err := b.sig(s.List[1])
		if err != nil {
			return nil, err
		}
		ops, err := b.nodes(s.List[2:])
		if err != nil {
			return nil, err
		}
		return tree.CallI(ops[0], sig, ops[1:]...), nil
	case tree.KindLdField, tree.KindLdFieldAddress:
		if err := b.arity(s, 3, 3); err != nil {
			return nil, err
		}
		f, err := b.field(s.List[1])
		if err != nil {
			return nil, err
		}
		addr, err := b.node(s.List[2])
		if err != nil {
			return nil, err
		}
		if k == tree.KindLdField {
			return tree.LdField(addr, f), nil
		}
		return tree.LdFieldAddress(addr, f), nil
	case tree.KindLdStaticField, tree.KindLdStaticFieldAddress:
		if err := b.arity(s, 2, 2); err != nil {
			return nil, err
		}
		f, err := b.static(s.List[1])
		if err != nil {
			return nil, err
		}
		if k == tree.KindLdStaticField {
			return tree.LdStaticField(f), nil
		}
		return tree.LdStaticFieldAddress(f), nil
	case tree.KindLdFtn:
		if err := b.arity(s, 2, 2); err != nil {
			return nil, err
		}
		site, err := b.method(s.List[1])
		if err != nil {
			return nil, err
		}
		return tree.LdFtn(site), nil
	case tree.KindLdTypeToken, tree.KindSizeOf:
		if err := b.arity(s, 2, 2); err != nil {
			return nil, err
		}
		t, err := b.typ(s.List[1])
		if err != nil {
			return nil, err
		}
		if k == tree.KindSizeOf {
			return tree.SizeOf(t), nil
		}
		return tree.LdTypeToken(t), nil
	case tree.KindGetException:
		if err := b.arity(s, 1, 1); err != nil {
			return nil, err
		}
		return tree.GetException(), nil
	case tree.KindLocAllocAligned:
		if err := b.arity(s, 3, 3); err != nil {
			return nil, err
		}
		t, err := b.typ(s.List[1])
		if err != nil {
			return nil, err
		}
		align, err := strconv.ParseUint(s.List[2].Atom, 0, 64)
		if err != nil {
			return nil, b.errorf(s.List[2], "bad alignment %s", s.List[2])
		}
		return tree.LocAllocAligned(t, align), nil
	case tree.KindIsInst, tree.KindCheckedCast:
		if err := b.arity(s, 3, 3); err != nil {
			return nil, err
		}
		cls, err := b.class(s.List[1])
		if err != nil {
			return nil, err
		}
		obj, err := b.node(s.List[2])
		if err != nil {
			return nil, err
		}
		if k == tree.KindIsInst {
			return tree.IsInst(obj, cls), nil
		}
		return tree.CheckedCast(obj, cls), nil
	case tree.KindCastPtr, tree.KindUnboxAny, tree.KindLdObj, tree.KindLdIndPtr:
		if err := b.arity(s, 3, 3); err != nil {
			return nil, err
		}
		t, err := b.typ(s.List[1])
		if err != nil {
			return nil, err
		}
		v, err := b.node(s.List[2])
		if err != nil {
			return nil, err
		}
		switch k {
		case tree.KindCastPtr:
			if !t.IsPointerLike() {
				return nil, b.errorf(s.List[1], "castptr target %s is not pointer-shaped", b.m.Types.Format(t))
			}
			return tree.CastPtr(v, t), nil
		case tree.KindUnboxAny:
			return tree.UnboxAny(v, t), nil
		case tree.KindLdObj:
			return tree.LdObj(v, t), nil
		default:
			return tree.LdIndPtr(v, t), nil
		}
	case tree.KindLdElemRef:
		if err := b.arity(s, 4, 4); err != nil {
			return nil, err
		}
		t, err := b.typ(s.List[1])
		if err != nil {
			return nil, err
		}
		ops, err := b.nodes(s.List[2:])
		if err != nil {
			return nil, err
		}
		return tree.LdElemRef(ops[0], ops[1], t), nil
	}

	if _, ok := tree.BinOpOf(k); ok {
		if err := b.arity(s, 3, 3); err != nil {
			return nil, err
		}
		ops, err := b.nodes(s.List[1:])
		if err != nil {
			return nil, err
		}
		return tree.Binary(k, ops[0], ops[1]), nil
	}
	if _, ok := tree.LoadType(k); ok {
		if err := b.arity(s, 2, 2); err != nil {
			return nil, err
		}
		addr, err := b.node(s.List[1])
		if err != nil {
			return nil, err
		}
		return tree.LdIndKind(k, addr), nil
	}
	// Everything left takes one operand.
	if err := b.arity(s, 2, 2); err != nil {
		return nil, err
	}
	v, err := b.node(s.List[1])
	if err != nil {
		return nil, err
	}
	return &tree.Node{Kind: k, A: v}, nil
}

func (b *builder) call(s *SExpr, mk func(types.MethodID, ...*tree.Node) *tree.Node) (*tree.Node, error) {
	if err := b.arity(s, 2, -1); err != nil {
		return nil, err
	}
	site, err := b.method(s.List[1])
	if err != nil {
		return nil, err
	}
	args, err := b.nodes(s.List[2:])
	if err != nil {
		return nil, err
	}
	return mk(site, args...), nil
}

func (b *builder) root(s *SExpr) (*tree.Root, error) {
	if !s.IsList {
		return nil, b.errorf(s, "expected a statement, got %s", s)
	}
	switch head := s.Head(); head {
	case "nop":
		if err := b.arity(s, 1, 1); err != nil {
			return nil, err
		}
		return tree.Nop(), nil
	case "stfld":
		if err := b.arity(s, 4, 4); err != nil {
			return nil, err
		}
		f, err := b.field(s.List[1])
		if err != nil {
			return nil, err
		}
		ops, err := b.nodes(s.List[2:])
		if err != nil {
			return nil, err
		}
		return tree.SetField(ops[0], ops[1], f), nil
	case "stind":
		if err := b.arity(s, 4, 5); err != nil {
			return nil, err
		}
		t, err := b.typ(s.List[1])
		if err != nil {
			return nil, err
		}
		ops, err := b.nodes(s.List[2:4])
		if err != nil {
			return nil, err
		}
		volatile := false
		if len(s.List) == 5 {
			if s.List[4].Atom != "volatile" {
				return nil, b.errorf(s.List[4], "unknown stind flag %s", s.List[4])
			}
			volatile = true
		}
		return tree.StInd(ops[0], ops[1], t, volatile), nil
	case "stsfld":
		if err := b.arity(s, 3, 3); err != nil {
			return nil, err
		}
		f, err := b.static(s.List[1])
		if err != nil {
			return nil, err
		}
		v, err := b.node(s.List[2])
		if err != nil {
			return nil, err
		}
		return tree.SetStaticField(f, v), nil
	case "throw":
		if err := b.arity(s, 2, 2); err != nil {
			return nil, err
		}
		if !s.List[1].Quoted {
			return nil, b.errorf(s.List[1], "expected a message string, got %s", s.List[1])
		}
		return tree.Throw(s.List[1].Atom), nil
	case "pop":
		if err := b.arity(s, 2, 2); err != nil {
			return nil, err
		}
		v, err := b.node(s.List[1])
		if err != nil {
			return nil, err
		}
		return tree.Pop(v), nil
	default:
		return nil, b.errorf(s, "unknown statement %q", head)
	}
}
