package ir

// MapFunc transforms one node. It receives the node with its children
// already rewritten and returns the node that takes its place.
type MapFunc func(Node, *Module) Node

type rewriter struct {
	m    *Module
	f    MapFunc
	memo map[NodeID]NodeID
}

// Rewrite rebuilds the graph under root bottom-up. Children are rewritten
// and re-interned before their parent is passed to f; leaves go straight to
// f. Within one call every distinct handle is rewritten once, so shared
// subgraphs stay shared. The result for root itself is returned uninterned.
func Rewrite(m *Module, root NodeID, f MapFunc) Node {
	r := &rewriter{m: m, f: f, memo: make(map[NodeID]NodeID)}
	return r.node(root)
}

// RewriteID is Rewrite followed by interning the result.
func RewriteID(m *Module, root NodeID, f MapFunc) NodeID {
	r := &rewriter{m: m, f: f, memo: make(map[NodeID]NodeID)}
	return r.child(root)
}

// RewriteRoot rewrites every node operand of the root and interns the
// rebuilt root.
func RewriteRoot(m *Module, id RootID, f MapFunc) RootID {
	r := &rewriter{m: m, f: f, memo: make(map[NodeID]NodeID)}
	root := m.Root(id)
	if root.Addr != NoNodeID {
		root.Addr = r.child(root.Addr)
	}
	if root.Value != NoNodeID {
		root.Value = r.child(root.Value)
	}
	return m.InternRoot(root)
}

func (r *rewriter) node(id NodeID) Node {
	n := r.m.Node(id)
	if n.Kind.IsLeaf() {
		return r.f(n, r.m)
	}
	return r.f(r.m.remap(n, r.child), r.m)
}

func (r *rewriter) child(id NodeID) NodeID {
	if out, ok := r.memo[id]; ok {
		return out
	}
	out := r.m.Intern(r.node(id))
	r.memo[id] = out
	return out
}

// Identity is a MapFunc that returns its input unchanged.
func Identity(n Node, _ *Module) Node { return n }
