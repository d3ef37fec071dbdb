package ir

// ExportedNode is the serialisable view of one node.
type ExportedNode struct {
	ID       uint32   `json:"id"`
	Kind     string   `json:"kind"`
	Text     string   `json:"text"`
	Children []uint32 `json:"children,omitempty"`
}

// ExportedName is the serialisable view of one named entry.
type ExportedName struct {
	Name string `json:"name"`
	Node uint32 `json:"node,omitempty"`
	Root string `json:"root,omitempty"`
}

// Export is a self-contained description of the graph reachable from a set
// of named entries, suitable for JSON or YAML encoding.
type Export struct {
	Nodes []ExportedNode `json:"nodes"`
	Names []ExportedName `json:"names"`
}

// ExportNamed builds the serialisable view of named.
func ExportNamed(m *Module, named []Named) Export {
	out := Export{
		Nodes: make([]ExportedNode, 0, 16),
		Names: make([]ExportedName, 0, len(named)),
	}
	for _, id := range m.Reachable(named) {
		n := m.Node(id)
		en := ExportedNode{ID: uint32(id), Kind: n.Kind.String(), Text: m.FormatNode(n)}
		for _, c := range m.Children(n) {
			en.Children = append(en.Children, uint32(c))
		}
		out.Nodes = append(out.Nodes, en)
	}
	for _, nm := range named {
		e := ExportedName{Name: nm.Name, Node: uint32(nm.Node)}
		if nm.Root != 0 {
			e.Root = m.FormatRoot(m.Root(nm.Root))
		}
		out.Names = append(out.Names, e)
	}
	return out
}
