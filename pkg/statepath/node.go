package statepath

// Node is one prefix-tree node of the structured path index. Children
// are reachable by segment name; the wildcard child lives under "*".
// Nodes are built lazily as patterns are registered and enable
// enumerating every path statically reachable from a given path.
type Node struct {
	parent   *Node
	segment  string
	path     string
	children map[string]*Node
}

// Segment returns the segment name this node is keyed by ("" at root).
func (n *Node) Segment() string {
	return n.segment
}

// Path returns the full pattern string down to this node.
func (n *Node) Path() string {
	return n.path
}

// Child returns the child node for segment name, or nil.
func (n *Node) Child(name string) *Node {
	return n.children[name]
}

// Wildcard returns the "*" child, or nil.
func (n *Node) Wildcard() *Node {
	return n.children["*"]
}

// Children returns the child map. Callers must not mutate it.
func (n *Node) Children() map[string]*Node {
	return n.children
}

// ensureChild returns the child for name, creating it if absent.
func (n *Node) ensureChild(name string) *Node {
	if child, ok := n.children[name]; ok {
		return child
	}
	path := name
	if n.path != "" {
		path = n.path + "." + name
	}
	child := &Node{
		parent:   n,
		segment:  name,
		path:     path,
		children: make(map[string]*Node),
	}
	n.children[name] = child
	return child
}

// find descends the tree along segments, returning nil when any
// segment is missing.
func (n *Node) find(segments []string) *Node {
	cur := n
	for _, seg := range segments {
		cur = cur.children[seg]
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Walk visits this node and every descendant, depth-first.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, child := range n.children {
		child.Walk(fn)
	}
}
