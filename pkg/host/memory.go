package host

// Kind discriminates in-memory node types.
type Kind uint8

const (
	KindElement Kind = iota
	KindText
	KindMarker
	KindFragment
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindMarker:
		return "Marker"
	case KindFragment:
		return "Fragment"
	default:
		return "Unknown"
	}
}

// TreeNode is the in-memory Node implementation.
type TreeNode struct {
	kind     Kind
	tag      string
	text     string
	parent   *TreeNode
	children []*TreeNode
	root     bool

	// Mutations counts structural operations applied to this node as
	// a parent. Tests assert on it to pin down fast-path behavior.
	Mutations int
}

// MemoryFactory creates in-memory nodes.
type MemoryFactory struct{}

func (MemoryFactory) Element(tag string) Node { return &TreeNode{kind: KindElement, tag: tag} }
func (MemoryFactory) Text(text string) Node   { return &TreeNode{kind: KindText, text: text} }
func (MemoryFactory) Marker() Node            { return &TreeNode{kind: KindMarker} }
func (MemoryFactory) Fragment() Node          { return &TreeNode{kind: KindFragment} }

// NewRoot creates a connected root element; everything reachable from
// it reports IsConnected.
func NewRoot(tag string) *TreeNode {
	return &TreeNode{kind: KindElement, tag: tag, root: true}
}

// Kind returns the node kind.
func (n *TreeNode) Kind() Kind { return n.kind }

// Tag returns the element tag name.
func (n *TreeNode) Tag() string { return n.tag }

// Text returns the text content of a text node.
func (n *TreeNode) Text() string { return n.text }

// SetText replaces the text content.
func (n *TreeNode) SetText(text string) { n.text = text }

func (n *TreeNode) AppendChild(child Node) {
	n.InsertBefore(child, nil)
}

func (n *TreeNode) InsertBefore(child, ref Node) {
	c := mustTreeNode(child)
	n.Mutations++

	// Fragments splice their children instead of moving themselves.
	if c.kind == KindFragment {
		kids := c.children
		c.children = nil
		for _, kid := range kids {
			kid.parent = nil
			n.insertOne(kid, ref)
		}
		return
	}
	n.insertOne(c, ref)
}

func (n *TreeNode) insertOne(c *TreeNode, ref Node) {
	if c.parent != nil {
		c.parent.detach(c)
	}
	c.parent = n

	if ref == nil {
		n.children = append(n.children, c)
		return
	}
	r := mustTreeNode(ref)
	for i, existing := range n.children {
		if existing == r {
			n.children = append(n.children, nil)
			copy(n.children[i+1:], n.children[i:])
			n.children[i] = c
			return
		}
	}
	n.children = append(n.children, c)
}

func (n *TreeNode) RemoveChild(child Node) {
	c := mustTreeNode(child)
	n.Mutations++
	n.detach(c)
}

func (n *TreeNode) detach(c *TreeNode) {
	for i, existing := range n.children {
		if existing == c {
			n.children = append(n.children[:i], n.children[i+1:]...)
			c.parent = nil
			return
		}
	}
}

func (n *TreeNode) ClearChildren() {
	n.Mutations++
	for _, c := range n.children {
		c.parent = nil
	}
	n.children = nil
}

func (n *TreeNode) Parent() Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *TreeNode) NextSibling() Node {
	if n.parent == nil {
		return nil
	}
	sibs := n.parent.children
	for i, s := range sibs {
		if s == n && i+1 < len(sibs) {
			return sibs[i+1]
		}
	}
	return nil
}

func (n *TreeNode) ChildCount() int {
	return len(n.children)
}

func (n *TreeNode) ChildAt(i int) Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

func (n *TreeNode) IsConnected() bool {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.root {
			return true
		}
	}
	return false
}

// mustTreeNode asserts the in-memory implementation. Mixing host
// implementations in one tree is a programming error.
func mustTreeNode(n Node) *TreeNode {
	t, ok := n.(*TreeNode)
	if !ok {
		panic("host: foreign Node implementation in in-memory tree")
	}
	return t
}
