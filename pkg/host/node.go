// Package host defines the host-tree mutation primitives the core
// consumes as opaque operations on an ordered child sequence, plus an
// in-memory implementation for tests, benchmarks, and headless use.
//
// The core never inspects a node beyond these operations; a real UI
// host adapts its own node type behind this interface. Nodes from
// different implementations must never be mixed in one tree.
package host

// Node is one handle in the host tree.
type Node interface {
	// AppendChild adds child as the last child of this node.
	AppendChild(child Node)

	// InsertBefore inserts child before ref. A nil ref appends.
	InsertBefore(child, ref Node)

	// RemoveChild detaches child from this node.
	RemoveChild(child Node)

	// ClearChildren removes every child in one operation.
	ClearChildren()

	// Parent returns the parent node, or nil when detached.
	Parent() Node

	// NextSibling returns the following sibling, or nil.
	NextSibling() Node

	// ChildCount returns the number of children.
	ChildCount() int

	// ChildAt returns the child at position i, or nil.
	ChildAt(i int) Node

	// IsConnected reports whether the node is attached to a root.
	IsConnected() bool
}

// Factory creates nodes for one host implementation. Template
// instantiation goes through a Factory so the core stays host-neutral.
type Factory interface {
	// Element creates an element node with the given tag.
	Element(tag string) Node

	// Text creates a text node.
	Text(text string) Node

	// Marker creates an invisible placeholder node (the anchor a list
	// binding keeps at its slot when it has no content).
	Marker() Node

	// Fragment creates a detached container whose children are
	// spliced, not the fragment itself, when it is inserted.
	Fragment() Node
}
