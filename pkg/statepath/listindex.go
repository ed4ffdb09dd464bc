package statepath

// ListIndex is the stable identity of one array element. The same
// ListIndex follows its logical element across reorders; only its
// position changes. Nested lists chain through the parent pointer.
//
// A ListIndex's position is authoritative only between two
// reconciliation passes.
type ListIndex struct {
	id     uint64
	parent *ListIndex
	pos    int
}

// ID returns the identity of this list index. IDs are never reused.
func (li *ListIndex) ID() uint64 {
	if li == nil {
		return 0
	}
	return li.id
}

// Parent returns the enclosing list's index for nested lists, or nil.
func (li *ListIndex) Parent() *ListIndex {
	return li.parent
}

// Position returns the element's current position in its list.
func (li *ListIndex) Position() int {
	return li.pos
}

// SetPosition updates the element's position after a reorder.
func (li *ListIndex) SetPosition(pos int) {
	li.pos = pos
}

// Depth returns the number of chained indexes, i.e. the wildcard level
// this index resolves (1 for a top-level list element).
func (li *ListIndex) Depth() int {
	d := 0
	for cur := li; cur != nil; cur = cur.parent {
		d++
	}
	return d
}

// Indexes returns the position chain outermost-first.
func (li *ListIndex) Indexes() []int {
	d := li.Depth()
	out := make([]int, d)
	for cur := li; cur != nil; cur = cur.parent {
		d--
		out[d] = cur.pos
	}
	return out
}

// At returns the ancestor resolving wildcard level (1-based, outermost
// = 1), or nil when level is out of range.
func (li *ListIndex) At(level int) *ListIndex {
	d := li.Depth()
	if level < 1 || level > d {
		return nil
	}
	cur := li
	for ; d > level; d-- {
		cur = cur.parent
	}
	return cur
}

// Truncate returns the ancestor chain cut down to depth. Truncating to
// zero (or below) yields nil.
func (li *ListIndex) Truncate(depth int) *ListIndex {
	if depth <= 0 {
		return nil
	}
	return li.At(depth)
}
