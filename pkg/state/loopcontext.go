package state

import "github.com/structivejs/structive/pkg/statepath"

// LoopContext is one frame of the loop-context stack: the element Ref
// a loop body is currently rendering. Nested loops chain through the
// parent pointer. Wildcard reads resolve their missing index levels
// against this stack.
type LoopContext struct {
	parent *LoopContext
	ref    *statepath.Ref
}

// NewLoopContext pushes a frame for the element ref (a "*"-terminated
// pattern with its ListIndex) on top of parent.
func NewLoopContext(parent *LoopContext, ref *statepath.Ref) *LoopContext {
	return &LoopContext{parent: parent, ref: ref}
}

// Parent returns the enclosing frame, or nil.
func (lc *LoopContext) Parent() *LoopContext {
	if lc == nil {
		return nil
	}
	return lc.parent
}

// SetRef repoints this frame at a new element reference. Pooled
// render instances keep one frame for their whole life and swap the
// element it tracks on reuse.
func (lc *LoopContext) SetRef(ref *statepath.Ref) {
	lc.ref = ref
}

// Ref returns the element reference of this frame.
func (lc *LoopContext) Ref() *statepath.Ref {
	if lc == nil {
		return nil
	}
	return lc.ref
}

// ListIndex returns the element identity of this frame.
func (lc *LoopContext) ListIndex() *statepath.ListIndex {
	if lc == nil || lc.ref == nil {
		return nil
	}
	return lc.ref.ListIndex
}

// ListIndexFor finds the nearest frame rendering wildcard pattern
// wild and returns its element identity, or nil when no enclosing
// loop covers that pattern.
func (lc *LoopContext) ListIndexFor(wild *statepath.Info) *statepath.ListIndex {
	for cur := lc; cur != nil; cur = cur.parent {
		if cur.ref != nil && cur.ref.Info == wild {
			return cur.ref.ListIndex
		}
	}
	return nil
}
