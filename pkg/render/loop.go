package render

import (
	"github.com/structivejs/structive/internal/errors"
	"github.com/structivejs/structive/pkg/host"
	"github.com/structivejs/structive/pkg/state"
	"github.com/structivejs/structive/pkg/statepath"
)

// Reconciliation pass classes, in metrics label form.
const (
	ClassNoop       = "noop"
	ClassAllAdded   = "all-added"
	ClassAllRemoved = "all-removed"
	ClassReorder    = "reorder-only"
	ClassMixed      = "mixed"
)

// LoopBinding renders one template instance per element of a bound
// list, keeping instance order aligned with element order. Instances
// are matched to elements by ListIndex identity, so a reorder moves
// nodes instead of rebuilding them. Discarded instances go to a LIFO
// pool and are reassigned to new elements before anything is built
// from scratch.
//
// The marker node stays in the parent at the list's slot; instance
// nodes always sit immediately before it.
type LoopBinding struct {
	engine     Engine
	listInfo   *statepath.Info
	templateID int
	marker     host.Node
	parentLoop *state.LoopContext

	contents []*BindContent
	byIndex  map[*statepath.ListIndex]*BindContent
	pool     []*BindContent

	// creations counts instances built from scratch, pooled reuse
	// excluded.
	creations int
}

// NewLoopBinding creates a list binding anchored at marker, rendering
// templateID once per element of listPattern.
func NewLoopBinding(engine Engine, listPattern string, templateID int, marker host.Node, parentLoop *state.LoopContext) *LoopBinding {
	return &LoopBinding{
		engine:     engine,
		listInfo:   engine.Caches().Info(listPattern),
		templateID: templateID,
		marker:     marker,
		parentLoop: parentLoop,
		byIndex:    make(map[*statepath.ListIndex]*BindContent),
	}
}

// Contents returns the current instances in element order.
func (lb *LoopBinding) Contents() []*BindContent {
	return lb.contents
}

// Creations returns how many instances were built from scratch over
// the binding's lifetime.
func (lb *LoopBinding) Creations() int {
	return lb.creations
}

// PoolSize returns the number of idle pooled instances.
func (lb *LoopBinding) PoolSize() int {
	return len(lb.pool)
}

// listRef resolves the bound list pattern against the enclosing loop
// stack.
func (lb *LoopBinding) listRef() (*statepath.Ref, error) {
	var li *statepath.ListIndex
	if n := lb.listInfo.WildcardCount; n > 0 {
		li = lb.parentLoop.ListIndexFor(lb.listInfo.WildcardInfos[n-1])
		if li == nil {
			return nil, errors.New("loop-context-missing").
				WithContext("path", lb.listInfo.Pattern)
		}
	}
	return lb.engine.Caches().Ref(lb.listInfo, li), nil
}

func (lb *LoopBinding) elemInfo() *statepath.Info {
	return lb.engine.Caches().Info(lb.listInfo.Pattern + ".*")
}

// ApplyChange reconciles the instance set against the list's current
// element identities. The pass is classified first and each class
// takes its own mutation path; reconciling an unchanged list touches
// nothing.
func (lb *LoopBinding) ApplyChange(r *Renderer) error {
	ref, err := lb.listRef()
	if err != nil {
		return err
	}
	newIdxs, err := lb.engine.ListIndexes(ref)
	if err != nil {
		return err
	}

	class := lb.classify(newIdxs)
	lb.engine.Metrics().IncReconcile(class)
	if class == ClassNoop {
		return nil
	}
	if lb.marker.Parent() == nil {
		return errors.New("consumer-contract-violation").
			WithContext("path", lb.listInfo.Pattern).
			WithDetail("list marker has no parent node")
	}
	r.MarkUpdated(lb)

	switch class {
	case ClassAllRemoved:
		return lb.removeAll()
	case ClassAllAdded:
		return lb.addAll(r, newIdxs)
	case ClassReorder:
		return lb.reorder(newIdxs)
	default:
		return lb.reconcileMixed(r, newIdxs)
	}
}

// ApplyElementChanges re-renders the subtrees of individually changed
// elements. Membership and order did not change (a membership change
// reaches ApplyChange through the list ref itself), so each change
// maps to a live instance.
func (lb *LoopBinding) ApplyElementChanges(r *Renderer, changes []*statepath.Ref) error {
	for _, ref := range changes {
		li := ref.ListIndex
		if li != nil {
			li = li.At(lb.listInfo.WildcardCount + 1)
		}
		if li == nil || lb.byIndex[li] == nil {
			return errors.New("list-instance-missing").
				WithContext("path", ref.Info.Pattern).
				WithContext("index", li.ID())
		}
		if err := r.RenderRef(ref); err != nil {
			return err
		}
	}
	return nil
}

// classify compares the new element identities against the current
// instance order.
func (lb *LoopBinding) classify(newIdxs []*statepath.ListIndex) string {
	switch {
	case len(lb.contents) == 0 && len(newIdxs) == 0:
		return ClassNoop
	case len(lb.contents) == 0:
		return ClassAllAdded
	case len(newIdxs) == 0:
		return ClassAllRemoved
	}

	oldSet := make(map[*statepath.ListIndex]struct{}, len(lb.contents))
	for _, bc := range lb.contents {
		oldSet[bc.ListIndex()] = struct{}{}
	}
	same := len(newIdxs) == len(lb.contents)
	inOrder := same
	for i, li := range newIdxs {
		if _, ok := oldSet[li]; !ok {
			same = false
			break
		}
		if inOrder && lb.contents[i].ListIndex() != li {
			inOrder = false
		}
	}
	switch {
	case same && inOrder:
		return ClassNoop
	case same:
		return ClassReorder
	default:
		return ClassMixed
	}
}

// removeAll clears every instance. When the parent holds nothing but
// this binding's nodes and the marker, one ClearChildren replaces
// per-node removal.
func (lb *LoopBinding) removeAll() error {
	parent := lb.marker.Parent()
	managed := 1 // the marker
	for _, bc := range lb.contents {
		managed += len(bc.nodes)
	}
	if parent != nil && parent.ChildCount() == managed {
		parent.ClearChildren()
		parent.AppendChild(lb.marker)
		for _, bc := range lb.contents {
			bc.parent = nil
			bc.mounted = false
			lb.discard(bc, false)
		}
	} else {
		for _, bc := range lb.contents {
			lb.discard(bc, true)
		}
	}
	lb.contents = nil
	lb.byIndex = make(map[*statepath.ListIndex]*BindContent)
	return nil
}

// addAll builds the full instance set for a previously empty list.
// With a connected parent the nodes land in one spliced insert.
func (lb *LoopBinding) addAll(r *Renderer, newIdxs []*statepath.ListIndex) error {
	parent := lb.marker.Parent()
	contents := make([]*BindContent, len(newIdxs))
	for i, li := range newIdxs {
		bc, err := lb.obtain(li)
		if err != nil {
			return err
		}
		li.SetPosition(i)
		contents[i] = bc
	}

	if parent.IsConnected() && len(contents) > 1 {
		frag := lb.engine.Factory().Fragment()
		for _, bc := range contents {
			for _, n := range bc.nodes {
				frag.AppendChild(n)
			}
			bc.parent = parent
			bc.mounted = true
		}
		parent.InsertBefore(frag, lb.marker)
	} else {
		for _, bc := range contents {
			bc.MountBefore(parent, lb.marker)
		}
	}

	lb.contents = contents
	for _, bc := range contents {
		lb.byIndex[bc.ListIndex()] = bc
	}
	return lb.renderAdded(r, contents)
}

// reorder re-seats existing instances into the new order with the
// fewest moves: walking backward from the marker, an instance already
// sitting immediately before the running anchor stays put.
func (lb *LoopBinding) reorder(newIdxs []*statepath.ListIndex) error {
	parent := lb.marker.Parent()
	contents := make([]*BindContent, len(newIdxs))
	var next host.Node = lb.marker
	for i := len(newIdxs) - 1; i >= 0; i-- {
		li := newIdxs[i]
		bc := lb.byIndex[li]
		li.SetPosition(i)
		contents[i] = bc
		if bc.LastNode().NextSibling() != next {
			bc.Unmount()
			bc.MountBefore(parent, next)
		}
		next = bc.FirstNode()
	}
	lb.contents = contents
	return nil
}

// reconcileMixed handles combined additions, removals and moves:
// removals retire to the pool first so additions can reuse them, then
// one backward placement pass seats everything.
func (lb *LoopBinding) reconcileMixed(r *Renderer, newIdxs []*statepath.ListIndex) error {
	newSet := make(map[*statepath.ListIndex]struct{}, len(newIdxs))
	for _, li := range newIdxs {
		newSet[li] = struct{}{}
	}
	for _, bc := range lb.contents {
		if _, keep := newSet[bc.ListIndex()]; !keep {
			lb.discard(bc, true)
		}
	}

	contents := make([]*BindContent, len(newIdxs))
	var added []*BindContent
	for i, li := range newIdxs {
		if bc, ok := lb.byIndex[li]; ok {
			contents[i] = bc
			continue
		}
		bc, err := lb.obtain(li)
		if err != nil {
			return err
		}
		contents[i] = bc
		added = append(added, bc)
	}

	parent := lb.marker.Parent()
	var next host.Node = lb.marker
	for i := len(newIdxs) - 1; i >= 0; i-- {
		bc := contents[i]
		newIdxs[i].SetPosition(i)
		switch {
		case !bc.mounted:
			bc.MountBefore(parent, next)
		case bc.LastNode().NextSibling() != next:
			bc.Unmount()
			bc.MountBefore(parent, next)
		}
		next = bc.FirstNode()
	}

	lb.contents = contents
	lb.byIndex = make(map[*statepath.ListIndex]*BindContent, len(contents))
	for _, bc := range contents {
		lb.byIndex[bc.ListIndex()] = bc
	}
	return lb.renderAdded(r, added)
}

// obtain returns an instance for li, reusing the most recently pooled
// one when available.
func (lb *LoopBinding) obtain(li *statepath.ListIndex) (*BindContent, error) {
	if n := len(lb.pool); n > 0 {
		bc := lb.pool[n-1]
		lb.pool = lb.pool[:n-1]
		bc.AssignListIndex(li)
		if err := bc.Activate(); err != nil {
			return nil, err
		}
		lb.engine.Metrics().IncPool(true)
		return bc, nil
	}

	elemRef := lb.engine.Caches().Ref(lb.elemInfo(), li)
	frame := state.NewLoopContext(lb.parentLoop, elemRef)
	bc, err := NewBindContent(lb.engine, lb.templateID, frame)
	if err != nil {
		return nil, err
	}
	lb.creations++
	if err := bc.Activate(); err != nil {
		return nil, err
	}
	lb.engine.Metrics().IncPool(false)
	return bc, nil
}

// discard retires an instance whose element left the list. Its old
// identity's caches are released; the instance itself is pooled.
func (lb *LoopBinding) discard(bc *BindContent, unmount bool) {
	li := bc.ListIndex()
	if unmount {
		bc.Unmount()
	}
	bc.Deactivate()
	delete(lb.byIndex, li)
	lb.engine.ReleaseListIndex(li)
	lb.pool = append(lb.pool, bc)
}

// renderAdded renders the full subtree of every freshly added
// element.
func (lb *LoopBinding) renderAdded(r *Renderer, added []*BindContent) error {
	caches := lb.engine.Caches()
	info := lb.elemInfo()
	for _, bc := range added {
		if err := r.RenderRef(caches.Ref(info, bc.ListIndex())); err != nil {
			return err
		}
	}
	return nil
}
