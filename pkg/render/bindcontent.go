package render

import (
	"github.com/structivejs/structive/internal/errors"
	"github.com/structivejs/structive/pkg/host"
	"github.com/structivejs/structive/pkg/state"
	"github.com/structivejs/structive/pkg/statepath"
)

// BindContent is one render instance of a template: the instantiated
// nodes plus the consumers its binding specs produced. Instances move
// through a fixed lifecycle: constructed, activated, mounted,
// unmounted, pooled, reactivated. Activation controls whether the
// instance's bindings are registered with the engine; mounting
// controls whether its nodes are in the host tree. The two are
// independent so pooled instances can stay constructed but inert.
type BindContent struct {
	engine     Engine
	templateID int

	// loop is the frame this instance renders under, owned by the
	// instance for its whole life. Nil for non-loop content.
	loop *state.LoopContext

	nodes    []host.Node
	bindings []contentBinding
	active   bool
	mounted  bool
	parent   host.Node
}

type contentBinding struct {
	info     *statepath.Info
	consumer Consumer

	// ref is the concrete registration, set while active.
	ref *statepath.Ref
}

// NewBindContent instantiates templateID and builds its consumers
// under loop. The instance starts inactive and unmounted.
func NewBindContent(engine Engine, templateID int, loop *state.LoopContext) (*BindContent, error) {
	frag, err := engine.Templates().Instantiate(templateID)
	if err != nil {
		return nil, err
	}
	specs, err := engine.Templates().BindingSpecs(templateID)
	if err != nil {
		return nil, err
	}

	bc := &BindContent{
		engine:     engine,
		templateID: templateID,
		loop:       loop,
	}
	for i := 0; i < frag.ChildCount(); i++ {
		bc.nodes = append(bc.nodes, frag.ChildAt(i))
	}

	caches := engine.Caches()
	for _, spec := range specs {
		node := nodeAt(frag, spec.NodePath)
		if node == nil {
			return nil, errors.New("consumer-contract-violation").
				WithDetail("binding node path does not resolve in template").
				WithContext("template", templateID).
				WithContext("path", spec.Pattern)
		}
		bc.bindings = append(bc.bindings, contentBinding{
			info:     caches.Info(spec.Pattern),
			consumer: spec.Create(node, loop),
		})
	}
	return bc, nil
}

// nodeAt walks a child-index path from root.
func nodeAt(root host.Node, path []int) host.Node {
	node := root
	for _, i := range path {
		if node == nil {
			return nil
		}
		node = node.ChildAt(i)
	}
	return node
}

// TemplateID returns the template this instance was built from.
func (bc *BindContent) TemplateID() int {
	return bc.templateID
}

// Loop returns the loop frame this instance renders under.
func (bc *BindContent) Loop() *state.LoopContext {
	return bc.loop
}

// ListIndex returns the element identity this instance is assigned
// to, or nil for non-loop content.
func (bc *BindContent) ListIndex() *statepath.ListIndex {
	return bc.loop.ListIndex()
}

// Nodes returns the instance's top-level nodes.
func (bc *BindContent) Nodes() []host.Node {
	return bc.nodes
}

// FirstNode returns the first top-level node, or nil.
func (bc *BindContent) FirstNode() host.Node {
	if len(bc.nodes) == 0 {
		return nil
	}
	return bc.nodes[0]
}

// LastNode returns the last top-level node, or nil.
func (bc *BindContent) LastNode() host.Node {
	if len(bc.nodes) == 0 {
		return nil
	}
	return bc.nodes[len(bc.nodes)-1]
}

// IsActive reports whether the instance's bindings are registered.
func (bc *BindContent) IsActive() bool {
	return bc.active
}

// IsMounted reports whether the instance's nodes are in a parent.
func (bc *BindContent) IsMounted() bool {
	return bc.mounted
}

// AssignListIndex repoints a pooled instance at a new element
// identity. Must be called while inactive; the following Activate
// registers the bindings under the new identity.
func (bc *BindContent) AssignListIndex(li *statepath.ListIndex) {
	elem := bc.loop.Ref()
	bc.loop.SetRef(bc.engine.Caches().Ref(elem.Info, li))
}

// Activate registers every binding of this instance with the engine.
// Wildcard patterns resolve their index levels against the instance's
// loop frame. Activating an active instance is a no-op.
func (bc *BindContent) Activate() error {
	if bc.active {
		return nil
	}
	caches := bc.engine.Caches()
	for i := range bc.bindings {
		b := &bc.bindings[i]
		var li *statepath.ListIndex
		if n := b.info.WildcardCount; n > 0 {
			li = bc.loop.ListIndexFor(b.info.WildcardInfos[n-1])
			if li == nil {
				return errors.New("loop-context-missing").
					WithContext("path", b.info.Pattern)
			}
		}
		b.ref = caches.Ref(b.info, li)
		bc.engine.AddBinding(b.ref, b.consumer)
	}
	bc.active = true
	return nil
}

// Deactivate unregisters every binding. The instance keeps its nodes
// and consumers and can be reactivated, possibly under a different
// element identity.
func (bc *BindContent) Deactivate() {
	if !bc.active {
		return
	}
	for i := range bc.bindings {
		b := &bc.bindings[i]
		bc.engine.RemoveBinding(b.ref, b.consumer)
		b.ref = nil
	}
	bc.active = false
}

// Mount appends the instance's nodes to parent.
func (bc *BindContent) Mount(parent host.Node) {
	bc.MountBefore(parent, nil)
}

// MountBefore inserts the instance's nodes into parent before ref,
// batched through a fragment so connected parents see one splice.
func (bc *BindContent) MountBefore(parent host.Node, ref host.Node) {
	frag := bc.engine.Factory().Fragment()
	for _, n := range bc.nodes {
		frag.AppendChild(n)
	}
	parent.InsertBefore(frag, ref)
	bc.parent = parent
	bc.mounted = true
}

// MountAfter inserts the instance's nodes immediately after prev's
// last node, or at the start of parent when prev is nil.
func (bc *BindContent) MountAfter(parent host.Node, prev *BindContent) {
	var before host.Node
	if prev != nil {
		before = prev.LastNode().NextSibling()
	} else {
		before = parent.ChildAt(0)
	}
	bc.MountBefore(parent, before)
}

// Unmount detaches the instance's nodes from their parent. The nodes
// stay owned by the instance for remounting.
func (bc *BindContent) Unmount() {
	if !bc.mounted {
		return
	}
	for _, n := range bc.nodes {
		bc.parent.RemoveChild(n)
	}
	bc.parent = nil
	bc.mounted = false
}

// ApplyAll applies every consumer of this instance. Used when the
// instance enters the tree and must render its full content.
func (bc *BindContent) ApplyAll(r *Renderer) error {
	for i := range bc.bindings {
		if err := r.applyConsumer(bc.bindings[i].consumer); err != nil {
			return err
		}
	}
	return nil
}
