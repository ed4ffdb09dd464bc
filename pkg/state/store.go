package state

import (
	"github.com/structivejs/structive/internal/errors"
	"github.com/structivejs/structive/pkg/statepath"
)

// GetterFunc is a computed property. It runs with an API bound to the
// reading proxy; every state read it performs records a dynamic
// dependency edge back to the computed pattern.
type GetterFunc func(*API) (any, error)

// ChangeSink receives the Ref of every value committed through a
// writable view. The update scheduler implements this.
type ChangeSink interface {
	EnqueueRef(ref *statepath.Ref)
}

// Navigator is the routing collaborator behind the reserved $navigate
// operation. Routing itself is outside the core.
type Navigator interface {
	Navigate(to string) error
}

// Store holds one component's state graph: the raw root, computed
// getters, the dynamic dependency graph, and the tracking stack for
// read-time dependency recording.
//
// The store is single-threaded by contract: all access happens on the
// cooperative update/render loop.
type Store struct {
	caches  *statepath.Caches
	root    map[string]any
	getters map[string]GetterFunc
	deps    *DepGraph

	// tracking is the stack of computed Refs currently evaluating.
	// Reads while non-empty record edges from the top entry.
	tracking []*statepath.Ref

	navigator Navigator
	component any
}

// NewStore creates a store over root. A nil root starts empty.
func NewStore(caches *statepath.Caches, root map[string]any) *Store {
	if root == nil {
		root = make(map[string]any)
	}
	return &Store{
		caches:  caches,
		root:    root,
		getters: make(map[string]GetterFunc),
		deps:    NewDepGraph(),
	}
}

// Caches returns the cache set this store interns against.
func (s *Store) Caches() *statepath.Caches {
	return s.caches
}

// Deps returns the dynamic dependency graph.
func (s *Store) Deps() *DepGraph {
	return s.deps
}

// RegisterGetter registers a computed property for pattern. The
// pattern is registered in the index tree so invalidation reaches it.
func (s *Store) RegisterGetter(pattern string, fn GetterFunc) {
	s.caches.Register(pattern)
	s.getters[pattern] = fn
}

// SetNavigator installs the routing collaborator used by $navigate.
func (s *Store) SetNavigator(n Navigator) {
	s.navigator = n
}

// SetComponent installs the host component handle returned by
// $component.
func (s *Store) SetComponent(c any) {
	s.component = c
}

// pushTracking enters a computed evaluation frame.
func (s *Store) pushTracking(ref *statepath.Ref) {
	s.tracking = append(s.tracking, ref)
}

// popTracking leaves the current computed evaluation frame.
func (s *Store) popTracking() {
	s.tracking = s.tracking[:len(s.tracking)-1]
}

// trackingTop returns the computed Ref currently evaluating, or nil.
func (s *Store) trackingTop() *statepath.Ref {
	if len(s.tracking) == 0 {
		return nil
	}
	return s.tracking[len(s.tracking)-1]
}

// recordRead records a dynamic edge from the active computation to the
// read pattern, if a computation is active.
func (s *Store) recordRead(info *statepath.Info) {
	top := s.trackingTop()
	if top == nil || top.Info == info {
		return
	}
	s.deps.AddEdge(top.Info.Pattern, info.Pattern)
}

// getValue returns the current value for ref. Computed patterns
// evaluate their getter under a tracking frame; raw patterns walk the
// state root.
func (s *Store) getValue(ref *statepath.Ref, loop *LoopContext, p Proxy) (any, error) {
	s.recordRead(ref.Info)

	if fn, ok := s.getters[ref.Info.Pattern]; ok {
		s.pushTracking(ref)
		defer s.popTracking()
		return fn(&API{store: s, proxy: p, loop: loop})
	}
	positions, err := s.resolvePositions(ref, loop)
	if err != nil {
		return nil, err
	}
	return s.walk(ref.Info, positions)
}

// setValue commits value at ref in the raw state root.
func (s *Store) setValue(ref *statepath.Ref, loop *LoopContext, value any) error {
	positions, err := s.resolvePositions(ref, loop)
	if err != nil {
		return err
	}
	return s.walkSet(ref.Info, positions, value)
}

// hasValue reports whether ref resolves to an existing slot.
func (s *Store) hasValue(ref *statepath.Ref, loop *LoopContext) bool {
	if _, ok := s.getters[ref.Info.Pattern]; ok {
		return true
	}
	positions, err := s.resolvePositions(ref, loop)
	if err != nil {
		return false
	}
	_, err = s.walk(ref.Info, positions)
	return err == nil
}

// resolvePositions maps each wildcard level of ref to a concrete array
// position, from the Ref's own ListIndex or from the loop-context
// stack. A level with neither is a fatal contract violation.
func (s *Store) resolvePositions(ref *statepath.Ref, loop *LoopContext) ([]int, error) {
	n := ref.Info.WildcardCount
	if n == 0 {
		return nil, nil
	}
	positions := make([]int, n)
	for level := 1; level <= n; level++ {
		li := ref.ListIndex.At(level)
		if li == nil {
			li = loop.ListIndexFor(ref.Info.WildcardInfos[level-1])
		}
		if li == nil {
			return nil, errors.New("loop-context-missing").
				WithContext("path", ref.Info.Pattern).
				WithContext("level", level)
		}
		positions[level-1] = li.Position()
	}
	return positions, nil
}
