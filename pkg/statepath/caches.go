package statepath

import (
	"sync"

	"github.com/structivejs/structive/internal/errors"
)

// Caches owns every interned structure of one runtime: Infos, Refs,
// ListIndex identities, and the registered prefix tree. Independent
// runtimes (including test instances) get their own Caches and never
// share state. All maps are append-only.
type Caches struct {
	mu         sync.Mutex
	infos      map[string]*Info
	infoList   []*Info
	refs       map[refKey]*Ref
	nextListID uint64
	root       *Node
}

type refKey struct {
	infoID int
	listID uint64
}

// NewCaches creates an empty cache set with an empty index tree.
func NewCaches() *Caches {
	return &Caches{
		infos: make(map[string]*Info),
		refs:  make(map[refKey]*Ref),
		root:  &Node{children: make(map[string]*Node)},
	}
}

// Info returns the singleton Info for pattern, parsing and interning
// it on first use.
func (c *Caches) Info(pattern string) *Info {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.infoLocked(pattern)
}

func (c *Caches) infoLocked(pattern string) *Info {
	if info, ok := c.infos[pattern]; ok {
		return info
	}
	info := c.parseInfo(pattern)
	c.infos[pattern] = info
	c.infoList = append(c.infoList, info)
	return info
}

// Register interns pattern and adds it (and every prefix) to the
// index tree, so affected-path traversal can reach it.
func (c *Caches) Register(pattern string) *Info {
	c.mu.Lock()
	defer c.mu.Unlock()

	info := c.infoLocked(pattern)
	node := c.root
	for _, seg := range info.Segments {
		node = node.ensureChild(seg)
	}
	return info
}

// Root returns the root of the registered prefix tree.
func (c *Caches) Root() *Node {
	return c.root
}

// Node returns the index node for info, or a path-not-found error when
// the pattern was never registered. A missing node for a path expected
// to exist is a fatal configuration error.
func (c *Caches) Node(info *Info) (*Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node := c.root.find(info.Segments)
	if node == nil {
		return nil, errors.New("path-not-found").WithContext("path", info.Pattern)
	}
	return node, nil
}

// HasNode reports whether a pattern is registered in the index tree.
func (c *Caches) HasNode(info *Info) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.root.find(info.Segments) != nil
}

// Ref returns the singleton Ref for (info, li).
func (c *Caches) Ref(info *Info, li *ListIndex) *Ref {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := refKey{infoID: info.ID, listID: li.ID()}
	if ref, ok := c.refs[key]; ok {
		return ref
	}
	ref := &Ref{
		Info:      info,
		ListIndex: li,
		key:       refKeyString(info, li),
	}
	c.refs[key] = ref
	return ref
}

// NewListIndex allocates a fresh element identity at pos, chained
// under parent for nested lists.
func (c *Caches) NewListIndex(parent *ListIndex, pos int) *ListIndex {
	c.mu.Lock()
	c.nextListID++
	id := c.nextListID
	c.mu.Unlock()
	return &ListIndex{id: id, parent: parent, pos: pos}
}

// ParentRef returns the Ref of info's parent pattern, with the list
// index truncated to the parent's wildcard depth. Returns nil at the
// top of the path.
func (c *Caches) ParentRef(r *Ref) *Ref {
	parent := r.Info.Parent
	if parent == nil {
		return nil
	}
	var li *ListIndex
	if r.ListIndex != nil {
		li = r.ListIndex.Truncate(parent.WildcardCount)
	}
	return c.Ref(parent, li)
}

// ListRefOf returns the Ref of the list that owns r's deepest wildcard
// level ("items" for an "items.*.name" element), or nil when r's
// pattern has no wildcard. The element's own index level is dropped.
func (c *Caches) ListRefOf(r *Ref) *Ref {
	list := r.Info.OwningList()
	if list == nil {
		return nil
	}
	var li *ListIndex
	if r.ListIndex != nil {
		li = r.ListIndex.Truncate(list.WildcardCount)
	}
	return c.Ref(list, li)
}

// Patterns returns every interned pattern in intern order.
func (c *Caches) Patterns() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, len(c.infoList))
	for i, info := range c.infoList {
		out[i] = info.Pattern
	}
	return out
}
