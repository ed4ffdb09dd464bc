// Package template holds the registry of instantiable content. A
// template is a declarative node shape plus the binding specs that
// attach consumers to its instantiated nodes. Registration assigns
// stable integer IDs; render instances refer to templates by ID only.
package template

import (
	"sync"

	"github.com/structivejs/structive/internal/errors"
	"github.com/structivejs/structive/pkg/host"
	"github.com/structivejs/structive/pkg/render"
)

// NodeKind selects the host node a template node instantiates to.
type NodeKind uint8

const (
	KindElement NodeKind = iota
	KindText
	KindMarker
)

// Node is one declarative node of a template shape.
type Node struct {
	Kind     NodeKind
	Tag      string
	Text     string
	Children []Node
}

// Element builds an element node.
func Element(tag string, children ...Node) Node {
	return Node{Kind: KindElement, Tag: tag, Children: children}
}

// Text builds a text node.
func Text(text string) Node {
	return Node{Kind: KindText, Text: text}
}

// Marker builds a marker node, the anchor a nested list binding keeps
// at its slot.
func Marker() Node {
	return Node{Kind: KindMarker}
}

type entry struct {
	nodes    []Node
	bindings []render.BindingSpec
}

// Registry assigns IDs to templates and instantiates them through a
// host factory. Registration is append-only; IDs are never reused.
type Registry struct {
	mu      sync.RWMutex
	factory host.Factory
	entries map[int]*entry
	nextID  int
}

// NewRegistry creates an empty registry instantiating through
// factory.
func NewRegistry(factory host.Factory) *Registry {
	return &Registry{
		factory: factory,
		entries: make(map[int]*entry),
	}
}

// Register adds a template and returns its ID.
func (r *Registry) Register(nodes []Node, bindings []render.BindingSpec) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.entries[r.nextID] = &entry{nodes: nodes, bindings: bindings}
	return r.nextID
}

// Len returns the number of registered templates.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Registry) lookup(templateID int) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[templateID]
	if !ok {
		return nil, errors.New("template-missing").
			WithContext("template", templateID)
	}
	return e, nil
}

// Instantiate builds a fresh detached fragment holding the template's
// node shape.
func (r *Registry) Instantiate(templateID int) (host.Node, error) {
	e, err := r.lookup(templateID)
	if err != nil {
		return nil, err
	}
	frag := r.factory.Fragment()
	for _, n := range e.nodes {
		frag.AppendChild(r.build(n))
	}
	return frag, nil
}

func (r *Registry) build(n Node) host.Node {
	switch n.Kind {
	case KindText:
		return r.factory.Text(n.Text)
	case KindMarker:
		return r.factory.Marker()
	}
	el := r.factory.Element(n.Tag)
	for _, c := range n.Children {
		el.AppendChild(r.build(c))
	}
	return el
}

// BindingSpecs returns the binding declarations of templateID.
func (r *Registry) BindingSpecs(templateID int) ([]render.BindingSpec, error) {
	e, err := r.lookup(templateID)
	if err != nil {
		return nil, err
	}
	return e.bindings, nil
}
