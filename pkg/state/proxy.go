package state

import (
	"github.com/structivejs/structive/internal/errors"
	"github.com/structivejs/structive/pkg/statepath"
)

// Proxy is the property-access entry point. Exactly two concrete
// types implement it: ReadonlyProxy and WritableProxy. The variant is
// chosen at construction; a live proxy never changes behavior.
type Proxy interface {
	// Get returns the current value for ref, recording a dynamic
	// dependency edge when a computed evaluation is active.
	Get(ref *statepath.Ref) (any, error)

	// Set writes value at ref. Read-only views reject it.
	Set(ref *statepath.Ref, value any) error

	// Has reports whether ref resolves to an existing slot.
	Has(ref *statepath.Ref) bool

	// Call dispatches a reserved "$" operation by name.
	Call(name string, args ...any) (any, error)

	// Loop returns the active loop-context stack.
	Loop() *LoopContext

	// WithLoop derives a proxy of the same kind with lc pushed as the
	// active loop-context stack.
	WithLoop(lc *LoopContext) Proxy

	// Store returns the underlying store.
	Store() *Store
}

// ReadonlyProxy is the render-time view: reads track dependencies,
// writes fail with write-rejection.
type ReadonlyProxy struct {
	store *Store
	loop  *LoopContext
}

// NewReadonly creates a read-only view over store.
func NewReadonly(store *Store, loop *LoopContext) *ReadonlyProxy {
	return &ReadonlyProxy{store: store, loop: loop}
}

func (p *ReadonlyProxy) Get(ref *statepath.Ref) (any, error) {
	return p.store.getValue(ref, p.loop, p)
}

func (p *ReadonlyProxy) Set(ref *statepath.Ref, _ any) error {
	return errors.New("write-rejection").WithContext("path", ref.Info.Pattern)
}

func (p *ReadonlyProxy) Has(ref *statepath.Ref) bool {
	return p.store.hasValue(ref, p.loop)
}

func (p *ReadonlyProxy) Call(name string, args ...any) (any, error) {
	return callReserved(p, name, args)
}

func (p *ReadonlyProxy) Loop() *LoopContext {
	return p.loop
}

func (p *ReadonlyProxy) WithLoop(lc *LoopContext) Proxy {
	return &ReadonlyProxy{store: p.store, loop: lc}
}

func (p *ReadonlyProxy) Store() *Store {
	return p.store
}

// WritableProxy is the mutation-scope view: Set commits the value and
// forwards the Ref to the scheduler through the sink.
type WritableProxy struct {
	store *Store
	loop  *LoopContext
	sink  ChangeSink
}

// NewWritable creates a writable view over store. Every committed
// write is forwarded to sink.
func NewWritable(store *Store, loop *LoopContext, sink ChangeSink) *WritableProxy {
	return &WritableProxy{store: store, loop: loop, sink: sink}
}

func (p *WritableProxy) Get(ref *statepath.Ref) (any, error) {
	return p.store.getValue(ref, p.loop, p)
}

func (p *WritableProxy) Set(ref *statepath.Ref, value any) error {
	if err := p.store.setValue(ref, p.loop, value); err != nil {
		return err
	}
	p.sink.EnqueueRef(ref)
	return nil
}

func (p *WritableProxy) Has(ref *statepath.Ref) bool {
	return p.store.hasValue(ref, p.loop)
}

func (p *WritableProxy) Call(name string, args ...any) (any, error) {
	return callReserved(p, name, args)
}

func (p *WritableProxy) Loop() *LoopContext {
	return p.loop
}

func (p *WritableProxy) WithLoop(lc *LoopContext) Proxy {
	return &WritableProxy{store: p.store, loop: lc, sink: p.sink}
}

func (p *WritableProxy) Store() *Store {
	return p.store
}
