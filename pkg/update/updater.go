package update

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/structivejs/structive/internal/errors"
	"github.com/structivejs/structive/pkg/host"
	"github.com/structivejs/structive/pkg/metrics"
	"github.com/structivejs/structive/pkg/render"
	"github.com/structivejs/structive/pkg/state"
	"github.com/structivejs/structive/pkg/statepath"
)

// Scheduler phases. Transactions open only from idle.
const (
	phaseIdle int32 = iota
	phaseMutating
	phaseDraining
)

// Updater owns the update cycle of one runtime: pending change
// batches, per-ref revision stamps, the binding table, per-list
// element identities, and pass completion. It is the render engine
// and the change sink in one, so committed writes flow straight into
// the next pass.
//
// All state access is single-threaded by contract; only the wake
// channel and the phase guard cross goroutines.
type Updater struct {
	store     *state.Store
	caches    *statepath.Caches
	logger    *slog.Logger
	metrics   *metrics.Metrics
	factory   host.Factory
	templates render.TemplateStore
	tracer    trace.Tracer

	phase   atomic.Int32
	running atomic.Bool
	wake    chan struct{}

	// qmu guards the pending batch and revision stamps, the one piece
	// of state the background loop shares with committers.
	qmu    sync.Mutex
	queue  []*statepath.Ref
	queued map[*statepath.Ref]struct{}

	// revision counts commits, version counts passes. Each queued ref
	// carries the revision of its latest commit.
	revision  uint64
	version   uint64
	revisions map[*statepath.Ref]uint64

	bindings map[*statepath.Ref][]render.Consumer
	retained map[*statepath.Ref][]*statepath.ListIndex
	lists    map[*statepath.Ref]*listRecord

	// indexRefs tracks which refs hold per-index engine state, so
	// releasing an element identity can evict all of it.
	indexRefs map[*statepath.ListIndex]map[*statepath.Ref]struct{}

	hooks map[string][]UpdatedHook

	lmu       sync.Mutex
	listeners []func(PassInfo)

	readonly state.Proxy
}

// UpdatedHook runs after a pass rendered a change at its registered
// pattern. For wildcard patterns, indexes holds one position tuple
// per changed element. A hook error rejects the pass's pending
// completions.
type UpdatedHook func(indexes [][]int) error

// Option configures an Updater.
type Option func(*Updater)

// WithLogger sets the runtime logger.
func WithLogger(logger *slog.Logger) Option {
	return func(u *Updater) { u.logger = logger }
}

// WithMetrics sets the runtime metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(u *Updater) { u.metrics = m }
}

// WithFactory sets the host node factory.
func WithFactory(f host.Factory) Option {
	return func(u *Updater) { u.factory = f }
}

// WithTemplates sets the template store render instances are built
// from.
func WithTemplates(ts render.TemplateStore) Option {
	return func(u *Updater) { u.templates = ts }
}

// New creates an updater over store.
func New(store *state.Store, opts ...Option) *Updater {
	u := &Updater{
		store:     store,
		caches:    store.Caches(),
		logger:    slog.Default(),
		factory:   host.MemoryFactory{},
		tracer:    otel.Tracer("structive/update"),
		wake:      make(chan struct{}, 1),
		queued:    make(map[*statepath.Ref]struct{}),
		revisions: make(map[*statepath.Ref]uint64),
		bindings:  make(map[*statepath.Ref][]render.Consumer),
		retained:  make(map[*statepath.Ref][]*statepath.ListIndex),
		lists:     make(map[*statepath.Ref]*listRecord),
		indexRefs: make(map[*statepath.ListIndex]map[*statepath.Ref]struct{}),
		hooks:     make(map[string][]UpdatedHook),
	}
	for _, opt := range opts {
		opt(u)
	}
	u.readonly = state.NewReadonly(store, nil)
	return u
}

// Store returns the underlying state store.
func (u *Updater) Store() *state.Store {
	return u.store
}

// Version returns the number of completed passes.
func (u *Updater) Version() uint64 {
	return u.version
}

// RevisionOf returns the commit revision last stamped on ref, or
// zero.
func (u *Updater) RevisionOf(ref *statepath.Ref) uint64 {
	u.qmu.Lock()
	defer u.qmu.Unlock()
	return u.revisions[ref]
}

// Pending returns the number of refs waiting for the next pass.
func (u *Updater) Pending() int {
	u.qmu.Lock()
	defer u.qmu.Unlock()
	return len(u.queue)
}

// EnqueueRef stamps and coalesces a committed write into the pending
// batch. Repeated writes to one ref render once per pass.
func (u *Updater) EnqueueRef(ref *statepath.Ref) {
	u.qmu.Lock()
	u.revision++
	u.revisions[ref] = u.revision
	if _, ok := u.queued[ref]; ok {
		u.qmu.Unlock()
		return
	}
	u.queued[ref] = struct{}{}
	u.queue = append(u.queue, ref)
	u.qmu.Unlock()
	u.trackIndex(ref)
	u.wakeUp()
}

// takeBatch swaps out the pending batch for the next pass.
func (u *Updater) takeBatch() []*statepath.Ref {
	u.qmu.Lock()
	defer u.qmu.Unlock()
	batch := u.queue
	u.queue = nil
	u.queued = make(map[*statepath.Ref]struct{})
	return batch
}

func (u *Updater) wakeUp() {
	select {
	case u.wake <- struct{}{}:
	default:
	}
}

// Caches returns the interning caches.
func (u *Updater) Caches() *statepath.Caches {
	return u.caches
}

// Proxy returns the read-only view consumers read through.
func (u *Updater) Proxy() state.Proxy {
	return u.readonly
}

// Logger returns the runtime logger.
func (u *Updater) Logger() *slog.Logger {
	return u.logger
}

// Metrics returns the runtime metrics, possibly nil-valued.
func (u *Updater) Metrics() *metrics.Metrics {
	return u.metrics
}

// Factory returns the host node factory.
func (u *Updater) Factory() host.Factory {
	return u.factory
}

// Templates returns the template store.
func (u *Updater) Templates() render.TemplateStore {
	return u.templates
}

// BindingsFor returns the consumers registered under ref.
func (u *Updater) BindingsFor(ref *statepath.Ref) []render.Consumer {
	return u.bindings[ref]
}

// AddBinding registers c under ref.
func (u *Updater) AddBinding(ref *statepath.Ref, c render.Consumer) {
	u.bindings[ref] = append(u.bindings[ref], c)
	u.trackIndex(ref)
}

// RemoveBinding unregisters c from ref.
func (u *Updater) RemoveBinding(ref *statepath.Ref, c render.Consumer) {
	list := u.bindings[ref]
	for i, got := range list {
		if got == c {
			u.bindings[ref] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(u.bindings[ref]) == 0 {
		delete(u.bindings, ref)
	}
}

// ReleaseListIndex evicts every piece of engine state held under li:
// bindings, retained snapshots, revision stamps, and list records of
// nested lists.
func (u *Updater) ReleaseListIndex(li *statepath.ListIndex) {
	refs := u.indexRefs[li]
	if refs == nil {
		return
	}
	u.qmu.Lock()
	for ref := range refs {
		delete(u.revisions, ref)
	}
	u.qmu.Unlock()
	for ref := range refs {
		delete(u.bindings, ref)
		delete(u.retained, ref)
		delete(u.lists, ref)
	}
	delete(u.indexRefs, li)
}

// trackIndex records ref under every identity in its index chain.
func (u *Updater) trackIndex(ref *statepath.Ref) {
	for li := ref.ListIndex; li != nil; li = li.Parent() {
		set := u.indexRefs[li]
		if set == nil {
			set = make(map[*statepath.Ref]struct{})
			u.indexRefs[li] = set
		}
		set[ref] = struct{}{}
	}
}

// DependentsOf returns the patterns dynamically depending on info. A
// dependent that was never registered in the index tree indicates a
// corrupted dependency graph.
func (u *Updater) DependentsOf(info *statepath.Info) ([]*statepath.Info, error) {
	patterns := u.store.Deps().Dependents(info.Pattern)
	if len(patterns) == 0 {
		return nil, nil
	}
	out := make([]*statepath.Info, 0, len(patterns))
	for _, pattern := range patterns {
		dep := u.caches.Info(pattern)
		if !u.caches.HasNode(dep) {
			return nil, errors.New("dependency-graph-inconsistency").
				WithContext("source", info.Pattern).
				WithContext("dependent", pattern)
		}
		out = append(out, dep)
	}
	return out, nil
}

// RetainedIndexes returns the identity snapshot saved for ref, or
// nil.
func (u *Updater) RetainedIndexes(ref *statepath.Ref) []*statepath.ListIndex {
	return u.retained[ref]
}

// RetainIndexes saves the identity snapshot for ref.
func (u *Updater) RetainIndexes(ref *statepath.Ref, idxs []*statepath.ListIndex) {
	u.retained[ref] = idxs
	u.trackIndex(ref)
}

// RegisterUpdatedHook runs fn after every pass that rendered a change
// at pattern. The pattern is registered in the index tree.
func (u *Updater) RegisterUpdatedHook(pattern string, fn UpdatedHook) {
	u.caches.Register(pattern)
	u.hooks[pattern] = append(u.hooks[pattern], fn)
}

// PassInfo summarizes one completed render pass.
type PassInfo struct {
	Version  uint64        `json:"version"`
	Refs     int           `json:"refs"`
	Duration time.Duration `json:"duration"`
	Failed   bool          `json:"failed"`
}

// AddPassListener registers fn to observe every completed pass.
// Listeners run on the draining goroutine and must not block.
func (u *Updater) AddPassListener(fn func(PassInfo)) {
	u.lmu.Lock()
	u.listeners = append(u.listeners, fn)
	u.lmu.Unlock()
}

// notifyPass fans a pass summary out to all listeners. The listener
// slice is copied before notifying so listeners may register more
// listeners.
func (u *Updater) notifyPass(info PassInfo) {
	u.lmu.Lock()
	listeners := make([]func(PassInfo), len(u.listeners))
	copy(listeners, u.listeners)
	u.lmu.Unlock()
	for _, fn := range listeners {
		fn(info)
	}
}
