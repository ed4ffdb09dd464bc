// Package render applies committed state changes to bound consumers.
// It owns the per-pass Renderer walk, the BindContent render-instance
// lifecycle, and the list reconciler that keeps repeated template
// instances aligned with array state.
package render

import (
	"log/slog"

	"github.com/structivejs/structive/pkg/host"
	"github.com/structivejs/structive/pkg/metrics"
	"github.com/structivejs/structive/pkg/state"
	"github.com/structivejs/structive/pkg/statepath"
)

// Consumer is one binding endpoint: anything that reacts to a state
// change at the ref it is registered under. A consumer that produces a
// change reports it with Renderer.MarkUpdated so later visits of the
// same pass skip it.
type Consumer interface {
	ApplyChange(r *Renderer) error
}

// ListConsumer is a consumer bound to a list pattern that can handle
// element-level changes in one shot instead of per-element visits.
type ListConsumer interface {
	Consumer

	// ApplyElementChanges reconciles changes to individual elements of
	// the bound list, where changes holds the element refs from the
	// current batch.
	ApplyElementChanges(r *Renderer, changes []*statepath.Ref) error
}

// Phase orders deferred work within a pass. Structural insertions and
// removals happen inline; value work that must observe the final tree
// is deferred.
type Phase int

const (
	// PhaseApply runs plain deferred applies.
	PhaseApply Phase = iota

	// PhaseApplySelect runs selection-dependent applies after every
	// PhaseApply function, so option lists exist before a selection
	// value lands.
	PhaseApplySelect

	numPhases
)

// Engine is the pass-spanning runtime the Renderer and the consumers
// operate against. The update scheduler implements it.
type Engine interface {
	// Caches returns the interning caches of this runtime.
	Caches() *statepath.Caches

	// Proxy returns the read view consumers pull values through.
	Proxy() state.Proxy

	// Logger returns the runtime logger.
	Logger() *slog.Logger

	// Metrics returns the runtime metrics. May be nil-valued but never
	// a nil interface result.
	Metrics() *metrics.Metrics

	// Factory returns the host node factory.
	Factory() host.Factory

	// Templates returns the template store render instances
	// instantiate from.
	Templates() TemplateStore

	// BindingsFor returns the consumers registered under ref.
	BindingsFor(ref *statepath.Ref) []Consumer

	// AddBinding registers c under ref.
	AddBinding(ref *statepath.Ref, c Consumer)

	// RemoveBinding unregisters c from ref.
	RemoveBinding(ref *statepath.Ref, c Consumer)

	// ReleaseListIndex drops every per-index cache entry held for li.
	// Called when the render instance owning li leaves the tree for
	// good.
	ReleaseListIndex(li *statepath.ListIndex)

	// DependentsOf returns the patterns dynamically depending on info.
	DependentsOf(info *statepath.Info) ([]*statepath.Info, error)

	// ListIndexes returns the current element identities of the list
	// at ref, reconciled against the current value.
	ListIndexes(ref *statepath.Ref) ([]*statepath.ListIndex, error)

	// RetainedIndexes returns the identity snapshot saved for ref by
	// the previous pass, or nil.
	RetainedIndexes(ref *statepath.Ref) []*statepath.ListIndex

	// RetainIndexes saves the identity snapshot for ref until the next
	// pass.
	RetainIndexes(ref *statepath.Ref, idxs []*statepath.ListIndex)
}

// CreateConsumerFunc builds the consumer for one binding spec, bound
// to its instantiated node and the loop frame it renders under.
type CreateConsumerFunc func(node host.Node, loop *state.LoopContext) Consumer

// BindingSpec declares one binding inside a template: which node of
// the instantiated fragment it attaches to (by child-index path from
// the fragment root) and which state pattern drives it.
type BindingSpec struct {
	NodePath []int
	Pattern  string
	Create   CreateConsumerFunc
}

// TemplateStore resolves template IDs to instantiable content.
type TemplateStore interface {
	// Instantiate builds a fresh detached fragment for templateID.
	Instantiate(templateID int) (host.Node, error)

	// BindingSpecs returns the binding declarations of templateID.
	BindingSpecs(templateID int) ([]BindingSpec, error)
}
