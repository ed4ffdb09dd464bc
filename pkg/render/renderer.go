package render

import (
	"sort"

	"github.com/structivejs/structive/pkg/statepath"
)

// Renderer walks the structured path index once per pass and applies
// bound consumers. A Renderer is created per pass and discarded; the
// cross-pass state (retained index snapshots, consumer tables) lives
// on the Engine.
type Renderer struct {
	engine Engine

	// updated holds consumers that already applied this pass.
	// Consumers self-report into it via MarkUpdated.
	updated map[Consumer]struct{}

	// processed holds refs already visited this pass.
	processed map[*statepath.Ref]struct{}

	deferred [numPhases][]func() error
}

// New creates a renderer for one pass over engine.
func New(engine Engine) *Renderer {
	return &Renderer{
		engine:    engine,
		updated:   make(map[Consumer]struct{}),
		processed: make(map[*statepath.Ref]struct{}),
	}
}

// Engine returns the engine backing this pass.
func (r *Renderer) Engine() Engine {
	return r.engine
}

// MarkUpdated records that c produced a change this pass. Further
// apply requests for c are skipped.
func (r *Renderer) MarkUpdated(c Consumer) {
	r.updated[c] = struct{}{}
}

// WasUpdated reports whether c already applied this pass.
func (r *Renderer) WasUpdated(c Consumer) bool {
	_, ok := r.updated[c]
	return ok
}

// Defer queues fn into a later apply phase of this pass. Phases run
// after all structural insertions and removals, in phase order.
func (r *Renderer) Defer(phase Phase, fn func() error) {
	r.deferred[phase] = append(r.deferred[phase], fn)
}

// Render applies one batch of changed refs: groups element-level refs
// under their owning list, walks the index for the rest, then drains
// the deferred phases. A consumer failure aborts the remainder of the
// pass.
func (r *Renderer) Render(refs []*statepath.Ref) error {
	caches := r.engine.Caches()

	inBatch := make(map[*statepath.Ref]struct{}, len(refs))
	for _, ref := range refs {
		inBatch[ref] = struct{}{}
	}

	// Group element-level refs by their owning list ref, preserving
	// first-seen order across lists.
	elementChanges := make(map[*statepath.Ref][]*statepath.Ref)
	var listOrder []*statepath.Ref
	var rest []*statepath.Ref

	for _, ref := range refs {
		listRef := caches.ListRefOf(ref)
		if listRef == nil {
			rest = append(rest, ref)
			continue
		}
		if _, ok := inBatch[listRef]; ok {
			// The list itself changed: its consumer owns the whole
			// subtree diff, element-by-element handling would
			// duplicate it.
			r.processed[ref] = struct{}{}
			continue
		}
		if _, seen := elementChanges[listRef]; !seen {
			listOrder = append(listOrder, listRef)
		}
		elementChanges[listRef] = append(elementChanges[listRef], ref)
	}

	// Apply each owning list's consumers once with the element
	// changes, then retire the elements.
	for _, listRef := range listOrder {
		changes := elementChanges[listRef]
		consumers := r.engine.BindingsFor(listRef)
		if len(consumers) == 0 {
			// No consumer owns the list itself: the elements render
			// individually so consumers bound straight to element refs
			// still apply.
			for _, ref := range changes {
				if err := r.renderRef(ref); err != nil {
					return err
				}
			}
			continue
		}
		for _, c := range consumers {
			if r.WasUpdated(c) {
				continue
			}
			var err error
			if lc, ok := c.(ListConsumer); ok {
				err = lc.ApplyElementChanges(r, changes)
			} else {
				err = r.applyConsumer(c)
			}
			if err != nil {
				return err
			}
		}
		for _, ref := range changes {
			r.processed[ref] = struct{}{}
		}
	}

	for _, ref := range rest {
		if err := r.renderRef(ref); err != nil {
			return err
		}
	}

	return r.drainDeferred()
}

// RenderRef visits a single ref outside batch grouping. The list
// reconciler uses it for freshly added elements.
func (r *Renderer) RenderRef(ref *statepath.Ref) error {
	return r.renderRef(ref)
}

// renderRef applies ref's consumers, then recurses into static
// children and dynamic dependents. Each ref is visited at most once
// per pass.
func (r *Renderer) renderRef(ref *statepath.Ref) error {
	if _, done := r.processed[ref]; done {
		return nil
	}
	r.processed[ref] = struct{}{}

	caches := r.engine.Caches()
	node, err := caches.Node(ref.Info)
	if err != nil {
		return err
	}

	for _, c := range r.engine.BindingsFor(ref) {
		if err := r.applyConsumer(c); err != nil {
			return err
		}
	}

	// Static children. Ordinary children inherit the parent's
	// ListIndex; wildcard children are visited only for element
	// identities newly present since the previous pass.
	names := make([]string, 0, len(node.Children()))
	for name := range node.Children() {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if name == "*" {
			if err := r.renderNewElements(ref); err != nil {
				return err
			}
			continue
		}
		childInfo := caches.Info(ref.Info.Pattern + "." + name)
		if err := r.renderRef(caches.Ref(childInfo, ref.ListIndex)); err != nil {
			return err
		}
	}

	// Dynamic dependents, expanding wildcard levels index by index.
	deps, err := r.engine.DependentsOf(ref.Info)
	if err != nil {
		return err
	}
	for _, dep := range deps {
		targets, err := r.expandDependency(dep, ref)
		if err != nil {
			return err
		}
		for _, target := range targets {
			if err := r.renderRef(target); err != nil {
				return err
			}
		}
	}

	return nil
}

// renderNewElements descends into ref's wildcard child for the
// element identities added since the previous pass, computed as a set
// difference against the per-Ref snapshot retained across passes.
func (r *Renderer) renderNewElements(ref *statepath.Ref) error {
	caches := r.engine.Caches()
	cur, err := r.engine.ListIndexes(ref)
	if err != nil {
		return err
	}
	prev := r.engine.RetainedIndexes(ref)
	r.engine.RetainIndexes(ref, cur)

	prevSet := make(map[*statepath.ListIndex]struct{}, len(prev))
	for _, li := range prev {
		prevSet[li] = struct{}{}
	}

	childInfo := caches.Info(ref.Info.Pattern + ".*")
	for _, li := range cur {
		if _, ok := prevSet[li]; ok {
			continue
		}
		if err := r.renderRef(caches.Ref(childInfo, li)); err != nil {
			return err
		}
	}
	return nil
}

// expandDependency resolves a dependent pattern into concrete refs.
// Wildcard levels shared with the source ref narrow to its index; the
// rest enumerate the current element identities level by level.
func (r *Renderer) expandDependency(dep *statepath.Info, src *statepath.Ref) ([]*statepath.Ref, error) {
	caches := r.engine.Caches()
	if dep.WildcardCount == 0 {
		return []*statepath.Ref{caches.Ref(dep, nil)}, nil
	}

	var out []*statepath.Ref
	var expand func(level int, li *statepath.ListIndex) error
	expand = func(level int, li *statepath.ListIndex) error {
		if level == dep.WildcardCount {
			out = append(out, caches.Ref(dep, li))
			return nil
		}
		wild := dep.WildcardInfos[level]
		if src.ListIndex != nil && level < len(src.Info.WildcardInfos) && src.Info.WildcardInfos[level] == wild {
			if shared := src.ListIndex.At(level + 1); shared != nil {
				return expand(level+1, shared)
			}
		}
		listRef := caches.Ref(wild.Parent, li)
		idxs, err := r.engine.ListIndexes(listRef)
		if err != nil {
			return err
		}
		for _, next := range idxs {
			if err := expand(level+1, next); err != nil {
				return err
			}
		}
		return nil
	}

	if err := expand(0, nil); err != nil {
		return nil, err
	}
	return out, nil
}

// applyConsumer applies c unless it already reported a change this
// pass.
func (r *Renderer) applyConsumer(c Consumer) error {
	if r.WasUpdated(c) {
		return nil
	}
	r.engine.Metrics().IncApplies()
	return c.ApplyChange(r)
}

// drainDeferred runs the deferred phases in order. Work queued into a
// phase while it drains still runs within that phase.
func (r *Renderer) drainDeferred() error {
	for phase := Phase(0); phase < numPhases; phase++ {
		for i := 0; i < len(r.deferred[phase]); i++ {
			if err := r.deferred[phase][i](); err != nil {
				return err
			}
		}
		r.deferred[phase] = nil
	}
	return nil
}
