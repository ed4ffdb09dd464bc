package render_test

import (
	"context"
	"testing"

	"github.com/structivejs/structive/internal/errors"
	"github.com/structivejs/structive/pkg/host"
	"github.com/structivejs/structive/pkg/render"
	"github.com/structivejs/structive/pkg/state"
	"github.com/structivejs/structive/pkg/statepath"
	"github.com/structivejs/structive/pkg/template"
	"github.com/structivejs/structive/pkg/update"
)

// fixture wires a store, template registry, updater and a connected
// root with a list binding over "items".
type fixture struct {
	caches  *statepath.Caches
	store   *state.Store
	updater *update.Updater
	reg     *template.Registry
	root    *host.TreeNode
	loop    *render.LoopBinding
}

func newFixture(t *testing.T, items []any) *fixture {
	t.Helper()
	caches := statepath.NewCaches()
	store := state.NewStore(caches, map[string]any{"items": items})
	reg := template.NewRegistry(host.MemoryFactory{})
	u := update.New(store, update.WithTemplates(reg))

	caches.Register("items")
	caches.Register("items.*")

	tplID := reg.Register(
		[]template.Node{template.Element("li", template.Text(""))},
		[]render.BindingSpec{{
			NodePath: []int{0, 0},
			Pattern:  "items.*",
			Create: func(node host.Node, loop *state.LoopContext) render.Consumer {
				return render.NewTextBinding(u, "items.*", loop, node.(*host.TreeNode))
			},
		}},
	)

	root := host.NewRoot("ul")
	marker := host.MemoryFactory{}.Marker()
	root.AppendChild(marker)

	lb := render.NewLoopBinding(u, "items", tplID, marker, nil)
	u.AddBinding(caches.Ref(caches.Info("items"), nil), lb)

	return &fixture{caches: caches, store: store, updater: u, reg: reg, root: root, loop: lb}
}

func (f *fixture) setItems(t *testing.T, items []any) {
	t.Helper()
	ref := f.caches.Ref(f.caches.Info("items"), nil)
	err := f.updater.Update(context.Background(), nil, func(p state.Proxy) error {
		return p.Set(ref, items)
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
}

// texts returns the rendered item texts in child order, skipping the
// marker.
func (f *fixture) texts() []string {
	var out []string
	for i := 0; i < f.root.ChildCount(); i++ {
		n := f.root.ChildAt(i).(*host.TreeNode)
		if n.Kind() != host.KindElement {
			continue
		}
		out = append(out, n.ChildAt(0).(*host.TreeNode).Text())
	}
	return out
}

func (f *fixture) itemNodes() []host.Node {
	var out []host.Node
	for i := 0; i < f.root.ChildCount(); i++ {
		n := f.root.ChildAt(i).(*host.TreeNode)
		if n.Kind() == host.KindElement {
			out = append(out, n)
		}
	}
	return out
}

func assertTexts(t *testing.T, f *fixture, want ...string) {
	t.Helper()
	got := f.texts()
	if len(got) != len(want) {
		t.Fatalf("rendered %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rendered %v, want %v", got, want)
		}
	}
}

func TestLoopBindingPopulatesList(t *testing.T) {
	f := newFixture(t, nil)
	f.setItems(t, []any{"a", "b", "c"})

	assertTexts(t, f, "a", "b", "c")
	if got := f.loop.Creations(); got != 3 {
		t.Fatalf("creations = %d, want 3", got)
	}
	// marker stays as the last child
	last := f.root.ChildAt(f.root.ChildCount() - 1).(*host.TreeNode)
	if last.Kind() != host.KindMarker {
		t.Fatalf("last child kind = %v, want marker", last.Kind())
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	f.setItems(t, []any{"a", "b"})
	nodes := f.itemNodes()
	mutations := f.root.Mutations

	f.setItems(t, []any{"a", "b"})

	assertTexts(t, f, "a", "b")
	if f.root.Mutations != mutations {
		t.Fatalf("no-op pass mutated the tree: %d -> %d", mutations, f.root.Mutations)
	}
	for i, n := range f.itemNodes() {
		if n != nodes[i] {
			t.Fatalf("node %d was rebuilt", i)
		}
	}
}

func TestListDiffKeepsSurvivorIdentity(t *testing.T) {
	f := newFixture(t, nil)
	f.setItems(t, []any{0, 1, 2})
	before := f.itemNodes()

	f.setItems(t, []any{1, 2, 3})

	assertTexts(t, f, "1", "2", "3")
	after := f.itemNodes()
	// elements 1 and 2 survive with their nodes; 0 retired, 3 reused
	// its pooled instance
	if after[0] != before[1] || after[1] != before[2] {
		t.Fatal("surviving elements did not keep their nodes")
	}
	if got := f.loop.Creations(); got != 3 {
		t.Fatalf("creations = %d, want 3 (pooled reuse expected)", got)
	}
}

func TestReorderMovesExistingNodes(t *testing.T) {
	a := map[string]any{"v": "a"}
	b := map[string]any{"v": "b"}
	c := map[string]any{"v": "c"}
	f := newFixture(t, nil)
	f.setItems(t, []any{a, b, c})
	before := f.itemNodes()

	f.setItems(t, []any{c, a, b})

	after := f.itemNodes()
	if after[0] != before[2] || after[1] != before[0] || after[2] != before[1] {
		t.Fatal("reorder rebuilt nodes instead of moving them")
	}
	if got := f.loop.Creations(); got != 3 {
		t.Fatalf("creations = %d, want 3", got)
	}
	idxs := make([]*statepath.ListIndex, 0, 3)
	for _, bc := range f.loop.Contents() {
		idxs = append(idxs, bc.ListIndex())
	}
	for i, li := range idxs {
		if li.Position() != i {
			t.Fatalf("index %d position = %d", i, li.Position())
		}
	}
}

func TestAllRemovedClearsAndPools(t *testing.T) {
	f := newFixture(t, nil)
	f.setItems(t, []any{"a", "b", "c"})

	f.setItems(t, []any{})

	if got := f.root.ChildCount(); got != 1 {
		t.Fatalf("child count = %d, want just the marker", got)
	}
	if f.loop.PoolSize() != 3 {
		t.Fatalf("pool size = %d, want 3", f.loop.PoolSize())
	}
}

func TestPoolBoundsInstanceCreation(t *testing.T) {
	f := newFixture(t, nil)
	big := []any{"a", "b", "c", "d"}
	small := []any{"x"}
	for i := 0; i < 5; i++ {
		f.setItems(t, big)
		f.setItems(t, small)
	}
	// churn never builds more instances than the peak concurrent count
	if got := f.loop.Creations(); got > len(big) {
		t.Fatalf("creations = %d, want <= %d", got, len(big))
	}
}

func TestComputedDependencyPropagates(t *testing.T) {
	f := newFixture(t, nil)
	f.caches.Register("total")
	f.store.RegisterGetter("total", func(api *state.API) (any, error) {
		v, err := api.Get("items")
		if err != nil {
			return nil, err
		}
		sum := 0
		if items, ok := v.([]any); ok {
			for _, it := range items {
				sum += it.(int)
			}
		}
		return sum, nil
	})

	var total int
	totalRef := f.caches.Ref(f.caches.Info("total"), nil)
	f.updater.AddBinding(totalRef, render.NewValueBinding(f.updater, "total", nil, func(v any) error {
		total = v.(int)
		return nil
	}))

	// prime the dynamic edge with one tracked evaluation
	if _, err := f.updater.Proxy().Get(totalRef); err != nil {
		t.Fatalf("prime total: %v", err)
	}

	f.setItems(t, []any{1, 2, 3})
	if total != 6 {
		t.Fatalf("total = %d, want 6", total)
	}
}

func TestUnregisteredPathFailsPass(t *testing.T) {
	f := newFixture(t, nil)
	ref := f.caches.Ref(f.caches.Info("missing"), nil)
	err := f.updater.Update(context.Background(), nil, func(p state.Proxy) error {
		return p.Set(ref, 1)
	})
	if errors.CodeOf(err) != "path-not-found" {
		t.Fatalf("err = %v, want path-not-found", err)
	}
}

func TestDeferredApplyRunsAfterStructuralWork(t *testing.T) {
	f := newFixture(t, nil)
	f.caches.Register("selected")

	var order []string
	selRef := f.caches.Ref(f.caches.Info("selected"), nil)
	f.updater.AddBinding(selRef, render.NewDeferredValueBinding(
		f.updater, "selected", nil, render.PhaseApplySelect, func(v any) error {
			order = append(order, "select")
			return nil
		}))

	itemsRef := f.caches.Ref(f.caches.Info("items"), nil)
	err := f.updater.Update(context.Background(), nil, func(p state.Proxy) error {
		if err := p.Set(selRef, "b"); err != nil {
			return err
		}
		return p.Set(itemsRef, []any{"a", "b"})
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	order = append(order, "done")

	if len(order) != 2 || order[0] != "select" {
		t.Fatalf("order = %v, want select before done", order)
	}
	assertTexts(t, f, "a", "b")
}

func TestBindContentLifecycle(t *testing.T) {
	f := newFixture(t, nil)
	f.setItems(t, []any{"a"})

	bc := f.loop.Contents()[0]
	if !bc.IsActive() || !bc.IsMounted() {
		t.Fatal("live instance must be active and mounted")
	}

	f.setItems(t, []any{})
	if bc.IsActive() || bc.IsMounted() {
		t.Fatal("retired instance must be inactive and unmounted")
	}

	f.setItems(t, []any{"z"})
	if got := f.loop.Contents()[0]; got != bc {
		t.Fatal("pooled instance was not reused")
	}
	assertTexts(t, f, "z")
}

func TestElementBindingWithoutListConsumer(t *testing.T) {
	caches := statepath.NewCaches()
	store := state.NewStore(caches, map[string]any{"items": []any{"a", "b"}})
	u := update.New(store)
	caches.Register("items")
	caches.Register("items.*")

	itemsRef := caches.Ref(caches.Info("items"), nil)
	idxs, err := u.ListIndexes(itemsRef)
	if err != nil {
		t.Fatalf("list indexes: %v", err)
	}
	if len(idxs) != 2 {
		t.Fatalf("indexes = %d, want 2", len(idxs))
	}

	// bind straight to the second element, with no consumer on the
	// list ref itself
	elemRef := caches.Ref(caches.Info("items.*"), idxs[1])
	loop := state.NewLoopContext(nil, elemRef)
	var got any
	u.AddBinding(elemRef, render.NewValueBinding(u, "items.*", loop, func(v any) error {
		got = v
		return nil
	}))

	err = u.Update(context.Background(), nil, func(p state.Proxy) error {
		return p.Set(elemRef, "B")
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got != "B" {
		t.Fatalf("applied value = %v, want B", got)
	}
}

func TestUnmountedMarkerFailsReconcile(t *testing.T) {
	caches := statepath.NewCaches()
	store := state.NewStore(caches, map[string]any{"items": nil})
	reg := template.NewRegistry(host.MemoryFactory{})
	u := update.New(store, update.WithTemplates(reg))
	caches.Register("items")
	caches.Register("items.*")

	tplID := reg.Register(
		[]template.Node{template.Element("li", template.Text(""))},
		[]render.BindingSpec{{
			NodePath: []int{0, 0},
			Pattern:  "items.*",
			Create: func(node host.Node, loop *state.LoopContext) render.Consumer {
				return render.NewTextBinding(u, "items.*", loop, node.(*host.TreeNode))
			},
		}},
	)

	// marker never appended to a parent
	marker := host.MemoryFactory{}.Marker()
	lb := render.NewLoopBinding(u, "items", tplID, marker, nil)
	itemsRef := caches.Ref(caches.Info("items"), nil)
	u.AddBinding(itemsRef, lb)

	err := u.Update(context.Background(), nil, func(p state.Proxy) error {
		return p.Set(itemsRef, []any{"a"})
	})
	if errors.CodeOf(err) != "consumer-contract-violation" {
		t.Fatalf("err = %v, want consumer-contract-violation", err)
	}
	if lb.Creations() != 0 {
		t.Fatalf("creations = %d, want 0 before the contract check", lb.Creations())
	}
}
