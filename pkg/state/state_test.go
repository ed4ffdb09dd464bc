package state

import (
	"testing"

	"github.com/structivejs/structive/internal/errors"
	"github.com/structivejs/structive/pkg/statepath"
)

// recordingSink collects refs forwarded by a writable proxy.
type recordingSink struct {
	refs []*statepath.Ref
}

func (s *recordingSink) EnqueueRef(ref *statepath.Ref) {
	s.refs = append(s.refs, ref)
}

func newTestStore() (*statepath.Caches, *Store) {
	c := statepath.NewCaches()
	root := map[string]any{
		"filter": "all",
		"user":   map[string]any{"name": "ada"},
		"items": []any{
			map[string]any{"name": "one", "done": false},
			map[string]any{"name": "two", "done": true},
		},
	}
	return c, NewStore(c, root)
}

func TestReadPlainAndNestedPaths(t *testing.T) {
	c, store := newTestStore()
	p := NewReadonly(store, nil)

	v, err := p.Get(c.Ref(c.Info("filter"), nil))
	if err != nil || v != "all" {
		t.Errorf("filter = %v, %v", v, err)
	}
	v, err = p.Get(c.Ref(c.Info("user.name"), nil))
	if err != nil || v != "ada" {
		t.Errorf("user.name = %v, %v", v, err)
	}

	// Absent leaf reads as nil, not an error.
	v, err = p.Get(c.Ref(c.Info("user.age"), nil))
	if err != nil || v != nil {
		t.Errorf("absent leaf = %v, %v", v, err)
	}
}

func TestReadWildcardThroughListIndex(t *testing.T) {
	c, store := newTestStore()
	p := NewReadonly(store, nil)

	li := c.NewListIndex(nil, 1)
	v, err := p.Get(c.Ref(c.Info("items.*.name"), li))
	if err != nil || v != "two" {
		t.Errorf("items.*.name@[1] = %v, %v", v, err)
	}
}

func TestReadWildcardThroughLoopContext(t *testing.T) {
	c, store := newTestStore()
	li := c.NewListIndex(nil, 0)
	loop := NewLoopContext(nil, c.Ref(c.Info("items.*"), li))
	p := NewReadonly(store, loop)

	// The ref itself carries no index; the loop stack resolves it.
	v, err := p.Get(c.Ref(c.Info("items.*.done"), nil))
	if err != nil || v != false {
		t.Errorf("items.*.done = %v, %v", v, err)
	}
}

func TestWildcardWithoutContextIsFatal(t *testing.T) {
	c, store := newTestStore()
	p := NewReadonly(store, nil)

	_, err := p.Get(c.Ref(c.Info("items.*.name"), nil))
	if errors.CodeOf(err) != "loop-context-missing" {
		t.Fatalf("expected loop-context-missing, got %v", err)
	}
	var se *errors.Error
	if !errorsAs(err, &se) || !se.IsFatal() {
		t.Error("loop-context-missing must be fatal")
	}
}

func TestReadonlyRejectsWrites(t *testing.T) {
	c, store := newTestStore()
	p := NewReadonly(store, nil)

	err := p.Set(c.Ref(c.Info("filter"), nil), "done")
	if errors.CodeOf(err) != "write-rejection" {
		t.Fatalf("expected write-rejection, got %v", err)
	}
}

func TestWritableCommitsAndForwards(t *testing.T) {
	c, store := newTestStore()
	sink := &recordingSink{}
	p := NewWritable(store, nil, sink)

	ref := c.Ref(c.Info("filter"), nil)
	if err := p.Set(ref, "done"); err != nil {
		t.Fatal(err)
	}

	v, _ := p.Get(ref)
	if v != "done" {
		t.Errorf("expected committed value, got %v", v)
	}
	if len(sink.refs) != 1 || sink.refs[0] != ref {
		t.Errorf("expected exactly the written ref forwarded, got %v", sink.refs)
	}
}

func TestWritableSetsListElements(t *testing.T) {
	c, store := newTestStore()
	sink := &recordingSink{}
	p := NewWritable(store, nil, sink)

	li := c.NewListIndex(nil, 0)
	ref := c.Ref(c.Info("items.*.name"), li)
	if err := p.Set(ref, "renamed"); err != nil {
		t.Fatal(err)
	}
	v, _ := p.Get(ref)
	if v != "renamed" {
		t.Errorf("expected renamed, got %v", v)
	}
}

func TestComputedGetterRecordsDynamicEdges(t *testing.T) {
	c, store := newTestStore()
	store.RegisterGetter("doneCount", func(api *API) (any, error) {
		all, err := api.GetAll("items.*.done")
		if err != nil {
			return nil, err
		}
		n := 0
		for _, v := range all {
			if v == true {
				n++
			}
		}
		return n, nil
	})

	p := NewReadonly(store, nil)
	v, err := p.Get(c.Ref(c.Info("doneCount"), nil))
	if err != nil || v != 1 {
		t.Fatalf("doneCount = %v, %v", v, err)
	}

	if !store.Deps().HasEdge("doneCount", "items.*.done") {
		t.Error("computed read should record a dynamic dependency edge")
	}
}

func TestNestedComputedTracksInnermost(t *testing.T) {
	c, store := newTestStore()
	store.RegisterGetter("inner", func(api *API) (any, error) {
		return api.Get("filter")
	})
	store.RegisterGetter("outer", func(api *API) (any, error) {
		return api.Get("inner")
	})

	p := NewReadonly(store, nil)
	if _, err := p.Get(c.Ref(c.Info("outer"), nil)); err != nil {
		t.Fatal(err)
	}

	if !store.Deps().HasEdge("outer", "inner") {
		t.Error("outer should depend on inner")
	}
	if !store.Deps().HasEdge("inner", "filter") {
		t.Error("inner should depend on filter")
	}
	if store.Deps().HasEdge("outer", "filter") {
		t.Error("edges attach to the innermost active computation")
	}
}

func TestReservedAPIDispatch(t *testing.T) {
	c, store := newTestStore()
	_ = c
	p := NewReadonly(store, nil)

	v, err := p.Call(APIResolve, "items.*.name", []int{0})
	if err != nil || v != "one" {
		t.Errorf("$resolve = %v, %v", v, err)
	}

	all, err := p.Call(APIGetAll, "items.*.name")
	if err != nil {
		t.Fatal(err)
	}
	names := all.([]any)
	if len(names) != 2 || names[0] != "one" || names[1] != "two" {
		t.Errorf("$getAll = %v", names)
	}

	store.SetComponent("host")
	comp, err := p.Call(APIComponent)
	if err != nil || comp != "host" {
		t.Errorf("$component = %v, %v", comp, err)
	}

	_, err = p.Call("$bogus")
	if errors.CodeOf(err) != "api-not-found" {
		t.Errorf("expected api-not-found, got %v", err)
	}
}

func TestReservedNavigate(t *testing.T) {
	_, store := newTestStore()
	nav := &fakeNavigator{}
	store.SetNavigator(nav)
	p := NewReadonly(store, nil)

	if _, err := p.Call(APINavigate, "/todos/1"); err != nil {
		t.Fatal(err)
	}
	if nav.to != "/todos/1" {
		t.Errorf("navigator got %q", nav.to)
	}
}

type fakeNavigator struct{ to string }

func (n *fakeNavigator) Navigate(to string) error {
	n.to = to
	return nil
}

func TestIsReservedName(t *testing.T) {
	if !IsReservedName("$resolve") || !IsReservedName("$anything") {
		t.Error("names starting with $ are reserved")
	}
	if IsReservedName("items") {
		t.Error("ordinary properties are not reserved")
	}
}

func TestDepGraphDedup(t *testing.T) {
	g := NewDepGraph()
	g.AddEdge("computed", "source")
	g.AddEdge("computed", "source")
	g.AddEdge("computed", "computed")

	if deps := g.Dependents("source"); len(deps) != 1 || deps[0] != "computed" {
		t.Errorf("unexpected dependents %v", deps)
	}
	if g.HasEdge("computed", "computed") {
		t.Error("self edges must be dropped")
	}
}

// errorsAs avoids importing the stdlib errors package under a clashing
// name in this file.
func errorsAs(err error, target **errors.Error) bool {
	for err != nil {
		if se, ok := err.(*errors.Error); ok {
			*target = se
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
