package state

import (
	"strings"

	"github.com/structivejs/structive/internal/errors"
)

// Reserved operation names. They share the property namespace with
// user state but are dispatched imperatively, never resolved as paths.
const (
	APIResolve         = "$resolve"
	APIGetAll          = "$getAll"
	APITrackDependency = "$trackDependency"
	APINavigate        = "$navigate"
	APIComponent       = "$component"
)

// IsReservedName reports whether name belongs to the reserved "$"
// namespace (whether or not it is a known operation).
func IsReservedName(name string) bool {
	return strings.HasPrefix(name, "$")
}

// API is the surface handed to computed getters and reserved
// operations. Reads through it participate in dependency tracking.
type API struct {
	store *Store
	proxy Proxy
	loop  *LoopContext
}

// Get reads pattern. Without explicit indexes, wildcard levels resolve
// through the loop-context stack; with indexes, positions are taken
// literally (resolve-by-name semantics).
func (a *API) Get(pattern string, indexes ...int) (any, error) {
	info := a.store.caches.Info(pattern)
	if len(indexes) == 0 {
		return a.store.getValue(a.store.caches.Ref(info, nil), a.loop, a.proxy)
	}
	if len(indexes) != info.WildcardCount {
		return nil, errors.Newf(errors.CategoryState,
			"%q needs %d indexes, got %d", pattern, info.WildcardCount, len(indexes))
	}
	a.store.recordRead(info)
	return a.store.walk(info, indexes)
}

// GetAll reads every element matching a wildcard pattern, expanding
// unspecified wildcard levels over the actual array lengths. The given
// indexes pin the leading levels.
func (a *API) GetAll(pattern string, indexes ...int) ([]any, error) {
	info := a.store.caches.Info(pattern)
	if len(indexes) > info.WildcardCount {
		return nil, errors.Newf(errors.CategoryState,
			"%q has %d wildcard levels, got %d indexes", pattern, info.WildcardCount, len(indexes))
	}
	a.store.recordRead(info)

	var out []any
	var expand func(positions []int) error
	expand = func(positions []int) error {
		if len(positions) == info.WildcardCount {
			v, err := a.store.walk(info, positions)
			if err != nil {
				return err
			}
			out = append(out, v)
			return nil
		}
		list := info.WildcardInfos[len(positions)].Parent
		raw, err := a.store.walk(list, positions)
		if err != nil {
			return err
		}
		arr, ok := raw.([]any)
		if !ok {
			return errors.Newf(errors.CategoryState,
				"%q is not an array", list.Pattern)
		}
		for i := range arr {
			next := make([]int, len(positions)+1)
			copy(next, positions)
			next[len(positions)] = i
			if err := expand(next); err != nil {
				return err
			}
		}
		return nil
	}

	pinned := make([]int, len(indexes))
	copy(pinned, indexes)
	if err := expand(pinned); err != nil {
		return nil, err
	}
	return out, nil
}

// TrackDependency explicitly records a dynamic edge from the computed
// pattern currently evaluating to pattern. It exists for computations
// whose reads the interceptor cannot observe.
func (a *API) TrackDependency(pattern string) error {
	top := a.store.trackingTop()
	if top == nil {
		return errors.Newf(errors.CategoryState,
			"$trackDependency(%q) called outside a computed evaluation", pattern)
	}
	a.store.deps.AddEdge(top.Info.Pattern, a.store.caches.Info(pattern).Pattern)
	return nil
}

// callReserved dispatches the reserved "$" operations for both proxy
// kinds.
func callReserved(p Proxy, name string, args []any) (any, error) {
	store := p.Store()
	api := &API{store: store, proxy: p, loop: p.Loop()}

	switch name {
	case APIResolve:
		pattern, indexes, err := patternArgs(name, args)
		if err != nil {
			return nil, err
		}
		return api.Get(pattern, indexes...)

	case APIGetAll:
		pattern, indexes, err := patternArgs(name, args)
		if err != nil {
			return nil, err
		}
		return api.GetAll(pattern, indexes...)

	case APITrackDependency:
		pattern, _, err := patternArgs(name, args)
		if err != nil {
			return nil, err
		}
		return nil, api.TrackDependency(pattern)

	case APINavigate:
		if len(args) != 1 {
			return nil, errors.Newf(errors.CategoryState, "$navigate expects one argument")
		}
		to, ok := args[0].(string)
		if !ok {
			return nil, errors.Newf(errors.CategoryState, "$navigate expects a string target")
		}
		if store.navigator == nil {
			return nil, errors.Newf(errors.CategoryState, "no navigator installed")
		}
		return nil, store.navigator.Navigate(to)

	case APIComponent:
		return store.component, nil
	}

	return nil, errors.New("api-not-found").WithContext("name", name)
}

// patternArgs parses the common (pattern string, indexes ...[]int)
// argument shape of reserved operations.
func patternArgs(op string, args []any) (string, []int, error) {
	if len(args) < 1 {
		return "", nil, errors.Newf(errors.CategoryState, "%s expects a pattern argument", op)
	}
	pattern, ok := args[0].(string)
	if !ok {
		return "", nil, errors.Newf(errors.CategoryState, "%s expects a string pattern", op)
	}
	if len(args) == 1 {
		return pattern, nil, nil
	}
	indexes, ok := args[1].([]int)
	if !ok {
		return "", nil, errors.Newf(errors.CategoryState, "%s expects []int indexes", op)
	}
	return pattern, indexes, nil
}
