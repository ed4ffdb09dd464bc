package update

import (
	"reflect"

	"github.com/structivejs/structive/internal/errors"
	"github.com/structivejs/structive/pkg/statepath"
)

// listRecord is the identity state of one list ref across passes: the
// element values last seen and the ListIndex assigned to each.
type listRecord struct {
	values  []any
	indexes []*statepath.ListIndex
}

// ListIndexes returns the current element identities of the list at
// ref, reconciling the previous record against the current value.
// Elements present in both keep their identity; their position is
// updated in place. New elements get fresh identities, never reusing
// a retired one.
func (u *Updater) ListIndexes(ref *statepath.Ref) ([]*statepath.ListIndex, error) {
	value, err := u.readonly.Get(ref)
	if err != nil {
		return nil, err
	}
	var elems []any
	switch v := value.(type) {
	case nil:
	case []any:
		elems = v
	default:
		return nil, errors.New("consumer-contract-violation").
			WithDetail("list-bound path does not hold an array").
			WithContext("path", ref.Info.Pattern)
	}

	rec := u.lists[ref]
	if rec != nil && sameElements(rec.values, elems) {
		return rec.indexes, nil
	}

	// Unconsumed previous identities, keyed by element identity.
	// Duplicate values queue up and match in order.
	prev := make(map[any][]*statepath.ListIndex)
	if rec != nil {
		for i, v := range rec.values {
			k := identityKey(v)
			prev[k] = append(prev[k], rec.indexes[i])
		}
	}

	indexes := make([]*statepath.ListIndex, len(elems))
	for i, v := range elems {
		k := identityKey(v)
		if q := prev[k]; len(q) > 0 {
			indexes[i] = q[0]
			prev[k] = q[1:]
		} else {
			indexes[i] = u.caches.NewListIndex(ref.ListIndex, i)
		}
		indexes[i].SetPosition(i)
	}

	u.lists[ref] = &listRecord{
		values:  append([]any(nil), elems...),
		indexes: indexes,
	}
	u.trackIndex(ref)
	return indexes, nil
}

// sameElements reports whether both slices hold identical elements in
// identical order, compared by identity.
func sameElements(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if identityKey(a[i]) != identityKey(b[i]) {
			return false
		}
	}
	return true
}

// identityKey maps an element value to its identity: reference types
// compare by pointer, everything comparable by value. Uncomparable
// non-reference values get a per-occurrence unique key, so they never
// match and always re-render.
func identityKey(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Ptr, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return rv.Pointer()
	}
	if !rv.Comparable() {
		return new(int)
	}
	return v
}
