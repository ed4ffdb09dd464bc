package statepath

import (
	"fmt"
	"strings"
)

// Ref is the interned (Info, ListIndex) pair identifying one
// observable state slot. Two logically equal pairs are the same
// object: every dependency and consumer table relies on this for
// identity-keyed lookup.
type Ref struct {
	// Info is the pattern parse.
	Info *Info

	// ListIndex resolves the pattern's wildcard levels. nil for
	// patterns without wildcards, or for pattern-level references.
	ListIndex *ListIndex

	key string
}

// Key returns a stable human-readable identity string, combining the
// pattern with the list index chain, e.g. "items.*.name@[2]".
func (r *Ref) Key() string {
	return r.key
}

// String implements fmt.Stringer.
func (r *Ref) String() string {
	return r.key
}

func refKeyString(info *Info, li *ListIndex) string {
	if li == nil {
		return info.Pattern
	}
	idxs := li.Indexes()
	parts := make([]string, len(idxs))
	for i, p := range idxs {
		parts[i] = fmt.Sprintf("%d", p)
	}
	return info.Pattern + "@[" + strings.Join(parts, ",") + "]"
}
