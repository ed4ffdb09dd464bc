package statepath

import "strings"

// Info is the immutable parse of one path pattern string.
// Infos are interned: one instance per distinct pattern per Caches.
type Info struct {
	// Pattern is the canonical pattern string, e.g. "items.*.name".
	Pattern string

	// ID is the dense intern index assigned by the owning Caches.
	ID int

	// Segments are the dot-separated parts of the pattern.
	Segments []string

	// LastSegment is the final segment ("" for the root pattern).
	LastSegment string

	// WildcardCount is the number of "*" segments.
	WildcardCount int

	// Parent is the Info of the pattern with the last segment removed.
	// nil for single-segment patterns.
	Parent *Info

	// CumulativeInfos holds the Infos of every prefix of the pattern,
	// shortest first, ending with this Info itself.
	CumulativeInfos []*Info

	// WildcardInfos holds the Infos of every prefix ending in "*",
	// shortest first. This is the wildcard-parent chain: element i
	// corresponds to wildcard level i.
	WildcardInfos []*Info
}

// IsWildcard reports whether the pattern itself denotes an array
// element slot (last segment is "*").
func (i *Info) IsWildcard() bool {
	return i.LastSegment == "*"
}

// LastWildcard returns the Info of the deepest "*"-terminated prefix,
// or nil when the pattern contains no wildcard.
func (i *Info) LastWildcard() *Info {
	if len(i.WildcardInfos) == 0 {
		return nil
	}
	return i.WildcardInfos[len(i.WildcardInfos)-1]
}

// OwningList returns the Info of the list pattern that owns the
// deepest wildcard level, e.g. "items" for "items.*.name".
// Returns nil when the pattern contains no wildcard.
func (i *Info) OwningList() *Info {
	lw := i.LastWildcard()
	if lw == nil {
		return nil
	}
	return lw.Parent
}

// WildcardLevelAt returns how many wildcard segments occur in
// Segments[:seg+1]. Used to map a segment position to its list depth.
func (i *Info) WildcardLevelAt(seg int) int {
	level := 0
	for s := 0; s <= seg && s < len(i.Segments); s++ {
		if i.Segments[s] == "*" {
			level++
		}
	}
	return level
}

// parseInfo builds an Info for pattern, interning every prefix through
// the Caches so the cumulative and wildcard chains share instances.
// Callers hold the Caches lock.
func (c *Caches) parseInfo(pattern string) *Info {
	segments := strings.Split(pattern, ".")
	info := &Info{
		Pattern:     pattern,
		ID:          len(c.infoList),
		Segments:    segments,
		LastSegment: segments[len(segments)-1],
	}
	for _, seg := range segments {
		if seg == "*" {
			info.WildcardCount++
		}
	}

	if len(segments) > 1 {
		parentPattern := pattern[:strings.LastIndex(pattern, ".")]
		info.Parent = c.infoLocked(parentPattern)
		info.CumulativeInfos = append(info.CumulativeInfos, info.Parent.CumulativeInfos...)
		info.WildcardInfos = append(info.WildcardInfos, info.Parent.WildcardInfos...)
	}
	info.CumulativeInfos = append(info.CumulativeInfos, info)
	if info.LastSegment == "*" {
		info.WildcardInfos = append(info.WildcardInfos, info)
	}
	return info
}
