package statepath

import "testing"

func TestInfoInterning(t *testing.T) {
	c := NewCaches()

	a := c.Info("items.*.name")
	b := c.Info("items.*.name")
	if a != b {
		t.Error("same pattern string must return the same Info instance")
	}

	other := c.Info("items.*.done")
	if other == a {
		t.Error("distinct patterns must not share an Info")
	}
}

func TestInfoParse(t *testing.T) {
	c := NewCaches()
	info := c.Info("items.*.tags.*")

	if got := len(info.Segments); got != 4 {
		t.Fatalf("expected 4 segments, got %d", got)
	}
	if info.WildcardCount != 2 {
		t.Errorf("expected 2 wildcards, got %d", info.WildcardCount)
	}
	if info.LastSegment != "*" {
		t.Errorf("expected last segment *, got %q", info.LastSegment)
	}
	if !info.IsWildcard() {
		t.Error("pattern ending in * is a wildcard pattern")
	}

	// Cumulative chain shares interned prefixes.
	if len(info.CumulativeInfos) != 4 {
		t.Fatalf("expected 4 cumulative infos, got %d", len(info.CumulativeInfos))
	}
	if info.CumulativeInfos[0] != c.Info("items") {
		t.Error("first cumulative info should be the interned 'items'")
	}
	if info.CumulativeInfos[3] != info {
		t.Error("last cumulative info should be the pattern itself")
	}

	// Wildcard-parent chain, outermost first.
	if len(info.WildcardInfos) != 2 {
		t.Fatalf("expected 2 wildcard infos, got %d", len(info.WildcardInfos))
	}
	if info.WildcardInfos[0].Pattern != "items.*" {
		t.Errorf("outer wildcard should be items.*, got %q", info.WildcardInfos[0].Pattern)
	}

	if info.Parent.Pattern != "items.*.tags" {
		t.Errorf("parent should be items.*.tags, got %q", info.Parent.Pattern)
	}
	if info.OwningList().Pattern != "items.*.tags" {
		t.Errorf("owning list should be items.*.tags, got %q", info.OwningList().Pattern)
	}
}

func TestRegisterBuildsPrefixTree(t *testing.T) {
	c := NewCaches()
	c.Register("items.*.name")
	c.Register("items.*.done")
	c.Register("filter")

	items := c.Root().Child("items")
	if items == nil {
		t.Fatal("items node missing")
	}
	wild := items.Wildcard()
	if wild == nil {
		t.Fatal("wildcard child missing")
	}
	if wild.Child("name") == nil || wild.Child("done") == nil {
		t.Error("element children missing")
	}
	if wild.Child("name").Path() != "items.*.name" {
		t.Errorf("unexpected node path %q", wild.Child("name").Path())
	}
}

func TestNodeMissingIsPathNotFound(t *testing.T) {
	c := NewCaches()
	c.Register("items.*.name")

	if _, err := c.Node(c.Info("items.*.name")); err != nil {
		t.Fatalf("registered pattern should resolve: %v", err)
	}

	_, err := c.Node(c.Info("missing.path"))
	if err == nil {
		t.Fatal("unregistered pattern must raise path-not-found")
	}
}

func TestRefInterning(t *testing.T) {
	c := NewCaches()
	info := c.Info("items.*")
	li := c.NewListIndex(nil, 0)

	a := c.Ref(info, li)
	b := c.Ref(info, li)
	if a != b {
		t.Error("same (info, listIndex) must return the same Ref instance")
	}

	other := c.Ref(info, c.NewListIndex(nil, 0))
	if other == a {
		t.Error("distinct list indexes must not share a Ref")
	}
	if c.Ref(c.Info("filter"), nil) == a {
		t.Error("distinct infos must not share a Ref")
	}
}

func TestListIndexChain(t *testing.T) {
	c := NewCaches()
	outer := c.NewListIndex(nil, 2)
	inner := c.NewListIndex(outer, 5)

	if inner.Depth() != 2 {
		t.Errorf("expected depth 2, got %d", inner.Depth())
	}
	idxs := inner.Indexes()
	if len(idxs) != 2 || idxs[0] != 2 || idxs[1] != 5 {
		t.Errorf("unexpected index chain %v", idxs)
	}
	if inner.At(1) != outer {
		t.Error("At(1) should return the outermost index")
	}
	if inner.At(2) != inner {
		t.Error("At(2) should return the inner index")
	}
	if inner.Truncate(1) != outer || inner.Truncate(0) != nil {
		t.Error("Truncate should cut down the chain")
	}

	// Identity survives position changes.
	outer.SetPosition(7)
	if outer.Position() != 7 {
		t.Errorf("expected position 7, got %d", outer.Position())
	}
	if inner.Indexes()[0] != 7 {
		t.Error("position change must be visible through the chain")
	}
}

func TestParentAndListRef(t *testing.T) {
	c := NewCaches()
	li := c.NewListIndex(nil, 3)
	elemName := c.Ref(c.Info("items.*.name"), li)

	parent := c.ParentRef(elemName)
	if parent.Info.Pattern != "items.*" || parent.ListIndex != li {
		t.Errorf("unexpected parent ref %s", parent)
	}

	list := c.ListRefOf(elemName)
	if list.Info.Pattern != "items" || list.ListIndex != nil {
		t.Errorf("unexpected list ref %s", list)
	}
	if c.ListRefOf(c.Ref(c.Info("filter"), nil)) != nil {
		t.Error("non-wildcard patterns have no owning list")
	}

	// Nested: the inner element's list keeps the outer index.
	inner := c.NewListIndex(li, 0)
	tagRef := c.Ref(c.Info("items.*.tags.*"), inner)
	tagList := c.ListRefOf(tagRef)
	if tagList.Info.Pattern != "items.*.tags" || tagList.ListIndex != li {
		t.Errorf("unexpected nested list ref %s", tagList)
	}
}

func TestRefKeyFormat(t *testing.T) {
	c := NewCaches()
	plain := c.Ref(c.Info("filter"), nil)
	if plain.Key() != "filter" {
		t.Errorf("unexpected key %q", plain.Key())
	}

	li := c.NewListIndex(c.NewListIndex(nil, 1), 4)
	ref := c.Ref(c.Info("items.*.tags.*"), li)
	if ref.Key() != "items.*.tags.*@[1,4]" {
		t.Errorf("unexpected key %q", ref.Key())
	}
}

func TestCachesAreIndependent(t *testing.T) {
	a := NewCaches()
	b := NewCaches()

	a.Register("items.*")
	if b.HasNode(b.Info("items.*")) {
		t.Error("registrations must not leak across caches")
	}
	if a.Info("items.*") == b.Info("items.*") {
		t.Error("infos must not be shared across caches")
	}
}
