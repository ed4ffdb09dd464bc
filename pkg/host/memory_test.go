package host

import "testing"

func TestInsertAndOrder(t *testing.T) {
	var f MemoryFactory
	root := NewRoot("div")
	a := f.Text("a")
	b := f.Text("b")
	c := f.Text("c")

	root.AppendChild(a)
	root.AppendChild(c)
	root.InsertBefore(b, c)

	if root.ChildCount() != 3 {
		t.Fatalf("expected 3 children, got %d", root.ChildCount())
	}
	got := ""
	for i := 0; i < root.ChildCount(); i++ {
		got += root.ChildAt(i).(*TreeNode).Text()
	}
	if got != "abc" {
		t.Errorf("expected order abc, got %q", got)
	}
	if a.(*TreeNode).NextSibling() != b {
		t.Error("a's next sibling should be b")
	}
}

func TestInsertMovesExistingChild(t *testing.T) {
	var f MemoryFactory
	root := NewRoot("div")
	a := f.Text("a")
	b := f.Text("b")
	root.AppendChild(a)
	root.AppendChild(b)

	// Re-inserting a before nothing moves it to the end.
	root.AppendChild(a)
	if root.ChildCount() != 2 {
		t.Fatalf("move must not duplicate, got %d children", root.ChildCount())
	}
	if root.ChildAt(1) != a {
		t.Error("a should now be last")
	}
}

func TestFragmentSplices(t *testing.T) {
	var f MemoryFactory
	root := NewRoot("ul")
	frag := f.Fragment()
	frag.AppendChild(f.Element("li"))
	frag.AppendChild(f.Element("li"))

	before := root.Mutations
	root.AppendChild(frag)

	if root.ChildCount() != 2 {
		t.Fatalf("fragment children should splice, got %d", root.ChildCount())
	}
	if frag.ChildCount() != 0 {
		t.Error("fragment should be emptied by insertion")
	}
	if root.Mutations != before+1 {
		t.Errorf("fragment insert should be one parent mutation, got %d", root.Mutations-before)
	}
}

func TestConnectivity(t *testing.T) {
	var f MemoryFactory
	root := NewRoot("div")
	child := f.Element("span")

	if child.IsConnected() {
		t.Error("detached node must not be connected")
	}
	root.AppendChild(child)
	if !child.IsConnected() {
		t.Error("attached node must be connected")
	}
	root.RemoveChild(child)
	if child.IsConnected() {
		t.Error("removed node must be disconnected")
	}
}

func TestClearChildren(t *testing.T) {
	var f MemoryFactory
	root := NewRoot("div")
	a := f.Text("a")
	root.AppendChild(a)
	root.AppendChild(f.Text("b"))

	root.ClearChildren()
	if root.ChildCount() != 0 {
		t.Error("clear should remove all children")
	}
	if a.(*TreeNode).Parent() != nil {
		t.Error("cleared children must be detached")
	}
}
