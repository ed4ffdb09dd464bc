package state

// DepGraph records dynamic dependency edges discovered at runtime:
// "computed pattern reads source pattern". It supplements the static
// prefix tree, which cannot express these relationships.
//
// The graph is append-only; structural dependencies are stable at
// runtime even though values change, which is what makes affected-set
// memoization safe.
type DepGraph struct {
	// edges maps a source pattern to the computed patterns that read
	// it: a write to the key must visit the values.
	edges map[string][]string
	seen  map[string]map[string]struct{}
}

// NewDepGraph creates an empty graph.
func NewDepGraph() *DepGraph {
	return &DepGraph{
		edges: make(map[string][]string),
		seen:  make(map[string]map[string]struct{}),
	}
}

// AddEdge records that computation from reads pattern to: a change of
// to must revisit from. Self edges and duplicates are dropped.
func (g *DepGraph) AddEdge(from, to string) {
	if from == to {
		return
	}
	set, ok := g.seen[to]
	if !ok {
		set = make(map[string]struct{})
		g.seen[to] = set
	}
	if _, dup := set[from]; dup {
		return
	}
	set[from] = struct{}{}
	g.edges[to] = append(g.edges[to], from)
}

// Dependents returns the computed patterns that depend on pattern, in
// recording order. Callers must not mutate the slice.
func (g *DepGraph) Dependents(pattern string) []string {
	return g.edges[pattern]
}

// HasEdge reports whether from is recorded as depending on to.
func (g *DepGraph) HasEdge(from, to string) bool {
	set, ok := g.seen[to]
	if !ok {
		return false
	}
	_, ok = set[from]
	return ok
}
