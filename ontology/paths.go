package ontology

import "slices"

// DefaultPathLimit caps the number of paths Paths returns when the caller
// passes a non-positive limit.
const DefaultPathLimit = 1000

// pendingPerPath bounds the partial paths kept in the search queue, per path
// requested. Extensions beyond the bound are dropped.
const pendingPerPath = 64

type partialPath struct {
	at    string
	edges []Edge
}

func (p partialPath) visits(v string) bool {
	if len(p.edges) == 0 {
		return p.at == v
	}
	if p.edges[0].Child == v {
		return true
	}
	for _, e := range p.edges {
		if e.Parent == v {
			return true
		}
	}
	return false
}

// Paths returns the simple parent-directed walks from one term to another,
// shortest first, following only edges of the given types. At most limit
// paths are returned.
//
// Only vertices that can still reach the target are explored, so the search
// stays within the target's descendant closure. At most limit*64 partial
// paths are pending at any time; on dense graphs some longer paths are then
// not reported.
func (g *Graph) Paths(from, to string, limit int, types ...RelationType) [][]Edge {
	paths, _ := g.searchPaths(from, to, limit, types)
	return paths
}

// searchPaths runs the breadth-first path search and also returns the
// largest queue length it reached.
func (g *Graph) searchPaths(from, to string, limit int, types []RelationType) ([][]Edge, int) {
	if limit <= 0 {
		limit = DefaultPathLimit
	}
	paths := make([][]Edge, 0)
	if from == to || !g.HasVertex(from) || !g.HasVertex(to) {
		return paths, 0
	}

	reach := g.DescendantGraph([]string{to}, nil, types...)
	if !reach.HasVertex(from) {
		return paths, 0
	}

	maxPending := limit * pendingPerPath
	queue := []partialPath{{at: from}}
	peak := 1
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		for _, e := range g.ParentsOf(p.at, types...) {
			if !reach.HasVertex(e.Parent) || p.visits(e.Parent) {
				continue
			}
			edges := append(slices.Clip(p.edges), e)
			if e.Parent == to {
				paths = append(paths, edges)
				if len(paths) >= limit {
					return paths, peak
				}
				continue
			}
			if len(queue)+len(paths) >= maxPending {
				continue
			}
			queue = append(queue, partialPath{at: e.Parent, edges: edges})
			peak = max(peak, len(queue))
		}
	}
	return paths, peak
}

// InferredRelations returns, for each ancestor of id, the distinct relations
// obtained by combining the edges along every walk to it. Walks whose
// combination becomes Undefined are abandoned.
func (g *Graph) InferredRelations(id string, types ...RelationType) []Edge {
	type state struct {
		at  string
		rel RelationType
	}

	found := make(map[Edge]struct{})
	seen := map[state]struct{}{{id, Identity}: {}}
	stack := []state{{id, Identity}}

	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, e := range g.ParentsOf(s.at, types...) {
			merged := combineTypes(s.rel, e.Type)
			if merged == Undefined {
				continue
			}
			if e.Parent != id {
				found[Edge{Child: id, Parent: e.Parent, Type: merged}] = struct{}{}
			}
			next := state{e.Parent, merged}
			if _, ok := seen[next]; ok {
				continue
			}
			seen[next] = struct{}{}
			stack = append(stack, next)
		}
	}

	out := make([]Edge, 0, len(found))
	for e := range found {
		out = append(out, e)
	}
	slices.SortFunc(out, compareEdges)
	return out
}
