package ontology

import (
	"log/slog"
	"slices"
	"sort"
)

// LookupFunc returns the edges adjoining id, restricted to types, in one
// direction of the graph.
type LookupFunc func(id string, types []RelationType) ([]Edge, error)

// AncestorGraph is the closure computed by a traversal. It is owned by the
// caller that requested it.
type AncestorGraph struct {
	Vertices map[string]struct{}
	Edges    map[Edge]struct{}
}

func newAncestorGraph() *AncestorGraph {
	return &AncestorGraph{
		Vertices: make(map[string]struct{}, 32),
		Edges:    make(map[Edge]struct{}, 32),
	}
}

// HasVertex reports whether id was reached.
func (ag *AncestorGraph) HasVertex(id string) bool {
	_, ok := ag.Vertices[id]
	return ok
}

// VertexList returns the reached vertices, sorted.
func (ag *AncestorGraph) VertexList() []string {
	out := make([]string, 0, len(ag.Vertices))
	for v := range ag.Vertices {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// EdgeList returns the collected edges ordered by child, parent and type.
func (ag *AncestorGraph) EdgeList() []Edge {
	out := make([]Edge, 0, len(ag.Edges))
	for e := range ag.Edges {
		out = append(out, e)
	}
	slices.SortFunc(out, compareEdges)
	return out
}

type traversalOptions struct {
	stop   map[string]struct{}
	types  []RelationType
	logger *slog.Logger
}

// TraversalOption configures Closure.
type TraversalOption func(*traversalOptions)

// WithStopVertices marks vertices that are included in the result when
// reached but never expanded.
func WithStopVertices(ids ...string) TraversalOption {
	return func(o *traversalOptions) {
		if o.stop == nil {
			o.stop = make(map[string]struct{}, len(ids))
		}
		for _, id := range ids {
			o.stop[id] = struct{}{}
		}
	}
}

// WithRelationTypes restricts the edges followed. No types means all.
func WithRelationTypes(types ...RelationType) TraversalOption {
	return func(o *traversalOptions) {
		o.types = types
	}
}

// WithLogger sets the logger used to report vertices whose lookup failed.
func WithLogger(l *slog.Logger) TraversalOption {
	return func(o *traversalOptions) {
		o.logger = l
	}
}

// Closure computes everything reachable from frontier by repeatedly calling
// next and continuing from far(edge).
//
// The walk uses an explicit stack rather than recursion, so depth is bounded
// only by memory. Each vertex is expanded at most once. A lookup failure for
// one vertex is logged and that vertex is left unexpanded; the rest of the
// closure is still returned.
func Closure(frontier []string, next LookupFunc, far func(Edge) string, opts ...TraversalOption) *AncestorGraph {
	var o traversalOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	result := newAncestorGraph()
	stack := make([]string, 0, len(frontier)+16)
	for i := len(frontier) - 1; i >= 0; i-- {
		stack = append(stack, frontier[i])
	}

	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, seen := result.Vertices[v]; seen {
			continue
		}
		result.Vertices[v] = struct{}{}

		if _, stop := o.stop[v]; stop {
			continue
		}

		edges, err := next(v, o.types)
		if err != nil {
			o.logger.Warn("skipping vertex expansion after lookup failure",
				slog.String("vertex", v),
				slog.String("error", err.Error()),
			)
			continue
		}
		for _, e := range edges {
			result.Edges[e] = struct{}{}
			if w := far(e); !result.HasVertex(w) {
				stack = append(stack, w)
			}
		}
	}
	return result
}

func edgeParent(e Edge) string { return e.Parent }
func edgeChild(e Edge) string  { return e.Child }

// AncestorGraph computes the upward closure of frontier, not expanding past
// any stop vertex.
func (g *Graph) AncestorGraph(frontier, stop []string, types ...RelationType) *AncestorGraph {
	return Closure(frontier, g.parentLookup, edgeParent,
		WithStopVertices(stop...),
		WithRelationTypes(types...),
	)
}

// DescendantGraph computes the downward closure of frontier.
func (g *Graph) DescendantGraph(frontier, stop []string, types ...RelationType) *AncestorGraph {
	return Closure(frontier, g.childLookup, edgeChild,
		WithStopVertices(stop...),
		WithRelationTypes(types...),
	)
}

// Ancestors returns id and every term reachable from it through parent edges
// of the given types, sorted. Unknown ids yield an empty slice.
func (g *Graph) Ancestors(id string, types ...RelationType) []string {
	if !g.HasVertex(id) {
		return []string{}
	}
	return g.AncestorGraph([]string{id}, nil, types...).VertexList()
}

// Descendants returns id and every term that reaches it through parent edges
// of the given types, sorted.
func (g *Graph) Descendants(id string, types ...RelationType) []string {
	if !g.HasVertex(id) {
		return []string{}
	}
	return g.DescendantGraph([]string{id}, nil, types...).VertexList()
}
