package ontology

import (
	"fmt"
	"slices"
	"sort"
	"time"
)

// Builder accumulates the edges of one namespace before the graph is
// published. It is not safe for concurrent use; the loader is its single
// writer.
//
// Lifecycle:
//
//  1. Create with NewBuilder(namespace)
//  2. Populate with AddEdges, correcting load errors with RemoveEdge
//  3. Call Freeze to publish an immutable *Graph
//
// After Freeze every mutating call returns ErrGraphFrozen.
type Builder struct {
	namespace string
	edges     map[Edge]struct{}
	frozen    bool
}

// NewBuilder creates an empty builder. An empty namespace is fixed by the
// first edge added.
func NewBuilder(namespace string) *Builder {
	return &Builder{
		namespace: namespace,
		edges:     make(map[Edge]struct{}, 1024),
	}
}

// Namespace returns the builder's namespace, "" while still undetermined.
func (b *Builder) Namespace() string { return b.namespace }

// Len returns the number of distinct edges added so far.
func (b *Builder) Len() int { return len(b.edges) }

// Has reports whether the exact edge is already present.
func (b *Builder) Has(e Edge) bool {
	_, ok := b.edges[e]
	return ok
}

// AddEdges inserts edges with set semantics: re-adding an existing triple is
// a no-op. The batch is validated as a whole first, so a rejected batch
// leaves the builder unchanged.
//
// Errors:
//
//	ErrGraphFrozen - Freeze has been called
//	ErrInvalidEdge - empty endpoint or unknown relation type
//	ErrNamespaceMismatch - endpoints differ in namespace, or differ from the builder's
func (b *Builder) AddEdges(edges ...Edge) error {
	if b.frozen {
		return ErrGraphFrozen
	}
	namespace := b.namespace
	for _, e := range edges {
		if err := validateEdge(e, namespace); err != nil {
			return err
		}
		if namespace == "" {
			namespace = Namespace(e.Child)
		}
	}
	b.namespace = namespace
	for _, e := range edges {
		b.edges[e] = struct{}{}
	}
	return nil
}

// RemoveEdge deletes an edge added by mistake. It reports whether the edge
// was present.
func (b *Builder) RemoveEdge(e Edge) (bool, error) {
	if b.frozen {
		return false, ErrGraphFrozen
	}
	if _, ok := b.edges[e]; !ok {
		return false, nil
	}
	delete(b.edges, e)
	return true, nil
}

// Freeze publishes the accumulated edges as an immutable Graph. The builder
// cannot be used afterwards; calling Freeze twice returns ErrGraphFrozen.
func (b *Builder) Freeze() (*Graph, error) {
	if b.frozen {
		return nil, ErrGraphFrozen
	}
	b.frozen = true

	edges := make([]Edge, 0, len(b.edges))
	for e := range b.edges {
		edges = append(edges, e)
	}
	b.edges = nil
	slices.SortFunc(edges, compareEdges)

	// Sorted edges intern children in id order; parents fill any gaps.
	symbols := newSymbolTable(len(edges) / 2)
	for _, e := range edges {
		symbols.intern(e.Child)
	}
	for _, e := range edges {
		symbols.intern(e.Parent)
	}

	g := &Graph{
		namespace: b.namespace,
		symbols:   symbols,
		edges:     edges,
		parents:   make([][]Edge, symbols.len()),
		children:  make([][]Edge, symbols.len()),
		frozenAt:  time.Now(),
	}
	for _, e := range edges {
		c, _ := symbols.lookup(e.Child)
		p, _ := symbols.lookup(e.Parent)
		g.parents[c] = append(g.parents[c], e)
		g.children[p] = append(g.children[p], e)
	}
	return g, nil
}

// Graph is a published, read-only ontology graph for one namespace.
//
// A Graph never changes after Freeze returns it, so any number of goroutines
// may query it concurrently without locking. Every slice handed out is a copy.
type Graph struct {
	namespace string
	symbols   *symbolTable
	edges     []Edge

	// parents[v] holds edges whose child is v; children[v] edges whose parent is v.
	parents  [][]Edge
	children [][]Edge

	frozenAt time.Time
}

// Namespace returns the namespace shared by every term in the graph.
func (g *Graph) Namespace() string { return g.namespace }

// FrozenAt returns when the graph was published.
func (g *Graph) FrozenAt() time.Time { return g.frozenAt }

// VertexCount returns the number of distinct terms.
func (g *Graph) VertexCount() int { return g.symbols.len() }

// EdgeCount returns the number of distinct edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// HasVertex reports whether the term is an endpoint of any edge.
func (g *Graph) HasVertex(id string) bool {
	_, ok := g.symbols.lookup(id)
	return ok
}

// Vertices returns every term id, sorted.
func (g *Graph) Vertices() []string {
	out := slices.Clone(g.symbols.fromID)
	sort.Strings(out)
	return out
}

// Edges returns every edge ordered by child, parent and type.
func (g *Graph) Edges() []Edge {
	return slices.Clone(g.edges)
}

// ParentsOf returns the edges leaving id whose type is subsumed by at least
// one of types. No types means no restriction. Unknown ids have no parents.
func (g *Graph) ParentsOf(id string, types ...RelationType) []Edge {
	v, ok := g.symbols.lookup(id)
	if !ok {
		return []Edge{}
	}
	return filterEdges(g.parents[v], types)
}

// ChildrenOf returns the edges arriving at id whose type is subsumed by at
// least one of types.
func (g *Graph) ChildrenOf(id string, types ...RelationType) []Edge {
	v, ok := g.symbols.lookup(id)
	if !ok {
		return []Edge{}
	}
	return filterEdges(g.children[v], types)
}

// parentLookup and childLookup adapt the adjacency lists to LookupFunc.
func (g *Graph) parentLookup(id string, types []RelationType) ([]Edge, error) {
	return g.ParentsOf(id, types...), nil
}

func (g *Graph) childLookup(id string, types []RelationType) ([]Edge, error) {
	return g.ChildrenOf(id, types...), nil
}

// Validate checks that both adjacency indexes agree with the edge list.
func (g *Graph) Validate() error {
	if len(g.parents) != g.symbols.len() || len(g.children) != g.symbols.len() {
		return fmt.Errorf("adjacency size mismatch: %d vertices, %d parent lists, %d child lists",
			g.symbols.len(), len(g.parents), len(g.children))
	}
	var up, down int
	for v := range g.parents {
		name := g.symbols.name(VertexID(v))
		for _, e := range g.parents[v] {
			if e.Child != name {
				return fmt.Errorf("parent index of %s holds edge %s", name, e)
			}
		}
		for _, e := range g.children[v] {
			if e.Parent != name {
				return fmt.Errorf("child index of %s holds edge %s", name, e)
			}
		}
		up += len(g.parents[v])
		down += len(g.children[v])
	}
	if up != len(g.edges) || down != len(g.edges) {
		return fmt.Errorf("indexed %d/%d edges, graph has %d", up, down, len(g.edges))
	}
	return nil
}

func filterEdges(edges []Edge, types []RelationType) []Edge {
	out := make([]Edge, 0, len(edges))
	for _, e := range edges {
		if SubsumedByAny(types, e.Type) {
			out = append(out, e)
		}
	}
	return out
}
