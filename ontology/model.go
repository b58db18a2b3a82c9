package ontology

import (
	"fmt"
	"strings"
)

// Edge is a typed relationship read as "Child has Type to Parent", e.g.
// GO:0005886 is_a GO:0016020. The full triple is the edge's identity.
type Edge struct {
	Child  string       `json:"child"`
	Parent string       `json:"parent"`
	Type   RelationType `json:"relation"`
}

func (e Edge) String() string {
	return fmt.Sprintf("%s %s %s", e.Child, e.Type.LongCode(), e.Parent)
}

// Namespace returns the prefix of a term id, "GO" for "GO:0016462". An id
// without a colon is its own namespace.
func Namespace(id string) string {
	if ns, _, ok := strings.Cut(id, ":"); ok {
		return ns
	}
	return id
}

// validateEdge checks an edge in isolation; namespace is the namespace the
// edge is expected to belong to, or "" for any.
func validateEdge(e Edge, namespace string) error {
	if e.Child == "" || e.Parent == "" {
		return fmt.Errorf("%w: empty endpoint in %q -> %q", ErrInvalidEdge, e.Child, e.Parent)
	}
	if !e.Type.Valid() {
		return fmt.Errorf("%w: relation type %d", ErrInvalidEdge, uint8(e.Type))
	}
	childNS, parentNS := Namespace(e.Child), Namespace(e.Parent)
	if childNS != parentNS {
		return fmt.Errorf("%w: %s (%s) -> %s (%s)", ErrNamespaceMismatch, e.Child, childNS, e.Parent, parentNS)
	}
	if namespace != "" && childNS != namespace {
		return fmt.Errorf("%w: edge %s in %s graph", ErrNamespaceMismatch, e, namespace)
	}
	return nil
}

// compareEdges orders edges by child, parent, then type.
func compareEdges(a, b Edge) int {
	if c := strings.Compare(a.Child, b.Child); c != 0 {
		return c
	}
	if c := strings.Compare(a.Parent, b.Parent); c != 0 {
		return c
	}
	return int(a.Type) - int(b.Type)
}
