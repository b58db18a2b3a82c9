package ontology

import "errors"

var (
	// ErrUnknownRelationType is returned when a relation code is not one of
	// the closed set of relation types.
	ErrUnknownRelationType = errors.New("ontology: unknown relation type")

	// ErrNamespaceMismatch is returned when the two endpoints of an edge, or an
	// edge and the graph it is added to, belong to different namespaces.
	ErrNamespaceMismatch = errors.New("ontology: namespace mismatch")

	// ErrInvalidEdge is returned for edges with empty endpoints or an
	// out-of-range relation type.
	ErrInvalidEdge = errors.New("ontology: invalid edge")

	// ErrIncompatibleEdges is returned by Combine when the inner edge's parent
	// is not the outer edge's child.
	ErrIncompatibleEdges = errors.New("ontology: edges do not chain")

	// ErrGraphFrozen is returned when a builder is used after Freeze.
	ErrGraphFrozen = errors.New("ontology: graph is frozen and cannot be modified")
)
