package ontology

import "fmt"

// Combine chains inner (A -> B) and outer (B -> C) into a single logical
// edge A -> C whose type is inferred from the pair.
//
// Undefined is a legitimate result: no useful relation can be inferred.
func Combine(inner, outer Edge) (Edge, error) {
	if inner.Parent != outer.Child {
		return Edge{}, fmt.Errorf("%w: %s -> %s then %s -> %s",
			ErrIncompatibleEdges, inner.Child, inner.Parent, outer.Child, outer.Parent)
	}
	return Edge{
		Child:  inner.Child,
		Parent: outer.Parent,
		Type:   combineTypes(inner.Type, outer.Type),
	}, nil
}

// combineTypes applies the precedence table top to bottom; first match wins.
func combineTypes(inner, outer RelationType) RelationType {
	switch {
	case inner == Identity:
		return outer
	case outer == Identity:
		return inner
	case inner == HasPart || outer == HasPart:
		return Undefined
	case inner == IsA:
		return outer
	case outer == IsA:
		return inner
	case inner == PartOf && outer == PartOf:
		return PartOf
	case inner == OccursIn:
		return OccursIn
	case inner == Regulates && outer == PartOf:
		return Regulates
	default:
		return Undefined
	}
}
