package loader

import (
	"fmt"
	"strings"

	"github.com/nodeadmin/ontoslim/ontology"
)

// DefaultNamespaces are the ontology namespaces accepted when none are configured.
var DefaultNamespaces = []string{"GO", "ECO"}

// Record is one raw relationship row: child id, parent id and relation code.
type Record struct {
	Source string
	Line   int

	Child    string
	Parent   string
	Relation string

	// LongCode marks Relation as an OBO style name ("part_of") rather than a
	// short code ("P").
	LongCode bool
}

// Validate trims the record's fields and converts it into an edge.
//
// Errors:
//
//	ErrMalformedRecord - child or parent id is empty
//	ontology.ErrUnknownRelationType - relation code does not resolve
//	ontology.ErrNamespaceMismatch - child and parent namespaces differ
//	ErrUnsupportedNamespace - namespace is not in namespaces (when non-empty)
func Validate(rec Record, namespaces map[string]struct{}) (ontology.Edge, error) {
	child := strings.TrimSpace(rec.Child)
	parent := strings.TrimSpace(rec.Parent)
	code := strings.TrimSpace(rec.Relation)

	if child == "" || parent == "" {
		return ontology.Edge{}, fmt.Errorf("%w: empty term id", ErrMalformedRecord)
	}

	var (
		rt  ontology.RelationType
		err error
	)
	if rec.LongCode {
		rt, err = ontology.ByLongCode(code)
	} else {
		rt, err = ontology.ByShortCode(code)
	}
	if err != nil {
		return ontology.Edge{}, err
	}

	ns := ontology.Namespace(child)
	if pns := ontology.Namespace(parent); pns != ns {
		return ontology.Edge{}, fmt.Errorf("%w: %s (%s) -> %s (%s)", ontology.ErrNamespaceMismatch, child, ns, parent, pns)
	}
	if len(namespaces) > 0 {
		if _, ok := namespaces[ns]; !ok {
			return ontology.Edge{}, fmt.Errorf("%w: %s", ErrUnsupportedNamespace, ns)
		}
	}
	return ontology.Edge{Child: child, Parent: parent, Type: rt}, nil
}

func namespaceSet(namespaces []string) map[string]struct{} {
	set := make(map[string]struct{}, len(namespaces))
	for _, ns := range namespaces {
		if ns = strings.TrimSpace(ns); ns != "" {
			set[ns] = struct{}{}
		}
	}
	return set
}
