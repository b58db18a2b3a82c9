package slim

import (
	"io"
	"slices"
	"sort"

	"github.com/nodeadmin/ontoslim/ontology"
)

// Map is the immutable result of Create: each mapped term with the slim
// terms it reduces to, in slim set order. It is safe for concurrent use.
type Map struct {
	namespace string
	slimSet   []string
	types     []ontology.RelationType
	key       string
	mappings  map[string][]string
}

// FindSlimmedToTerms returns the slim terms id maps to. Ids that map to
// nothing, including ids unknown to the ontology, yield an empty slice.
func (m *Map) FindSlimmedToTerms(id string) []string {
	terms, ok := m.mappings[id]
	if !ok {
		return []string{}
	}
	return slices.Clone(terms)
}

// Namespace returns the namespace of the graph the map was built from.
func (m *Map) Namespace() string { return m.namespace }

// SlimSet returns the deduplicated slim set in request order.
func (m *Map) SlimSet() []string { return slices.Clone(m.slimSet) }

// RelationTypes returns the relation types that were followed.
func (m *Map) RelationTypes() []ontology.RelationType { return slices.Clone(m.types) }

// Key identifies the request the map was built for; see RequestKey.
func (m *Map) Key() string { return m.key }

// Len returns the number of mapped terms.
func (m *Map) Len() int { return len(m.mappings) }

// Terms returns every mapped term id, sorted.
func (m *Map) Terms() []string {
	out := make([]string, 0, len(m.mappings))
	for id := range m.mappings {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Equal reports whether both maps hold the same mappings, comparing each
// term's slim terms as sets.
func (m *Map) Equal(other *Map) bool {
	if other == nil || len(m.mappings) != len(other.mappings) {
		return false
	}
	for id, terms := range m.mappings {
		theirs, ok := other.mappings[id]
		if !ok || len(terms) != len(theirs) {
			return false
		}
		for _, t := range terms {
			if !slices.Contains(theirs, t) {
				return false
			}
		}
	}
	return true
}

// Document is the JSON form of a Map.
type Document struct {
	Namespace string                  `json:"namespace"`
	SlimSet   []string                `json:"slim_set"`
	Relations []ontology.RelationType `json:"relations"`
	Mappings  map[string][]string     `json:"mappings"`
}

// Document returns the map's JSON form, optionally restricted to the given
// term ids. Restricted documents list requested ids even when unmapped.
func (m *Map) Document(ids ...string) Document {
	doc := Document{
		Namespace: m.namespace,
		SlimSet:   m.SlimSet(),
		Relations: m.RelationTypes(),
	}
	if len(ids) == 0 {
		doc.Mappings = make(map[string][]string, len(m.mappings))
		for id, terms := range m.mappings {
			doc.Mappings[id] = slices.Clone(terms)
		}
		return doc
	}
	doc.Mappings = make(map[string][]string, len(ids))
	for _, id := range ids {
		doc.Mappings[id] = m.FindSlimmedToTerms(id)
	}
	return doc
}

// WriteJSON writes the map, or the requested subset of it, as JSON.
func WriteJSON(w io.Writer, m *Map, pretty bool, ids ...string) error {
	return ontology.WriteJSON(w, m.Document(ids...), pretty)
}
