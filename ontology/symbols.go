package ontology

// VertexID is the dense integer id a published graph assigns to a term.
type VertexID uint32

// symbolTable maps term ids to dense VertexIDs for the graph's adjacency arrays.
type symbolTable struct {
	toID   map[string]VertexID
	fromID []string
}

func newSymbolTable(capacity int) *symbolTable {
	return &symbolTable{
		toID:   make(map[string]VertexID, capacity),
		fromID: make([]string, 0, capacity),
	}
}

// intern returns the VertexID for the given term, creating one if needed.
func (st *symbolTable) intern(term string) VertexID {
	if id, ok := st.toID[term]; ok {
		return id
	}
	id := VertexID(len(st.fromID))
	st.toID[term] = id
	st.fromID = append(st.fromID, term)
	return id
}

func (st *symbolTable) lookup(term string) (VertexID, bool) {
	id, ok := st.toID[term]
	return id, ok
}

// name returns the term for a VertexID, or "" when out of range.
func (st *symbolTable) name(id VertexID) string {
	if int(id) < len(st.fromID) {
		return st.fromID[id]
	}
	return ""
}

func (st *symbolTable) len() int { return len(st.fromID) }
