package ontology

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
)

const writerBufferSize = 256 * 1024 // 256 KB

// ClosureDocument is the JSON form of an AncestorGraph.
type ClosureDocument struct {
	Vertices []string `json:"vertices"`
	Edges    []Edge   `json:"edges"`
}

// Document converts the closure into its sorted JSON form.
func (ag *AncestorGraph) Document() ClosureDocument {
	return ClosureDocument{Vertices: ag.VertexList(), Edges: ag.EdgeList()}
}

// WriteJSON writes v as JSON to the given writer, indented when pretty is set.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	bw := bufio.NewWriterSize(w, writerBufferSize)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return err
	}
	return bw.Flush()
}

// WriteJSONFile writes v as JSON to the given file path.
func WriteJSONFile(path string, v any, pretty bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteJSON(f, v, pretty); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
