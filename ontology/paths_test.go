package ontology

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaths_ShortestFirst(t *testing.T) {
	g := buildGraph(t, componentEdges()...)

	paths := g.Paths(plasmaMembrane, cellularComponent, 0)
	require.Len(t, paths, 3)
	assert.Equal(t, []Edge{
		{plasmaMembrane, membrane, IsA},
		{membrane, cellularComponent, IsA},
	}, paths[0])
	assert.Equal(t, []Edge{
		{plasmaMembrane, cellPart, IsA},
		{cellPart, cellularComponent, IsA},
	}, paths[1])
	assert.Equal(t, []Edge{
		{plasmaMembrane, cellPart, IsA},
		{cellPart, cell, PartOf},
		{cell, cellularComponent, IsA},
	}, paths[2])

	for i := 1; i < len(paths); i++ {
		assert.LessOrEqual(t, len(paths[i-1]), len(paths[i]))
	}
}

func TestPaths_FilterAndLimit(t *testing.T) {
	g := buildGraph(t, componentEdges()...)

	assert.Len(t, g.Paths(plasmaMembrane, cellularComponent, 0, IsA), 2)
	assert.Len(t, g.Paths(plasmaMembrane, cellularComponent, 1), 1)
	assert.Empty(t, g.Paths(plasmaMembrane, cellularComponent, 0, PartOf))
	assert.Empty(t, g.Paths(cellularComponent, plasmaMembrane, 0), "paths only go upward")
	assert.Empty(t, g.Paths(plasmaMembrane, plasmaMembrane, 0))
	assert.Empty(t, g.Paths("GO:0000000", cellularComponent, 0))
}

func TestPaths_SimpleOnCycle(t *testing.T) {
	g := buildGraph(t,
		Edge{"GO:1", "GO:2", IsA},
		Edge{"GO:2", "GO:3", IsA},
		Edge{"GO:3", "GO:1", IsA},
		Edge{"GO:3", "GO:4", IsA},
	)
	paths := g.Paths("GO:1", "GO:4", 0)
	require.Len(t, paths, 1)
	assert.Len(t, paths[0], 3)
}

// denseLattice connects GO:leaf to GO:root through `depth` fully connected
// layers of `width` terms, giving width^depth distinct paths.
func denseLattice(t *testing.T, depth, width int) *Graph {
	t.Helper()
	layer := []string{"GO:root"}
	var edges []Edge
	for d := 1; d <= depth; d++ {
		next := make([]string, width)
		for i := range next {
			next[i] = fmt.Sprintf("GO:%d.%d", d, i)
			for _, parent := range layer {
				edges = append(edges, Edge{next[i], parent, IsA})
			}
		}
		layer = next
	}
	for _, parent := range layer {
		edges = append(edges, Edge{"GO:leaf", parent, IsA})
	}
	return buildGraph(t, edges...)
}

func TestPaths_PendingQueueBounded(t *testing.T) {
	g := denseLattice(t, 6, 6)

	for _, limit := range []int{1, 10} {
		paths, peak := g.searchPaths("GO:leaf", "GO:root", limit, nil)
		require.Len(t, paths, limit)
		for _, p := range paths {
			assert.Len(t, p, 7)
			assert.Equal(t, "GO:leaf", p[0].Child)
			assert.Equal(t, "GO:root", p[len(p)-1].Parent)
		}
		assert.LessOrEqual(t, peak, limit*pendingPerPath, "limit %d", limit)
	}
}

func TestInferredRelations(t *testing.T) {
	g := buildGraph(t, componentEdges()...)
	assert.Equal(t, []Edge{
		{plasmaMembrane, cellularComponent, IsA},
		{plasmaMembrane, cellularComponent, PartOf},
		{plasmaMembrane, cell, PartOf},
		{plasmaMembrane, membrane, IsA},
		{plasmaMembrane, cellPart, IsA},
		{plasmaMembrane, cellPeriphery, PartOf},
	}, g.InferredRelations(plasmaMembrane))
}

func TestInferredRelations_HasPartBlocks(t *testing.T) {
	g := buildGraph(t,
		Edge{"GO:1", "GO:2", HasPart},
		Edge{"GO:2", "GO:3", IsA},
		Edge{"GO:1", "GO:4", IsA},
	)
	assert.Equal(t, []Edge{{"GO:1", "GO:4", IsA}}, g.InferredRelations("GO:1"))
}

func TestWriteJSON(t *testing.T) {
	g := buildGraph(t, componentEdges()...)
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, g.AncestorGraph([]string{cell}, nil).Document(), false))

	var doc ClosureDocument
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, []string{cellularComponent, cell}, doc.Vertices)
	assert.Equal(t, []Edge{{cell, cellularComponent, IsA}}, doc.Edges)
}
