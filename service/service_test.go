package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeadmin/ontoslim/ontology"
	"github.com/nodeadmin/ontoslim/slim"
)

const (
	cellularComponent = "GO:0005575"
	cell              = "GO:0005623"
	membrane          = "GO:0016020"
	cellPart          = "GO:0044464"
	cellPeriphery     = "GO:0071944"
	plasmaMembrane    = "GO:0005886"

	evidence   = "ECO:0000000"
	experiment = "ECO:0000006"
)

func build(t *testing.T, edges ...ontology.Edge) *ontology.Graph {
	t.Helper()
	b := ontology.NewBuilder("")
	require.NoError(t, b.AddEdges(edges...))
	g, err := b.Freeze()
	require.NoError(t, err)
	return g
}

func newService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	s := New(opts...)
	require.NoError(t, s.Register(build(t,
		ontology.Edge{Child: cell, Parent: cellularComponent, Type: ontology.IsA},
		ontology.Edge{Child: membrane, Parent: cellularComponent, Type: ontology.IsA},
		ontology.Edge{Child: cellPart, Parent: cell, Type: ontology.PartOf},
		ontology.Edge{Child: cellPart, Parent: cellularComponent, Type: ontology.IsA},
		ontology.Edge{Child: plasmaMembrane, Parent: cellPeriphery, Type: ontology.PartOf},
		ontology.Edge{Child: plasmaMembrane, Parent: cellPart, Type: ontology.IsA},
		ontology.Edge{Child: plasmaMembrane, Parent: membrane, Type: ontology.IsA},
	)))
	require.NoError(t, s.Register(build(t,
		ontology.Edge{Child: experiment, Parent: evidence, Type: ontology.IsA},
	)))
	return s
}

func TestRegister(t *testing.T) {
	s := newService(t)
	assert.Equal(t, []string{"ECO", "GO"}, s.Namespaces())

	err := s.Register(build(t, ontology.Edge{Child: cell, Parent: cellularComponent, Type: ontology.IsA}))
	assert.ErrorIs(t, err, ErrOntologyExists)

	assert.ErrorIs(t, s.Register(nil), ErrUnknownOntology)

	_, err = s.Graph("CHEBI")
	assert.ErrorIs(t, err, ErrUnknownOntology)
}

func TestAncestorsDescendants(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	anc, err := s.Ancestors(ctx, plasmaMembrane, ontology.IsA)
	require.NoError(t, err)
	assert.Equal(t, []string{cellularComponent, plasmaMembrane, membrane, cellPart}, anc)

	desc, err := s.Descendants(ctx, cell)
	require.NoError(t, err)
	assert.Equal(t, []string{cell, plasmaMembrane, cellPart}, desc)

	eco, err := s.Ancestors(ctx, experiment)
	require.NoError(t, err)
	assert.Equal(t, []string{evidence, experiment}, eco)

	unknown, err := s.Ancestors(ctx, "GO:9999999")
	require.NoError(t, err)
	assert.Empty(t, unknown)

}

func TestQueries_UnregisteredNamespace(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	for _, id := range []string{"CHEBI:15377", "NOT_A_REAL_ID", ""} {
		anc, err := s.Ancestors(ctx, id)
		require.NoError(t, err, id)
		assert.Equal(t, []string{}, anc, id)

		desc, err := s.Descendants(ctx, id)
		require.NoError(t, err, id)
		assert.Equal(t, []string{}, desc, id)

		ag, err := s.AncestorGraph(ctx, id)
		require.NoError(t, err, id)
		assert.Empty(t, ag.Vertices, id)

		rels, err := s.InferredRelations(ctx, id)
		require.NoError(t, err, id)
		assert.Equal(t, []ontology.Edge{}, rels, id)

		paths, err := s.Paths(ctx, id, cellularComponent)
		require.NoError(t, err, id)
		assert.Equal(t, [][]ontology.Edge{}, paths, id)
	}
}

func TestAncestorGraph(t *testing.T) {
	s := newService(t)
	ag, err := s.AncestorGraph(context.Background(), cellPart, ontology.PartOf)
	require.NoError(t, err)
	assert.Equal(t, []string{cell, cellPart}, ag.VertexList())
	assert.Equal(t, []ontology.Edge{{Child: cellPart, Parent: cell, Type: ontology.PartOf}}, ag.EdgeList())

	ag, err = s.AncestorGraph(context.Background(), "GO:9999999")
	require.NoError(t, err)
	assert.Empty(t, ag.Vertices)
}

func TestPaths(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	paths, err := s.Paths(ctx, plasmaMembrane, cellularComponent, ontology.IsA, ontology.PartOf)
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Len(t, paths[0], 2)
	assert.Len(t, paths[1], 2)
	assert.Len(t, paths[2], 3)

	paths, err = s.Paths(ctx, plasmaMembrane, evidence)
	require.NoError(t, err)
	assert.Empty(t, paths)

	limited := New(WithPathLimit(1), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	g, err := s.Graph("GO")
	require.NoError(t, err)
	require.NoError(t, limited.Register(g))
	paths, err = limited.Paths(ctx, plasmaMembrane, cellularComponent)
	require.NoError(t, err)
	assert.Len(t, paths, 1)

	paths, err = s.Paths(ctx, "CHEBI:1", "CHEBI:2")
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestInferredRelations(t *testing.T) {
	s := newService(t)
	rels, err := s.InferredRelations(context.Background(), cellPart)
	require.NoError(t, err)
	assert.Equal(t, []ontology.Edge{
		{Child: cellPart, Parent: cellularComponent, Type: ontology.IsA},
		{Child: cellPart, Parent: cellularComponent, Type: ontology.PartOf},
		{Child: cellPart, Parent: cell, Type: ontology.PartOf},
	}, rels)
}

func TestCreateSlims_Cached(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	first, err := s.CreateSlims(ctx, "GO", []string{membrane, cellPart})
	require.NoError(t, err)
	assert.Equal(t, []string{membrane, cellPart}, s.FindSlimmedToTerms(first, plasmaMembrane))

	again, err := s.CreateSlims(ctx, "GO", []string{membrane, cellPart},
		slim.WithRelationTypes(ontology.OccursIn, ontology.PartOf, ontology.IsA))
	require.NoError(t, err)
	assert.Same(t, first, again, "same canonical request is served from cache")

	other, err := s.CreateSlims(ctx, "GO", []string{membrane, cellPart}, slim.WithRelationTypes(ontology.IsA))
	require.NoError(t, err)
	assert.NotSame(t, first, other)
	assert.Equal(t, []string{cellPart}, other.FindSlimmedToTerms(cellPart))
}

func TestCreateSlims_Eviction(t *testing.T) {
	s := newService(t, WithCacheSize(1))
	ctx := context.Background()

	a, err := s.CreateSlims(ctx, "GO", []string{membrane})
	require.NoError(t, err)
	_, err = s.CreateSlims(ctx, "GO", []string{cellPart})
	require.NoError(t, err)
	a2, err := s.CreateSlims(ctx, "GO", []string{membrane})
	require.NoError(t, err)
	assert.NotSame(t, a, a2)
	assert.True(t, a.Equal(a2))

	uncached := newService(t, WithCacheSize(0))
	b, err := uncached.CreateSlims(ctx, "GO", []string{membrane})
	require.NoError(t, err)
	b2, err := uncached.CreateSlims(ctx, "GO", []string{membrane})
	require.NoError(t, err)
	assert.NotSame(t, b, b2)
	assert.True(t, b.Equal(b2))
}

func TestCreateSlims_Concurrent(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	const n = 16
	maps := make([]*slim.Map, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := s.CreateSlims(ctx, "GO", []string{cell, membrane})
			assert.NoError(t, err)
			maps[i] = m
		}(i)
	}
	wg.Wait()

	for _, m := range maps[1:] {
		require.NotNil(t, m)
		assert.True(t, maps[0].Equal(m))
	}
}

func TestCreateSlims_Errors(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	_, err := s.CreateSlims(ctx, "CHEBI", []string{"CHEBI:1"})
	assert.ErrorIs(t, err, ErrUnknownOntology)

	_, err = s.CreateSlims(ctx, "GO", nil)
	assert.ErrorIs(t, err, slim.ErrInvalidSlimRequest)

	_, err = s.CreateSlims(ctx, "GO", []string{membrane}, slim.WithRelationTypes())
	assert.ErrorIs(t, err, slim.ErrInvalidSlimRequest)

	assert.Empty(t, s.FindSlimmedToTerms(nil, membrane))
}
