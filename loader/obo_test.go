package loader

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeadmin/ontoslim/ontology"
)

const sampleOBO = `format-version: 1.2
data-version: releases/2024-01-17
ontology: go

[Term]
id: GO:0005886
name: plasma membrane
namespace: cellular_component
is_a: GO:0016020 ! membrane
relationship: part_of GO:0071944 ! cell periphery

[Term]
id: GO:0016020
name: membrane
is_a: GO:0005575 {source="mock"} ! cellular_component
relationship: ends_during GO:0000001

[Term]
id: GO:0005574
name: obsolete DNA
is_obsolete: true
replaced_by: GO:0005634
consider: GO:0005737

[Typedef]
id: part_of
name: part of
is_transitive: true
`

func TestReadOBO(t *testing.T) {
	records, hdr, err := ReadOBO(strings.NewReader(sampleOBO), "go.obo")
	require.NoError(t, err)

	assert.Equal(t, OBOHeader{FormatVersion: "1.2", DataVersion: "releases/2024-01-17", Ontology: "go"}, hdr)
	require.Len(t, records, 6)
	assert.Equal(t, Record{Source: "go.obo", Line: 9, Child: "GO:0005886", Parent: "GO:0016020", Relation: "is_a", LongCode: true}, records[0])
	assert.Equal(t, Record{Source: "go.obo", Line: 10, Child: "GO:0005886", Parent: "GO:0071944", Relation: "part_of", LongCode: true}, records[1])
	assert.Equal(t, "GO:0005575", records[2].Parent)
	assert.Equal(t, "ends_during", records[3].Relation)
	assert.Equal(t, "replaced_by", records[4].Relation)
	assert.Equal(t, "consider", records[5].Relation)
}

func TestReadOBO_StanzasWithoutBlankLines(t *testing.T) {
	const packed = `format-version: 1.2
[Term]
id: GO:0005886
is_a: GO:0016020
[Term]
id: GO:0016020
is_a: GO:0005575
[Typedef]
id: part_of
is_a: GO:9999999
`
	records, hdr, err := ReadOBO(strings.NewReader(packed), "packed.obo")
	require.NoError(t, err)
	assert.Equal(t, "1.2", hdr.FormatVersion)
	assert.Equal(t, []Record{
		{Source: "packed.obo", Line: 4, Child: "GO:0005886", Parent: "GO:0016020", Relation: "is_a", LongCode: true},
		{Source: "packed.obo", Line: 7, Child: "GO:0016020", Parent: "GO:0005575", Relation: "is_a", LongCode: true},
	}, records)
}

func TestLoadFiles_OBO(t *testing.T) {
	dir := t.TempDir()
	path := writeGzip(t, dir, "go-basic.obo.gz", sampleOBO)

	b := ontology.NewBuilder("GO")
	report, err := quietLoader(Options{}).LoadFiles(context.Background(), b, path)
	require.NoError(t, err)

	require.Len(t, report.Files, 1)
	assert.Equal(t, FormatOBO, report.Files[0].Format)
	assert.Equal(t, "releases/2024-01-17", report.Files[0].Version)
	assert.Equal(t, 5, report.Loaded)
	assert.Equal(t, 1, report.Skipped, "ends_during is not a modelled relation")

	g, err := b.Freeze()
	require.NoError(t, err)
	assert.Equal(t, []ontology.Edge{{Child: "GO:0005574", Parent: "GO:0005634", Type: ontology.ReplacedBy}},
		g.ParentsOf("GO:0005574", ontology.ReplacedBy))
	assert.Equal(t, []string{"GO:0005575", "GO:0005886", "GO:0016020", "GO:0071944"},
		g.Ancestors("GO:0005886", ontology.IsA, ontology.PartOf))
}
