package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeadmin/ontoslim/loader"
	"github.com/nodeadmin/ontoslim/ontology"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "ontoslim.yaml", `
sources:
  - namespace: GO
    paths: [relations/go.tsv.gz, /abs/go-extra.tsv]
    header_lines: 1
  - namespace: ECO
    format: obo
    paths: [eco.obo]
max_skips: 50
slim:
  relations: [I, P]
  cache_size: 8
log:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.Len(t, cfg.Sources, 2)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "relations/go.tsv.gz"), cfg.Sources[0].Paths[0])
	assert.Equal(t, "/abs/go-extra.tsv", cfg.Sources[0].Paths[1])
	assert.Equal(t, 50, cfg.MaxSkips)
	assert.Equal(t, 8, cfg.Slim.CacheSize)
	assert.Equal(t, ontology.DefaultPathLimit, cfg.Slim.PathLimit, "default kept")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)

	rels, err := cfg.SlimRelations()
	require.NoError(t, err)
	assert.Equal(t, []ontology.RelationType{ontology.IsA, ontology.PartOf}, rels)

	opts := cfg.LoaderOptions(cfg.Sources[1])
	assert.Equal(t, loader.FormatOBO, opts.Format)
	assert.Equal(t, 50, opts.MaxSkips)
	assert.Equal(t, []string{"GO", "ECO"}, opts.Namespaces)
}

func TestLoad_TOML(t *testing.T) {
	path := writeConfig(t, "ontoslim.toml", `
namespaces = ["GO"]
workers = 2

[[sources]]
namespace = "GO"
paths = ["go.tsv"]

[log]
file = "/var/log/ontoslim.log"
max_size = 10
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"GO"}, cfg.Namespaces)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, "/var/log/ontoslim.log", cfg.Log.File)
	assert.Equal(t, 10, cfg.Log.MaxSize)
	assert.Equal(t, 30, cfg.Log.MaxAge)
}

func TestLoad_LogKeysMatchAcrossFormats(t *testing.T) {
	fromYAML, err := Load(writeConfig(t, "ontoslim.yaml", `
log:
  max_size: 5
  max_age: 7
telemetry:
  metrics_file: /tmp/ontoslim.prom
`))
	require.NoError(t, err)

	fromTOML, err := Load(writeConfig(t, "ontoslim.toml", `
[log]
max_size = 5
max_age = 7

[telemetry]
metrics_file = "/tmp/ontoslim.prom"
`))
	require.NoError(t, err)

	assert.Equal(t, 5, fromYAML.Log.MaxSize)
	assert.Equal(t, 7, fromYAML.Log.MaxAge)
	assert.Equal(t, fromYAML.Log, fromTOML.Log)
	assert.Equal(t, fromYAML.Telemetry, fromTOML.Telemetry)
	assert.Equal(t, "/tmp/ontoslim.prom", fromTOML.Telemetry.MetricsFile)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative skips", func(c *Config) { c.MaxSkips = -1 }},
		{"bad relation", func(c *Config) { c.Slim.Relations = []string{"I", "nope"} }},
		{"missing namespace", func(c *Config) { c.Sources = []SourceConfig{{Paths: []string{"a"}}} }},
		{"no paths", func(c *Config) { c.Sources = []SourceConfig{{Namespace: "GO"}} }},
		{"duplicate namespace", func(c *Config) {
			c.Sources = []SourceConfig{{Namespace: "GO", Paths: []string{"a"}}, {Namespace: "GO", Paths: []string{"b"}}}
		}},
		{"bad format", func(c *Config) { c.Sources = []SourceConfig{{Namespace: "GO", Paths: []string{"a"}, Format: "xlsx"}} }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}

	cfg := Default()
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "bad.yaml", "sources: [unclosed"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "bad.toml", "max_skips = -3"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
