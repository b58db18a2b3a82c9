// Package config loads ontoslim settings from YAML or TOML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/nodeadmin/ontoslim/loader"
	"github.com/nodeadmin/ontoslim/ontology"
)

// ErrInvalidConfig is returned for invalid configuration values.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config holds all configuration for loading ontologies and serving queries.
type Config struct {
	// Sources lists the relationship files, one entry per ontology.
	Sources []SourceConfig `yaml:"sources" toml:"sources"`

	// Namespaces accepted by the loader. Default: GO, ECO.
	Namespaces []string `yaml:"namespaces" toml:"namespaces"`

	// MaxSkips is the number of invalid records tolerated per source before
	// loading fails. Zero means no limit.
	MaxSkips int `yaml:"max_skips" toml:"max_skips"`

	// Workers bounds parallel file reads and slim computation. Zero uses all CPUs.
	Workers int `yaml:"workers" toml:"workers"`

	Slim      SlimConfig      `yaml:"slim" toml:"slim"`
	Log       LogConfig       `yaml:"log" toml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry" toml:"telemetry"`
}

// SourceConfig describes the files of one ontology.
type SourceConfig struct {
	Namespace   string   `yaml:"namespace" toml:"namespace"`
	Format      string   `yaml:"format" toml:"format"` // auto, tsv, obo, owl
	Paths       []string `yaml:"paths" toml:"paths"`
	HeaderLines int      `yaml:"header_lines" toml:"header_lines"`
}

// SlimConfig configures slimming and path queries.
type SlimConfig struct {
	// Relations are the default relation codes for slimming, e.g. ["I", "P", "OI"].
	Relations []string `yaml:"relations" toml:"relations"`

	// CacheSize is the number of slim maps kept in memory.
	CacheSize int `yaml:"cache_size" toml:"cache_size"`

	// PathLimit caps the number of paths returned by a single path query.
	PathLimit int `yaml:"path_limit" toml:"path_limit"`
}

// LogConfig configures logging. With an empty File, logs go to stderr.
type LogConfig struct {
	Level   string `yaml:"level" toml:"level"`
	Format  string `yaml:"format" toml:"format"` // text or json
	File    string `yaml:"file" toml:"file"`
	MaxSize int    `yaml:"max_size" toml:"max_size"` // megabytes
	MaxAge  int    `yaml:"max_age" toml:"max_age"`   // days
}

// TelemetryConfig names the files metrics and spans are written to when a
// command finishes. Empty paths disable export.
type TelemetryConfig struct {
	MetricsFile string `yaml:"metrics_file" toml:"metrics_file"` // Prometheus text format
	TraceFile   string `yaml:"trace_file" toml:"trace_file"`     // JSON spans
}

// Default returns a Config with sensible defaults and no sources.
func Default() Config {
	return Config{
		Namespaces: append([]string(nil), loader.DefaultNamespaces...),
		Slim: SlimConfig{
			Relations: []string{"I", "P", "OI"},
			CacheSize: 32,
			PathLimit: ontology.DefaultPathLimit,
		},
		Log: LogConfig{
			Level:   "info",
			Format:  "text",
			MaxSize: 100,
			MaxAge:  30,
		},
	}
}

// Load reads a configuration file. Files ending in .toml are decoded as
// TOML, everything else as YAML. Unset fields keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return cfg, fmt.Errorf("decode TOML config %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("decode YAML config %s: %w", path, err)
		}
	}

	base := filepath.Dir(path)
	for i := range cfg.Sources {
		for j, p := range cfg.Sources[i].Paths {
			if !filepath.IsAbs(p) {
				cfg.Sources[i].Paths[j] = filepath.Join(base, p)
			}
		}
	}
	return cfg, cfg.Validate()
}

// Validate checks the configuration for values the engine cannot use.
func (c *Config) Validate() error {
	if c.MaxSkips < 0 {
		return fmt.Errorf("%w: max_skips must not be negative", ErrInvalidConfig)
	}
	if c.Slim.CacheSize < 0 {
		return fmt.Errorf("%w: slim.cache_size must not be negative", ErrInvalidConfig)
	}
	if _, err := c.SlimRelations(); err != nil {
		return fmt.Errorf("%w: slim.relations: %v", ErrInvalidConfig, err)
	}

	seen := make(map[string]bool, len(c.Sources))
	for i, src := range c.Sources {
		if src.Namespace == "" {
			return fmt.Errorf("%w: sources[%d]: namespace is required", ErrInvalidConfig, i)
		}
		if seen[src.Namespace] {
			return fmt.Errorf("%w: sources[%d]: namespace %s listed twice", ErrInvalidConfig, i, src.Namespace)
		}
		seen[src.Namespace] = true
		if len(src.Paths) == 0 {
			return fmt.Errorf("%w: sources[%d]: no paths", ErrInvalidConfig, i)
		}
		if src.HeaderLines < 0 {
			return fmt.Errorf("%w: sources[%d]: header_lines must not be negative", ErrInvalidConfig, i)
		}
		if _, err := loader.ParseFormat(src.Format); err != nil {
			return fmt.Errorf("%w: sources[%d]: %v", ErrInvalidConfig, i, err)
		}
	}
	return nil
}

// SlimRelations resolves the configured default slim relations.
func (c *Config) SlimRelations() ([]ontology.RelationType, error) {
	if len(c.Slim.Relations) == 0 {
		return ontology.DefaultSlimRelations, nil
	}
	return ontology.ParseRelationTypes(strings.Join(c.Slim.Relations, ","))
}

// LoaderOptions returns the loader options for one source.
func (c *Config) LoaderOptions(src SourceConfig) loader.Options {
	format, _ := loader.ParseFormat(src.Format)
	return loader.Options{
		Format:      format,
		HeaderLines: src.HeaderLines,
		Namespaces:  c.Namespaces,
		MaxSkips:    c.MaxSkips,
		Workers:     c.Workers,
	}
}
