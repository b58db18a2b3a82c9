package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nodeadmin/ontoslim/loader"
	"github.com/nodeadmin/ontoslim/ontology"
	"github.com/nodeadmin/ontoslim/slim"
)

func newRootCmd() *cobra.Command {
	f := &rootFlags{}
	root := &cobra.Command{
		Use:   "ontoslim",
		Short: "Traverse ontology relationship graphs and map terms onto slims",
		Long: `ontoslim loads ontology relationship files (tab-delimited, OBO or
OWL, optionally gzip compressed) and answers ancestor, descendant, path and
slimming queries. Results are written as JSON.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "YAML or TOML configuration file")
	pf.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringArrayVarP(&f.inputs, "input", "i", nil, "relationship file (repeatable)")
	pf.StringVarP(&f.namespace, "namespace", "n", "GO", "namespace of the --input files")
	pf.StringVar(&f.format, "format", "auto", "input format: auto, tsv, obo, owl")
	pf.IntVar(&f.headerLines, "header-lines", 0, "leading lines to skip in tab-delimited files")
	pf.IntVar(&f.maxSkips, "max-skips", -1, "invalid records tolerated before failing (0 = no limit)")
	pf.IntVar(&f.workers, "workers", 0, "parallel workers (0 = all CPUs)")
	pf.StringVarP(&f.output, "output", "o", "", "write JSON to this file instead of stdout")
	pf.BoolVar(&f.pretty, "pretty", false, "pretty-print JSON output")
	pf.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")
	pf.StringVar(&f.traceFile, "trace-file", "", "write query spans as JSON to this file")

	root.AddCommand(
		newStatsCmd(f),
		newClosureCmd(f, "ancestors", "List a term and all of its ancestors"),
		newClosureCmd(f, "descendants", "List a term and all of its descendants"),
		newPathsCmd(f),
		newRelationsCmd(f),
		newSlimCmd(f),
	)
	return root
}

// withApp loads the configured ontologies and runs fn against them.
func withApp(cmd *cobra.Command, f *rootFlags, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := f.load(ctx)
	if err != nil {
		return err
	}
	err = fn(ctx, a)
	if cerr := a.Close(); err == nil {
		err = cerr
	}
	return err
}

type namespaceStats struct {
	Namespace string         `json:"namespace"`
	Vertices  int            `json:"vertices"`
	Edges     int            `json:"edges"`
	FrozenAt  time.Time      `json:"frozen_at"`
	Size      string         `json:"size"`
	Load      *loader.Report `json:"load"`
}

func newStatsCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Load the inputs and report graph sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, f, func(ctx context.Context, a *app) error {
				out := make([]namespaceStats, 0)
				for _, ns := range a.svc.Namespaces() {
					g, err := a.svc.Graph(ns)
					if err != nil {
						return err
					}
					report := a.reports[ns]
					out = append(out, namespaceStats{
						Namespace: ns,
						Vertices:  g.VertexCount(),
						Edges:     g.EdgeCount(),
						FrozenAt:  g.FrozenAt(),
						Size:      humanize.Bytes(uint64(report.Bytes())),
						Load:      report,
					})
				}
				return f.write(cmd.OutOrStdout(), out)
			})
		},
	}
}

func newClosureCmd(f *rootFlags, use, short string) *cobra.Command {
	var (
		relations string
		edges     bool
	)
	cmd := &cobra.Command{
		Use:   use + " ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			types, err := ontology.ParseRelationTypes(relations)
			if err != nil {
				return err
			}
			return withApp(cmd, f, func(ctx context.Context, a *app) error {
				id := args[0]
				if edges && use == "ancestors" {
					ag, err := a.svc.AncestorGraph(ctx, id, types...)
					if err != nil {
						return err
					}
					return f.write(cmd.OutOrStdout(), ag.Document())
				}
				var ids []string
				if use == "ancestors" {
					ids, err = a.svc.Ancestors(ctx, id, types...)
				} else {
					ids, err = a.svc.Descendants(ctx, id, types...)
				}
				if err != nil {
					return err
				}
				return f.write(cmd.OutOrStdout(), ids)
			})
		},
	}
	cmd.Flags().StringVarP(&relations, "relations", "r", "", "relation codes to follow, e.g. I,P (default all)")
	if use == "ancestors" {
		cmd.Flags().BoolVar(&edges, "edges", false, "include the edges walked")
	}
	return cmd
}

func newPathsCmd(f *rootFlags) *cobra.Command {
	var relations string
	cmd := &cobra.Command{
		Use:   "paths FROM TO",
		Short: "List the parent-directed paths between two terms, shortest first",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			types, err := ontology.ParseRelationTypes(relations)
			if err != nil {
				return err
			}
			return withApp(cmd, f, func(ctx context.Context, a *app) error {
				paths, err := a.svc.Paths(ctx, args[0], args[1], types...)
				if err != nil {
					return err
				}
				return f.write(cmd.OutOrStdout(), paths)
			})
		},
	}
	cmd.Flags().StringVarP(&relations, "relations", "r", "", "relation codes to follow (default all)")
	return cmd
}

func newRelationsCmd(f *rootFlags) *cobra.Command {
	var relations string
	cmd := &cobra.Command{
		Use:   "relations ID",
		Short: "List the relations inferred from a term to each of its ancestors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			types, err := ontology.ParseRelationTypes(relations)
			if err != nil {
				return err
			}
			return withApp(cmd, f, func(ctx context.Context, a *app) error {
				rels, err := a.svc.InferredRelations(ctx, args[0], types...)
				if err != nil {
					return err
				}
				return f.write(cmd.OutOrStdout(), rels)
			})
		},
	}
	cmd.Flags().StringVarP(&relations, "relations", "r", "", "relation codes to follow (default all)")
	return cmd
}

func newSlimCmd(f *rootFlags) *cobra.Command {
	var (
		terms     []string
		relations string
		lookup    []string
	)
	cmd := &cobra.Command{
		Use:   "slim",
		Short: "Map every term onto the most specific members of a slim",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, f, func(ctx context.Context, a *app) error {
				types, err := a.cfg.SlimRelations()
				if err != nil {
					return err
				}
				if strings.TrimSpace(relations) != "" {
					if types, err = ontology.ParseRelationTypes(relations); err != nil {
						return err
					}
				}

				if len(terms) == 0 {
					return fmt.Errorf("%w: --terms is empty", slim.ErrInvalidSlimRequest)
				}
				ns := ontology.Namespace(strings.TrimSpace(terms[0]))
				m, err := a.svc.CreateSlims(ctx, ns, terms, slim.WithRelationTypes(types...))
				if err != nil {
					return err
				}
				return f.write(cmd.OutOrStdout(), m.Document(lookup...))
			})
		},
	}
	cmd.Flags().StringSliceVarP(&terms, "terms", "t", nil, "slim term ids, comma separated")
	cmd.Flags().StringVarP(&relations, "relations", "r", "", "relation codes to follow (default from config: I,P,OI)")
	cmd.Flags().StringSliceVar(&lookup, "term", nil, "only report these terms")
	_ = cmd.MarkFlagRequired("terms")
	return cmd
}
