// Package loader populates ontology graph builders from relationship files.
//
// Sources are tab-delimited child/parent/relation files (optionally with
// header lines), OBO files or OWL RDF/XML files, any of them optionally gzip
// compressed. Each record is
// validated on its own: a bad record is skipped and reported, and loading
// only fails once more than Options.MaxSkips records have been skipped.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/nodeadmin/ontoslim/ontology"
)

// MaxReportedFailures bounds how many record failures a Report retains.
const MaxReportedFailures = 100

// invalidLabel is the namespace label for records the graph rejected,
// whose ids cannot be trusted as label values.
const invalidLabel = "invalid"

// Format is the layout of a source file.
type Format string

const (
	FormatAuto Format = "auto"
	FormatTSV  Format = "tsv"
	FormatOBO  Format = "obo"
	FormatOWL  Format = "owl"
)

// ParseFormat validates a format name; "" means auto.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatAuto:
		return FormatAuto, nil
	case FormatTSV, FormatOBO, FormatOWL:
		return f, nil
	default:
		return "", fmt.Errorf("loader: unknown format %q", s)
	}
}

// DetectFormat picks a format from the file name, ignoring a .gz suffix.
func DetectFormat(path string) Format {
	name := strings.TrimSuffix(strings.ToLower(path), ".gz")
	switch filepath.Ext(name) {
	case ".obo":
		return FormatOBO
	case ".owl", ".rdf", ".xml":
		return FormatOWL
	}
	return FormatTSV
}

// Options configures a Loader.
type Options struct {
	// Format of every input; FormatAuto detects it per file name.
	Format Format

	// HeaderLines is the number of leading lines skipped in TSV files.
	HeaderLines int

	// Namespaces lists the accepted namespaces. Default: GO, ECO.
	Namespaces []string

	// MaxSkips is the number of records that may fail validation before the
	// load is aborted. Zero means no limit.
	MaxSkips int

	// Workers bounds how many files are read concurrently. Default: NumCPU.
	Workers int

	Logger *slog.Logger
}

// Loader reads relationship sources into an ontology.Builder.
type Loader struct {
	opts       Options
	namespaces map[string]struct{}
	logger     *slog.Logger
}

// New creates a Loader, filling unset options with defaults.
func New(opts Options) *Loader {
	if opts.Format == "" {
		opts.Format = FormatAuto
	}
	if len(opts.Namespaces) == 0 {
		opts.Namespaces = DefaultNamespaces
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		opts:       opts,
		namespaces: namespaceSet(opts.Namespaces),
		logger:     logger,
	}
}

// FileReport describes one source file.
type FileReport struct {
	Path       string `json:"path"`
	Format     Format `json:"format"`
	Compressed bool   `json:"compressed"`
	Bytes      int64  `json:"bytes"`
	Records    int    `json:"records"`
	Version    string `json:"version,omitempty"`
}

// Report summarizes a load.
type Report struct {
	Files      []FileReport   `json:"files,omitempty"`
	Records    int            `json:"records"`
	Loaded     int            `json:"loaded"`
	Duplicates int            `json:"duplicates"`
	Skipped    int            `json:"skipped"`
	Failures   []*RecordError `json:"-"`
	Elapsed    time.Duration  `json:"elapsed"`
}

// Bytes returns the total on-disk size of all files read.
func (r *Report) Bytes() int64 {
	var n int64
	for _, f := range r.Files {
		n += f.Bytes
	}
	return n
}

type fileResult struct {
	report  FileReport
	records []Record
	bad     []*RecordError
}

// readFile reads one source file into records without touching a builder.
func (l *Loader) readFile(path string) (*fileResult, error) {
	src, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	format := l.opts.Format
	if format == FormatAuto {
		format = DetectFormat(path)
	}
	res := &fileResult{report: FileReport{Path: path, Format: format, Compressed: src.Compressed()}}

	switch format {
	case FormatOBO:
		var hdr OBOHeader
		res.records, hdr, err = ReadOBO(src, path)
		res.report.Version = hdr.DataVersion
	case FormatOWL:
		var hdr OBOHeader
		res.records, hdr, err = ReadOWL(src, path)
		res.report.Version = hdr.DataVersion
	default:
		res.records, res.bad, err = ReadTSV(src, path, l.opts.HeaderLines)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	res.report.Bytes = src.BytesRead()
	res.report.Records = len(res.records) + len(res.bad)
	BytesTotal.Add(float64(res.report.Bytes))

	l.logger.Debug("read relationship source",
		slog.String("path", path),
		slog.String("format", string(format)),
		slog.Bool("gzip", res.report.Compressed),
		slog.String("size", humanize.Bytes(uint64(res.report.Bytes))),
		slog.Int("records", res.report.Records),
	)
	return res, nil
}

// LoadFiles reads every path concurrently, then adds the records to b from a
// single goroutine. File order does not affect the resulting graph.
//
// Errors:
//
//	I/O or decompression errors for any file abort the load.
//	ErrSkipLimitExceeded - too many records failed validation
//	ontology.ErrGraphFrozen - b was already frozen
func (l *Loader) LoadFiles(ctx context.Context, b *ontology.Builder, paths ...string) (*Report, error) {
	start := time.Now()
	results := make([]*fileResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := l.readFile(path)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{}
	for _, res := range results {
		report.Files = append(report.Files, res.report)
		for _, bad := range res.bad {
			report.Records++
			if err := l.skip(report, "", bad); err != nil {
				return report, err
			}
		}
		if err := l.apply(report, b, res.records); err != nil {
			return report, err
		}
	}
	report.Elapsed = time.Since(start)

	l.logger.Info("loaded relationship sources",
		slog.Int("files", len(report.Files)),
		slog.String("size", humanize.Bytes(uint64(report.Bytes()))),
		slog.Int("records", report.Records),
		slog.Int("loaded", report.Loaded),
		slog.Int("duplicates", report.Duplicates),
		slog.Int("skipped", report.Skipped),
		slog.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}

// Load adds already-parsed records to b.
func (l *Loader) Load(b *ontology.Builder, records []Record) (*Report, error) {
	start := time.Now()
	report := &Report{}
	err := l.apply(report, b, records)
	report.Elapsed = time.Since(start)
	return report, err
}

func (l *Loader) apply(report *Report, b *ontology.Builder, records []Record) error {
	for _, rec := range records {
		report.Records++
		edge, err := Validate(rec, l.namespaces)
		if err != nil {
			if err := l.skip(report, invalidLabel,
				&RecordError{Source: rec.Source, Line: rec.Line, Err: err}); err != nil {
				return err
			}
			continue
		}

		ns := ontology.Namespace(edge.Child)
		if b.Has(edge) {
			report.Duplicates++
			RecordsTotal.WithLabelValues(ns, "duplicate").Inc()
			continue
		}
		if err := b.AddEdges(edge); err != nil {
			if errors.Is(err, ontology.ErrGraphFrozen) {
				return err
			}
			if err := l.skip(report, invalidLabel, &RecordError{Source: rec.Source, Line: rec.Line, Err: err}); err != nil {
				return err
			}
			continue
		}
		report.Loaded++
		RecordsTotal.WithLabelValues(ns, "loaded").Inc()
	}
	return nil
}

// skip records a failed record and enforces the skip limit.
func (l *Loader) skip(report *Report, ns string, recErr *RecordError) error {
	report.Skipped++
	if len(report.Failures) < MaxReportedFailures {
		report.Failures = append(report.Failures, recErr)
	}
	RecordsTotal.WithLabelValues(ns, "skipped").Inc()
	l.logger.Debug("skipping relationship record",
		slog.String("source", recErr.Source),
		slog.Int("line", recErr.Line),
		slog.String("error", recErr.Err.Error()),
	)
	if l.opts.MaxSkips > 0 && report.Skipped > l.opts.MaxSkips {
		return fmt.Errorf("%w: %d records skipped, limit %d", ErrSkipLimitExceeded, report.Skipped, l.opts.MaxSkips)
	}
	return nil
}
