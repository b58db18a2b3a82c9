package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/nodeadmin/ontoslim/config"
	"github.com/nodeadmin/ontoslim/loader"
	"github.com/nodeadmin/ontoslim/logging"
	"github.com/nodeadmin/ontoslim/ontology"
	"github.com/nodeadmin/ontoslim/service"
)

// flags shared by every subcommand.
type rootFlags struct {
	configPath  string
	logLevel    string
	inputs      []string
	namespace   string
	format      string
	headerLines int
	maxSkips    int
	workers     int
	output      string
	pretty      bool
	metricsFile string
	traceFile   string
}

// app is a loaded service plus what was read to build it.
type app struct {
	cfg     config.Config
	svc     *service.Service
	reports map[string]*loader.Report
	logger  *slog.Logger
	closer  io.Closer

	// stopTracing flushes spans to the trace file; nil when tracing is off.
	stopTracing func(context.Context) error
}

func (f *rootFlags) config() (config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return cfg, err
		}
	}
	if len(f.inputs) > 0 {
		cfg.Sources = append(cfg.Sources, config.SourceConfig{
			Namespace:   f.namespace,
			Format:      f.format,
			Paths:       f.inputs,
			HeaderLines: f.headerLines,
		})
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.maxSkips >= 0 {
		cfg.MaxSkips = f.maxSkips
	}
	if f.workers > 0 {
		cfg.Workers = f.workers
	}
	if f.metricsFile != "" {
		cfg.Telemetry.MetricsFile = f.metricsFile
	}
	if f.traceFile != "" {
		cfg.Telemetry.TraceFile = f.traceFile
	}
	if len(cfg.Sources) == 0 {
		return cfg, fmt.Errorf("%w: no input files; use --input or a config file", config.ErrInvalidConfig)
	}
	return cfg, cfg.Validate()
}

// load reads every configured source into its own graph and registers it.
func (f *rootFlags) load(ctx context.Context) (*app, error) {
	cfg, err := f.config()
	if err != nil {
		return nil, err
	}
	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	a := &app{
		cfg:     cfg,
		reports: make(map[string]*loader.Report, len(cfg.Sources)),
		logger:  logger,
		closer:  closer,
	}
	svcOpts := []service.Option{
		service.WithCacheSize(cfg.Slim.CacheSize),
		service.WithPathLimit(cfg.Slim.PathLimit),
		service.WithWorkers(cfg.Workers),
		service.WithLogger(logger),
	}
	if cfg.Telemetry.TraceFile != "" {
		tp, stop, err := startTracing(cfg.Telemetry.TraceFile)
		if err != nil {
			closer.Close()
			return nil, err
		}
		a.stopTracing = stop
		svcOpts = append(svcOpts, service.WithTracerProvider(tp))
	}
	a.svc = service.New(svcOpts...)

	for _, src := range cfg.Sources {
		opts := cfg.LoaderOptions(src)
		opts.Logger = logger
		b := ontology.NewBuilder(src.Namespace)
		report, err := loader.New(opts).LoadFiles(ctx, b, src.Paths...)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("load %s: %w", src.Namespace, err), a.Close())
		}
		g, err := b.Freeze()
		if err != nil {
			return nil, errors.Join(err, a.Close())
		}
		if err := a.svc.Register(g); err != nil {
			return nil, errors.Join(err, a.Close())
		}
		a.reports[g.Namespace()] = report
		for _, failure := range report.Failures {
			logger.Warn("skipped relationship record", slog.String("error", failure.Error()))
		}
	}
	return a, nil
}

// Close flushes spans, writes the metrics file when configured and closes
// the log file.
func (a *app) Close() error {
	var errs []error
	if a.stopTracing != nil {
		errs = append(errs, a.stopTracing(context.Background()))
	}
	if path := a.cfg.Telemetry.MetricsFile; path != "" {
		errs = append(errs, writeMetrics(path))
	}
	errs = append(errs, a.closer.Close())
	return errors.Join(errs...)
}

// write emits v as JSON to the output file, or to w when none is set.
func (f *rootFlags) write(w io.Writer, v any) error {
	if f.output == "" {
		return ontology.WriteJSON(w, v, f.pretty)
	}
	start := time.Now()
	if err := ontology.WriteJSONFile(f.output, v, f.pretty); err != nil {
		return err
	}
	if info, err := os.Stat(f.output); err == nil {
		slog.Info("wrote JSON output",
			slog.String("path", f.output),
			slog.String("size", humanize.Bytes(uint64(info.Size()))),
			slog.Duration("elapsed", time.Since(start)),
		)
	}
	return nil
}
