// Command spectracore inspects, migrates and merges project files from the
// command line. It drives the same state engine the desktop application
// embeds, so a migration or merge performed here behaves identically to one
// performed interactively.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"spectracore/internal/archive"
	"spectracore/internal/blob"
	"spectracore/internal/config"
	"spectracore/internal/metrics"
	"spectracore/internal/project"
	"spectracore/internal/service"
	"spectracore/pkg/domain"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: spectracore [-config file] <command> [arguments]

Commands:
  inspect <file>            print a summary of a project file
  migrate <file>            upgrade a project file to the current schema version
  merge -o <out> <file...>  merge project files into one

`)
	flag.PrintDefaults()
}

func main() {
	configPath := flag.String("config", "", "path to YAML configuration")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "spectracore: %v\n", err)
		os.Exit(1)
	}
	logger := newLogger(cfg.Logging)
	ctx := context.Background()

	deps, err := buildDependencies(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer deps.close()

	command, args := flag.Arg(0), flag.Args()[1:]
	switch command {
	case "inspect":
		err = runInspect(ctx, deps, args)
	case "migrate":
		err = runMigrate(ctx, cfg, deps, args)
	case "merge":
		err = runMerge(ctx, cfg, deps, args)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error(command+" failed", "error", err)
		os.Exit(1)
	}
}

type dependencies struct {
	store   *project.Store
	archive archive.Store
	logger  *slog.Logger
}

func (d *dependencies) close() {
	if d.archive != nil {
		_ = d.archive.Close()
	}
}

func buildDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dependencies, error) {
	rec, err := newRecorder(cfg.Metrics)
	if err != nil {
		return nil, err
	}

	var mirror blob.Store
	if cfg.Blob.Enabled {
		mirror, err = blob.Open(ctx, blob.Options{
			Driver: blob.Driver(cfg.Blob.Driver),
			Root:   cfg.Blob.Root,
			S3: blob.S3Config{
				Bucket:    cfg.Blob.Bucket,
				Region:    cfg.Blob.Region,
				Endpoint:  cfg.Blob.Endpoint,
				PathStyle: cfg.Blob.PathStyle,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("open blob store: %w", err)
		}
	}

	ar, err := archive.Open(archive.Options{
		Driver: archive.Driver(cfg.Archive.Driver),
		Path:   cfg.Archive.Path,
		DSN:    cfg.Archive.DSN,
	})
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	store := project.NewStore(project.Options{Logger: logger, Metrics: rec, Mirror: mirror})
	return &dependencies{store: store, archive: ar, logger: logger}, nil
}

func newRecorder(cfg config.MetricsConfig) (metrics.Recorder, error) {
	switch cfg.Driver {
	case "prometheus":
		return metrics.NewPrometheusRecorder(prometheus.DefaultRegisterer)
	case "expvar":
		return metrics.NewExpvarRecorder("spectracore_metrics"), nil
	case "", "none":
		return metrics.Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown metrics driver %s", cfg.Driver)
	}
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func runInspect(ctx context.Context, deps *dependencies, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("inspect: expected one project file")
	}
	p, err := deps.store.Load(ctx, args[0])
	if err != nil {
		return err
	}
	printSummary(p)
	return nil
}

func runMigrate(ctx context.Context, cfg *config.Config, deps *dependencies, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("migrate: expected one project file")
	}
	svc, err := newService(cfg, deps)
	if err != nil {
		return err
	}
	if err := svc.Open(ctx, args[0]); err != nil {
		return err
	}
	return svc.Save(ctx, args[0])
}

func runMerge(ctx context.Context, cfg *config.Config, deps *dependencies, args []string) error {
	fs := flag.NewFlagSet("merge", flag.ExitOnError)
	out := fs.String("o", "merged-project.json", "output project file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	paths := fs.Args()
	if len(paths) < 1 {
		return fmt.Errorf("merge: expected at least one project file")
	}

	svc, err := newService(cfg, deps)
	if err != nil {
		return err
	}
	if err := svc.Open(ctx, paths[0]); err != nil {
		return err
	}
	var rest []*domain.Project
	for _, path := range paths[1:] {
		p, err := deps.store.Load(ctx, path)
		if err != nil {
			return err
		}
		rest = append(rest, p)
	}
	if err := svc.Merge(ctx, rest...); err != nil {
		return err
	}
	if err := svc.Save(ctx, *out); err != nil {
		return err
	}
	printSummary(svc.Project())
	return nil
}

func newService(cfg *config.Config, deps *dependencies) (*service.Service, error) {
	return service.New(service.Options{
		Logger:       deps.logger,
		Store:        deps.store,
		Archive:      deps.archive,
		ArchiveKeep:  cfg.Archive.Keep,
		HistoryLimit: cfg.History.Limit,
	})
}

func printSummary(p *domain.Project) {
	results := 0
	for _, d := range p.DataSets() {
		results += len(p.Tests(d.ID)) + len(p.ZHITs(d.ID)) + len(p.DRTs(d.ID)) + len(p.Fits(d.ID))
	}
	fmt.Printf("project %s (%s)\n", p.Label(), p.ID())
	fmt.Printf("  measurements: %d\n", len(p.DataSets()))
	fmt.Printf("  results:      %d\n", results)
	fmt.Printf("  simulations:  %d\n", len(p.Simulations()))
	fmt.Printf("  plots:        %d\n", len(p.Plots()))
}
