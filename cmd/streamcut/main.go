package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ahrav/streamcut/infrastructure/backend"
	"github.com/ahrav/streamcut/internal/partitioner"
	"github.com/ahrav/streamcut/internal/ports"
)

func main() {
	var configPath = flag.String("config", "config.yaml", "Path to the run configuration")
	flag.Parse()

	cfg, err := partitioner.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	be, err := buildBackend(ctx, cfg)
	if err != nil {
		log.Fatalf("build backend: %v", err)
	}

	scorer, err := partitioner.NewScorer(cfg.Scorer)
	if err != nil {
		log.Fatalf("build scorer: %v", err)
	}

	var debug *partitioner.DebugSink
	if cfg.DebugLog != "" {
		f, err := os.Create(cfg.DebugLog)
		if err != nil {
			log.Fatalf("open debug log: %v", err)
		}
		defer f.Close()
		debug = partitioner.NewDebugSink(f)
	}

	coord := &partitioner.Coordinator{
		Backend: be,
		Scorer:  scorer,
		K:       cfg.K,
		Window:  cfg.Window,
		Subp:    cfg.Subp,
		Async:   cfg.Async,
		Debug:   debug,
	}

	if err := coord.Run(ctx); err != nil {
		log.Fatalf("partitioning run failed: %v", err)
	}

	report, err := coord.Assess(ctx)
	if err != nil {
		log.Fatalf("assess: %v", err)
	}

	fmt.Printf("replicate_factor: %.4f\n", report.ReplicateFactor)
	fmt.Printf("load_relative_stddev: %.4f\n", report.LoadRelativeStddev)
	if n := len(report.DuplicatePlacements); n > 0 {
		fmt.Printf("duplicate placements: %d\n", n)
	}
	if n := len(report.MissingEdges); n > 0 {
		fmt.Printf("missing edges: %d\n", n)
	}
	if debug != nil {
		fmt.Printf("edges placed: %d, min/max commit ms: %d/%d\n",
			debug.UsefulEdges(), debug.MinCommitMs(), debug.MaxCommitMs())
	}
}

// buildBackend constructs the State Backend selected by cfg.Backend. For
// "local", a crash drill is armed when CrashMode == 2, mirroring into a
// Coprocess built from cfg.Coprocess so Recover has something to replay.
func buildBackend(ctx context.Context, cfg *partitioner.Config) (ports.Backend, error) {
	switch cfg.Backend {
	case "local":
		var opts []backend.LocalOption
		if cfg.LazyLoad {
			opts = append(opts, backend.WithLazyLoad())
		}
		if cfg.CrashMode == 2 {
			mirror, err := backend.NewCoprocess(ctx, cfg.Dataset, cfg.K, cfg.Coprocess.Command, cfg.Coprocess.Args...)
			if err != nil {
				return nil, fmt.Errorf("build crash-drill mirror: %w", err)
			}
			opts = append(opts, backend.WithCrashDrill(cfg.CrashAt, mirror))
		}
		return backend.NewLocal(cfg.Dataset, cfg.K, opts...)
	case "redis":
		return backend.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.DB, cfg.Dataset, cfg.K)
	case "coprocess":
		return backend.NewCoprocess(ctx, cfg.Dataset, cfg.K, cfg.Coprocess.Command, cfg.Coprocess.Args...)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
