package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/obsidianstack/holecheck/annotator/internal/config"
	"github.com/obsidianstack/holecheck/annotator/internal/pipeline"
	"github.com/obsidianstack/holecheck/annotator/internal/schedule"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	input := flag.String("input", "", "input table; overrides annotator.input")
	output := flag.String("output", "", "output table; overrides annotator.output")
	watch := flag.Bool("watch", false, "re-run whenever the config file changes")
	flag.Parse()

	// Bootstrap logger until the configured level is known.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := loadConfig(*configPath, *input, *output)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	setLogger(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("holecheck-annotator starting",
		"input", cfg.Annotator.Input,
		"output", cfg.Annotator.Output,
		"workers", cfg.Annotator.Rules.Workers,
	)

	if *watch && *configPath == "" {
		slog.Error("-watch requires -config")
		os.Exit(1)
	}

	ok := runOnce(ctx, cfg)
	spec := cfg.Annotator.Schedule
	if !*watch && spec == "" {
		if !ok {
			os.Exit(1)
		}
		return
	}

	// The scheduler always runs the most recently loaded config.
	var current atomic.Pointer[config.Config]
	current.Store(cfg)

	var wg sync.WaitGroup
	if spec != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := schedule.Run(ctx, spec, func(ctx context.Context) {
				runOnce(ctx, current.Load())
			})
			if err != nil {
				slog.Error("scheduler stopped", "err", err)
				cancel()
			}
		}()
	}

	if *watch {
		err = config.Watch(ctx, *configPath, func(updated *config.Config) {
			applyOverrides(updated, *input, *output)
			if err := updated.Validate(); err != nil {
				slog.Error("reloaded config rejected", "err", err)
				return
			}
			if updated.Annotator.Schedule != spec {
				slog.Warn("schedule changes take effect after a restart",
					"running", spec, "configured", updated.Annotator.Schedule)
			}
			setLogger(updated)
			current.Store(updated)
			runOnce(ctx, updated)
		})
		if err != nil {
			slog.Error("config watcher stopped", "err", err)
			cancel()
		}
	}

	<-ctx.Done()
	wg.Wait()
	slog.Info("holecheck-annotator shutting down")
}

// loadConfig reads path when given, otherwise starts from defaults, then
// applies the command-line overrides and validates the result.
func loadConfig(path, input, output string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Read(path); err != nil {
			return nil, err
		}
	}
	applyOverrides(cfg, input, output)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func applyOverrides(cfg *config.Config, input, output string) {
	if input != "" {
		cfg.Annotator.Input = input
	}
	if output != "" {
		cfg.Annotator.Output = output
	}
}

func setLogger(cfg *config.Config) {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout,
		&slog.HandlerOptions{Level: cfg.SlogLevel()})))
}

// runOnce executes the pipeline and reports whether it succeeded.
func runOnce(ctx context.Context, cfg *config.Config) bool {
	run, err := pipeline.Run(ctx, cfg.Annotator)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Error("input file not found", "path", cfg.Annotator.Input, "err", err)
		return false
	case err != nil:
		slog.Error("pipeline failed", "err", err)
		return false
	}
	slog.Info("run complete",
		"run", run.ID,
		"total_parts", run.Report.TotalParts,
		"parts_with_warnings", run.Report.PartsWithWarnings,
		"parts_with_errors", run.Report.PartsWithErrors,
	)
	return true
}
