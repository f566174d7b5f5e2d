package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/obsidianstack/holecheck/annotator/internal/config"
	"github.com/obsidianstack/holecheck/annotator/internal/dataset"
	"github.com/obsidianstack/holecheck/annotator/internal/exporter"
	"github.com/obsidianstack/holecheck/annotator/internal/publisher"
	"github.com/obsidianstack/holecheck/pkg/compute"
	"github.com/obsidianstack/holecheck/pkg/types"
)

// now is replaced in tests.
var now = func() time.Time { return time.Now().UTC() }

// Run executes the job described by cfg. Errors from reading the input
// wrap the underlying os error, so callers can test for fs.ErrNotExist.
// ctx is checked between stages; a cancelled job writes nothing further.
func Run(ctx context.Context, cfg config.AnnotatorConfig) (*types.Run, error) {
	run := types.NewRun(cfg.DatasetName(), now())
	log := slog.With("run", run.ID, "dataset", run.Dataset)

	log.Info("pipeline: loading dataset", "path", cfg.Input)
	tbl, err := dataset.Read(cfg.Input)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	log.Info("pipeline: dataset loaded", "parts", tbl.Len(), "columns", len(tbl.Columns))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rules := cfg.Rules
	annotated := compute.NewEngine(rules).Annotate(tbl)
	for _, col := range []string{rules.WarningColumn, rules.ErrorColumn} {
		counts := compute.ValueCounts(annotated, col)
		log.Info("pipeline: flag counts", "column", col,
			"true", counts[true], "false", counts[false])
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rep, err := compute.Summarize(annotated, rules)
	if err != nil {
		return nil, fmt.Errorf("pipeline: summarize: %w", err)
	}
	log.Info("pipeline: summary",
		"total_parts", rep.TotalParts,
		"parts_with_warnings", rep.PartsWithWarnings,
		"parts_with_errors", rep.PartsWithErrors,
		"warning_rate", rep.WarningRate,
		"error_rate", rep.ErrorRate,
		"critical_parts", rep.CriticalParts,
	)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := dataset.Write(cfg.Output, annotated); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	log.Info("pipeline: annotated dataset written", "path", cfg.Output)

	if cfg.Textfile != "" {
		if err := exporter.WriteTextfile(cfg.Textfile, run.Dataset, rep); err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		log.Info("pipeline: textfile written", "path", cfg.Textfile)
	}

	run.Finish(rep, now())

	// The annotated table is already on disk; a server outage only costs
	// the remote copy of the report.
	if cfg.Publish.Endpoint != "" {
		if err := publisher.New(cfg.Publish).Publish(ctx, run); err != nil {
			log.Warn("pipeline: run not published", "endpoint", cfg.Publish.Endpoint, "err", err)
		}
	}

	log.Info("pipeline: done", "duration", run.Duration)
	return run, nil
}
