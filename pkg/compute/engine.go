package compute

import (
	"log/slog"
	"sync"

	"github.com/obsidianstack/holecheck/pkg/types"
)

// Engine annotates part tables with unreachable-hole flags.
//
// An Engine holds no per-call state and is safe for concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine returns an Engine for cfg. A Workers value below 1 is treated
// as 1.
func NewEngine(cfg Config) *Engine {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Engine{cfg: cfg}
}

// Config returns the configuration the Engine was built with.
func (e *Engine) Config() Config {
	return e.cfg
}

// Annotate returns a copy of t with the warning and error columns set on
// every row. t itself is not modified.
//
// The output has the same rows in the same order. Both flag columns are
// appended to the column list (once) even when t has no rows or no holes
// column. Rows without a holes value get (false, false).
func (e *Engine) Annotate(t *types.Table) *types.Table {
	var src []types.Row
	out := &types.Table{}
	if t != nil {
		src = t.Rows
		out.Columns = append(make([]string, 0, len(t.Columns)+2), t.Columns...)
		out.Rows = make([]types.Row, len(t.Rows))
	}
	out.AddColumn(e.cfg.WarningColumn)
	out.AddColumn(e.cfg.ErrorColumn)

	n := out.Len()
	slog.Info("compute: annotating parts", "parts", n, "workers", e.cfg.Workers)

	if e.cfg.Workers == 1 || n < 2 {
		e.annotateRange(src, out.Rows, 0, n)
	} else {
		e.annotateParallel(src, out.Rows)
	}

	var warnings, errs int
	for _, row := range out.Rows {
		if row.Bool(e.cfg.WarningColumn) {
			warnings++
		}
		if row.Bool(e.cfg.ErrorColumn) {
			errs++
		}
	}
	slog.Info("compute: annotation complete",
		"parts", n,
		"warnings", warnings,
		"errors", errs,
	)
	return out
}

// AnnotateRow returns a copy of row with both flag fields set.
func (e *Engine) AnnotateRow(row types.Row) types.Row {
	var flags types.Flags
	if text, ok := row.Text(e.cfg.HolesColumn); ok {
		flags = Evaluate(&text, e.cfg.Thresholds)
	}

	out := row.Clone()
	out[e.cfg.WarningColumn] = flags.Warning
	out[e.cfg.ErrorColumn] = flags.Error
	return out
}

// annotateRange writes annotated copies of src[lo:hi] into dst[lo:hi].
func (e *Engine) annotateRange(src, dst []types.Row, lo, hi int) {
	for i := lo; i < hi; i++ {
		dst[i] = e.AnnotateRow(src[i])
	}
}

// annotateParallel splits the rows into contiguous chunks, one per worker.
// Each goroutine writes only its own index range of dst.
func (e *Engine) annotateParallel(src, dst []types.Row) {
	n := len(src)
	workers := e.cfg.Workers
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			e.annotateRange(src, dst, lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}
