package compute

import (
	"errors"

	"github.com/obsidianstack/holecheck/pkg/types"
)

// ErrFlagsMissing is returned by Summarize when the table lacks either
// flag column, i.e. it was never annotated.
var ErrFlagsMissing = errors.New("compute: flag columns missing; annotate the table first")

// Summarize aggregates the flags of an annotated table.
//
// A flag counts only when the row holds the boolean true. For an empty
// table the rates are 0.
func Summarize(t *types.Table, cfg Config) (types.Report, error) {
	if !hasField(t, cfg.WarningColumn) || !hasField(t, cfg.ErrorColumn) {
		return types.Report{}, ErrFlagsMissing
	}

	rep := types.Report{TotalParts: t.Len()}
	for _, row := range t.Rows {
		if row.Bool(cfg.WarningColumn) {
			rep.PartsWithWarnings++
		}
		if row.Bool(cfg.ErrorColumn) {
			rep.PartsWithErrors++
		}
	}
	rep.CriticalParts = rep.PartsWithErrors

	if rep.TotalParts > 0 {
		total := float64(rep.TotalParts)
		rep.WarningRate = float64(rep.PartsWithWarnings) / total
		rep.ErrorRate = float64(rep.PartsWithErrors) / total
	}
	return rep, nil
}

// ValueCounts tallies the boolean values of column. Non-boolean or missing
// values count as false.
func ValueCounts(t *types.Table, column string) map[bool]int {
	counts := map[bool]int{true: 0, false: 0}
	if t == nil {
		return counts
	}
	for _, row := range t.Rows {
		counts[row.Bool(column)]++
	}
	return counts
}

// hasField reports whether name is a listed column or present on any row.
func hasField(t *types.Table, name string) bool {
	if t == nil {
		return false
	}
	if t.HasColumn(name) {
		return true
	}
	for _, row := range t.Rows {
		if _, ok := row[name]; ok {
			return true
		}
	}
	return false
}
