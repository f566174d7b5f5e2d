// Package compute derives unreachable-hole flags from part hole data.
//
// rule.go provides the pure Evaluate/Assess functions: a part's holes field
// (JSON text, a list of {"length", "radius"} objects) is scanned in order and
// each hole's depth-to-diameter ratio length/(2*radius) is compared against
// two thresholds. ratio > Critical sets both error and warning and stops the
// scan; ratio > Poor sets warning only. Both comparisons are strict.
// Anything that cannot be parsed is skipped, never reported as an error.
//
// engine.go provides the Engine that applies the rule to every row of a
// types.Table, returning a new table with the two flag columns added.
// Rows are independent, so the Engine can fan out across Config.Workers
// goroutines without changing the output.
//
// report.go provides Summarize, which aggregates an annotated table into a
// types.Report (counts and rates).
//
// Defaults: poor ratio 10, critical ratio 40, columns
// "has_unreachable_hole_warning" and "has_unreachable_hole_error".
package compute
