package api

import (
	"fmt"

	"github.com/obsidianstack/holecheck/pkg/compute"
)

// Hint is one human-readable remark about an evaluated part.
type Hint struct {
	// Key is a stable machine-readable identifier.
	Key string `json:"key"`
	// Level is "ok" | "info" | "warning" | "critical"
	Level string `json:"level"`
	// Title is a short label.
	Title string `json:"title"`
	// Detail is the full explanation.
	Detail string `json:"detail"`
	// Value is an optional number the hint refers to (e.g. the worst ratio).
	Value *float64 `json:"value,omitempty"`
}

// computeHints derives hints from an assessment, most severe first.
func computeHints(a compute.Assessment, th compute.Thresholds) []Hint {
	hints := make([]Hint, 0, 2)
	worst := a.WorstRatio

	switch a.Severity {
	case compute.SeverityError:
		hints = append(hints, Hint{
			Key:   "unreachable_hole",
			Level: "critical",
			Title: fmt.Sprintf("Ratio %.1f over limit", worst),
			Detail: fmt.Sprintf(
				"A hole has a depth-to-diameter ratio of %.1f, above the critical limit of %.1f. "+
					"Standard drilling cannot reach the bottom of this hole. "+
					"Review the design or plan a special process such as gun drilling or EDM.",
				worst, th.Critical),
			Value: &worst,
		})
	case compute.SeverityWarning:
		hints = append(hints, Hint{
			Key:   "deep_hole",
			Level: "warning",
			Title: fmt.Sprintf("Ratio %.1f is deep", worst),
			Detail: fmt.Sprintf(
				"The deepest hole has a depth-to-diameter ratio of %.1f, above the %.1f limit "+
					"for routine drilling. Expect longer cycle times and tool wear.",
				worst, th.Poor),
			Value: &worst,
		})
	default:
		if a.Checked > 0 {
			hints = append(hints, Hint{
				Key:    "ok",
				Level:  "ok",
				Title:  "Holes reachable",
				Detail: fmt.Sprintf("All %d holes are within the %.1f ratio limit.", a.Checked, th.Poor),
				Value:  &worst,
			})
		}
	}

	if a.Skipped > 0 {
		n := float64(a.Skipped)
		hints = append(hints, Hint{
			Key:   "skipped_entries",
			Level: "info",
			Title: fmt.Sprintf("%d entries ignored", a.Skipped),
			Detail: "Some hole entries were not objects with a numeric length and a positive " +
				"numeric radius. They were left out of the check.",
			Value: &n,
		})
	}
	if a.Checked == 0 && a.Skipped == 0 {
		hints = append(hints, Hint{
			Key:    "no_holes",
			Level:  "info",
			Title:  "No holes to check",
			Detail: "The part has no readable hole list, so no flags were raised.",
		})
	}
	return hints
}
