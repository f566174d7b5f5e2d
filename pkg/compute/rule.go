package compute

import (
	"encoding/json"

	"github.com/obsidianstack/holecheck/pkg/types"
)

// Severity constants returned by Classify and Assess.
const (
	SeverityOK      = "ok"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// hole is one accepted hole descriptor: both fields numeric, radius > 0.
type hole struct {
	Length float64
	Radius float64
}

// ratio is the depth-to-diameter ratio of h.
func (h hole) ratio() float64 {
	return h.Length / (2 * h.Radius)
}

// Assessment is the result of scanning one part's holes.
type Assessment struct {
	types.Flags

	// Severity is the worst tier reached: "ok", "warning" or "error".
	Severity string `json:"severity"`

	// Checked is the number of well-formed holes compared against the
	// thresholds before the scan stopped.
	Checked int `json:"checked"`

	// Skipped is the number of malformed entries passed over.
	Skipped int `json:"skipped"`

	// WorstRatio is the largest ratio among checked holes (0 if none).
	WorstRatio float64 `json:"worst_ratio"`
}

// Evaluate returns the warning/error flags for a part's serialized holes.
// A nil holes value, unparseable text, or a non-list value all yield the
// zero Flags; malformed entries inside the list are skipped.
func Evaluate(holes *string, th Thresholds) types.Flags {
	return Assess(holes, th).Flags
}

// Assess is Evaluate with scan diagnostics.
//
// Entries are examined in order. The first hole whose ratio exceeds
// th.Critical sets both flags and ends the scan, so entries after it are
// neither checked nor counted as skipped.
func Assess(holes *string, th Thresholds) Assessment {
	out := Assessment{Severity: SeverityOK}
	if holes == nil {
		return out
	}

	entries, ok := parseHoles(*holes)
	if !ok {
		return out
	}

	for _, raw := range entries {
		h, ok := parseHole(raw)
		if !ok {
			out.Skipped++
			continue
		}

		r := h.ratio()
		out.Checked++
		if out.Checked == 1 || r > out.WorstRatio {
			out.WorstRatio = r
		}

		switch Classify(r, th) {
		case SeverityError:
			out.Warning = true
			out.Error = true
			out.Severity = SeverityError
			return out
		case SeverityWarning:
			out.Warning = true
			out.Severity = SeverityWarning
		}
	}
	return out
}

// Classify maps a single ratio to its severity tier. The critical limit is
// checked first and both comparisons are strict, so a ratio equal to a
// limit does not reach that tier.
func Classify(ratio float64, th Thresholds) string {
	switch {
	case ratio > th.Critical:
		return SeverityError
	case ratio > th.Poor:
		return SeverityWarning
	default:
		return SeverityOK
	}
}

// parseHoles decodes text as a JSON array. ok is false when the text is
// not valid JSON or the top-level value is not an array.
func parseHoles(text string) ([]any, bool) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, false
	}
	list, ok := v.([]any)
	return list, ok
}

// parseHole validates one decoded list entry. It accepts only JSON objects
// carrying numeric "length" and "radius" with radius > 0.
func parseHole(v any) (hole, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return hole{}, false
	}
	length, ok := obj["length"].(float64)
	if !ok {
		return hole{}, false
	}
	radius, ok := obj["radius"].(float64)
	if !ok || radius <= 0 {
		return hole{}, false
	}
	return hole{Length: length, Radius: radius}, true
}
