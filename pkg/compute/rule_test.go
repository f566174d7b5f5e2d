package compute

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/obsidianstack/holecheck/pkg/types"
)

func strPtr(s string) *string { return &s }

// --- Evaluate() table-driven tests ---

func TestEvaluate_Scenarios(t *testing.T) {
	tests := []struct {
		name  string
		holes string
		want  types.Flags
	}{
		{
			name:  "shallow hole, ratio 1.0",
			holes: `[{"length":10,"radius":5}]`,
			want:  types.Flags{},
		},
		{
			name:  "warning only, ratio 12.5",
			holes: `[{"length":250,"radius":10}]`,
			want:  types.Flags{Warning: true},
		},
		{
			name:  "error implies warning, ratio 42.5",
			holes: `[{"length":850,"radius":10}]`,
			want:  types.Flags{Warning: true, Error: true},
		},
		{
			name:  "second hole escalates to error",
			holes: `[{"length":10,"radius":1}, {"length":850,"radius":10}]`,
			want:  types.Flags{Warning: true, Error: true},
		},
		{
			name:  "two warning-tier holes stay at warning",
			holes: `[{"length":220,"radius":10}, {"length":330,"radius":15}]`,
			want:  types.Flags{Warning: true},
		},
		{
			name:  "float fields",
			holes: `[{"length":20.5,"radius":0.5}]`, // 20.5
			want:  types.Flags{Warning: true},
		},
		{
			name:  "extra fields are ignored",
			holes: `[{"length":250,"radius":10,"id":"h1","through":true}]`,
			want:  types.Flags{Warning: true},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Evaluate(strPtr(tc.holes), DefaultThresholds())
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEvaluate_Boundaries(t *testing.T) {
	tests := []struct {
		name  string
		holes string
		want  types.Flags
	}{
		{"exactly poor ratio, no flag", `[{"length":200,"radius":10}]`, types.Flags{}},
		{"just above poor ratio", `[{"length":200.2,"radius":10}]`, types.Flags{Warning: true}},
		{"exactly critical ratio, warning only", `[{"length":800,"radius":10}]`, types.Flags{Warning: true}},
		{"just above critical ratio", `[{"length":800.2,"radius":10}]`, types.Flags{Warning: true, Error: true}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Evaluate(strPtr(tc.holes), DefaultThresholds()))
		})
	}
}

func TestEvaluate_MalformedInputYieldsNoFlags(t *testing.T) {
	inputs := map[string]*string{
		"nil":                nil,
		"invalid json":       strPtr("invalid_json"),
		"empty string":       strPtr(""),
		"non-numeric length": strPtr(`[{"length":"bad","radius":10}]`),
		"non-numeric radius": strPtr(`[{"length":100,"radius":"bad"}]`),
		"length only":        strPtr(`[{"length":100}]`),
		"radius only":        strPtr(`[{"radius":10}]`),
		"zero radius":        strPtr(`[{"length":0,"radius":0}]`),
		"negative radius":    strPtr(`[{"length":900,"radius":-1}]`),
		"empty list":         strPtr(`[]`),
		"object not list":    strPtr(`{"length":900,"radius":1}`),
		"number not list":    strPtr(`42`),
		"null literal":       strPtr(`null`),
		"list of scalars":    strPtr(`[1, "two", null, [3]]`),
		"boolean fields":     strPtr(`[{"length":true,"radius":true}]`),
		"null fields":        strPtr(`[{"length":null,"radius":null}]`),
		"truncated json":     strPtr(`[{"length":900,"radius":1}`),
	}

	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.Equal(t, types.Flags{}, Evaluate(in, DefaultThresholds()))
			})
		})
	}
}

func TestEvaluate_MalformedEntriesDoNotHideValidOnes(t *testing.T) {
	holes := `["x", {"length":"bad","radius":10}, {"radius":0,"length":5}, {"length":850,"radius":10}]`
	got := Evaluate(strPtr(holes), DefaultThresholds())
	assert.Equal(t, types.Flags{Warning: true, Error: true}, got)
}

func TestEvaluate_CustomThresholds(t *testing.T) {
	th := Thresholds{Poor: 1, Critical: 2}

	// Ratios 1.0, 1.5 and 2.5.
	assert.Equal(t, types.Flags{}, Evaluate(strPtr(`[{"length":10,"radius":5}]`), th))
	assert.Equal(t, types.Flags{Warning: true}, Evaluate(strPtr(`[{"length":15,"radius":5}]`), th))
	assert.Equal(t, types.Flags{Warning: true, Error: true}, Evaluate(strPtr(`[{"length":25,"radius":5}]`), th))
}

func TestEvaluate_ErrorImpliesWarning(t *testing.T) {
	inputs := []string{
		`[{"length":850,"radius":10}]`,
		`[{"length":1e6,"radius":1}]`,
		`[{"length":10,"radius":1},{"length":250,"radius":10},{"length":5000,"radius":2}]`,
		`[{"length":-850,"radius":10}]`,
	}
	for _, in := range inputs {
		got := Evaluate(strPtr(in), DefaultThresholds())
		if got.Error {
			assert.True(t, got.Warning, "error without warning for %s", in)
		}
	}
}

// --- Assess() diagnostics ---

func TestAssess_StopsAtFirstError(t *testing.T) {
	holes := `[{"length":250,"radius":10}, {"length":850,"radius":10}, {"length":9000,"radius":10}, "junk"]`
	a := Assess(strPtr(holes), DefaultThresholds())

	assert.Equal(t, SeverityError, a.Severity)
	assert.True(t, a.Warning)
	assert.True(t, a.Error)
	assert.Equal(t, 2, a.Checked, "scan must stop at the first error-tier hole")
	assert.Equal(t, 0, a.Skipped, "entries after the stop are not examined")
	assert.InDelta(t, 42.5, a.WorstRatio, 1e-9)
}

func TestAssess_CountsSkippedEntries(t *testing.T) {
	holes := `[{"length":100}, {"length":10,"radius":5}, {"length":1,"radius":0}]`
	a := Assess(strPtr(holes), DefaultThresholds())

	assert.Equal(t, SeverityOK, a.Severity)
	assert.Equal(t, 1, a.Checked)
	assert.Equal(t, 2, a.Skipped)
	assert.InDelta(t, 1.0, a.WorstRatio, 1e-9)
}

func TestAssess_NegativeRatioIsWorstWhenOnlyHole(t *testing.T) {
	a := Assess(strPtr(`[{"length":-20,"radius":1}]`), DefaultThresholds())
	assert.Equal(t, 1, a.Checked)
	assert.InDelta(t, -10.0, a.WorstRatio, 1e-9)
	assert.Equal(t, types.Flags{}, a.Flags)
}

func TestAssess_NilHoles(t *testing.T) {
	a := Assess(nil, DefaultThresholds())
	assert.Equal(t, Assessment{Severity: SeverityOK}, a)
}

// --- Classify() ---

func TestClassify(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		ratio float64
		want  string
	}{
		{0, SeverityOK},
		{10, SeverityOK},
		{10.0001, SeverityWarning},
		{40, SeverityWarning},
		{40.0001, SeverityError},
		{-5, SeverityOK},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Classify(tc.ratio, th), "ratio %v", tc.ratio)
	}
}
