package api

import (
	"github.com/obsidianstack/holecheck/pkg/compute"
	"github.com/obsidianstack/holecheck/pkg/types"
)

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Status     string             `json:"status"`
	RunCount   int                `json:"run_count"`
	Thresholds compute.Thresholds `json:"thresholds"`
	Workers    int                `json:"workers"`
}

// EvaluateRequest is the body for POST /api/v1/evaluate.
// A null or absent holes value is a part with no recorded holes.
type EvaluateRequest struct {
	Holes *string `json:"holes"`
}

// EvaluateResponse is the payload for POST /api/v1/evaluate.
type EvaluateResponse struct {
	compute.Assessment
	Hints []Hint `json:"hints"`
}

// TableRequest is the body for POST /api/v1/annotate and /api/v1/summarize.
// When Columns is empty the column order is taken from the row keys, sorted.
type TableRequest struct {
	Columns []string    `json:"columns"`
	Rows    []types.Row `json:"rows"`
}

// AnnotateResponse is the payload for POST /api/v1/annotate.
type AnnotateResponse struct {
	Run     *types.Run  `json:"run"`
	Columns []string    `json:"columns"`
	Rows    []types.Row `json:"rows"`
}

// RunResponse is one entry in GET /api/v1/runs or GET /api/v1/runs/{id}.
type RunResponse struct {
	types.Run
	StoredAt string `json:"stored_at"` // RFC3339
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
