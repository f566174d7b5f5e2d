package types

import (
	"time"

	"github.com/google/uuid"
)

// Flags is the warning/error pair attached to a part.
// Error is a strict escalation of Warning: Error implies Warning.
type Flags struct {
	Warning bool `json:"warning"`
	Error   bool `json:"error"`
}

// Report is the aggregate summary over an annotated table.
type Report struct {
	TotalParts        int     `json:"total_parts"`
	PartsWithWarnings int     `json:"parts_with_warnings"`
	PartsWithErrors   int     `json:"parts_with_errors"`
	WarningRate       float64 `json:"warning_rate"`
	ErrorRate         float64 `json:"error_rate"`

	// CriticalParts counts parts with the error flag; always equal to
	// PartsWithErrors.
	CriticalParts int `json:"critical_parts"`
}

// Run records one annotation pass over a dataset.
type Run struct {
	ID         string        `json:"id"`
	Dataset    string        `json:"dataset"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration_ns"`
	Report     Report        `json:"report"`
}

// NewRun starts a Run for dataset with a fresh random ID.
func NewRun(dataset string, startedAt time.Time) *Run {
	return &Run{
		ID:        uuid.NewString(),
		Dataset:   dataset,
		StartedAt: startedAt,
	}
}

// Finish stamps the run with its report and completion time.
func (r *Run) Finish(rep Report, finishedAt time.Time) {
	r.Report = rep
	r.FinishedAt = finishedAt
	r.Duration = finishedAt.Sub(r.StartedAt)
}
