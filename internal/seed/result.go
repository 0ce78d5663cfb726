// Package seed orchestrates collection runs: resolve a player, fetch the
// page, pick the right candidate and persist the result.
package seed

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ffdraft/draftboard/internal/store"
)

// Outcome is the result of collecting one player.
type Outcome struct {
	Query      string            `json:"query"`
	PFRID      string            `json:"pfr_id,omitempty"`
	Name       string            `json:"name,omitempty"`
	Success    bool              `json:"success"`
	Candidates int               `json:"candidates"`
	Written    store.WriteResult `json:"written"`
	Error      string            `json:"error,omitempty"`
	Duration   time.Duration     `json:"duration_ns"`
}

// Result tracks counts and errors from a collection run.
type Result struct {
	RunID      uuid.UUID     `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration_ns"`
	Successful int           `json:"successful"`
	Failed     int           `json:"failed"`
	RowsStored int           `json:"rows_stored"`
	Errors     []string      `json:"errors"`
	Outcomes   []Outcome     `json:"outcomes"`
}

func newResult() Result {
	return Result{RunID: uuid.New(), StartedAt: time.Now(), Errors: []string{}}
}

// Add records one player outcome.
func (r *Result) Add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	if o.Success {
		r.Successful++
		r.RowsStored += o.Written.Total()
		return
	}
	r.Failed++
	r.AddErrorf("%s: %s", o.Query, o.Error)
}

// AddErrorf records a formatted error message.
func (r *Result) AddErrorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) finish() {
	r.Duration = time.Since(r.StartedAt)
}

// Summary returns a human-readable summary of the run.
func (r *Result) Summary() string {
	return fmt.Sprintf(
		"run=%s successful=%d failed=%d rows=%d errors=%d duration=%s",
		r.RunID, r.Successful, r.Failed, r.RowsStored, len(r.Errors),
		r.Duration.Round(time.Millisecond),
	)
}
