package orchestrator

import (
	"time"

	"github.com/ShayCichocki/sfxagent/pkg/models"
)

// JobOutcome is the result of one job. Exactly one of Result and Err is
// set.
type JobOutcome struct {
	Job    models.RenderJob
	Result *models.RenderResult
	Err    error
	// Attempts is the number of synthesis calls made.
	Attempts int
	// Warnings lists non-fatal problems, such as a failed mirror upload.
	Warnings []string
}

// OK reports whether the job produced a saved render.
func (o JobOutcome) OK() bool {
	return o.Err == nil && o.Result != nil
}

// RunReport summarizes a run. It is returned even when the run fails.
type RunReport struct {
	RunID       string
	Brief       string
	Parameters  *models.SoundParameters
	Outcomes    []JobOutcome
	Attempted   int
	Succeeded   int
	Failed      int
	LibraryPath string
	// Errors collects the feedback failures of the evaluating stage.
	Errors     []error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Results returns the successful renders in job order.
func (r *RunReport) Results() []models.RenderResult {
	var out []models.RenderResult
	for _, o := range r.Outcomes {
		if o.OK() {
			out = append(out, *o.Result)
		}
	}
	return out
}

func (r *RunReport) tally() {
	r.Attempted = len(r.Outcomes)
	r.Succeeded, r.Failed = 0, 0
	for _, o := range r.Outcomes {
		if o.OK() {
			r.Succeeded++
		} else {
			r.Failed++
		}
	}
}
