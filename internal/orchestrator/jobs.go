package orchestrator

import (
	"fmt"

	"github.com/ShayCichocki/sfxagent/internal/config"
	"github.com/ShayCichocki/sfxagent/pkg/models"
)

// PlanJobs expands parameters into render jobs, one per influence value.
//
// Influences come from the parameters' batch list, else the configured
// batch list. When both are empty a single job uses the parameters'
// prompt influence, else the configured one. The duration is the
// parameters' duration, else the configured default.
//
// Decomposed values outside their valid range are treated as absent. An
// influence must lie in 0..1 and one bad entry drops the whole batch list.
// A duration must be positive. IgnoredParameters names what was dropped.
func PlanJobs(params *models.SoundParameters, prompt config.PromptConfig) []models.RenderJob {
	var duration float64
	switch {
	case params.Duration != nil && config.ValidDuration(*params.Duration):
		duration = *params.Duration
	case prompt.DefaultDuration != nil:
		duration = *prompt.DefaultDuration
	}

	influences := params.BatchInfluences
	if !validBatch(influences) {
		influences = nil
	}
	if len(influences) == 0 {
		influences = prompt.BatchInfluences
	}
	if len(influences) == 0 {
		var single float64
		switch {
		case params.PromptInfluence != nil && config.ValidInfluence(*params.PromptInfluence):
			single = *params.PromptInfluence
		case prompt.PromptInfluence != nil:
			single = *prompt.PromptInfluence
		}
		influences = []float64{single}
	}

	jobs := make([]models.RenderJob, len(influences))
	for i, inf := range influences {
		jobs[i] = models.RenderJob{Index: i, Duration: duration, Influence: inf}
	}
	return jobs
}

// IgnoredParameters describes each decomposed value PlanJobs ignores.
func IgnoredParameters(params *models.SoundParameters) []string {
	var ignored []string
	if d := params.Duration; d != nil && !config.ValidDuration(*d) {
		ignored = append(ignored, fmt.Sprintf("duration %v is not a positive length", *d))
	}
	if p := params.PromptInfluence; p != nil && !config.ValidInfluence(*p) {
		ignored = append(ignored, fmt.Sprintf("prompt_influence %v is outside 0..1", *p))
	}
	if !validBatch(params.BatchInfluences) {
		ignored = append(ignored, fmt.Sprintf("batch_influences %v has values outside 0..1", params.BatchInfluences))
	}
	return ignored
}

func validBatch(influences []float64) bool {
	for _, inf := range influences {
		if !config.ValidInfluence(inf) {
			return false
		}
	}
	return true
}
