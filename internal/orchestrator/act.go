package orchestrator

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/ShayCichocki/sfxagent/internal/compose"
	"github.com/ShayCichocki/sfxagent/internal/history"
	"github.com/ShayCichocki/sfxagent/internal/storage"
	"github.com/ShayCichocki/sfxagent/internal/synth"
	"github.com/ShayCichocki/sfxagent/pkg/models"
)

// act renders every job on a pool of at most a.workers goroutines and
// returns the outcomes in job order.
func (a *Agent) act(ctx context.Context, runID string, params *models.SoundParameters, jobs []models.RenderJob, record bool) []JobOutcome {
	outcomes := make([]JobOutcome, len(jobs))

	workers := a.workers
	if workers <= 0 || workers > len(jobs) {
		workers = len(jobs)
	}
	sem := make(chan struct{}, workers)

	var wg sync.WaitGroup
	for i := range jobs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				outcomes[i] = JobOutcome{Job: jobs[i], Err: ctx.Err()}
				a.jobFailed(&outcomes[i])
				return
			}
			defer func() { <-sem }()

			outcomes[i] = a.renderJob(ctx, params, jobs[i])
			if outcomes[i].OK() {
				a.logger.Infof("job %d: saved %s", jobs[i].Index, outcomes[i].Result.OutputPath)
				a.emit(Event{Type: EventJobCompleted, Job: &outcomes[i].Result.Job, Message: outcomes[i].Result.OutputPath})
			} else {
				a.jobFailed(&outcomes[i])
			}
		}(i)
	}
	wg.Wait()

	if record {
		for i := range outcomes {
			a.recordJob(runID, &outcomes[i])
		}
	}
	return outcomes
}

func (a *Agent) jobFailed(o *JobOutcome) {
	a.logger.Warnf("job %d (influence %.2f) failed: %v", o.Job.Index, o.Job.Influence, o.Err)
	job := o.Job
	a.emit(Event{Type: EventJobFailed, Job: &job, Error: o.Err})
}

// renderJob composes, synthesizes, processes and saves one job. It stops
// before each external call once ctx is done.
func (a *Agent) renderJob(ctx context.Context, params *models.SoundParameters, job models.RenderJob) JobOutcome {
	out := JobOutcome{Job: job}

	prompt, err := compose.Compose(params.Fields(job.Duration, job.Influence), a.cfg.Prompt.Template)
	if err != nil {
		out.Err = err
		return out
	}
	job.Prompt = prompt
	out.Job = job
	a.logger.Debugf("job %d prompt: %s", job.Index, prompt)
	a.emit(Event{Type: EventJobStarted, Job: &job, Message: prompt})

	req := synth.Request{
		Prompt:    prompt,
		Duration:  job.Duration,
		Influence: job.Influence,
		Voice:     a.cfg.ElevenLabs.Voice,
		Model:     a.cfg.ElevenLabs.Model,
		Format:    a.cfg.Output.FileFormat,
	}
	var raw []byte
	out.Attempts, err = retry(ctx, a.cfg.Retry.SynthesisAttempts, a.cfg.Retry.Backoff, a.sleep,
		func(attempt int, err error) {
			a.logger.Warnf("job %d: synthesis attempt %d failed, retrying: %v", job.Index, attempt, err)
			a.emit(Event{Type: EventJobRetry, Job: &job, Error: err})
		},
		func(ctx context.Context) error {
			callCtx, cancel := withTimeout(ctx, a.cfg.Timeouts.Synthesis)
			defer cancel()
			var err error
			raw, err = a.synthesizer.Synthesize(callCtx, req)
			return err
		})
	if err != nil {
		out.Err = err
		return out
	}

	if err := ctx.Err(); err != nil {
		out.Err = err
		return out
	}
	processed, err := a.processor.Process(raw)
	if err != nil {
		out.Err = err
		return out
	}

	if err := ctx.Err(); err != nil {
		out.Err = err
		return out
	}
	name := storage.FileName(prompt, job.Duration, job.Influence, a.cfg.Output.FileFormat)
	path, err := a.sink.Save(ctx, name, processed.Audio)
	if err != nil {
		out.Err = fmt.Errorf("save render: %w", err)
		return out
	}

	result := &models.RenderResult{Job: job, OutputPath: path, Metrics: processed.Metrics}
	if a.mirror != nil && ctx.Err() == nil {
		uri, err := a.mirror.Save(ctx, path, processed.Audio)
		if err != nil {
			a.logger.Warnf("job %d: mirror upload failed: %v", job.Index, err)
			out.Warnings = append(out.Warnings, fmt.Sprintf("mirror upload failed: %v", err))
		} else {
			result.RemoteURI = uri
		}
	}
	out.Result = result
	return out
}

func (a *Agent) recordJob(runID string, o *JobOutcome) {
	j := &history.Job{
		RunID:     runID,
		Index:     o.Job.Index,
		Prompt:    o.Job.Prompt,
		Duration:  o.Job.Duration,
		Influence: o.Job.Influence,
		Status:    history.JobFailed,
		Loudness:  math.NaN(),
		Peak:      math.NaN(),
		CreatedAt: a.now(),
	}
	if o.OK() {
		j.Status = history.JobDone
		j.OutputPath = o.Result.OutputPath
		j.RemoteURI = o.Result.RemoteURI
		j.Loudness = o.Result.Metrics.IntegratedLoudness
		j.Peak = o.Result.Metrics.PeakLevel
	} else if o.Err != nil {
		j.Error = o.Err.Error()
	}
	if err := a.history.RecordJob(j); err != nil {
		a.logger.Warnf("history: %v", err)
	}
}
