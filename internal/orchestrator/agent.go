package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/sfxagent/internal/compose"
	"github.com/ShayCichocki/sfxagent/internal/config"
	"github.com/ShayCichocki/sfxagent/internal/history"
	"github.com/ShayCichocki/sfxagent/internal/storage"
	"github.com/ShayCichocki/sfxagent/pkg/models"
)

// Agent runs briefs through the perceive, plan, act and evaluate stages.
// An Agent runs one brief at a time.
type Agent struct {
	cfg         *config.Config
	decomposer  Decomposer
	synthesizer Synthesizer
	processor   Processor
	library     Library

	sink     storage.Sink
	mirror   storage.Sink
	advisor  Advisor
	feedback bool
	workers  int
	history  history.Recorder
	logger   *Logger
	events   *EventEmitter
	now      func() time.Time
	sleep    func(time.Duration) <-chan time.Time

	mu    sync.RWMutex
	state State
	runID string
}

// New creates an Agent from its required collaborators and options.
func New(req RequiredConfig, opts ...Option) *Agent {
	o := &agentOptions{}
	for _, opt := range opts {
		opt(o)
	}

	a := &Agent{
		cfg:         req.Config,
		decomposer:  req.Decomposer,
		synthesizer: req.Synthesizer,
		processor:   req.Processor,
		library:     req.Library,
		sink:        o.sink,
		mirror:      o.mirror,
		advisor:     o.advisor,
		workers:     o.workers,
		history:     o.history,
		logger:      o.logger,
		events:      o.events,
		now:         o.now,
		sleep:       o.sleep,
		state:       StateIdle,
	}
	if a.cfg == nil {
		a.cfg = config.Default()
	}
	a.feedback = a.cfg.Feedback.Enabled
	if o.feedback != nil {
		a.feedback = *o.feedback
	}
	if a.workers <= 0 {
		a.workers = a.cfg.Agent.Workers
	}
	if a.sink == nil {
		a.sink = storage.NewLocal(a.cfg.Output.Folder)
	}
	if a.logger == nil {
		a.logger = NopLogger()
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.sleep == nil {
		a.sleep = time.After
	}
	return a
}

// State returns the current state.
func (a *Agent) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

func (a *Agent) transition(s State) {
	a.mu.Lock()
	a.state = s
	runID := a.runID
	a.mu.Unlock()

	a.logger.Debugf("run %s: entering %s", runID, s)
	a.events.Emit(Event{Type: EventStateChanged, RunID: runID, State: s, Timestamp: a.now()})
}

func (a *Agent) emit(e Event) {
	e.RunID = a.currentRunID()
	e.State = a.State()
	e.Timestamp = a.now()
	a.events.Emit(e)
}

func (a *Agent) currentRunID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.runID
}

// Run processes brief and returns the run report. The report is non-nil
// even when an error is returned. Errors are *StageError values naming the
// stage that failed; feedback failures and cancellation are surfaced after
// completed renders were stored.
func (a *Agent) Run(ctx context.Context, brief string) (*RunReport, error) {
	runID := uuid.New().String()
	a.mu.Lock()
	a.runID = runID
	a.mu.Unlock()

	report := &RunReport{RunID: runID, Brief: brief, StartedAt: a.now()}
	rec := &runRecorder{}
	err := a.run(ctx, brief, report, rec)

	report.tally()
	report.FinishedAt = a.now()
	if rec.active {
		a.finishHistory(report, err)
	}

	a.emit(Event{Type: EventRunDone, Error: err, Message: fmt.Sprintf("%d/%d renders succeeded", report.Succeeded, report.Attempted)})
	return report, err
}

// runRecorder tracks whether the current run has a history row.
type runRecorder struct {
	active bool
}

func (a *Agent) run(ctx context.Context, brief string, report *RunReport, rec *runRecorder) error {
	// Perceiving
	a.transition(StatePerceiving)
	if strings.TrimSpace(brief) == "" {
		return a.fail(StatePerceiving, ErrEmptyBrief)
	}
	if err := a.cfg.Validate(); err != nil {
		return a.fail(StatePerceiving, err)
	}
	rec.active = a.startHistory(report)
	a.logger.Infof("run %s: brief %q", report.RunID, brief)

	// Planning
	a.transition(StatePlanning)
	params, jobs, err := a.plan(ctx, brief)
	if err != nil {
		return a.fail(StatePlanning, err)
	}
	report.Parameters = params
	if rec.active {
		if err := a.history.SetParameters(report.RunID, params); err != nil {
			a.logger.Warnf("history: %v", err)
		}
	}
	a.emit(Event{Type: EventJobsPlanned, Message: fmt.Sprintf("%d jobs", len(jobs))})

	// Acting
	a.transition(StateActing)
	report.Outcomes = a.act(ctx, report.RunID, params, jobs, rec.active)
	report.tally()
	if report.Succeeded == 0 {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return a.fail(StateActing, ctxErr)
		}
		return a.fail(StateActing, fmt.Errorf("%w: %d of %d jobs failed", ErrNoResults, report.Failed, report.Attempted))
	}

	// Evaluating
	if a.feedback && a.advisor != nil {
		a.transition(StateEvaluating)
		report.Errors = a.evaluate(ctx, report.Outcomes)
	}

	// Done
	records := make([]models.LibraryRecord, 0, report.Succeeded)
	for _, r := range report.Results() {
		records = append(records, models.NewLibraryRecord(report.RunID, *params, r, a.now()))
	}
	path, err := a.library.AppendRecords(brief, records)
	if err != nil {
		return a.fail(StateDone, err)
	}
	report.LibraryPath = path
	a.logger.Infof("run %s: %d records appended to %s", report.RunID, len(records), path)
	a.transition(StateDone)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return &StageError{Stage: StateActing, Err: ctxErr}
	}
	if len(report.Errors) > 0 {
		return &StageError{Stage: StateEvaluating, Err: errors.Join(report.Errors...)}
	}
	return nil
}

func (a *Agent) fail(stage State, err error) error {
	a.logger.Errorf("%s failed: %v", stage, err)
	a.transition(StateFailed)
	return &StageError{Stage: stage, Err: err}
}

// plan decomposes the brief, expands the jobs and checks that the template
// can be rendered from the parameters before any synthesis happens.
func (a *Agent) plan(ctx context.Context, brief string) (*models.SoundParameters, []models.RenderJob, error) {
	llmCtx, cancel := withTimeout(ctx, a.cfg.Timeouts.LLM)
	params, err := a.decomposer.Decompose(llmCtx, brief)
	cancel()
	if err != nil {
		return nil, nil, err
	}
	if params == nil {
		return nil, nil, errors.New("decomposer returned no parameters")
	}
	a.logger.Debugf("decomposed parameters: %+v", *params)
	for _, msg := range IgnoredParameters(params) {
		a.logger.Warnf("ignoring decomposed %s, using configured value", msg)
	}

	jobs := PlanJobs(params, a.cfg.Prompt)
	if err := compose.Check(params.Fields(jobs[0].Duration, jobs[0].Influence), a.cfg.Prompt.Template); err != nil {
		return nil, nil, err
	}
	return params, jobs, nil
}

// evaluate attaches feedback to each successful outcome and returns the
// failures.
func (a *Agent) evaluate(ctx context.Context, outcomes []JobOutcome) []error {
	var errs []error
	for i := range outcomes {
		o := &outcomes[i]
		if !o.OK() {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		llmCtx, cancel := withTimeout(ctx, a.cfg.Timeouts.LLM)
		suggestion, err := a.advisor.RequestFeedback(llmCtx, o.Result.Job.Prompt, o.Result.Metrics)
		cancel()
		if err != nil {
			a.logger.Warnf("feedback for job %d: %v", o.Job.Index, err)
			errs = append(errs, fmt.Errorf("job %d: %w", o.Job.Index, err))
			continue
		}
		o.Result.Feedback = suggestion
		a.emit(Event{Type: EventFeedback, Job: &o.Result.Job, Message: suggestion.Summary})
	}
	return errs
}

// startHistory records the run start and reports whether later history
// writes should follow.
func (a *Agent) startHistory(report *RunReport) bool {
	if a.history == nil {
		return false
	}
	err := a.history.CreateRun(&history.Run{ID: report.RunID, Brief: report.Brief, StartedAt: report.StartedAt})
	if err != nil {
		a.logger.Warnf("history: %v", err)
		return false
	}
	return true
}

func (a *Agent) finishHistory(report *RunReport, runErr error) {
	status := history.RunDone
	var msg string
	if runErr != nil {
		msg = runErr.Error()
		switch {
		case errors.Is(runErr, context.Canceled), errors.Is(runErr, context.DeadlineExceeded):
			status = history.RunCanceled
		case a.State() == StateFailed:
			status = history.RunFailed
		}
	}
	if err := a.history.FinishRun(report.RunID, status, report.LibraryPath, msg, report.FinishedAt); err != nil {
		a.logger.Warnf("history: %v", err)
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
