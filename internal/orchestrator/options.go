package orchestrator

import (
	"time"

	"github.com/ShayCichocki/sfxagent/internal/config"
	"github.com/ShayCichocki/sfxagent/internal/history"
	"github.com/ShayCichocki/sfxagent/internal/storage"
)

// RequiredConfig contains the collaborators every run needs.
// All fields are required and have no defaults.
type RequiredConfig struct {
	Config      *config.Config
	Decomposer  Decomposer
	Synthesizer Synthesizer
	Processor   Processor
	Library     Library
}

// Option configures an Agent. Use With* functions to create Options.
type Option func(*agentOptions)

type agentOptions struct {
	sink     storage.Sink
	mirror   storage.Sink
	advisor  Advisor
	feedback *bool
	workers  int
	history  history.Recorder
	logger   *Logger
	events   *EventEmitter
	now      func() time.Time
	sleep    func(time.Duration) <-chan time.Time
}

// WithSink sets where rendered files are written. Defaults to a local
// sink on output.folder.
func WithSink(s storage.Sink) Option {
	return func(o *agentOptions) { o.sink = s }
}

// WithMirror sets a secondary sink that receives a copy of every file.
// Mirror failures are reported as warnings.
func WithMirror(s storage.Sink) Option {
	return func(o *agentOptions) { o.mirror = s }
}

// WithAdvisor sets the feedback advisor.
func WithAdvisor(a Advisor) Option {
	return func(o *agentOptions) { o.advisor = a }
}

// WithFeedback overrides feedback.enabled.
func WithFeedback(enabled bool) Option {
	return func(o *agentOptions) { o.feedback = &enabled }
}

// WithWorkers overrides agent.workers.
func WithWorkers(n int) Option {
	return func(o *agentOptions) { o.workers = n }
}

// WithHistory records runs and jobs.
func WithHistory(r history.Recorder) Option {
	return func(o *agentOptions) { o.history = r }
}

// WithLogger sets the logger.
func WithLogger(l *Logger) Option {
	return func(o *agentOptions) { o.logger = l }
}

// WithEvents sets the event emitter.
func WithEvents(e *EventEmitter) Option {
	return func(o *agentOptions) { o.events = e }
}

// WithClock sets the time source (mainly for testing).
func WithClock(now func() time.Time) Option {
	return func(o *agentOptions) { o.now = now }
}

// WithSleep sets the retry backoff timer (mainly for testing).
func WithSleep(sleep func(time.Duration) <-chan time.Time) Option {
	return func(o *agentOptions) { o.sleep = sleep }
}
