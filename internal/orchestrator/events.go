package orchestrator

import (
	"time"

	"github.com/ShayCichocki/sfxagent/pkg/models"
)

// EventType represents the type of agent event.
type EventType string

const (
	// EventStateChanged indicates the agent entered a new state.
	EventStateChanged EventType = "state_changed"
	// EventJobsPlanned indicates the render jobs are known.
	EventJobsPlanned EventType = "jobs_planned"
	// EventJobStarted indicates a job has started rendering.
	EventJobStarted EventType = "job_started"
	// EventJobRetry indicates a synthesis attempt failed and will be retried.
	EventJobRetry EventType = "job_retry"
	// EventJobCompleted indicates a job was rendered and saved.
	EventJobCompleted EventType = "job_completed"
	// EventJobFailed indicates a job failed.
	EventJobFailed EventType = "job_failed"
	// EventFeedback indicates feedback was attached to a result.
	EventFeedback EventType = "feedback"
	// EventRunDone indicates the run finished.
	EventRunDone EventType = "run_done"
)

// Event represents an event emitted by the agent.
type Event struct {
	Type  EventType
	RunID string
	// State is the agent state when the event was emitted.
	State State
	// Job is set for job events.
	Job *models.RenderJob
	// Message provides additional context about the event.
	Message string
	// Error contains error details for failure events.
	Error     error
	Timestamp time.Time
}
