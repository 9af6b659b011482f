package history

import (
	"io"
	"time"

	"github.com/ShayCichocki/sfxagent/pkg/models"
)

// Recorder is the write side used by the orchestrator while a run is in
// progress.
type Recorder interface {
	CreateRun(r *Run) error
	SetParameters(runID string, params *models.SoundParameters) error
	RecordJob(j *Job) error
	FinishRun(runID string, status RunStatus, libraryPath, errMsg string, at time.Time) error
}

// Reader is the read side used by the CLI.
type Reader interface {
	GetRun(id string) (*Run, error)
	ListRuns(limit int) ([]Run, error)
	ListJobs(runID string) ([]Job, error)
}

// Migrator handles database schema migrations.
type Migrator interface {
	Migrate() error
}

// Store composes every history operation.
type Store interface {
	io.Closer
	Migrator
	Recorder
	Reader
}

// Compile-time verification that DB implements all interfaces.
var (
	_ Store    = (*DB)(nil)
	_ Recorder = (*DB)(nil)
	_ Reader   = (*DB)(nil)
)
