package orchestrator

import (
	"context"

	"github.com/ShayCichocki/sfxagent/internal/decompose"
	"github.com/ShayCichocki/sfxagent/internal/feedback"
	"github.com/ShayCichocki/sfxagent/internal/library"
	"github.com/ShayCichocki/sfxagent/internal/postprocess"
	"github.com/ShayCichocki/sfxagent/internal/storage"
	"github.com/ShayCichocki/sfxagent/internal/synth"
	"github.com/ShayCichocki/sfxagent/pkg/models"
)

// Decomposer turns a brief into sound parameters.
type Decomposer interface {
	Decompose(ctx context.Context, brief string) (*models.SoundParameters, error)
}

// Synthesizer renders a prompt to WAV bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, req synth.Request) ([]byte, error)
}

// Processor normalizes rendered audio.
type Processor interface {
	Process(data []byte) (*postprocess.Result, error)
}

// Advisor suggests prompt adjustments for a render.
type Advisor interface {
	RequestFeedback(ctx context.Context, prompt string, metrics models.Metrics) (*models.FeedbackSuggestion, error)
}

// Library persists completed renders under their brief.
type Library interface {
	AppendRecords(brief string, records []models.LibraryRecord) (string, error)
}

// Compile-time verification that the concrete collaborators fit.
var (
	_ Decomposer   = (*decompose.Decomposer)(nil)
	_ Synthesizer  = (*synth.Client)(nil)
	_ Processor    = (*postprocess.Processor)(nil)
	_ Advisor      = (*feedback.Advisor)(nil)
	_ Library      = (*library.Store)(nil)
	_ storage.Sink = (*storage.Local)(nil)
)
