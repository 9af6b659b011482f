package models

import "time"

// RenderJob is one unit of synthesis work.
type RenderJob struct {
	// Index is the position of the job within its run.
	Index int `json:"index" yaml:"index"`
	// Prompt is the composed text sent to the synthesizer.
	Prompt string `json:"prompt" yaml:"prompt"`
	// Duration is the requested length in seconds.
	Duration float64 `json:"duration" yaml:"duration"`
	// Influence is the 0.0-1.0 prompt influence value.
	Influence float64 `json:"influence" yaml:"influence"`
}

// Metrics describes the measured quality of a processed render.
type Metrics struct {
	// IntegratedLoudness is the loudness after normalization, in LUFS.
	IntegratedLoudness float64 `json:"integrated_loudness" yaml:"integrated_loudness"`
	// PeakLevel is the sample peak after normalization, in dBFS.
	PeakLevel float64 `json:"peak_level" yaml:"peak_level"`
	// OriginalLoudness is the loudness before gain, in LUFS.
	OriginalLoudness float64 `json:"original_loudness" yaml:"original_loudness"`
	// OriginalPeak is the sample peak before gain, in dBFS.
	OriginalPeak float64 `json:"original_peak" yaml:"original_peak"`
	// TargetLoudness is the requested loudness, in LUFS.
	TargetLoudness float64 `json:"target_loudness" yaml:"target_loudness"`
	// GainApplied is the gain applied, in dB.
	GainApplied float64 `json:"gain_applied" yaml:"gain_applied"`
	// ClippingPrevented is set when gain was limited to keep the peak under 0 dBFS.
	ClippingPrevented bool `json:"clipping_prevented" yaml:"clipping_prevented"`
	// TrimmedSeconds is the amount of near-silence removed.
	TrimmedSeconds float64 `json:"trimmed_seconds" yaml:"trimmed_seconds"`
	// DurationSeconds is the length of the processed audio.
	DurationSeconds float64 `json:"duration_seconds" yaml:"duration_seconds"`
	// SampleRate of the processed audio.
	SampleRate int `json:"sample_rate" yaml:"sample_rate"`
	// Channels of the processed audio.
	Channels int `json:"channels" yaml:"channels"`
}

// FeedbackSuggestion holds the advisor's proposed prompt adjustments. It is
// data only and is never applied automatically.
type FeedbackSuggestion struct {
	Summary        string         `json:"summary,omitempty" yaml:"summary,omitempty"`
	Suggestions    []string       `json:"suggestions,omitempty" yaml:"suggestions,omitempty"`
	AdjustedPrompt string         `json:"adjusted_prompt,omitempty" yaml:"adjusted_prompt,omitempty"`
	Raw            map[string]any `json:"raw,omitempty" yaml:"raw,omitempty"`
}

// RenderResult is a completed, processed render.
type RenderResult struct {
	Job        RenderJob           `json:"job" yaml:"job"`
	OutputPath string              `json:"output_path" yaml:"output_path"`
	RemoteURI  string              `json:"remote_uri,omitempty" yaml:"remote_uri,omitempty"`
	Metrics    Metrics             `json:"metrics" yaml:"metrics"`
	Feedback   *FeedbackSuggestion `json:"feedback,omitempty" yaml:"feedback,omitempty"`
}

// LibraryRecord is one persisted render under a brief.
type LibraryRecord struct {
	Prompt     string              `json:"prompt" yaml:"prompt"`
	OutputPath string              `json:"output_path" yaml:"output_path"`
	RemoteURI  string              `json:"remote_uri,omitempty" yaml:"remote_uri,omitempty"`
	Duration   float64             `json:"duration" yaml:"duration"`
	Influence  float64             `json:"influence" yaml:"influence"`
	Parameters SoundParameters     `json:"parameters" yaml:"parameters"`
	Metrics    Metrics             `json:"metrics" yaml:"metrics"`
	Feedback   *FeedbackSuggestion `json:"feedback,omitempty" yaml:"feedback,omitempty"`
	RunID      string              `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	CreatedAt  time.Time           `json:"created_at" yaml:"created_at"`
}

// NewLibraryRecord builds the library record for a finished render.
func NewLibraryRecord(runID string, params SoundParameters, r RenderResult, at time.Time) LibraryRecord {
	return LibraryRecord{
		Prompt:     r.Job.Prompt,
		OutputPath: r.OutputPath,
		RemoteURI:  r.RemoteURI,
		Duration:   r.Job.Duration,
		Influence:  r.Job.Influence,
		Parameters: params,
		Metrics:    r.Metrics,
		Feedback:   r.Feedback,
		RunID:      runID,
		CreatedAt:  at.UTC(),
	}
}
