// Package postprocess normalizes rendered audio to a target loudness and
// reports its quality metrics.
package postprocess

import (
	"fmt"
	"math"

	"github.com/ShayCichocki/sfxagent/internal/audio"
	"github.com/ShayCichocki/sfxagent/pkg/models"
)

// Default settings.
const (
	DefaultTargetLUFS = -18.0
	DefaultBitDepth   = 16
)

// ProcessingError is returned when audio cannot be decoded, measured or
// encoded.
type ProcessingError struct {
	Op  string
	Err error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("post-processing failed (%s): %v", e.Op, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// Config controls processing.
type Config struct {
	// TargetLUFS is the integrated loudness to normalize to.
	TargetLUFS float64
	// Trim removes leading and trailing near-silence.
	Trim bool
	// TrimThresholdDB is the level below which frames count as silence.
	// It is used as given; 0 means 0 dBFS.
	TrimThresholdDB float64
	// SampleRate resamples the output when non-zero.
	SampleRate int
	// BitDepth of the encoded output, 16 or 24. Zero means 16.
	BitDepth int
}

// Result is processed audio and its metrics.
type Result struct {
	Audio   []byte
	Metrics models.Metrics
}

// Processor applies loudness normalization. It holds no per-call state and
// is safe for concurrent use.
type Processor struct {
	cfg Config
}

// New creates a Processor.
func New(cfg Config) *Processor {
	if cfg.BitDepth == 0 {
		cfg.BitDepth = DefaultBitDepth
	}
	return &Processor{cfg: cfg}
}

// Process decodes WAV data, normalizes it and re-encodes it. data is not
// modified.
func (p *Processor) Process(data []byte) (*Result, error) {
	buf, _, err := audio.DecodeWAV(data)
	if err != nil {
		return nil, &ProcessingError{Op: "decode", Err: err}
	}
	if buf.Frames() == 0 {
		return nil, &ProcessingError{Op: "decode", Err: audio.ErrEmpty}
	}

	if p.cfg.SampleRate > 0 && p.cfg.SampleRate != buf.SampleRate {
		buf, err = audio.Resample(buf, p.cfg.SampleRate)
		if err != nil {
			return nil, &ProcessingError{Op: "resample", Err: err}
		}
		if buf.Frames() == 0 {
			return nil, &ProcessingError{Op: "resample", Err: audio.ErrEmpty}
		}
	}

	var trimmed int
	if p.cfg.Trim {
		buf, trimmed = buf.Trim(p.cfg.TrimThresholdDB)
	}

	originalLoudness, err := audio.IntegratedLoudness(buf)
	if err != nil {
		return nil, &ProcessingError{Op: "measure", Err: err}
	}
	originalPeak := buf.Peak()

	metrics := models.Metrics{
		OriginalLoudness: originalLoudness,
		OriginalPeak:     originalPeak,
		TargetLoudness:   p.cfg.TargetLUFS,
		TrimmedSeconds:   float64(trimmed) / float64(buf.SampleRate),
		SampleRate:       buf.SampleRate,
		Channels:         buf.Channels,
	}

	out := buf
	if !math.IsInf(originalLoudness, -1) {
		gain := p.cfg.TargetLUFS - originalLoudness
		if originalPeak+gain > 0 {
			gain = -originalPeak
			metrics.ClippingPrevented = true
		}
		metrics.GainApplied = gain
		out = buf.Gain(gain)
	}

	metrics.IntegratedLoudness, err = audio.IntegratedLoudness(out)
	if err != nil {
		return nil, &ProcessingError{Op: "measure", Err: err}
	}
	metrics.PeakLevel = out.Peak()
	metrics.DurationSeconds = out.Duration()

	encoded, err := audio.EncodeWAV(out, p.cfg.BitDepth)
	if err != nil {
		return nil, &ProcessingError{Op: "encode", Err: err}
	}

	return &Result{Audio: encoded, Metrics: metrics}, nil
}
