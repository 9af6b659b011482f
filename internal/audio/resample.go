package audio

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Resample converts b to rate. A buffer already at rate is returned as a
// copy.
func Resample(b *Buffer, rate int) (*Buffer, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", rate)
	}
	if b.SampleRate == rate {
		return b.Clone(), nil
	}

	r, err := resampling.New(&resampling.Config{
		InputRate:  float64(b.SampleRate),
		OutputRate: float64(rate),
		Channels:   b.Channels,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}

	out, err := r.Process(b.Samples)
	if err != nil {
		return nil, fmt.Errorf("resample: %w", err)
	}
	// Keep whole frames only.
	out = out[:len(out)/b.Channels*b.Channels]

	return &Buffer{Samples: out, SampleRate: rate, Channels: b.Channels}, nil
}
