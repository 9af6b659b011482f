// Package audio provides the PCM primitives used by the post-processor:
// WAV decoding and encoding, loudness measurement, gain, trim and
// resampling.
package audio

import (
	"errors"
	"math"
)

// ErrEmpty is returned for buffers without samples.
var ErrEmpty = errors.New("audio buffer is empty")

// Buffer holds interleaved samples normalized to [-1, 1].
type Buffer struct {
	Samples    []float64
	SampleRate int
	Channels   int
}

// Frames returns the number of sample frames.
func (b *Buffer) Frames() int {
	if b.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Duration returns the length of the buffer in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// Clone returns a deep copy of b.
func (b *Buffer) Clone() *Buffer {
	samples := make([]float64, len(b.Samples))
	copy(samples, b.Samples)
	return &Buffer{Samples: samples, SampleRate: b.SampleRate, Channels: b.Channels}
}

// Peak returns the absolute sample peak in dBFS, or -Inf for silence.
func (b *Buffer) Peak() float64 {
	var peak float64
	for _, s := range b.Samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	return AmplitudeToDB(peak)
}

// Gain returns a copy of b scaled by db decibels.
func (b *Buffer) Gain(db float64) *Buffer {
	out := b.Clone()
	factor := DBToAmplitude(db)
	for i := range out.Samples {
		out.Samples[i] *= factor
	}
	return out
}

// Trim returns a copy of b without the leading and trailing frames whose
// peak is below thresholdDB, and the number of frames removed. A buffer
// that is entirely below the threshold is returned unchanged.
func (b *Buffer) Trim(thresholdDB float64) (*Buffer, int) {
	frames := b.Frames()
	threshold := DBToAmplitude(thresholdDB)

	loud := func(frame int) bool {
		for c := 0; c < b.Channels; c++ {
			if math.Abs(b.Samples[frame*b.Channels+c]) >= threshold {
				return true
			}
		}
		return false
	}

	start := 0
	for start < frames && !loud(start) {
		start++
	}
	if start == frames {
		return b.Clone(), 0
	}
	end := frames
	for end > start && !loud(end-1) {
		end--
	}

	out := &Buffer{
		Samples:    make([]float64, (end-start)*b.Channels),
		SampleRate: b.SampleRate,
		Channels:   b.Channels,
	}
	copy(out.Samples, b.Samples[start*b.Channels:end*b.Channels])
	return out, frames - (end - start)
}

// DBToAmplitude converts decibels to a linear amplitude factor.
func DBToAmplitude(db float64) float64 {
	return math.Pow(10, db/20)
}

// AmplitudeToDB converts a linear amplitude to decibels.
func AmplitudeToDB(a float64) float64 {
	if a <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(a)
}
