package postprocess

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/ShayCichocki/sfxagent/internal/audio"
)

func toneWAV(t *testing.T, amplitude, seconds float64, rate, channels int, pad int) []byte {
	t.Helper()
	frames := int(seconds * float64(rate))
	samples := make([]float64, 0, (frames+2*pad)*channels)
	samples = append(samples, make([]float64, pad*channels)...)
	for i := 0; i < frames; i++ {
		v := amplitude * math.Sin(2*math.Pi*440*float64(i)/float64(rate))
		for c := 0; c < channels; c++ {
			samples = append(samples, v)
		}
	}
	samples = append(samples, make([]float64, pad*channels)...)
	data, err := audio.EncodeWAV(&audio.Buffer{Samples: samples, SampleRate: rate, Channels: channels}, 16)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}
	return data
}

func TestProcess_NormalizesToTarget(t *testing.T) {
	input := toneWAV(t, 0.05, 2, 44100, 1, 0)
	original := append([]byte(nil), input...)

	res, err := New(Config{TargetLUFS: -18}).Process(input)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if !bytes.Equal(input, original) {
		t.Error("Process mutated its input")
	}
	m := res.Metrics
	if math.Abs(m.IntegratedLoudness-(-18)) > 0.5 {
		t.Errorf("IntegratedLoudness = %.2f, want -18 +/- 0.5", m.IntegratedLoudness)
	}
	if m.GainApplied <= 0 {
		t.Errorf("GainApplied = %.2f, want positive for a quiet tone", m.GainApplied)
	}
	if m.ClippingPrevented {
		t.Error("ClippingPrevented should be false")
	}
	if m.TargetLoudness != -18 {
		t.Errorf("TargetLoudness = %v, want -18", m.TargetLoudness)
	}

	// The encoded output must measure the same as the reported metric.
	buf, _, err := audio.DecodeWAV(res.Audio)
	if err != nil {
		t.Fatalf("output is not valid WAV: %v", err)
	}
	got, err := audio.IntegratedLoudness(buf)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-(-18)) > 0.5 {
		t.Errorf("decoded output loudness = %.2f, want -18 +/- 0.5", got)
	}
}

func TestProcess_PreventsClipping(t *testing.T) {
	input := toneWAV(t, 0.5, 1, 44100, 1, 0)

	res, err := New(Config{TargetLUFS: 0}).Process(input)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	m := res.Metrics
	if !m.ClippingPrevented {
		t.Fatal("ClippingPrevented should be set when the target would clip")
	}
	if m.PeakLevel > 0.01 {
		t.Errorf("PeakLevel = %.3f dBFS, want <= 0", m.PeakLevel)
	}
	if math.Abs(m.GainApplied+m.OriginalPeak) > 1e-9 {
		t.Errorf("GainApplied = %v, want %v", m.GainApplied, -m.OriginalPeak)
	}
}

func TestProcess_Trim(t *testing.T) {
	input := toneWAV(t, 0.2, 1, 8000, 1, 4000)

	withTrim, err := New(Config{TargetLUFS: -18, Trim: true, TrimThresholdDB: -60}).Process(input)
	if err != nil {
		t.Fatal(err)
	}
	if got := withTrim.Metrics.TrimmedSeconds; got < 0.99 || got > 1.01 {
		t.Errorf("TrimmedSeconds = %.3f, want about 1", got)
	}
	if got := withTrim.Metrics.DurationSeconds; got < 0.99 || got > 1.01 {
		t.Errorf("DurationSeconds = %.3f, want about 1", got)
	}

	noTrim, err := New(Config{TargetLUFS: -18}).Process(input)
	if err != nil {
		t.Fatal(err)
	}
	if noTrim.Metrics.TrimmedSeconds != 0 {
		t.Errorf("TrimmedSeconds = %v, want 0 without trim", noTrim.Metrics.TrimmedSeconds)
	}
}

func TestProcess_TrimThresholdZeroIsKept(t *testing.T) {
	input := toneWAV(t, 0.2, 1, 8000, 1, 4000)

	p := New(Config{TargetLUFS: -18, Trim: true, TrimThresholdDB: 0})
	if p.cfg.TrimThresholdDB != 0 {
		t.Fatalf("TrimThresholdDB = %v, want 0", p.cfg.TrimThresholdDB)
	}

	// Every frame of a -14 dBFS tone is below 0 dBFS, so nothing is trimmed.
	res, err := p.Process(input)
	if err != nil {
		t.Fatal(err)
	}
	if res.Metrics.TrimmedSeconds != 0 {
		t.Errorf("TrimmedSeconds = %v, want 0 at a 0 dBFS threshold", res.Metrics.TrimmedSeconds)
	}
}

func TestProcess_Silence(t *testing.T) {
	data, err := audio.EncodeWAV(&audio.Buffer{Samples: make([]float64, 8000), SampleRate: 8000, Channels: 1}, 16)
	if err != nil {
		t.Fatal(err)
	}

	res, err := New(Config{TargetLUFS: -18, Trim: true, TrimThresholdDB: -60}).Process(data)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if res.Metrics.GainApplied != 0 {
		t.Errorf("GainApplied = %v, want 0 for silence", res.Metrics.GainApplied)
	}
	if !math.IsInf(res.Metrics.OriginalLoudness, -1) {
		t.Errorf("OriginalLoudness = %v, want -Inf", res.Metrics.OriginalLoudness)
	}
}

func TestProcess_Resample(t *testing.T) {
	input := toneWAV(t, 0.1, 1, 48000, 2, 0)

	res, err := New(Config{TargetLUFS: -18, SampleRate: 22050, BitDepth: 24}).Process(input)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	buf, depth, err := audio.DecodeWAV(res.Audio)
	if err != nil {
		t.Fatal(err)
	}
	if buf.SampleRate != 22050 || depth != 24 || buf.Channels != 2 {
		t.Errorf("output = %d-bit %d Hz x %d, want 24-bit 22050 Hz x 2", depth, buf.SampleRate, buf.Channels)
	}
	if res.Metrics.SampleRate != 22050 {
		t.Errorf("Metrics.SampleRate = %d, want 22050", res.Metrics.SampleRate)
	}
}

func TestProcess_Errors(t *testing.T) {
	empty, err := audio.EncodeWAV(&audio.Buffer{SampleRate: 8000, Channels: 1}, 16)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"not audio", []byte("hello world, this is not a wav file")},
		{"zero length", empty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(Config{TargetLUFS: -18}).Process(tt.data)
			var pe *ProcessingError
			if !errors.As(err, &pe) {
				t.Fatalf("error = %v, want ProcessingError", err)
			}
		})
	}
}
