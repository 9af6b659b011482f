package models

import (
	"reflect"
	"testing"
	"time"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1.2, "1.2"},
		{2, "2"},
		{0.75, "0.75"},
		{10.0, "10"},
	}

	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSoundParameters_Fields(t *testing.T) {
	p := SoundParameters{
		Source:   "door",
		Timbre:   "wooden",
		Dynamics: "slow",
		Pitch:    "low",
		Space:    "dry",
		Analogy:  "drum",
	}

	got := p.Fields(1.5, 0.8)
	want := map[string]string{
		"source":    "door",
		"timbre":    "wooden",
		"dynamics":  "slow",
		"duration":  "1.5",
		"influence": "0.8",
		"pitch":     "low",
		"space":     "dry",
		"analogy":   "drum",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Fields() = %v, want %v", got, want)
	}
}

func TestSoundParameters_FieldsOmitsEmpty(t *testing.T) {
	p := SoundParameters{Source: "door"}

	fields := p.Fields(1, 0.5)
	if _, ok := fields["timbre"]; ok {
		t.Error("empty timbre should not be present in fields")
	}
	if fields["source"] != "door" {
		t.Errorf("source = %q, want %q", fields["source"], "door")
	}
}

func TestSoundParameters_Missing(t *testing.T) {
	p := SoundParameters{Source: "door", Pitch: "low", Analogy: "drum"}

	got := p.Missing()
	want := []string{"dynamics", "space", "timbre"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Missing() = %v, want %v", got, want)
	}

	full := SoundParameters{Source: "a", Timbre: "b", Dynamics: "c", Pitch: "d", Space: "e", Analogy: "f"}
	if m := full.Missing(); len(m) != 0 {
		t.Errorf("Missing() on complete parameters = %v, want none", m)
	}
}

func TestNewLibraryRecord(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))
	params := SoundParameters{Source: "door"}
	result := RenderResult{
		Job:        RenderJob{Index: 1, Prompt: "door: a sound", Duration: 1.2, Influence: 0.6},
		OutputPath: "out/door.wav",
		Metrics:    Metrics{IntegratedLoudness: -18},
	}

	rec := NewLibraryRecord("run-1", params, result, at)

	if rec.Prompt != "door: a sound" {
		t.Errorf("Prompt = %q, want %q", rec.Prompt, "door: a sound")
	}
	if rec.Influence != 0.6 || rec.Duration != 1.2 {
		t.Errorf("Influence/Duration = %v/%v, want 0.6/1.2", rec.Influence, rec.Duration)
	}
	if rec.CreatedAt.Location() != time.UTC {
		t.Errorf("CreatedAt location = %v, want UTC", rec.CreatedAt.Location())
	}
	if rec.RunID != "run-1" {
		t.Errorf("RunID = %q, want %q", rec.RunID, "run-1")
	}
}
