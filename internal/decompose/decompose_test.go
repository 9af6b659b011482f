package decompose

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/ShayCichocki/sfxagent/internal/llm"
	"github.com/ShayCichocki/sfxagent/pkg/models"
)

// stubEvaluator returns a canned reply and records the instruction.
type stubEvaluator struct {
	reply       string
	err         error
	calls       int
	model       string
	instruction string
}

func (s *stubEvaluator) Evaluate(_ context.Context, model, instruction string) (string, error) {
	s.calls++
	s.model = model
	s.instruction = instruction
	return s.reply, s.err
}

func TestNew(t *testing.T) {
	if New(nil, "m") == nil {
		t.Fatal("New returned nil")
	}
}

func TestDecompose_WellFormed(t *testing.T) {
	stub := &stubEvaluator{reply: `{
		"source": "rusty metal door",
		"timbre": "sharp, metallic",
		"dynamics": "fast attack, short decay",
		"duration": 1.2,
		"pitch": "low-frequency",
		"space": "medium hall reverb",
		"analogy": "camera shutter click",
		"prompt_influence": 0.7,
		"batch_influences": [0.6, 0.8, 1.0]
	}`}

	params, err := New(stub, "gemma3").Decompose(context.Background(), "a rusty door slamming")
	if err != nil {
		t.Fatalf("Decompose failed: %v", err)
	}

	want := &models.SoundParameters{
		Source:          "rusty metal door",
		Timbre:          "sharp, metallic",
		Dynamics:        "fast attack, short decay",
		Duration:        models.Float(1.2),
		Pitch:           "low-frequency",
		Space:           "medium hall reverb",
		Analogy:         "camera shutter click",
		PromptInfluence: models.Float(0.7),
		BatchInfluences: []float64{0.6, 0.8, 1.0},
	}
	if !reflect.DeepEqual(params, want) {
		t.Errorf("Decompose() = %+v, want %+v", params, want)
	}
	if stub.calls != 1 {
		t.Errorf("evaluator calls = %d, want 1", stub.calls)
	}
	if stub.model != "gemma3" {
		t.Errorf("model = %q, want %q", stub.model, "gemma3")
	}
	if !strings.Contains(stub.instruction, "a rusty door slamming") {
		t.Error("instruction should embed the brief")
	}
	if !strings.Contains(stub.instruction, `"batch_influences"`) {
		t.Error("instruction should embed the output schema")
	}
}

func TestDecompose_CallFailure(t *testing.T) {
	stub := &stubEvaluator{err: &llm.TransportError{Backend: "ollama", Err: errors.New("connection refused")}}

	_, err := New(stub, "m").Decompose(context.Background(), "brief")
	var de *DecompositionError
	if !errors.As(err, &de) {
		t.Fatalf("Decompose() error = %v, want DecompositionError", err)
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("error %q should contain the external error text", err.Error())
	}
	var te *llm.TransportError
	if !errors.As(err, &te) {
		t.Error("DecompositionError should wrap the TransportError")
	}
}

func TestDecompose_InvalidOutput(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"plain text", "I cannot help with that"},
		{"wrong shape", `{"source": ["not", "a", "string"]}`},
		{"quoted text", `The "door" brief is too vague`},
		{"newlines", "line one\nline two"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubEvaluator{reply: tt.reply}

			_, err := New(stub, "m").Decompose(context.Background(), "brief")
			var de *DecompositionError
			if !errors.As(err, &de) {
				t.Fatalf("Decompose() error = %v, want DecompositionError", err)
			}
			if !strings.Contains(err.Error(), "invalid") {
				t.Errorf("error %q should contain %q", err.Error(), "invalid")
			}
			if !strings.Contains(err.Error(), tt.reply) {
				t.Errorf("error %q should contain the raw text", err.Error())
			}
			if de.Raw != tt.reply {
				t.Errorf("Raw = %q, want %q", de.Raw, tt.reply)
			}
		})
	}
}

// sequenceEvaluator returns replies in order, repeating the last one.
type sequenceEvaluator struct {
	replies []string
	calls   int
}

func (s *sequenceEvaluator) Evaluate(context.Context, string, string) (string, error) {
	i := s.calls
	if i >= len(s.replies) {
		i = len(s.replies) - 1
	}
	s.calls++
	return s.replies[i], nil
}

func TestDecompose_CachedInvalidReplyIsDropped(t *testing.T) {
	inner := &sequenceEvaluator{replies: []string{
		"Sorry, I cannot do that.",
		`{"source": "glass", "duration": 2}`,
	}}
	cached, err := llm.NewCached(inner, llm.CacheOptions{InMemory: true})
	if err != nil {
		t.Fatalf("NewCached failed: %v", err)
	}
	defer cached.Close()

	d := New(cached, "m")
	ctx := context.Background()

	if _, err := d.Decompose(ctx, "breaking glass"); err == nil {
		t.Fatal("first Decompose should fail on a non-JSON reply")
	}

	params, err := d.Decompose(ctx, "breaking glass")
	if err != nil {
		t.Fatalf("second Decompose failed: %v", err)
	}
	if params.Source != "glass" {
		t.Errorf("Source = %q, want %q", params.Source, "glass")
	}
	if inner.calls != 2 {
		t.Errorf("model calls = %d, want 2", inner.calls)
	}

	// The parsed reply stays cached.
	if _, err := d.Decompose(ctx, "breaking glass"); err != nil {
		t.Fatalf("third Decompose failed: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("model calls = %d, want 2 after a cache hit", inner.calls)
	}
}

func TestParseObject_WithSurroundingText(t *testing.T) {
	response := "Here you go:\n```json\n{\"source\": \"glass\", \"duration\": 2}\n```\nEnjoy."

	var p models.SoundParameters
	if err := ParseObject(response, &p); err != nil {
		t.Fatalf("ParseObject failed: %v", err)
	}
	if p.Source != "glass" {
		t.Errorf("Source = %q, want %q", p.Source, "glass")
	}
	if p.Duration == nil || *p.Duration != 2 {
		t.Errorf("Duration = %v, want 2", p.Duration)
	}
}

func TestParseObject_RepairsTrailingComma(t *testing.T) {
	var p models.SoundParameters
	if err := ParseObject(`{"source": "glass", "pitch": "high",}`, &p); err != nil {
		t.Fatalf("ParseObject failed: %v", err)
	}
	if p.Pitch != "high" {
		t.Errorf("Pitch = %q, want %q", p.Pitch, "high")
	}
}

func TestParseObject_TruncatesPreview(t *testing.T) {
	long := strings.Repeat("x", 2000)
	err := ParseObject(long, &models.SoundParameters{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "(truncated)") {
		t.Errorf("error should truncate long output: %d chars", len(err.Error()))
	}
}

func TestBuildInstruction(t *testing.T) {
	got := BuildInstruction(`door "slam"`)
	if !strings.Contains(got, `"door \"slam\""`) {
		t.Errorf("instruction should quote the brief, got %q", got)
	}
	for _, key := range []string{"source", "timbre", "dynamics", "duration", "pitch", "space", "analogy"} {
		if !strings.Contains(got, `"`+key+`"`) {
			t.Errorf("instruction schema should mention %q", key)
		}
	}
}
