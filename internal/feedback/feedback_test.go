package feedback

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/ShayCichocki/sfxagent/internal/decompose"
	"github.com/ShayCichocki/sfxagent/internal/llm"
	"github.com/ShayCichocki/sfxagent/pkg/models"
)

func TestRequestFeedback_Success(t *testing.T) {
	var gotInstruction string
	eval := llm.EvaluatorFunc(func(_ context.Context, _, instruction string) (string, error) {
		gotInstruction = instruction
		return `{"summary": "too quiet", "suggestions": ["raise influence", "add reverb"], "adjusted_prompt": "louder door", "score": 6}`, nil
	})

	metrics := models.Metrics{IntegratedLoudness: -23.5, PeakLevel: -1.2, TargetLoudness: -18}
	got, err := New(eval, "gemma3:1b").RequestFeedback(context.Background(), "door slam prompt", metrics)
	if err != nil {
		t.Fatalf("RequestFeedback failed: %v", err)
	}

	if got.Summary != "too quiet" {
		t.Errorf("Summary = %q, want %q", got.Summary, "too quiet")
	}
	if !reflect.DeepEqual(got.Suggestions, []string{"raise influence", "add reverb"}) {
		t.Errorf("Suggestions = %v", got.Suggestions)
	}
	if got.AdjustedPrompt != "louder door" {
		t.Errorf("AdjustedPrompt = %q", got.AdjustedPrompt)
	}
	if got.Raw["score"] != float64(6) {
		t.Errorf("Raw should keep unknown keys, got %v", got.Raw)
	}

	for _, want := range []string{"door slam prompt", "-23.50", "-1.20"} {
		if !strings.Contains(gotInstruction, want) {
			t.Errorf("instruction should contain %q", want)
		}
	}
}

func TestRequestFeedback_FreeFormReply(t *testing.T) {
	eval := llm.EvaluatorFunc(func(context.Context, string, string) (string, error) {
		return `{"suggestion": "Increase prompt_influence to 0.9"}`, nil
	})

	got, err := New(eval, "m").RequestFeedback(context.Background(), "p", models.Metrics{})
	if err != nil {
		t.Fatalf("RequestFeedback failed: %v", err)
	}
	if !reflect.DeepEqual(got.Suggestions, []string{"Increase prompt_influence to 0.9"}) {
		t.Errorf("Suggestions = %v", got.Suggestions)
	}
	if got.Raw["suggestion"] != "Increase prompt_influence to 0.9" {
		t.Errorf("Raw = %v", got.Raw)
	}
}

func TestRequestFeedback_Failure(t *testing.T) {
	tests := []struct {
		name string
		eval llm.Evaluator
	}{
		{"call error", llm.EvaluatorFunc(func(context.Context, string, string) (string, error) {
			return "", errors.New("oops error")
		})},
		{"invalid reply", llm.EvaluatorFunc(func(context.Context, string, string) (string, error) {
			return "not json", nil
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.eval, "m").RequestFeedback(context.Background(), "test prompt", models.Metrics{})
			var fe *FeedbackError
			if !errors.As(err, &fe) {
				t.Fatalf("error = %v, want FeedbackError", err)
			}
			var de *decompose.DecompositionError
			if !errors.As(err, &de) {
				t.Error("FeedbackError should wrap a DecompositionError")
			}
			if !strings.Contains(err.Error(), "feedback request failed") {
				t.Errorf("error %q should mention the feedback request", err.Error())
			}
		})
	}
}
