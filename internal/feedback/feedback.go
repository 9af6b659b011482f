// Package feedback asks a language model for prompt adjustments based on
// the measured quality of a render.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ShayCichocki/sfxagent/internal/decompose"
	"github.com/ShayCichocki/sfxagent/internal/llm"
	"github.com/ShayCichocki/sfxagent/pkg/models"
)

const feedbackPrompt = `You are an assistant that improves sound-effect prompts.
Given the following text-to-audio prompt and audio metrics, suggest precise adjustments to optimize the sound quality.

Prompt: %q
Metrics:
%s

Return ONLY a JSON object with these keys:
- "summary": one sentence assessing the render
- "suggestions": a list of short, concrete adjustments
- "adjusted_prompt": a rewritten prompt applying the suggestions`

// FeedbackError is returned when feedback cannot be obtained or parsed.
type FeedbackError struct {
	Err *decompose.DecompositionError
}

func (e *FeedbackError) Error() string {
	return fmt.Sprintf("feedback request failed: %v", e.Err)
}

func (e *FeedbackError) Unwrap() error {
	return e.Err
}

// Advisor requests feedback on rendered prompts.
type Advisor struct {
	evaluator llm.Evaluator
	model     string
}

// New creates an Advisor calling model through evaluator.
func New(evaluator llm.Evaluator, model string) *Advisor {
	return &Advisor{evaluator: evaluator, model: model}
}

// RequestFeedback sends prompt and metrics to the model and returns its
// suggestions. The suggestions are never applied.
func (a *Advisor) RequestFeedback(ctx context.Context, prompt string, metrics models.Metrics) (*models.FeedbackSuggestion, error) {
	var raw map[string]any
	if err := decompose.Call(ctx, a.evaluator, a.model, buildInstruction(prompt, metrics), &raw); err != nil {
		var de *decompose.DecompositionError
		if !errors.As(err, &de) {
			de = &decompose.DecompositionError{Err: err}
		}
		return nil, &FeedbackError{Err: de}
	}
	return fromRaw(raw), nil
}

func buildInstruction(prompt string, m models.Metrics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- integrated_loudness_lufs: %.2f\n", m.IntegratedLoudness)
	fmt.Fprintf(&b, "- target_loudness_lufs: %.2f\n", m.TargetLoudness)
	fmt.Fprintf(&b, "- peak_dbfs: %.2f\n", m.PeakLevel)
	fmt.Fprintf(&b, "- original_loudness_lufs: %.2f\n", m.OriginalLoudness)
	fmt.Fprintf(&b, "- gain_applied_db: %.2f\n", m.GainApplied)
	fmt.Fprintf(&b, "- clipping_prevented: %t\n", m.ClippingPrevented)
	fmt.Fprintf(&b, "- duration_seconds: %.2f", m.DurationSeconds)
	return fmt.Sprintf(feedbackPrompt, prompt, b.String())
}

// fromRaw lifts the known keys out of a free-form reply.
func fromRaw(raw map[string]any) *models.FeedbackSuggestion {
	s := &models.FeedbackSuggestion{Raw: raw}
	if v, ok := raw["summary"].(string); ok {
		s.Summary = v
	}
	if v, ok := raw["adjusted_prompt"].(string); ok {
		s.AdjustedPrompt = v
	}
	switch v := raw["suggestions"].(type) {
	case []any:
		for _, item := range v {
			if str, ok := item.(string); ok && str != "" {
				s.Suggestions = append(s.Suggestions, str)
			}
		}
	case string:
		s.Suggestions = []string{v}
	}
	if v, ok := raw["suggestion"].(string); ok && v != "" {
		s.Suggestions = append(s.Suggestions, v)
	}
	return s
}
