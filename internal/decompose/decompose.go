// Package decompose converts free-form sound-effect briefs into structured
// sound parameters using a language model.
package decompose

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/ShayCichocki/sfxagent/internal/llm"
	"github.com/ShayCichocki/sfxagent/pkg/models"
)

// maxPreview bounds how much raw model output is quoted in error messages.
const maxPreview = 500

// DecompositionError is returned when the model call fails or its reply
// cannot be parsed. Raw holds the full reply text, if any.
type DecompositionError struct {
	Raw string
	Err error
}

func (e *DecompositionError) Error() string {
	return e.Err.Error()
}

func (e *DecompositionError) Unwrap() error {
	return e.Err
}

// Decomposer breaks down briefs into sound parameters.
type Decomposer struct {
	evaluator llm.Evaluator
	model     string
}

// New creates a new Decomposer calling model through evaluator.
func New(evaluator llm.Evaluator, model string) *Decomposer {
	return &Decomposer{evaluator: evaluator, model: model}
}

// Decompose asks the model for the parameters of brief. It makes exactly
// one call and never retries.
func (d *Decomposer) Decompose(ctx context.Context, brief string) (*models.SoundParameters, error) {
	var params models.SoundParameters
	if err := Call(ctx, d.evaluator, d.model, BuildInstruction(brief), &params); err != nil {
		return nil, err
	}
	return &params, nil
}

// Call sends instruction to model and decodes the single JSON object in the
// reply into v. Every failure is a *DecompositionError. A reply that cannot
// be decoded is dropped from the evaluator's cache so the next call asks the
// model again.
func Call(ctx context.Context, evaluator llm.Evaluator, model, instruction string, v any) error {
	if evaluator == nil {
		return &DecompositionError{Err: errors.New("decomposition call failed: no language model configured")}
	}
	text, err := evaluator.Evaluate(ctx, model, instruction)
	if err != nil {
		return &DecompositionError{Raw: text, Err: fmt.Errorf("decomposition call failed: %w", err)}
	}
	if err := ParseObject(text, v); err != nil {
		if ferr := llm.Forget(evaluator, model, instruction); ferr != nil {
			err = errors.Join(err, fmt.Errorf("dropping cached reply: %w", ferr))
		}
		return &DecompositionError{Raw: text, Err: err}
	}
	return nil
}

// ParseObject extracts the outermost JSON object from response and decodes
// it into v. Syntax errors get one repair attempt before failing.
func ParseObject(response string, v any) error {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end <= start {
		return fmt.Errorf("invalid JSON from language model: no object found in response (got %d chars): %s", len(response), preview(response))
	}
	data := []byte(response[start : end+1])

	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		fixed, rerr := jsonrepair.JSONRepair(string(data))
		if rerr == nil {
			if err = json.Unmarshal([]byte(fixed), v); err == nil {
				return nil
			}
		}
	}
	return fmt.Errorf("invalid JSON from language model: %v: %s", err, preview(response))
}

func preview(s string) string {
	if len(s) > maxPreview {
		return s[:maxPreview] + "... (truncated)"
	}
	return s
}
