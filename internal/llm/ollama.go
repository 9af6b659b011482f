package llm

import (
	"context"
	"strings"

	iexec "github.com/ShayCichocki/sfxagent/internal/exec"
)

// Ollama evaluates instructions through the local ollama CLI.
type Ollama struct {
	runner iexec.CommandRunner
	binary string
}

// NewOllama creates an Ollama evaluator. An empty binary selects "ollama"
// from PATH.
func NewOllama(runner iexec.CommandRunner, binary string) *Ollama {
	if runner == nil {
		runner = iexec.NewRunner()
	}
	if binary == "" {
		binary = "ollama"
	}
	return &Ollama{runner: runner, binary: binary}
}

// Evaluate runs `ollama run --format json <model> <instruction>` and returns
// its standard output.
func (o *Ollama) Evaluate(ctx context.Context, model, instruction string) (string, error) {
	out, err := o.runner.Run(ctx, o.binary, "run", "--format", "json", "--nowordwrap", model, instruction)
	if err != nil {
		return "", &TransportError{Backend: "ollama", Output: string(out), Err: err}
	}
	text := strings.TrimSpace(string(out))
	if text == "" {
		return "", &TransportError{Backend: "ollama", Err: errEmptyResponse}
	}
	return text, nil
}

// Verify Ollama implements Evaluator at compile time.
var _ Evaluator = (*Ollama)(nil)
