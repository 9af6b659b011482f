// Package llm provides the language model capability used to decompose
// briefs and to request feedback, with interchangeable backends.
package llm

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Evaluator sends a free-text instruction to a model and returns the raw
// text of its reply. Implementations are expected to be safe for
// concurrent use.
type Evaluator interface {
	Evaluate(ctx context.Context, model, instruction string) (string, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(ctx context.Context, model, instruction string) (string, error)

// Evaluate calls f.
func (f EvaluatorFunc) Evaluate(ctx context.Context, model, instruction string) (string, error) {
	return f(ctx, model, instruction)
}

// TransportError is returned when a backend call fails before a usable
// reply is produced: process exit, HTTP failure, or an empty response.
type TransportError struct {
	// Backend names the backend, e.g. "ollama" or "openai".
	Backend string
	// Output is any text the backend produced alongside the failure.
	Output string
	Err    error
}

func (e *TransportError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s call failed", e.Backend)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if out := strings.TrimSpace(e.Output); out != "" && (e.Err == nil || !strings.Contains(e.Err.Error(), out)) {
		b.WriteString(": ")
		b.WriteString(out)
	}
	return b.String()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Usage tracks token usage across calls.
type Usage struct {
	mu        sync.Mutex
	inputTok  int64
	outputTok int64
	calls     int
}

// Add records token usage from one call.
func (u *Usage) Add(input, output int64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.inputTok += input
	u.outputTok += output
	u.calls++
}

// Totals returns the number of calls and the input and output tokens.
func (u *Usage) Totals() (calls int, input, output int64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls, u.inputTok, u.outputTok
}

// UsageReporter is implemented by backends that track token usage.
type UsageReporter interface {
	Usage() *Usage
}

// Forgetter is implemented by evaluators that remember replies and can drop
// one, such as Cached.
type Forgetter interface {
	Forget(model, instruction string) error
}

// Forget drops any remembered reply to instruction. It is a no-op for
// evaluators that do not remember replies.
func Forget(e Evaluator, model, instruction string) error {
	if f, ok := e.(Forgetter); ok {
		return f.Forget(model, instruction)
	}
	return nil
}

// Close releases resources held by e, if any.
func Close(e Evaluator) error {
	if c, ok := e.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
