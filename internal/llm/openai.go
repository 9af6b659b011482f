package llm

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// defaultOllamaV1 is ollama's OpenAI-compatible endpoint.
const defaultOllamaV1 = "http://localhost:11434/v1/"

// OpenAI evaluates instructions against any OpenAI-compatible chat API,
// including a local ollama server.
type OpenAI struct {
	client openai.Client
	usage  Usage
}

// NewOpenAI creates an OpenAI-compatible evaluator. An empty baseURL with an
// empty apiKey targets the local ollama endpoint.
func NewOpenAI(baseURL, apiKey string) *OpenAI {
	var opts []option.RequestOption
	if baseURL == "" && apiKey == "" {
		baseURL, apiKey = defaultOllamaV1, "ollama"
	}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	// Retries are the orchestrator's decision.
	opts = append(opts, option.WithMaxRetries(0))
	return &OpenAI{client: openai.NewClient(opts...)}
}

// Evaluate sends instruction as a single user message.
func (o *OpenAI) Evaluate(ctx context.Context, model, instruction string) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("Reply with a single JSON object and nothing else."),
			openai.UserMessage(instruction),
		},
	})
	if err != nil {
		return "", &TransportError{Backend: "openai", Err: err}
	}
	o.usage.Add(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &TransportError{Backend: "openai", Err: errEmptyResponse}
	}
	return resp.Choices[0].Message.Content, nil
}

// Usage returns the token usage tracked by this evaluator.
func (o *OpenAI) Usage() *Usage {
	return &o.usage
}

var (
	_ Evaluator     = (*OpenAI)(nil)
	_ UsageReporter = (*OpenAI)(nil)
)
