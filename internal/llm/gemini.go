package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Gemini evaluates instructions with models hosted on the Gemini API,
// including the Gemma family.
type Gemini struct {
	client *genai.Client
	usage  Usage
}

// NewGemini creates a Gemini evaluator.
func NewGemini(ctx context.Context, apiKey string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini backend requires an API key")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return &Gemini{client: client}, nil
}

// Evaluate sends instruction as a single user turn, requesting a JSON reply.
func (g *Gemini) Evaluate(ctx context.Context, model, instruction string) (string, error) {
	cfg := &genai.GenerateContentConfig{}
	// Gemma models on the Gemini API reject the JSON response mode.
	if !strings.HasPrefix(model, "gemma") {
		cfg.ResponseMIMEType = "application/json"
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, []*genai.Content{
		{Parts: []*genai.Part{{Text: instruction}}, Role: "user"},
	}, cfg)
	if err != nil {
		return "", &TransportError{Backend: "gemini", Err: err}
	}
	if resp != nil && resp.UsageMetadata != nil {
		g.usage.Add(int64(resp.UsageMetadata.PromptTokenCount), int64(resp.UsageMetadata.CandidatesTokenCount))
	}

	var sb strings.Builder
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		return "", &TransportError{Backend: "gemini", Err: errEmptyResponse}
	}
	return sb.String(), nil
}

// Usage returns the token usage tracked by this evaluator.
func (g *Gemini) Usage() *Usage {
	return &g.usage
}

var (
	_ Evaluator     = (*Gemini)(nil)
	_ UsageReporter = (*Gemini)(nil)
)
