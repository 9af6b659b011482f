package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/config"
)

// AnthropicConfig contains configuration for the Anthropic backend.
type AnthropicConfig struct {
	// APIKey is the Anthropic API key. Ignored when UseBedrock is set.
	APIKey string
	// UseBedrock routes calls through AWS Bedrock instead of the direct API.
	UseBedrock bool
	// AWSRegion is the AWS region for Bedrock (e.g., "us-west-2").
	AWSRegion string
	// AWSProfile is the optional AWS profile name to use.
	AWSProfile string
	// MaxTokens bounds the reply length. Defaults to 1024.
	MaxTokens int64
}

// Anthropic evaluates instructions with Claude models.
type Anthropic struct {
	client    anthropic.Client
	bedrock   bool
	maxTokens int64
	usage     Usage
}

// NewAnthropic creates an Anthropic evaluator.
func NewAnthropic(ctx context.Context, cfg AnthropicConfig) (*Anthropic, error) {
	opts := []option.RequestOption{option.WithMaxRetries(0)}

	if cfg.UseBedrock {
		var loadOpts []func(*config.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, config.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.AWSProfile))
		}
		opts = append(opts, bedrock.WithLoadDefaultConfig(ctx, loadOpts...))
	} else {
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("anthropic backend requires an API key")
		}
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}

	return &Anthropic{
		client:    anthropic.NewClient(opts...),
		bedrock:   cfg.UseBedrock,
		maxTokens: maxTokens,
	}, nil
}

// bedrockModel converts a model name to Bedrock's cross-region inference
// profile format: us.anthropic.{model}-v1:0. Names already in Bedrock
// format are returned as-is.
func bedrockModel(model string) string {
	if strings.Contains(model, "anthropic.") {
		return model
	}
	return "us.anthropic." + model + "-v1:0"
}

// Evaluate sends instruction as a single user message and concatenates
// the text blocks of the reply.
func (a *Anthropic) Evaluate(ctx context.Context, model, instruction string) (string, error) {
	if a.bedrock {
		model = bedrockModel(model)
	}

	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: a.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: "Reply with a single JSON object and nothing else."},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(instruction)),
		},
	})
	if err != nil {
		return "", &TransportError{Backend: "anthropic", Err: err}
	}
	a.usage.Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	var text strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(variant.Text)
		}
	}
	if text.Len() == 0 {
		return "", &TransportError{Backend: "anthropic", Err: errEmptyResponse}
	}
	return text.String(), nil
}

// Usage returns the token usage tracked by this evaluator.
func (a *Anthropic) Usage() *Usage {
	return &a.usage
}

var (
	_ Evaluator     = (*Anthropic)(nil)
	_ UsageReporter = (*Anthropic)(nil)
)
