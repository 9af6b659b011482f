package llm

import (
	"context"
	"fmt"

	"github.com/ShayCichocki/sfxagent/internal/config"
	iexec "github.com/ShayCichocki/sfxagent/internal/exec"
)

// New builds the evaluator selected by cfg.Gemma.Provider, wrapped in a
// response cache when cfg.Gemma.CacheDir is set. runner is used by the
// ollama backend; nil selects os/exec.
func New(ctx context.Context, cfg *config.Config, runner iexec.CommandRunner) (Evaluator, error) {
	g := cfg.Gemma

	var (
		ev  Evaluator
		err error
	)
	switch g.Provider {
	case "", config.ProviderOllama:
		ev = NewOllama(runner, g.Command)
	case config.ProviderOpenAI:
		key, kerr := config.LLMKey(cfg)
		if kerr != nil {
			return nil, fmt.Errorf("openai backend: %w", kerr)
		}
		ev = NewOpenAI(g.BaseURL, key)
	case config.ProviderAnthropic:
		key, _ := config.LLMKey(cfg)
		ev, err = NewAnthropic(ctx, AnthropicConfig{
			APIKey:     key,
			UseBedrock: g.UseBedrock,
			AWSRegion:  g.AWSRegion,
			AWSProfile: g.AWSProfile,
		})
	case config.ProviderGemini:
		key, kerr := config.LLMKey(cfg)
		if kerr != nil {
			return nil, fmt.Errorf("gemini backend: %w", kerr)
		}
		ev, err = NewGemini(ctx, key)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", g.Provider)
	}
	if err != nil {
		return nil, err
	}

	if g.CacheDir != "" {
		return NewCached(ev, CacheOptions{Dir: g.CacheDir})
	}
	return ev, nil
}
