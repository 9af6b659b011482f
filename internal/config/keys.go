package config

import (
	"errors"
	"os"
	"strings"
)

// ErrNoAPIKey is returned when a backend requires a key and none is configured.
var ErrNoAPIKey = errors.New("no API key configured")

// llmKeyEnv maps each LLM provider to the environment variable holding its key.
var llmKeyEnv = map[string]string{
	ProviderOpenAI:    "OPENAI_API_KEY",
	ProviderAnthropic: "ANTHROPIC_API_KEY",
	ProviderGemini:    "GEMINI_API_KEY",
}

// ElevenLabsKey returns the ElevenLabs API key.
// It checks in order: environment variable, config file.
func ElevenLabsKey(cfg *Config) (string, error) {
	if key := os.Getenv("ELEVENLABS_API_KEY"); key != "" {
		return key, nil
	}
	if cfg != nil {
		if key := resolved(cfg.ElevenLabs.APIKey); key != "" {
			return key, nil
		}
	}
	return "", ErrNoAPIKey
}

// LLMKey returns the API key for the configured LLM provider. The ollama
// provider runs locally and needs no key, so it returns an empty key.
func LLMKey(cfg *Config) (string, error) {
	if cfg == nil {
		return "", ErrNoAPIKey
	}
	env, ok := llmKeyEnv[cfg.Gemma.Provider]
	if !ok {
		return resolved(cfg.Gemma.APIKey), nil
	}
	if key := os.Getenv(env); key != "" {
		return key, nil
	}
	if key := resolved(cfg.Gemma.APIKey); key != "" {
		return key, nil
	}
	if cfg.Gemma.Provider == ProviderOpenAI && cfg.Gemma.BaseURL != "" {
		// Self-hosted OpenAI-compatible servers usually accept any key.
		return "local", nil
	}
	return "", ErrNoAPIKey
}

// resolved expands remaining env references and rejects unexpanded ones.
func resolved(key string) string {
	key = os.ExpandEnv(key)
	if key == "" || strings.HasPrefix(key, "${") {
		return ""
	}
	return key
}

// MaskAPIKey returns a masked version of the API key for display.
// Shows the first 4 and last 4 characters.
func MaskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 12 {
		return "***"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
