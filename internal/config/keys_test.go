package config

import (
	"errors"
	"testing"
)

func TestElevenLabsKey(t *testing.T) {
	t.Setenv("ELEVENLABS_API_KEY", "")

	cfg := Default()
	if _, err := ElevenLabsKey(cfg); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("ElevenLabsKey() error = %v, want ErrNoAPIKey", err)
	}

	cfg.ElevenLabs.APIKey = "from-config"
	key, err := ElevenLabsKey(cfg)
	if err != nil || key != "from-config" {
		t.Errorf("ElevenLabsKey() = %q, %v, want from-config", key, err)
	}

	t.Setenv("ELEVENLABS_API_KEY", "from-env")
	key, _ = ElevenLabsKey(cfg)
	if key != "from-env" {
		t.Errorf("ElevenLabsKey() = %q, want env to take precedence", key)
	}
}

func TestElevenLabsKey_UnexpandedReference(t *testing.T) {
	t.Setenv("ELEVENLABS_API_KEY", "")
	cfg := Default()
	cfg.ElevenLabs.APIKey = "${NOT_SET_ANYWHERE}"

	if _, err := ElevenLabsKey(cfg); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("ElevenLabsKey() error = %v, want ErrNoAPIKey", err)
	}
}

func TestLLMKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	tests := []struct {
		name     string
		provider string
		baseURL  string
		apiKey   string
		want     string
		wantErr  bool
	}{
		{"ollama needs no key", ProviderOllama, "", "", "", false},
		{"openai missing", ProviderOpenAI, "", "", "", true},
		{"openai self-hosted", ProviderOpenAI, "http://localhost:11434/v1", "", "local", false},
		{"anthropic from config", ProviderAnthropic, "", "sk-ant-xyz", "sk-ant-xyz", false},
		{"gemini missing", ProviderGemini, "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Gemma.Provider = tt.provider
			cfg.Gemma.BaseURL = tt.baseURL
			cfg.Gemma.APIKey = tt.apiKey

			got, err := LLMKey(cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LLMKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("LLMKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"", "(not set)"},
		{"short", "***"},
		{"sk_1234567890abcdef", "sk_1...cdef"},
	}
	for _, tt := range tests {
		if got := MaskAPIKey(tt.key); got != tt.want {
			t.Errorf("MaskAPIKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
