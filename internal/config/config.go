// Package config loads and validates the sfxagent configuration document.
// Values come from a YAML file, environment overrides, and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultPath is the configuration file used when none is given.
const DefaultPath = "configs/sfx_agent.yml"

// Supported values for enumerated settings.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"

	EndpointSoundGeneration = "sound_generation"
	EndpointTextToSpeech    = "text_to_speech"

	FormatWAV = "wav"
)

// Config holds all configuration for one agent run.
type Config struct {
	ElevenLabs ElevenLabsConfig `mapstructure:"elevenlabs"`
	Gemma      GemmaConfig      `mapstructure:"gemma"`
	Output     OutputConfig     `mapstructure:"output"`
	Prompt     PromptConfig     `mapstructure:"prompt"`
	Processing ProcessingConfig `mapstructure:"processing"`
	Library    LibraryConfig    `mapstructure:"library"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Agent      AgentConfig      `mapstructure:"agent"`
	Feedback   FeedbackConfig   `mapstructure:"feedback"`
	Timeouts   TimeoutsConfig   `mapstructure:"timeouts"`
	Retry      RetryConfig      `mapstructure:"retry"`
	History    HistoryConfig    `mapstructure:"history"`
}

// ElevenLabsConfig holds audio synthesis settings.
type ElevenLabsConfig struct {
	Voice      string `mapstructure:"voice"`
	Model      string `mapstructure:"model"`
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	Endpoint   string `mapstructure:"endpoint"`
	SampleRate int    `mapstructure:"sample_rate"`
}

// GemmaConfig holds language model settings. The section keeps its
// historical name; Provider selects the backend that serves Model.
type GemmaConfig struct {
	Model      string `mapstructure:"model"`
	Provider   string `mapstructure:"provider"`
	Command    string `mapstructure:"command"`
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	CacheDir   string `mapstructure:"cache_dir"`
	UseBedrock bool   `mapstructure:"use_bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
}

// OutputConfig holds where and how rendered files are written.
type OutputConfig struct {
	Folder     string `mapstructure:"folder"`
	FileFormat string `mapstructure:"file_format"`
	S3Bucket   string `mapstructure:"s3_bucket"`
	S3Prefix   string `mapstructure:"s3_prefix"`
	S3Region   string `mapstructure:"s3_region"`
}

// PromptConfig holds prompt composition and variation defaults.
type PromptConfig struct {
	DefaultDuration *float64  `mapstructure:"default_duration"`
	PromptInfluence *float64  `mapstructure:"prompt_influence"`
	BatchInfluences []float64 `mapstructure:"batch_influences"`
	Template        string    `mapstructure:"template"`
}

// ProcessingConfig holds post-processing settings.
type ProcessingConfig struct {
	TargetLUFS      float64 `mapstructure:"target_lufs"`
	Trim            bool    `mapstructure:"trim"`
	TrimThresholdDB float64 `mapstructure:"trim_threshold_db"`
	SampleRate      int     `mapstructure:"sample_rate"`
	BitDepth        int     `mapstructure:"bit_depth"`
}

// LibraryConfig holds the library document location.
type LibraryConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// AgentConfig holds orchestration settings.
type AgentConfig struct {
	Workers int `mapstructure:"workers"`
}

// FeedbackConfig toggles the evaluation stage.
type FeedbackConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// TimeoutsConfig bounds each external call.
type TimeoutsConfig struct {
	LLM       time.Duration `mapstructure:"llm"`
	Synthesis time.Duration `mapstructure:"synthesis"`
}

// RetryConfig holds the synthesis retry policy.
type RetryConfig struct {
	SynthesisAttempts int           `mapstructure:"synthesis_attempts"`
	Backoff           time.Duration `mapstructure:"backoff"`
}

// HistoryConfig holds the run history database settings.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// ConfigurationError reports every missing or invalid setting at once.
type ConfigurationError struct {
	// Missing lists required keys that are absent, as dotted paths.
	Missing []string
	// Invalid lists keys whose values are out of range.
	Invalid []string
	// Err is set when the document itself could not be read.
	Err error
}

func (e *ConfigurationError) Error() string {
	var parts []string
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing config entries: %s", strings.Join(e.Missing, ", ")))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, fmt.Sprintf("invalid config entries: %s", strings.Join(e.Invalid, "; ")))
	}
	if len(parts) == 0 {
		return "configuration error"
	}
	return "configuration: " + strings.Join(parts, "; ")
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Load reads the configuration at path, applies defaults and environment
// overrides, and validates the result. An empty path selects DefaultPath.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, &ConfigurationError{Err: fmt.Errorf("reading config from %s: %w", path, err)}
	}

	// SFX_OUTPUT_FOLDER overrides output.folder, and so on.
	v.SetEnvPrefix("SFX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("elevenlabs.api_key", "SFX_ELEVENLABS_API_KEY", "ELEVENLABS_API_KEY")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, &ConfigurationError{Err: fmt.Errorf("unmarshaling config: %w", err)}
	}

	// An explicit empty list is a valid setting, distinct from an absent key.
	if cfg.Prompt.BatchInfluences == nil && v.Get("prompt.batch_influences") != nil {
		cfg.Prompt.BatchInfluences = []float64{}
	}

	cfg.ElevenLabs.APIKey = expandEnv(cfg.ElevenLabs.APIKey)
	cfg.Gemma.APIKey = expandEnv(cfg.Gemma.APIKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults configures default values for optional keys. Required keys
// have no defaults so that their absence is detected.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("elevenlabs.api_key", "")
	v.SetDefault("elevenlabs.base_url", d.ElevenLabs.BaseURL)
	v.SetDefault("elevenlabs.endpoint", d.ElevenLabs.Endpoint)
	v.SetDefault("elevenlabs.sample_rate", d.ElevenLabs.SampleRate)

	v.SetDefault("gemma.provider", d.Gemma.Provider)
	v.SetDefault("gemma.command", "ollama")
	v.SetDefault("gemma.base_url", "")
	v.SetDefault("gemma.api_key", "")
	v.SetDefault("gemma.cache_dir", "")
	v.SetDefault("gemma.use_bedrock", false)
	v.SetDefault("gemma.aws_region", "")
	v.SetDefault("gemma.aws_profile", "")

	v.SetDefault("output.s3_bucket", "")
	v.SetDefault("output.s3_prefix", "")
	v.SetDefault("output.s3_region", "")

	v.SetDefault("prompt.template", "")

	v.SetDefault("processing.target_lufs", d.Processing.TargetLUFS)
	v.SetDefault("processing.trim", d.Processing.Trim)
	v.SetDefault("processing.trim_threshold_db", d.Processing.TrimThresholdDB)
	v.SetDefault("processing.sample_rate", d.Processing.SampleRate)
	v.SetDefault("processing.bit_depth", d.Processing.BitDepth)

	v.SetDefault("library.path", d.Library.Path)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", "")

	v.SetDefault("agent.workers", d.Agent.Workers)
	v.SetDefault("feedback.enabled", d.Feedback.Enabled)

	v.SetDefault("timeouts.llm", d.Timeouts.LLM.String())
	v.SetDefault("timeouts.synthesis", d.Timeouts.Synthesis.String())

	v.SetDefault("retry.synthesis_attempts", d.Retry.SynthesisAttempts)
	v.SetDefault("retry.backoff", d.Retry.Backoff.String())

	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.path", d.History.Path)
}

// Default returns a Config with default values for every optional key.
// Required keys are left empty.
func Default() *Config {
	return &Config{
		ElevenLabs: ElevenLabsConfig{
			BaseURL:    "https://api.elevenlabs.io",
			Endpoint:   EndpointSoundGeneration,
			SampleRate: 44100,
		},
		Gemma: GemmaConfig{
			Provider: ProviderOllama,
		},
		Processing: ProcessingConfig{
			TargetLUFS:      -18.0,
			Trim:            true,
			TrimThresholdDB: -60.0,
			BitDepth:        16,
		},
		Library: LibraryConfig{
			Path: "prompt_library.yml",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Agent: AgentConfig{
			Workers: 3,
		},
		Timeouts: TimeoutsConfig{
			LLM:       60 * time.Second,
			Synthesis: 120 * time.Second,
		},
		Retry: RetryConfig{
			SynthesisAttempts: 1,
			Backoff:           500 * time.Millisecond,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    ".sfxagent/history.db",
		},
	}
}

// Validate checks required keys and value ranges. All problems are
// collected into a single ConfigurationError.
func (c *Config) Validate() error {
	var missing, invalid []string

	require := func(key, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
	}

	require("elevenlabs.voice", c.ElevenLabs.Voice)
	require("elevenlabs.model", c.ElevenLabs.Model)
	require("gemma.model", c.Gemma.Model)
	require("output.folder", c.Output.Folder)
	require("output.file_format", c.Output.FileFormat)
	if c.Prompt.DefaultDuration == nil {
		missing = append(missing, "prompt.default_duration")
	}
	if c.Prompt.PromptInfluence == nil {
		missing = append(missing, "prompt.prompt_influence")
	}
	if c.Prompt.BatchInfluences == nil {
		missing = append(missing, "prompt.batch_influences")
	}

	if d := c.Prompt.DefaultDuration; d != nil && !ValidDuration(*d) {
		invalid = append(invalid, fmt.Sprintf("prompt.default_duration must be positive, got %v", *d))
	}
	if p := c.Prompt.PromptInfluence; p != nil && !ValidInfluence(*p) {
		invalid = append(invalid, fmt.Sprintf("prompt.prompt_influence must be within 0..1, got %v", *p))
	}
	for i, inf := range c.Prompt.BatchInfluences {
		if !ValidInfluence(inf) {
			invalid = append(invalid, fmt.Sprintf("prompt.batch_influences[%d] must be within 0..1, got %v", i, inf))
		}
	}
	if f := c.Output.FileFormat; f != "" && !strings.EqualFold(f, FormatWAV) {
		invalid = append(invalid, fmt.Sprintf("output.file_format %q is not supported (supported: %s)", f, FormatWAV))
	}
	switch c.Gemma.Provider {
	case "", ProviderOllama, ProviderOpenAI, ProviderAnthropic, ProviderGemini:
	default:
		invalid = append(invalid, fmt.Sprintf("gemma.provider %q is not one of ollama, openai, anthropic, gemini", c.Gemma.Provider))
	}
	switch c.ElevenLabs.Endpoint {
	case "", EndpointSoundGeneration, EndpointTextToSpeech:
	default:
		invalid = append(invalid, fmt.Sprintf("elevenlabs.endpoint %q is not one of sound_generation, text_to_speech", c.ElevenLabs.Endpoint))
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		invalid = append(invalid, fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	if c.Agent.Workers < 0 {
		invalid = append(invalid, fmt.Sprintf("agent.workers must not be negative, got %d", c.Agent.Workers))
	}
	if c.Processing.BitDepth != 0 && c.Processing.BitDepth != 16 && c.Processing.BitDepth != 24 {
		invalid = append(invalid, fmt.Sprintf("processing.bit_depth must be 16 or 24, got %d", c.Processing.BitDepth))
	}

	if len(missing) > 0 || len(invalid) > 0 {
		return &ConfigurationError{Missing: missing, Invalid: invalid}
	}
	return nil
}

// ValidInfluence reports whether v is a usable prompt influence, 0..1.
func ValidInfluence(v float64) bool {
	return v >= 0 && v <= 1
}

// ValidDuration reports whether d is a usable duration in seconds.
func ValidDuration(d float64) bool {
	return d > 0 && !math.IsInf(d, 1)
}

// IsConfigurationError reports whether err is a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}
