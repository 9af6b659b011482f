package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/sfxagent/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved configuration",
	Long: `Load and validate the configuration file, then print every setting
after defaults and environment overrides are applied.

API keys are masked. Environment variables with the SFX_ prefix override
file values, e.g. SFX_OUTPUT_FOLDER overrides output.folder.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		displayAllConfig(cmd.OutOrStdout(), cfg)
		return nil
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(w io.Writer, cfg *config.Config) {
	elevenKey, _ := config.ElevenLabsKey(cfg)
	llmKey, _ := config.LLMKey(cfg)

	fmt.Fprintf(w, "elevenlabs.voice: %s\n", cfg.ElevenLabs.Voice)
	fmt.Fprintf(w, "elevenlabs.model: %s\n", cfg.ElevenLabs.Model)
	fmt.Fprintf(w, "elevenlabs.endpoint: %s\n", cfg.ElevenLabs.Endpoint)
	fmt.Fprintf(w, "elevenlabs.base_url: %s\n", cfg.ElevenLabs.BaseURL)
	fmt.Fprintf(w, "elevenlabs.sample_rate: %d\n", cfg.ElevenLabs.SampleRate)
	fmt.Fprintf(w, "elevenlabs.api_key: %s\n", config.MaskAPIKey(elevenKey))
	fmt.Fprintf(w, "gemma.model: %s\n", cfg.Gemma.Model)
	fmt.Fprintf(w, "gemma.provider: %s\n", cfg.Gemma.Provider)
	fmt.Fprintf(w, "gemma.api_key: %s\n", config.MaskAPIKey(llmKey))
	fmt.Fprintf(w, "gemma.cache_dir: %s\n", cfg.Gemma.CacheDir)
	fmt.Fprintf(w, "output.folder: %s\n", cfg.Output.Folder)
	fmt.Fprintf(w, "output.file_format: %s\n", cfg.Output.FileFormat)
	if cfg.Output.S3Bucket != "" {
		fmt.Fprintf(w, "output.s3: s3://%s/%s\n", cfg.Output.S3Bucket, strings.Trim(cfg.Output.S3Prefix, "/"))
	}
	fmt.Fprintf(w, "prompt.default_duration: %s\n", optional(cfg.Prompt.DefaultDuration))
	fmt.Fprintf(w, "prompt.prompt_influence: %s\n", optional(cfg.Prompt.PromptInfluence))
	fmt.Fprintf(w, "prompt.batch_influences: %v\n", cfg.Prompt.BatchInfluences)
	template := cfg.Prompt.Template
	if template == "" {
		template = "(default)"
	}
	fmt.Fprintf(w, "prompt.template: %s\n", template)
	fmt.Fprintf(w, "processing.target_lufs: %.1f\n", cfg.Processing.TargetLUFS)
	fmt.Fprintf(w, "processing.trim: %t\n", cfg.Processing.Trim)
	fmt.Fprintf(w, "processing.bit_depth: %d\n", cfg.Processing.BitDepth)
	fmt.Fprintf(w, "library.path: %s\n", cfg.Library.Path)
	fmt.Fprintf(w, "logging.level: %s\n", cfg.Logging.Level)
	fmt.Fprintf(w, "agent.workers: %d\n", cfg.Agent.Workers)
	fmt.Fprintf(w, "feedback.enabled: %t\n", cfg.Feedback.Enabled)
	fmt.Fprintf(w, "timeouts.llm: %s\n", cfg.Timeouts.LLM)
	fmt.Fprintf(w, "timeouts.synthesis: %s\n", cfg.Timeouts.Synthesis)
	fmt.Fprintf(w, "retry.synthesis_attempts: %d\n", cfg.Retry.SynthesisAttempts)
	fmt.Fprintf(w, "history.enabled: %t\n", cfg.History.Enabled)
	fmt.Fprintf(w, "history.path: %s\n", cfg.History.Path)
}

func optional(v *float64) string {
	if v == nil {
		return "(not set)"
	}
	return fmt.Sprint(*v)
}
