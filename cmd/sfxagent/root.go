package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/sfxagent/internal/config"
)

var (
	configPath   string
	flagFeedback bool
	flagWorkers  int
	flagVerbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "sfxagent [brief...]",
	Short: "Sound effect agent",
	Long: `sfxagent turns a short natural-language brief into finished sound effects.

The brief is decomposed into sound parameters by a language model, one
prompt per influence value is rendered by ElevenLabs, and every render is
loudness-normalized, saved, and recorded in the prompt library.

With no arguments, an interactive prompt asks for the brief.

Examples:
  sfxagent "a rusty metal door slamming in a large hall"
  sfxagent --feedback --workers 2 glass bottle shattering on concrete`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runBrief,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("✗"), err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the YAML configuration file")
	rootCmd.Flags().BoolVar(&flagFeedback, "feedback", false, "Request improvement feedback for every render (overrides feedback.enabled)")
	rootCmd.Flags().IntVar(&flagWorkers, "workers", 0, "Maximum concurrent renders (0 renders every job at once)")
	rootCmd.Flags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(libraryCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}
