package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/sfxagent/internal/config"
	"github.com/ShayCichocki/sfxagent/internal/library"
)

var libraryPath string

var libraryCmd = &cobra.Command{
	Use:   "library [brief]",
	Short: "Browse the prompt library",
	Long: `Without arguments, lists every brief in the prompt library with its
record count. With a brief, prints that brief's records.

The library path comes from --file, else library.path in the configuration,
else prompt_library.yml.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := library.New(resolveLibraryPath())
		if len(args) == 0 {
			return listBriefs(cmd.OutOrStdout(), store)
		}
		return showBrief(cmd.OutOrStdout(), store, args[0])
	},
}

func init() {
	libraryCmd.Flags().StringVar(&libraryPath, "file", "", "Path to the library YAML file")
}

func resolveLibraryPath() string {
	if libraryPath != "" {
		return libraryPath
	}
	if cfg, err := config.Load(configPath); err == nil && cfg.Library.Path != "" {
		return cfg.Library.Path
	}
	return library.DefaultPath
}

func listBriefs(w io.Writer, store *library.Store) error {
	briefs, err := store.Briefs()
	if err != nil {
		return err
	}
	if len(briefs) == 0 {
		fmt.Fprintf(w, "No briefs in %s yet.\n", store.Path())
		return nil
	}
	data, err := store.Load()
	if err != nil {
		return err
	}
	for _, b := range briefs {
		fmt.Fprintf(w, "%3d  %s\n", len(data[b]), b)
	}
	return nil
}

func showBrief(w io.Writer, store *library.Store, brief string) error {
	data, err := store.Load()
	if err != nil {
		return err
	}
	records, ok := data[brief]
	if !ok {
		return fmt.Errorf("brief %q not found in %s", brief, store.Path())
	}
	for i, r := range records {
		fmt.Fprintf(w, "[%d] %s\n", i, r.Prompt)
		fmt.Fprintf(w, "    file:      %s\n", r.OutputPath)
		if r.RemoteURI != "" {
			fmt.Fprintf(w, "    remote:    %s\n", r.RemoteURI)
		}
		fmt.Fprintf(w, "    duration:  %.2fs  influence: %.2f\n", r.Duration, r.Influence)
		fmt.Fprintf(w, "    loudness:  %s LUFS  peak: %s dBFS\n", formatDB(r.Metrics.IntegratedLoudness), formatDB(r.Metrics.PeakLevel))
		if r.Feedback != nil && r.Feedback.Summary != "" {
			fmt.Fprintf(w, "    feedback:  %s\n", r.Feedback.Summary)
		}
	}
	return nil
}
