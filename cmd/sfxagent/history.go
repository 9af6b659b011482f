package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/sfxagent/internal/config"
	"github.com/ShayCichocki/sfxagent/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs",
	Long: `List recent agent runs from the run history database, newest first.

Shows each run's status, brief, and how many renders succeeded.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of runs to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	path := history.DefaultPath
	if cfg, err := config.Load(configPath); err == nil && cfg.History.Path != "" {
		path = cfg.History.Path
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet. Run 'sfxagent <brief>' to start.")
		return nil
	}

	db, err := openHistory(path)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer db.Close()

	return printHistory(cmd.OutOrStdout(), db, historyLimit)
}

func printHistory(w io.Writer, db history.Reader, limit int) error {
	runs, err := db.ListRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded yet.")
		return nil
	}

	for _, r := range runs {
		jobs, err := db.ListJobs(r.ID)
		if err != nil {
			return err
		}
		ok := 0
		for _, j := range jobs {
			if j.Status == history.JobDone {
				ok++
			}
		}
		fmt.Fprintf(w, "%s  %-11s %d/%d  %s\n", r.StartedAt.Local().Format(time.DateTime), r.Status, ok, len(jobs), r.Brief)
		if r.Error != "" {
			fmt.Fprintf(w, "    %s\n", r.Error)
		}
	}
	return nil
}
