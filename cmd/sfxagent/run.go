package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/sfxagent/internal/config"
	"github.com/ShayCichocki/sfxagent/internal/orchestrator"
	"github.com/ShayCichocki/sfxagent/internal/tui"
)

func runBrief(cmd *cobra.Command, args []string) error {
	brief := joinBrief(args)
	interactive := brief == ""
	if interactive {
		var err error
		brief, err = tui.PromptBrief(os.Stdin, os.Stdout)
		if errors.Is(err, tui.ErrCanceled) {
			return nil
		}
		if err != nil {
			return err
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)

	logger, err := newLogger(cfg, interactive)
	if err != nil {
		return err
	}
	defer logger.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\nReceived interrupt, stopping after in-flight renders...")
			cancel()
		case <-ctx.Done():
		}
	}()

	events := orchestrator.NewEventEmitter(256)
	a, err := buildApp(ctx, cfg, logger, orchestrator.WithEvents(events))
	if err != nil {
		return err
	}
	defer a.Close()

	var report *orchestrator.RunReport
	if interactive {
		report, err = runWithProgress(ctx, cancel, a.agent, brief, events)
	} else {
		report, err = runWithStatus(ctx, a.agent, brief, events, os.Stdout)
	}

	if report != nil {
		fmt.Println(renderSummary(report))
	}
	return err
}

// runWithStatus runs the agent and prints one status line per event to w.
func runWithStatus(ctx context.Context, agent *orchestrator.Agent, brief string, events *orchestrator.EventEmitter, w io.Writer) (*orchestrator.RunReport, error) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range events.Events() {
			if symbol, msg, attr, ok := statusLine(e); ok {
				printStatus(w, symbol, msg, attr)
			}
		}
	}()

	report, err := agent.Run(ctx, brief)
	events.Close()
	<-done
	return report, err
}

// runWithProgress runs the agent behind the interactive progress view.
func runWithProgress(ctx context.Context, cancel context.CancelFunc, agent *orchestrator.Agent, brief string, events *orchestrator.EventEmitter) (*orchestrator.RunReport, error) {
	program, _ := tui.NewProgressProgram(cancel, os.Stdout)

	type result struct {
		report *orchestrator.RunReport
		err    error
	}
	resCh := make(chan result, 1)
	go func() {
		report, err := agent.Run(ctx, brief)
		resCh <- result{report, err}
	}()
	go tui.Forward(program, events.Events())

	if _, err := program.Run(); err != nil {
		cancel()
		res := <-resCh
		events.Close()
		return res.report, errors.Join(res.err, fmt.Errorf("progress view: %w", err))
	}
	res := <-resCh
	events.Close()
	return res.report, res.err
}

// joinBrief joins positional words into a brief.
func joinBrief(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// applyFlags applies command-line overrides to cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("feedback") {
		cfg.Feedback.Enabled = flagFeedback
	}
	if cmd.Flags().Changed("workers") {
		cfg.Agent.Workers = flagWorkers
	}
	if flagVerbose {
		cfg.Logging.Level = "debug"
	}
}

// newLogger builds the run logger. The interactive view owns the terminal,
// so without a log file it logs nothing.
func newLogger(cfg *config.Config, interactive bool) (*orchestrator.Logger, error) {
	if interactive && cfg.Logging.File == "" {
		return orchestrator.NopLogger(), nil
	}
	logger, err := orchestrator.NewLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return logger, nil
}
