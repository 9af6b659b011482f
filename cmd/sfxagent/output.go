package main

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/ShayCichocki/sfxagent/internal/orchestrator"
)

const (
	colorSuccess = color.FgGreen
	colorFailure = color.FgRed
	colorWarning = color.FgYellow
	colorInfo    = color.FgCyan
)

// printStatus prints a status line with color
func printStatus(w io.Writer, symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Fprintf(w, "%s %s\n", c.Sprint(symbol), message)
}

// statusLine maps an event to a status line. ok is false for events that
// are not printed.
func statusLine(e orchestrator.Event) (symbol, message string, attr color.Attribute, ok bool) {
	switch e.Type {
	case orchestrator.EventStateChanged:
		return "→", string(e.State), colorInfo, true
	case orchestrator.EventJobsPlanned:
		return "•", "planned " + e.Message, colorInfo, true
	case orchestrator.EventJobRetry:
		return "⚠", fmt.Sprintf("%s retrying: %v", jobLabel(e), e.Error), colorWarning, true
	case orchestrator.EventJobCompleted:
		return "✓", fmt.Sprintf("%s saved %s", jobLabel(e), e.Message), colorSuccess, true
	case orchestrator.EventJobFailed:
		return "✗", fmt.Sprintf("%s failed: %v", jobLabel(e), e.Error), colorFailure, true
	case orchestrator.EventFeedback:
		return "•", fmt.Sprintf("%s feedback: %s", jobLabel(e), e.Message), colorInfo, true
	}
	return "", "", 0, false
}

func jobLabel(e orchestrator.Event) string {
	if e.Job == nil {
		return "job"
	}
	return fmt.Sprintf("job %d (influence %.2f)", e.Job.Index, e.Job.Influence)
}

var (
	summaryBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
	summaryTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	summaryOK    = lipgloss.NewStyle().Foreground(lipgloss.Color("#96E6A1"))
	summaryErr   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	summaryDim   = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

// renderSummary renders the end-of-run summary box.
func renderSummary(report *orchestrator.RunReport) string {
	var lines []string
	lines = append(lines, summaryTitle.Render(report.Brief))
	lines = append(lines, fmt.Sprintf("%d/%d renders succeeded", report.Succeeded, report.Attempted))
	for _, o := range report.Outcomes {
		if o.OK() {
			m := o.Result.Metrics
			lines = append(lines, summaryOK.Render(fmt.Sprintf("✓ %s", o.Result.OutputPath))+
				summaryDim.Render(fmt.Sprintf("  %s LUFS, peak %s dBFS", formatDB(m.IntegratedLoudness), formatDB(m.PeakLevel))))
			if o.Result.RemoteURI != "" {
				lines = append(lines, summaryDim.Render("  "+o.Result.RemoteURI))
			}
			for _, w := range o.Warnings {
				lines = append(lines, summaryDim.Render("  ⚠ "+w))
			}
			if fb := o.Result.Feedback; fb != nil && fb.AdjustedPrompt != "" {
				lines = append(lines, summaryDim.Render("  try: "+fb.AdjustedPrompt))
			}
			continue
		}
		lines = append(lines, summaryErr.Render(fmt.Sprintf("✗ influence %.2f: %v", o.Job.Influence, o.Err)))
	}
	if report.LibraryPath != "" {
		lines = append(lines, summaryDim.Render("library: "+report.LibraryPath))
	}
	return summaryBox.Render(strings.Join(lines, "\n"))
}

func formatDB(v float64) string {
	if math.IsInf(v, -1) || math.IsNaN(v) {
		return "-inf"
	}
	return fmt.Sprintf("%.1f", v)
}
