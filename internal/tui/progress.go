package tui

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/sfxagent/internal/orchestrator"
)

// EventMsg wraps an orchestrator event for the progress view.
type EventMsg struct {
	Event orchestrator.Event
}

// JobStatus is the display status of one render job.
type JobStatus string

const (
	JobRendering JobStatus = "rendering"
	JobRetrying  JobStatus = "retrying"
	JobSaved     JobStatus = "saved"
	JobFailed    JobStatus = "failed"
)

type jobRow struct {
	index     int
	influence float64
	status    JobStatus
	detail    string
	feedback  string
}

var (
	stateStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	savedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#96E6A1"))
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC857"))
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

// Progress renders a live view of one run. It quits when the run finishes
// or when the user interrupts it, in which case cancel is called.
type Progress struct {
	cancel   context.CancelFunc
	state    orchestrator.State
	planned  string
	jobs     map[int]*jobRow
	summary  string
	runErr   error
	finished bool
	width    int
}

// NewProgress creates a Progress view. cancel may be nil.
func NewProgress(cancel context.CancelFunc) *Progress {
	return &Progress{
		cancel: cancel,
		state:  orchestrator.StateIdle,
		jobs:   make(map[int]*jobRow),
		width:  80,
	}
}

// State returns the last state reported by the run.
func (p *Progress) State() orchestrator.State {
	return p.state
}

// Finished reports whether the run-done event was received.
func (p *Progress) Finished() bool {
	return p.finished
}

// Init implements tea.Model.
func (p *Progress) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (p *Progress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			if p.cancel != nil {
				p.cancel()
			}
			return p, tea.Quit
		}

	case tea.WindowSizeMsg:
		p.width = msg.Width

	case EventMsg:
		if p.apply(msg.Event) {
			return p, tea.Quit
		}
	}
	return p, nil
}

// apply folds an event into the view and reports whether the run is over.
func (p *Progress) apply(e orchestrator.Event) bool {
	switch e.Type {
	case orchestrator.EventStateChanged:
		p.state = e.State
	case orchestrator.EventJobsPlanned:
		p.planned = e.Message
	case orchestrator.EventJobStarted:
		p.row(e).status = JobRendering
	case orchestrator.EventJobRetry:
		r := p.row(e)
		r.status = JobRetrying
		r.detail = errString(e.Error)
	case orchestrator.EventJobCompleted:
		r := p.row(e)
		r.status = JobSaved
		r.detail = e.Message
	case orchestrator.EventJobFailed:
		r := p.row(e)
		r.status = JobFailed
		r.detail = errString(e.Error)
	case orchestrator.EventFeedback:
		p.row(e).feedback = e.Message
	case orchestrator.EventRunDone:
		p.finished = true
		p.summary = e.Message
		p.runErr = e.Error
		return true
	}
	return false
}

func (p *Progress) row(e orchestrator.Event) *jobRow {
	if e.Job == nil {
		return &jobRow{}
	}
	r, ok := p.jobs[e.Job.Index]
	if !ok {
		r = &jobRow{index: e.Job.Index, influence: e.Job.Influence}
		p.jobs[e.Job.Index] = r
	}
	return r
}

// View implements tea.Model.
func (p *Progress) View() string {
	var b strings.Builder

	header := stateStyle.Render(strings.ToUpper(p.state.String()))
	if p.planned != "" {
		header += detailStyle.Render("  " + p.planned)
	}
	b.WriteString(header + "\n")

	indexes := make([]int, 0, len(p.jobs))
	for i := range p.jobs {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	for _, i := range indexes {
		b.WriteString(p.renderRow(p.jobs[i]) + "\n")
	}

	if p.finished {
		if p.runErr != nil {
			b.WriteString(failedStyle.Render("✗ "+p.runErr.Error()) + "\n")
		} else {
			b.WriteString(savedStyle.Render("✓ "+p.summary) + "\n")
		}
	} else {
		b.WriteString(detailStyle.Render("q to cancel") + "\n")
	}
	return b.String()
}

func (p *Progress) renderRow(r *jobRow) string {
	var status string
	switch r.status {
	case JobSaved:
		status = savedStyle.Render(string(r.status))
	case JobFailed:
		status = failedStyle.Render(string(r.status))
	default:
		status = pendingStyle.Render(string(r.status))
	}

	line := fmt.Sprintf("  #%d  influence %.2f  %s", r.index, r.influence, status)
	if r.detail != "" {
		line += "  " + detailStyle.Render(truncate(r.detail, p.width-lipgloss.Width(line)))
	}
	if r.feedback != "" {
		line += "\n      " + detailStyle.Render("feedback: "+truncate(r.feedback, p.width-16))
	}
	return line
}

// NewProgressProgram creates a Bubbletea program rendering a Progress view
// to out.
func NewProgressProgram(cancel context.CancelFunc, out io.Writer) (*tea.Program, *Progress) {
	model := NewProgress(cancel)
	return tea.NewProgram(model, tea.WithOutput(out)), model
}

// Forward sends every event from events to p until the channel closes.
func Forward(p *tea.Program, events <-chan orchestrator.Event) {
	for e := range events {
		p.Send(EventMsg{Event: e})
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func truncate(s string, limit int) string {
	if limit < 10 {
		limit = 10
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}
