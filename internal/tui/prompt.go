package tui

import (
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrCanceled is returned by PromptBrief when the user quits without
// submitting.
var ErrCanceled = errors.New("prompt canceled")

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4")).
			Bold(true)
	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)
)

// BriefPrompt is a single-line prompt that quits once a brief is submitted.
type BriefPrompt struct {
	input    *InputField
	brief    string
	canceled bool
}

// NewBriefPrompt creates a new BriefPrompt.
func NewBriefPrompt() *BriefPrompt {
	return &BriefPrompt{input: NewInputField()}
}

// Brief returns the submitted brief, or "" if none was submitted.
func (p *BriefPrompt) Brief() string {
	return p.brief
}

// Canceled reports whether the user quit without submitting.
func (p *BriefPrompt) Canceled() bool {
	return p.canceled
}

// Init implements tea.Model.
func (p *BriefPrompt) Init() tea.Cmd {
	return p.input.Focus()
}

// Update implements tea.Model.
func (p *BriefPrompt) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			p.canceled = true
			return p, tea.Quit
		}

	case tea.WindowSizeMsg:
		p.input.SetWidth(msg.Width)
		return p, nil

	case BriefSubmittedMsg:
		p.brief = msg.Brief
		return p, tea.Quit
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

// View implements tea.Model.
func (p *BriefPrompt) View() string {
	if p.brief != "" || p.canceled {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("sfxagent"),
		hintStyle.Render("What should it sound like? (Esc to quit)"),
		p.input.View(),
	)
}

// PromptBrief runs a BriefPrompt on in and out and returns the brief.
func PromptBrief(in io.Reader, out io.Writer) (string, error) {
	model := NewBriefPrompt()
	if _, err := tea.NewProgram(model, tea.WithInput(in), tea.WithOutput(out)).Run(); err != nil {
		return "", fmt.Errorf("run prompt: %w", err)
	}
	if model.Canceled() || model.Brief() == "" {
		return "", ErrCanceled
	}
	return model.Brief(), nil
}
