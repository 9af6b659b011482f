package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestBriefPrompt_Submit(t *testing.T) {
	p := NewBriefPrompt()

	_, cmd := p.Update(BriefSubmittedMsg{Brief: "thunder rolling far away"})

	if p.Brief() != "thunder rolling far away" {
		t.Errorf("Brief = %q", p.Brief())
	}
	if cmd == nil {
		t.Fatal("Expected quit command after submit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("Expected tea.QuitMsg, got %T", cmd())
	}
	if p.View() != "" {
		t.Error("View should be empty once submitted")
	}
}

func TestBriefPrompt_Cancel(t *testing.T) {
	for _, key := range []tea.KeyMsg{{Type: tea.KeyEsc}, {Type: tea.KeyCtrlC}} {
		p := NewBriefPrompt()

		_, cmd := p.Update(key)

		if !p.Canceled() {
			t.Errorf("%s: Canceled = false, want true", key.String())
		}
		if cmd == nil {
			t.Fatalf("%s: expected quit command", key.String())
		}
	}
}

func TestBriefPrompt_View(t *testing.T) {
	p := NewBriefPrompt()
	p.Update(tea.WindowSizeMsg{Width: 100, Height: 20})

	view := p.View()
	if !strings.Contains(view, "sfxagent") {
		t.Errorf("View should contain the title, got:\n%s", view)
	}
	if p.input.width != 100 {
		t.Errorf("input width = %d, want 100", p.input.width)
	}
}
