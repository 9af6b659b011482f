package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestNewInputField(t *testing.T) {
	field := NewInputField()

	if field == nil {
		t.Fatal("NewInputField returned nil")
	}
	if field.width != 80 {
		t.Errorf("Default width = %d, want 80", field.width)
	}
}

func TestInputField_SetWidth(t *testing.T) {
	field := NewInputField()

	field.SetWidth(120)

	if field.width != 120 {
		t.Errorf("Width after SetWidth(120) = %d, want 120", field.width)
	}
	if field.input.Width != 116 {
		t.Errorf("Input width = %d, want 116", field.input.Width)
	}
}

func TestInputField_Update_Enter_EmptyInput(t *testing.T) {
	field := NewInputField()
	field.input.SetValue("   ")

	_, cmd := field.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if cmd != nil {
		if _, ok := cmd().(BriefSubmittedMsg); ok {
			t.Error("Should not submit a blank brief")
		}
	}
}

func TestInputField_Update_Enter_WithInput(t *testing.T) {
	field := NewInputField()
	field.input.SetValue("  a wooden door creaking open  ")

	_, cmd := field.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("Expected command from enter with text")
	}

	submitted, ok := cmd().(BriefSubmittedMsg)
	if !ok {
		t.Fatalf("Expected BriefSubmittedMsg, got %T", cmd())
	}
	if submitted.Brief != "a wooden door creaking open" {
		t.Errorf("Brief = %q, want %q", submitted.Brief, "a wooden door creaking open")
	}
	if field.Value() != "" {
		t.Errorf("Input should be reset after submit, got %q", field.Value())
	}
}

func TestInputField_Update_Typing(t *testing.T) {
	field := NewInputField()

	for _, r := range "boom" {
		field, _ = field.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	if field.Value() != "boom" {
		t.Errorf("Value = %q, want %q", field.Value(), "boom")
	}
}
