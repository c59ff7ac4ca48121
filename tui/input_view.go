// ABOUTME: Single-line text entry for new tasks and notes
// ABOUTME: Submits through the service so permission and validation rules apply
package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/dealflow/models"
)

func (m Model) openInput(kind inputKind, placeholder string) Model {
	m.viewMode = ViewInput
	m.inputKind = kind
	m.input.Reset()
	m.input.Placeholder = placeholder
	m.input.Focus()
	return m
}

func (m Model) renderInputView() string {
	var s strings.Builder

	if m.inputKind == inputTask {
		s.WriteString(titleStyle.Render("NEW TASK"))
	} else {
		s.WriteString(titleStyle.Render("NEW NOTE"))
	}
	s.WriteString("\n")
	s.WriteString("> ")
	s.WriteString(m.input.View())
	s.WriteString("\n")
	s.WriteString(m.renderFooter([]string{"Enter: Save", "Esc: Cancel"}))
	return s.String()
}

func (m Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.input.Blur()
		m.viewMode = ViewDetail
		return m, nil
	case "enter":
		text := strings.TrimSpace(m.input.Value())
		m.input.Blur()
		m.viewMode = ViewDetail
		if text == "" {
			return m, nil
		}
		oppID, kind := m.selectedID, m.inputKind
		return m, m.mutate(func(ctx context.Context) (string, error) {
			if kind == inputTask {
				if _, err := m.svc.AddTask(ctx, oppID, models.Task{Title: text}); err != nil {
					return "", err
				}
				return "Task added", nil
			}
			if _, err := m.svc.AddNote(ctx, oppID, text); err != nil {
				return "", err
			}
			return "Note added", nil
		})
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}
