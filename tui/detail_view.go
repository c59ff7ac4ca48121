// ABOUTME: Opportunity detail view with tasks and notes
// ABOUTME: Tasks can be toggled here subject to the caller's permissions
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/dealflow/models"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(14)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	sectionStyle = lipgloss.NewStyle().Bold(true)
)

func (m Model) renderDetailView() string {
	opp, ok := m.selected()
	if !ok {
		return "Opportunity no longer exists.\n" + m.renderFooter([]string{"Esc: Back", "q: Quit"})
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render(opp.Name))
	s.WriteString("\n")

	s.WriteString(m.renderField("Stage", m.stages.Resolve(opp.Stage).Title))
	s.WriteString(m.renderField("Status", string(opp.Status)))
	s.WriteString(m.renderField("Value", fmt.Sprintf("$%.2f", opp.Value)))
	s.WriteString(m.renderField("Source", opp.Source))
	s.WriteString(m.renderField("Tags", strings.Join(opp.Tags, ", ")))
	followUp := opp.FollowUpDate
	if followUp != "" && !opp.FollowUpRead {
		followUp += " (unread)"
	}
	s.WriteString(m.renderField("Follow-up", followUp))

	s.WriteString("\n")
	s.WriteString(sectionStyle.Render("TASKS"))
	s.WriteString("\n")
	if len(opp.Tasks) == 0 {
		s.WriteString(dimStyle.Render("  none"))
		s.WriteString("\n")
	}
	for i, task := range opp.Tasks {
		box := "[ ]"
		if task.IsCompleted {
			box = "[x]"
		}
		line := fmt.Sprintf("%s %s", box, task.Title)
		if task.DueDate != "" {
			line += dimStyle.Render(" due " + task.DueDate)
		}
		if task.Assignee != "" {
			line += dimStyle.Render(" @" + task.Assignee)
		}
		if i == m.taskRow {
			s.WriteString("> " + line + "\n")
		} else {
			s.WriteString("  " + line + "\n")
		}
	}

	s.WriteString("\n")
	s.WriteString(sectionStyle.Render("NOTES"))
	s.WriteString("\n")
	for _, note := range opp.Notes {
		s.WriteString(fmt.Sprintf("  • [%s] %s\n", note.CreatedAt.Format(models.DateLayout), note.Content))
	}

	s.WriteString(m.renderFooter([]string{
		"Esc: Back",
		"↑/↓: Task",
		"x: Toggle task",
		"t: New task",
		"n: New note",
		"f: Mark follow-up read",
		"d: Delete",
		"q: Quit",
	}))
	return s.String()
}

func (m Model) renderField(label, value string) string {
	if value == "" {
		value = "-"
	}
	return fmt.Sprintf("%s %s\n",
		fieldLabelStyle.Render(label+":"),
		fieldValueStyle.Render(value))
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	opp, ok := m.selected()

	switch msg.String() {
	case "esc":
		m.viewMode = ViewBoard
		m.selectedID = ""
		m.clampRow()
	case "up", "k":
		if m.taskRow > 0 {
			m.taskRow--
		}
	case "down", "j":
		if ok && m.taskRow < len(opp.Tasks)-1 {
			m.taskRow++
		}
	case "x", " ":
		if !ok || m.taskRow >= len(opp.Tasks) {
			break
		}
		task := opp.Tasks[m.taskRow]
		return m, m.mutate(func(ctx context.Context) (string, error) {
			updated, err := m.svc.ToggleTask(ctx, opp.ID, task.ID)
			if err != nil {
				return "", err
			}
			if updated.IsCompleted {
				return "Completed " + updated.Title, nil
			}
			return "Reopened " + updated.Title, nil
		})
	case "t":
		if ok {
			return m.openInput(inputTask, "Task title"), nil
		}
	case "n":
		if ok {
			return m.openInput(inputNote, "Note"), nil
		}
	case "f":
		if ok && opp.FollowUpDate != "" && !opp.FollowUpRead {
			return m, m.mutate(func(ctx context.Context) (string, error) {
				_, err := m.svc.MarkFollowUpRead(ctx, opp.ID)
				return "Follow-up marked read", err
			})
		}
	case "d":
		if ok {
			m.viewMode = ViewConfirmDelete
			m.returnTo = ViewDetail
		}
	}

	return m, nil
}
