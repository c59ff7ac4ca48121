// ABOUTME: Delete confirmation view for TUI
// ABOUTME: Removes the selected opportunity after an explicit yes
package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("203")).
			Padding(1, 3).
			Width(56).
			Align(lipgloss.Center)

	dangerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")).
			Bold(true)

	keyHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("237")).
			Padding(0, 1).
			MarginRight(1)
)

func (m Model) renderConfirmDeleteView() string {
	opp, ok := m.selected()
	if !ok {
		return "Opportunity no longer exists.\n"
	}

	body := fmt.Sprintf("\n%s ($%.0f)\n\n%d tasks and %d notes go with it.\n",
		opp.Name, opp.Value, len(opp.Tasks), len(opp.Notes))
	keys := lipgloss.JoinHorizontal(lipgloss.Left,
		keyHintStyle.Render("y delete"),
		keyHintStyle.Render("n keep"),
	)

	box := dialogStyle.Render(lipgloss.JoinVertical(lipgloss.Center, dangerStyle.Render("Delete opportunity?"), body, keys))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) handleConfirmDeleteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		opp, ok := m.selected()
		m.viewMode = ViewBoard
		m.selectedID = ""
		if !ok {
			return m, nil
		}
		return m, m.mutate(func(ctx context.Context) (string, error) {
			if err := m.svc.DeleteOpportunity(ctx, opp.ID); err != nil {
				return "", err
			}
			return "Deleted " + opp.Name, nil
		})
	case "n", "N", "esc":
		m.viewMode = m.returnTo
		if m.viewMode == ViewBoard {
			m.selectedID = ""
		}
	}
	return m, nil
}
