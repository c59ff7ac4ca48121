// ABOUTME: Kanban board view with one column per pipeline stage
// ABOUTME: Each column pages independently and cards move between stages
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
	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)

	activeColumnStyle = columnStyle.
				BorderForeground(lipgloss.Color("170"))

	cardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	selectedCardStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("62"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// columns lists the stages shown on the board. The Unknown bucket only
// appears when some cached record points at a stage that no longer exists.
func (m Model) columns() []models.Stage {
	cols := append([]models.Stage(nil), m.stages...)
	if len(m.orphans()) > 0 {
		cols = append(cols, m.stages.Resolve(models.StageUnknownID))
	}
	return cols
}

func (m Model) orphans() []models.Opportunity {
	var out []models.Opportunity
	for _, opp := range m.svc.Store().All() {
		if !m.stages.Has(opp.Stage) {
			out = append(out, opp)
		}
	}
	return out
}

func (m Model) cards(stageID string) []models.Opportunity {
	if stageID == models.StageUnknownID {
		return m.orphans()
	}
	return m.svc.Store().Stage(stageID)
}

func (m Model) currentColumn() (models.Stage, bool) {
	cols := m.columns()
	if m.column < 0 || m.column >= len(cols) {
		return models.Stage{}, false
	}
	return cols[m.column], true
}

func (m Model) currentCard() (models.Opportunity, bool) {
	col, ok := m.currentColumn()
	if !ok {
		return models.Opportunity{}, false
	}
	cards := m.cards(col.ID)
	if m.row < 0 || m.row >= len(cards) {
		return models.Opportunity{}, false
	}
	return cards[m.row], true
}

// clampRow keeps the cursor on a card after the column shrinks.
func (m *Model) clampRow() {
	if n := len(m.columns()); m.column >= n {
		m.column = n - 1
	}
	if m.column < 0 {
		m.column = 0
	}
	col, ok := m.currentColumn()
	if !ok {
		m.row = 0
		return
	}
	if n := len(m.cards(col.ID)); m.row >= n {
		m.row = n - 1
	}
	if m.row < 0 {
		m.row = 0
	}
}

func (m Model) renderBoardView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("DEALFLOW PIPELINE"))
	s.WriteString("\n")

	cols := m.columns()
	if len(cols) == 0 {
		s.WriteString(dimStyle.Render("No stages configured."))
		s.WriteString("\n")
		s.WriteString(m.renderFooter([]string{"q: Quit"}))
		return s.String()
	}

	first, last := m.visibleColumns(len(cols))
	width := m.width/(last-first) - 4
	if width < minColumnWidth {
		width = minColumnWidth
	}

	rendered := make([]string, 0, last-first)
	for i := first; i < last; i++ {
		rendered = append(rendered, m.renderColumn(i, cols[i], width))
	}
	if first > 0 || last < len(cols) {
		s.WriteString(dimStyle.Render(fmt.Sprintf("stages %d-%d of %d", first+1, last, len(cols))))
		s.WriteString("\n")
	}
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	s.WriteString("\n")
	s.WriteString(m.renderFooter([]string{
		"←/→: Column",
		"↑/↓: Card",
		"</>: Move stage",
		"Enter: Details",
		"m: More",
		"r: Reload",
		"d: Delete",
		"q: Quit",
	}))
	return s.String()
}

const minColumnWidth = 18

// visibleColumns returns the half-open range of columns that fit the
// terminal, scrolled so the focused column is on screen.
func (m Model) visibleColumns(n int) (int, int) {
	fit := m.width / (minColumnWidth + 4)
	if fit < 1 {
		fit = 1
	}
	if fit >= n {
		return 0, n
	}
	first := m.column - fit/2
	if first < 0 {
		first = 0
	}
	if first+fit > n {
		first = n - fit
	}
	return first, first + fit
}

func (m Model) renderColumn(index int, col models.Stage, width int) string {
	cards := m.cards(col.ID)
	inner := width - 2

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(col.Color)).
		Render(truncate(col.Title, inner-5))
	count := len(cards)
	if c, ok := m.svc.Store().StageCount(col.ID); ok && c.Count > count {
		count = c.Count
	}

	lines := []string{fmt.Sprintf("%s %s", header, dimStyle.Render(fmt.Sprintf("(%d)", count)))}

	limit := m.height - 8
	if limit < 3 {
		limit = 3
	}
	for i, opp := range cards {
		if i >= limit {
			lines = append(lines, dimStyle.Render(fmt.Sprintf("… %d more", len(cards)-limit)))
			break
		}
		line := truncate(cardLabel(opp), inner)
		if index == m.column && i == m.row {
			lines = append(lines, selectedCardStyle.Width(inner).Render(line))
		} else {
			lines = append(lines, cardStyle.Render(line))
		}
	}

	st := m.svc.Store().StageStatus(col.ID)
	switch {
	case st.Loading:
		lines = append(lines, dimStyle.Render("loading…"))
	case st.HasMore:
		lines = append(lines, dimStyle.Render("more… (m)"))
	case st.Loaded && len(cards) == 0:
		lines = append(lines, dimStyle.Render("empty"))
	}

	style := columnStyle
	if index == m.column {
		style = activeColumnStyle
	}
	return style.Width(width).Render(strings.Join(lines, "\n"))
}

func cardLabel(opp models.Opportunity) string {
	label := fmt.Sprintf("%s $%.0f", opp.Name, opp.Value)
	if opp.FollowUpDate != "" && !opp.FollowUpRead {
		label = "⚑ " + label
	}
	switch opp.Status {
	case models.StatusWon:
		label += " ✓"
	case models.StatusLost:
		label += " ✗"
	}
	return label
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func (m Model) handleBoardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	col, hasCol := m.currentColumn()

	switch msg.String() {
	case "left", "h":
		if m.column > 0 {
			m.column--
			m.row = 0
		}
	case "right", "l":
		if m.column < len(m.columns())-1 {
			m.column++
			m.row = 0
		}
	case "up", "k":
		if m.row > 0 {
			m.row--
		}
	case "down", "j":
		if !hasCol {
			break
		}
		if m.row < len(m.cards(col.ID))-1 {
			m.row++
		} else if col.ID != models.StageUnknownID {
			return m, m.loadMoreStage(col.ID)
		}
	case "m":
		if hasCol && col.ID != models.StageUnknownID {
			return m, m.loadMoreStage(col.ID)
		}
	case "r":
		if hasCol && col.ID != models.StageUnknownID {
			m.row = 0
			return m, m.loadStage(col.ID)
		}
	case "<", "H":
		return m.moveCard(-1)
	case ">", "L":
		return m.moveCard(1)
	case "enter":
		if opp, ok := m.currentCard(); ok {
			m.viewMode = ViewDetail
			m.selectedID = opp.ID
			m.taskRow = 0
			m.status = ""
			m.err = nil
		}
	case "d":
		if opp, ok := m.currentCard(); ok {
			m.viewMode = ViewConfirmDelete
			m.returnTo = ViewBoard
			m.selectedID = opp.ID
		}
	}

	return m, nil
}

// moveCard shifts the selected card dir stages along the pipeline.
// Cards in the Unknown bucket move onto the first or last stage.
func (m Model) moveCard(dir int) (tea.Model, tea.Cmd) {
	opp, ok := m.currentCard()
	if !ok || len(m.stages) == 0 {
		return m, nil
	}

	var target int
	if i := m.stages.Index(opp.Stage); i >= 0 {
		target = i + dir
	} else if dir > 0 {
		target = 0
	} else {
		target = len(m.stages) - 1
	}
	if target < 0 || target >= len(m.stages) {
		return m, nil
	}

	to := m.stages[target]
	m.column = target
	m.row = 0
	return m, m.mutate(func(ctx context.Context) (string, error) {
		if _, err := m.svc.MoveStage(ctx, opp.ID, to.ID); err != nil {
			return "", err
		}
		return fmt.Sprintf("Moved %s to %s", opp.Name, to.Title), nil
	})
}
