// ABOUTME: Terminal pipeline board built on bubbletea
// ABOUTME: Loads each stage column independently and routes keys to the active view
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/dealflow/crm"
	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/pipeline"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewBoard ViewMode = iota
	ViewDetail
	ViewInput
	ViewConfirmDelete
)

// inputKind says what the text input is collecting.
type inputKind int

const (
	inputTask inputKind = iota
	inputNote
)

// Model is the main bubbletea model
type Model struct {
	ctx      context.Context
	svc      *crm.Service
	viewMode ViewMode

	stages pipeline.List
	column int
	row    int

	// Detail view state
	selectedID string
	taskRow    int
	// returnTo is where a cancelled delete goes back to.
	returnTo   ViewMode

	// Input view state
	input     textinput.Model
	inputKind inputKind

	status string
	width  int
	height int
	err    error
}

// NewModel creates a board over svc. Stages are read once at start.
func NewModel(ctx context.Context, svc *crm.Service) (Model, error) {
	stages, err := svc.Stages(ctx)
	if err != nil {
		return Model{}, err
	}
	ti := textinput.New()
	ti.CharLimit = 200
	return Model{
		ctx:      ctx,
		svc:      svc,
		viewMode: ViewBoard,
		stages:   stages,
		input:    ti,
		width:    120,
		height:   30,
	}, nil
}

// stageLoadedMsg reports the end of a first-page or load-more fetch.
type stageLoadedMsg struct {
	stageID string
	err     error
}

// mutatedMsg reports the result of a write. The store is already updated.
type mutatedMsg struct {
	status string
	err    error
}

// RefreshMsg redraws the board after the cache changed outside the model.
type RefreshMsg struct{}

func (m Model) loadStage(stageID string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.svc.Store().LoadStage(m.ctx, stageID)
		return stageLoadedMsg{stageID: stageID, err: err}
	}
}

func (m Model) loadMoreStage(stageID string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.svc.Store().LoadMoreStage(m.ctx, stageID)
		return stageLoadedMsg{stageID: stageID, err: err}
	}
}

func (m Model) mutate(fn func(ctx context.Context) (string, error)) tea.Cmd {
	return func() tea.Msg {
		status, err := fn(m.ctx)
		return mutatedMsg{status: status, err: err}
	}
}

func (m Model) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(m.stages))
	for _, st := range m.stages {
		cmds = append(cmds, m.loadStage(st.ID))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case stageLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
		}
		m.clampRow()
		return m, nil
	case RefreshMsg:
		m.clampRow()
		return m, nil
	case mutatedMsg:
		m.err = msg.err
		if msg.err == nil {
			m.status = msg.status
		}
		m.clampRow()
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewBoard:
		return m.renderBoardView()
	case ViewDetail:
		return m.renderDetailView()
	case ViewInput:
		return m.renderInputView()
	case ViewConfirmDelete:
		return m.renderConfirmDeleteView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.viewMode != ViewInput && msg.String() == "q" {
		return m, tea.Quit
	}

	// Delegate to view-specific handlers
	switch m.viewMode {
	case ViewBoard:
		return m.handleBoardKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewInput:
		return m.handleInputKeys(msg)
	case ViewConfirmDelete:
		return m.handleConfirmDeleteKeys(msg)
	}

	return m, nil
}

// selected returns the current opportunity in detail views.
func (m Model) selected() (models.Opportunity, bool) {
	if m.selectedID == "" {
		return models.Opportunity{}, false
	}
	return m.svc.Store().Get(m.selectedID)
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))
)

func (m Model) renderFooter(help []string) string {
	var out string
	if m.err != nil {
		out = errorStyle.Render("Error: "+m.err.Error()) + "\n"
	} else if m.status != "" {
		out = statusStyle.Render(m.status) + "\n"
	}
	return out + helpStyle.Render(strings.Join(help, " • "))
}
