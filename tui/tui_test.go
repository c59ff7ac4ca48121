// ABOUTME: Tests for the pipeline board model
// ABOUTME: Drives key messages against demo data in an in-memory gateway
package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/dealflow/access"
	"github.com/harperreed/dealflow/crm"
	"github.com/harperreed/dealflow/gateway"
	"github.com/harperreed/dealflow/models"
)

var now = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func newBoard(t *testing.T) Model {
	t.Helper()
	ctx := context.Background()
	gw := gateway.NewMemory()
	require.NoError(t, crm.SeedDemo(ctx, gw, now))

	svc := crm.NewService(gw, crm.Options{
		Actor: access.NewActor("demo", crm.DemoActor),
		Now:   func() time.Time { return now },
	})
	m, err := NewModel(ctx, svc)
	require.NoError(t, err)

	for _, st := range m.stages {
		m = step(t, m, m.loadStage(st.ID)())
	}
	return m
}

func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// press sends a key and runs any command it returns, feeding the result back in.
func press(t *testing.T, m Model, key tea.KeyMsg) Model {
	t.Helper()
	next, cmd := m.Update(key)
	m = next.(Model)
	if cmd != nil {
		m = step(t, m, cmd())
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBoardRendersStageColumns(t *testing.T) {
	m := newBoard(t)
	view := m.View()

	assert.Contains(t, view, "DEALFLOW PIPELINE")
	assert.Contains(t, view, "stages 1-5 of 10")
	assert.Contains(t, view, "New Lead")
	assert.Contains(t, view, "Enigma audit")
	assert.True(t, m.svc.Store().StageStatus("1").Loaded)
}

func TestMoveCardToNextStage(t *testing.T) {
	m := newBoard(t)
	opp, ok := m.currentCard()
	require.True(t, ok)
	require.Equal(t, "Enigma audit", opp.Name)

	m = press(t, m, runes(">"))
	require.NoError(t, m.err)

	moved, ok := m.svc.Store().Get(opp.ID)
	require.True(t, ok)
	assert.Equal(t, "2", moved.Stage)
	assert.Equal(t, 1, m.column)
	assert.Contains(t, m.status, "Moved Enigma audit")
}

func TestMoveCardOffEndIsIgnored(t *testing.T) {
	m := newBoard(t)
	m = press(t, m, runes("<"))

	opp, ok := m.currentCard()
	require.True(t, ok)
	assert.Equal(t, "1", opp.Stage)
	assert.Equal(t, 0, m.column)
}

func TestDetailTogglesTask(t *testing.T) {
	m := newBoard(t)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, ViewDetail, m.viewMode)
	assert.Contains(t, m.View(), "Send proposal")

	m = press(t, m, runes("x"))
	require.NoError(t, m.err)

	opp, ok := m.selected()
	require.True(t, ok)
	i := opp.FindTask("demo-task-6-1")
	require.GreaterOrEqual(t, i, 0)
	assert.True(t, opp.Tasks[i].IsCompleted)
}

func TestInputAddsNote(t *testing.T) {
	m := newBoard(t)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = press(t, m, runes("n"))
	require.Equal(t, ViewInput, m.viewMode)

	// Typing only; the input's blink commands are not run.
	for _, r := range "call back friday" {
		m = step(t, m, runes(string(r)))
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NoError(t, m.err)
	assert.Equal(t, ViewDetail, m.viewMode)

	opp, _ := m.selected()
	last := opp.Notes[len(opp.Notes)-1]
	assert.Equal(t, "call back friday", last.Content)
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	m := newBoard(t)
	opp, _ := m.currentCard()

	m = press(t, m, runes("d"))
	require.Equal(t, ViewConfirmDelete, m.viewMode)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewBoard, m.viewMode)
	_, ok := m.svc.Store().Get(opp.ID)
	assert.True(t, ok)

	m = press(t, m, runes("d"))
	m = press(t, m, runes("y"))
	require.NoError(t, m.err)
	_, ok = m.svc.Store().Get(opp.ID)
	assert.False(t, ok)
	for _, col := range m.columns() {
		for _, card := range m.cards(col.ID) {
			assert.NotEqual(t, opp.ID, card.ID, "card still on %s", col.Title)
		}
	}
	assert.Contains(t, m.View(), "Deleted "+opp.Name)
}

func TestUnknownStageColumnAppears(t *testing.T) {
	m := newBoard(t)
	m.svc.Store().Apply(models.Opportunity{ID: "stray", Name: "Stray deal", Stage: "99", Status: models.StatusOpen})

	cols := m.columns()
	assert.Equal(t, models.StageUnknownID, cols[len(cols)-1].ID)

	m.column = len(cols) - 1
	assert.Contains(t, m.View(), "Stray deal")
}
