// ABOUTME: Tests for the task mutation guard
// ABOUTME: Covers diff classification, all-or-nothing rejection, stamping, and follow-up reset
package guard

import (
	"errors"
	"testing"

	"github.com/harperreed/dealflow/access"
	"github.com/harperreed/dealflow/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = access.NewActor("u-alice", "alice@x.com")
	bob   = access.NewActor("u-bob", "bob@x.com")
	carol = access.NewActor("u-carol", "carol@x.com")
)

func callClient() models.Task {
	return models.Task{
		ID:        "t1",
		Title:     "Call client",
		Assignee:  "bob@x.com",
		CreatedBy: "alice@x.com",
	}
}

func TestCompletionOnlyChange(t *testing.T) {
	g := New(access.DefaultPolicy)
	old := []models.Task{callClient()}
	done := callClient()
	done.IsCompleted = true
	proposed := []models.Task{done}

	assert.NoError(t, g.CheckTasks(old, proposed, bob), "assignee may complete")

	err := g.CheckTasks(old, proposed, carol)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPermissionDenied))

	var perr *PermissionError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, access.ActionToggle, perr.Action)
	assert.Equal(t, "Call client", perr.TaskTitle)
	assert.Contains(t, perr.Error(), "Call client")
}

func TestEditRequiresAuthor(t *testing.T) {
	g := New(access.DefaultPolicy)
	old := []models.Task{callClient()}
	edited := callClient()
	edited.Title = "Call client twice"
	edited.IsCompleted = true

	err := g.CheckTasks(old, []models.Task{edited}, bob)
	var perr *PermissionError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, access.ActionEdit, perr.Action)

	assert.NoError(t, g.CheckTasks(old, []models.Task{edited}, alice))
}

func TestDeletionRequiresAuthor(t *testing.T) {
	g := New(access.DefaultPolicy)
	old := []models.Task{callClient()}

	err := g.CheckTasks(old, nil, bob)
	var perr *PermissionError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, access.ActionDelete, perr.Action)
	assert.Equal(t, "t1", perr.TaskID)

	assert.NoError(t, g.CheckTasks(old, nil, alice))
}

func TestUnchangedAndNewTasksAllowed(t *testing.T) {
	g := New(access.DefaultPolicy)
	old := []models.Task{callClient()}
	proposed := []models.Task{callClient(), {ID: "t2", Title: "Send deck"}}

	assert.NoError(t, g.CheckTasks(old, proposed, carol))
}

func TestAuthorIsImmutable(t *testing.T) {
	g := New(access.DefaultPolicy)
	old := []models.Task{callClient()}
	stolen := callClient()
	stolen.CreatedBy = "carol@x.com"

	err := g.CheckTasks(old, []models.Task{stolen}, alice)
	assert.ErrorIs(t, err, ErrAuthorImmutable)
}

func TestLegacyTasksFollowPolicy(t *testing.T) {
	old := []models.Task{{ID: "l1", Title: "Legacy one"}, {ID: "l2", Title: "Legacy two"}}
	proposed := []models.Task{{ID: "l1", Title: "Legacy one", IsCompleted: true}}

	assert.NoError(t, New(access.DefaultPolicy).CheckTasks(old, proposed, carol))

	err := New(access.Policy{Legacy: access.LegacyDeny}).CheckTasks(old, proposed, carol)
	var perr *PermissionError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, access.ActionDelete, perr.Action)
	assert.Equal(t, "Legacy two", perr.TaskTitle)
}

func TestIdlessTasksMatchedInPlace(t *testing.T) {
	g := New(access.DefaultPolicy)
	old := []models.Task{{Title: "Old one"}, {Title: "Old two"}}

	toggled := []models.Task{{Title: "Old one", IsCompleted: true}, {Title: "Old two"}}
	assert.NoError(t, g.CheckTasks(old, toggled, carol))

	withNew := []models.Task{{Title: "Fresh", CreatedBy: "carol@x.com"}, {Title: "Old one"}, {Title: "Old two"}}
	assert.ErrorIs(t, g.CheckTasks(old, withNew, carol), ErrAmbiguousTasks)

	dropped := []models.Task{{Title: "Old two"}}
	assert.ErrorIs(t, g.CheckTasks(old, dropped, carol), ErrAmbiguousTasks)

	appended := append(append([]models.Task(nil), old...), models.Task{ID: "n1", Title: "Fresh"})
	prepared, err := g.Prepare(models.Opportunity{Tasks: old}, models.OpportunityUpdate{Tasks: &appended}, carol)
	require.NoError(t, err)
	tasks := *prepared.Tasks
	assert.Empty(t, tasks[0].CreatedBy, "existing task keeps its missing author")
	assert.Empty(t, tasks[1].CreatedBy)
	assert.Equal(t, "carol@x.com", tasks[2].CreatedBy)
}

func TestPrepareRejectsWholeUpdate(t *testing.T) {
	g := New(access.DefaultPolicy)
	current := models.Opportunity{ID: "o1", Name: "Deal", Tasks: []models.Task{callClient()}}
	update := models.OpportunityUpdate{
		Name:  models.Ptr("Renamed deal"),
		Tasks: models.Ptr([]models.Task{}),
	}

	prepared, err := g.Prepare(current, update, carol)
	require.Error(t, err)
	assert.True(t, prepared.IsEmpty(), "no fields survive a rejected update")
}

func TestPrepareStampsNewTasks(t *testing.T) {
	g := New(access.DefaultPolicy)
	current := models.Opportunity{Tasks: []models.Task{callClient()}}
	update := models.OpportunityUpdate{
		Tasks: models.Ptr([]models.Task{
			callClient(),
			{Title: "Draft proposal", Assignee: "carol@x.com", CreatedBy: "mallory@x.com"},
		}),
	}

	prepared, err := g.Prepare(current, update, bob)
	require.NoError(t, err)

	tasks := *prepared.Tasks
	require.Len(t, tasks, 2)
	assert.Equal(t, callClient(), tasks[0])
	assert.NotEmpty(t, tasks[1].ID)
	assert.Equal(t, "bob@x.com", tasks[1].CreatedBy)
	assert.Equal(t, "bob@x.com", tasks[1].AssignedBy)
}

func TestPrepareAnonymousCannotClaimAuthor(t *testing.T) {
	g := New(access.DefaultPolicy)
	update := models.OpportunityUpdate{
		Tasks: models.Ptr([]models.Task{
			{Title: "Forged", CreatedBy: "alice@x.com", Assignee: "bob@x.com", AssignedBy: "alice@x.com"},
		}),
	}

	prepared, err := g.Prepare(models.Opportunity{}, update, access.Actor{})
	require.NoError(t, err)
	task := (*prepared.Tasks)[0]
	assert.NotEmpty(t, task.ID)
	assert.Empty(t, task.CreatedBy)
	assert.Empty(t, task.AssignedBy)
}

func TestPrepareStampsReassignment(t *testing.T) {
	g := New(access.DefaultPolicy)
	current := models.Opportunity{Tasks: []models.Task{callClient()}}
	reassigned := callClient()
	reassigned.Assignee = "carol@x.com"

	prepared, err := g.Prepare(current, models.OpportunityUpdate{Tasks: models.Ptr([]models.Task{reassigned})}, alice)
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", (*prepared.Tasks)[0].AssignedBy)
}

func TestPrepareResetsFollowUpRead(t *testing.T) {
	g := New(access.DefaultPolicy)
	current := models.Opportunity{FollowUpDate: "2024-06-01", FollowUpRead: true}

	for _, date := range []string{"2024-06-01", "2024-07-01"} {
		update := models.OpportunityUpdate{FollowUpDate: models.Ptr(date), FollowUpRead: models.Ptr(true)}
		prepared, err := g.Prepare(current, update, carol)
		require.NoError(t, err)
		require.NotNil(t, prepared.FollowUpRead)
		assert.False(t, *prepared.FollowUpRead, "date %s", date)
	}
}

func TestPrepareDoesNotMutateInput(t *testing.T) {
	g := New(access.DefaultPolicy)
	proposed := []models.Task{{Title: "New"}}

	_, err := g.Prepare(models.Opportunity{}, models.OpportunityUpdate{Tasks: &proposed}, alice)
	require.NoError(t, err)
	assert.Empty(t, proposed[0].ID)
	assert.Empty(t, proposed[0].CreatedBy)
}
