// ABOUTME: Tests for CLI subcommands against an in-memory gateway
// ABOUTME: Captures command output in a buffer and checks both text and stored state
package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/dealflow/access"
	"github.com/harperreed/dealflow/charm"
	"github.com/harperreed/dealflow/config"
	"github.com/harperreed/dealflow/crm"
	"github.com/harperreed/dealflow/gateway"
	"github.com/harperreed/dealflow/models"
)

func newTestEnv(t *testing.T) (*Env, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	svc := crm.NewService(gateway.NewMemory(), crm.Options{
		Actor: access.NewActor("u-me", "me@x.com"),
	})
	return &Env{
		Svc:    svc,
		State:  charm.NewState(charm.NewTestClient(t)),
		Config: config.Default(),
		Out:    out,
	}, out
}

// onlyOpportunity returns the single cached opportunity.
func onlyOpportunity(t *testing.T, env *Env) models.Opportunity {
	t.Helper()
	all := env.Svc.Store().All()
	require.Len(t, all, 1)
	return all[0]
}

func TestOpportunityCommands(t *testing.T) {
	ctx := context.Background()
	env, out := newTestEnv(t)

	require.NoError(t, AddOpportunityCommand(ctx, env, []string{"--name", "Acme", "--value", "1200", "--tags", "Hot,hot"}))
	assert.Contains(t, out.String(), "✓ Opportunity created: Acme")
	assert.Contains(t, out.String(), "Stage: New Lead")
	opp := onlyOpportunity(t, env)
	assert.Equal(t, []string{"Hot"}, opp.Tags)

	out.Reset()
	require.NoError(t, ListOpportunitiesCommand(ctx, env, nil))
	assert.Contains(t, out.String(), "Acme")
	assert.Contains(t, out.String(), "$1200")

	out.Reset()
	require.NoError(t, MoveOpportunityCommand(ctx, env, []string{opp.ID, models.StageClosedID}))
	assert.Contains(t, out.String(), "(Won)")

	out.Reset()
	require.NoError(t, UpdateOpportunityCommand(ctx, env, []string{"--status", "lost", opp.ID}))
	updated, err := env.Svc.Opportunity(ctx, opp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusLost, updated.Status)
	assert.Error(t, UpdateOpportunityCommand(ctx, env, []string{"--status", "maybe", opp.ID}))

	out.Reset()
	require.NoError(t, UpdateOpportunityCommand(ctx, env, []string{"--name", "Acme Corp", opp.ID}))
	updated, err = env.Svc.Opportunity(ctx, opp.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", updated.Name)

	out.Reset()
	err = DeleteOpportunityCommand(ctx, env, []string{opp.ID, "missing"})
	assert.ErrorIs(t, err, crm.ErrOpportunityNotFound)
	assert.Contains(t, out.String(), "Deleted 1 of 2")
	assert.Zero(t, env.Svc.Store().Len())
}

func TestAddOpportunityRequiresName(t *testing.T) {
	env, _ := newTestEnv(t)
	assert.Error(t, AddOpportunityCommand(context.Background(), env, []string{"--value", "5"}))
}

func TestTaskCommands(t *testing.T) {
	ctx := context.Background()
	env, out := newTestEnv(t)
	require.NoError(t, AddOpportunityCommand(ctx, env, []string{"--name", "Acme"}))
	opp := onlyOpportunity(t, env)

	out.Reset()
	require.NoError(t, AddTaskCommand(ctx, env, []string{"--title", "Send quote", "--assignee", "bob@x.com", opp.ID}))
	assert.Contains(t, out.String(), "✓ Task added: Send quote")

	current, err := env.Svc.Opportunity(ctx, opp.ID)
	require.NoError(t, err)
	require.Len(t, current.Tasks, 1)
	taskID := current.Tasks[0].ID

	out.Reset()
	require.NoError(t, ToggleTaskCommand(ctx, env, []string{opp.ID, taskID}))

	out.Reset()
	require.NoError(t, ListTasksCommand(ctx, env, []string{opp.ID}))
	assert.Contains(t, out.String(), "[x]")
	assert.Contains(t, out.String(), "bob@x.com")

	out.Reset()
	require.NoError(t, AddNoteCommand(ctx, env, []string{opp.ID, "spoke to legal"}))
	assert.Contains(t, out.String(), "✓ Note added")

	require.NoError(t, DeleteTaskCommand(ctx, env, []string{opp.ID, taskID}))
	out.Reset()
	require.NoError(t, ListTasksCommand(ctx, env, []string{opp.ID}))
	assert.Contains(t, out.String(), "No tasks")
}

func TestStageCommands(t *testing.T) {
	ctx := context.Background()
	env, out := newTestEnv(t)

	require.NoError(t, AddStageCommand(ctx, env, []string{"--color", "#00ff00", "Renewal"}))
	require.NoError(t, RenameStageCommand(ctx, env, []string{"11", "Renewals"}))
	require.NoError(t, MoveStagePositionCommand(ctx, env, []string{"11", "0"}))

	out.Reset()
	require.NoError(t, StagesCommand(ctx, env, nil))
	assert.Contains(t, out.String(), "Renewals")

	stages, err := env.Svc.Stages(ctx)
	require.NoError(t, err)
	assert.Equal(t, "11", stages[0].ID)

	assert.Error(t, MoveStagePositionCommand(ctx, env, []string{"11", "first"}))
}

func TestFollowUpsCommand(t *testing.T) {
	ctx := context.Background()
	env, out := newTestEnv(t)
	today := time.Now().Format(models.DateLayout)

	require.NoError(t, AddOpportunityCommand(ctx, env, []string{"--name", "Due today", "--follow-up", today}))
	require.NoError(t, AddOpportunityCommand(ctx, env, []string{"--name", "No follow-up"}))

	out.Reset()
	require.NoError(t, FollowUpsCommand(ctx, env, nil))
	assert.Contains(t, out.String(), "Due today")
	assert.NotContains(t, out.String(), "No follow-up")
}

func TestDemoCommand(t *testing.T) {
	ctx := context.Background()
	env, out := newTestEnv(t)

	require.NoError(t, DemoCommand(ctx, env, []string{"on"}))
	on, err := env.State.DemoMode()
	require.NoError(t, err)
	assert.True(t, on)

	out.Reset()
	require.NoError(t, DemoCommand(ctx, env, []string{"status"}))
	assert.Contains(t, out.String(), "Demo mode: on")

	assert.Error(t, DemoCommand(ctx, env, []string{"maybe"}))
}

func TestSyncTokenCommands(t *testing.T) {
	ctx := context.Background()
	env, _ := newTestEnv(t)

	assert.Error(t, SyncSetTokenCommand(ctx, env, nil))
	require.NoError(t, SyncSetTokenCommand(ctx, env, []string{"--access-token", "abc", "--expires-in", "2h"}))

	tok, err := env.State.CalendarToken()
	require.NoError(t, err)
	require.NotNil(t, tok)
	assert.Equal(t, "abc", tok.AccessToken)

	require.NoError(t, SyncClearTokenCommand(ctx, env, nil))
	tok, err = env.State.CalendarToken()
	require.NoError(t, err)
	assert.Nil(t, tok)
}

func TestAppointmentCommands(t *testing.T) {
	ctx := context.Background()
	env, out := newTestEnv(t)

	require.NoError(t, AddAppointmentCommand(ctx, env, []string{"--title", "Kickoff", "--date", "2024-06-01", "--time", "09:30"}))
	out.Reset()
	require.NoError(t, ListAppointmentsCommand(ctx, env, []string{"--date", "2024-06-01"}))
	assert.Contains(t, out.String(), "Kickoff")

	assert.Error(t, AddAppointmentCommand(ctx, env, []string{"--title", "No time"}))
}

func TestConfigShow(t *testing.T) {
	env, out := newTestEnv(t)
	require.NoError(t, ConfigCommand(context.Background(), env, []string{"show"}))
	assert.Contains(t, out.String(), "page_size = 25")
}
