// ABOUTME: Tests for the opportunity, task, and pipeline MCP tools
// ABOUTME: Calls handlers directly against an in-memory gateway
package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/dealflow/access"
	"github.com/harperreed/dealflow/crm"
	"github.com/harperreed/dealflow/gateway"
	"github.com/harperreed/dealflow/guard"
	"github.com/harperreed/dealflow/models"
)

func fixedNow() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }

func newHandlers(t *testing.T, gw gateway.Gateway, email string) *OpportunityHandlers {
	t.Helper()
	svc := crm.NewService(gw, crm.Options{Actor: access.NewActor("", email), Now: fixedNow})
	return NewOpportunityHandlers(svc)
}

func TestCreateAndListOpportunities(t *testing.T) {
	ctx := context.Background()
	h := newHandlers(t, gateway.NewMemory(), "me@x.com")

	_, out, err := h.CreateOpportunity(ctx, nil, CreateOpportunityInput{Name: "Acme", Value: 1200, Tags: "hot, q3", InitialNote: "met at conf"})
	require.NoError(t, err)
	assert.NotEmpty(t, out.ID)
	assert.Equal(t, "1", out.Stage)
	assert.Equal(t, "Open", out.Status)
	assert.Equal(t, []string{"hot", "q3"}, out.Tags)
	require.Len(t, out.Notes, 1)
	assert.NotEmpty(t, out.Notes[0].ID)

	_, _, err = h.CreateOpportunity(ctx, nil, CreateOpportunityInput{})
	assert.Error(t, err)
	_, _, err = h.CreateOpportunity(ctx, nil, CreateOpportunityInput{Name: "Neg", Value: -5})
	assert.ErrorIs(t, err, crm.ErrInvalidValue)

	_, list, err := h.ListOpportunities(ctx, nil, ListOpportunitiesInput{})
	require.NoError(t, err)
	require.Len(t, list.Opportunities, 1)
	assert.Equal(t, "Acme", list.Opportunities[0].Name)
	assert.Empty(t, list.NextCursor)
}

func TestMoveAndUpdateOpportunity(t *testing.T) {
	ctx := context.Background()
	h := newHandlers(t, gateway.NewMemory(), "me@x.com")
	_, created, err := h.CreateOpportunity(ctx, nil, CreateOpportunityInput{Name: "Acme"})
	require.NoError(t, err)

	_, moved, err := h.MoveOpportunity(ctx, nil, MoveOpportunityInput{ID: created.ID, Stage: "10"})
	require.NoError(t, err)
	assert.Equal(t, "Won", moved.Status)

	_, _, err = h.MoveOpportunity(ctx, nil, MoveOpportunityInput{ID: created.ID})
	assert.Error(t, err)

	_, updated, err := h.UpdateOpportunity(ctx, nil, UpdateOpportunityInput{ID: created.ID, Value: ptr(500.0), Tags: ptr("a,b")})
	require.NoError(t, err)
	assert.Equal(t, 500.0, updated.Value)
	assert.Equal(t, []string{"a", "b"}, updated.Tags)

	_, lost, err := h.UpdateOpportunity(ctx, nil, UpdateOpportunityInput{ID: created.ID, Status: ptr("lost")})
	require.NoError(t, err)
	assert.Equal(t, "Lost", lost.Status)

	_, _, err = h.UpdateOpportunity(ctx, nil, UpdateOpportunityInput{ID: created.ID, Status: ptr("maybe")})
	assert.ErrorIs(t, err, crm.ErrInvalidStatus)

	_, del, err := h.DeleteOpportunity(ctx, nil, DeleteOpportunityInput{ID: created.ID})
	require.NoError(t, err)
	assert.True(t, del.Deleted)
}

func TestTaskToolsRespectPermissions(t *testing.T) {
	ctx := context.Background()
	gw := gateway.NewMemory()
	owner := newHandlers(t, gw, "owner@x.com")
	helper := newHandlers(t, gw, "helper@x.com")

	_, opp, err := owner.CreateOpportunity(ctx, nil, CreateOpportunityInput{Name: "Acme"})
	require.NoError(t, err)
	_, task, err := owner.AddTask(ctx, nil, AddTaskInput{OpportunityID: opp.ID, Title: "Send deck", Assignee: "helper@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "owner@x.com", task.CreatedBy)

	ref := TaskRefInput{OpportunityID: opp.ID, TaskID: task.ID}
	_, toggled, err := helper.ToggleTask(ctx, nil, ref)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)

	_, _, err = helper.DeleteTask(ctx, nil, ref)
	var perr *guard.PermissionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "Send deck", perr.TaskTitle)

	_, _, err = owner.DeleteTask(ctx, nil, TaskRefInput{OpportunityID: opp.ID})
	assert.Error(t, err)

	_, del, err := owner.DeleteTask(ctx, nil, ref)
	require.NoError(t, err)
	assert.True(t, del.Deleted)
}

func TestPipelineSummaryAndDashboard(t *testing.T) {
	ctx := context.Background()
	h := newHandlers(t, gateway.NewMemory(), "me@x.com")
	for _, in := range []CreateOpportunityInput{{Name: "A", Value: 100}, {Name: "B", Value: 50, Stage: "2"}, {Name: "C", Stage: "10"}} {
		_, _, err := h.CreateOpportunity(ctx, nil, in)
		require.NoError(t, err)
	}

	_, summary, err := h.PipelineSummary(ctx, nil, PipelineSummaryInput{})
	require.NoError(t, err)
	require.NotEmpty(t, summary.Stages)
	assert.Equal(t, "1", summary.Stages[0].StageID)
	assert.Equal(t, 1, summary.Stages[0].Count)
	assert.Equal(t, 100.0, summary.Stages[0].Value)

	_, dash, err := h.Dashboard(ctx, nil, DashboardInput{})
	require.NoError(t, err)
	assert.Equal(t, 3, dash.Total)
	assert.Equal(t, 1, dash.Won)
}

func TestReadResource(t *testing.T) {
	ctx := context.Background()
	gw := gateway.NewMemory()
	svc := crm.NewService(gw, crm.Options{Actor: access.NewActor("", "me@x.com"), Now: fixedNow})
	opp, err := svc.CreateOpportunity(ctx, models.Opportunity{Name: "Acme"})
	require.NoError(t, err)

	r := NewResourceHandlers(svc)
	read := func(uri string) (*mcp.ReadResourceResult, error) {
		return r.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}})
	}

	res, err := read("dealflow://opportunities/" + opp.ID)
	require.NoError(t, err)
	assert.Contains(t, res.Contents[0].Text, "Acme")

	res, err = read("dealflow://stages")
	require.NoError(t, err)
	assert.Contains(t, res.Contents[0].Text, "New Lead")

	_, err = read("dealflow://opportunities/missing")
	assert.Error(t, err)
	_, err = read("crm://stages")
	assert.Error(t, err)
}

func TestNewServerRegisters(t *testing.T) {
	svc := crm.NewService(gateway.NewMemory(), crm.Options{})
	assert.NotNil(t, NewServer(svc, "test"))
}

func ptr[T any](v T) *T { return &v }
