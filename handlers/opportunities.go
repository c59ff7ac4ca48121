// ABOUTME: Opportunity MCP tool handlers
// ABOUTME: Implements list, create, update, move, delete, and add_note tools over crm.Service
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/dealflow/crm"
	"github.com/harperreed/dealflow/models"
)

type OpportunityHandlers struct {
	svc *crm.Service
}

func NewOpportunityHandlers(svc *crm.Service) *OpportunityHandlers {
	return &OpportunityHandlers{svc: svc}
}

type TaskOutput struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Completed   bool   `json:"completed"`
	DueDate     string `json:"due_date,omitempty"`
	Assignee    string `json:"assignee,omitempty"`
	CreatedBy   string `json:"created_by,omitempty"`
}

type NoteOutput struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

type OpportunityOutput struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Value        float64      `json:"value"`
	Stage        string       `json:"stage"`
	Status       string       `json:"status"`
	ContactID    string       `json:"contact_id,omitempty"`
	Tags         []string     `json:"tags,omitempty"`
	FollowUpDate string       `json:"follow_up_date,omitempty"`
	FollowUpRead bool         `json:"follow_up_read"`
	Tasks        []TaskOutput `json:"tasks,omitempty"`
	Notes        []NoteOutput `json:"notes,omitempty"`
	CreatedAt    string       `json:"created_at"`
	UpdatedAt    string       `json:"updated_at"`
}

func taskToOutput(t models.Task) TaskOutput {
	return TaskOutput{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.IsCompleted,
		DueDate:     t.DueDate,
		Assignee:    t.Assignee,
		CreatedBy:   t.CreatedBy,
	}
}

func opportunityToOutput(o models.Opportunity) OpportunityOutput {
	out := OpportunityOutput{
		ID:           o.ID,
		Name:         o.Name,
		Value:        o.Value,
		Stage:        o.Stage,
		Status:       string(o.Status),
		ContactID:    o.ContactID,
		Tags:         o.Tags,
		FollowUpDate: o.FollowUpDate,
		FollowUpRead: o.FollowUpRead,
		CreatedAt:    o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    o.UpdatedAt.Format(time.RFC3339),
	}
	for _, t := range o.Tasks {
		out.Tasks = append(out.Tasks, taskToOutput(t))
	}
	for _, n := range o.Notes {
		out.Notes = append(out.Notes, NoteOutput{ID: n.ID, Content: n.Content, CreatedAt: n.CreatedAt.Format(time.RFC3339)})
	}
	return out
}

type ListOpportunitiesInput struct {
	Stage  string `json:"stage,omitempty" jsonschema:"Only opportunities on this stage id"`
	Cursor string `json:"cursor,omitempty" jsonschema:"Cursor from a previous call's next_cursor"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Page size (default 25)"`
}

type ListOpportunitiesOutput struct {
	Opportunities []OpportunityOutput `json:"opportunities"`
	NextCursor    string              `json:"next_cursor,omitempty"`
}

func (h *OpportunityHandlers) ListOpportunities(ctx context.Context, _ *mcp.CallToolRequest, input ListOpportunitiesInput) (*mcp.CallToolResult, ListOpportunitiesOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 25
	}
	opps, next, err := h.svc.ListOpportunities(ctx, input.Stage, input.Cursor, limit)
	if err != nil {
		return nil, ListOpportunitiesOutput{}, err
	}

	out := ListOpportunitiesOutput{Opportunities: make([]OpportunityOutput, 0, len(opps)), NextCursor: next}
	for _, o := range opps {
		out.Opportunities = append(out.Opportunities, opportunityToOutput(o))
	}
	return nil, out, nil
}

type CreateOpportunityInput struct {
	Name         string  `json:"name" jsonschema:"Opportunity name (required)"`
	Value        float64 `json:"value,omitempty" jsonschema:"Monetary value, not negative"`
	Stage        string  `json:"stage,omitempty" jsonschema:"Stage id (default: first stage)"`
	ContactID    string  `json:"contact_id,omitempty" jsonschema:"Linked contact id"`
	Tags         string  `json:"tags,omitempty" jsonschema:"Comma-separated tags"`
	FollowUpDate string  `json:"follow_up_date,omitempty" jsonschema:"Follow-up date YYYY-MM-DD"`
	InitialNote  string  `json:"initial_note,omitempty" jsonschema:"Initial note"`
}

func (h *OpportunityHandlers) CreateOpportunity(ctx context.Context, _ *mcp.CallToolRequest, input CreateOpportunityInput) (*mcp.CallToolResult, OpportunityOutput, error) {
	if input.Name == "" {
		return nil, OpportunityOutput{}, fmt.Errorf("name is required")
	}

	opp := models.Opportunity{
		Name:         input.Name,
		Value:        input.Value,
		Stage:        input.Stage,
		ContactID:    input.ContactID,
		Tags:         models.ParseTags(input.Tags),
		FollowUpDate: input.FollowUpDate,
		Source:       "mcp",
	}
	if input.InitialNote != "" {
		opp.Notes = []models.Note{{Content: input.InitialNote}}
	}

	created, err := h.svc.CreateOpportunity(ctx, opp)
	if err != nil {
		return nil, OpportunityOutput{}, err
	}
	return nil, opportunityToOutput(created), nil
}

type UpdateOpportunityInput struct {
	ID           string   `json:"id" jsonschema:"Opportunity id (required)"`
	Name         *string  `json:"name,omitempty" jsonschema:"New name"`
	Value        *float64 `json:"value,omitempty" jsonschema:"New value"`
	Status       *string  `json:"status,omitempty" jsonschema:"open, won, lost, or abandoned"`
	ContactID    *string  `json:"contact_id,omitempty" jsonschema:"New contact id"`
	Tags         *string  `json:"tags,omitempty" jsonschema:"Comma-separated tags, replacing the current ones"`
	FollowUpDate *string  `json:"follow_up_date,omitempty" jsonschema:"Follow-up date YYYY-MM-DD"`
}

func (h *OpportunityHandlers) UpdateOpportunity(ctx context.Context, _ *mcp.CallToolRequest, input UpdateOpportunityInput) (*mcp.CallToolResult, OpportunityOutput, error) {
	if input.ID == "" {
		return nil, OpportunityOutput{}, fmt.Errorf("id is required")
	}

	update := models.OpportunityUpdate{
		Name:         input.Name,
		Value:        input.Value,
		ContactID:    input.ContactID,
		FollowUpDate: input.FollowUpDate,
	}
	if input.Status != nil {
		update.Status = models.Ptr(models.ParseStatus(*input.Status))
	}
	if input.Tags != nil {
		update.Tags = models.Ptr(models.ParseTags(*input.Tags))
	}

	updated, err := h.svc.UpdateOpportunity(ctx, input.ID, update)
	if err != nil {
		return nil, OpportunityOutput{}, err
	}
	return nil, opportunityToOutput(updated), nil
}

type MoveOpportunityInput struct {
	ID    string `json:"id" jsonschema:"Opportunity id (required)"`
	Stage string `json:"stage" jsonschema:"Target stage id (required)"`
}

func (h *OpportunityHandlers) MoveOpportunity(ctx context.Context, _ *mcp.CallToolRequest, input MoveOpportunityInput) (*mcp.CallToolResult, OpportunityOutput, error) {
	if input.ID == "" || input.Stage == "" {
		return nil, OpportunityOutput{}, fmt.Errorf("id and stage are required")
	}
	moved, err := h.svc.MoveStage(ctx, input.ID, input.Stage)
	if err != nil {
		return nil, OpportunityOutput{}, err
	}
	return nil, opportunityToOutput(moved), nil
}

type DeleteOpportunityInput struct {
	ID string `json:"id" jsonschema:"Opportunity id (required)"`
}

type DeleteOutput struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

func (h *OpportunityHandlers) DeleteOpportunity(ctx context.Context, _ *mcp.CallToolRequest, input DeleteOpportunityInput) (*mcp.CallToolResult, DeleteOutput, error) {
	if input.ID == "" {
		return nil, DeleteOutput{}, fmt.Errorf("id is required")
	}
	if err := h.svc.DeleteOpportunity(ctx, input.ID); err != nil {
		return nil, DeleteOutput{}, err
	}
	return nil, DeleteOutput{Deleted: true, ID: input.ID}, nil
}

type AddNoteInput struct {
	ID      string `json:"id" jsonschema:"Opportunity id (required)"`
	Content string `json:"content" jsonschema:"Note text (required)"`
}

func (h *OpportunityHandlers) AddNote(ctx context.Context, _ *mcp.CallToolRequest, input AddNoteInput) (*mcp.CallToolResult, NoteOutput, error) {
	note, err := h.svc.AddNote(ctx, input.ID, input.Content)
	if err != nil {
		return nil, NoteOutput{}, err
	}
	return nil, NoteOutput{ID: note.ID, Content: note.Content, CreatedAt: note.CreatedAt.Format(time.RFC3339)}, nil
}
