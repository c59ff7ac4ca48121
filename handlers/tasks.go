// ABOUTME: Task MCP tool handlers
// ABOUTME: Permission failures surface as tool errors naming the task and action
package handlers

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/dealflow/models"
)

type AddTaskInput struct {
	OpportunityID string `json:"opportunity_id" jsonschema:"Opportunity id (required)"`
	Title         string `json:"title" jsonschema:"Task title (required)"`
	Description   string `json:"description,omitempty" jsonschema:"Task details"`
	DueDate       string `json:"due_date,omitempty" jsonschema:"Due date YYYY-MM-DD"`
	DueTime       string `json:"due_time,omitempty" jsonschema:"Due time HH:MM"`
	Assignee      string `json:"assignee,omitempty" jsonschema:"Assignee email or user id"`
}

func (h *OpportunityHandlers) AddTask(ctx context.Context, _ *mcp.CallToolRequest, input AddTaskInput) (*mcp.CallToolResult, TaskOutput, error) {
	if input.OpportunityID == "" {
		return nil, TaskOutput{}, fmt.Errorf("opportunity_id is required")
	}
	task, err := h.svc.AddTask(ctx, input.OpportunityID, models.Task{
		Title:       input.Title,
		Description: input.Description,
		DueDate:     input.DueDate,
		DueTime:     input.DueTime,
		Assignee:    input.Assignee,
	})
	if err != nil {
		return nil, TaskOutput{}, err
	}
	return nil, taskToOutput(task), nil
}

type TaskRefInput struct {
	OpportunityID string `json:"opportunity_id" jsonschema:"Opportunity id (required)"`
	TaskID        string `json:"task_id" jsonschema:"Task id (required)"`
}

func (in TaskRefInput) validate() error {
	if in.OpportunityID == "" || in.TaskID == "" {
		return fmt.Errorf("opportunity_id and task_id are required")
	}
	return nil
}

func (h *OpportunityHandlers) ToggleTask(ctx context.Context, _ *mcp.CallToolRequest, input TaskRefInput) (*mcp.CallToolResult, TaskOutput, error) {
	if err := input.validate(); err != nil {
		return nil, TaskOutput{}, err
	}
	task, err := h.svc.ToggleTask(ctx, input.OpportunityID, input.TaskID)
	if err != nil {
		return nil, TaskOutput{}, err
	}
	return nil, taskToOutput(task), nil
}

func (h *OpportunityHandlers) DeleteTask(ctx context.Context, _ *mcp.CallToolRequest, input TaskRefInput) (*mcp.CallToolResult, DeleteOutput, error) {
	if err := input.validate(); err != nil {
		return nil, DeleteOutput{}, err
	}
	if err := h.svc.DeleteTask(ctx, input.OpportunityID, input.TaskID); err != nil {
		return nil, DeleteOutput{}, err
	}
	return nil, DeleteOutput{Deleted: true, ID: input.TaskID}, nil
}
