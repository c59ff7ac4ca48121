// ABOUTME: Pipeline summary and dashboard MCP tools
// ABOUTME: Totals come from a full scan, not from whatever pages are cached
package handlers

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/dealflow/aggregate"
)

type StageSummary struct {
	StageID string  `json:"stage_id"`
	Title   string  `json:"title"`
	Count   int     `json:"count"`
	Value   float64 `json:"total_value"`
}

type PipelineSummaryInput struct{}

type PipelineSummaryOutput struct {
	Stages []StageSummary `json:"stages"`
}

func toSummaries(counts []aggregate.StageCount) []StageSummary {
	out := make([]StageSummary, 0, len(counts))
	for _, c := range counts {
		out = append(out, StageSummary{StageID: c.StageID, Title: c.Title, Count: c.Count, Value: c.Value})
	}
	return out
}

func (h *OpportunityHandlers) PipelineSummary(ctx context.Context, _ *mcp.CallToolRequest, _ PipelineSummaryInput) (*mcp.CallToolResult, PipelineSummaryOutput, error) {
	counts, err := h.svc.RefreshStageCounts(ctx)
	if err != nil {
		return nil, PipelineSummaryOutput{}, err
	}
	return nil, PipelineSummaryOutput{Stages: toSummaries(counts)}, nil
}

type DashboardInput struct {
	Days int `json:"days,omitempty" jsonschema:"Window in days; 0 means all time"`
}

type DashboardOutput struct {
	WindowDays     int            `json:"window_days"`
	Total          int            `json:"total"`
	TotalValue     float64        `json:"total_value"`
	Won            int            `json:"won"`
	Lost           int            `json:"lost"`
	Open           int            `json:"open"`
	Abandoned      int            `json:"abandoned"`
	ConversionRate float64        `json:"conversion_rate"`
	ByStage        []StageSummary `json:"by_stage"`
	TasksTotal     int            `json:"tasks_total"`
	TasksCompleted int            `json:"tasks_completed"`
	TasksOverdue   int            `json:"tasks_overdue"`
}

func (h *OpportunityHandlers) Dashboard(ctx context.Context, _ *mcp.CallToolRequest, input DashboardInput) (*mcp.CallToolResult, DashboardOutput, error) {
	stats, err := h.svc.Dashboard(ctx, input.Days)
	if err != nil {
		return nil, DashboardOutput{}, err
	}
	return nil, DashboardOutput{
		WindowDays:     stats.WindowDays,
		Total:          stats.Total,
		TotalValue:     stats.TotalValue,
		Won:            stats.Won,
		Lost:           stats.Lost,
		Open:           stats.Open,
		Abandoned:      stats.Abandoned,
		ConversionRate: stats.ConversionRate,
		ByStage:        toSummaries(stats.ByStage),
		TasksTotal:     stats.Tasks.Total,
		TasksCompleted: stats.Tasks.Completed,
		TasksOverdue:   stats.Tasks.Overdue,
	}, nil
}
