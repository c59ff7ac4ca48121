// ABOUTME: Tests for dashboard statistics and stage counting
// ABOUTME: Checks conversion rate, time window, cumulative trend, and task breakdown
package aggregate

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/harperreed/dealflow/gateway"
	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stages = pipeline.List(models.DefaultStages())

func TestConversionRate(t *testing.T) {
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	var opps []models.Opportunity
	for i := 0; i < 10; i++ {
		status := models.StatusOpen
		if i < 3 {
			status = models.StatusWon
		}
		opps = append(opps, models.Opportunity{
			ID:        fmt.Sprintf("o%d", i),
			Stage:     "2",
			Status:    status,
			CreatedAt: now.AddDate(0, 0, -1),
		})
	}

	stats := ComputeDashboard(opps, stages, 30, now)
	assert.Equal(t, 10, stats.Total)
	assert.Equal(t, 3, stats.Won)
	assert.InDelta(t, 30.0, stats.ConversionRate, 1e-9)

	empty := ComputeDashboard(nil, stages, 30, now)
	assert.Equal(t, 0, empty.Total)
	assert.Equal(t, 0.0, empty.ConversionRate)
}

func TestClosedStageCountsAsWon(t *testing.T) {
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	opps := []models.Opportunity{
		{ID: "a", Stage: models.StageClosedID, Status: models.StatusOpen, CreatedAt: now},
		{ID: "b", Stage: "3", Status: models.StatusLost, CreatedAt: now},
		{ID: "c", Stage: "3", Status: models.StatusAbandoned, CreatedAt: now},
		{ID: "d", Stage: "3", Status: models.StatusOpen, CreatedAt: now},
	}

	stats := ComputeDashboard(opps, stages, 0, now)
	assert.Equal(t, 1, stats.Won)
	assert.Equal(t, 1, stats.Lost)
	assert.Equal(t, 1, stats.Abandoned)
	assert.Equal(t, 1, stats.Open)
	assert.InDelta(t, 25.0, stats.ConversionRate, 1e-9)
}

func TestDashboardWindowAndTrend(t *testing.T) {
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	opps := []models.Opportunity{
		{ID: "old", Value: 999, Stage: "1", CreatedAt: now.AddDate(0, 0, -40)},
		{ID: "a", Value: 100, Stage: "1", CreatedAt: time.Date(2024, 6, 20, 9, 0, 0, 0, time.UTC)},
		{ID: "b", Value: 50, Stage: "2", CreatedAt: time.Date(2024, 6, 20, 17, 0, 0, 0, time.UTC)},
		{ID: "c", Value: 25, Stage: "nope", CreatedAt: time.Date(2024, 6, 25, 8, 0, 0, 0, time.UTC)},
	}

	stats := ComputeDashboard(opps, stages, 30, now)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 175.0, stats.TotalValue)
	assert.Equal(t, []TrendPoint{
		{Date: "2024-06-20", Value: 150},
		{Date: "2024-06-25", Value: 175},
	}, stats.Trend)

	last := stats.ByStage[len(stats.ByStage)-1]
	assert.Equal(t, models.StageUnknownID, last.StageID)
	assert.Equal(t, 1, last.Count)
	assert.Equal(t, 1, stats.ByStage[0].Count)
}

func TestDashboardTaskBreakdown(t *testing.T) {
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	opps := []models.Opportunity{{
		ID:        "a",
		CreatedAt: now,
		Tasks: []models.Task{
			{Title: "done", IsCompleted: true},
			{Title: "late", DueDate: "2024-06-01"},
			{Title: "upcoming", DueDate: "2024-07-01"},
			{Title: "undated"},
		},
	}}

	stats := ComputeDashboard(opps, stages, 7, now)
	assert.Equal(t, TaskStats{Total: 4, Completed: 1, Pending: 3, Overdue: 1}, stats.Tasks)
}

func TestStoreDashboardScansEverything(t *testing.T) {
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	mem := gateway.NewMemory()
	for i := 0; i < 4; i++ {
		put(t, mem, models.Opportunity{
			ID:        fmt.Sprintf("o%d", i),
			Value:     10,
			Stage:     "1",
			Status:    models.StatusOpen,
			CreatedAt: now.AddDate(0, 0, -i),
		})
	}
	s := New(mem, WithPageSize(1), WithClock(func() time.Time { return now }))

	stats, err := s.Dashboard(context.Background(), 30, stages)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 0, s.Len(), "dashboard does not populate the cache")
}
