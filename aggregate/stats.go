// ABOUTME: Stage totals and dashboard statistics over the full opportunity set
// ABOUTME: Computed from a complete collection scan, never from loaded pages
package aggregate

import (
	"context"
	"sort"
	"time"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/pipeline"
)

// StageCount is the total count and value of opportunities in one stage.
type StageCount struct {
	StageID string
	Title   string
	Count   int
	Value   float64
}

// CountByStage buckets opps by the configured stages, in stage order.
// Opportunities on unconfigured stages land in a trailing Unknown bucket,
// which is omitted when empty.
func CountByStage(opps []models.Opportunity, stages pipeline.List) []StageCount {
	out := make([]StageCount, 0, len(stages)+1)
	index := make(map[string]int, len(stages)+1)
	for _, st := range stages {
		index[st.ID] = len(out)
		out = append(out, StageCount{StageID: st.ID, Title: st.Title})
	}
	unknown := stages.Resolve(models.StageUnknownID)
	index[unknown.ID] = len(out)
	out = append(out, StageCount{StageID: unknown.ID, Title: unknown.Title})

	for _, opp := range opps {
		i := index[stages.Bucket(opp.Stage)]
		out[i].Count++
		out[i].Value += opp.Value
	}

	if last := out[len(out)-1]; last.Count == 0 {
		out = out[:len(out)-1]
	}
	return out
}

// RefreshStageCounts rescans the whole collection. On failure the previous
// counts are kept.
func (s *Store) RefreshStageCounts(ctx context.Context, stages pipeline.List) ([]StageCount, error) {
	opps, err := s.scanAll(ctx)
	if err != nil {
		s.logger.Warn("stage count refresh failed", "err", err)
		return nil, err
	}

	counts := CountByStage(opps, stages)

	s.mu.Lock()
	s.counts = counts
	s.mu.Unlock()

	return append([]StageCount(nil), counts...), nil
}

// StageCounts returns the last refreshed counts.
func (s *Store) StageCounts() []StageCount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]StageCount(nil), s.counts...)
}

// StageCount returns the last refreshed count for one stage.
func (s *Store) StageCount(stageID string) (StageCount, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.counts {
		if c.StageID == stageID {
			return c, true
		}
	}
	return StageCount{}, false
}

type TrendPoint struct {
	Date  string
	Value float64
}

type TaskStats struct {
	Total     int
	Completed int
	Pending   int
	Overdue   int
}

type DashboardStats struct {
	WindowDays     int
	Total          int
	TotalValue     float64
	Won            int
	Lost           int
	Open           int
	Abandoned      int
	ConversionRate float64
	ByStage        []StageCount
	Trend          []TrendPoint
	Tasks          TaskStats
}

// Dashboard scans the collection and summarizes the last days days.
// A non-positive days covers all time.
func (s *Store) Dashboard(ctx context.Context, days int, stages pipeline.List) (DashboardStats, error) {
	opps, err := s.scanAll(ctx)
	if err != nil {
		return DashboardStats{}, err
	}
	return ComputeDashboard(opps, stages, days, s.now()), nil
}

// ComputeDashboard summarizes opps created within days of now.
func ComputeDashboard(opps []models.Opportunity, stages pipeline.List, days int, now time.Time) DashboardStats {
	stats := DashboardStats{WindowDays: days}

	var window []models.Opportunity
	if days > 0 {
		cutoff := now.AddDate(0, 0, -days)
		for _, opp := range opps {
			if !opp.CreatedAt.Before(cutoff) {
				window = append(window, opp)
			}
		}
	} else {
		window = append(window, opps...)
	}

	for _, opp := range window {
		stats.Total++
		stats.TotalValue += opp.Value

		switch {
		case opp.IsClosedWon():
			stats.Won++
		case opp.Status == models.StatusLost:
			stats.Lost++
		case opp.Status == models.StatusAbandoned:
			stats.Abandoned++
		default:
			stats.Open++
		}

		for _, task := range opp.Tasks {
			stats.Tasks.Total++
			switch {
			case task.IsCompleted:
				stats.Tasks.Completed++
			case task.IsOverdue(now):
				stats.Tasks.Pending++
				stats.Tasks.Overdue++
			default:
				stats.Tasks.Pending++
			}
		}
	}

	if stats.Total > 0 {
		stats.ConversionRate = float64(stats.Won) / float64(stats.Total) * 100
	}

	stats.ByStage = CountByStage(window, stages)
	stats.Trend = cumulativeTrend(window, now.Location())
	return stats
}

// cumulativeTrend emits the running value total at the end of each calendar
// day that had at least one new opportunity.
func cumulativeTrend(opps []models.Opportunity, loc *time.Location) []TrendPoint {
	sorted := append([]models.Opportunity(nil), opps...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	var trend []TrendPoint
	running := 0.0
	for _, opp := range sorted {
		running += opp.Value
		day := opp.CreatedAt.In(loc).Format(models.DateLayout)
		if n := len(trend); n > 0 && trend[n-1].Date == day {
			trend[n-1].Value = running
			continue
		}
		trend = append(trend, TrendPoint{Date: day, Value: running})
	}
	return trend
}
