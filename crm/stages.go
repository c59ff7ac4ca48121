// ABOUTME: Stage list configuration operations
// ABOUTME: Edits go through the pipeline store and refresh stage totals afterwards
package crm

import (
	"context"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/pipeline"
)

func (s *Service) Stages(ctx context.Context) (pipeline.List, error) {
	return s.stages.Load(ctx)
}

func (s *Service) editStages(ctx context.Context, fn func(pipeline.List) (pipeline.List, error)) (pipeline.List, error) {
	stages, err := s.stages.Edit(ctx, fn)
	if err != nil {
		return nil, err
	}
	s.refreshCounts(ctx, stages)
	return stages, nil
}

func (s *Service) AddStage(ctx context.Context, title, color string) (models.Stage, error) {
	var added models.Stage
	_, err := s.editStages(ctx, func(l pipeline.List) (pipeline.List, error) {
		next, stage, err := l.Add(title, color)
		added = stage
		return next, err
	})
	return added, err
}

// RemoveStage drops a stage. Opportunities still on it count as Unknown.
func (s *Service) RemoveStage(ctx context.Context, id string) (pipeline.List, error) {
	return s.editStages(ctx, func(l pipeline.List) (pipeline.List, error) { return l.Remove(id) })
}

func (s *Service) RenameStage(ctx context.Context, id, title string) (pipeline.List, error) {
	return s.editStages(ctx, func(l pipeline.List) (pipeline.List, error) { return l.Rename(id, title) })
}

func (s *Service) RecolorStage(ctx context.Context, id, color string) (pipeline.List, error) {
	return s.editStages(ctx, func(l pipeline.List) (pipeline.List, error) { return l.Recolor(id, color) })
}

func (s *Service) ReorderStage(ctx context.Context, id string, position int) (pipeline.List, error) {
	return s.editStages(ctx, func(l pipeline.List) (pipeline.List, error) { return l.Reorder(id, position) })
}
