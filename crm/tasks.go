// ABOUTME: Task and note operations on an opportunity's embedded lists
// ABOUTME: Each builds a full task list and routes it through the guarded update path
package crm

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/dealflow/models"
)

// TaskEdit lists the task fields to change; nil fields are kept.
type TaskEdit struct {
	Title       *string
	Description *string
	DueDate     *string
	DueTime     *string
	Recurring   *bool
	Assignee    *string
}

func (e TaskEdit) applyTo(t *models.Task) {
	if e.Title != nil {
		t.Title = strings.TrimSpace(*e.Title)
	}
	if e.Description != nil {
		t.Description = *e.Description
	}
	if e.DueDate != nil {
		t.DueDate = *e.DueDate
	}
	if e.DueTime != nil {
		t.DueTime = *e.DueTime
	}
	if e.Recurring != nil {
		t.Recurring = *e.Recurring
	}
	if e.Assignee != nil {
		t.Assignee = strings.TrimSpace(*e.Assignee)
	}
}

func (s *Service) findTask(ctx context.Context, oppID, taskID string) (models.Opportunity, int, error) {
	opp, err := s.Opportunity(ctx, oppID)
	if err != nil {
		return models.Opportunity{}, -1, err
	}
	i := opp.FindTask(taskID)
	if i < 0 {
		return models.Opportunity{}, -1, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	return opp, i, nil
}

// AddTask appends a task authored by the service's actor.
func (s *Service) AddTask(ctx context.Context, oppID string, task models.Task) (models.Task, error) {
	task.Title = strings.TrimSpace(task.Title)
	if task.Title == "" {
		return models.Task{}, fmt.Errorf("task title is required")
	}
	if err := validateDate(task.DueDate); err != nil {
		return models.Task{}, err
	}

	opp, err := s.Opportunity(ctx, oppID)
	if err != nil {
		return models.Task{}, err
	}

	task.ID = models.NewID()
	task.CreatedBy = ""
	task.AssignedBy = ""
	tasks := append(append([]models.Task(nil), opp.Tasks...), task)

	updated, err := s.UpdateOpportunity(ctx, oppID, models.OpportunityUpdate{Tasks: &tasks})
	if err != nil {
		return models.Task{}, err
	}
	return updated.Tasks[len(updated.Tasks)-1], nil
}

func (s *Service) EditTask(ctx context.Context, oppID, taskID string, edit TaskEdit) (models.Task, error) {
	if edit.DueDate != nil {
		if err := validateDate(*edit.DueDate); err != nil {
			return models.Task{}, err
		}
	}

	opp, i, err := s.findTask(ctx, oppID, taskID)
	if err != nil {
		return models.Task{}, err
	}

	tasks := append([]models.Task(nil), opp.Tasks...)
	edit.applyTo(&tasks[i])

	updated, err := s.UpdateOpportunity(ctx, oppID, models.OpportunityUpdate{Tasks: &tasks})
	if err != nil {
		return models.Task{}, err
	}
	return updated.Tasks[i], nil
}

// ToggleTask flips completion. Assignees may do this on tasks they did not author.
func (s *Service) ToggleTask(ctx context.Context, oppID, taskID string) (models.Task, error) {
	opp, i, err := s.findTask(ctx, oppID, taskID)
	if err != nil {
		return models.Task{}, err
	}

	tasks := append([]models.Task(nil), opp.Tasks...)
	tasks[i] = tasks[i].WithCompletion(!tasks[i].IsCompleted)

	updated, err := s.UpdateOpportunity(ctx, oppID, models.OpportunityUpdate{Tasks: &tasks})
	if err != nil {
		return models.Task{}, err
	}
	return updated.Tasks[i], nil
}

func (s *Service) DeleteTask(ctx context.Context, oppID, taskID string) error {
	opp, i, err := s.findTask(ctx, oppID, taskID)
	if err != nil {
		return err
	}

	tasks := make([]models.Task, 0, len(opp.Tasks)-1)
	tasks = append(tasks, opp.Tasks[:i]...)
	tasks = append(tasks, opp.Tasks[i+1:]...)

	_, err = s.UpdateOpportunity(ctx, oppID, models.OpportunityUpdate{Tasks: &tasks})
	return err
}

// AddNote appends a note. Notes carry no permission rules.
func (s *Service) AddNote(ctx context.Context, oppID, content string) (models.Note, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Note{}, fmt.Errorf("note content is required")
	}

	opp, err := s.Opportunity(ctx, oppID)
	if err != nil {
		return models.Note{}, err
	}

	note := models.Note{ID: models.NewID(), Content: content, CreatedAt: s.now().UTC()}
	notes := append(append([]models.Note(nil), opp.Notes...), note)

	if _, err := s.UpdateOpportunity(ctx, oppID, models.OpportunityUpdate{Notes: &notes}); err != nil {
		return models.Note{}, err
	}
	return note, nil
}
