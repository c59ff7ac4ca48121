// ABOUTME: Validates task-list diffs on opportunity updates before they are written
// ABOUTME: Rejects the whole update on any denied task change and stamps authorship metadata
package guard

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/harperreed/dealflow/access"
	"github.com/harperreed/dealflow/models"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrAuthorImmutable  = errors.New("task author cannot be changed")

	// ErrAmbiguousTasks rejects adding or removing id-less tasks while legacy
	// id-less tasks exist. Their positions would no longer line up.
	ErrAmbiguousTasks = errors.New("tasks without ids cannot be added or removed; backfill task ids first")
)

// PermissionError names the task and the action that was denied.
type PermissionError struct {
	Action    access.Action
	TaskID    string
	TaskTitle string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("you do not have permission to %s task %q", e.Action, e.TaskTitle)
}

func (e *PermissionError) Unwrap() error {
	return ErrPermissionDenied
}

// Guard checks proposed task lists against an access policy.
type Guard struct {
	policy access.Policy
}

func New(policy access.Policy) *Guard {
	return &Guard{policy: policy}
}

// taskKey identifies a task across the old and new lists.
// Tasks saved before ids were assigned are matched by their position among id-less tasks.
func taskKeys(tasks []models.Task) []string {
	keys := make([]string, len(tasks))
	legacy := 0
	for i, t := range tasks {
		if t.ID != "" {
			keys[i] = t.ID
			continue
		}
		keys[i] = "legacy:" + strconv.Itoa(legacy)
		legacy++
	}
	return keys
}

func countLegacy(tasks []models.Task) int {
	n := 0
	for _, t := range tasks {
		if t.ID == "" {
			n++
		}
	}
	return n
}

// CheckTasks validates every difference between oldTasks and newTasks.
// It returns the first violation; nothing is partially accepted.
func (g *Guard) CheckTasks(oldTasks, newTasks []models.Task, actor access.Actor) error {
	if legacy := countLegacy(oldTasks); legacy > 0 && countLegacy(newTasks) != legacy {
		return ErrAmbiguousTasks
	}

	newKeys := taskKeys(newTasks)
	present := make(map[string]int, len(newTasks))
	for i, k := range newKeys {
		present[k] = i
	}

	oldKeys := taskKeys(oldTasks)
	oldByKey := make(map[string]models.Task, len(oldTasks))
	for i, k := range oldKeys {
		oldByKey[k] = oldTasks[i]
		if _, ok := present[k]; ok {
			continue
		}
		if !g.policy.CanDeleteTask(oldTasks[i], actor) {
			return deny(access.ActionDelete, oldTasks[i])
		}
	}

	for i, k := range newKeys {
		prev, ok := oldByKey[k]
		if !ok {
			continue
		}
		next := newTasks[i]
		if prev == next {
			continue
		}
		if prev.CreatedBy != "" && next.CreatedBy != prev.CreatedBy {
			return fmt.Errorf("%w: %q", ErrAuthorImmutable, prev.Title)
		}

		action := access.ActionEdit
		if prev.WithCompletion(next.IsCompleted) == next {
			action = access.ActionToggle
		}
		if !g.policy.Can(actor, prev, action) {
			return deny(action, prev)
		}
	}

	return nil
}

func deny(action access.Action, task models.Task) error {
	return &PermissionError{Action: action, TaskID: task.ID, TaskTitle: task.Title}
}

// Prepare validates an update against the stored opportunity and returns the update to persist.
// New tasks get ids and are stamped with the actor as author; changed assignments record
// the actor as assigner. Setting a follow-up date always marks it unread.
func (g *Guard) Prepare(current models.Opportunity, update models.OpportunityUpdate, actor access.Actor) (models.OpportunityUpdate, error) {
	if update.Tasks != nil {
		proposed := *update.Tasks
		if err := g.CheckTasks(current.Tasks, proposed, actor); err != nil {
			return models.OpportunityUpdate{}, err
		}
		stamped := stampTasks(current.Tasks, proposed, actor)
		update.Tasks = &stamped
	}

	if update.FollowUpDate != nil {
		update.FollowUpRead = models.Ptr(false)
	}

	return update, nil
}

func stampTasks(oldTasks, newTasks []models.Task, actor access.Actor) []models.Task {
	oldByKey := make(map[string]models.Task, len(oldTasks))
	for i, k := range taskKeys(oldTasks) {
		oldByKey[k] = oldTasks[i]
	}

	out := make([]models.Task, len(newTasks))
	for i, k := range taskKeys(newTasks) {
		task := newTasks[i]
		prev, existed := oldByKey[k]

		if !existed {
			if task.ID == "" {
				task.ID = models.NewID()
			}
			// Client-supplied authorship is never trusted on creation.
			task.CreatedBy = actor.Identity()
			if actor.IsZero() {
				task.AssignedBy = ""
			}
		}

		if task.Assignee != "" && !actor.IsZero() && (!existed || task.Assignee != prev.Assignee) {
			task.AssignedBy = actor.Identity()
		}

		out[i] = task
	}
	return out
}
