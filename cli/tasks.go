// ABOUTME: Task and note CLI commands
// ABOUTME: The configured actor's permissions decide which task changes go through
package cli

import (
	"context"
	"fmt"

	"github.com/harperreed/dealflow/crm"
	"github.com/harperreed/dealflow/models"
)

// AddTaskCommand appends a task to an opportunity.
func AddTaskCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("add-task")
	title := fs.String("title", "", "Task title (required)")
	desc := fs.String("description", "", "Details")
	due := fs.String("due", "", "Due date (YYYY-MM-DD)")
	dueTime := fs.String("due-time", "", "Due time (HH:MM)")
	assignee := fs.String("assignee", "", "Assignee email or id")
	recurring := fs.Bool("recurring", false, "Repeats after completion")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("opportunity ID required")
	}

	task, err := env.Svc.AddTask(ctx, fs.Arg(0), models.Task{
		Title:       *title,
		Description: *desc,
		DueDate:     *due,
		DueTime:     *dueTime,
		Assignee:    *assignee,
		Recurring:   *recurring,
	})
	if err != nil {
		return err
	}
	env.printf("✓ Task added: %s (ID: %s)\n", task.Title, task.ID)
	return nil
}

// EditTaskCommand changes task fields other than completion.
func EditTaskCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("edit-task")
	var title, desc, due, dueTime, assignee optString
	fs.Var(&title, "title", "New title")
	fs.Var(&desc, "description", "New details")
	fs.Var(&due, "due", "Due date (YYYY-MM-DD)")
	fs.Var(&dueTime, "due-time", "Due time (HH:MM)")
	fs.Var(&assignee, "assignee", "Assignee email or id (empty to unassign)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("usage: edit-task [flags] <opportunity-id> <task-id>")
	}

	task, err := env.Svc.EditTask(ctx, fs.Arg(0), fs.Arg(1), crm.TaskEdit{
		Title:       title.ptr(),
		Description: desc.ptr(),
		DueDate:     due.ptr(),
		DueTime:     dueTime.ptr(),
		Assignee:    assignee.ptr(),
	})
	if err != nil {
		return err
	}
	env.printf("✓ Task updated: %s\n", task.Title)
	return nil
}

// ToggleTaskCommand flips a task's completion.
func ToggleTaskCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("toggle-task")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("usage: toggle-task <opportunity-id> <task-id>")
	}

	task, err := env.Svc.ToggleTask(ctx, fs.Arg(0), fs.Arg(1))
	if err != nil {
		return err
	}
	state := "open"
	if task.IsCompleted {
		state = "done"
	}
	env.printf("✓ %s is %s\n", task.Title, state)
	return nil
}

func DeleteTaskCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("delete-task")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("usage: delete-task <opportunity-id> <task-id>")
	}

	if err := env.Svc.DeleteTask(ctx, fs.Arg(0), fs.Arg(1)); err != nil {
		return err
	}
	env.printf("✓ Task deleted\n")
	return nil
}

// ListTasksCommand prints an opportunity's tasks.
func ListTasksCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("list-tasks")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("opportunity ID required")
	}

	opp, err := env.Svc.Opportunity(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	if len(opp.Tasks) == 0 {
		env.printf("No tasks\n")
		return nil
	}

	w := env.table()
	_, _ = fmt.Fprintln(w, "DONE\tTITLE\tDUE\tASSIGNEE\tAUTHOR\tID")
	_, _ = fmt.Fprintln(w, "----\t-----\t---\t--------\t------\t--")
	for _, t := range opp.Tasks {
		mark := "[ ]"
		if t.IsCompleted {
			mark = "[x]"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			mark, truncate(t.Title, 40), dash(t.DueDate), dash(t.Assignee), dash(t.CreatedBy), dash(t.ID))
	}
	_ = w.Flush()
	return nil
}

func AddNoteCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("add-note")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("usage: add-note <opportunity-id> <text>")
	}

	if _, err := env.Svc.AddNote(ctx, fs.Arg(0), fs.Arg(1)); err != nil {
		return err
	}
	env.printf("✓ Note added\n")
	return nil
}
