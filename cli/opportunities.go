// ABOUTME: Opportunity CLI commands
// ABOUTME: Create, list, update, move, and delete opportunities through the guarded service
package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/harperreed/dealflow/models"
)

// AddOpportunityCommand creates an opportunity.
func AddOpportunityCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("add-opportunity")
	name := fs.String("name", "", "Opportunity name (required)")
	value := fs.Float64("value", 0, "Monetary value")
	stage := fs.String("stage", "", "Stage id (default: first stage)")
	contact := fs.String("contact", "", "Contact id")
	tags := fs.String("tags", "", "Comma-separated tags")
	followUp := fs.String("follow-up", "", "Follow-up date (YYYY-MM-DD)")
	note := fs.String("note", "", "Initial note")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	opp := models.Opportunity{
		Name:         *name,
		Value:        *value,
		Stage:        *stage,
		ContactID:    *contact,
		Tags:         models.ParseTags(*tags),
		FollowUpDate: *followUp,
		Source:       "cli",
	}
	if *note != "" {
		opp.Notes = []models.Note{{Content: *note}}
	}

	created, err := env.Svc.CreateOpportunity(ctx, opp)
	if err != nil {
		return err
	}

	stages, err := env.Svc.Stages(ctx)
	if err != nil {
		return err
	}
	env.printf("✓ Opportunity created: %s (ID: %s)\n", created.Name, created.ID)
	env.printf("  Value: $%.2f\n", created.Value)
	env.printf("  Stage: %s\n", stages.Resolve(created.Stage).Title)
	return nil
}

// ListOpportunitiesCommand prints one page of opportunities, newest first.
func ListOpportunitiesCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("list-opportunities")
	stage := fs.String("stage", "", "Filter by stage id")
	cursor := fs.String("cursor", "", "Continue from a previous page")
	limit := fs.Int("limit", 25, "Page size")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opps, next, err := env.Svc.ListOpportunities(ctx, *stage, *cursor, *limit)
	if err != nil {
		return err
	}
	if len(opps) == 0 {
		env.printf("No opportunities found\n")
		return nil
	}

	stages, err := env.Svc.Stages(ctx)
	if err != nil {
		return err
	}

	w := env.table()
	_, _ = fmt.Fprintln(w, "NAME\tVALUE\tSTAGE\tSTATUS\tTASKS\tFOLLOW-UP\tID")
	_, _ = fmt.Fprintln(w, "----\t-----\t-----\t------\t-----\t---------\t--")
	for _, o := range opps {
		done := 0
		for _, t := range o.Tasks {
			if t.IsCompleted {
				done++
			}
		}
		_, _ = fmt.Fprintf(w, "%s\t$%.0f\t%s\t%s\t%d/%d\t%s\t%s\n",
			truncate(o.Name, 32), o.Value, stages.Resolve(o.Stage).Title, o.Status,
			done, len(o.Tasks), dash(o.FollowUpDate), o.ID)
	}
	_ = w.Flush()

	if next != "" {
		env.printf("\nMore: --cursor %s\n", next)
	}
	return nil
}

// UpdateOpportunityCommand changes the given fields of one opportunity.
func UpdateOpportunityCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("update-opportunity")
	var name, value, status, contact, tags, followUp optString
	fs.Var(&name, "name", "New name")
	fs.Var(&value, "value", "New value")
	fs.Var(&status, "status", "open, won, lost, or abandoned")
	fs.Var(&contact, "contact", "Contact id (empty to unlink)")
	fs.Var(&tags, "tags", "Comma-separated tags, replacing the current ones")
	fs.Var(&followUp, "follow-up", "Follow-up date (YYYY-MM-DD, empty to clear)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("opportunity ID required")
	}

	update := models.OpportunityUpdate{
		Name:         name.ptr(),
		ContactID:    contact.ptr(),
		FollowUpDate: followUp.ptr(),
	}
	if value.set {
		v, err := strconv.ParseFloat(value.value, 64)
		if err != nil {
			return fmt.Errorf("invalid --value: %w", err)
		}
		update.Value = &v
	}
	if status.set {
		update.Status = models.Ptr(models.ParseStatus(status.value))
	}
	if tags.set {
		update.Tags = models.Ptr(models.ParseTags(tags.value))
	}
	if update.IsEmpty() {
		return fmt.Errorf("nothing to update")
	}

	updated, err := env.Svc.UpdateOpportunity(ctx, fs.Arg(0), update)
	if err != nil {
		return err
	}
	env.printf("✓ Opportunity updated: %s\n", updated.Name)
	return nil
}

// MoveOpportunityCommand moves an opportunity to a stage, as a board drag would.
func MoveOpportunityCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("move-opportunity")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("usage: move-opportunity <id> <stage-id>")
	}

	moved, err := env.Svc.MoveStage(ctx, fs.Arg(0), fs.Arg(1))
	if err != nil {
		return err
	}
	stages, err := env.Svc.Stages(ctx)
	if err != nil {
		return err
	}
	env.printf("✓ %s → %s (%s)\n", moved.Name, stages.Resolve(moved.Stage).Title, moved.Status)
	return nil
}

// DeleteOpportunityCommand deletes one or more opportunities.
func DeleteOpportunityCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("delete-opportunity")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("at least one opportunity ID required")
	}

	n, err := env.Svc.BulkDelete(ctx, fs.Args())
	env.printf("✓ Deleted %d of %d\n", n, fs.NArg())
	return err
}

// FollowUpCommand sets, or with --read acknowledges, an opportunity's follow-up.
func FollowUpCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("follow-up")
	date := fs.String("date", "", "Follow-up date (YYYY-MM-DD)")
	read := fs.Bool("read", false, "Mark the current follow-up as read")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("opportunity ID required")
	}

	if *read {
		if _, err := env.Svc.MarkFollowUpRead(ctx, fs.Arg(0)); err != nil {
			return err
		}
		env.printf("✓ Follow-up marked read\n")
		return nil
	}
	if *date == "" {
		return fmt.Errorf("--date or --read is required")
	}
	if _, err := env.Svc.SetFollowUp(ctx, fs.Arg(0), *date); err != nil {
		return err
	}
	env.printf("✓ Follow-up set for %s\n", *date)
	return nil
}
