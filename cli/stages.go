// ABOUTME: Stage configuration CLI commands
// ABOUTME: Stage ids stay fixed; only titles, colors, and order change
package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/harperreed/dealflow/aggregate"
	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/pipeline"
)

// StagesCommand prints the configured stages with their current totals.
func StagesCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("stages")
	if err := fs.Parse(args); err != nil {
		return err
	}

	stages, err := env.Svc.Stages(ctx)
	if err != nil {
		return err
	}
	counts, err := env.Svc.RefreshStageCounts(ctx)
	if err != nil {
		return err
	}
	return printStages(env, stages, counts)
}

func printStages(env *Env, stages pipeline.List, counts []aggregate.StageCount) error {
	byID := make(map[string]aggregate.StageCount, len(counts))
	for _, c := range counts {
		byID[c.StageID] = c
	}

	w := env.table()
	_, _ = fmt.Fprintln(w, "#\tID\tTITLE\tCOLOR\tCOUNT\tVALUE")
	_, _ = fmt.Fprintln(w, "-\t--\t-----\t-----\t-----\t-----")
	for i, st := range stages {
		c := byID[st.ID]
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t$%.0f\n", i, st.ID, st.Title, dash(st.Color), c.Count, c.Value)
	}
	if c, ok := byID[models.StageUnknownID]; ok && c.Count > 0 {
		_, _ = fmt.Fprintf(w, "-\t%s\t%s\t-\t%d\t$%.0f\n", c.StageID, c.Title, c.Count, c.Value)
	}
	return w.Flush()
}

func AddStageCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("add-stage")
	color := fs.String("color", "", "Hex color")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("stage title required")
	}

	st, err := env.Svc.AddStage(ctx, fs.Arg(0), *color)
	if err != nil {
		return err
	}
	env.printf("✓ Stage added: %s (ID: %s)\n", st.Title, st.ID)
	return nil
}

func RemoveStageCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("remove-stage")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("stage ID required")
	}

	if _, err := env.Svc.RemoveStage(ctx, fs.Arg(0)); err != nil {
		return err
	}
	env.printf("✓ Stage removed; its opportunities now show as Unknown\n")
	return nil
}

func RenameStageCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("rename-stage")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("usage: rename-stage <stage-id> <title>")
	}

	if _, err := env.Svc.RenameStage(ctx, fs.Arg(0), fs.Arg(1)); err != nil {
		return err
	}
	env.printf("✓ Stage %s renamed to %s\n", fs.Arg(0), fs.Arg(1))
	return nil
}

func RecolorStageCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("recolor-stage")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("usage: recolor-stage <stage-id> <color>")
	}

	if _, err := env.Svc.RecolorStage(ctx, fs.Arg(0), fs.Arg(1)); err != nil {
		return err
	}
	env.printf("✓ Stage %s recolored\n", fs.Arg(0))
	return nil
}

// MoveStagePositionCommand reorders a stage to a zero-based position.
func MoveStagePositionCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("move-stage")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("usage: move-stage <stage-id> <position>")
	}
	pos, err := strconv.Atoi(fs.Arg(1))
	if err != nil {
		return fmt.Errorf("invalid position: %w", err)
	}

	stages, err := env.Svc.ReorderStage(ctx, fs.Arg(0), pos)
	if err != nil {
		return err
	}
	return printStages(env, stages, env.Svc.Store().StageCounts())
}
