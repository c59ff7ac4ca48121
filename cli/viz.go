// ABOUTME: Visualization CLI commands
// ABOUTME: Terminal dashboard and Graphviz pipeline output
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/harperreed/dealflow/viz"
)

// DashboardCommand prints pipeline statistics for a window of days.
func DashboardCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("dashboard")
	days := fs.Int("days", env.Config.DashboardDays, "Window in days (0 for all time)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	stats, err := env.Svc.Dashboard(ctx, *days)
	if err != nil {
		return err
	}
	env.printf("%s", viz.RenderDashboard(stats, viz.TerminalWidth()))
	return nil
}

// VizPipelineCommand writes the stage pipeline as DOT.
func VizPipelineCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("viz pipeline")
	output := fs.String("output", "", "Output file (default: stdout)")
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

	dot, err := viz.GeneratePipelineGraph(ctx, stages, counts)
	if err != nil {
		return err
	}

	if *output != "" {
		if err := os.WriteFile(*output, []byte(dot), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", *output, err)
		}
		env.printf("✓ Pipeline graph written to %s\n", *output)
		return nil
	}
	env.printf("%s\n", dot)
	return nil
}
