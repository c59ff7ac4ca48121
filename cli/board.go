// ABOUTME: Interactive pipeline board subcommand
// ABOUTME: Starts the bubbletea board and optionally follows remote changes
package cli

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/harperreed/dealflow/tui"
)

// BoardCommand opens the full-screen board. With --live the cache follows
// the backing collection and the screen redraws every --refresh.
func BoardCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("board")
	live := fs.Bool("live", true, "Follow changes made by other clients")
	refresh := fs.Duration("refresh", time.Second, "Redraw interval in live mode")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model, err := tui.NewModel(ctx, env.Svc)
	if err != nil {
		return err
	}
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if *live {
		go func() {
			if err := env.Svc.Store().Follow(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Warn("live updates stopped", "err", err)
			}
		}()
		go func() {
			ticker := time.NewTicker(*refresh)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					p.Send(tui.RefreshMsg{})
				}
			}
		}()
	}

	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
