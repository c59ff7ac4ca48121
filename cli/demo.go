// ABOUTME: Demo mode CLI command
// ABOUTME: Toggles the persisted flag that swaps in a seeded in-memory pipeline
package cli

import (
	"context"
	"fmt"
)

// DemoCommand handles demo on|off|status.
func DemoCommand(_ context.Context, env *Env, args []string) error {
	sub := "status"
	if len(args) > 0 {
		sub = args[0]
	}

	switch sub {
	case "on", "off":
		if err := env.State.SetDemoMode(sub == "on"); err != nil {
			return fmt.Errorf("failed to save demo mode: %w", err)
		}
		env.printf("✓ Demo mode %s\n", sub)
		if sub == "on" {
			env.printf("  Sample data lives in memory; changes are discarded on exit\n")
		}
		return nil
	case "status":
		on, err := env.State.DemoMode()
		if err != nil {
			return err
		}
		state := "off"
		if on {
			state = "on"
		}
		env.printf("Demo mode: %s\n", state)
		return nil
	default:
		return fmt.Errorf("usage: demo on|off|status")
	}
}
