// ABOUTME: Config inspection subcommand
// ABOUTME: Shows the resolved settings or writes a starter config file
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/harperreed/dealflow/config"
)

// ConfigCommand handles config show|path|init.
func ConfigCommand(_ context.Context, env *Env, args []string) error {
	sub := "show"
	if len(args) > 0 {
		sub = args[0]
	}

	switch sub {
	case "path":
		env.printf("%s\n", config.Path())
		return nil
	case "show":
		return toml.NewEncoder(env.out()).Encode(env.Config)
	case "init":
		fs := newFlagSet("config init")
		force := fs.Bool("force", false, "Overwrite an existing config")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		path := config.Path()
		if _, err := os.Stat(path); err == nil && !*force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := env.Config.Save(path); err != nil {
			return err
		}
		env.printf("✓ Wrote %s\n", path)
		return nil
	default:
		return fmt.Errorf("usage: config show|path|init")
	}
}
