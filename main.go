// ABOUTME: Entry point for the dealflow CLI, board, and MCP server
// ABOUTME: Loads config, picks the backing store, and routes to subcommands
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/harperreed/dealflow/access"
	"github.com/harperreed/dealflow/charm"
	"github.com/harperreed/dealflow/cli"
	"github.com/harperreed/dealflow/config"
	"github.com/harperreed/dealflow/crm"
	"github.com/harperreed/dealflow/db"
	"github.com/harperreed/dealflow/gateway"
	"github.com/harperreed/dealflow/sync"
)

const version = "0.2.0"

type command func(ctx context.Context, env *cli.Env, args []string) error

var crmCommands = map[string]command{
	"add-opportunity":    cli.AddOpportunityCommand,
	"list-opportunities": cli.ListOpportunitiesCommand,
	"update-opportunity": cli.UpdateOpportunityCommand,
	"move-opportunity":   cli.MoveOpportunityCommand,
	"delete-opportunity": cli.DeleteOpportunityCommand,
	"follow-up":          cli.FollowUpCommand,
	"add-task":           cli.AddTaskCommand,
	"edit-task":          cli.EditTaskCommand,
	"toggle-task":        cli.ToggleTaskCommand,
	"delete-task":        cli.DeleteTaskCommand,
	"list-tasks":         cli.ListTasksCommand,
	"add-note":           cli.AddNoteCommand,
	"stages":             cli.StagesCommand,
	"add-stage":          cli.AddStageCommand,
	"remove-stage":       cli.RemoveStageCommand,
	"rename-stage":       cli.RenameStageCommand,
	"recolor-stage":      cli.RecolorStageCommand,
	"move-stage":         cli.MoveStagePositionCommand,
	"add-contact":        cli.AddContactCommand,
	"list-contacts":      cli.ListContactsCommand,
	"add-appointment":    cli.AddAppointmentCommand,
	"list-appointments":  cli.ListAppointmentsCommand,
}

var syncCommands = map[string]command{
	"calendar":    cli.SyncCalendarCommand,
	"set-token":   cli.SyncSetTokenCommand,
	"clear-token": cli.SyncClearTokenCommand,
}

var topCommands = map[string]command{
	"dashboard":  cli.DashboardCommand,
	"board":      cli.BoardCommand,
	"reminders":  cli.RemindersCommand,
	"follow-ups": cli.FollowUpsCommand,
	"demo":       cli.DemoCommand,
	"config":     cli.ConfigCommand,
}

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	dbPath := flag.String("db-path", "", "Database path (default: ~/.local/share/dealflow/dealflow.db)")
	demoFlag := flag.Bool("demo", false, "Use seeded in-memory data for this run")
	verbose := flag.Bool("verbose", false, "Enable debug logging")

	// Parse global flags but don't fail on unknown (for subcommands)
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("dealflow version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	// A missing .env is normal.
	_ = godotenv.Load()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", "err", err)
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	env, cleanup, err := setup(ctx, cfg, *demoFlag)
	if err != nil {
		stop()
		log.Fatal("startup failed", "err", err)
	}

	err = route(ctx, env, args)
	cleanup()
	stop()
	if err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

func route(ctx context.Context, env *cli.Env, args []string) error {
	name, rest := args[0], args[1:]

	switch name {
	case "mcp":
		return cli.MCPCommand(ctx, env, version)
	case "crm":
		return dispatch(ctx, env, "crm", crmCommands, rest)
	case "sync":
		return dispatch(ctx, env, "sync", syncCommands, rest)
	case "viz":
		if len(rest) == 0 || rest[0] != "pipeline" {
			printUsage()
			return fmt.Errorf("usage: viz pipeline [--output <file>]")
		}
		return cli.VizPipelineCommand(ctx, env, rest[1:])
	}

	if cmd, ok := topCommands[name]; ok {
		return cmd(ctx, env, rest)
	}
	printUsage()
	return fmt.Errorf("unknown command: %s", name)
}

func dispatch(ctx context.Context, env *cli.Env, group string, table map[string]command, args []string) error {
	if len(args) == 0 {
		printUsage()
		return fmt.Errorf("%s requires a subcommand", group)
	}
	cmd, ok := table[args[0]]
	if !ok {
		printUsage()
		return fmt.Errorf("unknown %s command: %s", group, args[0])
	}
	return cmd(ctx, env, args[1:])
}

// setup opens device state and the document store, then builds the service.
// Demo mode swaps the database for a freshly seeded in-memory gateway.
func setup(ctx context.Context, cfg *config.Config, forceDemo bool) (*cli.Env, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Debug("close failed", "err", err)
			}
		}
	}

	client, err := openState(cfg)
	if err != nil {
		return nil, cleanup, err
	}
	closers = append(closers, client.Close)
	state := charm.NewState(client)

	demo := forceDemo
	if !demo {
		if on, err := state.DemoMode(); err != nil {
			log.Warn("could not read demo mode", "err", err)
		} else {
			demo = on
		}
	}

	actor := cfg.CurrentActor()
	var gw gateway.Gateway
	if demo {
		mem := gateway.NewMemory()
		if err := crm.SeedDemo(ctx, mem, time.Now()); err != nil {
			cleanup()
			return nil, func() {}, err
		}
		gw = mem
		actor = access.NewActor("demo", crm.DemoActor)
		log.Info("demo mode: changes are kept in memory only")
	} else {
		notifier, closeNotifier, err := openNotifier(cfg)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		if closeNotifier != nil {
			closers = append(closers, closeNotifier)
		}

		database, err := db.OpenDatabase(cfg.DBPath)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		closers = append(closers, database.Close)
		log.Debug("database opened", "path", cfg.DBPath)
		gw = db.NewDocumentStore(database, notifier)
		warnLegacyTasks(database)
	}

	svc := crm.NewService(gw, crm.Options{
		Actor:                actor,
		Policy:               cfg.Policy(),
		CascadeContactDelete: cfg.CascadeContactDelete,
		PageSize:             cfg.PageSize,
		Logger:               log.Default(),
	})

	sync.SetLogger(log.Default().With("component", "calendar"))
	gateway.SetLogger(log.Default().With("component", "gateway"))

	return &cli.Env{Svc: svc, State: state, Config: cfg, Out: os.Stdout}, cleanup, nil
}

// openState connects to the charm server, falling back to a local-only store.
func openState(cfg *config.Config) (*charm.Client, error) {
	client, err := charm.Open(charm.Options{Host: cfg.StateHost, AutoSync: cfg.StateAutoSync})
	if err == nil {
		return client, nil
	}
	log.Warn("charm state unavailable, using local state", "err", err)
	return charm.OpenLocal(filepath.Join(xdg.StateHome, config.AppName, "state"))
}

// openNotifier returns the Redis notifier when configured; nil otherwise,
// which makes the store use in-process pings.
func openNotifier(cfg *config.Config) (gateway.Notifier, func() error, error) {
	if cfg.RedisURL == "" {
		return nil, nil, nil
	}
	n, err := gateway.NewRedisNotifier(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return n, n.Close, nil
}

// warnLegacyTasks points at the backfill tool when tasks lack an author.
func warnLegacyTasks(database *sql.DB) {
	n, err := db.CountLegacyTasks(database)
	if err != nil {
		log.Debug("legacy task check failed", "err", err)
		return
	}
	if n > 0 {
		log.Warn("opportunities have tasks without an author; run dealflow-backfill", "tasks", n)
	}
}

func printUsage() {
	fmt.Printf(`dealflow v%s - opportunity pipeline and task tracker

USAGE:
  dealflow [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --db-path <path>       Database path (default: ~/.local/share/dealflow/dealflow.db)
  --demo                 Use seeded in-memory data for this run
  --verbose              Enable debug logging

COMMANDS:
  board                  Interactive pipeline board
    --live                   Follow changes from other clients (default: true)
  dashboard              Pipeline statistics
    --days <n>               Window in days (0 for all time)
  reminders              Watch for due follow-ups and appointments
    --interval <dur>         Scan interval
    --once                   Scan once and exit
  follow-ups             List unread follow-ups due today
    --all                    Include read follow-ups
  viz pipeline           Write the pipeline as Graphviz DOT
    --output <file>          Output file (default: stdout)
  demo on|off|status     Toggle demo mode
  config show|path|init  Inspect or create the config file
  mcp                    Start MCP server on stdio

CRM COMMANDS:
  dealflow crm add-opportunity --name <name> [--value <n>] [--stage <id>] [--contact <id>]
                               [--tags a,b] [--follow-up YYYY-MM-DD] [--note <text>]
  dealflow crm list-opportunities [--stage <id>] [--limit <n>] [--cursor <c>]
  dealflow crm update-opportunity [--name] [--value] [--status] [--contact] [--tags] [--follow-up] <id>
  dealflow crm move-opportunity <id> <stage-id>
  dealflow crm delete-opportunity <id>...
  dealflow crm follow-up [--date YYYY-MM-DD | --read] <id>
  dealflow crm add-task --title <title> [--assignee <email>] [--due YYYY-MM-DD] [--recurring] <opportunity-id>
  dealflow crm edit-task [flags] <opportunity-id> <task-id>
  dealflow crm toggle-task <opportunity-id> <task-id>
  dealflow crm delete-task <opportunity-id> <task-id>
  dealflow crm list-tasks <opportunity-id>
  dealflow crm add-note <opportunity-id> <text>
  dealflow crm stages
  dealflow crm add-stage [--color <hex>] <title>
  dealflow crm remove-stage <id>
  dealflow crm rename-stage <id> <title>
  dealflow crm recolor-stage <id> <hex>
  dealflow crm move-stage <id> <position>
  dealflow crm add-contact --name <name> [--email <email>] [--phone <phone>] [--company <name>]
  dealflow crm list-contacts
  dealflow crm add-appointment --title <title> --time HH:MM [--date YYYY-MM-DD] [--contact <id>] [--location <text>]
  dealflow crm list-appointments [--date YYYY-MM-DD] (empty date lists all)

SYNC COMMANDS:
  dealflow sync set-token --access-token <t> [--refresh-token <t>] [--expires-in <dur>]
  dealflow sync clear-token
  dealflow sync calendar [--look-back <dur>] [--look-ahead <dur>]

EXAMPLES:
  # Try it with sample data
  dealflow --demo board

  # Add an opportunity and a task for a teammate
  dealflow crm add-opportunity --name "Acme renewal" --value 12000
  dealflow crm add-task --title "Send contract" --assignee bob@example.com <id>

`, version)
}
