// ABOUTME: Reminder CLI commands
// ABOUTME: Runs the scanner in the foreground or lists today's follow-ups once
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/reminders"
)

// RemindersCommand runs the reminder scanner until ctx is cancelled.
// With --once it scans a single time and exits.
func RemindersCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("reminders")
	interval := fs.Duration("interval", env.Config.ReminderInterval.Duration, "Scan interval")
	once := fs.Bool("once", false, "Scan once and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	notifier := reminders.Multi{
		reminders.NewTerminalNotifier(env.out()),
		reminders.LogNotifier{Logger: log.NewWithOptions(os.Stderr, log.Options{Prefix: "reminders"})},
	}
	scanner := reminders.NewScanner(env.Svc.Gateway(), notifier, reminders.WithInterval(*interval))

	if *once {
		fired, err := scanner.Scan(ctx)
		if err != nil {
			return err
		}
		if len(fired) == 0 {
			env.printf("Nothing due right now\n")
		}
		return nil
	}

	env.printf("Watching for reminders every %s (Ctrl+C to stop)\n", *interval)
	return scanner.Run(ctx)
}

// FollowUpsCommand lists unread follow-ups due on a date (default today).
func FollowUpsCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("follow-ups")
	all := fs.Bool("all", false, "Include read follow-ups")
	if err := fs.Parse(args); err != nil {
		return err
	}
	today := time.Now().Format(models.DateLayout)

	var opps []followUpRow
	cursor := ""
	for {
		page, next, err := env.Svc.ListOpportunities(ctx, "", cursor, 100)
		if err != nil {
			return err
		}
		for _, o := range page {
			if o.FollowUpDate == "" || o.FollowUpDate > today {
				continue
			}
			if o.FollowUpRead && !*all {
				continue
			}
			opps = append(opps, followUpRow{name: o.Name, date: o.FollowUpDate, read: o.FollowUpRead, id: o.ID})
		}
		if next == "" {
			break
		}
		cursor = next
	}

	if len(opps) == 0 {
		env.printf("No follow-ups due\n")
		return nil
	}

	w := env.table()
	_, _ = fmt.Fprintln(w, "\tNAME\tDATE\tID")
	_, _ = fmt.Fprintln(w, "\t----\t----\t--")
	for _, r := range opps {
		indicator := "🟡"
		switch {
		case r.read:
			indicator = "🟢"
		case r.date < today:
			indicator = "🔴"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", indicator, truncate(r.name, 40), r.date, r.id)
	}
	return w.Flush()
}

type followUpRow struct {
	name, date, id string
	read           bool
}
