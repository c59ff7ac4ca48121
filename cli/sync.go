// ABOUTME: Google Calendar sync CLI commands
// ABOUTME: Stores a user-supplied token and imports events as appointments
package cli

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/harperreed/dealflow/sync"
)

// SyncSetTokenCommand stores a calendar access token obtained elsewhere.
func SyncSetTokenCommand(_ context.Context, env *Env, args []string) error {
	fs := newFlagSet("sync set-token")
	accessToken := fs.String("access-token", "", "OAuth access token (required)")
	refresh := fs.String("refresh-token", "", "OAuth refresh token")
	expires := fs.Duration("expires-in", time.Hour, "Access token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *accessToken == "" {
		return fmt.Errorf("--access-token is required")
	}

	tok := &oauth2.Token{
		AccessToken:  *accessToken,
		RefreshToken: *refresh,
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(*expires),
	}
	if err := env.State.SetCalendarToken(tok); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	env.printf("✓ Calendar token saved\n")
	return nil
}

func SyncClearTokenCommand(_ context.Context, env *Env, _ []string) error {
	if err := env.State.ClearCalendarToken(); err != nil {
		return err
	}
	env.printf("✓ Calendar token removed\n")
	return nil
}

// SyncCalendarCommand imports primary-calendar events around today.
func SyncCalendarCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("sync calendar")
	back := fs.Duration("look-back", sync.DefaultLookBack, "How far back to import")
	ahead := fs.Duration("look-ahead", sync.DefaultLookAhead, "How far ahead to import")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tok, err := sync.LoadToken(env.State)
	if err != nil {
		return err
	}
	service, err := sync.NewCalendarClient(ctx, tok, env.State)
	if err != nil {
		return err
	}

	env.printf("Syncing Google Calendar...\n")
	res, err := sync.ImportAppointments(ctx, env.Svc.Gateway(), sync.GoogleEvents{Service: service}, sync.ImportOptions{
		LookBack:  *back,
		LookAhead: *ahead,
	})
	if err != nil {
		return err
	}

	env.printf("✓ Fetched %d events\n", res.Fetched)
	env.printf("  %d new, %d updated, %d linked to contacts\n", res.Created, res.Updated, res.Linked)
	for reason, n := range res.Skipped {
		env.printf("  skipped %d %s\n", n, reason)
	}
	return nil
}
