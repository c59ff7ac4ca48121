// ABOUTME: Google Calendar service construction and the event source it backs
// ABOUTME: Hides paging calls behind EventSource so imports can be tested offline
package sync

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// EventSource lists primary-calendar events in [from, to), one page at a time.
type EventSource interface {
	Events(ctx context.Context, from, to time.Time, pageToken string) (*calendar.Events, error)
}

// NewCalendarClient creates a Calendar service from token. When store is
// non-nil, refreshed tokens are written back to it.
func NewCalendarClient(ctx context.Context, token *oauth2.Token, store TokenStore) (*calendar.Service, error) {
	if token == nil {
		return nil, fmt.Errorf("token cannot be nil")
	}

	src := NewOAuthConfig().TokenSource(ctx, token)
	if store != nil {
		src = &persistingSource{base: src, store: store, last: token.AccessToken}
	}

	service, err := calendar.NewService(ctx, option.WithTokenSource(src))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return service, nil
}

// GoogleEvents adapts a Calendar service to EventSource.
type GoogleEvents struct {
	Service *calendar.Service
}

func (g GoogleEvents) Events(ctx context.Context, from, to time.Time, pageToken string) (*calendar.Events, error) {
	call := g.Service.Events.List("primary").
		Context(ctx).
		MaxResults(maxResults).
		SingleEvents(true).
		OrderBy("startTime").
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339))
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	return call.Do()
}
