// ABOUTME: OAuth configuration for read-only Google Calendar access
// ABOUTME: Tokens are supplied by the user and kept in per-device state
package sync

import (
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

// NewOAuthConfig builds the client config from GOOGLE_CLIENT_ID and
// GOOGLE_CLIENT_SECRET. Without them tokens still work until they expire.
func NewOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		Scopes:       []string{calendar.CalendarReadonlyScope},
		Endpoint:     google.Endpoint,
	}
}

// TokenStore persists the calendar token between runs.
type TokenStore interface {
	CalendarToken() (*oauth2.Token, error)
	SetCalendarToken(*oauth2.Token) error
}

// LoadToken returns the stored token or an error telling the user how to set one.
func LoadToken(store TokenStore) (*oauth2.Token, error) {
	tok, err := store.CalendarToken()
	if err != nil {
		return nil, fmt.Errorf("failed to read calendar token: %w", err)
	}
	if tok == nil {
		return nil, fmt.Errorf("no calendar token stored; run 'dealflow sync set-token' first")
	}
	return tok, nil
}

// persistingSource saves refreshed tokens back to the store.
type persistingSource struct {
	base  oauth2.TokenSource
	store TokenStore
	last  string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != p.last {
		p.last = tok.AccessToken
		if err := p.store.SetCalendarToken(tok); err != nil {
			logger.Warn("refreshed token not saved", "err", err)
		}
	}
	return tok, nil
}
