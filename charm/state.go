// ABOUTME: Typed per-device state stored in the charm KV
// ABOUTME: Holds the demo-mode flag and the calendar access token
package charm

import (
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

const (
	keyDemoMode      = "state:demo_mode"
	keyCalendarToken = "state:calendar_token"
)

// State reads and writes the keys dealflow persists between runs.
type State struct {
	c *Client
}

func NewState(c *Client) *State {
	return &State{c: c}
}

// DemoMode reports whether the in-memory demo pipeline is selected.
func (s *State) DemoMode() (bool, error) {
	v, err := s.c.Get(keyDemoMode)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return string(v) == "1", nil
}

func (s *State) SetDemoMode(on bool) error {
	v := "0"
	if on {
		v = "1"
	}
	return s.c.Set(keyDemoMode, []byte(v))
}

// CalendarToken returns the stored token, or nil when none is stored.
func (s *State) CalendarToken() (*oauth2.Token, error) {
	v, err := s.c.Get(keyCalendarToken)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var tok oauth2.Token
	if err := json.Unmarshal(v, &tok); err != nil {
		return nil, fmt.Errorf("stored calendar token is corrupt: %w", err)
	}
	return &tok, nil
}

func (s *State) SetCalendarToken(tok *oauth2.Token) error {
	if tok == nil || tok.AccessToken == "" {
		return errors.New("calendar token is empty")
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	return s.c.Set(keyCalendarToken, data)
}

func (s *State) ClearCalendarToken() error {
	return s.c.Delete(keyCalendarToken)
}
