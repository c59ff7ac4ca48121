// ABOUTME: Tests for the Calendar-backed event source
// ABOUTME: Serves canned API responses from httptest so no Google account is needed
package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

func TestNewCalendarClientRejectsNilToken(t *testing.T) {
	service, err := NewCalendarClient(context.Background(), nil, nil)
	assert.Error(t, err)
	assert.Nil(t, service)
}

func TestGoogleEventsListsPrimaryWindow(t *testing.T) {
	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/calendars/primary/events", r.URL.Path)
		assert.Equal(t, "true", q.Get("singleEvents"))
		assert.Equal(t, "startTime", q.Get("orderBy"))
		assert.Equal(t, from.Format(time.RFC3339), q.Get("timeMin"))
		assert.Equal(t, to.Format(time.RFC3339), q.Get("timeMax"))
		seen = append(seen, q.Get("pageToken"))

		resp := calendar.Events{Items: []*calendar.Event{{Id: "e1", Summary: "Kickoff"}}}
		if q.Get("pageToken") == "" {
			resp.NextPageToken = "p2"
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	ctx := context.Background()
	service, err := calendar.NewService(ctx, option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	src := GoogleEvents{Service: service}

	page, err := src.Events(ctx, from, to, "")
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Kickoff", page.Items[0].Summary)
	assert.Equal(t, "p2", page.NextPageToken)

	page, err = src.Events(ctx, from, to, "p2")
	require.NoError(t, err)
	assert.Empty(t, page.NextPageToken)
	assert.Equal(t, []string{"", "p2"}, seen)
}
