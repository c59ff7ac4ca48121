// ABOUTME: Tests for calendar event import into appointments
// ABOUTME: Uses a paged fake event source and the in-memory gateway
package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"

	"github.com/harperreed/dealflow/gateway"
	"github.com/harperreed/dealflow/models"
)

type fakeEvents struct {
	pages [][]*calendar.Event
	calls int
	err   error
}

func (f *fakeEvents) Events(_ context.Context, _, _ time.Time, pageToken string) (*calendar.Events, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.calls++
	i := 0
	if pageToken != "" {
		i = int(pageToken[0] - '0')
	}
	out := &calendar.Events{Items: f.pages[i]}
	if i+1 < len(f.pages) {
		out.NextPageToken = string(rune('0' + i + 1))
	}
	return out, nil
}

func timed(id, summary, start string, attendees ...*calendar.EventAttendee) *calendar.Event {
	return &calendar.Event{
		Id:        id,
		Summary:   summary,
		Start:     &calendar.EventDateTime{DateTime: start},
		Attendees: attendees,
	}
}

func TestShouldSkipEvent(t *testing.T) {
	tests := []struct {
		name   string
		event  *calendar.Event
		skip   bool
		reason string
	}{
		{"nil", nil, true, "nil"},
		{"no start", &calendar.Event{}, true, "missing start"},
		{"all day", &calendar.Event{Start: &calendar.EventDateTime{Date: "2024-06-01"}}, true, "all-day"},
		{"cancelled", &calendar.Event{Status: "cancelled", Start: &calendar.EventDateTime{DateTime: "2024-06-01T10:00:00Z"}}, true, "cancelled"},
		{"declined by me", timed("e", "x", "2024-06-01T10:00:00Z", &calendar.EventAttendee{Self: true, ResponseStatus: "declined"}), true, "declined"},
		{"declined by other", timed("e", "x", "2024-06-01T10:00:00Z", &calendar.EventAttendee{Email: "o@x.com", ResponseStatus: "declined"}), false, ""},
		{"solo", timed("e", "Focus", "2024-06-01T10:00:00Z"), false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			skip, reason := shouldSkipEvent(tt.event)
			assert.Equal(t, tt.skip, skip)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestImportAppointments(t *testing.T) {
	ctx := context.Background()
	gw := gateway.NewMemory()
	_, err := gw.Create(ctx, models.CollectionContacts, gateway.Document{
		ID:     "c1",
		Fields: map[string]any{"name": "Ada", "email": "ada@x.com"},
	})
	require.NoError(t, err)

	src := &fakeEvents{pages: [][]*calendar.Event{
		{
			timed("e1", "Discovery", "2024-06-01T14:30:00Z",
				&calendar.EventAttendee{Email: "me@x.com", Self: true},
				&calendar.EventAttendee{Email: "ADA@x.com"}),
			{Id: "e2", Start: &calendar.EventDateTime{Date: "2024-06-02"}},
		},
		{
			timed("e3", "", "2024-06-03T09:00:00Z"),
			timed("e4", "Broken", "not a time"),
		},
	}}

	res, err := ImportAppointments(ctx, gw, src, ImportOptions{
		Now:      time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Location: time.UTC,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, src.calls)
	assert.Equal(t, 4, res.Fetched)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 1, res.Linked)
	assert.Equal(t, 2, res.SkippedTotal())
	assert.Equal(t, 1, res.Skipped["all-day"])
	assert.Equal(t, 1, res.Skipped["unparseable"])

	doc, err := gw.Get(ctx, models.CollectionAppointments, "gcal-e1")
	require.NoError(t, err)
	var appt models.Appointment
	require.NoError(t, gateway.Decode(doc, &appt))
	assert.Equal(t, "2024-06-01", appt.Date)
	assert.Equal(t, "14:30", appt.Time)
	assert.Equal(t, "c1", appt.ContactID)
	assert.Equal(t, models.AppointmentSourceGoogle, appt.Source)

	doc, err = gw.Get(ctx, models.CollectionAppointments, "gcal-e3")
	require.NoError(t, err)
	require.NoError(t, gateway.Decode(doc, &appt))
	assert.Equal(t, "(no title)", appt.Title)
}

func TestImportAppointmentsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	gw := gateway.NewMemory()
	src := &fakeEvents{pages: [][]*calendar.Event{{timed("e1", "Standup", "2024-06-01T09:00:00Z")}}}
	opts := ImportOptions{Now: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), Location: time.UTC}

	_, err := ImportAppointments(ctx, gw, src, opts)
	require.NoError(t, err)

	src.pages[0][0].Summary = "Standup (moved)"
	src.pages[0][0].Start.DateTime = "2024-06-01T09:30:00Z"
	res, err := ImportAppointments(ctx, gw, src, opts)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 1, res.Updated)

	all, err := gateway.QueryAll(ctx, gw, models.CollectionAppointments, gateway.Query{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Standup (moved)", all[0].Fields["title"])
	assert.Equal(t, "09:30", all[0].Fields["time"])
}

func TestImportAppointmentsConvertsToLocation(t *testing.T) {
	ctx := context.Background()
	gw := gateway.NewMemory()
	loc := time.FixedZone("UTC-5", -5*3600)
	src := &fakeEvents{pages: [][]*calendar.Event{{timed("late", "Late call", "2024-06-02T02:00:00Z")}}}

	_, err := ImportAppointments(ctx, gw, src, ImportOptions{Now: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), Location: loc})
	require.NoError(t, err)

	doc, err := gw.Get(ctx, models.CollectionAppointments, "gcal-late")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", doc.Fields["date"])
	assert.Equal(t, "21:00", doc.Fields["time"])
}

func TestImportAppointmentsSourceError(t *testing.T) {
	boom := errors.New("quota exceeded")
	_, err := ImportAppointments(context.Background(), gateway.NewMemory(), &fakeEvents{err: boom}, ImportOptions{})
	assert.ErrorIs(t, err, boom)
}
