// ABOUTME: Imports Google Calendar events as appointments
// ABOUTME: Skips all-day, cancelled, and declined events and links attendees to contacts
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"google.golang.org/api/calendar/v3"

	"github.com/harperreed/dealflow/gateway"
	"github.com/harperreed/dealflow/models"
)

const (
	maxResults = 250

	// DefaultLookBack and DefaultLookAhead bound the import window around now.
	DefaultLookBack  = 7 * 24 * time.Hour
	DefaultLookAhead = 60 * 24 * time.Hour
)

var logger = log.With("component", "calendar")

// SetLogger replaces the package logger.
func SetLogger(l *log.Logger) {
	logger = l.With("component", "calendar")
}

// ImportResult summarizes one import run.
type ImportResult struct {
	Fetched int
	Created int
	Updated int
	Linked  int
	Skipped map[string]int
}

// SkippedTotal sums skips across reasons.
func (r ImportResult) SkippedTotal() int {
	n := 0
	for _, c := range r.Skipped {
		n += c
	}
	return n
}

type ImportOptions struct {
	Now       time.Time
	Location  *time.Location
	LookBack  time.Duration
	LookAhead time.Duration
}

func (o *ImportOptions) defaults() {
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.LookBack <= 0 {
		o.LookBack = DefaultLookBack
	}
	if o.LookAhead <= 0 {
		o.LookAhead = DefaultLookAhead
	}
}

// shouldSkipEvent reports whether event cannot become an appointment, and why.
func shouldSkipEvent(event *calendar.Event) (bool, string) {
	if event == nil {
		return true, "nil"
	}
	if event.Start == nil {
		return true, "missing start"
	}
	if event.Start.Date != "" {
		return true, "all-day"
	}
	if event.Status == "cancelled" {
		return true, "cancelled"
	}
	for _, a := range event.Attendees {
		if a.Self && a.ResponseStatus == "declined" {
			return true, "declined"
		}
	}
	return false, ""
}

// toAppointment converts a timed event into an appointment in loc.
func toAppointment(event *calendar.Event, loc *time.Location, matcher *ContactMatcher) (models.Appointment, error) {
	start, err := time.Parse(time.RFC3339, event.Start.DateTime)
	if err != nil {
		return models.Appointment{}, fmt.Errorf("event %s has bad start %q: %w", event.Id, event.Start.DateTime, err)
	}
	start = start.In(loc)

	appt := models.Appointment{
		ID:         "gcal-" + event.Id,
		Title:      event.Summary,
		Date:       start.Format(models.DateLayout),
		Time:       start.Format(models.TimeLayout),
		Location:   event.Location,
		Source:     models.AppointmentSourceGoogle,
		ExternalID: event.Id,
	}
	if appt.Title == "" {
		appt.Title = "(no title)"
	}

	for _, a := range event.Attendees {
		if a.Self {
			continue
		}
		if c, ok := matcher.FindMatch(a.Email); ok {
			appt.ContactID = c.ID
			break
		}
	}
	return appt, nil
}

// ImportAppointments pages through src and upserts one appointment per
// event. Re-importing an event updates the same record.
func ImportAppointments(ctx context.Context, gw gateway.Gateway, src EventSource, opts ImportOptions) (ImportResult, error) {
	opts.defaults()
	result := ImportResult{Skipped: make(map[string]int)}

	contactDocs, err := gateway.QueryAll(ctx, gw, models.CollectionContacts, gateway.Query{})
	if err != nil {
		return result, fmt.Errorf("failed to load contacts: %w", err)
	}
	contacts := make([]models.Contact, 0, len(contactDocs))
	for _, doc := range contactDocs {
		var c models.Contact
		if err := gateway.Decode(doc, &c); err != nil {
			logger.Warn("skipping unreadable contact", "id", doc.ID, "err", err)
			continue
		}
		contacts = append(contacts, c)
	}
	matcher := NewContactMatcher(contacts)

	from := opts.Now.Add(-opts.LookBack)
	to := opts.Now.Add(opts.LookAhead)
	pageToken := ""
	for page := 1; ; page++ {
		events, err := src.Events(ctx, from, to, pageToken)
		if err != nil {
			return result, fmt.Errorf("failed to fetch calendar events: %w", err)
		}
		result.Fetched += len(events.Items)
		logger.Debug("fetched events", "page", page, "count", len(events.Items))

		for _, event := range events.Items {
			if skip, reason := shouldSkipEvent(event); skip {
				result.Skipped[reason]++
				continue
			}

			appt, err := toAppointment(event, opts.Location, matcher)
			if err != nil {
				logger.Warn("skipping event", "err", err)
				result.Skipped["unparseable"]++
				continue
			}

			created, err := upsertAppointment(ctx, gw, appt)
			if err != nil {
				return result, err
			}
			if created {
				result.Created++
			} else {
				result.Updated++
			}
			if appt.ContactID != "" {
				result.Linked++
			}
		}

		pageToken = events.NextPageToken
		if pageToken == "" {
			break
		}
	}

	logger.Info("calendar import finished",
		"fetched", result.Fetched,
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.SkippedTotal())
	return result, nil
}

func upsertAppointment(ctx context.Context, gw gateway.Gateway, appt models.Appointment) (bool, error) {
	doc, err := gateway.Encode(appt)
	if err != nil {
		return false, err
	}

	_, err = gw.Get(ctx, models.CollectionAppointments, appt.ID)
	switch {
	case errors.Is(err, gateway.ErrNotFound):
		if _, err := gw.Create(ctx, models.CollectionAppointments, doc); err != nil {
			return false, fmt.Errorf("failed to create appointment %s: %w", appt.ID, err)
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("failed to look up appointment %s: %w", appt.ID, err)
	}

	if err := gw.Update(ctx, models.CollectionAppointments, appt.ID, doc.Fields); err != nil {
		return false, fmt.Errorf("failed to update appointment %s: %w", appt.ID, err)
	}
	return false, nil
}
