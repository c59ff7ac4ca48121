// ABOUTME: Periodic scan of appointments and follow-ups for due reminders
// ABOUTME: Fires each reminder instance once per process using an in-memory key set
package reminders

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/dealflow/gateway"
	"github.com/harperreed/dealflow/models"
)

const DefaultInterval = 30 * time.Second

type Kind string

const (
	KindAppointment Kind = "appointment"
	KindFollowUp    Kind = "follow-up"
)

// Reminder is one due notification.
type Reminder struct {
	Key      string
	Kind     Kind
	RecordID string
	Title    string
	Date     string
	Time     string
	Location string
}

func (r Reminder) Message() string {
	switch r.Kind {
	case KindAppointment:
		msg := fmt.Sprintf("Appointment now: %s at %s", r.Title, r.Time)
		if r.Location != "" {
			msg += " (" + r.Location + ")"
		}
		return msg
	default:
		return fmt.Sprintf("Follow up today: %s", r.Title)
	}
}

func appointmentKey(a models.Appointment) string {
	return "appt:" + a.ID + ":" + a.Date + ":" + a.Time
}

func followUpKey(o models.Opportunity) string {
	return "followup:" + o.ID + ":" + o.FollowUpDate
}

// Scanner finds due reminders and hands them to a Notifier.
type Scanner struct {
	gw       gateway.Gateway
	notifier Notifier
	interval time.Duration
	logger   *log.Logger
	now      func() time.Time

	mu    sync.Mutex
	fired map[string]bool
}

type Option func(*Scanner)

func WithInterval(d time.Duration) Option {
	return func(s *Scanner) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Scanner) {
		s.logger = l.With("component", "reminders")
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Scanner) {
		s.now = now
	}
}

func NewScanner(gw gateway.Gateway, notifier Notifier, opts ...Option) *Scanner {
	s := &Scanner{
		gw:       gw,
		notifier: notifier,
		interval: DefaultInterval,
		logger:   log.Default().With("component", "reminders"),
		now:      time.Now,
		fired:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run scans immediately and then every interval until ctx is cancelled.
// Scan errors are logged; a missed tick is never retried.
func (s *Scanner) Run(ctx context.Context) error {
	s.logger.Info("reminder scanner started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.Scan(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("reminder scan failed", "err", err)
		}

		select {
		case <-ctx.Done():
			s.logger.Info("reminder scanner stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Scan fires every due reminder that has not fired yet and returns them.
func (s *Scanner) Scan(ctx context.Context) ([]Reminder, error) {
	now := s.now()
	today := now.Format(models.DateLayout)

	due, err := s.dueAppointments(ctx, now, today)
	if err != nil {
		return nil, err
	}
	followUps, err := s.dueFollowUps(ctx, today)
	if err != nil {
		return nil, err
	}
	due = append(due, followUps...)

	var fired []Reminder
	for _, r := range due {
		if !s.claim(r.Key) {
			continue
		}
		if err := s.notifier.Notify(ctx, r); err != nil {
			s.release(r.Key)
			s.logger.Warn("reminder notification failed", "key", r.Key, "err", err)
			continue
		}
		fired = append(fired, r)
	}
	return fired, nil
}

func (s *Scanner) claim(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fired[key] {
		return false
	}
	s.fired[key] = true
	return true
}

func (s *Scanner) release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.fired, key)
}

func (s *Scanner) dueAppointments(ctx context.Context, now time.Time, today string) ([]Reminder, error) {
	docs, err := gateway.QueryAll(ctx, s.gw, models.CollectionAppointments, gateway.Query{
		Filters: []gateway.Filter{gateway.Eq("date", today)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}

	var due []Reminder
	for _, doc := range docs {
		var appt models.Appointment
		if err := gateway.Decode(doc, &appt); err != nil {
			s.logger.Warn("skipping malformed appointment", "id", doc.ID, "err", err)
			continue
		}

		at, err := time.ParseInLocation(models.DateLayout+" "+models.TimeLayout, appt.Date+" "+appt.Time, now.Location())
		if err != nil {
			s.logger.Warn("skipping appointment with bad date/time", "id", appt.ID, "date", appt.Date, "time", appt.Time)
			continue
		}
		if !sameMinute(at, now) {
			continue
		}

		due = append(due, Reminder{
			Key:      appointmentKey(appt),
			Kind:     KindAppointment,
			RecordID: appt.ID,
			Title:    appt.Title,
			Date:     appt.Date,
			Time:     appt.Time,
			Location: appt.Location,
		})
	}
	return due, nil
}

func (s *Scanner) dueFollowUps(ctx context.Context, today string) ([]Reminder, error) {
	docs, err := gateway.QueryAll(ctx, s.gw, models.CollectionOpportunities, gateway.Query{
		Filters: []gateway.Filter{
			gateway.Eq("followUpDate", today),
			gateway.Eq("followUpRead", false),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query follow-ups: %w", err)
	}

	var due []Reminder
	for _, doc := range docs {
		var opp models.Opportunity
		if err := gateway.Decode(doc, &opp); err != nil {
			s.logger.Warn("skipping malformed opportunity", "id", doc.ID, "err", err)
			continue
		}
		due = append(due, Reminder{
			Key:      followUpKey(opp),
			Kind:     KindFollowUp,
			RecordID: opp.ID,
			Title:    opp.Name,
			Date:     opp.FollowUpDate,
		})
	}
	return due, nil
}

func sameMinute(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd && a.Hour() == b.Hour() && a.Minute() == b.Minute()
}
