// ABOUTME: Contact and appointment records used for linking, reminders, and cascade
// ABOUTME: Thin typed wrappers over the gateway collections
package crm

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/dealflow/gateway"
	"github.com/harperreed/dealflow/models"
)

func (s *Service) CreateContact(ctx context.Context, c models.Contact) (models.Contact, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return models.Contact{}, fmt.Errorf("contact name is required")
	}
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))

	doc, err := gateway.Encode(c)
	if err != nil {
		return models.Contact{}, err
	}
	created, err := s.gw.Create(ctx, models.CollectionContacts, doc)
	if err != nil {
		return models.Contact{}, fmt.Errorf("failed to create contact: %w", err)
	}
	c.ID = created.ID
	return c, nil
}

func (s *Service) Contacts(ctx context.Context) ([]models.Contact, error) {
	docs, err := gateway.QueryAll(ctx, s.gw, models.CollectionContacts, gateway.Query{
		Order: &gateway.Order{Field: "name"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return decodeSlice[models.Contact](docs)
}

func (s *Service) CreateAppointment(ctx context.Context, a models.Appointment) (models.Appointment, error) {
	if err := validateDate(a.Date); err != nil || a.Date == "" {
		return models.Appointment{}, fmt.Errorf("%w: %q", ErrInvalidDate, a.Date)
	}
	if a.Source == "" {
		a.Source = models.AppointmentSourceManual
	}

	doc, err := gateway.Encode(a)
	if err != nil {
		return models.Appointment{}, err
	}
	created, err := s.gw.Create(ctx, models.CollectionAppointments, doc)
	if err != nil {
		return models.Appointment{}, fmt.Errorf("failed to create appointment: %w", err)
	}
	a.ID = created.ID
	return a, nil
}

// Appointments lists appointments on date, or all of them when date is empty.
func (s *Service) Appointments(ctx context.Context, date string) ([]models.Appointment, error) {
	q := gateway.Query{Order: &gateway.Order{Field: "time"}}
	if date != "" {
		q.Filters = []gateway.Filter{gateway.Eq("date", date)}
	}
	docs, err := gateway.QueryAll(ctx, s.gw, models.CollectionAppointments, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return decodeSlice[models.Appointment](docs)
}

func decodeSlice[T any](docs []gateway.Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := gateway.Decode(doc, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
