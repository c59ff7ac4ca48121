// ABOUTME: Contact lookup by email for linking imported appointments
// ABOUTME: Matching is case-insensitive and ignores surrounding whitespace
package sync

import (
	"strings"

	"github.com/harperreed/dealflow/models"
)

type ContactMatcher struct {
	byEmail map[string]models.Contact
}

func NewContactMatcher(contacts []models.Contact) *ContactMatcher {
	m := &ContactMatcher{byEmail: make(map[string]models.Contact, len(contacts))}
	for _, c := range contacts {
		if email := normalizeEmail(c.Email); email != "" {
			m.byEmail[email] = c
		}
	}
	return m
}

// FindMatch returns the contact with this email.
func (m *ContactMatcher) FindMatch(email string) (models.Contact, bool) {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return models.Contact{}, false
	}
	c, ok := m.byEmail[normalized]
	return c, ok
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
