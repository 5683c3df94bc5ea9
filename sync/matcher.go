// ABOUTME: Contact deduplication and matching logic
// ABOUTME: Finds existing contacts by email to prevent duplicates during sync
package sync

import (
	"strings"

	"github.com/harperreed/dealflow/models"
)

type ContactMatcher struct {
	byEmail map[string]models.Contact
}

// NewContactMatcher creates a matcher from existing contacts.
func NewContactMatcher(contacts []models.Contact) *ContactMatcher {
	m := &ContactMatcher{
		byEmail: make(map[string]models.Contact),
	}
	for _, c := range contacts {
		m.Add(c)
	}
	return m
}

// FindMatch looks for an existing contact by email.
func (m *ContactMatcher) FindMatch(email string) (models.Contact, bool) {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return models.Contact{}, false
	}
	c, found := m.byEmail[normalized]
	return c, found
}

// Add records contact so later lookups in the same import session see it.
func (m *ContactMatcher) Add(contact models.Contact) {
	if email := normalizeEmail(contact.Email); email != "" {
		m.byEmail[email] = contact
	}
}

// Len is the number of distinct emails known.
func (m *ContactMatcher) Len() int {
	return len(m.byEmail)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// extractDomain extracts domain from email address.
func extractDomain(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}
