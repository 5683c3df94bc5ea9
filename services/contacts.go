// ABOUTME: Contact service with status and free-text lookups
// ABOUTME: Thin wrapper over the generic service for the contact_c table

package services

import (
	"context"
	"time"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/notify"
	"github.com/harperreed/dealflow/records"
	"github.com/harperreed/dealflow/store"
)

type ContactService struct {
	*Service[models.Contact, models.ContactPatch]
}

func NewContactService(client store.Client, sink notify.Sink, opts ...Option) *ContactService {
	s := New[models.Contact, models.ContactPatch](client, records.ContactCodec{}, sink, opts...)
	s.prepare = func(c models.Contact, _ time.Time) models.Contact {
		if c.Status == "" {
			c.Status = models.ContactStatusActive
		}
		return c
	}
	return &ContactService{Service: s}
}

// Update completes a patch that names only one part with the stored
// other part, so the display name follows the change.
func (s *ContactService) Update(ctx context.Context, id int64, p models.ContactPatch) (models.Contact, error) {
	if (p.FirstName == nil) != (p.LastName == nil) {
		if existing, err := s.GetByID(ctx, id); err == nil {
			if p.FirstName == nil {
				p.FirstName = &existing.FirstName
			} else {
				p.LastName = &existing.LastName
			}
		}
	}
	return s.Service.Update(ctx, id, p)
}

func (s *ContactService) GetByStatus(ctx context.Context, status string) []models.Contact {
	return ContactsByStatus(s.List(ctx), status)
}

func (s *ContactService) Search(ctx context.Context, query string) []models.Contact {
	return SearchContacts(s.List(ctx), query)
}

// ContactNames indexes contacts by id for weak-reference resolution.
func ContactNames(contacts []models.Contact) map[int64]string {
	names := make(map[int64]string, len(contacts))
	for _, c := range contacts {
		names[c.ID] = c.FullName()
	}
	return names
}

// ResolveContact renders a contact reference: missing yields "Unknown",
// an unset reference yields unset.
func ResolveContact(names map[int64]string, id *int64, unset string) string {
	if id == nil {
		return unset
	}
	if name, ok := names[*id]; ok {
		return name
	}
	return "Unknown"
}
